package runtime

import (
	"github.com/codingersid/slim-template/expr"
	"github.com/codingersid/slim-template/value"
)

// Frame is one local-variable frame. Frames chain to their parent; lookups
// go inner to outer.
type Frame struct {
	vars   map[string]value.Value
	parent *Frame
}

// Scope combines a ViewModel with a chain of local-variable frames. A new
// frame is pushed when a Proc is called or a block body is rendered; the
// outermost lookups fall through to the ViewModel.
type Scope struct {
	vm    *ViewModel
	frame *Frame
	// funcs is the render-scoped helper table (content_for, yield): helpers
	// that exist only while a render is running, ahead of the ViewModel's
	// registered helpers.
	funcs map[string]value.MethodFunc
}

// NewScope creates a Scope over vm with one empty frame.
func NewScope(vm *ViewModel) *Scope {
	return &Scope{
		vm:    vm,
		frame: &Frame{vars: make(map[string]value.Value)},
		funcs: make(map[string]value.MethodFunc),
	}
}

// ViewModel returns the backing view model.
func (s *Scope) ViewModel() *ViewModel { return s.vm }

// RegisterFunc installs a render-scoped helper.
func (s *Scope) RegisterFunc(name string, fn value.MethodFunc) {
	s.funcs[name] = fn
}

// Get resolves a local variable inner to outer; unbound names read as nil.
func (s *Scope) Get(name string) value.Value {
	for f := s.frame; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v
		}
	}
	return value.NilValue
}

// Set writes into the innermost frame.
func (s *Scope) Set(name string, v value.Value) {
	s.frame.vars[name] = v
}

// Attr delegates @name lookup to the ViewModel.
func (s *Scope) Attr(name string) value.Value {
	return s.vm.GetAttr(name)
}

// Constant delegates constant lookup to the ViewModel.
func (s *Scope) Constant(name string) (value.Value, error) {
	return s.vm.GetConstant(name)
}

// Helper resolves a helper: render-scoped functions first, then the
// ViewModel's registered helpers.
func (s *Scope) Helper(name string) value.MethodFunc {
	if fn, ok := s.funcs[name]; ok {
		return fn
	}
	return s.vm.Helper(name)
}

// NewFrame returns a scope sharing this one's view model and helper table,
// with a fresh innermost local-variable frame chained to the current one.
func (s *Scope) NewFrame() expr.Scope {
	return &Scope{
		vm:    s.vm,
		frame: &Frame{vars: make(map[string]value.Value), parent: s.frame},
		funcs: s.funcs,
	}
}
