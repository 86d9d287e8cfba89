// Package runtime holds the per-render state: the ViewModel (the template's
// "self") and the Scope chain of local-variable frames threaded through
// rendering and expression evaluation.
package runtime

import (
	"sync"

	"github.com/codingersid/slim-template/value"
)

// ViewModel is the "self" of a template: attributes accessed as @name,
// constants accessed as Name, and helper methods dispatched as bare calls.
// It also stores the rendered content_for chunks and, during layout
// rendering, the main view's content for yield.
type ViewModel struct {
	attrs       map[string]value.Value
	constants   map[string]value.Value
	helpers     map[string]value.MethodFunc
	contentFor  map[string]value.Value
	mainContent value.Value
	mu          sync.RWMutex
}

// NewViewModel creates an empty ViewModel.
func NewViewModel() *ViewModel {
	return &ViewModel{
		attrs:      make(map[string]value.Value),
		constants:  make(map[string]value.Value),
		helpers:    make(map[string]value.MethodFunc),
		contentFor: make(map[string]value.Value),
	}
}

// SetAttr sets an attribute, overwriting any previous value.
func (vm *ViewModel) SetAttr(name string, v value.Value) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.attrs[name] = v
}

// GetAttr returns an attribute, or nil-value when absent.
func (vm *ViewModel) GetAttr(name string) value.Value {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if v, ok := vm.attrs[name]; ok {
		return v
	}
	return value.NilValue
}

// SetConstant registers a constant.
func (vm *ViewModel) SetConstant(name string, v value.Value) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.constants[name] = v
}

// GetConstant resolves a constant; absence is an error.
func (vm *ViewModel) GetConstant(name string) (value.Value, error) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if v, ok := vm.constants[name]; ok {
		return v, nil
	}
	return nil, &value.NoConstantError{Name: name}
}

// RegisterHelper binds a helper method callable from templates by bare name.
func (vm *ViewModel) RegisterHelper(name string, fn value.MethodFunc) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.helpers[name] = fn
}

// Helper returns the named helper, or nil.
func (vm *ViewModel) Helper(name string) value.MethodFunc {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.helpers[name]
}

// SetContentFor stores a rendered content_for chunk under name.
func (vm *ViewModel) SetContentFor(name string, v value.Value) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.contentFor[name] = v
}

// ContentFor returns the chunk stored under name, or nil when absent.
func (vm *ViewModel) ContentFor(name string) (value.Value, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	v, ok := vm.contentFor[name]
	return v, ok
}

// SetMainContent stores the main view's rendered output for the layout's
// yield.
func (vm *ViewModel) SetMainContent(v value.Value) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.mainContent = v
}

// MainContent returns the stored main content, or nil when none was set.
func (vm *ViewModel) MainContent() value.Value {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.mainContent
}
