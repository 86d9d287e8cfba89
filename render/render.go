// Package render walks a parsed render-node tree and produces the HTML
// output string. A Scope is threaded through the walk; all dynamic output is
// HTML-escaped unless the value is an HtmlSafeString.
package render

import (
	"strings"

	"github.com/codingersid/slim-template/parser"
	"github.com/codingersid/slim-template/runtime"
	"github.com/codingersid/slim-template/value"
)

// Renderer performs one depth-first render of a node tree. The buffer stack
// exists for content_for, which redirects the render-proc's output into a
// named chunk instead of the main buffer.
type Renderer struct {
	bufs  []*strings.Builder
	scope *runtime.Scope
}

func newRenderer(scope *runtime.Scope) *Renderer {
	r := &Renderer{scope: scope}
	r.pushBuffer()
	r.registerRenderFuncs()
	return r
}

func (r *Renderer) buf() *strings.Builder { return r.bufs[len(r.bufs)-1] }

func (r *Renderer) pushBuffer() { r.bufs = append(r.bufs, &strings.Builder{}) }

func (r *Renderer) popBuffer() string {
	top := r.bufs[len(r.bufs)-1]
	r.bufs = r.bufs[:len(r.bufs)-1]
	return top.String()
}

// registerRenderFuncs installs the render-scoped helpers: content_for and
// yield exist only while a render runs, because they need access to the
// renderer's buffer stack and the view model's content store.
func (r *Renderer) registerRenderFuncs() {
	vm := r.scope.ViewModel()

	r.scope.RegisterFunc("content_for", func(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
		if len(args) < 1 {
			return nil, &value.ArgumentCountError{Method: "content_for", Expected: 1, Got: 0}
		}
		name := args[0].ToString()
		if block != nil {
			// expression-level call with an inline block
			v, err := block.Call(nil)
			if err != nil {
				return nil, err
			}
			vm.SetContentFor(name, value.NewHtmlSafeString(v.ToString()))
			return value.NilValue, nil
		}
		// template-block form: the parser's ForEach plumbing will call
		// `each` on the returned slot with the body's render proc
		slot := value.NewObject("ContentFor", value.MethodTable{
			"each": func(_ value.Value, _ []value.Value, body *value.Proc) (value.Value, error) {
				if body == nil {
					return value.NilValue, nil
				}
				r.pushBuffer()
				_, err := body.Call(nil)
				rendered := r.popBuffer()
				if err != nil {
					return nil, err
				}
				vm.SetContentFor(name, value.NewHtmlSafeString(rendered))
				return value.NilValue, nil
			},
		})
		return slot, nil
	})

	r.scope.RegisterFunc("yield", func(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
		if len(args) == 0 {
			if mc := vm.MainContent(); mc != nil {
				return mc, nil
			}
			return value.NewHtmlSafeString(""), nil
		}
		if v, ok := vm.ContentFor(args[0].ToString()); ok {
			return v, nil
		}
		return value.NewHtmlSafeString(""), nil
	})
}

// renderNode appends one node's output to the current buffer.
func (r *Renderer) renderNode(node parser.Node) error {
	switch n := node.(type) {
	case *parser.PartsListNode:
		for _, child := range n.Children {
			if err := r.renderNode(child); err != nil {
				return err
			}
		}
		return nil

	case *parser.TextNode:
		r.buf().WriteString(n.Content)
		return nil

	case *parser.OutputExprNode:
		v, err := n.Expr.Eval(r.scope)
		if err != nil {
			return err
		}
		if n.LeadingSpace {
			r.buf().WriteByte(' ')
		}
		r.buf().WriteString(value.EscapeValue(v))
		if n.TrailingSpace {
			r.buf().WriteByte(' ')
		}
		return nil

	case *parser.DynamicAttrNode:
		return r.renderDynamicAttr(n)

	case *parser.ForEachNode:
		return r.renderForEach(n)

	case *parser.IfNode:
		cond, err := n.Cond.Eval(r.scope)
		if err != nil {
			return err
		}
		if cond.Truthy() {
			return r.renderNode(n.Body)
		}
		for _, arm := range n.ElseIfs {
			cond, err := arm.Cond.Eval(r.scope)
			if err != nil {
				return err
			}
			if cond.Truthy() {
				return r.renderNode(arm.Body)
			}
		}
		if n.Else != nil {
			return r.renderNode(n.Else)
		}
		return nil

	case *parser.CodeNode:
		_, err := n.Expr.Eval(r.scope)
		return err

	default:
		return &value.ArgumentError{Message: "unknown render node"}
	}
}

// renderDynamicAttr emits one attribute from its static strings and
// evaluated dynamic values. Array values flatten into the value list. A sole
// nil/false suppresses the attribute, a sole true emits the bare name.
func (r *Renderer) renderDynamicAttr(n *parser.DynamicAttrNode) error {
	var values []value.Value
	for _, e := range n.DynamicExprs {
		v, err := e.Eval(r.scope)
		if err != nil {
			return err
		}
		if arr, ok := v.(*value.Array); ok {
			values = append(values, arr.Items...)
		} else {
			values = append(values, v)
		}
	}

	if len(n.StaticValues) == 0 && len(values) == 0 {
		return nil
	}
	if len(n.StaticValues) == 0 && len(values) == 1 {
		switch v := values[0].(type) {
		case value.Nil:
			return nil
		case value.Bool:
			if v {
				r.buf().WriteString(" " + n.Name)
			}
			return nil
		}
	}

	parts := make([]string, 0, len(n.StaticValues)+len(values))
	for _, s := range n.StaticValues {
		parts = append(parts, value.EscapeHTML(s))
	}
	for _, v := range values {
		parts = append(parts, value.EscapeValue(v))
	}

	buf := r.buf()
	buf.WriteByte(' ')
	buf.WriteString(n.Name)
	buf.WriteString(`="`)
	buf.WriteString(strings.Join(parts, " "))
	buf.WriteByte('"')
	return nil
}

// renderForEach evaluates the receiver expression, which must yield a value
// responding to `each`, and iterates it with a synthesized Proc that renders
// the body with the block parameters bound.
func (r *Renderer) renderForEach(n *parser.ForEachNode) error {
	recv, err := n.Recv.Eval(r.scope)
	if err != nil {
		return err
	}

	proc := value.NewProc(n.Params, func(args []value.Value) (value.Value, error) {
		frame := r.scope.NewFrame().(*runtime.Scope)
		for i, name := range n.Params {
			frame.Set(name, args[i])
		}
		saved := r.scope
		r.scope = frame
		err := r.renderNode(n.Body)
		r.scope = saved
		if err != nil {
			return nil, err
		}
		return value.NilValue, nil
	})

	eachFn := value.Lookup(recv, "each")
	if eachFn == nil {
		return &value.NoSuchMethodError{Typ: recv.TypeName(), Method: "each"}
	}
	result, err := eachFn(recv, nil, proc)
	if err != nil {
		return err
	}
	if n.Output {
		r.buf().WriteString(value.EscapeValue(result))
	}
	return nil
}
