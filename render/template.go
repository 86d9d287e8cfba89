package render

import (
	"github.com/codingersid/slim-template/lexer"
	"github.com/codingersid/slim-template/parser"
	"github.com/codingersid/slim-template/runtime"
	"github.com/codingersid/slim-template/value"
)

// Doctype is the prefix emitted when rendering with include_doctype.
const Doctype = "<!DOCTYPE html>\n"

// Template is a parsed template, ready to render against a ViewModel. Once
// constructed it is read-only.
type Template struct {
	Root     parser.Node
	FileName string
}

// Parse parses template source. Pre-declared local names become visible to
// the template's expressions (used for partials receiving locals).
func Parse(source, fileName string, locals ...string) (*Template, error) {
	l := lexer.New(source, fileName)
	root, err := parser.New(l, locals...).Parse()
	if err != nil {
		return nil, err
	}
	return &Template{Root: root, FileName: fileName}, nil
}

// Render renders the template against vm. With includeDoctype the output is
// prefixed with the HTML5 doctype. On error the partial output is discarded.
func (t *Template) Render(vm *runtime.ViewModel, includeDoctype bool) (string, error) {
	out, err := t.RenderPartial(runtime.NewScope(vm))
	if err != nil {
		return "", err
	}
	if includeDoctype {
		return Doctype + out, nil
	}
	return out, nil
}

// RenderLayout renders the template, stores the result on vm as the main
// content, then renders the layout template, whose `yield` helper returns
// the stored content.
func (t *Template) RenderLayout(layout *Template, vm *runtime.ViewModel) (string, error) {
	main, err := t.Render(vm, false)
	if err != nil {
		return "", err
	}
	vm.SetMainContent(value.NewHtmlSafeString(main))
	return layout.Render(vm, true)
}

// RenderPartial renders using an externally constructed scope, for partials
// invoked from helper methods.
func (t *Template) RenderPartial(scope *runtime.Scope) (string, error) {
	r := newRenderer(scope)
	if err := r.renderNode(t.Root); err != nil {
		return "", err
	}
	return r.popBuffer(), nil
}
