// Package slim provides a server-side HTML template engine using the Slim
// indentation-based syntax with an embedded Ruby-flavored expression
// language.
//
// # Basic Usage
//
//	// Parse a template and render it against a view model
//	tmpl, err := slim.ParseTemplate("p Hello #{@name}", "hello.slim")
//	vm := slim.NewViewModel()
//	vm.SetAttr("name", value.NewString("World"))
//	result, err := tmpl.Render(vm, false)
//
// # From a views directory
//
//	engine := slim.New("./views")
//	result, err := engine.RenderString("pages.home", map[string]interface{}{
//	    "title": "Welcome",
//	})
//
// # With Fiber
//
//	import (
//	    "github.com/gofiber/fiber/v2"
//	    slimfiber "github.com/codingersid/slim-template/fiber"
//	)
//
//	views := slimfiber.New("./views")
//	app := fiber.New(fiber.Config{
//	    Views: views,
//	})
//
// # Template Syntax
//
//	p#intro.lead Text content        - tags with #id and .class shortcuts
//	span= @user.name                 - escaped expression output
//	div class=@cls                   - dynamic attributes
//	-if @admin / -elsif / -else      - conditionals
//	-@items.each do |item|           - iteration
//	| literal text with #{@interp}   - text lines with interpolation
//	/! rendered HTML comment         - comments (/ is dropped entirely)
package slim

import (
	"io"

	"github.com/codingersid/slim-template/engine"
	fiberAdapter "github.com/codingersid/slim-template/fiber"
	"github.com/codingersid/slim-template/render"
	"github.com/codingersid/slim-template/runtime"
	"github.com/codingersid/slim-template/value"
)

// Version is the current version of slim-template
const Version = "1.0.0"

// Engine is an alias for engine.Engine
type Engine = engine.Engine

// Option is an alias for engine.Option
type Option = engine.Option

// Template is an alias for render.Template
type Template = render.Template

// ViewModel is an alias for runtime.ViewModel
type ViewModel = runtime.ViewModel

// Scope is an alias for runtime.Scope
type Scope = runtime.Scope

// New creates a new template engine
//
// Example:
//
//	engine := slim.New("./views")
//	engine := slim.New("./views", slim.WithExtension(".html.slim"))
func New(viewsPath string, opts ...Option) *Engine {
	return engine.New(viewsPath, opts...)
}

// NewFiber creates a new Fiber-compatible template engine
func NewFiber(directory string, extension ...string) *fiberAdapter.Engine {
	return fiberAdapter.New(directory, extension...)
}

// WithExtension sets the template file extension (default: .slim)
func WithExtension(ext string) Option {
	return engine.WithExtension(ext)
}

// WithDevelopment enables development mode (disables caching)
func WithDevelopment(dev bool) Option {
	return engine.WithDevelopment(dev)
}

// WithHelpers registers additional view helper methods
func WithHelpers(helpers map[string]value.MethodFunc) Option {
	return engine.WithHelpers(helpers)
}

// ParseTemplate parses template source into a reusable Template. Extra
// names pre-declare local variables for the template's expressions (used
// for partials receiving locals).
func ParseTemplate(source, fileName string, locals ...string) (*Template, error) {
	return render.Parse(source, fileName, locals...)
}

// NewViewModel creates a ViewModel carrying the default helpers and
// constants.
func NewViewModel() *ViewModel {
	vm := runtime.NewViewModel()
	for name, fn := range engine.DefaultHelpers() {
		vm.RegisterHelper(name, fn)
	}
	for name, v := range engine.DefaultConstants() {
		vm.SetConstant(name, v)
	}
	return vm
}

// NewScope creates a Scope over vm, for RenderPartial.
func NewScope(vm *ViewModel) *Scope {
	return runtime.NewScope(vm)
}

// Render is a convenience function that creates an engine and renders a template
func Render(w io.Writer, viewsPath, name string, data interface{}) error {
	return New(viewsPath).Render(w, name, data)
}

// RenderString is a convenience function that creates an engine and renders a template to string
func RenderString(viewsPath, name string, data interface{}) (string, error) {
	return New(viewsPath).RenderString(name, data)
}
