// Package engine is the embedding facade: it loads template files from a
// views directory, caches parsed templates, builds view models from Go data,
// and renders with optional layouts.
package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/codingersid/slim-template/render"
	"github.com/codingersid/slim-template/runtime"
	"github.com/codingersid/slim-template/value"
)

// Engine is the main template engine
type Engine struct {
	viewsPath   string
	extension   string
	cache       *TemplateCache
	helpers     map[string]value.MethodFunc
	constants   map[string]value.Value
	shared      map[string]value.Value
	locals      []string
	development bool
	doctype     bool
	mutex       sync.RWMutex
}

// Option configures the engine
type Option func(*Engine)

// New creates a new template engine
func New(viewsPath string, opts ...Option) *Engine {
	e := &Engine{
		viewsPath: viewsPath,
		extension: ".slim",
		cache:     NewTemplateCache(),
		helpers:   DefaultHelpers(),
		constants: DefaultConstants(),
		shared:    make(map[string]value.Value),
		doctype:   true,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.development {
		e.cache.Disable()
	}

	return e
}

// WithExtension sets the template file extension
func WithExtension(ext string) Option {
	return func(e *Engine) {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.extension = ext
	}
}

// WithDevelopment enables development mode (disables caching)
func WithDevelopment(dev bool) Option {
	return func(e *Engine) {
		e.development = dev
	}
}

// WithHelpers registers additional view helpers
func WithHelpers(helpers map[string]value.MethodFunc) Option {
	return func(e *Engine) {
		for name, fn := range helpers {
			e.helpers[name] = fn
		}
	}
}

// WithDoctype controls whether the output of Render, RenderString and
// RenderTemplate is prefixed with the HTML5 doctype. Enabled by default.
// RenderWithLayout always prefixes the layout's output with the doctype.
func WithDoctype(enabled bool) Option {
	return func(e *Engine) {
		e.doctype = enabled
	}
}

// WithLocals pre-declares local variable names visible to every template's
// expression parser (used for partials receiving locals).
func WithLocals(names ...string) Option {
	return func(e *Engine) {
		e.locals = append(e.locals, names...)
	}
}

// AddHelper registers a view helper available to all templates
func (e *Engine) AddHelper(name string, fn value.MethodFunc) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.helpers[name] = fn
}

// AddConstant registers a constant available to all templates
func (e *Engine) AddConstant(name string, v value.Value) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.constants[name] = v
}

// Share adds an attribute that will be available to all templates
func (e *Engine) Share(key string, v interface{}) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.shared[key] = value.FromGo(v)
}

// NewViewModel builds a ViewModel carrying the engine's helpers, constants,
// shared attributes, and the given data (a map of attribute name to Go
// value, or an existing *runtime.ViewModel passed through unchanged).
func (e *Engine) NewViewModel(data interface{}) *runtime.ViewModel {
	if vm, ok := data.(*runtime.ViewModel); ok {
		return vm
	}
	vm := runtime.NewViewModel()

	e.mutex.RLock()
	for name, fn := range e.helpers {
		vm.RegisterHelper(name, fn)
	}
	for name, v := range e.constants {
		vm.SetConstant(name, v)
	}
	for name, v := range e.shared {
		vm.SetAttr(name, v)
	}
	e.mutex.RUnlock()

	switch d := data.(type) {
	case nil:
	case map[string]interface{}:
		for name, v := range d {
			vm.SetAttr(name, value.FromGo(v))
		}
	case map[string]value.Value:
		for name, v := range d {
			vm.SetAttr(name, v)
		}
	default:
		vm.SetAttr("data", value.FromGo(data))
	}
	return vm
}

// Render renders a template to the given writer
func (e *Engine) Render(w io.Writer, name string, data interface{}) error {
	out, err := e.RenderString(name, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// RenderString renders a template and returns the result as a string
func (e *Engine) RenderString(name string, data interface{}) (string, error) {
	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", err
	}
	return tmpl.Render(e.NewViewModel(data), e.doctype)
}

// RenderWithLayout renders a template inside a layout template. The layout
// accesses the view's output through `yield` and named chunks through
// `yield :name`.
func (e *Engine) RenderWithLayout(name, layout string, data interface{}) (string, error) {
	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", err
	}
	layoutTmpl, err := e.getTemplate(layout)
	if err != nil {
		return "", err
	}
	return tmpl.RenderLayout(layoutTmpl, e.NewViewModel(data))
}

// RenderTemplate renders a template string directly (not from file)
func (e *Engine) RenderTemplate(source string, data interface{}) (string, error) {
	tmpl, err := render.Parse(source, "(inline)", e.locals...)
	if err != nil {
		return "", err
	}
	return tmpl.Render(e.NewViewModel(data), e.doctype)
}

// ParseTemplate parses a template string without rendering it
func (e *Engine) ParseTemplate(source, fileName string) (*render.Template, error) {
	return render.Parse(source, fileName, e.locals...)
}

// ClearCache clears the template cache
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// getTemplate retrieves or parses a template by view name
func (e *Engine) getTemplate(name string) (*render.Template, error) {
	filePath := e.resolvePath(name)

	if cached, ok := e.cache.Get(name); ok {
		if e.cache.IsValid(name, filePath) {
			return cached.Template, nil
		}
	}

	tmpl, modTime, checksum, err := e.parseFile(name, filePath)
	if err != nil {
		return nil, err
	}
	e.cache.Set(name, tmpl, modTime, checksum)
	return tmpl, nil
}

// parseFile reads and parses a template file
func (e *Engine) parseFile(name, filePath string) (*render.Template, time.Time, string, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, time.Time{}, "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, time.Time{}, "", err
	}

	tmpl, err := render.Parse(string(content), filePath, e.locals...)
	if err != nil {
		return nil, time.Time{}, "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, info.ModTime(), Checksum(content), nil
}

// resolvePath maps a dotted view name (pages.home) to its file path
func (e *Engine) resolvePath(name string) string {
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator))
	return filepath.Join(e.viewsPath, rel+e.extension)
}
