// Package fiber adapts the slim engine to the Fiber Views interface
// (Load/Render) without importing Fiber itself: any framework expecting that
// interface can use it.
package fiber

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codingersid/slim-template/engine"
)

// Engine wraps the slim engine for Fiber compatibility
type Engine struct {
	*engine.Engine
	directory  string
	extension  string
	layout     string
	reload     bool
	mutex      sync.RWMutex
	layoutFunc func() string
}

// New creates a new Fiber-compatible template engine
func New(directory string, extension ...string) *Engine {
	ext := ".slim"
	if len(extension) > 0 {
		ext = extension[0]
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
	}

	eng := engine.New(directory,
		engine.WithExtension(ext),
	)

	return &Engine{
		Engine:    eng,
		directory: directory,
		extension: ext,
	}
}

// Layout sets the default layout template
func (e *Engine) Layout(layout string) *Engine {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.layout = layout
	return e
}

// LayoutFunc sets a function that returns the layout template name
func (e *Engine) LayoutFunc(fn func() string) *Engine {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.layoutFunc = fn
	return e
}

// Reload enables re-parsing of templates on each request (development mode)
func (e *Engine) Reload(reload bool) *Engine {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.reload = reload
	if reload {
		e.ClearCache()
	}
	return e
}

// Load pre-parses all templates under the views directory.
// This implements the fiber.Views interface
func (e *Engine) Load() error {
	if e.reload {
		return nil // don't pre-load in reload mode
	}

	return filepath.Walk(e.directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, e.extension) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := e.Engine.ParseTemplate(string(content), path); err != nil {
			return err
		}
		return nil
	})
}

// Render renders a template with the given data.
// This implements the fiber.Views interface
func (e *Engine) Render(w io.Writer, name string, data interface{}, layouts ...string) error {
	if e.reload {
		e.ClearCache()
	}

	layout := e.getLayout(layouts...)
	if layout != "" {
		out, err := e.Engine.RenderWithLayout(name, layout, data)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
	return e.Engine.Render(w, name, data)
}

// getLayout determines which layout to use
func (e *Engine) getLayout(layouts ...string) string {
	if len(layouts) > 0 && layouts[0] != "" {
		return layouts[0]
	}
	if e.layoutFunc != nil {
		return e.layoutFunc()
	}
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.layout
}

// HTTPHandler returns an http.Handler that renders the template
func (e *Engine) HTTPHandler(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := e.Render(w, name, nil); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// WithLayout sets the default layout
func WithLayout(layout string) func(*Engine) {
	return func(e *Engine) {
		e.layout = layout
	}
}

// WithReload enables reload mode
func WithReload(reload bool) func(*Engine) {
	return func(e *Engine) {
		e.reload = reload
	}
}

// NewWithOptions creates a new engine with options
func NewWithOptions(directory string, extension string, opts ...func(*Engine)) *Engine {
	e := New(directory, extension)
	for _, opt := range opts {
		opt(e)
	}
	return e
}
