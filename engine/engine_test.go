package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codingersid/slim-template/value"
)

func writeView(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEngine_RenderString(t *testing.T) {
	dir := t.TempDir()
	writeView(t, dir, "home.slim", "h1= @title")

	e := New(dir, WithDoctype(false))
	out, err := e.RenderString("home", map[string]interface{}{"title": "Welcome"})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "<h1>Welcome</h1>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_DottedNames(t *testing.T) {
	dir := t.TempDir()
	writeView(t, dir, "pages/about.slim", "p about")

	e := New(dir, WithDoctype(false))
	out, err := e.RenderString("pages.about", nil)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if out != "<p>about</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_Doctype(t *testing.T) {
	dir := t.TempDir()
	writeView(t, dir, "home.slim", "p x")

	out, err := New(dir).RenderString("home", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<!DOCTYPE html>\n<p>x</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_GoDataConversion(t *testing.T) {
	dir := t.TempDir()
	writeView(t, dir, "list.slim", "ul\n  -@items.each do |x|\n    li= x")

	e := New(dir, WithDoctype(false))
	out, err := e.RenderString("list", map[string]interface{}{
		"items": []interface{}{1, "two", 3.5},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "<ul><li>1</li><li>two</li><li>3.5</li></ul>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_Layout(t *testing.T) {
	dir := t.TempDir()
	writeView(t, dir, "view.slim", "p content")
	writeView(t, dir, "layouts/app.slim", "main= yield")

	e := New(dir, WithDoctype(false))
	out, err := e.RenderWithLayout("view", "layouts.app", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<!DOCTYPE html>\n<main><p>content</p></main>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_DefaultHelpers(t *testing.T) {
	e := New(t.TempDir(), WithDoctype(false))

	out, err := e.RenderTemplate(`p= format("%d-%s", 1, "a")`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>1-a</p>" {
		t.Errorf("unexpected output %q", out)
	}

	out, err = e.RenderTemplate("p= raw @html", map[string]interface{}{"html": "<b>x</b>"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p><b>x</b></p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_DefaultConstants(t *testing.T) {
	e := New(t.TempDir(), WithDoctype(false))

	out, err := e.RenderTemplate(`p= Time.at(0).strftime("%F")`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>1970-01-01</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_CustomHelper(t *testing.T) {
	e := New(t.TempDir(), WithDoctype(false))
	e.AddHelper("loud", func(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
		return value.NewString(args[0].ToString() + "!!"), nil
	})

	out, err := e.RenderTemplate(`p= loud "hi"`, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>hi!!</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_Share(t *testing.T) {
	e := New(t.TempDir(), WithDoctype(false))
	e.Share("site", "Example")

	out, err := e.RenderTemplate("p= @site", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>Example</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_CustomValueType(t *testing.T) {
	point := value.NewObject("Point", value.MethodTable{
		"x": func(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
			return value.NewNumber(3), nil
		},
	})
	point.ToStringFn = func(o *value.Object) string { return "(3,4)" }

	e := New(t.TempDir(), WithDoctype(false))
	out, err := e.RenderTemplate("p= @pt.x", map[string]interface{}{"pt": point})
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>3</p>" {
		t.Errorf("unexpected output %q", out)
	}

	out, err = e.RenderTemplate("p= @pt", map[string]interface{}{"pt": point})
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>(3,4)</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestEngine_CacheReuse(t *testing.T) {
	dir := t.TempDir()
	writeView(t, dir, "home.slim", "p one")

	e := New(dir, WithDoctype(false))
	out, err := e.RenderString("home", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>one</p>" {
		t.Errorf("unexpected output %q", out)
	}

	// same modtime and content: cache stays valid
	out, err = e.RenderString("home", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>one</p>" {
		t.Errorf("unexpected cached output %q", out)
	}

	if _, ok := e.cache.Get("home"); !ok {
		t.Error("expected template to be cached")
	}
}

func TestEngine_DevelopmentDisablesCache(t *testing.T) {
	dir := t.TempDir()
	writeView(t, dir, "home.slim", "p one")

	e := New(dir, WithDevelopment(true), WithDoctype(false))
	if _, err := e.RenderString("home", nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.cache.Get("home"); ok {
		t.Error("development mode must not cache")
	}
}

func TestEngine_ParseErrorSurfaces(t *testing.T) {
	e := New(t.TempDir())
	if _, err := e.RenderTemplate("p\n\tbad", nil); err == nil {
		t.Fatal("expected tab-indentation parse error")
	}
}

func TestEngine_Locals(t *testing.T) {
	e := New(t.TempDir(), WithDoctype(false), WithLocals("item"))
	tmpl, err := e.ParseTemplate("li= item", "row.slim")
	if err != nil {
		t.Fatal(err)
	}

	out, err := tmpl.Render(e.NewViewModel(nil), false)
	if err != nil {
		t.Fatal(err)
	}
	// item is declared but unbound, so it reads as nil
	if out != "<li></li>" {
		t.Errorf("unexpected output %q", out)
	}
}
