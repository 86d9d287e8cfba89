package render

import (
	"strings"
	"testing"

	"github.com/codingersid/slim-template/runtime"
	"github.com/codingersid/slim-template/value"
)

func newModel(attrs map[string]value.Value) *runtime.ViewModel {
	vm := runtime.NewViewModel()
	for name, v := range attrs {
		vm.SetAttr(name, v)
	}
	return vm
}

func renderTemplate(t *testing.T, source string, attrs map[string]value.Value) string {
	t.Helper()
	tmpl, err := Parse(source, "test.slim")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	out, err := tmpl.Render(newModel(attrs), false)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	return out
}

func TestRender_PlainTags(t *testing.T) {
	out := renderTemplate(t, "p\n  span Hello\n  span World", nil)
	if out != "<p><span>Hello</span><span>World</span></p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_InterpolationWithEscape(t *testing.T) {
	out := renderTemplate(t, "p Hello #{@a} #{@b}", map[string]value.Value{
		"a": value.NewString("Test"),
		"b": value.NewString("<b>"),
	})
	if out != "<p>Hello Test &lt;b&gt;</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_Conditional(t *testing.T) {
	source := "-if @a == 1\n  p Yes\n-else\n  p No"

	out := renderTemplate(t, source, map[string]value.Value{"a": value.NewNumber(1)})
	if out != "<p>Yes</p>" {
		t.Errorf("expected yes branch, got %q", out)
	}

	out = renderTemplate(t, source, map[string]value.Value{"a": value.NewNumber(2)})
	if out != "<p>No</p>" {
		t.Errorf("expected else branch, got %q", out)
	}
}

func TestRender_ElsifChain(t *testing.T) {
	source := "-if @a == 1\n  p one\n-elsif @a == 2\n  p two\n-else\n  p many"

	for want, a := range map[string]float64{"<p>one</p>": 1, "<p>two</p>": 2, "<p>many</p>": 9} {
		out := renderTemplate(t, source, map[string]value.Value{"a": value.NewNumber(a)})
		if out != want {
			t.Errorf("a=%v: expected %q, got %q", a, want, out)
		}
	}
}

func TestRender_Iteration(t *testing.T) {
	out := renderTemplate(t, "ul\n  -@xs.each do |x|\n    li= x", map[string]value.Value{
		"xs": value.NewArray([]value.Value{
			value.NewNumber(1), value.NewNumber(2), value.NewNumber(3),
		}),
	})
	if out != "<ul><li>1</li><li>2</li><li>3</li></ul>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_IterationOverHash(t *testing.T) {
	h := value.NewHash()
	h.Set(value.NewString("a"), value.NewNumber(1))
	h.Set(value.NewString("b"), value.NewNumber(2))

	out := renderTemplate(t, "-@h.each do |k, v|\n  p #{k}=#{v}", map[string]value.Value{"h": h})
	if out != "<p>a=1</p><p>b=2</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_DynamicAttributes(t *testing.T) {
	out := renderTemplate(t, "div.a.b class=@cls Hello", map[string]value.Value{
		"cls": value.NewString("hi"),
	})
	if out != `<div class="a b hi">Hello</div>` {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_BooleanAttributes(t *testing.T) {
	out := renderTemplate(t, `input(type="checkbox" checked=true disabled=false)`, nil)
	if out != `<input type="checkbox" checked/>` {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_DynamicBooleanAttribute(t *testing.T) {
	source := "input type=\"text\" disabled=@dis"

	out := renderTemplate(t, source, map[string]value.Value{"dis": value.True})
	if out != `<input type="text" disabled/>` {
		t.Errorf("unexpected output %q", out)
	}

	out = renderTemplate(t, source, map[string]value.Value{"dis": value.False})
	if out != `<input type="text"/>` {
		t.Errorf("unexpected output %q", out)
	}

	out = renderTemplate(t, source, map[string]value.Value{"dis": value.NilValue})
	if out != `<input type="text"/>` {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_AttributeEscaping(t *testing.T) {
	out := renderTemplate(t, "div title=@t", map[string]value.Value{
		"t": value.NewString(`a"b<c`),
	})
	if out != `<div title="a&quot;b&lt;c"></div>` {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_EscapeUnlessHtmlSafe(t *testing.T) {
	attrs := map[string]value.Value{
		"plain": value.NewString("<b>hi</b>"),
		"safe":  value.NewHtmlSafeString("<b>hi</b>"),
	}

	out := renderTemplate(t, "= @plain", attrs)
	if out != "&lt;b&gt;hi&lt;/b&gt;" {
		t.Errorf("expected escaped output, got %q", out)
	}

	out = renderTemplate(t, "= @safe", attrs)
	if out != "<b>hi</b>" {
		t.Errorf("expected raw output, got %q", out)
	}

	out = renderTemplate(t, "= @plain.html_safe", attrs)
	if out != "<b>hi</b>" {
		t.Errorf("expected html_safe to skip escaping, got %q", out)
	}
}

func TestRender_EscapesAllFiveCharacters(t *testing.T) {
	out := renderTemplate(t, "= @s", map[string]value.Value{
		"s": value.NewString(`&<>"'`),
	})
	if out != "&amp;&lt;&gt;&quot;&#39;" {
		t.Errorf("unexpected escape output %q", out)
	}
}

func TestRender_Doctype(t *testing.T) {
	tmpl, err := Parse("p Hi", "test.slim")
	if err != nil {
		t.Fatal(err)
	}
	out, err := tmpl.Render(runtime.NewViewModel(), true)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<!DOCTYPE html>\n<p>Hi</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_VoidElements(t *testing.T) {
	out := renderTemplate(t, "img", nil)
	if out != "<img/>" {
		t.Errorf("unexpected output %q", out)
	}

	if _, err := Parse("img content", "test.slim"); err == nil {
		t.Fatal("expected parse error for void element content")
	}
}

func TestRender_TextLines(t *testing.T) {
	out := renderTemplate(t, "p\n  | line one\n  ' spaced", nil)
	if out != "<p>line onespaced </p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_WhitespaceControl(t *testing.T) {
	out := renderTemplate(t, "span<> x", nil)
	if out != " <span>x</span> " {
		t.Errorf("unexpected output %q", out)
	}

	out = renderTemplate(t, "=> @x", map[string]value.Value{"x": value.NewNumber(1)})
	if out != "1 " {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_CodeLineAssignment(t *testing.T) {
	out := renderTemplate(t, "- total = 2 + 3\np= total", nil)
	if out != "<p>5</p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_SafeNavigation(t *testing.T) {
	out := renderTemplate(t, "p= @missing&.upcase", nil)
	if out != "<p></p>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_NestedIteration(t *testing.T) {
	rows := value.NewArray([]value.Value{
		value.NewArray([]value.Value{value.NewNumber(1), value.NewNumber(2)}),
		value.NewArray([]value.Value{value.NewNumber(3), value.NewNumber(4)}),
	})
	source := "table\n  -@rows.each do |row|\n    tr\n      -row.each do |cell|\n        td= cell"

	out := renderTemplate(t, source, map[string]value.Value{"rows": rows})
	want := "<table><tr><td>1</td><td>2</td></tr><tr><td>3</td><td>4</td></tr></table>"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestRender_ContentForAndYield(t *testing.T) {
	vm := runtime.NewViewModel()

	view, err := Parse("-content_for :side do\n  p sidebar\np main", "view.slim")
	if err != nil {
		t.Fatal(err)
	}
	layout, err := Parse("#side= yield :side\n#main= yield", "layout.slim")
	if err != nil {
		t.Fatal(err)
	}

	out, err := view.RenderLayout(layout, vm)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	want := Doctype + `<div id="side"><p>sidebar</p></div><div id="main"><p>main</p></div>`
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestRender_YieldMissingChunkIsEmpty(t *testing.T) {
	out := renderTemplate(t, "div= yield :nope", nil)
	if out != "<div></div>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_Partial(t *testing.T) {
	tmpl, err := Parse("li= item", "partial.slim", "item")
	if err != nil {
		t.Fatal(err)
	}

	scope := runtime.NewScope(runtime.NewViewModel())
	scope.Set("item", value.NewString("first"))
	out, err := tmpl.RenderPartial(scope)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<li>first</li>" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_ErrorDiscardsPartialOutput(t *testing.T) {
	tmpl, err := Parse("p before\np= @xs.frobnicate", "test.slim")
	if err != nil {
		t.Fatal(err)
	}
	vm := runtime.NewViewModel()
	vm.SetAttr("xs", value.NewArray(nil))

	out, err := tmpl.Render(vm, false)
	if err == nil {
		t.Fatal("expected render error")
	}
	if out != "" {
		t.Errorf("partial output must be discarded, got %q", out)
	}
	if !strings.Contains(err.Error(), "frobnicate") {
		t.Errorf("error should name the missing method, got %v", err)
	}
}

func TestRender_HtmlCommentAndComment(t *testing.T) {
	out := renderTemplate(t, "/ dropped\n/! kept", nil)
	if out != "<!--kept-->" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestRender_HelperDispatch(t *testing.T) {
	vm := runtime.NewViewModel()
	vm.RegisterHelper("shout", func(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
		return value.NewString(strings.ToUpper(args[0].ToString())), nil
	})

	tmpl, err := Parse(`p= shout "hi"`, "test.slim")
	if err != nil {
		t.Fatal(err)
	}
	out, err := tmpl.Render(vm, false)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<p>HI</p>" {
		t.Errorf("unexpected output %q", out)
	}
}
