package lexer

import (
	"testing"
)

func TestLexer_Indent(t *testing.T) {
	lex := New("p\n  span\n", "")

	tok, err := lex.NextIndent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != TOKEN_INDENT {
		t.Fatalf("expected INDENT, got %s", tok.Type)
	}
	if len(tok.Value) != 0 {
		t.Errorf("expected depth 0, got %d", len(tok.Value))
	}

	tok, err = lex.NextLineStart()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != TOKEN_NAME || tok.Value != "p" {
		t.Fatalf("expected NAME 'p', got %s %q", tok.Type, tok.Value)
	}

	if _, err := lex.NextTextContent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok, err = lex.NextIndent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != TOKEN_INDENT || len(tok.Value) != 2 {
		t.Fatalf("expected INDENT depth 2, got %s %d", tok.Type, len(tok.Value))
	}
}

func TestLexer_IndentSkipsBlankLines(t *testing.T) {
	lex := New("p\n\n   \n  span\n", "")

	if _, err := lex.NextIndent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := lex.NextLineStart(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := lex.NextTextContent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tok, err := lex.NextIndent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != TOKEN_INDENT || len(tok.Value) != 2 {
		t.Fatalf("expected INDENT depth 2 after blank lines, got %s %d", tok.Type, len(tok.Value))
	}
}

func TestLexer_TabIndentError(t *testing.T) {
	lex := New("p\n\tspan\n", "")

	if _, err := lex.NextIndent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := lex.NextLineStart(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := lex.NextTextContent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := lex.NextIndent(); err == nil {
		t.Fatal("expected error for tab indentation")
	}
}

func TestLexer_LineStarts(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{"| text", TOKEN_TEXT_LINE},
		{"' text", TOKEN_TEXT_LINE_WITH_TRAILING_SPACE},
		{"<br>", TOKEN_HTML_LINE},
		{"/ comment", TOKEN_COMMENT_LINE},
		{"/! comment", TOKEN_HTML_COMMENT_LINE},
		{"= @x", TOKEN_OUTPUT_LINE},
		{"-if @x", TOKEN_CONTROL_LINE},
		{"#main", TOKEN_TAG_ID},
		{".wide", TOKEN_TAG_CLASS},
		{"div", TOKEN_NAME},
	}

	for _, tt := range tests {
		lex := New(tt.input, "")
		if _, err := lex.NextIndent(); err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.input, err)
		}
		tok, err := lex.NextLineStart()
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.input, err)
		}
		if tok.Type != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, tok.Type)
		}
	}
}

func TestLexer_TagContent(t *testing.T) {
	lex := New("div#main.a.b class=x Hello\n", "")

	if _, err := lex.NextIndent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok, _ := lex.NextLineStart()
	if tok.Type != TOKEN_NAME || tok.Value != "div" {
		t.Fatalf("expected NAME div, got %s %q", tok.Type, tok.Value)
	}

	tok, _ = lex.NextTagContent()
	if tok.Type != TOKEN_TAG_ID {
		t.Fatalf("expected TAG_ID, got %s", tok.Type)
	}
	tok, _ = lex.NextName()
	if tok.Value != "main" {
		t.Errorf("expected id 'main', got %q", tok.Value)
	}

	tok, _ = lex.NextTagContent()
	if tok.Type != TOKEN_TAG_CLASS {
		t.Fatalf("expected TAG_CLASS, got %s", tok.Type)
	}
	tok, _ = lex.NextName()
	if tok.Value != "a" {
		t.Errorf("expected class 'a', got %q", tok.Value)
	}

	tok, _ = lex.NextTagContent()
	if tok.Type != TOKEN_TAG_CLASS {
		t.Fatalf("expected TAG_CLASS, got %s", tok.Type)
	}
	tok, _ = lex.NextName()
	if tok.Value != "b" {
		t.Errorf("expected class 'b', got %q", tok.Value)
	}

	tok, _ = lex.NextTagContent()
	if tok.Type != TOKEN_ATTR_NAME || tok.Value != "class" {
		t.Fatalf("expected ATTR_NAME class, got %s %q", tok.Type, tok.Value)
	}
	// the attribute's value expression would be consumed by the expression
	// parser; skip over it by hand here
	lex.SetPos(lex.Pos() + 1)

	tok, _ = lex.NextTagContent()
	if tok.Type != TOKEN_TEXT_CONTENT || tok.Value != "Hello" {
		t.Fatalf("expected TEXT_CONTENT 'Hello', got %s %q", tok.Type, tok.Value)
	}
}

func TestLexer_WrappedAttrs(t *testing.T) {
	lex := New(`input(type=x checked=y)`, "")

	if _, err := lex.NextIndent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := lex.NextLineStart(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tok, _ := lex.NextTagContent()
	if tok.Type != TOKEN_ATTRS_OPEN || tok.Value != "(" {
		t.Fatalf("expected ATTRS_OPEN, got %s %q", tok.Type, tok.Value)
	}

	tok, err := lex.NextWrappedAttr(')')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != TOKEN_ATTR_NAME || tok.Value != "type" {
		t.Fatalf("expected ATTR_NAME type, got %s %q", tok.Type, tok.Value)
	}
	lex.SetPos(lex.Pos() + 1) // skip value

	tok, err = lex.NextWrappedAttr(')')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != TOKEN_ATTR_NAME || tok.Value != "checked" {
		t.Fatalf("expected ATTR_NAME checked, got %s %q", tok.Type, tok.Value)
	}
	lex.SetPos(lex.Pos() + 1)

	tok, err = lex.NextWrappedAttr(')')
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != TOKEN_ATTRS_CLOSE {
		t.Fatalf("expected ATTRS_CLOSE, got %s", tok.Type)
	}
}

func TestLexer_WhitespaceControl(t *testing.T) {
	lex := New("<> rest", "")
	tok := lex.NextWhitespaceControl()
	if tok.Type != TOKEN_ADD_LEADING_AND_TRAILING_WHITESPACE {
		t.Errorf("expected <> sigil, got %s", tok.Type)
	}

	lex = New("@x", "")
	tok = lex.NextWhitespaceControl()
	if tok.Type != TOKEN_NONE {
		t.Errorf("expected NONE, got %s", tok.Type)
	}
	if lex.Pos() != 0 {
		t.Errorf("NONE must not consume input")
	}
}

func TestLexer_ControlCodeStart(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{"if @x", TOKEN_IF},
		{"elsif @x", TOKEN_ELSIF},
		{"else", TOKEN_ELSE},
		{"@xs.each do |x|", TOKEN_CODE},
		{"ifx", TOKEN_CODE},
	}
	for _, tt := range tests {
		lex := New(tt.input, "")
		tok := lex.ControlCodeStart()
		if tok.Type != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, tok.Type)
		}
	}
}

func TestLexer_TryControlLine(t *testing.T) {
	lex := New("-else\n", "")
	if !lex.TryControlLine() {
		t.Fatal("expected control line")
	}
	lex = New("p\n", "")
	if lex.TryControlLine() {
		t.Fatal("expected no control line")
	}
}

func TestLexer_SetPosTracksLines(t *testing.T) {
	src := "p\n  span\n"
	lex := New(src, "test.slim")
	lex.SetPos(len("p\n  s"))
	tok, err := lex.NextName()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Position.Line != 2 {
		t.Errorf("expected line 2 after SetPos, got %d", tok.Position.Line)
	}
}
