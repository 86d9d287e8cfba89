package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src)
	var out []Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("lexer error: %v", err)
		}
		out = append(out, tok)
		if tok.Type == TOKEN_END {
			return out
		}
	}
}

func types(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestLexer_Operators(t *testing.T) {
	toks := lexAll(t, "a + b * c ** 2 <=> d && e || !f")
	assert.Equal(t, []TokenType{
		TOKEN_SYMBOL, TOKEN_PLUS, TOKEN_SYMBOL, TOKEN_MUL, TOKEN_SYMBOL,
		TOKEN_POW, TOKEN_NUMBER, TOKEN_CMP, TOKEN_SYMBOL, TOKEN_LOGICAL_AND,
		TOKEN_SYMBOL, TOKEN_LOGICAL_OR, TOKEN_LOGICAL_NOT, TOKEN_SYMBOL,
		TOKEN_END,
	}, types(toks))
}

func TestLexer_Comparisons(t *testing.T) {
	toks := lexAll(t, "< <= > >= == != << >>")
	assert.Equal(t, []TokenType{
		TOKEN_CMP_LT, TOKEN_CMP_LE, TOKEN_CMP_GT, TOKEN_CMP_GE,
		TOKEN_CMP_EQ, TOKEN_CMP_NE, TOKEN_LSHIFT, TOKEN_RSHIFT, TOKEN_END,
	}, types(toks))
}

func TestLexer_NegativeNumbers(t *testing.T) {
	// after an operator, -2 is a negative literal
	toks := lexAll(t, "a * -2")
	assert.Equal(t, []TokenType{TOKEN_SYMBOL, TOKEN_MUL, TOKEN_NUMBER, TOKEN_END}, types(toks))
	assert.Equal(t, "-2", toks[2].Str)

	// after an operand, - is subtraction
	toks = lexAll(t, "a -2")
	assert.Equal(t, []TokenType{TOKEN_SYMBOL, TOKEN_MINUS, TOKEN_NUMBER, TOKEN_END}, types(toks))

	toks = lexAll(t, "1-2")
	assert.Equal(t, []TokenType{TOKEN_NUMBER, TOKEN_MINUS, TOKEN_NUMBER, TOKEN_END}, types(toks))
}

func TestLexer_SymbolForms(t *testing.T) {
	toks := lexAll(t, "empty? key: @attr :sym a::B")
	assert.Equal(t, []TokenType{
		TOKEN_SYMBOL, TOKEN_HASH_SYMBOL, TOKEN_ATTR_NAME, TOKEN_COLON,
		TOKEN_SYMBOL, TOKEN_SYMBOL, TOKEN_CONST_NAV, TOKEN_SYMBOL, TOKEN_END,
	}, types(toks))
	assert.Equal(t, "empty?", toks[0].Str)
	assert.Equal(t, "key", toks[1].Str)
	assert.Equal(t, "attr", toks[2].Str)
}

func TestLexer_SafeNavAndRanges(t *testing.T) {
	toks := lexAll(t, "a&.b 1..2 1...3 a.b")
	assert.Equal(t, []TokenType{
		TOKEN_SYMBOL, TOKEN_SAFE_NAV, TOKEN_SYMBOL,
		TOKEN_NUMBER, TOKEN_DOTDOT, TOKEN_NUMBER,
		TOKEN_NUMBER, TOKEN_DOTDOTDOT, TOKEN_NUMBER,
		TOKEN_SYMBOL, TOKEN_DOT, TOKEN_SYMBOL, TOKEN_END,
	}, types(toks))
}

func TestLexer_StringSubLexer(t *testing.T) {
	l := New(`"a\n#{x}b"`)
	tok, err := l.Next()
	assert.NoError(t, err)
	assert.Equal(t, TOKEN_STRING_DELIM, tok.Type)

	tok, err = l.NextInString('"')
	assert.NoError(t, err)
	assert.Equal(t, TOKEN_STRING_TEXT, tok.Type)
	assert.Equal(t, "a\n", tok.Str)

	tok, err = l.NextInString('"')
	assert.NoError(t, err)
	assert.Equal(t, TOKEN_STRING_INTERP_START, tok.Type)

	tok, err = l.Next()
	assert.NoError(t, err)
	assert.Equal(t, TOKEN_SYMBOL, tok.Type)
	tok, err = l.Next()
	assert.NoError(t, err)
	assert.Equal(t, TOKEN_R_CURLY_BRACKET, tok.Type)

	tok, err = l.NextInString('"')
	assert.NoError(t, err)
	assert.Equal(t, "b", tok.Str)

	tok, err = l.NextInString('"')
	assert.NoError(t, err)
	assert.Equal(t, TOKEN_STRING_DELIM, tok.Type)
}

func TestLexer_StringEscapes(t *testing.T) {
	l := New(`'\\\'\t\#x'`)
	if _, err := l.Next(); err != nil {
		t.Fatal(err)
	}
	tok, err := l.NextInString('\'')
	assert.NoError(t, err)
	assert.Equal(t, "\\'\t#x", tok.Str)
}

func TestLexer_UnknownEscapeError(t *testing.T) {
	l := New(`"\q"`)
	if _, err := l.Next(); err != nil {
		t.Fatal(err)
	}
	_, err := l.NextInString('"')
	assert.Error(t, err)
}

func TestLexer_MidStreamStopsAtNewline(t *testing.T) {
	src := "div class=@cls\n  p"
	l := NewAt(src, len("div class="))

	tok, err := l.Next()
	assert.NoError(t, err)
	assert.Equal(t, TOKEN_ATTR_NAME, tok.Type)
	assert.Equal(t, "cls", tok.Str)

	tok, err = l.Next()
	assert.NoError(t, err)
	assert.Equal(t, TOKEN_END, tok.Type, "newline ends a mid-stream expression")
	assert.Equal(t, len("div class=@cls"), tok.Pos)
}

func TestLexer_MidStreamCommaContinuation(t *testing.T) {
	src := "a=f 1,\n  2\np"
	l := NewAt(src, len("a="))

	var toks []TokenType
	for {
		tok, err := l.Next()
		assert.NoError(t, err)
		toks = append(toks, tok.Type)
		if tok.Type == TOKEN_END {
			break
		}
	}
	assert.Equal(t, []TokenType{
		TOKEN_SYMBOL, TOKEN_NUMBER, TOKEN_COMMA, TOKEN_NUMBER, TOKEN_END,
	}, toks, "a trailing comma continues onto the next line")
}

func TestLexer_MidStreamBackslashContinuation(t *testing.T) {
	src := "a=1 + \\\n2\np"
	l := NewAt(src, len("a="))

	var toks []TokenType
	for {
		tok, err := l.Next()
		assert.NoError(t, err)
		toks = append(toks, tok.Type)
		if tok.Type == TOKEN_END {
			break
		}
	}
	assert.Equal(t, []TokenType{TOKEN_NUMBER, TOKEN_PLUS, TOKEN_NUMBER, TOKEN_END}, toks)
}

func TestLexer_TokenPositions(t *testing.T) {
	l := New("ab + cd")
	tok, _ := l.Next()
	assert.Equal(t, 0, tok.Pos)
	tok, _ = l.Next()
	assert.Equal(t, 3, tok.Pos)
	tok, _ = l.Next()
	assert.Equal(t, 5, tok.Pos)
}
