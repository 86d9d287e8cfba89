package expr

import (
	"fmt"
	"strings"
)

// SyntaxError represents an expression parse error
type SyntaxError struct {
	Message string
	Line    int
	Offset  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("SyntaxError: %s (line %d, offset %d)", e.Message, e.Line, e.Offset)
}

// Lexer is a single forward pass over the expression source bytes. In
// mid-stream mode (expressions embedded in a template line) a line break
// terminates the expression unless the previous significant token was a
// comma or the break is escaped with a backslash, implementing the
// multi-line continuation rule.
type Lexer struct {
	src  string
	pos  int
	last TokenType
	// stopAtNewline is set for mid-stream template fragments.
	stopAtNewline bool
}

// New creates a new Lexer over a self-contained expression string.
func New(src string) *Lexer {
	return &Lexer{src: src, last: TOKEN_END}
}

// NewAt creates a Lexer over src starting at byte offset pos, stopping at an
// unescaped line break. Used for expressions embedded mid-line in a template.
func NewAt(src string, pos int) *Lexer {
	return &Lexer{src: src, pos: pos, last: TOKEN_END, stopAtNewline: true}
}

// Pos reports the current byte offset.
func (l *Lexer) Pos() int { return l.pos }

func (l *Lexer) errorf(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Line:    1 + strings.Count(l.src[:l.pos], "\n"),
		Offset:  l.pos,
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSymbolStartChr(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSymbolChr(c byte) bool { return isSymbolStartChr(c) || isDigit(c) }

// valueEnding reports whether a token type can end an operand, which decides
// whether a following `-digit` is a negative literal or a subtraction.
func valueEnding(t TokenType) bool {
	switch t {
	case TOKEN_NUMBER, TOKEN_SYMBOL, TOKEN_ATTR_NAME, TOKEN_STRING_DELIM,
		TOKEN_RPAREN, TOKEN_R_SQ_BRACKET, TOKEN_R_CURLY_BRACKET:
		return true
	default:
		return false
	}
}

// skipWS skips whitespace. A line break stops a mid-stream lexer unless the
// last token was a comma or the break is escaped with a backslash.
func (l *Lexer) skipWS() (stopped bool) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t':
			l.pos++
		case c == '\\' && l.pos+1 < len(l.src) && (l.src[l.pos+1] == '\n' || l.src[l.pos+1] == '\r'):
			l.pos++
			l.skipNewline()
		case c == '\n' || c == '\r':
			if l.stopAtNewline && l.last != TOKEN_COMMA {
				return true
			}
			l.skipNewline()
		default:
			return false
		}
	}
	return false
}

func (l *Lexer) skipNewline() {
	if l.pos < len(l.src) && l.src[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '\n' {
		l.pos++
	}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	t, err := l.next()
	if err == nil {
		l.last = t.Type
	}
	return t, err
}

func (l *Lexer) next() (Token, error) {
	if l.skipWS() {
		return Token{Type: TOKEN_END, Pos: l.pos}, nil
	}
	if l.pos >= len(l.src) {
		return Token{Type: TOKEN_END, Pos: l.pos}, nil
	}

	start := l.pos
	tok := func(t TokenType, n int) (Token, error) {
		l.pos += n
		return Token{Type: t, Str: l.src[start:l.pos], Pos: start}, nil
	}
	peek := func(i int) byte {
		if l.pos+i < len(l.src) {
			return l.src[l.pos+i]
		}
		return 0
	}

	switch c := l.src[l.pos]; c {
	case '(':
		return tok(TOKEN_LPAREN, 1)
	case ')':
		return tok(TOKEN_RPAREN, 1)
	case '[':
		return tok(TOKEN_L_SQ_BRACKET, 1)
	case ']':
		return tok(TOKEN_R_SQ_BRACKET, 1)
	case '{':
		return tok(TOKEN_L_CURLY_BRACKET, 1)
	case '}':
		return tok(TOKEN_R_CURLY_BRACKET, 1)
	case ',':
		return tok(TOKEN_COMMA, 1)
	case '.':
		if peek(1) == '.' {
			if peek(2) == '.' {
				return tok(TOKEN_DOTDOTDOT, 3)
			}
			return tok(TOKEN_DOTDOT, 2)
		}
		return tok(TOKEN_DOT, 1)
	case '+':
		return tok(TOKEN_PLUS, 1)
	case '/':
		return tok(TOKEN_DIV, 1)
	case '%':
		return tok(TOKEN_MOD, 1)
	case '~':
		return tok(TOKEN_NOT, 1)
	case '^':
		return tok(TOKEN_XOR, 1)
	case '?':
		return tok(TOKEN_CONDITIONAL, 1)
	case ':':
		if peek(1) == ':' {
			return tok(TOKEN_CONST_NAV, 2)
		}
		return tok(TOKEN_COLON, 1)
	case '\'', '"':
		return tok(TOKEN_STRING_DELIM, 1)
	case '@':
		return l.attrName()
	case '*':
		if peek(1) == '*' {
			return tok(TOKEN_POW, 2)
		}
		return tok(TOKEN_MUL, 1)
	case '-':
		if isDigit(peek(1)) && !valueEnding(l.last) {
			l.pos++
			return l.number(start)
		}
		return tok(TOKEN_MINUS, 1)
	case '&':
		if peek(1) == '&' {
			return tok(TOKEN_LOGICAL_AND, 2)
		}
		if peek(1) == '.' {
			return tok(TOKEN_SAFE_NAV, 2)
		}
		return tok(TOKEN_AND, 1)
	case '|':
		if peek(1) == '|' {
			return tok(TOKEN_LOGICAL_OR, 2)
		}
		return tok(TOKEN_OR, 1)
	case '!':
		if peek(1) == '=' {
			return tok(TOKEN_CMP_NE, 2)
		}
		return tok(TOKEN_LOGICAL_NOT, 1)
	case '=':
		if peek(1) == '=' {
			return tok(TOKEN_CMP_EQ, 2)
		}
		if peek(1) == '>' {
			return tok(TOKEN_HASH_KEY_VALUE_SEP, 2)
		}
		return tok(TOKEN_ASSIGN, 1)
	case '<':
		if peek(1) == '<' {
			return tok(TOKEN_LSHIFT, 2)
		}
		if peek(1) == '=' {
			if peek(2) == '>' {
				return tok(TOKEN_CMP, 3)
			}
			return tok(TOKEN_CMP_LE, 2)
		}
		return tok(TOKEN_CMP_LT, 1)
	case '>':
		if peek(1) == '>' {
			return tok(TOKEN_RSHIFT, 2)
		}
		if peek(1) == '=' {
			return tok(TOKEN_CMP_GE, 2)
		}
		return tok(TOKEN_CMP_GT, 1)
	default:
		if isSymbolStartChr(c) {
			return l.symbol(), nil
		}
		if isDigit(c) {
			return l.number(start)
		}
		return Token{}, l.errorf("unexpected character %q", c)
	}
}

// NextInString is the string sub-lexer entry used inside a string literal
// with the given delimiter. It returns STRING_TEXT, STRING_INTERP_START, or
// the closing STRING_DELIM.
func (l *Lexer) NextInString(delim byte) (Token, error) {
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{}, l.errorf("unterminated string")
	}
	if l.src[l.pos] == delim {
		l.pos++
		return Token{Type: TOKEN_STRING_DELIM, Str: string(delim), Pos: start}, nil
	}
	if l.src[l.pos] == '#' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '{' {
		l.pos += 2
		return Token{Type: TOKEN_STRING_INTERP_START, Pos: start}, nil
	}

	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' {
			if l.pos+1 >= len(l.src) {
				return Token{}, l.errorf("unexpected end in string")
			}
			switch e := l.src[l.pos+1]; e {
			case '\\':
				b.WriteByte('\\')
			case '\'':
				b.WriteByte('\'')
			case '"':
				b.WriteByte('"')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'n':
				b.WriteByte('\n')
			case '#':
				b.WriteByte('#')
			default:
				return Token{}, l.errorf("unknown string escape code \\%c", e)
			}
			l.pos += 2
			continue
		}
		if c == '#' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '{' {
			break
		}
		if c == delim {
			break
		}
		b.WriteByte(c)
		l.pos++
	}
	if l.pos >= len(l.src) {
		return Token{}, l.errorf("unterminated string")
	}
	return Token{Type: TOKEN_STRING_TEXT, Str: b.String(), Pos: start}, nil
}

// NextInRegexp reads regex literal text up to an interpolation, or the
// closing '/'. Escape sequences are kept verbatim for the regex engine,
// except \/ which unescapes to a plain slash.
func (l *Lexer) NextInRegexp() (Token, error) {
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{}, l.errorf("unterminated regexp")
	}
	if l.src[l.pos] == '/' {
		l.pos++
		return Token{Type: TOKEN_STRING_DELIM, Str: "/", Pos: start}, nil
	}
	if l.src[l.pos] == '#' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '{' {
		l.pos += 2
		return Token{Type: TOKEN_STRING_INTERP_START, Pos: start}, nil
	}
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			if l.src[l.pos+1] == '/' {
				b.WriteByte('/')
			} else {
				b.WriteByte('\\')
				b.WriteByte(l.src[l.pos+1])
			}
			l.pos += 2
			continue
		}
		if c == '/' || (c == '#' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '{') {
			break
		}
		b.WriteByte(c)
		l.pos++
	}
	if l.pos >= len(l.src) {
		return Token{}, l.errorf("unterminated regexp")
	}
	return Token{Type: TOKEN_STRING_TEXT, Str: b.String(), Pos: start}, nil
}

// RegexpFlags reads the trailing flag letters after a regex literal's
// closing slash.
func (l *Lexer) RegexpFlags() string {
	start := l.pos
	for l.pos < len(l.src) && isSymbolStartChr(l.src[l.pos]) {
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *Lexer) symbol() Token {
	start := l.pos
	for l.pos < len(l.src) && isSymbolChr(l.src[l.pos]) {
		l.pos++
	}
	end := l.pos
	typ := TOKEN_SYMBOL
	if l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ':':
			// `name:` is a hash key, but `name::` is constant navigation
			if l.pos+1 >= len(l.src) || l.src[l.pos+1] != ':' {
				l.pos++
				typ = TOKEN_HASH_SYMBOL
			}
		case '?':
			// trailing ? is part of method symbols
			l.pos++
			end = l.pos
		}
	}
	return Token{Type: typ, Str: l.src[start:end], Pos: start}
}

func (l *Lexer) number(start int) (Token, error) {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
		l.pos += 2
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	return Token{Type: TOKEN_NUMBER, Str: l.src[start:l.pos], Pos: start}, nil
}

func (l *Lexer) attrName() (Token, error) {
	start := l.pos
	l.pos++ // @
	if l.pos >= len(l.src) || !isSymbolStartChr(l.src[l.pos]) {
		return Token{}, l.errorf("expected attribute name after @")
	}
	for l.pos < len(l.src) && isSymbolChr(l.src[l.pos]) {
		l.pos++
	}
	return Token{Type: TOKEN_ATTR_NAME, Str: l.src[start+1 : l.pos], Pos: start}, nil
}
