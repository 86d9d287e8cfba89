package value

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Str is the Value variant for String and HtmlSafeString (spec.md §3: "an
// HtmlSafeString is a String with an extra Safe flag; every method on it
// behaves exactly as it does on an ordinary String"). Only output escaping
// treats Safe specially: EscapeValue in html.go skips escaping when Safe is
// set.
type Str struct {
	S    string
	Safe bool
}

// NewString returns an ordinary (unescaped) String.
func NewString(s string) Value { return &Str{S: s} }

// NewHtmlSafeString returns a String already marked safe for raw HTML output.
func NewHtmlSafeString(s string) Value { return &Str{S: s, Safe: true} }

func (s *Str) Kind() Kind       { return KindString }
func (s *Str) TypeName() string { return "String" }
func (s *Str) ToString() string { return s.S }
func (s *Str) Inspect() string  { return strconv.Quote(s.S) }
// Truthy deviates from plain Ruby here: the empty string counts as false,
// which lets templates write `-if @title` for optional text.
func (s *Str) Truthy() bool { return s.S != "" }

func (s *Str) Eq(o Value) bool {
	os, ok := o.(*Str)
	return ok && os.S == s.S
}

func (s *Str) Cmp(o Value) (int, error) {
	os, ok := o.(*Str)
	if !ok {
		return 0, &UnorderableTypeError{Op: "<=>", Left: "String", Right: o.TypeName()}
	}
	return strings.Compare(s.S, os.S), nil
}

func (s *Str) HashKey() string { return "str:" + s.S }

// Add implements `+` (concatenation). The result stays HTML-safe only when
// both sides already were.
func (s *Str) Add(o Value) (Value, error) {
	os, ok := o.(*Str)
	if !ok {
		return nil, unsupported("+", o)
	}
	return &Str{S: s.S + os.S, Safe: s.Safe && os.Safe}, nil
}

func asString(v Value, method string) (*Str, error) {
	s, ok := v.(*Str)
	if !ok {
		return nil, &TypeError{Expected: "String", Got: v.TypeName(), Context: method}
	}
	return s, nil
}

func runeSlice(s string) []rune { return []rune(s) }

func normalizeIndex(i, n int) int {
	if i < 0 {
		return i + n
	}
	return i
}

var stringMethods MethodTable

func init() {
	stringMethods = MethodTable{
		"to_s": func(recv Value, args []Value, block *Proc) (Value, error) {
			return recv, nil
		},
		"to_str": func(recv Value, args []Value, block *Proc) (Value, error) {
			return recv, nil
		},
		"to_sym": func(recv Value, args []Value, block *Proc) (Value, error) {
			return Intern(recv.(*Str).S), nil
		},
		"to_f": func(recv Value, args []Value, block *Proc) (Value, error) {
			f := leadingFloat(recv.(*Str).S)
			return NewNumber(f), nil
		},
		"to_i": func(recv Value, args []Value, block *Proc) (Value, error) {
			f := leadingInt(recv.(*Str).S)
			return NewNumber(f), nil
		},
		"html_safe": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewHtmlSafeString(recv.(*Str).S), nil
		},
		"html_safe?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(recv.(*Str).Safe), nil
		},
		"length": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(utf8.RuneCountInString(recv.(*Str).S))), nil
		},
		"size": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(utf8.RuneCountInString(recv.(*Str).S))), nil
		},
		"bytesize": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(len(recv.(*Str).S))), nil
		},
		"empty?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(recv.(*Str).S == ""), nil
		},
		"ascii_only?": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			for i := 0; i < len(s); i++ {
				if s[i] > unicode.MaxASCII {
					return False, nil
				}
			}
			return True, nil
		},
		"+": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "+", Expected: 1, Got: len(args)}
			}
			o, err := asString(args[0], "+")
			if err != nil {
				return nil, err
			}
			return NewString(recv.(*Str).S + o.S), nil
		},
		"*": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "*", Expected: 1, Got: len(args)}
			}
			n, err := asNumber(args[0], "*")
			if err != nil {
				return nil, err
			}
			return NewString(strings.Repeat(recv.(*Str).S, int(n.F))), nil
		},
		"upcase": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(strings.ToUpper(recv.(*Str).S)), nil
		},
		"downcase": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(strings.ToLower(recv.(*Str).S)), nil
		},
		"capitalize": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			if s == "" {
				return NewString(""), nil
			}
			r := runeSlice(s)
			return NewString(string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))), nil
		},
		"casecmp": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "casecmp", Expected: 1, Got: len(args)}
			}
			o, err := asString(args[0], "casecmp")
			if err != nil {
				return nil, err
			}
			return NewNumber(float64(strings.Compare(strings.ToLower(recv.(*Str).S), strings.ToLower(o.S)))), nil
		},
		"strip": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(strings.TrimSpace(recv.(*Str).S)), nil
		},
		"lstrip": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(strings.TrimLeft(recv.(*Str).S, " \t\n\r\v\f")), nil
		},
		"rstrip": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(strings.TrimRight(recv.(*Str).S, " \t\n\r\v\f")), nil
		},
		"chomp": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			if len(args) == 0 {
				// strip one trailing "\r\n", "\n", or "\r"
				if strings.HasSuffix(s, "\r\n") {
					return NewString(s[:len(s)-2]), nil
				}
				if strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "\r") {
					return NewString(s[:len(s)-1]), nil
				}
				return NewString(s), nil
			}
			sep, err := asString(args[0], "chomp")
			if err != nil {
				return nil, err
			}
			if sep.S == "" {
				return NewString(strings.TrimRight(s, "\r\n")), nil
			}
			return NewString(strings.TrimSuffix(s, sep.S)), nil
		},
		"chop": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			if strings.HasSuffix(s, "\r\n") {
				return NewString(s[:len(s)-2]), nil
			}
			r := runeSlice(s)
			if len(r) == 0 {
				return NewString(""), nil
			}
			return NewString(string(r[:len(r)-1])), nil
		},
		"chr": func(recv Value, args []Value, block *Proc) (Value, error) {
			r := runeSlice(recv.(*Str).S)
			if len(r) == 0 {
				return NewString(""), nil
			}
			return NewString(string(r[0])), nil
		},
		"reverse": func(recv Value, args []Value, block *Proc) (Value, error) {
			// byte-wise reversal, matching this engine's UTF-8-byte-vector
			// treatment of strings rather than a codepoint-aware reverse.
			b := []byte(recv.(*Str).S)
			for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
				b[i], b[j] = b[j], b[i]
			}
			return NewString(string(b)), nil
		},
		"center": func(recv Value, args []Value, block *Proc) (Value, error) {
			return padString(recv.(*Str).S, args, padCenter)
		},
		"ljust": func(recv Value, args []Value, block *Proc) (Value, error) {
			return padString(recv.(*Str).S, args, padLeft)
		},
		"rjust": func(recv Value, args []Value, block *Proc) (Value, error) {
			return padString(recv.(*Str).S, args, padRight)
		},
		"include?": func(recv Value, args []Value, block *Proc) (Value, error) {
			o, err := asString(args[0], "include?")
			if err != nil {
				return nil, err
			}
			return BoolValue(strings.Contains(recv.(*Str).S, o.S)), nil
		},
		"start_with?": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			for _, a := range args {
				o, err := asString(a, "start_with?")
				if err != nil {
					return nil, err
				}
				if strings.HasPrefix(s, o.S) {
					return True, nil
				}
			}
			return False, nil
		},
		"end_with?": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			for _, a := range args {
				o, err := asString(a, "end_with?")
				if err != nil {
					return nil, err
				}
				if strings.HasSuffix(s, o.S) {
					return True, nil
				}
			}
			return False, nil
		},
		"index": func(recv Value, args []Value, block *Proc) (Value, error) {
			return stringIndex(recv.(*Str).S, args, false)
		},
		"rindex": func(recv Value, args []Value, block *Proc) (Value, error) {
			return stringIndex(recv.(*Str).S, args, true)
		},
		"split": func(recv Value, args []Value, block *Proc) (Value, error) {
			return stringSplit(recv.(*Str).S, args)
		},
		"lines": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			var out []string
			for len(s) > 0 {
				i := strings.IndexByte(s, '\n')
				if i < 0 {
					out = append(out, s)
					break
				}
				out = append(out, s[:i+1])
				s = s[i+1:]
			}
			return NewArray(stringsToValues(out)), nil
		},
		"chars": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewArray(stringsToValues(strings.Split(recv.(*Str).S, ""))), nil
		},
		"bytes": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			out := make([]Value, len(s))
			for i := 0; i < len(s); i++ {
				out[i] = NewNumber(float64(s[i]))
			}
			return NewArray(out), nil
		},
		"codepoints": func(recv Value, args []Value, block *Proc) (Value, error) {
			var out []Value
			for _, r := range recv.(*Str).S {
				out = append(out, NewNumber(float64(r)))
			}
			return NewArray(out), nil
		},
		"getbyte": func(recv Value, args []Value, block *Proc) (Value, error) {
			n, err := asNumber(args[0], "getbyte")
			if err != nil {
				return nil, err
			}
			s := recv.(*Str).S
			i := normalizeIndex(int(n.F), len(s))
			if i < 0 || i >= len(s) {
				return NilValue, nil
			}
			return NewNumber(float64(s[i])), nil
		},
		"byteslice": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			start, err := asNumber(args[0], "byteslice")
			if err != nil {
				return nil, err
			}
			length := 1
			if len(args) > 1 {
				ln, err := asNumber(args[1], "byteslice")
				if err != nil {
					return nil, err
				}
				length = int(ln.F)
			}
			i := normalizeIndex(int(start.F), len(s))
			if i < 0 || i > len(s) {
				return NilValue, nil
			}
			end := i + length
			if end > len(s) {
				end = len(s)
			}
			if end < i {
				return NilValue, nil
			}
			return NewString(s[i:end]), nil
		},
		"ord": func(recv Value, args []Value, block *Proc) (Value, error) {
			r, _ := utf8.DecodeRuneInString(recv.(*Str).S)
			if r == utf8.RuneError {
				return nil, &ArgumentError{Message: "empty string"}
			}
			return NewNumber(float64(r)), nil
		},
		"hex": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := strings.TrimPrefix(strings.TrimSpace(recv.(*Str).S), "0x")
			n, err := strconv.ParseInt(s, 16, 64)
			if err != nil {
				return NewNumber(0), nil
			}
			return NewNumber(float64(n)), nil
		},
		"partition": func(recv Value, args []Value, block *Proc) (Value, error) {
			sep, err := asString(args[0], "partition")
			if err != nil {
				return nil, err
			}
			s := recv.(*Str).S
			i := strings.Index(s, sep.S)
			if i < 0 {
				return NewArray([]Value{NewString(s), NewString(""), NewString("")}), nil
			}
			return NewArray([]Value{NewString(s[:i]), NewString(sep.S), NewString(s[i+len(sep.S):])}), nil
		},
		"rpartition": func(recv Value, args []Value, block *Proc) (Value, error) {
			sep, err := asString(args[0], "rpartition")
			if err != nil {
				return nil, err
			}
			s := recv.(*Str).S
			i := strings.LastIndex(s, sep.S)
			if i < 0 {
				return NewArray([]Value{NewString(""), NewString(""), NewString(s)}), nil
			}
			return NewArray([]Value{NewString(s[:i]), NewString(sep.S), NewString(s[i+len(sep.S):])}), nil
		},
		"slice": func(recv Value, args []Value, block *Proc) (Value, error) {
			return stringSlice(recv.(*Str).S, args)
		},
		"[]": func(recv Value, args []Value, block *Proc) (Value, error) {
			return stringSlice(recv.(*Str).S, args)
		},
		"sub": func(recv Value, args []Value, block *Proc) (Value, error) {
			return stringSub(recv.(*Str).S, args, block, false)
		},
		"gsub": func(recv Value, args []Value, block *Proc) (Value, error) {
			return stringSub(recv.(*Str).S, args, block, true)
		},
		"match": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) < 1 {
				return nil, &ArgumentCountError{Method: "match", Expected: 1, Got: 0}
			}
			re, err := asRegexpArg(args[0], "match")
			if err != nil {
				return nil, err
			}
			pos := 0
			if len(args) > 1 {
				num, err := asNumber(args[1], "match")
				if err != nil {
					return nil, err
				}
				pos = int(num.F)
			}
			return re.matchAt(recv.(*Str).S, pos), nil
		},
		"match?": func(recv Value, args []Value, block *Proc) (Value, error) {
			re, err := asRegexpArg(args[0], "match?")
			if err != nil {
				return nil, err
			}
			return BoolValue(re.re.MatchString(recv.(*Str).S)), nil
		},
		"scrub": func(recv Value, args []Value, block *Proc) (Value, error) {
			repl := "�"
			if len(args) > 0 {
				r, err := asString(args[0], "scrub")
				if err != nil {
					return nil, err
				}
				repl = r.S
			}
			return NewString(strings.ToValidUTF8(recv.(*Str).S, repl)), nil
		},
		"each_char": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			if block == nil {
				return newEnumerator(recv, "each_char", nil), nil
			}
			for _, r := range s {
				if _, err := block.Call([]Value{NewString(string(r))}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"each_byte": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			if block == nil {
				return newEnumerator(recv, "each_byte", nil), nil
			}
			for i := 0; i < len(s); i++ {
				if _, err := block.Call([]Value{NewNumber(float64(s[i]))}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"each_codepoint": func(recv Value, args []Value, block *Proc) (Value, error) {
			s := recv.(*Str).S
			if block == nil {
				return newEnumerator(recv, "each_codepoint", nil), nil
			}
			for _, r := range s {
				if _, err := block.Call([]Value{NewNumber(float64(r))}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"each_line": func(recv Value, args []Value, block *Proc) (Value, error) {
			lines, err := stringMethods["lines"](recv, nil, nil)
			if err != nil {
				return nil, err
			}
			arr := lines.(*Array)
			if block == nil {
				return newEnumerator(recv, "each_line", nil), nil
			}
			for _, l := range arr.Items {
				if _, err := block.Call([]Value{l}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"%": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "%", Expected: 1, Got: len(args)}
			}
			var fargs []Value
			if arr, ok := args[0].(*Array); ok {
				fargs = arr.Items
			} else {
				fargs = []Value{args[0]}
			}
			out, err := formatString(recv.(*Str).S, fargs)
			if err != nil {
				return nil, err
			}
			return NewString(out), nil
		},
	}
}

// stringSplit implements String#split: a single-space pattern means "strip
// leading whitespace, split on whitespace runs"; an empty pattern produces a
// per-code-point list; a positive limit caps the field count placing the
// residue in the final field; a negative limit preserves trailing empty
// fields; otherwise trailing empty fields are dropped.
func stringSplit(s string, args []Value) (Value, error) {
	limit := 0
	if len(args) > 1 {
		num, err := asNumber(args[1], "split")
		if err != nil {
			return nil, err
		}
		limit = int(num.F)
	}

	var fields []string
	switch {
	case len(args) == 0 || isSingleSpace(args[0]):
		fields = strings.Fields(s)
		if limit > 0 {
			// re-split keeping the residue: Fields loses it, so walk manually
			fields = splitWhitespaceLimited(s, limit)
		}
	default:
		var pattern *Str
		if re, ok := args[0].(*Regexp); ok {
			fields = splitAll(s, func(str string) (int, int) {
				loc := re.re.FindStringIndex(str)
				if loc == nil || loc[1] == 0 {
					return -1, 0
				}
				return loc[0], loc[1] - loc[0]
			}, limit)
			break
		}
		var err error
		pattern, err = asString(args[0], "split")
		if err != nil {
			return nil, err
		}
		if pattern.S == "" {
			for _, r := range s {
				fields = append(fields, string(r))
			}
			break
		}
		fields = splitAll(s, func(str string) (int, int) {
			i := strings.Index(str, pattern.S)
			return i, len(pattern.S)
		}, limit)
	}

	if limit == 0 {
		for len(fields) > 0 && fields[len(fields)-1] == "" {
			fields = fields[:len(fields)-1]
		}
	}
	return NewArray(stringsToValues(fields)), nil
}

// stringIndex implements index/rindex for String or Regexp patterns with an
// optional byte offset, returning a code-point position or nil.
func stringIndex(s string, args []Value, last bool) (Value, error) {
	if len(args) < 1 {
		return nil, &ArgumentCountError{Method: "index", Expected: 1, Got: 0}
	}
	// offset is where forward search starts, or the highest allowed match
	// start for a backward search.
	offset := 0
	if last {
		offset = len(s)
	}
	if len(args) > 1 {
		num, err := asNumber(args[1], "index")
		if err != nil {
			return nil, err
		}
		offset = normalizeIndex(int(num.F), len(s))
		if offset < 0 || offset > len(s) {
			return NilValue, nil
		}
	}
	found := -1
	if re, ok := args[0].(*Regexp); ok {
		if last {
			for _, loc := range re.re.FindAllStringIndex(s, -1) {
				if loc[0] <= offset {
					found = loc[0]
				}
			}
		} else {
			loc := re.re.FindStringIndex(s[offset:])
			if loc != nil {
				found = loc[0] + offset
			}
		}
	} else {
		pat, err := asString(args[0], "index")
		if err != nil {
			return nil, err
		}
		if last {
			end := offset + len(pat.S)
			if end > len(s) {
				end = len(s)
			}
			found = strings.LastIndex(s[:end], pat.S)
		} else {
			i := strings.Index(s[offset:], pat.S)
			if i >= 0 {
				found = i + offset
			}
		}
	}
	if found < 0 {
		return NilValue, nil
	}
	return NewNumber(float64(utf8.RuneCountInString(s[:found]))), nil
}

func isSingleSpace(v Value) bool {
	s, ok := v.(*Str)
	return ok && s.S == " "
}

func splitWhitespaceLimited(s string, limit int) []string {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	var out []string
	for len(s) > 0 {
		if limit > 0 && len(out) == limit-1 {
			out = append(out, s)
			return out
		}
		i := strings.IndexAny(s, " \t\n\r\v\f")
		if i < 0 {
			out = append(out, s)
			return out
		}
		out = append(out, s[:i])
		s = strings.TrimLeft(s[i:], " \t\n\r\v\f")
	}
	return out
}

// splitAll splits s at each (offset, width) reported by find, honoring a
// positive field cap.
func splitAll(s string, find func(string) (int, int), limit int) []string {
	var out []string
	for {
		if limit > 0 && len(out) == limit-1 {
			out = append(out, s)
			return out
		}
		i, w := find(s)
		if i < 0 {
			out = append(out, s)
			return out
		}
		out = append(out, s[:i])
		s = s[i+w:]
	}
}

func stringsToValues(ss []string) []Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		out[i] = NewString(s)
	}
	return out
}

func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDot, seenDigit := false, false
	for end < len(s) {
		c := s[end]
		if c == '-' || c == '+' {
			if end != 0 {
				break
			}
		} else if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else if c >= '0' && c <= '9' {
			seenDigit = true
		} else {
			break
		}
		end++
	}
	if !seenDigit {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

func leadingInt(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit := false
	for end < len(s) {
		c := s[end]
		if c == '-' || c == '+' {
			if end != 0 {
				break
			}
		} else if c >= '0' && c <= '9' {
			seenDigit = true
		} else {
			break
		}
		end++
	}
	if !seenDigit {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return float64(n)
}

type padKind int

const (
	padLeft padKind = iota
	padRight
	padCenter
)

func padString(s string, args []Value, kind padKind) (Value, error) {
	if len(args) == 0 {
		return nil, &ArgumentCountError{Method: "pad", Expected: 1, Got: 0}
	}
	width, err := asNumber(args[0], "pad")
	if err != nil {
		return nil, err
	}
	padChar := " "
	if len(args) > 1 {
		p, err := asString(args[1], "pad")
		if err != nil {
			return nil, err
		}
		padChar = p.S
	}
	if padChar == "" {
		padChar = " "
	}
	n := int(width.F)
	cur := utf8.RuneCountInString(s)
	if cur >= n {
		return NewString(s), nil
	}
	total := n - cur
	fill := func(count int) string {
		var b strings.Builder
		pr := runeSlice(padChar)
		for i := 0; i < count; i++ {
			b.WriteRune(pr[i%len(pr)])
		}
		return b.String()
	}
	switch kind {
	case padLeft:
		return NewString(s + fill(total)), nil
	case padRight:
		return NewString(fill(total) + s), nil
	default:
		left := total / 2
		right := total - left
		return NewString(fill(left) + s + fill(right)), nil
	}
}

func stringSlice(s string, args []Value) (Value, error) {
	r := runeSlice(s)
	n := len(r)
	if len(args) == 1 {
		switch arg := args[0].(type) {
		case *Regexp:
			m := arg.re.FindString(s)
			if m == "" && !arg.re.MatchString(s) {
				return NilValue, nil
			}
			return NewString(m), nil
		case *Str:
			if strings.Contains(s, arg.S) {
				return NewString(arg.S), nil
			}
			return NilValue, nil
		case *Range:
			start, length, ok := arg.sliceBounds(n)
			if !ok {
				return NilValue, nil
			}
			return NewString(string(r[start : start+length])), nil
		}
		idx, err := asNumber(args[0], "slice")
		if err != nil {
			return nil, err
		}
		i := normalizeIndex(int(idx.F), n)
		if i < 0 || i >= n {
			return NilValue, nil
		}
		return NewString(string(r[i])), nil
	}
	if len(args) == 2 {
		if re, ok := args[0].(*Regexp); ok {
			group, err := asNumber(args[1], "slice")
			if err != nil {
				return nil, err
			}
			m := re.matchAt(s, 0)
			md, ok := m.(*MatchData)
			if !ok {
				return NilValue, nil
			}
			return md.groupValue(int(group.F)), nil
		}
		idx, err := asNumber(args[0], "slice")
		if err != nil {
			return nil, err
		}
		ln, err := asNumber(args[1], "slice")
		if err != nil {
			return nil, err
		}
		i := normalizeIndex(int(idx.F), n)
		length := int(ln.F)
		if i < 0 || i > n || length < 0 {
			return NilValue, nil
		}
		end := i + length
		if end > n {
			end = n
		}
		if end < i {
			return NilValue, nil
		}
		return NewString(string(r[i:end])), nil
	}
	return nil, &ArgumentCountError{Method: "slice", Expected: 1, Got: len(args)}
}

func asRegexpArg(v Value, method string) (*Regexp, error) {
	if re, ok := v.(*Regexp); ok {
		return re, nil
	}
	if s, ok := v.(*Str); ok {
		return compileRegexp(quoteMeta(s.S), "")
	}
	return nil, &TypeError{Expected: "Regexp", Got: v.TypeName(), Context: method}
}

func quoteMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stringSub implements String#sub and #gsub with string, Hash, or Proc
// replacement (spec.md §4.2). Pattern may be a String (literal) or Regexp.
func stringSub(s string, args []Value, block *Proc, global bool) (Value, error) {
	if len(args) < 1 {
		return nil, &ArgumentCountError{Method: "sub", Expected: 1, Got: len(args)}
	}
	re, err := asRegexpArg(args[0], "sub")
	if err != nil {
		return nil, err
	}

	replace := func(match string, groups []string) (string, error) {
		if block != nil {
			r, err := block.Call([]Value{NewString(match)})
			if err != nil {
				return "", err
			}
			return r.ToString(), nil
		}
		if len(args) > 1 {
			if h, ok := args[1].(*Hash); ok {
				v, ok := h.Get(NewString(match))
				if !ok {
					return "", nil
				}
				return v.ToString(), nil
			}
			if rs, ok := args[1].(*Str); ok {
				return expandBackrefs(rs.S, match, groups), nil
			}
		}
		return match, nil
	}

	idxs := re.re.FindAllStringSubmatchIndex(s, -1)
	if idxs == nil {
		return NewString(s), nil
	}
	if !global {
		idxs = idxs[:1]
	}
	var b strings.Builder
	last := 0
	for _, m := range idxs {
		b.WriteString(s[last:m[0]])
		groups := submatchStrings(s, m)
		out, err := replace(s[m[0]:m[1]], groups)
		if err != nil {
			return nil, err
		}
		b.WriteString(out)
		last = m[1]
	}
	b.WriteString(s[last:])
	return NewString(b.String()), nil
}

func submatchStrings(s string, m []int) []string {
	groups := make([]string, len(m)/2)
	for i := range groups {
		if m[2*i] < 0 {
			continue
		}
		groups[i] = s[m[2*i]:m[2*i+1]]
	}
	return groups
}

func expandBackrefs(repl, match string, groups []string) string {
	var b strings.Builder
	for i := 0; i < len(repl); i++ {
		if repl[i] == '\\' && i+1 < len(repl) && repl[i+1] >= '0' && repl[i+1] <= '9' {
			n := int(repl[i+1] - '0')
			if n < len(groups) {
				b.WriteString(groups[n])
			}
			i++
			continue
		}
		b.WriteByte(repl[i])
	}
	return b.String()
}

// FormatString exposes the %-style formatter for the `format` view helper.
func FormatString(format string, args []Value) (string, error) {
	return formatString(format, args)
}

// formatString implements a Kernel#format-style % operator: %s, %d, %f, %x,
// %o, %b with optional width/precision, sufficient for the template engine's
// own interpolation helpers (spec.md SUPPLEMENTED FEATURES: String#%).
func formatString(format string, args []Value) (string, error) {
	var b strings.Builder
	argi := 0
	nextArg := func() (Value, error) {
		if argi >= len(args) {
			return nil, &ArgumentError{Message: "too few arguments for format string"}
		}
		v := args[argi]
		argi++
		return v, nil
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(format) && strings.ContainsRune("-+0123456789.", rune(format[j])) {
			j++
		}
		if j >= len(format) {
			return "", &ArgumentError{Message: "malformed format string"}
		}
		spec := format[i : j+1]
		verb := format[j]
		i = j
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		arg, err := nextArg()
		if err != nil {
			return "", err
		}
		switch verb {
		case 's':
			b.WriteString(sprintfGo(spec, arg.ToString()))
		case 'd':
			n, err := asNumber(arg, "format")
			if err != nil {
				return "", err
			}
			b.WriteString(sprintfGo(strings.TrimSuffix(spec, "d")+"d", int64(n.F)))
		case 'f':
			n, err := asNumber(arg, "format")
			if err != nil {
				return "", err
			}
			b.WriteString(sprintfGo(spec, n.F))
		case 'x':
			n, err := asNumber(arg, "format")
			if err != nil {
				return "", err
			}
			b.WriteString(sprintfGo(spec, int64(n.F)))
		case 'o':
			n, err := asNumber(arg, "format")
			if err != nil {
				return "", err
			}
			b.WriteString(sprintfGo(spec, int64(n.F)))
		case 'b':
			n, err := asNumber(arg, "format")
			if err != nil {
				return "", err
			}
			b.WriteString(sprintfGo(spec, int64(n.F)))
		default:
			return "", &ArgumentError{Message: "unknown format directive: " + string(verb)}
		}
	}
	return b.String(), nil
}

func sprintfGo(spec string, v interface{}) string {
	return fmt.Sprintf(spec, v)
}
