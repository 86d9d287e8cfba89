package value

import (
	"regexp"
	"strings"
)

// Regexp flag bits. Only IGNORECASE is honored; EXTENDED and MULTILINE are
// rejected at compile time because the underlying engine has no equivalent
// mode (free-spacing does not exist in RE2, and Ruby's /m changes the meaning
// of '.', which RE2's (?m) does not).
const (
	RegexpIgnoreCase = 1 << iota
	RegexpExtended
	RegexpMultiline
)

// Regexp wraps a compiled pattern along with its original source and flags.
type Regexp struct {
	Source string
	Flags  int
	re     *regexp.Regexp
}

// NewRegexp compiles src with the given flag bits.
func NewRegexp(src string, flags int) (*Regexp, error) {
	if flags&RegexpExtended != 0 {
		return nil, &ArgumentError{Message: "Regexp EXTENDED flag is not supported"}
	}
	if flags&RegexpMultiline != 0 {
		return nil, &ArgumentError{Message: "Regexp MULTILINE flag is not supported"}
	}
	pattern := src
	if flags&RegexpIgnoreCase != 0 {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &ArgumentError{Message: "invalid regexp: " + err.Error()}
	}
	return &Regexp{Source: src, Flags: flags, re: re}, nil
}

// ParseRegexpFlags converts a trailing flag-letter run ("i", "mi", ...) into
// flag bits.
func ParseRegexpFlags(letters string) (int, error) {
	flags := 0
	for _, c := range letters {
		switch c {
		case 'i':
			flags |= RegexpIgnoreCase
		case 'x':
			flags |= RegexpExtended
		case 'm':
			flags |= RegexpMultiline
		default:
			return 0, &ArgumentError{Message: "unknown regexp flag: " + string(c)}
		}
	}
	return flags, nil
}

func compileRegexp(src, letters string) (*Regexp, error) {
	flags, err := ParseRegexpFlags(letters)
	if err != nil {
		return nil, err
	}
	return NewRegexp(src, flags)
}

func (r *Regexp) Kind() Kind       { return KindRegexp }
func (r *Regexp) TypeName() string { return "Regexp" }

func (r *Regexp) ToString() string { return r.Inspect() }

func (r *Regexp) Inspect() string {
	var b strings.Builder
	b.WriteByte('/')
	b.WriteString(r.Source)
	b.WriteByte('/')
	if r.Flags&RegexpIgnoreCase != 0 {
		b.WriteByte('i')
	}
	return b.String()
}

func (r *Regexp) Truthy() bool { return true }

func (r *Regexp) Eq(o Value) bool {
	or, ok := o.(*Regexp)
	return ok && or.Source == r.Source && or.Flags == r.Flags
}

func (r *Regexp) HashKey() string { return "regexp:" + r.Inspect() }

// matchAt runs the pattern against s from pos (a byte offset) and returns a
// MatchData or nil.
func (r *Regexp) matchAt(s string, pos int) Value {
	if pos < 0 {
		pos += len(s)
	}
	if pos < 0 || pos > len(s) {
		return NilValue
	}
	loc := r.re.FindStringSubmatchIndex(s[pos:])
	if loc == nil {
		return NilValue
	}
	idx := make([]int, len(loc))
	for i, off := range loc {
		if off < 0 {
			idx[i] = -1
		} else {
			idx[i] = off + pos
		}
	}
	return &MatchData{Re: r, Str: s, idx: idx}
}

func (r *Regexp) match(s string) Value { return r.matchAt(s, 0) }

var regexpMethods = MethodTable{
	"match": func(recv Value, args []Value, block *Proc) (Value, error) {
		re := recv.(*Regexp)
		if len(args) < 1 {
			return nil, &ArgumentCountError{Method: "match", Expected: 1, Got: 0}
		}
		s, err := asString(args[0], "match")
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
		return re.matchAt(s.S, pos), nil
	},
	"match?": func(recv Value, args []Value, block *Proc) (Value, error) {
		re := recv.(*Regexp)
		if len(args) != 1 {
			return nil, &ArgumentCountError{Method: "match?", Expected: 1, Got: len(args)}
		}
		s, err := asString(args[0], "match?")
		if err != nil {
			return nil, err
		}
		return BoolValue(re.re.MatchString(s.S)), nil
	},
	"source": func(recv Value, args []Value, block *Proc) (Value, error) {
		return NewString(recv.(*Regexp).Source), nil
	},
}

// RegexpClass is the constant registered as `Regexp` on view models: the
// construction class methods plus the flag constants reachable through
// `Regexp::IGNORECASE` navigation.
var RegexpClass = &Object{
	Name: "Regexp",
	Methods: MethodTable{
		"new": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) < 1 {
				return nil, &ArgumentCountError{Method: "new", Expected: 1, Got: 0}
			}
			src, err := asString(args[0], "Regexp.new")
			if err != nil {
				return nil, err
			}
			flags := 0
			if len(args) > 1 {
				num, ok := args[1].(*Number)
				if !ok {
					return nil, &TypeError{Expected: "Number", Got: args[1].TypeName(), Context: "Regexp.new"}
				}
				flags = int(num.F)
			}
			return NewRegexp(src.S, flags)
		},
		"escape": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "escape", Expected: 1, Got: len(args)}
			}
			s, err := asString(args[0], "Regexp.escape")
			if err != nil {
				return nil, err
			}
			return NewString(quoteMeta(s.S)), nil
		},
	},
	Constants: map[string]Value{
		"IGNORECASE": NewNumber(RegexpIgnoreCase),
		"EXTENDED":   NewNumber(RegexpExtended),
		"MULTILINE":  NewNumber(RegexpMultiline),
	},
}

// MatchData holds the result of a successful Regexp match: the pattern, the
// subject string, and byte-offset capture positions.
type MatchData struct {
	Re  *Regexp
	Str string
	idx []int
}

func (m *MatchData) Kind() Kind       { return KindMatchData }
func (m *MatchData) TypeName() string { return "MatchData" }
func (m *MatchData) ToString() string { return m.group(0) }
func (m *MatchData) Inspect() string  { return "#<MatchData \"" + m.group(0) + "\">" }
func (m *MatchData) Truthy() bool     { return true }

func (m *MatchData) Eq(o Value) bool {
	om, ok := o.(*MatchData)
	if !ok || om.Str != m.Str || len(om.idx) != len(m.idx) {
		return false
	}
	for i, off := range m.idx {
		if om.idx[i] != off {
			return false
		}
	}
	return m.Re.Eq(om.Re)
}

func (m *MatchData) HashKey() string {
	return "match:" + m.Re.Inspect() + ":" + m.Str + ":" + m.group(0)
}

// groups reports the capture count including group 0.
func (m *MatchData) groups() int { return len(m.idx) / 2 }

func (m *MatchData) group(n int) string {
	if n < 0 || n >= m.groups() || m.idx[2*n] < 0 {
		return ""
	}
	return m.Str[m.idx[2*n]:m.idx[2*n+1]]
}

func (m *MatchData) groupValue(n int) Value {
	if n < 0 || n >= m.groups() {
		return NilValue
	}
	if m.idx[2*n] < 0 {
		return NilValue
	}
	return NewString(m.group(n))
}

var matchDataMethods = MethodTable{
	"[]": func(recv Value, args []Value, block *Proc) (Value, error) {
		m := recv.(*MatchData)
		if len(args) == 1 {
			num, err := asNumber(args[0], "[]")
			if err != nil {
				return nil, err
			}
			return m.groupValue(int(num.F)), nil
		}
		if len(args) == 2 {
			start, err := asNumber(args[0], "[]")
			if err != nil {
				return nil, err
			}
			length, err := asNumber(args[1], "[]")
			if err != nil {
				return nil, err
			}
			out := make([]Value, 0, int(length.F))
			for i := 0; i < int(length.F); i++ {
				n := int(start.F) + i
				if n >= m.groups() {
					break
				}
				out = append(out, m.groupValue(n))
			}
			return NewArray(out), nil
		}
		return nil, &ArgumentCountError{Method: "[]", Expected: 1, Got: len(args)}
	},
	"captures": func(recv Value, args []Value, block *Proc) (Value, error) {
		m := recv.(*MatchData)
		out := make([]Value, 0, m.groups()-1)
		for i := 1; i < m.groups(); i++ {
			out = append(out, m.groupValue(i))
		}
		return NewArray(out), nil
	},
	"to_a": func(recv Value, args []Value, block *Proc) (Value, error) {
		m := recv.(*MatchData)
		out := make([]Value, 0, m.groups())
		for i := 0; i < m.groups(); i++ {
			out = append(out, m.groupValue(i))
		}
		return NewArray(out), nil
	},
	"values_at": func(recv Value, args []Value, block *Proc) (Value, error) {
		m := recv.(*MatchData)
		out := make([]Value, 0, len(args))
		for _, arg := range args {
			num, err := asNumber(arg, "values_at")
			if err != nil {
				return nil, err
			}
			out = append(out, m.groupValue(int(num.F)))
		}
		return NewArray(out), nil
	},
	"begin": func(recv Value, args []Value, block *Proc) (Value, error) {
		return matchOffset(recv.(*MatchData), args, 0)
	},
	"end": func(recv Value, args []Value, block *Proc) (Value, error) {
		return matchOffset(recv.(*MatchData), args, 1)
	},
	"offset": func(recv Value, args []Value, block *Proc) (Value, error) {
		m := recv.(*MatchData)
		begin, err := matchOffset(m, args, 0)
		if err != nil {
			return nil, err
		}
		end, err := matchOffset(m, args, 1)
		if err != nil {
			return nil, err
		}
		return NewArray([]Value{begin, end}), nil
	},
	"pre_match": func(recv Value, args []Value, block *Proc) (Value, error) {
		m := recv.(*MatchData)
		return NewString(m.Str[:m.idx[0]]), nil
	},
	"post_match": func(recv Value, args []Value, block *Proc) (Value, error) {
		m := recv.(*MatchData)
		return NewString(m.Str[m.idx[1]:]), nil
	},
	"size": func(recv Value, args []Value, block *Proc) (Value, error) {
		return NewNumber(float64(recv.(*MatchData).groups())), nil
	},
	"length": func(recv Value, args []Value, block *Proc) (Value, error) {
		return NewNumber(float64(recv.(*MatchData).groups())), nil
	},
}

func matchOffset(m *MatchData, args []Value, part int) (Value, error) {
	if len(args) != 1 {
		return nil, &ArgumentCountError{Method: "offset", Expected: 1, Got: len(args)}
	}
	num, err := asNumber(args[0], "offset")
	if err != nil {
		return nil, err
	}
	n := int(num.F)
	if n < 0 || n >= m.groups() {
		return nil, &IndexError{Message: "index " + num.ToString() + " out of matches"}
	}
	off := m.idx[2*n+part]
	if off < 0 {
		return NilValue, nil
	}
	return NewNumber(float64(off)), nil
}
