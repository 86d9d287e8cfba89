package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// call dispatches a method through the table, failing the test on error.
func call(t *testing.T, recv Value, name string, args ...Value) Value {
	t.Helper()
	fn := Lookup(recv, name)
	if fn == nil {
		t.Fatalf("no method %s on %s", name, recv.TypeName())
	}
	out, err := fn(recv, args, nil)
	if err != nil {
		t.Fatalf("%s failed: %v", name, err)
	}
	return out
}

func str(s string) Value { return NewString(s) }
func num(f float64) Value { return NewNumber(f) }

func TestStringConversions(t *testing.T) {
	assert.True(t, Eq(call(t, str("12.5abc"), "to_f"), num(12.5)))
	assert.True(t, Eq(call(t, str("-42xyz"), "to_i"), num(-42)))
	assert.True(t, Eq(call(t, str("abc"), "to_i"), num(0)))
	assert.Same(t, Intern("abc"), call(t, str("abc"), "to_sym"))
	assert.True(t, Eq(call(t, str("ff"), "hex"), num(255)))
	assert.True(t, Eq(call(t, str("0x1A"), "hex"), num(26)))
}

func TestStringHtmlSafe(t *testing.T) {
	out := call(t, str("<b>"), "html_safe")
	s, ok := out.(*Str)
	assert.True(t, ok)
	assert.True(t, s.Safe)
	assert.Equal(t, "<b>", s.S)

	// behaves as a plain string in every method
	assert.True(t, Eq(call(t, out, "upcase"), str("<B>")))
}

func TestStringChomp(t *testing.T) {
	assert.Equal(t, "line", call(t, str("line\r\n"), "chomp").ToString())
	assert.Equal(t, "line", call(t, str("line\n"), "chomp").ToString())
	assert.Equal(t, "line\n", call(t, str("line\n\n"), "chomp").ToString())
	assert.Equal(t, "line", call(t, str("line\n\n"), "chomp", str("")).ToString())
	assert.Equal(t, "li", call(t, str("line"), "chomp", str("ne")).ToString())
}

func TestStringChop(t *testing.T) {
	assert.Equal(t, "lin", call(t, str("line"), "chop").ToString())
	assert.Equal(t, "line", call(t, str("line\r\n"), "chop").ToString(), `\r\n chops as one`)
	assert.Equal(t, "", call(t, str(""), "chop").ToString())
}

func TestStringSplit(t *testing.T) {
	split := func(s string, args ...Value) string {
		return call(t, str(s), "split", args...).Inspect()
	}

	// single-space semantics: strip leading whitespace, split on runs
	assert.Equal(t, `["a", "b", "c"]`, split("  a  b c", str(" ")))
	assert.Equal(t, `["a", "b", "c"]`, split("a b c"))
	// explicit separator keeps inner empties, drops trailing ones
	assert.Equal(t, `["a", "", "b"]`, split("a,,b,,", str(",")))
	// negative limit preserves trailing empty fields
	assert.Equal(t, `["a", "", "b", "", ""]`, split("a,,b,,", str(","), num(-1)))
	// positive limit caps fields, residue in the last
	assert.Equal(t, `["a", ",b,,"]`, split("a,,b,,", str(","), num(2)))
	// empty pattern gives per-code-point fields
	assert.Equal(t, `["a", "é", "b"]`, split("aéb", str("")))
}

func TestStringSubGsub(t *testing.T) {
	re, err := NewRegexp("l+", 0)
	assert.NoError(t, err)

	assert.Equal(t, "heLo world", call(t, str("hello world"), "sub", re, str("L")).ToString())
	assert.Equal(t, "heLo worLd", call(t, str("hello world"), "gsub", re, str("L")).ToString())

	// backreferences in string replacements
	re2, err := NewRegexp(`(\w+)@(\w+)`, 0)
	assert.NoError(t, err)
	assert.Equal(t, "host/user", call(t, str("user@host"), "gsub", re2, str(`\2/\1`)).ToString())

	// hash replacement keyed by match
	h := NewHash()
	h.Set(str("cat"), str("dog"))
	re3, _ := NewRegexp("cat", 0)
	assert.Equal(t, "dog", call(t, str("cat"), "gsub", re3, h).ToString())

	// proc replacement
	upcase := NewNativeProc(1, func(args []Value) (Value, error) {
		fn := Lookup(args[0], "upcase")
		return fn(args[0], nil, nil)
	})
	fn := Lookup(str("hello"), "gsub")
	re4, _ := NewRegexp("l", 0)
	out, err := fn(str("hello"), []Value{re4}, upcase)
	assert.NoError(t, err)
	assert.Equal(t, "heLLo", out.ToString())
}

func TestStringSlice(t *testing.T) {
	assert.Equal(t, "e", call(t, str("hello"), "[]", num(1)).ToString())
	assert.Equal(t, "o", call(t, str("hello"), "[]", num(-1)).ToString())
	assert.Equal(t, "ell", call(t, str("hello"), "[]", num(1), num(3)).ToString())
	assert.True(t, Eq(call(t, str("hello"), "[]", num(9)), NilValue))
}

func TestStringIndex(t *testing.T) {
	assert.True(t, Eq(call(t, str("hello"), "index", str("l")), num(2)))
	assert.True(t, Eq(call(t, str("hello"), "rindex", str("l")), num(3)))
	assert.True(t, Eq(call(t, str("hello"), "index", str("l"), num(3)), num(3)))
	assert.True(t, Eq(call(t, str("hello"), "index", str("z")), NilValue))

	re, _ := NewRegexp("l+o", 0)
	assert.True(t, Eq(call(t, str("hello"), "index", re), num(2)))
}

func TestStringPadding(t *testing.T) {
	assert.Equal(t, "ab   ", call(t, str("ab"), "ljust", num(5)).ToString())
	assert.Equal(t, "   ab", call(t, str("ab"), "rjust", num(5)).ToString())
	assert.Equal(t, "-ab--", call(t, str("ab"), "center", num(5), str("-")).ToString())
	assert.Equal(t, "abc", call(t, str("abc"), "center", num(2)).ToString())
}

func TestStringCodepoints(t *testing.T) {
	s := str("aé")
	assert.True(t, Eq(call(t, s, "length"), num(2)))
	assert.True(t, Eq(call(t, s, "bytesize"), num(3)))
	assert.Equal(t, `["a", "é"]`, call(t, s, "chars").Inspect())
	assert.Equal(t, "[97, 233]", call(t, s, "codepoints").Inspect())
	assert.True(t, Eq(call(t, s, "ord"), num(97)))
	assert.True(t, Eq(call(t, s, "ascii_only?"), False))
	assert.True(t, Eq(call(t, str("abc"), "ascii_only?"), True))
}

func TestStringScrub(t *testing.T) {
	invalid := string([]byte{'a', 0xff, 'b'})
	assert.Equal(t, "a�b", call(t, str(invalid), "scrub").ToString())
	assert.Equal(t, "a?b", call(t, str(invalid), "scrub", str("?")).ToString())
}

func TestStringStartEndWith(t *testing.T) {
	assert.True(t, Eq(call(t, str("hello"), "start_with?", str("x"), str("he")), True))
	assert.True(t, Eq(call(t, str("hello"), "end_with?", str("lo")), True))
	assert.True(t, Eq(call(t, str("hello"), "include?", str("ell")), True))
}

func TestStringPartition(t *testing.T) {
	assert.Equal(t, `["he", "l", "lo"]`, call(t, str("hello"), "partition", str("l")).Inspect())
	assert.Equal(t, `["hel", "l", "o"]`, call(t, str("hello"), "rpartition", str("l")).Inspect())
	assert.Equal(t, `["hello", "", ""]`, call(t, str("hello"), "partition", str("z")).Inspect())
}

func TestStringFormatOperator(t *testing.T) {
	assert.Equal(t, "05.20", call(t, str("%05.2f"), "%", num(5.2)).ToString())
	assert.Equal(t, "x=1 y=two", call(t, str("x=%d y=%s"), "%",
		NewArray([]Value{num(1), str("two")})).ToString())
}

func TestStringMatch(t *testing.T) {
	re, _ := NewRegexp(`(\d+)-(\d+)`, 0)
	m := call(t, str("a 12-34 b"), "match", re)
	md, ok := m.(*MatchData)
	assert.True(t, ok)

	assert.Equal(t, "12-34", call(t, md, "[]", num(0)).ToString())
	assert.Equal(t, "12", call(t, md, "[]", num(1)).ToString())
	assert.Equal(t, `["12", "34"]`, call(t, md, "captures").Inspect())
	assert.True(t, Eq(call(t, md, "begin", num(0)), num(2)))
	assert.Equal(t, "a ", call(t, md, "pre_match").ToString())
	assert.Equal(t, " b", call(t, md, "post_match").ToString())

	assert.True(t, Eq(call(t, str("abc"), "match", re), NilValue))
}

func TestRegexpFlags(t *testing.T) {
	re, err := NewRegexp("abc", RegexpIgnoreCase)
	assert.NoError(t, err)
	assert.True(t, Eq(call(t, re, "match?", str("xABCy")), True))

	_, err = NewRegexp("abc", RegexpMultiline)
	assert.Error(t, err, "MULTILINE is rejected at compile time")
	_, err = NewRegexp("abc", RegexpExtended)
	assert.Error(t, err, "EXTENDED is rejected at compile time")
}
