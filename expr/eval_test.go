package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codingersid/slim-template/value"
)

// testScope is a minimal Scope for evaluator tests; the real implementation
// lives in the runtime package.
type testScope struct {
	vars      map[string]value.Value
	attrs     map[string]value.Value
	constants map[string]value.Value
	helpers   map[string]value.MethodFunc
	parent    *testScope
}

func newTestScope() *testScope {
	return &testScope{
		vars:      make(map[string]value.Value),
		attrs:     make(map[string]value.Value),
		constants: make(map[string]value.Value),
		helpers:   make(map[string]value.MethodFunc),
	}
}

func (s *testScope) Get(name string) value.Value {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v
		}
	}
	return value.NilValue
}

func (s *testScope) Set(name string, v value.Value) { s.vars[name] = v }

func (s *testScope) Attr(name string) value.Value {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.attrs[name]; ok {
			return v
		}
	}
	return value.NilValue
}

func (s *testScope) Constant(name string) (value.Value, error) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.constants[name]; ok {
			return v, nil
		}
	}
	return nil, &value.NoConstantError{Name: name}
}

func (s *testScope) Helper(name string) value.MethodFunc {
	for sc := s; sc != nil; sc = sc.parent {
		if fn, ok := sc.helpers[name]; ok {
			return fn
		}
	}
	return nil
}

func (s *testScope) NewFrame() Scope {
	child := newTestScope()
	child.parent = s
	return child
}

func eval(t *testing.T, src string, scope Scope, locals ...string) value.Value {
	t.Helper()
	if scope == nil {
		scope = newTestScope()
	}
	names := locals
	if ts, ok := scope.(*testScope); ok {
		for name := range ts.vars {
			names = append(names, name)
		}
	}
	p, err := NewParser(New(src), NewLocalVars(names...))
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	n, err := p.FullExpression()
	if err != nil {
		t.Fatalf("parse error in %q: %v", src, err)
	}
	out, err := n.Eval(scope)
	if err != nil {
		t.Fatalf("eval error in %q: %v", src, err)
	}
	return out
}

func evalErr(t *testing.T, src string, scope Scope) error {
	t.Helper()
	if scope == nil {
		scope = newTestScope()
	}
	p, err := NewParser(New(src), NewLocalVars())
	if err != nil {
		return err
	}
	n, err := p.FullExpression()
	if err != nil {
		return err
	}
	_, err = n.Eval(scope)
	if err == nil {
		t.Fatalf("expected eval error for %q", src)
	}
	return err
}

func TestEval_Arithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "7"},
		{"(1 + 2) * 3", "9"},
		{"10 / 4", "2.5"},
		{"7 % 3", "1"},
		{"2 ** 10", "1024"},
		{"-(2 + 3)", "-5"},
		{"7 & 3", "3"},
		{"6 | 1", "7"},
		{"6 ^ 3", "5"},
		{"1 << 4", "16"},
		{"~0", "-1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, eval(t, tt.src, nil).ToString(), tt.src)
	}
}

func TestEval_Comparisons(t *testing.T) {
	assert.True(t, evalTrue(t, "1 < 2"))
	assert.True(t, evalTrue(t, "2 <= 2"))
	assert.True(t, evalTrue(t, `"a" < "b"`))
	assert.True(t, evalTrue(t, "1 == 1.0"))
	assert.True(t, evalTrue(t, "1 != 2"))
	assert.Equal(t, "-1", eval(t, "1 <=> 2", nil).ToString())

	err := evalErr(t, `1 < "2"`, nil)
	var unord *value.UnorderableTypeError
	assert.ErrorAs(t, err, &unord)
}

// evalTrue evaluates src and reports its truthiness.
func evalTrue(t *testing.T, src string) bool {
	t.Helper()
	return eval(t, src, nil).Truthy()
}

func TestEval_ShortCircuit(t *testing.T) {
	scope := newTestScope()
	calls := 0
	scope.helpers["bomb"] = func(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
		calls++
		return value.True, nil
	}

	assert.False(t, eval(t, "false && bomb", scope).Truthy())
	assert.True(t, eval(t, "true || bomb", scope).Truthy())
	assert.Equal(t, 0, calls, "short-circuited side must not evaluate")

	assert.True(t, eval(t, "true && bomb", scope).Truthy())
	assert.Equal(t, 1, calls)

	// && and || return the deciding operand
	assert.Equal(t, "nil", eval(t, "nil && 1", scope).Inspect())
	assert.Equal(t, "2", eval(t, "nil || 2", scope).Inspect())
}

func TestEval_SafeNavigation(t *testing.T) {
	scope := newTestScope()
	calls := 0
	scope.helpers["arg"] = func(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
		calls++
		return value.NewNumber(1), nil
	}

	out := eval(t, "@missing&.upcase(arg)", scope)
	assert.True(t, value.Eq(out, value.NilValue))
	assert.Equal(t, 0, calls, "safe navigation must not evaluate arguments")

	scope.attrs["name"] = value.NewString("abc")
	out = eval(t, "@name&.upcase", scope)
	assert.Equal(t, "ABC", out.ToString())
}

func TestEval_VariablesAndAttributes(t *testing.T) {
	scope := newTestScope()
	scope.vars["x"] = value.NewNumber(5)
	scope.attrs["title"] = value.NewString("Hi")

	assert.Equal(t, "5", eval(t, "x", scope).ToString())
	assert.Equal(t, "Hi", eval(t, "@title", scope).ToString())

	// unbound reads are nil, not errors
	assert.True(t, value.Eq(eval(t, "@nope", scope), value.NilValue))
}

func TestEval_Assignment(t *testing.T) {
	scope := newTestScope()
	out := eval(t, "x = 2 + 3", scope)
	assert.Equal(t, "5", out.ToString())
	assert.Equal(t, "5", scope.Get("x").ToString())
}

func TestEval_Constants(t *testing.T) {
	scope := newTestScope()
	scope.constants["Regexp"] = value.RegexpClass

	out := eval(t, "Regexp::IGNORECASE", scope)
	assert.Equal(t, "1", out.ToString())

	err := evalErr(t, "Missing", scope)
	var noConst *value.NoConstantError
	assert.ErrorAs(t, err, &noConst)
}

func TestEval_MethodDispatch(t *testing.T) {
	scope := newTestScope()
	scope.attrs["xs"] = value.NewArray([]value.Value{
		value.NewNumber(3), value.NewNumber(1), value.NewNumber(2),
	})

	assert.Equal(t, "3", eval(t, "@xs.size", scope).ToString())
	assert.Equal(t, "[1, 2, 3]", eval(t, "@xs.sort", scope).Inspect())
	assert.Equal(t, "3", eval(t, "@xs.max", scope).ToString())
	assert.Equal(t, "1-2-3", eval(t, `@xs.sort.join("-")`, scope).ToString())

	err := evalErr(t, "@xs.frobnicate", scope)
	var noMethod *value.NoSuchMethodError
	assert.ErrorAs(t, err, &noMethod)
}

func TestEval_ElementRef(t *testing.T) {
	scope := newTestScope()
	scope.attrs["xs"] = value.NewArray([]value.Value{
		value.NewString("a"), value.NewString("b"),
	})
	h := value.NewHash()
	h.Set(value.Intern("k"), value.NewNumber(7))
	scope.attrs["h"] = h

	assert.Equal(t, "b", eval(t, "@xs[1]", scope).ToString())
	assert.Equal(t, "b", eval(t, "@xs[-1]", scope).ToString())
	assert.Equal(t, "7", eval(t, "@h[:k]", scope).ToString())
}

func TestEval_Blocks(t *testing.T) {
	scope := newTestScope()
	scope.attrs["xs"] = value.NewArray([]value.Value{
		value.NewNumber(1), value.NewNumber(2), value.NewNumber(3),
	})

	out := eval(t, "@xs.map { |x| x * 10 }", scope)
	assert.Equal(t, "[10, 20, 30]", out.Inspect())

	out = eval(t, "@xs.select { |x| x > 1 }", scope)
	assert.Equal(t, "[2, 3]", out.Inspect())

	// block bodies see outer locals; parameters mask them only inside
	scope.vars["y"] = value.NewNumber(100)
	out = eval(t, "@xs.map { |x| x + y }", scope)
	assert.Equal(t, "[101, 102, 103]", out.Inspect())
}

func TestEval_BlockParamMasking(t *testing.T) {
	scope := newTestScope()
	scope.vars["x"] = value.NewNumber(100)
	scope.attrs["xs"] = value.NewArray([]value.Value{value.NewNumber(1)})

	// inside the block, x is the parameter; afterwards the outer x is intact
	out := eval(t, "@xs.map { |x| x }", scope)
	assert.Equal(t, "[1]", out.Inspect())
	assert.Equal(t, "100", scope.Get("x").ToString())
}

func TestEval_Conditional(t *testing.T) {
	assert.Equal(t, "1", eval(t, "true ? 1 : 2", nil).ToString())
	assert.Equal(t, "2", eval(t, "false ? 1 : 2", nil).ToString())
	assert.Equal(t, "2", eval(t, "nil ? 1 : 2", nil).ToString())
	// zero is true
	assert.Equal(t, "1", eval(t, "0 ? 1 : 2", nil).ToString())
}

func TestEval_InterpolatedString(t *testing.T) {
	scope := newTestScope()
	scope.attrs["name"] = value.NewString("World")

	out := eval(t, `"Hello #{@name}! #{1 + 1}"`, scope)
	assert.Equal(t, "Hello World! 2", out.ToString())
}

func TestEval_InterpolatedRegexp(t *testing.T) {
	scope := newTestScope()
	scope.attrs["sep"] = value.NewString("-")

	out := eval(t, `"a-b".split(/#{@sep}/)`, scope)
	assert.Equal(t, `["a", "b"]`, out.Inspect())
}

func TestEval_HashLiteralDuplicateKeys(t *testing.T) {
	out := eval(t, "{a: 1, b: 2, a: 9}", nil)
	assert.Equal(t, "{:a => 9, :b => 2}", out.Inspect(),
		"later keys overwrite but keep the earlier position")
}

func TestEval_Ranges(t *testing.T) {
	assert.Equal(t, "[1, 2, 3]", eval(t, "(1..3).to_a", nil).Inspect())
	assert.Equal(t, "[1, 2]", eval(t, "(1...3).to_a", nil).Inspect())
	assert.Equal(t, "3", eval(t, "(1..3).count", nil).ToString())
}

func TestEval_HelperFallback(t *testing.T) {
	scope := newTestScope()
	scope.helpers["shout"] = func(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
		return value.NewString(args[0].ToString() + "!"), nil
	}

	out := eval(t, `shout "hey"`, scope)
	assert.Equal(t, "hey!", out.ToString())

	err := evalErr(t, "nonexistent_helper 1", scope)
	var noMethod *value.NoSuchMethodError
	assert.ErrorAs(t, err, &noMethod)
}

func TestEval_RoundTripInspect(t *testing.T) {
	// property: parse(inspect(v)).eval == v for simple literal kinds
	cases := []string{
		"42", "-1.5", "true", "false", "nil", `"text"`, ":sym",
		"[1, 2, 3]", `{:a => 1, "k" => [2]}`,
	}
	for _, src := range cases {
		v := eval(t, src, nil)
		again := eval(t, v.Inspect(), nil)
		assert.True(t, value.Eq(v, again), "round trip failed for %s", src)
	}
}
