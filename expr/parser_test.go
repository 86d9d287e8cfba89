package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func parse(t *testing.T, src string, locals ...string) Node {
	t.Helper()
	p, err := NewParser(New(src), NewLocalVars(locals...))
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	n, err := p.FullExpression()
	if err != nil {
		t.Fatalf("parse error in %q: %v", src, err)
	}
	return n
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	p, err := NewParser(New(src), nil)
	if err != nil {
		return err
	}
	_, err = p.FullExpression()
	if err == nil {
		t.Fatalf("expected parse error for %q", src)
	}
	return err
}

func TestParser_Precedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "1 + 2 * 3"},
		{"(1 + 2) * 3", "1 + 2 * 3"}, // grouping is structural, not textual
		{"1 < 2 == true", "1 < 2 == true"},
		{"a && b || c", "a() && b() || c()"},
		{"-@x.abs", "-@x.abs()"},
		{"2 ** 3 ** 2", "2 ** 3 ** 2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parse(t, tt.src).String())
	}
}

func TestParser_PrecedenceStructure(t *testing.T) {
	// 1 + 2 * 3 groups as 1 + (2 * 3)
	n := parse(t, "1 + 2 * 3").(*BinaryOp)
	assert.Equal(t, OP_ADD, n.Op)
	rhs := n.Right.(*BinaryOp)
	assert.Equal(t, OP_MUL, rhs.Op)

	// (1 + 2) * 3 groups the other way
	n = parse(t, "(1 + 2) * 3").(*BinaryOp)
	assert.Equal(t, OP_MUL, n.Op)
	lhs := n.Left.(*BinaryOp)
	assert.Equal(t, OP_ADD, lhs.Op)

	// ** is right-associative
	n = parse(t, "2 ** 3 ** 2").(*BinaryOp)
	assert.Equal(t, OP_POW, n.Op)
	assert.Equal(t, OP_POW, n.Right.(*BinaryOp).Op)

	// unary minus binds tighter than *
	n = parse(t, "-2 * 3").(*BinaryOp)
	assert.Equal(t, OP_MUL, n.Op)
}

func TestParser_VariableVersusMethodCall(t *testing.T) {
	// undeclared name: zero-argument method call on self
	_, ok := parse(t, "name").(*GlobalCall)
	assert.True(t, ok)

	// declared local: variable reference
	_, ok = parse(t, "name", "name").(*Variable)
	assert.True(t, ok)

	// uppercase name: constant
	_, ok = parse(t, "Time").(*ConstantRef)
	assert.True(t, ok)
}

func TestParser_BareCallArguments(t *testing.T) {
	n := parse(t, "link_to 'Home', :home").(*GlobalCall)
	assert.Equal(t, "link_to", n.Name)
	assert.Len(t, n.Args, 2)

	// keyword-hash sugar collapses trailing pairs into one hash argument
	n = parse(t, "tag :div, class: 'a', id: 'b'").(*GlobalCall)
	assert.Len(t, n.Args, 2)
	_, ok := n.Args[1].(*HashLit)
	assert.True(t, ok)
}

func TestParser_MemberCalls(t *testing.T) {
	n := parse(t, "@user.name.upcase")
	mc := n.(*MethodCall)
	assert.Equal(t, "upcase", mc.Name)
	inner := mc.Recv.(*MethodCall)
	assert.Equal(t, "name", inner.Name)
	_, ok := inner.Recv.(*Attribute)
	assert.True(t, ok)
}

func TestParser_SafeNavigation(t *testing.T) {
	n := parse(t, "@user&.name")
	_, ok := n.(*SafeMethodCall)
	assert.True(t, ok)
}

func TestParser_ElementRef(t *testing.T) {
	n := parse(t, "@xs[1, 2]")
	el := n.(*ElementRef)
	assert.Len(t, el.Args, 2)
}

func TestParser_Literals(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"42", "42"},
		{"-1.5", "-1.5"},
		{"true", "true"},
		{"false", "false"},
		{"nil", "nil"},
		{":sym", ":sym"},
		{`"text"`, `"text"`},
		{"[1, 2, 3]", "[1, 2, 3]"},
		{"{a: 1, :b => 2}", "{:a => 1, :b => 2}"},
		{"1..5", "1..5"},
		{"1...5", "1...5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parse(t, tt.src).String())
	}
}

func TestParser_InterpolatedString(t *testing.T) {
	n := parse(t, `"a#{1 + 2}b"`)
	is, ok := n.(*InterpString)
	assert.True(t, ok)
	assert.Len(t, is.Parts, 3)
	assert.Equal(t, "a", is.Parts[0].Text)
	assert.NotNil(t, is.Parts[1].Expr)

	// no interpolation collapses to a literal
	_, ok = parse(t, `"plain"`).(*Literal)
	assert.True(t, ok)
}

func TestParser_Blocks(t *testing.T) {
	n := parse(t, "xs.map { |x| x * 2 }", "xs")
	mc := n.(*MethodCall)
	assert.NotNil(t, mc.Block)
	assert.Equal(t, []string{"x"}, mc.Block.Params)

	n = parse(t, "xs.map do |x| x * 2 end", "xs")
	mc = n.(*MethodCall)
	assert.NotNil(t, mc.Block)
}

func TestParser_BlockParamScoping(t *testing.T) {
	// inside the block x is a variable; outside it stays a method call
	vars := NewLocalVars()
	p, err := NewParser(New("f { |x| x }"), vars)
	assert.NoError(t, err)
	n, err := p.FullExpression()
	assert.NoError(t, err)

	gc := n.(*GlobalCall)
	_, ok := gc.Block.Body.(*Variable)
	assert.True(t, ok, "block param reads as variable inside the block")
	assert.False(t, vars.Has("x"), "block param is removed after the block")
}

func TestParser_Conditional(t *testing.T) {
	n := parse(t, "a ? 1 : 2")
	cond, ok := n.(*Conditional)
	assert.True(t, ok)
	assert.Equal(t, "1", cond.True.String())

	// nested ternaries are right-associative
	n = parse(t, "a ? 1 : b ? 2 : 3")
	outer := n.(*Conditional)
	_, ok = outer.False.(*Conditional)
	assert.True(t, ok)
}

func TestParser_CondArgsRequireParens(t *testing.T) {
	// a bare argument list in the true branch is ambiguous with the ':'
	parseErr(t, "a ? f 1 : 2")

	err := parseErr(t, "a ? @x.f 1 : 2")
	assert.Contains(t, err.Error(), "parenthesis")

	// with parens the call is fine
	n := parse(t, "a ? f(1) : 2")
	_, ok := n.(*Conditional)
	assert.True(t, ok)
}

func TestParser_Assignment(t *testing.T) {
	vars := NewLocalVars()
	p, err := NewParser(New("x = 1 + 2"), vars)
	assert.NoError(t, err)
	n, err := p.FullExpression()
	assert.NoError(t, err)

	as, ok := n.(*Assign)
	assert.True(t, ok)
	assert.Equal(t, "x", as.Name)
	assert.True(t, vars.Has("x"), "assignment declares the local")
}

func TestParser_TemplateStatement(t *testing.T) {
	p, err := NewParser(New("@xs.each do |a, b|"), NewLocalVars())
	assert.NoError(t, err)
	node, params, hasBlock, err := p.TemplateStatement()
	assert.NoError(t, err)
	assert.True(t, hasBlock)
	assert.Equal(t, []string{"a", "b"}, params)
	assert.Equal(t, "@xs.each()", node.String())

	// no block header
	p, err = NewParser(New("@x + 1"), NewLocalVars())
	assert.NoError(t, err)
	_, _, hasBlock, err = p.TemplateStatement()
	assert.NoError(t, err)
	assert.False(t, hasBlock)
}

func TestParser_FullExpressionRequiresEnd(t *testing.T) {
	parseErr(t, "1 2")
	parseErr(t, "1 +")
	parseErr(t, "(1")
	parseErr(t, "[1")
	parseErr(t, "{a: }")
}

func TestParser_RegexpLiteral(t *testing.T) {
	n := parse(t, `/a\/b/i`)
	re, ok := n.(*InterpRegexp)
	assert.True(t, ok)
	assert.Equal(t, 1, re.Flags)
	assert.Equal(t, "a/b", re.Parts[0].Text)
}

func TestParser_ConstNav(t *testing.T) {
	n := parse(t, "Regexp::IGNORECASE")
	nav, ok := n.(*ConstNav)
	assert.True(t, ok)
	assert.Equal(t, "IGNORECASE", nav.Name)
	_, ok = nav.Left.(*ConstantRef)
	assert.True(t, ok)
}
