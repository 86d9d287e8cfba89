package expr

import (
	"strings"

	"github.com/codingersid/slim-template/value"
)

// Tree-walking evaluation. Each node kind evaluates per spec; errors abort
// the walk and surface to the render/parse caller unchanged.

func (n *Literal) Eval(scope Scope) (value.Value, error) {
	return n.Val, nil
}

func (n *Variable) Eval(scope Scope) (value.Value, error) {
	return scope.Get(n.Name), nil
}

func (n *Attribute) Eval(scope Scope) (value.Value, error) {
	return scope.Attr(n.Name), nil
}

func (n *ConstantRef) Eval(scope Scope) (value.Value, error) {
	return scope.Constant(n.Name)
}

func (n *ConstNav) Eval(scope Scope) (value.Value, error) {
	left, err := n.Left.Eval(scope)
	if err != nil {
		return nil, err
	}
	obj, ok := left.(*value.Object)
	if !ok {
		return nil, &value.NoConstantError{Name: n.Name}
	}
	return obj.GetConstant(n.Name)
}

func (n *Assign) Eval(scope Scope) (value.Value, error) {
	v, err := n.Expr.Eval(scope)
	if err != nil {
		return nil, err
	}
	scope.Set(n.Name, v)
	return v, nil
}

// Eval of a block does not evaluate the body: it returns a Proc capturing
// the body, the parameter names, and the defining scope. Calling the Proc
// binds the parameters in a fresh frame chained to that scope.
func (n *Block) Eval(scope Scope) (value.Value, error) {
	return value.NewProc(n.Params, func(args []value.Value) (value.Value, error) {
		frame := scope.NewFrame()
		for i, name := range n.Params {
			frame.Set(name, args[i])
		}
		return n.Body.Eval(frame)
	}), nil
}

func evalArgs(scope Scope, args []Node, block *Block) ([]value.Value, *value.Proc, error) {
	vals := make([]value.Value, len(args))
	for i, a := range args {
		v, err := a.Eval(scope)
		if err != nil {
			return nil, nil, err
		}
		vals[i] = v
	}
	var proc *value.Proc
	if block != nil {
		b, err := block.Eval(scope)
		if err != nil {
			return nil, nil, err
		}
		proc = b.(*value.Proc)
	}
	return vals, proc, nil
}

func (n *GlobalCall) Eval(scope Scope) (value.Value, error) {
	args, proc, err := evalArgs(scope, n.Args, n.Block)
	if err != nil {
		return nil, err
	}
	if fn := scope.Helper(n.Name); fn != nil {
		return fn(value.NilValue, args, proc)
	}
	return nil, &value.NoSuchMethodError{Typ: "self", Method: n.Name}
}

func (n *MethodCall) Eval(scope Scope) (value.Value, error) {
	recv, err := n.Recv.Eval(scope)
	if err != nil {
		return nil, err
	}
	args, proc, err := evalArgs(scope, n.Args, n.Block)
	if err != nil {
		return nil, err
	}
	fn := n.cache.Lookup(recv, n.Name)
	if fn == nil {
		return nil, &value.NoSuchMethodError{Typ: recv.TypeName(), Method: n.Name}
	}
	return fn(recv, args, proc)
}

func (n *SafeMethodCall) Eval(scope Scope) (value.Value, error) {
	recv, err := n.Recv.Eval(scope)
	if err != nil {
		return nil, err
	}
	if _, isNil := recv.(value.Nil); isNil {
		// arguments are not evaluated (spec.md §8 property 7)
		return value.NilValue, nil
	}
	args, proc, err := evalArgs(scope, n.Args, n.Block)
	if err != nil {
		return nil, err
	}
	fn := n.cache.Lookup(recv, n.Name)
	if fn == nil {
		return nil, &value.NoSuchMethodError{Typ: recv.TypeName(), Method: n.Name}
	}
	return fn(recv, args, proc)
}

func (n *ElementRef) Eval(scope Scope) (value.Value, error) {
	recv, err := n.Recv.Eval(scope)
	if err != nil {
		return nil, err
	}
	args, _, err := evalArgs(scope, n.Args, nil)
	if err != nil {
		return nil, err
	}
	return value.ElRef(recv, args)
}

func (n *ArrayLit) Eval(scope Scope) (value.Value, error) {
	items, _, err := evalArgs(scope, n.Args, nil)
	if err != nil {
		return nil, err
	}
	return value.NewArray(items), nil
}

func (n *HashLit) Eval(scope Scope) (value.Value, error) {
	h := value.NewHash()
	for i := 0; i+1 < len(n.Args); i += 2 {
		k, err := n.Args[i].Eval(scope)
		if err != nil {
			return nil, err
		}
		v, err := n.Args[i+1].Eval(scope)
		if err != nil {
			return nil, err
		}
		h.Set(k, v)
	}
	return h, nil
}

func (n *RangeLit) Eval(scope Scope) (value.Value, error) {
	begin, err := n.Begin.Eval(scope)
	if err != nil {
		return nil, err
	}
	end, err := n.End.Eval(scope)
	if err != nil {
		return nil, err
	}
	bn, ok := begin.(*value.Number)
	if !ok {
		return nil, &value.TypeError{Expected: "Number", Got: begin.TypeName(), Context: "range begin"}
	}
	en, ok := end.(*value.Number)
	if !ok {
		return nil, &value.TypeError{Expected: "Number", Got: end.TypeName(), Context: "range end"}
	}
	return value.NewRange(bn.F, en.F, n.Exclusive), nil
}

func (n *Conditional) Eval(scope Scope) (value.Value, error) {
	cond, err := n.Cond.Eval(scope)
	if err != nil {
		return nil, err
	}
	if cond.Truthy() {
		return n.True.Eval(scope)
	}
	return n.False.Eval(scope)
}

func (n *BinaryOp) Eval(scope Scope) (value.Value, error) {
	// logical operators short-circuit: the right side is not evaluated when
	// the left already decides the result
	if n.Op == OP_LOGICAL_AND || n.Op == OP_LOGICAL_OR {
		left, err := n.Left.Eval(scope)
		if err != nil {
			return nil, err
		}
		if n.Op == OP_LOGICAL_AND && !left.Truthy() {
			return left, nil
		}
		if n.Op == OP_LOGICAL_OR && left.Truthy() {
			return left, nil
		}
		return n.Right.Eval(scope)
	}

	left, err := n.Left.Eval(scope)
	if err != nil {
		return nil, err
	}
	right, err := n.Right.Eval(scope)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case OP_ADD:
		return value.Add(left, right)
	case OP_SUB:
		return value.Sub(left, right)
	case OP_MUL:
		return value.Mul(left, right)
	case OP_DIV:
		return value.Div(left, right)
	case OP_MOD:
		return value.Mod(left, right)
	case OP_POW:
		return value.Pow(left, right)
	case OP_LSHIFT:
		return value.Shl(left, right)
	case OP_RSHIFT:
		return value.Shr(left, right)
	case OP_AND:
		return value.Band(left, right)
	case OP_OR:
		return value.Bor(left, right)
	case OP_XOR:
		return value.Bxor(left, right)
	case OP_EQ:
		return value.BoolValue(value.Eq(left, right)), nil
	case OP_NE:
		return value.BoolValue(!value.Eq(left, right)), nil
	case OP_CMP:
		c, err := value.Cmp(left, right)
		if err != nil {
			return nil, err
		}
		return value.NewNumber(float64(c)), nil
	case OP_LT, OP_LE, OP_GT, OP_GE:
		c, err := value.Cmp(left, right)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case OP_LT:
			return value.BoolValue(c < 0), nil
		case OP_LE:
			return value.BoolValue(c <= 0), nil
		case OP_GT:
			return value.BoolValue(c > 0), nil
		default:
			return value.BoolValue(c >= 0), nil
		}
	default:
		return nil, &value.UnsupportedOperandError{Op: binaryOpNames[n.Op], Typ: left.TypeName()}
	}
}

func (n *UnaryOp) Eval(scope Scope) (value.Value, error) {
	v, err := n.Expr.Eval(scope)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OP_NOT:
		return value.BoolValue(!v.Truthy()), nil
	case OP_BNOT:
		return value.Bnot(v)
	default:
		return value.Negate(v)
	}
}

func (n *InterpString) Eval(scope Scope) (value.Value, error) {
	var b strings.Builder
	for _, p := range n.Parts {
		if p.Expr == nil {
			b.WriteString(p.Text)
			continue
		}
		v, err := p.Expr.Eval(scope)
		if err != nil {
			return nil, err
		}
		b.WriteString(v.ToString())
	}
	return value.NewString(b.String()), nil
}

func (n *InterpRegexp) Eval(scope Scope) (value.Value, error) {
	var b strings.Builder
	for _, p := range n.Parts {
		if p.Expr == nil {
			b.WriteString(p.Text)
			continue
		}
		v, err := p.Expr.Eval(scope)
		if err != nil {
			return nil, err
		}
		b.WriteString(v.ToString())
	}
	return value.NewRegexp(b.String(), n.Flags)
}
