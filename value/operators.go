package value

// Operator capability interfaces. A variant overloads an operator by
// implementing the matching interface; anything not implemented fails with
// UnsupportedOperand (spec.md §4.1). The evaluator calls the free functions
// below rather than type-asserting at every call site.

type Adder interface{ Add(o Value) (Value, error) }
type Subber interface{ Sub(o Value) (Value, error) }
type Muler interface{ Mul(o Value) (Value, error) }
type Diver interface{ Div(o Value) (Value, error) }
type Modder interface{ Mod(o Value) (Value, error) }
type Power interface{ Pow(o Value) (Value, error) }
type Negater interface{ Negate() (Value, error) }
type Shifter interface {
	Shl(o Value) (Value, error)
	Shr(o Value) (Value, error)
}
type Bitwiser interface {
	Band(o Value) (Value, error)
	Bor(o Value) (Value, error)
	Bxor(o Value) (Value, error)
	Bnot() (Value, error)
}

func unsupported(op string, v Value) error {
	return &UnsupportedOperandError{Op: op, Typ: v.TypeName()}
}

// tableOp falls back to a same-named method-table entry, letting variants
// (and user objects) overload an operator through their table instead of the
// Go capability interface.
func tableOp(op string, a, b Value) (Value, error) {
	if fn := Lookup(a, op); fn != nil {
		return fn(a, []Value{b}, nil)
	}
	return nil, unsupported(op, a)
}

// Add dispatches the `+` overload.
func Add(a, b Value) (Value, error) {
	if x, ok := a.(Adder); ok {
		return x.Add(b)
	}
	return tableOp("+", a, b)
}

// Sub dispatches the `-` overload.
func Sub(a, b Value) (Value, error) {
	if x, ok := a.(Subber); ok {
		return x.Sub(b)
	}
	return tableOp("-", a, b)
}

// Mul dispatches the `*` overload.
func Mul(a, b Value) (Value, error) {
	if x, ok := a.(Muler); ok {
		return x.Mul(b)
	}
	return tableOp("*", a, b)
}

// Div dispatches the `/` overload.
func Div(a, b Value) (Value, error) {
	if x, ok := a.(Diver); ok {
		return x.Div(b)
	}
	return tableOp("/", a, b)
}

// Mod dispatches the `%` overload.
func Mod(a, b Value) (Value, error) {
	if x, ok := a.(Modder); ok {
		return x.Mod(b)
	}
	return tableOp("%", a, b)
}

// Pow dispatches the `**` overload.
func Pow(a, b Value) (Value, error) {
	if x, ok := a.(Power); ok {
		return x.Pow(b)
	}
	return tableOp("**", a, b)
}

// Negate dispatches unary `-`.
func Negate(a Value) (Value, error) {
	if x, ok := a.(Negater); ok {
		return x.Negate()
	}
	return nil, unsupported("-@", a)
}

// Shl dispatches `<<`.
func Shl(a, b Value) (Value, error) {
	if x, ok := a.(Shifter); ok {
		return x.Shl(b)
	}
	return tableOp("<<", a, b)
}

// Shr dispatches `>>`.
func Shr(a, b Value) (Value, error) {
	if x, ok := a.(Shifter); ok {
		return x.Shr(b)
	}
	return tableOp(">>", a, b)
}

// Band dispatches `&`.
func Band(a, b Value) (Value, error) {
	if x, ok := a.(Bitwiser); ok {
		return x.Band(b)
	}
	return tableOp("&", a, b)
}

// Bor dispatches `|`.
func Bor(a, b Value) (Value, error) {
	if x, ok := a.(Bitwiser); ok {
		return x.Bor(b)
	}
	return tableOp("|", a, b)
}

// Bxor dispatches `^`.
func Bxor(a, b Value) (Value, error) {
	if x, ok := a.(Bitwiser); ok {
		return x.Bxor(b)
	}
	return tableOp("^", a, b)
}

// Bnot dispatches unary `~`.
func Bnot(a Value) (Value, error) {
	if x, ok := a.(Bitwiser); ok {
		return x.Bnot()
	}
	return nil, unsupported("~", a)
}

// ElRef dispatches element reference `a[i]` through the receiver's `[]`
// method.
func ElRef(recv Value, args []Value) (Value, error) {
	fn := Lookup(recv, "[]")
	if fn == nil {
		return nil, unsupported("[]", recv)
	}
	return fn(recv, args, nil)
}
