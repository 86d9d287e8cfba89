package value

import (
	"math"
	"strconv"
)

// Number is an IEEE-754 double (spec.md §4.1 "Number semantics").
type Number struct {
	F float64
}

// NewNumber wraps f as a Value.
func NewNumber(f float64) Value { return &Number{F: f} }

func (n *Number) Kind() Kind       { return KindNumber }
func (n *Number) TypeName() string { return "Number" }

func (n *Number) ToString() string {
	return formatNumber(n.F)
}

func formatNumber(f float64) string {
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (n *Number) Inspect() string { return n.ToString() }
func (n *Number) Truthy() bool    { return true } // is_true(0) == true, spec.md §8 property 2

func (n *Number) Eq(o Value) bool {
	on, ok := o.(*Number)
	return ok && on.F == n.F
}

func (n *Number) Cmp(o Value) (int, error) {
	on, ok := o.(*Number)
	if !ok {
		return 0, &UnorderableTypeError{Op: "<=>", Left: "Number", Right: o.TypeName()}
	}
	switch {
	case n.F < on.F:
		return -1, nil
	case n.F > on.F:
		return 1, nil
	default:
		return 0, nil
	}
}

func (n *Number) HashKey() string { return "num:" + strconv.FormatFloat(n.F, 'g', -1, 64) }

// operator overloads (spec.md §4.1)

func (n *Number) Add(o Value) (Value, error) {
	on, err := asNumber(o, "+")
	if err != nil {
		return nil, err
	}
	return NewNumber(n.F + on.F), nil
}

func (n *Number) Sub(o Value) (Value, error) {
	on, err := asNumber(o, "-")
	if err != nil {
		return nil, err
	}
	return NewNumber(n.F - on.F), nil
}

func (n *Number) Mul(o Value) (Value, error) {
	on, err := asNumber(o, "*")
	if err != nil {
		return nil, err
	}
	return NewNumber(n.F * on.F), nil
}

func (n *Number) Div(o Value) (Value, error) {
	on, err := asNumber(o, "/")
	if err != nil {
		return nil, err
	}
	return NewNumber(n.F / on.F), nil // IEEE-754 semantics, never raises (spec.md §4.1)
}

func (n *Number) Mod(o Value) (Value, error) {
	on, err := asNumber(o, "%")
	if err != nil {
		return nil, err
	}
	return NewNumber(math.Mod(n.F, on.F)), nil
}

func (n *Number) Pow(o Value) (Value, error) {
	on, err := asNumber(o, "**")
	if err != nil {
		return nil, err
	}
	return NewNumber(math.Pow(n.F, on.F)), nil
}

func (n *Number) Negate() (Value, error) { return NewNumber(-n.F), nil }

func (n *Number) Shl(o Value) (Value, error) {
	on, err := asNumber(o, "<<")
	if err != nil {
		return nil, err
	}
	return NewNumber(float64(int64(n.F) << uint(int64(on.F)))), nil
}

func (n *Number) Shr(o Value) (Value, error) {
	on, err := asNumber(o, ">>")
	if err != nil {
		return nil, err
	}
	return NewNumber(float64(int64(n.F) >> uint(int64(on.F)))), nil
}

func (n *Number) Band(o Value) (Value, error) {
	on, err := asNumber(o, "&")
	if err != nil {
		return nil, err
	}
	return NewNumber(float64(int64(n.F) & int64(on.F))), nil
}

func (n *Number) Bor(o Value) (Value, error) {
	on, err := asNumber(o, "|")
	if err != nil {
		return nil, err
	}
	return NewNumber(float64(int64(n.F) | int64(on.F))), nil
}

func (n *Number) Bxor(o Value) (Value, error) {
	on, err := asNumber(o, "^")
	if err != nil {
		return nil, err
	}
	return NewNumber(float64(int64(n.F) ^ int64(on.F))), nil
}

func (n *Number) Bnot() (Value, error) { return NewNumber(float64(^int64(n.F))), nil }

func asNumber(v Value, op string) (*Number, error) {
	n, ok := v.(*Number)
	if !ok {
		return nil, &UnsupportedOperandError{Op: op, Typ: v.TypeName()}
	}
	return n, nil
}

// roundTo implements Number#round(n): half-away-from-zero, negative n rounds
// to tens/hundreds/etc, n==0 rounds to nearest integer (spec.md §4.1).
func roundTo(f float64, n int) float64 {
	scale := math.Pow(10, float64(n))
	scaled := f * scale
	if scaled >= 0 {
		scaled = math.Floor(scaled + 0.5)
	} else {
		scaled = math.Ceil(scaled - 0.5)
	}
	return scaled / scale
}

var numberMethods MethodTable

func init() {
	numberMethods = MethodTable{
		"to_i": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(math.Trunc(recv.(*Number).F)), nil
		},
		"to_int": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(math.Trunc(recv.(*Number).F)), nil
		},
		"to_f": func(recv Value, args []Value, block *Proc) (Value, error) {
			return recv, nil
		},
		"to_s": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(recv.(*Number).ToString()), nil
		},
		"round": func(recv Value, args []Value, block *Proc) (Value, error) {
			n := 0
			if len(args) > 0 {
				an, err := asNumber(args[0], "round")
				if err != nil {
					return nil, err
				}
				n = int(an.F)
			}
			return NewNumber(roundTo(recv.(*Number).F, n)), nil
		},
		"floor": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(math.Floor(recv.(*Number).F)), nil
		},
		"ceil": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(math.Ceil(recv.(*Number).F)), nil
		},
		"abs": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(math.Abs(recv.(*Number).F)), nil
		},
		"zero?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(recv.(*Number).F == 0), nil
		},
		"positive?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(recv.(*Number).F > 0), nil
		},
		"negative?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(recv.(*Number).F < 0), nil
		},
		"even?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(int64(recv.(*Number).F)%2 == 0), nil
		},
		"odd?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(int64(recv.(*Number).F)%2 != 0), nil
		},
		"next_float": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(math.Nextafter(recv.(*Number).F, math.Inf(1))), nil
		},
		"prev_float": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(math.Nextafter(recv.(*Number).F, math.Inf(-1))), nil
		},
		"times": func(recv Value, args []Value, block *Proc) (Value, error) {
			n := int64(recv.(*Number).F)
			if block == nil {
				return newEnumerator(recv, "times", nil), nil
			}
			for i := int64(0); i < n; i++ {
				if _, err := block.Call([]Value{NewNumber(float64(i))}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"upto": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "upto", Expected: 1, Got: len(args)}
			}
			limit, err := asNumber(args[0], "upto")
			if err != nil {
				return nil, err
			}
			if block == nil {
				return newEnumerator(recv, "upto", args), nil
			}
			for i := recv.(*Number).F; i <= limit.F; i++ {
				if _, err := block.Call([]Value{NewNumber(i)}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
	}
}
