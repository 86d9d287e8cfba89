package value

import (
	"fmt"
	"math"
)

// Range is a numeric begin..end (inclusive) or begin...end (exclusive)
// interval.
type Range struct {
	Begin      float64
	End        float64
	ExcludeEnd bool
}

// NewRange builds a range value.
func NewRange(begin, end float64, excludeEnd bool) *Range {
	return &Range{Begin: begin, End: end, ExcludeEnd: excludeEnd}
}

func (r *Range) Kind() Kind       { return KindRange }
func (r *Range) TypeName() string { return "Range" }

func (r *Range) ToString() string {
	op := ".."
	if r.ExcludeEnd {
		op = "..."
	}
	return fmt.Sprintf("%s%s%s", formatNumber(r.Begin), op, formatNumber(r.End))
}

func (r *Range) Inspect() string { return r.ToString() }
func (r *Range) Truthy() bool    { return true }

func (r *Range) Eq(o Value) bool {
	or, ok := o.(*Range)
	return ok && or.Begin == r.Begin && or.End == r.End && or.ExcludeEnd == r.ExcludeEnd
}

func (r *Range) HashKey() string {
	return "range:" + r.ToString()
}

// size reports the element count for integer iteration, 0 when empty.
func (r *Range) size() int {
	max := r.End
	if r.ExcludeEnd {
		max -= 1
	}
	n := math.Floor(max) - math.Ceil(r.Begin) + 1
	if n < 0 {
		return 0
	}
	return int(n)
}

// covers reports whether f lies within the interval.
func (r *Range) covers(f float64) bool {
	if f < r.Begin {
		return false
	}
	if r.ExcludeEnd {
		return f < r.End
	}
	return f <= r.End
}

// sliceBounds converts the range to a (start, length) window over a
// collection of length n, Ruby a[range] style. ok is false when the range
// lies outside the collection.
func (r *Range) sliceBounds(n int) (start, length int, ok bool) {
	start = normalizeIndex(int(r.Begin), n)
	end := normalizeIndex(int(r.End), n)
	if r.ExcludeEnd {
		end--
	}
	if start < 0 || start > n {
		return 0, 0, false
	}
	if end >= n {
		end = n - 1
	}
	if end < start {
		return start, 0, true
	}
	return start, end - start + 1, true
}

func (r *Range) toSlice() []Value {
	n := r.size()
	out := make([]Value, 0, n)
	v := math.Ceil(r.Begin)
	for i := 0; i < n; i++ {
		out = append(out, NewNumber(v))
		v++
	}
	return out
}

var rangeMethods MethodTable

func init() {
	rangeMethods = MethodTable{
		"begin": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(recv.(*Range).Begin), nil
		},
		"first": func(recv Value, args []Value, block *Proc) (Value, error) {
			r := recv.(*Range)
			if len(args) == 0 {
				return NewNumber(r.Begin), nil
			}
			return arrayEnd(NewArray(r.toSlice()), args, false)
		},
		"end": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(recv.(*Range).End), nil
		},
		"last": func(recv Value, args []Value, block *Proc) (Value, error) {
			r := recv.(*Range)
			if len(args) == 0 {
				return NewNumber(r.End), nil
			}
			return arrayEnd(NewArray(r.toSlice()), args, true)
		},
		"exclude_end?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(recv.(*Range).ExcludeEnd), nil
		},
		"size": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(recv.(*Range).size())), nil
		},
		"length": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(recv.(*Range).size())), nil
		},
		"each": func(recv Value, args []Value, block *Proc) (Value, error) {
			r := recv.(*Range)
			if block == nil {
				return newEnumerator(recv, "each", nil), nil
			}
			for _, el := range r.toSlice() {
				if _, err := block.Yield([]Value{el}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"step": func(recv Value, args []Value, block *Proc) (Value, error) {
			r := recv.(*Range)
			step := 1.0
			if len(args) > 0 {
				num, err := asNumber(args[0], "step")
				if err != nil {
					return nil, err
				}
				step = num.F
			}
			if step <= 0 {
				return nil, &ArgumentError{Message: "step can't be negative or zero"}
			}
			if block == nil {
				return newEnumerator(recv, "step", args), nil
			}
			for v := r.Begin; r.covers(v); v += step {
				if _, err := block.Yield([]Value{NewNumber(v)}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"cover?": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "cover?", Expected: 1, Got: len(args)}
			}
			num, err := asNumber(args[0], "cover?")
			if err != nil {
				return nil, err
			}
			return BoolValue(recv.(*Range).covers(num.F)), nil
		},
		"include?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return rangeMethods["cover?"](recv, args, block)
		},
		"member?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return rangeMethods["cover?"](recv, args, block)
		},
		"to_a": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewArray(recv.(*Range).toSlice()), nil
		},
	}
	mergeTables(rangeMethods, enumerableTable())
}
