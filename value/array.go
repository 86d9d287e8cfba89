package value

import (
	"strings"
)

// Array is an insertion-ordered sequence of values. The struct holds a slice
// directly; sharing an *Array shares the backing storage.
type Array struct {
	Items []Value
}

// NewArray wraps items as a Value. The slice is owned by the Array afterward.
func NewArray(items []Value) *Array { return &Array{Items: items} }

func (a *Array) Kind() Kind       { return KindArray }
func (a *Array) TypeName() string { return "Array" }

func (a *Array) ToString() string {
	return a.Inspect()
}

func (a *Array) Inspect() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, el := range a.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(el.Inspect())
	}
	b.WriteByte(']')
	return b.String()
}

func (a *Array) Truthy() bool { return true }

func (a *Array) Eq(o Value) bool {
	oa, ok := o.(*Array)
	if !ok || len(oa.Items) != len(a.Items) {
		return false
	}
	for i, el := range a.Items {
		if !Eq(el, oa.Items[i]) {
			return false
		}
	}
	return true
}

// Cmp is lexicographic: the first non-zero element comparison wins, then the
// lengths are compared (spec.md §8 property 4).
func (a *Array) Cmp(o Value) (int, error) {
	oa, ok := o.(*Array)
	if !ok {
		return 0, &UnorderableTypeError{Op: "<=>", Left: "Array", Right: o.TypeName()}
	}
	n := len(a.Items)
	if len(oa.Items) < n {
		n = len(oa.Items)
	}
	for i := 0; i < n; i++ {
		c, err := Cmp(a.Items[i], oa.Items[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	switch {
	case len(a.Items) < len(oa.Items):
		return -1, nil
	case len(a.Items) > len(oa.Items):
		return 1, nil
	default:
		return 0, nil
	}
}

func (a *Array) HashKey() string {
	var b strings.Builder
	b.WriteString("arr:")
	for _, el := range a.Items {
		b.WriteString(HashKey(el))
		b.WriteByte(',')
	}
	return b.String()
}

// Add implements `+` (concatenation).
func (a *Array) Add(o Value) (Value, error) {
	oa, ok := o.(*Array)
	if !ok {
		return nil, unsupported("+", o)
	}
	out := make([]Value, 0, len(a.Items)+len(oa.Items))
	out = append(out, a.Items...)
	out = append(out, oa.Items...)
	return NewArray(out), nil
}

// Sub implements `-` (set difference, preserving left order).
func (a *Array) Sub(o Value) (Value, error) {
	oa, ok := o.(*Array)
	if !ok {
		return nil, unsupported("-", o)
	}
	var out []Value
	for _, el := range a.Items {
		found := false
		for _, rm := range oa.Items {
			if Eq(el, rm) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, el)
		}
	}
	return NewArray(out), nil
}

// at returns the element at i (negative counts from the end), or nil Go value
// when out of range.
func (a *Array) at(i int) Value {
	i = normalizeIndex(i, len(a.Items))
	if i < 0 || i >= len(a.Items) {
		return nil
	}
	return a.Items[i]
}

// arraySlice implements the [i], [i,len] and [range] access forms shared by
// `[]` and `slice`.
func arraySlice(a *Array, args []Value) (Value, error) {
	n := len(a.Items)
	if len(args) == 1 {
		if r, ok := args[0].(*Range); ok {
			start, length, ok := r.sliceBounds(n)
			if !ok {
				return NilValue, nil
			}
			return NewArray(append([]Value(nil), a.Items[start:start+length]...)), nil
		}
		idx, err := asNumber(args[0], "[]")
		if err != nil {
			return nil, err
		}
		if el := a.at(int(idx.F)); el != nil {
			return el, nil
		}
		return NilValue, nil
	}
	if len(args) == 2 {
		idx, err := asNumber(args[0], "[]")
		if err != nil {
			return nil, err
		}
		ln, err := asNumber(args[1], "[]")
		if err != nil {
			return nil, err
		}
		start := normalizeIndex(int(idx.F), n)
		length := int(ln.F)
		if start < 0 || start > n || length < 0 {
			return NilValue, nil
		}
		end := start + length
		if end > n {
			end = n
		}
		return NewArray(append([]Value(nil), a.Items[start:end]...)), nil
	}
	return nil, &ArgumentCountError{Method: "[]", Expected: 1, Got: len(args)}
}

var arrayMethods MethodTable

func init() {
	arrayMethods = MethodTable{
		"[]": func(recv Value, args []Value, block *Proc) (Value, error) {
			return arraySlice(recv.(*Array), args)
		},
		"slice": func(recv Value, args []Value, block *Proc) (Value, error) {
			return arraySlice(recv.(*Array), args)
		},
		"at": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "at", Expected: 1, Got: len(args)}
			}
			idx, err := asNumber(args[0], "at")
			if err != nil {
				return nil, err
			}
			if el := recv.(*Array).at(int(idx.F)); el != nil {
				return el, nil
			}
			return NilValue, nil
		},
		"fetch": func(recv Value, args []Value, block *Proc) (Value, error) {
			a := recv.(*Array)
			if len(args) < 1 {
				return nil, &ArgumentCountError{Method: "fetch", Expected: 1, Got: 0}
			}
			idx, err := asNumber(args[0], "fetch")
			if err != nil {
				return nil, err
			}
			if el := a.at(int(idx.F)); el != nil {
				return el, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return nil, &IndexError{Message: "index " + idx.ToString() + " outside of array bounds"}
		},
		"first": func(recv Value, args []Value, block *Proc) (Value, error) {
			return arrayEnd(recv.(*Array), args, false)
		},
		"last": func(recv Value, args []Value, block *Proc) (Value, error) {
			return arrayEnd(recv.(*Array), args, true)
		},
		"take": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "take", Expected: 1, Got: len(args)}
			}
			num, err := asNumber(args[0], "take")
			if err != nil {
				return nil, err
			}
			a := recv.(*Array)
			n := int(num.F)
			if n < 0 {
				return nil, &ArgumentError{Message: "attempt to take negative size"}
			}
			if n > len(a.Items) {
				n = len(a.Items)
			}
			return NewArray(append([]Value(nil), a.Items[:n]...)), nil
		},
		"values_at": func(recv Value, args []Value, block *Proc) (Value, error) {
			a := recv.(*Array)
			out := make([]Value, 0, len(args))
			for _, arg := range args {
				idx, err := asNumber(arg, "values_at")
				if err != nil {
					return nil, err
				}
				if el := a.at(int(idx.F)); el != nil {
					out = append(out, el)
				} else {
					out = append(out, NilValue)
				}
			}
			return NewArray(out), nil
		},
		"assoc": func(recv Value, args []Value, block *Proc) (Value, error) {
			return arrayAssoc(recv.(*Array), args, 0)
		},
		"rassoc": func(recv Value, args []Value, block *Proc) (Value, error) {
			return arrayAssoc(recv.(*Array), args, 1)
		},
		"compact": func(recv Value, args []Value, block *Proc) (Value, error) {
			var out []Value
			for _, el := range recv.(*Array).Items {
				if _, isNil := el.(Nil); !isNil {
					out = append(out, el)
				}
			}
			return NewArray(out), nil
		},
		"each": func(recv Value, args []Value, block *Proc) (Value, error) {
			a := recv.(*Array)
			if block == nil {
				return newEnumerator(recv, "each", nil), nil
			}
			for _, el := range a.Items {
				if _, err := block.Yield([]Value{el}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"reverse_each": func(recv Value, args []Value, block *Proc) (Value, error) {
			a := recv.(*Array)
			if block == nil {
				return newEnumerator(recv, "reverse_each", nil), nil
			}
			for i := len(a.Items) - 1; i >= 0; i-- {
				if _, err := block.Yield([]Value{a.Items[i]}); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"empty?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(len(recv.(*Array).Items) == 0), nil
		},
		"flatten": func(recv Value, args []Value, block *Proc) (Value, error) {
			depth := -1
			if len(args) > 0 {
				num, err := asNumber(args[0], "flatten")
				if err != nil {
					return nil, err
				}
				depth = int(num.F)
			}
			return NewArray(flattenItems(recv.(*Array).Items, depth)), nil
		},
		"include?": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "include?", Expected: 1, Got: len(args)}
			}
			for _, el := range recv.(*Array).Items {
				if Eq(el, args[0]) {
					return True, nil
				}
			}
			return False, nil
		},
		"index": func(recv Value, args []Value, block *Proc) (Value, error) {
			return arrayIndex(recv.(*Array), args, block, false)
		},
		"rindex": func(recv Value, args []Value, block *Proc) (Value, error) {
			return arrayIndex(recv.(*Array), args, block, true)
		},
		"join": func(recv Value, args []Value, block *Proc) (Value, error) {
			sep := ""
			if len(args) > 0 {
				s, err := asString(args[0], "join")
				if err != nil {
					return nil, err
				}
				sep = s.S
			}
			var b strings.Builder
			for i, el := range recv.(*Array).Items {
				if i > 0 {
					b.WriteString(sep)
				}
				b.WriteString(el.ToString())
			}
			return NewString(b.String()), nil
		},
		"reverse": func(recv Value, args []Value, block *Proc) (Value, error) {
			out := append([]Value(nil), recv.(*Array).Items...)
			reverseValues(out)
			return NewArray(out), nil
		},
		"rotate": func(recv Value, args []Value, block *Proc) (Value, error) {
			a := recv.(*Array)
			n := 1
			if len(args) > 0 {
				num, err := asNumber(args[0], "rotate")
				if err != nil {
					return nil, err
				}
				n = int(num.F)
			}
			size := len(a.Items)
			if size == 0 {
				return NewArray(nil), nil
			}
			n = ((n % size) + size) % size
			out := make([]Value, 0, size)
			out = append(out, a.Items[n:]...)
			out = append(out, a.Items[:n]...)
			return NewArray(out), nil
		},
		"size": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(len(recv.(*Array).Items))), nil
		},
		"length": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(len(recv.(*Array).Items))), nil
		},
		"count": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) == 0 && block == nil {
				return NewNumber(float64(len(recv.(*Array).Items))), nil
			}
			return enumCount(recv, args, block)
		},
		"sort": func(recv Value, args []Value, block *Proc) (Value, error) {
			cmp, _, err := blockArg("sort", args, block)
			if err != nil {
				return nil, err
			}
			out, err := sortValues(recv.(*Array).Items, func(a, b Value) (int, error) {
				return cmpBy(cmp, a, b)
			})
			if err != nil {
				return nil, err
			}
			return NewArray(out), nil
		},
		"sort_by": func(recv Value, args []Value, block *Proc) (Value, error) {
			by, _, err := blockArg("sort_by", args, block)
			if err != nil {
				return nil, err
			}
			if by == nil {
				return newEnumerator(recv, "sort_by", nil), nil
			}
			out, err := sortValues(recv.(*Array).Items, func(a, b Value) (int, error) {
				ka, err := yieldBlock(by, a)
				if err != nil {
					return 0, err
				}
				kb, err := yieldBlock(by, b)
				if err != nil {
					return 0, err
				}
				return Cmp(ka, kb)
			})
			if err != nil {
				return nil, err
			}
			return NewArray(out), nil
		},
		"uniq": func(recv Value, args []Value, block *Proc) (Value, error) {
			seen := make(map[string]bool)
			var out []Value
			for _, el := range recv.(*Array).Items {
				key := HashKey(el)
				if !seen[key] {
					seen[key] = true
					out = append(out, el)
				}
			}
			return NewArray(out), nil
		},
		"to_a": func(recv Value, args []Value, block *Proc) (Value, error) {
			return recv, nil
		},
		"+": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "+", Expected: 1, Got: len(args)}
			}
			return recv.(*Array).Add(args[0])
		},
		"-": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "-", Expected: 1, Got: len(args)}
			}
			return recv.(*Array).Sub(args[0])
		},
	}
	mergeTables(arrayMethods, enumerableTable())
}

func arrayEnd(a *Array, args []Value, fromEnd bool) (Value, error) {
	if len(args) == 0 {
		var el Value
		if fromEnd {
			el = a.at(-1)
		} else {
			el = a.at(0)
		}
		if el == nil {
			return NilValue, nil
		}
		return el, nil
	}
	num, err := asNumber(args[0], "first")
	if err != nil {
		return nil, err
	}
	n := int(num.F)
	if n < 0 {
		return nil, &ArgumentError{Message: "negative array size"}
	}
	if n > len(a.Items) {
		n = len(a.Items)
	}
	if fromEnd {
		return NewArray(append([]Value(nil), a.Items[len(a.Items)-n:]...)), nil
	}
	return NewArray(append([]Value(nil), a.Items[:n]...)), nil
}

func arrayAssoc(a *Array, args []Value, pos int) (Value, error) {
	if len(args) != 1 {
		return nil, &ArgumentCountError{Method: "assoc", Expected: 1, Got: len(args)}
	}
	for _, el := range a.Items {
		pair, ok := el.(*Array)
		if !ok || len(pair.Items) <= pos {
			continue
		}
		if Eq(pair.Items[pos], args[0]) {
			return pair, nil
		}
	}
	return NilValue, nil
}

func arrayIndex(a *Array, args []Value, block *Proc, last bool) (Value, error) {
	match := func(el Value) (bool, error) {
		if block != nil {
			r, err := yieldBlock(block, el)
			if err != nil {
				return false, err
			}
			return r.Truthy(), nil
		}
		if len(args) > 0 {
			return Eq(el, args[0]), nil
		}
		return false, nil
	}
	if last {
		for i := len(a.Items) - 1; i >= 0; i-- {
			ok, err := match(a.Items[i])
			if err != nil {
				return nil, err
			}
			if ok {
				return NewNumber(float64(i)), nil
			}
		}
	} else {
		for i, el := range a.Items {
			ok, err := match(el)
			if err != nil {
				return nil, err
			}
			if ok {
				return NewNumber(float64(i)), nil
			}
		}
	}
	return NilValue, nil
}

func flattenItems(items []Value, depth int) []Value {
	out := make([]Value, 0, len(items))
	for _, el := range items {
		if sub, ok := el.(*Array); ok && depth != 0 {
			out = append(out, flattenItems(sub.Items, depth-1)...)
		} else {
			out = append(out, el)
		}
	}
	return out
}
