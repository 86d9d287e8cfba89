package value

import "errors"

// Enumerable is implemented here as a capability set rather than a concrete
// type: any variant whose method table has an `each` entry gets the derived
// operations below merged into its table (Array, Hash, Range, Enumerator).
// The derived operations iterate through Each, which dispatches the
// receiver's own `each` with a native block.

// errStop is the internal signal used by short-circuiting operations (find,
// any?, all?, ...). It deliberately is not a *BreakException: the concrete
// each implementations recover BreakException (user-level `break`) but let
// errStop propagate up to Each, which swallows it. Neither ever escapes an
// Enumerable entry point.
var errStop = errors.New("stop iteration")

// Each iterates recv by dispatching its `each` method with a synthesized
// block. Multi-value yields (Hash) arrive as a single pair array.
func Each(recv Value, fn func(el Value) error) error {
	eachFn := Lookup(recv, "each")
	if eachFn == nil {
		return &NoSuchMethodError{Typ: recv.TypeName(), Method: "each"}
	}
	blk := NewNativeProc(-1, func(args []Value) (Value, error) {
		var el Value
		if len(args) == 1 {
			el = args[0]
		} else {
			el = NewArray(append([]Value(nil), args...))
		}
		if err := fn(el); err != nil {
			return nil, err
		}
		return NilValue, nil
	})
	_, err := eachFn(recv, nil, blk)
	if err == errStop {
		return nil
	}
	return err
}

// Yield invokes a block with Ruby block argument semantics: surplus
// arguments are dropped and missing parameters are bound to nil. Procs
// invoked through an explicit `call` keep the strict arity check instead.
func (p *Proc) Yield(args []Value) (Value, error) {
	if p.arity >= 0 && len(args) != p.arity {
		adjusted := make([]Value, p.arity)
		for i := range adjusted {
			if i < len(args) {
				adjusted[i] = args[i]
			} else {
				adjusted[i] = NilValue
			}
		}
		args = adjusted
	}
	return p.fn(args)
}

// yieldBlock invokes the block with Yield semantics. Used only by the derived
// operations; a BreakException it returns passes up to the concrete each
// implementation, which recovers it.
func yieldBlock(block *Proc, args ...Value) (Value, error) {
	return block.Yield(args)
}

// blockArg returns the predicate for operations accepting either a trailing
// block or an explicit Proc argument.
func blockArg(method string, args []Value, block *Proc) (*Proc, []Value, error) {
	if block != nil {
		return block, args, nil
	}
	if len(args) > 0 {
		if p, ok := args[0].(*Proc); ok {
			return p, args[1:], nil
		}
	}
	return nil, args, nil
}

func mergeTables(dst, src MethodTable) {
	for name, fn := range src {
		if _, ok := dst[name]; !ok {
			dst[name] = fn
		}
	}
}

// enumerableTable returns a fresh copy of the derived-operation table. Each
// collection variant merges it into its own table in init; the variant's own
// entries win so Array keeps its direct count, to_a, etc.
func enumerableTable() MethodTable {
	return MethodTable{
		"all?":            enumAll,
		"any?":            enumAny,
		"count":           enumCount,
		"drop":            enumDrop,
		"drop_while":      enumDropWhile,
		"each_with_index": enumEachWithIndex,
		"find":            enumFind,
		"detect":          enumFind,
		"find_index":      enumFindIndex,
		"map":             enumMap,
		"collect":         enumMap,
		"max":             enumMax,
		"max_by":          enumMaxBy,
		"min":             enumMin,
		"min_by":          enumMinBy,
		"minmax":          enumMinmax,
		"minmax_by":       enumMinmaxBy,
		"reject":          enumReject,
		"select":          enumSelect,
		"filter":          enumSelect,
		"to_a":            enumToA,
		"to_h":            enumToH,
	}
}

func enumAll(recv Value, args []Value, block *Proc) (Value, error) {
	pred, _, err := blockArg("all?", args, block)
	if err != nil {
		return nil, err
	}
	result := True
	err = Each(recv, func(el Value) error {
		ok := el.Truthy()
		if pred != nil {
			r, err := yieldBlock(pred, el)
			if err != nil {
				return err
			}
			ok = r.Truthy()
		}
		if !ok {
			result = False
			return errStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func enumAny(recv Value, args []Value, block *Proc) (Value, error) {
	pred, _, err := blockArg("any?", args, block)
	if err != nil {
		return nil, err
	}
	result := False
	err = Each(recv, func(el Value) error {
		ok := el.Truthy()
		if pred != nil {
			r, err := yieldBlock(pred, el)
			if err != nil {
				return err
			}
			ok = r.Truthy()
		}
		if ok {
			result = True
			return errStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func enumCount(recv Value, args []Value, block *Proc) (Value, error) {
	n := 0
	err := Each(recv, func(el Value) error {
		switch {
		case block != nil:
			r, err := yieldBlock(block, el)
			if err != nil {
				return err
			}
			if r.Truthy() {
				n++
			}
		case len(args) > 0:
			if Eq(el, args[0]) {
				n++
			}
		default:
			n++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewNumber(float64(n)), nil
}

func enumDrop(recv Value, args []Value, block *Proc) (Value, error) {
	if len(args) != 1 {
		return nil, &ArgumentCountError{Method: "drop", Expected: 1, Got: len(args)}
	}
	num, err := asNumber(args[0], "drop")
	if err != nil {
		return nil, err
	}
	skip := int(num.F)
	var out []Value
	err = Each(recv, func(el Value) error {
		if skip > 0 {
			skip--
			return nil
		}
		out = append(out, el)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewArray(out), nil
}

func enumDropWhile(recv Value, args []Value, block *Proc) (Value, error) {
	pred, _, err := blockArg("drop_while", args, block)
	if err != nil {
		return nil, err
	}
	if pred == nil {
		return newEnumerator(recv, "drop_while", nil), nil
	}
	dropping := true
	var out []Value
	err = Each(recv, func(el Value) error {
		if dropping {
			r, err := yieldBlock(pred, el)
			if err != nil {
				return err
			}
			if r.Truthy() {
				return nil
			}
			dropping = false
		}
		out = append(out, el)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewArray(out), nil
}

func enumEachWithIndex(recv Value, args []Value, block *Proc) (Value, error) {
	offset := 0
	if len(args) > 0 {
		num, err := asNumber(args[0], "each_with_index")
		if err != nil {
			return nil, err
		}
		offset = int(num.F)
	}
	if block == nil {
		return newEnumerator(recv, "each_with_index", args), nil
	}
	i := offset
	err := Each(recv, func(el Value) error {
		_, err := yieldBlock(block, el, NewNumber(float64(i)))
		i++
		return err
	})
	if err != nil {
		if brk, ok := err.(*BreakException); ok {
			return brk.Value, nil
		}
		return nil, err
	}
	return recv, nil
}

func enumFind(recv Value, args []Value, block *Proc) (Value, error) {
	pred, rest, err := blockArg("find", args, block)
	if err != nil {
		return nil, err
	}
	if pred == nil {
		return newEnumerator(recv, "find", nil), nil
	}
	var result Value = NilValue
	if len(rest) > 0 {
		result = rest[0]
	}
	err = Each(recv, func(el Value) error {
		r, err := yieldBlock(pred, el)
		if err != nil {
			return err
		}
		if r.Truthy() {
			result = el
			return errStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func enumFindIndex(recv Value, args []Value, block *Proc) (Value, error) {
	pred, rest, err := blockArg("find_index", args, block)
	if err != nil {
		return nil, err
	}
	var result Value = NilValue
	i := 0
	err = Each(recv, func(el Value) error {
		match := false
		if pred != nil {
			r, err := yieldBlock(pred, el)
			if err != nil {
				return err
			}
			match = r.Truthy()
		} else if len(rest) > 0 {
			match = Eq(el, rest[0])
		}
		if match {
			result = NewNumber(float64(i))
			return errStop
		}
		i++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func enumMap(recv Value, args []Value, block *Proc) (Value, error) {
	fn, _, err := blockArg("map", args, block)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return newEnumerator(recv, "map", nil), nil
	}
	var out []Value
	err = Each(recv, func(el Value) error {
		r, err := yieldBlock(fn, el)
		if err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewArray(out), nil
}

// cmpBy compares two elements either with the supplied two-argument block or
// with the natural ordering.
func cmpBy(block *Proc, a, b Value) (int, error) {
	if block == nil {
		return Cmp(a, b)
	}
	r, err := yieldBlock(block, a, b)
	if err != nil {
		return 0, err
	}
	num, ok := r.(*Number)
	if !ok {
		return 0, &TypeError{Expected: "Number", Got: r.TypeName(), Context: "comparison block"}
	}
	return int(num.F), nil
}

func enumExtreme(recv Value, args []Value, block *Proc, want int, method string) (Value, error) {
	n := -1
	if len(args) > 0 {
		num, err := asNumber(args[0], method)
		if err != nil {
			return nil, err
		}
		n = int(num.F)
	}
	var all []Value
	err := Each(recv, func(el Value) error {
		all = append(all, el)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sorted, err := sortValues(all, func(a, b Value) (int, error) { return cmpBy(block, a, b) })
	if err != nil {
		return nil, err
	}
	if want > 0 {
		reverseValues(sorted)
	}
	if n < 0 {
		if len(sorted) == 0 {
			return NilValue, nil
		}
		return sorted[0], nil
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return NewArray(sorted[:n]), nil
}

func enumMax(recv Value, args []Value, block *Proc) (Value, error) {
	return enumExtreme(recv, args, block, 1, "max")
}

func enumMin(recv Value, args []Value, block *Proc) (Value, error) {
	return enumExtreme(recv, args, block, -1, "min")
}

func enumExtremeBy(recv Value, block *Proc, want int, method string) (Value, error) {
	if block == nil {
		return newEnumerator(recv, method, nil), nil
	}
	var best Value = NilValue
	var bestKey Value
	err := Each(recv, func(el Value) error {
		key, err := yieldBlock(block, el)
		if err != nil {
			return err
		}
		if bestKey == nil {
			best, bestKey = el, key
			return nil
		}
		c, err := Cmp(key, bestKey)
		if err != nil {
			return err
		}
		if c*want > 0 {
			best, bestKey = el, key
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return best, nil
}

func enumMaxBy(recv Value, args []Value, block *Proc) (Value, error) {
	return enumExtremeBy(recv, block, 1, "max_by")
}

func enumMinBy(recv Value, args []Value, block *Proc) (Value, error) {
	return enumExtremeBy(recv, block, -1, "min_by")
}

func enumMinmax(recv Value, args []Value, block *Proc) (Value, error) {
	min, err := enumExtreme(recv, nil, block, -1, "minmax")
	if err != nil {
		return nil, err
	}
	max, err := enumExtreme(recv, nil, block, 1, "minmax")
	if err != nil {
		return nil, err
	}
	return NewArray([]Value{min, max}), nil
}

func enumMinmaxBy(recv Value, args []Value, block *Proc) (Value, error) {
	if block == nil {
		return newEnumerator(recv, "minmax_by", nil), nil
	}
	min, err := enumExtremeBy(recv, block, -1, "minmax_by")
	if err != nil {
		return nil, err
	}
	max, err := enumExtremeBy(recv, block, 1, "minmax_by")
	if err != nil {
		return nil, err
	}
	return NewArray([]Value{min, max}), nil
}

func enumReject(recv Value, args []Value, block *Proc) (Value, error) {
	return enumFilter(recv, args, block, false, "reject")
}

func enumSelect(recv Value, args []Value, block *Proc) (Value, error) {
	return enumFilter(recv, args, block, true, "select")
}

func enumFilter(recv Value, args []Value, block *Proc, keep bool, method string) (Value, error) {
	pred, _, err := blockArg(method, args, block)
	if err != nil {
		return nil, err
	}
	if pred == nil {
		return newEnumerator(recv, method, nil), nil
	}
	var out []Value
	err = Each(recv, func(el Value) error {
		r, err := yieldBlock(pred, el)
		if err != nil {
			return err
		}
		if r.Truthy() == keep {
			out = append(out, el)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewArray(out), nil
}

func enumToA(recv Value, args []Value, block *Proc) (Value, error) {
	var out []Value
	err := Each(recv, func(el Value) error {
		out = append(out, el)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewArray(out), nil
}

func enumToH(recv Value, args []Value, block *Proc) (Value, error) {
	h := NewHash()
	err := Each(recv, func(el Value) error {
		if block != nil {
			r, err := yieldBlock(block, el)
			if err != nil {
				return err
			}
			el = r
		}
		pair, ok := el.(*Array)
		if !ok || len(pair.Items) != 2 {
			return &TypeError{Expected: "2-element Array", Got: el.TypeName(), Context: "to_h"}
		}
		h.Set(pair.Items[0], pair.Items[1])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// sortValues is a stable merge sort over a user comparison that can fail.
// sort.SliceStable cannot carry the error out, so this is hand-rolled.
func sortValues(items []Value, cmp func(a, b Value) (int, error)) ([]Value, error) {
	out := append([]Value(nil), items...)
	if len(out) < 2 {
		return out, nil
	}
	mid := len(out) / 2
	left, err := sortValues(out[:mid], cmp)
	if err != nil {
		return nil, err
	}
	right, err := sortValues(out[mid:], cmp)
	if err != nil {
		return nil, err
	}
	merged := make([]Value, 0, len(out))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		c, err := cmp(left[i], right[j])
		if err != nil {
			return nil, err
		}
		if c <= 0 {
			merged = append(merged, left[i])
			i++
		} else {
			merged = append(merged, right[j])
			j++
		}
	}
	merged = append(merged, left[i:]...)
	merged = append(merged, right[j:]...)
	return merged, nil
}

func reverseValues(items []Value) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
