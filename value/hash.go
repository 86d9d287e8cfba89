package value

import (
	"sort"
	"strings"
)

type hashEntry struct {
	Key Value
	Val Value
}

// Hash is an insertion-ordered mapping. Equality ignores order, iteration
// follows insertion order, and a later write to an existing key keeps the
// key's original position (spec.md §3, §4.5 HashLiteral).
type Hash struct {
	entries []hashEntry
	index   map[string]int
	// Default, if non-nil, is returned by [] on a missing key. fetch ignores
	// it: a missing key with no second argument still raises KeyError.
	Default Value
}

// NewHash returns an empty Hash.
func NewHash() *Hash {
	return &Hash{index: make(map[string]int)}
}

func (h *Hash) Kind() Kind       { return KindHash }
func (h *Hash) TypeName() string { return "Hash" }

func (h *Hash) ToString() string { return h.Inspect() }

func (h *Hash) Inspect() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, e := range h.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Key.Inspect())
		b.WriteString(" => ")
		b.WriteString(e.Val.Inspect())
	}
	b.WriteByte('}')
	return b.String()
}

func (h *Hash) Truthy() bool { return true }

// Eq is order-independent: same key set, equal values.
func (h *Hash) Eq(o Value) bool {
	oh, ok := o.(*Hash)
	if !ok || len(oh.entries) != len(h.entries) {
		return false
	}
	for _, e := range h.entries {
		ov, found := oh.Get(e.Key)
		if !found || !Eq(e.Val, ov) {
			return false
		}
	}
	return true
}

// HashKey is insertion-order independent, consistent with Eq.
func (h *Hash) HashKey() string {
	keys := make([]string, 0, len(h.entries))
	for _, e := range h.entries {
		keys = append(keys, HashKey(e.Key)+"=>"+HashKey(e.Val))
	}
	sort.Strings(keys)
	return "hash:" + strings.Join(keys, ",")
}

// Get returns the value for key and whether it was present. The hash default
// is not applied here; that is [] behavior.
func (h *Hash) Get(key Value) (Value, bool) {
	if i, ok := h.index[HashKey(key)]; ok {
		return h.entries[i].Val, true
	}
	return nil, false
}

// Set writes key. An existing key keeps its original position.
func (h *Hash) Set(key, val Value) {
	hk := HashKey(key)
	if i, ok := h.index[hk]; ok {
		h.entries[i].Val = val
		return
	}
	h.index[hk] = len(h.entries)
	h.entries = append(h.entries, hashEntry{Key: key, Val: val})
}

// Len reports the entry count.
func (h *Hash) Len() int { return len(h.entries) }

// Entries exposes the insertion-ordered entries for iteration by the
// renderer and tests. Callers must not mutate the slice.
func (h *Hash) Entries() []struct{ Key, Val Value } {
	out := make([]struct{ Key, Val Value }, len(h.entries))
	for i, e := range h.entries {
		out[i] = struct{ Key, Val Value }{e.Key, e.Val}
	}
	return out
}

// Dup returns a shallow copy sharing no entry storage with the receiver.
func (h *Hash) Dup() *Hash {
	out := NewHash()
	out.Default = h.Default
	for _, e := range h.entries {
		out.Set(e.Key, e.Val)
	}
	return out
}

// pairArray wraps an entry as the [k, v] array yielded to single-parameter
// blocks and produced by to_a/flatten.
func (e hashEntry) pairArray() *Array {
	return NewArray([]Value{e.Key, e.Val})
}

// yieldEntry calls a block with hash-iteration argument shape: two-parameter
// blocks get (key, value), everything else gets one [key, value] array.
func yieldEntry(block *Proc, e hashEntry) (Value, error) {
	if block.Arity() == 2 {
		return block.Yield([]Value{e.Key, e.Val})
	}
	return block.Yield([]Value{e.pairArray()})
}

var hashMethods MethodTable

func init() {
	hashMethods = MethodTable{
		"[]": func(recv Value, args []Value, block *Proc) (Value, error) {
			h := recv.(*Hash)
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "[]", Expected: 1, Got: len(args)}
			}
			if v, ok := h.Get(args[0]); ok {
				return v, nil
			}
			if h.Default != nil {
				return h.Default, nil
			}
			return NilValue, nil
		},
		"fetch": func(recv Value, args []Value, block *Proc) (Value, error) {
			h := recv.(*Hash)
			if len(args) < 1 {
				return nil, &ArgumentCountError{Method: "fetch", Expected: 1, Got: 0}
			}
			if v, ok := h.Get(args[0]); ok {
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return nil, &KeyError{Key: args[0].Inspect()}
		},
		"each": func(recv Value, args []Value, block *Proc) (Value, error) {
			h := recv.(*Hash)
			if block == nil {
				return newEnumerator(recv, "each", nil), nil
			}
			for _, e := range h.entries {
				if _, err := yieldEntry(block, e); err != nil {
					if brk, ok := err.(*BreakException); ok {
						return brk.Value, nil
					}
					return nil, err
				}
			}
			return recv, nil
		},
		"each_pair": func(recv Value, args []Value, block *Proc) (Value, error) {
			return hashMethods["each"](recv, args, block)
		},
		"each_key": func(recv Value, args []Value, block *Proc) (Value, error) {
			return hashEachPart(recv.(*Hash), block, recv, "each_key", func(e hashEntry) Value { return e.Key })
		},
		"each_value": func(recv Value, args []Value, block *Proc) (Value, error) {
			return hashEachPart(recv.(*Hash), block, recv, "each_value", func(e hashEntry) Value { return e.Val })
		},
		"empty?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(len(recv.(*Hash).entries) == 0), nil
		},
		"flatten": func(recv Value, args []Value, block *Proc) (Value, error) {
			h := recv.(*Hash)
			depth := 1
			if len(args) > 0 {
				num, err := asNumber(args[0], "flatten")
				if err != nil {
					return nil, err
				}
				depth = int(num.F)
			}
			pairs := make([]Value, 0, len(h.entries))
			for _, e := range h.entries {
				pairs = append(pairs, e.pairArray())
			}
			return NewArray(flattenItems(pairs, depth)), nil
		},
		"has_key?": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "has_key?", Expected: 1, Got: len(args)}
			}
			_, ok := recv.(*Hash).Get(args[0])
			return BoolValue(ok), nil
		},
		"key?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return hashMethods["has_key?"](recv, args, block)
		},
		"include?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return hashMethods["has_key?"](recv, args, block)
		},
		"has_value?": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "has_value?", Expected: 1, Got: len(args)}
			}
			for _, e := range recv.(*Hash).entries {
				if Eq(e.Val, args[0]) {
					return True, nil
				}
			}
			return False, nil
		},
		"invert": func(recv Value, args []Value, block *Proc) (Value, error) {
			out := NewHash()
			for _, e := range recv.(*Hash).entries {
				out.Set(e.Val, e.Key)
			}
			return out, nil
		},
		"key": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "key", Expected: 1, Got: len(args)}
			}
			for _, e := range recv.(*Hash).entries {
				if Eq(e.Val, args[0]) {
					return e.Key, nil
				}
			}
			return NilValue, nil
		},
		"keys": func(recv Value, args []Value, block *Proc) (Value, error) {
			h := recv.(*Hash)
			out := make([]Value, len(h.entries))
			for i, e := range h.entries {
				out[i] = e.Key
			}
			return NewArray(out), nil
		},
		"values": func(recv Value, args []Value, block *Proc) (Value, error) {
			h := recv.(*Hash)
			out := make([]Value, len(h.entries))
			for i, e := range h.entries {
				out[i] = e.Val
			}
			return NewArray(out), nil
		},
		"size": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(len(recv.(*Hash).entries))), nil
		},
		"length": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(len(recv.(*Hash).entries))), nil
		},
		"merge": func(recv Value, args []Value, block *Proc) (Value, error) {
			out := recv.(*Hash).Dup()
			for _, arg := range args {
				oh, ok := arg.(*Hash)
				if !ok {
					return nil, &TypeError{Expected: "Hash", Got: arg.TypeName(), Context: "merge"}
				}
				for _, e := range oh.entries {
					out.Set(e.Key, e.Val)
				}
			}
			return out, nil
		},
		"dup": func(recv Value, args []Value, block *Proc) (Value, error) {
			return recv.(*Hash).Dup(), nil
		},
		"to_a": func(recv Value, args []Value, block *Proc) (Value, error) {
			h := recv.(*Hash)
			out := make([]Value, len(h.entries))
			for i, e := range h.entries {
				out[i] = e.pairArray()
			}
			return NewArray(out), nil
		},
		"to_h": func(recv Value, args []Value, block *Proc) (Value, error) {
			if block == nil {
				return recv, nil
			}
			return enumToH(recv, args, block)
		},
	}
	mergeTables(hashMethods, enumerableTable())
}

func hashEachPart(h *Hash, block *Proc, recv Value, method string, pick func(hashEntry) Value) (Value, error) {
	if block == nil {
		return newEnumerator(recv, method, nil), nil
	}
	for _, e := range h.entries {
		if _, err := block.Yield([]Value{pick(e)}); err != nil {
			if brk, ok := err.(*BreakException); ok {
				return brk.Value, nil
			}
			return nil, err
		}
	}
	return recv, nil
}
