package value

// MethodFunc is the shape every built-in method thunk has: it receives the
// receiver, the already-evaluated argument list, and an optional block
// (nil if the call had none), and returns a Value or an error.
type MethodFunc func(recv Value, args []Value, block *Proc) (Value, error)

// MethodTable is an immutable, process-wide, per-variant map from method
// name to dispatch thunk (spec.md §4.1 "Method tables are immutable
// per-variant maps"). Each built-in file (array.go, hash.go, ...) builds one
// of these in an init() or package-level var and never mutates it afterward.
type MethodTable map[string]MethodFunc

// objectMethods is the shared base table every variant falls back to when
// its own table has no entry for the requested name (spec.md §4.1 "falling
// back through a shared Object base table").
var objectMethods MethodTable

func init() {
	objectMethods = MethodTable{
		"class": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(recv.TypeName()), nil
		},
		"to_s": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(recv.ToString()), nil
		},
		"inspect": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(recv.Inspect()), nil
		},
		"nil?": func(recv Value, args []Value, block *Proc) (Value, error) {
			_, ok := recv.(Nil)
			return BoolValue(ok), nil
		},
		"==": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "==", Expected: 1, Got: len(args)}
			}
			return BoolValue(Eq(recv, args[0])), nil
		},
		"!=": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "!=", Expected: 1, Got: len(args)}
			}
			return BoolValue(!Eq(recv, args[0])), nil
		},
		"freeze": func(recv Value, args []Value, block *Proc) (Value, error) {
			return recv, nil
		},
		"tap": func(recv Value, args []Value, block *Proc) (Value, error) {
			if block != nil {
				if _, err := block.Call([]Value{recv}); err != nil {
					return nil, err
				}
			}
			return recv, nil
		},
	}
}

// tableFor returns the variant-specific method table for v, or nil if the
// variant has none of its own (it still falls back to objectMethods).
func tableFor(v Value) MethodTable {
	switch v.(type) {
	case Nil:
		return nilMethods
	case Bool:
		return boolMethods
	case *Number:
		return numberMethods
	case *Str:
		return stringMethods
	case *Symbol:
		return symbolMethods
	case *Array:
		return arrayMethods
	case *Hash:
		return hashMethods
	case *Range:
		return rangeMethods
	case *Regexp:
		return regexpMethods
	case *MatchData:
		return matchDataMethods
	case *Time:
		return timeMethods
	case *Proc:
		return procMethods
	case *Enumerator:
		return enumeratorMethods
	case *Object:
		return objectMethods // overridden per-instance in Object.Lookup
	default:
		return nil
	}
}

// Lookup implements method_lookup from spec.md §4.1: consult the variant's
// table, then fall back to the shared Object table.
func Lookup(v Value, name string) MethodFunc {
	if o, ok := v.(*Object); ok {
		if fn, ok := o.Methods[name]; ok {
			return fn
		}
		if fn, ok := objectMethods[name]; ok {
			return fn
		}
		return nil
	}
	if table := tableFor(v); table != nil {
		if fn, ok := table[name]; ok {
			return fn
		}
	}
	if fn, ok := objectMethods[name]; ok {
		return fn
	}
	return nil
}

// CallSiteCache is the single-slot per-call-site method cache described in
// spec.md §4.5/§5: a MemberFuncCall AST node embeds one of these and reuses
// the cached thunk when the receiver's Kind matches the last call. Safe to
// read/write without coordination under the single-threaded evaluation
// model §5 assumes; an implementation sharing ASTs across goroutines must
// either make this atomic or stop using it (documented, not implemented,
// since this module has no concurrent evaluator).
type CallSiteCache struct {
	lastKind Kind
	lastFn   MethodFunc
	name     string
}

// Lookup resolves name on v, reusing the cached thunk when v.Kind() matches
// the kind cached from the previous call at this site.
func (c *CallSiteCache) Lookup(v Value, name string) MethodFunc {
	if c.name == name && c.lastFn != nil && c.lastKind == v.Kind() {
		return c.lastFn
	}
	fn := Lookup(v, name)
	c.lastKind = v.Kind()
	c.lastFn = fn
	c.name = name
	return fn
}

var nilMethods = MethodTable{
	"to_a": func(recv Value, args []Value, block *Proc) (Value, error) {
		return NewArray(nil), nil
	},
	"to_s": func(recv Value, args []Value, block *Proc) (Value, error) {
		return NewString(""), nil
	},
	"to_i": func(recv Value, args []Value, block *Proc) (Value, error) {
		return NewNumber(0), nil
	},
}

var boolMethods = MethodTable{
	"&": func(recv Value, args []Value, block *Proc) (Value, error) {
		if len(args) != 1 {
			return nil, &ArgumentCountError{Method: "&", Expected: 1, Got: len(args)}
		}
		return BoolValue(bool(recv.(Bool)) && args[0].Truthy()), nil
	},
	"|": func(recv Value, args []Value, block *Proc) (Value, error) {
		if len(args) != 1 {
			return nil, &ArgumentCountError{Method: "|", Expected: 1, Got: len(args)}
		}
		return BoolValue(bool(recv.(Bool)) || args[0].Truthy()), nil
	},
	"!": func(recv Value, args []Value, block *Proc) (Value, error) {
		return BoolValue(!bool(recv.(Bool))), nil
	},
}
