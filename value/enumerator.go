package value

// Enumerator is the value returned when an Enumerable method is called
// without its block: it captures the receiver, the pending method, and any
// arguments already supplied, so that chaining (`a.each.with_index.to_a`)
// works. Its each concatenates the frozen arguments with the late block and
// re-dispatches (spec.md §4.2).
type Enumerator struct {
	Source Value
	Method string
	Args   []Value
}

func newEnumerator(src Value, method string, args []Value) Value {
	return &Enumerator{Source: src, Method: method, Args: append([]Value(nil), args...)}
}

func (e *Enumerator) Kind() Kind       { return KindEnumerator }
func (e *Enumerator) TypeName() string { return "Enumerator" }
func (e *Enumerator) ToString() string { return e.Inspect() }

func (e *Enumerator) Inspect() string {
	return "#<Enumerator: " + e.Source.Inspect() + ":" + e.Method + ">"
}

func (e *Enumerator) Truthy() bool    { return true }
func (e *Enumerator) Eq(o Value) bool { return e == o }

var enumeratorMethods MethodTable

func init() {
	enumeratorMethods = MethodTable{
		"each": func(recv Value, args []Value, block *Proc) (Value, error) {
			e := recv.(*Enumerator)
			fn := Lookup(e.Source, e.Method)
			if fn == nil {
				return nil, &NoSuchMethodError{Typ: e.Source.TypeName(), Method: e.Method}
			}
			callArgs := append(append([]Value(nil), e.Args...), args...)
			return fn(e.Source, callArgs, block)
		},
		"with_index": func(recv Value, args []Value, block *Proc) (Value, error) {
			offset := 0
			if len(args) > 0 {
				num, err := asNumber(args[0], "with_index")
				if err != nil {
					return nil, err
				}
				offset = int(num.F)
			}
			if block == nil {
				return newEnumerator(recv, "with_index", args), nil
			}
			i := offset
			err := Each(recv, func(el Value) error {
				_, err := block.Yield([]Value{el, NewNumber(float64(i))})
				i++
				return err
			})
			if err != nil {
				return nil, err
			}
			return recv.(*Enumerator).Source, nil
		},
		"with_object": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "with_object", Expected: 1, Got: len(args)}
			}
			obj := args[0]
			if block == nil {
				return newEnumerator(recv, "with_object", args), nil
			}
			err := Each(recv, func(el Value) error {
				_, err := block.Yield([]Value{el, obj})
				return err
			})
			if err != nil {
				return nil, err
			}
			return obj, nil
		},
	}
	mergeTables(enumeratorMethods, enumerableTable())
}
