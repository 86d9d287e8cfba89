package value

import "sync"

// Symbol is an interned identifier. Two symbols built from equal strings are
// the same *Symbol pointer (spec.md §3 "Symbols are interned", §8 property 1).
type Symbol struct {
	name string
}

var (
	symbolTableMu sync.Mutex
	symbolTable   = make(map[string]*Symbol)
)

// Intern returns the canonical *Symbol for name, creating it on first use.
// Single-threaded evaluation needs no coordination (spec.md §5); the mutex
// here is cheap insurance so parsing (which interns identifiers as it scans)
// and concurrent template construction on different goroutines never race
// on the shared table, matching §5's note that multithreaded interning
// "must coordinate insertions".
func Intern(name string) *Symbol {
	symbolTableMu.Lock()
	defer symbolTableMu.Unlock()
	if s, ok := symbolTable[name]; ok {
		return s
	}
	s := &Symbol{name: name}
	symbolTable[name] = s
	return s
}

func (s *Symbol) Kind() Kind       { return KindSymbol }
func (s *Symbol) TypeName() string { return "Symbol" }
func (s *Symbol) ToString() string { return s.name }
func (s *Symbol) Inspect() string  { return ":" + s.name }
func (s *Symbol) Truthy() bool     { return true }
func (s *Symbol) Name() string     { return s.name }

func (s *Symbol) Eq(o Value) bool {
	os, ok := o.(*Symbol)
	return ok && os == s
}

func (s *Symbol) Cmp(o Value) (int, error) {
	os, ok := o.(*Symbol)
	if !ok {
		return 0, &UnorderableTypeError{Op: "<=>", Left: "Symbol", Right: o.TypeName()}
	}
	switch {
	case s.name < os.name:
		return -1, nil
	case s.name > os.name:
		return 1, nil
	default:
		return 0, nil
	}
}

func (s *Symbol) HashKey() string { return "sym:" + s.name }

var symbolMethods MethodTable

func init() {
	symbolMethods = MethodTable{
		"to_s": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewString(recv.(*Symbol).name), nil
		},
		"to_sym": func(recv Value, args []Value, block *Proc) (Value, error) {
			return recv, nil
		},
		"to_proc": func(recv Value, args []Value, block *Proc) (Value, error) {
			name := recv.(*Symbol).name
			return NewNativeProc(1, func(callArgs []Value) (Value, error) {
				if len(callArgs) == 0 {
					return nil, &ArgumentCountError{Method: "to_proc", Expected: 1, Got: 0}
				}
				fn := Lookup(callArgs[0], name)
				if fn == nil {
					return nil, &NoSuchMethodError{Typ: callArgs[0].TypeName(), Method: name}
				}
				return fn(callArgs[0], callArgs[1:], nil)
			}), nil
		},
		"length": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(len([]rune(recv.(*Symbol).name)))), nil
		},
		"size": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(len([]rune(recv.(*Symbol).name)))), nil
		},
		"empty?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return BoolValue(recv.(*Symbol).name == ""), nil
		},
	}
}
