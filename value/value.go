// Package value implements the tagged runtime value hierarchy shared by the
// expression evaluator and the template renderer: numbers, strings, symbols,
// arrays, hashes, ranges, regexps, times, procs and user objects, plus the
// method-table dispatch mechanism they share.
package value

import "fmt"

// Kind tags the variant a Value holds. CallSiteCache keys its cached thunk on
// it; method-table selection (tableFor in methods.go), equality and ordering
// use Go type switches and assertions.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindSymbol
	KindArray
	KindHash
	KindRange
	KindRegexp
	KindMatchData
	KindTime
	KindProc
	KindEnumerator
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindArray:
		return "array"
	case KindHash:
		return "hash"
	case KindRange:
		return "range"
	case KindRegexp:
		return "regexp"
	case KindMatchData:
		return "matchdata"
	case KindTime:
		return "time"
	case KindProc:
		return "proc"
	case KindEnumerator:
		return "enumerator"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is implemented by every runtime variant. Implementations are kept
// cheap to copy: scalars are plain structs, collections hold a pointer to
// their backing storage so sharing an Array or Hash never deep-copies it.
type Value interface {
	// Kind reports which variant this value is.
	Kind() Kind
	// TypeName is the Ruby-style name surfaced to error messages and to the
	// `class` method ("String", "Array", "NilClass", ...).
	TypeName() string
	// ToString is the display form used by interpolation and `to_s`.
	ToString() string
	// Inspect is the debug form used by `inspect` and error messages: it
	// quotes strings, shows symbols as `:name`, and is parseable back into
	// the same value by the expression parser for the common literal kinds
	// (see property 6 in spec.md §8).
	Inspect() string
	// Truthy implements Ruby truthiness: Nil and FalseBool are falsy, and so
	// is the empty String (Str overrides it); everything else is truthy.
	Truthy() bool
}

// Hasher is implemented by values usable as Hash keys. Hash consistency with
// Eq is required: a.Eq(b) implies a.HashKey() == b.HashKey().
type Hasher interface {
	HashKey() string
}

// Comparer is implemented by values with a natural ordering. cmp.go's Cmp
// falls back to UnorderableType for values that don't implement it.
type Comparer interface {
	Cmp(other Value) (int, error)
}

// Equaler is implemented by every concrete Value below; Eq in cmp.go uses it.
type Equaler interface {
	Eq(other Value) bool
}

// singletons -----------------------------------------------------------

// NilValue is the single Nil instance. Every absent lookup (unbound
// variable, missing attribute, failed safe-navigation) returns this value.
var NilValue Value = Nil{}

// True and False are the two Bool singletons.
var (
	True  Value = Bool(true)
	False Value = Bool(false)
)

// BoolValue returns the shared True or False singleton for b, preserving the
// "one TrueBool, one FalseBool" invariant from spec.md §3.
func BoolValue(b bool) Value {
	if b {
		return True
	}
	return False
}

// Nil is the Value variant for the absence of a value.
type Nil struct{}

func (Nil) Kind() Kind        { return KindNil }
func (Nil) TypeName() string  { return "NilClass" }
func (Nil) ToString() string  { return "" }
func (Nil) Inspect() string   { return "nil" }
func (Nil) Truthy() bool      { return false }
func (Nil) Eq(o Value) bool   { _, ok := o.(Nil); return ok }
func (Nil) HashKey() string   { return "nil:" }

// Bool is the Value variant for true/false.
type Bool bool

func (b Bool) Kind() Kind       { return KindBool }
func (b Bool) TypeName() string { return "Boolean" }
func (b Bool) ToString() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Inspect() string { return b.ToString() }
func (b Bool) Truthy() bool    { return bool(b) }
func (b Bool) Eq(o Value) bool {
	ob, ok := o.(Bool)
	return ok && ob == b
}
func (b Bool) HashKey() string {
	if b {
		return "bool:true"
	}
	return "bool:false"
}

// TypeError reports a method or operator applied to a variant that does not
// support it, or an argument that does not coerce to the expected variant.
type TypeError struct {
	Expected string
	Got      string
	Context  string
}

func (e *TypeError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("TypeError: %s: expected %s, got %s", e.Context, e.Expected, e.Got)
	}
	return fmt.Sprintf("TypeError: expected %s, got %s", e.Expected, e.Got)
}

// UnorderableTypeError reports a failed Cmp between incomparable variants.
type UnorderableTypeError struct {
	Op       string
	Left     string
	Right    string
}

func (e *UnorderableTypeError) Error() string {
	return fmt.Sprintf("UnorderableType: comparison of %s %s %s failed", e.Left, e.Op, e.Right)
}

// UnsupportedOperandError reports an operator with no overload on the given
// variant (spec.md §4.1 "Any not overridden fails with UnsupportedOperand").
type UnsupportedOperandError struct {
	Op  string
	Typ string
}

func (e *UnsupportedOperandError) Error() string {
	return fmt.Sprintf("UnsupportedOperand: %s does not support %s", e.Typ, e.Op)
}

// NoSuchMethodError reports a missing method on method_lookup.
type NoSuchMethodError struct {
	Typ    string
	Method string
}

func (e *NoSuchMethodError) Error() string {
	return fmt.Sprintf("NoSuchMethod: undefined method '%s' for %s", e.Method, e.Typ)
}

// ArgumentError reports a method called with invalid argument content.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string { return "ArgumentError: " + e.Message }

// ArgumentCountError reports a method or Proc call with the wrong arity.
type ArgumentCountError struct {
	Method   string
	Expected int
	Got      int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("ArgumentCountError: %s expects %d argument(s), got %d", e.Method, e.Expected, e.Got)
}

// IndexError reports an out-of-bounds access where the host method must
// raise rather than silently return nil.
type IndexError struct {
	Message string
}

func (e *IndexError) Error() string { return "IndexError: " + e.Message }

// KeyError reports Hash#fetch with a missing key and no default.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string { return fmt.Sprintf("KeyError: key not found: %s", e.Key) }

// NoConstantError reports a missing constant lookup.
type NoConstantError struct {
	Name string
}

func (e *NoConstantError) Error() string { return fmt.Sprintf("NoConstantError: uninitialized constant %s", e.Name) }

// BreakException is the internal flow-control signal used to short-circuit
// Enumerable iteration (spec.md §4 "Failure model per component"). It must
// never escape an Enumerable implementation: a block returns it to stop
// early, and the each-style methods (Array, Hash, Range, String,
// Number#times/upto, each_with_index) recover it and return its Value.
type BreakException struct {
	Value Value
}

func (e *BreakException) Error() string { return "break" }
