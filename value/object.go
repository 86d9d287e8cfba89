package value

import "fmt"

// Object is the user-extension variant: an opaque payload carrying its own
// method table, registered by embedding code (spec.md §6 "Custom value type
// registration"). Equality and hashing default to identity; a user type that
// wants value semantics supplies EqFn/HashFn consistently.
type Object struct {
	Name    string
	Payload interface{}
	Methods MethodTable
	// Constants supports `Name::Inner` navigation on namespace-like objects.
	Constants map[string]Value

	// Optional overrides. Nil falls back to the identity defaults.
	ToStringFn func(o *Object) string
	InspectFn  func(o *Object) string
	EqFn       func(o *Object, other Value) bool
	HashFn     func(o *Object) string
}

// NewObject builds a user object with the given type name and method table.
func NewObject(name string, methods MethodTable) *Object {
	return &Object{Name: name, Methods: methods}
}

func (o *Object) Kind() Kind       { return KindObject }
func (o *Object) TypeName() string { return o.Name }

func (o *Object) ToString() string {
	if o.ToStringFn != nil {
		return o.ToStringFn(o)
	}
	return "#<" + o.Name + ">"
}

func (o *Object) Inspect() string {
	if o.InspectFn != nil {
		return o.InspectFn(o)
	}
	return o.ToString()
}

func (o *Object) Truthy() bool { return true }

func (o *Object) Eq(other Value) bool {
	if o.EqFn != nil {
		return o.EqFn(o, other)
	}
	return o == other
}

func (o *Object) identityKey() string {
	if o.HashFn != nil {
		return o.HashFn(o)
	}
	return fmt.Sprintf("obj:%p", o)
}

// GetConstant resolves `::` navigation on this object.
func (o *Object) GetConstant(name string) (Value, error) {
	if v, ok := o.Constants[name]; ok {
		return v, nil
	}
	return nil, &NoConstantError{Name: o.Name + "::" + name}
}
