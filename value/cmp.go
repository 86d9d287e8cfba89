package value

// Eq implements spec.md §4.1: equality is same-variant structural equality;
// cross-variant comparisons are always false. HtmlSafeString is a String in
// every method (§3), so a Str compares equal regardless of its Safe flag.
func Eq(a, b Value) bool {
	ea, ok := a.(Equaler)
	if !ok {
		return false
	}
	return ea.Eq(b)
}

// Cmp implements spec.md §4.1 `cmp`: fails with UnorderableTypeError when
// the variants mismatch or the variant has no natural order (Hash, Regexp,
// UserObject, Nil).
func Cmp(a, b Value) (int, error) {
	ca, ok := a.(Comparer)
	if !ok {
		return 0, &UnorderableTypeError{Op: "<=>", Left: a.TypeName(), Right: b.TypeName()}
	}
	return ca.Cmp(b)
}

// HashKey returns a string consistent with Eq, suitable as a Go map key for
// implementing Hash (spec.md §8 property 3: Eq(a,b) implies Hash(a)==Hash(b)).
func HashKey(v Value) string {
	if h, ok := v.(Hasher); ok {
		return h.HashKey()
	}
	// UserObjects default to identity equality (spec.md §3, §9 Open
	// Questions): the pointer itself is the key.
	if o, ok := v.(*Object); ok {
		return o.identityKey()
	}
	return v.TypeName() + ":" + v.Inspect()
}
