// Package optional provides a present-or-absent wrapper for values that
// have no usable zero sentinel, such as queue family indices where index
// 0 is a perfectly valid assignment.
package optional

// Optional holds a value of type T that may be absent. The zero value
// is absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Of returns an Optional holding v.
func Of[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Set stores v.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

// HasValue reports whether a value has been stored.
func (o Optional[T]) HasValue() bool {
	return o.set
}

// Get returns the stored value. It panics when no value has been set;
// callers must check HasValue first.
func (o Optional[T]) Get() T {
	if !o.set {
		panic("optional: Get on absent value")
	}
	return o.value
}
