package model

// Optional is a value that may be absent. The zero value is absent.
//
// Joint transforms use it to tell "not computed yet" apart from a computed
// zero, and vertices use it for attributes the source did not provide.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// OrElse returns the value if present, def otherwise.
func (o Optional[T]) OrElse(def T) T {
	if o.Valid {
		return o.Value
	}
	return def
}

// Set stores v and marks the Optional present.
func (o *Optional[T]) Set(v T) {
	o.Value = v
	o.Valid = true
}

// Clear marks the Optional absent.
func (o *Optional[T]) Clear() {
	var zero T
	o.Value = zero
	o.Valid = false
}
