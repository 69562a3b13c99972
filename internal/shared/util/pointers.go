package util

// SafeDeref returns the zero value of T when the pointer is nil.
func SafeDeref[T any](value *T) T {
	if value == nil {
		var zero T
		return zero
	}
	return *value
}

// Ptr returns a pointer to the given value.
func Ptr[T any](value T) *T {
	return &value
}
