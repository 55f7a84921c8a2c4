package stdx

// Zero returns the zero value for the type T. Handy in generic code where
// a typed nil or empty value has to be returned alongside an error.
func Zero[T any]() T {
	var zero T
	return zero
}
