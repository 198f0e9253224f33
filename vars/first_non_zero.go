package vars

// FirstNonZero picks the first set value, so callers list sources from highest precedence down.
func FirstNonZero[T comparable](values ...T) T {
	var zero T
	for _, value := range values {
		if value != zero {
			return value
		}
	}
	return zero
}
