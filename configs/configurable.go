package configs

// Configurable is a value type read from a fixed config path.
type Configurable interface {
	ConfigPath() string
}

// Of returns the first value at T's path, or the zero T.
func Of[T Configurable](loader Loader) T {
	var zero T
	return First[T](loader, zero.ConfigPath())
}
