package configs

import (
	"errors"
	"fmt"
)

// First decodes the value at path from the first file that sets it. An unset path gives the
// zero T. Any other failure panics: config files are read once at startup and a bad one should
// stop the program.
func First[T any](loader Loader, path string) (value T) {
	err := loader.AssignFirst(path, &value)
	switch {
	case err == nil:
		return value
	case errors.Is(err, ErrValueNotFound):
		var zero T
		return zero
	}
	panic(fmt.Errorf("config %s: %w", path, err))
}
