package configs

import "iter"

// All decodes the value at path from every file that sets it, in lookup order.
func All[T any](loader Loader, path string) iter.Seq[T] {
	return func(yield func(T) bool) {
		for value, err := range loader.IterCueValues(path) {
			if err != nil {
				panic(err)
			}
			var v T
			if err := value.Decode(&v); err != nil {
				panic(err)
			}
			if !yield(v) {
				return
			}
		}
	}
}

// AllOf is All at T's path.
func AllOf[T Configurable](loader Loader) iter.Seq[T] {
	var zero T
	return All[T](loader, zero.ConfigPath())
}
