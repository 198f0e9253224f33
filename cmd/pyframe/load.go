package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reusee/pyframe/codefile"
	"github.com/reusee/pyframe/framepy"
	"github.com/reusee/pyframe/framevm"
)

// loadCode decodes .yaml and .yml files as code files and compiles anything else as source.
func loadCode(path string) (*framevm.Code, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		code, err := codefile.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return code, nil
	}
	return framepy.Compile(path, f)
}
