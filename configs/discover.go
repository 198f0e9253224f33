package configs

import (
	"os"
	"path/filepath"
)

// Discover returns the existing files named filenames under dirs, in dirs order.
// Earlier paths take precedence in First.
func Discover(dirs []string, filenames []string) (paths []string) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, filename := range filenames {
			path := filepath.Join(dir, filename)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				paths = append(paths, path)
			}
		}
	}
	return
}

// DefaultDirs lists the working directory, the user config dir and /etc.
func DefaultDirs() (dirs []string) {
	if dir, err := os.Getwd(); err == nil {
		dirs = append(dirs, dir)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, "/etc")
	return
}
