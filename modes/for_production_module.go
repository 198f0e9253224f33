package modes

import (
	"os"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/pyframe/configs"
	"github.com/reusee/pyframe/frameconfigs"
)

type ModuleForProduction struct {
	dscope.Module
}

// ForProduction reads config files from the host. PYFRAME_CONFIG_DIR is searched before the
// default directories.
func ForProduction() ModuleForProduction {
	return ModuleForProduction{}
}

const configDirEnv = "PYFRAME_CONFIG_DIR"

func (ModuleForProduction) T() *testing.T {
	return nil
}

func (ModuleForProduction) Mode() Mode {
	return ModeProduction
}

func (ModuleForProduction) ConfigDirs() frameconfigs.ConfigDirs {
	dirs := configs.DefaultDirs()
	if dir := os.Getenv(configDirEnv); dir != "" {
		dirs = append([]string{dir}, dirs...)
	}
	return dirs
}
