package frameconfigs

import (
	_ "embed"

	"github.com/reusee/pyframe/configs"
	"github.com/reusee/pyframe/logs"
)

//go:embed schema.cue
var schema string

var filenames = []string{
	"pyframe.cue",
	".pyframe.cue",
}

// ConfigDirs lists the directories searched for config files, most specific first.
type ConfigDirs []string

func (Module) ConfigDirs() ConfigDirs {
	return configs.DefaultDirs()
}

func (Module) ConfigsLoader(
	logger logs.Logger,
	dirs ConfigDirs,
) configs.Loader {
	paths := configs.Discover(dirs, filenames)
	if len(paths) > 0 {
		logger.Info("config file",
			"paths", paths,
		)
	}
	return configs.NewLoader(paths, schema)
}
