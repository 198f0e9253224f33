package frameconfigs

import (
	"slices"

	"github.com/reusee/pyframe/cmds"
	"github.com/reusee/pyframe/configs"
)

// Preload lists files executed into the REPL globals before the first prompt.
type Preload []string

var _ configs.Configurable = Preload(nil)

func (Preload) ConfigPath() string {
	return "preload"
}

var preloadFlag = cmds.Collect[string]("-preload", "execute a file into the REPL globals first")

// Preload puts flag values first, then every config file's list in lookup order.
func (Module) Preload(
	loader configs.Loader,
) Preload {
	ret := slices.Clone(*preloadFlag)
	for paths := range configs.AllOf[Preload](loader) {
		ret = append(ret, paths...)
	}
	return ret
}
