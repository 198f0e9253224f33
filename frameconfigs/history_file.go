package frameconfigs

import (
	"os"
	"path/filepath"

	"github.com/reusee/pyframe/configs"
	"github.com/reusee/pyframe/vars"
)

// HistoryFile is where the REPL keeps line history. Empty disables history.
type HistoryFile string

var _ configs.Configurable = HistoryFile("")

func (HistoryFile) ConfigPath() string {
	return "history_file"
}

func (Module) HistoryFile(
	loader configs.Loader,
) HistoryFile {
	var defaultPath string
	if dir, err := os.UserCacheDir(); err == nil {
		defaultPath = filepath.Join(dir, "pyframe_history")
	}
	return HistoryFile(vars.FirstNonZero(
		string(configs.Of[HistoryFile](loader)),
		defaultPath,
	))
}
