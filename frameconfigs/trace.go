package frameconfigs

import (
	"github.com/reusee/pyframe/cmds"
	"github.com/reusee/pyframe/configs"
	"github.com/reusee/pyframe/vars"
)

// Trace logs every executed instruction. Set by -trace, PYFRAME_TRACE, or the config file.
type Trace bool

var _ configs.Configurable = Trace(false)

func (Trace) ConfigPath() string {
	return "trace"
}

var traceFlag = cmds.Switch("-trace", "log every executed instruction")

const traceEnv = "PYFRAME_TRACE"

func (Module) Trace(
	loader configs.Loader,
) Trace {
	if *traceFlag || vars.EnvBool(traceEnv) {
		return true
	}
	return configs.Of[Trace](loader)
}
