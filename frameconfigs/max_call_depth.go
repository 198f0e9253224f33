package frameconfigs

import (
	"github.com/reusee/pyframe/cmds"
	"github.com/reusee/pyframe/configs"
	"github.com/reusee/pyframe/vars"
)

// MaxCallDepth limits nested calls in the interpreter. Zero means no limit.
type MaxCallDepth int

var _ configs.Configurable = MaxCallDepth(0)

func (MaxCallDepth) ConfigPath() string {
	return "max_call_depth"
}

var maxDepthFlag = cmds.Var[int]("-max-depth", "limit nested calls")

const defaultMaxCallDepth = 1000

func (Module) MaxCallDepth(
	loader configs.Loader,
) MaxCallDepth {
	return MaxCallDepth(vars.FirstNonZero(
		*maxDepthFlag,
		int(configs.Of[MaxCallDepth](loader)),
		defaultMaxCallDepth,
	))
}
