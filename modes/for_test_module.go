package modes

import (
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/pyframe/frameconfigs"
	"github.com/reusee/pyframe/logs"
)

type ModuleForTest struct {
	dscope.Module
	t *testing.T
}

// ForTest logs to the test output and ignores config files on the host.
func ForTest(t *testing.T) ModuleForTest {
	return ModuleForTest{
		t: t,
	}
}

func (m ModuleForTest) T() *testing.T {
	return m.t
}

func (m ModuleForTest) Mode() Mode {
	return ModeDevelopment
}

func (m ModuleForTest) Writer() logs.Writer {
	return m.t.Output()
}

func (m ModuleForTest) ConfigDirs() frameconfigs.ConfigDirs {
	return nil
}
