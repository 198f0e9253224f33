package cmds

import (
	"strings"
	"testing"
)

func TestUsage(t *testing.T) {
	executor := NewExecutor()
	executor.Define("foo", Sub(map[string]*Command{
		"bar": Func(func() {
		}).Desc("BAR"),
		"baz": Sub(map[string]*Command{
			"qux": Func(func() {}).Desc("QUX"),
		}).Desc("BAZ"),
	}).Desc("FOO"))
	executor.Define("run", Func(func(path string) {}).
		Args("file").
		Desc("run a script").
		Alias("r"))

	buf := new(strings.Builder)
	executor.WriteUsage(buf)
	out := buf.String()
	for _, want := range []string{
		"foo\tFOO\n",
		"  bar\tBAR\n",
		"    qux\tQUX\n",
		"run (r) <file>\trun a script\n",
		"-h (help, -help, --help)\tprint this usage\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in\n%s", want, out)
		}
	}
	if strings.Count(out, "run a script") != 1 {
		t.Fatalf("alias listed twice:\n%s", out)
	}
}

func TestArgsMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("should panic")
		}
	}()
	Func(func(string) {}).Args("a", "b")
}
