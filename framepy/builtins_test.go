package framepy

import (
	"errors"
	"testing"

	"github.com/reusee/pyframe/framevm"
)

func TestBuiltins(t *testing.T) {
	g := run(t, `
a = len("héllo")
b = abs(-3)
c = abs(-2.5)
d = min(3, 1, 2)
e = max([1, 5, 2])
f = max(["aa", "b", "cccc"], key=len)
h = min([], default=-1)
i = sum([1, 2, 3])
j = sum([1, 2], 10)
k = sorted([3, 1, 2])
l = sorted(["bb", "a", "ccc"], key=len, reverse=True)
m = list(reversed([1, 2, 3]))
n = list(enumerate(["x", "y"], 1))
o = list(zip([1, 2, 3], "ab"))
p = any([0, "", 3])
q = all([1, 2, 0])
r = repr("x")
s = format(3.14159, ".2f")
it = iter([1])
t1 = next(it)
t2 = next(it, "done")
u = isinstance(True, int)
v = divmod(-7, 2)
w = round(2.5)
x = round(3.14159, 2)
y = chr(65) + str(ord("a"))
z = hash(1) == hash(1.0)
wide = len(range(0, 9223372036854775807, 2))
top = [i for i in range(9223372036854775800, 9223372036854775807, 3)]
`)
	check(t, g, "wide", framevm.Int(1<<62))
	check(t, g, "top", ints(9223372036854775800, 9223372036854775803, 9223372036854775806))
	check(t, g, "a", framevm.Int(5))
	check(t, g, "b", framevm.Int(3))
	check(t, g, "c", framevm.Float(2.5))
	check(t, g, "d", framevm.Int(1))
	check(t, g, "e", framevm.Int(5))
	check(t, g, "f", framevm.Str("cccc"))
	check(t, g, "h", framevm.Int(-1))
	check(t, g, "i", framevm.Int(6))
	check(t, g, "j", framevm.Int(13))
	check(t, g, "k", ints(1, 2, 3))
	check(t, g, "l", framevm.NewList(framevm.Str("ccc"), framevm.Str("bb"), framevm.Str("a")))
	check(t, g, "m", ints(3, 2, 1))
	check(t, g, "n", framevm.NewList(
		framevm.Tuple{framevm.Int(1), framevm.Str("x")},
		framevm.Tuple{framevm.Int(2), framevm.Str("y")},
	))
	check(t, g, "o", framevm.NewList(
		framevm.Tuple{framevm.Int(1), framevm.Str("a")},
		framevm.Tuple{framevm.Int(2), framevm.Str("b")},
	))
	check(t, g, "p", framevm.True)
	check(t, g, "q", framevm.False)
	check(t, g, "r", framevm.Str("'x'"))
	check(t, g, "s", framevm.Str("3.14"))
	check(t, g, "t1", framevm.Int(1))
	check(t, g, "t2", framevm.Str("done"))
	check(t, g, "u", framevm.True)
	check(t, g, "v", framevm.Tuple{framevm.Int(-4), framevm.Int(1)})
	check(t, g, "w", framevm.Int(2))
	check(t, g, "x", framevm.Float(3.14))
	check(t, g, "y", framevm.Str("A97"))
	check(t, g, "z", framevm.True)
}

func TestBuiltinErrors(t *testing.T) {
	for _, c := range []struct {
		src   string
		check func(error) bool
	}{
		{"len(1)", func(err error) bool {
			var e *framevm.UnsupportedOperationError
			return errors.As(err, &e)
		}},
		{"min([])", func(err error) bool {
			var e *framevm.ValueError
			return errors.As(err, &e)
		}},
		{"next(iter([]))", func(err error) bool {
			var e *framevm.ValueError
			return errors.As(err, &e)
		}},
		{"len([], x=1)", func(err error) bool {
			var e *framevm.ArityMismatchError
			return errors.As(err, &e)
		}},
		{"chr(-1)", func(err error) bool {
			var e *framevm.ValueError
			return errors.As(err, &e)
		}},
		{"len(range(-9223372036854775807 - 1, 9223372036854775807))", func(err error) bool {
			var e *framevm.ValueError
			return errors.As(err, &e)
		}},
		{"hash([])", func(err error) bool {
			var e *framevm.UnsupportedOperationError
			return errors.As(err, &e)
		}},
	} {
		_, _, err := tryRun(t, c.src)
		if !c.check(err) {
			t.Fatalf("%s: got %v", c.src, err)
		}
	}
}

func TestBuiltinsRegistry(t *testing.T) {
	b := Builtins()
	for _, name := range []string{"print", "len", "range", "int", "dict", "type", "hash", "dir"} {
		if _, ok := b.Lookup(name); !ok {
			t.Fatalf("%s not registered", name)
		}
	}
}
