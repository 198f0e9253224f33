package configs

import (
	"testing"
)

func TestFirst(t *testing.T) {
	loader := NewLoader([]string{"testdata/test.cue"}, testSchema)

	if str := First[string](loader, "str"); str != "bar" {
		t.Fatalf("got %v", str)
	}
	if depth := First[int](loader, "missing"); depth != 0 {
		t.Fatalf("got %v", depth)
	}
}

type testDepth int

func (testDepth) ConfigPath() string {
	return "depth"
}

func TestOf(t *testing.T) {
	loader := NewLoader([]string{
		"testdata/test2.cue",
		"testdata/test.cue",
	}, testSchema)
	if depth := Of[testDepth](loader); depth != 42 {
		t.Fatalf("got %v", depth)
	}

	var empty Loader
	if depth := Of[testDepth](empty); depth != 0 {
		t.Fatalf("got %v", depth)
	}
}

func TestDiscover(t *testing.T) {
	paths := Discover([]string{"", "testdata", "not-exists"}, []string{"test2.cue", "test.cue", "none.cue"})
	if len(paths) != 2 {
		t.Fatalf("got %v", paths)
	}
	if paths[0] != "testdata/test2.cue" || paths[1] != "testdata/test.cue" {
		t.Fatalf("got %v", paths)
	}
}

type testList []int

func (testList) ConfigPath() string {
	return "list"
}

func TestAllOf(t *testing.T) {
	loader := NewLoader([]string{
		"testdata/test2.cue",
		"testdata/test.cue",
	}, testSchema)
	var got []int
	for list := range AllOf[testList](loader) {
		got = append(got, list...)
	}
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}
