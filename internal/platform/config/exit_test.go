package config

import (
	"bytes"
	"testing"
)

func TestExitfWritesMessageAndExits(t *testing.T) {
	var out bytes.Buffer
	code := -1
	prevWriter, prevExit := exitWriter, exitFunc
	exitWriter = &out
	exitFunc = func(c int) { code = c }
	t.Cleanup(func() {
		exitWriter, exitFunc = prevWriter, prevExit
	})

	Exitf("governorctl %s: %v", "increase", "EXCEEDS_MAX")

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if got := out.String(); got != "governorctl increase: EXCEEDS_MAX\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
