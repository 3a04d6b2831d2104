package repl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCommand(t *testing.T) {
	cases := map[string]string{
		"quit":    "quit",
		"QUIT":    "quit",
		"  quit ": "quit",
		"list":    "list",
		"LIST()":  "list",
		"clear()": "clear",
		"Clear":   "clear",
		"x = 1":   "",
		"":        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeCommand(in), "input %q", in)
	}
}
