// Package repl implements the interactive read-eval-print loop: a
// chzyer/readline-backed line editor feeding fragments into an
// incremental.Driver, with fatih/color-rendered results and
// diagnostics. It runs a two-prompt primary/continuation model and
// recognizes `quit`, `list`, and `clear` as session commands.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/db47h/isb/diag"
	"github.com/db47h/isb/incremental"
	"github.com/db47h/isb/vm"
)

var (
	errorColor  = color.New(color.FgRed)
	valueColor  = color.New(color.FgYellow)
	bannerColor = color.New(color.FgCyan)
)

// Repl is one interactive session: a line editor, the engine it drives,
// and the incremental compile/run driver sitting between them.
type Repl struct {
	Prompt      string
	ContPrompt  string
	HistoryFile string

	engine *vm.Engine
	driver *incremental.Driver
}

// New constructs a Repl around engine, with the given primary and
// continuation prompts.
func New(engine *vm.Engine, prompt, contPrompt string) *Repl {
	return &Repl{
		Prompt:     prompt,
		ContPrompt: contPrompt,
		engine:     engine,
		driver:     incremental.New(engine),
	}
}

// Run starts the interactive loop, reading from and writing to the
// terminal via readline, until the user quits or input ends (Ctrl-D).
func (r *Repl) Run(out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.Prompt,
		HistoryFile:     r.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return errors.Wrap(err, "failed to start line editor")
	}
	defer rl.Close()

	bannerColor.Fprintln(out, "Interactive Small Basic -- type 'quit' to exit, 'list' to show code, 'clear' to reset")

	continuing := false
	for {
		if continuing {
			rl.SetPrompt(r.ContPrompt)
		} else {
			rl.SetPrompt(r.Prompt)
		}

		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			fmt.Fprintln(out, "bye")
			return nil
		}

		trimmed := strings.TrimSpace(line)
		if !continuing {
			switch normalizeCommand(trimmed) {
			case "quit":
				fmt.Fprintln(out, "bye")
				return nil
			case "list":
				r.printListing(out)
				continue
			case "clear":
				r.driver.Reset()
				r.engine.Reset()
				continue
			}
			if trimmed == "" {
				continue
			}
		}

		result := r.driver.Feed(line)
		switch result.Outcome {
		case incremental.NeedMore:
			continuing = true
			continue
		case incremental.Ran:
			continuing = false
			if result.HasValue {
				valueColor.Fprintln(out, result.Value.Str())
			}
		case incremental.CompileError, incremental.RuntimeError:
			continuing = false
			r.printDiagnostics(out, result.Diagnostics)
		}
	}
}

// normalizeCommand recognizes a REPL command case-insensitively, with an
// optional trailing "()" tolerated (so `list`, `LIST`, and `list()` are
// all the same command).
func normalizeCommand(line string) string {
	l := strings.ToLower(strings.TrimSpace(line))
	l = strings.TrimSuffix(l, "()")
	switch l {
	case "quit", "list", "clear":
		return l
	default:
		return ""
	}
}

func (r *Repl) printListing(out io.Writer) {
	for _, line := range r.engine.CodeLines() {
		fmt.Fprintln(out, line)
	}
}

func (r *Repl) printDiagnostics(out io.Writer, recs []diag.Record) {
	for _, rec := range recs {
		errorColor.Fprintln(out, rec.String())
	}
}
