// Command isb is the Interactive Small Basic CLI: it compiles and runs a
// .bas source file or a .asm assembly file, optionally emitting assembly
// instead of running it, or (with no input file) drops into an
// interactive REPL.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/db47h/isb/config"
	"github.com/db47h/isb/repl"
	"github.com/db47h/isb/vm"
)

var (
	inputPath  string
	compile    bool
	outputPath string
	showStats  bool
)

func init() {
	flag.StringVar(&inputPath, "i", "", "input file to run or compile (.bas or .asm)")
	flag.StringVar(&inputPath, "input", "", "input file to run or compile (.bas or .asm)")
	flag.BoolVar(&compile, "c", false, "emit assembly without running (source input only)")
	flag.BoolVar(&compile, "compile", false, "emit assembly without running (source input only)")
	flag.StringVar(&outputPath, "o", "", "assembly output path (default stdout)")
	flag.StringVar(&outputPath, "output", "", "assembly output path (default stdout)")
	flag.BoolVar(&showStats, "stats", false, "print instruction count and wall time after running")
}

func main() {
	flag.Parse()

	if inputPath == "" {
		runRepl()
		return
	}

	os.Exit(run())
}

func run() int {
	src, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "read input file"))
		return 1
	}

	e := vm.New(filepath.Base(inputPath))
	ok := compileInput(e, string(src), inputPath)
	if !ok {
		printCompileDiagnostics(e)
		return 1
	}

	if compile {
		text := e.AssemblyInTextFormat()
		if outputPath == "" {
			if _, err := fmt.Fprint(os.Stdout, text); err != nil {
				fmt.Fprintln(os.Stderr, errors.Wrap(err, "write assembly output"))
				return 1
			}
		} else if err := os.WriteFile(outputPath, []byte(text), 0644); err != nil {
			fmt.Fprintln(os.Stderr, errors.Wrap(err, "write output file"))
			return 1
		}
		return 0
	}

	start := time.Now()
	ranOK := e.Run(true)
	elapsed := time.Since(start)
	if !ranOK {
		printRuntimeDiagnostics(e)
		return 1
	}

	if showStats {
		fmt.Fprintf(os.Stdout, "instructions compiled: %d (%s)\n", e.InstructionCount(), elapsed)
	}
	return 0
}

// compileInput dispatches on the input file's extension: ".asm" parses
// raw assembly text, anything else (".bas" by convention) compiles
// BASIC source.
func compileInput(e *vm.Engine, src, path string) bool {
	if strings.EqualFold(filepath.Ext(path), ".asm") {
		return e.ParseAssembly(src)
	}
	return e.Compile(src, false)
}

// printCompileDiagnostics renders parse/semantic errors with their
// human-facing line:col range.
func printCompileDiagnostics(e *vm.Engine) {
	for _, rec := range e.Diagnostics() {
		fmt.Fprintln(os.Stderr, rec.String())
	}
}

// printRuntimeDiagnostics renders runtime errors as "Runtime error:
// <message> (<line>: <source-line-text>)", with <line> the 0-based
// source line index.
func printRuntimeDiagnostics(e *vm.Engine) {
	for _, rec := range e.Diagnostics() {
		fmt.Fprintf(os.Stderr, "Runtime error: %s (%d: %s)\n", rec.Message, rec.Pos.Line, sourceLine(e, rec.Pos.Line))
	}
}

func sourceLine(e *vm.Engine, line int) string {
	lines := e.CodeLines()
	if line < 0 || line >= len(lines) {
		return ""
	}
	return lines[line]
}

func runRepl() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "load config"))
		cfg = config.DefaultConfig()
	}

	e := vm.New("repl")
	r := repl.New(e, cfg.REPL.Prompt, cfg.REPL.ContPrompt)
	r.HistoryFile = filepath.Join(os.TempDir(), "isb_history")

	if err := r.Run(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "run REPL"))
		os.Exit(1)
	}
}
