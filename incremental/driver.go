// Package incremental implements the compile-append-run cycle a REPL (or
// any other line-at-a-time consumer) drives an Engine with: accumulate
// source until it parses as a complete fragment, run just the newly
// compiled instructions, and surface whatever value (if any) is left on
// the stack. The "needs more lines" detection — recognizing that a
// dangling If/For/While/Sub block is not a hard parse error but a
// signal to keep reading — is this package's own contribution on top
// of the bare engine.
package incremental

import (
	"github.com/db47h/isb/diag"
	"github.com/db47h/isb/value"
	"github.com/db47h/isb/vm"
)

// Outcome reports what happened after feeding one line to a Driver.
type Outcome int

const (
	// Ran means the accumulated fragment compiled and ran. Value and
	// HasValue describe what, if anything, was left on the stack.
	Ran Outcome = iota
	// NeedMore means the fragment is incomplete; accumulate the next
	// line and try again.
	NeedMore
	// CompileError means the fragment failed for a reason other than
	// being incomplete; the buffer is discarded and Diagnostics
	// explains why.
	CompileError
	// RuntimeError means the fragment compiled but failed while
	// running; engine state (stack, memory, registers) is left exactly
	// as it was at the point of failure.
	RuntimeError
)

// Result is what Driver.Feed returns.
type Result struct {
	Outcome     Outcome
	Value       value.Value
	HasValue    bool
	Diagnostics []diag.Record
}

// Driver owns the accumulation buffer for one REPL session's fragments
// and the Engine they compile into.
type Driver struct {
	engine *vm.Engine
	buffer string
}

// New returns a Driver running fragments against engine.
func New(engine *vm.Engine) *Driver {
	return &Driver{engine: engine}
}

// Feed appends line to the accumulation buffer and attempts to compile
// and run it as a complete fragment.
func (d *Driver) Feed(line string) Result {
	d.buffer += line
	if len(d.buffer) == 0 || d.buffer[len(d.buffer)-1] != '\n' {
		d.buffer += "\n"
	}

	ok := d.engine.Compile(d.buffer, true)
	if !ok {
		recs := d.engine.Diagnostics()
		if onlyIncomplete(recs) {
			return Result{Outcome: NeedMore}
		}
		out := Result{Outcome: CompileError, Diagnostics: append([]diag.Record(nil), recs...)}
		d.buffer = ""
		return out
	}

	d.buffer = ""
	d.engine.SetIP(d.engine.LastAppendIndex())
	if !d.engine.Run(true) {
		recs := d.engine.Diagnostics()
		return Result{Outcome: RuntimeError, Diagnostics: append([]diag.Record(nil), recs...)}
	}

	if v, ok := d.engine.StackPop(); ok {
		return Result{Outcome: Ran, Value: v, HasValue: true}
	}
	return Result{Outcome: Ran}
}

// Reset discards any partially accumulated fragment without touching the
// engine's own state.
func (d *Driver) Reset() {
	d.buffer = ""
}

func onlyIncomplete(recs []diag.Record) bool {
	if len(recs) == 0 {
		return false
	}
	for _, r := range recs {
		if r.Code != diag.UnexpectedEndOfStream {
			return false
		}
	}
	return true
}
