// Package diag implements the diagnostic bag: an append-only collection of
// compile-time and runtime errors, each carrying a code, a source
// position, and a human-readable message. Nothing in this package ever
// panics or returns a Go error across this boundary -- callers read the
// bag after the fact, following the engine's "never unwind" propagation
// policy.
package diag

import "fmt"

// Code identifies the kind of diagnostic. The set is deliberately
// non-exhaustive: new codes can be added as the compiler/runtime grow
// without breaking existing callers, who should match on the ones they
// care about (chiefly UnexpectedEndOfStream, for incremental/REPL use)
// and otherwise treat any code as fatal.
type Code string

// Known diagnostic codes.
const (
	UnexpectedEndOfStream   Code = "UnexpectedEndOfStream"
	UnexpectedToken         Code = "UnexpectedToken"
	UndefinedAssemblyLabel  Code = "UndefinedAssemblyLabel"
	UnexpectedEmptyStack    Code = "UnexpectedEmptyStack"
	DivisionByZero          Code = "DivisionByZero"
	UnassignedVariable      Code = "UnassignedVariable"
	UnsupportedOperand      Code = "UnsupportedOperand"
	DuplicateLabel          Code = "DuplicateLabel"
	UnknownOpcode           Code = "UnknownOpcode"
	InvalidOperandCount     Code = "InvalidOperandCount"
)

// Pos is a source position: a 0-based line index (matching the runtime
// error text format printed to the user) and a 1-based column for
// human-facing messages.
type Pos struct {
	Line int
	Col  int
}

// String renders p as "line:col", 1-based on both axes for display.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Col)
}

// Record is a single diagnostic.
type Record struct {
	Code    Code
	Pos     Pos
	Message string
}

// String renders a compile-time diagnostic as "<pos>: <code>: <message>".
func (r Record) String() string {
	return fmt.Sprintf("%s: %s: %s", r.Pos, r.Code, r.Message)
}

// Bag is an append-only collection of diagnostics.
type Bag struct {
	records []Record
}

// Add appends a new diagnostic.
func (b *Bag) Add(code Code, pos Pos, format string, args ...interface{}) {
	b.records = append(b.records, Record{Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Records returns the diagnostics accumulated so far, in the order they
// were added.
func (b *Bag) Records() []Record {
	return b.records
}

// Len reports how many diagnostics have been recorded.
func (b *Bag) Len() int {
	return len(b.records)
}

// HasError reports whether any diagnostic has been recorded.
func (b *Bag) HasError() bool {
	return len(b.records) > 0
}

// Last returns the most recently added diagnostic, if any.
func (b *Bag) Last() (Record, bool) {
	if len(b.records) == 0 {
		return Record{}, false
	}
	return b.records[len(b.records)-1], true
}

// Reset clears all recorded diagnostics.
func (b *Bag) Reset() {
	b.records = nil
}

// OnlyIncomplete reports whether the bag's only fatal diagnostic is
// UnexpectedEndOfStream -- the signal the incremental driver uses to ask
// its caller for more input instead of reporting a hard failure.
func (b *Bag) OnlyIncomplete() bool {
	if len(b.records) == 0 {
		return false
	}
	for _, r := range b.records {
		if r.Code != UnexpectedEndOfStream {
			return false
		}
	}
	return true
}
