// Package asm is the textual assembly <-> instruction bridge: it parses
// a line-oriented assembly format into an instruction stream (with a
// resolved label table) and can re-render an instruction stream back to
// text, so that compiler output and hand-written assembly are
// interchangeable and round-trip.
package asm

import (
	"fmt"

	"github.com/db47h/isb/diag"
)

// Op identifies an instruction opcode.
type Op int

// The complete ISB opcode set.
const (
	Nop Op = iota
	Push
	Pushs
	Store
	Load
	StoreArr
	LoadArr
	Set
	Get
	Br
	BrIf
	Call
	Ret
	Add
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
	Neg
	Not
)

var opNames = map[Op]string{
	Nop:      "nop",
	Push:     "push",
	Pushs:    "pushs",
	Store:    "store",
	Load:     "load",
	StoreArr: "store_arr",
	LoadArr:  "load_arr",
	Set:      "set",
	Get:      "get",
	Br:       "br",
	BrIf:     "br_if",
	Call:     "call",
	Ret:      "ret",
	Add:      "add",
	Sub:      "sub",
	Mul:      "mul",
	Div:      "div",
	Mod:      "mod",
	Eq:       "eq",
	Ne:       "ne",
	Lt:       "lt",
	Le:       "le",
	Gt:       "gt",
	Ge:       "ge",
	And:      "and",
	Or:       "or",
	Neg:      "neg",
	Not:      "not",
}

var nameOps = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

// String renders an opcode as its assembly mnemonic.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// LookupOp returns the Op for a mnemonic, and whether it is known.
func LookupOp(name string) (Op, bool) {
	op, ok := nameOps[name]
	return op, ok
}

// operandArity reports how many operands each opcode takes, and whether
// its first/second operand is a string literal (as opposed to a bare
// name/number/label token). Used by both the parser and the formatter so
// they stay in lockstep.
type arity struct {
	n         int
	firstStr  bool
	secondStr bool
}

var operandArity = map[Op]arity{
	Nop:      {0, false, false},
	Push:     {1, false, false},
	Pushs:    {1, true, false},
	Store:    {1, false, false},
	Load:     {1, false, false},
	StoreArr: {2, false, false},
	LoadArr:  {2, false, false},
	Set:      {1, false, false},
	Get:      {1, false, false},
	Br:       {1, false, false},
	BrIf:     {2, false, false},
	Call:     {1, false, false},
	Ret:      {0, false, false},
	Add:      {0, false, false},
	Sub:      {0, false, false},
	Mul:      {0, false, false},
	Div:      {0, false, false},
	Mod:      {0, false, false},
	Eq:       {0, false, false},
	Ne:       {0, false, false},
	Lt:       {0, false, false},
	Le:       {0, false, false},
	Gt:       {0, false, false},
	Ge:       {0, false, false},
	And:      {0, false, false},
	Or:       {0, false, false},
	Neg:      {0, false, false},
	Not:      {0, false, false},
}

// Instruction is one record of the linear bytecode stream: an opcode, up
// to two string operands, and an optional source location pointing back
// to the BASIC line that produced it (for hand-written assembly, the
// position of the opcode in the assembly text).
type Instruction struct {
	Op  Op
	A   string
	B   string
	Pos *diag.Pos
}

// Program is a parsed or compiled instruction stream together with its
// label table (label name -> instruction index). Both compiler.Lower and
// Parse produce a Program, so either can be appended into a vm.Engine.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int
}
