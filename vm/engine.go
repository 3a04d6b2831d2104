// Package vm implements the runtime engine: a stack machine that executes
// the instruction stream produced by package compiler (from BASIC source)
// or package asm (from hand-written assembly). It owns every piece of
// mutable execution state the language needs -- the value stack, the
// register bank, named memory, the label table and the instruction
// pointer -- and never panics across its public API: every fault (stack
// underflow, division by zero, an unresolved branch target) is appended
// to a diagnostic bag and execution simply halts.
//
// Engine keeps an Instance-like shape familiar from stack-machine VMs: one
// struct holding all execution state, a straight-line switch-dispatch Run
// loop, and Push/Pop stack primitives. It departs from a typical
// panic-on-fault dispatch loop in one respect: faults append to the
// diagnostic bag and halt instead of unwinding the Go stack, so a caller
// can always inspect what went wrong and where.
package vm

import (
	"strconv"
	"strings"

	"github.com/db47h/isb/asm"
	"github.com/db47h/isb/compiler"
	"github.com/db47h/isb/diag"
	"github.com/db47h/isb/parser"
	"github.com/db47h/isb/value"
)

// Engine is one running ISB program: instructions, labels, value stack,
// registers, named memory, instruction pointer and diagnostics. Nothing
// about it is safe for concurrent use; per the language's concurrency
// model each Engine is owned by exactly one goroutine.
type Engine struct {
	name string

	instructions []asm.Instruction
	labels       map[string]int

	stack     []value.Value
	registers []value.Value
	memory    map[string]value.Value

	ip int

	bag diag.Bag
	gen compiler.Gen

	sourceLines     []string
	lastAppendIndex int
}

// New constructs an empty, ready-to-compile Engine named name. The name
// is recorded on the Engine but not used in diagnostics or output.
func New(name string) *Engine {
	e := &Engine{name: name}
	e.Reset()
	return e
}

// Reset clears instructions, stack, registers, memory, labels, errors and
// IP, returning the Engine to its just-constructed state.
func (e *Engine) Reset() {
	e.instructions = nil
	e.labels = make(map[string]int)
	e.stack = nil
	e.registers = nil
	e.memory = make(map[string]value.Value)
	e.ip = 0
	e.bag.Reset()
	e.gen = compiler.Gen{}
	e.sourceLines = nil
	e.lastAppendIndex = 0
}

// Compile parses and lowers BASIC source, appending the result to the
// instruction stream when incremental is true; otherwise it resets the
// engine first. Each call clears diagnostics from any earlier attempt
// before parsing -- a failed fragment doesn't poison the next retry --
// but a runtime error from a subsequent Run persists until the next
// Compile or an explicit Reset. Returns true iff no diagnostic was
// recorded.
func (e *Engine) Compile(source string, incremental bool) bool {
	if !incremental {
		e.Reset()
	}
	e.bag.Reset()
	pbag := &diag.Bag{}
	prog := parser.New(source, pbag).Parse()
	if pbag.HasError() {
		e.absorb(pbag)
		return false
	}
	cbag := &diag.Bag{}
	compiled := compiler.Lower(prog, &e.gen, cbag)
	if cbag.HasError() {
		e.absorb(cbag)
		return false
	}
	e.append(compiled)
	e.sourceLines = append(e.sourceLines, splitLines(source)...)
	return true
}

// ParseAssembly parses raw assembly text and appends it to the
// instruction stream (after resetting, since hand assembly is always a
// whole-program operation in the CLI, never a REPL fragment).
func (e *Engine) ParseAssembly(asmText string) bool {
	e.Reset()
	abag := &diag.Bag{}
	prog := asm.Parse(asmText, abag)
	if abag.HasError() {
		e.absorb(abag)
		return false
	}
	e.append(prog)
	e.sourceLines = splitLines(asmText)
	return true
}

func (e *Engine) append(prog *asm.Program) {
	offset := len(e.instructions)
	e.lastAppendIndex = offset
	e.instructions = append(e.instructions, prog.Instructions...)
	for name, idx := range prog.Labels {
		e.labels[name] = idx + offset
	}
}

func (e *Engine) absorb(other *diag.Bag) {
	for _, r := range other.Records() {
		e.bag.Add(r.Code, r.Pos, "%s", r.Message)
	}
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// LastAppendIndex returns the instruction index the most recent Compile
// or ParseAssembly call started appending at -- the position the
// incremental driver resumes Run from after a successful fragment
// compile.
func (e *Engine) LastAppendIndex() int { return e.lastAppendIndex }

// SetIP repositions the instruction pointer, used by the incremental
// driver to resume execution at the first newly appended instruction.
func (e *Engine) SetIP(ip int) { e.ip = ip }

// IP returns the current instruction pointer.
func (e *Engine) IP() int { return e.ip }

// StackCount returns the number of values on the value stack.
func (e *Engine) StackCount() int { return len(e.stack) }

// StackTop returns the top of the value stack without removing it.
func (e *Engine) StackTop() (value.Value, bool) {
	if len(e.stack) == 0 {
		return value.Empty, false
	}
	return e.stack[len(e.stack)-1], true
}

// StackPop removes and returns the top of the value stack.
func (e *Engine) StackPop() (value.Value, bool) {
	v, ok := e.pop()
	return v, ok
}

// HasError reports whether any diagnostic has been recorded.
func (e *Engine) HasError() bool { return e.bag.HasError() }

// ErrorInfo returns the most recently recorded diagnostic, if any.
func (e *Engine) ErrorInfo() (diag.Record, bool) { return e.bag.Last() }

// Diagnostics returns every diagnostic recorded so far, compile-time and
// runtime alike.
func (e *Engine) Diagnostics() []diag.Record { return e.bag.Records() }

// CodeLines returns the accumulated source text (BASIC or assembly,
// whichever was last compiled) split into lines, for the REPL's `list`
// command.
func (e *Engine) CodeLines() []string { return e.sourceLines }

// AssemblyInTextFormat disassembles the current instruction stream back
// to assembly text.
func (e *Engine) AssemblyInTextFormat() string {
	return asm.Format(&asm.Program{Instructions: e.instructions, Labels: e.labels})
}

// InstructionCount returns the total number of instructions compiled so
// far.
func (e *Engine) InstructionCount() int { return len(e.instructions) }

func (e *Engine) pop() (value.Value, bool) {
	if len(e.stack) == 0 {
		e.bag.Add(diag.UnexpectedEmptyStack, e.curPos(), "stack underflow")
		return value.Empty, false
	}
	n := len(e.stack) - 1
	v := e.stack[n]
	e.stack = e.stack[:n]
	return v, true
}

func (e *Engine) push(v value.Value) {
	e.stack = append(e.stack, v)
}

func (e *Engine) curPos() diag.Pos {
	if e.ip >= 0 && e.ip < len(e.instructions) && e.instructions[e.ip].Pos != nil {
		return *e.instructions[e.ip].Pos
	}
	return diag.Pos{}
}

func memKey(name string) string { return strings.ToLower(name) }

// Run executes instructions starting at the current IP. It stops when IP
// reaches the end of the instruction stream (clean termination, returns
// true) or, if stopOnError is true, as soon as a runtime diagnostic is
// recorded (returns false, IP left pointing at the failing instruction).
// With stopOnError false, a failing instruction is skipped (IP advances
// past it) and execution continues -- only ever exercised by callers that
// want a best-effort run and inspect the diagnostic bag afterwards.
func (e *Engine) Run(stopOnError bool) bool {
	for e.ip < len(e.instructions) {
		ip := e.ip
		before := e.bag.Len()
		next := e.step(e.instructions[ip], ip)
		if e.bag.Len() > before {
			if stopOnError {
				return false
			}
			e.ip = ip + 1
			continue
		}
		e.ip = next
	}
	return true
}

// step executes one instruction and returns the instruction pointer to
// continue at on success. On error it returns ip unchanged; the caller
// decides whether that means "halt here" or "skip past it".
func (e *Engine) step(ins asm.Instruction, ip int) int {
	switch ins.Op {
	case asm.Nop:
		return ip + 1

	case asm.Push:
		v, err := value.ParseNumber(ins.A)
		if err != nil {
			e.bag.Add(diag.UnsupportedOperand, e.posOf(ins), "invalid numeric literal %q", ins.A)
			return ip
		}
		e.push(v)
		return ip + 1

	case asm.Pushs:
		e.push(value.NewString(ins.A))
		return ip + 1

	case asm.Store:
		v, ok := e.pop()
		if !ok {
			return ip
		}
		e.memory[memKey(ins.A)] = v.Clone()
		return ip + 1

	case asm.Load:
		v, ok := e.memory[memKey(ins.A)]
		if !ok {
			v = value.Empty
		}
		e.push(v)
		return ip + 1

	case asm.StoreArr:
		return e.storeArr(ins, ip)

	case asm.LoadArr:
		return e.loadArr(ins, ip)

	case asm.Set:
		v, ok := e.pop()
		if !ok {
			return ip
		}
		idx, _ := strconv.Atoi(ins.A)
		e.setRegister(idx, v)
		return ip + 1

	case asm.Get:
		idx, _ := strconv.Atoi(ins.A)
		e.push(e.getRegister(idx))
		return ip + 1

	case asm.Br:
		target, ok := e.labels[ins.A]
		if !ok {
			e.bag.Add(diag.UndefinedAssemblyLabel, e.posOf(ins), "Undefined assembly label, %s", ins.A)
			return ip
		}
		return target

	case asm.BrIf:
		v, ok := e.pop()
		if !ok {
			return ip
		}
		name := ins.B
		if v.Bool() {
			name = ins.A
		}
		target, ok := e.labels[name]
		if !ok {
			e.bag.Add(diag.UndefinedAssemblyLabel, e.posOf(ins), "Undefined assembly label, %s", name)
			return ip
		}
		return target

	case asm.Call:
		target, ok := e.labels[ins.A]
		if !ok {
			e.bag.Add(diag.UndefinedAssemblyLabel, e.posOf(ins), "Undefined assembly label, %s", ins.A)
			return ip
		}
		e.push(value.NewInt(int64(ip + 1)))
		return target

	case asm.Ret:
		v, ok := e.pop()
		if !ok {
			return ip
		}
		return int(v.Number().IntPart())

	case asm.Add, asm.Sub, asm.Mul, asm.Div, asm.Mod:
		return e.arith(ins, ip)

	case asm.Eq, asm.Ne, asm.Lt, asm.Le, asm.Gt, asm.Ge:
		return e.compare(ins, ip)

	case asm.And:
		b, a, ok := e.pop2()
		if !ok {
			return ip
		}
		e.push(boolValue(a.Bool() && b.Bool()))
		return ip + 1

	case asm.Or:
		b, a, ok := e.pop2()
		if !ok {
			return ip
		}
		e.push(boolValue(a.Bool() || b.Bool()))
		return ip + 1

	case asm.Neg:
		a, ok := e.pop()
		if !ok {
			return ip
		}
		e.push(value.NewNumber(a.Number().Neg()))
		return ip + 1

	case asm.Not:
		a, ok := e.pop()
		if !ok {
			return ip
		}
		e.push(boolValue(!a.Bool()))
		return ip + 1

	default:
		e.bag.Add(diag.UnknownOpcode, e.posOf(ins), "unknown opcode %q", ins.Op)
		return ip
	}
}

func (e *Engine) posOf(ins asm.Instruction) diag.Pos {
	if ins.Pos != nil {
		return *ins.Pos
	}
	return diag.Pos{}
}

func (e *Engine) pop2() (b, a value.Value, ok bool) {
	b, ok = e.pop()
	if !ok {
		return
	}
	a, ok = e.pop()
	return
}

func boolValue(b bool) value.Value {
	if b {
		return value.NewInt(1)
	}
	return value.NewInt(0)
}

func (e *Engine) arith(ins asm.Instruction, ip int) int {
	b, a, ok := e.pop2()
	if !ok {
		return ip
	}
	switch ins.Op {
	case asm.Add:
		e.push(value.NewNumber(a.Number().Add(b.Number())))
	case asm.Sub:
		e.push(value.NewNumber(a.Number().Sub(b.Number())))
	case asm.Mul:
		e.push(value.NewNumber(a.Number().Mul(b.Number())))
	case asm.Div:
		d, ok := value.Div(a.Number(), b.Number())
		if !ok {
			e.bag.Add(diag.DivisionByZero, e.posOf(ins), "Division by zero.")
			return ip
		}
		e.push(value.NewNumber(d))
	case asm.Mod:
		d, ok := value.Mod(a.Number(), b.Number())
		if !ok {
			e.bag.Add(diag.DivisionByZero, e.posOf(ins), "Division by zero.")
			return ip
		}
		e.push(value.NewNumber(d))
	}
	return ip + 1
}

func (e *Engine) compare(ins asm.Instruction, ip int) int {
	b, a, ok := e.pop2()
	if !ok {
		return ip
	}
	c, comparable := a.Compare(b)
	var result bool
	switch ins.Op {
	case asm.Eq:
		result = comparable && c == 0
	case asm.Ne:
		result = !comparable || c != 0
	case asm.Lt:
		result = comparable && c < 0
	case asm.Le:
		result = comparable && c <= 0
	case asm.Gt:
		result = comparable && c > 0
	case asm.Ge:
		result = comparable && c >= 0
	}
	e.push(boolValue(result))
	return ip + 1
}

func (e *Engine) setRegister(idx int, v value.Value) {
	if idx < 0 {
		return
	}
	for idx >= len(e.registers) {
		e.registers = append(e.registers, value.Empty)
	}
	e.registers[idx] = v
}

func (e *Engine) getRegister(idx int) value.Value {
	if idx < 0 || idx >= len(e.registers) {
		return value.Empty
	}
	return e.registers[idx]
}

func (e *Engine) storeArr(ins asm.Instruction, ip int) int {
	n, _ := strconv.Atoi(ins.B)
	val, ok := e.pop()
	if !ok {
		return ip
	}
	keys := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		k, ok := e.pop()
		if !ok {
			return ip
		}
		keys[i] = value.CanonicalKey(k)
	}
	root := memKey(ins.A)
	cur, ok := e.memory[root]
	if !ok {
		cur = value.Empty
	}
	e.memory[root] = cur.SetPath(keys, val.Clone())
	return ip + 1
}

func (e *Engine) loadArr(ins asm.Instruction, ip int) int {
	n, _ := strconv.Atoi(ins.B)
	keys := make([]string, n)
	for i := n - 1; i >= 0; i-- {
		k, ok := e.pop()
		if !ok {
			return ip
		}
		keys[i] = value.CanonicalKey(k)
	}
	root, ok := e.memory[memKey(ins.A)]
	if !ok {
		root = value.Empty
	}
	e.push(root.GetPath(keys))
	return ip + 1
}
