// Package compiler lowers an ISB syntax tree into the labelled
// stack-machine instruction stream of package asm. A second, independent
// path to the same instruction representation is asm.Parse, which parses
// raw assembly text directly; both paths produce an *asm.Program so
// either can be merged into a vm.Engine.
package compiler

import (
	"fmt"

	"github.com/db47h/isb/asm"
	"github.com/db47h/isb/diag"
	"github.com/db47h/isb/lexer"
	"github.com/db47h/isb/parser"
)

// Gen is a monotonically increasing label/register name generator shared
// across every compile call an Engine makes between resets (a reset also
// clears the Engine's labels). Keeping it long-lived (rather than
// per-call) is what makes incremental compilation
// safe: fresh control-flow labels from fragment 2 can never collide with
// labels fragment 1 already defined, and the scheme is deterministic, so
// the emitted assembly stays diff-stable across repeated compiles of the
// same source.
type Gen struct {
	labelSeq int
	regSeq   int
}

func (g *Gen) label(prefix string) string {
	g.labelSeq++
	return fmt.Sprintf("$%s%d", prefix, g.labelSeq)
}

func (g *Gen) register() string {
	r := g.regSeq
	g.regSeq++
	return fmt.Sprintf("%d", r)
}

// Lower compiles prog into a fresh asm.Program. Diagnostics (unsupported
// call forms; nothing else at this stage, since undefined labels are a
// runtime concern) are recorded in bag.
func Lower(prog *parser.Program, gen *Gen, bag *diag.Bag) *asm.Program {
	c := &compiler{prog: &asm.Program{Labels: make(map[string]int)}, gen: gen, bag: bag}
	for _, s := range prog.Statements {
		c.stmt(s)
	}
	return c.prog
}

type compiler struct {
	prog *asm.Program
	gen  *Gen
	bag  *diag.Bag
}

func (c *compiler) emit(op asm.Op, a, b string, pos diag.Pos) {
	p := pos
	c.prog.Instructions = append(c.prog.Instructions, asm.Instruction{Op: op, A: a, B: b, Pos: &p})
}

func (c *compiler) label(name string) {
	c.prog.Labels[name] = len(c.prog.Instructions)
}

func (c *compiler) stmt(s parser.Stmt) {
	switch n := s.(type) {
	case *parser.AssignStmt:
		c.assign(n)
	case *parser.IfStmt:
		c.ifStmt(n)
	case *parser.ForStmt:
		c.forStmt(n)
	case *parser.WhileStmt:
		c.whileStmt(n)
	case *parser.SubStmt:
		c.subStmt(n)
	case *parser.GotoStmt:
		c.emit(asm.Br, n.Label, "", n.Pos())
	case *parser.LabelStmt:
		c.label(n.Name)
	case *parser.ExprStmt:
		c.exprStmt(n)
	}
}

func (c *compiler) assign(n *parser.AssignStmt) {
	switch t := n.Target.(type) {
	case *parser.Identifier:
		c.expr(n.Value)
		c.emit(asm.Store, t.Name, "", n.Pos())
	case *parser.IndexExpr:
		root, indices := parser.IndexChain(t)
		ident, ok := root.(*parser.Identifier)
		if !ok {
			c.bag.Add(diag.UnsupportedOperand, n.Pos(), "array assignment target must be a named variable")
			return
		}
		for _, idx := range indices {
			c.expr(idx)
		}
		c.expr(n.Value)
		c.emit(asm.StoreArr, ident.Name, fmt.Sprintf("%d", len(indices)), n.Pos())
	default:
		c.bag.Add(diag.UnsupportedOperand, n.Pos(), "invalid assignment target")
	}
}

// exprStmt compiles an expression used as a full statement: a bare sub
// call, or (chiefly at the REPL) a plain expression whose value is left
// on the stack for the incremental driver to surface.
func (c *compiler) exprStmt(n *parser.ExprStmt) {
	if call, ok := n.X.(*parser.CallExpr); ok {
		c.call(call)
		return
	}
	c.expr(n.X)
}

func (c *compiler) call(n *parser.CallExpr) {
	if len(n.Args) != 0 {
		c.bag.Add(diag.UnsupportedOperand, n.Pos(), "call to %q: argument passing is not supported, only zero-argument Sub calls are", n.Callee)
		return
	}
	c.emit(asm.Call, n.Callee, "", n.Pos())
}

func (c *compiler) ifStmt(n *parser.IfStmt) {
	lend := c.gen.label("endif")
	for _, br := range n.Branches {
		lthen := c.gen.label("then")
		lelse := c.gen.label("else")
		c.expr(br.Cond)
		c.emit(asm.BrIf, lthen, lelse, n.Pos())
		c.label(lthen)
		for _, st := range br.Body {
			c.stmt(st)
		}
		c.emit(asm.Br, lend, "", n.Pos())
		c.label(lelse)
	}
	for _, st := range n.Else {
		c.stmt(st)
	}
	c.label(lend)
}

// forStmt lowers `For Var = Start To End [Step Step] ... EndFor`.
// Step defaults to 1; a step that is syntactically a negative literal
// (`-1`, `-N`) reverses the loop-continuation comparison from <= to >=.
// This is a static, syntax-level decision, since the instruction set has
// no sign/abs primitive to make it a runtime one.
func (c *compiler) forStmt(n *parser.ForStmt) {
	rEnd := c.gen.register()
	rStep := c.gen.register()
	pos := n.Pos()

	c.expr(n.End)
	c.emit(asm.Set, rEnd, "", pos)

	descending := false
	if n.Step != nil {
		descending = isNegativeLiteral(n.Step)
		c.expr(n.Step)
	} else {
		c.emit(asm.Push, "1", "", pos)
	}
	c.emit(asm.Set, rStep, "", pos)

	c.expr(n.Start)
	c.emit(asm.Store, n.Var, "", pos)

	ltop := c.gen.label("fortop")
	lbody := c.gen.label("forbody")
	ldone := c.gen.label("fordone")

	c.label(ltop)
	c.emit(asm.Load, n.Var, "", pos)
	c.emit(asm.Get, rEnd, "", pos)
	if descending {
		c.emit(asm.Ge, "", "", pos)
	} else {
		c.emit(asm.Le, "", "", pos)
	}
	c.emit(asm.BrIf, lbody, ldone, pos)
	c.label(lbody)
	for _, st := range n.Body {
		c.stmt(st)
	}
	c.emit(asm.Load, n.Var, "", pos)
	c.emit(asm.Get, rStep, "", pos)
	c.emit(asm.Add, "", "", pos)
	c.emit(asm.Store, n.Var, "", pos)
	c.emit(asm.Br, ltop, "", pos)
	c.label(ldone)
}

func isNegativeLiteral(e parser.Expr) bool {
	u, ok := e.(*parser.UnaryExpr)
	if !ok || u.Op != lexer.Minus {
		return false
	}
	_, ok = u.X.(*parser.NumberLit)
	return ok
}

func (c *compiler) whileStmt(n *parser.WhileStmt) {
	pos := n.Pos()
	ltop := c.gen.label("whiletop")
	lbody := c.gen.label("whilebody")
	ldone := c.gen.label("whiledone")

	c.label(ltop)
	c.expr(n.Cond)
	c.emit(asm.BrIf, lbody, ldone, pos)
	c.label(lbody)
	for _, st := range n.Body {
		c.stmt(st)
	}
	c.emit(asm.Br, ltop, "", pos)
	c.label(ldone)
}

func (c *compiler) subStmt(n *parser.SubStmt) {
	pos := n.Pos()
	lafter := c.gen.label("subafter")
	c.emit(asm.Br, lafter, "", pos)
	c.label(n.Name)
	for _, st := range n.Body {
		c.stmt(st)
	}
	c.emit(asm.Ret, "", "", pos)
	c.label(lafter)
}

func (c *compiler) expr(e parser.Expr) {
	pos := e.Pos()
	switch n := e.(type) {
	case *parser.NumberLit:
		c.emit(asm.Push, n.Text, "", pos)
	case *parser.StringLit:
		c.emit(asm.Pushs, n.Value, "", pos)
	case *parser.Identifier:
		c.emit(asm.Load, n.Name, "", pos)
	case *parser.IndexExpr:
		root, indices := parser.IndexChain(n)
		ident, ok := root.(*parser.Identifier)
		if !ok {
			c.bag.Add(diag.UnsupportedOperand, pos, "array read target must be a named variable")
			return
		}
		for _, idx := range indices {
			c.expr(idx)
		}
		c.emit(asm.LoadArr, ident.Name, fmt.Sprintf("%d", len(indices)), pos)
	case *parser.UnaryExpr:
		c.expr(n.X)
		c.emit(asm.Neg, "", "", pos)
	case *parser.BinaryExpr:
		c.expr(n.X)
		c.expr(n.Y)
		c.emit(binOp(n.Op), "", "", pos)
	case *parser.CallExpr:
		c.bag.Add(diag.UnsupportedOperand, pos, "call to %q cannot be used as a value expression", n.Callee)
	default:
		c.bag.Add(diag.UnsupportedOperand, pos, "unsupported expression")
	}
}

func binOp(op lexer.Type) asm.Op {
	switch op {
	case lexer.Plus:
		return asm.Add
	case lexer.Minus:
		return asm.Sub
	case lexer.Star:
		return asm.Mul
	case lexer.Slash:
		return asm.Div
	case lexer.KwMod:
		return asm.Mod
	case lexer.Assign:
		return asm.Eq
	case lexer.NotEqual:
		return asm.Ne
	case lexer.Less:
		return asm.Lt
	case lexer.Greater:
		return asm.Gt
	case lexer.LessEqual:
		return asm.Le
	case lexer.GreaterEqual:
		return asm.Ge
	case lexer.KwAnd:
		return asm.And
	case lexer.KwOr:
		return asm.Or
	default:
		return asm.Nop
	}
}
