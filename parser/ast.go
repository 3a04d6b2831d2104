// Package parser implements a recursive-descent parser that turns a
// lexer.Token stream into an ISB syntax tree. The statement and
// expression node kinds are declared in ast.go; the parser, including
// its precedence-climbing expression loop, is in parser.go.
package parser

import (
	"github.com/db47h/isb/diag"
	"github.com/db47h/isb/lexer"
)

// Node is implemented by every AST node.
type Node interface {
	Pos() diag.Pos
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

type base struct {
	pos diag.Pos
}

func (b base) Pos() diag.Pos { return b.pos }

func posOf(t lexer.Token) diag.Pos { return diag.Pos{Line: t.Line, Col: t.Col} }

// Program is the root node: a flat sequence of top-level statements.
type Program struct {
	Statements []Stmt
}

// ---- statements ----

// AssignStmt is `target = value`, where target is an Identifier or an
// IndexExpr chain.
type AssignStmt struct {
	base
	Target Expr
	Value  Expr
}

func (*AssignStmt) stmtNode() {}

// IfBranch is one `If`/`ElseIf` arm.
type IfBranch struct {
	Cond Expr
	Body []Stmt
}

// IfStmt is `If ... Then ... [ElseIf ... Then ...]* [Else ...] EndIf`.
type IfStmt struct {
	base
	Branches []IfBranch
	Else     []Stmt
}

func (*IfStmt) stmtNode() {}

// ForStmt is `For Var = Start To End [Step Step] ... EndFor`. Step is nil
// when omitted (defaults to 1 at lowering time).
type ForStmt struct {
	base
	Var   string
	Start Expr
	End   Expr
	Step  Expr
	Body  []Stmt
}

func (*ForStmt) stmtNode() {}

// WhileStmt is `While Cond ... EndWhile`.
type WhileStmt struct {
	base
	Cond Expr
	Body []Stmt
}

func (*WhileStmt) stmtNode() {}

// SubStmt is `Sub Name ... EndSub`.
type SubStmt struct {
	base
	Name string
	Body []Stmt
}

func (*SubStmt) stmtNode() {}

// GotoStmt is `GoTo Label`.
type GotoStmt struct {
	base
	Label string
}

func (*GotoStmt) stmtNode() {}

// LabelStmt is a bare `Name:` statement, defining a branch target usable
// by GoTo (and by call-lowering for Sub bodies).
type LabelStmt struct {
	base
	Name string
}

func (*LabelStmt) stmtNode() {}

// ExprStmt is a statement consisting of a single expression evaluated for
// its side effects (chiefly a bare Sub call); in incremental/REPL mode its
// value becomes the fragment's result.
type ExprStmt struct {
	base
	X Expr
}

func (*ExprStmt) stmtNode() {}

// ---- expressions ----

// NumberLit is a decimal numeric literal.
type NumberLit struct {
	base
	Text string
}

func (*NumberLit) exprNode() {}

// StringLit is a double-quoted string literal (already unescaped).
type StringLit struct {
	base
	Value string
}

func (*StringLit) exprNode() {}

// Identifier is a bare name reference (a memory slot, a label, or a call
// target depending on context).
type Identifier struct {
	base
	Name string
}

func (*Identifier) exprNode() {}

// IndexExpr is one level of `Base[Index]`; a[i][j] parses as
// IndexExpr{Base: IndexExpr{Base: Identifier(a), Index: i}, Index: j}.
type IndexExpr struct {
	base
	Base  Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}

// CallExpr is `Callee(Args...)`.
type CallExpr struct {
	base
	Callee string
	Args   []Expr
}

func (*CallExpr) exprNode() {}

// UnaryExpr is a prefix operator application; ISB only has unary minus.
type UnaryExpr struct {
	base
	Op lexer.Type
	X  Expr
}

func (*UnaryExpr) exprNode() {}

// BinaryExpr is `X Op Y`.
type BinaryExpr struct {
	base
	Op lexer.Type
	X  Expr
	Y  Expr
}

func (*BinaryExpr) exprNode() {}

// IndexChain flattens a (possibly zero-deep) chain of IndexExpr nodes
// into its root expression and the ordered list of index expressions,
// shallowest first. A bare Identifier returns itself with an empty chain.
func IndexChain(e Expr) (root Expr, indices []Expr) {
	var rev []Expr
	for {
		ix, ok := e.(*IndexExpr)
		if !ok {
			break
		}
		rev = append(rev, ix.Index)
		e = ix.Base
	}
	indices = make([]Expr, len(rev))
	for i, x := range rev {
		indices[len(rev)-1-i] = x
	}
	return e, indices
}
