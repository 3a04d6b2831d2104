package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db47h/isb/diag"
	"github.com/db47h/isb/lexer"
	"github.com/db47h/isb/parser"
)

func parse(t *testing.T, src string) (*parser.Program, *diag.Bag) {
	t.Helper()
	bag := &diag.Bag{}
	return parser.New(src, bag).Parse(), bag
}

func TestAssignmentVsEqualityDisambiguation(t *testing.T) {
	prog, bag := parse(t, "a = 1\n")
	require.False(t, bag.HasError())
	require.Len(t, prog.Statements, 1)
	_, ok := prog.Statements[0].(*parser.AssignStmt)
	assert.True(t, ok, "top-level 'a = 1' must parse as an assignment")

	prog, bag = parse(t, "If a = 1 Then\n  b = 2\nEndIf\n")
	require.False(t, bag.HasError())
	require.Len(t, prog.Statements, 1)
	ifStmt, ok := prog.Statements[0].(*parser.IfStmt)
	require.True(t, ok)
	cond, ok := ifStmt.Branches[0].Cond.(*parser.BinaryExpr)
	require.True(t, ok, "'a = 1' inside a condition must parse as a binary expression")
	assert.Equal(t, lexer.Assign, cond.Op)
}

func TestIndexedAssignment(t *testing.T) {
	prog, bag := parse(t, "a[1][2] = 3\n")
	require.False(t, bag.HasError())
	require.Len(t, prog.Statements, 1)
	assign, ok := prog.Statements[0].(*parser.AssignStmt)
	require.True(t, ok)
	root, indices := parser.IndexChain(assign.Target)
	ident, ok := root.(*parser.Identifier)
	require.True(t, ok)
	assert.Equal(t, "a", ident.Name)
	assert.Len(t, indices, 2)
}

func TestIfElseIfElse(t *testing.T) {
	src := "If a = 1 Then\n  x = 1\nElseIf a = 2 Then\n  x = 2\nElse\n  x = 3\nEndIf\n"
	prog, bag := parse(t, src)
	require.False(t, bag.HasError())
	require.Len(t, prog.Statements, 1)
	ifStmt, ok := prog.Statements[0].(*parser.IfStmt)
	require.True(t, ok)
	assert.Len(t, ifStmt.Branches, 2)
	assert.Len(t, ifStmt.Else, 1)
}

func TestForWithStep(t *testing.T) {
	prog, bag := parse(t, "For i = 10 To 1 Step -1\n  x = i\nEndFor\n")
	require.False(t, bag.HasError())
	require.Len(t, prog.Statements, 1)
	forStmt, ok := prog.Statements[0].(*parser.ForStmt)
	require.True(t, ok)
	assert.Equal(t, "i", forStmt.Var)
	require.NotNil(t, forStmt.Step)
	unary, ok := forStmt.Step.(*parser.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, lexer.Minus, unary.Op)
}

func TestForWithoutStep(t *testing.T) {
	prog, bag := parse(t, "For i = 1 To 10\n  x = i\nEndFor\n")
	require.False(t, bag.HasError())
	forStmt := prog.Statements[0].(*parser.ForStmt)
	assert.Nil(t, forStmt.Step)
}

func TestWhile(t *testing.T) {
	prog, bag := parse(t, "While x < 10\n  x = x + 1\nEndWhile\n")
	require.False(t, bag.HasError())
	require.Len(t, prog.Statements, 1)
	_, ok := prog.Statements[0].(*parser.WhileStmt)
	assert.True(t, ok)
}

func TestSubAndCall(t *testing.T) {
	prog, bag := parse(t, "Sub Greet\n  x = 1\nEndSub\nGreet()\n")
	require.False(t, bag.HasError())
	require.Len(t, prog.Statements, 2)
	sub, ok := prog.Statements[0].(*parser.SubStmt)
	require.True(t, ok)
	assert.Equal(t, "Greet", sub.Name)

	exprStmt, ok := prog.Statements[1].(*parser.ExprStmt)
	require.True(t, ok)
	call, ok := exprStmt.X.(*parser.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "Greet", call.Callee)
	assert.Empty(t, call.Args)
}

func TestGotoAndLabel(t *testing.T) {
	prog, bag := parse(t, "top:\nGoTo top\n")
	require.False(t, bag.HasError())
	require.Len(t, prog.Statements, 2)
	label, ok := prog.Statements[0].(*parser.LabelStmt)
	require.True(t, ok)
	assert.Equal(t, "top", label.Name)
	goTo, ok := prog.Statements[1].(*parser.GotoStmt)
	require.True(t, ok)
	assert.Equal(t, "top", goTo.Label)
}

func TestOperatorPrecedence(t *testing.T) {
	// 1 + 2 * 3 must parse as 1 + (2 * 3)
	prog, bag := parse(t, "1 + 2 * 3\n")
	require.False(t, bag.HasError())
	exprStmt := prog.Statements[0].(*parser.ExprStmt)
	top, ok := exprStmt.X.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, lexer.Plus, top.Op)
	rhs, ok := top.Y.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, lexer.Star, rhs.Op)
}

func TestAndOrPrecedenceBelowComparison(t *testing.T) {
	// a < 1 And b > 2 must parse as (a < 1) And (b > 2)
	prog, bag := parse(t, "a < 1 And b > 2\n")
	require.False(t, bag.HasError())
	exprStmt := prog.Statements[0].(*parser.ExprStmt)
	top, ok := exprStmt.X.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, lexer.KwAnd, top.Op)
	_, ok = top.X.(*parser.BinaryExpr)
	assert.True(t, ok)
	_, ok = top.Y.(*parser.BinaryExpr)
	assert.True(t, ok)
}

func TestUnaryMinus(t *testing.T) {
	prog, bag := parse(t, "-x + 1\n")
	require.False(t, bag.HasError())
	exprStmt := prog.Statements[0].(*parser.ExprStmt)
	top, ok := exprStmt.X.(*parser.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, lexer.Plus, top.Op)
	_, ok = top.X.(*parser.UnaryExpr)
	assert.True(t, ok)
}

func TestIncompleteIfRecordsUnexpectedEndOfStream(t *testing.T) {
	_, bag := parse(t, "If a = 1 Then\n  x = 1\n")
	assert.True(t, bag.HasError())
	assert.True(t, bag.OnlyIncomplete())
}

func TestCallWithArguments(t *testing.T) {
	prog, bag := parse(t, "Foo(1, 2)\n")
	require.False(t, bag.HasError())
	exprStmt := prog.Statements[0].(*parser.ExprStmt)
	call, ok := exprStmt.X.(*parser.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "Foo", call.Callee)
	require.Len(t, call.Args, 2)
}
