package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db47h/isb/asm"
	"github.com/db47h/isb/compiler"
	"github.com/db47h/isb/diag"
	"github.com/db47h/isb/parser"
)

func lower(t *testing.T, src string) (*asm.Program, *diag.Bag) {
	t.Helper()
	pbag := &diag.Bag{}
	prog := parser.New(src, pbag).Parse()
	require.False(t, pbag.HasError(), "parse errors: %v", pbag.Records())
	cbag := &diag.Bag{}
	return compiler.Lower(prog, &compiler.Gen{}, cbag), cbag
}

func opSeq(p *asm.Program) []asm.Op {
	ops := make([]asm.Op, len(p.Instructions))
	for i, ins := range p.Instructions {
		ops[i] = ins.Op
	}
	return ops
}

func TestLowerSimpleAssignment(t *testing.T) {
	p, bag := lower(t, "x = 1 + 2\n")
	require.False(t, bag.HasError())
	assert.Equal(t, []asm.Op{asm.Push, asm.Push, asm.Add, asm.Store}, opSeq(p))
	assert.Equal(t, "x", p.Instructions[3].A)
}

func TestLowerIndexedAssignment(t *testing.T) {
	p, bag := lower(t, "a[1][2] = 3\n")
	require.False(t, bag.HasError())
	last := p.Instructions[len(p.Instructions)-1]
	assert.Equal(t, asm.StoreArr, last.Op)
	assert.Equal(t, "a", last.A)
	assert.Equal(t, "2", last.B)
}

func TestLowerIfElse(t *testing.T) {
	p, bag := lower(t, "If x = 1 Then\n  y = 2\nElse\n  y = 3\nEndIf\n")
	require.False(t, bag.HasError())
	// condition, br_if, body store, br end, else body store
	var found bool
	for _, ins := range p.Instructions {
		if ins.Op == asm.BrIf {
			found = true
			assert.NotEmpty(t, ins.A)
			assert.NotEmpty(t, ins.B)
		}
	}
	assert.True(t, found)
	assert.Contains(t, opSeq(p), asm.Store)
}

func TestLowerForLoopAscending(t *testing.T) {
	p, bag := lower(t, "For i = 1 To 10\n  x = x + i\nEndFor\n")
	require.False(t, bag.HasError())
	var sawLe bool
	for _, ins := range p.Instructions {
		if ins.Op == asm.Le {
			sawLe = true
		}
		assert.NotEqual(t, asm.Ge, ins.Op, "ascending loop should not use ge")
	}
	assert.True(t, sawLe)
}

func TestLowerForLoopDescendingStep(t *testing.T) {
	p, bag := lower(t, "For i = 10 To 1 Step -1\n  x = x + i\nEndFor\n")
	require.False(t, bag.HasError())
	var sawGe bool
	for _, ins := range p.Instructions {
		if ins.Op == asm.Ge {
			sawGe = true
		}
	}
	assert.True(t, sawGe)
}

func TestLowerWhile(t *testing.T) {
	p, bag := lower(t, "While x < 10\n  x = x + 1\nEndWhile\n")
	require.False(t, bag.HasError())
	assert.Contains(t, opSeq(p), asm.BrIf)
	assert.Contains(t, opSeq(p), asm.Lt)
}

func TestLowerSubAndCall(t *testing.T) {
	p, bag := lower(t, "Sub Greet\n  x = 1\nEndSub\nGreet()\n")
	require.False(t, bag.HasError())
	idx, ok := p.Labels["Greet"]
	require.True(t, ok)
	assert.Equal(t, asm.Store, p.Instructions[idx].Op)

	var sawRet, sawCall bool
	for _, ins := range p.Instructions {
		if ins.Op == asm.Ret {
			sawRet = true
		}
		if ins.Op == asm.Call {
			sawCall = true
			assert.Equal(t, "Greet", ins.A)
		}
	}
	assert.True(t, sawRet)
	assert.True(t, sawCall)

	// the first instruction must skip over the sub body during normal flow
	assert.Equal(t, asm.Br, p.Instructions[0].Op)
}

func TestLowerGotoAndLabel(t *testing.T) {
	p, bag := lower(t, "top:\nGoTo top\n")
	require.False(t, bag.HasError())
	assert.Equal(t, 0, p.Labels["top"])
	assert.Equal(t, asm.Br, p.Instructions[0].Op)
	assert.Equal(t, "top", p.Instructions[0].A)
}

func TestLowerCallWithArgsIsUnsupported(t *testing.T) {
	_, bag := lower(t, "Foo(1, 2)\n")
	require.True(t, bag.HasError())
	rec, ok := bag.Last()
	require.True(t, ok)
	assert.Equal(t, diag.UnsupportedOperand, rec.Code)
}

func TestLowerLabelsAreFreshAcrossFragments(t *testing.T) {
	gen := &compiler.Gen{}

	pbag1 := &diag.Bag{}
	prog1 := parser.New("If x = 1 Then\n y = 1\nEndIf\n", pbag1).Parse()
	require.False(t, pbag1.HasError())
	cbag1 := &diag.Bag{}
	p1 := compiler.Lower(prog1, gen, cbag1)
	require.False(t, cbag1.HasError())

	pbag2 := &diag.Bag{}
	prog2 := parser.New("If x = 2 Then\n y = 2\nEndIf\n", pbag2).Parse()
	require.False(t, pbag2.HasError())
	cbag2 := &diag.Bag{}
	p2 := compiler.Lower(prog2, gen, cbag2)
	require.False(t, cbag2.HasError())

	for name := range p1.Labels {
		_, collide := p2.Labels[name]
		assert.False(t, collide, "label %q reused across fragments", name)
	}
}

func TestLowerBareExpressionLeavesValueOnStack(t *testing.T) {
	p, bag := lower(t, "1 + 2\n")
	require.False(t, bag.HasError())
	assert.Equal(t, []asm.Op{asm.Push, asm.Push, asm.Add}, opSeq(p))
}
