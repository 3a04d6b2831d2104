package incremental_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db47h/isb/incremental"
	"github.com/db47h/isb/vm"
)

func TestDriverCompleteExpressionSurfacesValue(t *testing.T) {
	d := incremental.New(vm.New("t"))
	r := d.Feed("1 + 2")
	require.Equal(t, incremental.Ran, r.Outcome)
	require.True(t, r.HasValue)
	assert.Equal(t, "3", r.Value.Str())
}

func TestDriverIncompleteIfAsksForMore(t *testing.T) {
	d := incremental.New(vm.New("t"))
	r := d.Feed("If 1 = 1 Then")
	assert.Equal(t, incremental.NeedMore, r.Outcome)

	r = d.Feed("x = 5")
	assert.Equal(t, incremental.NeedMore, r.Outcome)

	r = d.Feed("EndIf")
	require.Equal(t, incremental.Ran, r.Outcome)
}

func TestDriverStatePersistsAcrossFragments(t *testing.T) {
	d := incremental.New(vm.New("t"))
	r := d.Feed("x = 10")
	require.Equal(t, incremental.Ran, r.Outcome)

	r = d.Feed("x + 1")
	require.Equal(t, incremental.Ran, r.Outcome)
	require.True(t, r.HasValue)
	assert.Equal(t, "11", r.Value.Str())
}

func TestDriverCompileErrorClearsBufferAndAllowsRetry(t *testing.T) {
	d := incremental.New(vm.New("t"))
	r := d.Feed(")")
	assert.Equal(t, incremental.CompileError, r.Outcome)
	require.NotEmpty(t, r.Diagnostics)

	r = d.Feed("42")
	require.Equal(t, incremental.Ran, r.Outcome)
	assert.Equal(t, "42", r.Value.Str())
}

func TestDriverRuntimeErrorIsReportedAndStateSurvives(t *testing.T) {
	d := incremental.New(vm.New("t"))
	r := d.Feed("a = 1")
	require.Equal(t, incremental.Ran, r.Outcome)

	r = d.Feed("1 / 0")
	require.Equal(t, incremental.RuntimeError, r.Outcome)
	require.NotEmpty(t, r.Diagnostics)

	r = d.Feed("a")
	require.Equal(t, incremental.Ran, r.Outcome)
	assert.Equal(t, "1", r.Value.Str())
}
