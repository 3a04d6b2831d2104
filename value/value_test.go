package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db47h/isb/value"
)

func TestNumberConversions(t *testing.T) {
	n, err := value.ParseNumber("3.14")
	require.NoError(t, err)
	assert.Equal(t, value.Number, n.Kind())
	assert.Equal(t, "3.14", n.Str())
	assert.True(t, n.Bool())

	zero, err := value.ParseNumber("0")
	require.NoError(t, err)
	assert.False(t, zero.Bool())
}

func TestStringBooleanView(t *testing.T) {
	assert.False(t, value.NewString("").Bool())
	assert.False(t, value.NewString("false").Bool())
	assert.False(t, value.NewString("FALSE").Bool())
	assert.True(t, value.NewString("0").Bool())
	assert.True(t, value.NewString("anything").Bool())
}

func TestStringNumericView(t *testing.T) {
	assert.True(t, value.NewString("42").Number().Equal(value.NewInt(42).Number()))
	assert.True(t, value.NewString("not a number").Number().IsZero())
}

func TestArrayAutoPromotionAndRoundTrip(t *testing.T) {
	var a value.Value // unset, like a fresh memory slot
	a = a.SetPath([]string{"0"}, value.NewInt(1))
	a = a.SetPath([]string{"1"}, value.NewInt(1))
	assert.Equal(t, value.Array, a.Kind())
	assert.Equal(t, "1", a.GetPath([]string{"0"}).Str())

	// missing path yields empty string, not an error
	assert.Equal(t, "", a.GetPath([]string{"unknown"}).Str())
}

func TestNestedArrayAutoPromotionOverwritesScalar(t *testing.T) {
	root := value.NewArray()
	root = root.Set("i", value.NewInt(5)) // scalar at "i"
	root = root.SetPath([]string{"i", "j"}, value.NewString("deep"))
	assert.Equal(t, value.Array, root.Get("i").Kind())
	assert.Equal(t, "deep", root.GetPath([]string{"i", "j"}).Str())
}

func TestIndexingScalarYieldsEmptyString(t *testing.T) {
	scalar := value.NewInt(42)
	assert.Equal(t, "", scalar.Get("0").Str())
}

func TestCanonicalArrayKeysMatchAcrossComputation(t *testing.T) {
	a, _ := value.ParseNumber("0.1")
	b, _ := value.ParseNumber("0.2")
	sum := value.NewNumber(a.Number().Add(b.Number()))
	c, _ := value.ParseNumber("0.3")
	assert.Equal(t, value.CanonicalKey(c), value.CanonicalKey(sum))
}

func TestCloneIsDeep(t *testing.T) {
	orig := value.NewArray()
	orig = orig.Set("x", value.NewInt(1))
	clone := orig.Clone()
	clone = clone.Set("x", value.NewInt(2))
	assert.Equal(t, "1", orig.Get("x").Str())
	assert.Equal(t, "2", clone.Get("x").Str())
}

func TestCompareNumericVsLexicographic(t *testing.T) {
	n1 := value.NewInt(2)
	n2 := value.NewInt(10)
	c, ok := n1.Compare(n2)
	require.True(t, ok)
	assert.Less(t, c, 0) // numeric: 2 < 10

	s1 := value.NewString("banana")
	s2 := value.NewString("apple")
	c, ok = s1.Compare(s2)
	require.True(t, ok)
	assert.Greater(t, c, 0) // lexicographic: "banana" > "apple"
}
