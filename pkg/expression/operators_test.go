package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanComparison(t *testing.T) {
	testCases := []struct {
		plain    string
		expected ComparisonOperator
	}{
		{"=", Equal},
		{"==", Equal},
		{"<", LessThan},
		{">", GreaterThan},
		{"<=", LessOrEqual},
		{">=", GreaterOrEqual},
		{"!=", NotEqual},
		{"Player.X() >= 10", GreaterOrEqual},
		{`"a<b" + Name()`, UndefinedComparison},
		{"2+3*4", UndefinedComparison},
		{"", UndefinedComparison},
		{"!", UndefinedComparison},
	}

	for _, tc := range testCases {
		t.Run(tc.plain, func(t *testing.T) {
			assert.Equal(t, tc.expected, ScanComparison(tc.plain))
		})
	}
}

func TestScanModification(t *testing.T) {
	testCases := []struct {
		plain    string
		expected ModificationOperator
	}{
		{"=", Set},
		{" + ", Add},
		{"-", Subtract},
		{"*", Multiply},
		{"/", Divide},
		{">=", UndefinedModification},
		{"2+3", UndefinedModification},
		{"", UndefinedModification},
	}

	for _, tc := range testCases {
		t.Run(tc.plain, func(t *testing.T) {
			assert.Equal(t, tc.expected, ScanModification(tc.plain))
		})
	}
}

func TestComparisonOperator_Compare(t *testing.T) {
	assert.True(t, Equal.Compare(2, 2))
	assert.True(t, LessThan.Compare(1, 2))
	assert.True(t, GreaterThan.Compare(3, 2))
	assert.True(t, LessOrEqual.Compare(2, 2))
	assert.True(t, GreaterOrEqual.Compare(2, 2))
	assert.True(t, NotEqual.Compare(1, 2))
	assert.False(t, UndefinedComparison.Compare(1, 1))

	assert.True(t, Equal.CompareText("a", "a"))
	assert.True(t, NotEqual.CompareText("a", "b"))
	assert.False(t, LessThan.CompareText("a", "b"))
}

func TestModificationOperator_Apply(t *testing.T) {
	assert.Equal(t, 5.0, Set.Apply(10, 5))
	assert.Equal(t, 15.0, Add.Apply(10, 5))
	assert.Equal(t, 5.0, Subtract.Apply(10, 5))
	assert.Equal(t, 50.0, Multiply.Apply(10, 5))
	assert.Equal(t, 2.0, Divide.Apply(10, 5))
	assert.Equal(t, 10.0, UndefinedModification.Apply(10, 5))

	assert.Equal(t, "ab", Add.ApplyText("a", "b"))
	assert.Equal(t, "b", Set.ApplyText("a", "b"))
	assert.Equal(t, "a", Multiply.ApplyText("a", "b"))
}

func TestOperator_String(t *testing.T) {
	assert.Equal(t, ">=", GreaterOrEqual.String())
	assert.Equal(t, "undefined", ComparisonOperator(42).String())
	assert.Equal(t, "-", Subtract.String())
	assert.Equal(t, "undefined", UndefinedModification.String())
}
