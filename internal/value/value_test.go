package value

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	require.False(t, Null().Truthy())
	require.False(t, Bool(false).Truthy())
	require.False(t, String("").Truthy())
	require.False(t, Array(nil).Truthy())

	require.True(t, Bool(true).Truthy())
	require.True(t, Int(0).Truthy())
	require.True(t, String("x").Truthy())
	require.True(t, Array([]Value{Int(1)}).Truthy())
	require.True(t, NewObjectBuilder().Build().Truthy())
}

func TestObjectBuilderDeduplicatesKeepingLastValue(t *testing.T) {
	b := NewObjectBuilder()
	b.Set("a", Int(1))
	b.Set("b", Int(2))
	b.Set("a", Int(3))
	obj := b.Build()
	require.Len(t, obj.AsObject(), 2)
	v, ok := obj.Get("a")
	require.True(t, ok)
	require.Equal(t, int64(3), v.AsInt())
}

func TestGetOnNonObjectReturnsNotOk(t *testing.T) {
	_, ok := Int(1).Get("x")
	require.False(t, ok)
}

func TestAddIntOverflowPromotesToBigInt(t *testing.T) {
	maxInt := Int(9223372036854775807)
	out := Add(maxInt, Int(1))
	require.Equal(t, KindBigInt, out.Kind())
	want := new(big.Int).Add(big.NewInt(9223372036854775807), big.NewInt(1))
	require.Equal(t, 0, out.AsBigInt().Cmp(want))
}

func TestAddFloatContagion(t *testing.T) {
	out := Add(Int(1), Float(2.5))
	require.Equal(t, KindFloat, out.Kind())
	require.Equal(t, 3.5, out.AsFloat())
}

func TestAddBigIntStaysBigInt(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	out := Add(BigInt(huge), Int(1))
	require.Equal(t, KindBigInt, out.Kind())
}

func TestDivFloatByZeroIsNaN(t *testing.T) {
	out := DivFloat(Int(1), Int(0))
	require.True(t, out != out) // NaN != NaN
}

func TestIsZero(t *testing.T) {
	require.True(t, IsZero(Int(0)))
	require.True(t, IsZero(Float(0)))
	require.False(t, IsZero(Int(1)))
	require.False(t, IsZero(String("")))
}

func TestEqualNumericCrossKind(t *testing.T) {
	require.True(t, Equal(Int(2), Float(2.0)))
	require.True(t, Equal(Int(5), BigInt(big.NewInt(5))))
	require.False(t, Equal(Int(2), Float(2.5)))
}

func TestEqualArraysAndObjects(t *testing.T) {
	a := Array([]Value{Int(1), String("x")})
	b := Array([]Value{Int(1), String("x")})
	require.True(t, Equal(a, b))

	oa := NewObjectBuilder().Set("k", Int(1)).Build()
	ob := NewObjectBuilder().Set("k", Int(1)).Build()
	require.True(t, Equal(oa, ob))
	require.False(t, Equal(oa, NewObjectBuilder().Set("k", Int(2)).Build()))
}

func TestCompareTypeRankOrdering(t *testing.T) {
	require.Less(t, Compare(Null(), Bool(false)), 0)
	require.Less(t, Compare(Bool(true), Int(0)), 0)
	require.Less(t, Compare(Int(1), String("a")), 0)
	require.Less(t, Compare(String("a"), Array([]Value{})), 0)
	require.Less(t, Compare(Array([]Value{}), NewObjectBuilder().Build()), 0)
}

func TestCompareNumericAcrossKinds(t *testing.T) {
	require.Equal(t, 0, Compare(Int(3), Float(3.0)))
	require.Less(t, Compare(Int(2), Int(3)), 0)
	require.Greater(t, Compare(Float(3.5), Int(3)), 0)
}

func TestCompareStringsLexicographic(t *testing.T) {
	require.Less(t, Compare(String("apple"), String("banana")), 0)
	require.Equal(t, 0, Compare(String("x"), String("x")))
}

func TestCompareArraysElementwiseThenLength(t *testing.T) {
	require.Less(t, Compare(Array([]Value{Int(1)}), Array([]Value{Int(1), Int(2)})), 0)
	require.Less(t, Compare(Array([]Value{Int(1)}), Array([]Value{Int(2)})), 0)
}

func TestStringIsDebugSummaryNotSerialization(t *testing.T) {
	require.Equal(t, "array[2]", Array([]Value{Int(1), Int(2)}).String())
	require.Equal(t, "object{1}", NewObjectBuilder().Set("a", Int(1)).Build().String())
	require.Equal(t, "42", Int(42).String())
}

func TestIsNumeric(t *testing.T) {
	require.True(t, IsNumeric(Int(1)))
	require.True(t, IsNumeric(Float(1)))
	require.True(t, IsNumeric(BigInt(big.NewInt(1))))
	require.False(t, IsNumeric(String("1")))
	require.False(t, IsNumeric(Null()))
}
