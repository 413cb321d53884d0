package functions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayabrataBasu/chql/pkg/catalog"
)

func nullStr() catalog.Value { return catalog.Null(catalog.Nullable(catalog.TypeString)) }

func TestCoalesceFn(t *testing.T) {
	v, err := coalesceFn([]catalog.Value{nullStr(), catalog.NewString("a"), catalog.NewString("b")}, false)
	require.NoError(t, err)
	assert.Equal(t, "a", v.AsString())

	v, err = coalesceFn([]catalog.Value{nullStr(), nullStr()}, false)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestNullifFn(t *testing.T) {
	v, err := nullifFn([]catalog.Value{catalog.NewString("x"), catalog.NewString("x")}, false)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	v, err = nullifFn([]catalog.Value{catalog.NewString("x"), catalog.NewString("y")}, false)
	require.NoError(t, err)
	assert.Equal(t, "x", v.AsString())
}

func TestStringFunctions(t *testing.T) {
	v, err := stringFn1(strings.ToUpper)([]catalog.Value{catalog.NewString("abc")}, false)
	require.NoError(t, err)
	assert.Equal(t, "ABC", v.AsString())

	v, err = lengthFn([]catalog.Value{catalog.NewString("héllo")}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.AsInt64())

	v, err = concatFn([]catalog.Value{catalog.NewString("foo"), catalog.NewString("bar")}, false)
	require.NoError(t, err)
	assert.Equal(t, "foobar", v.AsString())

	v, err = substringFn([]catalog.Value{catalog.NewString("hello world"), catalog.NewInt64(7)}, false)
	require.NoError(t, err)
	assert.Equal(t, "world", v.AsString())

	v, err = substringFn([]catalog.Value{catalog.NewString("hello world"), catalog.NewInt64(1), catalog.NewInt64(5)}, false)
	require.NoError(t, err)
	assert.Equal(t, "hello", v.AsString())

	v, err = reverseFn([]catalog.Value{catalog.NewString("abc")}, false)
	require.NoError(t, err)
	assert.Equal(t, "cba", v.AsString())

	v, err = repeatFn([]catalog.Value{catalog.NewString("ab"), catalog.NewInt64(3)}, false)
	require.NoError(t, err)
	assert.Equal(t, "ababab", v.AsString())

	v, err = replaceFn([]catalog.Value{catalog.NewString("foobar"), catalog.NewString("bar"), catalog.NewString("baz")}, false)
	require.NoError(t, err)
	assert.Equal(t, "foobaz", v.AsString())

	v, err = positionFn([]catalog.Value{catalog.NewString("foobar"), catalog.NewString("bar")}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.AsInt64())

	v, err = positionFn([]catalog.Value{catalog.NewString("foobar"), catalog.NewString("zzz")}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.AsInt64())
}

func TestPadFunctions(t *testing.T) {
	v, err := padFn(true)([]catalog.Value{catalog.NewString("5"), catalog.NewInt64(3), catalog.NewString("0")}, false)
	require.NoError(t, err)
	assert.Equal(t, "005", v.AsString())

	v, err = padFn(false)([]catalog.Value{catalog.NewString("5"), catalog.NewInt64(3), catalog.NewString("0")}, false)
	require.NoError(t, err)
	assert.Equal(t, "500", v.AsString())

	v, err = padFn(true)([]catalog.Value{catalog.NewString("hello"), catalog.NewInt64(3), catalog.NewString("0")}, false)
	require.NoError(t, err)
	assert.Equal(t, "llo", v.AsString())
}

func TestMathFunctions(t *testing.T) {
	v, err := absFn([]catalog.Value{catalog.NewInt64(-5)}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.AsInt64())

	v, err = floorFn([]catalog.Value{catalog.NewFloat64(3.7)}, false)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v.AsFloat64())

	v, err = ceilFn([]catalog.Value{catalog.NewFloat64(3.2)}, false)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.AsFloat64())

	v, err = modFn([]catalog.Value{catalog.NewInt64(10), catalog.NewInt64(3)}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.AsInt64())

	v, err = powerFn([]catalog.Value{catalog.NewFloat64(2), catalog.NewFloat64(10)}, false)
	require.NoError(t, err)
	assert.Equal(t, 1024.0, v.AsFloat64())

	v, err = sqrtFn([]catalog.Value{catalog.NewFloat64(16)}, false)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.AsFloat64())
}

func TestGenerateUUIDv4(t *testing.T) {
	v, err := generateUUIDv4Fn(nil, false)
	require.NoError(t, err)
	assert.NotEqual(t, v.AsUUID().String(), "00000000-0000-0000-0000-000000000000")
}

func TestArityErrors(t *testing.T) {
	_, err := lengthFn([]catalog.Value{}, false)
	assert.Error(t, err)

	_, err = nullifFn([]catalog.Value{catalog.NewString("a")}, false)
	assert.Error(t, err)
}
