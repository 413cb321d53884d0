package functions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JayabrataBasu/chql/pkg/catalog"
)

func TestCountAgg(t *testing.T) {
	agg := countAgg{}
	st := agg.CreateState()
	var err error
	st, err = agg.Accumulate(st, []catalog.Value{catalog.NewInt64(1)}, false)
	require.NoError(t, err)
	st, err = agg.Accumulate(st, []catalog.Value{catalog.Null(catalog.Nullable(catalog.TypeInt64))}, false)
	require.NoError(t, err)
	st, err = agg.Accumulate(st, []catalog.Value{catalog.NewInt64(2)}, false)
	require.NoError(t, err)

	v, err := agg.Finalize(st)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.AsInt64())
}

func TestSumAggIntegerPath(t *testing.T) {
	agg := sumAgg{}
	st := agg.CreateState()
	var err error
	for _, n := range []int64{10, 20, 30} {
		st, err = agg.Accumulate(st, []catalog.Value{catalog.NewInt64(n)}, false)
		require.NoError(t, err)
	}
	v, err := agg.Finalize(st)
	require.NoError(t, err)
	assert.Equal(t, int64(60), v.AsInt64())
	assert.Equal(t, catalog.KindInt64, v.Type().Kind)
}

func TestSumAggOverflowPromotesToFloat(t *testing.T) {
	agg := sumAgg{}
	st := agg.CreateState()
	var err error
	st, err = agg.Accumulate(st, []catalog.Value{catalog.NewInt64(math.MaxInt64)}, false)
	require.NoError(t, err)
	st, err = agg.Accumulate(st, []catalog.Value{catalog.NewInt64(1)}, false)
	require.NoError(t, err)

	v, err := agg.Finalize(st)
	require.NoError(t, err)
	assert.Equal(t, catalog.KindFloat64, v.Type().Kind)
}

func TestSumAggAllNullIsNull(t *testing.T) {
	agg := sumAgg{}
	st := agg.CreateState()
	st, err := agg.Accumulate(st, []catalog.Value{catalog.Null(catalog.Nullable(catalog.TypeInt64))}, false)
	require.NoError(t, err)

	v, err := agg.Finalize(st)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestAvgAgg(t *testing.T) {
	agg := avgAgg{}
	st := agg.CreateState()
	var err error
	for _, n := range []int64{2, 4, 6} {
		st, err = agg.Accumulate(st, []catalog.Value{catalog.NewInt64(n)}, false)
		require.NoError(t, err)
	}
	v, err := agg.Finalize(st)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v.AsFloat64())
}

func TestMinMaxAgg(t *testing.T) {
	minA := minMaxAgg{max: false}
	st := minA.CreateState()
	var err error
	for _, n := range []int64{5, 1, 9, 3} {
		st, err = minA.Accumulate(st, []catalog.Value{catalog.NewInt64(n)}, false)
		require.NoError(t, err)
	}
	v, err := minA.Finalize(st)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.AsInt64())

	maxA := minMaxAgg{max: true}
	st2 := maxA.CreateState()
	for _, n := range []int64{5, 1, 9, 3} {
		st2, err = maxA.Accumulate(st2, []catalog.Value{catalog.NewInt64(n)}, false)
		require.NoError(t, err)
	}
	v, err = maxA.Finalize(st2)
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.AsInt64())
}

func TestDefaultRegistryWiresBuiltins(t *testing.T) {
	r := Default()

	_, ok := r.Get("upper")
	assert.True(t, ok)
	_, ok = r.Get("nonexistent_fn")
	assert.False(t, ok)

	assert.True(t, r.IsAggregate("sum"))
	assert.True(t, r.IsAggregate("COUNT"))
	assert.False(t, r.IsAggregate("upper"))

	_, ok = r.GetAggregate("any")
	assert.True(t, ok)
}
