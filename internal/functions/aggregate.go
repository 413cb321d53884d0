package functions

import (
	"github.com/JayabrataBasu/chql/pkg/catalog"
	"github.com/JayabrataBasu/chql/pkg/sql"
)

func registerAggregates(r *Registry) {
	r.addAggregate("count", countAgg{})
	r.addAggregate("sum", sumAgg{})
	r.addAggregate("avg", avgAgg{})
	r.addAggregate("min", minMaxAgg{max: false})
	r.addAggregate("max", minMaxAgg{max: true})

	any := sql.NewScalarAggregate(scalarFunc(coalesceFn))
	r.addAggregate("any", any)
	anyLast := sql.NewScalarAggregate(scalarFunc(func(args []catalog.Value, distinct bool) (catalog.Value, error) {
		rev := make([]catalog.Value, len(args))
		for i, a := range args {
			rev[len(args)-1-i] = a
		}
		return coalesceFn(rev, distinct)
	}))
	r.addAggregate("anylast", anyLast)
}

// countAgg implements COUNT(*) and COUNT(expr): the former counts rows,
// the latter counts non-null values of its argument.
type countAgg struct{}

func (countAgg) CreateState() any { return int64(0) }

func (countAgg) Accumulate(state any, args []catalog.Value, distinct bool) (any, error) {
	n := state.(int64)
	if len(args) == 0 {
		return n + 1, nil
	}
	if !args[0].IsNull() {
		n++
	}
	return n, nil
}

func (countAgg) Finalize(state any) (catalog.Value, error) {
	return catalog.NewInt64(state.(int64)), nil
}

// sumState widens an integer running sum to float64 on overflow rather
// than coercing through float64 unconditionally, so exact integer sums
// stay exact until they genuinely don't fit.
type sumState struct {
	hasValue  bool
	isFloat   bool
	intSum    int64
	floatSum  float64
}

// sumAgg implements SUM over both integer and floating-point/decimal
// columns.
type sumAgg struct{}

func (sumAgg) CreateState() any { return &sumState{} }

func (sumAgg) Accumulate(state any, args []catalog.Value, _ bool) (any, error) {
	st := state.(*sumState)
	if len(args) != 1 {
		return st, sql.NewQueryErrorFromKind(sql.ErrArity, "sum takes exactly 1 argument")
	}
	v := args[0]
	if v.IsNull() {
		return st, nil
	}
	st.hasValue = true
	if st.isFloat {
		st.floatSum += asFloat64(v)
		return st, nil
	}
	if isIntegerKind(v.Type()) {
		var n int64
		if isUnsignedKind(v.Type()) {
			u := v.AsUInt64()
			if u > (1<<63 - 1) {
				st.isFloat = true
				st.floatSum = float64(st.intSum) + float64(u)
				return st, nil
			}
			n = int64(u)
		} else {
			n = v.AsInt64()
		}
		sum := st.intSum + n
		if (n > 0 && sum < st.intSum) || (n < 0 && sum > st.intSum) {
			st.isFloat = true
			st.floatSum = float64(st.intSum) + float64(n)
			return st, nil
		}
		st.intSum = sum
		return st, nil
	}
	st.isFloat = true
	st.floatSum += asFloat64(v)
	return st, nil
}

func (sumAgg) Finalize(state any) (catalog.Value, error) {
	st := state.(*sumState)
	if !st.hasValue {
		return catalog.Null(catalog.Nullable(catalog.TypeInt64)), nil
	}
	if st.isFloat {
		return catalog.NewFloat64(st.floatSum), nil
	}
	return catalog.NewInt64(st.intSum), nil
}

// avgState mirrors sumState's widening discipline for its running total.
type avgState struct {
	sumState
	count int64
}

type avgAgg struct{}

func (avgAgg) CreateState() any { return &avgState{} }

func (avgAgg) Accumulate(state any, args []catalog.Value, distinct bool) (any, error) {
	st := state.(*avgState)
	if len(args) != 1 {
		return st, sql.NewQueryErrorFromKind(sql.ErrArity, "avg takes exactly 1 argument")
	}
	if args[0].IsNull() {
		return st, nil
	}
	if _, err := (sumAgg{}).Accumulate(&st.sumState, args, distinct); err != nil {
		return st, err
	}
	st.count++
	return st, nil
}

func (avgAgg) Finalize(state any) (catalog.Value, error) {
	st := state.(*avgState)
	if st.count == 0 {
		return catalog.Null(catalog.Nullable(catalog.TypeFloat64)), nil
	}
	var total float64
	if st.isFloat {
		total = st.floatSum
	} else {
		total = float64(st.intSum)
	}
	return catalog.NewFloat64(total / float64(st.count)), nil
}

// minMaxAgg implements MIN and MAX using the catalog's total ordering
// (compare.go), so it works uniformly across every orderable Kind.
type minMaxAgg struct{ max bool }

type minMaxState struct {
	has bool
	val catalog.Value
}

func (minMaxAgg) CreateState() any { return &minMaxState{} }

func (a minMaxAgg) Accumulate(state any, args []catalog.Value, _ bool) (any, error) {
	st := state.(*minMaxState)
	if len(args) != 1 {
		return st, sql.NewQueryErrorFromKind(sql.ErrArity, "min/max takes exactly 1 argument")
	}
	v := args[0]
	if v.IsNull() {
		return st, nil
	}
	if !st.has {
		st.val = v
		st.has = true
		return st, nil
	}
	cmp, err := v.CompareTo(st.val)
	if err != nil {
		return st, err
	}
	if (a.max && cmp > 0) || (!a.max && cmp < 0) {
		st.val = v
	}
	return st, nil
}

func (minMaxAgg) Finalize(state any) (catalog.Value, error) {
	st := state.(*minMaxState)
	if !st.has {
		return catalog.Null(catalog.Nullable(catalog.TypeNull)), nil
	}
	return st.val, nil
}
