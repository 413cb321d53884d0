package sql

import "github.com/JayabrataBasu/chql/pkg/catalog"

// ScalarFunction is a named function of zero or more argument values to
// one result value, with no cross-row state. The executor calls Execute
// once per row.
type ScalarFunction interface {
	// Execute evaluates the function over already-evaluated argument
	// values. distinct is only meaningful for the handful of scalar
	// functions that also accept DISTINCT (e.g. array-building helpers);
	// most implementations ignore it.
	Execute(args []catalog.Value, distinct bool) (catalog.Value, error)
}

// AggregateFunction is a named function that folds a group of rows (or,
// for a window function, a frame of rows) into one result, carrying
// mutable state across Accumulate calls.
type AggregateFunction interface {
	// CreateState returns a fresh accumulator for one group.
	CreateState() any
	// Accumulate folds one row's already-evaluated argument values into
	// state. distinct, when true, means the caller has already
	// deduplicated the values passed across the lifetime of this state.
	Accumulate(state any, args []catalog.Value, distinct bool) (any, error)
	// Finalize converts accumulator state into the aggregate's result
	// value once every row in the group has been folded in.
	Finalize(state any) (catalog.Value, error)
}

// FunctionRegistry is the executor's sole collaborator for name
// resolution of scalar and aggregate function calls — apart from the
// positional window functions (row_number, rank, dense_rank, ntile, lag,
// lead, first_value, last_value) that executor_window.go computes itself,
// the executor never switches on a function name, so a caller can substitute or
// extend the registry (e.g. internal/functions.Default()) without
// touching pkg/sql.
type FunctionRegistry interface {
	// Get resolves name to a scalar function, ok=false if name is not a
	// known scalar (it may still be a known aggregate).
	Get(name string) (fn ScalarFunction, ok bool)
	// IsAggregate reports whether name is a known aggregate function.
	IsAggregate(name string) bool
	// GetAggregate resolves name to an aggregate function, ok=false if
	// name is not a known aggregate.
	GetAggregate(name string) (fn AggregateFunction, ok bool)
}

// scalarAsAggregate adapts a ScalarFunction for use as a one-shot
// aggregate: Accumulate only collects each row's argument values, and
// Finalize evaluates the scalar once over all of them, flattened in row
// order. This lets a handful of ClickHouse
// aggregate-looking functions (e.g. any(), anyLast()) be expressed as
// plain scalar logic over the running list of seen rows instead of a
// bespoke AggregateFunction implementation.
type scalarAsAggregate struct {
	scalar ScalarFunction
}

// NewScalarAggregate wraps a ScalarFunction so a FunctionRegistry can
// expose it through GetAggregate as well as Get.
func NewScalarAggregate(scalar ScalarFunction) AggregateFunction {
	return &scalarAsAggregate{scalar: scalar}
}

func (a *scalarAsAggregate) CreateState() any {
	return [][]catalog.Value{}
}

func (a *scalarAsAggregate) Accumulate(state any, args []catalog.Value, distinct bool) (any, error) {
	rows := state.([][]catalog.Value)
	rows = append(rows, args)
	return rows, nil
}

func (a *scalarAsAggregate) Finalize(state any) (catalog.Value, error) {
	rows := state.([][]catalog.Value)
	if len(rows) == 0 {
		return catalog.Value{}, nil
	}
	flat := make([]catalog.Value, 0, len(rows))
	for _, r := range rows {
		flat = append(flat, r...)
	}
	return a.scalar.Execute(flat, false)
}
