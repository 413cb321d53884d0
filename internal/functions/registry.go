// Package functions is the default FunctionRegistry a host program links
// into an Executor: it is the concrete collaborator behind pkg/sql's
// FunctionRegistry interface, so the core engine depends on no concrete
// scalar or aggregate function name (it knows only the window functions
// it computes itself).
package functions

import (
	"strings"

	"github.com/JayabrataBasu/chql/pkg/catalog"
	"github.com/JayabrataBasu/chql/pkg/sql"
)

// Registry holds chql's builtin scalar and aggregate functions, keyed
// case-insensitively.
type Registry struct {
	scalars    map[string]sql.ScalarFunction
	aggregates map[string]sql.AggregateFunction
}

// scalarFunc adapts a plain func value to sql.ScalarFunction.
type scalarFunc func(args []catalog.Value, distinct bool) (catalog.Value, error)

func (f scalarFunc) Execute(args []catalog.Value, distinct bool) (catalog.Value, error) {
	return f(args, distinct)
}

// Default returns a Registry populated with every builtin this module
// ships: COALESCE/NULLIF, the string and math function families, date/time
// helpers, and the SUM/AVG/COUNT/MIN/MAX aggregates (plus any/anyLast via
// the scalar-as-aggregate adapter).
func Default() *Registry {
	r := &Registry{
		scalars:    make(map[string]sql.ScalarFunction),
		aggregates: make(map[string]sql.AggregateFunction),
	}
	registerScalars(r)
	registerAggregates(r)
	return r
}

func (r *Registry) addScalar(name string, fn scalarFunc) {
	r.scalars[strings.ToLower(name)] = fn
}

func (r *Registry) addAggregate(name string, fn sql.AggregateFunction) {
	r.aggregates[strings.ToLower(name)] = fn
}

// Get implements sql.FunctionRegistry.
func (r *Registry) Get(name string) (sql.ScalarFunction, bool) {
	fn, ok := r.scalars[strings.ToLower(name)]
	return fn, ok
}

// IsAggregate implements sql.FunctionRegistry.
func (r *Registry) IsAggregate(name string) bool {
	_, ok := r.aggregates[strings.ToLower(name)]
	return ok
}

// GetAggregate implements sql.FunctionRegistry.
func (r *Registry) GetAggregate(name string) (sql.AggregateFunction, bool) {
	fn, ok := r.aggregates[strings.ToLower(name)]
	return fn, ok
}
