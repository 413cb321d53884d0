package sql

import "github.com/JayabrataBasu/chql/pkg/catalog"

// RowContext binds column values for one row during expression
// evaluation. It keeps two layers: a qualified layer (table alias/name ->
// column -> value), used to resolve `t.col` references across a join,
// and an unqualified layer (column -> value) used to resolve bare `col`
// references when the name is unambiguous across every table
// contributing to the row.
type RowContext struct {
	qualified   map[string]map[string]catalog.Value
	unqualified map[string]catalog.Value
	ambiguous   map[string]bool
	aggState    map[string]catalog.Value // GROUP BY aggregate results, keyed by select-list alias/expression text
	parent      *RowContext              // enclosing row, for correlated subqueries
}

// NewRowContext returns an empty RowContext, optionally chained to a
// parent row for correlated-subquery column resolution.
func NewRowContext(parent *RowContext) *RowContext {
	return &RowContext{
		qualified:   make(map[string]map[string]catalog.Value),
		unqualified: make(map[string]catalog.Value),
		ambiguous:   make(map[string]bool),
		parent:      parent,
	}
}

// Bind records one column's value under a table qualifier. It also
// populates the unqualified layer, unless a column of the same name was
// already bound with a value that is not Equals to v — in which case the
// bare name becomes ambiguous and must be qualified to resolve.
func (r *RowContext) Bind(qualifier, column string, v catalog.Value) {
	lc := lowerKey(qualifier)
	if r.qualified[lc] == nil {
		r.qualified[lc] = make(map[string]catalog.Value)
	}
	r.qualified[lc][lowerKey(column)] = v

	key := lowerKey(column)
	if r.ambiguous[key] {
		return
	}
	if existing, ok := r.unqualified[key]; ok {
		if !existing.Equals(v) {
			r.ambiguous[key] = true
			delete(r.unqualified, key)
		}
		return
	}
	r.unqualified[key] = v
}

// Lookup resolves a (possibly unqualified) column reference.
func (r *RowContext) Lookup(qualifier, column string) (catalog.Value, bool) {
	if qualifier != "" {
		if tbl, ok := r.qualified[lowerKey(qualifier)]; ok {
			if v, ok := tbl[lowerKey(column)]; ok {
				return v, true
			}
		}
		if r.parent != nil {
			return r.parent.Lookup(qualifier, column)
		}
		return catalog.Value{}, false
	}
	if v, ok := r.unqualified[lowerKey(column)]; ok {
		return v, true
	}
	if r.ambiguous[lowerKey(column)] {
		return catalog.Value{}, false
	}
	if r.parent != nil {
		return r.parent.Lookup(qualifier, column)
	}
	return catalog.Value{}, false
}

// IsAmbiguous reports whether an unqualified reference to column cannot
// be resolved because more than one table in this row contributed a
// differing value under that name.
func (r *RowContext) IsAmbiguous(column string) bool {
	return r.ambiguous[lowerKey(column)]
}

func lowerKey(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
