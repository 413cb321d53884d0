package sql

import (
	"fmt"
	"strings"

	"github.com/JayabrataBasu/chql/pkg/catalog"
)

// boundColumn names one column a rowBatch carries: the table alias (or
// function/subquery alias) it came from, its own name, and its declared
// type — enough to both build a RowContext per row and to expand a `*`
// or `t.*` projection without re-deriving names from the raw values.
type boundColumn struct {
	Qualifier string
	Name      string
	Type      catalog.Type
}

// materializedRow is one row of a rowBatch: values aligned 1:1 with the
// owning batch's cols.
type materializedRow struct {
	values []catalog.Value
}

// rowBatch is the executor's intermediate FROM-clause representation: a
// schema (cols) plus the rows it produced, fully materialized (§4.D's
// join combinators are nested-loop over fully materialized sides).
type rowBatch struct {
	cols []boundColumn
	rows []materializedRow
}

func emptyRowBatch() *rowBatch {
	return &rowBatch{rows: []materializedRow{{}}}
}

// buildRowContext binds every column of a row to a fresh RowContext,
// chained to outer for correlated-subquery resolution.
func (b *rowBatch) buildRowContext(row materializedRow, outer *RowContext) *RowContext {
	rc := NewRowContext(outer)
	for i, c := range b.cols {
		rc.Bind(c.Qualifier, c.Name, row.values[i])
	}
	return rc
}

func nullRow(n int) materializedRow {
	vals := make([]catalog.Value, n)
	for i := range vals {
		vals[i] = catalog.Null(catalog.Nullable(catalog.TypeNull))
	}
	return materializedRow{values: vals}
}

func concatRows(a, b materializedRow) materializedRow {
	out := make([]catalog.Value, 0, len(a.values)+len(b.values))
	out = append(out, a.values...)
	out = append(out, b.values...)
	return materializedRow{values: out}
}

// resolveFrom materializes ref into a rowBatch: a CTE, a catalog table, a
// table function, a subquery, or a join/array-join combinator.
func (ex *Executor) resolveFrom(ref TableRef, outer *RowContext, params []catalog.Value) (*rowBatch, error) {
	if ref == nil {
		return emptyRowBatch(), nil
	}
	switch r := ref.(type) {
	case *NamedTableRef:
		return ex.resolveNamedTableRef(r, outer, params)
	case *SubqueryTableRef:
		res, err := ex.execSelectChain(r.Query, outer, params)
		if err != nil {
			return nil, err
		}
		return resultToBatch(res, r.Alias), nil
	case *JoinRef:
		return ex.resolveJoin(r, outer, params)
	case *ArrayJoinRef:
		return ex.resolveArrayJoin(r, outer, params)
	default:
		return nil, fmt.Errorf("sql: unsupported FROM clause element %T", ref)
	}
}

func resultToBatch(res *Result, alias string) *rowBatch {
	batch := &rowBatch{cols: make([]boundColumn, len(res.Columns))}
	for i, c := range res.Columns {
		batch.cols[i] = boundColumn{Qualifier: alias, Name: c.Name, Type: c.Type}
	}
	batch.rows = make([]materializedRow, len(res.Rows))
	for i, row := range res.Rows {
		batch.rows[i] = materializedRow{values: row}
	}
	return batch
}

func (ex *Executor) resolveNamedTableRef(r *NamedTableRef, outer *RowContext, params []catalog.Value) (*rowBatch, error) {
	alias := r.Alias
	if alias == "" {
		alias = r.Name
	}

	if len(r.Args) > 0 {
		ectx := &evalCtx{ex: ex, row: NewRowContext(outer), params: params}
		args := make([]catalog.Value, len(r.Args))
		for i, a := range r.Args {
			v, err := ectx.eval(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		batch, err := callTableFunction(r.Name, args)
		if err != nil {
			return nil, err
		}
		for i := range batch.cols {
			batch.cols[i].Qualifier = alias
		}
		return batch, nil
	}

	if cte, ok := ex.ctes[strings.ToLower(r.Name)]; ok {
		return resultToBatch(cte, alias), nil
	}

	table, ok := ex.catalog.Table(r.Name)
	if !ok {
		return nil, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown table %q", r.Name))
	}
	batch := &rowBatch{cols: make([]boundColumn, len(table.Columns))}
	for i, c := range table.Columns {
		batch.cols[i] = boundColumn{Qualifier: alias, Name: c.Name, Type: c.Type}
	}
	batch.rows = make([]materializedRow, len(table.Rows))
	for i, row := range table.Rows {
		batch.rows[i] = materializedRow{values: append([]catalog.Value(nil), row...)}
	}
	return batch, nil
}

func (ex *Executor) resolveJoin(r *JoinRef, outer *RowContext, params []catalog.Value) (*rowBatch, error) {
	left, err := ex.resolveFrom(r.Left, outer, params)
	if err != nil {
		return nil, err
	}
	right, err := ex.resolveFrom(r.Right, outer, params)
	if err != nil {
		return nil, err
	}

	matches := func(l, rr materializedRow) (bool, error) {
		if len(r.Using) > 0 {
			for _, col := range r.Using {
				lv, ok := findColumn(left.cols, l, "", col)
				if !ok {
					return false, NewQueryErrorFromKind(ErrName, fmt.Sprintf("USING column %q not found on left side", col))
				}
				rv, ok := findColumn(right.cols, rr, "", col)
				if !ok {
					return false, NewQueryErrorFromKind(ErrName, fmt.Sprintf("USING column %q not found on right side", col))
				}
				if lv.IsNull() || rv.IsNull() || !lv.Equals(rv) {
					return false, nil
				}
			}
			return true, nil
		}
		if r.On == nil {
			return true, nil
		}
		merged := concatRows(l, rr)
		mergedCols := append(append([]boundColumn(nil), left.cols...), right.cols...)
		mb := &rowBatch{cols: mergedCols}
		rc := mb.buildRowContext(merged, outer)
		ectx := &evalCtx{ex: ex, row: rc, params: params}
		cond, err := ectx.eval(r.On)
		if err != nil {
			return false, err
		}
		return !cond.IsNull() && cond.Truthy(), nil
	}

	switch r.Kind {
	case JoinCross:
		out := &rowBatch{cols: append(append([]boundColumn(nil), left.cols...), right.cols...)}
		for _, l := range left.rows {
			for _, rr := range right.rows {
				out.rows = append(out.rows, concatRows(l, rr))
			}
		}
		return out, nil

	case JoinInner:
		out := &rowBatch{cols: append(append([]boundColumn(nil), left.cols...), right.cols...)}
		for _, l := range left.rows {
			for _, rr := range right.rows {
				ok, err := matches(l, rr)
				if err != nil {
					return nil, err
				}
				if ok {
					out.rows = append(out.rows, concatRows(l, rr))
				}
			}
		}
		return out, nil

	case JoinLeft:
		out := &rowBatch{cols: append(append([]boundColumn(nil), left.cols...), right.cols...)}
		for _, l := range left.rows {
			matched := false
			for _, rr := range right.rows {
				ok, err := matches(l, rr)
				if err != nil {
					return nil, err
				}
				if ok {
					matched = true
					out.rows = append(out.rows, concatRows(l, rr))
				}
			}
			if !matched {
				out.rows = append(out.rows, concatRows(l, nullRow(len(right.cols))))
			}
		}
		return out, nil

	case JoinRight:
		out := &rowBatch{cols: append(append([]boundColumn(nil), left.cols...), right.cols...)}
		for _, rr := range right.rows {
			matched := false
			for _, l := range left.rows {
				ok, err := matches(l, rr)
				if err != nil {
					return nil, err
				}
				if ok {
					matched = true
					out.rows = append(out.rows, concatRows(l, rr))
				}
			}
			if !matched {
				out.rows = append(out.rows, concatRows(nullRow(len(left.cols)), rr))
			}
		}
		return out, nil

	case JoinFull:
		out := &rowBatch{cols: append(append([]boundColumn(nil), left.cols...), right.cols...)}
		rightMatched := make([]bool, len(right.rows))
		for _, l := range left.rows {
			matched := false
			for ri, rr := range right.rows {
				ok, err := matches(l, rr)
				if err != nil {
					return nil, err
				}
				if ok {
					matched = true
					rightMatched[ri] = true
					out.rows = append(out.rows, concatRows(l, rr))
				}
			}
			if !matched {
				out.rows = append(out.rows, concatRows(l, nullRow(len(right.cols))))
			}
		}
		for ri, rr := range right.rows {
			if !rightMatched[ri] {
				out.rows = append(out.rows, concatRows(nullRow(len(left.cols)), rr))
			}
		}
		return out, nil

	case JoinLeftSemi:
		out := &rowBatch{cols: append([]boundColumn(nil), left.cols...)}
		for _, l := range left.rows {
			for _, rr := range right.rows {
				ok, err := matches(l, rr)
				if err != nil {
					return nil, err
				}
				if ok {
					out.rows = append(out.rows, l)
					break
				}
			}
		}
		return out, nil

	case JoinLeftAnti:
		out := &rowBatch{cols: append([]boundColumn(nil), left.cols...)}
		for _, l := range left.rows {
			matched := false
			for _, rr := range right.rows {
				ok, err := matches(l, rr)
				if err != nil {
					return nil, err
				}
				if ok {
					matched = true
					break
				}
			}
			if !matched {
				out.rows = append(out.rows, l)
			}
		}
		return out, nil

	default:
		return nil, NewQueryErrorFromKind(ErrNotImplemented, fmt.Sprintf("join kind %v is not implemented", r.Kind))
	}
}

func findColumn(cols []boundColumn, row materializedRow, qualifier, name string) (catalog.Value, bool) {
	for i, c := range cols {
		if (qualifier == "" || strings.EqualFold(c.Qualifier, qualifier)) && strings.EqualFold(c.Name, name) {
			return row.values[i], true
		}
	}
	return catalog.Value{}, false
}

// resolveArrayJoin evaluates Base.Expr (expected to be an array) per base
// row and fans it out into one row per element, appending the element
// under Alias. A LEFT ARRAY JOIN keeps the base row (with a null element)
// when the array is empty; a plain ARRAY JOIN drops it.
func (ex *Executor) resolveArrayJoin(r *ArrayJoinRef, outer *RowContext, params []catalog.Value) (*rowBatch, error) {
	base, err := ex.resolveFrom(r.Base, outer, params)
	if err != nil {
		return nil, err
	}
	alias := r.Alias
	if alias == "" {
		alias = "arrayJoin"
	}
	elemType := catalog.TypeNull
	out := &rowBatch{cols: append(append([]boundColumn(nil), base.cols...), boundColumn{Qualifier: alias, Name: alias, Type: elemType})}

	for _, row := range base.rows {
		rc := base.buildRowContext(row, outer)
		ectx := &evalCtx{ex: ex, row: rc, params: params}
		v, err := ectx.eval(r.Expr)
		if err != nil {
			return nil, err
		}
		elems := v.AsSlice()
		if len(elems) == 0 {
			if r.Left {
				out.rows = append(out.rows, concatRows(row, materializedRow{values: []catalog.Value{catalog.Null(catalog.Nullable(catalog.TypeNull))}}))
			}
			continue
		}
		for _, e := range elems {
			out.rows = append(out.rows, concatRows(row, materializedRow{values: []catalog.Value{e}}))
		}
	}
	return out, nil
}
