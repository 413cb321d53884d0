package sql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JayabrataBasu/chql/pkg/catalog"
	"github.com/JayabrataBasu/chql/pkg/engineopts"
)

// execSelectChain runs a SelectStmt together with every set-operation
// term chained onto it (SelectStmt.Next/SetOp), left to right.
func (ex *Executor) execSelectChain(stmt *SelectStmt, outer *RowContext, params []catalog.Value) (*Result, error) {
	result, err := ex.execSelectTerm(stmt, outer, params)
	if err != nil {
		return nil, err
	}
	cur := stmt
	for cur.SetOp != SetOpNone && cur.Next != nil {
		next := cur.Next
		nextResult, err := ex.execSelectTerm(next, outer, params)
		if err != nil {
			return nil, err
		}
		result, err = combineSetOp(cur.SetOp, result, nextResult)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return result, nil
}

// execSelectTerm runs exactly one SELECT (ignoring any chained set-op
// term): registers CTEs, materializes FROM, filters WHERE, and dispatches
// to the grouped or plain/window pipeline.
func (ex *Executor) execSelectTerm(stmt *SelectStmt, outer *RowContext, params []catalog.Value) (*Result, error) {
	var restores []func()
	defer func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}()

	for _, cte := range stmt.CTEs {
		res, err := ex.execSelectChain(cte.Query, outer, params)
		if err != nil {
			return nil, err
		}
		if len(cte.Columns) > 0 {
			if len(cte.Columns) != len(res.Columns) {
				return nil, fmt.Errorf("sql: CTE %q declares %d columns, query produced %d", cte.Name, len(cte.Columns), len(res.Columns))
			}
			for i, n := range cte.Columns {
				res.Columns[i].Name = n
			}
		}
		key := strings.ToLower(cte.Name)
		old, had := ex.ctes[key]
		ex.ctes[key] = res
		restores = append(restores, func() {
			if had {
				ex.ctes[key] = old
			} else {
				delete(ex.ctes, key)
			}
		})
	}

	batch, err := ex.resolveFrom(stmt.From, outer, params)
	if err != nil {
		return nil, err
	}

	filtered := make([]materializedRow, 0, len(batch.rows))
	for _, row := range batch.rows {
		if stmt.Where == nil {
			filtered = append(filtered, row)
			continue
		}
		rc := batch.buildRowContext(row, outer)
		ectx := &evalCtx{ex: ex, row: rc, params: params}
		cond, err := ectx.eval(stmt.Where)
		if err != nil {
			return nil, err
		}
		if !cond.IsNull() && cond.Truthy() {
			filtered = append(filtered, row)
		}
	}

	aggCalls := map[*FuncCallExpr]bool{}
	for _, col := range stmt.Columns {
		if !col.Star {
			collectAggregateCalls(ex, col.Expr, aggCalls)
		}
	}
	if stmt.Having != nil {
		collectAggregateCalls(ex, stmt.Having, aggCalls)
	}

	maxRows, err := ex.resolveMaxResultRows(stmt.Settings, params)
	if err != nil {
		return nil, err
	}

	var res *Result
	if len(stmt.GroupBy) > 0 || len(aggCalls) > 0 {
		res, err = ex.execGroupedSelect(stmt, batch, filtered, outer, params, aggCalls)
	} else {
		res, err = ex.execPlainSelect(stmt, batch, filtered, outer, params)
	}
	if err != nil {
		return nil, err
	}
	if maxRows > 0 && len(res.Rows) > maxRows {
		res.Rows = res.Rows[:maxRows]
	}
	return res, nil
}

// resolveMaxResultRows validates a SELECT's SETTINGS clause against
// pkg/engineopts's known keys and returns the effective row cap: a
// per-query `max_result_rows` overrides the session default, 0 means
// unlimited. Unknown keys either error or are ignored, per
// engineopts.Options.UnknownSettings.
func (ex *Executor) resolveMaxResultRows(settings []SettingItem, params []catalog.Value) (int, error) {
	maxRows := ex.opts.MaxResultRows
	for _, s := range settings {
		if !engineopts.IsKnownSettingKey(s.Name) {
			if ex.opts.RejectsUnknownSettings() {
				return 0, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown SETTINGS key %q", s.Name))
			}
			continue
		}
		v, err := ex.evalConst(s.Value, params)
		if err != nil {
			return 0, err
		}
		if strings.EqualFold(s.Name, "max_result_rows") {
			maxRows = int(v.AsInt64())
		}
		// max_execution_time_ms is recorded by engineopts, not enforced
		// here: the executor has no suspension points to cancel (§5).
	}
	return maxRows, nil
}

// collectAggregateCalls walks expr, appending every aggregate function
// call it finds (identified via the registry) into out, keyed by AST
// pointer identity. It does not descend into an aggregate call's own
// arguments — nested aggregates are not supported.
func collectAggregateCalls(ex *Executor, expr Expression, out map[*FuncCallExpr]bool) {
	switch e := expr.(type) {
	case nil:
	case *FuncCallExpr:
		if e.Window == nil && ex.registry != nil && ex.registry.IsAggregate(e.Name) {
			out[e] = true
			return
		}
		for _, a := range e.Args {
			collectAggregateCalls(ex, a, out)
		}
	case *BinaryExpr:
		collectAggregateCalls(ex, e.Left, out)
		collectAggregateCalls(ex, e.Right, out)
	case *UnaryExpr:
		collectAggregateCalls(ex, e.Expr, out)
	case *AliasExpr:
		collectAggregateCalls(ex, e.Expr, out)
	case *CastExpr:
		collectAggregateCalls(ex, e.Expr, out)
	case *IsNullExpr:
		collectAggregateCalls(ex, e.Expr, out)
	case *BetweenExpr:
		collectAggregateCalls(ex, e.Expr, out)
		collectAggregateCalls(ex, e.Low, out)
		collectAggregateCalls(ex, e.High, out)
	case *InExpr:
		collectAggregateCalls(ex, e.Expr, out)
		for _, v := range e.Values {
			collectAggregateCalls(ex, v, out)
		}
	case *CaseExpr:
		collectAggregateCalls(ex, e.Operand, out)
		for _, w := range e.Whens {
			collectAggregateCalls(ex, w.Cond, out)
			collectAggregateCalls(ex, w.Result, out)
		}
		collectAggregateCalls(ex, e.Else, out)
	case *ArrayExpr:
		for _, el := range e.Elems {
			collectAggregateCalls(ex, el, out)
		}
	case *TupleExpr:
		for _, el := range e.Elems {
			collectAggregateCalls(ex, el, out)
		}
	case *IndexExpr:
		collectAggregateCalls(ex, e.Expr, out)
		collectAggregateCalls(ex, e.Index, out)
	}
}

// collectWindowCalls walks a select list, returning every window-function
// call (FuncCallExpr with a non-nil Window) in stable left-to-right order.
func collectWindowCalls(columns []SelectColumn) []*FuncCallExpr {
	var out []*FuncCallExpr
	seen := map[*FuncCallExpr]bool{}
	var walk func(expr Expression)
	walk = func(expr Expression) {
		switch e := expr.(type) {
		case nil:
		case *FuncCallExpr:
			if e.Window != nil && !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
			for _, a := range e.Args {
				walk(a)
			}
		case *BinaryExpr:
			walk(e.Left)
			walk(e.Right)
		case *UnaryExpr:
			walk(e.Expr)
		case *AliasExpr:
			walk(e.Expr)
		case *CastExpr:
			walk(e.Expr)
		case *IsNullExpr:
			walk(e.Expr)
		case *BetweenExpr:
			walk(e.Expr)
			walk(e.Low)
			walk(e.High)
		case *InExpr:
			walk(e.Expr)
			for _, v := range e.Values {
				walk(v)
			}
		case *CaseExpr:
			walk(e.Operand)
			for _, w := range e.Whens {
				walk(w.Cond)
				walk(w.Result)
			}
			walk(e.Else)
		case *ArrayExpr:
			for _, el := range e.Elems {
				walk(el)
			}
		case *TupleExpr:
			for _, el := range e.Elems {
				walk(el)
			}
		case *IndexExpr:
			walk(e.Expr)
			walk(e.Index)
		}
	}
	for _, col := range columns {
		walk(col.Expr)
	}
	return out
}

// --- plain / windowed pipeline ------------------------------------------

func (ex *Executor) execPlainSelect(stmt *SelectStmt, batch *rowBatch, filtered []materializedRow, outer *RowContext, params []catalog.Value) (*Result, error) {
	winCalls := collectWindowCalls(stmt.Columns)
	var winValues map[*FuncCallExpr][]catalog.Value
	if len(winCalls) > 0 {
		wv, err := ex.computeWindows(batch, filtered, winCalls, outer, params)
		if err != nil {
			return nil, err
		}
		winValues = wv
	}
	lookupAt := func(idx int) aggLookup {
		if winValues == nil {
			return nil
		}
		return func(call *FuncCallExpr) (catalog.Value, bool) {
			vals, ok := winValues[call]
			if !ok {
				return catalog.Value{}, false
			}
			return vals[idx], true
		}
	}

	type item struct {
		rc   *RowContext
		vals []catalog.Value
		src  int // index into filtered, for window-value lookup
	}
	items := make([]item, len(filtered))
	for i, row := range filtered {
		rc := batch.buildRowContext(row, outer)
		_, vals, err := ex.projectRow(stmt.Columns, batch.cols, rc, params, lookupAt(i))
		if err != nil {
			return nil, err
		}
		items[i] = item{rc: rc, vals: vals, src: i}
	}

	if stmt.Distinct {
		seen := map[string]bool{}
		out := items[:0]
		for _, it := range items {
			key := rowKey(it.vals)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, it)
		}
		items = out
	}

	if len(stmt.OrderBy) > 0 {
		idx := make([]int, len(items))
		for i := range idx {
			idx[i] = i
		}
		cols := make([][]catalog.Value, len(stmt.OrderBy))
		for oi, oitem := range stmt.OrderBy {
			resolved := resolveOrderExpr(stmt, oitem.Expr)
			vals := make([]catalog.Value, len(items))
			for ri, it := range items {
				ectx := &evalCtx{ex: ex, row: it.rc, params: params}
				v, err := ectx.evalWithAgg(resolved, lookupAt(it.src))
				if err != nil {
					return nil, err
				}
				vals[ri] = v
			}
			cols[oi] = vals
		}
		sort.SliceStable(idx, func(a, b int) bool {
			ia, ib := idx[a], idx[b]
			for oi, oitem := range stmt.OrderBy {
				less, equal := ex.compareForOrder(cols[oi][ia], cols[oi][ib], oitem)
				if !equal {
					return less
				}
			}
			return false
		})
		reordered := make([]item, len(items))
		for i, p := range idx {
			reordered[i] = items[p]
		}
		items = reordered
	}

	rows := make([][]catalog.Value, len(items))
	for i, it := range items {
		rows[i] = it.vals
	}
	rows, err := ex.applyLimitOffset(stmt, rows, params)
	if err != nil {
		return nil, err
	}

	var sampleRC *RowContext
	var sampleLookup aggLookup
	if len(filtered) > 0 {
		sampleRC = batch.buildRowContext(filtered[0], outer)
		sampleLookup = lookupAt(0)
	}
	outCols, err := ex.buildResultColumns(stmt.Columns, batch.cols, sampleRC, sampleLookup, params)
	if err != nil {
		return nil, err
	}

	return &Result{Columns: outCols, Rows: rows}, nil
}

// --- GROUP BY / aggregate pipeline ---------------------------------------

type selectGroup struct {
	rep     *RowContext
	aggVals map[*FuncCallExpr]catalog.Value
}

func (ex *Executor) execGroupedSelect(stmt *SelectStmt, batch *rowBatch, filtered []materializedRow, outer *RowContext, params []catalog.Value, aggCalls map[*FuncCallExpr]bool) (*Result, error) {
	order := []string{}
	groups := map[string]*selectGroup{}
	states := map[string]map[*FuncCallExpr]any{}

	ensureGroup := func(key string, rc *RowContext) *selectGroup {
		g, ok := groups[key]
		if !ok {
			g = &selectGroup{rep: rc}
			groups[key] = g
			states[key] = map[*FuncCallExpr]any{}
			order = append(order, key)
		}
		return g
	}

	if len(stmt.GroupBy) == 0 {
		ensureGroup("", nil)
		for _, row := range filtered {
			rc := batch.buildRowContext(row, outer)
			if groups[""].rep == nil {
				groups[""].rep = rc
			}
			if err := ex.accumulateRow(rc, params, aggCalls, states[""]); err != nil {
				return nil, err
			}
		}
		if groups[""].rep == nil {
			groups[""].rep = NewRowContext(outer)
		}
	} else {
		for _, row := range filtered {
			rc := batch.buildRowContext(row, outer)
			ectx := &evalCtx{ex: ex, row: rc, params: params}
			parts := make([]string, len(stmt.GroupBy))
			for i, ge := range stmt.GroupBy {
				v, err := ectx.eval(ge)
				if err != nil {
					return nil, err
				}
				parts[i] = v.GroupKey()
			}
			key := catalog.JoinGroupKeys(parts)
			ensureGroup(key, rc)
			if err := ex.accumulateRow(rc, params, aggCalls, states[key]); err != nil {
				return nil, err
			}
		}
	}

	for _, key := range order {
		g := groups[key]
		g.aggVals = map[*FuncCallExpr]catalog.Value{}
		for call := range aggCalls {
			fn, err := ex.resolveAggregate(call.Name)
			if err != nil {
				return nil, err
			}
			st, ok := states[key][call]
			if !ok {
				st = fn.CreateState()
			}
			v, err := fn.Finalize(st)
			if err != nil {
				return nil, err
			}
			g.aggVals[call] = v
		}
	}

	lookupFor := func(g *selectGroup) aggLookup {
		return func(call *FuncCallExpr) (catalog.Value, bool) {
			v, ok := g.aggVals[call]
			return v, ok
		}
	}

	var survivors []*selectGroup
	for _, key := range order {
		g := groups[key]
		if stmt.Having != nil {
			ectx := &evalCtx{ex: ex, row: g.rep, params: params}
			cond, err := ectx.evalWithAgg(stmt.Having, lookupFor(g))
			if err != nil {
				return nil, err
			}
			if cond.IsNull() || !cond.Truthy() {
				continue
			}
		}
		survivors = append(survivors, g)
	}

	type groupedRow struct {
		g    *selectGroup
		vals []catalog.Value
	}
	rowsGR := make([]groupedRow, 0, len(survivors))
	for _, g := range survivors {
		_, vals, err := ex.projectRow(stmt.Columns, batch.cols, g.rep, params, lookupFor(g))
		if err != nil {
			return nil, err
		}
		rowsGR = append(rowsGR, groupedRow{g: g, vals: vals})
	}

	if stmt.Distinct {
		seen := map[string]bool{}
		out := rowsGR[:0]
		for _, gr := range rowsGR {
			key := rowKey(gr.vals)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, gr)
		}
		rowsGR = out
	}

	if len(stmt.OrderBy) > 0 {
		idx := make([]int, len(rowsGR))
		for i := range idx {
			idx[i] = i
		}
		cols := make([][]catalog.Value, len(stmt.OrderBy))
		for oi, item := range stmt.OrderBy {
			resolved := resolveOrderExpr(stmt, item.Expr)
			vals := make([]catalog.Value, len(rowsGR))
			for ri, gr := range rowsGR {
				ectx := &evalCtx{ex: ex, row: gr.g.rep, params: params}
				v, err := ectx.evalWithAgg(resolved, lookupFor(gr.g))
				if err != nil {
					return nil, err
				}
				vals[ri] = v
			}
			cols[oi] = vals
		}
		sort.SliceStable(idx, func(a, b int) bool {
			ia, ib := idx[a], idx[b]
			for oi, item := range stmt.OrderBy {
				less, equal := ex.compareForOrder(cols[oi][ia], cols[oi][ib], item)
				if !equal {
					return less
				}
			}
			return false
		})
		reordered := make([]groupedRow, len(rowsGR))
		for i, p := range idx {
			reordered[i] = rowsGR[p]
		}
		rowsGR = reordered
	}

	rows := make([][]catalog.Value, len(rowsGR))
	for i, gr := range rowsGR {
		rows[i] = gr.vals
	}
	rows, err := ex.applyLimitOffset(stmt, rows, params)
	if err != nil {
		return nil, err
	}

	var sampleRC *RowContext
	var sampleLookup aggLookup
	if len(survivors) > 0 {
		sampleRC = survivors[0].rep
		sampleLookup = lookupFor(survivors[0])
	}
	outCols, err := ex.buildResultColumns(stmt.Columns, batch.cols, sampleRC, sampleLookup, params)
	if err != nil {
		return nil, err
	}

	return &Result{Columns: outCols, Rows: rows}, nil
}

func (ex *Executor) accumulateRow(rc *RowContext, params []catalog.Value, aggCalls map[*FuncCallExpr]bool, states map[*FuncCallExpr]any) error {
	ectx := &evalCtx{ex: ex, row: rc, params: params}
	for call := range aggCalls {
		fn, err := ex.resolveAggregate(call.Name)
		if err != nil {
			return err
		}
		args := make([]catalog.Value, 0, len(call.Args))
		for _, a := range call.Args {
			if _, ok := a.(*StarExpr); ok {
				args = append(args, catalog.NewInt64(1))
				continue
			}
			v, err := ectx.eval(a)
			if err != nil {
				return err
			}
			args = append(args, v)
		}
		st, ok := states[call]
		if !ok {
			st = fn.CreateState()
		}
		newSt, err := fn.Accumulate(st, args, call.Distinct)
		if err != nil {
			return err
		}
		states[call] = newSt
	}
	return nil
}

func (ex *Executor) resolveAggregate(name string) (AggregateFunction, error) {
	if ex.registry == nil {
		return nil, fmt.Errorf("sql: no function registry configured, cannot resolve aggregate %q", name)
	}
	fn, ok := ex.registry.GetAggregate(name)
	if !ok {
		return nil, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown aggregate function %q", name))
	}
	return fn, nil
}

// --- projection / schema / ordering helpers ------------------------------

// projectRow evaluates a select list against one row, expanding `*`/`t.*`
// against the FROM schema's columns.
func (ex *Executor) projectRow(columns []SelectColumn, batchCols []boundColumn, rc *RowContext, params []catalog.Value, lookup aggLookup) ([]string, []catalog.Value, error) {
	ectx := &evalCtx{ex: ex, row: rc, params: params}
	var names []string
	var values []catalog.Value
	for i, col := range columns {
		if col.Star {
			for _, bc := range batchCols {
				if col.StarQual != "" && !strings.EqualFold(bc.Qualifier, col.StarQual) {
					continue
				}
				v, ok := rc.Lookup(bc.Qualifier, bc.Name)
				if !ok {
					v = catalog.Null(catalog.Nullable(catalog.TypeNull))
				}
				names = append(names, bc.Name)
				values = append(values, v)
			}
			continue
		}
		v, err := ectx.evalWithAgg(col.Expr, lookup)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, nameForColumn(col, i))
		values = append(values, v)
	}
	return names, values, nil
}

func nameForColumn(col SelectColumn, idx int) string {
	if col.Alias != "" {
		return col.Alias
	}
	switch e := col.Expr.(type) {
	case *ColumnRefExpr:
		return e.Name
	case *FuncCallExpr:
		return e.Name
	}
	return fmt.Sprintf("col_%d", idx+1)
}

func (ex *Executor) buildResultColumns(columns []SelectColumn, batchCols []boundColumn, sample *RowContext, lookup aggLookup, params []catalog.Value) ([]ResultColumn, error) {
	if sample != nil {
		names, values, err := ex.projectRow(columns, batchCols, sample, params, lookup)
		if err != nil {
			return nil, err
		}
		out := make([]ResultColumn, len(names))
		for i, n := range names {
			out[i] = ResultColumn{Name: n, Type: values[i].Type()}
		}
		return out, nil
	}
	var out []ResultColumn
	for i, col := range columns {
		if col.Star {
			for _, bc := range batchCols {
				if col.StarQual != "" && !strings.EqualFold(bc.Qualifier, col.StarQual) {
					continue
				}
				out = append(out, ResultColumn{Name: bc.Name, Type: bc.Type})
			}
			continue
		}
		t := catalog.Nullable(catalog.TypeNull)
		if ref, ok := col.Expr.(*ColumnRefExpr); ok {
			for _, bc := range batchCols {
				if strings.EqualFold(bc.Name, ref.Name) && (ref.Table == "" || strings.EqualFold(bc.Qualifier, ref.Table)) {
					t = bc.Type
					break
				}
			}
		}
		out = append(out, ResultColumn{Name: nameForColumn(col, i), Type: t})
	}
	return out, nil
}

// resolveOrderExpr substitutes a bare ORDER BY identifier with its
// matching SELECT-list alias expression, per §4.D step 8.
func resolveOrderExpr(stmt *SelectStmt, expr Expression) Expression {
	ref, ok := expr.(*ColumnRefExpr)
	if !ok || ref.Table != "" {
		return expr
	}
	for _, col := range stmt.Columns {
		if col.Alias != "" && strings.EqualFold(col.Alias, ref.Name) {
			return col.Expr
		}
	}
	return expr
}

// compareForOrder reports the sort relation between two ORDER BY values
// under one OrderItem's null-placement and direction, and whether they
// compare equal (so the caller can fall through to the next ORDER BY key).
// The session's engineopts default governs null placement when the query
// gives no explicit NULLS FIRST/LAST.
func (ex *Executor) compareForOrder(va, vb catalog.Value, item OrderItem) (less bool, equal bool) {
	nullsFirst := ex.opts.NullsFirstDefault()
	if item.HasNulls {
		nullsFirst = item.NullsFirst
	}
	if va.IsNull() && vb.IsNull() {
		return false, true
	}
	if va.IsNull() {
		return nullsFirst, false
	}
	if vb.IsNull() {
		return !nullsFirst, false
	}
	cmp, err := va.CompareTo(vb)
	if err != nil || cmp == 0 {
		return false, true
	}
	if item.Descending {
		return cmp > 0, false
	}
	return cmp < 0, false
}

func (ex *Executor) applyLimitOffset(stmt *SelectStmt, rows [][]catalog.Value, params []catalog.Value) ([][]catalog.Value, error) {
	if stmt.Offset != nil {
		v, err := ex.evalConst(stmt.Offset, params)
		if err != nil {
			return nil, err
		}
		offset := int(v.AsInt64())
		if offset > len(rows) {
			offset = len(rows)
		}
		rows = rows[offset:]
	}
	if stmt.Limit != nil {
		v, err := ex.evalConst(stmt.Limit, params)
		if err != nil {
			return nil, err
		}
		limit := int(v.AsInt64())
		if limit < len(rows) {
			rows = rows[:limit]
		}
	}
	return rows, nil
}

func (ex *Executor) evalConst(expr Expression, params []catalog.Value) (catalog.Value, error) {
	ectx := &evalCtx{ex: ex, row: NewRowContext(nil), params: params}
	return ectx.eval(expr)
}

func rowKey(row []catalog.Value) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = v.GroupKey()
	}
	return catalog.JoinGroupKeys(parts)
}

// --- set operations -------------------------------------------------------

func combineSetOp(op SetOp, left, right *Result) (*Result, error) {
	if len(left.Columns) != len(right.Columns) {
		return nil, fmt.Errorf("sql: set operation operands have %d and %d columns", len(left.Columns), len(right.Columns))
	}
	switch op {
	case SetOpUnionAll:
		rows := append(append([][]catalog.Value(nil), left.Rows...), right.Rows...)
		return &Result{Columns: left.Columns, Rows: rows}, nil
	case SetOpUnion:
		rows := append(append([][]catalog.Value(nil), left.Rows...), right.Rows...)
		return &Result{Columns: left.Columns, Rows: dedupeRows(rows)}, nil
	case SetOpIntersect:
		rightKeys := rowKeySet(right.Rows)
		var out [][]catalog.Value
		seen := map[string]bool{}
		for _, row := range left.Rows {
			k := rowKey(row)
			if rightKeys[k] && !seen[k] {
				seen[k] = true
				out = append(out, row)
			}
		}
		return &Result{Columns: left.Columns, Rows: out}, nil
	case SetOpExcept:
		rightKeys := rowKeySet(right.Rows)
		var out [][]catalog.Value
		seen := map[string]bool{}
		for _, row := range left.Rows {
			k := rowKey(row)
			if !rightKeys[k] && !seen[k] {
				seen[k] = true
				out = append(out, row)
			}
		}
		return &Result{Columns: left.Columns, Rows: out}, nil
	default:
		return nil, fmt.Errorf("sql: unsupported set operation")
	}
}

func rowKeySet(rows [][]catalog.Value) map[string]bool {
	out := make(map[string]bool, len(rows))
	for _, row := range rows {
		out[rowKey(row)] = true
	}
	return out
}

func dedupeRows(rows [][]catalog.Value) [][]catalog.Value {
	seen := map[string]bool{}
	var out [][]catalog.Value
	for _, row := range rows {
		k := rowKey(row)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, row)
	}
	return out
}
