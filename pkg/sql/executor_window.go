package sql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JayabrataBasu/chql/pkg/catalog"
)

// computeWindows evaluates every window-function call over filtered,
// partitioning and ordering each call independently per its own OVER
// clause, and returns one output slice per call aligned to filtered's
// row order.
func (ex *Executor) computeWindows(batch *rowBatch, filtered []materializedRow, calls []*FuncCallExpr, outer *RowContext, params []catalog.Value) (map[*FuncCallExpr][]catalog.Value, error) {
	n := len(filtered)
	rcs := make([]*RowContext, n)
	for i, row := range filtered {
		rcs[i] = batch.buildRowContext(row, outer)
	}

	out := make(map[*FuncCallExpr][]catalog.Value, len(calls))
	for _, call := range calls {
		values := make([]catalog.Value, n)
		partitions, err := ex.partitionIndices(call.Window, rcs, params)
		if err != nil {
			return nil, err
		}
		for _, part := range partitions {
			ordered, err := ex.orderPartition(call.Window, rcs, part, params)
			if err != nil {
				return nil, err
			}
			if err := ex.computeWindowValues(call, rcs, ordered, params, values); err != nil {
				return nil, err
			}
		}
		out[call] = values
	}
	return out, nil
}

func (ex *Executor) partitionIndices(win *WindowSpec, rcs []*RowContext, params []catalog.Value) ([][]int, error) {
	if win == nil || len(win.PartitionBy) == 0 {
		all := make([]int, len(rcs))
		for i := range rcs {
			all[i] = i
		}
		return [][]int{all}, nil
	}
	var order []string
	groups := map[string][]int{}
	for i, rc := range rcs {
		ectx := &evalCtx{ex: ex, row: rc, params: params}
		parts := make([]string, len(win.PartitionBy))
		for j, pe := range win.PartitionBy {
			v, err := ectx.eval(pe)
			if err != nil {
				return nil, err
			}
			parts[j] = v.GroupKey()
		}
		key := catalog.JoinGroupKeys(parts)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	out := make([][]int, len(order))
	for i, k := range order {
		out[i] = groups[k]
	}
	return out, nil
}

// orderPartition returns part's row indices in the partition's OVER
// ORDER BY order (unchanged, in FROM order, if there is none).
func (ex *Executor) orderPartition(win *WindowSpec, rcs []*RowContext, part []int, params []catalog.Value) ([]int, error) {
	if win == nil || len(win.OrderBy) == 0 {
		return append([]int(nil), part...), nil
	}
	cols := make([][]catalog.Value, len(win.OrderBy))
	for oi, item := range win.OrderBy {
		vals := make([]catalog.Value, len(part))
		for pi, idx := range part {
			ectx := &evalCtx{ex: ex, row: rcs[idx], params: params}
			v, err := ectx.eval(item.Expr)
			if err != nil {
				return nil, err
			}
			vals[pi] = v
		}
		cols[oi] = vals
	}
	perm := make([]int, len(part))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		pa, pb := perm[a], perm[b]
		for oi, item := range win.OrderBy {
			less, equal := ex.compareForOrder(cols[oi][pa], cols[oi][pb], item)
			if !equal {
				return less
			}
		}
		return false
	})
	out := make([]int, len(part))
	for i, p := range perm {
		out[i] = part[p]
	}
	return out, nil
}

func (ex *Executor) computeWindowValues(call *FuncCallExpr, rcs []*RowContext, ordered []int, params []catalog.Value, values []catalog.Value) error {
	switch strings.ToLower(call.Name) {
	case "row_number":
		for pos, idx := range ordered {
			values[idx] = catalog.NewInt64(int64(pos + 1))
		}
		return nil
	case "rank":
		return ex.computeRank(call, rcs, ordered, params, values, false)
	case "dense_rank":
		return ex.computeRank(call, rcs, ordered, params, values, true)
	case "ntile":
		return ex.computeNtile(call, rcs, ordered, params, values)
	case "lag":
		return ex.computeLagLead(call, rcs, ordered, params, values, false)
	case "lead":
		return ex.computeLagLead(call, rcs, ordered, params, values, true)
	case "first_value":
		return ex.computeFirstLastValue(call, rcs, ordered, params, values, false)
	case "last_value":
		return ex.computeFirstLastValue(call, rcs, ordered, params, values, true)
	default:
		return ex.computeFrameAggregate(call, rcs, ordered, params, values)
	}
}

func (ex *Executor) computeRank(call *FuncCallExpr, rcs []*RowContext, ordered []int, params []catalog.Value, values []catalog.Value, dense bool) error {
	win := call.Window
	if win == nil || len(win.OrderBy) == 0 {
		for _, idx := range ordered {
			values[idx] = catalog.NewInt64(1)
		}
		return nil
	}
	expr := win.OrderBy[0].Expr
	var prev catalog.Value
	rank := 0
	distinctRank := 0
	for pos, idx := range ordered {
		ectx := &evalCtx{ex: ex, row: rcs[idx], params: params}
		v, err := ectx.eval(expr)
		if err != nil {
			return err
		}
		if pos == 0 || !valuesEqualForRank(prev, v) {
			distinctRank++
			rank = pos + 1
		}
		if dense {
			values[idx] = catalog.NewInt64(int64(distinctRank))
		} else {
			values[idx] = catalog.NewInt64(int64(rank))
		}
		prev = v
	}
	return nil
}

func valuesEqualForRank(a, b catalog.Value) bool {
	if a.IsNull() && b.IsNull() {
		return true
	}
	if a.IsNull() || b.IsNull() {
		return false
	}
	return a.Equals(b)
}

func (ex *Executor) computeNtile(call *FuncCallExpr, rcs []*RowContext, ordered []int, params []catalog.Value, values []catalog.Value) error {
	if len(call.Args) != 1 {
		return NewQueryErrorFromKind(ErrArity, "ntile() takes exactly 1 argument")
	}
	ectx := &evalCtx{ex: ex, row: rcs[ordered[0]], params: params}
	kv, err := ectx.eval(call.Args[0])
	if err != nil {
		return err
	}
	k := int(kv.AsInt64())
	if k <= 0 {
		return fmt.Errorf("sql: ntile() bucket count must be positive")
	}
	n := len(ordered)
	base := n / k
	remainder := n % k
	pos := 0
	for bucket := 1; bucket <= k && pos < n; bucket++ {
		size := base
		if bucket <= remainder {
			size++
		}
		for i := 0; i < size && pos < n; i++ {
			values[ordered[pos]] = catalog.NewInt64(int64(bucket))
			pos++
		}
	}
	return nil
}

func (ex *Executor) computeLagLead(call *FuncCallExpr, rcs []*RowContext, ordered []int, params []catalog.Value, values []catalog.Value, isLead bool) error {
	if len(call.Args) < 1 || len(call.Args) > 3 {
		return NewQueryErrorFromKind(ErrArity, call.Name+"() takes 1 to 3 arguments")
	}
	offset := int64(1)
	if len(call.Args) >= 2 {
		ectx := &evalCtx{ex: ex, row: rcs[ordered[0]], params: params}
		v, err := ectx.eval(call.Args[1])
		if err != nil {
			return err
		}
		offset = v.AsInt64()
	}
	var defaultExpr Expression
	if len(call.Args) == 3 {
		defaultExpr = call.Args[2]
	}

	n := len(ordered)
	for pos, idx := range ordered {
		var targetPos int
		if isLead {
			targetPos = pos + int(offset)
		} else {
			targetPos = pos - int(offset)
		}
		if targetPos < 0 || targetPos >= n {
			if defaultExpr != nil {
				ectx := &evalCtx{ex: ex, row: rcs[idx], params: params}
				v, err := ectx.eval(defaultExpr)
				if err != nil {
					return err
				}
				values[idx] = v
			} else {
				values[idx] = catalog.Null(catalog.Nullable(catalog.TypeNull))
			}
			continue
		}
		ectx := &evalCtx{ex: ex, row: rcs[ordered[targetPos]], params: params}
		v, err := ectx.eval(call.Args[0])
		if err != nil {
			return err
		}
		values[idx] = v
	}
	return nil
}

func (ex *Executor) computeFirstLastValue(call *FuncCallExpr, rcs []*RowContext, ordered []int, params []catalog.Value, values []catalog.Value, last bool) error {
	if len(call.Args) != 1 {
		return NewQueryErrorFromKind(ErrArity, call.Name+"() takes exactly 1 argument")
	}
	win := call.Window
	n := len(ordered)
	for pos, idx := range ordered {
		var targetPos int
		if win == nil || !win.HasFrame {
			if last {
				targetPos = pos
			} else {
				targetPos = 0
			}
		} else {
			sk, so, err := ex.resolveFrameBound(win.Start, params, rcs[ordered[0]])
			if err != nil {
				return err
			}
			ek, eo, err := ex.resolveFrameBound(win.End, params, rcs[ordered[0]])
			if err != nil {
				return err
			}
			start, end := frameBounds(sk, so, ek, eo, pos, n)
			if last {
				targetPos = end
			} else {
				targetPos = start
			}
		}
		ectx := &evalCtx{ex: ex, row: rcs[ordered[targetPos]], params: params}
		v, err := ectx.eval(call.Args[0])
		if err != nil {
			return err
		}
		values[idx] = v
	}
	return nil
}

// computeFrameAggregate drives an ordinary aggregate (sum/avg/count/min/max
// or any registry aggregate) through its per-row frame. With no explicit
// frame it defaults to [partition start, current row].
func (ex *Executor) computeFrameAggregate(call *FuncCallExpr, rcs []*RowContext, ordered []int, params []catalog.Value, values []catalog.Value) error {
	fn, err := ex.resolveAggregate(call.Name)
	if err != nil {
		return err
	}
	win := call.Window
	n := len(ordered)
	for pos, idx := range ordered {
		start, end := 0, pos
		if win != nil && win.HasFrame {
			sk, so, err := ex.resolveFrameBound(win.Start, params, rcs[ordered[0]])
			if err != nil {
				return err
			}
			ek, eo, err := ex.resolveFrameBound(win.End, params, rcs[ordered[0]])
			if err != nil {
				return err
			}
			start, end = frameBounds(sk, so, ek, eo, pos, n)
		}
		state := fn.CreateState()
		for p := start; p <= end; p++ {
			ectx := &evalCtx{ex: ex, row: rcs[ordered[p]], params: params}
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
			state, err = fn.Accumulate(state, args, call.Distinct)
			if err != nil {
				return err
			}
		}
		v, err := fn.Finalize(state)
		if err != nil {
			return err
		}
		values[idx] = v
	}
	return nil
}

func (ex *Executor) resolveFrameBound(b FrameBound, params []catalog.Value, dummyRow *RowContext) (FrameBoundKind, int64, error) {
	if b.Offset == nil {
		return b.Kind, 0, nil
	}
	ectx := &evalCtx{ex: ex, row: dummyRow, params: params}
	v, err := ectx.eval(b.Offset)
	if err != nil {
		return b.Kind, 0, err
	}
	return b.Kind, v.AsInt64(), nil
}

// frameBounds resolves a ROWS frame to a concrete [start, end] inclusive
// index range within the current partition's ordered rows.
func frameBounds(startKind FrameBoundKind, startOff int64, endKind FrameBoundKind, endOff int64, pos, n int) (int, int) {
	start := 0
	switch startKind {
	case BoundUnboundedPreceding:
		start = 0
	case BoundPreceding:
		start = pos - int(startOff)
	case BoundCurrentRow:
		start = pos
	case BoundFollowing:
		start = pos + int(startOff)
	case BoundUnboundedFollowing:
		start = n - 1
	}
	end := pos
	switch endKind {
	case BoundUnboundedPreceding:
		end = 0
	case BoundPreceding:
		end = pos - int(endOff)
	case BoundCurrentRow:
		end = pos
	case BoundFollowing:
		end = pos + int(endOff)
	case BoundUnboundedFollowing:
		end = n - 1
	}
	if start < 0 {
		start = 0
	}
	if end > n-1 {
		end = n - 1
	}
	if start > end {
		start, end = end, start
	}
	return start, end
}
