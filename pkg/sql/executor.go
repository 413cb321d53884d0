package sql

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JayabrataBasu/chql/pkg/catalog"
	"github.com/JayabrataBasu/chql/pkg/engineopts"
)

// ResultColumn names one output column of a Result and the type the
// executor inferred for it.
type ResultColumn struct {
	Name string
	Type catalog.Type
}

// Result is the engine's public query outcome: §6's QueryResult. For DDL
// and DML statements Rows is empty and only RowsAffected is meaningful.
type Result struct {
	Columns      []ResultColumn
	Rows         [][]catalog.Value
	RowsAffected int64
}

// Executor runs parsed statements against one catalog, resolving function
// calls through a FunctionRegistry. An Executor is single-threaded: one
// statement runs to completion before another may begin, mirroring the
// synchronous scheduling model the engine promises its callers.
type Executor struct {
	catalog  *catalog.Catalog
	registry FunctionRegistry
	ctes     map[string]*Result
	opts     *engineopts.Options
}

// NewExecutor returns an Executor over cat, resolving function calls
// through reg. reg may be nil, in which case any function call fails with
// an error. It starts with engineopts.Default(); call SetOptions to
// override the session's settings.
func NewExecutor(cat *catalog.Catalog, reg FunctionRegistry) *Executor {
	return &Executor{catalog: cat, registry: reg, ctes: make(map[string]*Result), opts: engineopts.Default()}
}

// SetOptions replaces the Executor's engine-level session settings (ORDER
// BY null placement default, row caps, unknown-SETTINGS policy). opts must
// not be nil.
func (ex *Executor) SetOptions(opts *engineopts.Options) {
	ex.opts = opts
}

// Execute dispatches stmt to its statement-kind handler. params supplies
// values for any `?` placeholders the statement's expressions reference.
func (ex *Executor) Execute(stmt Statement, params []catalog.Value) (*Result, error) {
	switch s := stmt.(type) {
	case *SelectStmt:
		return ex.execSelectChain(s, nil, params)
	case *InsertStmt:
		return ex.execInsert(s, params)
	case *UpdateStmt:
		return ex.execUpdate(s, params)
	case *DeleteStmt:
		return ex.execDelete(s, params)
	case *CreateTableStmt:
		return ex.execCreateTable(s)
	case *DropTableStmt:
		return ex.execDropTable(s)
	case *ShowTablesStmt:
		return ex.execShowTables()
	case *ExplainStmt:
		return ex.execExplain(s)
	default:
		return nil, fmt.Errorf("sql: unsupported statement type %T", stmt)
	}
}

// execCorrelated runs a subquery that may reference columns of an
// enclosing row (IN/EXISTS/scalar-subquery expressions). outer becomes
// the parent of every row-context the subquery builds, so RowContext's
// Lookup fallback resolves a correlated column reference.
func (ex *Executor) execCorrelated(q *SelectStmt, outer *RowContext, params []catalog.Value) (*Result, error) {
	return ex.execSelectChain(q, outer, params)
}

// --- DDL -------------------------------------------------------------

func (ex *Executor) execCreateTable(s *CreateTableStmt) (*Result, error) {
	cols := make([]catalog.Column, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = catalog.Column{Name: c.Name, Type: c.Type, DefaultSQL: c.DefaultSQL}
	}
	// s.Engine/PrimaryKey/OrderBy are parsed for dialect fidelity (§6) but
	// have no storage consequence: the catalog keeps one row slice per
	// table with no MergeTree-style physical ordering or indexing (§5
	// Non-goals).
	if err := ex.catalog.CreateTable(s.TableName, cols, s.IfNotExists); err != nil {
		return nil, NewQueryErrorFromKind(ErrName, err.Error())
	}
	return &Result{}, nil
}

func (ex *Executor) execDropTable(s *DropTableStmt) (*Result, error) {
	if err := ex.catalog.DropTable(s.TableName, s.IfExists); err != nil {
		return nil, NewQueryErrorFromKind(ErrName, err.Error())
	}
	return &Result{}, nil
}

func (ex *Executor) execShowTables() (*Result, error) {
	names := ex.catalog.ListTables()
	rows := make([][]catalog.Value, len(names))
	for i, n := range names {
		rows[i] = []catalog.Value{catalog.NewString(n)}
	}
	return &Result{
		Columns: []ResultColumn{{Name: "name", Type: catalog.TypeString}},
		Rows:    rows,
	}, nil
}

func (ex *Executor) execExplain(s *ExplainStmt) (*Result, error) {
	text := describeStatement(s.Inner)
	return &Result{
		Columns: []ResultColumn{{Name: "explain", Type: catalog.TypeString}},
		Rows:    [][]catalog.Value{{catalog.NewString(text)}},
	}, nil
}

func describeStatement(stmt Statement) string {
	switch s := stmt.(type) {
	case *SelectStmt:
		if s.From == nil {
			return "Select (no source)"
		}
		return fmt.Sprintf("Select from %s", describeTableRef(s.From))
	case *InsertStmt:
		return fmt.Sprintf("Insert into %s", s.TableName)
	case *UpdateStmt:
		return fmt.Sprintf("Update %s", s.TableName)
	case *DeleteStmt:
		return fmt.Sprintf("Delete from %s", s.TableName)
	case *CreateTableStmt:
		return fmt.Sprintf("Create table %s (%d columns)", s.TableName, len(s.Columns))
	case *DropTableStmt:
		return fmt.Sprintf("Drop table %s", s.TableName)
	case *ShowTablesStmt:
		return "Show tables"
	default:
		return fmt.Sprintf("%T", stmt)
	}
}

func describeTableRef(ref TableRef) string {
	switch r := ref.(type) {
	case *NamedTableRef:
		return r.Name
	case *SubqueryTableRef:
		return "(subquery)"
	case *JoinRef:
		return fmt.Sprintf("%s join %s", describeTableRef(r.Left), describeTableRef(r.Right))
	case *ArrayJoinRef:
		return fmt.Sprintf("%s array join", describeTableRef(r.Base))
	default:
		return "?"
	}
}

// --- DML ---------------------------------------------------------------

func (ex *Executor) execInsert(s *InsertStmt, params []catalog.Value) (*Result, error) {
	table, ok := ex.catalog.Table(s.TableName)
	if !ok {
		return nil, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown table %q", s.TableName))
	}
	targetIdx, err := insertTargetColumns(table, s.Columns)
	if err != nil {
		return nil, err
	}

	var affected int64
	if s.Select != nil {
		res, err := ex.execSelectChain(s.Select, nil, params)
		if err != nil {
			return nil, err
		}
		for _, srcRow := range res.Rows {
			if len(srcRow) != len(targetIdx) {
				return nil, fmt.Errorf("sql: insert select produced %d columns, expected %d", len(srcRow), len(targetIdx))
			}
			row, err := buildInsertRow(table, targetIdx, srcRow)
			if err != nil {
				return nil, err
			}
			table.AppendRow(row)
			affected++
		}
		return &Result{RowsAffected: affected}, nil
	}

	ectx := &evalCtx{ex: ex, row: NewRowContext(nil), params: params}
	for _, valueExprs := range s.Rows {
		if len(valueExprs) != len(targetIdx) {
			return nil, fmt.Errorf("sql: insert has %d values, expected %d", len(valueExprs), len(targetIdx))
		}
		values := make([]catalog.Value, len(valueExprs))
		for i, ve := range valueExprs {
			v, err := ectx.eval(ve)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		row, err := buildInsertRow(table, targetIdx, values)
		if err != nil {
			return nil, err
		}
		table.AppendRow(row)
		affected++
	}
	return &Result{RowsAffected: affected}, nil
}

// insertTargetColumns resolves an INSERT's optional column list to 0-based
// table-column indices, defaulting to every column in declaration order.
func insertTargetColumns(table *catalog.Table, names []string) ([]int, error) {
	if len(names) == 0 {
		idx := make([]int, len(table.Columns))
		for i := range table.Columns {
			idx[i] = i
		}
		return idx, nil
	}
	idx := make([]int, len(names))
	for i, n := range names {
		ci := table.ColumnIndex(n)
		if ci < 0 {
			return nil, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown column %q in table %q", n, table.Name))
		}
		idx[i] = ci
	}
	return idx, nil
}

// buildInsertRow produces a full-width row for table: positions named by
// targetIdx take values, every other column takes its DEFAULT expression
// (if declared) or its type's zero value.
func buildInsertRow(table *catalog.Table, targetIdx []int, values []catalog.Value) ([]catalog.Value, error) {
	row := make([]catalog.Value, len(table.Columns))
	filled := make([]bool, len(table.Columns))
	for i, ci := range targetIdx {
		converted, err := catalog.ConvertTo(values[i], table.Columns[ci].Type)
		if err != nil {
			return nil, wrapError(ErrConversion, err)
		}
		row[ci] = converted
		filled[ci] = true
	}
	for i, col := range table.Columns {
		if filled[i] {
			continue
		}
		v, err := columnDefaultValue(col)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

func columnDefaultValue(col catalog.Column) (catalog.Value, error) {
	if col.DefaultSQL != "" {
		p := NewParser(col.DefaultSQL)
		expr, err := p.parseExpr()
		if err != nil {
			return catalog.Value{}, wrapError(ErrParse, err)
		}
		ectx := &evalCtx{row: NewRowContext(nil)}
		v, err := ectx.eval(expr)
		if err != nil {
			return catalog.Value{}, err
		}
		return catalog.ConvertTo(v, col.Type)
	}
	return zeroValueForType(col.Type)
}

func zeroValueForType(t catalog.Type) (catalog.Value, error) {
	if t.IsNullable() {
		return catalog.Null(t), nil
	}
	under := t.Under()
	switch under.Kind {
	case catalog.KindInt8, catalog.KindInt16, catalog.KindInt32, catalog.KindInt64:
		return catalog.ConvertTo(catalog.NewInt64(0), t)
	case catalog.KindUInt8, catalog.KindUInt16, catalog.KindUInt32, catalog.KindUInt64:
		return catalog.ConvertTo(catalog.NewUInt64(0), t)
	case catalog.KindFloat32, catalog.KindFloat64:
		return catalog.ConvertTo(catalog.NewFloat64(0), t)
	case catalog.KindDecimal:
		return catalog.ConvertTo(catalog.NewInt64(0), t)
	case catalog.KindString, catalog.KindFixedString:
		return catalog.ConvertTo(catalog.NewString(""), t)
	case catalog.KindBool:
		return catalog.NewBool(false), nil
	case catalog.KindUUID:
		return catalog.NewUUID(uuid.Nil), nil
	case catalog.KindArray:
		return catalog.NewArray(*under.Elem, nil), nil
	default:
		return catalog.Value{}, fmt.Errorf("sql: column of type %s requires an explicit value", t)
	}
}

func (ex *Executor) execUpdate(s *UpdateStmt, params []catalog.Value) (*Result, error) {
	table, ok := ex.catalog.Table(s.TableName)
	if !ok {
		return nil, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown table %q", s.TableName))
	}
	targetIdx := make([]int, len(s.Assignments))
	for i, a := range s.Assignments {
		ci := table.ColumnIndex(a.Column)
		if ci < 0 {
			return nil, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown column %q in table %q", a.Column, table.Name))
		}
		targetIdx[i] = ci
	}

	var affected int64
	for i, row := range table.Rows {
		rc := buildSingleTableRowContext(table, row, nil)
		ectx := &evalCtx{ex: ex, row: rc, params: params}
		if s.Where != nil {
			cond, err := ectx.eval(s.Where)
			if err != nil {
				return nil, err
			}
			if cond.IsNull() || !cond.Truthy() {
				continue
			}
		}
		newRow := append([]catalog.Value(nil), row...)
		for j, a := range s.Assignments {
			v, err := ectx.eval(a.Value)
			if err != nil {
				return nil, err
			}
			converted, err := catalog.ConvertTo(v, table.Columns[targetIdx[j]].Type)
			if err != nil {
				return nil, wrapError(ErrConversion, err)
			}
			newRow[targetIdx[j]] = converted
		}
		table.Rows[i] = newRow
		affected++
	}
	return &Result{RowsAffected: affected}, nil
}

func (ex *Executor) execDelete(s *DeleteStmt, params []catalog.Value) (*Result, error) {
	table, ok := ex.catalog.Table(s.TableName)
	if !ok {
		return nil, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown table %q", s.TableName))
	}
	kept := make([][]catalog.Value, 0, len(table.Rows))
	var affected int64
	for _, row := range table.Rows {
		rc := buildSingleTableRowContext(table, row, nil)
		ectx := &evalCtx{ex: ex, row: rc, params: params}
		match := true
		if s.Where != nil {
			cond, err := ectx.eval(s.Where)
			if err != nil {
				return nil, err
			}
			match = !cond.IsNull() && cond.Truthy()
		}
		if match {
			affected++
			continue
		}
		kept = append(kept, row)
	}
	table.Rows = kept
	return &Result{RowsAffected: affected}, nil
}

func buildSingleTableRowContext(table *catalog.Table, row []catalog.Value, outer *RowContext) *RowContext {
	rc := NewRowContext(outer)
	for i, c := range table.Columns {
		rc.Bind(table.Name, c.Name, row[i])
	}
	return rc
}

// --- table functions -----------------------------------------------------

func callTableFunction(name string, args []catalog.Value) (*rowBatch, error) {
	switch strings.ToLower(name) {
	case "numbers":
		if len(args) < 1 || len(args) > 2 {
			return nil, NewQueryErrorFromKind(ErrArity, "numbers() takes 1 or 2 arguments")
		}
		n := args[0].AsInt64()
		start := int64(0)
		if len(args) == 2 {
			start = args[1].AsInt64()
		}
		batch := &rowBatch{cols: []boundColumn{{Qualifier: "numbers", Name: "number", Type: catalog.TypeUInt64}}}
		for i := int64(0); i < n; i++ {
			batch.rows = append(batch.rows, materializedRow{values: []catalog.Value{catalog.NewUInt64(uint64(start + i))}})
		}
		return batch, nil
	case "zeros":
		if len(args) != 1 {
			return nil, NewQueryErrorFromKind(ErrArity, "zeros() takes 1 argument")
		}
		n := args[0].AsInt64()
		batch := &rowBatch{cols: []boundColumn{{Qualifier: "zeros", Name: "zero", Type: catalog.TypeUInt64}}}
		for i := int64(0); i < n; i++ {
			batch.rows = append(batch.rows, materializedRow{values: []catalog.Value{catalog.NewUInt64(0)}})
		}
		return batch, nil
	case "one":
		if len(args) != 0 {
			return nil, NewQueryErrorFromKind(ErrArity, "one() takes no arguments")
		}
		batch := &rowBatch{cols: []boundColumn{{Qualifier: "one", Name: "dummy", Type: catalog.TypeUInt8}}}
		batch.rows = append(batch.rows, materializedRow{values: []catalog.Value{catalog.NewUInt8(0)}})
		return batch, nil
	default:
		return nil, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown table function %q", name))
	}
}
