package sql

import "testing"

func parseOne(t *testing.T, input string) Statement {
	t.Helper()
	p := NewParser(input)
	stmt, err := p.ParseStatement()
	if err != nil {
		t.Fatalf("parse error for %q: %v", input, err)
	}
	return stmt
}

func TestParseSelectBasics(t *testing.T) {
	stmt := parseOne(t, "SELECT a, b AS bee, t.* FROM users AS t WHERE a > 1 ORDER BY b DESC LIMIT 10 OFFSET 5")
	sel, ok := stmt.(*SelectStmt)
	if !ok {
		t.Fatalf("expected *SelectStmt, got %T", stmt)
	}
	if len(sel.Columns) != 3 {
		t.Fatalf("expected 3 select columns, got %d", len(sel.Columns))
	}
	if sel.Columns[1].Alias != "bee" {
		t.Errorf("expected alias 'bee', got %q", sel.Columns[1].Alias)
	}
	if !sel.Columns[2].Star || sel.Columns[2].StarQual != "t" {
		t.Errorf("expected t.* column, got %+v", sel.Columns[2])
	}
	if sel.Where == nil {
		t.Error("expected a WHERE clause")
	}
	if len(sel.OrderBy) != 1 || !sel.OrderBy[0].Descending {
		t.Errorf("expected one descending ORDER BY item, got %+v", sel.OrderBy)
	}
	if sel.Limit == nil || sel.Offset == nil {
		t.Error("expected LIMIT and OFFSET to be set")
	}
}

func TestParseJoin(t *testing.T) {
	stmt := parseOne(t, "SELECT * FROM a LEFT JOIN b ON a.id = b.a_id")
	sel := stmt.(*SelectStmt)
	join, ok := sel.From.(*JoinRef)
	if !ok {
		t.Fatalf("expected *JoinRef, got %T", sel.From)
	}
	if join.Kind != JoinLeft {
		t.Errorf("expected JoinLeft, got %v", join.Kind)
	}
	if join.On == nil {
		t.Error("expected an ON condition")
	}
}

func TestParseGroupByHaving(t *testing.T) {
	stmt := parseOne(t, "SELECT region, sum(amount) FROM orders GROUP BY region HAVING sum(amount) > 100")
	sel := stmt.(*SelectStmt)
	if len(sel.GroupBy) != 1 {
		t.Fatalf("expected 1 GROUP BY expression, got %d", len(sel.GroupBy))
	}
	if sel.Having == nil {
		t.Error("expected a HAVING clause")
	}
}

func TestParseWindowFunction(t *testing.T) {
	stmt := parseOne(t, "SELECT row_number() OVER (PARTITION BY dept ORDER BY salary DESC) FROM emp")
	sel := stmt.(*SelectStmt)
	call, ok := sel.Columns[0].Expr.(*FuncCallExpr)
	if !ok {
		t.Fatalf("expected *FuncCallExpr, got %T", sel.Columns[0].Expr)
	}
	if call.Window == nil {
		t.Fatal("expected a window spec")
	}
	if len(call.Window.PartitionBy) != 1 || len(call.Window.OrderBy) != 1 {
		t.Errorf("expected 1 partition-by and 1 order-by expr, got %+v", call.Window)
	}
}

func TestParseSetOperation(t *testing.T) {
	stmt := parseOne(t, "SELECT a FROM t1 UNION ALL SELECT a FROM t2")
	sel := stmt.(*SelectStmt)
	if sel.Next == nil {
		t.Fatal("expected a chained SELECT via UNION ALL")
	}
	if sel.SetOp != SetOpUnionAll {
		t.Errorf("expected SetOpUnionAll on the left-hand SELECT, got %v", sel.SetOp)
	}
}

func TestParseCreateAndDropTable(t *testing.T) {
	stmt := parseOne(t, "CREATE TABLE IF NOT EXISTS t (id Int64, name String)")
	ct, ok := stmt.(*CreateTableStmt)
	if !ok {
		t.Fatalf("expected *CreateTableStmt, got %T", stmt)
	}
	if !ct.IfNotExists || len(ct.Columns) != 2 {
		t.Errorf("unexpected CreateTableStmt: %+v", ct)
	}

	stmt = parseOne(t, "DROP TABLE IF EXISTS t")
	dt, ok := stmt.(*DropTableStmt)
	if !ok {
		t.Fatalf("expected *DropTableStmt, got %T", stmt)
	}
	if !dt.IfExists {
		t.Error("expected IfExists true")
	}
}

func TestParseCreateTableWithEngineTail(t *testing.T) {
	stmt := parseOne(t, "CREATE TABLE t (id Int64, region String) ENGINE = MergeTree() ORDER BY id")
	ct, ok := stmt.(*CreateTableStmt)
	if !ok {
		t.Fatalf("expected *CreateTableStmt, got %T", stmt)
	}
	if ct.Engine != "MergeTree" {
		t.Errorf("expected engine %q, got %q", "MergeTree", ct.Engine)
	}
	if len(ct.OrderBy) != 1 || ct.OrderBy[0] != "id" {
		t.Errorf("expected ORDER BY [id], got %+v", ct.OrderBy)
	}

	stmt = parseOne(t, "CREATE TABLE t2 (id Int64) ENGINE = MergeTree(1, 'x') PRIMARY KEY (id) ORDER BY (id, id) SETTINGS index_granularity = 8192")
	ct, ok = stmt.(*CreateTableStmt)
	if !ok {
		t.Fatalf("expected *CreateTableStmt, got %T", stmt)
	}
	if len(ct.PrimaryKey) != 1 || ct.PrimaryKey[0] != "id" {
		t.Errorf("expected PRIMARY KEY [id], got %+v", ct.PrimaryKey)
	}
	if len(ct.OrderBy) != 2 {
		t.Errorf("expected 2 ORDER BY columns, got %+v", ct.OrderBy)
	}
}

func TestParseSelectFinalSamplePrewhereSettings(t *testing.T) {
	stmt := parseOne(t, "SELECT id FROM t FINAL SAMPLE 0.1 PREWHERE id > 0 WHERE id < 100 SETTINGS max_result_rows = 10")
	sel := stmt.(*SelectStmt)
	named, ok := sel.From.(*NamedTableRef)
	if !ok {
		t.Fatalf("expected *NamedTableRef, got %T", sel.From)
	}
	if !named.Final {
		t.Error("expected FINAL to be recorded on the table reference")
	}
	if sel.Where == nil {
		t.Fatal("expected PREWHERE and WHERE to combine into one condition")
	}
	if len(sel.Settings) != 1 || sel.Settings[0].Name != "max_result_rows" {
		t.Errorf("expected one max_result_rows setting, got %+v", sel.Settings)
	}
}

func TestParseInsertValues(t *testing.T) {
	stmt := parseOne(t, "INSERT INTO t (a, b) VALUES (1, 'x'), (2, 'y')")
	ins, ok := stmt.(*InsertStmt)
	if !ok {
		t.Fatalf("expected *InsertStmt, got %T", stmt)
	}
	if len(ins.Columns) != 2 || len(ins.Rows) != 2 {
		t.Errorf("unexpected InsertStmt shape: %+v", ins)
	}
}

func TestParseUpdateDelete(t *testing.T) {
	stmt := parseOne(t, "UPDATE t SET a = 1, b = 2 WHERE id = 3")
	upd, ok := stmt.(*UpdateStmt)
	if !ok {
		t.Fatalf("expected *UpdateStmt, got %T", stmt)
	}
	if len(upd.Assignments) != 2 || upd.Where == nil {
		t.Errorf("unexpected UpdateStmt shape: %+v", upd)
	}

	stmt = parseOne(t, "DELETE FROM t WHERE id = 3")
	del, ok := stmt.(*DeleteStmt)
	if !ok {
		t.Fatalf("expected *DeleteStmt, got %T", stmt)
	}
	if del.Where == nil {
		t.Error("expected a WHERE clause")
	}
}

func TestParseParamPlaceholder(t *testing.T) {
	stmt := parseOne(t, "SELECT * FROM t WHERE a = ? AND b = ?")
	sel := stmt.(*SelectStmt)
	bin, ok := sel.Where.(*BinaryExpr)
	if !ok {
		t.Fatalf("expected *BinaryExpr, got %T", sel.Where)
	}
	left, ok := bin.Left.(*BinaryExpr)
	if !ok {
		t.Fatalf("expected nested *BinaryExpr, got %T", bin.Left)
	}
	right, ok := bin.Right.(*BinaryExpr)
	if !ok {
		t.Fatalf("expected nested *BinaryExpr, got %T", bin.Right)
	}
	p0, ok := left.Right.(*ParamExpr)
	if !ok {
		t.Fatalf("expected *ParamExpr, got %T", left.Right)
	}
	p1, ok := right.Right.(*ParamExpr)
	if !ok {
		t.Fatalf("expected *ParamExpr, got %T", right.Right)
	}
	if p0.Index != 0 || p1.Index != 1 {
		t.Errorf("expected params indexed 0 and 1, got %d and %d", p0.Index, p1.Index)
	}
}

func TestParseErrorOnUnexpectedToken(t *testing.T) {
	p := NewParser("FROM WHERE")
	if _, err := p.ParseStatement(); err == nil {
		t.Error("expected a parse error for input starting with FROM")
	}
}
