package sql_test

import (
	"testing"

	"github.com/JayabrataBasu/chql/internal/functions"
	"github.com/JayabrataBasu/chql/pkg/catalog"
	"github.com/JayabrataBasu/chql/pkg/engineopts"
	"github.com/JayabrataBasu/chql/pkg/sql"
)

func newExecutor() (*catalog.Catalog, *sql.Executor) {
	cat := catalog.NewCatalog()
	return cat, sql.NewExecutor(cat, functions.Default())
}

func run(t *testing.T, ex *sql.Executor, query string, params ...catalog.Value) *sql.Result {
	t.Helper()
	stmt, err := sql.NewParser(query).ParseStatement()
	if err != nil {
		t.Fatalf("parse error for %q: %v", query, err)
	}
	res, err := ex.Execute(stmt, params)
	if err != nil {
		t.Fatalf("execute error for %q: %v", query, err)
	}
	return res
}

func setupOrders(t *testing.T, ex *sql.Executor) {
	run(t, ex, "CREATE TABLE orders (id Int64, region String, amount Int64)")
	run(t, ex, "INSERT INTO orders VALUES (1, 'east', 10), (2, 'east', 20), (3, 'west', 5), (4, 'west', 15)")
}

func TestExecutorSelectWhereOrderLimit(t *testing.T) {
	_, ex := newExecutor()
	setupOrders(t, ex)

	res := run(t, ex, "SELECT id FROM orders WHERE amount > 8 ORDER BY amount DESC LIMIT 2")
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	if res.Rows[0][0].AsInt64() != 2 {
		t.Errorf("expected highest-amount row first (id=2), got id=%d", res.Rows[0][0].AsInt64())
	}
}

func TestExecutorGroupByHaving(t *testing.T) {
	_, ex := newExecutor()
	setupOrders(t, ex)

	res := run(t, ex, "SELECT region, sum(amount) FROM orders GROUP BY region HAVING sum(amount) > 20 ORDER BY region")
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row after HAVING filter, got %d", len(res.Rows))
	}
	if res.Rows[0][0].AsString() != "east" {
		t.Errorf("expected region 'east', got %q", res.Rows[0][0].AsString())
	}
	if res.Rows[0][1].AsInt64() != 30 {
		t.Errorf("expected sum 30, got %d", res.Rows[0][1].AsInt64())
	}
}

func TestExecutorJoins(t *testing.T) {
	_, ex := newExecutor()
	run(t, ex, "CREATE TABLE a (id Int64, name String)")
	run(t, ex, "CREATE TABLE b (a_id Int64, value Int64)")
	run(t, ex, "INSERT INTO a VALUES (1, 'x'), (2, 'y')")
	run(t, ex, "INSERT INTO b VALUES (1, 100)")

	res := run(t, ex, "SELECT a.name, b.value FROM a LEFT JOIN b ON a.id = b.a_id ORDER BY a.name")
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	if !res.Rows[1][1].IsNull() {
		t.Errorf("expected unmatched right side to be NULL, got %v", res.Rows[1][1])
	}
}

func TestExecutorWindowRowNumber(t *testing.T) {
	_, ex := newExecutor()
	setupOrders(t, ex)

	res := run(t, ex, "SELECT id, row_number() OVER (PARTITION BY region ORDER BY amount) AS rn FROM orders ORDER BY region, rn")
	if len(res.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(res.Rows))
	}
	for _, row := range res.Rows {
		if row[1].AsInt64() != 1 && row[1].AsInt64() != 2 {
			t.Errorf("expected row_number 1 or 2 within each partition, got %d", row[1].AsInt64())
		}
	}
}

func TestExecutorSetOperations(t *testing.T) {
	_, ex := newExecutor()
	run(t, ex, "CREATE TABLE t1 (a Int64)")
	run(t, ex, "CREATE TABLE t2 (a Int64)")
	run(t, ex, "INSERT INTO t1 VALUES (1), (2)")
	run(t, ex, "INSERT INTO t2 VALUES (2), (3)")

	res := run(t, ex, "SELECT a FROM t1 UNION SELECT a FROM t2")
	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 deduplicated rows from UNION, got %d", len(res.Rows))
	}

	res = run(t, ex, "SELECT a FROM t1 UNION ALL SELECT a FROM t2")
	if len(res.Rows) != 4 {
		t.Fatalf("expected 4 rows from UNION ALL, got %d", len(res.Rows))
	}
}

func TestExecutorInsertUpdateDelete(t *testing.T) {
	_, ex := newExecutor()
	run(t, ex, "CREATE TABLE t (id Int64, name String)")
	res := run(t, ex, "INSERT INTO t VALUES (1, 'a'), (2, 'b')")
	if res.RowsAffected != 2 {
		t.Fatalf("expected 2 rows affected, got %d", res.RowsAffected)
	}

	res = run(t, ex, "UPDATE t SET name = 'z' WHERE id = 1")
	if res.RowsAffected != 1 {
		t.Fatalf("expected 1 row affected by UPDATE, got %d", res.RowsAffected)
	}

	res = run(t, ex, "SELECT name FROM t WHERE id = 1")
	if res.Rows[0][0].AsString() != "z" {
		t.Errorf("expected updated name 'z', got %q", res.Rows[0][0].AsString())
	}

	res = run(t, ex, "DELETE FROM t WHERE id = 2")
	if res.RowsAffected != 1 {
		t.Fatalf("expected 1 row affected by DELETE, got %d", res.RowsAffected)
	}

	res = run(t, ex, "SELECT count(*) FROM t")
	if res.Rows[0][0].AsInt64() != 1 {
		t.Errorf("expected 1 remaining row, got %d", res.Rows[0][0].AsInt64())
	}
}

func TestExecutorParams(t *testing.T) {
	_, ex := newExecutor()
	setupOrders(t, ex)

	res := run(t, ex, "SELECT id FROM orders WHERE region = ?", catalog.NewString("west"))
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows for region=west, got %d", len(res.Rows))
	}
}

func TestExecutorSubquery(t *testing.T) {
	_, ex := newExecutor()
	setupOrders(t, ex)

	res := run(t, ex, "SELECT region FROM (SELECT region, amount FROM orders WHERE amount > 10) AS sub ORDER BY region")
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
}

func TestExecutorCreateTableWithEngineTail(t *testing.T) {
	cat, ex := newExecutor()
	run(t, ex, "CREATE TABLE t (id Int64, region String) ENGINE = MergeTree() ORDER BY id")
	if !cat.TableExists("t") {
		t.Fatal("expected table t to exist despite its ENGINE/ORDER BY tail")
	}
	run(t, ex, "INSERT INTO t VALUES (1, 'a')")
	res := run(t, ex, "SELECT region FROM t")
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
}

func TestExecutorSettingsMaxResultRows(t *testing.T) {
	_, ex := newExecutor()
	setupOrders(t, ex)

	res := run(t, ex, "SELECT id FROM orders ORDER BY id SETTINGS max_result_rows = 2")
	if len(res.Rows) != 2 {
		t.Fatalf("expected max_result_rows to cap at 2 rows, got %d", len(res.Rows))
	}
}

func TestExecutorSettingsUnknownKeyPolicy(t *testing.T) {
	_, ex := newExecutor()
	run(t, ex, "CREATE TABLE t (id Int64)")
	stmt, err := sql.NewParser("SELECT id FROM t SETTINGS not_a_real_setting = 1").ParseStatement()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	// Default policy (ignore) tolerates an unrecognized key.
	if _, err := ex.Execute(stmt, nil); err != nil {
		t.Errorf("expected an unknown SETTINGS key to be ignored by default, got error: %v", err)
	}

	// Switching to "error" rejects the same statement.
	opts := engineopts.Default()
	opts.UnknownSettings = "error"
	ex.SetOptions(opts)
	if _, err := ex.Execute(stmt, nil); err == nil {
		t.Error("expected an unknown SETTINGS key to error once the policy is set to \"error\"")
	}
}

func TestExecutorSelectFinalAndSampleAreAcceptedAndIgnored(t *testing.T) {
	_, ex := newExecutor()
	setupOrders(t, ex)

	res := run(t, ex, "SELECT id FROM orders FINAL SAMPLE 1/10 OFFSET 0 ORDER BY id")
	if len(res.Rows) != 4 {
		t.Fatalf("expected FINAL/SAMPLE to have no filtering effect, got %d rows", len(res.Rows))
	}
}

func TestExecutorDDL(t *testing.T) {
	cat, ex := newExecutor()
	run(t, ex, "CREATE TABLE t (id Int64)")
	if !cat.TableExists("t") {
		t.Fatal("expected table t to exist")
	}

	res := run(t, ex, "SHOW TABLES")
	if len(res.Rows) != 1 || res.Rows[0][0].AsString() != "t" {
		t.Errorf("expected SHOW TABLES to list 't', got %+v", res.Rows)
	}

	run(t, ex, "DROP TABLE t")
	if cat.TableExists("t") {
		t.Fatal("expected table t to be dropped")
	}
}
