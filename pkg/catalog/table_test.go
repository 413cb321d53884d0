package catalog

import "testing"

func TestCatalogCreateAndLookupCaseInsensitive(t *testing.T) {
	c := NewCatalog()
	cols := []Column{{Name: "id", Type: TypeInt32}, {Name: "name", Type: TypeString}}
	if err := c.CreateTable("Users", cols, false); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if !c.TableExists("users") {
		t.Errorf("expected case-insensitive lookup to find table")
	}
	tbl, ok := c.Table("USERS")
	if !ok {
		t.Fatalf("expected table to be found")
	}
	if tbl.Name != "Users" {
		t.Errorf("Name = %q, want original-cased %q", tbl.Name, "Users")
	}
}

func TestCatalogCreateDuplicateErrors(t *testing.T) {
	c := NewCatalog()
	cols := []Column{{Name: "id", Type: TypeInt32}}
	if err := c.CreateTable("t", cols, false); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if err := c.CreateTable("t", cols, false); err == nil {
		t.Fatalf("expected duplicate create to error")
	}
	if err := c.CreateTable("t", cols, true); err != nil {
		t.Errorf("IF NOT EXISTS should suppress the error, got %v", err)
	}
}

func TestCatalogDropTable(t *testing.T) {
	c := NewCatalog()
	cols := []Column{{Name: "id", Type: TypeInt32}}
	_ = c.CreateTable("t", cols, false)
	if err := c.DropTable("t", false); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if c.TableExists("t") {
		t.Errorf("expected table to be gone after drop")
	}
	if err := c.DropTable("t", false); err == nil {
		t.Fatalf("expected error dropping missing table")
	}
	if err := c.DropTable("t", true); err != nil {
		t.Errorf("IF EXISTS should suppress the error, got %v", err)
	}
}

func TestCatalogListTablesInsertionOrder(t *testing.T) {
	c := NewCatalog()
	cols := []Column{{Name: "id", Type: TypeInt32}}
	_ = c.CreateTable("b", cols, false)
	_ = c.CreateTable("a", cols, false)
	got := c.ListTables()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("ListTables() = %v, want insertion order [b a]", got)
	}
}

func TestTableColumnIndexCaseInsensitive(t *testing.T) {
	tbl := &Table{Name: "t", Columns: []Column{{Name: "ID", Type: TypeInt32}}}
	if tbl.ColumnIndex("id") != 0 {
		t.Errorf("expected case-insensitive column lookup to find index 0")
	}
	if tbl.ColumnIndex("missing") != -1 {
		t.Errorf("expected -1 for missing column")
	}
}

func TestTableAppendRow(t *testing.T) {
	tbl := &Table{Name: "t", Columns: []Column{{Name: "id", Type: TypeInt32}}}
	tbl.AppendRow([]Value{NewInt32(1)})
	tbl.AppendRow([]Value{NewInt32(2)})
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
}
