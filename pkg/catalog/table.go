package catalog

import (
	"fmt"
	"strings"
	"sync"
)

// Column describes one column of a Table: its declared type and an
// optional default-value expression text (stored as raw SQL text and
// evaluated by the executor at INSERT time, since catalog has no
// expression evaluator of its own).
type Column struct {
	Name       string
	Type       Type
	DefaultSQL string // "" if no DEFAULT clause
}

// Table is an in-memory, append-ordered table: columns keep their
// declaration order, rows keep insertion order, and rows carry no
// identity beyond their current position (§3 "no persistence, no row
// identifiers beyond position").
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]Value
}

// ColumnIndex returns the 0-based position of a column by case-insensitive
// name, or -1 if no such column exists.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// Column looks up a column definition by case-insensitive name.
func (t *Table) Column(name string) (Column, bool) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

// AppendRow appends a fully-formed row (already matching t.Columns in
// order and type) to the table.
func (t *Table) AppendRow(row []Value) {
	t.Rows = append(t.Rows, row)
}

// Catalog is the engine's in-memory set of tables, keyed case-insensitively
// (§3 "table names are case-insensitive"). It is the single mutable store
// shared by every statement executed against one engine Session; §5's
// single-threaded execution model means access needs no fine-grained
// locking. The mutex guards only the name-to-table map (create, drop,
// lookup, listing); a Table's Rows are read and written without it, so
// concurrent statements against one Session are not synchronized.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string]*Table
	order  []string // insertion order, for deterministic ListTables()
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

func key(name string) string { return strings.ToLower(name) }

// CreateTable registers a new table. ifNotExists suppresses the "already
// exists" error and silently no-ops when the table is already present.
func (c *Catalog) CreateTable(name string, columns []Column, ifNotExists bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(name)
	if _, exists := c.tables[k]; exists {
		if ifNotExists {
			return nil
		}
		return fmt.Errorf("catalog: table %q already exists", name)
	}
	c.tables[k] = &Table{Name: name, Columns: columns}
	c.order = append(c.order, k)
	return nil
}

// DropTable removes a table. ifExists suppresses the "no such table" error.
func (c *Catalog) DropTable(name string, ifExists bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(name)
	if _, exists := c.tables[k]; !exists {
		if ifExists {
			return nil
		}
		return fmt.Errorf("catalog: no such table %q", name)
	}
	delete(c.tables, k)
	for i, n := range c.order {
		if n == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Table returns the table registered under name, or false if none exists.
// The returned pointer is the catalog's live table; callers holding it
// across a mutating statement must not assume it stays valid past a DROP.
func (c *Catalog) Table(name string) (*Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[key(name)]
	return t, ok
}

// TableExists reports whether a table with the given (case-insensitive)
// name is registered — the public API's table_exists().
func (c *Catalog) TableExists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.tables[key(name)]
	return ok
}

// ListTables returns every registered table's name, in creation order —
// the public API's list_tables().
func (c *Catalog) ListTables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	for i, k := range c.order {
		out[i] = c.tables[k].Name
	}
	return out
}
