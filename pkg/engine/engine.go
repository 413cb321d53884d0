// Package engine is chql's embeddable facade: a Session owns one
// in-memory catalog and exposes the four operations an embedding
// application drives the whole query language through.
package engine

import (
	"strings"

	"github.com/JayabrataBasu/chql/internal/functions"
	"github.com/JayabrataBasu/chql/internal/logger"
	"github.com/JayabrataBasu/chql/pkg/catalog"
	"github.com/JayabrataBasu/chql/pkg/engineopts"
	"github.com/JayabrataBasu/chql/pkg/sql"
)

// Column names and types one column of a QueryResult.
type Column struct {
	Name string
	Type catalog.Type
}

// QueryResult is the result of executing a single statement: a schema,
// its rows (empty for DDL/DML), and an affected-row count (meaningful
// only for DML/DDL; zero for SELECT).
type QueryResult struct {
	Columns       []Column
	Rows          [][]catalog.Value
	AffectedCount int64
}

// Session is one chql engine instance: a catalog of tables plus the
// function registry and logger it executes statements with. The zero
// value is not usable; construct with New.
type Session struct {
	catalog  *catalog.Catalog
	executor *sql.Executor
	log      *logger.Logger
	opts     *engineopts.Options
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithLogger attaches a structured logger a Session uses to record, at
// debug level, every statement that fails to parse or execute. Without
// this option, a Session logs nothing (logger.NewNop()).
func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithEngineOptions overrides a Session's engine-level settings (ORDER BY
// null-placement default, max_result_rows, unknown-SETTINGS policy).
// Without this option a Session uses engineopts.Default().
func WithEngineOptions(o *engineopts.Options) Option {
	return func(s *Session) {
		s.opts = o
		s.executor.SetOptions(o)
	}
}

// New constructs a Session with a fresh, empty catalog and the default
// builtin function registry.
func New(opts ...Option) *Session {
	cat := catalog.NewCatalog()
	s := &Session{
		catalog: cat,
		log:     logger.NewNop(),
		opts:    engineopts.Default(),
	}
	s.executor = sql.NewExecutor(cat, functions.Default())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute parses and runs exactly one SQL statement, returning its
// result. Trailing whitespace or a single trailing `;` is tolerated; a
// second statement in the input is an error (use ExecuteMany instead).
func (s *Session) Execute(sqlText string, params ...catalog.Value) (*QueryResult, error) {
	stmt, err := parseSingleStatement(sqlText)
	if err != nil {
		s.log.Debug("parse failed", "error", err)
		return nil, err
	}
	if stmt == nil {
		return &QueryResult{}, nil
	}
	res, err := s.executor.Execute(stmt, params)
	if err != nil {
		s.log.Debug("execute failed", "error", err)
		return nil, err
	}
	return toQueryResult(res), nil
}

// ExecuteMany splits sqlText on top-level `;` boundaries, skips blank
// statements, and runs each in order, returning one QueryResult per
// statement it ran.
func (s *Session) ExecuteMany(sqlText string) ([]*QueryResult, error) {
	stmts, err := sql.NewParser(sqlText).ParseProgram()
	if err != nil {
		return nil, err
	}
	results := make([]*QueryResult, 0, len(stmts))
	for _, stmt := range stmts {
		res, err := s.executor.Execute(stmt, nil)
		if err != nil {
			s.log.Debug("execute_many: statement failed", "error", err)
			return results, err
		}
		results = append(results, toQueryResult(res))
	}
	return results, nil
}

// TableExists reports whether a table by this name exists in the
// session's catalog (case-insensitive).
func (s *Session) TableExists(name string) bool {
	return s.catalog.TableExists(name)
}

// ListTables returns every table name currently in the session's
// catalog, in catalog order.
func (s *Session) ListTables() []string {
	return s.catalog.ListTables()
}

func toQueryResult(res *sql.Result) *QueryResult {
	cols := make([]Column, len(res.Columns))
	for i, c := range res.Columns {
		cols[i] = Column{Name: c.Name, Type: c.Type}
	}
	return &QueryResult{
		Columns:       cols,
		Rows:          res.Rows,
		AffectedCount: res.RowsAffected,
	}
}

// parseSingleStatement parses exactly one statement out of sqlText,
// tolerating a trailing `;` and surrounding whitespace, and erroring if
// more than one statement is present.
func parseSingleStatement(sqlText string) (sql.Statement, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, nil
	}
	p := sql.NewParser(sqlText)
	stmt, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}
	if err := p.ExpectEndOfStatement(); err != nil {
		return nil, err
	}
	return stmt, nil
}
