package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JayabrataBasu/chql/pkg/catalog"
)

// Parser is a recursive-descent, precedence-climbing parser over the
// token stream produced by Lexer. It builds the AST defined in ast.go.
type Parser struct {
	lex      *Lexer
	cur      Token
	peek     Token
	rawInput string
	nParams  int
}

// NewParser constructs a Parser over the given SQL source text.
func NewParser(input string) *Parser {
	p := &Parser{lex: NewLexer(input), rawInput: input}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) curIs(t TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t TokenType) bool { return p.peek.Type == t }

func (p *Parser) expect(t TokenType, what string) (Token, error) {
	if p.cur.Type != t {
		return Token{}, newQueryError(ErrParse, p.cur, "expected %s, got %q", what, p.cur.Literal)
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

// curIsIdentText reports whether the current token is an identifier whose
// text matches kw case-insensitively — used for contextual keywords
// (ARRAY) that double as ordinary identifiers elsewhere.
func (p *Parser) curIsIdentText(kw string) bool {
	return p.cur.Type == TOKEN_IDENT && strings.EqualFold(p.cur.Literal, kw)
}

func (p *Parser) peekIsIdentText(kw string) bool {
	return p.peek.Type == TOKEN_IDENT && strings.EqualFold(p.peek.Literal, kw)
}

// ---------------------------------------------------------------------
// Top level
// ---------------------------------------------------------------------

// ParseProgram parses every semicolon-separated statement in the input;
// blank statements between semicolons are skipped.
func (p *Parser) ParseProgram() ([]Statement, error) {
	var stmts []Statement
	for !p.curIs(TOKEN_EOF) {
		if p.curIs(TOKEN_SEMICOLON) {
			p.advance()
			continue
		}
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		for p.curIs(TOKEN_SEMICOLON) {
			p.advance()
		}
	}
	return stmts, nil
}

// ExpectEndOfStatement errors if anything other than a trailing `;` and
// end-of-input remains after a single ParseStatement call — used by
// callers that want exactly one statement, not a program.
func (p *Parser) ExpectEndOfStatement() error {
	for p.curIs(TOKEN_SEMICOLON) {
		p.advance()
	}
	if !p.curIs(TOKEN_EOF) {
		return newQueryError(ErrParse, p.cur, "unexpected trailing input %q after statement", p.cur.Literal)
	}
	return nil
}

// ParseStatement parses exactly one statement, dispatching on the leading
// keyword.
func (p *Parser) ParseStatement() (Statement, error) {
	switch p.cur.Type {
	case TOKEN_WITH, TOKEN_SELECT, TOKEN_LPAREN:
		return p.parseSelectChain()
	case TOKEN_INSERT:
		return p.parseInsert()
	case TOKEN_CREATE:
		return p.parseCreateTable()
	case TOKEN_DROP:
		return p.parseDropTable()
	case TOKEN_UPDATE:
		return p.parseUpdate()
	case TOKEN_DELETE:
		return p.parseDelete()
	case TOKEN_SHOW:
		return p.parseShowTables()
	case TOKEN_EXPLAIN:
		return p.parseExplain()
	default:
		return nil, newQueryError(ErrParse, p.cur, "unexpected token %q at start of statement", p.cur.Literal)
	}
}

func (p *Parser) parseExplain() (Statement, error) {
	p.advance() // EXPLAIN
	inner, err := p.ParseStatement()
	if err != nil {
		return nil, err
	}
	return &ExplainStmt{Inner: inner}, nil
}

func (p *Parser) parseShowTables() (Statement, error) {
	p.advance() // SHOW
	if _, err := p.expect(TOKEN_TABLES, "TABLES"); err != nil {
		return nil, err
	}
	return &ShowTablesStmt{}, nil
}

// ---------------------------------------------------------------------
// SELECT, including CTEs and set-operation chains
// ---------------------------------------------------------------------

func (p *Parser) parseSelectChain() (*SelectStmt, error) {
	root, err := p.parseSelectTerm()
	if err != nil {
		return nil, err
	}
	node := root
	for {
		var op SetOp
		switch p.cur.Type {
		case TOKEN_UNION:
			p.advance()
			op = SetOpUnion
			if p.curIs(TOKEN_ALL) {
				p.advance()
				op = SetOpUnionAll
			} else if p.curIs(TOKEN_DISTINCT) {
				p.advance()
			}
		case TOKEN_INTERSECT:
			p.advance()
			op = SetOpIntersect
		case TOKEN_EXCEPT:
			p.advance()
			op = SetOpExcept
		default:
			return root, nil
		}
		next, err := p.parseSelectTerm()
		if err != nil {
			return nil, err
		}
		node.SetOp = op
		node.Next = next
		node = next
	}
}

// parseSelectTerm parses one CTE-optional SELECT, or a parenthesized
// select chain, without consuming a trailing set operator.
func (p *Parser) parseSelectTerm() (*SelectStmt, error) {
	if p.curIs(TOKEN_LPAREN) {
		p.advance()
		inner, err := p.parseSelectChain()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	}

	var ctes []CTE
	if p.curIs(TOKEN_WITH) {
		p.advance()
		if p.curIs(TOKEN_RECURSIVE) {
			p.advance()
		}
		for {
			name, err := p.expect(TOKEN_IDENT, "CTE name")
			if err != nil {
				return nil, err
			}
			var cols []string
			if p.curIs(TOKEN_LPAREN) {
				cols, err = p.parseIdentList()
				if err != nil {
					return nil, err
				}
			}
			if _, err := p.expect(TOKEN_AS, "AS"); err != nil {
				return nil, err
			}
			if _, err := p.expect(TOKEN_LPAREN, "("); err != nil {
				return nil, err
			}
			query, err := p.parseSelectChain()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
				return nil, err
			}
			ctes = append(ctes, CTE{Name: name.Literal, Columns: cols, Query: query})
			if p.curIs(TOKEN_COMMA) {
				p.advance()
				continue
			}
			break
		}
	}

	stmt, err := p.parseSimpleSelect()
	if err != nil {
		return nil, err
	}
	stmt.CTEs = ctes
	return stmt, nil
}

func (p *Parser) parseIdentList() ([]string, error) {
	if _, err := p.expect(TOKEN_LPAREN, "("); err != nil {
		return nil, err
	}
	var names []string
	for {
		tok, err := p.expect(TOKEN_IDENT, "identifier")
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Literal)
		if p.curIs(TOKEN_COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}
	return names, nil
}

// parseSimpleSelect parses one SELECT ... clause, without CTEs and
// without a trailing set-operation chain.
func (p *Parser) parseSimpleSelect() (*SelectStmt, error) {
	if _, err := p.expect(TOKEN_SELECT, "SELECT"); err != nil {
		return nil, err
	}
	stmt := &SelectStmt{}
	if p.curIs(TOKEN_DISTINCT) {
		stmt.Distinct = true
		p.advance()
	} else if p.curIs(TOKEN_ALL) {
		p.advance()
	}

	cols, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	stmt.Columns = cols

	if p.curIs(TOKEN_FROM) {
		p.advance()
		from, err := p.parseFromClause()
		if err != nil {
			return nil, err
		}
		stmt.From = from
	}

	if p.curIs(TOKEN_PREWHERE) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = cond
	}

	if p.curIs(TOKEN_WHERE) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		// A preceding PREWHERE is combined with AND: the in-memory engine
		// has no part-level prefilter to short-circuit, so the two
		// clauses are equivalent to one WHERE (§6 keyword set).
		if stmt.Where != nil {
			stmt.Where = &BinaryExpr{Left: stmt.Where, Op: TOKEN_AND, Right: cond}
		} else {
			stmt.Where = cond
		}
	}

	if p.curIs(TOKEN_GROUP) {
		p.advance()
		if _, err := p.expect(TOKEN_BY, "BY"); err != nil {
			return nil, err
		}
		items, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		stmt.GroupBy = items
	}

	if p.curIs(TOKEN_HAVING) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Having = cond
	}

	if p.curIs(TOKEN_ORDER) {
		p.advance()
		if _, err := p.expect(TOKEN_BY, "BY"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = items
	}

	if p.curIs(TOKEN_LIMIT) {
		p.advance()
		first, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.curIs(TOKEN_COMMA) {
			// LIMIT offset, count
			p.advance()
			count, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			stmt.Offset = first
			stmt.Limit = count
		} else {
			stmt.Limit = first
		}
	}

	if p.curIs(TOKEN_OFFSET) {
		p.advance()
		off, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Offset = off
	}

	if p.curIs(TOKEN_SETTINGS) {
		items, err := p.parseSettingsClause()
		if err != nil {
			return nil, err
		}
		stmt.Settings = items
	}

	return stmt, nil
}

func (p *Parser) parseSelectList() ([]SelectColumn, error) {
	var cols []SelectColumn
	for {
		col, err := p.parseSelectColumn()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.curIs(TOKEN_COMMA) {
			p.advance()
			continue
		}
		break
	}
	return cols, nil
}

func (p *Parser) parseSelectColumn() (SelectColumn, error) {
	if p.curIs(TOKEN_STAR) {
		p.advance()
		return SelectColumn{Star: true}, nil
	}
	if p.curIs(TOKEN_IDENT) && p.peekIs(TOKEN_DOT) {
		qualifier := p.cur.Literal
		savedCur, savedPeek, savedLex := p.cur, p.peek, *p.lex
		p.advance()
		p.advance()
		if p.curIs(TOKEN_STAR) {
			p.advance()
			return SelectColumn{Star: true, StarQual: qualifier}, nil
		}
		// Not a qualified star after all (e.g. `t.col`); rewind the two
		// tokens just consumed and fall through to the general expression
		// path. Each advance also pulled a token out of the lexer, so the
		// lexer's own position is restored along with cur/peek.
		p.cur, p.peek, *p.lex = savedCur, savedPeek, savedLex
	}

	expr, err := p.parseExpr()
	if err != nil {
		return SelectColumn{}, err
	}
	col := SelectColumn{Expr: expr}
	if p.curIs(TOKEN_AS) {
		p.advance()
		tok, err := p.expect(TOKEN_IDENT, "alias")
		if err != nil {
			return SelectColumn{}, err
		}
		col.Alias = tok.Literal
	} else if p.curIs(TOKEN_IDENT) {
		col.Alias = p.cur.Literal
		p.advance()
	}
	return col, nil
}

func (p *Parser) parseOrderByList() ([]OrderItem, error) {
	var items []OrderItem
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		item := OrderItem{Expr: expr}
		if p.curIs(TOKEN_ASC) {
			p.advance()
		} else if p.curIs(TOKEN_DESC) {
			item.Descending = true
			p.advance()
		}
		if p.curIs(TOKEN_NULLS) {
			p.advance()
			if p.curIs(TOKEN_FIRST) {
				item.HasNulls, item.NullsFirst = true, true
				p.advance()
			} else if p.curIs(TOKEN_LAST) {
				item.HasNulls, item.NullsFirst = true, false
				p.advance()
			} else {
				return nil, newQueryError(ErrParse, p.cur, "expected FIRST or LAST after NULLS")
			}
		}
		items = append(items, item)
		if p.curIs(TOKEN_COMMA) {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseExprList() ([]Expression, error) {
	var exprs []Expression
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.curIs(TOKEN_COMMA) {
			p.advance()
			continue
		}
		break
	}
	return exprs, nil
}

// ---------------------------------------------------------------------
// FROM clause: table refs, joins, ARRAY JOIN
// ---------------------------------------------------------------------

func (p *Parser) parseFromClause() (TableRef, error) {
	left, err := p.parseTableRefPrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.curIs(TOKEN_COMMA):
			p.advance()
			right, err := p.parseTableRefPrimary()
			if err != nil {
				return nil, err
			}
			left = &JoinRef{Kind: JoinCross, Left: left, Right: right}
		case p.isArrayJoinAhead():
			left, err = p.parseArrayJoin(left)
			if err != nil {
				return nil, err
			}
		case p.isJoinAhead():
			left, err = p.parseJoin(left)
			if err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

func (p *Parser) isArrayJoinAhead() bool {
	if p.curIs(TOKEN_LEFT) && p.peekIsIdentText("ARRAY") {
		return true
	}
	return p.curIsIdentText("ARRAY") && p.peekIsIdentText("JOIN")
}

func (p *Parser) parseArrayJoin(base TableRef) (TableRef, error) {
	left := false
	if p.curIs(TOKEN_LEFT) {
		left = true
		p.advance()
	}
	p.advance() // ARRAY (contextual identifier)
	if _, err := p.expect(TOKEN_JOIN, "JOIN"); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	ref := &ArrayJoinRef{Base: base, Expr: expr, Left: left}
	if p.curIs(TOKEN_AS) {
		p.advance()
	}
	if p.curIs(TOKEN_IDENT) {
		ref.Alias = p.cur.Literal
		p.advance()
	}
	return ref, nil
}

func (p *Parser) isJoinAhead() bool {
	switch p.cur.Type {
	case TOKEN_JOIN, TOKEN_INNER, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_FULL, TOKEN_CROSS, TOKEN_GLOBAL, TOKEN_ANY, TOKEN_ASOF:
		return true
	}
	return false
}

func (p *Parser) parseJoin(left TableRef) (TableRef, error) {
	// GLOBAL/ANY are accepted and ignored: distributed-join hints have no
	// meaning for a single in-memory engine instance.
	for p.curIs(TOKEN_GLOBAL) || p.curIs(TOKEN_ANY) {
		p.advance()
	}
	kind := JoinInner
	switch {
	case p.curIs(TOKEN_INNER):
		p.advance()
		kind = JoinInner
	case p.curIs(TOKEN_LEFT):
		p.advance()
		kind = p.parseSideModifier(JoinLeft, JoinLeftSemi, JoinLeftAnti)
	case p.curIs(TOKEN_RIGHT):
		p.advance()
		kind = p.parseSideModifier(JoinRight, JoinRightSemi, JoinRightAnti)
	case p.curIs(TOKEN_FULL):
		p.advance()
		if p.curIs(TOKEN_OUTER) {
			p.advance()
		}
		kind = JoinFull
	case p.curIs(TOKEN_CROSS):
		p.advance()
		kind = JoinCross
	case p.curIs(TOKEN_ASOF):
		p.advance()
		kind = JoinAsof
	}
	if _, err := p.expect(TOKEN_JOIN, "JOIN"); err != nil {
		return nil, err
	}
	right, err := p.parseTableRefPrimary()
	if err != nil {
		return nil, err
	}
	ref := &JoinRef{Kind: kind, Left: left, Right: right}
	if kind == JoinCross {
		return ref, nil
	}
	switch {
	case p.curIs(TOKEN_ON):
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ref.On = cond
	case p.curIs(TOKEN_USING):
		p.advance()
		cols, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		ref.Using = cols
	default:
		return nil, newQueryError(ErrParse, p.cur, "expected ON or USING after JOIN")
	}
	return ref, nil
}

func (p *Parser) parseSideModifier(base, semi, anti JoinKind) JoinKind {
	switch {
	case p.curIs(TOKEN_SEMI):
		p.advance()
		if p.curIs(TOKEN_OUTER) {
			p.advance()
		}
		return semi
	case p.curIs(TOKEN_ANTI):
		p.advance()
		if p.curIs(TOKEN_OUTER) {
			p.advance()
		}
		return anti
	case p.curIs(TOKEN_OUTER):
		p.advance()
		return base
	default:
		return base
	}
}

func (p *Parser) parseTableRefPrimary() (TableRef, error) {
	if p.curIs(TOKEN_LPAREN) {
		p.advance()
		query, err := p.parseSelectChain()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
		ref := &SubqueryTableRef{Query: query}
		if p.curIs(TOKEN_AS) {
			p.advance()
		}
		if p.curIs(TOKEN_IDENT) {
			ref.Alias = p.cur.Literal
			p.advance()
		}
		return ref, nil
	}

	name, err := p.expect(TOKEN_IDENT, "table name")
	if err != nil {
		return nil, err
	}
	ref := &NamedTableRef{Name: name.Literal}
	if p.curIs(TOKEN_LPAREN) {
		p.advance()
		if !p.curIs(TOKEN_RPAREN) {
			args, err := p.parseExprList()
			if err != nil {
				return nil, err
			}
			ref.Args = args
		}
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
	}
	for {
		if p.curIs(TOKEN_FINAL) {
			p.advance()
			ref.Final = true
			continue
		}
		if p.curIs(TOKEN_SAMPLE) {
			if err := p.skipSampleClause(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if p.curIs(TOKEN_AS) {
		p.advance()
		tok, err := p.expect(TOKEN_IDENT, "alias")
		if err != nil {
			return nil, err
		}
		ref.Alias = tok.Literal
	} else if p.curIs(TOKEN_IDENT) {
		ref.Alias = p.cur.Literal
		p.advance()
	}
	return ref, nil
}

// skipSampleClause parses and discards a `SAMPLE ratio [OFFSET n]`
// modifier: the in-memory engine has no part/block structure to sample
// from, so every row is read and SAMPLE is accepted without effect.
func (p *Parser) skipSampleClause() error {
	p.advance() // SAMPLE
	if _, err := p.parseExpr(); err != nil {
		return err
	}
	if p.curIs(TOKEN_OFFSET) {
		p.advance()
		if _, err := p.parseExpr(); err != nil {
			return err
		}
	}
	return nil
}

// skipBalancedParens consumes a parenthesized token run starting at the
// current `(`, without interpreting its contents — used for ENGINE(...)
// parameters, which §6 specifies are skipped rather than parsed.
func (p *Parser) skipBalancedParens() error {
	depth := 0
	for {
		switch p.cur.Type {
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
		case TOKEN_EOF:
			return newQueryError(ErrParse, p.cur, "unterminated parenthesized engine parameters")
		}
		p.advance()
		if depth == 0 {
			return nil
		}
	}
}

// parseColumnNameList parses a PRIMARY KEY/ORDER BY tail: either a single
// expression or a parenthesized, comma-separated list of them. Each
// item's original source text is kept as its name.
func (p *Parser) parseColumnNameList() ([]string, error) {
	paren := false
	if p.curIs(TOKEN_LPAREN) {
		paren = true
		p.advance()
	}
	var names []string
	for {
		start := p.cur.Pos
		if _, err := p.parseExpr(); err != nil {
			return nil, err
		}
		names = append(names, strings.TrimSpace(p.rawInput[start:p.cur.Pos]))
		if p.curIs(TOKEN_COMMA) {
			p.advance()
			continue
		}
		break
	}
	if paren {
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// parseSettingsClause parses a `SETTINGS name = value, ...` tail, used by
// both CREATE TABLE and SELECT (§6 keyword set).
func (p *Parser) parseSettingsClause() ([]SettingItem, error) {
	p.advance() // SETTINGS
	var items []SettingItem
	for {
		name, err := p.expect(TOKEN_IDENT, "setting name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_EQ, "="); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, SettingItem{Name: name.Literal, Value: val})
		if p.curIs(TOKEN_COMMA) {
			p.advance()
			continue
		}
		break
	}
	return items, nil
}

// ---------------------------------------------------------------------
// INSERT / UPDATE / DELETE / CREATE / DROP
// ---------------------------------------------------------------------

func (p *Parser) parseInsert() (Statement, error) {
	p.advance() // INSERT
	if _, err := p.expect(TOKEN_INTO, "INTO"); err != nil {
		return nil, err
	}
	name, err := p.expect(TOKEN_IDENT, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &InsertStmt{TableName: name.Literal}
	if p.curIs(TOKEN_LPAREN) {
		cols, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}
	if p.curIs(TOKEN_SELECT) || p.curIs(TOKEN_WITH) {
		sel, err := p.parseSelectChain()
		if err != nil {
			return nil, err
		}
		stmt.Select = sel
		return stmt, nil
	}
	if _, err := p.expect(TOKEN_VALUES, "VALUES"); err != nil {
		return nil, err
	}
	for {
		if _, err := p.expect(TOKEN_LPAREN, "("); err != nil {
			return nil, err
		}
		row, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)
		if p.curIs(TOKEN_COMMA) {
			p.advance()
			continue
		}
		break
	}
	return stmt, nil
}

func (p *Parser) parseUpdate() (Statement, error) {
	p.advance() // UPDATE
	name, err := p.expect(TOKEN_IDENT, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &UpdateStmt{TableName: name.Literal}
	if _, err := p.expect(TOKEN_SET, "SET"); err != nil {
		return nil, err
	}
	for {
		col, err := p.expect(TOKEN_IDENT, "column name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_EQ, "="); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, Assignment{Column: col.Literal, Value: val})
		if p.curIs(TOKEN_COMMA) {
			p.advance()
			continue
		}
		break
	}
	if p.curIs(TOKEN_WHERE) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = cond
	}
	return stmt, nil
}

func (p *Parser) parseDelete() (Statement, error) {
	p.advance() // DELETE
	if _, err := p.expect(TOKEN_FROM, "FROM"); err != nil {
		return nil, err
	}
	name, err := p.expect(TOKEN_IDENT, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &DeleteStmt{TableName: name.Literal}
	if p.curIs(TOKEN_WHERE) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		stmt.Where = cond
	}
	return stmt, nil
}

func (p *Parser) parseCreateTable() (Statement, error) {
	p.advance() // CREATE
	if _, err := p.expect(TOKEN_TABLE, "TABLE"); err != nil {
		return nil, err
	}
	ifNotExists := false
	if p.curIs(TOKEN_IF) {
		p.advance()
		if _, err := p.expect(TOKEN_NOT, "NOT"); err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_EXISTS, "EXISTS"); err != nil {
			return nil, err
		}
		ifNotExists = true
	}
	name, err := p.expect(TOKEN_IDENT, "table name")
	if err != nil {
		return nil, err
	}
	stmt := &CreateTableStmt{TableName: name.Literal, IfNotExists: ifNotExists}
	if _, err := p.expect(TOKEN_LPAREN, "("); err != nil {
		return nil, err
	}
	for {
		colName, err := p.expect(TOKEN_IDENT, "column name")
		if err != nil {
			return nil, err
		}
		typ, err := p.parseDataType()
		if err != nil {
			return nil, err
		}
		col := ColumnDef{Name: colName.Literal, Type: typ}
		if p.curIs(TOKEN_DEFAULT) {
			p.advance()
			start := p.cur.Pos
			if _, err := p.parseExpr(); err != nil {
				return nil, err
			}
			col.DefaultSQL = strings.TrimSpace(p.rawInput[start:p.cur.Pos])
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.curIs(TOKEN_COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}
	if p.curIs(TOKEN_ENGINE) {
		p.advance()
		if _, err := p.expect(TOKEN_EQ, "="); err != nil {
			return nil, err
		}
		engName, err := p.expect(TOKEN_IDENT, "engine name")
		if err != nil {
			return nil, err
		}
		stmt.Engine = engName.Literal
		if p.curIs(TOKEN_LPAREN) {
			if err := p.skipBalancedParens(); err != nil {
				return nil, err
			}
		}
	}
	if p.curIs(TOKEN_PRIMARY) {
		p.advance()
		if _, err := p.expect(TOKEN_KEY, "KEY"); err != nil {
			return nil, err
		}
		names, err := p.parseColumnNameList()
		if err != nil {
			return nil, err
		}
		stmt.PrimaryKey = names
	}
	if p.curIs(TOKEN_ORDER) {
		p.advance()
		if _, err := p.expect(TOKEN_BY, "BY"); err != nil {
			return nil, err
		}
		names, err := p.parseColumnNameList()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = names
	}
	if p.curIs(TOKEN_SETTINGS) {
		if _, err := p.parseSettingsClause(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseDropTable() (Statement, error) {
	p.advance() // DROP
	if _, err := p.expect(TOKEN_TABLE, "TABLE"); err != nil {
		return nil, err
	}
	ifExists := false
	if p.curIs(TOKEN_IF) {
		p.advance()
		if _, err := p.expect(TOKEN_EXISTS, "EXISTS"); err != nil {
			return nil, err
		}
		ifExists = true
	}
	name, err := p.expect(TOKEN_IDENT, "table name")
	if err != nil {
		return nil, err
	}
	return &DropTableStmt{TableName: name.Literal, IfExists: ifExists}, nil
}

// parseDataType captures the raw source text of a (possibly nested,
// possibly parameterized) type name and hands it to
// catalog.ParseTypeName, rather than re-implementing the type grammar
// here where the two would drift apart.
func (p *Parser) parseDataType() (catalog.Type, error) {
	start := p.cur.Pos
	if p.cur.Type != TOKEN_IDENT {
		return catalog.Type{}, newQueryError(ErrParse, p.cur, "expected a type name")
	}
	p.advance()
	if p.curIs(TOKEN_LPAREN) {
		depth := 0
		for {
			if p.curIs(TOKEN_LPAREN) {
				depth++
			} else if p.curIs(TOKEN_RPAREN) {
				depth--
			} else if p.curIs(TOKEN_EOF) {
				return catalog.Type{}, newQueryError(ErrParse, p.cur, "unterminated type parameter list")
			}
			end := p.cur.Pos + len(p.cur.Literal)
			p.advance()
			if depth == 0 {
				text := strings.TrimSpace(p.rawInput[start:end])
				typ, err := catalog.ParseTypeName(text)
				if err != nil {
					return catalog.Type{}, wrapError(ErrType, err)
				}
				return typ, nil
			}
		}
	}
	text := strings.TrimSpace(p.rawInput[start:p.cur.Pos])
	typ, err := catalog.ParseTypeName(text)
	if err != nil {
		return catalog.Type{}, wrapError(ErrType, err)
	}
	return typ, nil
}

// ---------------------------------------------------------------------
// Expressions: OR -> AND -> NOT -> comparison -> concat -> additive ->
// multiplicative -> unary -> postfix -> primary
// ---------------------------------------------------------------------

func (p *Parser) parseExpr() (Expression, error) { return p.parseOr() }

func (p *Parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.curIs(TOKEN_OR) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: TOKEN_OR, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.curIs(TOKEN_AND) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: TOKEN_AND, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expression, error) {
	if p.curIs(TOKEN_NOT) {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: TOKEN_NOT, Expr: inner}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	switch p.cur.Type {
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		op := p.cur.Type
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Left: left, Op: op, Right: right}, nil
	case TOKEN_LIKE, TOKEN_ILIKE:
		op := p.cur.Type
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Left: left, Op: op, Right: right}, nil
	case TOKEN_NOT:
		if p.peekIs(TOKEN_IN) {
			p.advance()
			return p.parseIn(left, true)
		}
		if p.peekIs(TOKEN_BETWEEN) {
			p.advance()
			return p.parseBetween(left, true)
		}
		if p.peekIs(TOKEN_LIKE) || p.peekIs(TOKEN_ILIKE) {
			p.advance()
			op := p.cur.Type
			p.advance()
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			return &UnaryExpr{Op: TOKEN_NOT, Expr: &BinaryExpr{Left: left, Op: op, Right: right}}, nil
		}
		return left, nil
	case TOKEN_IN:
		return p.parseIn(left, false)
	case TOKEN_BETWEEN:
		return p.parseBetween(left, false)
	case TOKEN_IS:
		p.advance()
		not := false
		if p.curIs(TOKEN_NOT) {
			not = true
			p.advance()
		}
		if _, err := p.expect(TOKEN_NULL, "NULL"); err != nil {
			return nil, err
		}
		return &IsNullExpr{Expr: left, Not: not}, nil
	default:
		return left, nil
	}
}

func (p *Parser) parseIn(left Expression, not bool) (Expression, error) {
	p.advance() // IN
	if _, err := p.expect(TOKEN_LPAREN, "("); err != nil {
		return nil, err
	}
	if p.curIs(TOKEN_SELECT) || p.curIs(TOKEN_WITH) {
		sub, err := p.parseSelectChain()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
		return &InExpr{Expr: left, Subquery: sub, Not: not}, nil
	}
	vals, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}
	return &InExpr{Expr: left, Values: vals, Not: not}, nil
}

func (p *Parser) parseBetween(left Expression, not bool) (Expression, error) {
	p.advance() // BETWEEN
	lo, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TOKEN_AND, "AND"); err != nil {
		return nil, err
	}
	hi, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return &BetweenExpr{Expr: left, Low: lo, High: hi, Not: not}, nil
}

func (p *Parser) parseConcat() (Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.curIs(TOKEN_CONCAT) {
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: TOKEN_CONCAT, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.curIs(TOKEN_PLUS) || p.curIs(TOKEN_MINUS) {
		op := p.cur.Type
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curIs(TOKEN_STAR) || p.curIs(TOKEN_SLASH) || p.curIs(TOKEN_PERCENT) {
		op := p.cur.Type
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expression, error) {
	if p.curIs(TOKEN_MINUS) || p.curIs(TOKEN_PLUS) {
		op := p.cur.Type
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, Expr: inner}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.curIs(TOKEN_LBRACKET):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TOKEN_RBRACKET, "]"); err != nil {
				return nil, err
			}
			expr = &IndexExpr{Expr: expr, Index: idx}
		case p.curIs(TOKEN_DOT) && p.peekIs(TOKEN_INT):
			p.advance()
			n := p.cur.Literal
			p.advance()
			idx, _ := strconv.ParseInt(n, 10, 64)
			expr = &IndexExpr{Expr: expr, Index: &LiteralExpr{Value: catalog.NewInt64(idx)}}
		case p.curIs(TOKEN_DOUBLECOLON):
			p.advance()
			typ, err := p.parseDataType()
			if err != nil {
				return nil, err
			}
			expr = &CastExpr{Expr: expr, Type: typ}
		case p.curIs(TOKEN_OVER):
			call, ok := expr.(*FuncCallExpr)
			if !ok {
				return nil, newQueryError(ErrParse, p.cur, "OVER may only follow a function call")
			}
			p.advance()
			win, err := p.parseWindowSpec()
			if err != nil {
				return nil, err
			}
			call.Window = win
			expr = call
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseWindowSpec() (*WindowSpec, error) {
	if _, err := p.expect(TOKEN_LPAREN, "("); err != nil {
		return nil, err
	}
	spec := &WindowSpec{}
	if p.curIs(TOKEN_PARTITION) {
		p.advance()
		if _, err := p.expect(TOKEN_BY, "BY"); err != nil {
			return nil, err
		}
		items, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		spec.PartitionBy = items
	}
	if p.curIs(TOKEN_ORDER) {
		p.advance()
		if _, err := p.expect(TOKEN_BY, "BY"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		spec.OrderBy = items
	}
	if p.curIs(TOKEN_ROWS) || p.curIs(TOKEN_RANGE) {
		spec.HasFrame = true
		if p.curIs(TOKEN_ROWS) {
			spec.Unit = FrameRows
		} else {
			spec.Unit = FrameRange
		}
		p.advance()
		if p.curIs(TOKEN_BETWEEN) {
			p.advance()
			start, err := p.parseFrameBound()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TOKEN_AND, "AND"); err != nil {
				return nil, err
			}
			end, err := p.parseFrameBound()
			if err != nil {
				return nil, err
			}
			spec.Start, spec.End = start, end
		} else {
			start, err := p.parseFrameBound()
			if err != nil {
				return nil, err
			}
			spec.Start = start
			spec.End = FrameBound{Kind: BoundCurrentRow}
		}
	}
	if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}
	return spec, nil
}

func (p *Parser) parseFrameBound() (FrameBound, error) {
	if p.curIs(TOKEN_UNBOUNDED) {
		p.advance()
		if p.curIs(TOKEN_PRECEDING) {
			p.advance()
			return FrameBound{Kind: BoundUnboundedPreceding}, nil
		}
		if p.curIs(TOKEN_FOLLOWING) {
			p.advance()
			return FrameBound{Kind: BoundUnboundedFollowing}, nil
		}
		return FrameBound{}, newQueryError(ErrParse, p.cur, "expected PRECEDING or FOLLOWING after UNBOUNDED")
	}
	if p.curIs(TOKEN_CURRENT) {
		p.advance()
		if _, err := p.expect(TOKEN_ROW, "ROW"); err != nil {
			return FrameBound{}, err
		}
		return FrameBound{Kind: BoundCurrentRow}, nil
	}
	n, err := p.parseAdditive()
	if err != nil {
		return FrameBound{}, err
	}
	if p.curIs(TOKEN_PRECEDING) {
		p.advance()
		return FrameBound{Kind: BoundPreceding, Offset: n}, nil
	}
	if p.curIs(TOKEN_FOLLOWING) {
		p.advance()
		return FrameBound{Kind: BoundFollowing, Offset: n}, nil
	}
	return FrameBound{}, newQueryError(ErrParse, p.cur, "expected PRECEDING or FOLLOWING")
}

func (p *Parser) parsePrimary() (Expression, error) {
	switch p.cur.Type {
	case TOKEN_INT:
		lit := p.cur.Literal
		p.advance()
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sql: invalid integer literal %q", lit)
		}
		return &LiteralExpr{Value: catalog.NewInt64(n)}, nil
	case TOKEN_FLOAT:
		lit := p.cur.Literal
		p.advance()
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, fmt.Errorf("sql: invalid float literal %q", lit)
		}
		return &LiteralExpr{Value: catalog.NewFloat64(f)}, nil
	case TOKEN_STRING:
		lit := p.cur.Literal
		p.advance()
		return &LiteralExpr{Value: catalog.NewString(lit)}, nil
	case TOKEN_TRUE:
		p.advance()
		return &LiteralExpr{Value: catalog.NewBool(true)}, nil
	case TOKEN_FALSE:
		p.advance()
		return &LiteralExpr{Value: catalog.NewBool(false)}, nil
	case TOKEN_NULL:
		p.advance()
		return &LiteralExpr{Value: catalog.Null(catalog.Nullable(catalog.TypeNull))}, nil
	case TOKEN_PARAM:
		p.advance()
		idx := p.nParams
		p.nParams++
		return &ParamExpr{Index: idx}, nil
	case TOKEN_STAR:
		p.advance()
		return &StarExpr{}, nil
	case TOKEN_CASE:
		return p.parseCase()
	case TOKEN_CAST:
		return p.parseCast()
	case TOKEN_EXISTS:
		p.advance()
		if _, err := p.expect(TOKEN_LPAREN, "("); err != nil {
			return nil, err
		}
		q, err := p.parseSelectChain()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
		return &ExistsExpr{Query: q}, nil
	case TOKEN_LBRACKET:
		return p.parseArrayLiteral()
	case TOKEN_LPAREN:
		return p.parseParenExprOrTupleOrSubquery()
	case TOKEN_IDENT:
		return p.parseIdentOrCall()
	default:
		return nil, newQueryError(ErrParse, p.cur, "unexpected token %q in expression", p.cur.Literal)
	}
}

func (p *Parser) parseCase() (Expression, error) {
	p.advance() // CASE
	ce := &CaseExpr{}
	if !p.curIs(TOKEN_WHEN) {
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Operand = operand
	}
	for p.curIs(TOKEN_WHEN) {
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_THEN, "THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, WhenClause{Cond: cond, Result: result})
	}
	if p.curIs(TOKEN_ELSE) {
		p.advance()
		elseExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Else = elseExpr
	}
	if _, err := p.expect(TOKEN_END, "END"); err != nil {
		return nil, err
	}
	return ce, nil
}

func (p *Parser) parseCast() (Expression, error) {
	p.advance() // CAST
	if _, err := p.expect(TOKEN_LPAREN, "("); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TOKEN_AS, "AS"); err != nil {
		return nil, err
	}
	typ, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}
	return &CastExpr{Expr: expr, Type: typ}, nil
}

func (p *Parser) parseArrayLiteral() (Expression, error) {
	p.advance() // [
	lit := &ArrayExpr{}
	if !p.curIs(TOKEN_RBRACKET) {
		elems, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		lit.Elems = elems
	}
	if _, err := p.expect(TOKEN_RBRACKET, "]"); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) parseParenExprOrTupleOrSubquery() (Expression, error) {
	p.advance() // (
	if p.curIs(TOKEN_SELECT) || p.curIs(TOKEN_WITH) {
		q, err := p.parseSelectChain()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
		return &SubqueryExpr{Query: q}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.curIs(TOKEN_COMMA) {
		elems := []Expression{first}
		for p.curIs(TOKEN_COMMA) {
			p.advance()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
		return &TupleExpr{Elems: elems}, nil
	}
	if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
		return nil, err
	}
	return first, nil
}

// parseIdentOrCall parses a bare/qualified column reference or a function
// call.
func (p *Parser) parseIdentOrCall() (Expression, error) {
	name := p.cur.Literal
	p.advance()

	if p.curIs(TOKEN_DOT) {
		p.advance()
		if p.curIs(TOKEN_STAR) {
			p.advance()
			return &StarExpr{Qualifier: name}, nil
		}
		field, err := p.expect(TOKEN_IDENT, "column name")
		if err != nil {
			return nil, err
		}
		return &ColumnRefExpr{Table: name, Name: field.Literal}, nil
	}

	if p.curIs(TOKEN_LPAREN) {
		p.advance()
		call := &FuncCallExpr{Name: name}
		if p.curIs(TOKEN_DISTINCT) {
			call.Distinct = true
			p.advance()
		}
		if !p.curIs(TOKEN_RPAREN) {
			if p.curIs(TOKEN_STAR) {
				p.advance()
				call.Args = []Expression{&StarExpr{}}
			} else {
				args, err := p.parseExprList()
				if err != nil {
					return nil, err
				}
				call.Args = args
			}
		}
		if _, err := p.expect(TOKEN_RPAREN, ")"); err != nil {
			return nil, err
		}
		return call, nil
	}

	return &ColumnRefExpr{Name: name}, nil
}
