package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JayabrataBasu/chql/pkg/catalog"
)

// evalCtx carries everything a single expression evaluation needs: the
// executor (for running a correlated subquery or calling into the
// function registry), the row the expression evaluates against, and the
// statement's positional parameter values.
type evalCtx struct {
	ex     *Executor
	row    *RowContext
	params []catalog.Value
}

// aggLookup is implemented by the caller (grouped/windowed select
// evaluation) to short-circuit a FuncCallExpr that eval would otherwise
// try to resolve as a plain scalar call.
type aggLookup func(call *FuncCallExpr) (catalog.Value, bool)

func (c *evalCtx) eval(expr Expression) (catalog.Value, error) {
	return c.evalWithAgg(expr, nil)
}

func (c *evalCtx) evalWithAgg(expr Expression, lookup aggLookup) (catalog.Value, error) {
	switch e := expr.(type) {
	case *LiteralExpr:
		return e.Value, nil

	case *ParamExpr:
		if e.Index < 0 || e.Index >= len(c.params) {
			return catalog.Value{}, fmt.Errorf("sql: parameter $%d has no bound value", e.Index+1)
		}
		return c.params[e.Index], nil

	case *ColumnRefExpr:
		v, ok := c.row.Lookup(e.Table, e.Name)
		if !ok {
			if e.Table == "" && c.row.IsAmbiguous(e.Name) {
				return catalog.Value{}, fmt.Errorf("sql: column reference %q is ambiguous", e.Name)
			}
			return catalog.Value{}, fmt.Errorf("sql: unknown column %q", qualifiedName(e.Table, e.Name))
		}
		return v, nil

	case *AliasExpr:
		return c.evalWithAgg(e.Expr, lookup)

	case *UnaryExpr:
		return c.evalUnary(e, lookup)

	case *BinaryExpr:
		return c.evalBinary(e, lookup)

	case *CastExpr:
		v, err := c.evalWithAgg(e.Expr, lookup)
		if err != nil {
			return catalog.Value{}, err
		}
		out, err := catalog.ConvertTo(v, e.Type)
		if err != nil {
			return catalog.Value{}, wrapError(ErrConversion, err)
		}
		return out, nil

	case *IsNullExpr:
		v, err := c.evalWithAgg(e.Expr, lookup)
		if err != nil {
			return catalog.Value{}, err
		}
		result := v.IsNull()
		if e.Not {
			result = !result
		}
		return catalog.NewBool(result), nil

	case *BetweenExpr:
		return c.evalBetween(e, lookup)

	case *InExpr:
		return c.evalIn(e, lookup)

	case *CaseExpr:
		return c.evalCase(e, lookup)

	case *FuncCallExpr:
		if lookup != nil {
			if v, ok := lookup(e); ok {
				return v, nil
			}
		}
		return c.evalFuncCall(e, lookup)

	case *ArrayExpr:
		return c.evalArray(e, lookup)

	case *TupleExpr:
		return c.evalTuple(e, lookup)

	case *IndexExpr:
		base, err := c.evalWithAgg(e.Expr, lookup)
		if err != nil {
			return catalog.Value{}, err
		}
		idx, err := c.evalWithAgg(e.Index, lookup)
		if err != nil {
			return catalog.Value{}, err
		}
		if base.IsNull() || idx.IsNull() {
			return catalog.Null(catalog.Nullable(catalog.TypeNull)), nil
		}
		return base.Index(idx.AsInt64()), nil

	case *SubqueryExpr:
		return c.evalScalarSubquery(e.Query)

	case *ExistsExpr:
		rows, err := c.ex.execCorrelated(e.Query, c.row, c.params)
		if err != nil {
			return catalog.Value{}, err
		}
		exists := len(rows.Rows) > 0
		if e.Not {
			exists = !exists
		}
		return catalog.NewBool(exists), nil

	case *StarExpr:
		return catalog.Value{}, fmt.Errorf("sql: '*' is not valid in this expression context")

	default:
		return catalog.Value{}, NewQueryErrorFromKind(ErrNotImplemented, fmt.Sprintf("expression type %T is not supported", expr))
	}
}

func qualifiedName(table, name string) string {
	if table == "" {
		return name
	}
	return table + "." + name
}

func NewQueryErrorFromKind(kind ErrorKind, msg string) *QueryError {
	return &QueryError{Kind: kind, Message: msg}
}

func (c *evalCtx) evalUnary(e *UnaryExpr, lookup aggLookup) (catalog.Value, error) {
	v, err := c.evalWithAgg(e.Expr, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	switch e.Op {
	case TOKEN_NOT:
		if v.IsNull() {
			return catalog.Null(catalog.Nullable(catalog.TypeBool)), nil
		}
		return catalog.NewBool(!v.Truthy()), nil
	case TOKEN_MINUS:
		if v.IsNull() {
			return v, nil
		}
		return negate(v)
	case TOKEN_PLUS:
		return v, nil
	default:
		return catalog.Value{}, fmt.Errorf("sql: unsupported unary operator")
	}
}

func negate(v catalog.Value) (catalog.Value, error) {
	switch v.Type().Under().Kind {
	case catalog.KindFloat32, catalog.KindFloat64:
		return catalog.NewFloat64(-v.AsFloat64()), nil
	case catalog.KindDecimal:
		t := v.Type().Under()
		return catalog.NewDecimal(v.AsDecimal().Neg(), t.Precision, t.Scale), nil
	default:
		if v.Type().Under().IsInteger() {
			return catalog.NewInt64(-signedValue(v)), nil
		}
		return catalog.Value{}, fmt.Errorf("sql: cannot negate a non-numeric value")
	}
}

func signedValue(v catalog.Value) int64 {
	if v.Type().Under().IsUnsignedInteger() {
		return int64(v.AsUInt64())
	}
	return v.AsInt64()
}

func (c *evalCtx) evalBinary(e *BinaryExpr, lookup aggLookup) (catalog.Value, error) {
	switch e.Op {
	case TOKEN_AND:
		return c.evalAnd(e, lookup)
	case TOKEN_OR:
		return c.evalOr(e, lookup)
	}

	left, err := c.evalWithAgg(e.Left, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	right, err := c.evalWithAgg(e.Right, lookup)
	if err != nil {
		return catalog.Value{}, err
	}

	switch e.Op {
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		return evalComparison(e.Op, left, right)
	case TOKEN_PLUS, TOKEN_MINUS, TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
		return evalArith(e.Op, left, right)
	case TOKEN_CONCAT:
		if left.IsNull() || right.IsNull() {
			return catalog.Null(catalog.Nullable(catalog.TypeString)), nil
		}
		return catalog.NewString(left.String() + right.String()), nil
	case TOKEN_LIKE, TOKEN_ILIKE:
		return evalLike(left, right, e.Op == TOKEN_ILIKE)
	default:
		return catalog.Value{}, fmt.Errorf("sql: unsupported binary operator")
	}
}

// evalAnd/evalOr implement three-valued logic (true/false/null), short-
// circuiting only on the deciding value (false for AND, true for OR).
func (c *evalCtx) evalAnd(e *BinaryExpr, lookup aggLookup) (catalog.Value, error) {
	left, err := c.evalWithAgg(e.Left, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	if !left.IsNull() && !left.Truthy() {
		return catalog.NewBool(false), nil
	}
	right, err := c.evalWithAgg(e.Right, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	if !right.IsNull() && !right.Truthy() {
		return catalog.NewBool(false), nil
	}
	if left.IsNull() || right.IsNull() {
		return catalog.Null(catalog.Nullable(catalog.TypeBool)), nil
	}
	return catalog.NewBool(true), nil
}

func (c *evalCtx) evalOr(e *BinaryExpr, lookup aggLookup) (catalog.Value, error) {
	left, err := c.evalWithAgg(e.Left, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	if !left.IsNull() && left.Truthy() {
		return catalog.NewBool(true), nil
	}
	right, err := c.evalWithAgg(e.Right, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	if !right.IsNull() && right.Truthy() {
		return catalog.NewBool(true), nil
	}
	if left.IsNull() || right.IsNull() {
		return catalog.Null(catalog.Nullable(catalog.TypeBool)), nil
	}
	return catalog.NewBool(false), nil
}

func evalComparison(op TokenType, a, b catalog.Value) (catalog.Value, error) {
	if a.IsNull() || b.IsNull() {
		return catalog.Null(catalog.Nullable(catalog.TypeBool)), nil
	}
	cmp, err := a.CompareTo(b)
	if err != nil {
		return catalog.Value{}, wrapError(ErrType, err)
	}
	var result bool
	switch op {
	case TOKEN_EQ:
		result = cmp == 0
	case TOKEN_NE:
		result = cmp != 0
	case TOKEN_LT:
		result = cmp < 0
	case TOKEN_LE:
		result = cmp <= 0
	case TOKEN_GT:
		result = cmp > 0
	case TOKEN_GE:
		result = cmp >= 0
	}
	return catalog.NewBool(result), nil
}

// evalArith implements the numeric widening ladder: any Decimal operand
// promotes both sides to decimal arithmetic; else any float operand
// promotes to float64; division always produces Float64 (ClickHouse's
// plain `/` is true division, never integer division); otherwise both
// sides are integers and the result stays int64.
func evalArith(op TokenType, a, b catalog.Value) (catalog.Value, error) {
	if a.IsNull() || b.IsNull() {
		return catalog.Null(catalog.Nullable(catalog.TypeFloat64)), nil
	}
	ak, bk := a.Type().Under().Kind, b.Type().Under().Kind
	if !a.Type().Under().IsNumeric() || !b.Type().Under().IsNumeric() {
		return catalog.Value{}, fmt.Errorf("sql: arithmetic requires numeric operands")
	}

	if op == TOKEN_SLASH {
		af, bf := asFloat(a), asFloat(b)
		if bf == 0 {
			return catalog.Null(catalog.Nullable(catalog.TypeFloat64)), nil
		}
		return catalog.NewFloat64(af / bf), nil
	}

	if ak == catalog.KindDecimal || bk == catalog.KindDecimal {
		ad, bd := asDecimal(a), asDecimal(b)
		scale := maxInt(decimalScale(a), decimalScale(b))
		var r decimal.Decimal
		switch op {
		case TOKEN_PLUS:
			r = ad.Add(bd)
		case TOKEN_MINUS:
			r = ad.Sub(bd)
		case TOKEN_STAR:
			r = ad.Mul(bd)
		case TOKEN_PERCENT:
			if bd.IsZero() {
				return catalog.Null(catalog.Nullable(catalog.TypeFloat64)), nil
			}
			r = ad.Mod(bd)
		}
		precision := maxInt(decimalPrecision(a), decimalPrecision(b))
		return catalog.NewDecimal(r, precision, scale), nil
	}

	if ak == catalog.KindFloat32 || ak == catalog.KindFloat64 || bk == catalog.KindFloat32 || bk == catalog.KindFloat64 {
		af, bf := asFloat(a), asFloat(b)
		switch op {
		case TOKEN_PLUS:
			return catalog.NewFloat64(af + bf), nil
		case TOKEN_MINUS:
			return catalog.NewFloat64(af - bf), nil
		case TOKEN_STAR:
			return catalog.NewFloat64(af * bf), nil
		case TOKEN_PERCENT:
			if bf == 0 {
				return catalog.Null(catalog.Nullable(catalog.TypeFloat64)), nil
			}
			return catalog.NewFloat64(float64(int64(af) % int64(bf))), nil
		}
	}

	ai, bi := signedValue(a), signedValue(b)
	switch op {
	case TOKEN_PLUS:
		return catalog.NewInt64(ai + bi), nil
	case TOKEN_MINUS:
		return catalog.NewInt64(ai - bi), nil
	case TOKEN_STAR:
		return catalog.NewInt64(ai * bi), nil
	case TOKEN_PERCENT:
		if bi == 0 {
			return catalog.Null(catalog.Nullable(catalog.TypeInt64)), nil
		}
		return catalog.NewInt64(ai % bi), nil
	}
	return catalog.Value{}, fmt.Errorf("sql: unsupported arithmetic operator")
}

func asFloat(v catalog.Value) float64 {
	switch v.Type().Under().Kind {
	case catalog.KindFloat32, catalog.KindFloat64:
		return v.AsFloat64()
	case catalog.KindDecimal:
		f, _ := v.AsDecimal().Float64()
		return f
	default:
		if v.Type().Under().IsUnsignedInteger() {
			return float64(v.AsUInt64())
		}
		return float64(v.AsInt64())
	}
}

func asDecimal(v catalog.Value) decimal.Decimal {
	switch v.Type().Under().Kind {
	case catalog.KindDecimal:
		return v.AsDecimal()
	case catalog.KindFloat32, catalog.KindFloat64:
		return decimal.NewFromFloat(v.AsFloat64())
	default:
		if v.Type().Under().IsUnsignedInteger() {
			return decimal.NewFromUint64(v.AsUInt64())
		}
		return decimal.NewFromInt(v.AsInt64())
	}
}

func decimalScale(v catalog.Value) int {
	if v.Type().Under().Kind == catalog.KindDecimal {
		return v.Type().Under().Scale
	}
	return 0
}

func decimalPrecision(v catalog.Value) int {
	if v.Type().Under().Kind == catalog.KindDecimal {
		return v.Type().Under().Precision
	}
	return 18
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// evalLike translates a SQL LIKE/ILIKE pattern (`%` any run, `_` any
// single char, `\%`/`\_` escaped literals) to an anchored regular
// expression.
func evalLike(subject, pattern catalog.Value, caseInsensitive bool) (catalog.Value, error) {
	if subject.IsNull() || pattern.IsNull() {
		return catalog.Null(catalog.Nullable(catalog.TypeBool)), nil
	}
	re, err := likeToRegexp(pattern.AsString(), caseInsensitive)
	if err != nil {
		return catalog.Value{}, err
	}
	return catalog.NewBool(re.MatchString(subject.AsString())), nil
}

func likeToRegexp(pattern string, caseInsensitive bool) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '\\' && i+1 < len(runes):
			i++
			sb.WriteString(regexp.QuoteMeta(string(runes[i])))
		case ch == '%':
			sb.WriteString(".*")
		case ch == '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	sb.WriteString("$")
	expr := sb.String()
	if caseInsensitive {
		expr = "(?i)" + expr
	}
	return regexp.Compile(expr)
}

func (c *evalCtx) evalBetween(e *BetweenExpr, lookup aggLookup) (catalog.Value, error) {
	v, err := c.evalWithAgg(e.Expr, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	lo, err := c.evalWithAgg(e.Low, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	hi, err := c.evalWithAgg(e.High, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	if v.IsNull() || lo.IsNull() || hi.IsNull() {
		return catalog.Null(catalog.Nullable(catalog.TypeBool)), nil
	}
	cmpLo, err := v.CompareTo(lo)
	if err != nil {
		return catalog.Value{}, wrapError(ErrType, err)
	}
	cmpHi, err := v.CompareTo(hi)
	if err != nil {
		return catalog.Value{}, wrapError(ErrType, err)
	}
	result := cmpLo >= 0 && cmpHi <= 0
	if e.Not {
		result = !result
	}
	return catalog.NewBool(result), nil
}

func (c *evalCtx) evalIn(e *InExpr, lookup aggLookup) (catalog.Value, error) {
	v, err := c.evalWithAgg(e.Expr, lookup)
	if err != nil {
		return catalog.Value{}, err
	}
	var candidates []catalog.Value
	if e.Subquery != nil {
		res, err := c.ex.execCorrelated(e.Subquery, c.row, c.params)
		if err != nil {
			return catalog.Value{}, err
		}
		for _, row := range res.Rows {
			if len(row) > 0 {
				candidates = append(candidates, row[0])
			}
		}
	} else {
		for _, ve := range e.Values {
			cv, err := c.evalWithAgg(ve, lookup)
			if err != nil {
				return catalog.Value{}, err
			}
			candidates = append(candidates, cv)
		}
	}
	if v.IsNull() {
		return catalog.Null(catalog.Nullable(catalog.TypeBool)), nil
	}
	found := false
	for _, cand := range candidates {
		if cand.IsNull() {
			continue
		}
		if v.Equals(cand) {
			found = true
			break
		}
	}
	if e.Not {
		found = !found
	}
	return catalog.NewBool(found), nil
}

func (c *evalCtx) evalCase(e *CaseExpr, lookup aggLookup) (catalog.Value, error) {
	var operand catalog.Value
	if e.Operand != nil {
		v, err := c.evalWithAgg(e.Operand, lookup)
		if err != nil {
			return catalog.Value{}, err
		}
		operand = v
	}
	for _, when := range e.Whens {
		if e.Operand != nil {
			cv, err := c.evalWithAgg(when.Cond, lookup)
			if err != nil {
				return catalog.Value{}, err
			}
			if operand.IsNull() || cv.IsNull() {
				continue
			}
			if !operand.Equals(cv) {
				continue
			}
		} else {
			cv, err := c.evalWithAgg(when.Cond, lookup)
			if err != nil {
				return catalog.Value{}, err
			}
			if cv.IsNull() || !cv.Truthy() {
				continue
			}
		}
		return c.evalWithAgg(when.Result, lookup)
	}
	if e.Else != nil {
		return c.evalWithAgg(e.Else, lookup)
	}
	return catalog.Null(catalog.Nullable(catalog.TypeNull)), nil
}

func (c *evalCtx) evalArray(e *ArrayExpr, lookup aggLookup) (catalog.Value, error) {
	elems := make([]catalog.Value, len(e.Elems))
	elemType := catalog.TypeNull
	for i, ee := range e.Elems {
		v, err := c.evalWithAgg(ee, lookup)
		if err != nil {
			return catalog.Value{}, err
		}
		elems[i] = v
		if !v.IsNull() {
			elemType = v.Type()
		}
	}
	return catalog.NewArray(elemType, elems), nil
}

func (c *evalCtx) evalTuple(e *TupleExpr, lookup aggLookup) (catalog.Value, error) {
	elems := make([]catalog.Value, len(e.Elems))
	for i, ee := range e.Elems {
		v, err := c.evalWithAgg(ee, lookup)
		if err != nil {
			return catalog.Value{}, err
		}
		elems[i] = v
	}
	return catalog.NewTuple(elems, nil), nil
}

func (c *evalCtx) evalFuncCall(e *FuncCallExpr, lookup aggLookup) (catalog.Value, error) {
	if c.ex.registry != nil && c.ex.registry.IsAggregate(e.Name) && e.Window == nil {
		return catalog.Value{}, fmt.Errorf("sql: aggregate function %q used outside of an aggregation context", e.Name)
	}
	args := make([]catalog.Value, 0, len(e.Args))
	for _, a := range e.Args {
		if star, ok := a.(*StarExpr); ok {
			_ = star
			args = append(args, catalog.NewInt64(1))
			continue
		}
		v, err := c.evalWithAgg(a, lookup)
		if err != nil {
			return catalog.Value{}, err
		}
		args = append(args, v)
	}
	if c.ex.registry == nil {
		return catalog.Value{}, fmt.Errorf("sql: no function registry configured, cannot resolve %q", e.Name)
	}
	fn, ok := c.ex.registry.Get(e.Name)
	if !ok {
		return catalog.Value{}, NewQueryErrorFromKind(ErrName, fmt.Sprintf("unknown function %q", e.Name))
	}
	v, err := fn.Execute(args, e.Distinct)
	if err != nil {
		return catalog.Value{}, fmt.Errorf("sql: function %q: %w", e.Name, err)
	}
	return v, nil
}

func (c *evalCtx) evalScalarSubquery(q *SelectStmt) (catalog.Value, error) {
	res, err := c.ex.execCorrelated(q, c.row, c.params)
	if err != nil {
		return catalog.Value{}, err
	}
	if len(res.Rows) == 0 {
		return catalog.Null(catalog.Nullable(catalog.TypeNull)), nil
	}
	if len(res.Rows) > 1 {
		return catalog.Value{}, fmt.Errorf("sql: scalar subquery returned more than one row")
	}
	if len(res.Rows[0]) != 1 {
		return catalog.Value{}, fmt.Errorf("sql: scalar subquery must return exactly one column")
	}
	return res.Rows[0][0], nil
}
