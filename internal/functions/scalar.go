package functions

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JayabrataBasu/chql/pkg/catalog"
	"github.com/JayabrataBasu/chql/pkg/sql"
)

func registerScalars(r *Registry) {
	r.addScalar("coalesce", coalesceFn)
	r.addScalar("nullif", nullifFn)

	r.addScalar("upper", stringFn1(strings.ToUpper))
	r.addScalar("lower", stringFn1(strings.ToLower))
	r.addScalar("length", lengthFn)
	r.addScalar("concat", concatFn)
	r.addScalar("substring", substringFn)
	r.addScalar("trim", trimFn(strings.TrimSpace))
	r.addScalar("ltrim", trimFn(func(s string) string { return strings.TrimLeft(s, " \t\n\r") }))
	r.addScalar("rtrim", trimFn(func(s string) string { return strings.TrimRight(s, " \t\n\r") }))
	r.addScalar("replace", replaceFn)
	r.addScalar("position", positionFn)
	r.addScalar("reverse", reverseFn)
	r.addScalar("repeat", repeatFn)
	r.addScalar("lpad", padFn(true))
	r.addScalar("rpad", padFn(false))

	r.addScalar("abs", absFn)
	r.addScalar("round", roundFn)
	r.addScalar("floor", floorFn)
	r.addScalar("ceil", ceilFn)
	r.addScalar("mod", modFn)
	r.addScalar("power", powerFn)
	r.addScalar("sqrt", sqrtFn)

	r.addScalar("now", nowFn)
	r.addScalar("current_timestamp", nowFn)
	r.addScalar("current_date", currentDateFn)
	r.addScalar("extract", extractFn)
	r.addScalar("generateuuidv4", generateUUIDv4Fn)
}

func underlyingKind(t catalog.Type) catalog.Kind { return t.Under().Kind }

func isIntegerKind(t catalog.Type) bool {
	switch underlyingKind(t) {
	case catalog.KindInt8, catalog.KindInt16, catalog.KindInt32, catalog.KindInt64,
		catalog.KindUInt8, catalog.KindUInt16, catalog.KindUInt32, catalog.KindUInt64:
		return true
	default:
		return false
	}
}

func isUnsignedKind(t catalog.Type) bool {
	switch underlyingKind(t) {
	case catalog.KindUInt8, catalog.KindUInt16, catalog.KindUInt32, catalog.KindUInt64:
		return true
	default:
		return false
	}
}

func asFloat64(v catalog.Value) float64 {
	switch underlyingKind(v.Type()) {
	case catalog.KindFloat32, catalog.KindFloat64:
		return v.AsFloat64()
	case catalog.KindDecimal:
		f, _ := v.AsDecimal().Float64()
		return f
	case catalog.KindUInt8, catalog.KindUInt16, catalog.KindUInt32, catalog.KindUInt64:
		return float64(v.AsUInt64())
	default:
		return float64(v.AsInt64())
	}
}

func nullResult() (catalog.Value, error) {
	return catalog.Null(catalog.Nullable(catalog.TypeNull)), nil
}

// coalesceFn returns the first non-null argument, ClickHouse style.
func coalesceFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	for _, a := range args {
		if !a.IsNull() {
			return a, nil
		}
	}
	if len(args) == 0 {
		return nullResult()
	}
	return args[len(args)-1], nil
}

// nullifFn returns NULL when both arguments are equal, else the first
// argument.
func nullifFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 2 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "nullif takes exactly 2 arguments")
	}
	if !args[0].IsNull() && !args[1].IsNull() && args[0].Equals(args[1]) {
		return catalog.Null(catalog.Nullable(args[0].Type())), nil
	}
	return args[0], nil
}

func stringFn1(transform func(string) string) scalarFunc {
	return func(args []catalog.Value, _ bool) (catalog.Value, error) {
		if len(args) != 1 {
			return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "function takes exactly 1 argument")
		}
		if args[0].IsNull() {
			return nullResult()
		}
		return catalog.NewString(transform(args[0].AsString())), nil
	}
}

func lengthFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 1 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "length takes exactly 1 argument")
	}
	if args[0].IsNull() {
		return nullResult()
	}
	return catalog.NewInt64(int64(len([]rune(args[0].AsString())))), nil
}

func concatFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	var b strings.Builder
	for _, a := range args {
		if a.IsNull() {
			return nullResult()
		}
		b.WriteString(a.AsString())
	}
	return catalog.NewString(b.String()), nil
}

func substringFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "substring takes 2 or 3 arguments")
	}
	if args[0].IsNull() || args[1].IsNull() {
		return nullResult()
	}
	runes := []rune(args[0].AsString())
	start := int(args[1].AsInt64())
	if start < 1 {
		start = 1
	}
	if start > len(runes)+1 {
		return catalog.NewString(""), nil
	}
	startIdx := start - 1
	end := len(runes)
	if len(args) == 3 {
		if args[2].IsNull() {
			return nullResult()
		}
		n := int(args[2].AsInt64())
		if n < 0 {
			n = 0
		}
		if startIdx+n < end {
			end = startIdx + n
		}
	}
	if startIdx > end {
		return catalog.NewString(""), nil
	}
	return catalog.NewString(string(runes[startIdx:end])), nil
}

func trimFn(transform func(string) string) scalarFunc {
	return func(args []catalog.Value, _ bool) (catalog.Value, error) {
		if len(args) != 1 {
			return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "function takes exactly 1 argument")
		}
		if args[0].IsNull() {
			return nullResult()
		}
		return catalog.NewString(transform(args[0].AsString())), nil
	}
}

func replaceFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 3 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "replace takes exactly 3 arguments")
	}
	for _, a := range args {
		if a.IsNull() {
			return nullResult()
		}
	}
	return catalog.NewString(strings.ReplaceAll(args[0].AsString(), args[1].AsString(), args[2].AsString())), nil
}

func positionFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 2 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "position takes exactly 2 arguments")
	}
	if args[0].IsNull() || args[1].IsNull() {
		return nullResult()
	}
	haystack, needle := args[0].AsString(), args[1].AsString()
	idx := strings.Index(haystack, needle)
	if idx < 0 {
		return catalog.NewInt64(0), nil
	}
	return catalog.NewInt64(int64(len([]rune(haystack[:idx])) + 1)), nil
}

func reverseFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 1 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "reverse takes exactly 1 argument")
	}
	if args[0].IsNull() {
		return nullResult()
	}
	runes := []rune(args[0].AsString())
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return catalog.NewString(string(runes)), nil
}

func repeatFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 2 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "repeat takes exactly 2 arguments")
	}
	if args[0].IsNull() || args[1].IsNull() {
		return nullResult()
	}
	n := int(args[1].AsInt64())
	if n < 0 {
		n = 0
	}
	return catalog.NewString(strings.Repeat(args[0].AsString(), n)), nil
}

func padFn(left bool) scalarFunc {
	return func(args []catalog.Value, _ bool) (catalog.Value, error) {
		if len(args) != 3 {
			return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "pad function takes exactly 3 arguments")
		}
		for _, a := range args {
			if a.IsNull() {
				return nullResult()
			}
		}
		runes := []rune(args[0].AsString())
		target := int(args[1].AsInt64())
		pad := []rune(args[2].AsString())
		if target <= len(runes) {
			if target < 0 {
				target = 0
			}
			if left {
				return catalog.NewString(string(runes[len(runes)-target:])), nil
			}
			return catalog.NewString(string(runes[:target])), nil
		}
		if len(pad) == 0 {
			return catalog.NewString(string(runes)), nil
		}
		need := target - len(runes)
		fill := make([]rune, 0, need)
		for len(fill) < need {
			fill = append(fill, pad...)
		}
		fill = fill[:need]
		if left {
			return catalog.NewString(string(fill) + string(runes)), nil
		}
		return catalog.NewString(string(runes) + string(fill)), nil
	}
}

func absFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 1 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "abs takes exactly 1 argument")
	}
	if args[0].IsNull() {
		return nullResult()
	}
	if isUnsignedKind(args[0].Type()) {
		return args[0], nil
	}
	if isIntegerKind(args[0].Type()) {
		n := args[0].AsInt64()
		if n < 0 {
			n = -n
		}
		return catalog.NewInt64(n), nil
	}
	return catalog.NewFloat64(math.Abs(asFloat64(args[0]))), nil
}

func roundFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "round takes 1 or 2 arguments")
	}
	if args[0].IsNull() {
		return nullResult()
	}
	digits := 0
	if len(args) == 2 {
		if args[1].IsNull() {
			return nullResult()
		}
		digits = int(args[1].AsInt64())
	}
	scale := math.Pow(10, float64(digits))
	return catalog.NewFloat64(math.Round(asFloat64(args[0])*scale) / scale), nil
}

func floorFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 1 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "floor takes exactly 1 argument")
	}
	if args[0].IsNull() {
		return nullResult()
	}
	return catalog.NewFloat64(math.Floor(asFloat64(args[0]))), nil
}

func ceilFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 1 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "ceil takes exactly 1 argument")
	}
	if args[0].IsNull() {
		return nullResult()
	}
	return catalog.NewFloat64(math.Ceil(asFloat64(args[0]))), nil
}

func modFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 2 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "mod takes exactly 2 arguments")
	}
	if args[0].IsNull() || args[1].IsNull() {
		return nullResult()
	}
	if isIntegerKind(args[0].Type()) && isIntegerKind(args[1].Type()) {
		divisor := args[1].AsInt64()
		if divisor == 0 {
			return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrConversion, "division by zero in mod")
		}
		return catalog.NewInt64(args[0].AsInt64() % divisor), nil
	}
	return catalog.NewFloat64(math.Mod(asFloat64(args[0]), asFloat64(args[1]))), nil
}

func powerFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 2 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "power takes exactly 2 arguments")
	}
	if args[0].IsNull() || args[1].IsNull() {
		return nullResult()
	}
	return catalog.NewFloat64(math.Pow(asFloat64(args[0]), asFloat64(args[1]))), nil
}

func sqrtFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 1 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "sqrt takes exactly 1 argument")
	}
	if args[0].IsNull() {
		return nullResult()
	}
	return catalog.NewFloat64(math.Sqrt(asFloat64(args[0]))), nil
}

func nowFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 0 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "now takes no arguments")
	}
	return catalog.NewDateTime(time.Now().UTC(), "UTC"), nil
}

func currentDateFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 0 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "current_date takes no arguments")
	}
	now := time.Now().UTC()
	return catalog.NewDate(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)), nil
}

// extractFn implements EXTRACT(unit, value): unit arrives as a string
// literal naming a calendar field.
func extractFn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 2 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "extract takes exactly 2 arguments")
	}
	if args[1].IsNull() {
		return nullResult()
	}
	t := args[1].AsTime()
	switch strings.ToLower(args[0].AsString()) {
	case "year":
		return catalog.NewInt64(int64(t.Year())), nil
	case "month":
		return catalog.NewInt64(int64(t.Month())), nil
	case "day":
		return catalog.NewInt64(int64(t.Day())), nil
	case "hour":
		return catalog.NewInt64(int64(t.Hour())), nil
	case "minute":
		return catalog.NewInt64(int64(t.Minute())), nil
	case "second":
		return catalog.NewInt64(int64(t.Second())), nil
	case "dow", "dayofweek":
		return catalog.NewInt64(int64(t.Weekday())), nil
	default:
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrName, "unknown extract unit "+args[0].AsString())
	}
}

func generateUUIDv4Fn(args []catalog.Value, _ bool) (catalog.Value, error) {
	if len(args) != 0 {
		return catalog.Value{}, sql.NewQueryErrorFromKind(sql.ErrArity, "generateUUIDv4 takes no arguments")
	}
	return catalog.NewUUID(uuid.New()), nil
}
