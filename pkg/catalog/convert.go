package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConversionError reports a failed CAST or implicit coercion (§4.C). The
// executor wraps these into a QueryError of kind conversion; kept as a
// plain error here so the catalog package stays independent of pkg/sql.
type ConversionError struct {
	From, To string
	Reason   string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s: %s", e.From, e.To, e.Reason)
}

var dateLayouts = []string{"2006-01-02"}
var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ConvertTo casts v to the target type per §4.C's CAST semantics. A null
// of any type casts to a null of the target type when the target is
// Nullable; a null into a non-nullable target is a *ConversionError.
// Overflow, unparseable literals, and nonsensical conversions (e.g. array
// to int) also return a *ConversionError.
func ConvertTo(v Value, target Type) (Value, error) {
	if v.IsNull() {
		if !target.IsNullable() {
			return Value{}, &ConversionError{From: v.typ.String(), To: target.String(), Reason: "null value for non-nullable type"}
		}
		return Null(target), nil
	}
	under := target.Under()
	switch under.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return convertToSignedInt(v, target, under)
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return convertToUnsignedInt(v, target, under)
	case KindFloat32:
		f, err := toFloat64(v)
		if err != nil {
			return Value{}, err
		}
		return rewrap(Value{typ: TypeFloat32, f64: float64(float32(f))}, target), nil
	case KindFloat64:
		f, err := toFloat64(v)
		if err != nil {
			return Value{}, err
		}
		return rewrap(Value{typ: TypeFloat64, f64: f}, target), nil
	case KindDecimal:
		d, err := toDecimal(v)
		if err != nil {
			return Value{}, err
		}
		return rewrap(NewDecimal(d, under.Precision, under.Scale), target), nil
	case KindString:
		return rewrap(NewString(v.String()), target), nil
	case KindFixedString:
		return rewrap(NewFixedString(v.String(), under.Length), target), nil
	case KindBool:
		b, err := toBool(v)
		if err != nil {
			return Value{}, err
		}
		return rewrap(NewBool(b), target), nil
	case KindDate:
		t, err := toTime(v, dateLayouts)
		if err != nil {
			return Value{}, err
		}
		return rewrap(NewDate(t), target), nil
	case KindDateTime:
		t, err := toTime(v, dateTimeLayouts)
		if err != nil {
			return Value{}, err
		}
		return rewrap(NewDateTime(t, under.TZ), target), nil
	case KindDateTime64:
		t, err := toTime(v, dateTimeLayouts)
		if err != nil {
			return Value{}, err
		}
		return rewrap(NewDateTime64(t, under.Precision, under.TZ), target), nil
	case KindUUID:
		id, err := toUUID(v)
		if err != nil {
			return Value{}, err
		}
		return rewrap(NewUUID(id), target), nil
	case KindArray:
		return convertToArray(v, target, under)
	default:
		return Value{}, &ConversionError{From: v.typ.String(), To: target.String(), Reason: "unsupported cast target"}
	}
}

// rewrap re-tags a freshly constructed scalar value with the caller's
// exact requested type (which may be Nullable(X) or LowCardinality(X))
// rather than the bare underlying type ConvertTo built it with.
func rewrap(v Value, target Type) Value {
	v.typ = target
	return v
}

func convertToSignedInt(v Value, target, under Type) (Value, error) {
	i, err := toInt64(v)
	if err != nil {
		return Value{}, err
	}
	lo, hi := signedRange(under.Kind)
	if i < lo || i > hi {
		return Value{}, &ConversionError{From: v.typ.String(), To: target.String(), Reason: "value out of range"}
	}
	return rewrap(NewInt(under, i), target), nil
}

func convertToUnsignedInt(v Value, target, under Type) (Value, error) {
	var u uint64
	switch {
	case v.typ.Under().Kind == KindFloat32 || v.typ.Under().Kind == KindFloat64:
		f, err := toFloat64(v)
		if err != nil {
			return Value{}, err
		}
		if f < 0 || math.IsNaN(f) {
			return Value{}, &ConversionError{From: v.typ.String(), To: target.String(), Reason: "negative value for unsigned type"}
		}
		u = uint64(f)
	case isSignedKind(v.typ.Under().Kind):
		if v.i64 < 0 {
			return Value{}, &ConversionError{From: v.typ.String(), To: target.String(), Reason: "negative value for unsigned type"}
		}
		u = uint64(v.i64)
	case isUnsignedKind(v.typ.Under().Kind):
		u = v.u64
	default:
		i, err := toInt64(v)
		if err != nil {
			return Value{}, err
		}
		if i < 0 {
			return Value{}, &ConversionError{From: v.typ.String(), To: target.String(), Reason: "negative value for unsigned type"}
		}
		u = uint64(i)
	}
	hi := unsignedMax(under.Kind)
	if u > hi {
		return Value{}, &ConversionError{From: v.typ.String(), To: target.String(), Reason: "value out of range"}
	}
	return rewrap(NewUInt(under, u), target), nil
}

func signedRange(k Kind) (int64, int64) {
	switch k {
	case KindInt8:
		return math.MinInt8, math.MaxInt8
	case KindInt16:
		return math.MinInt16, math.MaxInt16
	case KindInt32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func unsignedMax(k Kind) uint64 {
	switch k {
	case KindUInt8:
		return math.MaxUint8
	case KindUInt16:
		return math.MaxUint16
	case KindUInt32:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

func toInt64(v Value) (int64, error) {
	switch v.typ.Under().Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.i64, nil
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		if v.u64 > math.MaxInt64 {
			return 0, &ConversionError{From: v.typ.String(), To: "Int64", Reason: "value out of range"}
		}
		return int64(v.u64), nil
	case KindFloat32, KindFloat64:
		return int64(v.f64), nil
	case KindDecimal:
		return v.dec.Truncate(0).IntPart(), nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindString, KindFixedString:
		s := strings.TrimSpace(v.String())
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, &ConversionError{From: v.typ.String(), To: "Int64", Reason: "unparseable integer literal " + strconv.Quote(s)}
		}
		return i, nil
	default:
		return 0, &ConversionError{From: v.typ.String(), To: "Int64", Reason: "no integer conversion defined"}
	}
}

func toFloat64(v Value) (float64, error) {
	switch v.typ.Under().Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return float64(v.i64), nil
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return float64(v.u64), nil
	case KindFloat32, KindFloat64:
		return v.f64, nil
	case KindDecimal:
		f, _ := v.dec.Float64()
		return f, nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindString, KindFixedString:
		s := strings.TrimSpace(v.String())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, &ConversionError{From: v.typ.String(), To: "Float64", Reason: "unparseable float literal " + strconv.Quote(s)}
		}
		return f, nil
	default:
		return 0, &ConversionError{From: v.typ.String(), To: "Float64", Reason: "no float conversion defined"}
	}
}

func toDecimal(v Value) (decimal.Decimal, error) {
	switch v.typ.Under().Kind {
	case KindDecimal:
		return v.dec, nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return decimal.NewFromInt(v.i64), nil
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return decimal.NewFromUint64(v.u64), nil
	case KindFloat32, KindFloat64:
		return decimal.NewFromFloat(v.f64), nil
	case KindString, KindFixedString:
		s := strings.TrimSpace(v.String())
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, &ConversionError{From: v.typ.String(), To: "Decimal", Reason: "unparseable decimal literal " + strconv.Quote(s)}
		}
		return d, nil
	default:
		return decimal.Zero, &ConversionError{From: v.typ.String(), To: "Decimal", Reason: "no decimal conversion defined"}
	}
}

func toBool(v Value) (bool, error) {
	switch v.typ.Under().Kind {
	case KindBool:
		return v.b, nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.i64 != 0, nil
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return v.u64 != 0, nil
	case KindFloat32, KindFloat64:
		return v.f64 != 0, nil
	case KindString, KindFixedString:
		s := strings.ToLower(strings.TrimSpace(v.String()))
		switch s {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, &ConversionError{From: v.typ.String(), To: "Bool", Reason: "unparseable bool literal " + strconv.Quote(s)}
	default:
		return false, &ConversionError{From: v.typ.String(), To: "Bool", Reason: "no bool conversion defined"}
	}
}

// toTime parses/coerces v into a time.Time using the given pinned layout
// set (§9's "fixed Go layout, no locale" decision); values that are
// already Date/DateTime/DateTime64 pass through.
func toTime(v Value, layouts []string) (time.Time, error) {
	switch v.typ.Under().Kind {
	case KindDate, KindDateTime, KindDateTime64:
		return v.t, nil
	case KindString, KindFixedString:
		s := strings.TrimSpace(v.String())
		var lastErr error
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			} else {
				lastErr = err
			}
		}
		return time.Time{}, &ConversionError{From: v.typ.String(), To: "Date/DateTime", Reason: fmt.Sprintf("unparseable date/time literal %q: %v", s, lastErr)}
	default:
		return time.Time{}, &ConversionError{From: v.typ.String(), To: "Date/DateTime", Reason: "no date/time conversion defined"}
	}
}

func toUUID(v Value) (uuid.UUID, error) {
	switch v.typ.Under().Kind {
	case KindUUID:
		return v.id, nil
	case KindString, KindFixedString:
		s := strings.TrimSpace(v.String())
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.UUID{}, &ConversionError{From: v.typ.String(), To: "UUID", Reason: "unparseable uuid literal " + strconv.Quote(s)}
		}
		return id, nil
	default:
		return uuid.UUID{}, &ConversionError{From: v.typ.String(), To: "UUID", Reason: "no uuid conversion defined"}
	}
}

// convertToArray casts an existing array's elements to the target element
// type; non-array sources have no defined array conversion.
func convertToArray(v Value, target, under Type) (Value, error) {
	if v.typ.Under().Kind != KindArray {
		return Value{}, &ConversionError{From: v.typ.String(), To: target.String(), Reason: "only arrays cast to arrays"}
	}
	if under.Elem == nil {
		return rewrap(v, target), nil
	}
	out := make([]Value, len(v.arr))
	for i, e := range v.arr {
		c, err := ConvertTo(e, *under.Elem)
		if err != nil {
			return Value{}, err
		}
		out[i] = c
	}
	return rewrap(NewArray(*under.Elem, out), target), nil
}
