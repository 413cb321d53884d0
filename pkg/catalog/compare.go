package catalog

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// CompareTo implements the cross-type ordering rules of §4.C: within a
// numeric family comparison widens to a common representation; null is
// handled by the caller (ORDER BY sorts null first, per §9's chosen
// default). Returns an error for variant pairs that have no defined order
// (e.g. maps, or array/string cross-comparison).
func (v Value) CompareTo(o Value) (int, error) {
	vk := v.typ.Under().Kind

	switch {
	case vk == KindMap || o.typ.Under().Kind == KindMap:
		return 0, fmt.Errorf("catalog: map values are not ordered")
	case vk.isNumeric() && o.typ.Under().Kind.isNumeric():
		return compareNumeric(v, o)
	case vk == KindString || vk == KindFixedString:
		if o.typ.Under().Kind != KindString && o.typ.Under().Kind != KindFixedString {
			return 0, fmt.Errorf("catalog: cannot compare %s to %s", v.typ, o.typ)
		}
		return compareStrings(v.str, o.str), nil
	case vk == KindBool:
		if o.typ.Under().Kind != KindBool {
			return 0, fmt.Errorf("catalog: cannot compare %s to %s", v.typ, o.typ)
		}
		return compareBool(v.b, o.b), nil
	case vk == KindDate || vk == KindDateTime || vk == KindDateTime64:
		ok2 := o.typ.Under().Kind
		if ok2 != KindDate && ok2 != KindDateTime && ok2 != KindDateTime64 {
			return 0, fmt.Errorf("catalog: cannot compare %s to %s", v.typ, o.typ)
		}
		return compareTime(v.t, o.t), nil
	case vk == KindUUID:
		if o.typ.Under().Kind != KindUUID {
			return 0, fmt.Errorf("catalog: cannot compare %s to %s", v.typ, o.typ)
		}
		return compareStrings(v.id.String(), o.id.String()), nil
	case vk == KindArray || vk == KindTuple:
		ok2 := o.typ.Under().Kind
		if ok2 != KindArray && ok2 != KindTuple {
			return 0, fmt.Errorf("catalog: cannot compare %s to %s", v.typ, o.typ)
		}
		return compareSlices(v.arr, o.arr)
	default:
		return 0, fmt.Errorf("catalog: cannot compare %s to %s", v.typ, o.typ)
	}
}

func (k Kind) isNumeric() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64,
		KindFloat32, KindFloat64, KindDecimal:
		return true
	}
	return false
}

// compareNumeric implements §4.C's numeric-family ordering: anything
// touching a decimal compares as decimal.Decimal; same-signedness integers
// widen to int64/uint64; mixed signed/unsigned integers or anything
// touching a float widen to float64, which is exact only up to 2^53 in
// magnitude.
func compareNumeric(a, b Value) (int, error) {
	ak, bk := a.typ.Under().Kind, b.typ.Under().Kind
	if ak == KindDecimal || bk == KindDecimal {
		ad, bd := numericAsDecimal(a), numericAsDecimal(b)
		return ad.Cmp(bd), nil
	}
	if isFloatKind(ak) || isFloatKind(bk) {
		af, bf := numericAsFloat(a), numericAsFloat(b)
		return compareFloat(af, bf), nil
	}
	if isSignedKind(ak) && isSignedKind(bk) {
		return compareInt64(a.i64, b.i64), nil
	}
	if isUnsignedKind(ak) && isUnsignedKind(bk) {
		return compareUint64(a.u64, b.u64), nil
	}
	// mixed signed/unsigned integers: widen through float64 to avoid
	// silently wrapping a negative value into a huge unsigned one.
	af, bf := numericAsFloat(a), numericAsFloat(b)
	return compareFloat(af, bf), nil
}

func isFloatKind(k Kind) bool   { return k == KindFloat32 || k == KindFloat64 }
func isSignedKind(k Kind) bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}
func isUnsignedKind(k Kind) bool {
	switch k {
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return true
	}
	return false
}

func numericAsFloat(v Value) float64 {
	switch v.typ.Under().Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return float64(v.i64)
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return float64(v.u64)
	case KindFloat32, KindFloat64:
		return v.f64
	case KindDecimal:
		f, _ := v.dec.Float64()
		return f
	}
	return 0
}

// numericAsDecimal widens any numeric value to a decimal.Decimal so a
// Decimal column can be compared against plain integers/floats without
// losing precision on the decimal side.
func numericAsDecimal(v Value) decimal.Decimal {
	switch v.typ.Under().Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return decimal.NewFromInt(v.i64)
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return decimal.NewFromUint64(v.u64)
	case KindFloat32, KindFloat64:
		return decimal.NewFromFloat(v.f64)
	case KindDecimal:
		return v.dec
	}
	return decimal.Zero
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat(a, b float64) int {
	if math.IsNaN(a) || math.IsNaN(b) {
		if math.IsNaN(a) && math.IsNaN(b) {
			return 0
		}
		if math.IsNaN(a) {
			return 1
		}
		return -1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func compareTime(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}

// compareSlices implements array/tuple lexicographic ordering with a
// shorter-but-equal-prefix sequence sorting before its longer counterpart.
func compareSlices(a, b []Value) (int, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, err := a[i].CompareTo(b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return compareInt64(int64(len(a)), int64(len(b))), nil
}
