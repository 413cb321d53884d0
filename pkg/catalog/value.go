package catalog

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NullGroupKeySentinel is the string every null value stringifies to when
// used as part of a GROUP BY / DISTINCT / set-operation key (§3, §9 "Group
// keys and null"). It must not collide with any non-null value's key:
// GroupKey wraps string values in single quotes, so a string column
// containing the literal text "NULL" keys as 'NULL', and callers join
// per-column keys with a byte-0 separator.
const NullGroupKeySentinel = "NULL"

// groupKeySeparator is a byte that cannot occur in a UTF-8 value's textual
// representation when used as a field separator for composite keys.
const groupKeySeparator = byte(0)

// MapEntry is one key/value pair of a Map value. Maps carry their entries
// as an ordered slice (insertion order) rather than a Go map so that
// Value.String() and equality are deterministic without needing a stable
// iteration order from the language runtime.
type MapEntry struct {
	Key Value
	Val Value
}

// Value is the engine's closed runtime value variant (§3). Every concrete
// value carries an explicit Type; nullness is a distinct flag rather than a
// value of its own so a NULL of any type round-trips through a column.
type Value struct {
	typ  Type
	null bool

	i64 int64           // signed integer kinds
	u64 uint64          // unsigned integer kinds
	f64 float64         // float32/float64 (float32 values are rounded to float32 precision on construction)
	dec decimal.Decimal // KindDecimal
	str string          // KindString, KindFixedString
	b   bool            // KindBool
	t   time.Time       // KindDate, KindDateTime, KindDateTime64
	id  uuid.UUID       // KindUUID
	arr []Value         // KindArray, KindTuple
	m   []MapEntry      // KindMap
}

// Type returns the value's explicit type tag.
func (v Value) Type() Type { return v.typ }

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.null }

// Null constructs the null value for the given (normally Nullable) type.
func Null(t Type) Value { return Value{typ: t, null: true} }

// --- constructors -----------------------------------------------------

// NewInt constructs a signed-integer value of the requested width.
func NewInt(t Type, v int64) Value { return Value{typ: t, i64: v} }

// NewInt8/16/32/64 are width-specific convenience constructors.
func NewInt8(v int8) Value   { return NewInt(TypeInt8, int64(v)) }
func NewInt16(v int16) Value { return NewInt(TypeInt16, int64(v)) }
func NewInt32(v int32) Value { return NewInt(TypeInt32, int64(v)) }
func NewInt64(v int64) Value { return NewInt(TypeInt64, v) }

// NewUInt constructs an unsigned-integer value of the requested width.
func NewUInt(t Type, v uint64) Value { return Value{typ: t, u64: v} }

func NewUInt8(v uint8) Value   { return NewUInt(TypeUInt8, uint64(v)) }
func NewUInt16(v uint16) Value { return NewUInt(TypeUInt16, uint64(v)) }
func NewUInt32(v uint32) Value { return NewUInt(TypeUInt32, uint64(v)) }
func NewUInt64(v uint64) Value { return NewUInt(TypeUInt64, v) }

// NewFloat32 constructs a Float32 value.
func NewFloat32(v float32) Value { return Value{typ: TypeFloat32, f64: float64(v)} }

// NewFloat64 constructs a Float64 value.
func NewFloat64(v float64) Value { return Value{typ: TypeFloat64, f64: v} }

// NewDecimal constructs a Decimal(precision, scale) value.
func NewDecimal(d decimal.Decimal, precision, scale int) Value {
	return Value{typ: Decimal(precision, scale), dec: d.Round(int32(scale))}
}

// NewString constructs a String value.
func NewString(s string) Value { return Value{typ: TypeString, str: s} }

// NewFixedString constructs a FixedString(n) value, padding or truncating
// per ClickHouse's fixed-width semantics.
func NewFixedString(s string, n int) Value {
	if len(s) > n {
		s = s[:n]
	} else if len(s) < n {
		s = s + strings.Repeat("\x00", n-len(s))
	}
	return Value{typ: FixedString(n), str: s}
}

// NewBool constructs a Bool value.
func NewBool(b bool) Value { return Value{typ: TypeBool, b: b} }

// NewDate constructs a Date value, truncated to a calendar day (no time
// component survives the Date type).
func NewDate(t time.Time) Value {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Value{typ: TypeDate, t: d}
}

// NewDateTime constructs a DateTime (optionally timezone-labeled) value.
func NewDateTime(t time.Time, tz string) Value {
	return Value{typ: DateTime(tz), t: t}
}

// NewDateTime64 constructs a DateTime64(precision[, tz]) value. Per §4.C/§9,
// DateTime64 is represented identically to DateTime at the value level; the
// declared precision lives only in the type tag.
func NewDateTime64(t time.Time, precision int, tz string) Value {
	return Value{typ: DateTime64(precision, tz), t: t}
}

// NewUUID constructs a UUID value.
func NewUUID(id uuid.UUID) Value { return Value{typ: TypeUUID, id: id} }

// NewArray constructs an Array(elemType) value. Elements must already be of
// elemType (or Nullable(elemType)); callers coerce before calling.
func NewArray(elemType Type, elems []Value) Value {
	return Value{typ: Array(elemType), arr: elems}
}

// NewTuple constructs a Tuple value; names may be nil for a fully
// positional tuple or a slice parallel to elems with "" for unnamed
// positions.
func NewTuple(elems []Value, names []string) Value {
	elemTypes := make([]Type, len(elems))
	for i, e := range elems {
		elemTypes[i] = e.Type()
	}
	return Value{typ: Tuple(elemTypes, names), arr: elems}
}

// NewMap constructs a Map(keyType, valType) value from ordered entries.
func NewMap(keyType, valType Type, entries []MapEntry) Value {
	return Value{typ: Map(keyType, valType), m: entries}
}

// --- accessors (unchecked: a mismatched accessor returns that payload's zero value; callers must check Type()/IsNull() first) ---

// AsInt64 returns the signed-integer payload.
func (v Value) AsInt64() int64 { return v.i64 }

// AsUInt64 returns the unsigned-integer payload.
func (v Value) AsUInt64() uint64 { return v.u64 }

// AsFloat64 returns the float payload.
func (v Value) AsFloat64() float64 { return v.f64 }

// AsDecimal returns the decimal payload.
func (v Value) AsDecimal() decimal.Decimal { return v.dec }

// AsString returns the string/fixed-string payload.
func (v Value) AsString() string { return v.str }

// AsBool returns the bool payload.
func (v Value) AsBool() bool { return v.b }

// AsTime returns the date/datetime payload.
func (v Value) AsTime() time.Time { return v.t }

// AsUUID returns the uuid payload.
func (v Value) AsUUID() uuid.UUID { return v.id }

// AsSlice returns the array/tuple payload.
func (v Value) AsSlice() []Value { return v.arr }

// AsMapEntries returns the map payload in insertion order.
func (v Value) AsMapEntries() []MapEntry { return v.m }

// Index implements 1-based SQL array indexing (§3, §8): out-of-bounds
// yields null rather than an error.
func (v Value) Index(i int64) Value {
	elemType := TypeNull
	if v.typ.Elem != nil {
		elemType = *v.typ.Elem
	} else if len(v.typ.Elems) > 0 && int(i) >= 1 && int(i) <= len(v.typ.Elems) {
		elemType = v.typ.Elems[i-1]
	}
	if i < 1 || int(i) > len(v.arr) {
		return Null(Nullable(elemType))
	}
	return v.arr[i-1]
}

// --- textual rendering --------------------------------------------------

// String renders a human-readable / grouping-key representation of the
// value. Null always renders as the sentinel used for grouping keys
// (§3 "Invariants", §9 "Group keys and null"); callers that need SQL-level
// NULL display should special-case IsNull() themselves.
func (v Value) String() string {
	if v.null {
		return NullGroupKeySentinel
	}
	switch v.typ.Under().Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return strconv.FormatInt(v.i64, 10)
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return strconv.FormatUint(v.u64, 10)
	case KindFloat32:
		return strconv.FormatFloat(v.f64, 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.f64, 'g', -1, 64)
	case KindDecimal:
		return v.dec.StringFixed(int32(v.typ.Under().Scale))
	case KindString, KindFixedString:
		return strings.TrimRight(v.str, "\x00")
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindDate:
		return v.t.Format("2006-01-02")
	case KindDateTime, KindDateTime64:
		return v.t.UTC().Format("2006-01-02 15:04:05")
	case KindUUID:
		return v.id.String()
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.quotedString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindTuple:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.quotedString()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindMap:
		parts := make([]string, len(v.m))
		for i, e := range v.m {
			parts[i] = e.Key.quotedString() + ": " + e.Val.quotedString()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

func (v Value) quotedString() string {
	if v.typ.Under().Kind == KindString || v.typ.Under().Kind == KindFixedString {
		return "'" + v.String() + "'"
	}
	return v.String()
}

// GroupKey returns the textual form used to build composite GROUP BY /
// DISTINCT / UNION-dedup keys (§4.D, §9). It differs from String() only in
// that non-null String/FixedString values are wrapped in single quotes, so
// no string can produce NullGroupKeySentinel; callers concatenate
// per-column keys with JoinGroupKeys.
func (v Value) GroupKey() string {
	if v.null {
		return NullGroupKeySentinel
	}
	return v.quotedString()
}

// JoinGroupKeys concatenates per-column group keys with a separator byte
// that cannot appear inside any value's textual form.
func JoinGroupKeys(parts []string) string {
	return strings.Join(parts, string(groupKeySeparator))
}

// --- equality -------------------------------------------------------------

// Equals implements structural equality (§3 "Invariants"): null == null is
// false here (SQL predicate semantics); callers that need grouping/dedup
// equality should compare GroupKey() strings instead, where null is a
// distinct-but-equal-to-itself sentinel.
func (v Value) Equals(o Value) bool {
	if v.null || o.null {
		return false
	}
	cmp, err := v.CompareTo(o)
	if err == nil {
		return cmp == 0
	}
	// Maps forbid ordering but remain equatable by set-of-entries (§3).
	if v.typ.Under().Kind == KindMap && o.typ.Under().Kind == KindMap {
		return mapEquals(v.m, o.m)
	}
	return false
}

func mapEquals(a, b []MapEntry) bool {
	if len(a) != len(b) {
		return false
	}
	index := func(entries []MapEntry) map[string]string {
		idx := make(map[string]string, len(entries))
		for _, e := range entries {
			idx[e.Key.GroupKey()] = e.Val.GroupKey()
		}
		return idx
	}
	ai, bi := index(a), index(b)
	for k, v := range ai {
		if bi[k] != v {
			return false
		}
	}
	return true
}

// SortMapEntries returns a copy of entries sorted by key's group key, used
// only for deterministic display; map values themselves are unordered.
func SortMapEntries(entries []MapEntry) []MapEntry {
	out := make([]MapEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Key.GroupKey() < out[j].Key.GroupKey() })
	return out
}

// truthy reports whether a value counts as true in a boolean predicate
// context (WHERE/HAVING/ON): a non-null Bool true, or a non-null, non-zero
// numeric value.
func (v Value) truthy() bool {
	if v.null {
		return false
	}
	switch v.typ.Under().Kind {
	case KindBool:
		return v.b
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return v.i64 != 0
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return v.u64 != 0
	case KindFloat32, KindFloat64:
		return v.f64 != 0
	case KindDecimal:
		return !v.dec.IsZero()
	default:
		return false
	}
}

// Truthy is the exported form of truthy, used by the executor's WHERE/
// HAVING/ON predicate evaluation (§4.D step 3: "keep rows whose evaluated
// predicate is true (not null and truthy)").
func (v Value) Truthy() bool { return v.truthy() }

func (e MapEntry) String() string { return e.Key.String() + ": " + e.Val.String() }
