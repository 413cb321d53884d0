// Package catalog provides the type system, value model, and in-memory
// table catalog for the chql engine.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of type tags a Type can carry.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindDecimal
	KindString
	KindFixedString
	KindBool
	KindDate
	KindDateTime
	KindDateTime64
	KindUUID
	KindArray
	KindTuple
	KindMap
	KindNullable
	KindLowCardinality
)

// Type is the closed variant over every type the engine understands.
// Not every field is meaningful for every Kind; see the comments next to
// each field for which Kind(s) populate it.
type Type struct {
	Kind Kind

	Precision int // KindDecimal
	Scale     int // KindDecimal

	Length int // KindFixedString

	TZ string // KindDateTime, KindDateTime64 (may be empty)

	Elem *Type // KindArray, KindNullable, KindLowCardinality

	Elems []Type   // KindTuple
	Names []string // KindTuple, parallel to Elems; "" means unnamed
}

// Scalar type singletons. These are safe to share since Type carries no
// mutable state for scalar kinds.
var (
	TypeNull      = Type{Kind: KindNull}
	TypeInt8      = Type{Kind: KindInt8}
	TypeInt16     = Type{Kind: KindInt16}
	TypeInt32     = Type{Kind: KindInt32}
	TypeInt64     = Type{Kind: KindInt64}
	TypeUInt8     = Type{Kind: KindUInt8}
	TypeUInt16    = Type{Kind: KindUInt16}
	TypeUInt32    = Type{Kind: KindUInt32}
	TypeUInt64    = Type{Kind: KindUInt64}
	TypeFloat32   = Type{Kind: KindFloat32}
	TypeFloat64   = Type{Kind: KindFloat64}
	TypeString    = Type{Kind: KindString}
	TypeBool      = Type{Kind: KindBool}
	TypeDate      = Type{Kind: KindDate}
	TypeDateTime  = Type{Kind: KindDateTime}
	TypeUUID      = Type{Kind: KindUUID}
)

// FixedString returns a FixedString(n) type.
func FixedString(n int) Type { return Type{Kind: KindFixedString, Length: n} }

// Decimal returns a Decimal(precision, scale) type.
func Decimal(precision, scale int) Type {
	return Type{Kind: KindDecimal, Precision: precision, Scale: scale}
}

// DateTime returns a DateTime or DateTime('tz') type.
func DateTime(tz string) Type { return Type{Kind: KindDateTime, TZ: tz} }

// DateTime64 returns a DateTime64(precision[, 'tz']) type.
func DateTime64(precision int, tz string) Type {
	return Type{Kind: KindDateTime64, Precision: precision, TZ: tz}
}

// Array returns an Array(elem) type.
func Array(elem Type) Type { return Type{Kind: KindArray, Elem: &elem} }

// Tuple returns a Tuple(elems...) type, optionally with element names.
func Tuple(elems []Type, names []string) Type {
	return Type{Kind: KindTuple, Elems: elems, Names: names}
}

// Map returns a Map(key, value) type.
func Map(key, val Type) Type {
	return Type{Kind: KindMap, Elem: &val, Elems: []Type{key}}
}

func (t Type) mapKey() Type { return t.Elems[0] }
func (t Type) mapVal() Type { return *t.Elem }

// Nullable returns a Nullable(inner) wrapper type. Nullable(Nullable(T))
// collapses to Nullable(T), matching ClickHouse.
func Nullable(inner Type) Type {
	if inner.Kind == KindNullable {
		return inner
	}
	return Type{Kind: KindNullable, Elem: &inner}
}

// LowCardinality returns a LowCardinality(inner) wrapper type.
func LowCardinality(inner Type) Type {
	return Type{Kind: KindLowCardinality, Elem: &inner}
}

// IsNullable reports whether a slot of this type accepts NULL.
func (t Type) IsNullable() bool { return t.Kind == KindNullable }

// Under strips Nullable/LowCardinality wrappers, returning the underlying
// concrete type.
func (t Type) Under() Type {
	for t.Kind == KindNullable || t.Kind == KindLowCardinality {
		t = *t.Elem
	}
	return t
}

// IsNumeric reports whether the (unwrapped) type is an integer, float, or
// decimal kind.
func (t Type) IsNumeric() bool {
	switch t.Under().Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64,
		KindFloat32, KindFloat64, KindDecimal:
		return true
	default:
		return false
	}
}

// IsInteger reports whether the (unwrapped) type is a signed or unsigned
// integer kind.
func (t Type) IsInteger() bool {
	switch t.Under().Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return true
	default:
		return false
	}
}

// IsSignedInteger reports whether the (unwrapped) type is a signed integer.
func (t Type) IsSignedInteger() bool {
	switch t.Under().Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	default:
		return false
	}
}

// IsUnsignedInteger reports whether the (unwrapped) type is an unsigned integer.
func (t Type) IsUnsignedInteger() bool {
	switch t.Under().Kind {
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return true
	default:
		return false
	}
}

// String renders the canonical ClickHouse-flavored type name.
func (t Type) String() string {
	switch t.Kind {
	case KindNull:
		return "Null"
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUInt8:
		return "UInt8"
	case KindUInt16:
		return "UInt16"
	case KindUInt32:
		return "UInt32"
	case KindUInt64:
		return "UInt64"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindDecimal:
		return fmt.Sprintf("Decimal(%d, %d)", t.Precision, t.Scale)
	case KindString:
		return "String"
	case KindFixedString:
		return fmt.Sprintf("FixedString(%d)", t.Length)
	case KindBool:
		return "Bool"
	case KindDate:
		return "Date"
	case KindDateTime:
		if t.TZ != "" {
			return fmt.Sprintf("DateTime('%s')", t.TZ)
		}
		return "DateTime"
	case KindDateTime64:
		if t.TZ != "" {
			return fmt.Sprintf("DateTime64(%d, '%s')", t.Precision, t.TZ)
		}
		return fmt.Sprintf("DateTime64(%d)", t.Precision)
	case KindUUID:
		return "UUID"
	case KindArray:
		return fmt.Sprintf("Array(%s)", t.Elem.String())
	case KindTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			if i < len(t.Names) && t.Names[i] != "" {
				parts[i] = t.Names[i] + " " + e.String()
			} else {
				parts[i] = e.String()
			}
		}
		return fmt.Sprintf("Tuple(%s)", strings.Join(parts, ", "))
	case KindMap:
		return fmt.Sprintf("Map(%s, %s)", t.mapKey().String(), t.mapVal().String())
	case KindNullable:
		return fmt.Sprintf("Nullable(%s)", t.Elem.String())
	case KindLowCardinality:
		return fmt.Sprintf("LowCardinality(%s)", t.Elem.String())
	default:
		return "Unknown"
	}
}

// Equal reports structural type equality.
func (t Type) Equal(o Type) bool {
	return t.String() == o.String()
}

// ParseTypeName parses a free-form type name string (as appears after
// CAST(x AS <here>) or in a CREATE TABLE column definition written without
// a structured DataType AST node) into the closed Type variant. It accepts
// the same parameterized grammar the parser's DataType production accepts.
func ParseTypeName(s string) (Type, error) {
	s = strings.TrimSpace(s)
	name, params, ok := splitTypeParams(s)
	if !ok {
		return Type{}, fmt.Errorf("type: unparseable type expression %q", s)
	}
	return buildType(strings.ToUpper(name), params)
}

// splitTypeParams splits "Name(p1, p2)" into ("Name", ["p1","p2"], true) or
// "Name" into ("Name", nil, true).
func splitTypeParams(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil, true
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, false
	}
	name := s[:open]
	inner := s[open+1 : len(s)-1]
	return name, splitTopLevelCommas(inner), true
}

// splitTopLevelCommas splits on commas that are not nested inside
// parentheses or quotes, so "Array(Tuple(Int32, String)), X" splits
// correctly.
func splitTopLevelCommas(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if !inQuote {
				depth--
			}
		case ',':
			if !inQuote && depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func buildType(name string, params []string) (Type, error) {
	switch name {
	case "INT8", "TINYINT":
		return TypeInt8, nil
	case "INT16", "SMALLINT":
		return TypeInt16, nil
	case "INT32", "INT", "INTEGER":
		return TypeInt32, nil
	case "INT64", "BIGINT":
		return TypeInt64, nil
	case "UINT8":
		return TypeUInt8, nil
	case "UINT16":
		return TypeUInt16, nil
	case "UINT32":
		return TypeUInt32, nil
	case "UINT64":
		return TypeUInt64, nil
	case "FLOAT32", "REAL":
		return TypeFloat32, nil
	case "FLOAT64", "DOUBLE", "FLOAT":
		return TypeFloat64, nil
	case "STRING", "TEXT", "VARCHAR":
		return TypeString, nil
	case "BOOL", "BOOLEAN":
		return TypeBool, nil
	case "DATE":
		return TypeDate, nil
	case "UUID":
		return TypeUUID, nil
	case "FIXEDSTRING":
		n, err := intParam(params, 0, name)
		if err != nil {
			return Type{}, err
		}
		return FixedString(n), nil
	case "DECIMAL", "DECIMAL32", "DECIMAL64", "DECIMAL128", "DECIMAL256":
		return buildDecimal(name, params)
	case "DATETIME":
		tz := stringParam(params, 0)
		return DateTime(tz), nil
	case "DATETIME64":
		if len(params) == 0 {
			return Type{}, fmt.Errorf("type: DateTime64 requires a precision parameter")
		}
		prec, err := intParam(params, 0, name)
		if err != nil {
			return Type{}, err
		}
		tz := stringParam(params, 1)
		return DateTime64(prec, tz), nil
	case "ARRAY":
		if len(params) != 1 {
			return Type{}, fmt.Errorf("type: Array requires exactly one element type")
		}
		elem, err := ParseTypeName(params[0])
		if err != nil {
			return Type{}, err
		}
		return Array(elem), nil
	case "TUPLE":
		if len(params) == 0 {
			return Type{}, fmt.Errorf("type: Tuple requires at least one element type")
		}
		elems := make([]Type, len(params))
		names := make([]string, len(params))
		for i, p := range params {
			fields := strings.Fields(p)
			if len(fields) == 2 {
				names[i] = fields[0]
				t, err := ParseTypeName(fields[1])
				if err != nil {
					return Type{}, err
				}
				elems[i] = t
			} else {
				t, err := ParseTypeName(p)
				if err != nil {
					return Type{}, err
				}
				elems[i] = t
			}
		}
		return Tuple(elems, names), nil
	case "MAP":
		if len(params) != 2 {
			return Type{}, fmt.Errorf("type: Map requires exactly two type parameters")
		}
		k, err := ParseTypeName(params[0])
		if err != nil {
			return Type{}, err
		}
		v, err := ParseTypeName(params[1])
		if err != nil {
			return Type{}, err
		}
		return Map(k, v), nil
	case "NULLABLE":
		if len(params) != 1 {
			return Type{}, fmt.Errorf("type: Nullable requires exactly one inner type")
		}
		inner, err := ParseTypeName(params[0])
		if err != nil {
			return Type{}, err
		}
		return Nullable(inner), nil
	case "LOWCARDINALITY":
		if len(params) != 1 {
			return Type{}, fmt.Errorf("type: LowCardinality requires exactly one inner type")
		}
		inner, err := ParseTypeName(params[0])
		if err != nil {
			return Type{}, err
		}
		return LowCardinality(inner), nil
	case "ENUM8", "ENUM16":
		// Enumerations are treated as String at the value level (§4.C).
		return TypeString, nil
	default:
		return Type{}, fmt.Errorf("type: unknown type name %q", name)
	}
}

func buildDecimal(name string, params []string) (Type, error) {
	switch name {
	case "DECIMAL32":
		return decimalWithDefaultPrecision(params, 9)
	case "DECIMAL64":
		return decimalWithDefaultPrecision(params, 18)
	case "DECIMAL128":
		return decimalWithDefaultPrecision(params, 38)
	case "DECIMAL256":
		return decimalWithDefaultPrecision(params, 76)
	default: // DECIMAL(P, S) or DECIMAL(P)
		if len(params) == 0 {
			return Decimal(10, 0), nil
		}
		p, err := intParam(params, 0, name)
		if err != nil {
			return Type{}, err
		}
		s := 0
		if len(params) > 1 {
			s, err = intParam(params, 1, name)
			if err != nil {
				return Type{}, err
			}
		}
		return Decimal(p, s), nil
	}
}

func decimalWithDefaultPrecision(params []string, defaultPrecision int) (Type, error) {
	if len(params) == 0 {
		return Decimal(defaultPrecision, 0), nil
	}
	s, err := intParam(params, 0, "Decimal")
	if err != nil {
		return Type{}, err
	}
	return Decimal(defaultPrecision, s), nil
}

func intParam(params []string, idx int, typeName string) (int, error) {
	if idx >= len(params) {
		return 0, fmt.Errorf("type: %s is missing a required parameter", typeName)
	}
	n, err := strconv.Atoi(strings.TrimSpace(params[idx]))
	if err != nil {
		return 0, fmt.Errorf("type: %s has an invalid numeric parameter %q", typeName, params[idx])
	}
	return n, nil
}

func stringParam(params []string, idx int) string {
	if idx >= len(params) {
		return ""
	}
	return strings.Trim(strings.TrimSpace(params[idx]), "'\"")
}
