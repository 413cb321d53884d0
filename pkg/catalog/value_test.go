package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestValueStringRendering(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{NewInt32(-7), "-7"},
		{NewUInt64(42), "42"},
		{NewString("hi"), "hi"},
		{NewBool(true), "true"},
		{NewBool(false), "false"},
		{Null(Nullable(TypeInt32)), NullGroupKeySentinel},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestValueIsNull(t *testing.T) {
	n := Null(Nullable(TypeString))
	if !n.IsNull() {
		t.Fatalf("expected IsNull() true")
	}
	nn := NewString("x")
	if nn.IsNull() {
		t.Fatalf("expected IsNull() false")
	}
}

func TestFixedStringPadAndTrim(t *testing.T) {
	v := NewFixedString("ab", 5)
	if v.Type().Length != 5 {
		t.Fatalf("Length = %d, want 5", v.Type().Length)
	}
	if got := v.String(); got != "ab" {
		t.Errorf("String() = %q, want %q (trailing NUL trimmed)", got, "ab")
	}
}

func TestArrayIndex1Based(t *testing.T) {
	arr := NewArray(TypeInt32, []Value{NewInt32(10), NewInt32(20), NewInt32(30)})
	if got := arr.Index(2); got.AsInt64() != 20 {
		t.Errorf("Index(2) = %d, want 20", got.AsInt64())
	}
	if got := arr.Index(0); !got.IsNull() {
		t.Errorf("Index(0) out of bounds should be null, got %v", got)
	}
	if got := arr.Index(99); !got.IsNull() {
		t.Errorf("Index(99) out of bounds should be null, got %v", got)
	}
}

func TestTupleNamedFields(t *testing.T) {
	tup := NewTuple([]Value{NewInt32(1), NewString("x")}, []string{"id", "name"})
	if tup.Type().Names[0] != "id" || tup.Type().Names[1] != "name" {
		t.Fatalf("unexpected tuple type %s", tup.Type())
	}
}

func TestMapEquality(t *testing.T) {
	a := NewMap(TypeString, TypeInt32, []MapEntry{
		{Key: NewString("a"), Val: NewInt32(1)},
		{Key: NewString("b"), Val: NewInt32(2)},
	})
	b := NewMap(TypeString, TypeInt32, []MapEntry{
		{Key: NewString("b"), Val: NewInt32(2)},
		{Key: NewString("a"), Val: NewInt32(1)},
	})
	if !a.Equals(b) {
		t.Errorf("expected map equality regardless of entry order")
	}
}

func TestDecimalValue(t *testing.T) {
	d := decimal.RequireFromString("19.995")
	v := NewDecimal(d, 10, 2)
	if got := v.String(); got != "20.00" {
		t.Errorf("Decimal round to scale 2: got %q, want %q", got, "20.00")
	}
}

func TestUUIDValue(t *testing.T) {
	id := uuid.New()
	v := NewUUID(id)
	if v.AsUUID() != id {
		t.Fatalf("AsUUID() round trip mismatch")
	}
}

func TestDateTruncatesTimeComponent(t *testing.T) {
	ts := time.Date(2024, 5, 6, 13, 45, 0, 0, time.UTC)
	v := NewDate(ts)
	if got := v.String(); got != "2024-05-06" {
		t.Errorf("Date string = %q, want %q", got, "2024-05-06")
	}
}

func TestGroupKeyJoin(t *testing.T) {
	a := NewInt32(1).GroupKey()
	b := Null(Nullable(TypeInt32)).GroupKey()
	joined := JoinGroupKeys([]string{a, b})
	if joined != "1\x00NULL" {
		t.Errorf("JoinGroupKeys = %q", joined)
	}
}

func TestTruthy(t *testing.T) {
	if !NewBool(true).Truthy() {
		t.Errorf("true should be truthy")
	}
	if NewInt32(0).Truthy() {
		t.Errorf("zero should not be truthy")
	}
	if Null(Nullable(TypeBool)).Truthy() {
		t.Errorf("null should not be truthy")
	}
}
