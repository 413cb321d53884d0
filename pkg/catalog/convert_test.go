package catalog

import "testing"

func TestConvertNullPropagates(t *testing.T) {
	v := Null(Nullable(TypeInt32))
	out, err := ConvertTo(v, Nullable(TypeString))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsNull() {
		t.Fatalf("expected null to propagate")
	}
}

func TestConvertNullToNonNullableErrors(t *testing.T) {
	v := Null(Nullable(TypeInt32))
	if _, err := ConvertTo(v, TypeString); err == nil {
		t.Fatalf("expected error converting null to non-nullable target")
	}
}

func TestConvertStringToInt(t *testing.T) {
	out, err := ConvertTo(NewString("42"), TypeInt32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsInt64() != 42 {
		t.Errorf("got %d, want 42", out.AsInt64())
	}
}

func TestConvertStringToIntUnparseable(t *testing.T) {
	if _, err := ConvertTo(NewString("not a number"), TypeInt32); err == nil {
		t.Fatalf("expected conversion error")
	}
}

func TestConvertOverflowRejected(t *testing.T) {
	if _, err := ConvertTo(NewInt64(1000), TypeInt8); err == nil {
		t.Fatalf("expected overflow error converting 1000 to Int8")
	}
}

func TestConvertNegativeToUnsignedRejected(t *testing.T) {
	if _, err := ConvertTo(NewInt32(-1), TypeUInt32); err == nil {
		t.Fatalf("expected error converting negative value to unsigned")
	}
}

func TestConvertIntToString(t *testing.T) {
	out, err := ConvertTo(NewInt32(7), TypeString)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsString() != "7" {
		t.Errorf("got %q, want %q", out.AsString(), "7")
	}
}

func TestConvertStringToDecimal(t *testing.T) {
	out, err := ConvertTo(NewString("12.345"), Decimal(10, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "12.35" {
		t.Errorf("got %q, want %q (rounded to scale 2)", got, "12.35")
	}
}

func TestConvertStringToDate(t *testing.T) {
	out, err := ConvertTo(NewString("2024-05-06"), TypeDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "2024-05-06" {
		t.Errorf("got %q", got)
	}
}

func TestConvertStringToDateTime(t *testing.T) {
	out, err := ConvertTo(NewString("2024-05-06 13:45:00"), DateTime(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "2024-05-06 13:45:00" {
		t.Errorf("got %q", got)
	}
}

func TestConvertStringToUUID(t *testing.T) {
	if _, err := ConvertTo(NewString("not-a-uuid"), TypeUUID); err == nil {
		t.Fatalf("expected error for invalid uuid literal")
	}
	out, err := ConvertTo(NewString("123e4567-e89b-12d3-a456-426614174000"), TypeUUID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AsUUID().String() != "123e4567-e89b-12d3-a456-426614174000" {
		t.Errorf("got %s", out.AsUUID())
	}
}

func TestConvertArrayElementWise(t *testing.T) {
	src := NewArray(TypeString, []Value{NewString("1"), NewString("2")})
	out, err := ConvertTo(src, Array(TypeInt32))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elems := out.AsSlice()
	if elems[0].AsInt64() != 1 || elems[1].AsInt64() != 2 {
		t.Errorf("unexpected converted array %v", elems)
	}
}

func TestConvertBoolFromString(t *testing.T) {
	out, err := ConvertTo(NewString("true"), TypeBool)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.AsBool() {
		t.Errorf("expected true")
	}
	if _, err := ConvertTo(NewString("maybe"), TypeBool); err == nil {
		t.Fatalf("expected error for unparseable bool")
	}
}
