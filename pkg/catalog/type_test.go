package catalog

import "testing"

func TestParseTypeNameScalars(t *testing.T) {
	cases := map[string]string{
		"Int32":       "Int32",
		"INT":         "Int32",
		"BIGINT":      "Int64",
		"uint8":       "UInt8",
		"Float64":     "Float64",
		"DOUBLE":      "Float64",
		"String":      "String",
		"VARCHAR":     "String",
		"Bool":        "Bool",
		"Date":        "Date",
		"UUID":        "UUID",
		"DateTime":    "DateTime",
		"ENUM8":       "String",
	}
	for in, want := range cases {
		typ, err := ParseTypeName(in)
		if err != nil {
			t.Fatalf("ParseTypeName(%q): %v", in, err)
		}
		if typ.String() != want {
			t.Errorf("ParseTypeName(%q) = %s, want %s", in, typ.String(), want)
		}
	}
}

func TestParseTypeNameParameterized(t *testing.T) {
	typ, err := ParseTypeName("FixedString(8)")
	if err != nil {
		t.Fatalf("FixedString: %v", err)
	}
	if typ.Length != 8 {
		t.Errorf("Length = %d, want 8", typ.Length)
	}

	typ, err = ParseTypeName("Decimal(10, 2)")
	if err != nil {
		t.Fatalf("Decimal: %v", err)
	}
	if typ.Precision != 10 || typ.Scale != 2 {
		t.Errorf("Decimal(precision=%d, scale=%d), want (10, 2)", typ.Precision, typ.Scale)
	}

	typ, err = ParseTypeName("Decimal32(4)")
	if err != nil {
		t.Fatalf("Decimal32: %v", err)
	}
	if typ.Precision != 9 || typ.Scale != 4 {
		t.Errorf("Decimal32(4) = precision %d scale %d, want 9/4", typ.Precision, typ.Scale)
	}

	typ, err = ParseTypeName("DateTime64(3, 'UTC')")
	if err != nil {
		t.Fatalf("DateTime64: %v", err)
	}
	if typ.Precision != 3 || typ.TZ != "UTC" {
		t.Errorf("DateTime64 = precision %d tz %q, want 3/UTC", typ.Precision, typ.TZ)
	}
}

func TestParseTypeNameNested(t *testing.T) {
	typ, err := ParseTypeName("Array(Nullable(Int32))")
	if err != nil {
		t.Fatalf("Array(Nullable(Int32)): %v", err)
	}
	if typ.Kind != KindArray || typ.Elem.Kind != KindNullable {
		t.Fatalf("got %s", typ.String())
	}

	typ, err = ParseTypeName("Tuple(id Int32, name String)")
	if err != nil {
		t.Fatalf("Tuple: %v", err)
	}
	if len(typ.Elems) != 2 || typ.Names[0] != "id" || typ.Names[1] != "name" {
		t.Fatalf("got %s, names=%v", typ.String(), typ.Names)
	}

	typ, err = ParseTypeName("Map(String, Array(Int32))")
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if typ.Kind != KindMap || typ.mapVal().Kind != KindArray {
		t.Fatalf("got %s", typ.String())
	}
}

func TestNullableCollapse(t *testing.T) {
	inner := Nullable(Nullable(TypeInt32))
	if inner.Elem.Kind == KindNullable {
		t.Fatalf("Nullable(Nullable(T)) should collapse to Nullable(T), got %s", inner.String())
	}
	if !inner.IsNullable() {
		t.Fatalf("expected IsNullable() true")
	}
}

func TestUnder(t *testing.T) {
	typ := LowCardinality(Nullable(TypeString))
	under := typ.Under()
	if under.Kind != KindString {
		t.Fatalf("Under() = %s, want String", under.String())
	}
}

func TestTypeEqual(t *testing.T) {
	a, _ := ParseTypeName("Array(Int32)")
	b := Array(TypeInt32)
	if !a.Equal(b) {
		t.Errorf("expected %s to equal %s", a, b)
	}
}

func TestParseTypeNameUnknown(t *testing.T) {
	if _, err := ParseTypeName("NotARealType"); err == nil {
		t.Fatalf("expected error for unknown type name")
	}
}
