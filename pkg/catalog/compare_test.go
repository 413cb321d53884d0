package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompareSameWidthIntegers(t *testing.T) {
	c, err := NewInt32(3).CompareTo(NewInt32(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c >= 0 {
		t.Errorf("expected 3 < 5, got cmp=%d", c)
	}
}

func TestCompareMixedSignedUnsigned(t *testing.T) {
	c, err := NewInt32(-1).CompareTo(NewUInt32(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c >= 0 {
		t.Errorf("expected -1 < 1 when widened through float64, got cmp=%d", c)
	}
}

func TestCompareIntAndFloat(t *testing.T) {
	c, err := NewInt32(2).CompareTo(NewFloat64(2.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c >= 0 {
		t.Errorf("expected 2 < 2.5, got cmp=%d", c)
	}
}

func TestCompareStrings(t *testing.T) {
	c, err := NewString("apple").CompareTo(NewString("banana"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c >= 0 {
		t.Errorf("expected apple < banana, got cmp=%d", c)
	}
}

func TestCompareMapsIsError(t *testing.T) {
	m1 := NewMap(TypeString, TypeInt32, nil)
	m2 := NewMap(TypeString, TypeInt32, nil)
	if _, err := m1.CompareTo(m2); err == nil {
		t.Fatalf("expected maps to be unorderable")
	}
}

func TestCompareArraysLexicographic(t *testing.T) {
	a := NewArray(TypeInt32, []Value{NewInt32(1), NewInt32(2)})
	b := NewArray(TypeInt32, []Value{NewInt32(1), NewInt32(3)})
	c, err := a.CompareTo(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c >= 0 {
		t.Errorf("expected [1,2] < [1,3], got cmp=%d", c)
	}
}

func TestCompareArrayPrefixShorterIsLess(t *testing.T) {
	a := NewArray(TypeInt32, []Value{NewInt32(1)})
	b := NewArray(TypeInt32, []Value{NewInt32(1), NewInt32(2)})
	c, err := a.CompareTo(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c >= 0 {
		t.Errorf("expected [1] < [1,2], got cmp=%d", c)
	}
}

func TestCompareIncompatibleKindsIsError(t *testing.T) {
	if _, err := NewString("x").CompareTo(NewBool(true)); err == nil {
		t.Fatalf("expected error comparing String to Bool")
	}
}

func TestCompareDecimalAndInt(t *testing.T) {
	d := NewDecimal(mustDecimal("10.50"), 10, 2)
	c, err := d.CompareTo(NewInt32(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c <= 0 {
		t.Errorf("expected 10.50 > 10, got cmp=%d", c)
	}
}
