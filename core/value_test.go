package core

import (
	"math"
	"testing"
	"time"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		typ     ColumnType
		raw     string
		wantErr bool
	}{
		{"int", IntType, "42", false},
		{"negative int", IntType, "-7", false},
		{"int overflow", IntType, "2147483648", true},
		{"int text", IntType, "abc", true},
		{"int empty", IntType, "", true},
		{"float", FloatType, "1.5", false},
		{"float int form", FloatType, "3", false},
		{"float text", FloatType, "x1", true},
		{"float overflow", FloatType, "1e39", false},
		{"char", CharType, "a", false},
		{"char unicode", CharType, "ж", false},
		{"char too long", CharType, "ab", true},
		{"char empty", CharType, "", true},
		{"string", StringType, "anything at all", false},
		{"string empty", StringType, "", false},
		{"date", DateType, "01-02-2017", false},
		{"date short parts", DateType, "1-2-2017", false},
		{"date bad day", DateType, "32-01-2017", true},
		{"date wrong order", DateType, "2017-01-01", true},
		{"date range", DateRangeType, "01-01-2011...01-01-2012", false},
		{"date range equal ends", DateRangeType, "01-01-2011...01-01-2011", false},
		{"date range decreasing", DateRangeType, "01-01-2012...01-01-2011", true},
		{"date range no separator", DateRangeType, "01-01-2011", true},
		{"date range missing end", DateRangeType, "01-01-2011...", true},
		{"date range bad end", DateRangeType, "01-01-2011...tomorrow", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseValue(tt.typ, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseValue(%v, %q) error = %v, wantErr %v", tt.typ, tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestParseValueFloatOverflow(t *testing.T) {
	tests := []struct {
		raw  string
		sign int
	}{
		{"1e39", 1},
		{"-1e39", -1},
	}

	for _, tt := range tests {
		v, err := ParseValue(FloatType, tt.raw)
		if err != nil {
			t.Fatalf("ParseValue(FLOAT, %q) failed: %v", tt.raw, err)
		}
		f, ok := v.Float()
		if !ok || !math.IsInf(float64(f), tt.sign) {
			t.Errorf("ParseValue(FLOAT, %q) = %v, want infinity with sign %d", tt.raw, f, tt.sign)
		}
	}
}

func TestParseValueTypedAccess(t *testing.T) {
	v, err := ParseValue(IntType, "12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i, ok := v.Int(); !ok || i != 12 {
		t.Errorf("Int() = %d, %v; want 12, true", i, ok)
	}
	if _, ok := v.Float(); ok {
		t.Error("Float() should not be available on an INT value")
	}

	v, err = ParseValue(DateRangeType, "05-03-2020...06-03-2020")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, ok := v.DateRange()
	if !ok {
		t.Fatal("expected a date range")
	}
	if !r.Start.Equal(time.Date(2020, time.March, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %v", r.Start)
	}
	if v.String() != "05-03-2020...06-03-2020" {
		t.Errorf("String() = %q", v.String())
	}
}

func TestParseColumnType(t *testing.T) {
	for _, name := range []string{"INT", "float", "Char", "STR", "date", "DATE_RANGE"} {
		if _, err := ParseColumnType(name); err != nil {
			t.Errorf("ParseColumnType(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseColumnType("BLOB"); err == nil {
		t.Error("expected error for unknown type")
	}

	var ct ColumnType
	if err := ct.UnmarshalText([]byte("DATE_RANGE")); err != nil || ct != DateRangeType {
		t.Errorf("UnmarshalText = %v, %v", ct, err)
	}
	text, err := DateType.MarshalText()
	if err != nil || string(text) != "DATE" {
		t.Errorf("MarshalText = %q, %v", text, err)
	}
}
