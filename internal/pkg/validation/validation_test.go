package validation

import (
	"strings"
	"testing"
)

type sample struct {
	Name string `validate:"notblank"`
	Year int    `validate:"feeyear"`
	Scan int    `validate:"gte=0"`
}

func TestNewCustomRules(t *testing.T) {
	v := New()

	if err := v.Struct(sample{Name: "x", Year: 2024}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}

	err := v.Struct(sample{Name: "   ", Year: 1800, Scan: -1})
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := Message(err)
	for _, want := range []string{"sample.Name is required", "sample.Year validation failed: feeyear", "sample.Scan must be at least 0"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Message() = %q, missing %q", msg, want)
		}
	}
}

func TestValidFeeYear(t *testing.T) {
	tests := []struct {
		year int
		want bool
	}{
		{MinFeeYear, true},
		{MaxFeeYear, true},
		{MinFeeYear - 1, false},
		{MaxFeeYear + 1, false},
	}
	for _, tt := range tests {
		if got := ValidFeeYear(tt.year); got != tt.want {
			t.Errorf("ValidFeeYear(%d) = %v, want %v", tt.year, got, tt.want)
		}
	}
}
