package core

import "testing"

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"10000.99", 1000099, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false}, // rounds to zero cents
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.cents {
				t.Fatalf("%q expected %d cents, got %d (err=%v)", tc.in, tc.cents, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %d cents", tc.in, got.Cents)
		}
	}
}

func TestParseSignedMoney(t *testing.T) {
	got, err := ParseSignedMoney("-12.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Cents != -1250 {
		t.Fatalf("expected -1250, got %d", got.Cents)
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{123, "1.23"},
		{-50, "-0.50"},
		{1000099, "10000.99"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyArithmeticStaysExact(t *testing.T) {
	// 10,000 cent-valued entries must sum without drift.
	var sum Money
	for i := 0; i < 10000; i++ {
		sum = sum.Add(Money{Cents: 1})
	}
	if sum.Cents != 10000 {
		t.Fatalf("expected 10000 cents, got %d", sum.Cents)
	}
	if sum.String() != "100.00" {
		t.Fatalf("expected 100.00, got %s", sum.String())
	}
}
