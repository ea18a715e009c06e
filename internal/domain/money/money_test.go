package money

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"97.50", "97.5", false}, // trailing zeros are not preserved
		{"0", "0", false},
		{"-12.34", "-12.34", false},
		{"1000000000.0001", "1000000000.0001", false},
		{"", "", true},
		{"abc", "", true},
		{"1.2.3", "", true},
	}
	for _, tt := range tests {
		a, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && a.String() != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, a, tt.want)
		}
	}
}

func TestArithmetic(t *testing.T) {
	a := MustParse("10.25")
	b := MustParse("0.75")

	if got := a.Add(b); !got.Equal(MustParse("11")) {
		t.Errorf("Add = %s, want 11", got)
	}
	if got := a.Sub(b); !got.Equal(MustParse("9.5")) {
		t.Errorf("Sub = %s, want 9.5", got)
	}
	if got := b.MulInt(4); !got.Equal(MustParse("3")) {
		t.Errorf("MulInt = %s, want 3", got)
	}
	if got := MustParse("100").Mul(MustParse("0.1")); !got.Equal(MustParse("10")) {
		t.Errorf("Mul = %s, want 10", got)
	}
}

func TestDivIntRemainder(t *testing.T) {
	// 10 / 3 does not divide evenly; three shares plus the remainder must
	// reconstruct the original exactly when the last share absorbs the
	// leftover.
	total := MustParse("10")
	share := total.DivInt(3)

	distributed := share.Add(share)
	last := total.Sub(distributed)
	sum := distributed.Add(last)
	if !sum.Equal(total) {
		t.Errorf("shares sum to %s, want %s", sum, total)
	}
	if last.IsNegative() {
		t.Errorf("last share went negative: %s", last)
	}
}

func TestPredicates(t *testing.T) {
	if !Zero.IsZero() {
		t.Error("Zero.IsZero() = false")
	}
	if !MustParse("-1").IsNegative() {
		t.Error("-1 not negative")
	}
	if !MustParse("0.0001").IsPositive() {
		t.Error("0.0001 not positive")
	}
	if !MustParse("1").LessThan(MustParse("1.01")) {
		t.Error("1 not less than 1.01")
	}
	if MustParse("2").Cmp(MustParse("2.0")) != 0 {
		t.Error("2 != 2.0")
	}
}

func TestMin(t *testing.T) {
	a := MustParse("5")
	b := MustParse("7.5")
	if got := Min(a, b); !got.Equal(a) {
		t.Errorf("Min = %s, want %s", got, a)
	}
	if got := Min(b, a); !got.Equal(a) {
		t.Errorf("Min = %s, want %s", got, a)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type doc struct {
		Amount Amount `json:"amount"`
	}

	out, err := json.Marshal(doc{Amount: MustParse("42.75")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var in doc
	if err := json.Unmarshal(out, &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !in.Amount.Equal(MustParse("42.75")) {
		t.Errorf("round trip = %s, want 42.75", in.Amount)
	}

	// Bare numbers are accepted too.
	if err := json.Unmarshal([]byte(`{"amount": 12.5}`), &in); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if !in.Amount.Equal(MustParse("12.5")) {
		t.Errorf("number form = %s, want 12.5", in.Amount)
	}
}
