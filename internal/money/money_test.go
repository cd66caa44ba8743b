package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseGermanFormats(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"-101.046,00", "-101046.00"},
		{"37.000,00", "37000.00"},
		{"450.105,96", "450105.96"},
		{"-392,33", "-392.33"},
		{"-1,95", "-1.95"},
		{"1.234.567,89", "1234567.89"},
		// American form passes through unchanged
		{"405107.75", "405107.75"},
		// Lone dot: two fractional digits = decimal, three = grouping
		{"405.107", "405107"},
		{"13893.11", "13893.11"},
		// Markers and signs
		{"+68.700,16", "68700.16"},
		{"37.000,00 EUR", "37000.00"},
		{" -170,86 ", "-170.86"},
		{"0,00", "0.00"},
		{"12", "12"},
	}

	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", c.in, err)
		}
		want := decimal.RequireFromString(c.want)
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %s, want %s", c.in, got, want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "EUR", "abc", "12,34,56x"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error, got none", in)
		}
	}
}

func TestNormalizeLenient(t *testing.T) {
	// Unparseable strings degrade to zero instead of failing; the
	// reconciliation step then surfaces the damage as a discrepancy.
	if got := Normalize("nicht lesbar"); !got.IsZero() {
		t.Errorf("Normalize on garbage = %s, want 0", got)
	}
	if got := Normalize(nil); !got.IsZero() {
		t.Errorf("Normalize(nil) = %s, want 0", got)
	}

	// Numeric inputs convert directly, no string reinterpretation.
	if got := Normalize(-23700.00); !got.Equal(decimal.RequireFromString("-23700")) {
		t.Errorf("Normalize(-23700.00) = %s", got)
	}
	if got := Normalize(42); !got.Equal(decimal.NewFromInt(42)) {
		t.Errorf("Normalize(42) = %s", got)
	}
}

func TestFormatGermanRoundTrip(t *testing.T) {
	cases := []string{"1234.56", "-101046.00", "37000.00", "0.00", "-1.95", "1234567.89", "12.00"}

	for _, c := range cases {
		d := decimal.RequireFromString(c)
		german := FormatGerman(d)
		back, err := Parse(german)
		if err != nil {
			t.Fatalf("Parse(FormatGerman(%s) = %q) failed: %v", c, german, err)
		}
		if !back.Equal(d) {
			t.Errorf("round trip %s -> %q -> %s", c, german, back)
		}
	}
}

func TestFormatGerman(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"-101046.00", "-101.046,00"},
		{"450105.96", "450.105,96"},
		{"1.95", "1,95"},
		{"0", "0,00"},
	}
	for _, c := range cases {
		if got := FormatGerman(decimal.RequireFromString(c.in)); got != c.want {
			t.Errorf("FormatGerman(%s) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAudit(t *testing.T) {
	conv := Audit("anfangssaldo", "-23.700,00", -23700.00)
	if !conv.Matches {
		t.Errorf("expected match for correct conversion, diff=%s", conv.Difference)
	}
	if !conv.Trusted.Equal(decimal.RequireFromString("-23700.00")) {
		t.Errorf("trusted value = %s, want -23700.00", conv.Trusted)
	}

	// Misconversion: the model dropped the grouping and read -23.7.
	conv = Audit("anfangssaldo", "-23.700,00", -23.7)
	if conv.Matches {
		t.Error("expected mismatch for misconverted amount")
	}
	if !conv.Trusted.Equal(decimal.RequireFromString("-23700.00")) {
		t.Errorf("trusted value must come from the original string, got %s", conv.Trusted)
	}
}

func TestWithinToleranceIsStrict(t *testing.T) {
	if WithinTolerance(decimal.RequireFromString("0.01")) {
		t.Error("exactly one cent must not be within tolerance")
	}
	if !WithinTolerance(decimal.RequireFromString("0.009")) {
		t.Error("0.009 must be within tolerance")
	}
	if !WithinTolerance(decimal.RequireFromString("-0.009")) {
		t.Error("tolerance must be symmetric")
	}
}
