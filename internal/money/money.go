// Package money normalizes locale-formatted monetary strings into exact
// decimal values and audits pre-converted numbers supplied by an untrusted
// upstream producer.
//
// German statements write amounts as "450.105,96" (dot grouping, comma
// decimal), while model output frequently arrives in the American form
// "450105.96". Parse detects the convention from the separator pattern, so
// both forms normalize to the same decimal value. All arithmetic stays in
// github.com/shopspring/decimal; amounts are summed across many entries and
// must match the stated balances to the cent.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kontocheck/internal/logger"
)

// Tolerance is the maximum absolute difference under which two amounts are
// considered equal. Comparison is strict: a difference of exactly one cent
// does not match.
var Tolerance = decimal.RequireFromString("0.01")

// WithinTolerance reports whether |d| < Tolerance.
func WithinTolerance(d decimal.Decimal) bool {
	return d.Abs().Cmp(Tolerance) < 0
}

// Parse converts a monetary string into an exact decimal, auto-detecting the
// digit-grouping convention. Currency markers ("EUR", "€"), an explicit
// leading "+" and all whitespace are stripped first.
func Parse(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "EUR", "")
	cleaned = strings.ReplaceAll(cleaned, "€", "")
	cleaned = strings.ReplaceAll(cleaned, "+", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount string %q", s)
	}

	dots := strings.Count(cleaned, ".")
	commas := strings.Count(cleaned, ",")

	switch {
	case commas == 1 && dots <= 1:
		// "450.105,96" or "450105,96"
		if dots == 1 {
			if strings.Index(cleaned, ".") < strings.Index(cleaned, ",") {
				// Dot is a thousands separator, comma the decimal point.
				cleaned = strings.ReplaceAll(cleaned, ".", "")
				cleaned = strings.ReplaceAll(cleaned, ",", ".")
			} else {
				// Comma before dot: American grouping, drop the comma.
				cleaned = strings.ReplaceAll(cleaned, ",", "")
			}
		} else {
			// Only a comma: it is the decimal point.
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
	case dots == 1 && commas == 0:
		// Ambiguous: "405107.75" (decimal) vs "405.107" (grouped integer).
		// Two fractional digits means the dot is already the decimal point,
		// three means it is a thousands separator.
		parts := strings.Split(cleaned, ".")
		if len(parts) == 2 && len(parts[1]) == 3 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	case dots > 1:
		// Multiple dots are always thousands separators.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable amount %q (cleaned: %q): %w", s, cleaned, err)
	}
	return d, nil
}

// Normalize converts an arbitrary draft value (string or number) into an
// exact decimal. Numeric inputs convert directly without reinterpretation.
// Unparseable input degrades to zero with a warning instead of failing:
// downstream reconciliation then surfaces a large discrepancy rather than
// aborting the batch.
func Normalize(value any) decimal.Decimal {
	switch v := value.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := Parse(v)
		if err != nil {
			log := logger.WithComponent("money")
			log.Warn().Str("value", v).Msg("Betrag nicht parsebar, verwende 0")
			return decimal.Zero
		}
		return d
	default:
		log := logger.WithComponent("money")
		log.Warn().Interface("value", value).Msg("Unerwarteter Betragstyp, verwende 0")
		return decimal.Zero
	}
}

// FormatGerman renders a decimal in the German statement convention:
// dot-grouped integer digits and a comma before exactly two fractional
// digits, e.g. -101046 -> "-101.046,00".
func FormatGerman(d decimal.Decimal) string {
	fixed := d.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ".") + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

// Conversion is the result of cross-checking the dual representation of one
// monetary field: the original document string against the number the
// upstream producer claims it converts to.
type Conversion struct {
	Field        string          `json:"field"`
	OriginalText string          `json:"original_string"`
	Claimed      decimal.Decimal `json:"llm_converted"`
	Trusted      decimal.Decimal `json:"local_converted"`
	Matches      bool            `json:"conversion_match"`
	Difference   decimal.Decimal `json:"difference"`
}

// Audit re-derives the trusted value from the original string and compares
// it with the claimed conversion. Whenever Matches is false, consumers must
// use Trusted, never Claimed.
func Audit(field, original string, claimed float64) Conversion {
	trusted := Normalize(original)
	claimedDec := decimal.NewFromFloat(claimed)
	diff := trusted.Sub(claimedDec)

	return Conversion{
		Field:        field,
		OriginalText: original,
		Claimed:      claimedDec,
		Trusted:      trusted,
		Matches:      WithinTolerance(diff),
		Difference:   diff,
	}
}
