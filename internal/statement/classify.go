package statement

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	valueDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`Wert:\s*(\d{2}\.\d{2}\.\d{4})`),
		regexp.MustCompile(`Valuta:\s*(\d{2}\.\d{2}\.\d{4})`),
		regexp.MustCompile(`Wert\s+(\d{2}\.\d{2}\.\d{4})`),
	}

	wknPattern  = regexp.MustCompile(`WKN\s+([A-Z0-9]{6})`)
	isinPattern = regexp.MustCompile(`\b([A-Z]{2}[A-Z0-9]{10})\b`)
)

// Classify assigns a category to an entry from its free-text description and
// signed amount. Rules are evaluated in priority order, first match wins;
// matching is case-insensitive substring matching. The draft's own category
// tag is never trusted, classification is always re-derived locally.
func Classify(description string, amount decimal.Decimal) Category {
	desc := strings.ToLower(description)

	switch {
	case strings.Contains(desc, "wertpapier") || strings.Contains(desc, "wertp.") ||
		(strings.Contains(desc, "depot") && !strings.Contains(desc, "depotentgelt")):
		// Explicit Kauf/Verkauf marker wins; the raw description may carry the
		// bank's KV/VV Geschäftsart code in upper case.
		switch {
		case strings.Contains(description, "VV") || strings.Contains(desc, "verkauf"):
			return CategorySecuritySale
		case strings.Contains(description, "KV") || strings.Contains(desc, "kauf"):
			return CategorySecurityPurchase
		case amount.IsNegative():
			return CategorySecurityPurchase
		case amount.IsPositive():
			return CategorySecuritySale
		default:
			return CategorySecurityStatement
		}
	case strings.Contains(desc, "überweisung") || strings.Contains(desc, "übertrag"):
		if amount.IsNegative() {
			return CategoryTransferOutgoing
		}
		return CategoryTransferIncoming
	case strings.Contains(desc, "gutschrift"):
		return CategoryCredit
	case strings.Contains(desc, "lastschr"):
		return CategoryDirectDebit
	case strings.Contains(desc, "verwahrentgelt"):
		// Before the generic fee rule: "Verwahrentgelt" contains "entgelt".
		return CategoryCustodyFee
	case strings.Contains(desc, "entgelt") || strings.Contains(desc, "gebühr") ||
		strings.Contains(desc, "kosten"):
		return CategoryFee
	case strings.Contains(desc, "abrechnung"):
		return CategorySettlement
	case strings.Contains(desc, "zins"):
		return CategoryInterest
	case amount.IsPositive():
		return CategoryInflow
	default:
		return CategoryOutflow
	}
}

// ExtractValueDate pulls a value date ("Wert: 08.04.2022", "Valuta: ...")
// out of an entry description. Returns "" when none is present.
func ExtractValueDate(description string) string {
	for _, p := range valueDatePatterns {
		if m := p.FindStringSubmatch(description); m != nil {
			return m[1]
		}
	}
	return ""
}

// ExtractSecurity scans a description for a WKN (6 alphanumeric characters
// after the literal marker) and an ISIN-shaped code (2 letters + 10
// alphanumeric). Returns nil when neither is found.
func ExtractSecurity(description string) *SecurityRef {
	var ref SecurityRef

	if m := wknPattern.FindStringSubmatch(description); m != nil {
		ref.WKN = m[1]
	}
	if m := isinPattern.FindStringSubmatch(description); m != nil {
		ref.ISIN = m[1]
	}

	if ref.WKN == "" && ref.ISIN == "" {
		return nil
	}
	return &ref
}
