package statement

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"kontocheck/internal/logger"
	"kontocheck/internal/money"
)

// Draft mirrors the JSON structure the extraction model returns. Monetary
// and numeric fields are declared as any because the producer is untrusted:
// numbers arrive as strings, strings as numbers, and fields go missing.
// Nothing in here is consumed without re-validation.
type Draft struct {
	Datei        string        `json:"datei"`
	AuszugNummer any           `json:"auszug_nummer"`
	Anfangssaldo *DraftBalance `json:"anfangssaldo"`
	Endsaldo     *DraftBalance `json:"endsaldo"`
	Transaktionen []DraftEntry `json:"transaktionen"`
}

// DraftBalance is a drafted balance snapshot with the dual amount
// representation: the exact document string plus the model's own conversion.
type DraftBalance struct {
	Betrag         any    `json:"betrag"`
	BetragOriginal string `json:"betrag_original"`
	BetragNummer   any    `json:"betrag_nummer"`
	Datum          string `json:"datum"`
	Uhrzeit        string `json:"uhrzeit"`
	ReferenzAuszug any    `json:"referenz_auszug"`
	Beschreibung   string `json:"beschreibung"`
}

// DraftEntry is one drafted ledger row.
type DraftEntry struct {
	Datum          string         `json:"datum"`
	Valuta         string         `json:"valuta"`
	Beschreibung   string         `json:"beschreibung"`
	Betrag         any            `json:"betrag"`
	BetragOriginal string         `json:"betrag_original"`
	BetragNummer   any            `json:"betrag_nummer"`
	Art            string         `json:"art"`
	Wertpapier     *DraftSecurity `json:"wertpapier"`
}

// DraftSecurity is a drafted security reference.
type DraftSecurity struct {
	WKN  string `json:"wkn"`
	ISIN string `json:"isin"`
	Name string `json:"name"`
}

// ParseDraft decodes raw model output into a Draft.
func ParseDraft(data []byte) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// BuildPeriod converts an untrusted draft into a validated Period. Every
// monetary field is re-derived through the amount normalizer; where the
// draft carries the dual representation, the conversion is audited and the
// locally derived value wins on mismatch. Missing or malformed fields
// default to zero values so a single bad document never stops a batch.
func BuildPeriod(d *Draft, source string) (*Period, []money.Conversion) {
	log := logger.WithComponent("statement")

	p := &Period{
		Sequence: asInt(d.AuszugNummer),
		Source:   source,
	}
	var audits []money.Conversion

	p.Opening = buildSnapshot(d.Anfangssaldo, "anfangssaldo", &audits)
	p.Closing = buildSnapshot(d.Endsaldo, "endsaldo", &audits)

	for i, t := range d.Transaktionen {
		// Balance declarations are snapshots, not ledger entries; a model
		// that lists them as rows would double-count the opening balance.
		if strings.Contains(strings.ToLower(t.Beschreibung), "kontostand") {
			log.Debug().Str("beschreibung", t.Beschreibung).Msg("Saldozeile aus Transaktionen entfernt")
			continue
		}

		field := "transaktion_" + strconv.Itoa(i+1)
		amount, original := resolveAmount(t.BetragOriginal, t.BetragNummer, t.Betrag, field, &audits)

		entry := LedgerEntry{
			BookingDate:  t.Datum,
			Description:  t.Beschreibung,
			Amount:       amount,
			OriginalText: original,
			Category:     Classify(t.Beschreibung, amount),
		}

		entry.ValueDate = t.Valuta
		if entry.ValueDate == "" {
			entry.ValueDate = ExtractValueDate(t.Beschreibung)
		}

		entry.Security = ExtractSecurity(t.Beschreibung)
		if t.Wertpapier != nil {
			if entry.Security == nil {
				entry.Security = &SecurityRef{}
			}
			if entry.Security.WKN == "" {
				entry.Security.WKN = t.Wertpapier.WKN
			}
			if entry.Security.ISIN == "" {
				entry.Security.ISIN = t.Wertpapier.ISIN
			}
			entry.Security.Name = t.Wertpapier.Name
		}

		p.Entries = append(p.Entries, entry)
	}

	return p, audits
}

func buildSnapshot(b *DraftBalance, field string, audits *[]money.Conversion) BalanceSnapshot {
	if b == nil {
		return BalanceSnapshot{Amount: decimal.Zero}
	}

	amount, original := resolveAmount(b.BetragOriginal, b.BetragNummer, b.Betrag, field, audits)
	return BalanceSnapshot{
		Amount:       amount,
		OriginalText: original,
		Date:         b.Datum,
		Time:         b.Uhrzeit,
		StatementRef: asString(b.ReferenzAuszug),
		Description:  b.Beschreibung,
	}
}

// resolveAmount picks the trusted amount for one monetary field. With a dual
// representation present, the original document string is normalized locally
// and compared against the model's claimed number; otherwise whichever
// single representation exists is normalized.
func resolveAmount(original string, claimed, plain any, field string, audits *[]money.Conversion) (decimal.Decimal, string) {
	if original != "" {
		if f, ok := asFloat(claimed); ok {
			conv := money.Audit(field, original, f)
			*audits = append(*audits, conv)
			if !conv.Matches {
				log := logger.WithComponent("statement")
				log.Warn().
					Str("field", field).
					Str("original", original).
					Str("llm", conv.Claimed.String()).
					Str("lokal", conv.Trusted.String()).
					Msg("LLM-Konvertierung weicht ab, verwende lokalen Wert")
			}
			return conv.Trusted, original
		}
		return money.Normalize(original), original
	}
	if claimed != nil {
		return money.Normalize(claimed), ""
	}
	if s, ok := plain.(string); ok {
		return money.Normalize(plain), s
	}
	return money.Normalize(plain), ""
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}
