package statement

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		description string
		amount      string
		want        Category
	}{
		{"security purchase by sign", "Wertpapierabrechnung / Wert: 08.04.2022 DEPOT 7274079", "-101046.00", CategorySecurityPurchase},
		{"security sale by sign", "Wertpapierabrechnung", "103924.60", CategorySecuritySale},
		{"security purchase by marker", "Wertpapierabrechnung KV Geschäftsart", "-101046.00", CategorySecurityPurchase},
		{"security sale by marker wins over sign", "Wertpapierabrechnung VV", "-500.00", CategorySecuritySale},
		{"security statement zero amount", "Wertpapierabrechnung", "0", CategorySecurityStatement},
		{"transfer incoming", "Überweisung von Max Mustermann", "68700.16", CategoryTransferIncoming},
		{"transfer outgoing", "Überweisung an Sparkasse", "-20000.00", CategoryTransferOutgoing},
		{"uebertrag outgoing", "Übertrag auf Tagesgeldkonto", "-10000.00", CategoryTransferOutgoing},
		{"credit", "Gutschriftseingang", "41989.54", CategoryCredit},
		{"direct debit", "Lastschrift Stadtwerke", "-89.00", CategoryDirectDebit},
		{"custody fee regardless of sign", "Abrechnung Verwahrentgelt", "-11.25", CategoryCustodyFee},
		{"custody fee positive", "Verwahrentgelt Korrektur", "11.25", CategoryCustodyFee},
		{"fee", "Entgeltabrechnung", "-1.95", CategoryFee},
		{"fee keyword gebuehr", "Gebühren Kontoführung", "-12.00", CategoryFee},
		{"depot keyword routes to securities", "Depotübertrag eingehend", "5000.00", CategorySecuritySale},
		{"settlement", "Abrechnung 30.12.2022", "-170.86", CategorySettlement},
		{"interest", "Zinsen/Kontoführung", "3.17", CategoryInterest},
		{"generic inflow", "Eingang Dividende XY", "150.00", CategoryInflow},
		{"generic outflow", "Sonstige Buchung", "-42.00", CategoryOutflow},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.description, dec(c.amount))
			if got != c.want {
				t.Errorf("Classify(%q, %s) = %s, want %s", c.description, c.amount, got, c.want)
			}
		})
	}
}

func TestExtractValueDate(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"Wertpapierabrechnung / Wert: 08.04.2022 SPK AMBERG-SULZ", "08.04.2022"},
		{"Valuta: 30.04.2022 Entgeltabrechnung", "30.04.2022"},
		{"Abrechnung Wert 31.12.2022", "31.12.2022"},
		{"Überweisung ohne Wertstellung", ""},
	}

	for _, c := range cases {
		if got := ExtractValueDate(c.description); got != c.want {
			t.Errorf("ExtractValueDate(%q) = %q, want %q", c.description, got, c.want)
		}
	}
}

func TestExtractSecurity(t *testing.T) {
	ref := ExtractSecurity("Wertpapierabrechnung TESLA INC. WKN A1CX3T ISIN US88160R1014")
	if ref == nil {
		t.Fatal("expected a security reference")
	}
	if ref.WKN != "A1CX3T" {
		t.Errorf("WKN = %q, want A1CX3T", ref.WKN)
	}
	if ref.ISIN != "US88160R1014" {
		t.Errorf("ISIN = %q, want US88160R1014", ref.ISIN)
	}

	if got := ExtractSecurity("Überweisung Miete"); got != nil {
		t.Errorf("expected nil for plain transfer, got %+v", got)
	}

	// WKN only
	ref = ExtractSecurity("Kauf WKN 123ABC")
	if ref == nil || ref.WKN != "123ABC" || ref.ISIN != "" {
		t.Errorf("WKN-only extraction failed: %+v", ref)
	}
}
