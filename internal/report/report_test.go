package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"kontocheck/internal/money"
	"kontocheck/internal/reconcile"
	"kontocheck/internal/statement"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func samplePeriod() *statement.Period {
	return &statement.Period{
		Sequence: 3,
		Source:   "Konto_Auszug_2022_0003_result.json",
		Opening:  statement.BalanceSnapshot{Amount: dec("391214.64"), OriginalText: "391.214,64", Date: "01.04.2022"},
		Closing:  statement.BalanceSnapshot{Amount: dec("405107.75"), OriginalText: "405.107,75", Date: "30.06.2022"},
		Entries: []statement.LedgerEntry{
			{
				BookingDate:  "08.04.2022",
				Description:  "Wertpapierabrechnung",
				Amount:       dec("-101046.00"),
				OriginalText: "-101.046,00",
				Category:     statement.CategorySecurityPurchase,
			},
			{
				BookingDate:  "14.04.2022",
				Description:  "Überweisung",
				Amount:       dec("114939.11"),
				OriginalText: "114.939,11",
				Category:     statement.CategoryTransferIncoming,
			},
		},
	}
}

func TestNewDocument(t *testing.T) {
	p := samplePeriod()
	res := reconcile.Reconcile(p)
	audits := []money.Conversion{
		money.Audit("anfangssaldo", "391.214,64", 391214.64),
		money.Audit("transaktion_1", "-101.046,00", -101.046),
	}

	doc := NewDocument(p.Source, p, res, audits)

	if doc.AuszugNummer != 3 {
		t.Errorf("auszug_nummer = %d, want 3", doc.AuszugNummer)
	}
	if doc.AnzahlTransaktionen != 2 {
		t.Errorf("anzahl_transaktionen = %d, want 2", doc.AnzahlTransaktionen)
	}
	if doc.Konvertierungsfehler != 1 {
		t.Errorf("konvertierungsfehler = %d, want 1", doc.Konvertierungsfehler)
	}
	if doc.Validierung == nil || !doc.Validierung.ValidierungOK {
		t.Fatalf("expected passing validation, got %+v", doc.Validierung)
	}
	if doc.Validierung.BerechneterEndsaldo != "405107.75" {
		t.Errorf("berechneter_endsaldo = %s", doc.Validierung.BerechneterEndsaldo)
	}
	if doc.Transaktionen[0].Art != string(statement.CategorySecurityPurchase) {
		t.Errorf("art = %q", doc.Transaktionen[0].Art)
	}
}

func TestAmountsSerializeAsPlainNumbers(t *testing.T) {
	p := samplePeriod()
	doc := NewDocument(p.Source, p, reconcile.Reconcile(p), nil)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	// Amounts must be JSON numbers with '.' decimal point, never quoted
	// strings and never German-formatted.
	if !strings.Contains(s, `"betrag":-101046`) {
		t.Errorf("expected unquoted decimal amount in %s", s)
	}
	if strings.Contains(s, `"betrag":"`) {
		t.Errorf("amounts must not serialize as strings: %s", s)
	}
}

func TestNewBatchCounts(t *testing.T) {
	p := samplePeriod()
	good := NewDocument(p.Source, p, reconcile.Reconcile(p), []money.Conversion{
		money.Audit("endsaldo", "405.107,75", 405.10775),
	})

	bad := samplePeriod()
	bad.Closing.Amount = dec("999999.99")
	unreconciled := NewDocument(bad.Source, bad, reconcile.Reconcile(bad), nil)

	failed := NewFailedDocument("kaputt.pdf", errors.New("draft extraction failed"))

	checks := []reconcile.ContinuityCheck{
		{FromSequence: 3, ToSequence: 4, LeftClosing: dec("405107.75"), RightOpening: dec("405107.75"), Discrepancy: dec("0"), Continuous: true},
	}

	b := NewBatch("qwen3:8b", []Document{good, unreconciled, failed}, checks, true)

	if b.AnzahlDokumente != 3 {
		t.Errorf("anzahl_dokumente = %d, want 3", b.AnzahlDokumente)
	}
	if b.ErfolgreichePruefungen != 1 {
		t.Errorf("erfolgreiche_pruefungen = %d, want 1", b.ErfolgreichePruefungen)
	}
	if b.FehlgeschlageneDokumente != 1 {
		t.Errorf("fehlgeschlagene_dokumente = %d, want 1", b.FehlgeschlageneDokumente)
	}
	if b.Konvertierungsfehler != 1 {
		t.Errorf("konvertierungsfehler = %d, want 1", b.Konvertierungsfehler)
	}
	if b.Kontinuitaet == nil || !b.Kontinuitaet.AlleOK || len(b.Kontinuitaet.Pruefungen) != 1 {
		t.Fatalf("continuity section = %+v", b.Kontinuitaet)
	}
}

func TestNewBatchWithoutContinuity(t *testing.T) {
	p := samplePeriod()
	b := NewBatch("qwen3:8b", []Document{NewDocument(p.Source, p, reconcile.Reconcile(p), nil)}, nil, true)
	if b.Kontinuitaet != nil {
		t.Error("single-document batch must not carry a continuity section")
	}
}

func TestBatchWriteFile(t *testing.T) {
	p := samplePeriod()
	b := NewBatch("qwen3:8b", []Document{NewDocument(p.Source, p, reconcile.Reconcile(p), nil)}, nil, true)

	path := filepath.Join(t.TempDir(), "analyse.json")
	if err := b.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	var decoded Batch
	jd := json.NewDecoder(strings.NewReader(string(data)))
	jd.UseNumber()
	if err := jd.Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Modell != "qwen3:8b" || decoded.AnzahlDokumente != 1 {
		t.Errorf("round trip lost fields: %+v", decoded)
	}
}
