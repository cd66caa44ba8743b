package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"kontocheck/internal/report"
)

func testBatch() *report.Batch {
	return &report.Batch{
		ErstelltAm:      time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
		Modell:          "qwen3:8b",
		AnzahlDokumente: 2,
		Analysen: []report.Document{
			{
				Datei:               "Konto_Auszug_2022_0003_result.json",
				AuszugNummer:        3,
				AnzahlTransaktionen: 11,
				Validierung: &report.Validation{
					Anfangssaldo:        "391214.64",
					TransaktionenSumme:  "13893.11",
					BerechneterEndsaldo: "405107.75",
					EndsaldoAusDokument: "405107.75",
					Differenz:           "0",
					ValidierungOK:       true,
					Formel:              "391214.64 + 13893.11 = 405107.75",
				},
			},
			report.NewFailedDocument("kaputt.pdf", errors.New("draft extraction failed")),
		},
		ErfolgreichePruefungen:   1,
		FehlgeschlageneDokumente: 1,
		Kontinuitaet: &report.Continuity{
			AlleOK: true,
			Pruefungen: []report.ContinuityPair{
				{AuszugVon: 3, AuszugNach: 4, EndsaldoVon: "405107.75", AnfangssaldoNach: "405107.75", Differenz: "0", KontinuitaetOK: true},
			},
		},
	}
}

func TestSaveBatch(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	batchID, err := s.SaveBatch(ctx, testBatch())
	if err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if batchID == 0 {
		t.Fatal("expected a batch run ID")
	}

	var docCount int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM statement_results WHERE batch_id = ?", batchID).Scan(&docCount); err != nil {
		t.Fatalf("count results: %v", err)
	}
	if docCount != 2 {
		t.Errorf("statement_results rows = %d, want 2", docCount)
	}

	var discrepancy string
	var reconciled bool
	if err := s.db.QueryRowContext(ctx,
		"SELECT discrepancy, reconciled FROM statement_results WHERE batch_id = ? AND sequence = 3", batchID).
		Scan(&discrepancy, &reconciled); err != nil {
		t.Fatalf("read result row: %v", err)
	}
	if discrepancy != "0" || !reconciled {
		t.Errorf("stored result = (%q, %v), want exact decimal string and reconciled", discrepancy, reconciled)
	}

	var failedErr string
	if err := s.db.QueryRowContext(ctx,
		"SELECT error FROM statement_results WHERE batch_id = ? AND error IS NOT NULL", batchID).
		Scan(&failedErr); err != nil {
		t.Fatalf("read failed row: %v", err)
	}
	if failedErr == "" {
		t.Error("failed document must keep its error text")
	}

	var checkCount int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM continuity_checks WHERE batch_id = ?", batchID).Scan(&checkCount); err != nil {
		t.Fatalf("count checks: %v", err)
	}
	if checkCount != 1 {
		t.Errorf("continuity_checks rows = %d, want 1", checkCount)
	}
}

func TestSaveBatchTwice(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	first, err := s.SaveBatch(ctx, testBatch())
	if err != nil {
		t.Fatalf("first SaveBatch: %v", err)
	}
	second, err := s.SaveBatch(ctx, testBatch())
	if err != nil {
		t.Fatalf("second SaveBatch: %v", err)
	}
	if second <= first {
		t.Errorf("batch IDs must increase: %d then %d", first, second)
	}
}
