// Package report assembles the aggregate batch result: per-document
// snapshots, classified entries, reconciliation and conversion findings,
// plus the batch-level continuity checks. Field names follow the German
// report wire format; amounts are emitted as plain decimal JSON numbers
// with '.' as the decimal point and no grouping.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"kontocheck/internal/money"
	"kontocheck/internal/reconcile"
	"kontocheck/internal/statement"
)

// Snapshot is a reported balance snapshot.
type Snapshot struct {
	BetragOriginal string      `json:"betrag_original,omitempty"`
	Betrag         json.Number `json:"betrag"`
	Datum          string      `json:"datum,omitempty"`
	Uhrzeit        string      `json:"uhrzeit,omitempty"`
	ReferenzAuszug string      `json:"referenz_auszug,omitempty"`
	Beschreibung   string      `json:"beschreibung,omitempty"`
}

// Entry is a reported, classified ledger entry.
type Entry struct {
	Datum          string                 `json:"datum,omitempty"`
	Valuta         string                 `json:"valuta,omitempty"`
	Beschreibung   string                 `json:"beschreibung"`
	BetragOriginal string                 `json:"betrag_original,omitempty"`
	Betrag         json.Number            `json:"betrag"`
	Art            string                 `json:"art"`
	Wertpapier     *statement.SecurityRef `json:"wertpapier,omitempty"`
}

// Validation carries the reconciliation result of one period.
type Validation struct {
	Anfangssaldo        json.Number `json:"anfangssaldo"`
	TransaktionenSumme  json.Number `json:"transaktionen_summe"`
	BerechneterEndsaldo json.Number `json:"berechneter_endsaldo"`
	EndsaldoAusDokument json.Number `json:"endsaldo_aus_dokument"`
	Differenz           json.Number `json:"differenz"`
	ValidierungOK       bool        `json:"validierung_ok"`
	Formel              string      `json:"formel"`
}

// Conversion is a reported dual-representation audit.
type Conversion struct {
	Feld             string      `json:"feld"`
	OriginalString   string      `json:"original_string"`
	LLMKonvertiert   json.Number `json:"llm_konvertiert"`
	LokalKonvertiert json.Number `json:"lokal_konvertiert"`
	KonvertierungOK  bool        `json:"konvertierung_ok"`
	Differenz        json.Number `json:"differenz"`
}

// Document is the full result for one statement document. A failed document
// carries only Datei and Fehler; the batch continues regardless.
type Document struct {
	Datei                string       `json:"datei"`
	Fehler               string       `json:"fehler,omitempty"`
	AuszugNummer         int          `json:"auszug_nummer,omitempty"`
	Anfangssaldo         *Snapshot    `json:"anfangssaldo,omitempty"`
	Endsaldo             *Snapshot    `json:"endsaldo,omitempty"`
	Transaktionen        []Entry      `json:"transaktionen,omitempty"`
	AnzahlTransaktionen  int          `json:"anzahl_transaktionen"`
	Konvertierungen      []Conversion `json:"konvertierungen,omitempty"`
	Konvertierungsfehler int          `json:"konvertierungsfehler"`
	Validierung          *Validation  `json:"validierung,omitempty"`
}

// ContinuityPair is one reported cross-statement check.
type ContinuityPair struct {
	AuszugVon        int         `json:"auszug_von"`
	AuszugNach       int         `json:"auszug_nach"`
	EndsaldoVon      json.Number `json:"endsaldo_von"`
	AnfangssaldoNach json.Number `json:"anfangssaldo_nach"`
	Differenz        json.Number `json:"differenz"`
	KontinuitaetOK   bool        `json:"kontinuitaet_ok"`
}

// Continuity is the batch-level continuity section.
type Continuity struct {
	Pruefungen []ContinuityPair `json:"pruefungen"`
	AlleOK     bool             `json:"alle_ok"`
}

// Batch is the aggregate report for one run.
type Batch struct {
	ErstelltAm               time.Time   `json:"erstellt_am"`
	Modell                   string      `json:"modell"`
	Analysen                 []Document  `json:"analysen"`
	AnzahlDokumente          int         `json:"anzahl_dokumente"`
	ErfolgreichePruefungen   int         `json:"erfolgreiche_pruefungen"`
	FehlgeschlageneDokumente int         `json:"fehlgeschlagene_dokumente"`
	Konvertierungsfehler     int         `json:"konvertierungsfehler"`
	Kontinuitaet             *Continuity `json:"kontinuitaet,omitempty"`
}

func num(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// NewDocument builds the report entry for one successfully processed period.
func NewDocument(source string, p *statement.Period, res reconcile.Result, audits []money.Conversion) Document {
	doc := Document{
		Datei:        source,
		AuszugNummer: p.Sequence,
		Anfangssaldo: newSnapshot(p.Opening),
		Endsaldo:     newSnapshot(p.Closing),
		Validierung: &Validation{
			Anfangssaldo:        num(res.Opening),
			TransaktionenSumme:  num(res.EntriesSum),
			BerechneterEndsaldo: num(res.ComputedClosing),
			EndsaldoAusDokument: num(res.Closing),
			Differenz:           num(res.Discrepancy),
			ValidierungOK:       res.Reconciled,
			Formel:              res.Formula(),
		},
	}

	for _, e := range p.Entries {
		doc.Transaktionen = append(doc.Transaktionen, Entry{
			Datum:          e.BookingDate,
			Valuta:         e.ValueDate,
			Beschreibung:   e.Description,
			BetragOriginal: e.OriginalText,
			Betrag:         num(e.Amount),
			Art:            string(e.Category),
			Wertpapier:     e.Security,
		})
	}
	doc.AnzahlTransaktionen = len(doc.Transaktionen)

	for _, a := range audits {
		doc.Konvertierungen = append(doc.Konvertierungen, Conversion{
			Feld:             a.Field,
			OriginalString:   a.OriginalText,
			LLMKonvertiert:   num(a.Claimed),
			LokalKonvertiert: num(a.Trusted),
			KonvertierungOK:  a.Matches,
			Differenz:        num(a.Difference),
		})
		if !a.Matches {
			doc.Konvertierungsfehler++
		}
	}

	return doc
}

// NewFailedDocument builds the report entry for a document whose processing
// failed; the error is attached and the batch goes on.
func NewFailedDocument(source string, err error) Document {
	return Document{
		Datei:  source,
		Fehler: err.Error(),
	}
}

func newSnapshot(s statement.BalanceSnapshot) *Snapshot {
	return &Snapshot{
		BetragOriginal: s.OriginalText,
		Betrag:         num(s.Amount),
		Datum:          s.Date,
		Uhrzeit:        s.Time,
		ReferenzAuszug: s.StatementRef,
		Beschreibung:   s.Description,
	}
}

// NewBatch assembles the aggregate report with summary counts and the
// continuity section (present with two or more successful periods).
func NewBatch(model string, docs []Document, checks []reconcile.ContinuityCheck, allOK bool) *Batch {
	b := &Batch{
		ErstelltAm:      time.Now(),
		Modell:          model,
		Analysen:        docs,
		AnzahlDokumente: len(docs),
	}

	for _, d := range docs {
		if d.Fehler != "" {
			b.FehlgeschlageneDokumente++
			continue
		}
		if d.Validierung != nil && d.Validierung.ValidierungOK {
			b.ErfolgreichePruefungen++
		}
		b.Konvertierungsfehler += d.Konvertierungsfehler
	}

	if len(checks) > 0 {
		cont := &Continuity{AlleOK: allOK}
		for _, c := range checks {
			cont.Pruefungen = append(cont.Pruefungen, ContinuityPair{
				AuszugVon:        c.FromSequence,
				AuszugNach:       c.ToSequence,
				EndsaldoVon:      num(c.LeftClosing),
				AnfangssaldoNach: num(c.RightOpening),
				Differenz:        num(c.Discrepancy),
				KontinuitaetOK:   c.Continuous,
			})
		}
		b.Kontinuitaet = cont
	}

	return b
}

// WriteFile persists the batch report as indented JSON.
func (b *Batch) WriteFile(path string) error {
	const op = "WriteFile"

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
