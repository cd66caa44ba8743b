// Package store persists batch results to SQLite so runs can be compared
// over time. Persistence is optional; the JSON report is always written.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"kontocheck/internal/report"
)

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the results database at the given path and
// ensures all tables exist. Pass ":memory:" for an in-memory database.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batch_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME NOT NULL,
			model TEXT NOT NULL,
			document_count INTEGER NOT NULL,
			reconciled_count INTEGER NOT NULL,
			failed_count INTEGER NOT NULL,
			conversion_errors INTEGER NOT NULL,
			continuity_ok INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS statement_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL,
			source_file TEXT NOT NULL,
			sequence INTEGER,
			error TEXT,
			opening_balance TEXT,
			closing_balance TEXT,
			entries_sum TEXT,
			computed_closing TEXT,
			discrepancy TEXT,
			reconciled INTEGER,
			entry_count INTEGER NOT NULL,
			conversion_errors INTEGER NOT NULL,
			FOREIGN KEY (batch_id) REFERENCES batch_runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_statement_results_batch ON statement_results(batch_id)`,
		`CREATE TABLE IF NOT EXISTS continuity_checks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id INTEGER NOT NULL,
			from_sequence INTEGER NOT NULL,
			to_sequence INTEGER NOT NULL,
			left_closing TEXT NOT NULL,
			right_opening TEXT NOT NULL,
			discrepancy TEXT NOT NULL,
			continuous INTEGER NOT NULL,
			FOREIGN KEY (batch_id) REFERENCES batch_runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_continuity_checks_batch ON continuity_checks(batch_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}

// SaveBatch writes one batch report in a single transaction and returns the
// new batch run ID. Amounts are stored as exact decimal strings.
func (s *Store) SaveBatch(ctx context.Context, b *report.Batch) (int64, error) {
	const op = "SaveBatch"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	var continuityOK any
	if b.Kontinuitaet != nil {
		continuityOK = b.Kontinuitaet.AlleOK
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO batch_runs (created_at, model, document_count, reconciled_count, failed_count, conversion_errors, continuity_ok)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ErstelltAm.UTC().Format(time.RFC3339), b.Modell, b.AnzahlDokumente,
		b.ErfolgreichePruefungen, b.FehlgeschlageneDokumente, b.Konvertierungsfehler, continuityOK)
	if err != nil {
		return 0, fmt.Errorf("%s: insert batch: %w", op, err)
	}
	batchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: batch id: %w", op, err)
	}

	for _, doc := range b.Analysen {
		if doc.Fehler != "" {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO statement_results (batch_id, source_file, error, entry_count, conversion_errors)
				 VALUES (?, ?, ?, 0, 0)`,
				batchID, doc.Datei, doc.Fehler)
			if err != nil {
				return 0, fmt.Errorf("%s: insert failed result: %w", op, err)
			}
			continue
		}

		v := doc.Validierung
		_, err = tx.ExecContext(ctx,
			`INSERT INTO statement_results
			 (batch_id, source_file, sequence, opening_balance, closing_balance, entries_sum,
			  computed_closing, discrepancy, reconciled, entry_count, conversion_errors)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			batchID, doc.Datei, doc.AuszugNummer,
			string(v.Anfangssaldo), string(v.EndsaldoAusDokument), string(v.TransaktionenSumme),
			string(v.BerechneterEndsaldo), string(v.Differenz), v.ValidierungOK,
			doc.AnzahlTransaktionen, doc.Konvertierungsfehler)
		if err != nil {
			return 0, fmt.Errorf("%s: insert result: %w", op, err)
		}
	}

	if b.Kontinuitaet != nil {
		for _, c := range b.Kontinuitaet.Pruefungen {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO continuity_checks
				 (batch_id, from_sequence, to_sequence, left_closing, right_opening, discrepancy, continuous)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				batchID, c.AuszugVon, c.AuszugNach,
				string(c.EndsaldoVon), string(c.AnfangssaldoNach), string(c.Differenz), c.KontinuitaetOK)
			if err != nil {
				return 0, fmt.Errorf("%s: insert continuity check: %w", op, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", op, err)
	}
	return batchID, nil
}
