package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"kontocheck/internal/config"
	"kontocheck/internal/extract"
	"kontocheck/internal/llm"
	"kontocheck/internal/logger"
	"kontocheck/internal/money"
	"kontocheck/internal/reconcile"
	"kontocheck/internal/report"
	"kontocheck/internal/statement"
	"kontocheck/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Analyze bank statements and verify their balances",
	Long: `Analyze a batch of German bank statements: extract structured data via
the configured LLM endpoint, re-derive every amount with exact decimal
arithmetic, recompute the closing balance of each statement, and verify
balance continuity across consecutive statements.

Inputs are pre-extracted result JSON files ({"text": ...}) by default, or
PDFs with --pdf (add --ocr for scanned documents). Without file arguments,
documents are discovered with --glob in the current directory.

Required environment variables (or .env):
  LLM_BASE_URL - OpenAI-compatible endpoint (default http://localhost:11434/v1)
  LLM_MODEL    - model name (default qwen3:8b)`,
	Example: `  # Analyze all prepared statement extracts in the current directory
  kontocheck analyze

  # Analyze specific documents and keep results in SQLite
  kontocheck analyze --db results.db auszug_0003.json auszug_0004.json

  # Analyze digital PDFs directly
  kontocheck analyze --pdf Konto_Auszug_2022_0003.pdf`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("glob", "Konto_Auszug_*_result.json", "Discovery pattern when no files are given")
	analyzeCmd.Flags().String("output", "kontoauszuege_analyse.json", "Aggregate report output path")
	analyzeCmd.Flags().String("db", "", "Optional SQLite database for batch results")
	analyzeCmd.Flags().Bool("pdf", false, "Treat inputs as PDF documents instead of prepared JSON")
	analyzeCmd.Flags().Bool("ocr", false, "Use Cloud Vision OCR for PDF inputs (scanned statements)")
	analyzeCmd.Flags().String("model", "", "Override the configured LLM model")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	globPattern, _ := cmd.Flags().GetString("glob")
	outputPath, _ := cmd.Flags().GetString("output")
	dbPath, _ := cmd.Flags().GetString("db")
	usePDF, _ := cmd.Flags().GetBool("pdf")
	useOCR, _ := cmd.Flags().GetBool("ocr")
	modelOverride, _ := cmd.Flags().GetString("model")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if modelOverride != "" {
		cfg.LLMModel = modelOverride
	}
	if dbPath != "" {
		cfg.ResultsDB = dbPath
	}

	files, err := discoverDocuments(args, globPattern)
	if err != nil {
		return err
	}

	log.Info().
		Int("documents", len(files)).
		Str("model", cfg.LLMModel).
		Str("endpoint", cfg.LLMBaseURL).
		Bool("pdf", usePDF).
		Bool("ocr", useOCR).
		Msg("Starting statement analysis")

	ctx := context.Background()

	client := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxRetries:  cfg.LLMMaxRetries,
		MaxTextLen:  cfg.LLMMaxTextLen,
	})

	// The LLM endpoint is the one collaborator the whole batch depends on;
	// check it once up front instead of failing on every document.
	if err := client.Ping(ctx); err != nil {
		return err
	}

	extractor, err := buildExtractor(ctx, usePDF, useOCR)
	if err != nil {
		return err
	}

	var docs []report.Document
	var periods []*statement.Period

	for i, file := range files {
		log.Info().
			Str("file", file).
			Int("index", i+1).
			Int("total", len(files)).
			Msg("Processing statement")

		period, audits, err := processDocument(ctx, client, extractor, file)
		if err != nil {
			// One bad document never stops the batch.
			log.Error().Err(err).Str("file", file).Msg("Statement processing failed")
			docs = append(docs, report.NewFailedDocument(file, err))
			continue
		}

		result := reconcile.Reconcile(period)
		if result.Reconciled {
			log.Info().
				Str("file", file).
				Str("formel", result.Formula()).
				Msg("Saldenprüfung erfolgreich")
		} else {
			log.Warn().
				Str("file", file).
				Str("differenz", result.Discrepancy.StringFixed(2)).
				Str("formel", result.Formula()).
				Msg("Saldenprüfung fehlgeschlagen")
		}

		docs = append(docs, report.NewDocument(file, period, result, audits))
		periods = append(periods, period)
	}

	checks, allOK := reconcile.CheckContinuity(periods)
	for _, c := range checks {
		if c.Continuous {
			log.Info().
				Int("von", c.FromSequence).
				Int("nach", c.ToSequence).
				Msg("Kontinuität bestätigt")
		} else {
			log.Warn().
				Int("von", c.FromSequence).
				Int("nach", c.ToSequence).
				Str("differenz", c.Discrepancy.StringFixed(2)).
				Msg("Kontinuitätsbruch zwischen Auszügen")
		}
	}

	batch := report.NewBatch(cfg.LLMModel, docs, checks, allOK)
	if err := batch.WriteFile(outputPath); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.ResultsDB != "" {
		if err := persistBatch(ctx, cfg.ResultsDB, batch); err != nil {
			log.Error().Err(err).Msg("Failed to persist batch to database")
		}
	}

	printSummary(batch, outputPath)
	return nil
}

// discoverDocuments resolves the input set: explicit arguments win, else the
// glob pattern. An empty input set is the only fatal discovery condition.
func discoverDocuments(args []string, pattern string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no statement documents found for pattern %q", pattern)
	}

	sort.Strings(matches)
	return matches, nil
}

// buildExtractor picks the text producer for the batch; nil means prepared
// JSON inputs.
func buildExtractor(ctx context.Context, usePDF, useOCR bool) (extract.TextExtractor, error) {
	if !usePDF {
		return nil, nil
	}
	if useOCR {
		ocr, err := extract.NewOCRExtractor(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OCR extractor: %w", err)
		}
		return ocr, nil
	}
	return extract.NewPDFExtractor(), nil
}

// processDocument runs the per-document pipeline: text extraction, LLM draft
// extraction, and the defensive draft-to-period mapping with conversion
// audits.
func processDocument(ctx context.Context, client *llm.Client, extractor extract.TextExtractor, file string) (*statement.Period, []money.Conversion, error) {
	var text *extract.Result
	var err error

	if extractor == nil {
		text, err = extract.LoadPrepared(file)
	} else {
		var f *os.File
		f, err = os.Open(file)
		if err == nil {
			defer f.Close()
			text, err = extractor.ExtractText(ctx, f)
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("text extraction failed: %w", err)
	}

	draft, err := client.ExtractStatement(ctx, text.Text)
	if err != nil {
		return nil, nil, fmt.Errorf("draft extraction failed: %w", err)
	}

	period, audits := statement.BuildPeriod(draft, file)
	return period, audits, nil
}

func persistBatch(ctx context.Context, dbPath string, batch *report.Batch) error {
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	batchID, err := db.SaveBatch(ctx, batch)
	if err != nil {
		return err
	}

	log := logger.WithComponent("analyze")
	log.Info().
		Int64("batch_id", batchID).
		Str("db", dbPath).
		Msg("Batch persisted")
	return nil
}

func printSummary(batch *report.Batch, outputPath string) {
	fmt.Printf("\nAnalyse abgeschlossen: %d Dokumente\n", batch.AnzahlDokumente)
	fmt.Printf("  Erfolgreiche Saldenprüfungen: %d\n", batch.ErfolgreichePruefungen)
	if batch.FehlgeschlageneDokumente > 0 {
		fmt.Printf("  Fehlgeschlagene Dokumente:    %d\n", batch.FehlgeschlageneDokumente)
	}
	if batch.Konvertierungsfehler > 0 {
		fmt.Printf("  Konvertierungsfehler:         %d\n", batch.Konvertierungsfehler)
	}
	if batch.Kontinuitaet != nil {
		if batch.Kontinuitaet.AlleOK {
			fmt.Println("  Kontinuität zwischen allen Auszügen bestätigt")
		} else {
			fmt.Println("  Kontinuitätsbrüche gefunden, siehe Report")
		}
	}
	fmt.Printf("Report: %s\n", outputPath)
}
