package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"kontocheck/internal/extract"
	"kontocheck/internal/logger"
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf-files...>",
	Short: "Extract statement text from PDFs into prepared JSON",
	Long: `Extract the text of statement PDFs and write one prepared JSON file
({"text": ...}) per input. The prepared files are the default input of the
analyze command, so extraction and analysis can run as separate steps.

Digital PDFs are read natively; pass --ocr for scanned statements
(requires Google Cloud credentials in the environment).`,
	Example: `  # Native text extraction
  kontocheck extract Konto_Auszug_2022_0003.pdf

  # Scanned statements via Cloud Vision OCR
  kontocheck extract --ocr --output-dir extracted/ scans/*.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().Bool("ocr", false, "Use Cloud Vision OCR instead of native PDF text extraction")
	extractCmd.Flags().String("output-dir", ".", "Directory for the prepared JSON files")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	useOCR, _ := cmd.Flags().GetBool("ocr")
	outputDir, _ := cmd.Flags().GetString("output-dir")

	ctx := context.Background()

	var extractor extract.TextExtractor
	if useOCR {
		ocr, err := extract.NewOCRExtractor(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize OCR extractor: %w", err)
		}
		defer ocr.Close()
		extractor = ocr
	} else {
		extractor = extract.NewPDFExtractor()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	failures := 0
	for _, file := range args {
		outPath := preparedPath(outputDir, file)

		if err := extractOne(ctx, extractor, file, outPath); err != nil {
			// A single unreadable PDF must not abort the remaining documents.
			log.Error().Err(err).Str("file", file).Msg("Extraction failed")
			failures++
			continue
		}
		log.Info().Str("file", file).Str("output", outPath).Msg("Text extracted")
	}

	fmt.Printf("Extracted %d/%d documents\n", len(args)-failures, len(args))
	if failures == len(args) {
		return fmt.Errorf("all %d documents failed to extract", failures)
	}
	return nil
}

func extractOne(ctx context.Context, extractor extract.TextExtractor, file, outPath string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := extractor.ExtractText(ctx, f)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0644)
}

// preparedPath derives the prepared-JSON filename the analyze command
// discovers by default: <stem>_result.json.
func preparedPath(outputDir, pdfPath string) string {
	base := filepath.Base(pdfPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+"_result.json")
}
