// Package extract turns statement documents into plain text for the
// extraction model. Three producers exist: pre-extracted result JSON (the
// default input), native PDF text extraction for digital statements, and
// Cloud Vision OCR for scanned ones.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Common extraction errors.
var (
	// ErrInvalidPDF is returned when the input is not a valid PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrEmptyDocument is returned when no text could be extracted.
	ErrEmptyDocument = errors.New("document contains no readable text")

	// ErrPDFTooLarge is returned when a PDF exceeds the OCR size limit.
	ErrPDFTooLarge = errors.New("PDF file size exceeds the maximum limit (20MB)")

	// ErrMissingCredentials is returned when the OCR backend has no Google
	// Cloud credentials configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
)

// Result is the extracted text of one document.
type Result struct {
	Text   string `json:"text"`
	Pages  int    `json:"pages,omitempty"`
	Source string `json:"source,omitempty"` // "prepared", "pdf" or "ocr"
}

// TextExtractor produces document text from raw PDF data.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader) (*Result, error)
}

// LoadPrepared reads a pre-extracted result JSON ({"text": "..."}), the
// format an upstream layout-recognition pipeline writes per document.
func LoadPrepared(path string) (*Result, error) {
	const op = "LoadPrepared"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	if res.Text == "" {
		return nil, fmt.Errorf("%s: %s: %w", op, path, ErrEmptyDocument)
	}

	res.Source = "prepared"
	return &res, nil
}
