package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"kontocheck/internal/logger"
)

// PDFExtractor extracts text from digital (non-scanned) PDF statements.
type PDFExtractor struct{}

// NewPDFExtractor creates a native PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText reads all pages of a PDF and concatenates their text in page
// order. Scanned statements yield little or no text here; those need the
// OCR extractor instead.
func (p *PDFExtractor) ExtractText(ctx context.Context, r io.Reader) (result *Result, err error) {
	const op = "ExtractText"

	// The pdf library panics on some malformed documents.
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("%s: %w: %v", op, ErrInvalidPDF, rec)
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read PDF data: %w", op, err)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, fmt.Errorf("%s: missing PDF header: %w", op, ErrInvalidPDF)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidPDF, err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyDocument)
	}

	log := logger.WithComponent("extract-pdf")

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("Seitentext nicht lesbar, überspringe Seite")
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyDocument)
	}

	return &Result{
		Text:   text,
		Pages:  numPages,
		Source: "pdf",
	}, nil
}
