package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// maxOCRFileSize is the Vision API limit for synchronous inline processing.
const maxOCRFileSize = 20 * 1024 * 1024

// OCRExtractor extracts text from scanned PDF statements via the Cloud
// Vision document text detection API.
type OCRExtractor struct {
	client *vision.ImageAnnotatorClient
}

// NewOCRExtractor creates an OCR extractor with credentials from the
// environment: GOOGLE_CREDENTIALS (inline JSON), GOOGLE_APPLICATION_CREDENTIALS
// (file path), or application default credentials.
func NewOCRExtractor(ctx context.Context) (*OCRExtractor, error) {
	const op = "NewOCRExtractor"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, ErrMissingCredentials)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create Vision client: %w", op, err)
	}

	return &OCRExtractor{client: client}, nil
}

// Close releases the underlying API client.
func (o *OCRExtractor) Close() error {
	return o.client.Close()
}

// ExtractText runs document text detection over a scanned PDF and returns
// the page texts concatenated in reading order.
func (o *OCRExtractor) ExtractText(ctx context.Context, r io.Reader) (*Result, error) {
	const op = "ExtractText"

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read PDF data: %w", op, err)
	}
	if len(data) > maxOCRFileSize {
		return nil, fmt.Errorf("%s: %d bytes: %w", op, len(data), ErrPDFTooLarge)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return nil, fmt.Errorf("%s: missing PDF header: %w", op, ErrInvalidPDF)
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  data,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := o.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: Vision API call failed: %w", op, err)
	}
	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("%s: no response from Vision API", op)
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, fmt.Errorf("%s: Vision API error: %s", op, fileResp.Error.Message)
	}
	if len(fileResp.Responses) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyDocument)
	}

	var sb strings.Builder
	for _, pageResp := range fileResp.Responses {
		if annotation := pageResp.GetFullTextAnnotation(); annotation != nil {
			sb.WriteString(annotation.GetText())
			sb.WriteString("\n")
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyDocument)
	}

	return &Result{
		Text:   text,
		Pages:  len(fileResp.Responses),
		Source: "ocr",
	}, nil
}
