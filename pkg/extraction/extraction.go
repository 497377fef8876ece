package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"cert-evaluator-be/pkg/apperr"
)

// Extractor is the document-extraction collaborator.
type Extractor interface {
	ExtractText(ctx context.Context, path string, mimeType string) (string, error)
}

// PlainTextExtractor reads text-like uploads directly from disk.
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) ExtractText(ctx context.Context, path string, mimeType string) (string, error) {
	name := filepath.Base(path)
	if !IsTextMime(mimeType) {
		return "", &apperr.ExtractionError{FileName: name, Err: fmt.Errorf("unsupported content type %q", mimeType)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &apperr.ExtractionError{FileName: name, Err: err}
	}
	if !utf8.Valid(data) {
		return "", &apperr.ExtractionError{FileName: name, Err: fmt.Errorf("file is not valid UTF-8 text")}
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", &apperr.ExtractionError{FileName: name, Err: fmt.Errorf("document contains no text")}
	}
	return text, nil
}

func IsTextMime(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	switch {
	case strings.HasPrefix(mimeType, "text/"):
		return true
	case mimeType == "application/json", mimeType == "application/xml":
		return true
	default:
		return false
	}
}
