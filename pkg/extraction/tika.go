package extraction

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cert-evaluator-be/pkg/apperr"
)

// TikaExtractor sends binary uploads (PDF, images with OCR enabled, Office
// files) to an Apache Tika server and falls back to reading text files
// directly.
type TikaExtractor struct {
	BaseURL string
	Client  *http.Client
	plain   *PlainTextExtractor
}

func NewTikaExtractor(baseURL string) *TikaExtractor {
	return &TikaExtractor{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: 2 * time.Minute},
		plain:   NewPlainTextExtractor(),
	}
}

func (e *TikaExtractor) ExtractText(ctx context.Context, path string, mimeType string) (string, error) {
	if IsTextMime(mimeType) {
		return e.plain.ExtractText(ctx, path, mimeType)
	}

	name := filepath.Base(path)
	file, err := os.Open(path)
	if err != nil {
		return "", &apperr.ExtractionError{FileName: name, Err: err}
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.BaseURL+"/tika", file)
	if err != nil {
		return "", &apperr.ExtractionError{FileName: name, Err: err}
	}
	req.Header.Set("Accept", "text/plain")
	if mimeType != "" {
		req.Header.Set("Content-Type", mimeType)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", &apperr.ExtractionError{FileName: name, Err: fmt.Errorf("tika request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &apperr.ExtractionError{FileName: name, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &apperr.ExtractionError{FileName: name, Err: fmt.Errorf("tika status %d: %s", resp.StatusCode, string(body))}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", &apperr.ExtractionError{FileName: name, Err: fmt.Errorf("document contains no text")}
	}
	return text, nil
}
