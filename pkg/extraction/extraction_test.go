package extraction

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"cert-evaluator-be/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestPlainTextExtractor(t *testing.T) {
	ctx := context.Background()
	e := NewPlainTextExtractor()

	text, err := e.ExtractText(ctx, writeFile(t, "cert.txt", []byte("  Valid until 2027  ")), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "Valid until 2027", text)

	_, err = e.ExtractText(ctx, writeFile(t, "cert.pdf", []byte("%PDF")), "application/pdf")
	assert.True(t, apperr.IsExtraction(err))

	_, err = e.ExtractText(ctx, writeFile(t, "empty.txt", []byte("   ")), "text/plain")
	assert.True(t, apperr.IsExtraction(err))

	_, err = e.ExtractText(ctx, filepath.Join(t.TempDir(), "missing.txt"), "text/plain")
	assert.True(t, apperr.IsExtraction(err))
}

func TestTikaExtractor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-binary", string(body))
		_, _ = w.Write([]byte("Issued by FAA\n"))
	}))
	defer server.Close()

	e := NewTikaExtractor(server.URL + "/")
	text, err := e.ExtractText(context.Background(), writeFile(t, "cert.pdf", []byte("%PDF-binary")), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, "Issued by FAA", text)
}

func TestTikaExtractorFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := NewTikaExtractor(server.URL).ExtractText(context.Background(), writeFile(t, "x.pdf", []byte("x")), "application/pdf")
	assert.True(t, apperr.IsExtraction(err))
}
