// Package textextract pulls plain text out of a Modeler attachment so it
// can be dropped into a prompt or chunked for retrieval. PDFs are handled
// with ledongthuc/pdf (pure Go, no CGO); text-like extensions are decoded
// as-is; anything else is skipped.
package textextract

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var textLikeExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
	".py":   true,
	".lp":   true,
}

// Extract returns the plain text content of name given its raw bytes, or
// ok=false if the extension is not one Extract knows how to read.
func Extract(name string, content []byte) (text string, ok bool, err error) {
	ext := strings.ToLower(filepath.Ext(name))

	if ext == ".pdf" {
		text, err := extractPDF(content)
		return text, true, err
	}
	if textLikeExtensions[ext] {
		return strings.TrimSpace(string(content)), true, nil
	}
	return "", false, nil
}

func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
