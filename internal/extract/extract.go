// Package extract pulls plain text out of uploaded document files.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"

	"github.com/candidex/candidex/internal/domain"
)

// ErrUnsupportedFormat is returned for file extensions no extractor handles.
var ErrUnsupportedFormat = errors.New("extract: unsupported file format")

// pageTimeout bounds a single PDF page extraction; malformed pages can
// otherwise hang the parser.
const pageTimeout = 10 * time.Second

// Text extracts plain text from the file at path, dispatching on extension.
// PDF pages are concatenated with single spaces. Returns
// domain.ErrExtractionEmpty when the file yields no usable text.
func Text(path string) (string, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = pdfText(path)
	case ".docx", ".doc", ".odt", ".rtf", ".txt":
		text, err = cat.File(path)
		if err != nil {
			err = fmt.Errorf("extract document text: %w", err)
		}
	default:
		return "", ErrUnsupportedFormat
	}

	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrExtractionEmpty
	}
	return text, nil
}

func pdfText(path string) (string, error) {
	f, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var parts []string
	numPages := f.NumPage()
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := guardedText(func() (string, error) {
			return page.GetPlainText(nil)
		}, pageTimeout)
		if err != nil {
			// Skip unparseable pages, keep the rest of the document.
			continue
		}
		parts = append(parts, content)
	}

	return strings.Join(parts, " "), nil
}

// guardedText runs one page extraction under a timeout and converts a
// panic inside fn into an error; the pdf parser panics on malformed
// content streams.
func guardedText(fn func() (string, error), timeout time.Duration) (string, error) {
	type result struct {
		content string
		err     error
	}
	resCh := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resCh <- result{err: fmt.Errorf("page extraction panicked: %v", r)}
			}
		}()
		content, err := fn()
		resCh <- result{content, err}
	}()

	select {
	case r := <-resCh:
		return r.content, r.err
	case <-time.After(timeout):
		return "", errors.New("page extraction timed out")
	}
}
