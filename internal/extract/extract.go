package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"notes-upload/internal/shared/storage/object"
	"notes-upload/internal/wizard"
)

// ExcerptRunes bounds the review-step excerpt.
const ExcerptRunes = 200

// maxInspectBytes caps how much of a file is read for a preview.
const maxInspectBytes = 32 << 20

var ErrNotPDF = errors.New("not a pdf")

// Inspector reads page count and an excerpt from accepted PDFs.
// Library used: github.com/ledongthuc/pdf.
type Inspector struct{}

func (Inspector) Inspect(f *wizard.File) (wizard.Preview, error) {
	if !f.IsPDF() {
		return wizard.Preview{}, ErrNotPDF
	}
	rc, err := f.Open()
	if err != nil {
		return wizard.Preview{}, fmt.Errorf("inspect %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxInspectBytes+1))
	if err != nil {
		return wizard.Preview{}, fmt.Errorf("inspect %s: read: %w", f.Name, err)
	}
	if len(data) > maxInspectBytes {
		return wizard.Preview{}, fmt.Errorf("inspect %s: file exceeds %d bytes", f.Name, maxInspectBytes)
	}
	preview, err := InspectPDF(data)
	if err != nil {
		return wizard.Preview{}, fmt.Errorf("inspect %s: %w", f.Name, err)
	}
	return preview, nil
}

// InspectObject previews a PDF held in an object store.
func InspectObject(ctx context.Context, store object.ObjectStore, key string) (wizard.Preview, error) {
	if err := ctx.Err(); err != nil {
		return wizard.Preview{}, err
	}
	body, err := store.Open(ctx, key)
	if err != nil {
		return wizard.Preview{}, fmt.Errorf("inspect key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, maxInspectBytes))
	if err != nil {
		return wizard.Preview{}, fmt.Errorf("inspect key=%s: read: %w", key, err)
	}
	return InspectPDF(raw)
}

// InspectPDF returns the page count and the leading text of a PDF.
// Text extraction failures leave the excerpt empty; the page count is kept.
func InspectPDF(data []byte) (preview wizard.Preview, err error) {
	if len(data) == 0 {
		return wizard.Preview{}, errors.New("empty pdf data")
	}
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			preview, err = wizard.Preview{}, fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return wizard.Preview{}, err
	}
	preview = wizard.Preview{PageCount: reader.NumPage()}

	plain, textErr := reader.GetPlainText()
	if textErr != nil {
		return preview, nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return preview, nil
	}
	preview.Excerpt = Excerpt(buf.String(), ExcerptRunes)
	return preview, nil
}

// Excerpt collapses whitespace and truncates text to at most n runes.
func Excerpt(text string, n int) string {
	text = strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + "…"
}

var _ wizard.Inspector = Inspector{}
