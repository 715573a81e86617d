package wizard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MimePDF is the only MIME type the file picker accepts.
const MimePDF = "application/pdf"

var errNoContent = errors.New("file has no content source")

// File is a file chosen in the picker. Content is read lazily through Open
// so drafts restored from storage do not hold the bytes in memory.
type File struct {
	Name     string
	MimeType string
	Size     int64

	// Preview fields, filled by an Inspector when the file is accepted.
	PageCount int
	Excerpt   string

	open func() (io.ReadCloser, error)
}

// NewFile builds a File whose content is produced by open.
func NewFile(name, mimeType string, size int64, open func() (io.ReadCloser, error)) *File {
	return &File{Name: name, MimeType: mimeType, Size: size, open: open}
}

// FileFromBytes builds an in-memory File.
func FileFromBytes(name, mimeType string, data []byte) *File {
	return NewFile(name, mimeType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// OpenFile builds a File for a path on disk. The MIME type is detected from
// the content, the way a browser reports file.type for a picked file.
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect mime type of %s: %w", path, err)
	}
	return NewFile(filepath.Base(path), detected.String(), info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// Open returns a reader over the file content. Callers close it.
func (f *File) Open() (io.ReadCloser, error) {
	if f == nil || f.open == nil {
		return nil, errNoContent
	}
	return f.open()
}

// IsPDF reports whether the file's MIME type is application/pdf.
func (f *File) IsPDF() bool {
	if f == nil {
		return false
	}
	return normalizeMime(f.MimeType) == MimePDF
}

func normalizeMime(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if media, _, err := mime.ParseMediaType(raw); err == nil {
		return media
	}
	return strings.ToLower(raw)
}
