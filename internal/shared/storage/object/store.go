package object

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotFound is returned by Open and Delete for unknown keys.
var ErrNotFound = errors.New("object not found")

// SniffBytes is how much of a body is read to detect its MIME type.
const SniffBytes = 3072

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// ObjectStore defines the contract for spooling uploaded files.
type ObjectStore interface {
	Save(ctx context.Context, ownerKey string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// Sniff reads the head of r and returns its detected MIME type together with
// a reader that replays the full body.
func Sniff(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, SniffBytes)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}
