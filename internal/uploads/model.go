package uploads

import (
	"time"

	"notes-upload/internal/wizard"
)

// Record is a persisted wizard draft owned by one session.
type Record struct {
	ID        string
	OwnerKey  string
	Step      wizard.Step
	Details   wizard.Details
	File      *FileRef
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileRef points at the selected PDF spooled in the object store.
type FileRef struct {
	Key       string
	Name      string
	MimeType  string
	SizeBytes int64
	PageCount int
	Excerpt   string
}
