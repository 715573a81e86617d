package wizard

import (
	"context"
	"encoding/json"
	"time"

	"notes-upload/internal/notesapi"
)

// SessionProvider supplies the signed-in user for a submit.
type SessionProvider interface {
	CurrentUserID() (string, error)
	AuthToken() (string, error)
}

// Uploader performs the notes POST.
type Uploader interface {
	AddNotes(ctx context.Context, token string, req notesapi.AddNotesRequest) (json.RawMessage, error)
}

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(path string)
}

// Notifier shows transient messages.
type Notifier interface {
	Notify(n Notification)
}

// Inspector reads preview data from an accepted file.
type Inspector interface {
	Inspect(f *File) (Preview, error)
}

// Metrics observes wizard outcomes.
type Metrics interface {
	FileRejected()
	SubmitObserved(kind Kind, elapsed time.Duration)
}

// Preview is optional review-step data about a PDF.
type Preview struct {
	PageCount int
	Excerpt   string
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type InspectorFunc func(f *File) (Preview, error)

func (f InspectorFunc) Inspect(file *File) (Preview, error) { return f(file) }

// Level is the severity of a notification.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Toast placement and lifetime shared by every notification.
const (
	PositionTopRight = "top-right"
	AutoClose        = 3500 * time.Millisecond
)

// Notification is a transient user-facing message.
type Notification struct {
	Level     Level
	Message   string
	Position  string
	AutoClose time.Duration
}

func newNotification(level Level, msg string) Notification {
	return Notification{
		Level:     level,
		Message:   msg,
		Position:  PositionTopRight,
		AutoClose: AutoClose,
	}
}

// Deps are the collaborators of a Wizard. Inspector and Metrics are optional.
type Deps struct {
	Uploader  Uploader
	Session   SessionProvider
	Notifier  Notifier
	Navigator Navigator
	Inspector Inspector
	Metrics   Metrics
	// NotesListPath is where a successful submit navigates. Defaults to /notes.
	NotesListPath string
}

// DefaultNotesListPath is the notes listing page.
const DefaultNotesListPath = "/notes"
