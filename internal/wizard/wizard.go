package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"notes-upload/internal/notesapi"
	"notes-upload/internal/shared/telemetry"
)

// Wizard is the three-step notes upload flow. Methods are safe for
// concurrent use; at most one Submit runs at a time.
type Wizard struct {
	deps Deps

	mu         sync.Mutex
	step       Step
	draft      Draft
	dragActive bool
	loading    bool
	done       bool
	cancel     context.CancelFunc
}

// New returns an empty wizard on the file selection step.
func New(deps Deps) *Wizard {
	return Restore(deps, StepSelectFile, Draft{})
}

// Restore returns a wizard resumed at step with draft. An invalid step, or a
// step past the first without a file, falls back to file selection.
func Restore(deps Deps, step Step, draft Draft) *Wizard {
	if deps.NotesListPath == "" {
		deps.NotesListPath = DefaultNotesListPath
	}
	if !step.Valid() || (step > StepSelectFile && draft.File == nil) {
		step = StepSelectFile
	}
	return &Wizard{deps: deps, step: step, draft: draft}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Loading reports whether a submit is in flight.
func (w *Wizard) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

func (w *Wizard) DragActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dragActive
}

// Done reports whether the wizard was submitted or discarded.
func (w *Wizard) Done() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// DragEnter marks the drop zone active (drag enter and drag over).
func (w *Wizard) DragEnter() {
	w.mu.Lock()
	w.dragActive = true
	w.mu.Unlock()
}

// DragLeave clears the drop zone highlight.
func (w *Wizard) DragLeave() {
	w.mu.Lock()
	w.dragActive = false
	w.mu.Unlock()
}

// Drop handles files dropped on the picker. Only the first one is used.
func (w *Wizard) Drop(files []*File) bool {
	w.DragLeave()
	if len(files) == 0 {
		return false
	}
	return w.SelectFile(files[0])
}

// SelectFile offers f to the picker. A PDF is stored and moves the wizard to
// the details step; anything else leaves the draft and step unchanged.
// The picker only exists on the first step; calls elsewhere are ignored.
func (w *Wizard) SelectFile(f *File) bool {
	if f == nil {
		return false
	}
	w.mu.Lock()
	if w.done || w.step != StepSelectFile {
		w.mu.Unlock()
		return false
	}
	w.mu.Unlock()

	if !f.IsPDF() {
		telemetry.Info("wizard.file.rejected", map[string]any{
			"file_name": f.Name,
			"mime_type": f.MimeType,
		})
		if w.deps.Metrics != nil {
			w.deps.Metrics.FileRejected()
		}
		w.notify(LevelWarning, MessageNotPDF)
		return false
	}

	if w.deps.Inspector != nil {
		preview, err := w.deps.Inspector.Inspect(f)
		if err != nil {
			telemetry.Warn("wizard.file.inspect_failed", map[string]any{
				"file_name": f.Name,
				"err":       err.Error(),
			})
		} else {
			f.PageCount = preview.PageCount
			f.Excerpt = preview.Excerpt
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done || w.step != StepSelectFile {
		return false
	}
	w.draft.File = f
	w.step = Transition(w.step, EventPDFSelected)
	return true
}

// SetDetails replaces the step-two form fields.
func (w *Wizard) SetDetails(d Details) error {
	if !ValidUnit(strings.TrimSpace(d.Unit)) {
		return fmt.Errorf("%w: %q", ErrInvalidUnit, d.Unit)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return ErrDiscarded
	}
	w.draft.apply(d)
	return nil
}

// Back moves one step back. Draft fields are kept.
func (w *Wizard) Back() Step {
	return w.fire(EventBack)
}

// Next moves from details to review. No validation happens here.
func (w *Wizard) Next() Step {
	return w.fire(EventNext)
}

func (w *Wizard) fire(ev Event) Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done || w.loading {
		return w.step
	}
	w.step = Transition(w.step, ev)
	return w.step
}

// Review returns what the final step displays.
func (w *Wizard) Review() Review {
	w.mu.Lock()
	defer w.mu.Unlock()
	r := Review{
		Title:       w.draft.Title,
		Subject:     w.draft.Subject,
		Faculty:     w.draft.Faculty,
		Unit:        w.draft.Unit,
		Sem:         w.draft.Sem,
		Description: w.draft.Description,
	}
	if f := w.draft.File; f != nil {
		r.FileName = f.Name
		r.PageCount = f.PageCount
		r.Excerpt = f.Excerpt
	}
	return r
}

// Discard abandons the wizard, cancelling an in-flight submit.
func (w *Wizard) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.done = true
	w.draft = Draft{}
	if w.cancel != nil {
		w.cancel()
	}
}

// Submit validates the draft and posts it. Validation and session failures
// never reach the network. Every failure is reported through the Notifier
// once and leaves the wizard usable; success navigates to the notes list.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return ErrDiscarded
	}
	if w.loading {
		w.mu.Unlock()
		return ErrSubmitInProgress
	}
	w.loading = true
	draft := w.draft
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	start := time.Now()
	err := w.submit(ctx, draft)
	cancel()

	w.mu.Lock()
	w.loading = false
	w.cancel = nil
	discarded := w.done
	if err == nil {
		w.done = true
		w.draft = Draft{}
	} else if errors.Is(err, ErrUploadFailed) {
		w.step = Transition(w.step, EventSubmitFailed)
	}
	w.mu.Unlock()

	kind := KindOf(err)
	if w.deps.Metrics != nil {
		w.deps.Metrics.SubmitObserved(kind, time.Since(start))
	}

	if discarded {
		if err == nil {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrDiscarded, err)
	}

	switch kind {
	case KindNone:
		if w.deps.Navigator != nil {
			w.deps.Navigator.Navigate(w.deps.NotesListPath)
		}
	case KindMissingFile:
		w.notify(LevelError, MessageMissingFile)
	case KindMissingFields:
		w.notify(LevelError, MessageMissingFields)
	case KindMalformedSession:
		w.notify(LevelError, MessageMalformedSession)
	case KindUpload:
		// The caller gave up; there is nobody to show the failure to.
		if errors.Is(err, context.Canceled) {
			break
		}
		var upErr *UploadError
		msg := FallbackUploadMessage
		if errors.As(err, &upErr) {
			msg = upErr.Message
		}
		w.notify(LevelError, msg)
	}
	return err
}

func (w *Wizard) submit(ctx context.Context, draft Draft) error {
	if draft.File == nil {
		return ErrMissingFile
	}
	if missing := draft.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if w.deps.Session == nil {
		return fmt.Errorf("%w: no session provider", ErrMalformedSession)
	}
	userID, err := w.deps.Session.CurrentUserID()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedSession, err)
	}
	token, err := w.deps.Session.AuthToken()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedSession, err)
	}
	if w.deps.Uploader == nil {
		return &UploadError{Message: FallbackUploadMessage, Err: errors.New("no uploader configured")}
	}

	content, err := draft.File.Open()
	if err != nil {
		return &UploadError{Message: FallbackUploadMessage, Err: fmt.Errorf("open %s: %w", draft.File.Name, err)}
	}
	defer content.Close()

	resp, err := w.deps.Uploader.AddNotes(ctx, token, notesapi.AddNotesRequest{
		FileName:    draft.File.Name,
		FileType:    draft.File.MimeType,
		File:        content,
		Title:       draft.Title,
		Sem:         draft.Sem,
		UserID:      userID,
		Subject:     draft.Subject,
		Unit:        draft.Unit,
		Format:      draft.File.MimeType,
		Description: draft.Description,
		Faculty:     draft.Faculty,
	})
	if err != nil {
		telemetry.Error("wizard.submit.failed", map[string]any{
			"file_name": draft.File.Name,
			"user_id":   userID,
			"err":       err.Error(),
		})
		return &UploadError{Message: uploadMessage(err), Err: err}
	}

	telemetry.Info("wizard.submit.succeeded", map[string]any{
		"file_name": draft.File.Name,
		"user_id":   userID,
		"response":  string(resp),
	})
	return nil
}

type serverMessager interface {
	ServerMessage() string
}

func uploadMessage(err error) string {
	var sm serverMessager
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return FallbackUploadMessage
}

func (w *Wizard) notify(level Level, msg string) {
	if w.deps.Notifier == nil {
		return
	}
	w.deps.Notifier.Notify(newNotification(level, msg))
}
