package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"notes-upload/internal/notify"
	"notes-upload/internal/shared/storage/object"
	"notes-upload/internal/shared/telemetry"
	"notes-upload/internal/wizard"
)

// State is a draft after an operation, with what the wizard reported.
type State struct {
	Record   Record
	Toasts   []wizard.Notification
	Redirect string
}

// Service runs the upload wizard over persisted drafts. Each operation
// restores a wizard from its record, applies one action and saves it back.
type Service struct {
	Repo      Repo
	Store     object.ObjectStore
	Uploader  wizard.Uploader
	Inspector wizard.Inspector
	Metrics   wizard.Metrics

	NotesListPath  string
	MaxUploadBytes int64
	Now            func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Create starts a new draft on the file selection step.
func (s *Service) Create(ctx context.Context, ownerKey string) (Record, error) {
	if strings.TrimSpace(ownerKey) == "" {
		return Record{}, fmt.Errorf("%w: owner required", ErrInvalidInput)
	}
	now := s.now()
	rec := Record{
		ID:        uuid.NewString(),
		OwnerKey:  ownerKey,
		Step:      wizard.StepSelectFile,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get returns a draft.
func (s *Service) Get(ctx context.Context, ownerKey, id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	return s.Repo.Get(ctx, ownerKey, id)
}

// SelectFile offers an uploaded file to the picker. mimeType is what the
// client reported; when it is missing the content is sniffed. Non-PDF files
// are never stored and leave the draft unchanged.
func (s *Service) SelectFile(ctx context.Context, ownerKey, id, fileName, mimeType string, r io.Reader) (State, error) {
	rec, err := s.Get(ctx, ownerKey, id)
	if err != nil {
		return State{}, err
	}
	if strings.TrimSpace(fileName) == "" {
		return State{}, fmt.Errorf("%w: file name required", ErrInvalidInput)
	}

	mimeType = strings.TrimSpace(mimeType)
	body := r
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		sniffed, replay, err := object.Sniff(r)
		if err != nil {
			return State{}, fmt.Errorf("sniff %s: %w", fileName, err)
		}
		mimeType, body = sniffed, replay
	}

	toasts := notify.NewRecorder()
	probe := wizard.NewFile(fileName, mimeType, 0, nil)
	if !probe.IsPDF() || rec.Step != wizard.StepSelectFile {
		w := s.restore(ctx, rec, toasts, nil)
		w.SelectFile(probe)
		return State{Record: rec, Toasts: toasts.Drain()}, nil
	}

	limit := s.MaxUploadBytes
	if limit > 0 {
		body = io.LimitReader(body, limit+1)
	}
	obj, err := s.Store.Save(ctx, ownerKey, fileName, body)
	if err != nil {
		return State{}, fmt.Errorf("spool %s: %w", fileName, err)
	}
	if limit > 0 && obj.Size > limit {
		s.deleteObject(ctx, obj.Key)
		return State{}, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, limit)
	}

	ref := &FileRef{Key: obj.Key, Name: fileName, MimeType: mimeType, SizeBytes: obj.Size}
	w := s.restore(ctx, rec, toasts, nil)
	f := s.fileFor(ctx, ref)
	if !w.SelectFile(f) {
		s.deleteObject(ctx, obj.Key)
		return State{Record: rec, Toasts: toasts.Drain()}, nil
	}
	ref.PageCount, ref.Excerpt = f.PageCount, f.Excerpt

	previous := rec.File
	rec.File = ref
	if err := s.save(ctx, &rec, w); err != nil {
		s.deleteObject(ctx, obj.Key)
		return State{}, err
	}
	if previous != nil && previous.Key != ref.Key {
		s.deleteObject(ctx, previous.Key)
	}
	return State{Record: rec, Toasts: toasts.Drain()}, nil
}

// SetDetails replaces the form fields of a draft.
func (s *Service) SetDetails(ctx context.Context, ownerKey, id string, d wizard.Details) (State, error) {
	rec, err := s.Get(ctx, ownerKey, id)
	if err != nil {
		return State{}, err
	}
	w := s.restore(ctx, rec, notify.NewRecorder(), nil)
	if err := w.SetDetails(d); err != nil {
		return State{}, err
	}
	if err := s.save(ctx, &rec, w); err != nil {
		return State{}, err
	}
	return State{Record: rec}, nil
}

// Next moves a draft from details to review.
func (s *Service) Next(ctx context.Context, ownerKey, id string) (State, error) {
	return s.navigate(ctx, ownerKey, id, (*wizard.Wizard).Next)
}

// Back moves a draft one step back.
func (s *Service) Back(ctx context.Context, ownerKey, id string) (State, error) {
	return s.navigate(ctx, ownerKey, id, (*wizard.Wizard).Back)
}

func (s *Service) navigate(ctx context.Context, ownerKey, id string, move func(*wizard.Wizard) wizard.Step) (State, error) {
	if s.busy(id) {
		return State{}, wizard.ErrSubmitInProgress
	}
	rec, err := s.Get(ctx, ownerKey, id)
	if err != nil {
		return State{}, err
	}
	w := s.restore(ctx, rec, notify.NewRecorder(), nil)
	if move(w) == rec.Step {
		return State{Record: rec}, nil
	}
	if err := s.save(ctx, &rec, w); err != nil {
		return State{}, err
	}
	return State{Record: rec}, nil
}

// Submit posts a draft to the notes backend with the caller's session. On
// success the draft and its spooled file are removed and State.Redirect is
// set. Failures return the wizard's error with its toasts in State.
func (s *Service) Submit(ctx context.Context, ownerKey, id string, sess wizard.SessionProvider) (State, error) {
	if !s.acquire(id) {
		return State{}, wizard.ErrSubmitInProgress
	}
	defer s.release(id)

	rec, err := s.Get(ctx, ownerKey, id)
	if err != nil {
		return State{}, err
	}

	recorder := notify.NewRecorder()
	w := s.restore(ctx, rec, recorder, sess)
	submitErr := w.Submit(ctx)
	state := State{Toasts: recorder.Drain(), Redirect: recorder.Redirect()}

	if submitErr != nil {
		if w.Step() != rec.Step {
			if err := s.save(ctx, &rec, w); err != nil {
				return State{}, err
			}
		}
		state.Record = rec
		return state, submitErr
	}

	state.Record = rec
	if err := s.Repo.Delete(ctx, ownerKey, id); err != nil && !errors.Is(err, ErrNotFound) {
		telemetry.Error("uploads.delete_failed", map[string]any{"upload_id": id, "err": err.Error()})
	}
	if rec.File != nil {
		s.deleteObject(ctx, rec.File.Key)
	}
	return state, nil
}

// Discard abandons a draft and removes its spooled file.
func (s *Service) Discard(ctx context.Context, ownerKey, id string) error {
	if s.busy(id) {
		return wizard.ErrSubmitInProgress
	}
	rec, err := s.Get(ctx, ownerKey, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, ownerKey, id); err != nil {
		return err
	}
	if rec.File != nil {
		s.deleteObject(ctx, rec.File.Key)
	}
	return nil
}

func (s *Service) restore(ctx context.Context, rec Record, rc *notify.Recorder, sess wizard.SessionProvider) *wizard.Wizard {
	var f *wizard.File
	if rec.File != nil {
		f = s.fileFor(ctx, rec.File)
	}
	return wizard.Restore(wizard.Deps{
		Uploader:      s.Uploader,
		Session:       sess,
		Notifier:      rc,
		Navigator:     rc,
		Inspector:     s.Inspector,
		Metrics:       s.Metrics,
		NotesListPath: s.NotesListPath,
	}, rec.Step, wizard.NewDraft(f, rec.Details))
}

func (s *Service) fileFor(ctx context.Context, ref *FileRef) *wizard.File {
	key := ref.Key
	f := wizard.NewFile(ref.Name, ref.MimeType, ref.SizeBytes, func() (io.ReadCloser, error) {
		return s.Store.Open(ctx, key)
	})
	f.PageCount = ref.PageCount
	f.Excerpt = ref.Excerpt
	return f
}

func (s *Service) save(ctx context.Context, rec *Record, w *wizard.Wizard) error {
	rec.Step = w.Step()
	rec.Details = w.Draft().Details()
	rec.UpdatedAt = s.now()
	return s.Repo.Update(ctx, *rec)
}

func (s *Service) deleteObject(ctx context.Context, key string) {
	if err := s.Store.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, object.ErrNotFound) {
		telemetry.Warn("uploads.spool.delete_failed", map[string]any{"key": key, "err": err.Error()})
	}
}

func (s *Service) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight == nil {
		s.inflight = make(map[string]struct{})
	}
	if _, ok := s.inflight[id]; ok {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func (s *Service) busy(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inflight[id]
	return ok
}
