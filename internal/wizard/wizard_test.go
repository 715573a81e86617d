package wizard_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notes-upload/internal/notesapi"
	"notes-upload/internal/notify"
	"notes-upload/internal/wizard"
)

type uploaderMock struct {
	mock.Mock
}

func (m *uploaderMock) AddNotes(ctx context.Context, token string, req notesapi.AddNotesRequest) (json.RawMessage, error) {
	args := m.Called(ctx, token, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

type staticSession struct {
	userID string
	token  string
	err    error
}

func (s staticSession) CurrentUserID() (string, error) { return s.userID, s.err }
func (s staticSession) AuthToken() (string, error)     { return s.token, s.err }

type harness struct {
	w        *wizard.Wizard
	uploader *uploaderMock
	rec      *notify.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{uploader: &uploaderMock{}, rec: notify.NewRecorder()}
	h.w = wizard.New(wizard.Deps{
		Uploader:  h.uploader,
		Session:   staticSession{userID: "user-42", token: "tok-abc"},
		Notifier:  h.rec,
		Navigator: h.rec,
	})
	return h
}

func pdfFile() *wizard.File {
	return wizard.FileFromBytes("midterm.pdf", wizard.MimePDF, []byte("%PDF-1.4\n%%EOF\n"))
}

func fullDetails() wizard.Details {
	return wizard.Details{
		Title:       "Midterm Notes",
		Subject:     "Physics",
		Unit:        "3",
		Description: "Chapter 4 summary",
		Faculty:     "",
	}
}

func (h *harness) fillToReview(t *testing.T) {
	t.Helper()
	require.True(t, h.w.SelectFile(pdfFile()))
	require.NoError(t, h.w.SetDetails(fullDetails()))
	require.Equal(t, wizard.StepReviewAndSubmit, h.w.Next())
}

func messages(ns []wizard.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Message)
	}
	return out
}

func TestSelectFileIgnoresNonPDF(t *testing.T) {
	for _, mimeType := range []string{"image/png", "text/plain", "application/msword", "", "application/pdfx"} {
		t.Run(mimeType, func(t *testing.T) {
			h := newHarness(t)
			accepted := h.w.SelectFile(wizard.FileFromBytes("x.bin", mimeType, []byte("data")))

			assert.False(t, accepted)
			assert.Equal(t, wizard.StepSelectFile, h.w.Step())
			assert.Nil(t, h.w.Draft().File)
			assert.Equal(t, []string{wizard.MessageNotPDF}, messages(h.rec.Notifications()))
		})
	}
}

func TestDropPDFAdvancesOnlyToDetails(t *testing.T) {
	h := newHarness(t)

	h.w.DragEnter()
	require.True(t, h.w.DragActive())
	assert.True(t, h.w.Drop([]*wizard.File{pdfFile()}))
	assert.False(t, h.w.DragActive())
	assert.Equal(t, wizard.StepEnterDetails, h.w.Step())
	require.NotNil(t, h.w.Draft().File)
	assert.Equal(t, "midterm.pdf", h.w.Draft().File.Name)

	// The picker is gone on step 2; another drop changes nothing.
	assert.False(t, h.w.Drop([]*wizard.File{pdfFile()}))
	assert.Equal(t, wizard.StepEnterDetails, h.w.Step())

	h.w.Back()
	second := wizard.FileFromBytes("final.pdf", "application/pdf; charset=binary", []byte("%PDF-1.7"))
	assert.True(t, h.w.SelectFile(second))
	assert.Equal(t, wizard.StepEnterDetails, h.w.Step())
	assert.Equal(t, "final.pdf", h.w.Draft().File.Name)
}

func TestDropWithNoFiles(t *testing.T) {
	h := newHarness(t)
	h.w.DragEnter()
	assert.False(t, h.w.Drop(nil))
	assert.False(t, h.w.DragActive())
	assert.Equal(t, wizard.StepSelectFile, h.w.Step())
}

func TestSubmitWithoutFileMakesNoCall(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.w.SetDetails(fullDetails()))

	err := h.w.Submit(context.Background())

	require.ErrorIs(t, err, wizard.ErrMissingFile)
	h.uploader.AssertNotCalled(t, "AddNotes", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{wizard.MessageMissingFile}, messages(h.rec.Notifications()))
	assert.False(t, h.w.Loading())
}

func TestSubmitWithEmptyRequiredFieldMakesNoCall(t *testing.T) {
	blank := map[string]func(*wizard.Details){
		"title":       func(d *wizard.Details) { d.Title = "" },
		"subject":     func(d *wizard.Details) { d.Subject = "" },
		"unit":        func(d *wizard.Details) { d.Unit = "" },
		"description": func(d *wizard.Details) { d.Description = "" },
	}
	for field, blankOut := range blank {
		t.Run(field, func(t *testing.T) {
			h := newHarness(t)
			require.True(t, h.w.SelectFile(pdfFile()))
			d := fullDetails()
			blankOut(&d)
			require.NoError(t, h.w.SetDetails(d))
			h.w.Next()

			err := h.w.Submit(context.Background())

			require.ErrorIs(t, err, wizard.ErrMissingFields)
			assert.Contains(t, err.Error(), field)
			h.uploader.AssertNotCalled(t, "AddNotes", mock.Anything, mock.Anything, mock.Anything)
			assert.Equal(t, []string{wizard.MessageMissingFields}, messages(h.rec.Notifications()))
			assert.Equal(t, wizard.StepReviewAndSubmit, h.w.Step())
		})
	}
}

func TestSubmitSendsOneRequestAndNavigates(t *testing.T) {
	h := newHarness(t)
	h.fillToReview(t)

	h.uploader.On("AddNotes", mock.Anything, "tok-abc", mock.MatchedBy(func(req notesapi.AddNotesRequest) bool {
		return req.Format == wizard.MimePDF &&
			req.FileType == wizard.MimePDF &&
			req.FileName == "midterm.pdf" &&
			req.Faculty == "" &&
			req.Title == "Midterm Notes" &&
			req.Subject == "Physics" &&
			req.Unit == "3" &&
			req.Description == "Chapter 4 summary" &&
			req.UserID == "user-42"
	})).Return(json.RawMessage(`{"ok":true}`), nil).Once()

	err := h.w.Submit(context.Background())

	require.NoError(t, err)
	h.uploader.AssertNumberOfCalls(t, "AddNotes", 1)
	h.uploader.AssertExpectations(t)
	assert.Equal(t, wizard.DefaultNotesListPath, h.rec.Redirect())
	assert.Empty(t, h.rec.Notifications())
	assert.True(t, h.w.Done())
	assert.Nil(t, h.w.Draft().File)
}

func TestSubmitServerErrorShowsServerMessage(t *testing.T) {
	h := newHarness(t)
	h.fillToReview(t)
	h.uploader.On("AddNotes", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &notesapi.APIError{StatusCode: 500, Message: "Too large"}).Once()

	err := h.w.Submit(context.Background())

	require.ErrorIs(t, err, wizard.ErrUploadFailed)
	assert.Equal(t, []string{"Too large"}, messages(h.rec.Notifications()))
	assert.Equal(t, wizard.StepReviewAndSubmit, h.w.Step())
	assert.Equal(t, fullDetails(), h.w.Draft().Details())
	assert.NotNil(t, h.w.Draft().File)
	assert.False(t, h.w.Loading())
	assert.Empty(t, h.rec.Redirect())
}

func TestSubmitNetworkFailureShowsFallback(t *testing.T) {
	h := newHarness(t)
	h.fillToReview(t)
	h.uploader.On("AddNotes", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("dial tcp: connection refused")).Once()

	err := h.w.Submit(context.Background())

	require.ErrorIs(t, err, wizard.ErrUploadFailed)
	assert.Equal(t, []string{"File might be too large to upload"}, messages(h.rec.Notifications()))

	// Retry after a failure goes through.
	h.uploader.On("AddNotes", mock.Anything, mock.Anything, mock.Anything).
		Return(json.RawMessage(`{}`), nil).Once()
	require.NoError(t, h.w.Submit(context.Background()))
	assert.Equal(t, "/notes", h.rec.Redirect())
}

func TestSubmitServerErrorWithoutMessageShowsFallback(t *testing.T) {
	h := newHarness(t)
	h.fillToReview(t)
	h.uploader.On("AddNotes", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &notesapi.APIError{StatusCode: 413}).Once()

	_ = h.w.Submit(context.Background())

	assert.Equal(t, []string{wizard.FallbackUploadMessage}, messages(h.rec.Notifications()))
}

func TestSubmitServerMessageShownVerbatim(t *testing.T) {
	h := newHarness(t)
	h.fillToReview(t)
	h.uploader.On("AddNotes", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &notesapi.APIError{StatusCode: 400, Message: "  "}).Once()

	_ = h.w.Submit(context.Background())

	assert.Equal(t, []string{"  "}, messages(h.rec.Notifications()))
}

func TestSubmitCancelledShowsNoToast(t *testing.T) {
	h := newHarness(t)
	h.fillToReview(t)
	h.uploader.On("AddNotes", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, context.Canceled).Once()

	err := h.w.Submit(context.Background())

	require.ErrorIs(t, err, wizard.ErrUploadFailed)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.rec.Notifications())
	assert.Empty(t, h.rec.Redirect())
	assert.Equal(t, wizard.StepReviewAndSubmit, h.w.Step())
	assert.NotNil(t, h.w.Draft().File)
}

func TestSubmitMalformedSession(t *testing.T) {
	rec := notify.NewRecorder()
	uploader := &uploaderMock{}
	w := wizard.New(wizard.Deps{
		Uploader:  uploader,
		Session:   staticSession{err: errors.New("user entry is not valid JSON")},
		Notifier:  rec,
		Navigator: rec,
	})
	require.True(t, w.SelectFile(pdfFile()))
	require.NoError(t, w.SetDetails(fullDetails()))
	w.Next()

	err := w.Submit(context.Background())

	require.ErrorIs(t, err, wizard.ErrMalformedSession)
	assert.Equal(t, wizard.KindMalformedSession, wizard.KindOf(err))
	uploader.AssertNotCalled(t, "AddNotes", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{wizard.MessageMalformedSession}, messages(rec.Notifications()))
	assert.Equal(t, wizard.StepReviewAndSubmit, w.Step())
}

func TestBackAndNextKeepFields(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.w.SelectFile(pdfFile()))
	d := fullDetails()
	d.Faculty = "Dr. Rao"
	d.Sem = "4"
	require.NoError(t, h.w.SetDetails(d))
	before := h.w.Draft()

	steps := []func() wizard.Step{h.w.Next, h.w.Back, h.w.Back, h.w.Next, h.w.Next, h.w.Next, h.w.Back}
	for _, move := range steps {
		move()
		after := h.w.Draft()
		assert.Equal(t, before.Details(), after.Details())
		assert.Same(t, before.File, after.File)
	}
	assert.Equal(t, wizard.StepEnterDetails, h.w.Step())
}

func TestSetDetailsRejectsUnknownUnit(t *testing.T) {
	h := newHarness(t)
	d := fullDetails()
	d.Unit = "7"
	require.ErrorIs(t, h.w.SetDetails(d), wizard.ErrInvalidUnit)
	assert.Empty(t, h.w.Draft().Unit)
}

type blockingUploader struct {
	started chan struct{}
	release chan struct{}
	calls   int
}

func (b *blockingUploader) AddNotes(ctx context.Context, _ string, req notesapi.AddNotesRequest) (json.RawMessage, error) {
	b.calls++
	_, _ = io.Copy(io.Discard, req.File)
	close(b.started)
	select {
	case <-b.release:
		return json.RawMessage(`{}`), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSecondSubmitWhileLoadingIsRefused(t *testing.T) {
	up := &blockingUploader{started: make(chan struct{}), release: make(chan struct{})}
	rec := notify.NewRecorder()
	w := wizard.New(wizard.Deps{Uploader: up, Session: staticSession{userID: "u", token: "t"}, Notifier: rec, Navigator: rec})
	require.True(t, w.SelectFile(pdfFile()))
	require.NoError(t, w.SetDetails(fullDetails()))
	w.Next()

	done := make(chan error, 1)
	go func() { done <- w.Submit(context.Background()) }()
	<-up.started

	assert.True(t, w.Loading())
	assert.ErrorIs(t, w.Submit(context.Background()), wizard.ErrSubmitInProgress)
	assert.Equal(t, wizard.StepReviewAndSubmit, w.Back(), "navigation is locked while loading")

	close(up.release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not finish")
	}
	assert.Equal(t, 1, up.calls)
	assert.Equal(t, "/notes", rec.Redirect())
}

func TestDiscardCancelsInFlightSubmit(t *testing.T) {
	up := &blockingUploader{started: make(chan struct{}), release: make(chan struct{})}
	rec := notify.NewRecorder()
	w := wizard.New(wizard.Deps{Uploader: up, Session: staticSession{userID: "u", token: "t"}, Notifier: rec, Navigator: rec})
	require.True(t, w.SelectFile(pdfFile()))
	require.NoError(t, w.SetDetails(fullDetails()))
	w.Next()

	done := make(chan error, 1)
	go func() { done <- w.Submit(context.Background()) }()
	<-up.started
	w.Discard()

	select {
	case err := <-done:
		require.ErrorIs(t, err, wizard.ErrDiscarded)
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("submit was not cancelled")
	}
	assert.Empty(t, rec.Notifications())
	assert.Empty(t, rec.Redirect())
	assert.ErrorIs(t, w.Submit(context.Background()), wizard.ErrDiscarded)
}

func TestInspectorFillsReview(t *testing.T) {
	rec := notify.NewRecorder()
	w := wizard.New(wizard.Deps{
		Notifier: rec,
		Inspector: wizard.InspectorFunc(func(f *wizard.File) (wizard.Preview, error) {
			return wizard.Preview{PageCount: 12, Excerpt: "Kinematics"}, nil
		}),
	})
	require.True(t, w.SelectFile(pdfFile()))
	require.NoError(t, w.SetDetails(fullDetails()))

	r := w.Review()
	assert.Equal(t, "midterm.pdf", r.FileName)
	assert.Equal(t, 12, r.PageCount)
	assert.Equal(t, "Kinematics", r.Excerpt)
	assert.Equal(t, "Physics", r.Subject)
}

func TestRestoreFallsBackWithoutFile(t *testing.T) {
	w := wizard.Restore(wizard.Deps{}, wizard.StepReviewAndSubmit, wizard.Draft{Title: "kept"})
	assert.Equal(t, wizard.StepSelectFile, w.Step())
	assert.Equal(t, "kept", w.Draft().Title)

	w = wizard.Restore(wizard.Deps{}, wizard.StepReviewAndSubmit, wizard.Draft{File: pdfFile()})
	assert.Equal(t, wizard.StepReviewAndSubmit, w.Step())
}
