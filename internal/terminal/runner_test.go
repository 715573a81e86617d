package terminal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-upload/internal/notesapi"
	"notes-upload/internal/notify"
	"notes-upload/internal/session"
	"notes-upload/internal/wizard"
)

type recordingUploader struct {
	calls []notesapi.AddNotesRequest
	errs  []error
}

func (u *recordingUploader) AddNotes(_ context.Context, _ string, req notesapi.AddNotesRequest) (json.RawMessage, error) {
	_, _ = io.Copy(io.Discard, req.File)
	u.calls = append(u.calls, req)
	if len(u.errs) > 0 {
		err := u.errs[0]
		u.errs = u.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return json.RawMessage(`{"ok":true}`), nil
}

type harness struct {
	runner   *Runner
	wizard   *wizard.Wizard
	uploader *recordingUploader
	out      *bytes.Buffer
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	up := &recordingUploader{}
	term := &notify.Terminal{Out: out, NoColor: true}
	w := wizard.New(wizard.Deps{
		Uploader:  up,
		Session:   session.Bearer{Token: "tok", UserID: "u-1"},
		Notifier:  term,
		Navigator: term,
	})
	return &harness{
		runner:   &Runner{Wizard: w, Out: out, NoColor: true},
		wizard:   w,
		uploader: up,
		out:      out,
		dir:      t.TempDir(),
	}
}

func (h *harness) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (h *harness) run(lines ...string) error {
	h.runner.In = strings.NewReader(strings.Join(lines, "\n") + "\n")
	return h.runner.Run(context.Background())
}

func TestRunnerSubmitsCompleteDraft(t *testing.T) {
	h := newHarness(t)
	pdf := h.writeFile(t, "unit3.pdf", "%PDF-1.4\n% notes\n")

	err := h.run(
		pdf,
		"Midterm Notes", "Physics", "", "3", "", "Chapter 4 summary",
		"",
		"submit",
	)
	require.NoError(t, err)
	require.Len(t, h.uploader.calls, 1)
	req := h.uploader.calls[0]
	assert.Equal(t, "unit3.pdf", req.FileName)
	assert.Equal(t, wizard.MimePDF, req.Format)
	assert.Equal(t, "Midterm Notes", req.Title)
	assert.Equal(t, "3", req.Unit)
	assert.Equal(t, "", req.Faculty)
	assert.Equal(t, "u-1", req.UserID)
	assert.True(t, h.wizard.Done())
	assert.Contains(t, h.out.String(), "Step 3 of 3: Preview & Submit")
	assert.Contains(t, h.out.String(), "Upload complete, opening /notes")
}

func TestRunnerRejectsNonPDF(t *testing.T) {
	h := newHarness(t)
	txt := h.writeFile(t, "notes.txt", "plain text notes")

	err := h.run(txt, "quit")
	require.ErrorIs(t, err, ErrAborted)
	assert.Contains(t, h.out.String(), "[!] "+wizard.MessageNotPDF)
	assert.Empty(t, h.uploader.calls)
	assert.True(t, h.wizard.Done())
}

func TestRunnerMissingFieldsThenBack(t *testing.T) {
	h := newHarness(t)
	pdf := h.writeFile(t, "unit3.pdf", "%PDF-1.4\n% notes\n")

	err := h.run(
		pdf,
		"Midterm Notes", "Physics", "", "3", "", "",
		"next",
		"submit",
		"back",
		"", "", "", "", "", "Chapter 4 summary",
		"next",
		"submit",
	)
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "[x] "+wizard.MessageMissingFields)
	require.Len(t, h.uploader.calls, 1)
	assert.Equal(t, "Midterm Notes", h.uploader.calls[0].Title)
	assert.Equal(t, "Chapter 4 summary", h.uploader.calls[0].Description)
}

func TestRunnerRepromptsInvalidUnit(t *testing.T) {
	h := newHarness(t)
	pdf := h.writeFile(t, "unit3.pdf", "%PDF-1.4\n% notes\n")

	err := h.run(
		pdf,
		"Midterm Notes", "Physics", "", "9", "3", "", "Chapter 4 summary",
		"next",
		"submit",
	)
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "Unit must be one of 1, 2, 3, 4, 5")
	require.Len(t, h.uploader.calls, 1)
	assert.Equal(t, "3", h.uploader.calls[0].Unit)
}

func TestRunnerRetriesAfterServerError(t *testing.T) {
	h := newHarness(t)
	h.uploader.errs = []error{&notesapi.APIError{StatusCode: 500, Message: "Too large"}}
	pdf := h.writeFile(t, "unit3.pdf", "%PDF-1.4\n% notes\n")

	err := h.run(
		pdf,
		"Midterm Notes", "Physics", "", "3", "", "Chapter 4 summary",
		"next",
		"submit",
		"submit",
	)
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "[x] Too large")
	assert.Len(t, h.uploader.calls, 2)
}

func TestRunnerEndOfInputAborts(t *testing.T) {
	h := newHarness(t)
	h.runner.In = strings.NewReader("")
	err := h.runner.Run(context.Background())
	require.ErrorIs(t, err, ErrAborted)
	assert.True(t, h.wizard.Done())
}

func TestRunnerClearValue(t *testing.T) {
	h := newHarness(t)
	pdf := h.writeFile(t, "unit3.pdf", "%PDF-1.4\n% notes\n")
	require.NoError(t, h.wizard.SetDetails(wizard.Details{Title: "Old", Faculty: "Dr. Rao"}))

	err := h.run(
		pdf,
		"", "Physics", "-", "3", "", "Chapter 4 summary",
		"next",
		"submit",
	)
	require.NoError(t, err)
	require.Len(t, h.uploader.calls, 1)
	assert.Equal(t, "Old", h.uploader.calls[0].Title)
	assert.Equal(t, "", h.uploader.calls[0].Faculty)
}

func TestRunnerCancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.runner.In = strings.NewReader("")
	err := h.runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, h.wizard.Done())
}

func TestRunnerCancelWhileWaitingForInput(t *testing.T) {
	h := newHarness(t)
	in, feed := io.Pipe()
	t.Cleanup(func() { _ = feed.Close() })
	h.runner.In = in

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.runner.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after ctx was cancelled")
	}
	assert.True(t, h.wizard.Done())
	assert.Empty(t, h.uploader.calls)
}
