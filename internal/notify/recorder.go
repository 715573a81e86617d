package notify

import (
	"sync"

	"notes-upload/internal/wizard"
)

// Recorder keeps notifications and the last navigation target in memory.
// The hosted service returns them to the browser with each response.
type Recorder struct {
	mu       sync.Mutex
	toasts   []wizard.Notification
	redirect string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(n wizard.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, n)
}

func (r *Recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirect = path
}

// Notifications returns a copy of the recorded notifications.
func (r *Recorder) Notifications() []wizard.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]wizard.Notification(nil), r.toasts...)
}

// Drain returns the recorded notifications and forgets them.
func (r *Recorder) Drain() []wizard.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.toasts
	r.toasts = nil
	return out
}

// Redirect is the last path passed to Navigate.
func (r *Recorder) Redirect() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirect
}

var (
	_ wizard.Notifier  = (*Recorder)(nil)
	_ wizard.Navigator = (*Recorder)(nil)
)
