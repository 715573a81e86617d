package notify

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"notes-upload/internal/wizard"
)

// Terminal prints notifications as one-line toasts and navigation as a
// redirect notice. BaseURL is prefixed to navigation paths when set.
type Terminal struct {
	Out     io.Writer
	BaseURL string
	NoColor bool
}

func (t *Terminal) Notify(n wizard.Notification) {
	icon, paint := "!", color.New(color.FgYellow, color.Bold)
	if n.Level == wizard.LevelError {
		icon, paint = "x", color.New(color.FgRed, color.Bold)
	}
	if t.NoColor {
		paint.DisableColor()
	}
	fmt.Fprintf(t.Out, "%s %s\n", paint.Sprintf("[%s]", icon), n.Message)
}

func (t *Terminal) Navigate(path string) {
	target := path
	if base := strings.TrimRight(t.BaseURL, "/"); base != "" {
		target = base + path
	}
	paint := color.New(color.FgGreen)
	if t.NoColor {
		paint.DisableColor()
	}
	fmt.Fprintf(t.Out, "%s %s\n", paint.Sprint("Upload complete, opening"), target)
}

var (
	_ wizard.Notifier  = (*Terminal)(nil)
	_ wizard.Navigator = (*Terminal)(nil)
)
