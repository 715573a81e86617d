package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"notes-upload/internal/wizard"
)

// ErrAborted is returned when the user quits or input ends before a
// successful submit. The wizard is discarded in both cases.
var ErrAborted = errors.New("upload aborted")

// Runner drives a wizard from line-based terminal input. Notifications and
// navigation go through the wizard's own Notifier and Navigator.
type Runner struct {
	Wizard *wizard.Wizard
	In     io.Reader
	Out    io.Writer
	// OpenFile resolves a typed path. Defaults to wizard.OpenFile.
	OpenFile func(path string) (*wizard.File, error)
	NoColor  bool

	lines <-chan inputLine
}

type inputLine struct {
	text string
	err  error
}

type field struct {
	label    string
	required bool
	get      func(*wizard.Details) *string
	valid    func(string) bool
	hint     string
}

var fields = []field{
	{label: "Title", required: true, get: func(d *wizard.Details) *string { return &d.Title }},
	{label: "Subject", required: true, get: func(d *wizard.Details) *string { return &d.Subject }},
	{label: "Faculty", get: func(d *wizard.Details) *string { return &d.Faculty }},
	{
		label:    "Unit (1-5)",
		required: true,
		get:      func(d *wizard.Details) *string { return &d.Unit },
		valid:    wizard.ValidUnit,
		hint:     "Unit must be one of " + strings.Join(wizard.Units, ", "),
	},
	{label: "Semester", get: func(d *wizard.Details) *string { return &d.Sem }},
	{label: "Description", required: true, get: func(d *wizard.Details) *string { return &d.Description }},
}

// clearValue typed at a field prompt empties the field.
const clearValue = "-"

// Run loops over the wizard steps until the draft is submitted, the user
// quits, input ends or ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r.Wizard == nil {
		return errors.New("terminal: no wizard")
	}
	done := make(chan struct{})
	defer close(done)
	r.lines = readLines(r.In, done)
	if r.OpenFile == nil {
		r.OpenFile = wizard.OpenFile
	}

	for !r.Wizard.Done() {
		if err := ctx.Err(); err != nil {
			r.Wizard.Discard()
			return err
		}
		var err error
		switch step := r.Wizard.Step(); step {
		case wizard.StepSelectFile:
			err = r.selectFile(ctx)
		case wizard.StepEnterDetails:
			err = r.enterDetails(ctx)
		case wizard.StepReviewAndSubmit:
			err = r.review(ctx)
		default:
			err = fmt.Errorf("terminal: unexpected step %v", step)
		}
		if err != nil {
			r.Wizard.Discard()
			return err
		}
	}
	return nil
}

func (r *Runner) selectFile(ctx context.Context) error {
	r.header(wizard.StepSelectFile)
	line, err := r.ask(ctx, "Path to a PDF (or quit)")
	if err != nil {
		return err
	}
	switch line {
	case "":
		return nil
	case "quit":
		return ErrAborted
	}
	f, err := r.OpenFile(line)
	if err != nil {
		fmt.Fprintf(r.Out, "%s\n", err)
		return nil
	}
	r.Wizard.SelectFile(f)
	return nil
}

func (r *Runner) enterDetails(ctx context.Context) error {
	r.header(wizard.StepEnterDetails)
	d := r.Wizard.Draft().Details()
	for _, fd := range fields {
		target := fd.get(&d)
		for {
			val, err := r.askDefault(ctx, fd.label, *target, fd.required)
			if err != nil {
				return err
			}
			if fd.valid != nil && !fd.valid(val) {
				fmt.Fprintln(r.Out, fd.hint)
				continue
			}
			*target = val
			break
		}
	}
	if err := r.Wizard.SetDetails(d); err != nil {
		fmt.Fprintf(r.Out, "%s\n", err)
		return nil
	}

	for {
		cmd, err := r.ask(ctx, "next, back or quit [next]")
		if err != nil {
			return err
		}
		switch cmd {
		case "", "next":
			r.Wizard.Next()
			return nil
		case "back":
			r.Wizard.Back()
			return nil
		case "quit":
			return ErrAborted
		}
		fmt.Fprintf(r.Out, "Unknown command %q\n", cmd)
	}
}

func (r *Runner) review(ctx context.Context) error {
	r.header(wizard.StepReviewAndSubmit)
	r.printReview(r.Wizard.Review())

	for {
		cmd, err := r.ask(ctx, "submit, back or quit [submit]")
		if err != nil {
			return err
		}
		switch cmd {
		case "", "submit":
			// Failures are reported by the wizard's notifier; the user
			// may retry or go back.
			if err := r.Wizard.Submit(ctx); errors.Is(err, wizard.ErrDiscarded) {
				return ErrAborted
			}
			return nil
		case "back":
			r.Wizard.Back()
			return nil
		case "quit":
			return ErrAborted
		}
		fmt.Fprintf(r.Out, "Unknown command %q\n", cmd)
	}
}

func (r *Runner) printReview(rv wizard.Review) {
	label := r.paint(color.New(color.Bold))
	row := func(name, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(r.Out, "  %s %s\n", label.Sprintf("%-12s", name+":"), value)
	}
	row("File", rv.FileName)
	if rv.PageCount > 0 {
		row("Pages", fmt.Sprintf("%d", rv.PageCount))
	}
	row("Title", rv.Title)
	row("Subject", rv.Subject)
	row("Faculty", rv.Faculty)
	row("Unit", rv.Unit)
	row("Semester", rv.Sem)
	row("Description", rv.Description)
	if rv.Excerpt != "" {
		row("Excerpt", rv.Excerpt)
	}
}

func (r *Runner) header(step wizard.Step) {
	h := r.paint(color.New(color.FgCyan, color.Bold))
	fmt.Fprintf(r.Out, "\n%s\n", h.Sprintf("Step %d of %d: %s", int(step), len(wizard.Steps), step.Title()))
}

func (r *Runner) paint(c *color.Color) *color.Color {
	if r.NoColor {
		c.DisableColor()
	}
	return c
}

// askDefault prompts with the current value; an empty answer keeps it.
func (r *Runner) askDefault(ctx context.Context, label, current string, required bool) (string, error) {
	prompt := label
	if !required {
		prompt += " (optional)"
	}
	if current != "" {
		prompt += " [" + current + "]"
	}
	val, err := r.ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	switch val {
	case "":
		return current, nil
	case clearValue:
		return "", nil
	}
	return val, nil
}

// ask prints prompt and waits for a line. A cancelled ctx returns at once,
// even while the reader is still blocked.
func (r *Runner) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprintf(r.Out, "%s: ", prompt)
	select {
	case <-ctx.Done():
		fmt.Fprintln(r.Out)
		return "", ctx.Err()
	case line, ok := <-r.lines:
		if !ok {
			fmt.Fprintln(r.Out)
			return "", ErrAborted
		}
		if line.err != nil {
			fmt.Fprintln(r.Out)
			return "", fmt.Errorf("read input: %w", line.err)
		}
		return strings.TrimSpace(line.text), nil
	}
}

// readLines scans in on its own goroutine until EOF or done is closed.
func readLines(in io.Reader, done <-chan struct{}) <-chan inputLine {
	ch := make(chan inputLine)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- inputLine{text: sc.Text()}:
			case <-done:
				return
			}
		}
		if err := sc.Err(); err != nil {
			select {
			case ch <- inputLine{err: err}:
			case <-done:
			}
		}
	}()
	return ch
}
