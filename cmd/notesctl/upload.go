package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"notes-upload/internal/extract"
	"notes-upload/internal/notesapi"
	"notes-upload/internal/notify"
	"notes-upload/internal/session"
	"notes-upload/internal/terminal"
	"notes-upload/internal/wizard"
)

type uploadOptions struct {
	details    wizard.Details
	backendURL string
	webURL     string
	noInput    bool
}

func newUploadCmd(c *cli) *cobra.Command {
	var opts uploadOptions
	cmd := &cobra.Command{
		Use:   "upload [file.pdf]",
		Short: "Run the three-step upload wizard",
		Long: "Select a PDF, fill in the note details, review and submit.\n" +
			"Flags pre-fill the form; with --no-input the draft is submitted as is.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return runUpload(cmd, c, opts, path)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.details.Title, "title", "", "note title")
	f.StringVar(&opts.details.Subject, "subject", "", "subject")
	f.StringVar(&opts.details.Faculty, "faculty", "", "faculty (optional)")
	f.StringVar(&opts.details.Unit, "unit", "", "unit, one of "+strings.Join(wizard.Units, ", "))
	f.StringVar(&opts.details.Sem, "sem", "", "semester (optional)")
	f.StringVar(&opts.details.Description, "description", "", "description")
	f.StringVar(&opts.backendURL, "backend", "", "notes backend base URL (default $BACKEND_URL)")
	f.StringVar(&opts.webURL, "web-url", "", "front end base URL printed after a successful upload")
	f.BoolVar(&opts.noInput, "no-input", false, "submit without prompting")
	return cmd
}

func runUpload(cmd *cobra.Command, c *cli, opts uploadOptions, path string) error {
	backend := c.cfg.BackendURL
	if opts.backendURL != "" {
		backend = strings.TrimRight(opts.backendURL, "/")
	}
	client, err := notesapi.NewClient(backend, c.cfg.NotesHTTPTimeout)
	if err != nil {
		return err
	}

	term := &notify.Terminal{Out: cmd.ErrOrStderr(), BaseURL: opts.webURL, NoColor: c.noColor}
	w := wizard.New(wizard.Deps{
		Uploader:      client,
		Session:       session.NewFileStore(c.sessionFile),
		Notifier:      term,
		Navigator:     term,
		Inspector:     extract.Inspector{},
		NotesListPath: c.cfg.NotesListPath,
	})

	if err := w.SetDetails(opts.details); err != nil {
		return err
	}
	if path != "" {
		file, err := wizard.OpenFile(path)
		if err != nil {
			return err
		}
		w.SelectFile(file)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if opts.noInput {
		return submitNow(ctx, w)
	}
	r := &terminal.Runner{
		Wizard:  w,
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
		NoColor: c.noColor,
	}
	return r.Run(ctx)
}

// submitNow walks a pre-filled draft to review and submits it once.
func submitNow(ctx context.Context, w *wizard.Wizard) error {
	if w.Step() == wizard.StepEnterDetails {
		w.Next()
	}
	if err := w.Submit(ctx); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}
