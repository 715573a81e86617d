package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"notes-upload/internal/shared/config"
	"notes-upload/internal/shared/telemetry"
)

type cli struct {
	cfg         config.Config
	sessionFile string
	verbose     bool
	noColor     bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "notesctl",
		Short:         "Upload PDF notes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			if c.sessionFile == "" {
				c.sessionFile = cfg.SessionFile
			}
			// Structured logs stay off the prompt unless asked for.
			if c.verbose {
				telemetry.SetOutput(cmd.ErrOrStderr())
			} else {
				telemetry.SetOutput(io.Discard)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.sessionFile, "session-file", "", "session file (default $SESSION_FILE or ~/.notes-upload/session.json)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "write JSON logs to stderr")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newUploadCmd(c), newSessionCmd(c))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
