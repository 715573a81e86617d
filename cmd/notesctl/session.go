package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"notes-upload/internal/session"
)

func newSessionCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the stored sign-in used by upload",
	}
	cmd.AddCommand(newSessionSetCmd(c), newSessionShowCmd(c), newSessionClearCmd(c))
	return cmd
}

func newSessionSetCmd(c *cli) *cobra.Command {
	var token, userID, name string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a bearer token and the signed-in user",
		Long: "Store a token obtained from the web app. The user id is read from the\n" +
			"token's claims unless --user-id is given.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("--token is required")
			}
			id := strings.TrimSpace(userID)
			if id == "" {
				var err error
				if id, err = session.UserIDFromToken(token); err != nil {
					return fmt.Errorf("%w (pass --user-id)", err)
				}
			}
			var extra map[string]any
			if name != "" {
				extra = map[string]any{"name": name}
			}

			store := session.NewFileStore(c.sessionFile)
			if err := store.SetUser(id, extra); err != nil {
				return err
			}
			if err := store.Set(session.KeyToken, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", id, store.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().StringVar(&userID, "user-id", "", "user id, when the token carries none")
	cmd.Flags().StringVar(&name, "name", "", "display name to store with the user")
	return cmd
}

func newSessionShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored user and a masked token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := session.NewFileStore(c.sessionFile)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:  %s\n", store.Path())

			id, err := store.CurrentUserID()
			if err != nil {
				fmt.Fprintf(out, "user:  (%s)\n", err)
			} else {
				fmt.Fprintf(out, "user:  %s\n", id)
			}
			tok, err := store.AuthToken()
			if err != nil {
				fmt.Fprintf(out, "token: (%s)\n", err)
			} else {
				fmt.Fprintf(out, "token: %s\n", maskToken(tok))
			}
			return nil
		},
	}
}

func newSessionClearCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := session.NewFileStore(c.sessionFile).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared")
			return nil
		},
	}
}

func maskToken(tok string) string {
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:6] + "..." + tok[len(tok)-2:]
}
