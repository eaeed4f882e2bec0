package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/futurecareers/contestide/internal/session"
	"github.com/spf13/cobra"
)

func newSessionCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "View recorded session logs",
		Long: `View recorded session event logs.

Session logs are NDJSON files written by every command while session_log is
enabled. They record contest loads, task entries, executions, hints, solved
tasks and clarification answers.`,
	}

	cmd.AddCommand(newSessionListCommand(a))
	cmd.AddCommand(newSessionViewCommand(a))

	return cmd
}

func newSessionListCommand(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded session logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				d, err := a.cfg.SessionLogDir()
				if err != nil {
					return err
				}
				dir = d
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			files, err := session.ListSessions(absDir)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("listing sessions: %w", err)
			}

			if len(files) == 0 {
				fmt.Fprintln(a.out, "No session logs found.") //nolint:errcheck
				return nil
			}

			fmt.Fprintf(a.out, "%-40s %-8s %s\n", "File", "Events", "Modified")                      //nolint:errcheck
			fmt.Fprintln(a.out, "─────────────────────────────────────────────────────────────────") //nolint:errcheck
			for _, f := range files {
				fmt.Fprintf(a.out, "%-40s %-8d %s\n", f.Name, f.NumEvents, f.ModTime.Format("2006-01-02 15:04:05")) //nolint:errcheck
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to search for session logs (defaults to the configured one)")

	return cmd
}

func newSessionViewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view <session-file>",
		Short: "View a session timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := session.ReadEvents(args[0])
			if err != nil {
				return fmt.Errorf("reading session: %w", err)
			}

			session.RenderTimeline(a.out, events)
			return nil
		},
	}
}
