package main

import (
	"fmt"
	"strings"

	"github.com/futurecareers/contestide/internal/i18n"
	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save the API token issued by the platform",
		Long: `Save the API token issued by the platform.

The token is kept in the local store and sent as a bearer token with every
request. CONTESTIDE_TOKEN in the environment takes precedence over it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token = strings.TrimSpace(token)
			if token == "" {
				t, err := a.prompter.Token()
				if err != nil {
					return err
				}
				token = t
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.SetToken(token); err != nil {
				return fmt.Errorf("saving token: %w", err)
			}
			fmt.Fprintln(a.out, "Logged in.") //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "API token (prompted when omitted)")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved API token and its session",
		Long: `Forget the saved API token and clear its session: contest editor buffers
and the active contest are dropped. Solutions already sent to the server are
restored on the next login.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			saved, _ := st.Token()
			for _, tok := range []string{saved, a.token(st)} {
				if tok == "" {
					continue
				}
				if err := st.Session(tok).Clear(); err != nil {
					return err
				}
			}
			if err := st.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.") //nolint:errcheck
			return nil
		},
	}
}

func newContestCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contest",
		Short: "Open and inspect contests",
	}
	cmd.AddCommand(newContestOpenCommand(a))
	cmd.AddCommand(newContestSurveyCommand(a))
	return cmd
}

func newContestOpenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <contest-id>",
		Short: "Load a contest and make it the active one",
		Long: `Load a contest and make it the active one.

The task list, the locked language, the solved tasks and the first task are
loaded. Later commands work on this contest until another one is opened.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, done, err := a.openWorkspace("contest open")
			if err != nil {
				return err
			}
			defer done()

			snap, err := ws.ctrl.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := ws.session.SetActiveContest(args[0]); err != nil {
				a.logger.Warn("could not remember active contest", "error", err)
			}
			a.renderer().Status(snap)
			return nil
		},
	}
}

func newContestSurveyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "survey",
		Short: "List the survey questions of the active contest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, done, err := a.openWorkspace("contest survey")
			if err != nil {
				return err
			}
			defer done()

			if _, err := a.openContest(cmd.Context(), ws); err != nil {
				return err
			}
			items, err := ws.ctrl.Survey(cmd.Context())
			if err != nil {
				return err
			}
			r := a.renderer()
			for _, item := range items {
				fmt.Fprintf(a.out, "%s\n%s\n", item.Title(), r.Markdown(item.Body())) //nolint:errcheck
			}
			return nil
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show contest progress",
		Long: `Show contest progress: tasks, solved marks, hint scores and the
finish state. --refresh asks the server for the completion status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, done, err := a.openWorkspace("status")
			if err != nil {
				return err
			}
			defer done()

			if _, err := a.openContest(cmd.Context(), ws); err != nil {
				return err
			}
			if refresh {
				if _, err := ws.ctrl.RefreshCompletion(cmd.Context()); err != nil {
					a.logger.Warn("completion refresh failed", "error", err)
					fmt.Fprintln(a.errOut, i18n.Describe(a.printer, err)) //nolint:errcheck
				}
			}
			a.renderer().Status(ws.ctrl.Snapshot())
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Fetch the completion status from the server")
	return cmd
}
