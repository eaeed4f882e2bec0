package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/futurecareers/contestide/internal/devbackend"
	"github.com/futurecareers/contestide/internal/webserver"
	"github.com/spf13/cobra"
)

func newDevBackendCommand(a *app) *cobra.Command {
	var (
		addr        string
		fixturePath string
		opts        devbackend.Options
		corsOrigins []string
	)

	cmd := &cobra.Command{
		Use:   "devbackend",
		Short: "Run an in-memory contest backend for local development",
		Long: `Run an in-memory contest backend for local development.

The backend serves the platform API under /api from a YAML fixture (a small
built-in contest by default). Log in with one of the fixture tokens and point
api.base_url at http://<addr>/api.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				fixture *devbackend.Fixture
				err     error
			)
			if fixturePath != "" {
				fixture, err = devbackend.LoadFixture(fixturePath)
			} else {
				fixture, err = devbackend.DefaultFixture()
			}
			if err != nil {
				return fmt.Errorf("loading fixture: %w", err)
			}

			opts.Logger = a.logger
			backend := devbackend.New(fixture, opts)

			srv, err := webserver.New(webserver.Config{
				Addr:           addr,
				Handler:        backend.Handler(),
				AllowedOrigins: corsOrigins,
				Logger:         a.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(a.errOut, "Dev backend on http://%s%s\n", addr, devbackend.APIPrefix) //nolint:errcheck
			if len(fixture.Tokens) > 0 {
				fmt.Fprintf(a.errOut, "Accepted tokens: %s\n", strings.Join(fixture.Tokens, ", ")) //nolint:errcheck
			}
			return srv.ListenAndServe(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", webserver.DefaultAddr, "Listen address")
	f.StringVar(&fixturePath, "fixture", "", "YAML fixture with contests and tasks")
	f.IntVar(&opts.RunningPolls, "running-polls", 1, "Execution fetches that report running before the result")
	f.IntVar(&opts.ThreadLag, "thread-lag", 0, "Communication fetches that answer null after an accepted submit")
	f.BoolVar(&opts.NeverComplete, "never-complete", false, "Keep every execution running")
	f.BoolVar(&opts.FailTestsForSubmit, "fail-tests-for-submit", false, "Answer 500 to tests-for-submit")
	f.StringSliceVar(&corsOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable)")
	return cmd
}
