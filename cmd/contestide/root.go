package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/futurecareers/contestide/internal/apiclient"
	"github.com/futurecareers/contestide/internal/config"
	"github.com/futurecareers/contestide/internal/contest"
	"github.com/futurecareers/contestide/internal/i18n"
	"github.com/futurecareers/contestide/internal/logging"
	"github.com/futurecareers/contestide/internal/prompt"
	"github.com/futurecareers/contestide/internal/render"
	"github.com/futurecareers/contestide/internal/session"
	"github.com/futurecareers/contestide/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/text/message"
)

var version = "dev"

// app carries what every command needs. Fields left nil are filled in by
// the root command before a subcommand runs.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	workDir    string
	httpClient *http.Client
	prompter   prompt.Prompter

	debug     bool
	noColor   bool
	apiURL    string
	locale    string
	contestID string

	cfg     *config.Config
	logger  *slog.Logger
	printer *message.Printer
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contestide",
		Short: "contestide - coding contest client",
		Long: `contestide is the command-line client for timed coding contests.

Open a contest, read tasks, edit and run solutions against the open tests,
submit them for full grading, spend hints and answer clarification
questions. Editor buffers survive restarts; the contest language is locked
by the requisition.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolVar(&a.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	flags.StringVar(&a.apiURL, "api-url", "", "Backend API base URL (overrides config)")
	flags.StringVar(&a.locale, "locale", "", "Message language: en or ru (overrides config)")
	flags.StringVar(&a.contestID, "contest", "", "Contest id (defaults to the last opened contest)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.setup()
	}

	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	cmd.AddCommand(newLoginCommand(a))
	cmd.AddCommand(newLogoutCommand(a))
	cmd.AddCommand(newContestCommand(a))
	cmd.AddCommand(newTaskCommand(a))
	cmd.AddCommand(newEditCommand(a))
	cmd.AddCommand(newRunCommand(a, false))
	cmd.AddCommand(newRunCommand(a, true))
	cmd.AddCommand(newHintCommand(a))
	cmd.AddCommand(newAnswerCommand(a))
	cmd.AddCommand(newStatusCommand(a))
	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newSessionCommand(a))
	cmd.AddCommand(newDevBackendCommand(a))
	cmd.AddCommand(newConfigCommand(a))

	return cmd
}

// setup loads configuration and installs the logger.
func (a *app) setup() error {
	dir := a.workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}
	if a.locale != "" {
		cfg.Locale = a.locale
	}
	a.cfg = cfg
	a.logger = logging.New(a.errOut, a.debug)
	slog.SetDefault(a.logger)
	a.printer = i18n.Printer(cfg.Locale)
	if a.prompter == nil {
		a.prompter = prompt.New(a.in, a.errOut)
	}
	if cfg.Path != "" {
		a.logger.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}

func (a *app) renderer() *render.Renderer {
	return render.New(a.out, a.printer, !a.noColor && render.ColorFor(a.out))
}

func (a *app) openStore() (*store.Store, error) {
	dir, err := a.cfg.StoreDir()
	if err != nil {
		return nil, err
	}
	return store.New(dir)
}

// token prefers the environment over the saved login.
func (a *app) token(st *store.Store) string {
	if a.cfg.Token != "" {
		return a.cfg.Token
	}
	tok, _ := st.Token()
	return tok
}

func (a *app) client(token string) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL:    a.cfg.API.BaseURL,
		Token:      token,
		Timeout:    a.cfg.API.Timeout,
		HTTPClient: a.httpClient,
		Logger:     a.logger,
	})
}

// workspace is one command's view of the contest: controller, store and
// session log.
type workspace struct {
	ctrl    *contest.Controller
	store   *store.Store
	session *store.Session
	events  session.Logger
	started time.Time
}

// openWorkspace builds a controller for the logged-in candidate. The
// returned close function ends the session log and releases the store.
func (a *app) openWorkspace(command string) (*workspace, func(), error) {
	st, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	token := a.token(st)
	if token == "" {
		st.Close() //nolint:errcheck
		return nil, nil, fmt.Errorf("%w: no saved token", apiclient.ErrUnauthorized)
	}

	ws := &workspace{store: st, session: st.Session(token), events: session.NopLogger{}, started: time.Now()}
	if a.cfg.SessionLogEnabled() {
		if dir, err := a.cfg.SessionLogDir(); err == nil {
			if l, err := session.NewJSONLogger(session.DefaultLogPath(dir)); err == nil {
				ws.events = l
				a.logger.Debug("session log", "path", l.Path())
			} else {
				a.logger.Warn("session log disabled", "error", err)
			}
		}
	}
	session.Record(ws.events, session.EventSessionStart, session.SessionStartData(command, a.cfg.API.BaseURL, ""))

	ws.ctrl = contest.NewController(a.client(token),
		contest.WithLogger(a.logger),
		contest.WithStore(ws.session),
		contest.WithEventLog(ws.events),
		contest.WithTiming(a.cfg.Timing()),
		contest.WithDefaultLanguage(a.cfg.Language()),
	)

	closeFn := func() {
		solved, total, executions := ws.ctrl.Stats()
		ws.ctrl.Close() //nolint:errcheck
		session.Record(ws.events, session.EventSessionEnd,
			session.SessionCompleteData(solved, total, executions, time.Since(ws.started).Milliseconds()))
		ws.events.Close() //nolint:errcheck
		st.Close()        //nolint:errcheck
	}
	return ws, closeFn, nil
}

// activeContest resolves the contest id from --contest or the last opened
// contest.
func (a *app) activeContest(ws *workspace) (string, error) {
	if a.contestID != "" {
		return a.contestID, nil
	}
	if id, ok := ws.session.ActiveContest(); ok && id != "" {
		return id, nil
	}
	return "", contest.ErrNoContest
}

// openContest opens the active contest in ws.
func (a *app) openContest(ctx context.Context, ws *workspace) (contest.Snapshot, error) {
	id, err := a.activeContest(ws)
	if err != nil {
		return contest.Snapshot{}, err
	}
	return ws.ctrl.Open(ctx, id)
}

// reportError prints err for the candidate. Rejections were already shown
// by the result panel.
func (a *app) reportError(err error) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return
	}
	p := a.printer
	if p == nil {
		p = i18n.Printer("")
	}
	fmt.Fprintln(a.errOut, "Error:", i18n.Describe(p, err)) //nolint:errcheck
	if a.debug {
		fmt.Fprintln(a.errOut, "  ", err) //nolint:errcheck
	}
}

func execute() error {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	rootCmd := newRootCommand(a)
	err := rootCmd.Execute()
	if err != nil {
		a.reportError(err)
	}
	return err
}
