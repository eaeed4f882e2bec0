package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/futurecareers/contestide/internal/contest"
	"github.com/futurecareers/contestide/internal/models"
	"github.com/futurecareers/contestide/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// openTask opens the active contest and restores the stored draft of
// taskID. Task entry prefers the graded server copy, but a draft saved by
// an earlier command is newer than anything the server holds.
func (a *app) openTask(ctx context.Context, ws *workspace, taskID string) (contest.Snapshot, error) {
	contestID, err := a.activeContest(ws)
	if err != nil {
		return contest.Snapshot{}, err
	}
	draft, hasDraft := ws.session.LoadLive(contestID, taskID)

	snap, err := ws.ctrl.Open(ctx, contestID)
	if err != nil {
		return snap, err
	}
	if hasDraft {
		if err := ws.ctrl.Edit(taskID, draft); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

func newTaskCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Browse the tasks of the active contest",
	}
	cmd.AddCommand(newTaskListCommand(a))
	cmd.AddCommand(newTaskShowCommand(a))
	return cmd
}

func newTaskListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks in presentation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, done, err := a.openWorkspace("task list")
			if err != nil {
				return err
			}
			defer done()

			snap, err := a.openContest(cmd.Context(), ws)
			if err != nil {
				return err
			}
			for i, t := range snap.Tasks {
				mark := " "
				if slices.Contains(snap.SolvedTaskIDs, t.ID) {
					mark = "✓"
				}
				fmt.Fprintf(a.out, "%s %d. [%s] %s (%s)\n", mark, i+1, t.ID, t.Title, t.Difficulty) //nolint:errcheck
			}
			return nil
		},
	}
}

func newTaskShowCommand(a *app) *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "show [task-id]",
		Short: "Enter a task and show its description",
		Long: `Enter a task and show its description, open tests, hint score and
any pending clarification question. Without an id the first task is shown;
--pick chooses one interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, done, err := a.openWorkspace("task show")
			if err != nil {
				return err
			}
			defer done()

			snap, err := a.openContest(cmd.Context(), ws)
			if err != nil {
				return err
			}
			taskID := snap.ActiveTaskID
			switch {
			case len(args) == 1:
				taskID = args[0]
			case pick:
				if taskID, err = a.prompter.ChooseTask(snap.Tasks, snap.SolvedTaskIDs, snap.ActiveTaskID); err != nil {
					return err
				}
			}

			view, err := ws.ctrl.SelectTask(cmd.Context(), taskID)
			if err != nil {
				return err
			}
			a.renderer().Task(view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "Choose the task interactively")
	return cmd
}

func newEditCommand(a *app) *cobra.Command {
	var (
		file      string
		printText bool
	)

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Replace or print the editor text of a task",
		Long: `Replace or print the editor text of a task.

The text is read from --file, or from stdin when --file is "-" or omitted.
It is kept in the local store so later run and submit commands use it.
--print writes the current editor text to stdout instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			ws, done, err := a.openWorkspace("edit")
			if err != nil {
				return err
			}
			defer done()

			if _, err := a.openTask(cmd.Context(), ws, taskID); err != nil {
				return err
			}
			if printText {
				src, err := ws.ctrl.Source(cmd.Context(), taskID)
				if err != nil {
					return err
				}
				_, err = io.WriteString(a.out, src)
				return err
			}

			text, err := a.readSource(file)
			if err != nil {
				return err
			}
			return ws.ctrl.Edit(taskID, text)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the solution from this file (\"-\" for stdin)")
	cmd.Flags().BoolVar(&printText, "print", false, "Print the editor text instead of replacing it")
	return cmd
}

func (a *app) readSource(file string) (string, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("reading solution: %w", err)
	}
	return string(data), nil
}

func newRunCommand(a *app, submit bool) *cobra.Command {
	var (
		file  string
		quiet bool
	)

	mode := models.ModeRun
	short := "Run a solution against the open tests"
	long := `Run the editor text of a task against its open tests.

The result panel shows per-test output. A run never marks a task solved.`
	if submit {
		mode = models.ModeSubmit
		short = "Submit a solution for grading"
		long = `Submit the editor text of a task for grading against the open and
hidden tests.

An accepted submission marks the task solved and may open a clarification
question. The exit code is 1 when the submission is not accepted.`
	}

	cmd := &cobra.Command{
		Use:   string(mode) + " <task-id>",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			ws, done, err := a.openWorkspace(string(mode))
			if err != nil {
				return err
			}
			defer done()

			if _, err := a.openTask(cmd.Context(), ws, taskID); err != nil {
				return err
			}
			if file != "" {
				text, err := a.readSource(file)
				if err != nil {
					return err
				}
				if err := ws.ctrl.Edit(taskID, text); err != nil {
					return err
				}
			}

			out, err := a.await(cmd.Context(), ws.ctrl, taskID, mode, quiet)
			if !out.State.Terminal() {
				return err
			}

			r := a.renderer()
			r.Outcome(out)
			if out.State != contest.LaneCompleted {
				return out.Err
			}
			if !out.Accepted() {
				verdict := ""
				if res := out.Result(); res != nil {
					verdict = res.Verdict
				}
				return &RejectedError{Verdict: verdict}
			}
			if mode == models.ModeSubmit {
				view, err := ws.ctrl.Completion()
				if err == nil {
					r.Completion(view)
				}
				if th, err := ws.ctrl.Communication(taskID); err == nil && th.Answerable() {
					r.Thread(th)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Use the solution in this file (\"-\" for stdin)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show the progress spinner")
	return cmd
}

// await starts an execution and blocks until it settles. On a terminal a
// spinner follows the poll attempts.
func (a *app) await(ctx context.Context, ctrl *contest.Controller, taskID string, mode models.RunMode, quiet bool) (contest.Outcome, error) {
	if !quiet && isTerminal(a.errOut) {
		sp := spinner.Start(a.errOut, fmt.Sprintf("%s %s", mode, taskID))
		defer sp.Stop()
		unsubscribe := ctrl.Subscribe(func(u contest.Update) {
			if u.Kind != contest.UpdateExecution || u.Execution == nil || u.TaskID != taskID || u.Execution.Mode != mode {
				return
			}
			sp.Set(fmt.Sprintf("%s %s: %s (%d)", mode, taskID, u.Execution.State, u.Execution.Attempt))
		})
		defer unsubscribe()
	}

	start := ctrl.Run
	if mode == models.ModeSubmit {
		start = ctrl.Submit
	}
	h, err := start(ctx, taskID)
	if err != nil {
		return contest.Outcome{}, err
	}
	return ctrl.Wait(ctx, h)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
