package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/futurecareers/contestide/internal/contest"
	"github.com/futurecareers/contestide/internal/i18n"
	"github.com/futurecareers/contestide/internal/models"
	"github.com/spf13/cobra"
)

func newHintCommand(a *app) *cobra.Command {
	var (
		tier string
		yes  bool
		list bool
	)

	cmd := &cobra.Command{
		Use:   "hint <task-id>",
		Short: "Reveal a hint for a task",
		Long: `Reveal a hint for a task.

Hints come in three tiers that lower the maximum score of the task:
surface (-5), medium (-15) and deep (-30). A tier is charged once; asking
for it again shows the same text at no cost. Without --tier the tier is
chosen interactively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			ws, done, err := a.openWorkspace("hint")
			if err != nil {
				return err
			}
			defer done()

			if _, err := a.openContest(cmd.Context(), ws); err != nil {
				return err
			}
			view, err := ws.ctrl.SelectTask(cmd.Context(), taskID)
			if err != nil {
				return err
			}

			r := a.renderer()
			if list {
				r.Hints(view.Hints)
				return nil
			}

			t := models.HintTier(tier)
			if t == "" {
				if t, err = a.prompter.ChooseTier(view.Hints); err != nil {
					return err
				}
			}
			if !t.Valid() {
				return fmt.Errorf("%w: %q", contest.ErrInvalidHintTier, t)
			}
			if !yes && !slices.Contains(view.Hints.Consumed, t) {
				ok, err := a.prompter.ConfirmHint(t, view.Hints)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(a.out, a.printer.Sprintf(i18n.MsgCanceled)) //nolint:errcheck
					return nil
				}
			}

			res, err := ws.ctrl.RequestHint(cmd.Context(), taskID, t)
			if err != nil && !errors.Is(err, contest.ErrHintAlreadyUsed) {
				return err
			}
			r.Hint(res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tier, "tier", "t", "", "Hint tier: surface, medium or deep")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&list, "list", false, "Show the hint state without revealing anything")
	return cmd
}

func newAnswerCommand(a *app) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:   "answer <task-id>",
		Short: "Answer the clarification question of a solved task",
		Long: `Answer the clarification question of a solved task.

The question appears after an accepted submission. It can be answered once;
the answer is then evaluated by the platform.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			ws, done, err := a.openWorkspace("answer")
			if err != nil {
				return err
			}
			defer done()

			if _, err := a.openContest(cmd.Context(), ws); err != nil {
				return err
			}
			th, err := ws.ctrl.RefreshCommunication(cmd.Context(), taskID)
			if err != nil {
				return err
			}
			if th == nil {
				return contest.ErrNoThread
			}

			r := a.renderer()
			if !th.Answerable() {
				r.Thread(th)
				return contest.ErrThreadClosed
			}

			if text == "" {
				if text, err = a.prompter.Answer(th.Question); err != nil {
					return err
				}
			}
			th, err = ws.ctrl.Answer(cmd.Context(), taskID, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, a.printer.Sprintf(i18n.MsgAnswerSent)) //nolint:errcheck
			r.Thread(th)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Answer text (prompted when omitted)")
	return cmd
}
