// Package prompt collects candidate input with huh forms. Non-terminal
// input falls back to huh's accessible line mode.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/futurecareers/contestide/internal/contest"
	"github.com/futurecareers/contestide/internal/models"
	"golang.org/x/term"
)

// ErrNothingToChoose is returned when a choice has no options left.
var ErrNothingToChoose = errors.New("nothing to choose from")

// Prompter asks the candidate for input.
type Prompter interface {
	Answer(question string) (string, error)
	ConfirmHint(tier models.HintTier, view contest.HintView) (bool, error)
	ChooseTier(view contest.HintView) (models.HintTier, error)
	ChooseTask(tasks []models.Task, solved []string, active string) (string, error)
	Token() (string, error)
}

// Form is the huh-backed Prompter.
type Form struct {
	in  io.Reader
	out io.Writer
}

// New creates a Form reading from in and drawing on out.
func New(in io.Reader, out io.Writer) *Form {
	return &Form{in: in, out: out}
}

func (f *Form) run(fields ...huh.Field) error {
	form := huh.NewForm(huh.NewGroup(fields...)).
		WithInput(f.in).
		WithOutput(f.out)

	if file, ok := f.in.(*os.File); !ok || !term.IsTerminal(int(file.Fd())) {
		form = form.WithAccessible(true)
	}
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("prompt: %w", err)
		}
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// Answer asks for the answer to a clarification question.
func (f *Form) Answer(question string) (string, error) {
	var answer string
	err := f.run(huh.NewText().
		Title("Clarification question").
		Description(question).
		CharLimit(4000).
		Value(&answer).
		Validate(ValidateAnswer))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// ConfirmHint asks before charging a hint tier.
func (f *Form) ConfirmHint(tier models.HintTier, view contest.HintView) (bool, error) {
	ok := false
	err := f.run(huh.NewConfirm().
		Title(fmt.Sprintf("Reveal the %s hint?", tier)).
		Description(HintCost(tier, view)).
		Affirmative("Reveal").
		Negative("Cancel").
		Value(&ok))
	return ok, err
}

// ChooseTier lets the candidate pick one of the tiers not yet consumed.
func (f *Form) ChooseTier(view contest.HintView) (models.HintTier, error) {
	opts := TierOptions(view)
	if len(opts) == 0 {
		return "", ErrNothingToChoose
	}
	var tier models.HintTier
	err := f.run(huh.NewSelect[models.HintTier]().
		Title("Hint level").
		Options(opts...).
		Value(&tier))
	return tier, err
}

// ChooseTask lets the candidate pick a task, starting at the active one.
func (f *Form) ChooseTask(tasks []models.Task, solved []string, active string) (string, error) {
	opts := TaskOptions(tasks, solved)
	if len(opts) == 0 {
		return "", ErrNothingToChoose
	}
	id := active
	err := f.run(huh.NewSelect[string]().
		Title("Task").
		Options(opts...).
		Value(&id))
	return id, err
}

// Token asks for an API token without echoing it.
func (f *Form) Token() (string, error) {
	var token string
	err := f.run(huh.NewInput().
		Title("API token").
		EchoMode(huh.EchoModePassword).
		Value(&token).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("token is required")
			}
			return nil
		}))
	return strings.TrimSpace(token), err
}

// ValidateAnswer rejects blank answers.
func ValidateAnswer(s string) error {
	if strings.TrimSpace(s) == "" {
		return contest.ErrEmptyAnswer
	}
	return nil
}

// HintCost describes what revealing tier would cost.
func HintCost(tier models.HintTier, view contest.HintView) string {
	after := max(view.MaxScore-tier.Weight(), 0)
	return fmt.Sprintf("Costs %d points. Max score %d → %d.", tier.Weight(), max(view.MaxScore, 0), after)
}

// TierOptions lists the tiers still available for a task, cheapest first.
// An empty Available list means the server did not say, so every
// unconsumed tier is offered.
func TierOptions(view contest.HintView) []huh.Option[models.HintTier] {
	var opts []huh.Option[models.HintTier]
	for _, tier := range models.HintTiers {
		if slices.Contains(view.Consumed, tier) {
			continue
		}
		if len(view.Available) > 0 && !slices.Contains(view.Available, tier) {
			continue
		}
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (-%d)", tier, tier.Weight()), tier))
	}
	return opts
}

// TaskOptions lists tasks in catalog order, marking solved ones.
func TaskOptions(tasks []models.Task, solved []string) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(tasks))
	for i, t := range tasks {
		label := fmt.Sprintf("%d. %s", i+1, t.Title)
		if slices.Contains(solved, t.ID) {
			label += " ✓"
		}
		opts = append(opts, huh.NewOption(label, t.ID))
	}
	return opts
}
