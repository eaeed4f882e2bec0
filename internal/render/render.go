// Package render formats contest state for the terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/futurecareers/contestide/internal/contest"
	"github.com/futurecareers/contestide/internal/i18n"
	"github.com/futurecareers/contestide/internal/models"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
	"golang.org/x/text/message"
)

type styles struct {
	ok, bad, warn, heading, bold, dim, code *color.Color
}

func newStyles(enabled bool) styles {
	st := styles{
		ok:      color.New(color.FgGreen, color.Bold),
		bad:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow),
		heading: color.New(color.FgCyan, color.Bold),
		bold:    color.New(color.Bold),
		dim:     color.New(color.Faint),
		code:    color.New(color.FgMagenta),
	}
	for _, c := range []*color.Color{st.ok, st.bad, st.warn, st.heading, st.bold, st.dim, st.code} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return st
}

// Renderer writes contest views to w in the candidate's locale.
type Renderer struct {
	w  io.Writer
	p  *message.Printer
	st styles
}

// New creates a Renderer. Color is used only when useColor is set.
func New(w io.Writer, p *message.Printer, useColor bool) *Renderer {
	if p == nil {
		p = i18n.Printer("")
	}
	return &Renderer{w: w, p: p, st: newStyles(useColor)}
}

// ColorFor reports whether w is a terminal that should get color.
func ColorFor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == ""
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...) //nolint:errcheck
}

// DisplayScore is the maximum attainable score shown for a task. The hint
// penalty never pushes it below zero.
func DisplayScore(v contest.HintView) int {
	return max(v.MaxScore, 0)
}

// Task prints a task header, its description and open tests.
func (r *Renderer) Task(view contest.TaskView) {
	mark := ""
	if view.Solved {
		mark = " " + r.st.ok.Sprint("✓")
	}
	r.printf("%s %s%s\n", r.st.dim.Sprintf("[%d/%d]", view.Position, view.Total), r.st.heading.Sprint(view.Task.Title), mark)
	meta := []string{string(view.Task.Difficulty)}
	if view.Task.Topic != "" {
		meta = append(meta, view.Task.Topic)
	}
	meta = append(meta, string(view.Editor.Language))
	r.printf("%s\n\n", r.st.dim.Sprint(strings.Join(meta, " · ")))

	r.printf("%s\n", r.Markdown(view.Task.Description))

	for i, tc := range view.Task.OpenTests {
		r.printf("%s\n", r.st.bold.Sprintf("Example %d", i+1))
		r.printf("%s\n%s", r.st.dim.Sprint("input:"), indentBlock(tc.Input))
		r.printf("%s\n%s\n", r.st.dim.Sprint("output:"), indentBlock(tc.Output))
	}

	r.printf("%s\n", r.p.Sprintf(i18n.MsgMaxScore, DisplayScore(view.Hints), view.Hints.Penalty))
	for _, w := range view.Warnings {
		r.printf("%s %s\n", r.st.warn.Sprint("!"), w)
	}
	if view.Thread.Answerable() {
		r.Thread(view.Thread)
	}
}

// Outcome prints the result panel of a settled execution.
func (r *Renderer) Outcome(out contest.Outcome) {
	res := out.Result()
	switch {
	case out.State == contest.LaneTimedOut, out.State == contest.LaneFailed:
		msg := string(out.State)
		if out.Err != nil {
			msg = i18n.Describe(r.p, out.Err)
		}
		r.printf("%s %s\n", r.st.bad.Sprint("✗"), msg)
		return
	case res == nil:
		r.printf("%s %s\n", r.st.warn.Sprint("?"), out.State)
		return
	case res.Accepted():
		r.printf("%s %s", r.st.ok.Sprint("✓"), r.st.ok.Sprint(r.p.Sprintf(i18n.MsgAccepted)))
	default:
		verdict := res.Verdict
		if verdict == "" {
			verdict = r.p.Sprintf(i18n.MsgRejected)
		}
		r.printf("%s %s", r.st.bad.Sprint("✗"), r.st.bad.Sprint(verdict))
	}
	r.printf("  %s\n", r.st.dim.Sprintf("%s · %d/%d · %dms", out.Mode, res.Passed(), len(res.TestResults), res.DurationMs))

	if len(res.TestResults) > 0 {
		r.testTable(out.Mode, res.TestResults)
	}
	if out.Mode == models.ModeRun && strings.TrimSpace(res.Stdout) != "" && len(res.TestResults) == 0 {
		r.printf("%s\n%s", r.st.dim.Sprint("stdout:"), indentBlock(res.Stdout))
	}
	if stderr := res.VisibleStderr(); stderr != "" {
		r.printf("%s\n%s", r.st.bad.Sprint("stderr:"), indentBlock(stderr))
	}
}

// testTable lists per-test results. Inputs and outputs are shown for run
// only; submit results include hidden tests.
func (r *Renderer) testTable(mode models.RunMode, results []models.TestResult) {
	for _, tr := range results {
		mark := r.st.ok.Sprint("✓")
		if !tr.Passed {
			mark = r.st.bad.Sprint("✗")
		}
		r.printf("  %s %s %s\n", mark, padRight(fmt.Sprintf("#%d", tr.TestIndex+1), 4), r.st.dim.Sprintf("%dms", tr.DurationMs))
		if mode == models.ModeRun && !tr.Passed {
			r.printf("      expected: %s\n      actual:   %s\n", oneLine(tr.ExpectedOutput), oneLine(tr.ActualOutput))
		}
	}
}

// Status prints the contest overview table.
func (r *Renderer) Status(snap contest.Snapshot) {
	if snap.ContestID == "" {
		r.printf("%s\n", r.p.Sprintf(i18n.MsgNoContest))
		return
	}
	title := snap.ContestID
	if snap.Vacancy != nil && snap.Vacancy.Title != "" {
		title = snap.Vacancy.Title
	}
	r.printf("%s  %s\n", r.st.heading.Sprint(title), r.st.dim.Sprint(string(snap.LockedLanguage)))
	if snap.LoadError != "" {
		r.printf("%s %s\n", r.st.warn.Sprint("!"), snap.LoadError)
	}

	solved := map[string]bool{}
	for _, id := range snap.SolvedTaskIDs {
		solved[id] = true
	}
	lanes := map[string]contest.LaneView{}
	for _, l := range snap.Lanes {
		if cur, ok := lanes[l.TaskID]; !ok || l.Mode == models.ModeSubmit || cur.State == contest.LaneIdle {
			lanes[l.TaskID] = l
		}
	}

	nameWidth := 8
	for _, t := range snap.Tasks {
		nameWidth = max(nameWidth, runewidth.StringWidth(t.Title))
	}
	nameWidth = min(nameWidth, 40)

	r.printf("\n")
	for i, t := range snap.Tasks {
		mark := "  "
		if solved[t.ID] {
			mark = r.st.ok.Sprint("✓ ")
		}
		cursor := " "
		if t.ID == snap.ActiveTaskID {
			cursor = "›"
		}
		score := ""
		if hv, ok := snap.Hints[t.ID]; ok {
			score = fmt.Sprintf("%3d", DisplayScore(hv))
		}
		lane := ""
		if l, ok := lanes[t.ID]; ok && l.State != contest.LaneIdle {
			lane = r.laneLabel(l)
		}
		r.printf("%s %s%s  %s  %s  %s\n", cursor, mark,
			padRight(fmt.Sprintf("%d. %s", i+1, truncate(t.Title, nameWidth)), nameWidth+4),
			padRight(string(t.Difficulty), 6), score, lane)
	}
	r.printf("\n")
	r.Completion(snap.Completion)
}

func (r *Renderer) laneLabel(l contest.LaneView) string {
	label := fmt.Sprintf("%s:%s", l.Mode, l.State)
	switch l.State {
	case contest.LaneCompleted:
		if l.Verdict == models.VerdictAccepted {
			return r.st.ok.Sprint(label)
		}
		return r.st.bad.Sprint(label)
	case contest.LaneFailed, contest.LaneTimedOut:
		return r.st.bad.Sprint(label)
	}
	return r.st.warn.Sprint(label)
}

// Completion prints the progress line, plus the finish banner once the
// server unlocks it.
func (r *Renderer) Completion(v contest.CompletionView) {
	r.printf("%s\n", r.p.Sprintf(i18n.MsgSolved, v.SolvedCount, v.Total))
	if v.FinishUnlocked {
		r.printf("%s\n", r.st.ok.Sprint(r.p.Sprintf(i18n.MsgContestFinished)))
	}
}

// Hint prints a revealed hint and the resulting score.
func (r *Renderer) Hint(res contest.HintResult) {
	r.printf("%s\n", r.st.heading.Sprintf("Hint · %s", res.Tier))
	r.printf("%s\n", r.Markdown(res.Content))
	if !res.Charged {
		r.printf("%s\n", r.st.dim.Sprint(r.p.Sprintf(i18n.MsgHintUsed)))
	}
	r.printf("%s\n", r.p.Sprintf(i18n.MsgMaxScore, DisplayScore(res.View), res.View.Penalty))
}

// Hints prints the hint economy of a task.
func (r *Renderer) Hints(v contest.HintView) {
	consumed := map[models.HintTier]bool{}
	for _, t := range v.Consumed {
		consumed[t] = true
	}
	available := map[models.HintTier]bool{}
	for _, t := range v.Available {
		available[t] = true
	}
	for _, tier := range models.HintTiers {
		state := r.st.dim.Sprint("unavailable")
		switch {
		case consumed[tier]:
			state = r.st.warn.Sprint("used")
		case available[tier] || len(v.Available) == 0:
			state = "available"
		}
		r.printf("  %s %s %s\n", padRight(string(tier), 8), padRight(fmt.Sprintf("-%d", tier.Weight()), 4), state)
	}
	r.printf("%s\n", r.p.Sprintf(i18n.MsgMaxScore, DisplayScore(v), v.Penalty))
}

// Thread prints a clarification question and its state.
func (r *Renderer) Thread(th *models.CommunicationThread) {
	if th == nil {
		r.printf("%s\n", r.p.Sprintf(i18n.MsgNoThread))
		return
	}
	r.printf("%s %s\n", r.st.heading.Sprint(r.p.Sprintf(i18n.MsgQuestion)), r.st.dim.Sprintf("(%s)", th.Status))
	r.printf("%s\n", r.Markdown(th.Question))
	if th.Answer != "" {
		r.printf("%s\n%s", r.st.dim.Sprint("answer:"), indentBlock(th.Answer))
	}
	if th.MLScore != nil {
		r.printf("%s %.0f%%\n", r.st.dim.Sprint("score:"), *th.MLScore*100)
	}
	if th.MLFeedback != "" {
		r.printf("%s %s\n", r.st.dim.Sprint("feedback:"), th.MLFeedback)
	}
}

// Error prints a localized error line.
func (r *Renderer) Error(err error) {
	r.printf("%s %s\n", r.st.bad.Sprint("✗"), i18n.Describe(r.p, err))
}

func indentBlock(s string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return "    \n"
	}
	var sb strings.Builder
	for _, l := range strings.Split(s, "\n") {
		sb.WriteString("    ")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	return sb.String()
}

func oneLine(s string) string {
	s = strings.TrimRight(s, "\n")
	return strings.ReplaceAll(s, "\n", "⏎")
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
