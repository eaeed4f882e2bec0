package devbackend

import (
	"strings"

	"github.com/futurecareers/contestide/internal/models"
)

// Judge grades an execution request. There is no sandbox: the judge decides
// from the source text alone.
type Judge func(task *FixtureTask, req models.ExecutionRequest) models.ExecutionResult

// DefaultJudge grades by inspecting the source:
//   - a source equal to the language template (or blank) fails every test;
//   - a source containing "raise" or "panic(" is a runtime error;
//   - a task with an AcceptMarker fails unless the marker is present;
//   - anything else passes every test.
func DefaultJudge(task *FixtureTask, req models.ExecutionRequest) models.ExecutionResult {
	source := strings.TrimSpace(req.Files[req.Language.SolutionFile()])
	if source == "" {
		for _, text := range req.Files {
			source = strings.TrimSpace(text)
		}
	}

	var (
		pass   = true
		stderr string
		exit   int
	)
	switch {
	case source == "" || source == strings.TrimSpace(req.Language.Template()):
		pass = false
	case strings.Contains(source, "raise") || strings.Contains(source, "panic("):
		pass = false
		exit = 1
		stderr = "Traceback (most recent call last):\n  RuntimeError: solution raised\n"
	case task != nil && task.AcceptMarker != "" && !strings.Contains(source, task.AcceptMarker):
		pass = false
	}

	res := models.ExecutionResult{ExitCode: exit, Stderr: stderr}
	for i, tc := range req.TestCases {
		tr := models.TestResult{
			TestIndex:      i,
			Input:          tc.Input,
			ExpectedOutput: tc.Output,
			Passed:         pass,
			DurationMs:     int64(3 + i),
		}
		if pass {
			tr.ActualOutput = tc.Output
		}
		res.TestResults = append(res.TestResults, tr)
		res.DurationMs += tr.DurationMs
	}
	if pass {
		res.Verdict = models.VerdictAccepted
		res.Stdout = "Вердикт: ACCEPTED\n"
	} else {
		res.Verdict = models.VerdictWrongAnswer
		if exit == 0 {
			res.Stderr = "Вердикт: WRONG ANSWER\n"
		}
	}
	return res
}
