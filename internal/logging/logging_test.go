package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/futurecareers/contestide/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNew_LevelFollowsDebugFlag(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&buf, true).Debug("shown", "k", "v")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=v")
	assert.NotContains(t, buf.String(), "\x1b[", "non-terminal output has no ANSI color")
}

func TestLogExecution(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	LogExecution(logger, "poll", &models.Execution{
		ID:     "e1",
		Status: models.ExecutionCompleted,
		Result: &models.ExecutionResult{
			Verdict:     models.VerdictAccepted,
			TestResults: []models.TestResult{{Passed: true}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "execution_id=e1")
	assert.Contains(t, out, "verdict=ACCEPTED")
	assert.Contains(t, out, "passed=1")
	assert.NotContains(t, out, "error=")
}

func TestLogExecution_SkippedBelowDebug(t *testing.T) {
	var buf bytes.Buffer
	LogExecution(New(&buf, false), "poll", &models.Execution{ID: "e1"})
	LogExecution(slog.New(slog.NewTextHandler(&buf, nil)), "poll", nil)
	assert.Empty(t, buf.String())
}

func TestAddIf(t *testing.T) {
	v := "x"
	attrs := addIf(nil, "a", &v)
	attrs = addIf[string](attrs, "b", nil)
	assert.Equal(t, []any{"a", "x"}, attrs)
}
