// Package logging configures slog for the CLI.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/futurecareers/contestide/internal/models"
	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// New builds a tint console logger writing to w. Color is enabled only when
// w is a terminal.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(w),
	}))
}

// Setup installs a logger from New as the process default.
func Setup(w io.Writer, debug bool) *slog.Logger {
	logger := New(w, debug)
	slog.SetDefault(logger)
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// LogExecution writes a debug record describing an execution snapshot.
func LogExecution(logger *slog.Logger, msg string, exec *models.Execution) {
	if exec == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	attrs := []any{
		"execution_id", exec.ID,
		"status", exec.Status,
	}
	if exec.Result != nil {
		attrs = addIf(attrs, "verdict", nonEmpty(exec.Result.Verdict))
		attrs = append(attrs, "exit_code", exec.Result.ExitCode, "duration_ms", exec.Result.DurationMs)
		attrs = append(attrs, "passed", exec.Result.Passed(), "tests", len(exec.Result.TestResults))
	}
	attrs = addIf(attrs, "error", nonEmpty(exec.ErrorMessage))

	logger.Debug(msg, attrs...)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func addIf[T any](attrs []any, name string, v *T) []any {
	if v != nil {
		attrs = append(attrs, name)
		attrs = append(attrs, *v)
	}

	return attrs
}
