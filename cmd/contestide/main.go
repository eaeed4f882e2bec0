package main

import (
	"errors"
	"os"

	"github.com/futurecareers/contestide/internal/apiclient"
)

// Exit codes for different failure modes
const (
	ExitSuccess      = 0 // Command succeeded
	ExitRejected     = 1 // The execution finished but was not accepted
	ExitError        = 2 // Configuration or runtime error
	ExitUnauthorized = 3 // Missing or expired login
)

// RejectedError indicates that an execution ran to completion but the
// verdict was not ACCEPTED.
type RejectedError struct {
	Verdict string
}

func (e *RejectedError) Error() string {
	if e.Verdict == "" {
		return "not accepted"
	}
	return "not accepted: " + e.Verdict
}

func main() {
	os.Exit(exitCode(execute()))
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return ExitRejected
	}
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return ExitUnauthorized
	}
	return ExitError
}
