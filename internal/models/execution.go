package models

import "strings"

// ExecutionStatus is the server-side state of an execution.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// Terminal reports whether polling should stop on this status.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed
}

// RunMode distinguishes a practice run from a graded submit.
type RunMode string

const (
	ModeRun    RunMode = "run"
	ModeSubmit RunMode = "submit"
)

// Valid reports whether m is run or submit.
func (m RunMode) Valid() bool {
	return m == ModeRun || m == ModeSubmit
}

// VerdictAccepted is the only fully-accepted verdict.
const VerdictAccepted = "ACCEPTED"

// VerdictWrongAnswer is reported when at least one test fails.
const VerdictWrongAnswer = "WRONG ANSWER"

// verdictBanner marks stderr that only repeats the grader's verdict.
const verdictBanner = "Вердикт:"

// DefaultExecutionTimeout is the per-execution limit sent to the service, in seconds.
const DefaultExecutionTimeout = 30

// ExecutionRequest creates an execution.
type ExecutionRequest struct {
	Language  Language          `json:"language"`
	Files     map[string]string `json:"files"`
	Timeout   int               `json:"timeout,omitempty"`
	TestCases []TestCase        `json:"test_cases,omitempty"`
	TaskID    string            `json:"task_id,omitempty"`
	VacancyID string            `json:"vacancy_id,omitempty"`
	IsSubmit  bool              `json:"is_submit"`
}

// TestResult is the outcome of one test case.
type TestResult struct {
	TestIndex      int    `json:"test_index"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	Passed         bool   `json:"passed"`
	DurationMs     int64  `json:"duration_ms"`
}

// ExecutionResult is present once an execution has completed.
type ExecutionResult struct {
	Stdout      string       `json:"stdout"`
	Stderr      string       `json:"stderr"`
	ExitCode    int          `json:"exit_code"`
	DurationMs  int64        `json:"duration_ms"`
	Verdict     string       `json:"verdict,omitempty"`
	TestResults []TestResult `json:"test_results,omitempty"`
}

// Accepted reports a fully-accepted verdict.
func (r *ExecutionResult) Accepted() bool {
	return r != nil && r.Verdict == VerdictAccepted
}

// Passed counts passing tests.
func (r *ExecutionResult) Passed() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, tr := range r.TestResults {
		if tr.Passed {
			n++
		}
	}
	return n
}

// VisibleStderr returns stderr for the user-facing panel. It is empty when
// the program exited cleanly or stderr only carries the verdict banner.
func (r *ExecutionResult) VisibleStderr() string {
	if r == nil || r.ExitCode == 0 {
		return ""
	}
	if strings.TrimSpace(r.Stderr) == "" || strings.Contains(r.Stderr, verdictBanner) {
		return ""
	}
	return r.Stderr
}

// Execution is a single run or submit on the execution service.
type Execution struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id,omitempty"`
	Language     Language          `json:"language"`
	Status       ExecutionStatus   `json:"status"`
	Files        map[string]string `json:"files,omitempty"`
	Result       *ExecutionResult  `json:"result,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	CreatedAt    Timestamp         `json:"created_at"`
	StartedAt    Timestamp         `json:"started_at"`
	CompletedAt  Timestamp         `json:"completed_at"`
}
