package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleStderr(t *testing.T) {
	tests := []struct {
		name   string
		result *ExecutionResult
		want   string
	}{
		{name: "nil result", result: nil, want: ""},
		{name: "clean exit hides stderr", result: &ExecutionResult{ExitCode: 0, Stderr: "warning: unused"}, want: ""},
		{name: "non-zero exit shows stderr", result: &ExecutionResult{ExitCode: 1, Stderr: "Traceback"}, want: "Traceback"},
		{name: "blank stderr", result: &ExecutionResult{ExitCode: 1, Stderr: "  \n"}, want: ""},
		{name: "verdict banner hidden", result: &ExecutionResult{ExitCode: 1, Stderr: "Вердикт: WRONG ANSWER"}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.VisibleStderr())
		})
	}
}

func TestExecutionResultAccepted(t *testing.T) {
	var nilResult *ExecutionResult
	assert.False(t, nilResult.Accepted())
	assert.False(t, (&ExecutionResult{Verdict: VerdictWrongAnswer}).Accepted())
	assert.True(t, (&ExecutionResult{Verdict: VerdictAccepted}).Accepted())
}

func TestExecutionResultPassed(t *testing.T) {
	r := &ExecutionResult{TestResults: []TestResult{{Passed: true}, {Passed: false}, {Passed: true}}}
	assert.Equal(t, 2, r.Passed())
}

func TestExecutionStatusTerminal(t *testing.T) {
	assert.False(t, ExecutionPending.Terminal())
	assert.False(t, ExecutionRunning.Terminal())
	assert.True(t, ExecutionCompleted.Terminal())
	assert.True(t, ExecutionFailed.Terminal())
}

func TestExecutionDecodesBackendPayload(t *testing.T) {
	payload := `{
		"id": "e1",
		"user_id": "u1",
		"language": "python",
		"status": "completed",
		"files": {"solution.py": "print(1)"},
		"result": {
			"stdout": "1\n",
			"stderr": "",
			"exit_code": 0,
			"duration_ms": 12,
			"verdict": "ACCEPTED",
			"test_results": [{"test_index": 0, "input": "", "expected_output": "1", "actual_output": "1", "passed": true, "duration_ms": 3}]
		},
		"error_message": null,
		"created_at": "2025-03-01T10:00:00.123456",
		"started_at": "2025-03-01T10:00:01Z",
		"completed_at": null
	}`

	var exec Execution
	require.NoError(t, json.Unmarshal([]byte(payload), &exec))
	assert.Equal(t, ExecutionCompleted, exec.Status)
	require.NotNil(t, exec.Result)
	assert.True(t, exec.Result.Accepted())
	assert.Equal(t, 1, exec.Result.Passed())
	assert.Equal(t, 2025, exec.CreatedAt.Year())
	assert.False(t, exec.StartedAt.IsZero())
	assert.True(t, exec.CompletedAt.IsZero())
}

func TestExecutionRequestOmitsEmptyTestCases(t *testing.T) {
	req := ExecutionRequest{Language: LanguageGo, Files: map[string]string{"solution.go": "package main"}}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "test_cases")
	assert.Contains(t, string(data), `"is_submit":false`)
}
