package session

import "time"

// EventType identifies the kind of session event.
type EventType string

const (
	EventSessionStart        EventType = "session_start"
	EventSessionEnd          EventType = "session_complete"
	EventContestOpen         EventType = "contest_open"
	EventTaskEnter           EventType = "task_enter"
	EventExecutionStart      EventType = "execution_start"
	EventExecutionComplete   EventType = "execution_complete"
	EventHintConsumed        EventType = "hint_consumed"
	EventTaskSolved          EventType = "task_solved"
	EventContestComplete     EventType = "contest_complete"
	EventCommunicationAnswer EventType = "communication_answer"
	EventError               EventType = "error"
)

// Event is a single timestamped entry in a session log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id,omitempty"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// SessionStartData returns event data for a session start.
func SessionStartData(command, apiURL, candidate string) map[string]any {
	return map[string]any{
		"command":   command,
		"api_url":   apiURL,
		"candidate": candidate,
	}
}

// SessionCompleteData returns event data for a session end.
func SessionCompleteData(solved, total, executions int, durationMs int64) map[string]any {
	return map[string]any{
		"solved":      solved,
		"total_tasks": total,
		"executions":  executions,
		"duration_ms": durationMs,
	}
}

// ContestOpenData returns event data for entering a contest.
func ContestOpenData(contestID, language string, taskCount, solved int) map[string]any {
	return map[string]any{
		"contest_id": contestID,
		"language":   language,
		"task_count": taskCount,
		"solved":     solved,
	}
}

// TaskEnterData returns event data for selecting a task.
func TaskEnterData(taskID, title string, num, total int, source string) map[string]any {
	return map[string]any{
		"task_id":     taskID,
		"title":       title,
		"task_num":    num,
		"total_tasks": total,
		"source":      source,
	}
}

// ExecutionStartData returns event data for a created execution.
func ExecutionStartData(executionID, taskID, mode string, testCount int) map[string]any {
	return map[string]any{
		"execution_id": executionID,
		"task_id":      taskID,
		"mode":         mode,
		"test_count":   testCount,
	}
}

// ExecutionCompleteData returns event data for a finished poll loop.
func ExecutionCompleteData(executionID, taskID, mode, state, verdict string, passed, total, attempts int) map[string]any {
	return map[string]any{
		"execution_id": executionID,
		"task_id":      taskID,
		"mode":         mode,
		"state":        state,
		"verdict":      verdict,
		"passed":       passed,
		"total":        total,
		"attempts":     attempts,
	}
}

// HintConsumedData returns event data for a revealed hint.
func HintConsumedData(taskID, tier string, weight, penaltyTotal int) map[string]any {
	return map[string]any{
		"task_id":       taskID,
		"tier":          tier,
		"weight":        weight,
		"penalty_total": penaltyTotal,
	}
}

// TaskSolvedData returns event data for a task entering the solved set.
func TaskSolvedData(taskID, origin string, solved, total int) map[string]any {
	return map[string]any{
		"task_id": taskID,
		"origin":  origin,
		"solved":  solved,
		"total":   total,
	}
}

// ContestCompleteData returns event data for a latched completion signal.
func ContestCompleteData(contestID, signal string) map[string]any {
	return map[string]any{
		"contest_id": contestID,
		"signal":     signal,
	}
}

// CommunicationAnswerData returns event data for an answered thread.
func CommunicationAnswerData(taskID, status string, answerLen int) map[string]any {
	return map[string]any{
		"task_id":    taskID,
		"status":     status,
		"answer_len": answerLen,
	}
}

// ErrorData returns event data for an error.
func ErrorData(message string, details map[string]any) map[string]any {
	d := map[string]any{
		"message": message,
	}
	for k, v := range details {
		d[k] = v
	}
	return d
}
