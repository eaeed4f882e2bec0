package models

// ThreadStatus is the lifecycle state of a clarification thread.
type ThreadStatus string

const (
	ThreadPending    ThreadStatus = "pending"
	ThreadEvaluating ThreadStatus = "evaluating"
	ThreadCompleted  ThreadStatus = "completed"
	ThreadError      ThreadStatus = "error"
)

// CommunicationThread is the one-shot clarification question raised after
// an accepted submit. There is at most one per task.
type CommunicationThread struct {
	ID         string       `json:"id"`
	TaskID     string       `json:"task_id"`
	VacancyID  string       `json:"vacancy_id,omitempty"`
	SolutionID string       `json:"solution_id,omitempty"`
	Question   string       `json:"question"`
	Answer     string       `json:"answer,omitempty"`
	Status     ThreadStatus `json:"status"`
	MLScore    *float64     `json:"ml_score,omitempty"`
	MLFeedback string       `json:"ml_feedback,omitempty"`
	CreatedAt  Timestamp    `json:"created_at"`
	UpdatedAt  Timestamp    `json:"updated_at"`
}

// Answerable reports whether the candidate may still answer.
func (c *CommunicationThread) Answerable() bool {
	return c != nil && c.Status == ThreadPending
}

// Settled reports whether grading of the answer has finished.
func (c *CommunicationThread) Settled() bool {
	return c != nil && (c.Status == ThreadCompleted || c.Status == ThreadError)
}

// AnswerRequest submits the candidate's answer.
type AnswerRequest struct {
	Answer string `json:"answer"`
}
