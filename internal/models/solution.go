package models

// MLMeta is the automated review attached to a graded solution.
type MLMeta struct {
	Correctness *float64 `json:"correctness,omitempty"`
	Efficiency  *float64 `json:"efficiency,omitempty"`
	CleanCode   *float64 `json:"clean_code,omitempty"`
	Feedback    string   `json:"feedback,omitempty"`
	Passed      *bool    `json:"passed,omitempty"`
}

// AntiCheatMeta flags a suspicious solution.
type AntiCheatMeta struct {
	Flag   *bool  `json:"flag,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// LastSolution is the server copy of the most recent graded solution.
type LastSolution struct {
	SolutionCode *string        `json:"solution_code"`
	Language     string         `json:"language,omitempty"`
	Status       string         `json:"status,omitempty"`
	Verdict      string         `json:"verdict,omitempty"`
	UpdatedAt    Timestamp      `json:"updated_at"`
	ML           *MLMeta        `json:"ml,omitempty"`
	AntiCheat    *AntiCheatMeta `json:"anti_cheat,omitempty"`
}

// HasCode reports whether the server holds source for the task.
func (l *LastSolution) HasCode() bool {
	return l != nil && l.SolutionCode != nil && *l.SolutionCode != ""
}

// SolutionRecord is one copy (live or server) of a task's solution.
type SolutionRecord struct {
	TaskID            string         `json:"task_id"`
	SourceText        string         `json:"source_text"`
	Language          Language       `json:"language"`
	LastGradedVerdict string         `json:"last_graded_verdict,omitempty"`
	MLFeedback        string         `json:"ml_feedback,omitempty"`
	ML                *MLMeta        `json:"ml,omitempty"`
	AntiCheat         *AntiCheatMeta `json:"anti_cheat,omitempty"`
}

// Record converts a server copy into a SolutionRecord for taskID.
func (l *LastSolution) Record(taskID string) SolutionRecord {
	rec := SolutionRecord{
		TaskID:            taskID,
		Language:          NormalizeLanguage(l.Language),
		LastGradedVerdict: l.Verdict,
		ML:                l.ML,
		AntiCheat:         l.AntiCheat,
	}
	if l.SolutionCode != nil {
		rec.SourceText = *l.SolutionCode
	}
	if l.ML != nil {
		rec.MLFeedback = l.ML.Feedback
	}
	return rec
}

// CompletionStatus is the server's view of contest progress.
type CompletionStatus struct {
	AllSolved   bool     `json:"all_solved"`
	TotalTasks  int      `json:"total_tasks"`
	SolvedTasks int      `json:"solved_tasks"`
	TaskIDs     []string `json:"task_ids"`
}
