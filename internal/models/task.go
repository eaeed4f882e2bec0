package models

import "fmt"

// Difficulty of a contest task.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// TestCase is one input/expected-output pair.
type TestCase struct {
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
}

// Task is an immutable contest task. Hidden tests are never part of it;
// they are fetched separately right before a submit.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Topic       string     `json:"topic,omitempty" yaml:"topic,omitempty"`
	OpenTests   []TestCase `json:"open_tests" yaml:"open_tests"`
	VacancyID   string     `json:"vacancy_id,omitempty" yaml:"vacancy_id,omitempty"`
}

// HiddenTestsVisible is always false: the client never holds hidden tests
// beyond the submit request that uses them.
func (Task) HiddenTestsVisible() bool { return false }

// SubmitTests is the full test set a submit is graded against.
type SubmitTests struct {
	OpenTests   []TestCase `json:"open_tests"`
	HiddenTests []TestCase `json:"hidden_tests"`
}

// Combined returns open tests followed by hidden tests.
func (s SubmitTests) Combined() []TestCase {
	out := make([]TestCase, 0, len(s.OpenTests)+len(s.HiddenTests))
	out = append(out, s.OpenTests...)
	return append(out, s.HiddenTests...)
}

// Vacancy is the job requisition a contest belongs to.
type Vacancy struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Grade    string `json:"grade,omitempty"`
}

// SurveyQuestion is a free-text question shown instead of a coding task.
type SurveyQuestion struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Order int    `json:"order"`
}

// WorkItemKind discriminates WorkItem.
type WorkItemKind string

const (
	WorkItemContestTask    WorkItemKind = "contest_task"
	WorkItemSurveyQuestion WorkItemKind = "survey_question"
)

// WorkItem is either a contest task or a survey question. The kind is fixed
// when the item is loaded and never re-detected afterwards.
type WorkItem struct {
	Kind     WorkItemKind    `json:"kind"`
	Task     *Task           `json:"task,omitempty"`
	Question *SurveyQuestion `json:"question,omitempty"`
}

// TaskItem wraps a task.
func TaskItem(t Task) WorkItem {
	return WorkItem{Kind: WorkItemContestTask, Task: &t}
}

// QuestionItem wraps a survey question.
func QuestionItem(q SurveyQuestion) WorkItem {
	return WorkItem{Kind: WorkItemSurveyQuestion, Question: &q}
}

// ID returns the id of the wrapped item.
func (w WorkItem) ID() string {
	switch w.Kind {
	case WorkItemContestTask:
		return w.Task.ID
	case WorkItemSurveyQuestion:
		return w.Question.ID
	}
	return ""
}

// Title returns a short display title.
func (w WorkItem) Title() string {
	switch w.Kind {
	case WorkItemContestTask:
		return w.Task.Title
	case WorkItemSurveyQuestion:
		return fmt.Sprintf("Question %d", w.Question.Order)
	}
	return ""
}

// Body returns the markdown body of the item.
func (w WorkItem) Body() string {
	switch w.Kind {
	case WorkItemContestTask:
		return w.Task.Description
	case WorkItemSurveyQuestion:
		return w.Question.Text
	}
	return ""
}
