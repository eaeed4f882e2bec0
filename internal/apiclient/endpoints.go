package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/futurecareers/contestide/internal/models"
)

// Vacancy fetches the requisition a contest belongs to.
func (c *Client) Vacancy(ctx context.Context, contestID string) (*models.Vacancy, error) {
	var v models.Vacancy
	if err := c.do(ctx, "get vacancy", http.MethodGet, "/vacancies/"+url.PathEscape(contestID), nil, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ContestTasks fetches the ordered task list of a contest.
func (c *Client) ContestTasks(ctx context.Context, contestID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, "get contest tasks", http.MethodGet, "/tasks/contest/"+url.PathEscape(contestID), nil, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Task fetches a single task.
func (c *Client) Task(ctx context.Context, taskID string) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, "get task", http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SurveyQuestions fetches the free-text questions of a requisition.
func (c *Client) SurveyQuestions(ctx context.Context, contestID string) ([]models.SurveyQuestion, error) {
	var qs []models.SurveyQuestion
	if err := c.do(ctx, "get survey questions", http.MethodGet, "/vacancies/"+url.PathEscape(contestID)+"/survey-questions", nil, nil, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// LastSolution fetches the most recent graded solution. A task without one
// yields (nil, nil).
func (c *Client) LastSolution(ctx context.Context, taskID, contestID string) (*models.LastSolution, error) {
	var q url.Values
	if contestID != "" {
		q = url.Values{"vacancy_id": {contestID}}
	}
	var ls *models.LastSolution
	err := c.do(ctx, "get last solution", http.MethodGet, "/tasks/"+url.PathEscape(taskID)+"/last-solution", q, nil, &ls)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ls, nil
}

// TestsForSubmit fetches the open and hidden tests a submit is graded on.
// The result must not be cached.
func (c *Client) TestsForSubmit(ctx context.Context, taskID string) (*models.SubmitTests, error) {
	var st models.SubmitTests
	if err := c.do(ctx, "get tests for submit", http.MethodGet, "/tasks/"+url.PathEscape(taskID)+"/tests-for-submit", nil, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// SolvedTasks fetches the ids of tasks the candidate solved in a contest.
func (c *Client) SolvedTasks(ctx context.Context, contestID string) ([]string, error) {
	var ids []string
	if err := c.do(ctx, "get solved tasks", http.MethodGet, "/tasks/solved/"+url.PathEscape(contestID), nil, nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// CompletionStatus fetches the server's completion verdict for a contest.
func (c *Client) CompletionStatus(ctx context.Context, contestID string) (*models.CompletionStatus, error) {
	var cs models.CompletionStatus
	if err := c.do(ctx, "get completion status", http.MethodGet, "/tasks/contest/"+url.PathEscape(contestID)+"/completion-status", nil, nil, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

// CreateExecution starts a run or submit.
func (c *Client) CreateExecution(ctx context.Context, req models.ExecutionRequest) (*models.Execution, error) {
	var e models.Execution
	if err := c.do(ctx, "create execution", http.MethodPost, "/executions", nil, req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetExecution fetches the current state of an execution.
func (c *Client) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	var e models.Execution
	if err := c.do(ctx, "get execution", http.MethodGet, "/executions/"+url.PathEscape(id), nil, nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// RequestHint reveals a hint tier and charges its penalty.
func (c *Client) RequestHint(ctx context.Context, req models.HintRequest) (*models.HintResponse, error) {
	var hr models.HintResponse
	if err := c.do(ctx, "request hint", http.MethodPost, "/hints/request", nil, req, &hr); err != nil {
		return nil, err
	}
	return &hr, nil
}

// UsedHints lists the tiers already consumed for a task.
func (c *Client) UsedHints(ctx context.Context, taskID string) ([]models.HintTier, error) {
	var tiers []models.HintTier
	if err := c.do(ctx, "get used hints", http.MethodGet, "/hints/used/"+url.PathEscape(taskID), nil, nil, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// AvailableHints lists the tiers the task offers.
func (c *Client) AvailableHints(ctx context.Context, taskID string) ([]models.HintTier, error) {
	var tiers []models.HintTier
	if err := c.do(ctx, "get available hints", http.MethodGet, "/hints/available/"+url.PathEscape(taskID), nil, nil, &tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// Communication fetches the clarification thread of a task. A task without
// a thread yields (nil, nil), whether the backend answers null or 404.
func (c *Client) Communication(ctx context.Context, taskID string) (*models.CommunicationThread, error) {
	var th *models.CommunicationThread
	err := c.do(ctx, "get communication", http.MethodGet, "/tasks/"+url.PathEscape(taskID)+"/communication", nil, nil, &th)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return th, nil
}

// AnswerCommunication submits the candidate's answer to the thread.
func (c *Client) AnswerCommunication(ctx context.Context, taskID, answer string) (*models.CommunicationThread, error) {
	var th models.CommunicationThread
	err := c.do(ctx, "answer communication", http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/communication/answer", nil, models.AnswerRequest{Answer: answer}, &th)
	if err != nil {
		return nil, err
	}
	return &th, nil
}
