// Package contest is the client-side controller of a coding contest
// session: task catalog, editor buffers, executions, hints, completion and
// the post-submit clarification thread.
package contest

import (
	"context"

	"github.com/futurecareers/contestide/internal/models"
)

//go:generate go tool mockgen -destination=mock_api_test.go -package=contest . API

// CatalogAPI loads the contest and its progress.
type CatalogAPI interface {
	Vacancy(ctx context.Context, contestID string) (*models.Vacancy, error)
	ContestTasks(ctx context.Context, contestID string) ([]models.Task, error)
	SurveyQuestions(ctx context.Context, contestID string) ([]models.SurveyQuestion, error)
	SolvedTasks(ctx context.Context, contestID string) ([]string, error)
	CompletionStatus(ctx context.Context, contestID string) (*models.CompletionStatus, error)
}

// SolutionAPI reads graded solutions.
type SolutionAPI interface {
	LastSolution(ctx context.Context, taskID, contestID string) (*models.LastSolution, error)
}

// ExecutionAPI drives the execution service.
type ExecutionAPI interface {
	TestsForSubmit(ctx context.Context, taskID string) (*models.SubmitTests, error)
	CreateExecution(ctx context.Context, req models.ExecutionRequest) (*models.Execution, error)
	GetExecution(ctx context.Context, id string) (*models.Execution, error)
}

// HintAPI reveals hints.
type HintAPI interface {
	RequestHint(ctx context.Context, req models.HintRequest) (*models.HintResponse, error)
	UsedHints(ctx context.Context, taskID string) ([]models.HintTier, error)
	AvailableHints(ctx context.Context, taskID string) ([]models.HintTier, error)
}

// CommunicationAPI reads and answers clarification threads.
type CommunicationAPI interface {
	Communication(ctx context.Context, taskID string) (*models.CommunicationThread, error)
	AnswerCommunication(ctx context.Context, taskID, answer string) (*models.CommunicationThread, error)
}

// API is everything the controller needs from the backend. The HTTP
// client in internal/apiclient implements it.
type API interface {
	CatalogAPI
	SolutionAPI
	ExecutionAPI
	HintAPI
	CommunicationAPI
}
