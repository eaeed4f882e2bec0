package contest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/futurecareers/contestide/internal/models"
	"github.com/sethvargo/go-retry"
)

var errThreadMissing = errors.New("thread not created yet")

// CommunicationGate holds the clarification thread of each task.
type CommunicationGate struct {
	api     CommunicationAPI
	retries int
	backoff time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	threads map[string]*models.CommunicationThread
}

// NewCommunicationGate returns a gate that waits for a new thread with up to
// retries extra fetches spaced by backoff.
func NewCommunicationGate(api CommunicationAPI, retries int, backoff time.Duration, logger *slog.Logger) *CommunicationGate {
	if logger == nil {
		logger = slog.Default()
	}
	if retries < 0 {
		retries = 0
	}
	if backoff <= 0 {
		backoff = time.Millisecond
	}
	return &CommunicationGate{
		api:     api,
		retries: retries,
		backoff: backoff,
		logger:  logger,
		threads: map[string]*models.CommunicationThread{},
	}
}

// EnterTask loads the thread of a task. A task without a thread returns
// nil and no error.
func (g *CommunicationGate) EnterTask(ctx context.Context, taskID string) (*models.CommunicationThread, error) {
	th, err := g.api.Communication(ctx, taskID)
	if err != nil {
		return g.Thread(taskID), fmt.Errorf("loading communication for task %s: %w", taskID, err)
	}
	return g.store(taskID, th), nil
}

// Refresh re-fetches the thread. It is EnterTask under another name, used to
// watch an evaluating answer settle.
func (g *CommunicationGate) Refresh(ctx context.Context, taskID string) (*models.CommunicationThread, error) {
	return g.EnterTask(ctx, taskID)
}

// Await fetches the thread until it appears, retrying a bounded number of
// times. It returns nil and no error when the thread never appeared.
func (g *CommunicationGate) Await(ctx context.Context, taskID string) (*models.CommunicationThread, error) {
	var found *models.CommunicationThread
	attempts := 0

	b := retry.WithMaxRetries(uint64(g.retries), retry.NewConstant(g.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++
		th, err := g.api.Communication(ctx, taskID)
		if err != nil {
			return retry.RetryableError(err)
		}
		if th == nil {
			return retry.RetryableError(errThreadMissing)
		}
		found = th
		return nil
	})

	switch {
	case err == nil:
		g.logger.Debug("communication thread available", "task", taskID, "attempts", attempts)
		return g.store(taskID, found), nil
	case errors.Is(err, errThreadMissing):
		g.logger.Debug("no communication thread after retries", "task", taskID, "attempts", attempts)
		return nil, nil
	default:
		return g.Thread(taskID), fmt.Errorf("waiting for communication on task %s: %w", taskID, err)
	}
}

// Answer sends the candidate's answer. Only a pending thread accepts one;
// the thread then takes the state the server returns.
func (g *CommunicationGate) Answer(ctx context.Context, taskID, answer string) (*models.CommunicationThread, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, ErrEmptyAnswer
	}

	current := g.Thread(taskID)
	if current == nil {
		return nil, ErrNoThread
	}
	if !current.Answerable() {
		return current, fmt.Errorf("%w: status is %s", ErrThreadClosed, current.Status)
	}

	th, err := g.api.AnswerCommunication(ctx, taskID, answer)
	if err != nil {
		return current, fmt.Errorf("answering communication for task %s: %w", taskID, err)
	}
	if th == nil {
		next := *current
		next.Answer = answer
		next.Status = models.ThreadEvaluating
		th = &next
	}
	return g.store(taskID, th), nil
}

// Thread returns a copy of the cached thread, or nil.
func (g *CommunicationGate) Thread(taskID string) *models.CommunicationThread {
	g.mu.Lock()
	defer g.mu.Unlock()
	th, ok := g.threads[taskID]
	if !ok || th == nil {
		return nil
	}
	cp := *th
	return &cp
}

// Threads returns copies of every known thread.
func (g *CommunicationGate) Threads() map[string]*models.CommunicationThread {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]*models.CommunicationThread, len(g.threads))
	for id, th := range g.threads {
		cp := *th
		out[id] = &cp
	}
	return out
}

func (g *CommunicationGate) store(taskID string, th *models.CommunicationThread) *models.CommunicationThread {
	g.mu.Lock()
	defer g.mu.Unlock()
	if th == nil {
		delete(g.threads, taskID)
		return nil
	}
	cp := *th
	g.threads[taskID] = &cp
	out := cp
	return &out
}
