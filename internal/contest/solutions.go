package contest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/futurecareers/contestide/internal/models"
)

// LiveStore mirrors live editor copies outside the process. The store
// package implements it on its contest namespace.
type LiveStore interface {
	LoadLive(contestID, taskID string) (string, bool)
	SaveLive(contestID, taskID, text string) error
}

// EntrySource says where the editor text came from on task entry.
type EntrySource string

const (
	FromServer   EntrySource = "server"
	FromLive     EntrySource = "live"
	FromStore    EntrySource = "stored"
	FromTemplate EntrySource = "template"
)

// EditorState is what the editor shows after entering a task.
type EditorState struct {
	TaskID   string                 `json:"task_id"`
	Source   string                 `json:"source"`
	Language models.Language        `json:"language"`
	Origin   EntrySource            `json:"origin"`
	Server   *models.SolutionRecord `json:"server,omitempty"`
}

// SolutionCache keeps one live copy and one server copy per task.
type SolutionCache struct {
	api       SolutionAPI
	store     LiveStore
	contestID string
	language  models.Language
	logger    *slog.Logger

	mu     sync.Mutex
	relock func(models.Language) error
	live   map[string]string
	server map[string]models.SolutionRecord
}

// NewSolutionCache returns a cache for one contest. store may be nil.
func NewSolutionCache(api SolutionAPI, store LiveStore, contestID string, language models.Language, logger *slog.Logger) *SolutionCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SolutionCache{
		api:       api,
		store:     store,
		contestID: contestID,
		language:  language,
		logger:    logger,
		live:      map[string]string{},
		server:    map[string]models.SolutionRecord{},
	}
}

// OnServerLanguage sets the hook that re-locks the contest language when a
// graded server copy is in another language. A hook error keeps the current
// language and the server code is not loaded into the editor.
func (c *SolutionCache) OnServerLanguage(fn func(models.Language) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relock = fn
}

// EnterTask resolves the editor text for a task. A server copy with code
// overwrites the live copy and its language becomes the contest language.
// Otherwise the live copy is kept, then the mirrored copy, then the
// language template.
//
// The returned state is always usable. A non-nil error means the server
// copy could not be fetched or could not be loaded, and the local
// fallbacks were used.
func (c *SolutionCache) EnterTask(ctx context.Context, taskID string) (EditorState, error) {
	last, fetchErr := c.api.LastSolution(ctx, taskID, c.contestID)
	if fetchErr != nil {
		fetchErr = fmt.Errorf("loading last solution for task %s: %w", taskID, fetchErr)
		last = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	useServer := last.HasCode()
	if last != nil {
		rec := last.Record(taskID)
		c.server[taskID] = rec
		if useServer && last.Language != "" && rec.Language != c.language {
			if err := c.lockTo(rec.Language); err != nil {
				c.logger.Warn("graded solution language conflicts with contest language",
					"task", taskID, "solution_language", rec.Language, "contest_language", c.language, "error", err)
				fetchErr = fmt.Errorf("graded solution for task %s is in %s: %w", taskID, rec.Language, err)
				useServer = false
			}
		}
	}

	state := EditorState{TaskID: taskID, Language: c.language}
	if rec, ok := c.server[taskID]; ok {
		state.Server = &rec
	}

	if useServer {
		text := *last.SolutionCode
		c.live[taskID] = text
		c.persist(taskID, text)
		state.Source, state.Origin = text, FromServer
		return state, nil
	}

	if text, ok := c.live[taskID]; ok {
		state.Source, state.Origin = text, FromLive
		return state, fetchErr
	}
	if c.store != nil {
		if text, ok := c.store.LoadLive(c.contestID, taskID); ok {
			c.live[taskID] = text
			state.Source, state.Origin = text, FromStore
			return state, fetchErr
		}
	}

	text := c.language.Template()
	c.live[taskID] = text
	state.Source, state.Origin = text, FromTemplate
	return state, fetchErr
}

// Edit replaces the live copy of a task. The server copy is untouched.
func (c *SolutionCache) Edit(taskID, text string) error {
	if taskID == "" {
		return errors.New("task id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live[taskID] = text
	c.persist(taskID, text)
	return nil
}

// Source returns the live copy of a task.
func (c *SolutionCache) Source(taskID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.live[taskID]
	return text, ok
}

// Server returns the last known server copy of a task.
func (c *SolutionCache) Server(taskID string) (models.SolutionRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.server[taskID]
	return rec, ok
}

// RefreshMeta re-reads the graded verdict and ML feedback for a task
// without touching the live copy.
func (c *SolutionCache) RefreshMeta(ctx context.Context, taskID string) (models.SolutionRecord, error) {
	last, err := c.api.LastSolution(ctx, taskID, c.contestID)
	if err != nil {
		return models.SolutionRecord{}, fmt.Errorf("refreshing solution meta for task %s: %w", taskID, err)
	}
	if last == nil {
		return models.SolutionRecord{TaskID: taskID}, nil
	}
	rec := last.Record(taskID)

	c.mu.Lock()
	c.server[taskID] = rec
	c.mu.Unlock()
	return rec, nil
}

// lockTo switches the cache language. Caller holds c.mu.
func (c *SolutionCache) lockTo(lang models.Language) error {
	if c.relock != nil {
		if err := c.relock(lang); err != nil {
			return err
		}
	}
	c.language = lang
	return nil
}

func (c *SolutionCache) persist(taskID, text string) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveLive(c.contestID, taskID, text); err != nil {
		c.logger.Warn("failed to mirror editor text", "task", taskID, "error", err)
	}
}
