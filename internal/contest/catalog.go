package contest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/futurecareers/contestide/internal/models"
	"golang.org/x/sync/errgroup"
)

// CatalogLoader loads the ordered task list of a contest and locks the
// contest language.
type CatalogLoader struct {
	api      CatalogAPI
	fallback models.Language
	logger   *slog.Logger

	mu        sync.RWMutex
	contestID string
	vacancy   *models.Vacancy
	language  models.Language
	locked    bool
	committed bool
	tasks     []models.Task
	index     map[string]int
	active    string
	loadErr   error
}

// NewCatalogLoader returns a loader that locks to fallback when the
// requisition language cannot be fetched.
func NewCatalogLoader(api CatalogAPI, fallback models.Language, logger *slog.Logger) *CatalogLoader {
	if !fallback.Valid() {
		fallback = models.LanguagePython
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogLoader{
		api:      api,
		fallback: fallback,
		logger:   logger,
		index:    map[string]int{},
	}
}

// Load fetches the requisition and the task list concurrently, locks the
// language and selects the first task. A failed or empty load leaves the
// catalog empty and is not retried.
func (l *CatalogLoader) Load(ctx context.Context, contestID string) error {
	if contestID == "" {
		return errors.New("contest id is required")
	}

	var (
		g       errgroup.Group
		vacancy *models.Vacancy
		vacErr  error
		tasks   []models.Task
	)
	g.Go(func() error {
		vacancy, vacErr = l.api.Vacancy(ctx, contestID)
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = l.api.ContestTasks(ctx, contestID)
		if err != nil {
			return fmt.Errorf("loading tasks for contest %s: %w", contestID, err)
		}
		return nil
	})
	err := g.Wait()

	lang := l.fallback
	switch {
	case vacErr != nil:
		l.logger.Warn("requisition unavailable, using default language", "contest", contestID, "language", lang, "error", vacErr)
	case vacancy != nil && vacancy.Language != "":
		lang = models.NormalizeLanguage(vacancy.Language)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.contestID = contestID
	l.vacancy = vacancy
	if !l.locked {
		l.language = lang
		l.locked = true
	}
	l.tasks = nil
	l.index = map[string]int{}
	l.active = ""

	if err != nil {
		l.loadErr = err
		return err
	}
	for _, t := range tasks {
		if _, dup := l.index[t.ID]; dup || t.ID == "" {
			l.logger.Warn("skipping duplicate task", "contest", contestID, "task", t.ID)
			continue
		}
		l.index[t.ID] = len(l.tasks)
		l.tasks = append(l.tasks, t)
	}
	if len(l.tasks) == 0 {
		l.loadErr = ErrEmptyCatalog
		return ErrEmptyCatalog
	}
	l.loadErr = nil
	l.active = l.tasks[0].ID

	l.logger.Debug("catalog loaded", "contest", contestID, "tasks", len(l.tasks), "language", l.language)
	return nil
}

// LoadSurvey fetches the requisition's survey questions ordered by their
// order field. Survey questions are a separate work-item kind and never
// enter the task list.
func (l *CatalogLoader) LoadSurvey(ctx context.Context) ([]models.WorkItem, error) {
	contestID := l.ContestID()
	if contestID == "" {
		return nil, ErrNoContest
	}
	qs, err := l.api.SurveyQuestions(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("loading survey questions: %w", err)
	}
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })

	items := make([]models.WorkItem, 0, len(qs))
	for _, q := range qs {
		items = append(items, models.QuestionItem(q))
	}
	return items, nil
}

// ContestID returns the loaded contest id.
func (l *CatalogLoader) ContestID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.contestID
}

// Vacancy returns the requisition, or nil when it could not be fetched.
func (l *CatalogLoader) Vacancy() *models.Vacancy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.vacancy
}

// Language returns the locked language, or the fallback before Load.
func (l *CatalogLoader) Language() models.Language {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.locked {
		return l.fallback
	}
	return l.language
}

// Locked reports whether the language has been locked.
func (l *CatalogLoader) Locked() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.locked
}

// SetLanguage is refused with ErrLanguageLocked once the language is locked
// to something else.
func (l *CatalogLoader) SetLanguage(lang models.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked {
		if lang != l.language {
			return fmt.Errorf("%w to %s", ErrLanguageLocked, l.language)
		}
		return nil
	}
	l.fallback = lang
	return nil
}

// ForceLanguage re-locks the language to match a graded server copy. It is
// refused with ErrLanguageLocked once an execution has been sent in the
// locked language.
func (l *CatalogLoader) ForceLanguage(lang models.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked && l.language == lang {
		return nil
	}
	if l.committed {
		return fmt.Errorf("%w to %s", ErrLanguageLocked, l.language)
	}
	if l.locked {
		l.logger.Info("contest language follows graded solution", "from", l.language, "to", lang)
	}
	l.language = lang
	l.locked = true
	return nil
}

// Commit marks the locked language as used by an execution. The language
// can no longer follow a graded server copy.
func (l *CatalogLoader) Commit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed = true
}

// Err returns the error of the last Load, if any.
func (l *CatalogLoader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadErr
}

// Tasks returns the tasks in presentation order.
func (l *CatalogLoader) Tasks() []models.Task {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

// TaskIDs returns the task ids in presentation order.
func (l *CatalogLoader) TaskIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, len(l.tasks))
	for i, t := range l.tasks {
		ids[i] = t.ID
	}
	return ids
}

// Items returns the tasks as work items.
func (l *CatalogLoader) Items() []models.WorkItem {
	tasks := l.Tasks()
	items := make([]models.WorkItem, len(tasks))
	for i, t := range tasks {
		items[i] = models.TaskItem(t)
	}
	return items
}

// Task looks a task up by id.
func (l *CatalogLoader) Task(id string) (models.Task, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		return models.Task{}, false
	}
	return l.tasks[i], true
}

// Position returns the 1-based position of a task, or 0 when unknown.
func (l *CatalogLoader) Position(id string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.index[id]
	if !ok {
		return 0
	}
	return i + 1
}

// Len returns the number of tasks.
func (l *CatalogLoader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tasks)
}

// Active returns the id of the selected task.
func (l *CatalogLoader) Active() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Select makes id the active task.
func (l *CatalogLoader) Select(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	l.active = id
	return nil
}
