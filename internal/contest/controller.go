package contest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/futurecareers/contestide/internal/models"
	"github.com/futurecareers/contestide/internal/session"
	"golang.org/x/sync/errgroup"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used by the controller and its components.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithStore mirrors live editor copies into s.
func WithStore(s LiveStore) Option {
	return func(c *Controller) { c.store = s }
}

// WithEventLog records session events to l.
func WithEventLog(l session.Logger) Option {
	return func(c *Controller) { c.events = l }
}

// WithTiming overrides polling and retry bounds.
func WithTiming(t Timing) Option {
	return func(c *Controller) { c.timing = t.withDefaults() }
}

// WithSleep replaces the real-clock sleep, for tests.
func WithSleep(fn SleepFunc) Option {
	return func(c *Controller) { c.sleep = fn }
}

// WithDefaultLanguage sets the language used when the requisition cannot
// be fetched.
func WithDefaultLanguage(lang models.Language) Option {
	return func(c *Controller) { c.fallback = lang }
}

// WithCandidate records the candidate id in snapshots.
func WithCandidate(id string) Option {
	return func(c *Controller) { c.candidate = id }
}

// Session is the aggregate of one open contest.
type Session struct {
	CandidateID string
	ContestID   string
	OpenedAt    time.Time

	catalog      *CatalogLoader
	solutions    *SolutionCache
	hints        *HintTracker
	orchestrator *Orchestrator
	completion   *CompletionDetector
	comm         *CommunicationGate
}

// Snapshot is a serializable copy of the session aggregate.
type Snapshot struct {
	CandidateID    string                                 `json:"candidate_id,omitempty"`
	ContestID      string                                 `json:"contest_id"`
	Vacancy        *models.Vacancy                        `json:"vacancy,omitempty"`
	LockedLanguage models.Language                        `json:"locked_language"`
	Tasks          []models.Task                          `json:"tasks"`
	ActiveTaskID   string                                 `json:"active_task_id,omitempty"`
	SolvedTaskIDs  []string                               `json:"solved_task_ids"`
	Completion     CompletionView                         `json:"completion"`
	Hints          map[string]HintView                    `json:"hints"`
	Lanes          []LaneView                             `json:"lanes"`
	Threads        map[string]*models.CommunicationThread `json:"threads"`
	LoadError      string                                 `json:"load_error,omitempty"`
}

// TaskView is everything shown when a task is entered.
type TaskView struct {
	Task     models.Task                 `json:"task"`
	Position int                         `json:"position"`
	Total    int                         `json:"total"`
	Solved   bool                        `json:"solved"`
	Editor   EditorState                 `json:"editor"`
	Hints    HintView                    `json:"hints"`
	Thread   *models.CommunicationThread `json:"thread,omitempty"`
	Warnings []string                    `json:"warnings,omitempty"`
}

// UpdateKind discriminates Update.
type UpdateKind string

const (
	UpdateContestOpened UpdateKind = "contest_opened"
	UpdateTaskSelected  UpdateKind = "task_selected"
	UpdateExecution     UpdateKind = "execution"
	UpdateTaskSolved    UpdateKind = "task_solved"
	UpdateCompletion    UpdateKind = "completion"
	UpdateHint          UpdateKind = "hint"
	UpdateCommunication UpdateKind = "communication"
)

// Update is pushed to subscribers on every state change.
type Update struct {
	Kind       UpdateKind                  `json:"kind"`
	ContestID  string                      `json:"contest_id"`
	TaskID     string                      `json:"task_id,omitempty"`
	Execution  *ExecutionUpdate            `json:"execution,omitempty"`
	Completion *CompletionView             `json:"completion,omitempty"`
	Hint       *HintView                   `json:"hint,omitempty"`
	Thread     *models.CommunicationThread `json:"thread,omitempty"`
}

// Controller owns the contest session and wires its components. It is safe
// for concurrent use.
type Controller struct {
	api       API
	store     LiveStore
	events    session.Logger
	logger    *slog.Logger
	timing    Timing
	sleep     SleepFunc
	fallback  models.Language
	candidate string

	mu   sync.RWMutex
	sess *Session

	subMu   sync.Mutex
	subs    map[int]func(Update)
	nextSub int

	executions atomic.Int64
}

// NewController returns a controller with no open contest.
func NewController(api API, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		logger:   slog.Default(),
		timing:   DefaultTiming(),
		sleep:    Sleep,
		fallback: models.LanguagePython,
		subs:     map[int]func(Update){},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.events == nil {
		c.events = session.NopLogger{}
	}
	return c
}

// Open loads a contest, replacing any open one. The first task is entered.
// A failed load still leaves an empty session whose snapshot reports the
// error.
func (c *Controller) Open(ctx context.Context, contestID string) (Snapshot, error) {
	c.closeSession()

	c.mu.RLock()
	fallback := c.fallback
	c.mu.RUnlock()

	catalog := NewCatalogLoader(c.api, fallback, c.logger)
	loadErr := catalog.Load(ctx, contestID)
	lang := catalog.Language()

	sess := &Session{
		CandidateID: c.candidate,
		ContestID:   contestID,
		OpenedAt:    time.Now(),
		catalog:     catalog,
		solutions:   NewSolutionCache(c.api, c.store, contestID, lang, c.logger),
		hints:       NewHintTracker(c.api, c.logger),
		completion:  NewCompletionDetector(c.api, contestID, catalog.TaskIDs(), c.logger),
		comm:        NewCommunicationGate(c.api, c.timing.ThreadRetries, c.timing.ThreadBackoff, c.logger),
	}
	sess.solutions.OnServerLanguage(catalog.ForceLanguage)
	sess.orchestrator = NewOrchestrator(context.Background(), c.api, contestID, c.timing,
		WithOrchestratorLogger(c.logger),
		WithOrchestratorSleep(c.sleep),
		WithNotify(func(u ExecutionUpdate) {
			c.publish(Update{Kind: UpdateExecution, ContestID: u.ContestID, TaskID: u.TaskID, Execution: &u})
		}),
		WithSettle(func(ctx context.Context, out Outcome) { c.settle(ctx, sess, out) }),
	)

	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	if loadErr != nil {
		c.record(session.EventError, session.ErrorData(loadErr.Error(), map[string]any{"contest_id": contestID}))
		return c.Snapshot(), fmt.Errorf("opening contest %s: %w", contestID, loadErr)
	}

	if _, _, err := sess.completion.Reconcile(ctx); err != nil {
		c.logger.Warn("could not seed solved tasks", "contest", contestID, "error", err)
	}
	if sess.completion.View().LocalComplete {
		if _, _, err := sess.completion.Refresh(ctx); err != nil {
			c.logger.Warn("could not load completion status", "contest", contestID, "error", err)
		}
	}

	view := sess.completion.View()
	c.record(session.EventContestOpen, session.ContestOpenData(contestID, string(lang), catalog.Len(), view.SolvedCount))
	c.publish(Update{Kind: UpdateContestOpened, ContestID: contestID, Completion: &view})

	if _, err := c.SelectTask(ctx, catalog.Active()); err != nil {
		return c.Snapshot(), err
	}
	return c.Snapshot(), nil
}

// Survey loads the requisition's survey questions.
func (c *Controller) Survey(ctx context.Context) ([]models.WorkItem, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	return sess.catalog.LoadSurvey(ctx)
}

// Tasks returns the contest tasks in presentation order.
func (c *Controller) Tasks() ([]models.Task, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	return sess.catalog.Tasks(), nil
}

// ActiveTask returns the selected task.
func (c *Controller) ActiveTask() (models.Task, error) {
	sess, err := c.session()
	if err != nil {
		return models.Task{}, err
	}
	t, ok := sess.catalog.Task(sess.catalog.Active())
	if !ok {
		return models.Task{}, ErrEmptyCatalog
	}
	return t, nil
}

// Language returns the locked contest language.
func (c *Controller) Language() (models.Language, error) {
	sess, err := c.session()
	if err != nil {
		return "", err
	}
	return sess.catalog.Language(), nil
}

// SelectTask enters a task: its editor text, hint state and clarification
// thread load concurrently. Partial load failures are reported as warnings.
func (c *Controller) SelectTask(ctx context.Context, taskID string) (TaskView, error) {
	sess, err := c.session()
	if err != nil {
		return TaskView{}, err
	}
	task, ok := sess.catalog.Task(taskID)
	if !ok {
		return TaskView{}, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	if err := sess.catalog.Select(taskID); err != nil {
		return TaskView{}, err
	}

	view := TaskView{
		Task:     task,
		Position: sess.catalog.Position(taskID),
		Total:    sess.catalog.Len(),
	}
	var (
		g                           errgroup.Group
		editorErr, hintErr, commErr error
	)
	g.Go(func() error {
		view.Editor, editorErr = sess.solutions.EnterTask(ctx, taskID)
		return nil
	})
	g.Go(func() error {
		view.Hints, hintErr = sess.hints.EnterTask(ctx, taskID)
		return nil
	})
	g.Go(func() error {
		view.Thread, commErr = sess.comm.EnterTask(ctx, taskID)
		return nil
	})
	_ = g.Wait()

	for _, err := range []error{editorErr, hintErr, commErr} {
		if err != nil {
			c.logger.Warn("task entry incomplete", "task", taskID, "error", err)
			view.Warnings = append(view.Warnings, err.Error())
		}
	}
	view.Solved = sess.completion.IsSolved(taskID)

	c.record(session.EventTaskEnter, session.TaskEnterData(taskID, task.Title, view.Position, view.Total, string(view.Editor.Origin)))
	c.publish(Update{Kind: UpdateTaskSelected, ContestID: sess.ContestID, TaskID: taskID, Hint: &view.Hints, Thread: view.Thread})
	return view, nil
}

// Edit replaces the live editor text of a task.
func (c *Controller) Edit(taskID, text string) error {
	sess, err := c.session()
	if err != nil {
		return err
	}
	if _, ok := sess.catalog.Task(taskID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return sess.solutions.Edit(taskID, text)
}

// Source returns the live editor text of a task, entering it first when
// it was never loaded.
func (c *Controller) Source(ctx context.Context, taskID string) (string, error) {
	sess, err := c.session()
	if err != nil {
		return "", err
	}
	if _, ok := sess.catalog.Task(taskID); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	if text, ok := sess.solutions.Source(taskID); ok {
		return text, nil
	}
	st, err := sess.solutions.EnterTask(ctx, taskID)
	if err != nil {
		c.logger.Warn("using local editor text", "task", taskID, "error", err)
	}
	return st.Source, nil
}

// SetLanguage is refused once the contest language is locked.
func (c *Controller) SetLanguage(lang models.Language) error {
	sess, err := c.session()
	if err != nil {
		if lang.Valid() {
			c.mu.Lock()
			c.fallback = lang
			c.mu.Unlock()
			return nil
		}
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	return sess.catalog.SetLanguage(lang)
}

// Run executes the live text of a task against its open tests.
func (c *Controller) Run(ctx context.Context, taskID string) (*Handle, error) {
	return c.start(ctx, taskID, models.ModeRun)
}

// Submit grades the live text of a task against open and hidden tests.
func (c *Controller) Submit(ctx context.Context, taskID string) (*Handle, error) {
	return c.start(ctx, taskID, models.ModeSubmit)
}

func (c *Controller) start(ctx context.Context, taskID string, mode models.RunMode) (*Handle, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	task, ok := sess.catalog.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	src, err := c.Source(ctx, taskID)
	if err != nil {
		return nil, err
	}
	sess.catalog.Commit()

	h, err := sess.orchestrator.Start(ctx, RunRequest{
		TaskID:    taskID,
		Mode:      mode,
		Language:  sess.catalog.Language(),
		Source:    src,
		OpenTests: task.OpenTests,
	})
	if err != nil {
		if !errors.Is(err, ErrLaneBusy) {
			c.record(session.EventError, session.ErrorData(err.Error(), map[string]any{"task_id": taskID, "mode": string(mode)}))
		}
		return nil, err
	}
	c.executions.Add(1)
	c.record(session.EventExecutionStart, session.ExecutionStartData(h.ExecutionID(), taskID, string(mode), h.TestCount()))
	return h, nil
}

// Wait blocks until the execution and its follow-up work are done.
func (c *Controller) Wait(ctx context.Context, h *Handle) (Outcome, error) {
	return h.Wait(ctx)
}

// Lane returns the state of a task's run or submit lane.
func (c *Controller) Lane(taskID string, mode models.RunMode) (LaneView, error) {
	sess, err := c.session()
	if err != nil {
		return LaneView{}, err
	}
	return sess.orchestrator.Status(taskID, mode), nil
}

// settle runs in the poll goroutine once an execution is final. It applies
// the outcome to the session that started it, not the current one.
func (c *Controller) settle(ctx context.Context, sess *Session, out Outcome) {
	res := out.Result()
	verdict := ""
	if res != nil {
		verdict = res.Verdict
	}
	c.record(session.EventExecutionComplete, session.ExecutionCompleteData(
		out.ExecutionID, out.TaskID, string(out.Mode), string(out.State), verdict, res.Passed(), out.TestCount, out.Attempts))

	if out.State != LaneCompleted {
		if out.Err != nil && !errors.Is(out.Err, context.Canceled) {
			c.record(session.EventError, session.ErrorData(out.Err.Error(), map[string]any{
				"task_id": out.TaskID, "execution_id": out.ExecutionID, "state": string(out.State),
			}))
		}
		return
	}

	if _, err := sess.solutions.RefreshMeta(ctx, out.TaskID); err != nil {
		c.logger.Debug("could not refresh solution meta", "task", out.TaskID, "error", err)
	}

	if out.Mode != models.ModeSubmit || !out.Accepted() {
		return
	}

	added, completed := sess.completion.MarkSolved(out.TaskID)
	if added {
		c.solved(sess, out.TaskID, "optimistic")
	}
	if completed {
		c.completed(sess, "local")
	}

	if err := c.sleep(ctx, c.timing.ReconcileDelay); err != nil {
		return
	}
	newIDs, completed, err := sess.completion.Reconcile(ctx)
	if err != nil {
		c.logger.Warn("solved list reconciliation failed", "contest", sess.ContestID, "error", err)
	}
	for _, id := range newIDs {
		c.solved(sess, id, "server")
	}
	if completed {
		c.completed(sess, "local")
	}
	if _, flipped, err := sess.completion.Refresh(ctx); err != nil {
		c.logger.Warn("completion status refresh failed", "contest", sess.ContestID, "error", err)
	} else if flipped {
		c.completed(sess, "server")
	}

	th, err := sess.comm.Await(ctx, out.TaskID)
	if err != nil {
		c.logger.Warn("communication fetch failed", "task", out.TaskID, "error", err)
		return
	}
	if th != nil {
		c.publish(Update{Kind: UpdateCommunication, ContestID: sess.ContestID, TaskID: out.TaskID, Thread: th})
	}
}

func (c *Controller) solved(sess *Session, taskID, origin string) {
	view := sess.completion.View()
	c.record(session.EventTaskSolved, session.TaskSolvedData(taskID, origin, view.SolvedCount, view.Total))
	c.publish(Update{Kind: UpdateTaskSolved, ContestID: sess.ContestID, TaskID: taskID, Completion: &view})
}

func (c *Controller) completed(sess *Session, signal string) {
	view := sess.completion.View()
	c.record(session.EventContestComplete, session.ContestCompleteData(sess.ContestID, signal))
	c.publish(Update{Kind: UpdateCompletion, ContestID: sess.ContestID, Completion: &view})
}

// RequestHint reveals a hint tier for a task.
func (c *Controller) RequestHint(ctx context.Context, taskID string, tier models.HintTier) (HintResult, error) {
	sess, err := c.session()
	if err != nil {
		return HintResult{}, err
	}
	if _, ok := sess.catalog.Task(taskID); !ok {
		return HintResult{}, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	res, err := sess.hints.RequestHint(ctx, taskID, tier)
	if err != nil {
		return res, err
	}
	if res.Charged {
		c.record(session.EventHintConsumed, session.HintConsumedData(taskID, string(tier), tier.Weight(), res.View.Penalty))
		c.publish(Update{Kind: UpdateHint, ContestID: sess.ContestID, TaskID: taskID, Hint: &res.View})
	}
	return res, nil
}

// Hints returns the hint economy of a task.
func (c *Controller) Hints(taskID string) (HintView, error) {
	sess, err := c.session()
	if err != nil {
		return HintView{}, err
	}
	return sess.hints.View(taskID), nil
}

// Completion returns contest progress.
func (c *Controller) Completion() (CompletionView, error) {
	sess, err := c.session()
	if err != nil {
		return CompletionView{}, err
	}
	return sess.completion.View(), nil
}

// RefreshCompletion reconciles the solved set and queries the server
// completion status.
func (c *Controller) RefreshCompletion(ctx context.Context) (CompletionView, error) {
	sess, err := c.session()
	if err != nil {
		return CompletionView{}, err
	}
	newIDs, completed, err := sess.completion.Reconcile(ctx)
	if err != nil {
		return sess.completion.View(), err
	}
	for _, id := range newIDs {
		c.solved(sess, id, "server")
	}
	if completed {
		c.completed(sess, "local")
	}
	view, flipped, err := sess.completion.Refresh(ctx)
	if err != nil {
		return view, err
	}
	if flipped {
		c.completed(sess, "server")
	}
	return view, nil
}

// Communication returns the cached clarification thread of a task.
func (c *Controller) Communication(taskID string) (*models.CommunicationThread, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	return sess.comm.Thread(taskID), nil
}

// RefreshCommunication re-fetches the clarification thread of a task.
func (c *Controller) RefreshCommunication(ctx context.Context, taskID string) (*models.CommunicationThread, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	th, err := sess.comm.Refresh(ctx, taskID)
	if err != nil {
		return th, err
	}
	c.publish(Update{Kind: UpdateCommunication, ContestID: sess.ContestID, TaskID: taskID, Thread: th})
	return th, nil
}

// Answer sends the answer to a task's clarification question.
func (c *Controller) Answer(ctx context.Context, taskID, answer string) (*models.CommunicationThread, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	th, err := sess.comm.Answer(ctx, taskID, answer)
	if err != nil {
		return th, err
	}
	c.record(session.EventCommunicationAnswer, session.CommunicationAnswerData(taskID, string(th.Status), len([]rune(th.Answer))))
	c.publish(Update{Kind: UpdateCommunication, ContestID: sess.ContestID, TaskID: taskID, Thread: th})
	return th, nil
}

// Snapshot returns a copy of the session aggregate. Without an open
// contest it is empty.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	sess := c.sess
	c.mu.RUnlock()
	if sess == nil {
		return Snapshot{CandidateID: c.candidate, Tasks: []models.Task{}, SolvedTaskIDs: []string{}}
	}

	completion := sess.completion.View()
	snap := Snapshot{
		CandidateID:    sess.CandidateID,
		ContestID:      sess.ContestID,
		Vacancy:        sess.catalog.Vacancy(),
		LockedLanguage: sess.catalog.Language(),
		Tasks:          sess.catalog.Tasks(),
		ActiveTaskID:   sess.catalog.Active(),
		SolvedTaskIDs:  completion.Solved,
		Completion:     completion,
		Hints:          sess.hints.Views(),
		Lanes:          sess.orchestrator.Lanes(),
		Threads:        sess.comm.Threads(),
	}
	if err := sess.catalog.Err(); err != nil {
		snap.LoadError = err.Error()
	}
	return snap
}

// Stats returns counters for the session summary.
func (c *Controller) Stats() (solved, total, executions int) {
	snap := c.Snapshot()
	return snap.Completion.SolvedCount, snap.Completion.Total, int(c.executions.Load())
}

// Subscribe registers fn for every Update. Calls are made from the
// goroutine that caused the change, so fn must not block.
func (c *Controller) Subscribe(fn func(Update)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) publish(u Update) {
	c.subMu.Lock()
	fns := make([]func(Update), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

func (c *Controller) record(t session.EventType, data map[string]any) {
	session.Record(c.events, t, data)
}

func (c *Controller) session() (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sess == nil {
		return nil, ErrNoContest
	}
	return c.sess, nil
}

func (c *Controller) closeSession() {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()
	if sess != nil {
		sess.orchestrator.Close()
	}
}

// Close stops every poll loop and drops the session.
func (c *Controller) Close() error {
	c.closeSession()
	return nil
}
