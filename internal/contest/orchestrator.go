package contest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/futurecareers/contestide/internal/logging"
	"github.com/futurecareers/contestide/internal/models"
	"github.com/puzpuzpuz/xsync/v3"
)

// LaneState is the client-side state of an execution lane.
type LaneState string

const (
	LaneIdle      LaneState = "idle"
	LanePending   LaneState = "pending"
	LaneRunning   LaneState = "running"
	LaneCompleted LaneState = "completed"
	LaneFailed    LaneState = "failed"
	LaneTimedOut  LaneState = "timed_out"
)

// Terminal reports whether the lane is settled.
func (s LaneState) Terminal() bool {
	return s == LaneCompleted || s == LaneFailed || s == LaneTimedOut
}

func (s LaneState) rank() int {
	switch s {
	case LanePending:
		return 1
	case LaneRunning:
		return 2
	case LaneCompleted, LaneFailed, LaneTimedOut:
		return 3
	}
	return 0
}

// LaneKey identifies a lane. Run and submit of the same task are separate
// lanes.
type LaneKey struct {
	TaskID string         `json:"task_id"`
	Mode   models.RunMode `json:"mode"`
}

// ExecutionUpdate is sent to subscribers on every lane state change.
type ExecutionUpdate struct {
	ExecutionID string            `json:"execution_id"`
	TaskID      string            `json:"task_id"`
	ContestID   string            `json:"contest_id"`
	Mode        models.RunMode    `json:"mode"`
	State       LaneState         `json:"state"`
	Attempt     int               `json:"attempt"`
	Execution   *models.Execution `json:"execution,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Outcome is the settled result of one execution.
type Outcome struct {
	ExecutionID string
	TaskID      string
	ContestID   string
	Mode        models.RunMode
	State       LaneState
	Attempts    int
	TestCount   int
	Execution   *models.Execution
	Err         error
}

// Result returns the execution result, or nil.
func (o Outcome) Result() *models.ExecutionResult {
	if o.Execution == nil {
		return nil
	}
	return o.Execution.Result
}

// Accepted reports whether the execution completed with an ACCEPTED verdict.
func (o Outcome) Accepted() bool {
	return o.State == LaneCompleted && o.Result().Accepted()
}

// Update converts the outcome into its final ExecutionUpdate.
func (o Outcome) Update() ExecutionUpdate {
	u := ExecutionUpdate{
		ExecutionID: o.ExecutionID,
		TaskID:      o.TaskID,
		ContestID:   o.ContestID,
		Mode:        o.Mode,
		State:       o.State,
		Attempt:     o.Attempts,
		Execution:   o.Execution,
	}
	if o.Err != nil {
		u.Error = o.Err.Error()
	}
	return u
}

// Handle tracks one in-flight execution.
type Handle struct {
	key       LaneKey
	id        string
	testCount int
	cancel    context.CancelFunc
	done      chan struct{}

	mu      sync.Mutex
	latest  ExecutionUpdate
	outcome Outcome
}

// ExecutionID returns the server id of the execution.
func (h *Handle) ExecutionID() string { return h.id }

// Key returns the lane of the execution.
func (h *Handle) Key() LaneKey { return h.key }

// TestCount returns the number of test cases sent.
func (h *Handle) TestCount() int { return h.testCount }

// Done is closed once the outcome is final and all follow-up work for it
// has run.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Cancel stops client-side polling. The server job keeps running.
func (h *Handle) Cancel() { h.cancel() }

// Wait blocks until the execution settles or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.outcome, h.outcome.Err
	}
}

// Latest returns the most recent update of the execution.
func (h *Handle) Latest() ExecutionUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

func (h *Handle) advance(u ExecutionUpdate) (ExecutionUpdate, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if u.State.rank() < h.latest.State.rank() {
		u.State = h.latest.State
	}
	changed := u.State != h.latest.State
	h.latest = u
	return u, changed
}

// RunRequest is what the orchestrator needs to start an execution.
type RunRequest struct {
	TaskID    string
	Mode      models.RunMode
	Language  models.Language
	Source    string
	OpenTests []models.TestCase
}

// Orchestrator starts executions and polls them to a terminal state, at
// most one in flight per lane. Poll loops outlive the call that started
// them and apply their results by the ids they captured.
type Orchestrator struct {
	api       ExecutionAPI
	contestID string
	timing    Timing
	sleep     SleepFunc
	logger    *slog.Logger
	notify    func(ExecutionUpdate)
	settle    func(context.Context, Outcome)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool

	lanes *xsync.MapOf[LaneKey, *Handle]
	last  *xsync.MapOf[LaneKey, Outcome]
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithNotify sets the callback for lane state changes.
func WithNotify(fn func(ExecutionUpdate)) OrchestratorOption {
	return func(o *Orchestrator) { o.notify = fn }
}

// WithSettle sets the hook run once per execution after it settles and
// before its handle is released.
func WithSettle(fn func(context.Context, Outcome)) OrchestratorOption {
	return func(o *Orchestrator) { o.settle = fn }
}

// WithOrchestratorSleep replaces the real-clock sleep.
func WithOrchestratorSleep(fn SleepFunc) OrchestratorOption {
	return func(o *Orchestrator) { o.sleep = fn }
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator returns an orchestrator for one contest. Poll loops run
// under a context derived from parent; Close cancels it.
func NewOrchestrator(parent context.Context, api ExecutionAPI, contestID string, timing Timing, opts ...OrchestratorOption) *Orchestrator {
	ctx, cancel := context.WithCancel(parent)
	o := &Orchestrator{
		api:       api,
		contestID: contestID,
		timing:    timing.withDefaults(),
		sleep:     Sleep,
		logger:    slog.Default(),
		ctx:       ctx,
		cancel:    cancel,
		lanes:     xsync.NewMapOf[LaneKey, *Handle](),
		last:      xsync.NewMapOf[LaneKey, Outcome](),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start creates an execution and begins polling it. A busy lane is refused
// with ErrLaneBusy before any network call. A submit fetches the full test
// set first and creates nothing if that fails.
func (o *Orchestrator) Start(ctx context.Context, req RunRequest) (*Handle, error) {
	if !req.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	o.mu.Unlock()

	key := LaneKey{TaskID: req.TaskID, Mode: req.Mode}
	h := &Handle{key: key, done: make(chan struct{})}
	if _, busy := o.lanes.LoadOrStore(key, h); busy {
		return nil, fmt.Errorf("%w: %s %s", ErrLaneBusy, req.Mode, req.TaskID)
	}

	tests := req.OpenTests
	if req.Mode == models.ModeSubmit {
		full, err := o.api.TestsForSubmit(ctx, req.TaskID)
		if err == nil && full == nil {
			err = errors.New("empty response")
		}
		if err != nil {
			o.lanes.Delete(key)
			return nil, fmt.Errorf("%w: %w", ErrSubmitTestsUnavailable, err)
		}
		tests = full.Combined()
	}

	exec, err := o.api.CreateExecution(ctx, models.ExecutionRequest{
		Language:  req.Language,
		Files:     map[string]string{req.Language.SolutionFile(): req.Source},
		Timeout:   o.timing.ExecutionTimeout,
		TestCases: tests,
		TaskID:    req.TaskID,
		VacancyID: o.contestID,
		IsSubmit:  req.Mode == models.ModeSubmit,
	})
	if err == nil && exec == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		o.lanes.Delete(key)
		return nil, fmt.Errorf("creating execution: %w", err)
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		o.lanes.Delete(key)
		return nil, ErrClosed
	}
	o.wg.Add(1)
	o.mu.Unlock()

	pollCtx, cancel := context.WithCancel(o.ctx)
	h.id = exec.ID
	h.testCount = len(tests)
	h.cancel = cancel

	o.publish(h, ExecutionUpdate{
		ExecutionID: exec.ID,
		TaskID:      req.TaskID,
		ContestID:   o.contestID,
		Mode:        req.Mode,
		State:       stateOf(exec.Status),
		Execution:   exec,
	})
	o.logger.Debug("execution created", "execution_id", exec.ID, "task", req.TaskID, "mode", req.Mode, "tests", len(tests))

	go o.poll(pollCtx, h, exec)
	return h, nil
}

func (o *Orchestrator) poll(ctx context.Context, h *Handle, exec *models.Execution) {
	defer o.wg.Done()
	defer h.cancel()

	out := Outcome{
		ExecutionID: h.id,
		TaskID:      h.key.TaskID,
		ContestID:   o.contestID,
		Mode:        h.key.Mode,
		TestCount:   h.testCount,
		Execution:   exec,
	}

	for attempt := 1; !out.State.Terminal(); attempt++ {
		if err := o.sleep(ctx, o.timing.PollInterval); err != nil {
			out.State = LaneFailed
			out.Err = fmt.Errorf("polling execution %s stopped: %w", h.id, err)
			break
		}

		cur, err := o.api.GetExecution(ctx, h.id)
		out.Attempts = attempt
		if err != nil {
			out.State = LaneFailed
			out.Err = fmt.Errorf("polling execution %s: %w", h.id, err)
			break
		}
		if cur != nil {
			out.Execution = cur
		}
		logging.LogExecution(o.logger, "execution polled", out.Execution)

		switch out.Execution.Status {
		case models.ExecutionCompleted:
			out.State = LaneCompleted
		case models.ExecutionFailed:
			out.State = LaneFailed
			out.Err = fmt.Errorf("%w: %s", ErrExecutionFailed, failureMessage(out.Execution))
		default:
			if attempt >= o.timing.MaxAttempts {
				out.State = LaneTimedOut
				out.Err = fmt.Errorf("%w after %d attempts", ErrTimeout, attempt)
				break
			}
			o.publish(h, ExecutionUpdate{
				ExecutionID: h.id,
				TaskID:      h.key.TaskID,
				ContestID:   o.contestID,
				Mode:        h.key.Mode,
				State:       stateOf(out.Execution.Status),
				Attempt:     attempt,
				Execution:   out.Execution,
			})
		}
	}

	o.finish(ctx, h, out)
}

func (o *Orchestrator) finish(ctx context.Context, h *Handle, out Outcome) {
	o.last.Store(h.key, out)
	o.publish(h, out.Update())
	o.lanes.Delete(h.key)

	if out.Err != nil && !errors.Is(out.Err, context.Canceled) {
		o.logger.Debug("execution settled with error", "execution_id", h.id, "state", out.State, "error", out.Err)
	}

	if o.settle != nil {
		o.settle(ctx, out)
	}

	h.mu.Lock()
	h.outcome = out
	h.mu.Unlock()
	close(h.done)
}

func (o *Orchestrator) publish(h *Handle, u ExecutionUpdate) {
	u, changed := h.advance(u)
	if changed && o.notify != nil {
		o.notify(u)
	}
}

// LaneView describes one lane for snapshots.
type LaneView struct {
	LaneKey
	ExecutionID string    `json:"execution_id,omitempty"`
	State       LaneState `json:"state"`
	Attempt     int       `json:"attempt,omitempty"`
	Verdict     string    `json:"verdict,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Status returns the state of a lane: the in-flight execution, else the
// last settled one, else idle.
func (o *Orchestrator) Status(taskID string, mode models.RunMode) LaneView {
	key := LaneKey{TaskID: taskID, Mode: mode}
	if h, ok := o.lanes.Load(key); ok {
		if u := h.Latest(); u.ExecutionID != "" {
			return viewOf(key, u)
		}
	}
	if out, ok := o.last.Load(key); ok {
		return viewOf(key, out.Update())
	}
	return LaneView{LaneKey: key, State: LaneIdle}
}

// Last returns the last settled outcome of a lane.
func (o *Orchestrator) Last(taskID string, mode models.RunMode) (Outcome, bool) {
	return o.last.Load(LaneKey{TaskID: taskID, Mode: mode})
}

// Lanes returns every lane that is in flight or has settled.
func (o *Orchestrator) Lanes() []LaneView {
	seen := map[LaneKey]bool{}
	var out []LaneView
	o.lanes.Range(func(k LaneKey, h *Handle) bool {
		if u := h.Latest(); u.ExecutionID != "" {
			seen[k] = true
			out = append(out, viewOf(k, u))
		}
		return true
	})
	o.last.Range(func(k LaneKey, oc Outcome) bool {
		if !seen[k] {
			out = append(out, viewOf(k, oc.Update()))
		}
		return true
	})
	return out
}

// InFlight returns the number of executions being polled.
func (o *Orchestrator) InFlight() int {
	return o.lanes.Size()
}

// Close cancels every poll loop and waits for them to return.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()
	o.wg.Wait()
}

func viewOf(key LaneKey, u ExecutionUpdate) LaneView {
	v := LaneView{
		LaneKey:     key,
		ExecutionID: u.ExecutionID,
		State:       u.State,
		Attempt:     u.Attempt,
		Error:       u.Error,
	}
	if u.Execution != nil && u.Execution.Result != nil {
		v.Verdict = u.Execution.Result.Verdict
	}
	return v
}

func stateOf(s models.ExecutionStatus) LaneState {
	switch s {
	case models.ExecutionRunning:
		return LaneRunning
	case models.ExecutionCompleted:
		return LaneCompleted
	case models.ExecutionFailed:
		return LaneFailed
	}
	return LanePending
}

func failureMessage(e *models.Execution) string {
	if e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	if e.Result != nil && e.Result.Stderr != "" {
		return e.Result.Stderr
	}
	return "no details"
}
