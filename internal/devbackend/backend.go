// Package devbackend is an in-memory contest backend speaking the same
// HTTP contract as the production service. It backs `contestide devbackend`
// and end-to-end tests.
package devbackend

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/futurecareers/contestide/internal/models"
	"github.com/google/uuid"
)

// Options tunes backend behavior for scenarios.
type Options struct {
	// RunningPolls is how many execution fetches report "running" before
	// the result is returned.
	RunningPolls int
	// ThreadLag is how many communication fetches answer null after an
	// accepted submit before the thread appears.
	ThreadLag int
	// FailTestsForSubmit makes tests-for-submit answer 500.
	FailTestsForSubmit bool
	// NeverComplete keeps every execution running.
	NeverComplete bool
	Judge         Judge
	Logger        *slog.Logger
	Now           func() time.Time
}

// RequestRecord is one request the backend served.
type RequestRecord struct {
	Method string
	Path   string
}

// Backend holds the state of every contest in a fixture.
type Backend struct {
	mu   sync.Mutex
	opts Options

	tokens     mapset.Set[string]
	contests   map[string]*FixtureContest
	tasks      map[string]*taskState
	executions map[string]*execution
	requests   []RequestRecord
	submits    []models.ExecutionRequest
	runs       []models.ExecutionRequest
}

type taskState struct {
	contestID string
	task      *FixtureTask
	solved    bool
	last      *models.LastSolution
	used      mapset.Set[models.HintTier]
	thread    *models.CommunicationThread
	threadLag int
}

type execution struct {
	exec   models.Execution
	req    models.ExecutionRequest
	result models.ExecutionResult
	polls  int
}

// apiError is rendered as a FastAPI error body.
type apiError struct {
	status int
	detail string
	fields []fieldError
}

func (e *apiError) Error() string { return e.detail }

type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func notFound(format string, args ...any) *apiError {
	return &apiError{status: http.StatusNotFound, detail: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *apiError {
	return &apiError{status: http.StatusBadRequest, detail: fmt.Sprintf(format, args...)}
}

func invalid(field, msg string) *apiError {
	return &apiError{
		status: http.StatusUnprocessableEntity,
		detail: msg,
		fields: []fieldError{{Loc: []string{"body", field}, Msg: msg, Type: "value_error"}},
	}
}

// New creates a backend seeded from f.
func New(f *Fixture, opts Options) *Backend {
	if opts.Judge == nil {
		opts.Judge = DefaultJudge
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	b := &Backend{
		opts:       opts,
		tokens:     mapset.NewSet(f.Tokens...),
		contests:   make(map[string]*FixtureContest),
		tasks:      make(map[string]*taskState),
		executions: make(map[string]*execution),
	}
	for i := range f.Contests {
		c := &f.Contests[i]
		b.contests[c.ID] = c
		for j := range c.Tasks {
			t := &c.Tasks[j]
			t.VacancyID = c.ID
			st := &taskState{contestID: c.ID, task: t, used: mapset.NewThreadUnsafeSet[models.HintTier]()}
			if t.LastSolution != "" {
				code := t.LastSolution
				st.last = &models.LastSolution{
					SolutionCode: &code,
					Language:     c.Vacancy.Language,
					Status:       "completed",
					UpdatedAt:    models.NewTimestamp(opts.Now()),
				}
			}
			b.tasks[t.ID] = st
		}
	}
	return b
}

// Requests returns the requests served so far.
func (b *Backend) Requests() []RequestRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// CountRequests counts served requests matching method and path.
func (b *Backend) CountRequests(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// RunRequests returns the execution requests created in run mode.
func (b *Backend) RunRequests() []models.ExecutionRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.runs)
}

// SubmitRequests returns the execution requests created in submit mode.
func (b *Backend) SubmitRequests() []models.ExecutionRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.submits)
}

// SetOptions replaces the scenario knobs. Judge, Logger and Now keep their
// values when zero.
func (b *Backend) SetOptions(opts Options) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if opts.Judge == nil {
		opts.Judge = b.opts.Judge
	}
	if opts.Logger == nil {
		opts.Logger = b.opts.Logger
	}
	if opts.Now == nil {
		opts.Now = b.opts.Now
	}
	b.opts = opts
}

func (b *Backend) record(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, RequestRecord{Method: method, Path: path})
}

func (b *Backend) authorized(token string) bool {
	if token == "" {
		return false
	}
	return b.tokens.Cardinality() == 0 || b.tokens.Contains(token)
}

func (b *Backend) contest(id string) (*FixtureContest, *apiError) {
	c, ok := b.contests[id]
	if !ok {
		return nil, notFound("Vacancy %s not found", id)
	}
	return c, nil
}

func (b *Backend) task(id string) (*taskState, *apiError) {
	st, ok := b.tasks[id]
	if !ok {
		return nil, notFound("Task %s not found", id)
	}
	return st, nil
}

func (b *Backend) vacancy(contestID string) (*models.Vacancy, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.contest(contestID)
	if err != nil {
		return nil, err
	}
	v := c.Vacancy
	v.ID = c.ID
	return &v, nil
}

func (b *Backend) surveyQuestions(contestID string) ([]models.SurveyQuestion, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.contest(contestID)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(c.Survey)
	if out == nil {
		out = []models.SurveyQuestion{}
	}
	return out, nil
}

func (b *Backend) contestTasks(contestID string) ([]models.Task, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.contest(contestID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		out = append(out, t.Task)
	}
	return out, nil
}

func (b *Backend) getTask(taskID string) (*models.Task, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.task(taskID)
	if err != nil {
		return nil, err
	}
	t := st.task.Task
	return &t, nil
}

func (b *Backend) lastSolution(taskID, contestID string) (*models.LastSolution, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.task(taskID)
	if err != nil {
		return nil, err
	}
	if contestID != "" && contestID != st.contestID {
		return nil, notFound("Solution not found")
	}
	if st.last == nil {
		return nil, notFound("Solution not found")
	}
	ls := *st.last
	return &ls, nil
}

func (b *Backend) testsForSubmit(taskID string) (*models.SubmitTests, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opts.FailTestsForSubmit {
		return nil, &apiError{status: http.StatusInternalServerError, detail: "Test storage unavailable"}
	}
	st, err := b.task(taskID)
	if err != nil {
		return nil, err
	}
	return &models.SubmitTests{
		OpenTests:   slices.Clone(st.task.OpenTests),
		HiddenTests: slices.Clone(st.task.HiddenTests),
	}, nil
}

func (b *Backend) solvedTasks(contestID string) ([]string, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.contest(contestID)
	if err != nil {
		return nil, err
	}
	return b.solvedIDs(c), nil
}

func (b *Backend) solvedIDs(c *FixtureContest) []string {
	ids := []string{}
	for _, t := range c.Tasks {
		if b.tasks[t.ID].solved {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func (b *Backend) completionStatus(contestID string) (*models.CompletionStatus, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.contest(contestID)
	if err != nil {
		return nil, err
	}
	ids := b.solvedIDs(c)
	return &models.CompletionStatus{
		AllSolved:   len(c.Tasks) > 0 && len(ids) == len(c.Tasks),
		TotalTasks:  len(c.Tasks),
		SolvedTasks: len(ids),
		TaskIDs:     ids,
	}, nil
}

func (b *Backend) createExecution(req models.ExecutionRequest) (*models.Execution, *apiError) {
	if !req.Language.Valid() {
		return nil, invalid("language", fmt.Sprintf("unsupported language %q", req.Language))
	}
	if len(req.Files) == 0 {
		return nil, invalid("files", "at least one file is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var task *FixtureTask
	if req.TaskID != "" {
		st, err := b.task(req.TaskID)
		if err != nil {
			return nil, err
		}
		task = st.task
		if req.IsSubmit {
			c := b.contests[st.contestID]
			if want := models.NormalizeLanguage(c.Vacancy.Language); req.Language != want {
				return nil, badRequest("Language mismatch: this contest requires %s", want.Label())
			}
		}
	}

	now := models.NewTimestamp(b.opts.Now())
	e := &execution{
		req:    req,
		result: b.opts.Judge(task, req),
		exec: models.Execution{
			ID:        uuid.NewString(),
			Language:  req.Language,
			Status:    models.ExecutionPending,
			Files:     req.Files,
			CreatedAt: now,
		},
	}
	b.executions[e.exec.ID] = e
	if req.IsSubmit {
		b.submits = append(b.submits, req)
	} else {
		b.runs = append(b.runs, req)
	}

	b.opts.Logger.Debug("execution created",
		"execution_id", e.exec.ID,
		"task_id", req.TaskID,
		"submit", req.IsSubmit,
		"tests", len(req.TestCases),
	)
	out := e.exec
	return &out, nil
}

func (b *Backend) getExecution(id string) (*models.Execution, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.executions[id]
	if !ok {
		return nil, notFound("Execution %s not found", id)
	}
	if !e.exec.Status.Terminal() {
		e.polls++
		switch {
		case b.opts.NeverComplete || e.polls <= b.opts.RunningPolls:
			e.exec.Status = models.ExecutionRunning
			if e.exec.StartedAt.IsZero() {
				e.exec.StartedAt = models.NewTimestamp(b.opts.Now())
			}
		default:
			b.complete(e)
		}
	}
	out := e.exec
	return &out, nil
}

// complete settles an execution and applies a submit's grading.
func (b *Backend) complete(e *execution) {
	now := models.NewTimestamp(b.opts.Now())
	if e.exec.StartedAt.IsZero() {
		e.exec.StartedAt = now
	}
	e.exec.CompletedAt = now
	e.exec.Status = models.ExecutionCompleted
	res := e.result
	e.exec.Result = &res

	if !e.req.IsSubmit || e.req.TaskID == "" {
		return
	}
	st := b.tasks[e.req.TaskID]
	code := e.req.Files[e.req.Language.SolutionFile()]
	passed := res.Accepted()
	st.last = &models.LastSolution{
		SolutionCode: &code,
		Language:     string(e.req.Language),
		Status:       "completed",
		Verdict:      res.Verdict,
		UpdatedAt:    now,
		ML:           &models.MLMeta{Passed: &passed, Feedback: mlFeedback(passed)},
	}
	if !passed {
		return
	}
	st.solved = true
	if st.thread == nil && st.task.Question != "" {
		st.thread = &models.CommunicationThread{
			ID:        uuid.NewString(),
			TaskID:    st.task.ID,
			VacancyID: st.contestID,
			Question:  st.task.Question,
			Status:    models.ThreadPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.threadLag = b.opts.ThreadLag
	}
}

func mlFeedback(passed bool) string {
	if passed {
		return "Correct and readable solution."
	}
	return "Some tests fail. Check the edge cases."
}

func (b *Backend) requestHint(req models.HintRequest) (*models.HintResponse, *apiError) {
	if !req.HintLevel.Valid() {
		return nil, invalid("hint_level", fmt.Sprintf("unknown hint level %q", req.HintLevel))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.task(req.TaskID)
	if err != nil {
		return nil, err
	}
	content, ok := st.task.Hints[req.HintLevel]
	if !ok {
		return nil, notFound("Hint %s is not available for this task", req.HintLevel)
	}
	if st.used.Contains(req.HintLevel) {
		return nil, badRequest("Hint %s already used for this task", req.HintLevel)
	}
	st.used.Add(req.HintLevel)
	return &models.HintResponse{
		Content:        content,
		Penalty:        float64(req.HintLevel.Weight()),
		RemainingHints: len(b.available(st)),
	}, nil
}

func (b *Backend) usedHints(taskID string) ([]models.HintTier, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.task(taskID)
	if err != nil {
		return nil, err
	}
	out := []models.HintTier{}
	for _, tier := range models.HintTiers {
		if st.used.Contains(tier) {
			out = append(out, tier)
		}
	}
	return out, nil
}

func (b *Backend) availableHints(taskID string) ([]models.HintTier, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.task(taskID)
	if err != nil {
		return nil, err
	}
	return b.available(st), nil
}

func (b *Backend) available(st *taskState) []models.HintTier {
	out := []models.HintTier{}
	for _, tier := range models.HintTiers {
		if _, ok := st.task.Hints[tier]; ok && !st.used.Contains(tier) {
			out = append(out, tier)
		}
	}
	return out
}

// communication returns the thread of a task, nil while none is visible.
// An answered thread is graded on the next fetch.
func (b *Backend) communication(taskID string) (*models.CommunicationThread, *apiError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.task(taskID)
	if err != nil {
		return nil, err
	}
	if st.thread == nil {
		return nil, nil
	}
	if st.threadLag > 0 {
		st.threadLag--
		return nil, nil
	}
	if st.thread.Status == models.ThreadEvaluating {
		score := 0.8
		st.thread.Status = models.ThreadCompleted
		st.thread.MLScore = &score
		st.thread.MLFeedback = "Clear reasoning about the trade-offs."
		st.thread.UpdatedAt = models.NewTimestamp(b.opts.Now())
	}
	th := *st.thread
	return &th, nil
}

func (b *Backend) answerCommunication(taskID, answer string) (*models.CommunicationThread, *apiError) {
	if answer == "" {
		return nil, invalid("answer", "answer must not be empty")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	st, err := b.task(taskID)
	if err != nil {
		return nil, err
	}
	if st.thread == nil || st.threadLag > 0 {
		return nil, notFound("No clarification question for task %s", taskID)
	}
	if st.thread.Status != models.ThreadPending {
		return nil, &apiError{status: http.StatusConflict, detail: "Answer already submitted"}
	}
	st.thread.Answer = answer
	st.thread.Status = models.ThreadEvaluating
	st.thread.UpdatedAt = models.NewTimestamp(b.opts.Now())
	th := *st.thread
	return &th, nil
}
