package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/futurecareers/contestide/internal/contest"
	"github.com/futurecareers/contestide/internal/models"
	"golang.org/x/text/message"
)

// Controller is the contest controller surface the bridge drives.
type Controller interface {
	Open(ctx context.Context, contestID string) (contest.Snapshot, error)
	Snapshot() contest.Snapshot
	Tasks() ([]models.Task, error)
	Survey(ctx context.Context) ([]models.WorkItem, error)
	SelectTask(ctx context.Context, taskID string) (contest.TaskView, error)
	Edit(taskID, text string) error
	Source(ctx context.Context, taskID string) (string, error)
	SetLanguage(lang models.Language) error
	Run(ctx context.Context, taskID string) (*contest.Handle, error)
	Submit(ctx context.Context, taskID string) (*contest.Handle, error)
	Lane(taskID string, mode models.RunMode) (contest.LaneView, error)
	RequestHint(ctx context.Context, taskID string, tier models.HintTier) (contest.HintResult, error)
	Hints(taskID string) (contest.HintView, error)
	Completion() (contest.CompletionView, error)
	RefreshCompletion(ctx context.Context) (contest.CompletionView, error)
	Communication(taskID string) (*models.CommunicationThread, error)
	RefreshCommunication(ctx context.Context, taskID string) (*models.CommunicationThread, error)
	Answer(ctx context.Context, taskID, answer string) (*models.CommunicationThread, error)
	Subscribe(fn func(contest.Update)) (unsubscribe func())
	Close() error
}

// Notification methods pushed to attached clients.
const (
	NotifyContest       = "contest.update"
	NotifyExecution     = "execution.update"
	NotifyCompletion    = "completion.update"
	NotifyHint          = "hint.update"
	NotifyCommunication = "communication.update"
)

// HandlerContext provides shared state for method handlers.
type HandlerContext struct {
	ctrl    Controller
	printer *message.Printer
	logger  *slog.Logger
}

// NewHandlerContext creates a handler context around a controller. Error
// messages are rendered with p.
func NewHandlerContext(ctrl Controller, p *message.Printer, logger *slog.Logger) *HandlerContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandlerContext{ctrl: ctrl, printer: p, logger: logger}
}

// RegisterHandlers registers every contest method handler.
func RegisterHandlers(registry *MethodRegistry, hctx *HandlerContext) {
	registry.Register("contest.open", hctx.handleContestOpen)
	registry.Register("contest.snapshot", hctx.handleContestSnapshot)
	registry.Register("contest.close", hctx.handleContestClose)
	registry.Register("task.list", hctx.handleTaskList)
	registry.Register("task.select", hctx.handleTaskSelect)
	registry.Register("editor.update", hctx.handleEditorUpdate)
	registry.Register("editor.source", hctx.handleEditorSource)
	registry.Register("editor.language", hctx.handleEditorLanguage)
	registry.Register("execution.run", hctx.handleExecutionRun)
	registry.Register("execution.submit", hctx.handleExecutionSubmit)
	registry.Register("execution.status", hctx.handleExecutionStatus)
	registry.Register("hint.request", hctx.handleHintRequest)
	registry.Register("hint.state", hctx.handleHintState)
	registry.Register("completion.status", hctx.handleCompletionStatus)
	registry.Register("communication.get", hctx.handleCommunicationGet)
	registry.Register("communication.answer", hctx.handleCommunicationAnswer)
}

// Attach forwards controller updates to t as notifications.
func (h *HandlerContext) Attach(t *Transport) func() {
	return h.ctrl.Subscribe(func(u contest.Update) {
		if err := t.Notify(notificationMethod(u.Kind), u); err != nil {
			h.logger.Debug("notification dropped", "kind", u.Kind, "error", err)
		}
	})
}

func notificationMethod(kind contest.UpdateKind) string {
	switch kind {
	case contest.UpdateExecution:
		return NotifyExecution
	case contest.UpdateTaskSolved, contest.UpdateCompletion:
		return NotifyCompletion
	case contest.UpdateHint:
		return NotifyHint
	case contest.UpdateCommunication:
		return NotifyCommunication
	}
	return NotifyContest
}

func (h *HandlerContext) fail(err error) *Error {
	return FromError(h.printer, err)
}

// decodeParams unmarshals params into v. Absent params decode as {}.
func decodeParams(params json.RawMessage, v any) *Error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return ErrInvalidParams(err.Error())
	}
	return nil
}

// TaskParams names a task.
type TaskParams struct {
	TaskID string `json:"task_id"`
}

func (p TaskParams) check() *Error {
	if p.TaskID == "" {
		return ErrInvalidParams("task_id is required")
	}
	return nil
}

// --- contest.open ---

type ContestOpenParams struct {
	ContestID string `json:"contest_id"`
}

func (h *HandlerContext) handleContestOpen(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p ContestOpenParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ContestID == "" {
		return nil, ErrInvalidParams("contest_id is required")
	}
	snap, err := h.ctrl.Open(ctx, p.ContestID)
	if err != nil {
		return nil, h.fail(err)
	}
	return snap, nil
}

// --- contest.snapshot ---

func (h *HandlerContext) handleContestSnapshot(_ context.Context, _ json.RawMessage) (any, *Error) {
	return h.ctrl.Snapshot(), nil
}

// --- contest.close ---

type ContestCloseResult struct {
	Closed bool `json:"closed"`
}

func (h *HandlerContext) handleContestClose(_ context.Context, _ json.RawMessage) (any, *Error) {
	if err := h.ctrl.Close(); err != nil {
		return nil, h.fail(err)
	}
	return &ContestCloseResult{Closed: true}, nil
}

// --- task.list ---

type TaskListParams struct {
	IncludeSurvey bool `json:"include_survey,omitempty"`
}

type TaskListResult struct {
	Tasks  []models.Task     `json:"tasks"`
	Survey []models.WorkItem `json:"survey,omitempty"`
}

func (h *HandlerContext) handleTaskList(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p TaskListParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	tasks, err := h.ctrl.Tasks()
	if err != nil {
		return nil, h.fail(err)
	}
	res := &TaskListResult{Tasks: tasks}
	if p.IncludeSurvey {
		if res.Survey, err = h.ctrl.Survey(ctx); err != nil {
			return nil, h.fail(err)
		}
	}
	return res, nil
}

// --- task.select ---

func (h *HandlerContext) handleTaskSelect(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p TaskParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	view, err := h.ctrl.SelectTask(ctx, p.TaskID)
	if err != nil {
		return nil, h.fail(err)
	}
	return view, nil
}

// --- editor.update ---

type EditorUpdateParams struct {
	TaskID string `json:"task_id"`
	Text   string `json:"text"`
}

type EditorUpdateResult struct {
	Saved bool `json:"saved"`
}

func (h *HandlerContext) handleEditorUpdate(_ context.Context, params json.RawMessage) (any, *Error) {
	var p EditorUpdateParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.TaskID == "" {
		return nil, ErrInvalidParams("task_id is required")
	}
	if err := h.ctrl.Edit(p.TaskID, p.Text); err != nil {
		return nil, h.fail(err)
	}
	return &EditorUpdateResult{Saved: true}, nil
}

// --- editor.source ---

type EditorSourceResult struct {
	TaskID string `json:"task_id"`
	Source string `json:"source"`
}

func (h *HandlerContext) handleEditorSource(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p TaskParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	src, err := h.ctrl.Source(ctx, p.TaskID)
	if err != nil {
		return nil, h.fail(err)
	}
	return &EditorSourceResult{TaskID: p.TaskID, Source: src}, nil
}

// --- editor.language ---

type EditorLanguageParams struct {
	Language models.Language `json:"language"`
}

type EditorLanguageResult struct {
	Language models.Language `json:"language"`
}

func (h *HandlerContext) handleEditorLanguage(_ context.Context, params json.RawMessage) (any, *Error) {
	var p EditorLanguageParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Language == "" {
		return nil, ErrInvalidParams("language is required")
	}
	if err := h.ctrl.SetLanguage(p.Language); err != nil {
		return nil, h.fail(err)
	}
	return &EditorLanguageResult{Language: p.Language}, nil
}

// --- execution.run / execution.submit ---

type ExecutionStartResult struct {
	ExecutionID string            `json:"execution_id"`
	TaskID      string            `json:"task_id"`
	Mode        models.RunMode    `json:"mode"`
	TestCount   int               `json:"test_count"`
	State       contest.LaneState `json:"state"`
}

func (h *HandlerContext) handleExecutionRun(ctx context.Context, params json.RawMessage) (any, *Error) {
	return h.startExecution(ctx, params, h.ctrl.Run)
}

func (h *HandlerContext) handleExecutionSubmit(ctx context.Context, params json.RawMessage) (any, *Error) {
	return h.startExecution(ctx, params, h.ctrl.Submit)
}

func (h *HandlerContext) startExecution(ctx context.Context, params json.RawMessage, start func(context.Context, string) (*contest.Handle, error)) (any, *Error) {
	var p TaskParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	handle, err := start(ctx, p.TaskID)
	if err != nil {
		return nil, h.fail(err)
	}
	key := handle.Key()
	return &ExecutionStartResult{
		ExecutionID: handle.ExecutionID(),
		TaskID:      key.TaskID,
		Mode:        key.Mode,
		TestCount:   handle.TestCount(),
		State:       handle.Latest().State,
	}, nil
}

// --- execution.status ---

type ExecutionStatusParams struct {
	TaskID string         `json:"task_id"`
	Mode   models.RunMode `json:"mode"`
}

func (h *HandlerContext) handleExecutionStatus(_ context.Context, params json.RawMessage) (any, *Error) {
	var p ExecutionStatusParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.TaskID == "" {
		return nil, ErrInvalidParams("task_id is required")
	}
	if p.Mode == "" {
		p.Mode = models.ModeRun
	}
	if !p.Mode.Valid() {
		return nil, ErrInvalidParams("mode must be run or submit")
	}
	lane, err := h.ctrl.Lane(p.TaskID, p.Mode)
	if err != nil {
		return nil, h.fail(err)
	}
	return lane, nil
}

// --- hint.request ---

type HintRequestParams struct {
	TaskID string          `json:"task_id"`
	Tier   models.HintTier `json:"tier"`
}

// HintRequestResult reports a revealed tier. A tier consumed earlier comes
// back with Charged false and Refused true.
type HintRequestResult struct {
	contest.HintResult
	Refused bool `json:"refused,omitempty"`
}

func (h *HandlerContext) handleHintRequest(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p HintRequestParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.TaskID == "" {
		return nil, ErrInvalidParams("task_id is required")
	}
	res, err := h.ctrl.RequestHint(ctx, p.TaskID, p.Tier)
	if errors.Is(err, contest.ErrHintAlreadyUsed) {
		return &HintRequestResult{HintResult: res, Refused: true}, nil
	}
	if err != nil {
		return nil, h.fail(err)
	}
	return &HintRequestResult{HintResult: res}, nil
}

// --- hint.state ---

func (h *HandlerContext) handleHintState(_ context.Context, params json.RawMessage) (any, *Error) {
	var p TaskParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.check(); err != nil {
		return nil, err
	}
	view, err := h.ctrl.Hints(p.TaskID)
	if err != nil {
		return nil, h.fail(err)
	}
	return view, nil
}

// --- completion.status ---

type CompletionStatusParams struct {
	Refresh bool `json:"refresh,omitempty"`
}

func (h *HandlerContext) handleCompletionStatus(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p CompletionStatusParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	var (
		view contest.CompletionView
		err  error
	)
	if p.Refresh {
		view, err = h.ctrl.RefreshCompletion(ctx)
	} else {
		view, err = h.ctrl.Completion()
	}
	if err != nil {
		return nil, h.fail(err)
	}
	return view, nil
}

// --- communication.get ---

type CommunicationGetParams struct {
	TaskID  string `json:"task_id"`
	Refresh bool   `json:"refresh,omitempty"`
}

type CommunicationResult struct {
	TaskID string                      `json:"task_id"`
	Thread *models.CommunicationThread `json:"thread"`
}

func (h *HandlerContext) handleCommunicationGet(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p CommunicationGetParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.TaskID == "" {
		return nil, ErrInvalidParams("task_id is required")
	}
	var (
		th  *models.CommunicationThread
		err error
	)
	if p.Refresh {
		th, err = h.ctrl.RefreshCommunication(ctx, p.TaskID)
	} else {
		th, err = h.ctrl.Communication(p.TaskID)
	}
	if err != nil {
		return nil, h.fail(err)
	}
	return &CommunicationResult{TaskID: p.TaskID, Thread: th}, nil
}

// --- communication.answer ---

type CommunicationAnswerParams struct {
	TaskID string `json:"task_id"`
	Answer string `json:"answer"`
}

func (h *HandlerContext) handleCommunicationAnswer(ctx context.Context, params json.RawMessage) (any, *Error) {
	var p CommunicationAnswerParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.TaskID == "" {
		return nil, ErrInvalidParams("task_id is required")
	}
	th, err := h.ctrl.Answer(ctx, p.TaskID, p.Answer)
	if err != nil {
		return nil, h.fail(err)
	}
	return &CommunicationResult{TaskID: p.TaskID, Thread: th}, nil
}
