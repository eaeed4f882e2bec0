package contest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/futurecareers/contestide/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func accepted(id string) *models.Execution {
	return &models.Execution{
		ID:     id,
		Status: models.ExecutionCompleted,
		Result: &models.ExecutionResult{
			Verdict:     models.VerdictAccepted,
			TestResults: []models.TestResult{{TestIndex: 0, Passed: true}},
		},
	}
}

func withStatus(id string, s models.ExecutionStatus) *models.Execution {
	return &models.Execution{ID: id, Status: s}
}

func newTestOrchestrator(t *testing.T, api ExecutionAPI, opts ...OrchestratorOption) *Orchestrator {
	t.Helper()
	opts = append([]OrchestratorOption{
		WithOrchestratorLogger(quietLogger()),
		WithOrchestratorSleep(noSleep),
	}, opts...)
	o := NewOrchestrator(context.Background(), api, "c1", testTiming(), opts...)
	t.Cleanup(o.Close)
	return o
}

func runRequest(mode models.RunMode) RunRequest {
	return RunRequest{
		TaskID:    "A",
		Mode:      mode,
		Language:  models.LanguagePython,
		Source:    "print(3)",
		OpenTests: []models.TestCase{{Input: "1 2", Output: "3"}},
	}
}

func TestOrchestrator_RunSendsOnlyOpenTests(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	var sent models.ExecutionRequest
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.ExecutionRequest) (*models.Execution, error) {
			sent = req
			return withStatus("e1", models.ExecutionPending), nil
		})
	m.EXPECT().GetExecution(gomock.Any(), "e1").Return(accepted("e1"), nil)

	o := newTestOrchestrator(t, m)
	h, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.NoError(t, err)

	out, err := h.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.TestCase{{Input: "1 2", Output: "3"}}, sent.TestCases)
	assert.False(t, sent.IsSubmit)
	assert.Equal(t, map[string]string{"solution.py": "print(3)"}, sent.Files)
	assert.Equal(t, 30, sent.Timeout)
	assert.Equal(t, "A", sent.TaskID)
	assert.Equal(t, "c1", sent.VacancyID)

	assert.Equal(t, LaneCompleted, out.State)
	assert.Equal(t, 1, out.Attempts)
	assert.True(t, out.Accepted())
	assert.Equal(t, LaneCompleted, o.Status("A", models.ModeRun).State)
	assert.Equal(t, 0, o.InFlight())
}

func TestOrchestrator_SubmitFetchesHiddenTestsFirst(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	var sent models.ExecutionRequest
	gomock.InOrder(
		m.EXPECT().TestsForSubmit(gomock.Any(), "A").Return(&models.SubmitTests{
			OpenTests:   []models.TestCase{{Input: "1 2", Output: "3"}},
			HiddenTests: []models.TestCase{{Input: "10 20", Output: "30"}},
		}, nil),
		m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req models.ExecutionRequest) (*models.Execution, error) {
				sent = req
				return withStatus("e1", models.ExecutionPending), nil
			}),
		m.EXPECT().GetExecution(gomock.Any(), "e1").Return(accepted("e1"), nil),
	)

	o := newTestOrchestrator(t, m)
	h, err := o.Start(context.Background(), runRequest(models.ModeSubmit))
	require.NoError(t, err)
	assert.Equal(t, 2, h.TestCount())

	_, err = h.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, sent.IsSubmit)
	assert.Len(t, sent.TestCases, 2)
	assert.Equal(t, "30", sent.TestCases[1].Output)
}

func TestOrchestrator_SubmitTestsFailureCreatesNothing(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().TestsForSubmit(gomock.Any(), "A").Return(nil, errors.New("503"))

	o := newTestOrchestrator(t, m)
	h, err := o.Start(context.Background(), runRequest(models.ModeSubmit))

	require.ErrorIs(t, err, ErrSubmitTestsUnavailable)
	assert.Nil(t, h)
	assert.Equal(t, LaneIdle, o.Status("A", models.ModeSubmit).State)
	assert.Equal(t, 0, o.InFlight(), "lane is released")
}

func TestOrchestrator_CreateFailureReleasesLane(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	gomock.InOrder(
		m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(nil, errors.New("422")),
		m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e2", models.ExecutionPending), nil),
	)
	m.EXPECT().GetExecution(gomock.Any(), "e2").Return(accepted("e2"), nil)

	o := newTestOrchestrator(t, m)
	_, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.Error(t, err)

	h, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.NoError(t, err)
	_, err = h.Wait(context.Background())
	require.NoError(t, err)
}

func TestOrchestrator_BusyLaneIsRefused(t *testing.T) {
	release := make(chan struct{})
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e1", models.ExecutionPending), nil)
	m.EXPECT().TestsForSubmit(gomock.Any(), "A").Return(&models.SubmitTests{}, nil)
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e2", models.ExecutionPending), nil)
	m.EXPECT().GetExecution(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) (*models.Execution, error) {
			<-release
			return accepted(id), nil
		}).Times(2)

	o := newTestOrchestrator(t, m)
	ctx := context.Background()

	run, err := o.Start(ctx, runRequest(models.ModeRun))
	require.NoError(t, err)

	_, err = o.Start(ctx, runRequest(models.ModeRun))
	require.ErrorIs(t, err, ErrLaneBusy)

	submit, err := o.Start(ctx, runRequest(models.ModeSubmit))
	require.NoError(t, err, "run and submit lanes are independent")
	assert.Equal(t, 2, o.InFlight())

	close(release)
	_, err = run.Wait(ctx)
	require.NoError(t, err)
	_, err = submit.Wait(ctx)
	require.NoError(t, err)
}

func TestOrchestrator_TimesOutWithoutCrashing(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e1", models.ExecutionPending), nil)
	m.EXPECT().GetExecution(gomock.Any(), "e1").Return(withStatus("e1", models.ExecutionRunning), nil).Times(5)

	o := newTestOrchestrator(t, m)
	h, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.NoError(t, err)

	out, err := h.Wait(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, LaneTimedOut, out.State)
	assert.Equal(t, 5, out.Attempts)
	assert.False(t, out.Accepted())
}

func TestOrchestrator_PollErrorEndsLoop(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e1", models.ExecutionPending), nil)
	m.EXPECT().GetExecution(gomock.Any(), "e1").Return(nil, errors.New("connection reset")).Times(1)

	o := newTestOrchestrator(t, m)
	h, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.NoError(t, err)

	out, err := h.Wait(context.Background())
	require.ErrorContains(t, err, "connection reset")
	assert.Equal(t, LaneFailed, out.State)
}

func TestOrchestrator_ServerFailure(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e1", models.ExecutionPending), nil)
	m.EXPECT().GetExecution(gomock.Any(), "e1").Return(&models.Execution{
		ID:           "e1",
		Status:       models.ExecutionFailed,
		ErrorMessage: "sandbox unavailable",
	}, nil)

	o := newTestOrchestrator(t, m)
	h, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.NoError(t, err)

	out, err := h.Wait(context.Background())
	require.ErrorIs(t, err, ErrExecutionFailed)
	assert.ErrorContains(t, err, "sandbox unavailable")
	assert.Equal(t, LaneFailed, out.State)
	assert.Equal(t, LaneFailed, o.Status("A", models.ModeRun).State)
}

func TestOrchestrator_StatusMovesForwardOnly(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e1", models.ExecutionPending), nil)
	gomock.InOrder(
		m.EXPECT().GetExecution(gomock.Any(), "e1").Return(withStatus("e1", models.ExecutionRunning), nil),
		m.EXPECT().GetExecution(gomock.Any(), "e1").Return(withStatus("e1", models.ExecutionPending), nil),
		m.EXPECT().GetExecution(gomock.Any(), "e1").Return(accepted("e1"), nil),
	)

	var (
		mu     sync.Mutex
		states []LaneState
	)
	o := newTestOrchestrator(t, m, WithNotify(func(u ExecutionUpdate) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, u.State)
	}))

	h, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.NoError(t, err)
	_, err = h.Wait(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []LaneState{LanePending, LaneRunning, LaneCompleted}, states)
}

func TestOrchestrator_SettleRunsBeforeDone(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e1", models.ExecutionPending), nil)
	m.EXPECT().GetExecution(gomock.Any(), "e1").Return(accepted("e1"), nil)

	var settled Outcome
	o := newTestOrchestrator(t, m, WithSettle(func(_ context.Context, out Outcome) {
		settled = out
	}))

	h, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.NoError(t, err)
	_, err = h.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "e1", settled.ExecutionID)
	assert.Equal(t, "A", settled.TaskID)
	assert.Equal(t, "c1", settled.ContestID)
	assert.Equal(t, models.ModeRun, settled.Mode)
}

func TestOrchestrator_CloseStopsPolling(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e1", models.ExecutionPending), nil)

	timing := testTiming()
	timing.PollInterval = time.Hour
	o := NewOrchestrator(context.Background(), m, "c1", timing, WithOrchestratorLogger(quietLogger()))

	h, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.NoError(t, err)

	o.Close()

	out, err := h.Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, LaneFailed, out.State)

	_, err = o.Start(context.Background(), runRequest(models.ModeRun))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOrchestrator_WaitHonorsContext(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().CreateExecution(gomock.Any(), gomock.Any()).Return(withStatus("e1", models.ExecutionPending), nil)

	timing := testTiming()
	timing.PollInterval = time.Hour
	o := NewOrchestrator(context.Background(), m, "c1", timing, WithOrchestratorLogger(quietLogger()))
	defer o.Close()

	h, err := o.Start(context.Background(), runRequest(models.ModeRun))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = h.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, LanePending, o.Status("A", models.ModeRun).State)
}

func TestOrchestrator_InvalidMode(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	_, err := o.Start(context.Background(), RunRequest{TaskID: "A", Mode: "debug"})
	assert.ErrorIs(t, err, ErrInvalidMode)
}
