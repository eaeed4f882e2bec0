package contest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/futurecareers/contestide/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func pendingThread(taskID string) *models.CommunicationThread {
	return &models.CommunicationThread{
		ID:       "th-" + taskID,
		TaskID:   taskID,
		Question: "Why a hash map?",
		Status:   models.ThreadPending,
	}
}

func TestCommunication_AbsentIsNotAnError(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().Communication(gomock.Any(), "A").Return(nil, nil)

	g := NewCommunicationGate(m, 3, time.Millisecond, quietLogger())
	th, err := g.EnterTask(context.Background(), "A")
	require.NoError(t, err)
	assert.Nil(t, th)
	assert.Nil(t, g.Thread("A"))
}

func TestCommunication_AwaitRetriesUntilThreadAppears(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	gomock.InOrder(
		m.EXPECT().Communication(gomock.Any(), "A").Return(nil, nil).Times(2),
		m.EXPECT().Communication(gomock.Any(), "A").Return(pendingThread("A"), nil),
	)

	g := NewCommunicationGate(m, 3, time.Millisecond, quietLogger())
	th, err := g.Await(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, th)
	assert.Equal(t, "Why a hash map?", th.Question)
	assert.True(t, g.Thread("A").Answerable())
}

func TestCommunication_AwaitGivesUpQuietly(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().Communication(gomock.Any(), "A").Return(nil, nil).Times(3)

	g := NewCommunicationGate(m, 2, time.Millisecond, quietLogger())
	th, err := g.Await(context.Background(), "A")
	require.NoError(t, err)
	assert.Nil(t, th)
}

func TestCommunication_AwaitRetriesTransportErrors(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().Communication(gomock.Any(), "A").Return(nil, errors.New("reset")).Times(2)

	g := NewCommunicationGate(m, 1, time.Millisecond, quietLogger())
	_, err := g.Await(context.Background(), "A")
	assert.ErrorContains(t, err, "reset")
}

func TestCommunication_AwaitStopsOnCancel(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().Communication(gomock.Any(), "A").Return(nil, nil).Times(1)

	g := NewCommunicationGate(m, 3, time.Hour, quietLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Await(ctx, "A")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCommunication_AnswerLifecycle(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().Communication(gomock.Any(), "A").Return(pendingThread("A"), nil)
	m.EXPECT().AnswerCommunication(gomock.Any(), "A", "O(1) lookups").
		DoAndReturn(func(_ context.Context, taskID, answer string) (*models.CommunicationThread, error) {
			th := pendingThread(taskID)
			th.Answer = answer
			th.Status = models.ThreadEvaluating
			return th, nil
		})

	g := NewCommunicationGate(m, 0, time.Millisecond, quietLogger())
	ctx := context.Background()

	_, err := g.Answer(ctx, "A", "early")
	require.ErrorIs(t, err, ErrNoThread)

	_, err = g.EnterTask(ctx, "A")
	require.NoError(t, err)

	_, err = g.Answer(ctx, "A", "   ")
	require.ErrorIs(t, err, ErrEmptyAnswer)

	th, err := g.Answer(ctx, "A", "  O(1) lookups ")
	require.NoError(t, err)
	assert.Equal(t, models.ThreadEvaluating, th.Status)
	assert.Equal(t, "O(1) lookups", th.Answer)
	assert.False(t, g.Thread("A").Answerable())

	_, err = g.Answer(ctx, "A", "again")
	assert.ErrorIs(t, err, ErrThreadClosed)
}

func TestCommunication_ThreadsAreCopies(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().Communication(gomock.Any(), "A").Return(pendingThread("A"), nil)

	g := NewCommunicationGate(m, 0, time.Millisecond, quietLogger())
	th, err := g.EnterTask(context.Background(), "A")
	require.NoError(t, err)

	th.Status = models.ThreadCompleted
	assert.Equal(t, models.ThreadPending, g.Thread("A").Status)
	assert.Len(t, g.Threads(), 1)
}
