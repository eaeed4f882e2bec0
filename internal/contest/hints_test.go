package contest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/futurecareers/contestide/internal/apiclient"
	"github.com/futurecareers/contestide/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func hintResponse(content string) *models.HintResponse {
	return &models.HintResponse{Content: content}
}

func TestHintTracker_SurfaceThenMedium(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().RequestHint(gomock.Any(), models.HintRequest{TaskID: "A", HintLevel: models.HintSurface}).
		Return(hintResponse("look at the edges"), nil).Times(1)
	m.EXPECT().RequestHint(gomock.Any(), models.HintRequest{TaskID: "A", HintLevel: models.HintMedium}).
		Return(hintResponse("use a stack"), nil).Times(1)

	h := NewHintTracker(m, quietLogger())
	ctx := context.Background()

	res, err := h.RequestHint(ctx, "A", models.HintSurface)
	require.NoError(t, err)
	assert.True(t, res.Charged)
	assert.Equal(t, 5, res.View.Penalty)

	res, err = h.RequestHint(ctx, "A", models.HintMedium)
	require.NoError(t, err)
	assert.Equal(t, 20, res.View.Penalty)
	assert.Equal(t, 80, res.View.MaxScore)

	res, err = h.RequestHint(ctx, "A", models.HintSurface)
	require.ErrorIs(t, err, ErrHintAlreadyUsed)
	assert.False(t, res.Charged)
	assert.Equal(t, "look at the edges", res.Content)
	assert.Equal(t, 20, res.View.Penalty)
	assert.Equal(t, []models.HintTier{models.HintSurface, models.HintMedium}, res.View.Consumed)
}

func TestHintTracker_PenaltyIsPerTask(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().RequestHint(gomock.Any(), gomock.Any()).Return(hintResponse("x"), nil).Times(2)

	h := NewHintTracker(m, quietLogger())
	_, err := h.RequestHint(context.Background(), "A", models.HintDeep)
	require.NoError(t, err)
	_, err = h.RequestHint(context.Background(), "B", models.HintSurface)
	require.NoError(t, err)

	assert.Equal(t, 30, h.View("A").Penalty)
	assert.Equal(t, 5, h.View("B").Penalty)
	assert.Equal(t, 0, h.View("C").Penalty)
	assert.Len(t, h.Views(), 3)
}

func TestHintTracker_ServerRefusalMarksConsumed(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().RequestHint(gomock.Any(), gomock.Any()).
		Return(nil, &apiclient.RefusalError{Reason: apiclient.RefusalHintUsed, Detail: "Подсказка уже использована"}).Times(1)

	h := NewHintTracker(m, quietLogger())
	res, err := h.RequestHint(context.Background(), "A", models.HintMedium)

	require.ErrorIs(t, err, ErrHintAlreadyUsed)
	assert.Equal(t, 15, res.View.Penalty)

	_, err = h.RequestHint(context.Background(), "A", models.HintMedium)
	assert.ErrorIs(t, err, ErrHintAlreadyUsed)
}

func TestHintTracker_FailureDoesNotCharge(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	gomock.InOrder(
		m.EXPECT().RequestHint(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom")),
		m.EXPECT().RequestHint(gomock.Any(), gomock.Any()).Return(hintResponse("ok"), nil),
	)

	h := NewHintTracker(m, quietLogger())
	_, err := h.RequestHint(context.Background(), "A", models.HintSurface)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHintAlreadyUsed)
	assert.Equal(t, 0, h.View("A").Penalty)

	res, err := h.RequestHint(context.Background(), "A", models.HintSurface)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Content)
}

func TestHintTracker_InvalidTier(t *testing.T) {
	h := NewHintTracker(nil, quietLogger())
	_, err := h.RequestHint(context.Background(), "A", "huge")
	assert.ErrorIs(t, err, ErrInvalidHintTier)
}

func TestHintTracker_EnterTaskMergesServerState(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().UsedHints(gomock.Any(), "A").Return([]models.HintTier{models.HintDeep, "bogus"}, nil)
	m.EXPECT().AvailableHints(gomock.Any(), "A").Return([]models.HintTier{models.HintSurface, models.HintDeep}, nil)

	h := NewHintTracker(m, quietLogger())
	view, err := h.EnterTask(context.Background(), "A")
	require.NoError(t, err)

	assert.Equal(t, []models.HintTier{models.HintDeep}, view.Consumed)
	assert.Equal(t, []models.HintTier{models.HintSurface}, view.Available)
	assert.Equal(t, 30, view.Penalty)
	assert.Equal(t, 70, view.MaxScore)
}

func TestHintTracker_EnterTaskNeverLowersPenalty(t *testing.T) {
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().RequestHint(gomock.Any(), gomock.Any()).Return(hintResponse("x"), nil)
	m.EXPECT().UsedHints(gomock.Any(), "A").Return([]models.HintTier{}, nil)
	m.EXPECT().AvailableHints(gomock.Any(), "A").Return(nil, errors.New("down"))

	h := NewHintTracker(m, quietLogger())
	_, err := h.RequestHint(context.Background(), "A", models.HintMedium)
	require.NoError(t, err)

	view, err := h.EnterTask(context.Background(), "A")
	require.Error(t, err)
	assert.Equal(t, 15, view.Penalty)
}

func TestHintTracker_ConcurrentRequestsChargeOnce(t *testing.T) {
	release := make(chan struct{})
	m := NewMockAPI(gomock.NewController(t))
	m.EXPECT().RequestHint(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.HintRequest) (*models.HintResponse, error) {
			<-release
			return hintResponse("x"), nil
		}).MinTimes(1)

	h := NewHintTracker(m, quietLogger())

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		charged int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.RequestHint(context.Background(), "A", models.HintSurface)
			if err == nil && res.Charged {
				mu.Lock()
				charged++
				mu.Unlock()
			}
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, 1, charged)
	assert.Equal(t, 5, h.View("A").Penalty)
}
