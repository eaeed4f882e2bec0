package contest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/futurecareers/contestide/internal/apiclient"
	"github.com/futurecareers/contestide/internal/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// HintView is the hint economy of one task.
type HintView struct {
	TaskID    string                     `json:"task_id"`
	Consumed  []models.HintTier          `json:"consumed"`
	Available []models.HintTier          `json:"available"`
	Penalty   int                        `json:"penalty"`
	MaxScore  int                        `json:"max_score"`
	Contents  map[models.HintTier]string `json:"contents,omitempty"`
}

// HintResult is the outcome of a hint request.
type HintResult struct {
	Tier    models.HintTier `json:"tier"`
	Content string          `json:"content"`
	// Charged is false when the tier had already been consumed.
	Charged bool     `json:"charged"`
	View    HintView `json:"view"`
}

type hintState struct {
	consumed  mapset.Set[models.HintTier]
	available mapset.Set[models.HintTier]
	contents  map[models.HintTier]string
}

// HintTracker tracks consumed hint tiers and the resulting score penalty.
// Consumed tiers only accumulate, so the penalty never decreases.
type HintTracker struct {
	api    HintAPI
	logger *slog.Logger
	flight singleflight.Group

	mu     sync.Mutex
	states map[string]*hintState
}

// NewHintTracker returns an empty tracker.
func NewHintTracker(api HintAPI, logger *slog.Logger) *HintTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &HintTracker{api: api, logger: logger, states: map[string]*hintState{}}
}

func (h *HintTracker) state(taskID string) *hintState {
	st, ok := h.states[taskID]
	if !ok {
		st = &hintState{
			consumed:  mapset.NewThreadUnsafeSet[models.HintTier](),
			available: mapset.NewThreadUnsafeSet(models.HintTiers...),
			contents:  map[models.HintTier]string{},
		}
		h.states[taskID] = st
	}
	return st
}

// EnterTask fetches the used and available tiers of a task. Server-used
// tiers are merged into the local set.
func (h *HintTracker) EnterTask(ctx context.Context, taskID string) (HintView, error) {
	var (
		g     errgroup.Group
		used  []models.HintTier
		avail []models.HintTier
	)
	g.Go(func() error {
		var err error
		if used, err = h.api.UsedHints(ctx, taskID); err != nil {
			return fmt.Errorf("loading used hints for task %s: %w", taskID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if avail, err = h.api.AvailableHints(ctx, taskID); err != nil {
			return fmt.Errorf("loading available hints for task %s: %w", taskID, err)
		}
		return nil
	})
	err := g.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.state(taskID)
	for _, t := range used {
		if t.Valid() {
			st.consumed.Add(t)
		}
	}
	if avail != nil {
		st.available = mapset.NewThreadUnsafeSet[models.HintTier]()
		for _, t := range avail {
			if t.Valid() {
				st.available.Add(t)
			}
		}
	}
	return h.view(taskID, st), err
}

// RequestHint reveals a tier. A tier that was already consumed returns its
// cached content with ErrHintAlreadyUsed and no server call. Concurrent
// requests for the same task and tier share one server call.
func (h *HintTracker) RequestHint(ctx context.Context, taskID string, tier models.HintTier) (HintResult, error) {
	if !tier.Valid() {
		return HintResult{}, fmt.Errorf("%w: %q", ErrInvalidHintTier, tier)
	}

	h.mu.Lock()
	st := h.state(taskID)
	if st.consumed.Contains(tier) {
		res := HintResult{Tier: tier, Content: st.contents[tier], View: h.view(taskID, st)}
		h.mu.Unlock()
		return res, ErrHintAlreadyUsed
	}
	h.mu.Unlock()

	v, err, _ := h.flight.Do(taskID+"/"+string(tier), func() (any, error) {
		return h.api.RequestHint(ctx, models.HintRequest{TaskID: taskID, HintLevel: tier})
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	st = h.state(taskID)

	if err != nil {
		if apiclient.IsRefusal(err, apiclient.RefusalHintUsed) {
			st.consumed.Add(tier)
			return HintResult{Tier: tier, Content: st.contents[tier], View: h.view(taskID, st)},
				fmt.Errorf("%w: %w", ErrHintAlreadyUsed, err)
		}
		return HintResult{Tier: tier, View: h.view(taskID, st)}, fmt.Errorf("requesting %s hint: %w", tier, err)
	}

	var content string
	if resp, _ := v.(*models.HintResponse); resp != nil {
		content = resp.Content
	}
	st.contents[tier] = content
	charged := st.consumed.Add(tier)
	if charged {
		h.logger.Debug("hint consumed", "task", taskID, "tier", tier, "weight", tier.Weight())
	}
	return HintResult{Tier: tier, Content: content, Charged: charged, View: h.view(taskID, st)}, nil
}

// View returns the hint economy of a task.
func (h *HintTracker) View(taskID string) HintView {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view(taskID, h.state(taskID))
}

// Views returns the hint economy of every task seen so far.
func (h *HintTracker) Views() map[string]HintView {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]HintView, len(h.states))
	for id, st := range h.states {
		out[id] = h.view(id, st)
	}
	return out
}

func (h *HintTracker) view(taskID string, st *hintState) HintView {
	v := HintView{
		TaskID:    taskID,
		Consumed:  []models.HintTier{},
		Available: []models.HintTier{},
	}
	for _, t := range models.HintTiers {
		switch {
		case st.consumed.Contains(t):
			v.Consumed = append(v.Consumed, t)
		case st.available.Contains(t):
			v.Available = append(v.Available, t)
		}
	}
	if len(st.contents) > 0 {
		v.Contents = make(map[models.HintTier]string, len(st.contents))
		for t, c := range st.contents {
			v.Contents[t] = c
		}
	}
	v.Penalty = models.Penalty(v.Consumed)
	v.MaxScore = models.BaselineScore - v.Penalty
	return v
}
