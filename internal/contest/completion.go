package contest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/futurecareers/contestide/internal/models"
	"golang.org/x/sync/singleflight"
)

// CompletionView is the contest progress shown to the candidate.
type CompletionView struct {
	TaskIDs     []string `json:"task_ids"`
	Solved      []string `json:"solved"`
	SolvedCount int      `json:"solved_count"`
	Total       int      `json:"total"`
	// LocalComplete latches once every catalog task is in the solved set.
	LocalComplete bool `json:"local_complete"`
	// ServerComplete latches once the server reports all tasks solved.
	ServerComplete bool `json:"server_complete"`
	// FinishUnlocked follows the server signal only.
	FinishUnlocked bool                     `json:"finish_unlocked"`
	Server         *models.CompletionStatus `json:"server,omitempty"`
}

// CompletionDetector owns the solved set and the two completion latches.
// The solved set only grows and neither latch ever reverts.
type CompletionDetector struct {
	api       CatalogAPI
	contestID string
	logger    *slog.Logger
	flight    singleflight.Group

	mu      sync.Mutex
	taskIDs []string
	solved  mapset.Set[string]
	local   bool
	server  bool
	last    *models.CompletionStatus
}

// NewCompletionDetector returns a detector for the given catalog.
func NewCompletionDetector(api CatalogAPI, contestID string, taskIDs []string, logger *slog.Logger) *CompletionDetector {
	if logger == nil {
		logger = slog.Default()
	}
	ids := make([]string, len(taskIDs))
	copy(ids, taskIDs)
	return &CompletionDetector{
		api:       api,
		contestID: contestID,
		logger:    logger,
		taskIDs:   ids,
		solved:    mapset.NewThreadUnsafeSet[string](),
	}
}

// MarkSolved adds a task to the solved set. It reports whether the task was
// new and whether this add completed the contest locally.
func (d *CompletionDetector) MarkSolved(taskID string) (added, completed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	added = d.solved.Add(taskID)
	return added, d.evaluate()
}

// Merge unions ids into the solved set and returns the ids that were new.
func (d *CompletionDetector) Merge(ids []string) (added []string, completed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		if id != "" && d.solved.Add(id) {
			added = append(added, id)
		}
	}
	return added, d.evaluate()
}

// Reconcile fetches the authoritative solved list and merges it. A server
// list that lacks a locally solved task never removes it.
func (d *CompletionDetector) Reconcile(ctx context.Context) (added []string, completed bool, err error) {
	ids, err := d.api.SolvedTasks(ctx, d.contestID)
	if err != nil {
		return nil, false, fmt.Errorf("loading solved tasks: %w", err)
	}
	added, completed = d.Merge(ids)
	if len(added) > 0 {
		d.logger.Debug("solved set reconciled", "contest", d.contestID, "added", added)
	}
	return added, completed, nil
}

// Refresh queries the server completion status. completed is true only on
// the call that flips the server latch.
func (d *CompletionDetector) Refresh(ctx context.Context) (view CompletionView, completed bool, err error) {
	v, err, _ := d.flight.Do(d.contestID, func() (any, error) {
		return d.api.CompletionStatus(ctx, d.contestID)
	})
	if err != nil {
		return d.View(), false, fmt.Errorf("loading completion status: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if st, _ := v.(*models.CompletionStatus); st != nil {
		cp := *st
		d.last = &cp
		if st.AllSolved && !d.server {
			d.server = true
			completed = true
		}
	}
	return d.view(), completed, nil
}

// IsSolved reports whether a task is in the solved set.
func (d *CompletionDetector) IsSolved(taskID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.solved.Contains(taskID)
}

// View returns the current progress.
func (d *CompletionDetector) View() CompletionView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view()
}

// evaluate latches the local signal. It returns true only on the flip.
func (d *CompletionDetector) evaluate() bool {
	if d.local || len(d.taskIDs) == 0 {
		return false
	}
	for _, id := range d.taskIDs {
		if !d.solved.Contains(id) {
			return false
		}
	}
	d.local = true
	return true
}

func (d *CompletionDetector) view() CompletionView {
	v := CompletionView{
		TaskIDs:        append([]string(nil), d.taskIDs...),
		Solved:         []string{},
		Total:          len(d.taskIDs),
		LocalComplete:  d.local,
		ServerComplete: d.server,
		FinishUnlocked: d.server,
	}
	for _, id := range d.taskIDs {
		if d.solved.Contains(id) {
			v.Solved = append(v.Solved, id)
		}
	}
	v.SolvedCount = len(v.Solved)
	if d.last != nil {
		cp := *d.last
		v.Server = &cp
	}
	return v
}
