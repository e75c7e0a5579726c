package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terrasift/terrasift/internal/events"
)

// Run is one tracked evaluation. While the engine is still working the
// result is nil and the status is StatusRunning.
type Run struct {
	ID        uuid.UUID `json:"run_id"`
	Status    Status    `json:"status"`
	Result    *Result   `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	cancel context.CancelFunc
}

// Runs launches evaluations in the background and tracks them by id, so
// the API can return immediately and poll. Finished runs are kept until
// the retention window expires.
type Runs struct {
	engine    *Engine
	publisher events.Publisher
	logger    *slog.Logger
	retention time.Duration

	mu   sync.RWMutex
	runs map[uuid.UUID]*Run
}

// NewRuns builds the registry. A nil publisher disables events.
func NewRuns(e *Engine, pub events.Publisher, retention time.Duration, logger *slog.Logger) *Runs {
	if retention <= 0 {
		retention = 15 * time.Minute
	}
	return &Runs{
		engine:    e,
		publisher: pub,
		logger:    logger,
		retention: retention,
		runs:      make(map[uuid.UUID]*Run),
	}
}

// Start validates the request, registers a run and evaluates it in the
// background. Validation failures surface here, before the run exists.
func (r *Runs) Start(req *Request) (uuid.UUID, error) {
	if err := r.engine.Validate(req); err != nil {
		return uuid.Nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &Run{
		ID:        uuid.New(),
		Status:    StatusRunning,
		CreatedAt: time.Now(),
		cancel:    cancel,
	}
	r.mu.Lock()
	r.sweepLocked()
	r.runs[run.ID] = run
	r.mu.Unlock()

	events.Emit(r.publisher, r.logger, events.SubjectEvaluationStarted, events.EvaluationStartedEvent{
		RunID: run.ID.String(),
		Tiers: len(req.Tiers),
		TopN:  req.TopN,
	})

	go func() {
		defer cancel()
		res, err := r.engine.Evaluate(ctx, req)
		if err != nil {
			// Validation ran up front; an error here is a defect.
			r.logger.Error("evaluation failed", "run_id", run.ID, "error", err)
			res = &Result{Status: StatusCancelled}
		}

		r.mu.Lock()
		run.Result = res
		run.Status = res.Status
		r.mu.Unlock()

		r.logger.Info("evaluation finished",
			"run_id", run.ID, "status", res.Status, "tier", res.TierUsed,
			"results", len(res.Entries), "elapsed", res.Elapsed)

		if res.Status == StatusCompleted && res.TierUsed > 0 {
			events.Emit(r.publisher, r.logger, events.SubjectEvaluationFallback, events.EvaluationFallbackEvent{
				RunID: run.ID.String(), TierUsed: res.TierUsed, TierLabel: res.TierLabel,
			})
		}
		events.Emit(r.publisher, r.logger, events.SubjectEvaluationCompleted, events.EvaluationCompletedEvent{
			RunID:     run.ID.String(),
			Status:    string(res.Status),
			TierUsed:  res.TierUsed,
			TierLabel: res.TierLabel,
			Results:   len(res.Entries),
			ElapsedMs: float64(res.Elapsed.Milliseconds()),
		})
	}()

	return run.ID, nil
}

// Get returns a snapshot of one run.
func (r *Runs) Get(id uuid.UUID) (*Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, false
	}
	snapshot := *run
	return &snapshot, true
}

// Cancel requests cooperative cancellation of a running evaluation. The
// run transitions to StatusCancelled once the engine observes it between
// chunks.
func (r *Runs) Cancel(id uuid.UUID) bool {
	r.mu.RLock()
	run, ok := r.runs[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	run.cancel()
	return true
}

// sweepLocked drops finished runs older than the retention window. Caller
// holds the write lock.
func (r *Runs) sweepLocked() {
	cutoff := time.Now().Add(-r.retention)
	for id, run := range r.runs {
		if run.Status != StatusRunning && run.CreatedAt.Before(cutoff) {
			delete(r.runs, id)
		}
	}
}
