package scheduler

import (
	"context"
	"time"

	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/platform/logger"

	"github.com/google/uuid"
)

type dueLister interface {
	ListDueFollowUps(ctx context.Context, before time.Time, limit int) ([]repository.FollowUp, error)
}

type followUpEnqueuer interface {
	EnqueueFollowUp(ctx context.Context, tenantID, followUpID uuid.UUID, runAt time.Time) error
}

// FollowUpSweeper re-queues pending follow-ups that are overdue, covering
// rows whose original enqueue failed (for example while Redis was down).
type FollowUpSweeper struct {
	store    dueLister
	queue    followUpEnqueuer
	interval time.Duration
	grace    time.Duration
	batch    int
	log      *logger.Logger
	now      func() time.Time
}

func NewFollowUpSweeper(store dueLister, queue followUpEnqueuer, interval time.Duration, log *logger.Logger) *FollowUpSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &FollowUpSweeper{
		store:    store,
		queue:    queue,
		interval: interval,
		grace:    2 * time.Minute,
		batch:    50,
		log:      log,
		now:      time.Now,
	}
}

func (s *FollowUpSweeper) Run(ctx context.Context) {
	if s == nil || s.store == nil || s.queue == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if n, err := s.SweepOnce(ctx); err != nil {
			s.log.Warn("follow-up sweep failed", "error", err)
		} else if n > 0 {
			s.log.Info("follow-up sweep requeued overdue follow-ups", "count", n)
		}
	}
}

// SweepOnce enqueues overdue follow-ups for immediate delivery and returns
// how many were handed to the queue.
func (s *FollowUpSweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.store.ListDueFollowUps(ctx, now.Add(-s.grace), s.batch)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, followUp := range due {
		if err := s.queue.EnqueueFollowUp(ctx, followUp.TenantID, followUp.ID, now); err != nil {
			s.log.Warn("follow-up requeue failed", "followUpId", followUp.ID, "error", err)
			continue
		}
		queued++
	}
	return queued, nil
}
