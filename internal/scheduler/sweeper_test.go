package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingEnqueuer struct {
	queued []uuid.UUID
	fail   map[uuid.UUID]bool
}

func (q *recordingEnqueuer) EnqueueFollowUp(_ context.Context, _, followUpID uuid.UUID, _ time.Time) error {
	if q.fail[followUpID] {
		return errors.New("redis unavailable")
	}
	q.queued = append(q.queued, followUpID)
	return nil
}

func TestSweepOnceRequeuesOnlyOverduePending(t *testing.T) {
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	create := func(at time.Time) repository.FollowUp {
		f, err := store.CreateFollowUp(context.Background(), repository.CreateFollowUpParams{
			TenantID: tenant, LeadID: uuid.New(), MessageText: "hi", ScheduledAt: at, Channel: repository.ChannelWhatsApp,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return f
	}
	overdue := create(now.Add(-time.Hour))
	sent := create(now.Add(-time.Hour))
	_ = store.MarkFollowUpSent(context.Background(), tenant, sent.ID, now)
	create(now.Add(-30 * time.Second))
	create(now.Add(time.Hour))

	queue := &recordingEnqueuer{}
	sweeper := NewFollowUpSweeper(store, queue, time.Minute, logger.New("development"))
	sweeper.now = func() time.Time { return now }

	n, err := sweeper.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 || len(queue.queued) != 1 || queue.queued[0] != overdue.ID {
		t.Fatalf("expected only the overdue pending follow-up, got %v", queue.queued)
	}
}

func TestSweepOnceSkipsEnqueueFailures(t *testing.T) {
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	a, _ := store.CreateFollowUp(context.Background(), repository.CreateFollowUpParams{
		TenantID: tenant, LeadID: uuid.New(), ScheduledAt: now.Add(-time.Hour),
	})
	b, _ := store.CreateFollowUp(context.Background(), repository.CreateFollowUpParams{
		TenantID: tenant, LeadID: uuid.New(), ScheduledAt: now.Add(-2 * time.Hour),
	})

	queue := &recordingEnqueuer{fail: map[uuid.UUID]bool{a.ID: true}}
	sweeper := NewFollowUpSweeper(store, queue, time.Minute, logger.New("development"))
	sweeper.now = func() time.Time { return now }

	n, _ := sweeper.SweepOnce(context.Background())
	if n != 1 || queue.queued[0] != b.ID {
		t.Fatalf("expected the healthy follow-up to be queued, got %v", queue.queued)
	}
}
