package compliance

import (
	"context"
	"errors"

	"realestate_ai_backend/internal/events"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/platform/logger"
)

type followUpStore interface {
	repository.LeadReader
	repository.FollowUpStore
}

// FollowUpCanceller cancels pending follow-ups for a lead once it opts out.
type FollowUpCanceller struct {
	store followUpStore
	log   *logger.Logger
}

func NewFollowUpCanceller(store followUpStore, log *logger.Logger) *FollowUpCanceller {
	return &FollowUpCanceller{store: store, log: log}
}

// Subscribe registers the canceller on the bus.
func (c *FollowUpCanceller) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadOptedOut{}.EventName(), c)
}

func (c *FollowUpCanceller) Handle(ctx context.Context, event events.Event) error {
	optOut, ok := event.(events.LeadOptedOut)
	if !ok {
		return nil
	}

	lead, err := c.store.FindLeadByPhone(ctx, optOut.TenantID, optOut.Address)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	cancelled, err := c.store.CancelPendingFollowUps(ctx, optOut.TenantID, repository.FollowUpFilter{LeadID: &lead.ID}, "lead opted out")
	if err != nil {
		return err
	}
	if cancelled > 0 {
		c.log.Info("compliance: cancelled follow-ups after opt-out", "leadId", lead.ID, "count", cancelled)
	}
	return nil
}
