package compliance

import (
	"context"
	"fmt"

	"realestate_ai_backend/internal/events"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/platform/logger"
	"realestate_ai_backend/platform/phone"

	"github.com/google/uuid"
)

// Opt-out sources recorded on DNC entries.
const (
	SourceKeyword    = "keyword"
	SourceClassifier = "classifier"
	SourceAdmin      = "admin"
)

const (
	activityOptOut = "opt_out"
	activityOptIn  = "opt_in"
)

// Store is the persistence the gatekeeper needs.
type Store interface {
	repository.DNCStore
	repository.ActivityLogger
}

type Gatekeeper struct {
	store  Store
	events events.Publisher
	log    *logger.Logger
}

func NewGatekeeper(store Store, publisher events.Publisher, log *logger.Logger) *Gatekeeper {
	return &Gatekeeper{store: store, events: publisher, log: log}
}

// IsBlocked reports whether address is on the tenant's DNC list.
// Addresses are compared in E.164 form. Lookup failures count as blocked.
func (g *Gatekeeper) IsBlocked(ctx context.Context, tenantID uuid.UUID, address string) bool {
	address = phone.NormalizeE164(address)
	blocked, err := g.store.IsBlocked(ctx, tenantID, address)
	if err != nil {
		g.log.Error("compliance: dnc lookup failed, treating as blocked", "address", address, "error", err)
		return true
	}
	return blocked
}

// RecordOptOut adds address to the DNC list. Repeating it is harmless.
func (g *Gatekeeper) RecordOptOut(ctx context.Context, tenantID uuid.UUID, address, reason, source string) error {
	address = phone.NormalizeE164(address)
	if err := g.store.UpsertDNC(ctx, repository.DncEntry{
		TenantID: tenantID,
		Address:  address,
		Reason:   reason,
		Source:   source,
	}); err != nil {
		return fmt.Errorf("record opt-out: %w", err)
	}

	g.logActivity(ctx, repository.ActivityLogEntry{
		TenantID:    tenantID,
		EventType:   activityOptOut,
		Description: fmt.Sprintf("%s opted out via %s", address, source),
		Status:      "success",
		Metadata:    map[string]any{"address": address, "reason": reason, "source": source},
	})

	if g.events != nil {
		g.events.Publish(ctx, events.LeadOptedOut{
			BaseEvent: events.NewBaseEvent(),
			TenantID:  tenantID,
			Address:   address,
			Source:    source,
		})
	}
	return nil
}

// RecordOptIn removes address from the DNC list. It reports whether an
// entry existed.
func (g *Gatekeeper) RecordOptIn(ctx context.Context, tenantID uuid.UUID, address, source string) (bool, error) {
	address = phone.NormalizeE164(address)
	removed, err := g.store.RemoveDNC(ctx, tenantID, address)
	if err != nil {
		return false, fmt.Errorf("record opt-in: %w", err)
	}
	if removed {
		g.logActivity(ctx, repository.ActivityLogEntry{
			TenantID:    tenantID,
			EventType:   activityOptIn,
			Description: fmt.Sprintf("%s re-engaged via %s", address, source),
			Status:      "success",
			Metadata:    map[string]any{"address": address, "source": source},
		})
	}
	return removed, nil
}

// List returns a page of DNC entries and the total count.
func (g *Gatekeeper) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]repository.DncEntry, int, error) {
	return g.store.ListDNC(ctx, tenantID, limit, offset)
}

func (g *Gatekeeper) logActivity(ctx context.Context, entry repository.ActivityLogEntry) {
	if err := g.store.LogActivity(ctx, entry); err != nil {
		g.log.Warn("compliance: activity log failed", "eventType", entry.EventType, "error", err)
	}
}
