package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/internal/outbound"
	"realestate_ai_backend/platform/logger"
	"realestate_ai_backend/platform/phone"

	"github.com/google/uuid"
)

// DeliveryStore is the persistence follow-up delivery reads and updates.
type DeliveryStore interface {
	repository.LeadReader
	repository.FollowUpStore
	repository.ActivityLogger
}

type Gate interface {
	IsBlocked(ctx context.Context, tenantID uuid.UUID, address string) bool
}

type Sender interface {
	Send(ctx context.Context, msg outbound.Outbound) outbound.SendResult
}

// FollowUpDeliverer sends a due follow-up unless the lead has since opted out.
type FollowUpDeliverer struct {
	store  DeliveryStore
	gate   Gate
	sender Sender
	log    *logger.Logger
	now    func() time.Time
}

func NewFollowUpDeliverer(store DeliveryStore, gate Gate, sender Sender, log *logger.Logger) *FollowUpDeliverer {
	return &FollowUpDeliverer{store: store, gate: gate, sender: sender, log: log, now: time.Now}
}

// Deliver returns an error only when the attempt should be retried. final
// marks the last attempt, after which a failure is recorded as terminal.
func (d *FollowUpDeliverer) Deliver(ctx context.Context, tenantID, followUpID uuid.UUID, final bool) error {
	followUp, err := d.store.GetFollowUp(ctx, tenantID, followUpID)
	if errors.Is(err, repository.ErrRecordNotFound) {
		d.log.Warn("follow-up vanished before delivery", "followUpId", followUpID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load follow-up: %w", err)
	}
	if followUp.Status != repository.FollowUpPending {
		return nil
	}

	lead, err := d.store.GetLeadByID(ctx, tenantID, followUp.LeadID)
	if errors.Is(err, repository.ErrNotFound) {
		d.cancel(ctx, followUp, "lead not found")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load lead: %w", err)
	}

	to := phone.NormalizeE164(lead.Phone)
	if d.gate.IsBlocked(ctx, tenantID, to) {
		d.cancel(ctx, followUp, "do not contact")
		return nil
	}

	channel := followUp.Channel
	if channel == "" {
		channel = repository.ChannelWhatsApp
	}
	leadID := lead.ID
	result := d.sender.Send(ctx, outbound.Outbound{
		TenantID: tenantID,
		Channel:  channel,
		To:       to,
		Body:     followUp.MessageText,
		Kind:     outbound.KindFollowUp,
		LeadID:   &leadID,
	})

	switch {
	case result.Blocked:
		d.cancel(ctx, followUp, "do not contact")
		return nil
	case result.OK:
		// The message is out; a retry would send it twice.
		if err := d.store.MarkFollowUpSent(ctx, tenantID, followUp.ID, d.now().UTC()); err != nil {
			d.log.DatabaseError("mark_follow_up_sent", err, "followUpId", followUp.ID)
		}
		d.logActivity(ctx, followUp, "follow_up_sent", "Follow-up sent to "+to, "sent")
		return nil
	}

	if err := d.store.RecordFollowUpFailure(ctx, tenantID, followUp.ID, result.Error, final); err != nil {
		d.log.Warn("follow-up failure not recorded", "followUpId", followUp.ID, "error", err)
	}
	if final {
		d.logActivity(ctx, followUp, "follow_up_failed", "Follow-up to "+to+" failed: "+result.Error, "failed")
	}
	return fmt.Errorf("send follow-up %s: %s", followUp.ID, result.Error)
}

func (d *FollowUpDeliverer) cancel(ctx context.Context, followUp repository.FollowUp, reason string) {
	if err := d.store.CancelFollowUp(ctx, followUp.TenantID, followUp.ID, reason); err != nil {
		d.log.Warn("follow-up cancel failed", "followUpId", followUp.ID, "error", err)
		return
	}
	d.logActivity(ctx, followUp, "follow_up_cancelled", "Follow-up cancelled: "+reason, "cancelled")
}

func (d *FollowUpDeliverer) logActivity(ctx context.Context, followUp repository.FollowUp, eventType, description, status string) {
	if err := d.store.LogActivity(ctx, repository.ActivityLogEntry{
		TenantID:    followUp.TenantID,
		EventType:   eventType,
		Description: description,
		Status:      status,
		Metadata:    map[string]any{"followUpId": followUp.ID.String(), "leadId": followUp.LeadID.String()},
	}); err != nil {
		d.log.Warn("activity log failed", "eventType", eventType, "error", err)
	}
}
