// Package outbound delivers replies, confirmations and follow-ups, enforcing
// the do-not-contact list immediately before every send.
package outbound

import (
	"context"
	"fmt"
	"strconv"

	"realestate_ai_backend/internal/audit"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/platform/logger"
	"realestate_ai_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Message kinds.
const (
	KindReply              = "reply"
	KindOptOutConfirmation = "opt_out_confirmation"
	KindFollowUp           = "follow_up"
	KindEscalation         = "escalation"
)

const maxAuditSendBody = 500

// DNCChecker reports whether an address must not be contacted.
type DNCChecker interface {
	IsBlocked(ctx context.Context, tenantID uuid.UUID, address string) bool
}

// Store is the persistence the dispatcher writes to.
type Store interface {
	repository.ConversationStore
	repository.ActivityLogger
}

type Outbound struct {
	TenantID uuid.UUID
	Channel  string
	To       string
	Body     string
	Kind     string
	LeadID   *uuid.UUID
	// InboundID is the provider id of the message being answered, if any.
	InboundID string
}

type SendResult struct {
	OK                bool
	ProviderStatus    int
	ProviderMessageID string
	Demo              bool
	Blocked           bool
	Error             string
}

type Dispatcher struct {
	senders map[string]Sender
	dnc     DNCChecker
	store   Store
	audit   audit.Recorder
	log     *logger.Logger
}

func NewDispatcher(senders map[string]Sender, dnc DNCChecker, store Store, recorder audit.Recorder, log *logger.Logger) *Dispatcher {
	return &Dispatcher{senders: senders, dnc: dnc, store: store, audit: recorder, log: log}
}

// Send never returns an error; failures are reported on the result and in
// the outbound audit trail.
func (d *Dispatcher) Send(ctx context.Context, msg Outbound) SendResult {
	if msg.Kind != KindOptOutConfirmation && d.dnc.IsBlocked(ctx, msg.TenantID, msg.To) {
		d.blocked(ctx, msg)
		return SendResult{Blocked: true}
	}

	sender, ok := d.senders[msg.Channel]
	if !ok {
		result := SendResult{Error: fmt.Sprintf("no sender for channel %q", msg.Channel)}
		d.record(msg, result, "")
		return result
	}

	receipt, err := sender.Send(ctx, msg.To, msg.Body)
	result := SendResult{
		OK:                err == nil,
		ProviderStatus:    receipt.Status,
		ProviderMessageID: receipt.MessageID,
		Demo:              receipt.Demo,
	}
	if err != nil {
		result.Error = err.Error()
		d.log.Warn("outbound: send failed", "channel", msg.Channel, "to", msg.To, "kind", msg.Kind, "error", err)
	}

	sendBody := receipt.Body
	if sendBody == "" {
		sendBody = result.Error
	}
	d.record(msg, result, sendBody)

	if result.OK {
		if err := d.store.AppendTurn(ctx, repository.CreateTurnParams{
			TenantID:          msg.TenantID,
			Address:           msg.To,
			LeadID:            msg.LeadID,
			Direction:         repository.DirectionOutbound,
			Channel:           msg.Channel,
			Body:              msg.Body,
			ProviderMessageID: result.ProviderMessageID,
		}); err != nil {
			d.log.Warn("outbound: conversation append failed", "to", msg.To, "error", err)
		}
	}
	return result
}

func (d *Dispatcher) blocked(ctx context.Context, msg Outbound) {
	d.log.Info("outbound: send blocked by dnc", "channel", msg.Channel, "to", msg.To, "kind", msg.Kind)
	if err := d.store.LogActivity(ctx, repository.ActivityLogEntry{
		TenantID:    msg.TenantID,
		EventType:   "blocked",
		Description: fmt.Sprintf("Blocked %s to %s (do not contact)", msg.Kind, msg.To),
		Status:      "blocked",
		Metadata:    map[string]any{"channel": msg.Channel, "to": msg.To, "kind": msg.Kind, "inboundId": msg.InboundID},
	}); err != nil {
		d.log.Warn("outbound: activity log failed", "error", err)
	}
}

func (d *Dispatcher) record(msg Outbound, result SendResult, sendBody string) {
	if d.audit == nil {
		return
	}
	if err := d.audit.Outbound(audit.OutboundRow{
		Channel:    msg.Channel,
		To:         msg.To,
		MessageID:  msg.InboundID,
		Kind:       msg.Kind,
		Reply:      msg.Body,
		SendStatus: audit.StatusText(result.ProviderStatus, result.Demo),
		SendBody:   sanitize.Truncate(sendBody, maxAuditSendBody),
	}); err != nil {
		d.log.Warn("outbound: audit write failed", "error", err)
	}
}

// String is used in log lines.
func (r SendResult) String() string {
	switch {
	case r.Blocked:
		return "blocked"
	case r.Demo:
		return "demo"
	case r.OK:
		return "sent:" + strconv.Itoa(r.ProviderStatus)
	default:
		return "failed: " + r.Error
	}
}
