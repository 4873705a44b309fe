package inbound

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realestate_ai_backend/internal/audit"
	"realestate_ai_backend/internal/compliance"
	"realestate_ai_backend/internal/inbound/dedup"
	"realestate_ai_backend/internal/leads/agent"
	"realestate_ai_backend/internal/leads/qualification"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/internal/leads/scheduling"
	"realestate_ai_backend/internal/leads/scoring"
	"realestate_ai_backend/internal/outbound"
	"realestate_ai_backend/platform/logger"
	"realestate_ai_backend/platform/phone"
	"realestate_ai_backend/platform/validator"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchConcurrency = 8
	keywordOptOutReason     = "STOP keyword"
)

// Gate is the compliance surface the pipeline enforces.
type Gate interface {
	IsBlocked(ctx context.Context, tenantID uuid.UUID, address string) bool
	RecordOptOut(ctx context.Context, tenantID uuid.UUID, address, reason, source string) error
	RecordOptIn(ctx context.Context, tenantID uuid.UUID, address, source string) (bool, error)
}

type Classifier interface {
	Classify(ctx context.Context, req agent.ClassifyRequest) agent.ClassificationResult
}

type Coordinator interface {
	Coordinate(ctx context.Context, in scheduling.Input) scheduling.Outcome
}

type Dispatcher interface {
	Send(ctx context.Context, msg outbound.Outbound) outbound.SendResult
}

// Store is the persistence the orchestrator reads and writes directly.
type Store interface {
	repository.LeadReader
	repository.LeadWriter
	repository.ConversationStore
	repository.ActivityLogger
	repository.TenantResolver
}

type Dependencies struct {
	Dedup            dedup.Cache
	Gate             Gate
	Store            Store
	Assembler        *Assembler
	Classifier       Classifier
	Coordinator      Coordinator
	Dispatcher       Dispatcher
	Audit            audit.Recorder
	Validator        *validator.Validator
	UnsubscribeReply string
	DefaultTenantID  uuid.UUID
	BatchConcurrency int
	Logger           *logger.Logger
}

// Orchestrator processes inbound events. One call to Process is one unit
// of work; nothing is locked across the classifier call.
type Orchestrator struct {
	deps Dependencies
	now  func() time.Time
}

func NewOrchestrator(deps Dependencies) *Orchestrator {
	if deps.BatchConcurrency <= 0 {
		deps.BatchConcurrency = defaultBatchConcurrency
	}
	return &Orchestrator{deps: deps, now: time.Now}
}

// ProcessBatch runs every event and returns outcomes in input order.
// Events from the same sender run sequentially so their turns stay ordered.
func (o *Orchestrator) ProcessBatch(ctx context.Context, events []InboundEvent) []Outcome {
	outcomes := make([]Outcome, len(events))

	groups := make(map[string][]int)
	var order []string
	for i, ev := range events {
		key := ev.Channel + ":" + phone.NormalizeE164(ev.SenderAddress)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.deps.BatchConcurrency)
	for _, key := range order {
		indexes := groups[key]
		g.Go(func() error {
			for _, i := range indexes {
				outcomes[i] = o.Process(gctx, events[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Process runs the full pipeline for one event. It never fails; every exit
// is a terminal Outcome.
func (o *Orchestrator) Process(ctx context.Context, ev InboundEvent) Outcome {
	start := o.now()
	outcome := o.process(ctx, &ev)
	o.deps.Logger.InboundOutcome(ev.Channel, ev.ProviderMessageID, string(outcome), float64(o.now().Sub(start).Milliseconds()))
	return outcome
}

func (o *Orchestrator) process(ctx context.Context, ev *InboundEvent) Outcome {
	ev.SenderAddress = phone.NormalizeE164(ev.SenderAddress)

	// Redeliveries end here before anything is logged, malformed or not.
	if ev.ProviderMessageID != "" && o.deps.Dedup.Seen(ctx, ev.Key()) {
		return OutcomeDuplicate
	}

	if err := o.deps.Validator.Struct(ev); err != nil {
		o.deps.Logger.Warn("inbound: malformed event skipped", "channel", ev.Channel, "messageId", ev.ProviderMessageID, "error", err)
		return OutcomeInvalid
	}

	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = o.now()
	}
	ev.TenantID = o.resolveTenant(ctx, *ev)
	ctx = context.WithValue(ctx, logger.MessageIDKey, ev.ProviderMessageID)
	log := o.deps.Logger.WithContext(ctx)

	o.auditInbound(*ev)

	if compliance.IsOptOutKeyword(ev.RawText) {
		return o.optOut(ctx, *ev, nil, compliance.SourceKeyword, keywordOptOutReason)
	}

	if o.deps.Gate.IsBlocked(ctx, ev.TenantID, ev.SenderAddress) {
		removed, err := o.deps.Gate.RecordOptIn(ctx, ev.TenantID, ev.SenderAddress, "inbound_message")
		if err != nil {
			log.Error("inbound: opt-in failed, address stays blocked", "address", ev.SenderAddress, "error", err)
			return OutcomeBlocked
		}
		if removed {
			log.Info("inbound: address re-engaged, dnc entry removed", "address", ev.SenderAddress)
		}
	}

	conv := o.deps.Assembler.Assemble(ctx, ev.TenantID, ev.SenderAddress)

	if err := o.deps.Store.AppendTurn(ctx, repository.CreateTurnParams{
		TenantID:          ev.TenantID,
		Address:           ev.SenderAddress,
		LeadID:            conv.leadID(),
		Direction:         repository.DirectionInbound,
		Channel:           ev.Channel,
		Body:              ev.RawText,
		ProviderMessageID: ev.ProviderMessageID,
	}); err != nil {
		log.Warn("inbound: conversation append failed", "error", err)
	}

	result := o.deps.Classifier.Classify(ctx, agent.ClassifyRequest{
		Message:            ev.RawText,
		SenderAddress:      ev.SenderAddress,
		DestinationAddress: ev.DestinationAddress,
		History:            conv.History,
		Lead:               conv.Profile(),
		Now:                ev.ReceivedAt,
	})

	if result.Intent == agent.IntentStop {
		return o.optOut(ctx, *ev, conv.Lead, compliance.SourceClassifier, result.Notes)
	}

	if conv.Lead != nil {
		o.mergeQualification(ctx, *conv.Lead, result)
	}

	plan := o.deps.Coordinator.Coordinate(ctx, scheduling.Input{
		TenantID: ev.TenantID,
		EventKey: ev.Key(),
		Channel:  ev.Channel,
		Address:  ev.SenderAddress,
		Lead:     conv.Lead,
		Message:  ev.RawText,
		Result:   result,
		Now:      ev.ReceivedAt,
	})

	sent := o.deps.Dispatcher.Send(ctx, outbound.Outbound{
		TenantID:  ev.TenantID,
		Channel:   ev.Channel,
		To:        ev.SenderAddress,
		Body:      result.Reply,
		Kind:      outbound.KindReply,
		LeadID:    conv.leadID(),
		InboundID: ev.ProviderMessageID,
	})

	if conv.Lead != nil {
		booked := plan.Decision == scheduling.DecisionMeetingCreated || plan.Decision == scheduling.DecisionMeetingRescheduled
		o.rescore(ctx, *conv.Lead, result.Intent, result.Qualification.Qualified, booked, ev.ReceivedAt)
	}

	o.logActivity(ctx, repository.ActivityLogEntry{
		TenantID:    ev.TenantID,
		EventType:   "reply",
		Description: fmt.Sprintf("Replied to %s (%s)", ev.SenderAddress, result.Intent),
		Status:      sendStatus(sent),
		Metadata: map[string]any{
			"channel":   ev.Channel,
			"messageId": ev.ProviderMessageID,
			"intent":    string(result.Intent),
			"decision":  string(plan.Decision),
			"fallback":  result.Fallback,
			"notes":     result.Notes,
		},
	})

	switch {
	case plan.Decision == scheduling.DecisionEscalation:
		return OutcomeEscalated
	case sent.Blocked:
		return OutcomeBlocked
	default:
		return OutcomeReplied
	}
}

func (o *Orchestrator) resolveTenant(ctx context.Context, ev InboundEvent) uuid.UUID {
	if ev.TenantID != uuid.Nil {
		return ev.TenantID
	}
	if ev.DestinationAddress != "" {
		tenantID, err := o.deps.Store.ResolveTenant(ctx, ev.Channel, ev.DestinationAddress)
		if err == nil {
			return tenantID
		}
		if !errors.Is(err, repository.ErrTenantNotFound) {
			o.deps.Logger.Warn("inbound: tenant lookup failed", "destination", ev.DestinationAddress, "error", err)
		}
	}
	return o.deps.DefaultTenantID
}

// optOut records the DNC entry, confirms it to the sender and writes the
// stopped trail. Only the confirmation may go to a DNC address.
func (o *Orchestrator) optOut(ctx context.Context, ev InboundEvent, lead *repository.Lead, source, reason string) Outcome {
	log := o.deps.Logger.WithContext(ctx)
	if reason == "" {
		reason = "opt-out requested"
	}
	if err := o.deps.Gate.RecordOptOut(ctx, ev.TenantID, ev.SenderAddress, reason, source); err != nil {
		log.Error("inbound: opt-out not persisted", "address", ev.SenderAddress, "error", err)
	}

	var leadID *uuid.UUID
	if lead != nil {
		leadID = &lead.ID
	}
	o.deps.Dispatcher.Send(ctx, outbound.Outbound{
		TenantID:  ev.TenantID,
		Channel:   ev.Channel,
		To:        ev.SenderAddress,
		Body:      o.deps.UnsubscribeReply,
		Kind:      outbound.KindOptOutConfirmation,
		LeadID:    leadID,
		InboundID: ev.ProviderMessageID,
	})

	if err := o.deps.Audit.Stopped(inboundRow(ev)); err != nil {
		log.Warn("inbound: stopped audit write failed", "error", err)
	}

	if lead == nil {
		if found, err := o.deps.Store.FindLeadByPhone(ctx, ev.TenantID, ev.SenderAddress); err == nil {
			lead = &found
		}
	}
	if lead != nil {
		o.writeScore(ctx, *lead, scoring.StatusDoNotContact, ev.ReceivedAt)
	}
	return OutcomeOptedOut
}

func (o *Orchestrator) mergeQualification(ctx context.Context, lead repository.Lead, result agent.ClassificationResult) {
	update := qualification.Merge(lead, result.Qualification, result.AgentBrief)
	if update.IsEmpty() {
		return
	}
	if err := o.deps.Store.ApplyLeadUpdate(ctx, lead.TenantID, lead.ID, update); err != nil {
		o.deps.Logger.WithContext(ctx).DatabaseError("apply_lead_update", err, "leadId", lead.ID)
	}
}

func (o *Orchestrator) rescore(ctx context.Context, lead repository.Lead, intent agent.Intent, qualified, booked bool, at time.Time) {
	updated, err := o.deps.Store.RecordLeadResponse(ctx, lead.TenantID, lead.ID, at)
	if err != nil {
		o.deps.Logger.WithContext(ctx).DatabaseError("record_lead_response", err, "leadId", lead.ID)
		return
	}
	status := scoring.NextStatus(updated.Status, intent, qualified || updated.Qualified, booked)
	o.writeScore(ctx, updated, status, at)
}

func (o *Orchestrator) writeScore(ctx context.Context, lead repository.Lead, status string, at time.Time) {
	lead.Status = status
	score := scoring.Compute(lead, at)
	if err := o.deps.Store.UpdateLeadScore(ctx, lead.TenantID, lead.ID, repository.ScoreUpdate{
		Status:        status,
		Score:         score.Score,
		ScoreCategory: score.Category,
	}); err != nil {
		o.deps.Logger.WithContext(ctx).DatabaseError("update_lead_score", err, "leadId", lead.ID)
	}
}

func (o *Orchestrator) auditInbound(ev InboundEvent) {
	if err := o.deps.Audit.Inbound(inboundRow(ev)); err != nil {
		o.deps.Logger.Warn("inbound: audit write failed", "error", err)
	}
}

func (o *Orchestrator) logActivity(ctx context.Context, entry repository.ActivityLogEntry) {
	if err := o.deps.Store.LogActivity(ctx, entry); err != nil {
		o.deps.Logger.Warn("inbound: activity log failed", "eventType", entry.EventType, "error", err)
	}
}

func inboundRow(ev InboundEvent) audit.InboundRow {
	return audit.InboundRow{
		Channel:   ev.Channel,
		Sender:    ev.SenderAddress,
		MessageID: ev.ProviderMessageID,
		MessageTS: ev.ProviderTimestamp,
		Body:      ev.RawText,
	}
}

func sendStatus(r outbound.SendResult) string {
	switch {
	case r.Blocked:
		return "blocked"
	case r.OK:
		return "success"
	default:
		return "failed"
	}
}
