// Package notification tells humans about escalations and booked meetings.
package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"realestate_ai_backend/internal/email"
	"realestate_ai_backend/internal/events"
	"realestate_ai_backend/internal/outbound"
	"realestate_ai_backend/platform/config"
	"realestate_ai_backend/platform/logger"
	"realestate_ai_backend/platform/phone"
	"realestate_ai_backend/platform/sanitize"
)

const maxEscalationMessage = 600

type Dispatcher interface {
	Send(ctx context.Context, msg outbound.Outbound) outbound.SendResult
}

type Module struct {
	sender     email.Sender
	dispatcher Dispatcher
	cfg        config.EscalationConfig
	loc        *time.Location
	log        *logger.Logger
}

func New(sender email.Sender, dispatcher Dispatcher, cfg config.EscalationConfig, loc *time.Location, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Module{sender: sender, dispatcher: dispatcher, cfg: cfg, loc: loc, log: log}
}

// RegisterHandlers subscribes to the pipeline events that need a human.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.EscalationRaised{}.EventName(), m)
	bus.Subscribe(events.MeetingBooked{}.EventName(), m)
	m.log.Info("notification module registered event handlers")
}

func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.EscalationRaised:
		return m.handleEscalationRaised(ctx, e)
	case events.MeetingBooked:
		return m.handleMeetingBooked(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleEscalationRaised(ctx context.Context, e events.EscalationRaised) error {
	address := strings.TrimSpace(m.cfg.GetEscalationAddress())
	if address == "" {
		m.log.Warn("escalation raised but no escalation address configured", "sender", e.SenderAddress)
		return nil
	}

	if strings.Contains(address, "@") {
		err := m.sender.SendEscalationEmail(ctx, address, email.Escalation{
			LeadName:      e.LeadName,
			SenderAddress: e.SenderAddress,
			Channel:       e.Channel,
			Message:       sanitize.Truncate(e.Message, maxEscalationMessage),
			Notes:         e.Notes,
		})
		if err != nil {
			m.log.Error("escalation email failed", "to", address, "error", err)
			return err
		}
		return nil
	}

	if m.dispatcher == nil {
		return nil
	}
	result := m.dispatcher.Send(ctx, outbound.Outbound{
		TenantID: e.TenantID,
		Channel:  e.Channel,
		To:       phone.NormalizeE164(address),
		Body:     escalationText(e),
		Kind:     outbound.KindEscalation,
	})
	if !result.OK {
		m.log.Error("escalation message failed", "to", address, "result", result.String())
		return fmt.Errorf("escalation message: %s", result.String())
	}
	return nil
}

func (m *Module) handleMeetingBooked(ctx context.Context, e events.MeetingBooked) error {
	to := strings.TrimSpace(m.cfg.GetAgentEmail())
	if to == "" {
		return nil
	}
	err := m.sender.SendMeetingBookedEmail(ctx, to, email.MeetingBooked{
		LeadName:        e.LeadName,
		LeadPhone:       e.LeadPhone,
		Title:           e.Title,
		PropertyAddress: e.PropertyAddress,
		ScheduledAt:     e.ScheduledAt,
		Location:        m.loc,
		Rescheduled:     e.Rescheduled,
	})
	if err != nil {
		m.log.Error("meeting email failed", "to", to, "meetingId", e.MeetingID, "error", err)
		return err
	}
	return nil
}

func escalationText(e events.EscalationRaised) string {
	who := e.SenderAddress
	if e.LeadName != "" {
		who = e.LeadName + " (" + e.SenderAddress + ")"
	}
	text := fmt.Sprintf("Escalation: %s needs a person. Last message: %q", who, sanitize.Truncate(e.Message, maxEscalationMessage))
	if e.Notes != "" {
		text += " Notes: " + e.Notes
	}
	return text
}
