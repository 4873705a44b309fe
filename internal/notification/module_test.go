package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"realestate_ai_backend/internal/email"
	"realestate_ai_backend/internal/events"
	"realestate_ai_backend/internal/outbound"
	"realestate_ai_backend/platform/logger"

	"github.com/google/uuid"
)

type testEscalationConfig struct {
	address    string
	agentEmail string
}

func (c testEscalationConfig) GetEscalationAddress() string { return c.address }
func (c testEscalationConfig) GetAgentEmail() string        { return c.agentEmail }

type testSender struct {
	escalations []string
	meetings    []email.MeetingBooked
	err         error
}

func (s *testSender) SendEscalationEmail(_ context.Context, to string, _ email.Escalation) error {
	s.escalations = append(s.escalations, to)
	return s.err
}

func (s *testSender) SendMeetingBookedEmail(_ context.Context, _ string, data email.MeetingBooked) error {
	s.meetings = append(s.meetings, data)
	return s.err
}

type testDispatcher struct {
	sent   []outbound.Outbound
	result outbound.SendResult
}

func (d *testDispatcher) Send(_ context.Context, msg outbound.Outbound) outbound.SendResult {
	d.sent = append(d.sent, msg)
	return d.result
}

func escalation() events.EscalationRaised {
	return events.EscalationRaised{
		BaseEvent:     events.NewBaseEvent(),
		TenantID:      uuid.New(),
		LeadName:      "Sam Owner",
		Channel:       "whatsapp",
		SenderAddress: "+16502530000",
		Message:       "can I talk to a real person?",
		Notes:         "asked for a human",
	}
}

func TestEscalationToEmailAddress(t *testing.T) {
	sender := &testSender{}
	dispatcher := &testDispatcher{}
	m := New(sender, dispatcher, testEscalationConfig{address: "agent@example.com"}, nil, logger.New("development"))

	if err := m.Handle(context.Background(), escalation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.escalations) != 1 || sender.escalations[0] != "agent@example.com" {
		t.Fatalf("expected one escalation email, got %v", sender.escalations)
	}
	if len(dispatcher.sent) != 0 {
		t.Fatalf("expected no channel message for email escalation")
	}
}

func TestEscalationToPhoneUsesDispatcher(t *testing.T) {
	sender := &testSender{}
	dispatcher := &testDispatcher{result: outbound.SendResult{OK: true, ProviderStatus: 200}}
	m := New(sender, dispatcher, testEscalationConfig{address: "1 (650) 253-0001"}, nil, logger.New("development"))

	if err := m.Handle(context.Background(), escalation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dispatcher.sent) != 1 {
		t.Fatalf("expected one channel message, got %d", len(dispatcher.sent))
	}
	msg := dispatcher.sent[0]
	if msg.Kind != outbound.KindEscalation || msg.Channel != "whatsapp" || msg.To != "+16502530001" {
		t.Fatalf("unexpected escalation message %+v", msg)
	}
	if !strings.Contains(msg.Body, "Sam Owner (+16502530000)") || !strings.Contains(msg.Body, "asked for a human") {
		t.Fatalf("expected lead and notes in body, got %q", msg.Body)
	}
}

func TestEscalationChannelFailureIsReturned(t *testing.T) {
	dispatcher := &testDispatcher{result: outbound.SendResult{Error: "twilio returned 400"}}
	m := New(&testSender{}, dispatcher, testEscalationConfig{address: "+16502530001"}, nil, logger.New("development"))

	if err := m.Handle(context.Background(), escalation()); err == nil {
		t.Fatalf("expected failure to be reported")
	}
}

func TestEscalationWithoutAddressIsIgnored(t *testing.T) {
	sender := &testSender{}
	dispatcher := &testDispatcher{}
	m := New(sender, dispatcher, testEscalationConfig{}, nil, logger.New("development"))

	if err := m.Handle(context.Background(), escalation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.escalations) != 0 || len(dispatcher.sent) != 0 {
		t.Fatalf("expected nothing sent without an escalation address")
	}
}

func TestMeetingBookedEmailsAgent(t *testing.T) {
	sender := &testSender{}
	loc := time.FixedZone("PST", -8*3600)
	m := New(sender, nil, testEscalationConfig{agentEmail: "agent@example.com"}, loc, logger.New("development"))

	err := m.Handle(context.Background(), events.MeetingBooked{
		BaseEvent:   events.NewBaseEvent(),
		MeetingID:   uuid.New(),
		LeadName:    "Sam Owner",
		LeadPhone:   "+16502530000",
		Title:       "Listing consultation",
		ScheduledAt: time.Date(2025, 3, 11, 22, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.meetings) != 1 || sender.meetings[0].Location != loc {
		t.Fatalf("expected one meeting email in the agent location, got %+v", sender.meetings)
	}
}

func TestMeetingBookedWithoutAgentEmail(t *testing.T) {
	sender := &testSender{err: errors.New("should not be called")}
	m := New(sender, nil, testEscalationConfig{}, nil, logger.New("development"))

	if err := m.Handle(context.Background(), events.MeetingBooked{LeadPhone: "+16502530000"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.meetings) != 0 {
		t.Fatalf("expected no meeting email")
	}
}

func TestRegisterHandlersDeliversThroughBus(t *testing.T) {
	sender := &testSender{}
	bus := events.NewInMemoryBus(logger.New("development"))
	m := New(sender, nil, testEscalationConfig{address: "agent@example.com"}, nil, logger.New("development"))
	m.RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), escalation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.escalations) != 1 {
		t.Fatalf("expected escalation email via bus")
	}
}
