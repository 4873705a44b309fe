package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"realestate_ai_backend/internal/compliance"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/internal/outbound"
	"realestate_ai_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeGate struct {
	blocked map[string]bool
}

func (g fakeGate) IsBlocked(_ context.Context, _ uuid.UUID, address string) bool {
	return g.blocked[address]
}

type fakeSender struct {
	result outbound.SendResult
	sent   []outbound.Outbound
}

func (s *fakeSender) Send(_ context.Context, msg outbound.Outbound) outbound.SendResult {
	s.sent = append(s.sent, msg)
	return s.result
}

type deliveryFixture struct {
	store    *repository.MemoryStore
	sender   *fakeSender
	tenant   uuid.UUID
	followUp repository.FollowUp
}

func newDeliveryFixture(t *testing.T, result outbound.SendResult) deliveryFixture {
	t.Helper()
	return newDeliveryFixtureFor(t, "+16502530000", result)
}

func newDeliveryFixtureFor(t *testing.T, leadPhone string, result outbound.SendResult) deliveryFixture {
	t.Helper()
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	lead := store.PutLead(repository.Lead{TenantID: tenant, Phone: leadPhone})
	followUp, err := store.CreateFollowUp(context.Background(), repository.CreateFollowUpParams{
		TenantID:    tenant,
		LeadID:      lead.ID,
		MessageText: "Hi Sam, checking in about your listing.",
		ScheduledAt: time.Date(2025, 4, 9, 10, 0, 0, 0, time.UTC),
		Channel:     repository.ChannelSMS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return deliveryFixture{store: store, sender: &fakeSender{result: result}, tenant: tenant, followUp: followUp}
}

func (f deliveryFixture) deliverer(blocked map[string]bool) *FollowUpDeliverer {
	return NewFollowUpDeliverer(f.store, fakeGate{blocked: blocked}, f.sender, logger.New("development"))
}

func (f deliveryFixture) status(t *testing.T) repository.FollowUp {
	t.Helper()
	got, err := f.store.GetFollowUp(context.Background(), f.tenant, f.followUp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return got
}

func TestDeliverSendsAndMarksSent(t *testing.T) {
	f := newDeliveryFixture(t, outbound.SendResult{OK: true, ProviderStatus: 201})

	if err := f.deliverer(nil).Deliver(context.Background(), f.tenant, f.followUp.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected one send, got %d", len(f.sender.sent))
	}
	msg := f.sender.sent[0]
	if msg.Kind != outbound.KindFollowUp || msg.Channel != repository.ChannelSMS || msg.To != "+16502530000" {
		t.Fatalf("unexpected outbound %+v", msg)
	}
	got := f.status(t)
	if got.Status != repository.FollowUpSent || got.SentAt == nil {
		t.Fatalf("expected follow-up marked sent, got %+v", got)
	}
	if len(f.store.Activities("follow_up_sent")) != 1 {
		t.Fatalf("expected follow_up_sent activity")
	}
}

func TestDeliverCancelsWhenLeadOptedOut(t *testing.T) {
	f := newDeliveryFixture(t, outbound.SendResult{OK: true})

	err := f.deliverer(map[string]bool{"+16502530000": true}).Deliver(context.Background(), f.tenant, f.followUp.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.sent) != 0 {
		t.Fatalf("expected nothing sent to an opted-out lead")
	}
	if got := f.status(t); got.Status != repository.FollowUpCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
	if len(f.store.Activities("follow_up_cancelled")) != 1 {
		t.Fatalf("expected follow_up_cancelled activity")
	}
}

func TestDeliverCancelsWhenDispatcherBlocks(t *testing.T) {
	f := newDeliveryFixture(t, outbound.SendResult{Blocked: true})

	if err := f.deliverer(nil).Deliver(context.Background(), f.tenant, f.followUp.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := f.status(t); got.Status != repository.FollowUpCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestDeliverSkipsNonPending(t *testing.T) {
	f := newDeliveryFixture(t, outbound.SendResult{OK: true})
	_ = f.store.CancelFollowUp(context.Background(), f.tenant, f.followUp.ID, "meeting rescheduled")

	if err := f.deliverer(nil).Deliver(context.Background(), f.tenant, f.followUp.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.sent) != 0 {
		t.Fatalf("expected cancelled follow-up not to be sent")
	}
}

func TestDeliverFailureRetriesThenFails(t *testing.T) {
	f := newDeliveryFixture(t, outbound.SendResult{ProviderStatus: 500, Error: "twilio returned 500"})
	d := f.deliverer(nil)

	if err := d.Deliver(context.Background(), f.tenant, f.followUp.ID, false); err == nil {
		t.Fatalf("expected error so the task is retried")
	}
	got := f.status(t)
	if got.Status != repository.FollowUpPending || got.RetryCount != 1 {
		t.Fatalf("expected pending with one retry, got %+v", got)
	}

	if err := d.Deliver(context.Background(), f.tenant, f.followUp.ID, true); err == nil {
		t.Fatalf("expected error on final attempt")
	}
	got = f.status(t)
	if got.Status != repository.FollowUpFailed || got.RetryCount != 2 {
		t.Fatalf("expected failed after final attempt, got %+v", got)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "twilio returned 500" {
		t.Fatalf("expected provider error recorded, got %v", got.ErrorMessage)
	}
	if len(f.store.Activities("follow_up_failed")) != 1 {
		t.Fatalf("expected follow_up_failed activity")
	}
}

func TestDeliverUnknownFollowUpIsDropped(t *testing.T) {
	f := newDeliveryFixture(t, outbound.SendResult{OK: true})

	if err := f.deliverer(nil).Deliver(context.Background(), f.tenant, uuid.New(), false); err != nil {
		t.Fatalf("expected missing follow-up to be dropped, got %v", err)
	}
}

func TestDeliverHonoursOptOutForDigitsOnlyLeadPhone(t *testing.T) {
	f := newDeliveryFixtureFor(t, "16502530000", outbound.SendResult{OK: true})
	gate := compliance.NewGatekeeper(f.store, nil, logger.New("development"))
	if err := gate.RecordOptOut(context.Background(), f.tenant, "+16502530000", "STOP", compliance.SourceKeyword); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := NewFollowUpDeliverer(f.store, gate, f.sender, logger.New("development"))
	if err := d.Deliver(context.Background(), f.tenant, f.followUp.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.sent) != 0 {
		t.Fatalf("expected no send to an opted-out lead stored as bare digits, got %d", len(f.sender.sent))
	}
	if got := f.status(t); got.Status != repository.FollowUpCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestDeliverSendsToNormalisedLeadPhone(t *testing.T) {
	f := newDeliveryFixtureFor(t, "16502530000", outbound.SendResult{OK: true})

	if err := f.deliverer(nil).Deliver(context.Background(), f.tenant, f.followUp.ID, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.sender.sent) != 1 || f.sender.sent[0].To != "+16502530000" {
		t.Fatalf("expected send to +16502530000, got %+v", f.sender.sent)
	}
}

type unmarkableStore struct {
	*repository.MemoryStore
}

func (unmarkableStore) MarkFollowUpSent(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
	return errors.New("connection reset")
}

func TestDeliverDoesNotRetryAfterSuccessfulSend(t *testing.T) {
	f := newDeliveryFixture(t, outbound.SendResult{OK: true})
	d := NewFollowUpDeliverer(unmarkableStore{f.store}, fakeGate{}, f.sender, logger.New("development"))

	if err := d.Deliver(context.Background(), f.tenant, f.followUp.ID, false); err != nil {
		t.Fatalf("expected no retry once the message is sent, got %v", err)
	}
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(f.sender.sent))
	}
}
