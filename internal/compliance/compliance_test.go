package compliance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"realestate_ai_backend/internal/events"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

type failingDNCStore struct {
	*repository.MemoryStore
}

func (failingDNCStore) IsBlocked(context.Context, uuid.UUID, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestIsOptOutKeyword(t *testing.T) {
	cases := map[string]bool{
		"STOP":                 true,
		"  stop  ":             true,
		"Stop All":             true,
		"stop   all":           true,
		"unsubscribe":          true,
		"Cancel":               true,
		"END":                  true,
		"quit":                 true,
		"please stop":          false,
		"stopping by tomorrow": false,
		"can we cancel friday": false,
		"":                     false,
	}
	for text, want := range cases {
		if got := IsOptOutKeyword(text); got != want {
			t.Fatalf("IsOptOutKeyword(%q) = %v, expected %v", text, got, want)
		}
	}
}

func TestGatekeeperFailsClosed(t *testing.T) {
	gate := NewGatekeeper(failingDNCStore{repository.NewMemoryStore()}, nil, logger.New("development"))
	if !gate.IsBlocked(context.Background(), uuid.New(), "+16502530000") {
		t.Fatalf("expected lookup failure to block")
	}
}

func TestRecordOptOutIsIdempotent(t *testing.T) {
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	gate := NewGatekeeper(store, pub, logger.New("development"))
	tenant := uuid.New()

	for i := 0; i < 2; i++ {
		if err := gate.RecordOptOut(context.Background(), tenant, "+16502530000", "STOP", SourceKeyword); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if !gate.IsBlocked(context.Background(), tenant, "+16502530000") {
		t.Fatalf("expected address to be blocked")
	}
	entries, total, _ := gate.List(context.Background(), tenant, 10, 0)
	if total != 1 || len(entries) != 1 {
		t.Fatalf("expected exactly one dnc entry, got %d", total)
	}
	if len(store.Activities("opt_out")) != 2 {
		t.Fatalf("expected an opt_out activity per request")
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected LeadOptedOut to be published")
	}
}

func TestRecordOptInRemovesEntry(t *testing.T) {
	store := repository.NewMemoryStore()
	gate := NewGatekeeper(store, nil, logger.New("development"))
	tenant := uuid.New()
	_ = gate.RecordOptOut(context.Background(), tenant, "+16502530000", "STOP", SourceKeyword)

	removed, err := gate.RecordOptIn(context.Background(), tenant, "+16502530000", "inbound")
	if err != nil || !removed {
		t.Fatalf("expected entry to be removed, got removed=%v err=%v", removed, err)
	}
	if gate.IsBlocked(context.Background(), tenant, "+16502530000") {
		t.Fatalf("expected address to be reinstated")
	}
	removed, _ = gate.RecordOptIn(context.Background(), tenant, "+16502530000", "inbound")
	if removed {
		t.Fatalf("expected second opt-in to be a no-op")
	}
	if len(store.Activities("opt_in")) != 1 {
		t.Fatalf("expected one opt_in activity")
	}
}

func TestGatekeeperMatchesAddressFormats(t *testing.T) {
	store := repository.NewMemoryStore()
	gate := NewGatekeeper(store, nil, logger.New("development"))
	tenant := uuid.New()
	if err := gate.RecordOptOut(context.Background(), tenant, "whatsapp:+16502530000", "STOP", SourceKeyword); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, address := range []string{"+16502530000", "16502530000", "(650) 253-0000"} {
		if !gate.IsBlocked(context.Background(), tenant, address) {
			t.Fatalf("expected %q to be blocked", address)
		}
	}

	removed, err := gate.RecordOptIn(context.Background(), tenant, "16502530000", "inbound")
	if err != nil || !removed {
		t.Fatalf("expected digits-only opt-in to remove the entry, got removed=%v err=%v", removed, err)
	}
	if gate.IsBlocked(context.Background(), tenant, "+16502530000") {
		t.Fatalf("expected address to be reinstated")
	}
}

func TestFollowUpCancellerCancelsPending(t *testing.T) {
	store := repository.NewMemoryStore()
	tenant := uuid.New()
	lead := store.PutLead(repository.Lead{TenantID: tenant, Phone: "+16502530000"})
	_, _ = store.CreateFollowUp(context.Background(), repository.CreateFollowUpParams{
		TenantID:    tenant,
		LeadID:      lead.ID,
		MessageText: "Checking in",
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Channel:     repository.ChannelWhatsApp,
	})

	canceller := NewFollowUpCanceller(store, logger.New("development"))
	err := canceller.Handle(context.Background(), events.LeadOptedOut{TenantID: tenant, Address: "+16502530000", Source: SourceKeyword})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, f := range store.FollowUps(tenant) {
		if f.Status != repository.FollowUpCancelled {
			t.Fatalf("expected follow-up to be cancelled, got %s", f.Status)
		}
	}
}

func TestFollowUpCancellerIgnoresUnknownLead(t *testing.T) {
	canceller := NewFollowUpCanceller(repository.NewMemoryStore(), logger.New("development"))
	err := canceller.Handle(context.Background(), events.LeadOptedOut{TenantID: uuid.New(), Address: "+16502530000"})
	if err != nil {
		t.Fatalf("expected unknown lead to be ignored, got %v", err)
	}
}
