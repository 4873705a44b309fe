package outbound

import (
	"context"
	"errors"
	"testing"

	"realestate_ai_backend/internal/audit"
	"realestate_ai_backend/internal/leads/repository"
	"realestate_ai_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSender struct {
	calls   int
	receipt Receipt
	err     error
}

func (s *fakeSender) Send(context.Context, string, string) (Receipt, error) {
	s.calls++
	return s.receipt, s.err
}

type staticDNC map[string]bool

func (d staticDNC) IsBlocked(_ context.Context, _ uuid.UUID, address string) bool {
	return d[address]
}

type recordedAudit struct {
	outbound []audit.OutboundRow
}

func (r *recordedAudit) Inbound(audit.InboundRow) error { return nil }
func (r *recordedAudit) Stopped(audit.InboundRow) error { return nil }
func (r *recordedAudit) Outbound(row audit.OutboundRow) error {
	r.outbound = append(r.outbound, row)
	return nil
}

const to = "+16502530000"

func newDispatcher(sender *fakeSender, dnc staticDNC) (*Dispatcher, *repository.MemoryStore, *recordedAudit) {
	store := repository.NewMemoryStore()
	rec := &recordedAudit{}
	d := NewDispatcher(map[string]Sender{repository.ChannelWhatsApp: sender}, dnc, store, rec, logger.New("development"))
	return d, store, rec
}

func TestSendRecordsAuditAndTurn(t *testing.T) {
	sender := &fakeSender{receipt: Receipt{Status: 200, MessageID: "wamid.OUT", Body: `{"ok":true}`}}
	d, store, rec := newDispatcher(sender, staticDNC{})
	tenant := uuid.New()

	result := d.Send(context.Background(), Outbound{TenantID: tenant, Channel: repository.ChannelWhatsApp, To: to, Body: "Hi!", Kind: KindReply, InboundID: "wamid.IN"})

	if !result.OK || result.ProviderMessageID != "wamid.OUT" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(rec.outbound) != 1 || rec.outbound[0].SendStatus != "200" || rec.outbound[0].MessageID != "wamid.IN" {
		t.Fatalf("unexpected audit rows %+v", rec.outbound)
	}
	turns := store.Turns(tenant, to)
	if len(turns) != 1 || turns[0].Direction != repository.DirectionOutbound {
		t.Fatalf("expected one outbound turn, got %+v", turns)
	}
}

func TestSendBlockedByDNC(t *testing.T) {
	sender := &fakeSender{}
	d, store, rec := newDispatcher(sender, staticDNC{to: true})

	result := d.Send(context.Background(), Outbound{TenantID: uuid.New(), Channel: repository.ChannelWhatsApp, To: to, Body: "Hi!", Kind: KindFollowUp})

	if !result.Blocked || result.OK {
		t.Fatalf("expected blocked result, got %+v", result)
	}
	if sender.calls != 0 {
		t.Fatalf("expected no provider call for a blocked address")
	}
	if len(rec.outbound) != 0 {
		t.Fatalf("expected no outbound audit row for a blocked send")
	}
	if len(store.Activities("blocked")) != 1 {
		t.Fatalf("expected blocked activity")
	}
}

func TestSendOptOutConfirmationBypassesDNC(t *testing.T) {
	sender := &fakeSender{receipt: Receipt{Demo: true}}
	d, _, rec := newDispatcher(sender, staticDNC{to: true})

	result := d.Send(context.Background(), Outbound{TenantID: uuid.New(), Channel: repository.ChannelWhatsApp, To: to, Body: "You're unsubscribed", Kind: KindOptOutConfirmation})

	if !result.OK || !result.Demo || sender.calls != 1 {
		t.Fatalf("expected confirmation to be sent, got %+v", result)
	}
	if rec.outbound[0].SendStatus != "demo" {
		t.Fatalf("expected demo status, got %q", rec.outbound[0].SendStatus)
	}
}

func TestSendFailureIsReportedNotRaised(t *testing.T) {
	sender := &fakeSender{receipt: Receipt{Status: 500, Body: "upstream down"}, err: errors.New("whatsapp service returned 500")}
	d, store, rec := newDispatcher(sender, staticDNC{})
	tenant := uuid.New()

	result := d.Send(context.Background(), Outbound{TenantID: tenant, Channel: repository.ChannelWhatsApp, To: to, Body: "Hi!", Kind: KindReply})

	if result.OK || result.Error == "" || result.ProviderStatus != 500 {
		t.Fatalf("unexpected result %+v", result)
	}
	if rec.outbound[0].SendBody != "upstream down" {
		t.Fatalf("expected provider body in audit, got %q", rec.outbound[0].SendBody)
	}
	if len(store.Turns(tenant, to)) != 0 {
		t.Fatalf("expected no conversation turn for a failed send")
	}
}

func TestSendUnknownChannel(t *testing.T) {
	d, _, _ := newDispatcher(&fakeSender{}, staticDNC{})
	result := d.Send(context.Background(), Outbound{TenantID: uuid.New(), Channel: "fax", To: to, Body: "Hi"})
	if result.OK || result.Error == "" {
		t.Fatalf("expected error for unknown channel")
	}
}
