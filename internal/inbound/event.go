// Package inbound runs each chat-channel webhook message through dedup,
// compliance, classification, lead merge, scheduling and the reply send.
package inbound

import (
	"time"

	"realestate_ai_backend/internal/inbound/dedup"

	"github.com/google/uuid"
)

// InboundEvent is one provider message, immutable once parsed.
type InboundEvent struct {
	Channel            string `validate:"required,oneof=whatsapp sms"`
	ProviderMessageID  string `validate:"required,max=256"`
	SenderAddress      string `validate:"required,max=64"`
	DestinationAddress string
	RawText            string `validate:"required"`
	ReceivedAt         time.Time
	// ProviderTimestamp is kept as the provider sent it.
	ProviderTimestamp string
	// TenantID is resolved from DestinationAddress when zero.
	TenantID uuid.UUID
}

// Key is the dedup identifier.
func (e InboundEvent) Key() string {
	return dedup.Key(e.Channel, e.ProviderMessageID)
}

// Outcome is the terminal state of one message.
type Outcome string

const (
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeOptedOut  Outcome = "opted_out"
	OutcomeEscalated Outcome = "escalated"
	OutcomeReplied   Outcome = "replied"
)
