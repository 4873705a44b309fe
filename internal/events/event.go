// Package events provides domain event definitions published by the inbound
// pipeline. Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"realestate_ai_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Publisher   = events.Publisher
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// EscalationRaised is published when a conversation needs a human.
type EscalationRaised struct {
	BaseEvent
	TenantID      uuid.UUID  `json:"tenantId"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
	LeadName      string     `json:"leadName,omitempty"`
	Channel       string     `json:"channel"`
	SenderAddress string     `json:"senderAddress"`
	Message       string     `json:"message"`
	Notes         string     `json:"notes,omitempty"`
}

func (e EscalationRaised) EventName() string { return "inbound.escalation.raised" }

// MeetingBooked is published when the pipeline creates or moves a meeting.
type MeetingBooked struct {
	BaseEvent
	TenantID        uuid.UUID  `json:"tenantId"`
	MeetingID       uuid.UUID  `json:"meetingId"`
	LeadID          *uuid.UUID `json:"leadId,omitempty"`
	LeadName        string     `json:"leadName,omitempty"`
	LeadPhone       string     `json:"leadPhone"`
	Title           string     `json:"title"`
	PropertyAddress string     `json:"propertyAddress,omitempty"`
	ScheduledAt     time.Time  `json:"scheduledAt"`
	Rescheduled     bool       `json:"rescheduled"`
}

func (e MeetingBooked) EventName() string { return "inbound.meeting.booked" }

// LeadOptedOut is published after a DNC entry is recorded.
type LeadOptedOut struct {
	BaseEvent
	TenantID uuid.UUID `json:"tenantId"`
	Address  string    `json:"address"`
	Source   string    `json:"source"`
}

func (e LeadOptedOut) EventName() string { return "inbound.lead.opted_out" }
