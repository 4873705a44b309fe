// Package email renders and delivers staff notification emails.
package email

import (
	"context"
	"time"
)

type Sender interface {
	SendEscalationEmail(ctx context.Context, toEmail string, data Escalation) error
	SendMeetingBookedEmail(ctx context.Context, toEmail string, data MeetingBooked) error
}

// Escalation describes a conversation handed to a human.
type Escalation struct {
	LeadName      string
	SenderAddress string
	Channel       string
	Message       string
	Notes         string
}

// MeetingBooked describes a meeting the assistant created or moved.
type MeetingBooked struct {
	LeadName        string
	LeadPhone       string
	Title           string
	PropertyAddress string
	ScheduledAt     time.Time
	Location        *time.Location
	Rescheduled     bool
}

type NoopSender struct{}

func (NoopSender) SendEscalationEmail(context.Context, string, Escalation) error { return nil }

func (NoopSender) SendMeetingBookedEmail(context.Context, string, MeetingBooked) error { return nil }
