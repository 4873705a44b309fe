package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	FindLeadByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (Lead, error)
	GetLeadByID(ctx context.Context, tenantID, leadID uuid.UUID) (Lead, error)
}

// LeadWriter applies pipeline-driven changes to a lead.
type LeadWriter interface {
	ApplyLeadUpdate(ctx context.Context, tenantID, leadID uuid.UUID, update LeadUpdate) error
	RecordLeadResponse(ctx context.Context, tenantID, leadID uuid.UUID, at time.Time) (Lead, error)
	UpdateLeadScore(ctx context.Context, tenantID, leadID uuid.UUID, update ScoreUpdate) error
}

// ConversationStore persists conversation turns.
type ConversationStore interface {
	AppendTurn(ctx context.Context, params CreateTurnParams) error
	// ListRecentTurns returns at most limit turns, oldest first.
	ListRecentTurns(ctx context.Context, tenantID uuid.UUID, address string, limit int) ([]ConversationTurn, error)
}

// DNCStore manages the do-not-contact list.
type DNCStore interface {
	IsBlocked(ctx context.Context, tenantID uuid.UUID, address string) (bool, error)
	UpsertDNC(ctx context.Context, entry DncEntry) error
	RemoveDNC(ctx context.Context, tenantID uuid.UUID, address string) (bool, error)
	ListDNC(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]DncEntry, int, error)
}

// MeetingStore manages meetings booked from conversations.
type MeetingStore interface {
	// CreateMeeting is idempotent on SourceEventID; created is false when the
	// event already produced a meeting.
	CreateMeeting(ctx context.Context, params CreateMeetingParams) (meeting Meeting, created bool, err error)
	FindUpcomingMeeting(ctx context.Context, tenantID uuid.UUID, leadPhone string, after time.Time) (Meeting, error)
	RescheduleMeeting(ctx context.Context, tenantID, meetingID uuid.UUID, scheduledAt time.Time, notes *string) (Meeting, error)
}

// FollowUpStore manages scheduled follow-up messages.
type FollowUpStore interface {
	CreateFollowUp(ctx context.Context, params CreateFollowUpParams) (FollowUp, error)
	GetFollowUp(ctx context.Context, tenantID, id uuid.UUID) (FollowUp, error)
	MarkFollowUpSent(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error
	RecordFollowUpFailure(ctx context.Context, tenantID, id uuid.UUID, message string, final bool) error
	CancelFollowUp(ctx context.Context, tenantID, id uuid.UUID, reason string) error
	CancelPendingFollowUps(ctx context.Context, tenantID uuid.UUID, filter FollowUpFilter, reason string) (int, error)
	// ListDueFollowUps returns pending follow-ups of every tenant scheduled before the cutoff.
	ListDueFollowUps(ctx context.Context, before time.Time, limit int) ([]FollowUp, error)
}

// ActivityLogger records the write-only pipeline activity trail.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry ActivityLogEntry) error
}

// TenantResolver maps a provider destination (phone number id, Twilio number) to a tenant.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, channel, destination string) (uuid.UUID, error)
}

// Store is the full persistence surface selected at configuration time.
type Store interface {
	LeadReader
	LeadWriter
	ConversationStore
	DNCStore
	MeetingStore
	FollowUpStore
	ActivityLogger
	TenantResolver
}
