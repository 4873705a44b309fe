package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("lead not found")
	ErrTenantNotFound = errors.New("tenant not found")
	ErrRecordNotFound = errors.New("record not found")
)

// Channels an inbound message can arrive on.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
)

// Conversation directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Follow-up statuses.
const (
	FollowUpPending   = "pending"
	FollowUpSent      = "sent"
	FollowUpCancelled = "cancelled"
	FollowUpFailed    = "failed"
)

// MeetingSourceBot marks meetings booked by the inbound pipeline.
const MeetingSourceBot = "ai_bot"

// Lead is the persistent record keyed by (tenant, phone).
type Lead struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	Phone            string
	Name             *string
	Email            *string
	PropertyAddress  *string
	PropertyType     *string
	Bedrooms         *int
	Bathrooms        *float64
	Sqft             *int
	OwnerGoal        *string
	Timeline         *string
	PriceExpectation *string
	Budget           *int64
	Notes            string
	Qualified        bool
	Status           string
	Score            int
	ScoreCategory    string
	ResponseCount    int
	LastResponseAt   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DisplayName returns the lead's name or an empty string.
func (l Lead) DisplayName() string {
	if l.Name == nil {
		return ""
	}
	return strings.TrimSpace(*l.Name)
}

// LeadUpdate holds the staged, write-once field changes produced by a merge.
// Nil fields are left untouched.
type LeadUpdate struct {
	Name             *string
	Email            *string
	PropertyAddress  *string
	PropertyType     *string
	Bedrooms         *int
	Bathrooms        *float64
	Sqft             *int
	OwnerGoal        *string
	Timeline         *string
	PriceExpectation *string
	Budget           *int64
	AppendNotes      []string
	MarkQualified    bool
}

// IsEmpty reports whether applying u would change nothing.
func (u LeadUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.PropertyAddress == nil && u.PropertyType == nil &&
		u.Bedrooms == nil && u.Bathrooms == nil && u.Sqft == nil && u.OwnerGoal == nil &&
		u.Timeline == nil && u.PriceExpectation == nil && u.Budget == nil &&
		len(u.AppendNotes) == 0 && !u.MarkQualified
}

// NotesText joins the staged notes into the block appended to the lead.
func (u LeadUpdate) NotesText() string {
	return strings.Join(u.AppendNotes, "\n")
}

// ScoreUpdate carries a recomputed score and the lifecycle status.
type ScoreUpdate struct {
	Status        string
	Score         int
	ScoreCategory string
}

// ConversationTurn is one message in a thread.
type ConversationTurn struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	Address           string
	LeadID            *uuid.UUID
	Direction         string
	Channel           string
	Body              string
	ProviderMessageID string
	CreatedAt         time.Time
}

type CreateTurnParams struct {
	TenantID          uuid.UUID
	Address           string
	LeadID            *uuid.UUID
	Direction         string
	Channel           string
	Body              string
	ProviderMessageID string
}

// DncEntry marks an address that must not be contacted.
type DncEntry struct {
	TenantID  uuid.UUID
	Address   string
	Reason    string
	Source    string
	CreatedAt time.Time
}

type Meeting struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	LeadID          *uuid.UUID
	LeadPhone       string
	LeadName        *string
	Title           string
	PropertyAddress *string
	Description     *string
	Notes           *string
	ScheduledAt     time.Time
	Status          string
	Source          string
	SourceEventID   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateMeetingParams struct {
	TenantID        uuid.UUID
	LeadID          *uuid.UUID
	LeadPhone       string
	LeadName        *string
	Title           string
	PropertyAddress *string
	Description     *string
	Notes           *string
	ScheduledAt     time.Time
	SourceEventID   string
}

type FollowUp struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	LeadID       uuid.UUID
	MeetingID    *uuid.UUID
	MessageText  string
	ScheduledAt  time.Time
	Status       string
	Channel      string
	RetryCount   int
	ErrorMessage *string
	SentAt       *time.Time
	CreatedAt    time.Time
}

type CreateFollowUpParams struct {
	TenantID    uuid.UUID
	LeadID      uuid.UUID
	MeetingID   *uuid.UUID
	MessageText string
	ScheduledAt time.Time
	Channel     string
}

// FollowUpFilter selects pending follow-ups to cancel. At least one field must be set.
type FollowUpFilter struct {
	MeetingID *uuid.UUID
	LeadID    *uuid.UUID
}

type ActivityLogEntry struct {
	TenantID    uuid.UUID
	EventType   string
	Description string
	Status      string
	Metadata    map[string]any
	CreatedAt   time.Time
}
