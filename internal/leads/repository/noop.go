package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Noop is the Store used when no database is configured. Reads find
// nothing and writes are accepted and dropped, so the pipeline runs with
// CSV auditing only.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) FindLeadByPhone(context.Context, uuid.UUID, string) (Lead, error) {
	return Lead{}, ErrNotFound
}

func (Noop) GetLeadByID(context.Context, uuid.UUID, uuid.UUID) (Lead, error) {
	return Lead{}, ErrNotFound
}

func (Noop) ApplyLeadUpdate(context.Context, uuid.UUID, uuid.UUID, LeadUpdate) error { return nil }

func (Noop) RecordLeadResponse(context.Context, uuid.UUID, uuid.UUID, time.Time) (Lead, error) {
	return Lead{}, ErrNotFound
}

func (Noop) UpdateLeadScore(context.Context, uuid.UUID, uuid.UUID, ScoreUpdate) error { return nil }

func (Noop) AppendTurn(context.Context, CreateTurnParams) error { return nil }

func (Noop) ListRecentTurns(context.Context, uuid.UUID, string, int) ([]ConversationTurn, error) {
	return nil, nil
}

func (Noop) IsBlocked(context.Context, uuid.UUID, string) (bool, error) { return false, nil }

func (Noop) UpsertDNC(context.Context, DncEntry) error { return nil }

func (Noop) RemoveDNC(context.Context, uuid.UUID, string) (bool, error) { return false, nil }

func (Noop) ListDNC(context.Context, uuid.UUID, int, int) ([]DncEntry, int, error) {
	return []DncEntry{}, 0, nil
}

func (Noop) CreateMeeting(_ context.Context, p CreateMeetingParams) (Meeting, bool, error) {
	return Meeting{
		ID:            uuid.New(),
		TenantID:      p.TenantID,
		LeadID:        p.LeadID,
		LeadPhone:     p.LeadPhone,
		Title:         p.Title,
		ScheduledAt:   p.ScheduledAt,
		Status:        "scheduled",
		Source:        MeetingSourceBot,
		SourceEventID: p.SourceEventID,
	}, true, nil
}

func (Noop) FindUpcomingMeeting(context.Context, uuid.UUID, string, time.Time) (Meeting, error) {
	return Meeting{}, ErrRecordNotFound
}

func (Noop) RescheduleMeeting(context.Context, uuid.UUID, uuid.UUID, time.Time, *string) (Meeting, error) {
	return Meeting{}, ErrRecordNotFound
}

func (Noop) CreateFollowUp(context.Context, CreateFollowUpParams) (FollowUp, error) {
	return FollowUp{}, ErrRecordNotFound
}

func (Noop) GetFollowUp(context.Context, uuid.UUID, uuid.UUID) (FollowUp, error) {
	return FollowUp{}, ErrRecordNotFound
}

func (Noop) MarkFollowUpSent(context.Context, uuid.UUID, uuid.UUID, time.Time) error { return nil }

func (Noop) RecordFollowUpFailure(context.Context, uuid.UUID, uuid.UUID, string, bool) error {
	return nil
}

func (Noop) CancelFollowUp(context.Context, uuid.UUID, uuid.UUID, string) error { return nil }

func (Noop) CancelPendingFollowUps(context.Context, uuid.UUID, FollowUpFilter, string) (int, error) {
	return 0, nil
}

func (Noop) ListDueFollowUps(context.Context, time.Time, int) ([]FollowUp, error) {
	return nil, nil
}

func (Noop) LogActivity(context.Context, ActivityLogEntry) error { return nil }

func (Noop) ResolveTenant(context.Context, string, string) (uuid.UUID, error) {
	return uuid.Nil, ErrTenantNotFound
}

var _ Store = Noop{}
