package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const meetingColumns = `
	id, tenant_id, lead_id, lead_phone, lead_name, title, property_address, description,
	notes, scheduled_at, status, source, source_event_id, created_at, updated_at`

func scanMeeting(row pgx.Row) (Meeting, error) {
	var m Meeting
	err := row.Scan(
		&m.ID, &m.TenantID, &m.LeadID, &m.LeadPhone, &m.LeadName, &m.Title, &m.PropertyAddress,
		&m.Description, &m.Notes, &m.ScheduledAt, &m.Status, &m.Source, &m.SourceEventID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Meeting{}, ErrRecordNotFound
	}
	return m, err
}

func (r *Repository) CreateMeeting(ctx context.Context, params CreateMeetingParams) (Meeting, bool, error) {
	meeting, err := scanMeeting(r.pool.QueryRow(ctx, `
		INSERT INTO meetings (tenant_id, lead_id, lead_phone, lead_name, title, property_address,
			description, notes, scheduled_at, source, source_event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (source_event_id) DO NOTHING
		RETURNING `+meetingColumns,
		params.TenantID, params.LeadID, params.LeadPhone, params.LeadName, params.Title,
		params.PropertyAddress, params.Description, params.Notes, params.ScheduledAt,
		MeetingSourceBot, params.SourceEventID,
	))
	if err == nil {
		return meeting, true, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return Meeting{}, false, fmt.Errorf("create meeting: %w", err)
	}

	existing, err := scanMeeting(r.pool.QueryRow(ctx, `
		SELECT `+meetingColumns+` FROM meetings WHERE source_event_id = $1
	`, params.SourceEventID))
	if err != nil {
		return Meeting{}, false, fmt.Errorf("load existing meeting: %w", err)
	}
	return existing, false, nil
}

func (r *Repository) FindUpcomingMeeting(ctx context.Context, tenantID uuid.UUID, leadPhone string, after time.Time) (Meeting, error) {
	return scanMeeting(r.pool.QueryRow(ctx, `
		SELECT `+meetingColumns+`
		FROM meetings
		WHERE tenant_id = $1 AND lead_phone = $2 AND source = $3
			AND status = 'scheduled' AND scheduled_at > $4
		ORDER BY scheduled_at ASC
		LIMIT 1
	`, tenantID, leadPhone, MeetingSourceBot, after))
}

func (r *Repository) RescheduleMeeting(ctx context.Context, tenantID, meetingID uuid.UUID, scheduledAt time.Time, notes *string) (Meeting, error) {
	return scanMeeting(r.pool.QueryRow(ctx, `
		UPDATE meetings
		SET scheduled_at = $3, notes = COALESCE($4, notes), updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+meetingColumns,
		tenantID, meetingID, scheduledAt, notes))
}
