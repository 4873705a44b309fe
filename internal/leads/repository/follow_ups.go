package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const followUpColumns = `
	id, tenant_id, lead_id, meeting_id, message_text, scheduled_at, status, channel,
	retry_count, error_message, sent_at, created_at`

func scanFollowUp(row pgx.Row) (FollowUp, error) {
	var f FollowUp
	err := row.Scan(
		&f.ID, &f.TenantID, &f.LeadID, &f.MeetingID, &f.MessageText, &f.ScheduledAt, &f.Status,
		&f.Channel, &f.RetryCount, &f.ErrorMessage, &f.SentAt, &f.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return FollowUp{}, ErrRecordNotFound
	}
	return f, err
}

func (r *Repository) CreateFollowUp(ctx context.Context, params CreateFollowUpParams) (FollowUp, error) {
	followUp, err := scanFollowUp(r.pool.QueryRow(ctx, `
		INSERT INTO follow_ups (tenant_id, lead_id, meeting_id, message_text, scheduled_at, status, channel)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+followUpColumns,
		params.TenantID, params.LeadID, params.MeetingID, params.MessageText, params.ScheduledAt,
		FollowUpPending, params.Channel,
	))
	if err != nil {
		return FollowUp{}, fmt.Errorf("create follow-up: %w", err)
	}
	return followUp, nil
}

func (r *Repository) GetFollowUp(ctx context.Context, tenantID, id uuid.UUID) (FollowUp, error) {
	return scanFollowUp(r.pool.QueryRow(ctx, `
		SELECT `+followUpColumns+` FROM follow_ups WHERE tenant_id = $1 AND id = $2
	`, tenantID, id))
}

func (r *Repository) MarkFollowUpSent(ctx context.Context, tenantID, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE follow_ups SET status = $3, sent_at = $4, error_message = NULL
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id, FollowUpSent, at)
	return err
}

// RecordFollowUpFailure bumps the retry count; final moves the row to failed.
func (r *Repository) RecordFollowUpFailure(ctx context.Context, tenantID, id uuid.UUID, message string, final bool) error {
	status := FollowUpPending
	if final {
		status = FollowUpFailed
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE follow_ups SET retry_count = retry_count + 1, error_message = $3, status = $4
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id, message, status)
	return err
}

func (r *Repository) CancelFollowUp(ctx context.Context, tenantID, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE follow_ups SET status = $3, error_message = $4
		WHERE tenant_id = $1 AND id = $2 AND status = $5
	`, tenantID, id, FollowUpCancelled, reason, FollowUpPending)
	return err
}

func (r *Repository) CancelPendingFollowUps(ctx context.Context, tenantID uuid.UUID, filter FollowUpFilter, reason string) (int, error) {
	if filter.MeetingID == nil && filter.LeadID == nil {
		return 0, errors.New("cancel follow-ups: empty filter")
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE follow_ups SET status = $2, error_message = $3
		WHERE tenant_id = $1 AND status = $4
			AND ($5::uuid IS NULL OR meeting_id = $5)
			AND ($6::uuid IS NULL OR lead_id = $6)
	`, tenantID, FollowUpCancelled, reason, FollowUpPending, filter.MeetingID, filter.LeadID)
	if err != nil {
		return 0, fmt.Errorf("cancel follow-ups: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) ListDueFollowUps(ctx context.Context, before time.Time, limit int) ([]FollowUp, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+followUpColumns+`
		FROM follow_ups
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC
		LIMIT $3
	`, FollowUpPending, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list due follow-ups: %w", err)
	}
	defer rows.Close()

	items := make([]FollowUp, 0)
	for rows.Next() {
		item, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
