package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realestate_ai_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the Postgres-backed Store.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, tenant_id, phone, name, email, property_address, property_type, bedrooms, bathrooms,
	sqft, owner_goal, timeline, price_expectation, budget, notes, qualified, status, score,
	score_category, response_count, last_response_at, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.Phone, &lead.Name, &lead.Email, &lead.PropertyAddress,
		&lead.PropertyType, &lead.Bedrooms, &lead.Bathrooms, &lead.Sqft, &lead.OwnerGoal,
		&lead.Timeline, &lead.PriceExpectation, &lead.Budget, &lead.Notes, &lead.Qualified,
		&lead.Status, &lead.Score, &lead.ScoreCategory, &lead.ResponseCount, &lead.LastResponseAt,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// FindLeadByPhone matches the phone with and without the leading '+', since
// imported leads are not always stored in E.164.
func (r *Repository) FindLeadByPhone(ctx context.Context, tenantID uuid.UUID, phoneNumber string) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND phone IN ($2, $3)
		ORDER BY updated_at DESC
		LIMIT 1
	`, tenantID, phoneNumber, phone.Digits(phoneNumber)))
}

func (r *Repository) GetLeadByID(ctx context.Context, tenantID, leadID uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, leadID))
}

// ApplyLeadUpdate fills empty columns only; COALESCE keeps concurrent writers
// from overwriting a value another turn already stored.
func (r *Repository) ApplyLeadUpdate(ctx context.Context, tenantID, leadID uuid.UUID, update LeadUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET
			name = COALESCE(name, $3),
			email = COALESCE(email, $4),
			property_address = COALESCE(property_address, $5),
			property_type = COALESCE(property_type, $6),
			bedrooms = COALESCE(bedrooms, $7),
			bathrooms = COALESCE(bathrooms, $8),
			sqft = COALESCE(sqft, $9),
			owner_goal = COALESCE(owner_goal, $10),
			timeline = COALESCE(timeline, $11),
			price_expectation = COALESCE(price_expectation, $12),
			budget = COALESCE(budget, $13),
			notes = CASE
				WHEN $14 = '' THEN notes
				WHEN notes = '' THEN $14
				ELSE notes || E'\n' || $14
			END,
			qualified = qualified OR $15,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, leadID,
		update.Name, update.Email, update.PropertyAddress, update.PropertyType,
		update.Bedrooms, update.Bathrooms, update.Sqft, update.OwnerGoal, update.Timeline,
		update.PriceExpectation, update.Budget, update.NotesText(), update.MarkQualified,
	)
	if err != nil {
		return fmt.Errorf("apply lead update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) RecordLeadResponse(ctx context.Context, tenantID, leadID uuid.UUID, at time.Time) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads
		SET response_count = response_count + 1, last_response_at = $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+leadColumns,
		tenantID, leadID, at))
}

func (r *Repository) UpdateLeadScore(ctx context.Context, tenantID, leadID uuid.UUID, update ScoreUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $3, score = $4, score_category = $5, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, leadID, update.Status, update.Score, update.ScoreCategory)
	if err != nil {
		return fmt.Errorf("update lead score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) ResolveTenant(ctx context.Context, channel, destination string) (uuid.UUID, error) {
	var tenantID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT tenant_id FROM channel_accounts WHERE channel = $1 AND destination = $2
	`, channel, destination).Scan(&tenantID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrTenantNotFound
	}
	return tenantID, err
}

var _ Store = (*Repository)(nil)
