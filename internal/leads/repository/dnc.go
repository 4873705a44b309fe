package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

func (r *Repository) IsBlocked(ctx context.Context, tenantID uuid.UUID, address string) (bool, error) {
	var blocked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM dnc_list WHERE tenant_id = $1 AND address = $2)
	`, tenantID, address).Scan(&blocked)
	return blocked, err
}

// UpsertDNC keeps the original created_at so the first opt-out stays on record.
func (r *Repository) UpsertDNC(ctx context.Context, entry DncEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dnc_list (tenant_id, address, reason, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, address)
		DO UPDATE SET reason = EXCLUDED.reason, source = EXCLUDED.source
	`, entry.TenantID, entry.Address, entry.Reason, entry.Source)
	if err != nil {
		return fmt.Errorf("upsert dnc: %w", err)
	}
	return nil
}

func (r *Repository) RemoveDNC(ctx context.Context, tenantID uuid.UUID, address string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dnc_list WHERE tenant_id = $1 AND address = $2`, tenantID, address)
	if err != nil {
		return false, fmt.Errorf("remove dnc: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) ListDNC(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]DncEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM dnc_list WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT tenant_id, address, reason, source, created_at
		FROM dnc_list
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]DncEntry, 0)
	for rows.Next() {
		var entry DncEntry
		if err := rows.Scan(&entry.TenantID, &entry.Address, &entry.Reason, &entry.Source, &entry.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return entries, total, nil
}
