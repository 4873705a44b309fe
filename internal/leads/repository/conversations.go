package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

func (r *Repository) AppendTurn(ctx context.Context, params CreateTurnParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversation_messages (tenant_id, address, lead_id, direction, channel, body, provider_message_id)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, params.TenantID, params.Address, params.LeadID, params.Direction, params.Channel, params.Body, params.ProviderMessageID)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (r *Repository) ListRecentTurns(ctx context.Context, tenantID uuid.UUID, address string, limit int) ([]ConversationTurn, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, address, lead_id, direction, channel, body, COALESCE(provider_message_id, ''), created_at
		FROM (
			SELECT * FROM conversation_messages
			WHERE tenant_id = $1 AND address = $2
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`, tenantID, address, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := make([]ConversationTurn, 0, limit)
	for rows.Next() {
		var turn ConversationTurn
		if err := rows.Scan(
			&turn.ID, &turn.TenantID, &turn.Address, &turn.LeadID, &turn.Direction,
			&turn.Channel, &turn.Body, &turn.ProviderMessageID, &turn.CreatedAt,
		); err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return turns, nil
}

func (r *Repository) LogActivity(ctx context.Context, entry ActivityLogEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal activity metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO activity_logs (tenant_id, event_type, description, status, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.TenantID, entry.EventType, entry.Description, entry.Status, raw)
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}
