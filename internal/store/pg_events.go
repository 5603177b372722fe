package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flameborn/validator/internal/models"
)

func (s *PGStore) ListPendingEvents(ctx context.Context, limit int) ([]models.ReviewEvent, error) {
	const query = `
		SELECT id, payload, attempts, last_error, archive_key, created_at
		FROM review_events
		WHERE delivered_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	defer rows.Close()

	events := []models.ReviewEvent{}
	for rows.Next() {
		var (
			id         string
			payload    []byte
			attempts   int
			lastError  sql.NullString
			archiveKey sql.NullString
			createdAt  time.Time
		)
		if err := rows.Scan(&id, &payload, &attempts, &lastError, &archiveKey, &createdAt); err != nil {
			return nil, fmt.Errorf("scan review event: %w", err)
		}
		var ev models.ReviewEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode review event %s: %w", id, err)
		}
		ev.ID = id
		ev.CreatedAt = createdAt
		ev.Attempts = attempts
		if lastError.Valid {
			v := lastError.String
			ev.LastError = &v
		}
		if archiveKey.Valid {
			v := archiveKey.String
			ev.ArchiveKey = &v
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review events: %w", err)
	}
	return events, nil
}

func (s *PGStore) MarkEventDelivered(ctx context.Context, id, archiveKey string, deliveredAt time.Time) error {
	const query = `
		UPDATE review_events
		SET delivered_at=$2, archive_key=$3, attempts=attempts+1, last_error=NULL
		WHERE id=$1
	`
	res, err := s.db.ExecContext(ctx, query, id, deliveredAt, nullString(archiveKey))
	if err != nil {
		return fmt.Errorf("mark event delivered: %w", err)
	}
	return requireRow(res)
}

func (s *PGStore) MarkEventFailed(ctx context.Context, id, msg string) error {
	const query = `
		UPDATE review_events
		SET attempts=attempts+1, last_error=$2
		WHERE id=$1
	`
	res, err := s.db.ExecContext(ctx, query, id, msg)
	if err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
