package db

import (
	"context"
	"database/sql"
	"fmt"
)

// GetSession retrieves the dialogue session for a user.
// Returns ErrNotFound when the user has no active session (idle).
func (db *DB) GetSession(ctx context.Context, userID string) (*Session, error) {
	query := `
		SELECT user_id, action, step, data, updated_at
		FROM user_states
		WHERE user_id = ?
	`

	s := &Session{}
	err := db.QueryRowContext(ctx, query, userID).Scan(
		&s.UserID, &s.Action, &s.Step, &s.Data, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return s, nil
}

// SetSession upserts the dialogue session for a user in one write.
// Every step transition goes through here, so there is never a
// half-written session visible to a later event.
func (db *DB) SetSession(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO user_states (user_id, action, step, data, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id)
		DO UPDATE SET action = excluded.action,
		              step = excluded.step,
		              data = excluded.data,
		              updated_at = CURRENT_TIMESTAMP
	`

	if _, err := db.ExecContext(ctx, query, s.UserID, s.Action, s.Step, s.Data); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

// ClearSession deletes the session row, returning the user to idle.
// Deleting an absent row is not an error: clearing doubles as the
// commit marker for confirmation, so it must be safe to repeat.
func (db *DB) ClearSession(ctx context.Context, userID string) error {
	if _, err := db.ExecContext(ctx,
		"DELETE FROM user_states WHERE user_id = ?", userID,
	); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
