package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// SessionRepo persists the pending-input state of each user so it
// survives restarts.
type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

type sessionRecord struct {
	UserID    int64  `db:"user_id"`
	Kind      string `db:"kind"`
	Data      string `db:"data"`
	UpdatedAt int64  `db:"updated_at"`
}

// Save validates and stores the state, replacing any previous one.
func (r *SessionRepo) Save(ctx context.Context, s model.SessionState) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(s.Payload())
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM user_sessions WHERE user_id = ?`), s.UserID); err != nil {
		return err
	}
	const q = `INSERT INTO user_sessions (user_id, kind, data, updated_at) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, tx.Rebind(q), s.UserID, string(s.Kind), string(data), s.UpdatedAt.Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns the pending state for userID or ErrSessionNotFound.
func (r *SessionRepo) Get(ctx context.Context, userID int64) (*model.SessionState, error) {
	const q = `SELECT user_id, kind, data, updated_at FROM user_sessions WHERE user_id = ?`
	var rec sessionRecord
	if err := r.db.GetContext(ctx, &rec, r.db.Rebind(q), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var p model.SessionPayload
	if rec.Data != "" {
		if err := json.Unmarshal([]byte(rec.Data), &p); err != nil {
			return nil, err
		}
	}
	return &model.SessionState{
		UserID:    rec.UserID,
		Kind:      model.SessionKind(rec.Kind),
		EventID:   p.EventID,
		SeatID:    p.SeatID,
		MessageID: p.MessageID,
		UpdatedAt: time.Unix(rec.UpdatedAt, 0).UTC(),
	}, nil
}

// Clear removes the pending state.  Clearing a missing state is a no-op.
func (r *SessionRepo) Clear(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM user_sessions WHERE user_id = ?`), userID)
	return err
}
