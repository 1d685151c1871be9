package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/seat-reservation/internal/database"
	"github.com/iliyamo/seat-reservation/internal/model"
)

// SupportRepo stores the support inbox.
type SupportRepo struct {
	db *sqlx.DB
}

func NewSupportRepo(db *sqlx.DB) *SupportRepo { return &SupportRepo{db: db} }

type supportRecord struct {
	ID        int64          `db:"id"`
	UserID    int64          `db:"user_id"`
	Body      string         `db:"body"`
	Status    string         `db:"status"`
	CreatedAt int64          `db:"created_at"`
	HandledBy sql.NullInt64  `db:"handled_by"`
	HandledAt sql.NullInt64  `db:"handled_at"`
	Reply     sql.NullString `db:"reply"`
}

func (r supportRecord) toModel() model.SupportMessage {
	m := model.SupportMessage{
		ID:        r.ID,
		UserID:    r.UserID,
		Text:      r.Body,
		Status:    model.SupportStatus(r.Status),
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
		Reply:     r.Reply.String,
	}
	if r.HandledBy.Valid {
		by := r.HandledBy.Int64
		m.HandledBy = &by
	}
	if r.HandledAt.Valid {
		at := time.Unix(r.HandledAt.Int64, 0).UTC()
		m.HandledAt = &at
	}
	return m
}

const supportColumns = `id, user_id, body, status, created_at, handled_by, handled_at, reply`

// Save stores a new pending message and sets m.ID.
func (r *SupportRepo) Save(ctx context.Context, m *model.SupportMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.Status = model.SupportPending
	const q = `INSERT INTO support_messages (user_id, body, status, created_at) VALUES (?, ?, ?, ?)`
	args := []interface{}{m.UserID, m.Text, string(m.Status), m.CreatedAt.Unix()}

	// lib/pq does not implement LastInsertId.
	if r.db.DriverName() == database.DriverPostgres {
		return r.db.GetContext(ctx, &m.ID, r.db.Rebind(q+` RETURNING id`), args...)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return err
	}
	m.ID, err = res.LastInsertId()
	return err
}

// Get returns one message or ErrSupportMessageNotFound.
func (r *SupportRepo) Get(ctx context.Context, id int64) (*model.SupportMessage, error) {
	var rec supportRecord
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(`SELECT `+supportColumns+` FROM support_messages WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSupportMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	m := rec.toModel()
	return &m, nil
}

// ListPending returns pending messages oldest first.
func (r *SupportRepo) ListPending(ctx context.Context, limit, offset int) ([]model.SupportMessage, error) {
	const q = `SELECT ` + supportColumns + ` FROM support_messages
	           WHERE status = ? ORDER BY created_at, id LIMIT ? OFFSET ?`
	return r.list(ctx, q, string(model.SupportPending), limit, offset)
}

// CountPending returns the number of messages awaiting a reviewer.
func (r *SupportRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM support_messages WHERE status = ?`), string(model.SupportPending))
	return n, err
}

// ListByUser returns a user's most recent messages, newest first.
func (r *SupportRepo) ListByUser(ctx context.Context, userID int64, limit int) ([]model.SupportMessage, error) {
	const q = `SELECT ` + supportColumns + ` FROM support_messages
	           WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	return r.list(ctx, q, userID, limit)
}

// MarkHandled closes a pending message.  reply may be empty.  A message
// that is already handled yields ErrConflict and keeps its first reply.
func (r *SupportRepo) MarkHandled(ctx context.Context, id, handledBy int64, reply string, at time.Time) error {
	const q = `UPDATE support_messages SET status = ?, handled_by = ?, handled_at = ?, reply = ?
	           WHERE id = ? AND status = ?`
	var replyArg interface{}
	if reply != "" {
		replyArg = reply
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q),
		string(model.SupportHandled), handledBy, at.Unix(), replyArg, id, string(model.SupportPending))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func (r *SupportRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.SupportMessage, error) {
	var recs []supportRecord
	if err := r.db.SelectContext(ctx, &recs, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make([]model.SupportMessage, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out, nil
}
