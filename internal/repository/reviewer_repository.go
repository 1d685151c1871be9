package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// ReviewerRepo is the directory of users allowed to decide payments.
type ReviewerRepo struct {
	db *sqlx.DB
}

func NewReviewerRepo(db *sqlx.DB) *ReviewerRepo { return &ReviewerRepo{db: db} }

type reviewerRecord struct {
	UserID   int64  `db:"user_id"`
	AddedBy  int64  `db:"added_by"`
	AddedAt  int64  `db:"added_at"`
	Username string `db:"username"`
}

// Add inserts or replaces a reviewer.  Delete-then-insert keeps the
// statement portable across drivers.
func (r *ReviewerRepo) Add(ctx context.Context, rv model.Reviewer) error {
	if rv.AddedAt.IsZero() {
		rv.AddedAt = time.Now().UTC()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM reviewers WHERE user_id = ?`), rv.UserID); err != nil {
		return err
	}
	const q = `INSERT INTO reviewers (user_id, added_by, added_at, username) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, tx.Rebind(q), rv.UserID, rv.AddedBy, rv.AddedAt.Unix(), rv.Username); err != nil {
		return err
	}
	return tx.Commit()
}

// Remove deletes a reviewer or returns ErrReviewerNotFound.
func (r *ReviewerRepo) Remove(ctx context.Context, userID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM reviewers WHERE user_id = ?`), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReviewerNotFound
	}
	return nil
}

// Exists reports whether userID is a reviewer.
func (r *ReviewerRepo) Exists(ctx context.Context, userID int64) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM reviewers WHERE user_id = ?`), userID); err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns all reviewers ordered by when they were added.
func (r *ReviewerRepo) List(ctx context.Context) ([]model.Reviewer, error) {
	var recs []reviewerRecord
	if err := r.db.SelectContext(ctx, &recs, `SELECT user_id, added_by, added_at, username FROM reviewers ORDER BY added_at, user_id`); err != nil {
		return nil, err
	}
	out := make([]model.Reviewer, 0, len(recs))
	for _, rec := range recs {
		out = append(out, model.Reviewer{
			UserID:   rec.UserID,
			AddedBy:  rec.AddedBy,
			AddedAt:  time.Unix(rec.AddedAt, 0).UTC(),
			Username: rec.Username,
		})
	}
	return out, nil
}

// IDs returns the user ids of all reviewers.
func (r *ReviewerRepo) IDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM reviewers ORDER BY user_id`); err != nil {
		return nil, err
	}
	return ids, nil
}
