package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// PaymentRepo stores approved payments.  Rows are only ever inserted;
// the (event_id, seat_id) primary key rules out a second record for the
// same seat.
type PaymentRepo struct {
	db *sqlx.DB
}

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx appends a payment inside the caller's transaction.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, p model.PaymentRecord) error {
	const q = `INSERT INTO payments (event_id, seat_id, user_id, paid_at) VALUES (?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, tx.Rebind(q), p.EventID, p.SeatID, p.UserID, p.PaidAt.Unix())
	return err
}

type paymentRecord struct {
	EventID int64  `db:"event_id"`
	SeatID  string `db:"seat_id"`
	UserID  int64  `db:"user_id"`
	PaidAt  int64  `db:"paid_at"`
}

// ListByEvent returns the payments of one event in payment order.
func (r *PaymentRepo) ListByEvent(ctx context.Context, eventID int64) ([]model.PaymentRecord, error) {
	const q = `SELECT event_id, seat_id, user_id, paid_at FROM payments WHERE event_id = ? ORDER BY paid_at, seat_id`
	var recs []paymentRecord
	if err := r.db.SelectContext(ctx, &recs, r.db.Rebind(q), eventID); err != nil {
		return nil, err
	}
	out := make([]model.PaymentRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, model.PaymentRecord{
			UserID:  rec.UserID,
			EventID: rec.EventID,
			SeatID:  rec.SeatID,
			PaidAt:  time.Unix(rec.PaidAt, 0).UTC(),
		})
	}
	return out, nil
}

// CountByEvent returns the number of payments per event.  An eventID of
// zero counts every event.
func (r *PaymentRepo) CountByEvent(ctx context.Context, eventID int64) (map[int64]int64, error) {
	q := `SELECT event_id, COUNT(*) AS paid FROM payments`
	args := []interface{}{}
	if eventID > 0 {
		q += ` WHERE event_id = ?`
		args = append(args, eventID)
	}
	q += ` GROUP BY event_id`
	var rows []struct {
		EventID int64 `db:"event_id"`
		Paid    int64 `db:"paid"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		out[row.EventID] = row.Paid
	}
	return out, nil
}
