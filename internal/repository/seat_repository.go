package repository // repository defines data access for seats

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/seat-reservation/internal/model"
)

// seatRecord mirrors the seats table.  Business logic should use
// model.Seat instead.
type seatRecord struct {
	EventID    int64         `db:"event_id"`
	SeatID     string        `db:"seat_id"`
	Row        int           `db:"seat_row"`
	Col        int           `db:"seat_col"`
	Status     string        `db:"status"`
	ReservedBy sql.NullInt64 `db:"reserved_by"`
	ReservedAt sql.NullInt64 `db:"reserved_at"`
	Price      int64         `db:"price"`
}

func (r seatRecord) toModel() model.Seat {
	s := model.Seat{
		EventID: r.EventID,
		SeatID:  r.SeatID,
		Row:     r.Row,
		Col:     r.Col,
		Status:  model.SeatStatus(r.Status),
		Price:   r.Price,
	}
	if r.ReservedBy.Valid {
		by := r.ReservedBy.Int64
		s.ReservedBy = &by
	}
	if r.ReservedAt.Valid {
		at := time.Unix(r.ReservedAt.Int64, 0).UTC()
		s.ReservedAt = &at
	}
	return s
}

const seatColumns = `event_id, seat_id, seat_row, seat_col, status, reserved_by, reserved_at, price`

// SeatRepo is the seat store.  Every state transition is a single
// conditional UPDATE ("... WHERE status = X") so the database, not
// process memory, decides which of several concurrent callers wins.
type SeatRepo struct {
	db *sqlx.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sqlx.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// DB exposes the underlying handle so callers can run transactions
// spanning several repositories.
func (r *SeatRepo) DB() *sqlx.DB {
	return r.db
}

// seatInsertBatch bounds the rows per INSERT.  Six placeholders per
// row keeps each statement well under SQLite's 32766 and MySQL's 65535
// variable limits.
const seatInsertBatch = 500

// CreateBulkTx inserts the seats of a freshly provisioned event in
// batches of seatInsertBatch rows, all inside tx.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sqlx.Tx, seats []model.Seat) error {
	for start := 0; start < len(seats); start += seatInsertBatch {
		end := start + seatInsertBatch
		if end > len(seats) {
			end = len(seats)
		}
		if err := insertSeats(ctx, tx, seats[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertSeats(ctx context.Context, tx *sqlx.Tx, seats []model.Seat) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO seats (event_id, seat_id, seat_row, seat_col, status, price) VALUES `)
	args := make([]interface{}, 0, len(seats)*6)
	for i, s := range seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?)")
		args = append(args, s.EventID, s.SeatID, s.Row, s.Col, string(model.SeatFree), s.Price)
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(sb.String()), args...)
	return err
}

// ListByEvent returns all seats of an event ordered by row then column.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID int64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE event_id = ? ORDER BY seat_row, seat_col`
	var recs []seatRecord
	if err := r.db.SelectContext(ctx, &recs, r.db.Rebind(q), eventID); err != nil {
		return nil, err
	}
	return toSeats(recs), nil
}

// Get returns one seat or ErrSeatNotFound.
func (r *SeatRepo) Get(ctx context.Context, eventID int64, seatID string) (*model.Seat, error) {
	return getSeat(ctx, r.db, eventID, seatID)
}

// GetTx is Get inside an existing transaction.
func (r *SeatRepo) GetTx(ctx context.Context, tx *sqlx.Tx, eventID int64, seatID string) (*model.Seat, error) {
	return getSeat(ctx, tx, eventID, seatID)
}

func getSeat(ctx context.Context, q queryer, eventID int64, seatID string) (*model.Seat, error) {
	const sel = `SELECT ` + seatColumns + ` FROM seats WHERE event_id = ? AND seat_id = ?`
	var rec seatRecord
	if err := sqlx.GetContext(ctx, q, &rec, q.Rebind(sel), eventID, seatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	s := rec.toModel()
	return &s, nil
}

// SetPrice overwrites the price of an existing seat.  Validation of the
// amount is the caller's job.
func (r *SeatRepo) SetPrice(ctx context.Context, eventID int64, seatID string, price int64) error {
	const q = `UPDATE seats SET price = ? WHERE event_id = ? AND seat_id = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), price, eventID, seatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged
		if _, err := r.Get(ctx, eventID, seatID); err != nil {
			return err
		}
	}
	return nil
}

// Claim reserves a FREE seat for userID.  Exactly one of any number of
// concurrent callers succeeds; the rest get ErrConflict.  ErrSeatNotFound
// is returned for unknown seats.
func (r *SeatRepo) Claim(ctx context.Context, eventID int64, seatID string, userID int64, at time.Time) error {
	const q = `UPDATE seats SET status = ?, reserved_by = ?, reserved_at = ?
	           WHERE event_id = ? AND seat_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q),
		string(model.SeatReserved), userID, at.Unix(), eventID, seatID, string(model.SeatFree))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := r.Get(ctx, eventID, seatID); err != nil {
		return err
	}
	return ErrConflict
}

// Release returns a RESERVED seat to FREE.  Seats that are FREE, SOLD or
// missing are left untouched; released reports whether a row changed.
func (r *SeatRepo) Release(ctx context.Context, eventID int64, seatID string) (bool, error) {
	const q = `UPDATE seats SET status = ?, reserved_by = NULL, reserved_at = NULL
	           WHERE event_id = ? AND seat_id = ? AND status = ?`
	return r.execChanged(ctx, q, string(model.SeatFree), eventID, seatID, string(model.SeatReserved))
}

// ReleaseHeldBy is Release restricted to a reservation held by userID.
func (r *SeatRepo) ReleaseHeldBy(ctx context.Context, eventID int64, seatID string, userID int64) (bool, error) {
	const q = `UPDATE seats SET status = ?, reserved_by = NULL, reserved_at = NULL
	           WHERE event_id = ? AND seat_id = ? AND status = ? AND reserved_by = ?`
	return r.execChanged(ctx, q, string(model.SeatFree), eventID, seatID, string(model.SeatReserved), userID)
}

// ReleaseReservation frees a seat only if it still carries the exact
// reservation (holder and claim time) the caller observed.  A seat that
// was sold, or released and claimed again in the meantime, is kept.
func (r *SeatRepo) ReleaseReservation(ctx context.Context, eventID int64, seatID string, userID int64, reservedAt time.Time) (bool, error) {
	const q = `UPDATE seats SET status = ?, reserved_by = NULL, reserved_at = NULL
	           WHERE event_id = ? AND seat_id = ? AND status = ? AND reserved_by = ? AND reserved_at = ?`
	return r.execChanged(ctx, q, string(model.SeatFree), eventID, seatID, string(model.SeatReserved), userID, reservedAt.Unix())
}

// Sell marks a RESERVED seat SOLD, keeping reserved_by as the buyer.
// Missing or non-reserved seats are a silent no-op.
func (r *SeatRepo) Sell(ctx context.Context, eventID int64, seatID string) (bool, error) {
	const q = `UPDATE seats SET status = ? WHERE event_id = ? AND seat_id = ? AND status = ?`
	return r.execChanged(ctx, q, string(model.SeatSold), eventID, seatID, string(model.SeatReserved))
}

// SellToTx marks the seat SOLD only while it is RESERVED by userID.  It
// runs in the caller's transaction so a payment record can be written
// atomically with the sale.
func (r *SeatRepo) SellToTx(ctx context.Context, tx *sqlx.Tx, eventID int64, seatID string, userID int64) (bool, error) {
	const q = `UPDATE seats SET status = ? WHERE event_id = ? AND seat_id = ? AND status = ? AND reserved_by = ?`
	res, err := tx.ExecContext(ctx, tx.Rebind(q), string(model.SeatSold), eventID, seatID, string(model.SeatReserved), userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ListReserved returns every RESERVED seat across all events, oldest
// reservation first.
func (r *SeatRepo) ListReserved(ctx context.Context) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE status = ? ORDER BY reserved_at, event_id, seat_id`
	var recs []seatRecord
	if err := r.db.SelectContext(ctx, &recs, r.db.Rebind(q), string(model.SeatReserved)); err != nil {
		return nil, err
	}
	return toSeats(recs), nil
}

// ListReservedByUser returns the RESERVED seats of one user, newest
// first.  Normally there is at most one.
func (r *SeatRepo) ListReservedByUser(ctx context.Context, userID int64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE status = ? AND reserved_by = ?
	           ORDER BY reserved_at DESC, event_id, seat_id`
	var recs []seatRecord
	if err := r.db.SelectContext(ctx, &recs, r.db.Rebind(q), string(model.SeatReserved), userID); err != nil {
		return nil, err
	}
	return toSeats(recs), nil
}

// FindReservedByUser returns the seat userID currently holds, or
// ErrNoReservation.
func (r *SeatRepo) FindReservedByUser(ctx context.Context, userID int64) (*model.Seat, error) {
	seats, err := r.ListReservedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, ErrNoReservation
	}
	return &seats[0], nil
}

// StatusTotal is one (event, status) bucket of the seat table.
type StatusTotal struct {
	EventID  int64  `db:"event_id"`
	Status   string `db:"status"`
	Seats    int64  `db:"seat_count"`
	PriceSum int64  `db:"price_sum"`
}

// StatusTotals groups seats by event and status, summing current
// prices.  An eventID of zero means all events.  The result is read in
// a single statement so it reflects one consistent snapshot.
func (r *SeatRepo) StatusTotals(ctx context.Context, eventID int64) ([]StatusTotal, error) {
	q := `SELECT event_id, status, COUNT(*) AS seat_count, COALESCE(SUM(price), 0) AS price_sum FROM seats`
	args := []interface{}{}
	if eventID > 0 {
		q += ` WHERE event_id = ?`
		args = append(args, eventID)
	}
	q += ` GROUP BY event_id, status ORDER BY event_id, status`
	var out []StatusTotal
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SeatRepo) execChanged(ctx context.Context, q string, args ...interface{}) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func toSeats(recs []seatRecord) []model.Seat {
	seats := make([]model.Seat, 0, len(recs))
	for _, rec := range recs {
		seats = append(seats, rec.toModel())
	}
	return seats
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	Rebind(string) string
}
