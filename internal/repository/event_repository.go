package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/seat-reservation/internal/model"
)

type eventRecord struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Date        string `db:"event_date"`
	Type        string `db:"event_type"`
	Description string `db:"description"`
	PosterPath  string `db:"poster_path"`
	Rows        int    `db:"seat_rows"`
	Cols        int    `db:"seat_cols"`
	CreatedAt   int64  `db:"created_at"`
}

func (r eventRecord) toModel() model.Event {
	return model.Event{
		ID:          r.ID,
		Title:       r.Title,
		Date:        r.Date,
		Type:        r.Type,
		Description: r.Description,
		PosterPath:  r.PosterPath,
		Rows:        r.Rows,
		Cols:        r.Cols,
		CreatedAt:   time.Unix(r.CreatedAt, 0).UTC(),
	}
}

const eventColumns = `id, title, event_date, event_type, description, poster_path, seat_rows, seat_cols, created_at`

// ErrEventExists is returned when provisioning an id that is taken.
var ErrEventExists = errors.New("event already exists")

// EventRepo reads and provisions events.
type EventRepo struct {
	db    *sqlx.DB
	seats *SeatRepo
}

// NewEventRepo constructs an EventRepo.  Seats are written through the
// seat repository when an event is provisioned.
func NewEventRepo(db *sqlx.DB) *EventRepo {
	return &EventRepo{db: db, seats: NewSeatRepo(db)}
}

// Provision inserts the event and its full seat grid in one
// transaction.  rowPrices maps 1-based rows to a price; other rows use
// defaultPrice.
func (r *EventRepo) Provision(ctx context.Context, e *model.Event, rowPrices map[int]int64, defaultPrice int64) error {
	if e.ID <= 0 || e.Rows <= 0 || e.Cols <= 0 {
		return fmt.Errorf("provision event %d: id, rows and cols must be positive", e.ID)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM events WHERE id = ?`), e.ID); err != nil {
		return err
	}
	if n > 0 {
		return ErrEventExists
	}

	const q = `INSERT INTO events (id, title, event_date, event_type, description, poster_path, seat_rows, seat_cols, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, tx.Rebind(q), e.ID, e.Title, e.Date, e.Type, e.Description, e.PosterPath,
		e.Rows, e.Cols, e.CreatedAt.Unix()); err != nil {
		return err
	}
	if err := r.seats.CreateBulkTx(ctx, tx, e.Grid(rowPrices, defaultPrice)); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns one event or ErrEventNotFound.
func (r *EventRepo) Get(ctx context.Context, id int64) (*model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	var rec eventRecord
	if err := r.db.GetContext(ctx, &rec, r.db.Rebind(q), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	e := rec.toModel()
	return &e, nil
}

// List returns all events ordered by id.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events ORDER BY id`
	var recs []eventRecord
	if err := r.db.SelectContext(ctx, &recs, q); err != nil {
		return nil, err
	}
	out := make([]model.Event, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out, nil
}
