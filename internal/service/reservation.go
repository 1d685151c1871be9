package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

// DefaultMaxPrice is the highest price SetPrice accepts unless
// configured otherwise.
const DefaultMaxPrice int64 = 10_000_000

// Reservations is the only writer of seat state.  Every mutation is a
// conditional update in the store and runs on the worker pool; reads go
// straight to the store.
type Reservations struct {
	seats    *repository.SeatRepo
	events   *repository.EventRepo
	payments *repository.PaymentRepo
	pool     *WorkerPool

	// MaxPrice caps SetPrice.  Zero means DefaultMaxPrice.
	MaxPrice int64
	// Now is the clock used for reserved_at and paid_at.
	Now func() time.Time
}

// NewReservations wires the service to its repositories and pool.
func NewReservations(seats *repository.SeatRepo, events *repository.EventRepo, payments *repository.PaymentRepo, pool *WorkerPool) *Reservations {
	return &Reservations{
		seats:    seats,
		events:   events,
		payments: payments,
		pool:     pool,
		MaxPrice: DefaultMaxPrice,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Claim reserves a FREE seat for userID.  Under concurrent claims on one
// seat exactly one caller gets nil and the others get ErrConflict.
func (r *Reservations) Claim(ctx context.Context, eventID int64, seatID string, userID int64) error {
	return r.pool.Do(ctx, func(ctx context.Context) error {
		return translate(r.seats.Claim(ctx, eventID, seatID, userID, r.Now()))
	})
}

// Release returns a RESERVED seat to FREE.  It succeeds without change
// for FREE or unknown seats and never frees a SOLD one, so a sale racing
// an expiry always wins.
func (r *Reservations) Release(ctx context.Context, eventID int64, seatID string) (released bool, err error) {
	err = r.pool.Do(ctx, func(ctx context.Context) error {
		var e error
		released, e = r.seats.Release(ctx, eventID, seatID)
		return e
	})
	return released, err
}

// ReleaseHeldBy is Release limited to a reservation owned by userID.
func (r *Reservations) ReleaseHeldBy(ctx context.Context, eventID int64, seatID string, userID int64) (released bool, err error) {
	err = r.pool.Do(ctx, func(ctx context.Context) error {
		var e error
		released, e = r.seats.ReleaseHeldBy(ctx, eventID, seatID, userID)
		return e
	})
	return released, err
}

// ReleaseExpired frees seat only if it still carries the reservation the
// caller observed.
func (r *Reservations) ReleaseExpired(ctx context.Context, seat model.Seat) (released bool, err error) {
	if seat.ReservedBy == nil || seat.ReservedAt == nil {
		return false, nil
	}
	err = r.pool.Do(ctx, func(ctx context.Context) error {
		var e error
		released, e = r.seats.ReleaseReservation(ctx, seat.EventID, seat.SeatID, *seat.ReservedBy, *seat.ReservedAt)
		return e
	})
	return released, err
}

// Sell marks a RESERVED seat SOLD and keeps reserved_by as the buyer.
// Unknown or non-reserved seats are left alone.
func (r *Reservations) Sell(ctx context.Context, eventID int64, seatID string) error {
	return r.pool.Do(ctx, func(ctx context.Context) error {
		_, err := r.seats.Sell(ctx, eventID, seatID)
		return err
	})
}

// SettleOutcome describes what Settle did.
type SettleOutcome int

const (
	// Settled means the seat was sold and a payment recorded.
	Settled SettleOutcome = iota
	// AlreadySettled means the seat was already sold to the same user.
	AlreadySettled
)

// Settle sells the seat to userID and appends its payment record in one
// transaction.  The seat must be RESERVED by userID; a seat already
// SOLD to userID yields AlreadySettled and no second record.  Anything
// else is ErrStaleDecision or ErrNotFound.
func (r *Reservations) Settle(ctx context.Context, eventID int64, seatID string, userID int64) (SettleOutcome, error) {
	var out SettleOutcome
	err := r.pool.Do(ctx, func(ctx context.Context) error {
		tx, err := r.seats.DB().BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		sold, err := r.seats.SellToTx(ctx, tx, eventID, seatID, userID)
		if err != nil {
			return err
		}
		if !sold {
			seat, err := r.seats.GetTx(ctx, tx, eventID, seatID)
			if err != nil {
				return translate(err)
			}
			if seat.SoldTo(userID) {
				out = AlreadySettled
				return nil
			}
			return ErrStaleDecision
		}
		p := model.PaymentRecord{UserID: userID, EventID: eventID, SeatID: seatID, PaidAt: r.Now()}
		if err := r.payments.CreateTx(ctx, tx, p); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}
		out = Settled
		return tx.Commit()
	})
	return out, err
}

// FindActiveReservation returns the seat userID currently holds, or nil
// if there is none.  Should a user somehow hold several, the most
// recent claim is returned.
func (r *Reservations) FindActiveReservation(ctx context.Context, userID int64) (*model.Seat, error) {
	seat, err := r.seats.FindReservedByUser(ctx, userID)
	if errors.Is(err, repository.ErrNoReservation) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return seat, nil
}

// ListEvents returns every provisioned event.
func (r *Reservations) ListEvents(ctx context.Context) ([]model.Event, error) {
	return r.events.List(ctx)
}

// ListSeats returns the seat map of an event ordered by row and column.
func (r *Reservations) ListSeats(ctx context.Context, eventID int64) ([]model.Seat, error) {
	if _, err := r.events.Get(ctx, eventID); err != nil {
		return nil, translate(err)
	}
	return r.seats.ListByEvent(ctx, eventID)
}

// GetSeat returns one seat or ErrNotFound.
func (r *Reservations) GetSeat(ctx context.Context, eventID int64, seatID string) (*model.Seat, error) {
	seat, err := r.seats.Get(ctx, eventID, seatID)
	return seat, translate(err)
}

// SetPrice changes a seat's price.  Prices must be positive and at most
// MaxPrice.
func (r *Reservations) SetPrice(ctx context.Context, eventID int64, seatID string, price int64) error {
	ceiling := r.MaxPrice
	if ceiling <= 0 {
		ceiling = DefaultMaxPrice
	}
	if price <= 0 || price > ceiling {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidPrice, price, ceiling)
	}
	return r.pool.Do(ctx, func(ctx context.Context) error {
		return translate(r.seats.SetPrice(ctx, eventID, seatID, price))
	})
}
