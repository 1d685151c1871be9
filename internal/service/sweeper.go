package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/notify"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

// Default reservation window.
const (
	DefaultSweepInterval = 30 * time.Second
	DefaultRemindAfter   = 30 * time.Minute
	DefaultExpireAfter   = 40 * time.Minute
)

// SweeperConfig holds the reservation window thresholds.
type SweeperConfig struct {
	Interval    time.Duration
	RemindAfter time.Duration
	ExpireAfter time.Duration
}

// Validate rejects windows that cannot work.
func (c SweeperConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.Interval)
	}
	if c.RemindAfter <= 0 || c.ExpireAfter <= c.RemindAfter {
		return fmt.Errorf("need 0 < remind (%s) < expire (%s)", c.RemindAfter, c.ExpireAfter)
	}
	return nil
}

// SweepReport summarizes one sweep cycle.
type SweepReport struct {
	Scanned  int `json:"scanned"`
	Reminded int `json:"reminded"`
	Released int `json:"released"`
	Errors   int `json:"errors"`
}

// Sweeper periodically reclaims reservations that outlived the window
// and reminds holders who are getting close.  Notifications are handed
// to the notifier and never awaited.
type Sweeper struct {
	seats    *repository.SeatRepo
	res      *Reservations
	notifier notify.Notifier
	ledger   ReminderLedger
	cfg      SweeperConfig

	// Now is the sweep clock.
	Now func() time.Time
}

// NewSweeper builds a sweeper.  A nil ledger means MemoryLedger.
func NewSweeper(seats *repository.SeatRepo, res *Reservations, n notify.Notifier, ledger ReminderLedger, cfg SweeperConfig) *Sweeper {
	if ledger == nil {
		ledger = NewMemoryLedger(cfg.ExpireAfter)
	}
	return &Sweeper{
		seats:    seats,
		res:      res,
		notifier: n,
		ledger:   ledger,
		cfg:      cfg,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps once immediately and then on every interval until ctx is
// done.  Ages are recomputed from the stored reserved_at, so nothing is
// lost across restarts.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("sweeper: started (interval=%s remind=%s expire=%s)", s.cfg.Interval, s.cfg.RemindAfter, s.cfg.ExpireAfter)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		rep, err := s.Sweep(ctx)
		if err != nil {
			log.Printf("sweeper: cycle failed: %v", err)
		} else if rep.Reminded > 0 || rep.Released > 0 || rep.Errors > 0 {
			log.Printf("sweeper: scanned=%d reminded=%d released=%d errors=%d", rep.Scanned, rep.Reminded, rep.Released, rep.Errors)
		}
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs one cycle.  Each seat is handled independently: a failure
// on one is counted and logged and the cycle moves on.  The returned
// error is only set when the reserved seats cannot be listed at all.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	seats, err := s.seats.ListReserved(ctx)
	if err != nil {
		return rep, fmt.Errorf("list reserved seats: %w", err)
	}
	now := s.Now()
	for _, seat := range seats {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Scanned++
		if seat.ReservedAt == nil || seat.ReservedBy == nil {
			continue
		}
		age := now.Sub(*seat.ReservedAt)
		switch {
		case age > s.cfg.ExpireAfter:
			released, err := s.expire(ctx, seat)
			if err != nil {
				rep.Errors++
				log.Printf("sweeper: release event=%d seat=%s: %v", seat.EventID, seat.SeatID, err)
			} else if released {
				rep.Released++
			}
		case age > s.cfg.RemindAfter:
			first, err := s.ledger.MarkReminded(ctx, seat)
			if err != nil {
				// without the ledger we cannot tell, so remind anyway
				rep.Errors++
				log.Printf("sweeper: %v", err)
				first = true
			}
			if first {
				s.notifier.Notify(notify.ReminderDue(*seat.ReservedBy, seat.EventID, seat.SeatID))
				rep.Reminded++
			}
		}
	}
	return rep, nil
}

func (s *Sweeper) expire(ctx context.Context, seat model.Seat) (bool, error) {
	released, err := s.res.ReleaseExpired(ctx, seat)
	if err != nil || !released {
		return false, err
	}
	s.notifier.Notify(notify.ReservationExpired(*seat.ReservedBy, seat.EventID, seat.SeatID))
	return true, nil
}
