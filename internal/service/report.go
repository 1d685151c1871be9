package service

import (
	"context"
	"time"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

// EventStats is the occupancy and income of one event, or of all events
// when EventID is zero.
type EventStats struct {
	EventID       int64  `json:"event_id,omitempty" yaml:"event_id,omitempty"`
	Title         string `json:"title,omitempty" yaml:"title,omitempty"`
	TotalSeats    int64  `json:"total_seats" yaml:"total_seats"`
	SoldCount     int64  `json:"sold_count" yaml:"sold_count"`
	SoldIncome    int64  `json:"sold_income" yaml:"sold_income"`
	ReservedCount int64  `json:"reserved_count" yaml:"reserved_count"`
	FreeCount     int64  `json:"free_count" yaml:"free_count"`
	PaidCount     int64  `json:"paid_count" yaml:"paid_count"`
}

func (s *EventStats) add(o EventStats) {
	s.TotalSeats += o.TotalSeats
	s.SoldCount += o.SoldCount
	s.SoldIncome += o.SoldIncome
	s.ReservedCount += o.ReservedCount
	s.FreeCount += o.FreeCount
	s.PaidCount += o.PaidCount
}

// Report is the output of the financial aggregator.
type Report struct {
	Events      []EventStats `json:"events" yaml:"events"`
	Totals      EventStats   `json:"totals" yaml:"totals"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
}

// Aggregator computes read-only financial reports.  Income is the sum
// of each sold seat's current price, so a price edited after the sale
// changes the reported income.
type Aggregator struct {
	seats    *repository.SeatRepo
	events   *repository.EventRepo
	payments *repository.PaymentRepo
}

func NewAggregator(seats *repository.SeatRepo, events *repository.EventRepo, payments *repository.PaymentRepo) *Aggregator {
	return &Aggregator{seats: seats, events: events, payments: payments}
}

// Report aggregates one event, or every event when eventID is zero.
// Seat counts for all events come from one grouped query, so they
// describe a single snapshot of the seat table.
func (a *Aggregator) Report(ctx context.Context, eventID int64) (*Report, error) {
	var events []model.Event
	if eventID > 0 {
		e, err := a.events.Get(ctx, eventID)
		if err != nil {
			return nil, translate(err)
		}
		events = []model.Event{*e}
	} else {
		var err error
		if events, err = a.events.List(ctx); err != nil {
			return nil, err
		}
	}

	totals, err := a.seats.StatusTotals(ctx, eventID)
	if err != nil {
		return nil, err
	}
	paid, err := a.payments.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	byEvent := make(map[int64]*EventStats, len(events))
	rep := &Report{Events: make([]EventStats, len(events)), GeneratedAt: time.Now().UTC()}
	for i, e := range events {
		rep.Events[i] = EventStats{EventID: e.ID, Title: e.Title, PaidCount: paid[e.ID]}
		byEvent[e.ID] = &rep.Events[i]
	}
	for _, t := range totals {
		st, ok := byEvent[t.EventID]
		if !ok {
			continue
		}
		st.TotalSeats += t.Seats
		switch model.SeatStatus(t.Status) {
		case model.SeatSold:
			st.SoldCount += t.Seats
			st.SoldIncome += t.PriceSum
		case model.SeatReserved:
			st.ReservedCount += t.Seats
		case model.SeatFree:
			st.FreeCount += t.Seats
		}
	}
	for _, st := range rep.Events {
		rep.Totals.add(st)
	}
	return rep, nil
}
