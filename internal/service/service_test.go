package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-reservation/internal/database/dbtest"
	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/notify/notifytest"
	"github.com/iliyamo/seat-reservation/internal/repository"
	"github.com/iliyamo/seat-reservation/internal/service"
)

var t0 = time.Unix(1_700_000_000, 0).UTC()

const (
	remindAfter = 1800 * time.Second
	expireAfter = 2400 * time.Second
)

// fixture wires the whole core against an in-memory store with a
// controllable clock.
type fixture struct {
	db        *sqlx.DB
	seats     *repository.SeatRepo
	events    *repository.EventRepo
	payments  *repository.PaymentRepo
	res       *service.Reservations
	approvals *service.Approvals
	agg       *service.Aggregator
	sweeper   *service.Sweeper
	rec       *notifytest.Recorder
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.OpenTest(t)
	f := &fixture{db: db, now: t0, rec: &notifytest.Recorder{}}
	clock := func() time.Time { return f.now }

	f.seats = repository.NewSeatRepo(db)
	f.events = repository.NewEventRepo(db)
	events := f.events
	f.payments = repository.NewPaymentRepo(db)
	reviewers := repository.NewReviewerRepo(db)

	pool := service.NewWorkerPool(4)
	t.Cleanup(pool.Close)

	f.res = service.NewReservations(f.seats, events, f.payments, pool)
	f.res.Now = clock
	f.approvals = service.NewApprovals(f.res, reviewers, f.rec)
	f.agg = service.NewAggregator(f.seats, events, f.payments)

	cfg := service.SweeperConfig{Interval: time.Second, RemindAfter: remindAfter, ExpireAfter: expireAfter}
	f.sweeper = service.NewSweeper(f.seats, f.res, f.rec, nil, cfg)
	f.sweeper.Now = clock

	require.NoError(t, events.Provision(context.Background(),
		&model.Event{ID: 1, Title: "Opening night", Rows: 1, Cols: 2}, map[int]int64{1: 100000}, 0))
	require.NoError(t, f.res.SetPrice(context.Background(), 1, "R1C2", 200000))
	require.NoError(t, f.approvals.AddReviewer(context.Background(), 900, 900, "root"))
	return f
}

func (f *fixture) seat(t *testing.T, seatID string) *model.Seat {
	t.Helper()
	s, err := f.res.GetSeat(context.Background(), 1, seatID)
	require.NoError(t, err)
	return s
}

func (f *fixture) paymentCount(t *testing.T) int {
	t.Helper()
	list, err := f.payments.ListByEvent(context.Background(), 1)
	require.NoError(t, err)
	return len(list)
}
