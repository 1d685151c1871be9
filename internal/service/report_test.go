package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/notify"
	"github.com/iliyamo/seat-reservation/internal/service"
)

func TestAggregator_Consistency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, repositoryProvision(f, 2, "Matinee", 2, 3))

	require.NoError(t, f.res.Claim(ctx, 2, "R1C1", 5))
	require.NoError(t, f.res.Claim(ctx, 2, "R2C3", 6))
	require.NoError(t, f.res.Claim(ctx, 1, "R1C2", 7))
	require.NoError(t, f.approvals.Approve(ctx, 2, "R1C1", 5))
	require.NoError(t, f.approvals.Approve(ctx, 1, "R1C2", 7))

	rep, err := f.agg.Report(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rep.Events, 2)

	for _, st := range rep.Events {
		seats, err := f.res.ListSeats(ctx, st.EventID)
		require.NoError(t, err)
		var income int64
		for _, s := range seats {
			if s.Status == model.SeatSold {
				income += s.Price
			}
		}
		assert.Equal(t, income, st.SoldIncome, "event %d", st.EventID)
		assert.Equal(t, int64(len(seats)), st.SoldCount+st.ReservedCount+st.FreeCount)
		assert.Equal(t, int64(len(seats)), st.TotalSeats)
		assert.Equal(t, st.SoldCount, st.PaidCount)
	}
	assert.Equal(t, int64(8), rep.Totals.TotalSeats)
	assert.Equal(t, int64(2), rep.Totals.SoldCount)
	assert.Equal(t, int64(1), rep.Totals.ReservedCount)
	assert.Equal(t, int64(200000+100000), rep.Totals.SoldIncome)

	one, err := f.agg.Report(ctx, 2)
	require.NoError(t, err)
	require.Len(t, one.Events, 1)
	assert.Equal(t, "Matinee", one.Events[0].Title)
	assert.Equal(t, one.Events[0].SoldIncome, one.Totals.SoldIncome)

	_, err = f.agg.Report(ctx, 99)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAggregator_UsesCurrentPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.res.Claim(ctx, 1, "R1C1", 5))
	require.NoError(t, f.approvals.Approve(ctx, 1, "R1C1", 5))
	require.NoError(t, f.res.SetPrice(ctx, 1, "R1C1", 120000))

	rep, err := f.agg.Report(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), rep.Totals.SoldIncome)
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const userA, userB = int64(11), int64(22)

	require.NoError(t, f.res.Claim(ctx, 1, "R1C1", userA))
	assert.ErrorIs(t, f.res.Claim(ctx, 1, "R1C1", userB), service.ErrConflict)
	require.NoError(t, f.res.Claim(ctx, 1, "R1C2", userB))

	require.NoError(t, f.approvals.Approve(ctx, 1, "R1C1", userA))
	assert.True(t, f.seat(t, "R1C1").SoldTo(userA))
	payments, err := f.payments.ListByEvent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentRecord{UserID: userA, EventID: 1, SeatID: "R1C1", PaidAt: t0}, payments[0])

	rep, err := f.agg.Report(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), rep.Totals.SoldIncome)
	assert.Equal(t, int64(1), rep.Totals.ReservedCount)

	f.now = t0.Add(expireAfter + time.Second)
	_, err = f.sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SeatFree, f.seat(t, "R1C2").Status)
	expired := f.rec.OfKind(notify.KindReservationExpired)
	require.Len(t, expired, 1)
	assert.Equal(t, userB, expired[0].Recipient)

	rep, err = f.agg.Report(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rep.Totals.FreeCount)
	assert.Equal(t, int64(0), rep.Totals.ReservedCount)
	assert.Equal(t, int64(100000), rep.Totals.SoldIncome)
}

func repositoryProvision(f *fixture, id int64, title string, rows, cols int) error {
	return f.events.Provision(context.Background(), &model.Event{ID: id, Title: title, Rows: rows, Cols: cols}, nil, 100000)
}
