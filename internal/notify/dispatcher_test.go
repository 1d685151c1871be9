package notify_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-reservation/internal/notify"
	"github.com/iliyamo/seat-reservation/internal/notify/notifytest"
)

func TestDispatcher_DeliversQueued(t *testing.T) {
	rec := &notifytest.Recorder{}
	d := notify.NewDispatcher(rec, notify.Options{Workers: 2})
	d.Start(context.Background())

	for i := 0; i < 10; i++ {
		require.True(t, d.Notify(notify.ReminderDue(int64(i), 1, "R1C1")))
	}
	d.Close()

	assert.Len(t, rec.All(), 10)
	assert.Equal(t, notify.Stats{Delivered: 10}, d.Stats())
	assert.False(t, d.Notify(notify.ReminderDue(1, 1, "R1C1")), "closed dispatcher drops")
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	sink := notify.SinkFunc(func(context.Context, notify.Notification) error {
		if calls.Add(1) < 3 {
			return errors.New("broker down")
		}
		return nil
	})
	d := notify.NewDispatcher(sink, notify.Options{Workers: 1, MaxAttempts: 3, BaseDelay: time.Millisecond})
	d.Start(context.Background())
	d.Notify(notify.PaymentApproved(7, 1, "R1C1"))
	d.Close()

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, uint64(1), d.Stats().Delivered)
}

func TestDispatcher_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	sink := notify.SinkFunc(func(context.Context, notify.Notification) error {
		calls.Add(1)
		return errors.New("broker down")
	})
	d := notify.NewDispatcher(sink, notify.Options{Workers: 1, MaxAttempts: 2, BaseDelay: time.Millisecond})
	d.Start(context.Background())
	d.Notify(notify.PaymentRejected(7, 1, "R1C1"))
	d.Notify(notify.PaymentRejected(8, 1, "R1C2"))
	d.Close()

	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, notify.Stats{Failed: 2}, d.Stats())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := notify.SinkFunc(func(context.Context, notify.Notification) error {
		<-block
		return nil
	})
	d := notify.NewDispatcher(sink, notify.Options{Buffer: 1, Workers: 1})
	// not started: the single buffer slot fills and the rest drop
	assert.True(t, d.Notify(notify.ReminderDue(1, 1, "R1C1")))
	assert.False(t, d.Notify(notify.ReminderDue(2, 1, "R1C2")))
	assert.Equal(t, uint64(1), d.Stats().Dropped)

	d.Start(context.Background())
	close(block)
	d.Close()
	assert.Equal(t, uint64(1), d.Stats().Delivered)
}

func TestConstructors(t *testing.T) {
	n := notify.ReviewRequested(99, 1, "R1C1", 7, "photo-123")
	assert.Equal(t, notify.KindReviewRequested, n.Kind)
	assert.Equal(t, int64(99), n.Recipient)
	assert.Equal(t, int64(7), n.UserID)
	assert.Equal(t, "photo-123", n.EvidenceRef)
	assert.NotEmpty(t, n.ID)

	r := notify.ReviewResolved(99, 1, "R1C1", 7, "approve")
	assert.Equal(t, "approve", r.Decision)
	assert.NotEqual(t, n.ID, r.ID)

	sm := notify.SupportMessage(99, 7, 12, "seat map does not load")
	assert.Equal(t, notify.KindSupportMessage, sm.Kind)
	assert.Equal(t, int64(99), sm.Recipient)
	assert.Equal(t, int64(7), sm.UserID)
	assert.Equal(t, int64(12), sm.MessageID)

	reply := notify.SupportReply(7, 12, "fixed now")
	assert.Equal(t, int64(7), reply.Recipient)
	assert.Equal(t, "fixed now", reply.Text)
	assert.Equal(t, notify.KindSupportResolved, notify.SupportResolved(7, 12).Kind)
}
