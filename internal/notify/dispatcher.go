package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures a Dispatcher.  Zero values fall back to defaults.
type Options struct {
	Buffer      int           // queued notifications before Notify drops
	Workers     int           // concurrent deliveries
	MaxAttempts int           // Send calls per notification
	BaseDelay   time.Duration // first retry delay, doubled per attempt
}

func (o Options) withDefaults() Options {
	if o.Buffer <= 0 {
		o.Buffer = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = 200 * time.Millisecond
	}
	return o
}

// Stats are cumulative dispatcher counters.
type Stats struct {
	Delivered uint64 `json:"delivered"`
	Failed    uint64 `json:"failed"`
	Dropped   uint64 `json:"dropped"`
}

// Dispatcher is a bounded queue in front of a Sink.  It implements
// Notifier.
type Dispatcher struct {
	sink Sink
	opts Options
	ch   chan Notification

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher returns a dispatcher; call Start before use.
func NewDispatcher(sink Sink, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		sink: sink,
		opts: opts,
		ch:   make(chan Notification, opts.Buffer),
	}
}

// Start launches the delivery workers.  Cancelling ctx aborts retries
// in flight; queued notifications are still drained by Close.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for n := range d.ch {
				d.deliver(ctx, n)
			}
		}()
	}
}

// Notify queues n without blocking.
func (d *Dispatcher) Notify(n Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.dropped.Add(1)
		log.Printf("notify: dispatcher closed, dropping %s for user %d", n.Kind, n.Recipient)
		return false
	}
	select {
	case d.ch <- n:
		return true
	default:
		d.dropped.Add(1)
		log.Printf("notify: queue full, dropping %s for user %d (event %d seat %s)", n.Kind, n.Recipient, n.EventID, n.SeatID)
		return false
	}
}

// Close stops accepting notifications and waits for queued ones to be
// delivered or to fail.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()
	d.wg.Wait()
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) deliver(ctx context.Context, n Notification) {
	var err error
	delay := d.opts.BaseDelay
retry:
	for attempt := 1; ; attempt++ {
		if err = d.sink.Send(ctx, n); err == nil {
			d.delivered.Add(1)
			return
		}
		if attempt >= d.opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			err = fmt.Errorf("%v (retry aborted: %w)", err, ctx.Err())
			break retry
		case <-time.After(delay):
			delay *= 2
		}
	}
	d.failed.Add(1)
	log.Printf("notify: %v: %s %s to user %d (event %d seat %s): %v",
		ErrDeliveryFailure, n.ID, n.Kind, n.Recipient, n.EventID, n.SeatID, err)
}

// LogSink writes notifications to the process log.  It is used when no
// message broker is configured.
type LogSink struct{}

func (LogSink) Send(_ context.Context, n Notification) error {
	log.Printf("notify: %s -> user %d event=%d seat=%s subject=%d", n.Kind, n.Recipient, n.EventID, n.SeatID, n.UserID)
	return nil
}
