// Package notifytest records notifications for assertions in tests.
package notifytest

import (
	"context"
	"sync"

	"github.com/iliyamo/seat-reservation/internal/notify"
)

// Recorder is both a Notifier and a Sink that keeps everything it is
// given.
type Recorder struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *Recorder) Notify(n notify.Notification) bool {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	r.mu.Unlock()
	return true
}

func (r *Recorder) Send(_ context.Context, n notify.Notification) error {
	r.Notify(n)
	return nil
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.sent...)
}

// OfKind returns the recorded notifications of one kind.
func (r *Recorder) OfKind(k notify.Kind) []notify.Notification {
	var out []notify.Notification
	for _, n := range r.All() {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}
