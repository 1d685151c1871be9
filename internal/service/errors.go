// Package service holds the seat lifecycle: reservations, the
// expiration sweeper, the payment approval workflow and financial
// reporting.  Handlers and the CLI talk to these types, never to the
// seat store directly.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/seat-reservation/internal/notify"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

var (
	// ErrConflict means the seat was not FREE at claim time.  The caller
	// should pick another seat; it is never retried automatically.
	ErrConflict = errors.New("seat unavailable")
	// ErrNotFound means the event or seat does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStaleDecision means a reviewer decided on a reservation that
	// has lapsed or changed hands.  No state was changed.
	ErrStaleDecision = errors.New("reservation already released, no action taken")
	// ErrInvalidPrice rejects non-positive or out-of-range prices.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrNoActiveReservation rejects evidence from a user holding no seat.
	ErrNoActiveReservation = errors.New("no active reservation")
	// ErrInvalidDecision rejects decisions other than approve or reject.
	ErrInvalidDecision = errors.New("invalid decision")
	// ErrInvalidMessage rejects empty or oversized support text.
	ErrInvalidMessage = errors.New("invalid support message")
	// ErrAlreadyHandled means another reviewer closed the support
	// message first.
	ErrAlreadyHandled = errors.New("support message already handled")
	// ErrDeliveryFailure is only ever logged by the notification
	// dispatcher.
	ErrDeliveryFailure = notify.ErrDeliveryFailure
)

// translate maps store errors onto the service taxonomy.  Unknown errors
// pass through untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrSeatNotFound), errors.Is(err, repository.ErrEventNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict
	case errors.Is(err, repository.ErrNoReservation):
		return ErrNoActiveReservation
	case errors.Is(err, repository.ErrReviewerNotFound), errors.Is(err, repository.ErrSupportMessageNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
