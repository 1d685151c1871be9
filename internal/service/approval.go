package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/notify"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

// Decision is a reviewer's verdict on submitted payment evidence.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision accepts "approve" or "reject" in any case.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
}

// Approvals drives a reserved seat to SOLD or back to FREE once a
// reviewer has looked at the customer's payment evidence.
type Approvals struct {
	res       *Reservations
	reviewers *repository.ReviewerRepo
	notifier  notify.Notifier
}

func NewApprovals(res *Reservations, reviewers *repository.ReviewerRepo, n notify.Notifier) *Approvals {
	return &Approvals{res: res, reviewers: reviewers, notifier: n}
}

// SubmitEvidence attaches evidenceRef to the user's active reservation
// and asks every reviewer for a decision.  It returns the seat under
// review, or ErrNoActiveReservation without touching any state.
func (a *Approvals) SubmitEvidence(ctx context.Context, userID int64, evidenceRef string) (*model.Seat, error) {
	seat, err := a.res.FindActiveReservation(ctx, userID)
	if err != nil {
		return nil, err
	}
	if seat == nil {
		return nil, ErrNoActiveReservation
	}
	ids, err := a.reviewers.IDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		log.Printf("approval: no reviewers configured, evidence for event=%d seat=%s user=%d is pending", seat.EventID, seat.SeatID, userID)
	}
	for _, rid := range ids {
		a.notifier.Notify(notify.ReviewRequested(rid, seat.EventID, seat.SeatID, userID, evidenceRef))
	}
	return seat, nil
}

// Decide dispatches to Approve or Reject.
func (a *Approvals) Decide(ctx context.Context, eventID int64, seatID string, userID int64, d Decision) error {
	switch d {
	case DecisionApprove:
		return a.Approve(ctx, eventID, seatID, userID)
	case DecisionReject:
		return a.Reject(ctx, eventID, seatID, userID)
	}
	return fmt.Errorf("%w: %q", ErrInvalidDecision, d)
}

// Approve sells the seat to userID and records the payment.  The seat
// must still be RESERVED by userID, otherwise ErrStaleDecision.
// Approving a seat already sold to userID only repeats the
// notification.
func (a *Approvals) Approve(ctx context.Context, eventID int64, seatID string, userID int64) error {
	out, err := a.res.Settle(ctx, eventID, seatID, userID)
	if err != nil {
		return err
	}
	a.notifier.Notify(notify.PaymentApproved(userID, eventID, seatID))
	if out == Settled {
		a.resolved(ctx, eventID, seatID, userID, DecisionApprove)
	}
	return nil
}

// Reject returns the seat to the pool if userID still holds it.  A seat
// that is already FREE, or held by someone else, is left alone without
// error; a SOLD seat cannot be rejected and yields ErrStaleDecision.
func (a *Approvals) Reject(ctx context.Context, eventID int64, seatID string, userID int64) error {
	released, err := a.res.ReleaseHeldBy(ctx, eventID, seatID, userID)
	if err != nil {
		return err
	}
	if !released {
		seat, err := a.res.GetSeat(ctx, eventID, seatID)
		if err != nil {
			return err
		}
		if seat.Status == model.SeatSold {
			return ErrStaleDecision
		}
		return nil
	}
	a.notifier.Notify(notify.PaymentRejected(userID, eventID, seatID))
	a.resolved(ctx, eventID, seatID, userID, DecisionReject)
	return nil
}

// resolved tells every reviewer the review is closed.
func (a *Approvals) resolved(ctx context.Context, eventID int64, seatID string, userID int64, d Decision) {
	ids, err := a.reviewers.IDs(ctx)
	if err != nil {
		log.Printf("approval: list reviewers: %v", err)
		return
	}
	for _, rid := range ids {
		a.notifier.Notify(notify.ReviewResolved(rid, eventID, seatID, userID, string(d)))
	}
}

// IsReviewer reports whether userID may decide payments.
func (a *Approvals) IsReviewer(ctx context.Context, userID int64) (bool, error) {
	return a.reviewers.Exists(ctx, userID)
}

// AddReviewer adds or refreshes a reviewer.
func (a *Approvals) AddReviewer(ctx context.Context, userID, addedBy int64, username string) error {
	if userID <= 0 {
		return fmt.Errorf("reviewer id must be positive, got %d", userID)
	}
	return a.reviewers.Add(ctx, model.Reviewer{UserID: userID, AddedBy: addedBy, Username: username, AddedAt: time.Now().UTC()})
}

// RemoveReviewer deletes a reviewer or returns ErrNotFound.
func (a *Approvals) RemoveReviewer(ctx context.Context, userID int64) error {
	return translate(a.reviewers.Remove(ctx, userID))
}

// ListReviewers returns the reviewer directory.
func (a *Approvals) ListReviewers(ctx context.Context) ([]model.Reviewer, error) {
	return a.reviewers.List(ctx)
}

// EnsureRootReviewer makes sure the configured root reviewer exists.
func (a *Approvals) EnsureRootReviewer(ctx context.Context, rootID int64) error {
	if rootID <= 0 {
		return nil
	}
	ok, err := a.reviewers.Exists(ctx, rootID)
	if err != nil || ok {
		return err
	}
	return a.AddReviewer(ctx, rootID, rootID, "root")
}
