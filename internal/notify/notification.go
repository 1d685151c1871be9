// Package notify carries notification commands from the reservation
// core to whatever transport delivers them to people.  Producers only
// enqueue; delivery, retries and failure logging happen on the
// dispatcher's own goroutines.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind names the message a recipient should receive.
type Kind string

const (
	KindReminderDue        Kind = "reminder_due"
	KindReservationExpired Kind = "reservation_expired"
	KindPaymentApproved    Kind = "payment_approved"
	KindPaymentRejected    Kind = "payment_rejected"
	KindReviewRequested    Kind = "review_requested"
	KindReviewResolved     Kind = "review_resolved"
	KindSupportMessage     Kind = "support_message"
	KindSupportReply       Kind = "support_reply"
	KindSupportResolved    Kind = "support_resolved"
)

// ErrDeliveryFailure wraps the last error of a notification that could
// not be delivered after all attempts.
var ErrDeliveryFailure = errors.New("notification delivery failed")

// Notification is one message for one recipient.  For reviewer
// messages UserID is the customer the review is about; for customer
// messages it equals Recipient.
type Notification struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Recipient   int64     `json:"recipient"`
	UserID      int64     `json:"user_id"`
	EventID     int64     `json:"event_id"`
	SeatID      string    `json:"seat_id"`
	EvidenceRef string    `json:"evidence_ref,omitempty"`
	Decision    string    `json:"decision,omitempty"`
	MessageID   int64     `json:"message_id,omitempty"`
	Text        string    `json:"text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newNotification(kind Kind, recipient, userID, eventID int64, seatID string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Recipient: recipient,
		UserID:    userID,
		EventID:   eventID,
		SeatID:    seatID,
		CreatedAt: time.Now().UTC(),
	}
}

func ReminderDue(userID, eventID int64, seatID string) Notification {
	return newNotification(KindReminderDue, userID, userID, eventID, seatID)
}

func ReservationExpired(userID, eventID int64, seatID string) Notification {
	return newNotification(KindReservationExpired, userID, userID, eventID, seatID)
}

// PaymentApproved tells the buyer the seat is theirs.  The receiving
// collaborator renders the ticket.
func PaymentApproved(userID, eventID int64, seatID string) Notification {
	return newNotification(KindPaymentApproved, userID, userID, eventID, seatID)
}

func PaymentRejected(userID, eventID int64, seatID string) Notification {
	return newNotification(KindPaymentRejected, userID, userID, eventID, seatID)
}

// ReviewRequested asks a reviewer to approve or reject evidenceRef.
func ReviewRequested(reviewerID, eventID int64, seatID string, userID int64, evidenceRef string) Notification {
	n := newNotification(KindReviewRequested, reviewerID, userID, eventID, seatID)
	n.EvidenceRef = evidenceRef
	return n
}

// ReviewResolved tells a reviewer that a pending review was decided so
// its action buttons can be withdrawn.
func ReviewResolved(reviewerID, eventID int64, seatID string, userID int64, decision string) Notification {
	n := newNotification(KindReviewResolved, reviewerID, userID, eventID, seatID)
	n.Decision = decision
	return n
}

// SupportMessage tells a reviewer a customer wrote to support.  Text
// is the customer's message.
func SupportMessage(reviewerID, userID, messageID int64, text string) Notification {
	n := newNotification(KindSupportMessage, reviewerID, userID, 0, "")
	n.MessageID = messageID
	n.Text = text
	return n
}

// SupportReply carries a reviewer's answer back to the customer.
func SupportReply(userID, messageID int64, text string) Notification {
	n := newNotification(KindSupportReply, userID, userID, 0, "")
	n.MessageID = messageID
	n.Text = text
	return n
}

// SupportResolved tells the customer their message was closed without
// a written answer.
func SupportResolved(userID, messageID int64) Notification {
	n := newNotification(KindSupportResolved, userID, userID, 0, "")
	n.MessageID = messageID
	return n
}

// Notifier accepts notifications for asynchronous delivery.  Notify
// never blocks; it reports false when the notification was dropped.
type Notifier interface {
	Notify(n Notification) bool
}

// Sink delivers a single notification.  Implementations may fail; the
// dispatcher retries.
type Sink interface {
	Send(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Send(ctx context.Context, n Notification) error { return f(ctx, n) }
