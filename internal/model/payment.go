package model

import "time"

// PaymentRecord is the append-only fact written when a reviewer
// approves a payment.  There is at most one record per seat and it is
// never updated or deleted.  Seat status, not this record, decides
// whether a seat is sold.
type PaymentRecord struct {
    UserID  int64     `json:"user_id"`
    EventID int64     `json:"event_id"`
    SeatID  string    `json:"seat_id"`
    PaidAt  time.Time `json:"paid_at"`
}
