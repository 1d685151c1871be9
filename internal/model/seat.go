package model

import "time"

// SeatStatus is the lifecycle state of a seat.  Allowed transitions are
// FREE -> RESERVED (claim), RESERVED -> SOLD (approval) and
// RESERVED -> FREE (rejection or expiry).  SOLD is terminal.
type SeatStatus string

const (
    SeatFree     SeatStatus = "FREE"
    SeatReserved SeatStatus = "RESERVED"
    SeatSold     SeatStatus = "SOLD"
)

// Seat describes a numbered seat of a single event.  Seats are
// identified by (EventID, SeatID) and are created once, when the
// event's grid is provisioned.  Row and Col never change after that.
//
// Fields:
//  EventID    - event the seat belongs to.
//  SeatID     - label such as "R1C2", unique within the event.
//  Row, Col   - 1-based grid coordinates.
//  Status     - FREE, RESERVED or SOLD.
//  ReservedBy - holder while RESERVED; kept as the buyer once SOLD.
//  ReservedAt - claim time while RESERVED (nil otherwise).
//  Price      - current price, always positive.
type Seat struct {
    EventID    int64      `json:"event_id"`
    SeatID     string     `json:"seat_id"`
    Row        int        `json:"row"`
    Col        int        `json:"col"`
    Status     SeatStatus `json:"status"`
    ReservedBy *int64     `json:"reserved_by,omitempty"`
    ReservedAt *time.Time `json:"reserved_at,omitempty"`
    Price      int64      `json:"price"`
}

// HeldBy reports whether the seat is currently reserved by userID.
func (s Seat) HeldBy(userID int64) bool {
    return s.Status == SeatReserved && s.ReservedBy != nil && *s.ReservedBy == userID
}

// SoldTo reports whether the seat was sold to userID.
func (s Seat) SoldTo(userID int64) bool {
    return s.Status == SeatSold && s.ReservedBy != nil && *s.ReservedBy == userID
}
