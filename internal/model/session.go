package model

import (
    "errors"
    "time"
)

// SessionKind tells the front end which input it is waiting for from
// a user.  A user has at most one pending session at a time.
type SessionKind string

const (
    SessionAwaitingEvidence       SessionKind = "awaiting_evidence"
    SessionAwaitingPrice          SessionKind = "awaiting_price"
    SessionAwaitingSupportMessage SessionKind = "awaiting_support_message"
    SessionAwaitingReviewerAdd    SessionKind = "awaiting_reviewer_add"
    SessionAwaitingReviewerRemove SessionKind = "awaiting_reviewer_remove"
    SessionAwaitingSupportReply   SessionKind = "awaiting_support_reply"
)

// StaffOnly reports whether the kind belongs to a reviewer flow.
func (k SessionKind) StaffOnly() bool {
    switch k {
    case SessionAwaitingPrice, SessionAwaitingReviewerAdd, SessionAwaitingReviewerRemove, SessionAwaitingSupportReply:
        return true
    }
    return false
}

// CustomerOnly reports whether the kind belongs to a customer flow.
func (k SessionKind) CustomerOnly() bool {
    return k == SessionAwaitingEvidence || k == SessionAwaitingSupportMessage
}

// ErrInvalidSession is returned by Validate when the payload does not
// match the session kind.
var ErrInvalidSession = errors.New("invalid session state")

// SessionState is the persisted "what comes next" record for a user.
// Which payload fields are meaningful depends on Kind:
//
//  awaiting_evidence        - EventID, SeatID of the active reservation
//  awaiting_price           - EventID, SeatID whose price is being edited
//  awaiting_support_reply   - MessageID being answered
//  awaiting_support_message,
//  awaiting_reviewer_add,
//  awaiting_reviewer_remove - no payload
type SessionState struct {
    UserID    int64       `json:"user_id"`
    Kind      SessionKind `json:"kind"`
    EventID   int64       `json:"event_id,omitempty"`
    SeatID    string      `json:"seat_id,omitempty"`
    MessageID int64       `json:"message_id,omitempty"`
    UpdatedAt time.Time   `json:"updated_at"`
}

// SessionPayload is the serialized part of a SessionState stored in
// the data column.
type SessionPayload struct {
    EventID   int64  `json:"event_id,omitempty"`
    SeatID    string `json:"seat_id,omitempty"`
    MessageID int64  `json:"message_id,omitempty"`
}

// Payload extracts the kind-specific fields.
func (s SessionState) Payload() SessionPayload {
    return SessionPayload{EventID: s.EventID, SeatID: s.SeatID, MessageID: s.MessageID}
}

// Validate checks that the payload carries the fields its kind needs
// and nothing else.
func (s SessionState) Validate() error {
    if s.UserID == 0 {
        return ErrInvalidSession
    }
    seatRef := s.EventID > 0 && s.SeatID != ""
    noSeat := s.EventID == 0 && s.SeatID == ""
    switch s.Kind {
    case SessionAwaitingEvidence, SessionAwaitingPrice:
        if !seatRef || s.MessageID != 0 {
            return ErrInvalidSession
        }
    case SessionAwaitingSupportReply:
        if s.MessageID <= 0 || !noSeat {
            return ErrInvalidSession
        }
    case SessionAwaitingSupportMessage, SessionAwaitingReviewerAdd, SessionAwaitingReviewerRemove:
        if !noSeat || s.MessageID != 0 {
            return ErrInvalidSession
        }
    default:
        return ErrInvalidSession
    }
    return nil
}
