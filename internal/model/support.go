package model

import "time"

// SupportStatus is the lifecycle of a support message.
type SupportStatus string

const (
    SupportPending SupportStatus = "pending"
    SupportHandled SupportStatus = "handled"
)

// MaxSupportText bounds customer messages and reviewer replies.
const MaxSupportText = 4000

// SupportMessage is one customer question in the support inbox.  A
// reviewer closes it either with a written Reply or without one.
type SupportMessage struct {
    ID        int64         `json:"id"`
    UserID    int64         `json:"user_id"`
    Text      string        `json:"text"`
    Status    SupportStatus `json:"status"`
    CreatedAt time.Time     `json:"created_at"`
    HandledBy *int64        `json:"handled_by,omitempty"`
    HandledAt *time.Time    `json:"handled_at,omitempty"`
    Reply     string        `json:"reply,omitempty"`
}
