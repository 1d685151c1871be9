package model

import "time"

// Reviewer is a staff member allowed to approve or reject payments.
type Reviewer struct {
    UserID   int64     `json:"user_id"`
    AddedBy  int64     `json:"added_by"`
    AddedAt  time.Time `json:"added_at"`
    Username string    `json:"username,omitempty"`
}
