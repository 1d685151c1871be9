// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import "errors"

// ErrSeatNotFound is returned when no seat matches (event_id, seat_id).
var ErrSeatNotFound = errors.New("seat not found")

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// ErrConflict is returned when a conditional update finds the row in a
// different state than required, such as claiming a seat that is no
// longer FREE.
var ErrConflict = errors.New("conflict")

// ErrNoReservation is returned when a user holds no RESERVED seat.
var ErrNoReservation = errors.New("no active reservation")

// ErrSessionNotFound is returned when a user has no pending session.
var ErrSessionNotFound = errors.New("session not found")

// ErrReviewerNotFound is returned when removing an unknown reviewer.
var ErrReviewerNotFound = errors.New("reviewer not found")

// ErrSupportMessageNotFound is returned when no support message has
// the given id.
var ErrSupportMessageNotFound = errors.New("support message not found")
