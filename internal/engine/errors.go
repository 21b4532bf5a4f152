// Package engine implements the seat-allocation consistency engine: the
// startup lifecycle, the seat-change approval workflow and the reporting
// projections consumed by handlers.  All capacity-affecting mutations run
// inside a single transaction holding a row lock on the hall, so capacity
// checks and counter updates are atomic relative to each other.
package engine

import "errors"

// ErrMalformedInput is returned when a caller supplies missing or
// non-numeric fields that the engine cannot interpret.
var ErrMalformedInput = errors.New("malformed input")

// ErrCapacityExceeded is returned when a registration, activation or
// seat increase would push a hall past its total_seats.
var ErrCapacityExceeded = errors.New("not enough seats available")

// ErrInvalidDelta is returned when a seat-change request carries a zero
// delta.
var ErrInvalidDelta = errors.New("seat change cannot be zero")

// ErrDuplicatePending is returned when a startup already has a pending
// seat-change request.
var ErrDuplicatePending = errors.New("a pending seat change request already exists")

// ErrInvalidResult is returned when approving a request would drive a
// startup's allocated seats below one.
var ErrInvalidResult = errors.New("resulting seat count would be below one")

// ErrStartupNotActive is returned when a seat-change request is
// submitted for a startup that is not currently active.
var ErrStartupNotActive = errors.New("startup is not active")
