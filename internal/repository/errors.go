// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// allocation engine and handlers to distinguish between different failure
// scenarios, for example an unknown hall id versus a seat-change request
// that has already been decided (whose pending row no longer exists).
package repository

import "errors"

// ErrHallNotFound is returned when a hall lookup fails.
var ErrHallNotFound = errors.New("hall not found")

// ErrStartupNotFound is returned when a startup lookup fails.
var ErrStartupNotFound = errors.New("startup not found")

// ErrRequestNotFound is returned when a seat-change request lookup fails.
// Pending-only lookups also return it for requests that exist but have
// already been completed, so a request can never be decided twice.
var ErrRequestNotFound = errors.New("seat change request not found")
