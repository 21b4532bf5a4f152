package model

import "time"

// Allocation is an immutable record of a startup occupying seats in a
// hall for a span of time.  A row is opened when the startup activates
// and closed (ReleasedAt set) when it exits.  A startup accumulates one
// row per activation but only one should be open at a time.
//
// Fields:
//  ID          – primary key identifier.
//  StartupID   – startup holding the seats.
//  HallID      – hall the seats belong to.
//  Seats       – number of seats granted for the span.
//  AllocatedAt – when the grant was opened.
//  ReleasedAt  – when the grant was closed (nil while open).
type Allocation struct {
	ID          uint64     `json:"id"`           // allocations.id
	StartupID   uint64     `json:"startup_id"`   // allocations.startup_id
	HallID      uint64     `json:"hall_id"`      // allocations.hall_id
	Seats       int        `json:"seats"`        // allocations.seats
	AllocatedAt time.Time  `json:"allocated_at"` // allocations.allocated_at
	ReleasedAt  *time.Time `json:"released_at"`  // allocations.released_at (nullable)
}

// Event names the allocation's state for listings and CSV export:
// "Exited" once the grant has been released, "Active" while open.
func (a *Allocation) Event() string {
	if a.ReleasedAt != nil {
		return "Exited"
	}
	return "Active"
}
