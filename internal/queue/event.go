// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published to the allocation.events queue.
const (
	EventActivated          = "startup.activated"
	EventExited             = "startup.exited"
	EventSeatChangeApproved = "seat_change.approved"
)

// AllocationEvent is published whenever a seat-affecting transition
// commits: activation, exit or an approved seat change.  It carries
// enough information for downstream consumers to log, notify or feed
// analytics without querying the primary database.
type AllocationEvent struct {
	Kind        string `json:"kind"`
	StartupID   uint64 `json:"startup_id"`
	StartupName string `json:"startup_name"`
	HallID      uint64 `json:"hall_id"`
	Seats       int    `json:"seats"`
	Delta       int    `json:"delta,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}
