package model

import "time"

// RequestStatus enumerates the workflow states of a seat-change request.
// A request moves pending → completed exactly once; completed is
// terminal and carries a decision.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestCompleted RequestStatus = "completed"
)

// Decisions recorded when a request completes.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// SeatChangeRequest is a proposed signed adjustment to a startup's seat
// grant.  RequestedSeats holds a delta, not an absolute count: positive
// values ask for more seats, negative values release seats.
//
// Fields:
//  ID             – primary key identifier.
//  StartupID      – startup the request belongs to.
//  CurrentSeats   – snapshot of seats_allocated when submitted (audit only,
//                   not re-validated at decision time).
//  RequestedSeats – the signed delta being requested.
//  UserNote       – free-text justification from the requester.
//  Status         – pending or completed.
//  Decision       – approved/rejected, set only on completion.
//  RequestedAt    – submission timestamp.
//  DecidedAt      – decision timestamp (nil while pending).
type SeatChangeRequest struct {
	ID             uint64        `json:"id"`              // seat_change_requests.id
	StartupID      uint64        `json:"startup_id"`      // seat_change_requests.startup_id
	CurrentSeats   int           `json:"current_seats"`   // seat_change_requests.current_seats
	RequestedSeats int           `json:"requested_seats"` // seat_change_requests.requested_seats (a delta)
	UserNote       string        `json:"user_note"`       // seat_change_requests.user_note
	Status         RequestStatus `json:"status"`          // seat_change_requests.status
	Decision       *string       `json:"decision"`        // seat_change_requests.decision (nullable)
	RequestedAt    time.Time     `json:"requested_at"`    // seat_change_requests.requested_at
	DecidedAt      *time.Time    `json:"decided_at"`      // seat_change_requests.decided_at (nullable)
}
