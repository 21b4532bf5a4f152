package model

import "errors"

// StartupStatus enumerates the lifecycle states of a startup.  The legal
// order is applied → approved → active → exited; everything else is
// rejected by CanTransition.
type StartupStatus string

const (
	StatusApplied  StartupStatus = "applied"  // registered, seats not yet counted
	StatusApproved StartupStatus = "approved" // vetted, not yet occupying seats
	StatusActive   StartupStatus = "active"   // occupying seats in its hall
	StatusExited   StartupStatus = "exited"   // left the facility; terminal
)

// Roles stored on a startup account.  ADMIN accounts manage halls and
// decide lifecycle transitions and seat requests; USER accounts belong
// to the startups themselves.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// ErrInvalidTransition is returned when a lifecycle change does not
// follow the applied → approved → active → exited order.
var ErrInvalidTransition = errors.New("invalid status transition")

// startupTransitions is the transition table for StartupStatus.  Each
// state maps to the single state it may advance to.  Exited is terminal.
var startupTransitions = map[StartupStatus]StartupStatus{
	StatusApplied:  StatusApproved,
	StatusApproved: StatusActive,
	StatusActive:   StatusExited,
}

// CanTransition reports whether a startup may move from one status to
// another.  The original portal allowed any endpoint to overwrite any
// status; out-of-order transitions are now rejected explicitly.
func CanTransition(from, to StartupStatus) bool {
	next, ok := startupTransitions[from]
	return ok && next == to
}

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s StartupStatus) bool {
	switch s {
	case StatusApplied, StatusApproved, StatusActive, StatusExited:
		return true
	}
	return false
}

// Startup is a tenant entity progressing through the lifecycle above.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – startup name.
//  Founder        – founder's name.
//  Email          – contact email, unique, used for login.
//  Phone          – contact phone number.
//  Status         – lifecycle state.
//  HallID         – hall the startup is assigned to (nil when unassigned).
//  SeatsAllocated – current seat grant; meaningful once active.
//  Role           – account role (ADMIN or USER), used only for routing.
type Startup struct {
	ID             uint64        `json:"id"`              // startups.id
	Name           string        `json:"name"`            // startups.name
	Founder        string        `json:"founder"`         // startups.founder
	Email          string        `json:"email"`           // startups.email
	Phone          string        `json:"phone"`           // startups.phone
	Status         StartupStatus `json:"status"`          // startups.status
	HallID         *uint64       `json:"hall_id"`         // startups.hall_id (nullable)
	SeatsAllocated int           `json:"seats_allocated"` // startups.seats_allocated
	Role           string        `json:"role"`            // startups.role
	PasswordHash   string        `json:"-"`               // startups.password_hash, never serialized
}
