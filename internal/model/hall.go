package model

import "math"

// Hall represents a physical hall in the incubation facility.  Each hall
// has a fixed seat capacity and a denormalized counter of seats occupied
// by active startups.  The counter is only ever written inside the
// allocation engine's hall-locked transactions; reporting recomputes
// occupancy independently by summing active startups.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – human readable hall name.
//  TotalSeats    – fixed capacity of the hall.
//  OccupiedSeats – seats currently held by active startups.
type Hall struct {
	ID            uint64 `json:"id"`             // halls.id
	Name          string `json:"name"`           // halls.name
	TotalSeats    int    `json:"total_seats"`    // halls.total_seats
	OccupiedSeats int    `json:"occupied_seats"` // halls.occupied_seats
}

// Available returns the number of free seats left in the hall.
func (h *Hall) Available() int {
	return h.TotalSeats - h.OccupiedSeats
}

// Utilization computes the percentage of a hall's capacity in use,
// rounded to one decimal place.  A hall with zero capacity yields 0
// rather than dividing by zero.
func Utilization(occupied, totalSeats int) float64 {
	if totalSeats == 0 {
		return 0
	}
	return math.Round(float64(occupied)/float64(totalSeats)*1000) / 10
}
