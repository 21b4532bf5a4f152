package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/snehankitpatil/incubation-portal/internal/model"
	"github.com/snehankitpatil/incubation-portal/internal/repository"
)

// Engine coordinates the repositories behind every mutation that touches
// seat counts.  The hall row lock taken via HallRepo.GetForUpdateTx is
// the serialization point: registrations, activations, exits and
// seat-change approvals for the same hall execute one at a time, while
// reads run lock-free and tolerate point-in-time staleness.
type Engine struct {
	Halls       *repository.HallRepo
	Startups    *repository.StartupRepo
	Allocations *repository.AllocationRepo
	Requests    *repository.SeatChangeRepo

	now func() time.Time // injectable clock for tests
}

// New constructs an Engine.  All repositories must be non-nil and share
// the same underlying database.
func New(halls *repository.HallRepo, startups *repository.StartupRepo, allocations *repository.AllocationRepo, requests *repository.SeatChangeRepo) *Engine {
	if halls == nil || startups == nil || allocations == nil || requests == nil {
		panic("nil repository passed to engine.New")
	}
	return &Engine{
		Halls:       halls,
		Startups:    startups,
		Allocations: allocations,
		Requests:    requests,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// begin opens a transaction on the shared database handle.
func (e *Engine) begin(ctx context.Context) (*sql.Tx, error) {
	return e.Halls.DB().BeginTx(ctx, nil)
}

// RegisterInput carries the validated primitive fields for a new
// startup registration.  PasswordHash is produced by the caller; the
// engine never sees plaintext credentials.
type RegisterInput struct {
	Name         string
	Founder      string
	Email        string
	Phone        string
	HallID       uint64
	Seats        int
	Role         string
	PasswordHash string
}

// RegisterStartup creates a startup in the applied state after checking
// that the requested seats fit into the hall.  The check runs under the
// hall row lock, so two concurrent registrations against the same hall
// cannot both pass it and jointly overshoot capacity.  Applied seats are
// not counted against occupied_seats until activation.
func (e *Engine) RegisterStartup(ctx context.Context, in RegisterInput) (*model.Startup, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrMalformedInput)
	}
	if in.Seats < 1 {
		return nil, fmt.Errorf("%w: seats must be a positive integer", ErrMalformedInput)
	}
	role := in.Role
	if role == "" {
		role = model.RoleUser
	}

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	hall, err := e.Halls.GetForUpdateTx(ctx, tx, in.HallID)
	if err != nil {
		return nil, err
	}
	if in.Seats > hall.Available() {
		return nil, ErrCapacityExceeded
	}

	hallID := in.HallID
	s := &model.Startup{
		Name:           strings.TrimSpace(in.Name),
		Founder:        strings.TrimSpace(in.Founder),
		Email:          strings.TrimSpace(in.Email),
		Phone:          strings.TrimSpace(in.Phone),
		Status:         model.StatusApplied,
		HallID:         &hallID,
		SeatsAllocated: in.Seats,
		Role:           role,
		PasswordHash:   in.PasswordHash,
	}
	if err := e.Startups.CreateTx(ctx, tx, s); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return s, nil
}

// ApproveStartup moves a startup from applied to approved.  The
// transition has no seat effect.
func (e *Engine) ApproveStartup(ctx context.Context, id uint64) (*model.Startup, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	s, err := e.Startups.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(s.Status, model.StatusApproved) {
		return nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, s.Status, model.StatusApproved)
	}
	if err := e.Startups.UpdateStatusTx(ctx, tx, id, model.StatusApproved); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	s.Status = model.StatusApproved
	return s, nil
}

// ActivateStartup moves a startup from approved to active, opens an
// allocation row and adds the startup's seats to its hall's occupied
// counter.  The counter update and the capacity re-check happen under
// the hall row lock in the same transaction as the status change, so the
// counter can only be written consistently with the ledger.
func (e *Engine) ActivateStartup(ctx context.Context, id uint64) (*model.Startup, *model.Allocation, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	s, err := e.Startups.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if !model.CanTransition(s.Status, model.StatusActive) {
		return nil, nil, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, s.Status, model.StatusActive)
	}
	if s.HallID == nil {
		return nil, nil, fmt.Errorf("%w: startup has no hall assigned", ErrMalformedInput)
	}

	hall, err := e.Halls.GetForUpdateTx(ctx, tx, *s.HallID)
	if err != nil {
		return nil, nil, err
	}
	// Capacity may have been consumed since registration; re-check before
	// the seats start counting.
	if s.SeatsAllocated > hall.Available() {
		return nil, nil, ErrCapacityExceeded
	}

	if err := e.Startups.UpdateStatusTx(ctx, tx, id, model.StatusActive); err != nil {
		return nil, nil, err
	}
	alloc := &model.Allocation{
		StartupID:   s.ID,
		HallID:      hall.ID,
		Seats:       s.SeatsAllocated,
		AllocatedAt: e.now(),
	}
	if err := e.Allocations.OpenTx(ctx, tx, alloc); err != nil {
		return nil, nil, err
	}
	if err := e.Halls.SetOccupiedTx(ctx, tx, hall.ID, hall.OccupiedSeats+s.SeatsAllocated); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	committed = true
	s.Status = model.StatusActive
	return s, alloc, nil
}

// ExitStartup moves an active startup to exited, closes its open
// allocation rows and releases its seats from the hall counter.  Exiting
// an already-exited startup is a no-op: the status stays exited, the
// release filter matches nothing and the counter is untouched.
func (e *Engine) ExitStartup(ctx context.Context, id uint64) (*model.Startup, int64, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	s, err := e.Startups.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, 0, err
	}
	if s.Status == model.StatusExited {
		// Idempotent re-exit: nothing left to release.
		if err := tx.Commit(); err != nil {
			return nil, 0, err
		}
		committed = true
		return s, 0, nil
	}
	if !model.CanTransition(s.Status, model.StatusExited) {
		return nil, 0, fmt.Errorf("%w: %s -> %s", model.ErrInvalidTransition, s.Status, model.StatusExited)
	}

	if err := e.Startups.UpdateStatusTx(ctx, tx, id, model.StatusExited); err != nil {
		return nil, 0, err
	}
	closed, err := e.Allocations.CloseOpenTx(ctx, tx, id, e.now())
	if err != nil {
		return nil, 0, err
	}
	if s.HallID != nil {
		hall, err := e.Halls.GetForUpdateTx(ctx, tx, *s.HallID)
		if err != nil {
			return nil, 0, err
		}
		occupied := hall.OccupiedSeats - s.SeatsAllocated
		if occupied < 0 {
			log.Printf("engine: occupied_seats for hall %d would go negative (%d); clamping to 0", hall.ID, occupied)
			occupied = 0
		}
		if err := e.Halls.SetOccupiedTx(ctx, tx, hall.ID, occupied); err != nil {
			return nil, 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	committed = true
	s.Status = model.StatusExited
	return s, closed, nil
}

// SubmitSeatChange files a new seat-change request for an active
// startup.  The delta is signed: positive asks for more seats, negative
// releases seats.  current_seats is snapshotted for audit display and is
// not re-validated at decision time.
func (e *Engine) SubmitSeatChange(ctx context.Context, startupID uint64, delta int, note string) (*model.SeatChangeRequest, error) {
	if delta == 0 {
		return nil, ErrInvalidDelta
	}

	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	s, err := e.Startups.GetByIDTx(ctx, tx, startupID)
	if err != nil {
		return nil, err
	}
	if s.Status != model.StatusActive {
		return nil, ErrStartupNotActive
	}
	pending, err := e.Requests.HasPendingTx(ctx, tx, startupID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicatePending
	}

	req := &model.SeatChangeRequest{
		StartupID:      startupID,
		CurrentSeats:   s.SeatsAllocated,
		RequestedSeats: delta,
		UserNote:       note,
		RequestedAt:    e.now(),
	}
	if err := e.Requests.CreateTx(ctx, tx, req); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return req, nil
}

// ApproveResult bundles the state an approval produced, for responses
// and event publishing.
type ApproveResult struct {
	Request  *model.SeatChangeRequest
	Startup  *model.Startup
	HallID   uint64
	NewSeats int
}

// ApproveSeatChange applies a pending request.  The startup must still
// be active: a request left pending across an exit is refused rather
// than applied to a startup that no longer holds seats.  The hall
// counter, the startup's seat grant and the request completion are
// written in one transaction under the hall row lock; a partial
// application cannot be observed.  Increases are capacity-checked
// against the locked counter;
// decreases apply unconditionally but the counter is clamped at zero,
// with a violation logged as a data-integrity fault rather than stored.
func (e *Engine) ApproveSeatChange(ctx context.Context, requestID uint64) (*ApproveResult, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	req, err := e.Requests.GetPendingForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	s, err := e.Startups.GetByIDTx(ctx, tx, req.StartupID)
	if err != nil {
		return nil, err
	}
	// The startup may have exited between submission and decision; its
	// seats are already released, so applying the request would mutate a
	// terminal startup and desync the hall counter from the active sum.
	if s.Status != model.StatusActive {
		return nil, ErrStartupNotActive
	}
	if s.HallID == nil {
		return nil, fmt.Errorf("%w: startup has no hall assigned", ErrMalformedInput)
	}
	hall, err := e.Halls.GetForUpdateTx(ctx, tx, *s.HallID)
	if err != nil {
		return nil, err
	}

	delta := req.RequestedSeats
	newSeats := s.SeatsAllocated + delta
	if newSeats < 1 {
		return nil, ErrInvalidResult
	}
	if delta > 0 && delta > hall.Available() {
		return nil, ErrCapacityExceeded
	}
	occupied := hall.OccupiedSeats + delta
	if occupied < 0 {
		log.Printf("engine: occupied_seats for hall %d would go negative (%d); clamping to 0", hall.ID, occupied)
		occupied = 0
	}

	if err := e.Halls.SetOccupiedTx(ctx, tx, hall.ID, occupied); err != nil {
		return nil, err
	}
	if err := e.Startups.SetSeatsTx(ctx, tx, s.ID, newSeats); err != nil {
		return nil, err
	}
	decidedAt := e.now()
	if err := e.Requests.CompleteTx(ctx, tx, req.ID, model.DecisionApproved, decidedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	decision := model.DecisionApproved
	req.Status = model.RequestCompleted
	req.Decision = &decision
	req.DecidedAt = &decidedAt
	s.SeatsAllocated = newSeats
	return &ApproveResult{Request: req, Startup: s, HallID: hall.ID, NewSeats: newSeats}, nil
}

// RejectSeatChange completes a pending request with the rejected
// decision.  No seat counts are touched.
func (e *Engine) RejectSeatChange(ctx context.Context, requestID uint64) (*model.SeatChangeRequest, error) {
	tx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	req, err := e.Requests.GetPendingForUpdateTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	decidedAt := e.now()
	if err := e.Requests.CompleteTx(ctx, tx, req.ID, model.DecisionRejected, decidedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	decision := model.DecisionRejected
	req.Status = model.RequestCompleted
	req.Decision = &decision
	req.DecidedAt = &decidedAt
	return req, nil
}
