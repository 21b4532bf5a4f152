package engine

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/snehankitpatil/incubation-portal/internal/model"
	"github.com/snehankitpatil/incubation-portal/internal/repository"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// Query fragments matched against the statements the engine issues.
var (
	qHallForUpdate    = regexp.QuoteMeta(`FROM halls WHERE id = ? FOR UPDATE`)
	qHallSetOccupied  = regexp.QuoteMeta(`UPDATE halls SET occupied_seats = ?`)
	qStartupByID      = regexp.QuoteMeta(`FROM startups WHERE id = ?`)
	qStartupInsert    = regexp.QuoteMeta(`INSERT INTO startups`)
	qStartupSetStatus = regexp.QuoteMeta(`UPDATE startups SET status = ?`)
	qStartupSetSeats  = regexp.QuoteMeta(`UPDATE startups SET seats_allocated = ?`)
	qAllocInsert      = regexp.QuoteMeta(`INSERT INTO allocations`)
	qAllocClose       = regexp.QuoteMeta(`UPDATE allocations SET released_at = ?`)
	qPendingCount     = regexp.QuoteMeta(`SELECT COUNT(*) FROM seat_change_requests`)
	qRequestInsert    = regexp.QuoteMeta(`INSERT INTO seat_change_requests`)
	qRequestPending   = regexp.QuoteMeta(`AND status = 'pending' FOR UPDATE`)
	qRequestComplete  = regexp.QuoteMeta(`UPDATE seat_change_requests SET status = 'completed'`)
)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	eng := New(
		repository.NewHallRepo(db),
		repository.NewStartupRepo(db),
		repository.NewAllocationRepo(db),
		repository.NewSeatChangeRepo(db),
	)
	eng.now = func() time.Time { return testNow }
	return eng, mock
}

func hallRow(id int64, name string, total, occupied int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "total_seats", "occupied_seats"}).
		AddRow(id, name, total, occupied)
}

func startupRow(id int64, name string, status model.StartupStatus, hallID any, seats int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "founder", "email", "phone", "status", "hall_id", "seats_allocated", "role", "password_hash"}).
		AddRow(id, name, "Founder", name+"@example.com", "123", string(status), hallID, seats, model.RoleUser, "hash")
}

func pendingRequestRow(id, startupID int64, current, delta int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "startup_id", "current_seats", "requested_seats", "user_note", "status", "requested_at"}).
		AddRow(id, startupID, current, delta, "note", "pending", testNow)
}

func expectDone(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterStartupRejectsBadInput(t *testing.T) {
	eng, mock := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.RegisterStartup(ctx, RegisterInput{Name: "", Email: "a@b.c", HallID: 1, Seats: 3})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("empty name: got %v, want ErrMalformedInput", err)
	}
	_, err = eng.RegisterStartup(ctx, RegisterInput{Name: "X", Email: "a@b.c", HallID: 1, Seats: 0})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("zero seats: got %v, want ErrMalformedInput", err)
	}
	expectDone(t, mock)
}

func TestRegisterStartupCapacityExceeded(t *testing.T) {
	eng, mock := newTestEngine(t)

	// Hall has 10 seats with 8 taken; asking for 3 must fail.
	mock.ExpectBegin()
	mock.ExpectQuery(qHallForUpdate).WithArgs(1).WillReturnRows(hallRow(1, "Hall A", 10, 8))
	mock.ExpectRollback()

	_, err := eng.RegisterStartup(context.Background(), RegisterInput{
		Name: "Acme", Email: "acme@example.com", HallID: 1, Seats: 3,
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("got %v, want ErrCapacityExceeded", err)
	}
	expectDone(t, mock)
}

func TestRegisterStartupFitsRemainingCapacity(t *testing.T) {
	eng, mock := newTestEngine(t)

	// Same hall, but 2 seats still fit exactly.
	mock.ExpectBegin()
	mock.ExpectQuery(qHallForUpdate).WithArgs(1).WillReturnRows(hallRow(1, "Hall A", 10, 8))
	mock.ExpectExec(qStartupInsert).
		WithArgs("Acme", "Jane", "acme@example.com", "555", "applied", sqlmock.AnyArg(), 2, model.RoleUser, "hash").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	s, err := eng.RegisterStartup(context.Background(), RegisterInput{
		Name: "Acme", Founder: "Jane", Email: "acme@example.com", Phone: "555",
		HallID: 1, Seats: 2, PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("RegisterStartup: %v", err)
	}
	if s.ID != 7 || s.Status != model.StatusApplied {
		t.Fatalf("got id=%d status=%s, want id=7 status=applied", s.ID, s.Status)
	}
	expectDone(t, mock)
}

func TestApproveStartup(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusApplied, int64(1), 2))
	mock.ExpectExec(qStartupSetStatus).WithArgs("approved", 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, err := eng.ApproveStartup(context.Background(), 3)
	if err != nil {
		t.Fatalf("ApproveStartup: %v", err)
	}
	if s.Status != model.StatusApproved {
		t.Fatalf("status = %s, want approved", s.Status)
	}
	expectDone(t, mock)
}

func TestApproveStartupInvalidTransition(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusActive, int64(1), 2))
	mock.ExpectRollback()

	_, err := eng.ApproveStartup(context.Background(), 3)
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Fatalf("got %v, want ErrInvalidTransition", err)
	}
	expectDone(t, mock)
}

func TestActivateStartupOpensAllocation(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusApproved, int64(1), 2))
	mock.ExpectQuery(qHallForUpdate).WithArgs(sqlmock.AnyArg()).WillReturnRows(hallRow(1, "Hall A", 10, 8))
	mock.ExpectExec(qStartupSetStatus).WithArgs("active", 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qAllocInsert).WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 2, testNow).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(qHallSetOccupied).WithArgs(10, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, alloc, err := eng.ActivateStartup(context.Background(), 3)
	if err != nil {
		t.Fatalf("ActivateStartup: %v", err)
	}
	if s.Status != model.StatusActive {
		t.Fatalf("status = %s, want active", s.Status)
	}
	if alloc.ID != 11 || alloc.Seats != 2 || alloc.ReleasedAt != nil {
		t.Fatalf("unexpected allocation: %+v", alloc)
	}
	expectDone(t, mock)
}

func TestActivateStartupRechecksCapacity(t *testing.T) {
	eng, mock := newTestEngine(t)

	// Capacity was consumed between approval and activation.
	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusApproved, int64(1), 5))
	mock.ExpectQuery(qHallForUpdate).WithArgs(sqlmock.AnyArg()).WillReturnRows(hallRow(1, "Hall A", 10, 8))
	mock.ExpectRollback()

	_, _, err := eng.ActivateStartup(context.Background(), 3)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("got %v, want ErrCapacityExceeded", err)
	}
	expectDone(t, mock)
}

func TestExitStartupReleasesSeats(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusActive, int64(1), 2))
	mock.ExpectExec(qStartupSetStatus).WithArgs("exited", 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qAllocClose).WithArgs(testNow, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(qHallForUpdate).WithArgs(sqlmock.AnyArg()).WillReturnRows(hallRow(1, "Hall A", 10, 10))
	mock.ExpectExec(qHallSetOccupied).WithArgs(8, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s, closed, err := eng.ExitStartup(context.Background(), 3)
	if err != nil {
		t.Fatalf("ExitStartup: %v", err)
	}
	if s.Status != model.StatusExited || closed != 1 {
		t.Fatalf("got status=%s closed=%d, want exited/1", s.Status, closed)
	}
	expectDone(t, mock)
}

func TestExitStartupAlreadyExitedIsNoop(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusExited, int64(1), 2))
	mock.ExpectCommit()

	s, closed, err := eng.ExitStartup(context.Background(), 3)
	if err != nil {
		t.Fatalf("ExitStartup: %v", err)
	}
	if s.Status != model.StatusExited || closed != 0 {
		t.Fatalf("got status=%s closed=%d, want exited/0", s.Status, closed)
	}
	expectDone(t, mock)
}

func TestExitStartupClampsNegativeCounter(t *testing.T) {
	eng, mock := newTestEngine(t)

	// Drifted counter: hall claims 1 occupied but the startup holds 5.
	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusActive, int64(1), 5))
	mock.ExpectExec(qStartupSetStatus).WithArgs("exited", 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qAllocClose).WithArgs(testNow, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(qHallForUpdate).WithArgs(sqlmock.AnyArg()).WillReturnRows(hallRow(1, "Hall A", 10, 1))
	mock.ExpectExec(qHallSetOccupied).WithArgs(0, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if _, _, err := eng.ExitStartup(context.Background(), 3); err != nil {
		t.Fatalf("ExitStartup: %v", err)
	}
	expectDone(t, mock)
}

func TestSubmitSeatChangeZeroDelta(t *testing.T) {
	eng, mock := newTestEngine(t)

	_, err := eng.SubmitSeatChange(context.Background(), 3, 0, "")
	if !errors.Is(err, ErrInvalidDelta) {
		t.Fatalf("got %v, want ErrInvalidDelta", err)
	}
	expectDone(t, mock)
}

func TestSubmitSeatChangeRequiresActive(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusApproved, int64(1), 2))
	mock.ExpectRollback()

	_, err := eng.SubmitSeatChange(context.Background(), 3, 2, "")
	if !errors.Is(err, ErrStartupNotActive) {
		t.Fatalf("got %v, want ErrStartupNotActive", err)
	}
	expectDone(t, mock)
}

func TestSubmitSeatChangeDuplicatePending(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusActive, int64(1), 2))
	mock.ExpectQuery(qPendingCount).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := eng.SubmitSeatChange(context.Background(), 3, 2, "")
	if !errors.Is(err, ErrDuplicatePending) {
		t.Fatalf("got %v, want ErrDuplicatePending", err)
	}
	expectDone(t, mock)
}

func TestSubmitSeatChangeSnapshotsCurrentSeats(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qStartupByID).WithArgs(3).WillReturnRows(startupRow(3, "Acme", model.StatusActive, int64(1), 4))
	mock.ExpectQuery(qPendingCount).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(qRequestInsert).
		WithArgs(3, 4, -2, "downsizing", testNow).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	req, err := eng.SubmitSeatChange(context.Background(), 3, -2, "downsizing")
	if err != nil {
		t.Fatalf("SubmitSeatChange: %v", err)
	}
	if req.ID != 9 || req.CurrentSeats != 4 || req.RequestedSeats != -2 || req.Status != model.RequestPending {
		t.Fatalf("unexpected request: %+v", req)
	}
	expectDone(t, mock)
}

func TestApproveSeatChangeIncrease(t *testing.T) {
	eng, mock := newTestEngine(t)

	// Hall(total=10, occupied=8): +2 fits exactly and fills the hall.
	mock.ExpectBegin()
	mock.ExpectQuery(qRequestPending).WithArgs(9).WillReturnRows(pendingRequestRow(9, 3, 4, 2))
	mock.ExpectQuery(qStartupByID).WithArgs(sqlmock.AnyArg()).WillReturnRows(startupRow(3, "Acme", model.StatusActive, int64(1), 4))
	mock.ExpectQuery(qHallForUpdate).WithArgs(sqlmock.AnyArg()).WillReturnRows(hallRow(1, "Hall A", 10, 8))
	mock.ExpectExec(qHallSetOccupied).WithArgs(10, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qStartupSetSeats).WithArgs(6, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qRequestComplete).WithArgs("approved", testNow, 9).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := eng.ApproveSeatChange(context.Background(), 9)
	if err != nil {
		t.Fatalf("ApproveSeatChange: %v", err)
	}
	if res.NewSeats != 6 || res.Startup.SeatsAllocated != 6 {
		t.Fatalf("got NewSeats=%d, want 6", res.NewSeats)
	}
	if res.Request.Decision == nil || *res.Request.Decision != model.DecisionApproved {
		t.Fatalf("decision not recorded: %+v", res.Request)
	}
	expectDone(t, mock)
}

func TestApproveSeatChangeRejectsNonPositiveResult(t *testing.T) {
	eng, mock := newTestEngine(t)

	// -2 on a 2-seat grant would leave the startup with zero seats.
	mock.ExpectBegin()
	mock.ExpectQuery(qRequestPending).WithArgs(9).WillReturnRows(pendingRequestRow(9, 3, 2, -2))
	mock.ExpectQuery(qStartupByID).WithArgs(sqlmock.AnyArg()).WillReturnRows(startupRow(3, "Acme", model.StatusActive, int64(1), 2))
	mock.ExpectQuery(qHallForUpdate).WithArgs(sqlmock.AnyArg()).WillReturnRows(hallRow(1, "Hall A", 10, 6))
	mock.ExpectRollback()

	_, err := eng.ApproveSeatChange(context.Background(), 9)
	if !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("got %v, want ErrInvalidResult", err)
	}
	expectDone(t, mock)
}

func TestApproveSeatChangeCapacityExceeded(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qRequestPending).WithArgs(9).WillReturnRows(pendingRequestRow(9, 3, 4, 3))
	mock.ExpectQuery(qStartupByID).WithArgs(sqlmock.AnyArg()).WillReturnRows(startupRow(3, "Acme", model.StatusActive, int64(1), 4))
	mock.ExpectQuery(qHallForUpdate).WithArgs(sqlmock.AnyArg()).WillReturnRows(hallRow(1, "Hall A", 10, 8))
	mock.ExpectRollback()

	_, err := eng.ApproveSeatChange(context.Background(), 9)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("got %v, want ErrCapacityExceeded", err)
	}
	expectDone(t, mock)
}

func TestApproveSeatChangeRefusesExitedStartup(t *testing.T) {
	eng, mock := newTestEngine(t)

	// The startup exited while its request sat pending; its seats are
	// already released, so the request must not be applied.
	mock.ExpectBegin()
	mock.ExpectQuery(qRequestPending).WithArgs(9).WillReturnRows(pendingRequestRow(9, 3, 4, 2))
	mock.ExpectQuery(qStartupByID).WithArgs(sqlmock.AnyArg()).WillReturnRows(startupRow(3, "Acme", model.StatusExited, int64(1), 4))
	mock.ExpectRollback()

	_, err := eng.ApproveSeatChange(context.Background(), 9)
	if !errors.Is(err, ErrStartupNotActive) {
		t.Fatalf("got %v, want ErrStartupNotActive", err)
	}
	expectDone(t, mock)
}

func TestApproveSeatChangeClampsNegativeCounter(t *testing.T) {
	eng, mock := newTestEngine(t)

	// Drifted counter: the hall claims 1 occupied while the startup gives
	// back 2 seats.  The grant shrinks normally but the counter is
	// written as 0 instead of going negative.
	mock.ExpectBegin()
	mock.ExpectQuery(qRequestPending).WithArgs(9).WillReturnRows(pendingRequestRow(9, 3, 4, -2))
	mock.ExpectQuery(qStartupByID).WithArgs(sqlmock.AnyArg()).WillReturnRows(startupRow(3, "Acme", model.StatusActive, int64(1), 4))
	mock.ExpectQuery(qHallForUpdate).WithArgs(sqlmock.AnyArg()).WillReturnRows(hallRow(1, "Hall A", 10, 1))
	mock.ExpectExec(qHallSetOccupied).WithArgs(0, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qStartupSetSeats).WithArgs(2, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qRequestComplete).WithArgs("approved", testNow, 9).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := eng.ApproveSeatChange(context.Background(), 9)
	if err != nil {
		t.Fatalf("ApproveSeatChange: %v", err)
	}
	if res.NewSeats != 2 {
		t.Fatalf("NewSeats = %d, want 2", res.NewSeats)
	}
	expectDone(t, mock)
}

func TestApproveSeatChangeAlreadyDecided(t *testing.T) {
	eng, mock := newTestEngine(t)

	// The pending-only lookup misses requests that were already decided,
	// which is what blocks a second decision.
	mock.ExpectBegin()
	mock.ExpectQuery(qRequestPending).WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "startup_id", "current_seats", "requested_seats", "user_note", "status", "requested_at"}))
	mock.ExpectRollback()

	_, err := eng.ApproveSeatChange(context.Background(), 9)
	if !errors.Is(err, repository.ErrRequestNotFound) {
		t.Fatalf("got %v, want ErrRequestNotFound", err)
	}
	expectDone(t, mock)
}

func TestRejectSeatChange(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(qRequestPending).WithArgs(9).WillReturnRows(pendingRequestRow(9, 3, 4, 2))
	mock.ExpectExec(qRequestComplete).WithArgs("rejected", testNow, 9).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, err := eng.RejectSeatChange(context.Background(), 9)
	if err != nil {
		t.Fatalf("RejectSeatChange: %v", err)
	}
	if req.Decision == nil || *req.Decision != model.DecisionRejected {
		t.Fatalf("decision not recorded: %+v", req)
	}
	if req.Status != model.RequestCompleted {
		t.Fatalf("status = %s, want completed", req.Status)
	}
	expectDone(t, mock)
}
