package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/snehankitpatil/incubation-portal/internal/model"
)

// SeatChangeRepo provides access to the seat_change_requests table.  A
// request is written once as pending and completed exactly once with a
// decision; the repo never reopens a completed request.
type SeatChangeRepo struct {
	db *sql.DB
}

// NewSeatChangeRepo returns a new SeatChangeRepo bound to the given database.
func NewSeatChangeRepo(db *sql.DB) *SeatChangeRepo { return &SeatChangeRepo{db: db} }

// HasPendingTx reports whether a startup already has a pending request.
// The check runs inside the submission transaction so two concurrent
// submissions for the same startup cannot both pass it.
func (r *SeatChangeRepo) HasPendingTx(ctx context.Context, tx *sql.Tx, startupID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM seat_change_requests WHERE startup_id = ? AND status = 'pending'`
	var n int
	if err := tx.QueryRowContext(ctx, q, startupID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx inserts a new pending request within the provided transaction
// and populates the generated ID.
func (r *SeatChangeRepo) CreateTx(ctx context.Context, tx *sql.Tx, req *model.SeatChangeRequest) error {
	const q = `INSERT INTO seat_change_requests (startup_id, current_seats, requested_seats, user_note, status, requested_at)
	           VALUES (?, ?, ?, ?, 'pending', ?)`
	res, err := tx.ExecContext(ctx, q, req.StartupID, req.CurrentSeats, req.RequestedSeats,
		req.UserNote, req.RequestedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	req.Status = model.RequestPending
	return nil
}

// GetPendingForUpdateTx loads a request by id, but only while it is
// still pending, taking a row lock so concurrent decisions serialize.
// A request that does not exist or has already been decided both return
// ErrRequestNotFound, which is what makes double decisions impossible.
func (r *SeatChangeRepo) GetPendingForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.SeatChangeRequest, error) {
	const q = `SELECT id, startup_id, current_seats, requested_seats, user_note, status, requested_at
	           FROM seat_change_requests WHERE id = ? AND status = 'pending' FOR UPDATE`
	var req model.SeatChangeRequest
	var status string
	err := tx.QueryRowContext(ctx, q, id).Scan(&req.ID, &req.StartupID, &req.CurrentSeats,
		&req.RequestedSeats, &req.UserNote, &status, &req.RequestedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	req.Status = model.RequestStatus(status)
	return &req, nil
}

// CompleteTx transitions a pending request to completed with the given
// decision and timestamp.  The WHERE clause re-checks the pending status
// so the transition is terminal even if a caller bypassed the lock.
func (r *SeatChangeRepo) CompleteTx(ctx context.Context, tx *sql.Tx, id uint64, decision string, decidedAt time.Time) error {
	const q = `UPDATE seat_change_requests SET status = 'completed', decision = ?, decided_at = ?
	           WHERE id = ? AND status = 'pending'`
	res, err := tx.ExecContext(ctx, q, decision, decidedAt.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// RequestDetail pairs a request with the name of the startup it belongs
// to for the admin listings.
type RequestDetail struct {
	Request     *model.SeatChangeRequest `json:"request"`
	StartupName string                   `json:"startup_name"`
}

// scanRequestRows collects joined request rows into RequestDetail values.
func scanRequestRows(rows *sql.Rows) ([]RequestDetail, error) {
	out := make([]RequestDetail, 0)
	for rows.Next() {
		var req model.SeatChangeRequest
		var status string
		var decision sql.NullString
		var decidedAt sql.NullTime
		var d RequestDetail
		if err := rows.Scan(&req.ID, &req.StartupID, &req.CurrentSeats, &req.RequestedSeats,
			&req.UserNote, &status, &decision, &req.RequestedAt, &decidedAt, &d.StartupName); err != nil {
			return nil, err
		}
		req.Status = model.RequestStatus(status)
		if decision.Valid {
			v := decision.String
			req.Decision = &v
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			req.DecidedAt = &t
		}
		d.Request = &req
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const requestDetailColumns = `q.id, q.startup_id, q.current_seats, q.requested_seats, q.user_note, q.status, q.decision, q.requested_at, q.decided_at, s.name`

// ListDetailed returns all requests joined with startup names, newest
// submissions first.
func (r *SeatChangeRepo) ListDetailed(ctx context.Context) ([]RequestDetail, error) {
	const q = `SELECT ` + requestDetailColumns + `
	           FROM seat_change_requests q
	           JOIN startups s ON s.id = q.startup_id
	           ORDER BY q.requested_at DESC, q.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequestRows(rows)
}

// ListHistory returns decided requests joined with startup names, most
// recent decision first.
func (r *SeatChangeRepo) ListHistory(ctx context.Context) ([]RequestDetail, error) {
	const q = `SELECT ` + requestDetailColumns + `
	           FROM seat_change_requests q
	           JOIN startups s ON s.id = q.startup_id
	           WHERE q.status <> 'pending'
	           ORDER BY q.decided_at DESC, q.id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequestRows(rows)
}

// ListByStartup returns a startup's own requests, newest first, for the
// user dashboard.
func (r *SeatChangeRepo) ListByStartup(ctx context.Context, startupID uint64) ([]*model.SeatChangeRequest, error) {
	const q = `SELECT id, startup_id, current_seats, requested_seats, user_note, status, decision, requested_at, decided_at
	           FROM seat_change_requests
	           WHERE startup_id = ?
	           ORDER BY requested_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, startupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.SeatChangeRequest, 0)
	for rows.Next() {
		var req model.SeatChangeRequest
		var status string
		var decision sql.NullString
		var decidedAt sql.NullTime
		if err := rows.Scan(&req.ID, &req.StartupID, &req.CurrentSeats, &req.RequestedSeats,
			&req.UserNote, &status, &decision, &req.RequestedAt, &decidedAt); err != nil {
			return nil, err
		}
		req.Status = model.RequestStatus(status)
		if decision.Valid {
			v := decision.String
			req.Decision = &v
		}
		if decidedAt.Valid {
			t := decidedAt.Time
			req.DecidedAt = &t
		}
		out = append(out, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
