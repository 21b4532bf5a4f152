package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/snehankitpatil/incubation-portal/internal/model"
)

// AllocationRepo provides access to the append-only allocations ledger.
// Rows are opened when a startup activates and closed when it exits;
// nothing else updates them.
type AllocationRepo struct {
	db *sql.DB
}

// NewAllocationRepo returns a new AllocationRepo bound to the given database.
func NewAllocationRepo(db *sql.DB) *AllocationRepo { return &AllocationRepo{db: db} }

// OpenTx inserts a new open allocation (released_at NULL) within the
// provided transaction and populates the generated ID.  Timestamps are
// stored in UTC.
func (r *AllocationRepo) OpenTx(ctx context.Context, tx *sql.Tx, a *model.Allocation) error {
	const q = `INSERT INTO allocations (startup_id, hall_id, seats, allocated_at) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, a.StartupID, a.HallID, a.Seats, a.AllocatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// CloseOpenTx stamps released_at on every open allocation of a startup.
// Update-by-filter semantics apply: if multiple rows are somehow open (a
// data anomaly) they are all closed.  The number of rows closed is
// returned so callers can tell a no-op exit apart from a real release.
func (r *AllocationRepo) CloseOpenTx(ctx context.Context, tx *sql.Tx, startupID uint64, releasedAt time.Time) (int64, error) {
	const q = `UPDATE allocations SET released_at = ? WHERE startup_id = ? AND released_at IS NULL`
	res, err := tx.ExecContext(ctx, q, releasedAt.UTC(), startupID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AllocationDetail is an allocation joined with startup and hall names
// for listings and CSV export.
type AllocationDetail struct {
	Allocation  *model.Allocation `json:"allocation"`
	StartupName string            `json:"startup_name"`
	HallName    string            `json:"hall_name"`
}

// ListDetailed returns all allocations joined with names.  Views want
// the newest grants first; the CSV export wants chronological order, so
// the direction is a parameter.
func (r *AllocationRepo) ListDetailed(ctx context.Context, ascending bool) ([]AllocationDetail, error) {
	q := `SELECT a.id, a.startup_id, a.hall_id, a.seats, a.allocated_at, a.released_at, s.name, h.name
	      FROM allocations a
	      JOIN startups s ON s.id = a.startup_id
	      JOIN halls h ON h.id = a.hall_id
	      ORDER BY a.allocated_at DESC, a.id DESC`
	if ascending {
		q = `SELECT a.id, a.startup_id, a.hall_id, a.seats, a.allocated_at, a.released_at, s.name, h.name
		     FROM allocations a
		     JOIN startups s ON s.id = a.startup_id
		     JOIN halls h ON h.id = a.hall_id
		     ORDER BY a.allocated_at, a.id`
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AllocationDetail, 0)
	for rows.Next() {
		var a model.Allocation
		var released sql.NullTime
		var d AllocationDetail
		if err := rows.Scan(&a.ID, &a.StartupID, &a.HallID, &a.Seats, &a.AllocatedAt,
			&released, &d.StartupName, &d.HallName); err != nil {
			return nil, err
		}
		if released.Valid {
			t := released.Time
			a.ReleasedAt = &t
		}
		d.Allocation = &a
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
