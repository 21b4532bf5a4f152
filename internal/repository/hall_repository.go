package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors package for sentinel comparisons

	"github.com/snehankitpatil/incubation-portal/internal/model"
)

// HallRepo provides methods to create and retrieve halls.  It embeds a
// database handle to perform queries and commands.  Capacity-affecting
// writers must go through GetForUpdateTx/SetOccupiedTx so that the hall
// row stays locked for the whole check-then-write sequence.
type HallRepo struct {
	db *sql.DB // db is the underlying database connection
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

// DB exposes the underlying handle so callers can open transactions that
// span multiple repositories.
func (r *HallRepo) DB() *sql.DB { return r.db }

// Create inserts a new hall.  OccupiedSeats starts at zero regardless of
// the value on the struct.  After insert the ID field is populated and
// the row is read back so defaults are reflected.
func (r *HallRepo) Create(ctx context.Context, h *model.Hall) error {
	const qInsert = `INSERT INTO halls (name, total_seats, occupied_seats) VALUES (?, ?, 0)`
	res, err := r.db.ExecContext(ctx, qInsert, h.Name, h.TotalSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)

	const qSelect = `SELECT id, name, total_seats, occupied_seats FROM halls WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, h.ID).
		Scan(&h.ID, &h.Name, &h.TotalSeats, &h.OccupiedSeats)
}

// GetByID retrieves a hall by its ID.  It returns ErrHallNotFound when
// no row is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.Hall, error) {
	const q = `SELECT id, name, total_seats, occupied_seats FROM halls WHERE id = ?`
	var h model.Hall
	err := r.db.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.Name, &h.TotalSeats, &h.OccupiedSeats)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// GetForUpdateTx loads a hall inside the provided transaction with a row
// lock (SELECT ... FOR UPDATE).  Every capacity check and occupied_seats
// mutation happens against a hall loaded through this method, which is
// what serializes concurrent registrations and seat-change approvals for
// the same hall.  Returns ErrHallNotFound when no row exists.
func (r *HallRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Hall, error) {
	const q = `SELECT id, name, total_seats, occupied_seats FROM halls WHERE id = ? FOR UPDATE`
	var h model.Hall
	err := tx.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.Name, &h.TotalSeats, &h.OccupiedSeats)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHallNotFound
		}
		return nil, err
	}
	return &h, nil
}

// SetOccupiedTx writes an absolute occupied_seats value for a hall.  The
// caller computes the new value while holding the row lock taken by
// GetForUpdateTx, so a read-modify-write through this pair is atomic.
func (r *HallRepo) SetOccupiedTx(ctx context.Context, tx *sql.Tx, id uint64, occupied int) error {
	const q = `UPDATE halls SET occupied_seats = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, occupied, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also zero when the value did not change, which
		// is fine; verify existence only when the hall could be missing.
		var exists uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM halls WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrHallNotFound
			}
			return err
		}
	}
	return nil
}

// List returns all halls ordered by id.
func (r *HallRepo) List(ctx context.Context) ([]*model.Hall, error) {
	const q = `SELECT id, name, total_seats, occupied_seats FROM halls ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Hall
	for rows.Next() {
		h := new(model.Hall)
		if err := rows.Scan(&h.ID, &h.Name, &h.TotalSeats, &h.OccupiedSeats); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
