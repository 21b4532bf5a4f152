package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/snehankitpatil/incubation-portal/internal/model"
)

// StartupRepo provides CRUD operations for startups.  Lifecycle writes
// that must stay consistent with hall counters and allocations expose Tx
// variants; the allocation engine composes them inside one transaction.
type StartupRepo struct {
	db *sql.DB
}

// NewStartupRepo returns a new StartupRepo bound to the given database.
func NewStartupRepo(db *sql.DB) *StartupRepo { return &StartupRepo{db: db} }

const startupColumns = `id, name, founder, email, phone, status, hall_id, seats_allocated, role, password_hash`

// scanStartup reads one startups row into a model.Startup, converting
// the nullable hall reference.
func scanStartup(row interface{ Scan(...any) error }) (*model.Startup, error) {
	var s model.Startup
	var hallID sql.NullInt64
	var status string
	err := row.Scan(&s.ID, &s.Name, &s.Founder, &s.Email, &s.Phone, &status,
		&hallID, &s.SeatsAllocated, &s.Role, &s.PasswordHash)
	if err != nil {
		return nil, err
	}
	s.Status = model.StartupStatus(status)
	if hallID.Valid {
		id := uint64(hallID.Int64)
		s.HallID = &id
	}
	return &s, nil
}

// CreateTx inserts a new startup within the scope of an existing
// transaction and populates the generated ID.  The caller must commit or
// roll back.  Registration runs inside the hall-locked transaction so
// the capacity check it performed stays valid until commit.
func (r *StartupRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Startup) error {
	const q = `INSERT INTO startups (name, founder, email, phone, status, hall_id, seats_allocated, role, password_hash)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var hallID any
	if s.HallID != nil {
		hallID = *s.HallID
	}
	res, err := tx.ExecContext(ctx, q, s.Name, s.Founder, s.Email, s.Phone,
		string(s.Status), hallID, s.SeatsAllocated, s.Role, s.PasswordHash)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a startup by id, returning ErrStartupNotFound when
// no row exists.
func (r *StartupRepo) GetByID(ctx context.Context, id uint64) (*model.Startup, error) {
	const q = `SELECT ` + startupColumns + ` FROM startups WHERE id = ?`
	s, err := scanStartup(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStartupNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByIDTx is GetByID inside an existing transaction.
func (r *StartupRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Startup, error) {
	const q = `SELECT ` + startupColumns + ` FROM startups WHERE id = ?`
	s, err := scanStartup(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStartupNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByEmail retrieves a startup account by its login email.
func (r *StartupRepo) GetByEmail(ctx context.Context, email string) (*model.Startup, error) {
	const q = `SELECT ` + startupColumns + ` FROM startups WHERE email = ?`
	s, err := scanStartup(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStartupNotFound
		}
		return nil, err
	}
	return s, nil
}

// UpdateStatusTx sets the lifecycle status of a startup inside the
// provided transaction.  Transition legality is the engine's concern;
// this method only performs the write.
func (r *StartupRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.StartupStatus) error {
	const q = `UPDATE startups SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, string(status), id)
	return err
}

// SetSeatsTx writes a startup's seats_allocated inside the provided
// transaction.  Used by approved seat changes together with the hall
// counter update so the two never drift apart.
func (r *StartupRepo) SetSeatsTx(ctx context.Context, tx *sql.Tx, id uint64, seats int) error {
	const q = `UPDATE startups SET seats_allocated = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, seats, id)
	return err
}

// SumActiveSeats recomputes occupancy for a hall by summing the seat
// grants of its active startups.  This is the reporting-side source of
// occupancy; the engine's locked counter is the write-side source.
func (r *StartupRepo) SumActiveSeats(ctx context.Context, hallID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(seats_allocated), 0) FROM startups WHERE hall_id = ? AND status = 'active'`
	var sum int
	if err := r.db.QueryRowContext(ctx, q, hallID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

// List returns all startups ordered by ascending id.
func (r *StartupRepo) List(ctx context.Context) ([]*model.Startup, error) {
	const q = `SELECT ` + startupColumns + ` FROM startups ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Startup
	for rows.Next() {
		s, err := scanStartup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveByHall returns the active startups assigned to a hall,
// ordered by id.  Used by the hall detail view.
func (r *StartupRepo) ListActiveByHall(ctx context.Context, hallID uint64) ([]*model.Startup, error) {
	const q = `SELECT ` + startupColumns + ` FROM startups WHERE hall_id = ? AND status = 'active' ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, hallID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Startup
	for rows.Next() {
		s, err := scanStartup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StartupListItem pairs a startup with its pending seat-change request,
// if one exists.  It backs the admin startups listing, which shows the
// open request next to each row.
type StartupListItem struct {
	Startup        *model.Startup `json:"startup"`
	PendingRequest *PendingBrief  `json:"pending_request,omitempty"`
}

// PendingBrief is the subset of a pending request shown in listings.
type PendingBrief struct {
	ID             uint64    `json:"id"`
	RequestedSeats int       `json:"requested_seats"`
	UserNote       string    `json:"user_note"`
	RequestedAt    time.Time `json:"requested_at"`
}

// ListWithPending returns all startups, each joined with its pending
// seat-change request when present.  At most one pending request can
// exist per startup, so the outer join cannot fan out.
func (r *StartupRepo) ListWithPending(ctx context.Context) ([]StartupListItem, error) {
	const q = `SELECT s.id, s.name, s.founder, s.email, s.phone, s.status, s.hall_id, s.seats_allocated, s.role, s.password_hash,
	                  q.id, q.requested_seats, q.user_note, q.requested_at
	           FROM startups s
	           LEFT JOIN seat_change_requests q ON q.startup_id = s.id AND q.status = 'pending'
	           ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StartupListItem, 0)
	for rows.Next() {
		var s model.Startup
		var hallID sql.NullInt64
		var status string
		var reqID sql.NullInt64
		var reqSeats sql.NullInt64
		var reqNote sql.NullString
		var reqAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.Name, &s.Founder, &s.Email, &s.Phone, &status,
			&hallID, &s.SeatsAllocated, &s.Role, &s.PasswordHash,
			&reqID, &reqSeats, &reqNote, &reqAt); err != nil {
			return nil, err
		}
		s.Status = model.StartupStatus(status)
		if hallID.Valid {
			id := uint64(hallID.Int64)
			s.HallID = &id
		}
		item := StartupListItem{Startup: &s}
		if reqID.Valid {
			item.PendingRequest = &PendingBrief{
				ID:             uint64(reqID.Int64),
				RequestedSeats: int(reqSeats.Int64),
				UserNote:       reqNote.String,
				RequestedAt:    reqAt.Time,
			}
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StartupReportRow is a startup joined with its hall name for the
// startups report and CSV export.
type StartupReportRow struct {
	Startup  *model.Startup `json:"startup"`
	HallName *string        `json:"hall_name,omitempty"`
}

// ListForReport returns all startups with their hall names, ordered by
// ascending id (the export order the round-trip check relies on).
func (r *StartupRepo) ListForReport(ctx context.Context) ([]StartupReportRow, error) {
	const q = `SELECT s.id, s.name, s.founder, s.email, s.phone, s.status, s.hall_id, s.seats_allocated, s.role, s.password_hash, h.name
	           FROM startups s
	           LEFT JOIN halls h ON h.id = s.hall_id
	           ORDER BY s.id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StartupReportRow, 0)
	for rows.Next() {
		var s model.Startup
		var hallID sql.NullInt64
		var status string
		var hallName sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Founder, &s.Email, &s.Phone, &status,
			&hallID, &s.SeatsAllocated, &s.Role, &s.PasswordHash, &hallName); err != nil {
			return nil, err
		}
		s.Status = model.StartupStatus(status)
		if hallID.Valid {
			id := uint64(hallID.Int64)
			s.HallID = &id
		}
		row := StartupReportRow{Startup: &s}
		if hallName.Valid {
			n := hallName.String
			row.HallName = &n
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
