// Package export serializes the reporting projections to CSV.  The
// writers carry no business logic: column sets and row order come from
// the projections they are handed.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/snehankitpatil/incubation-portal/internal/engine"
	"github.com/snehankitpatil/incubation-portal/internal/repository"
)

// timeLayout is the format used for allocation timestamps in exports.
const timeLayout = "2006-01-02 15:04:05"

// WriteStartups writes the startups export: one row per startup in the
// order the rows were provided (ascending id from the report query).
func WriteStartups(w io.Writer, rows []repository.StartupReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Startup Name", "Founder", "Email", "Phone", "Hall ID", "Seats", "Status"}); err != nil {
		return err
	}
	for _, r := range rows {
		s := r.Startup
		hallID := ""
		if s.HallID != nil {
			hallID = strconv.FormatUint(*s.HallID, 10)
		}
		rec := []string{
			s.Name,
			s.Founder,
			s.Email,
			s.Phone,
			hallID,
			strconv.Itoa(s.SeatsAllocated),
			string(s.Status),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAllocations writes the allocation ledger export in the order
// provided (chronological for the export route).  ReleasedAt is empty
// while the grant is still open.
func WriteAllocations(w io.Writer, rows []repository.AllocationDetail) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Startup", "Hall", "Seats", "Allocated At", "Released At", "Event"}); err != nil {
		return err
	}
	for _, r := range rows {
		a := r.Allocation
		released := ""
		if a.ReleasedAt != nil {
			released = a.ReleasedAt.UTC().Format(timeLayout)
		}
		rec := []string{
			r.StartupName,
			r.HallName,
			strconv.Itoa(a.Seats),
			a.AllocatedAt.UTC().Format(timeLayout),
			released,
			a.Event(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUtilization writes the per-hall utilization export.
func WriteUtilization(w io.Writer, usages []engine.HallUsage) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Hall Name", "Total Seats", "Occupied Seats", "Available Seats", "Utilization (%)"}); err != nil {
		return err
	}
	for _, u := range usages {
		rec := []string{
			u.Hall.Name,
			strconv.Itoa(u.Hall.TotalSeats),
			strconv.Itoa(u.Occupied),
			strconv.Itoa(u.Available),
			strconv.FormatFloat(u.Utilization, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// StartupRecord is a startups.csv row read back by ReadStartups.
type StartupRecord struct {
	Name    string
	Founder string
	Email   string
	Phone   string
	HallID  *uint64
	Seats   int
	Status  string
}

// ReadStartups parses a startups export back into records, preserving
// row order.  It validates the header and the numeric columns so a
// mangled file fails loudly instead of importing garbage.
func ReadStartups(r io.Reader) ([]StartupRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 7

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	want := []string{"Startup Name", "Founder", "Email", "Phone", "Hall ID", "Seats", "Status"}
	for i, col := range want {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected header column %q, want %q", header[i], col)
		}
	}

	out := make([]StartupRecord, 0)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := StartupRecord{
			Name:    rec[0],
			Founder: rec[1],
			Email:   rec[2],
			Phone:   rec[3],
			Status:  rec[6],
		}
		if rec[4] != "" {
			id, err := strconv.ParseUint(rec[4], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse hall id %q: %w", rec[4], err)
			}
			row.HallID = &id
		}
		seats, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, fmt.Errorf("parse seats %q: %w", rec[5], err)
		}
		row.Seats = seats
		out = append(out, row)
	}
	return out, nil
}
