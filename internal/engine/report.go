package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/snehankitpatil/incubation-portal/internal/model"
	"github.com/snehankitpatil/incubation-portal/internal/repository"
)

// HallUsage is the per-hall occupancy projection served by the
// dashboard, the utilization report and the utilization CSV.  Occupied
// is recomputed by summing active startups rather than read from the
// denormalized counter; the two agree unless the data has drifted, and
// the recomputation is the read-side source of truth.
type HallUsage struct {
	Hall        *model.Hall `json:"hall"`
	Occupied    int         `json:"occupied"`
	Available   int         `json:"available"`
	Utilization float64     `json:"utilization"`
}

// HallUsages returns the usage projection for every hall, ordered by
// hall id.  Pure read; runs without locks and tolerates staleness.
func (e *Engine) HallUsages(ctx context.Context) ([]HallUsage, error) {
	halls, err := e.Halls.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]HallUsage, 0, len(halls))
	for _, h := range halls {
		occupied, err := e.Startups.SumActiveSeats(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, HallUsage{
			Hall:        h,
			Occupied:    occupied,
			Available:   h.TotalSeats - occupied,
			Utilization: model.Utilization(occupied, h.TotalSeats),
		})
	}
	return out, nil
}

// Alerts renders the occupancy warnings shown on the alerts report.
// Halls are visited in id order; a hall at or above 80% utilization
// produces a message, and a full hall produces a second one.
func (e *Engine) Alerts(ctx context.Context) ([]string, error) {
	usages, err := e.HallUsages(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]string, 0)
	for _, u := range usages {
		if u.Utilization >= 80 {
			alerts = append(alerts, fmt.Sprintf("%s is %s%% occupied.", u.Hall.Name, formatPercent(u.Utilization)))
		}
		if u.Available == 0 {
			alerts = append(alerts, fmt.Sprintf("No seats available in %s.", u.Hall.Name))
		}
	}
	return alerts, nil
}

// formatPercent renders a utilization value without trailing zeros
// (80, 85.7).
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// HallDetail is a hall together with its usage and active startups.
type HallDetail struct {
	Usage    HallUsage        `json:"usage"`
	Startups []*model.Startup `json:"startups"`
}

// HallByID returns the detail projection for a single hall.
func (e *Engine) HallByID(ctx context.Context, id uint64) (*HallDetail, error) {
	h, err := e.Halls.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	occupied, err := e.Startups.SumActiveSeats(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	startups, err := e.Startups.ListActiveByHall(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	return &HallDetail{
		Usage: HallUsage{
			Hall:        h,
			Occupied:    occupied,
			Available:   h.TotalSeats - occupied,
			Utilization: model.Utilization(occupied, h.TotalSeats),
		},
		Startups: startups,
	}, nil
}

// StartupReport returns every startup joined with its hall name, in
// ascending id order.
func (e *Engine) StartupReport(ctx context.Context) ([]repository.StartupReportRow, error) {
	return e.Startups.ListForReport(ctx)
}

// AllocationReport returns the allocation ledger joined with names.
// Views use newest-first; the CSV export asks for chronological order.
func (e *Engine) AllocationReport(ctx context.Context, ascending bool) ([]repository.AllocationDetail, error) {
	return e.Allocations.ListDetailed(ctx, ascending)
}
