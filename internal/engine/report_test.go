package engine

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var (
	qHallList       = regexp.QuoteMeta(`FROM halls ORDER BY id`)
	qSumActiveSeats = regexp.QuoteMeta(`SELECT COALESCE(SUM(seats_allocated), 0) FROM startups`)
)

func TestHallUsagesRecomputesOccupancy(t *testing.T) {
	eng, mock := newTestEngine(t)

	// The stored counter says 9 but active startups only sum to 6; the
	// projection reports the recomputed value.
	mock.ExpectQuery(qHallList).WillReturnRows(hallRow(1, "Hall A", 10, 9))
	mock.ExpectQuery(qSumActiveSeats).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(6))

	usages, err := eng.HallUsages(context.Background())
	if err != nil {
		t.Fatalf("HallUsages: %v", err)
	}
	if len(usages) != 1 {
		t.Fatalf("got %d usages, want 1", len(usages))
	}
	u := usages[0]
	if u.Occupied != 6 || u.Available != 4 || u.Utilization != 60 {
		t.Fatalf("got occupied=%d available=%d util=%v, want 6/4/60", u.Occupied, u.Available, u.Utilization)
	}
	expectDone(t, mock)
}

func TestAlertsThresholds(t *testing.T) {
	eng, mock := newTestEngine(t)

	halls := sqlmock.NewRows([]string{"id", "name", "total_seats", "occupied_seats"}).
		AddRow(1, "Quiet", 10, 2).
		AddRow(2, "Busy", 10, 8).
		AddRow(3, "Full", 5, 5).
		AddRow(4, "Odd", 7, 6)
	mock.ExpectQuery(qHallList).WillReturnRows(halls)
	mock.ExpectQuery(qSumActiveSeats).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(2))
	mock.ExpectQuery(qSumActiveSeats).WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(8))
	mock.ExpectQuery(qSumActiveSeats).WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(5))
	mock.ExpectQuery(qSumActiveSeats).WithArgs(4).WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(6))

	alerts, err := eng.Alerts(context.Background())
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	want := []string{
		"Busy is 80% occupied.",
		"Full is 100% occupied.",
		"No seats available in Full.",
		"Odd is 85.7% occupied.",
	}
	if len(alerts) != len(want) {
		t.Fatalf("got %d alerts %v, want %d", len(alerts), alerts, len(want))
	}
	for i := range want {
		if alerts[i] != want[i] {
			t.Fatalf("alert[%d] = %q, want %q", i, alerts[i], want[i])
		}
	}
	expectDone(t, mock)
}

func TestHallByID(t *testing.T) {
	eng, mock := newTestEngine(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM halls WHERE id = ?`)).WithArgs(2).
		WillReturnRows(hallRow(2, "Hall B", 20, 5))
	mock.ExpectQuery(qSumActiveSeats).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM startups WHERE hall_id = ? AND status = 'active'`)).WithArgs(2).
		WillReturnRows(startupRow(3, "Acme", "active", int64(2), 5))

	detail, err := eng.HallByID(context.Background(), 2)
	if err != nil {
		t.Fatalf("HallByID: %v", err)
	}
	if detail.Usage.Occupied != 5 || detail.Usage.Utilization != 25 {
		t.Fatalf("unexpected usage: %+v", detail.Usage)
	}
	if len(detail.Startups) != 1 || detail.Startups[0].Name != "Acme" {
		t.Fatalf("unexpected startups: %+v", detail.Startups)
	}
	expectDone(t, mock)
}
