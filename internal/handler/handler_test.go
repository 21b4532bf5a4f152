package handler

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/snehankitpatil/incubation-portal/internal/engine"
	"github.com/snehankitpatil/incubation-portal/internal/repository"
)

func newTestPortal(t *testing.T) (*PortalHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	halls := repository.NewHallRepo(db)
	startups := repository.NewStartupRepo(db)
	allocations := repository.NewAllocationRepo(db)
	requests := repository.NewSeatChangeRepo(db)
	eng := engine.New(halls, startups, allocations, requests)
	return NewPortalHandler(eng, startups, requests, 4), mock
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestRegisterStartupMissingFields(t *testing.T) {
	h, mock := newTestPortal(t)
	e := echo.New()

	// hall_id and seats absent entirely.
	req := jsonRequest(http.MethodPost, "/v1/startups", `{"name":"Acme","email":"a@x.io","password":"pw"}`)
	rec := httptest.NewRecorder()
	if err := h.RegisterStartup(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	// non-numeric seats fails at bind time.
	req = jsonRequest(http.MethodPost, "/v1/startups", `{"name":"Acme","email":"a@x.io","password":"pw","hall_id":1,"seats":"two"}`)
	rec = httptest.NewRecorder()
	if err := h.RegisterStartup(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db touched: %v", err)
	}
}

func TestRegisterStartupCapacityErrorMapsTo400(t *testing.T) {
	h, mock := newTestPortal(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM halls WHERE id = ? FOR UPDATE`)).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_seats", "occupied_seats"}).AddRow(1, "Hall A", 10, 9))
	mock.ExpectRollback()

	req := jsonRequest(http.MethodPost, "/v1/startups", `{"name":"Acme","email":"a@x.io","password":"pw","hall_id":1,"seats":3}`)
	rec := httptest.NewRecorder()
	if err := h.RegisterStartup(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not enough seats available") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApproveStartupConflictMapsTo409(t *testing.T) {
	h, mock := newTestPortal(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM startups WHERE id = ?`)).WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "founder", "email", "phone", "status", "hall_id", "seats_allocated", "role", "password_hash"}).
			AddRow(3, "Acme", "Jane", "a@x.io", "1", "active", 1, 2, "USER", "hash"))
	mock.ExpectRollback()

	req := jsonRequest(http.MethodPost, "/v1/startups/3/approve", "")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.ApproveStartup(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApproveSeatRequestUnknownIDMapsTo404(t *testing.T) {
	h, mock := newTestPortal(t)
	e := echo.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`AND status = 'pending' FOR UPDATE`)).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "startup_id", "current_seats", "requested_seats", "user_note", "status", "requested_at"}))
	mock.ExpectRollback()

	req := jsonRequest(http.MethodPost, "/v1/seat-requests/99/approve", "")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("99")
	if err := h.ApproveSeatRequest(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSubmitSeatRequestOwnership(t *testing.T) {
	h, mock := newTestPortal(t)
	e := echo.New()

	// A USER account may only file requests for itself.
	req := jsonRequest(http.MethodPost, "/v1/startups/5/seat-requests", `{"delta":2}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("5")
	c.Set("user_id", uint64(3))
	c.Set("role", "USER")
	if err := h.SubmitSeatRequest(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db touched: %v", err)
	}
}

func TestSubmitSeatRequestMissingDelta(t *testing.T) {
	h, mock := newTestPortal(t)
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/v1/startups/3/seat-requests", `{"note":"more room"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("3")
	c.Set("user_id", uint64(3))
	c.Set("role", "USER")
	if err := h.SubmitSeatRequest(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db touched: %v", err)
	}
}
