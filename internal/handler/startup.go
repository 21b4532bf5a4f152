package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/snehankitpatil/incubation-portal/internal/engine"
	"github.com/snehankitpatil/incubation-portal/internal/model"
	"github.com/snehankitpatil/incubation-portal/internal/queue"
	queue_publisher "github.com/snehankitpatil/incubation-portal/internal/service"
	"github.com/snehankitpatil/incubation-portal/internal/utils"
)

// registerStartupReq is the payload for POST /v1/startups.  HallID and
// Seats are pointers so a missing or non-numeric field is detected as
// malformed input instead of silently coerced to zero.
type registerStartupReq struct {
	Name     string  `json:"name"`
	Founder  string  `json:"founder"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Password string  `json:"password"`
	HallID   *uint64 `json:"hall_id"`
	Seats    *int    `json:"seats"`
}

// RegisterStartup handles POST /v1/startups.  It creates a startup in
// the applied state after the engine has verified the requested seats
// fit into the chosen hall.
func (h *PortalHandler) RegisterStartup(c echo.Context) error {
	var body registerStartupReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.HallID == nil || body.Seats == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hall_id and seats are required"})
	}
	if strings.TrimSpace(body.Password) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password is required"})
	}
	hash, err := utils.HashPassword(body.Password, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not hash password"})
	}

	s, err := h.Engine.RegisterStartup(c.Request().Context(), engine.RegisterInput{
		Name:         body.Name,
		Founder:      body.Founder,
		Email:        body.Email,
		Phone:        body.Phone,
		HallID:       *body.HallID,
		Seats:        *body.Seats,
		Role:         model.RoleUser,
		PasswordHash: hash,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// ListStartups handles GET /v1/startups and returns every startup with
// its pending seat-change request, when one exists.
func (h *PortalHandler) ListStartups(c echo.Context) error {
	items, err := h.Startups.ListWithPending(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ApproveStartup handles POST /v1/startups/:id/approve (applied → approved).
func (h *PortalHandler) ApproveStartup(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, err := h.Engine.ApproveStartup(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ActivateStartup handles POST /v1/startups/:id/activate.  On success an
// allocation is opened, the hall counter grows and an event goes out to
// the broker; publish failures are logged inside the publisher and do
// not fail the request.
func (h *PortalHandler) ActivateStartup(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, alloc, err := h.Engine.ActivateStartup(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	_ = queue_publisher.PublishAllocationEvent(c.Request().Context(), queue.AllocationEvent{
		Kind:        queue.EventActivated,
		StartupID:   s.ID,
		StartupName: s.Name,
		HallID:      alloc.HallID,
		Seats:       alloc.Seats,
		OccurredAt:  alloc.AllocatedAt.Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"startup": s, "allocation": alloc})
}

// ExitStartup handles POST /v1/startups/:id/exit.  Exiting an
// already-exited startup is a no-op and reports zero released
// allocations.
func (h *PortalHandler) ExitStartup(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	s, released, err := h.Engine.ExitStartup(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	if released > 0 && s.HallID != nil {
		_ = queue_publisher.PublishAllocationEvent(c.Request().Context(), queue.AllocationEvent{
			Kind:        queue.EventExited,
			StartupID:   s.ID,
			StartupName: s.Name,
			HallID:      *s.HallID,
			Seats:       s.SeatsAllocated,
			OccurredAt:  time.Now().UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"startup": s, "released_allocations": released})
}

// MyDashboard handles GET /v1/me/dashboard: the calling startup's own
// record plus its seat-change request history, newest first.
func (h *PortalHandler) MyDashboard(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	s, err := h.Startups.GetByID(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	requests, err := h.Requests.ListByStartup(c.Request().Context(), s.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"startup": s, "requests": requests})
}
