package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/snehankitpatil/incubation-portal/internal/model"
	"github.com/snehankitpatil/incubation-portal/internal/queue"
	queue_publisher "github.com/snehankitpatil/incubation-portal/internal/service"
)

// SubmitSeatRequest handles POST /v1/startups/:id/seat-requests.  Only
// the startup itself may file a request for its seats; admins use the
// decision endpoints, not this one.  The delta is signed: positive asks
// for more seats, negative gives seats back.
func (h *PortalHandler) SubmitSeatRequest(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if role, _ := c.Get("role").(string); role != model.RoleAdmin && userID != id {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var body struct {
		Delta *int   `json:"delta"`
		Note  string `json:"note"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Delta == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "delta is required"})
	}

	req, err := h.Engine.SubmitSeatChange(c.Request().Context(), id, *body.Delta, body.Note)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, req)
}

// ListSeatRequests handles GET /v1/seat-requests: every request joined
// with its startup, pending first for the review queue.
func (h *PortalHandler) ListSeatRequests(c echo.Context) error {
	items, err := h.Requests.ListDetailed(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SeatRequestHistory handles GET /v1/seat-requests/history: decided
// requests only, newest decisions first.
func (h *PortalHandler) SeatRequestHistory(c echo.Context) error {
	items, err := h.Requests.ListHistory(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ApproveSeatRequest handles POST /v1/seat-requests/:id/approve.  A
// request already decided comes back 404 from the pending-only lookup,
// so double submissions of the same decision are harmless.
func (h *PortalHandler) ApproveSeatRequest(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	res, err := h.Engine.ApproveSeatChange(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	_ = queue_publisher.PublishAllocationEvent(c.Request().Context(), queue.AllocationEvent{
		Kind:        queue.EventSeatChangeApproved,
		StartupID:   res.Startup.ID,
		StartupName: res.Startup.Name,
		HallID:      res.HallID,
		Seats:       res.NewSeats,
		Delta:       res.Request.RequestedSeats,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, echo.Map{"request": res.Request, "startup": res.Startup})
}

// RejectSeatRequest handles POST /v1/seat-requests/:id/reject.
func (h *PortalHandler) RejectSeatRequest(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	req, err := h.Engine.RejectSeatChange(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}
