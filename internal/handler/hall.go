package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/snehankitpatil/incubation-portal/internal/model"
)

// CreateHall handles POST /v1/halls.  Halls start empty; the occupied
// counter only moves through allocation transitions.
func (h *PortalHandler) CreateHall(c echo.Context) error {
	var body struct {
		Name       string `json:"name"`
		TotalSeats *int   `json:"total_seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || body.TotalSeats == nil || *body.TotalSeats < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive total_seats are required"})
	}

	hall := &model.Hall{Name: name, TotalSeats: *body.TotalSeats}
	if err := h.Engine.Halls.Create(c.Request().Context(), hall); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, hall)
}

// ListHalls handles GET /v1/halls: every hall with recomputed occupancy,
// availability and utilization.
func (h *PortalHandler) ListHalls(c echo.Context) error {
	usages, err := h.Engine.HallUsages(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": usages})
}

// HallDetail handles GET /v1/halls/:id: the hall's usage plus the
// startups currently seated in it.
func (h *PortalHandler) HallDetail(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	detail, err := h.Engine.HallByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}
