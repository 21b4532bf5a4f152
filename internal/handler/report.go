package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// StartupReport handles GET /v1/reports/startups: every startup joined
// with its hall name.
func (h *PortalHandler) StartupReport(c echo.Context) error {
	rows, err := h.Engine.StartupReport(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rows})
}

// AllocationReport handles GET /v1/reports/allocations: the full
// ledger, newest first.
func (h *PortalHandler) AllocationReport(c echo.Context) error {
	rows, err := h.Engine.AllocationReport(c.Request().Context(), false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rows})
}

// UtilizationReport handles GET /v1/reports/utilization: per-hall
// occupancy recomputed from active startups.
func (h *PortalHandler) UtilizationReport(c echo.Context) error {
	usages, err := h.Engine.HallUsages(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": usages})
}

// AlertReport handles GET /v1/reports/alerts: occupancy warnings for
// halls at or above the 80% threshold and halls with no seats left.
func (h *PortalHandler) AlertReport(c echo.Context) error {
	alerts, err := h.Engine.Alerts(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"alerts": alerts})
}
