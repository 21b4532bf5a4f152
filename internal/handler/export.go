package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/snehankitpatil/incubation-portal/internal/export"
)

// csvResponse sets the headers for a CSV download before the body is
// streamed.
func csvResponse(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)
}

// ExportStartups handles GET /v1/export/startups.csv.
func (h *PortalHandler) ExportStartups(c echo.Context) error {
	rows, err := h.Engine.StartupReport(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	csvResponse(c, "startups.csv")
	return export.WriteStartups(c.Response(), rows)
}

// ExportAllocations handles GET /v1/export/allocations.csv.  The file
// is chronological, oldest allocation first.
func (h *PortalHandler) ExportAllocations(c echo.Context) error {
	rows, err := h.Engine.AllocationReport(c.Request().Context(), true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	csvResponse(c, "allocations.csv")
	return export.WriteAllocations(c.Response(), rows)
}

// ExportUtilization handles GET /v1/export/utilization.csv.
func (h *PortalHandler) ExportUtilization(c echo.Context) error {
	usages, err := h.Engine.HallUsages(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	csvResponse(c, "hall_utilization.csv")
	return export.WriteUtilization(c.Response(), usages)
}
