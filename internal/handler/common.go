package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel comparisons for the response mapper
	"net/http"
	"strconv" // strconv converts context values and path params to numbers

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/snehankitpatil/incubation-portal/internal/engine"
	"github.com/snehankitpatil/incubation-portal/internal/model"
	"github.com/snehankitpatil/incubation-portal/internal/repository"
)

// PortalHandler bundles the allocation engine and the repositories the
// read-only endpoints consume.  Mutations go through the engine; pure
// listings read the repositories directly.
type PortalHandler struct {
	Engine     *engine.Engine
	Startups   *repository.StartupRepo
	Requests   *repository.SeatChangeRepo
	BcryptCost int
}

// NewPortalHandler constructs a PortalHandler and panics if any
// dependency is nil.
func NewPortalHandler(eng *engine.Engine, startups *repository.StartupRepo, requests *repository.SeatChangeRepo, bcryptCost int) *PortalHandler {
	if eng == nil || startups == nil || requests == nil {
		panic("nil dependency passed to NewPortalHandler")
	}
	return &PortalHandler{Engine: eng, Startups: startups, Requests: requests, BcryptCost: bcryptCost}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// respondError translates engine and repository errors into the HTTP
// responses the API exposes: bad input and capacity problems are 400,
// unknown ids 404, illegal state transitions 409, everything else 500.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrMalformedInput),
		errors.Is(err, engine.ErrInvalidDelta),
		errors.Is(err, engine.ErrInvalidResult),
		errors.Is(err, engine.ErrDuplicatePending),
		errors.Is(err, engine.ErrCapacityExceeded):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrHallNotFound),
		errors.Is(err, repository.ErrStartupNotFound),
		errors.Is(err, repository.ErrRequestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, engine.ErrStartupNotActive):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// pathID parses a numeric :id path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
