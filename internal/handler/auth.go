package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // sentinel comparisons on repository errors
	"net/http" // HTTP status codes and primitives
	"strings"  // string trimming for credentials
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/snehankitpatil/incubation-portal/internal/config"     // app configuration
	"github.com/snehankitpatil/incubation-portal/internal/repository" // DB repositories
	"github.com/snehankitpatil/incubation-portal/internal/utils"      // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.  Startup accounts
// double as login identities: the email column is the username and the
// role claim decides which routes the token can reach.
type AuthHandler struct {
	Cfg      config.Config
	Startups *repository.StartupRepo
}

func NewAuthHandler(cfg config.Config, startups *repository.StartupRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Startups: startups}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID     uint64 `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Status string `json:"status"`
}
type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// Login authenticates a startup account by email and password and
// issues a short-lived access token carrying the account's role.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Startups.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrStartupNotFound) {
			// Same response as a bad password so emails cannot be probed.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !utils.VerifyPassword(s.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, s.ID, s.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	return c.JSON(http.StatusOK, authResp{
		User:   userPart{ID: s.ID, Email: s.Email, Role: s.Role, Status: string(s.Status)},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me returns the authenticated account's identity and current status.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Startups.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrStartupNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "startup not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, userPart{ID: s.ID, Email: s.Email, Role: s.Role, Status: string(s.Status)})
}
