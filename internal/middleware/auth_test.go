package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/snehankitpatil/incubation-portal/internal/utils"
)

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func invoke(mw echo.MiddlewareFunc, req *http.Request, setup func(echo.Context)) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	_ = mw(okHandler)(c)
	return rec
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rec := invoke(JWTAuth("secret"), req, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	tok, err := utils.NewAccessToken("other-secret", 1, "USER", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := invoke(JWTAuth("secret"), req, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	tok, err := utils.NewAccessToken("secret", 42, "ADMIN", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var role any
	var userID any
	err = JWTAuth("secret")(func(c echo.Context) error {
		role = c.Get("role")
		userID = c.Get("user_id")
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if role != "ADMIN" {
		t.Fatalf("role = %v, want ADMIN", role)
	}
	if userID == nil {
		t.Fatal("user_id not set in context")
	}
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("ADMIN")

	req := httptest.NewRequest(http.MethodGet, "/v1/startups", nil)
	rec := invoke(mw, req, func(c echo.Context) { c.Set("role", "ADMIN") })
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: status = %d, want 200", rec.Code)
	}

	rec = invoke(mw, req, func(c echo.Context) { c.Set("role", "USER") })
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user: status = %d, want 403", rec.Code)
	}

	rec = invoke(mw, req, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("no role: status = %d, want 403", rec.Code)
	}
}
