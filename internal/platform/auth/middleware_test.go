package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func testHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestMiddleware_ValidToken(t *testing.T) {
	iss := newTestIssuer()
	token, _ := iss.Issue(7, "nurse1", RoleAssistant, "Nurse One")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID int64
	var gotRole string
	h := Middleware(iss)(func(c echo.Context) error {
		gotID = UserIDFromContext(c.Request().Context())
		gotRole = RoleFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})

	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != 7 {
		t.Errorf("expected user id 7 in context, got %d", gotID)
	}
	if gotRole != RoleAssistant {
		t.Errorf("expected role assistant in context, got %s", gotRole)
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(newTestIssuer())(testHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMiddleware_BadScheme(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(newTestIssuer())(testHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	expired := NewIssuer("test-secret", "digidocs", "digidocs-clients", -time.Minute)
	token, _ := expired.Issue(7, "u", RoleDoctor, "U")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Middleware(newTestIssuer())(testHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func requireRoleTest(t *testing.T, ctxRole string, required []string, wantCode int) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	iss := newTestIssuer()
	if ctxRole != "" {
		token, _ := iss.Issue(1, "u", ctxRole, "U")
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var h echo.HandlerFunc = testHandler
	h = RequireRole(required...)(h)
	if ctxRole != "" {
		h = Middleware(iss)(h)
	}

	err := h(c)
	if wantCode == http.StatusOK {
		if err != nil {
			t.Errorf("expected success, got %v", err)
		}
		return
	}
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != wantCode {
		t.Errorf("expected %d, got %v", wantCode, err)
	}
}

func TestRequireRole_Match(t *testing.T) {
	requireRoleTest(t, RoleDoctor, []string{RoleDoctor}, http.StatusOK)
}

func TestRequireRole_AdminAlwaysPasses(t *testing.T) {
	requireRoleTest(t, RoleAdmin, []string{RoleDoctor}, http.StatusOK)
}

func TestRequireRole_Forbidden(t *testing.T) {
	requireRoleTest(t, RoleAssistant, []string{RoleDoctor}, http.StatusForbidden)
}

func TestRequireRole_NoRole(t *testing.T) {
	requireRoleTest(t, "", []string{RoleDoctor}, http.StatusForbidden)
}
