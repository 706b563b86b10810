package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestContext(user *AppUser) *AppContext {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return &AppContext{e.NewContext(req, rec), &App{}, user}
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestHasPermission(t *testing.T) {
	user := &AppUser{UserID: 1, Role: "user", Permissions: []string{"link.view", "run.view"}}

	if !HasPermission(user, "link.view") {
		t.Fatal("expected link.view to be granted")
	}
	if HasPermission(user, "corpus.delete") {
		t.Fatal("corpus.delete should not be granted")
	}
	if HasPermission(nil, "link.view") {
		t.Fatal("nil user must have no permissions")
	}
}

func TestHasAnyPermission(t *testing.T) {
	user := &AppUser{UserID: 1, Role: "user", Permissions: []string{"run.view"}}

	if !HasAnyPermission(user, "link.view", "run.view") {
		t.Fatal("expected run.view to satisfy the any-check")
	}
	if HasAnyPermission(user, "corpus.delete", "event.ingest") {
		t.Fatal("no listed permission is held")
	}
	if HasAnyPermission(nil, "run.view") {
		t.Fatal("nil user must fail the any-check")
	}
}

func TestIsAdmin(t *testing.T) {
	if !IsAdmin(&AppUser{UserID: 1, Role: "admin"}) {
		t.Fatal("admin role not recognized")
	}
	if IsAdmin(&AppUser{UserID: 1, Role: "user"}) {
		t.Fatal("user role must not be admin")
	}
	if IsAdmin(nil) {
		t.Fatal("nil user must not be admin")
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name string
		user *AppUser
		want int
	}{
		{"granted", &AppUser{UserID: 1, Permissions: []string{"run.create"}}, http.StatusOK},
		{"missing permission", &AppUser{UserID: 1, Permissions: []string{"run.view"}}, http.StatusForbidden},
		{"no user", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContext(tt.user)
			if err := RequirePermission("run.create")(okHandler)(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if got := c.Response().Status; got != tt.want {
				t.Fatalf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequireAnyPermission(t *testing.T) {
	tests := []struct {
		name string
		user *AppUser
		want int
	}{
		{"first granted", &AppUser{UserID: 1, Permissions: []string{"run.view"}}, http.StatusOK},
		{"fallback granted", &AppUser{UserID: 1, Permissions: []string{"corpus.view:all"}}, http.StatusOK},
		{"none granted", &AppUser{UserID: 1, Permissions: []string{"event.ingest"}}, http.StatusForbidden},
		{"no user", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestContext(tt.user)
			mw := RequireAnyPermission("run.view", "corpus.view:all")
			if err := mw(okHandler)(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if got := c.Response().Status; got != tt.want {
				t.Fatalf("status = %d, want %d", got, tt.want)
			}
		})
	}
}
