package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signAdminToken(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key any) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestAdminAuth_ValidToken(t *testing.T) {
	e := echo.New()
	token := signAdminToken(t, jwt.MapClaims{
		"username": "ops",
		"role":     "admin",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256, []byte("secret"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := AdminAuth("secret")(func(c echo.Context) error {
		called = true
		if c.Get("username") != "ops" {
			t.Fatalf("username not set")
		}
		if c.Get("role") != "admin" {
			t.Fatalf("role not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAdminAuth_Rejects(t *testing.T) {
	valid := jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()}

	tests := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{name: "missing header", header: func(*testing.T) string { return "" }},
		{name: "wrong scheme", header: func(*testing.T) string { return "Token abc" }},
		{name: "garbage token", header: func(*testing.T) string { return "Bearer not-a-token" }},
		{name: "wrong secret", header: func(t *testing.T) string {
			return "Bearer " + signAdminToken(t, valid, jwt.SigningMethodHS256, []byte("other"))
		}},
		{name: "expired", header: func(t *testing.T) string {
			return "Bearer " + signAdminToken(t, jwt.MapClaims{"role": "admin", "exp": time.Now().Add(-time.Minute).Unix()},
				jwt.SigningMethodHS256, []byte("secret"))
		}},
		{name: "no expiry", header: func(t *testing.T) string {
			return "Bearer " + signAdminToken(t, jwt.MapClaims{"role": "admin"}, jwt.SigningMethodHS256, []byte("secret"))
		}},
		{name: "other algorithm", header: func(t *testing.T) string {
			return "Bearer " + signAdminToken(t, valid, jwt.SigningMethodHS512, []byte("secret"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := AdminAuth("secret")(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})
			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
