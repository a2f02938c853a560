package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, "ops@example.org", "operator", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "ops@example.org" {
		t.Errorf("expected subject ops@example.org, got %s", claims.Subject)
	}
	if claims.Role != "operator" {
		t.Errorf("expected role operator, got %s", claims.Role)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, "ops", "operator", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	token, err := GenerateToken(testSecret, "ops", "operator", -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ValidateToken(testSecret, token); err == nil {
		t.Fatal("expected validation failure for expired token")
	}
}

func TestJWTMiddleware(t *testing.T) {
	e := echo.New()
	token, _ := GenerateToken(testSecret, "ops", "operator", time.Hour)

	handler := JWTMiddleware(testSecret)(func(c echo.Context) error {
		claims := ClaimsFromContext(c.Request().Context())
		if claims == nil || claims.Subject != "ops" {
			t.Error("expected claims in request context")
		}
		return c.NoContent(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler(c)
			status := rec.Code
			if err != nil {
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				}
			}
			if status != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, status)
			}
		})
	}
}
