package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akhawaja/medassist/internal/api/ctxkeys"
	pkgauth "github.com/akhawaja/medassist/pkg/auth"
)

func nextCapturingSubject(subject *string, called *bool) http.Handler {
	return http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		*called = true
		if v, ok := r.Context().Value(ctxkeys.Subject).(string); ok {
			*subject = v
		}
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-for-middleware")

	token, err := pkgauth.GenerateToken("researcher-1")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	var subject string
	var called bool
	h := AuthMiddleware(nextCapturingSubject(&subject, &called))

	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called {
		t.Fatal("next handler not called")
	}
	if subject != "researcher-1" {
		t.Errorf("subject = %q", subject)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-for-middleware")

	var called bool
	var subject string
	h := AuthMiddleware(nextCapturingSubject(&subject, &called))

	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Error("next handler must not run without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_BadToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-for-middleware")

	var called bool
	var subject string
	h := AuthMiddleware(nextCapturingSubject(&subject, &called))

	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Error("next handler must not run with an invalid token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"Bearer   abc123  ", "abc123"},
		{"bearer abc123", ""}, // scheme is case-sensitive
		{"Basic abc123", ""},
		{"", ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := extractBearerToken(req); got != tc.want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
