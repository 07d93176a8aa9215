package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskmanager/internal/apperr"
	"taskmanager/internal/pkg/logger"
	"taskmanager/internal/pkg/metrics"
	"taskmanager/internal/session"

	"github.com/gin-gonic/gin"
)

type mockVerifier struct {
	verifyFunc func(token string) (string, error)
	calls      int
}

func (m *mockVerifier) Verify(token string) (string, error) {
	m.calls++
	return m.verifyFunc(token)
}

func TestAuthorize_HeaderShapes(t *testing.T) {
	v := &mockVerifier{verifyFunc: func(token string) (string, error) {
		if token == "good" {
			return "a@example.com", nil
		}
		return "", errors.New("bad token")
	}}

	cases := []struct {
		header  string
		wantErr bool
	}{
		{"Bearer good", false},
		{"bearer good", false},
		{"", true},
		{"good", true},
		{"Bearer", true},
		{"Bearer ", true},
		{"Basic good", true},
		{"Bearer bad", true},
	}
	for _, tc := range cases {
		email, err := Authorize(v, tc.header)
		if tc.wantErr {
			if !errors.Is(err, apperr.ErrUnauthorized) {
				t.Fatalf("header %q: expected ErrUnauthorized, got %v", tc.header, err)
			}
			continue
		}
		if err != nil || email != "a@example.com" {
			t.Fatalf("header %q: expected a@example.com, got %q (%v)", tc.header, email, err)
		}
	}
}

func TestAuthorize_MissingHeaderSkipsVerifier(t *testing.T) {
	v := &mockVerifier{verifyFunc: func(string) (string, error) { return "x", nil }}
	if _, err := Authorize(v, ""); err == nil {
		t.Fatalf("expected error")
	}
	if v.calls != 0 {
		t.Fatalf("expected verifier not to be called, got %d", v.calls)
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()
	tokens := session.NewManager("secret", 0)
	good, err := tokens.Issue("a@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := gin.New()
	r.GET("/profile", AuthMiddleware(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, GetEmail(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+good)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "a@example.com" {
		t.Fatalf("expected 200 with email, got %d %q", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer tampered."+good)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Invalid JWT Token")) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()
	var buf bytes.Buffer

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger.New(&buf, "info")))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-123"`)) {
		t.Fatalf("expected request id in log, got %s", buf.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}
