package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestRateLimiter_BucketAndRefill verifies the bucket empties and refills per interval.
func TestRateLimiter_BucketAndRefill(t *testing.T) {
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request within the interval should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("another IP has its own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("bucket should refill after one interval")
	}
}

// TestRateLimiter_SweepsIdleVisitors verifies idle buckets are dropped.
func TestRateLimiter_SweepsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Second)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(10 * time.Minute)
	rl.Allow("10.0.0.2")

	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Error("expected idle visitor to be swept")
	}
}

// TestRateLimit_Middleware verifies 429 once the limit is hit and that ports are ignored.
func TestRateLimit_Middleware(t *testing.T) {
	handler := RateLimit(NewRateLimiter(1, time.Hour))(okHandler(http.StatusOK))

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "192.0.2.1:1111"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first: status = %d", rr.Code)
	}

	req = httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "192.0.2.1:2222"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second: status = %d, want 429", rr.Code)
	}
}

// TestSecurityHeaders verifies the headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler(http.StatusOK)).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
	if !strings.Contains(rr.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'") {
		t.Error("CSP should forbid framing")
	}
}

// TestCSRF_RejectsPostWithoutToken verifies form posts need a token.
func TestCSRF_RejectsPostWithoutToken(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	handler := CSRF(key, false)(okHandler(http.StatusOK))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("GET: status = %d, want 200", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/reports/draft", strings.NewReader("anchor=2024-03-11"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("POST: status = %d, want 403", rr.Code)
	}
}

// TestChain_Order verifies the last middleware listed runs first.
func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	Chain(okHandler(http.StatusOK), mark("inner"), mark("outer")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v, want [outer inner]", order)
	}
}

// TestMaxBodySize verifies declared and streamed oversize bodies are rejected.
func TestMaxBodySize(t *testing.T) {
	var readErr error
	handler := MaxBodySize(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/reports/draft", strings.NewReader("too long")))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("declared: status = %d, want 413", rr.Code)
	}

	req := httptest.NewRequest("POST", "/reports/draft", io.NopCloser(strings.NewReader("too long")))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)
	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Errorf("streamed: expected MaxBytesError, got %v", readErr)
	}
}
