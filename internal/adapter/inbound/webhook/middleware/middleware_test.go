package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// --- BodyReader / RawBody ---

func TestBodyReader_BuffersBody(t *testing.T) {
	var fromCtx, fromBody []byte
	h := BodyReader(1024)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		fromCtx, err = RawBody(r, 1024)
		if err != nil {
			t.Fatalf("RawBody: %v", err)
		}
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		fromBody = buf.Bytes()
	}))

	req := httptest.NewRequest(http.MethodPost, "/interactions", strings.NewReader(`{"type":1}`))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if string(fromCtx) != `{"type":1}` {
		t.Errorf("context body = %q", fromCtx)
	}
	if string(fromBody) != `{"type":1}` {
		t.Errorf("restored body = %q", fromBody)
	}
}

func TestBodyReader_Oversize(t *testing.T) {
	var gotErr error
	h := BodyReader(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, gotErr = RawBody(r, 4)
	}))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotErr == nil {
		t.Error("expected oversize error")
	}
}

func TestRawBody_WithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc"))
	body, err := RawBody(req, 10)
	if err != nil || string(body) != "abc" {
		t.Errorf("RawBody = %q, %v", body, err)
	}
}

func TestRawBody_NoBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	body, err := RawBody(req, 10)
	if err != nil || len(body) != 0 {
		t.Errorf("RawBody = %q, %v", body, err)
	}
}

// --- Logging / request id ---

func TestLoggingMiddleware_AssignsRequestID(t *testing.T) {
	var seen string
	h := NewLoggingMiddleware(discardLogger(), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatal("expected request id in context")
	}
	if rw.Header().Get(HeaderRequestID) != seen {
		t.Errorf("response header = %q, want %q", rw.Header().Get(HeaderRequestID), seen)
	}
	if rw.Code != http.StatusTeapot {
		t.Errorf("status = %d", rw.Code)
	}
}

func TestLoggingMiddleware_KeepsInboundRequestID(t *testing.T) {
	var seen string
	h := NewLoggingMiddleware(discardLogger(), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "abc-123" {
		t.Errorf("request id = %q", seen)
	}
}

func TestLoggingMiddleware_ReplacesUnusableRequestID(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{"gateway style", "JKJaXmPLvHcESHA=", true},
		{"at length limit", strings.Repeat("a", maxRequestIDLen), true},
		{"too long", strings.Repeat("a", maxRequestIDLen+1), false},
		{"newline", "abc\nlevel=ERROR", false},
		{"space", "abc 123", false},
		{"quote", `abc"123`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))
			h := NewLoggingMiddleware(logger, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderRequestID, tt.inbound)
			rw := httptest.NewRecorder()
			h.ServeHTTP(rw, req)

			if tt.keep {
				if seen != tt.inbound {
					t.Errorf("request id = %q, want %q", seen, tt.inbound)
				}
				return
			}
			if seen == tt.inbound || seen == "" {
				t.Fatalf("request id = %q, want a generated id", seen)
			}
			if got := rw.Header().Get(HeaderRequestID); got != seen {
				t.Errorf("response header = %q, want %q", got, seen)
			}
			if strings.Contains(buf.String(), tt.inbound) {
				t.Errorf("log carries inbound id: %s", buf.String())
			}
		})
	}
}

// --- Recover ---

func TestRecover_Returns500(t *testing.T) {
	h := Recover(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map write")
	}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/interactions", nil))

	if rw.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rw.Code)
	}
	if body := rw.Body.String(); body != `{"error":"Internal server error"}` {
		t.Errorf("body = %s", body)
	}
}

// --- Rate limit ---

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	h := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 2})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		codes = append(codes, rw.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	h := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for _, addr := range []string{"198.51.100.1:1", "198.51.100.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if rw.Code != http.StatusOK {
			t.Errorf("%s: status = %d", addr, rw.Code)
		}
	}
}

func TestRateLimiter_EvictsStale(t *testing.T) {
	rl := newRateLimiter(RateLimitConfig{RequestsPerMinute: 60})
	rl.evictAt = 2
	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.allow("a")
	rl.allow("b")

	now = now.Add(time.Hour)
	rl.allow("c")

	if _, ok := rl.buckets["a"]; ok {
		t.Error("expected stale bucket a to be evicted")
	}
	if len(rl.buckets) != 1 {
		t.Errorf("buckets = %d, want 1", len(rl.buckets))
	}
}

func TestRemoteIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:443"
	req.Header.Set("X-Forwarded-For", "192.0.2.1, 10.0.0.1")

	if got := remoteIP(req, false); got != "203.0.113.9" {
		t.Errorf("untrusted = %q", got)
	}
	if got := remoteIP(req, true); got != "192.0.2.1" {
		t.Errorf("trusted = %q", got)
	}
}

// --- Security headers ---

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}
