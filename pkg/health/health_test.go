package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestReadiness_AllHealthy(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("ec2", func(context.Context) error { return nil })

	rw := httptest.NewRecorder()
	c.ReadinessHandler()(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rw.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rw.Code)
	}
	var report Report
	if err := json.Unmarshal(rw.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Checks["ec2"].Status != StatusHealthy {
		t.Errorf("checks = %+v", report.Checks)
	}
}

func TestReadiness_FailingCheck(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("ec2", func(context.Context) error { return errors.New("access denied") })
	c.Register("other", func(context.Context) error { return nil })

	report := c.Check(context.Background())
	if report.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", report.Status)
	}
	if report.Checks["ec2"].Error != "access denied" {
		t.Errorf("checks = %+v", report.Checks)
	}
	if report.Checks["other"].Status != StatusHealthy {
		t.Error("a failing check must not affect the others")
	}

	rw := httptest.NewRecorder()
	c.ReadinessHandler()(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rw.Code)
	}
}

func TestCheck_AppliesTimeout(t *testing.T) {
	c := NewChecker(10 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	report := c.Check(context.Background())
	if report.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy after timeout, got %s", report.Status)
	}
}

func TestCheck_RunsConcurrently(t *testing.T) {
	c := NewChecker(time.Second)
	var running atomic.Int32
	var peak atomic.Int32
	for _, name := range []string{"a", "b", "c"} {
		c.Register(name, func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}

	report := c.Check(context.Background())
	if len(report.Checks) != 3 {
		t.Fatalf("checks = %d, want 3", len(report.Checks))
	}
	if peak.Load() < 2 {
		t.Errorf("expected concurrent checks, peak = %d", peak.Load())
	}
}

func TestLiveness(t *testing.T) {
	c := NewChecker(0)
	c.Register("never", func(context.Context) error { return errors.New("not called") })

	rw := httptest.NewRecorder()
	c.LivenessHandler()(rw, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rw.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rw.Code)
	}
	var report Report
	if err := json.Unmarshal(rw.Body.Bytes(), &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Status != StatusHealthy || report.Version == "" {
		t.Errorf("report = %+v", report)
	}
}
