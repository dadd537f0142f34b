package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNew tests the creation of a new health checker.
func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{
			name:            "default timeout",
			timeout:         0,
			expectedTimeout: 5 * time.Second,
		},
		{
			name:            "custom timeout",
			timeout:         10 * time.Second,
			expectedTimeout: 10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)

			if checker == nil {
				t.Fatal("expected non-nil checker")
			}

			if checker.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.checkTimeout)
			}

			if checker.CheckCount() != 0 {
				t.Errorf("expected 0 checks, got %d", checker.CheckCount())
			}
		})
	}
}

// TestRegisterCheck tests registering health checks.
func TestRegisterCheck(t *testing.T) {
	checker := New(5 * time.Second)

	called := false
	checker.RegisterCheck("catalog", func(ctx context.Context) error {
		called = true
		return nil
	})

	if checker.CheckCount() != 1 {
		t.Errorf("expected 1 check, got %d", checker.CheckCount())
	}

	check := checker.GetCheck("catalog")
	if check == nil {
		t.Fatal("expected non-nil check")
	}

	_ = check(context.Background())
	if !called {
		t.Error("expected check to be called")
	}

	// Registering under the same name replaces the check.
	called2 := false
	checker.RegisterCheck("catalog", func(ctx context.Context) error {
		called2 = true
		return nil
	})

	if checker.CheckCount() != 1 {
		t.Errorf("expected 1 check after replacement, got %d", checker.CheckCount())
	}

	check2 := checker.GetCheck("catalog")
	_ = check2(context.Background())
	if !called2 {
		t.Error("expected replacement check to be called")
	}
}

// TestUnregisterCheck tests unregistering health checks.
func TestUnregisterCheck(t *testing.T) {
	checker := New(5 * time.Second)

	checker.RegisterCheck("catalog", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("audit", func(ctx context.Context) error { return nil })

	if checker.CheckCount() != 2 {
		t.Errorf("expected 2 checks, got %d", checker.CheckCount())
	}

	checker.UnregisterCheck("catalog")

	if checker.CheckCount() != 1 {
		t.Errorf("expected 1 check after unregister, got %d", checker.CheckCount())
	}

	if checker.GetCheck("catalog") != nil {
		t.Error("expected nil for unregistered check")
	}

	if checker.GetCheck("audit") == nil {
		t.Error("expected non-nil for remaining check")
	}
}

// TestListChecks tests listing registered checks.
func TestListChecks(t *testing.T) {
	checker := New(5 * time.Second)

	checker.RegisterCheck("catalog", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("audit", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("ledger", func(ctx context.Context) error { return nil })

	checks := checker.ListChecks()

	if len(checks) != 3 {
		t.Errorf("expected 3 checks, got %d", len(checks))
	}

	names := make(map[string]bool)
	for _, name := range checks {
		names[name] = true
	}

	if !names["catalog"] || !names["audit"] || !names["ledger"] {
		t.Error("expected all check names to be present")
	}
}

// TestCheckLiveness tests the liveness check.
func TestCheckLiveness(t *testing.T) {
	checker := New(5 * time.Second)

	report := checker.CheckLiveness(context.Background())

	if report.Status != StatusOK {
		t.Errorf("expected status 'ok', got %q", report.Status)
	}

	if report.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}

	if len(report.Checks) > 0 {
		t.Error("expected no checks in liveness response")
	}
}

// TestCheckReadiness_NoChecks tests readiness with no checks registered.
func TestCheckReadiness_NoChecks(t *testing.T) {
	checker := New(5 * time.Second)

	report := checker.CheckReadiness(context.Background())

	if report.Status != StatusReady {
		t.Errorf("expected status 'ready', got %q", report.Status)
	}

	if report.Checks == nil {
		t.Error("expected non-nil checks map")
	}

	if len(report.Checks) != 0 {
		t.Errorf("expected 0 checks, got %d", len(report.Checks))
	}
}

// TestCheckReadiness_AllHealthy tests readiness with all healthy checks.
func TestCheckReadiness_AllHealthy(t *testing.T) {
	checker := New(5 * time.Second)

	checker.RegisterCheck("catalog", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("audit", func(ctx context.Context) error { return nil })

	report := checker.CheckReadiness(context.Background())

	if report.Status != StatusReady {
		t.Errorf("expected status 'ready', got %q", report.Status)
	}

	if len(report.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(report.Checks))
	}

	for name, result := range report.Checks {
		if result.Status != StatusOK {
			t.Errorf("expected check %q to be ok, got %q", name, result.Status)
		}
	}
}

// TestCheckReadiness_SomeUnhealthy tests readiness with unhealthy checks.
func TestCheckReadiness_SomeUnhealthy(t *testing.T) {
	checker := New(5 * time.Second)

	checker.RegisterCheck("catalog", func(ctx context.Context) error { return nil })
	checker.RegisterCheck("audit", func(ctx context.Context) error {
		return errors.New("database is locked")
	})

	report := checker.CheckReadiness(context.Background())

	if report.Status != StatusDegraded {
		t.Errorf("expected status 'degraded', got %q", report.Status)
	}

	if len(report.Checks) != 2 {
		t.Errorf("expected 2 checks, got %d", len(report.Checks))
	}

	catalogResult := report.Checks["catalog"]
	if catalogResult.Status != StatusOK {
		t.Errorf("expected catalog check to be ok, got %q", catalogResult.Status)
	}

	auditResult := report.Checks["audit"]
	if auditResult.Status != StatusUnhealthy {
		t.Errorf("expected audit check to be unhealthy, got %q", auditResult.Status)
	}
	if auditResult.Message != "database is locked" {
		t.Errorf("expected message 'database is locked', got %q", auditResult.Message)
	}
}

// TestCheckReadiness_Timeout tests readiness with a check that times out.
func TestCheckReadiness_Timeout(t *testing.T) {
	checker := New(100 * time.Millisecond)

	checker.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	report := checker.CheckReadiness(context.Background())

	if report.Status != StatusDegraded {
		t.Errorf("expected status 'degraded', got %q", report.Status)
	}

	slowResult := report.Checks["slow"]
	if slowResult.Status != StatusUnhealthy {
		t.Errorf("expected slow check to be unhealthy, got %q", slowResult.Status)
	}
	if slowResult.Message != "check timed out" {
		t.Errorf("expected timeout message, got %q", slowResult.Message)
	}
}

// TestCheckReadiness_ContextCancellation tests readiness with context cancellation.
func TestCheckReadiness_ContextCancellation(t *testing.T) {
	checker := New(5 * time.Second)

	checker.RegisterCheck("catalog", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			return nil
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := checker.CheckReadiness(ctx)

	result := report.Checks["catalog"]
	if result.Status != StatusUnhealthy {
		t.Errorf("expected catalog check to be unhealthy, got %q", result.Status)
	}
}

// TestLivenessHandler tests the liveness HTTP handler.
func TestLivenessHandler(t *testing.T) {
	checker := New(5 * time.Second)
	handler := checker.LivenessHandler()

	tests := []struct {
		name           string
		method         string
		expectedStatus int
		checkBody      bool
	}{
		{
			name:           "GET request",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			checkBody:      true,
		},
		{
			name:           "HEAD request",
			method:         http.MethodHead,
			expectedStatus: http.StatusOK,
			checkBody:      false,
		},
		{
			name:           "POST request",
			method:         http.MethodPost,
			expectedStatus: http.StatusMethodNotAllowed,
			checkBody:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}

			if tt.checkBody {
				var report Report
				if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}

				if report.Status != StatusOK {
					t.Errorf("expected status 'ok', got %q", report.Status)
				}
			}
		})
	}
}

// TestReadinessHandler tests the readiness HTTP handler.
func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name           string
		setupChecks    func(*Checker)
		expectedStatus int
		expectedHealth string
	}{
		{
			name: "all healthy",
			setupChecks: func(c *Checker) {
				c.RegisterCheck("catalog", func(ctx context.Context) error { return nil })
			},
			expectedStatus: http.StatusOK,
			expectedHealth: StatusReady,
		},
		{
			name: "some unhealthy",
			setupChecks: func(c *Checker) {
				c.RegisterCheck("catalog", func(ctx context.Context) error { return nil })
				c.RegisterCheck("audit", func(ctx context.Context) error {
					return errors.New("failed")
				})
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: StatusDegraded,
		},
		{
			name:           "no checks",
			setupChecks:    func(c *Checker) {},
			expectedStatus: http.StatusOK,
			expectedHealth: StatusReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(5 * time.Second)
			tt.setupChecks(checker)

			handler := checker.ReadinessHandler()

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}

			var report Report
			if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if report.Status != tt.expectedHealth {
				t.Errorf("expected status %q, got %q", tt.expectedHealth, report.Status)
			}
		})
	}
}

// TestVersionHandler tests the version HTTP handler.
func TestVersionHandler(t *testing.T) {
	version := "1.0.0"
	commit := "abc123"
	buildTime := "2026-08-25T00:00:00Z"

	handler := VersionHandler(version, commit, buildTime)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var info VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if info.Version != version {
		t.Errorf("expected version %q, got %q", version, info.Version)
	}
	if info.Commit != commit {
		t.Errorf("expected commit %q, got %q", commit, info.Commit)
	}
	if info.BuildTime != buildTime {
		t.Errorf("expected build time %q, got %q", buildTime, info.BuildTime)
	}
	if info.GoVersion == "" {
		t.Error("expected non-empty go version")
	}
}

// TestMount tests registering the probe endpoints on a mux.
func TestMount(t *testing.T) {
	mux := http.NewServeMux()
	checker := New(5 * time.Second)

	Mount(mux, checker, "1.0.0", "abc123", "2026-08-25")

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusOK},
		{"/version", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}

// TestConcurrentChecks tests concurrent readiness probes.
func TestConcurrentChecks(t *testing.T) {
	checker := New(5 * time.Second)

	for i := 0; i < 10; i++ {
		checker.RegisterCheck(fmt.Sprintf("component-%d", i), func(ctx context.Context) error {
			time.Sleep(10 * time.Millisecond)
			return nil
		})
	}

	done := make(chan bool, 5)
	for i := 0; i < 5; i++ {
		go func() {
			report := checker.CheckReadiness(context.Background())
			if report.Status != StatusReady {
				t.Errorf("expected status 'ready', got %q", report.Status)
			}
			done <- true
		}()
	}

	for i := 0; i < 5; i++ {
		<-done
	}
}

// TestCheckResult_Duration tests that check results include duration.
func TestCheckResult_Duration(t *testing.T) {
	checker := New(5 * time.Second)

	checker.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	report := checker.CheckReadiness(context.Background())

	slowResult := report.Checks["slow"]
	if slowResult.DurationMS < 50 {
		t.Errorf("expected duration >= 50ms, got %vms", slowResult.DurationMS)
	}
}
