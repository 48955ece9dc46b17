package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wallowawildlife/ww-backend/internal/middleware"
	"golang.org/x/time/rate"
)

func hitFrom(handler http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

// TestRateLimit_BurstExhaustion verifies that one client gets 429 once its
// burst is spent.
func TestRateLimit_BurstExhaustion(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// Tiny refill rate so the burst cannot replenish mid-test.
	handler := middleware.RateLimit(rate.Limit(0.001), 2)(inner)

	for i := 0; i < 2; i++ {
		if code := hitFrom(handler, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d within burst: expected 200, got %d", i+1, code)
		}
	}
	if code := hitFrom(handler, "10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", code)
	}
}

// TestRateLimit_PerClientBuckets verifies that exhausting one IP's budget
// does not affect another IP.
func TestRateLimit_PerClientBuckets(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.RateLimit(rate.Limit(0.001), 1)(inner)

	if code := hitFrom(handler, "10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first client first hit: expected 200, got %d", code)
	}
	if code := hitFrom(handler, "10.0.0.1:9999"); code != http.StatusTooManyRequests {
		t.Fatalf("same IP different port shares the bucket: expected 429, got %d", code)
	}
	if code := hitFrom(handler, "10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("second client: expected 200, got %d", code)
	}
}
