package middleware

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

// TestVisitorTableSweep verifies idle entries are dropped on lookup once the
// sweep interval has passed, and that active entries survive.
func TestVisitorTableSweep(t *testing.T) {
	table := newVisitorTable(rate.Limit(0.001), 1)
	now := time.Now()

	table.limiterFor("10.0.0.1", now)
	table.limiterFor("10.0.0.2", now.Add(30*time.Second))
	if got := table.size(); got != 2 {
		t.Fatalf("expected 2 tracked visitors, got %d", got)
	}

	// Keep the second visitor warm, then look up a third well past the first
	// visitor's TTL; the sweep on that lookup drops only the idle one.
	table.limiterFor("10.0.0.2", now.Add(2*time.Minute))
	table.limiterFor("10.0.0.3", now.Add(4*time.Minute))
	if got := table.size(); got != 2 {
		t.Fatalf("expected idle visitor evicted, got %d tracked", got)
	}
	if _, ok := table.visitors["10.0.0.1"]; ok {
		t.Errorf("idle visitor still tracked after sweep")
	}
	if _, ok := table.visitors["10.0.0.2"]; !ok {
		t.Errorf("recently seen visitor was evicted")
	}
}

// TestVisitorTableEvictionResetsBucket verifies a visitor returning after
// eviction starts with a fresh burst instead of an exhausted bucket.
func TestVisitorTableEvictionResetsBucket(t *testing.T) {
	table := newVisitorTable(rate.Limit(0.001), 1)
	now := time.Now()

	l := table.limiterFor("10.0.0.1", now)
	if !l.Allow() {
		t.Fatal("first request within burst should pass")
	}
	if l.Allow() {
		t.Fatal("burst of 1 should be exhausted")
	}

	// Return well past the TTL: the old bucket is gone and a new one admits
	// the request.
	l2 := table.limiterFor("10.0.0.1", now.Add(10*time.Minute))
	if !l2.Allow() {
		t.Error("returning visitor should get a fresh bucket")
	}
}
