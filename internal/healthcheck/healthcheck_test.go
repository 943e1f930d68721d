package healthcheck

import (
	"context"
	"testing"
	"time"
)

func TestDispatchChecker_FailsWhenStale(t *testing.T) {
	c := NewDispatchChecker(10 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	if err := c.Check(context.Background()); err == nil {
		t.Fatalf("expected a stale dispatch checker to fail")
	}
}

func TestDispatchChecker_RecordSuccessResetsClock(t *testing.T) {
	c := NewDispatchChecker(50 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	c.RecordSuccess()
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("expected a freshly-recorded dispatch checker to pass, got %v", err)
	}
}

func TestDispatchChecker_OnReconcileRecordsOnlyOnSuccess(t *testing.T) {
	c := NewDispatchChecker(10 * time.Millisecond)
	c.OnReconcile("facade", "most_updated", 0.01, false)
	time.Sleep(20 * time.Millisecond)
	if err := c.Check(context.Background()); err == nil {
		t.Fatalf("expected a failed reconcile to not reset the staleness clock")
	}

	c.OnReconcile("facade", "most_updated", 0.01, true)
	if err := c.Check(context.Background()); err != nil {
		t.Fatalf("expected a successful reconcile to reset the staleness clock, got %v", err)
	}
}
