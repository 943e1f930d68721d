package healthcheck

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Checker defines a minimal interface for health checks.
type Checker interface {
	Check(ctx context.Context) error
}

// DispatchChecker verifies that the façade is still successfully
// dispatching calls to at least one endpoint. It is fed by the
// façade's Observer rather than by a background polling loop: every
// successful reconciliation updates the checker's clock, so a stalled
// façade (every endpoint in every bracket failing) is detected the
// same way the withdrawal loop's liveness was in the teacher.
type DispatchChecker struct {
	mu                sync.Mutex
	lastSuccessfulRun time.Time
	maxAllowedDelay   time.Duration
}

// NewDispatchChecker builds a checker that fails once more than
// maxAllowedDelay has elapsed since the last successful dispatch.
func NewDispatchChecker(maxAllowedDelay time.Duration) *DispatchChecker {
	return &DispatchChecker{lastSuccessfulRun: time.Now(), maxAllowedDelay: maxAllowedDelay}
}

// RecordSuccess marks a successful dispatch, resetting the staleness
// clock. Wired as the observer.Observer's OnReconcile hook for
// successful outcomes.
func (d *DispatchChecker) RecordSuccess() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSuccessfulRun = time.Now()
}

// Check returns an error if no dispatch has succeeded within the
// allowed delay threshold.
func (d *DispatchChecker) Check(ctx context.Context) error {
	d.mu.Lock()
	last := d.lastSuccessfulRun
	d.mu.Unlock()

	if time.Since(last) > d.maxAllowedDelay {
		return errors.New("rpc dispatch is stalled: no successful call within the allowed delay")
	}
	return nil
}

// OnDispatch satisfies observer.Observer but records nothing: a
// dispatch being attempted says nothing about whether it succeeded.
func (d *DispatchChecker) OnDispatch(component, operation string) {}

// OnReconcile satisfies observer.Observer, recording a success on any
// successful read or transaction-fan-out reconciliation.
func (d *DispatchChecker) OnReconcile(component, policy string, durationSeconds float64, success bool) {
	if success {
		d.RecordSuccess()
	}
}

// OnTransactionStage satisfies observer.Observer, recording a success
// once a transaction reaches its final "confirm" stage.
func (d *DispatchChecker) OnTransactionStage(stage string, success bool) {
	if success && stage == "confirm" {
		d.RecordSuccess()
	}
}
