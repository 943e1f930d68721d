package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpcmux/multirpc/internal/rpcerr"
)

func delayed[T any](d time.Duration, v T, err error) Attempt[T] {
	return func(ctx context.Context) (T, error) {
		select {
		case <-time.After(d):
			return v, err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

func TestAllThenPick_MostUpdatedSelection(t *testing.T) {
	type blockValue struct {
		block uint64
		value string
	}
	attempts := []Attempt[blockValue]{
		delayed(0, blockValue{100, "0xAA"}, nil),
		delayed(0, blockValue{101, "0xBB"}, nil),
	}
	got, err := AllThenPick(context.Background(), attempts, func(vs []blockValue) blockValue {
		return Max(vs, func(v blockValue) uint64 { return v.block })
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.value != "0xBB" {
		t.Fatalf("expected 0xBB, got %s", got.value)
	}
}

func TestAllThenPick_AllFail(t *testing.T) {
	boom := errors.New("connection refused")
	attempts := []Attempt[int]{
		delayed(0, 0, boom),
		delayed(0, 0, boom),
	}
	_, err := AllThenPick(context.Background(), attempts, func(vs []int) int { return vs[0] })
	var failed *rpcerr.FailedOnAllRPCs
	if !errors.As(err, &failed) {
		t.Fatalf("expected FailedOnAllRPCs, got %v", err)
	}
}

func TestFirstSuccess_TakesFastestWinner(t *testing.T) {
	attempts := []Attempt[string]{
		delayed(200*time.Millisecond, "slow-1", nil),
		delayed(200*time.Millisecond, "slow-2", nil),
		delayed(5*time.Millisecond, "0x42", nil),
	}
	start := time.Now()
	got, err := FirstSuccess(context.Background(), attempts, func(error) bool { return true }, nil)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0x42" {
		t.Fatalf("expected 0x42, got %s", got)
	}
	if elapsed > 100*time.Millisecond {
		t.Fatalf("expected fast winner, took %s", elapsed)
	}
}

func TestFirstSuccess_SoftErrorsDoNotShortCircuit(t *testing.T) {
	soft := errors.New("soft")
	attempts := []Attempt[int]{
		delayed(0, 0, soft),
		delayed(5*time.Millisecond, 42, nil),
	}
	got, err := FirstSuccess(context.Background(), attempts, func(error) bool { return true }, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
}

func TestFirstSuccess_TerminalOutranksSoft(t *testing.T) {
	soft := errors.New("soft")
	terminal := errors.New("terminal")
	attempts := []Attempt[int]{
		delayed(0, 0, soft),
		delayed(5*time.Millisecond, 0, terminal),
	}
	_, err := FirstSuccess(context.Background(), attempts, func(e error) bool { return errors.Is(e, soft) }, nil)
	if !errors.Is(err, terminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}
}

func TestFirstSuccess_AllSoftReturnsSoftErr(t *testing.T) {
	soft := errors.New("soft")
	attempts := []Attempt[int]{
		delayed(0, 0, soft),
		delayed(0, 0, soft),
	}
	_, err := FirstSuccess(context.Background(), attempts, func(error) bool { return true }, errors.New("fallback"))
	if !errors.Is(err, soft) {
		t.Fatalf("expected soft error to surface, got %v", err)
	}
}

func TestMax_TieBreaksByFirstIndex(t *testing.T) {
	vs := []int{5, 5, 3}
	got := Max(vs, func(v int) uint64 { return uint64(v) })
	if got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}
