// Package reconcile implements the two concurrent-reduction patterns
// every fan-out in this module is built from: AllThenPick (wait for
// every attempt, choose among the successes) and FirstSuccess (race
// every attempt, take the first winner, cancel and drain the rest).
package reconcile

import (
	"context"
	"sync"

	"github.com/rpcmux/multirpc/internal/rpcerr"
)

// Attempt is one concurrently-scheduled unit of work. It must respect
// ctx cancellation promptly — FirstSuccess relies on that to bound how
// long losing attempts keep running after a winner is recorded.
type Attempt[T any] func(ctx context.Context) (T, error)

// AllThenPick launches every attempt, waits for all of them to finish
// (it never cancels), and if at least one succeeded applies select to
// the slice of successful results. If every attempt failed it raises
// *rpcerr.FailedOnAllRPCs carrying the first observed failure.
func AllThenPick[T any](ctx context.Context, attempts []Attempt[T], selector func([]T) T) (T, error) {
	var zero T
	if len(attempts) == 0 {
		return zero, &rpcerr.FailedOnAllRPCs{}
	}

	type outcome struct {
		val T
		err error
	}
	results := make([]outcome, len(attempts))

	var wg sync.WaitGroup
	wg.Add(len(attempts))
	for i, a := range attempts {
		i, a := i, a
		go func() {
			defer wg.Done()
			v, err := a(ctx)
			results[i] = outcome{val: v, err: err}
		}()
	}
	wg.Wait()

	var ok []T
	var firstErr error
	merr := newMultiErr()
	for _, r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			merr.append(r.err)
			continue
		}
		ok = append(ok, r.val)
	}
	if len(ok) == 0 {
		return zero, &rpcerr.FailedOnAllRPCs{Cause: firstErr, All: merr.out()}
	}
	return selector(ok), nil
}

// FirstSuccess launches every attempt and races them to a single
// winner:
//
//   - the first successful attempt cancels the context (so remaining
//     attempts can stop promptly) and becomes the result;
//   - a failure classified as soft by isSoft is remembered but does
//     not stop the race;
//   - any other failure is terminal: it cancels the context and
//     immediately outranks a later soft failure.
//
// Every attempt is awaited before FirstSuccess returns, so no
// goroutine outlives the call. If no attempt ever succeeds, the
// terminal failure is returned if one occurred, else the last soft
// failure, else fallback.
func FirstSuccess[T any](ctx context.Context, attempts []Attempt[T], isSoft func(error) bool, fallback error) (T, error) {
	var zero T
	if len(attempts) == 0 {
		return zero, fallback
	}

	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, len(attempts))

	var wg sync.WaitGroup
	wg.Add(len(attempts))
	for _, a := range attempts {
		a := a
		go func() {
			defer wg.Done()
			v, err := a(cctx)
			ch <- result{v: v, err: err}
		}()
	}

	var winner *T
	var softErr, terminalErr error
	for i := 0; i < len(attempts); i++ {
		r := <-ch
		if r.err == nil {
			if winner == nil {
				v := r.v
				winner = &v
				cancel()
			}
			continue
		}
		if isSoft(r.err) {
			softErr = r.err
		} else if terminalErr == nil {
			terminalErr = r.err
			cancel()
		}
	}
	wg.Wait()

	if winner != nil {
		return *winner, nil
	}
	if terminalErr != nil {
		return zero, terminalErr
	}
	if softErr != nil {
		return zero, softErr
	}
	return zero, fallback
}

// Max picks the successful result with the largest key, breaking ties
// by the earliest index — used both for nonce consensus (key = the
// nonce itself) and MostUpdated read selection (key = reported block
// number).
func Max[T any](values []T, key func(T) uint64) T {
	best := values[0]
	bestKey := key(best)
	for _, v := range values[1:] {
		if k := key(v); k > bestKey {
			best = v
			bestKey = k
		}
	}
	return best
}
