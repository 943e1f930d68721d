// Package viewcall implements the Read Reconciler (Component D): batch
// "view" (non-state-changing) calls against every endpoint in a
// sub-bracket through a Multicall3 aggregator, then reconcile across
// endpoints — and, on sub-bracket exhaustion, across sub-brackets —
// using one of two policies: MostUpdated (take the batch reporting the
// highest block number) or FirstSuccess (take whichever batch returns
// first).
package viewcall

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/rpcmux/multirpc/internal/bracket"
	"github.com/rpcmux/multirpc/internal/reconcile"
	"github.com/rpcmux/multirpc/internal/rpcerr"
)

// Policy is the reconciliation strategy applied across the endpoints
// of a sub-bracket (and, in turn, across sub-brackets).
type Policy string

const (
	// PolicyMostUpdated waits for every endpoint's batch and keeps the
	// one reporting the highest block number — the default, favoring
	// freshness over latency.
	PolicyMostUpdated Policy = "most_updated"
	// PolicyFirstSuccess races every endpoint's batch and keeps
	// whichever answers first — favoring latency over freshness.
	PolicyFirstSuccess Policy = "first_success"
)

// ParsePolicy validates a configured policy string.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyMostUpdated, PolicyFirstSuccess:
		return Policy(s), nil
	default:
		return "", &rpcerr.NotValidViewPolicy{Policy: s}
	}
}

// Call is one view function invocation destined for the multicall
// aggregator.
type Call struct {
	Target   common.Address
	CallData []byte
}

// NewCall ABI-encodes a function call against the given ABI.
func NewCall(contractABI *abi.ABI, target common.Address, method string, args ...interface{}) (Call, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return Call{}, err
	}
	return Call{Target: target, CallData: data}, nil
}

// Result is one decoded per-call outcome from the batch.
type Result struct {
	Success    bool
	ReturnData []byte
}

// Decode unpacks Result's raw return data against the given ABI
// method, returning nothing useful (zero values, nil error) if the
// call itself was not successful — callers should check Success
// first.
func (r Result) Decode(contractABI *abi.ABI, method string) ([]interface{}, error) {
	if !r.Success {
		return nil, nil
	}
	return contractABI.Unpack(method, r.ReturnData)
}

// Batch is one sub-bracket's reconciled multicall outcome.
type Batch struct {
	BlockNumber uint64
	Results     []Result
}

// Reconciler is the Read Reconciler bound to one view Bracket.
type Reconciler struct {
	bracket         *bracket.Bracket
	policy          Policy
	multicallAddr   common.Address
	bindingByClient map[*bracket.Endpoint]*multicallBinding
	logger          zerolog.Logger
}

// New builds a Reconciler over br (which must be the view-role
// Bracket), with multicallAddr defaulting to DefaultMulticallAddress
// when the zero address is passed.
func New(br *bracket.Bracket, multicallAddr common.Address, policy Policy, logger zerolog.Logger) (*Reconciler, error) {
	if br == nil {
		return nil, &rpcerr.DontHaveThisRpcType{Role: string(bracket.RoleView)}
	}
	if multicallAddr == (common.Address{}) {
		multicallAddr = DefaultMulticallAddress
	}

	bindings := make(map[*bracket.Endpoint]*multicallBinding)
	for _, sb := range br.SubBrackets {
		for _, ep := range sb.Endpoints {
			binding, err := newMulticallBinding(ep.Client, multicallAddr)
			if err != nil {
				return nil, err
			}
			bindings[ep] = binding
		}
	}

	return &Reconciler{
		bracket:         br,
		policy:          policy,
		multicallAddr:   multicallAddr,
		bindingByClient: bindings,
		logger:          logger,
	}, nil
}

// Execute fans calls out across the view bracket, applying the
// configured reconciliation policy within each sub-bracket and
// escalating to the next sub-bracket (in registration order) if one is
// exhausted without a winner. blockNumber is the block identifier to
// query at (spec.md §6's per-call blockIdentifier override); nil means
// "latest". It returns *rpcerr.AllEndpointsFailed if every sub-bracket
// fails.
func (r *Reconciler) Execute(ctx context.Context, calls []Call, blockNumber *big.Int) (Batch, error) {
	batchCalls := make([]multicallCall, len(calls))
	for i, c := range calls {
		batchCalls[i] = multicallCall{Target: c.Target, CallData: c.CallData}
	}

	var lastErr error
	for _, sb := range r.bracket.SubBrackets {
		batch, err := r.executeSubBracket(ctx, sb, batchCalls, blockNumber)
		if err == nil {
			return batch, nil
		}
		r.logger.Warn().Str("sub_bracket", sb.Key).Err(err).Msg("view sub-bracket exhausted, escalating")
		lastErr = err
	}
	return Batch{}, &rpcerr.AllEndpointsFailed{Operation: "view_call", Cause: lastErr}
}

func (r *Reconciler) executeSubBracket(ctx context.Context, sb bracket.SubBracket, calls []multicallCall, blockNumber *big.Int) (Batch, error) {
	attempts := make([]reconcile.Attempt[Batch], len(sb.Endpoints))
	for i, ep := range sb.Endpoints {
		ep := ep
		attempts[i] = func(ctx context.Context) (Batch, error) {
			binding := r.bindingByClient[ep]
			blockNum, results, err := binding.tryBlockAndAggregate(ctx, blockNumber, calls)
			if err != nil {
				return Batch{}, rpcerr.ClassifyTransport(err)
			}
			out := make([]Result, len(results))
			for j, res := range results {
				out[j] = Result{Success: res.Success, ReturnData: res.ReturnData}
			}
			return Batch{BlockNumber: blockNum, Results: out}, nil
		}
	}

	switch r.policy {
	case PolicyFirstSuccess:
		isSoft := func(err error) bool { return rpcerr.IsConnection(err) || rpcerr.IsTimeout(err) }
		return reconcile.FirstSuccess(ctx, attempts, isSoft, &rpcerr.FailedOnAllRPCs{})
	default:
		return reconcile.AllThenPick(ctx, attempts, func(batches []Batch) Batch {
			return reconcile.Max(batches, func(b Batch) uint64 { return b.BlockNumber })
		})
	}
}
