// Package txpipeline implements the Transaction Pipeline (Component
// E): nonce acquisition, fee-parameter assembly, sign-once broadcast
// racing, and confirmation racing across a transaction Bracket, with
// sub-bracket escalation on exhaustion exactly mirroring the Read
// Reconciler's escalation shape.
package txpipeline

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/rpcmux/multirpc/internal/bracket"
	"github.com/rpcmux/multirpc/internal/gasestimator"
	"github.com/rpcmux/multirpc/internal/reconcile"
	"github.com/rpcmux/multirpc/internal/rpcerr"
)

// Signer is the minimal surface txpipeline needs from signer.Signer —
// declared locally so this package does not import signer directly
// (the façade wires the two together). SignerFn's return type must be
// bind.SignerFn, not a structurally-equal anonymous func type: Go
// treats a defined type and an anonymous type with the same underlying
// signature as different types, so signer.Signer's implementations
// would not satisfy this interface otherwise.
type Signer interface {
	Address() common.Address
	SignerFn(chainID *big.Int) bind.SignerFn
	SignData(data []byte) ([]byte, error)
}

// Call is one transaction-function invocation destined for the
// pipeline: a target contract address, ABI-encoded calldata, and an
// optional value transfer.
type Call struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// Config configures a Pipeline.
type Config struct {
	ChainID           uint64
	DefaultGasLimit   uint64 // mirrors the python source's gas_limit=1_000_000 default
	GasCeilingGWei    float64
	WaitForReceipt    bool
	EnableGasEstimate bool
	// TraceHandler, when set, is given the failure trace before
	// TransactionFailedStatus is raised — the Go-native hook for the
	// python source's overridable _handle_tx_trace.
	TraceHandler func(trace *rpcerr.TxTrace, funcName string, args []any) error
}

const defaultGasLimit = 1_000_000

// Pipeline is the façade's Component E, bound to the transaction
// Bracket (for broadcast/confirmation) and an optional view Bracket
// (preferred for nonce lookups — the python source prefers "view"
// providers for _get_nonce when present, falling back to
// "transaction").
type Pipeline struct {
	txBracket   *bracket.Bracket
	nonceSource *bracket.Bracket
	gas         *gasestimator.Estimator
	cfg         Config
	logger      zerolog.Logger
}

// New builds a Pipeline. viewBracket may be nil, in which case nonce
// lookups use txBracket.
func New(txBracket, viewBracket *bracket.Bracket, gas *gasestimator.Estimator, cfg Config, logger zerolog.Logger) (*Pipeline, error) {
	if txBracket == nil {
		return nil, &rpcerr.DontHaveThisRpcType{Role: string(bracket.RoleTransaction)}
	}
	nonceSource := viewBracket
	if nonceSource == nil {
		nonceSource = txBracket
	}
	if cfg.DefaultGasLimit == 0 {
		cfg.DefaultGasLimit = defaultGasLimit
	}
	return &Pipeline{txBracket: txBracket, nonceSource: nonceSource, gas: gas, cfg: cfg, logger: logger}, nil
}

// GetNonce returns the pending transaction count for address, taking
// the maximum reported value across a sub-bracket's endpoints (to
// avoid sending with a nonce a lagging endpoint hasn't caught up to
// yet) and escalating to the next sub-bracket if one is exhausted.
func (p *Pipeline) GetNonce(ctx context.Context, address common.Address) (uint64, error) {
	return GetNonce(ctx, p.nonceSource, address)
}

// GetNonce is the raw "pending nonce" query, parametrized by an
// arbitrary bracket — a free function (not a Pipeline method) so a
// view-only façade configuration, with no Transaction Pipeline at all,
// can still look up a nonce against its view bracket (the python
// source's _get_nonce prefers "view" providers when present, which
// means a nonce lookup never required a transaction bracket to begin
// with).
func GetNonce(ctx context.Context, source *bracket.Bracket, address common.Address) (uint64, error) {
	if source == nil {
		return 0, &rpcerr.DontHaveThisRpcType{Role: string(bracket.RoleView)}
	}
	var lastErr error
	for _, sb := range source.SubBrackets {
		attempts := make([]reconcile.Attempt[uint64], len(sb.Endpoints))
		for i, ep := range sb.Endpoints {
			ep := ep
			attempts[i] = func(ctx context.Context) (uint64, error) {
				n, err := ep.Client.PendingNonceAt(ctx, address)
				if err != nil {
					return 0, rpcerr.ClassifyTransport(err)
				}
				return n, nil
			}
		}
		nonce, err := reconcile.AllThenPick(ctx, attempts, func(ns []uint64) uint64 {
			return reconcile.Max(ns, func(n uint64) uint64 { return n })
		})
		if err == nil {
			return nonce, nil
		}
		lastErr = err
	}
	return 0, &rpcerr.AllEndpointsFailed{Operation: "get_nonce", Cause: lastErr}
}

// Draft is an assembled, unsigned transaction plus the metadata needed
// to describe or sign it.
type Draft struct {
	Nonce     uint64
	GasParams gasestimator.GasParams
	GasLimit  uint64
	Call      Call
	ChainID   uint64
}

// BuildDraft acquires a nonce and gas parameters and assembles a
// Draft, without signing or sending anything. enableGasEstimate, when
// non-nil, overrides the pipeline's configured enableGasEstimation for
// this call only (spec.md §6's per-call override); nil defers to
// Config.EnableGasEstimate.
func (p *Pipeline) BuildDraft(ctx context.Context, address common.Address, call Call, priority gasestimator.Priority, method gasestimator.Method, gasLimit uint64, enableGasEstimate *bool) (*Draft, error) {
	nonce, err := p.GetNonce(ctx, address)
	if err != nil {
		return nil, err
	}
	gasParams, err := p.gas.GetGasPrice(ctx, p.cfg.GasCeilingGWei, priority, method)
	if err != nil {
		return nil, err
	}
	if gasLimit == 0 {
		gasLimit = p.cfg.DefaultGasLimit
	}
	wantGasEstimate := p.cfg.EnableGasEstimate
	if enableGasEstimate != nil {
		wantGasEstimate = *enableGasEstimate
	}
	if wantGasEstimate {
		needed, err := p.estimateGas(ctx, address, call)
		if err != nil {
			return nil, &rpcerr.GasEstimationFailed{Cause: err}
		}
		p.logger.Info().Uint64("gas_needed", needed).Msg("gas_estimation is successful")
	}
	return &Draft{Nonce: nonce, GasParams: gasParams, GasLimit: gasLimit, Call: call, ChainID: p.cfg.ChainID}, nil
}

// estimateGas is the observational gas estimate the python source runs
// under enable_gas_estimation — a single eth_estimateGas call against
// one endpoint, logged but never substituted for GasLimit. It mirrors
// _build_and_sign_transaction, which estimates then still signs with
// the caller-supplied gas limit.
func (p *Pipeline) estimateGas(ctx context.Context, address common.Address, call Call) (uint64, error) {
	ep := p.txBracket.SubBrackets[0].Endpoints[0]
	return ep.Client.EstimateGas(ctx, ethereum.CallMsg{
		From:  address,
		To:    &call.To,
		Data:  call.Data,
		Value: call.Value,
	})
}

// unsignedTransaction builds the *types.Transaction for d, choosing a
// dynamic-fee (EIP-1559) or legacy envelope by which gas params were
// populated.
func (d *Draft) unsignedTransaction() *types.Transaction {
	if d.GasParams.IsDynamic() {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   new(big.Int).SetUint64(d.ChainID),
			Nonce:     d.Nonce,
			GasTipCap: d.GasParams.MaxPriorityFeePerGas,
			GasFeeCap: d.GasParams.MaxFeePerGas,
			Gas:       d.GasLimit,
			To:        &d.Call.To,
			Value:     valueOrZero(d.Call.Value),
			Data:      d.Call.Data,
		})
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    d.Nonce,
		GasPrice: d.GasParams.GasPrice,
		Gas:      d.GasLimit,
		To:       &d.Call.To,
		Value:    valueOrZero(d.Call.Value),
		Data:     d.Call.Data,
	})
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
