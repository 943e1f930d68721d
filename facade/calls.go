package facade

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/rpcmux/multirpc/internal/gasestimator"
	"github.com/rpcmux/multirpc/internal/rpcerr"
	"github.com/rpcmux/multirpc/internal/txpipeline"
	"github.com/rpcmux/multirpc/internal/viewcall"
)

var (
	errNotAView         = errors.New("function is not a view function")
	errNotATransaction  = errors.New("function is not a transaction function")
	errEmptyBatch       = errors.New("reconciler returned an empty batch")
	errRevertedCall     = errors.New("view call reverted")
	errNoAccount        = errors.New("no account set: call SetAccount or pass an OverrideAccount")
)

// PendingCall is one bound-but-not-yet-dispatched function invocation.
// Its ID is assigned at creation so callers and an Observer can
// correlate a dispatch across log lines without threading a value
// through every intermediate layer by hand.
type PendingCall struct {
	ID         uuid.UUID
	facade     *Facade
	descriptor *FunctionDescriptor
	args       []interface{}
}

// Fn binds name and args into a PendingCall. It does not dispatch
// anything — call Call (for a view function) or Send (for a
// transaction function) to actually run it.
func (f *Facade) Fn(name string, args ...interface{}) (*PendingCall, error) {
	descriptor, err := f.Function(name)
	if err != nil {
		return nil, err
	}
	return &PendingCall{ID: uuid.New(), facade: f, descriptor: descriptor, args: args}, nil
}

// CallOptions configures a view-function dispatch.
type CallOptions struct {
	BlockIdentifier *uint64 // nil means "latest"
}

// Call dispatches a view function through the Read Reconciler and
// decodes its return values.
func (pc *PendingCall) Call(ctx context.Context, opts CallOptions) ([]interface{}, error) {
	if pc.descriptor.Kind != FunctionView {
		return nil, &rpcerr.ViewCallFailed{FuncName: pc.descriptor.Name, Cause: errNotAView}
	}
	if pc.facade.viewReconciler == nil {
		return nil, &rpcerr.DontHaveThisRpcType{Role: "view"}
	}

	pc.facade.obs.OnDispatch("facade", pc.descriptor.Name)

	data, err := pc.facade.contractABI.Pack(pc.descriptor.Name, pc.args...)
	if err != nil {
		return nil, &rpcerr.ViewCallFailed{FuncName: pc.descriptor.Name, Cause: err}
	}

	calls := []viewcall.Call{{Target: pc.facade.contractAddress, CallData: data}}

	var blockNumber *big.Int
	if opts.BlockIdentifier != nil {
		blockNumber = new(big.Int).SetUint64(*opts.BlockIdentifier)
	}

	start := time.Now()
	batch, err := pc.facade.viewReconciler.Execute(ctx, calls, blockNumber)
	pc.facade.obs.OnReconcile("viewcall", string(pc.facade.viewPolicy), time.Since(start).Seconds(), err == nil)
	if err != nil {
		return nil, &rpcerr.ViewCallFailed{FuncName: pc.descriptor.Name, Cause: err}
	}
	if len(batch.Results) == 0 {
		return nil, &rpcerr.ViewCallFailed{FuncName: pc.descriptor.Name, Cause: errEmptyBatch}
	}
	result := batch.Results[0]
	if !result.Success {
		return nil, &rpcerr.ViewCallFailed{FuncName: pc.descriptor.Name, Cause: errRevertedCall}
	}
	return pc.facade.contractABI.Unpack(pc.descriptor.Name, result.ReturnData)
}

// SendOptions configures a transaction-function dispatch.
type SendOptions struct {
	Value           *big.Int
	GasLimit        uint64
	Priority        gasestimator.Priority
	GasMethod       gasestimator.Method
	WaitForReceipt  bool
	ReceiptTimeout  time.Duration
	OverrideAccount Account
	// EnableGasEstimate overrides the façade-level enableGasEstimation
	// config option for this call only; nil means "use the configured
	// default" (spec.md §6's per-call override).
	EnableGasEstimate *bool
}

// DryRun builds a transaction draft without signing or broadcasting
// it, returning a human-readable description of what Send would do —
// the façade's equivalent of the teacher's dry-run flag.
func (pc *PendingCall) DryRun(ctx context.Context, opts SendOptions) (string, error) {
	if pc.descriptor.Kind != FunctionTransaction {
		return "", &rpcerr.ViewCallFailed{FuncName: pc.descriptor.Name, Cause: errNotATransaction}
	}
	if pc.facade.txPipeline == nil {
		return "", &rpcerr.DontHaveThisRpcType{Role: "transaction"}
	}

	account := opts.OverrideAccount
	if account == nil {
		account = pc.facade.account
	}
	if account == nil {
		return "", errNoAccount
	}

	data, err := pc.facade.contractABI.Pack(pc.descriptor.Name, pc.args...)
	if err != nil {
		return "", &rpcerr.ViewCallFailed{FuncName: pc.descriptor.Name, Cause: err}
	}
	call := txpipeline.Call{To: pc.facade.contractAddress, Data: data, Value: opts.Value}

	draft, err := pc.facade.txPipeline.BuildDraft(ctx, account.Address(), call, opts.Priority, opts.GasMethod, opts.GasLimit, opts.EnableGasEstimate)
	if err != nil {
		return "", err
	}
	return txpipeline.DescribeDraft(pc.descriptor.Name, account.Address().Hex(), draft), nil
}

// Send dispatches a transaction function through the Transaction
// Pipeline: acquire nonce, price gas, build, sign once, broadcast-race,
// and (if requested) confirm-race. It returns the broadcast tx hash
// immediately when WaitForReceipt is false, else the final receipt.
func (pc *PendingCall) Send(ctx context.Context, opts SendOptions) (common.Hash, *types.Receipt, error) {
	if pc.descriptor.Kind != FunctionTransaction {
		return common.Hash{}, nil, &rpcerr.ViewCallFailed{FuncName: pc.descriptor.Name, Cause: errNotATransaction}
	}
	if pc.facade.txPipeline == nil {
		return common.Hash{}, nil, &rpcerr.DontHaveThisRpcType{Role: "transaction"}
	}

	account := opts.OverrideAccount
	if account == nil {
		account = pc.facade.account
	}
	if account == nil {
		return common.Hash{}, nil, errNoAccount
	}

	pc.facade.obs.OnDispatch("facade", pc.descriptor.Name)

	data, err := pc.facade.contractABI.Pack(pc.descriptor.Name, pc.args...)
	if err != nil {
		return common.Hash{}, nil, &rpcerr.ViewCallFailed{FuncName: pc.descriptor.Name, Cause: err}
	}

	call := txpipeline.Call{To: pc.facade.contractAddress, Data: data, Value: opts.Value}

	draft, err := pc.facade.txPipeline.BuildDraft(ctx, account.Address(), call, opts.Priority, opts.GasMethod, opts.GasLimit, opts.EnableGasEstimate)
	pc.facade.obs.OnTransactionStage("build_draft", err == nil)
	if err != nil {
		return common.Hash{}, nil, err
	}

	signedTx, err := pc.facade.txPipeline.Sign(draft, account)
	pc.facade.obs.OnTransactionStage("sign", err == nil)
	if err != nil {
		return common.Hash{}, nil, err
	}

	receiptCtx := ctx
	timeout := opts.ReceiptTimeout
	if timeout == 0 {
		timeout = pc.facade.waitForReceiptTimeout
	}
	if opts.WaitForReceipt && timeout > 0 {
		var cancel context.CancelFunc
		receiptCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	txHash, receipt, err := pc.facade.txPipeline.BroadcastAndConfirm(receiptCtx, signedTx, opts.WaitForReceipt, pc.descriptor.Name, pc.args)
	pc.facade.obs.OnReconcile("txpipeline", "broadcast", time.Since(start).Seconds(), err == nil)
	pc.facade.obs.OnTransactionStage("broadcast", err == nil)
	if !opts.WaitForReceipt {
		if err != nil {
			return common.Hash{}, nil, err
		}
		return txHash, nil, nil
	}
	pc.facade.obs.OnReconcile("txpipeline", "confirm", time.Since(start).Seconds(), err == nil)
	pc.facade.obs.OnTransactionStage("confirm", err == nil)
	return txHash, receipt, err
}
