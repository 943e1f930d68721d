// Package rpcerr defines the typed error identities surfaced by the
// façade: every error a caller can usefully branch on has its own type
// here rather than being an opaque wrapped string.
package rpcerr

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// FailedOnAllRPCs is raised by the all-then-pick reconciler when every
// attempt in a fan-out failed. Cause is the first observed failure;
// All carries every failure for diagnostics.
type FailedOnAllRPCs struct {
	Cause error
	All   *multierror.Error
}

func (e *FailedOnAllRPCs) Error() string {
	if e.Cause == nil {
		return "FailedOnAllRPCs: all endpoints failed"
	}
	return fmt.Sprintf("FailedOnAllRPCs: all endpoints failed, first error: %v", e.Cause)
}

func (e *FailedOnAllRPCs) Unwrap() error { return e.Cause }

// OutOfRangeTransactionFee is raised when a gas estimation method's
// quoted fee exceeds the caller's ceiling.
type OutOfRangeTransactionFee struct {
	Ceiling float64
	Quoted  float64
}

func (e *OutOfRangeTransactionFee) Error() string {
	return fmt.Sprintf("OutOfRangeTransactionFee: ceiling=%v quoted=%v", e.Ceiling, e.Quoted)
}

// ViewCallFailed wraps a view-function reconciliation failure that is
// not otherwise classified.
type ViewCallFailed struct {
	FuncName string
	Cause    error
}

func (e *ViewCallFailed) Error() string {
	return fmt.Sprintf("ViewCallFailed(%s): %v", e.FuncName, e.Cause)
}

func (e *ViewCallFailed) Unwrap() error { return e.Cause }

// TxTrace is the minimal trace-text post-mortem surface: out of core
// scope (spec treats trace post-mortem as an external collaborator),
// but TransactionFailedStatus still needs somewhere to hang a trace.
type TxTrace struct {
	TxHash string
	Text   string
}

// TransactionFailedStatus is raised when a receipt is obtained but its
// status is not 1 (success).
type TransactionFailedStatus struct {
	TxHash   string
	FuncName string
	Args     []any
	Kwargs   map[string]any
	Trace    *TxTrace
}

func (e *TransactionFailedStatus) Error() string {
	return fmt.Sprintf("TransactionFailedStatus(%s func=%s)", e.TxHash, e.FuncName)
}

// TransactionValueError wraps a non-benign ValueError-equivalent
// returned by an endpoint during broadcast (e.g. a rejected nonce or
// signature that isn't one of the known-benign substrings).
type TransactionValueError struct {
	Cause error
}

func (e *TransactionValueError) Error() string {
	return fmt.Sprintf("TransactionValueError: %v", e.Cause)
}

func (e *TransactionValueError) Unwrap() error { return e.Cause }

// FailedToGetGasPrice is raised when a gas estimation method could not
// produce a quote at all (transport/parse failure, no RPC succeeded).
type FailedToGetGasPrice struct {
	Cause error
}

func (e *FailedToGetGasPrice) Error() string {
	if e.Cause == nil {
		return "FailedToGetGasPrice"
	}
	return fmt.Sprintf("FailedToGetGasPrice: %v", e.Cause)
}

func (e *FailedToGetGasPrice) Unwrap() error { return e.Cause }

// GasEstimationFailed is raised when the observational eth_estimateGas
// call enabled by enableGasEstimation itself errors (the python
// source's _build_and_sign_transaction lets this propagate rather than
// swallowing it).
type GasEstimationFailed struct {
	Cause error
}

func (e *GasEstimationFailed) Error() string {
	if e.Cause == nil {
		return "GasEstimationFailed"
	}
	return fmt.Sprintf("GasEstimationFailed: %v", e.Cause)
}

func (e *GasEstimationFailed) Unwrap() error { return e.Cause }

// MaximumRPCInEachBracketReached is raised at setup when a bracket's
// URL list exceeds MaxRPCInEachBracket.
type MaximumRPCInEachBracketReached struct {
	Bracket string
	Count   int
	Max     int
}

func (e *MaximumRPCInEachBracketReached) Error() string {
	return fmt.Sprintf("MaximumRPCInEachBracketReached: bracket=%s count=%d max=%d", e.Bracket, e.Count, e.Max)
}

// AtLastProvideOneValidRPCInEachBracket is raised at setup when a
// non-empty bracket ends up with zero live endpoints after probing.
// (Name kept with the original phrasing's quirk intentionally — it is
// a stable, documented identity callers match on.)
type AtLastProvideOneValidRPCInEachBracket struct {
	Bracket string
}

func (e *AtLastProvideOneValidRPCInEachBracket) Error() string {
	return fmt.Sprintf("AtLastProvideOneValidRPCInEachBracket: bracket=%s has no live endpoints", e.Bracket)
}

// GetBlockFailed is raised when all view endpoints fail a raw block
// lookup.
type GetBlockFailed struct {
	Cause error
}

func (e *GetBlockFailed) Error() string {
	return fmt.Sprintf("GetBlockFailed: %v", e.Cause)
}

func (e *GetBlockFailed) Unwrap() error { return e.Cause }

// DontHaveThisRpcType is raised when an operation requires a bracket
// role (view or transaction) that was never registered.
type DontHaveThisRpcType struct {
	Role string
}

func (e *DontHaveThisRpcType) Error() string {
	return fmt.Sprintf("DontHaveThisRpcType: no %s RPCs registered", e.Role)
}

// NotValidViewPolicy is raised when a view policy value outside the
// supported set is configured.
type NotValidViewPolicy struct {
	Policy string
}

func (e *NotValidViewPolicy) Error() string {
	return fmt.Sprintf("NotValidViewPolicy: %q", e.Policy)
}

// AllEndpointsFailed is the terminal error raised when every
// sub-bracket in a bracket has been exhausted without success. It is
// the Go-native identity for what spec.md calls a generic
// "Web3InterfaceException('All of RPCs raise exception.')".
type AllEndpointsFailed struct {
	Operation string
	Cause     error
}

func (e *AllEndpointsFailed) Error() string {
	return fmt.Sprintf("AllEndpointsFailed(%s): all of RPCs raise exception: %v", e.Operation, e.Cause)
}

func (e *AllEndpointsFailed) Unwrap() error { return e.Cause }
