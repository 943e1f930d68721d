package txpipeline

import (
	"context"
	"errors"
	"math/big"
	"time"

	retry "github.com/avast/retry-go/v4"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rpcmux/multirpc/internal/bracket"
	"github.com/rpcmux/multirpc/internal/reconcile"
	"github.com/rpcmux/multirpc/internal/rpcerr"
)

// confirmationPollInterval mirrors the python source's 5-second
// "waiting for tx confirmation" poll loop (base-withdrawer's
// waitForConfirmation), used as the retry-go fixed delay.
const confirmationPollInterval = 5 * time.Second

// maxConnectionRetries bounds how many times pollReceipt asks again
// for a receipt the node does not have yet (maxConnectionRetries+1
// requests in all). Despite the name, connection errors are not
// retried: any error other than ethereum.NotFound ends the poll.
const maxConnectionRetries = 5

// waitSubBracket races every endpoint within one sub-bracket for a
// transaction's receipt, and raises *rpcerr.TransactionFailedStatus if
// a receipt is found with a non-success status. Escalation across
// sub-brackets is handled by BroadcastAndConfirm (broadcast.go), which
// re-broadcasts the signed tx on the new sub-bracket before awaiting
// its receipt here — a bare confirmation-only escalation would only
// ever see TransactionNotFound on nodes that never received the tx.
func (p *Pipeline) waitSubBracket(ctx context.Context, sb bracket.SubBracket, txHash common.Hash, funcName string, callArgs []any) (*types.Receipt, error) {
	attempts := make([]reconcile.Attempt[*types.Receipt], len(sb.Endpoints))
	for i, ep := range sb.Endpoints {
		ep := ep
		attempts[i] = func(ctx context.Context) (*types.Receipt, error) {
			return p.pollReceipt(ctx, ep, txHash, funcName, callArgs)
		}
	}
	isSoft := func(err error) bool { return rpcerr.IsConnection(err) || rpcerr.IsTimeout(err) }
	return reconcile.FirstSuccess(ctx, attempts, isSoft, &rpcerr.FailedOnAllRPCs{})
}

// pollReceipt asks ep for txHash's receipt, asking again every
// confirmationPollInterval while the node reports it as not found, up
// to maxConnectionRetries+1 requests; when those run out the NotFound
// error is returned. Any other error, a connection error included,
// ends the poll at once. There is no separate timeout retry with a
// doubled window. A found receipt then has its status checked.
func (p *Pipeline) pollReceipt(ctx context.Context, ep *bracket.Endpoint, txHash common.Hash, funcName string, callArgs []any) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := retry.Do(
		func() error {
			r, err := ep.Client.TransactionReceipt(ctx, txHash)
			if errors.Is(err, ethereum.NotFound) {
				return err
			}
			if err != nil {
				return retry.Unrecoverable(err)
			}
			receipt = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxConnectionRetries+1),
		retry.Delay(confirmationPollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, rpcerr.ClassifyTransport(err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		trace := &rpcerr.TxTrace{TxHash: txHash.Hex()}
		if p.cfg.TraceHandler != nil {
			if hookErr := p.cfg.TraceHandler(trace, funcName, callArgs); hookErr != nil {
				return nil, hookErr
			}
		}
		return nil, &rpcerr.TransactionFailedStatus{TxHash: txHash.Hex(), FuncName: funcName, Args: callArgs, Trace: trace}
	}
	return receipt, nil
}

// GetTxReceipt is one of the three raw view-bracket queries: race
// every endpoint for tx_hash's receipt, regardless of status. It is a
// free function, not a Pipeline method, since these raw queries only
// ever touch the view bracket and so work without a Transaction
// Pipeline (and therefore without a transaction bracket) configured.
func GetTxReceipt(ctx context.Context, viewBracket *bracket.Bracket, txHash common.Hash) (*types.Receipt, error) {
	if viewBracket == nil {
		return nil, &rpcerr.DontHaveThisRpcType{Role: string(bracket.RoleView)}
	}
	var lastErr error
	for _, sb := range viewBracket.SubBrackets {
		attempts := make([]reconcile.Attempt[*types.Receipt], len(sb.Endpoints))
		for i, ep := range sb.Endpoints {
			ep := ep
			attempts[i] = func(ctx context.Context) (*types.Receipt, error) {
				r, err := ep.Client.TransactionReceipt(ctx, txHash)
				if err != nil {
					return nil, rpcerr.ClassifyTransport(err)
				}
				return r, nil
			}
		}
		isSoft := func(err error) bool { return rpcerr.IsConnection(err) || rpcerr.IsTimeout(err) }
		receipt, err := reconcile.FirstSuccess(ctx, attempts, isSoft, &rpcerr.FailedOnAllRPCs{})
		if err == nil {
			return receipt, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// GetBlock is the raw "fetch a block header/body" query.
func GetBlock(ctx context.Context, viewBracket *bracket.Bracket, blockNumber *big.Int) (*types.Block, error) {
	if viewBracket == nil {
		return nil, &rpcerr.DontHaveThisRpcType{Role: string(bracket.RoleView)}
	}
	var lastErr error
	for _, sb := range viewBracket.SubBrackets {
		attempts := make([]reconcile.Attempt[*types.Block], len(sb.Endpoints))
		for i, ep := range sb.Endpoints {
			ep := ep
			attempts[i] = func(ctx context.Context) (*types.Block, error) {
				b, err := ep.Client.BlockByNumber(ctx, blockNumber)
				if err != nil {
					return nil, rpcerr.ClassifyTransport(err)
				}
				return b, nil
			}
		}
		isSoft := func(err error) bool { return rpcerr.IsConnection(err) || rpcerr.IsTimeout(err) }
		block, err := reconcile.FirstSuccess(ctx, attempts, isSoft, &rpcerr.GetBlockFailed{})
		if err == nil {
			return block, nil
		}
		lastErr = err
	}
	return nil, &rpcerr.GetBlockFailed{Cause: lastErr}
}

// GetBlockNumber is the raw "current chain head" query.
func GetBlockNumber(ctx context.Context, viewBracket *bracket.Bracket) (uint64, error) {
	if viewBracket == nil {
		return 0, &rpcerr.DontHaveThisRpcType{Role: string(bracket.RoleView)}
	}
	var lastErr error
	for _, sb := range viewBracket.SubBrackets {
		attempts := make([]reconcile.Attempt[uint64], len(sb.Endpoints))
		for i, ep := range sb.Endpoints {
			ep := ep
			attempts[i] = func(ctx context.Context) (uint64, error) {
				n, err := ep.Client.BlockNumber(ctx)
				if err != nil {
					return 0, rpcerr.ClassifyTransport(err)
				}
				return n, nil
			}
		}
		isSoft := func(err error) bool { return rpcerr.IsConnection(err) || rpcerr.IsTimeout(err) }
		n, err := reconcile.FirstSuccess(ctx, attempts, isSoft, &rpcerr.GetBlockFailed{})
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	return 0, &rpcerr.GetBlockFailed{Cause: lastErr}
}
