package txpipeline

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rpcmux/multirpc/internal/bracket"
	"github.com/rpcmux/multirpc/internal/reconcile"
	"github.com/rpcmux/multirpc/internal/rpcerr"
)

// Sign signs d exactly once (the python source builds and signs a
// single SignedTransaction, then races the *same* raw payload across
// every endpoint — it never re-signs per endpoint).
func (p *Pipeline) Sign(d *Draft, s Signer) (*types.Transaction, error) {
	fn := s.SignerFn(new(big.Int).SetUint64(d.ChainID))
	return fn(s.Address(), d.unsignedTransaction())
}

// BroadcastAndConfirm couples broadcast and confirmation into a single
// per-sub-bracket stage (spec.md §4.E step 6): a sub-bracket's signed
// tx is broadcast, then its receipt is awaited on the *same*
// sub-bracket. A TransactionValueError from the broadcast or a
// TransactionFailedStatus from confirmation ends the call; any other
// failure of either step moves escalation to the next sub-bracket,
// where the preserved signed tx is re-broadcast from scratch. This mirrors the python
// source's _call_tx_function, which loops broadcast-then-confirm
// together per sub-bracket rather than treating them as independently
// escalating stages — a later sub-bracket's nodes will never have seen
// an earlier sub-bracket's broadcast, so confirming against them
// without re-broadcasting could only ever return TransactionNotFound.
func (p *Pipeline) BroadcastAndConfirm(ctx context.Context, tx *types.Transaction, waitForReceipt bool, funcName string, callArgs []any) (common.Hash, *types.Receipt, error) {
	var lastErr error
	for _, sb := range p.txBracket.SubBrackets {
		txHash, err := p.broadcastSubBracket(ctx, sb, tx)
		if err != nil {
			var valueErr *rpcerr.TransactionValueError
			if errors.As(err, &valueErr) {
				return common.Hash{}, nil, err
			}
			p.logger.Warn().Str("sub_bracket", sb.Key).Err(err).Msg("broadcast failed, escalating")
			lastErr = err
			continue
		}

		if !waitForReceipt {
			return txHash, nil, nil
		}

		receipt, err := p.waitSubBracket(ctx, sb, txHash, funcName, callArgs)
		if err == nil {
			return txHash, receipt, nil
		}
		var failed *rpcerr.TransactionFailedStatus
		if errors.As(err, &failed) {
			return common.Hash{}, nil, err
		}
		p.logger.Warn().Str("sub_bracket", sb.Key).Err(err).Msg("confirmation failed, escalating and re-broadcasting")
		lastErr = err
	}
	return common.Hash{}, nil, &rpcerr.AllEndpointsFailed{Operation: "broadcast_and_confirm", Cause: lastErr}
}

// broadcastSubBracket races the same signed transaction across every
// endpoint within one sub-bracket. A benign rejection (the same
// payload already seen by another endpoint, an underpriced
// resubmission, etc.) is treated as soft and does not stop the race;
// any other ValueError-equivalent is terminal and returned immediately
// as *rpcerr.TransactionValueError. Escalation across sub-brackets —
// and the re-broadcast that must accompany it — is handled one level
// up, by BroadcastAndConfirm, since §4.E step 6 couples broadcast and
// confirmation into a single per-sub-bracket stage.
func (p *Pipeline) broadcastSubBracket(ctx context.Context, sb bracket.SubBracket, tx *types.Transaction) (common.Hash, error) {
	attempts := make([]reconcile.Attempt[common.Hash], len(sb.Endpoints))
	for i, ep := range sb.Endpoints {
		ep := ep
		attempts[i] = func(ctx context.Context) (common.Hash, error) {
			err := ep.Client.SendTransaction(ctx, tx)
			if err != nil {
				return common.Hash{}, p.classifyBroadcastError(err)
			}
			return tx.Hash(), nil
		}
	}

	isSoft := func(err error) bool {
		if rpcerr.IsConnection(err) || rpcerr.IsTimeout(err) {
			return true
		}
		return rpcerr.IsBenignBroadcastError(err, p.cfg.ChainID)
	}
	return reconcile.FirstSuccess(ctx, attempts, isSoft, &rpcerr.FailedOnAllRPCs{})
}

// classifyBroadcastError turns a raw send_raw_transaction rejection
// into either a TransportError (soft, transient) or a
// TransactionValueError (the node rejected the payload itself) —
// matching the python source's send_raw_transaction except clauses.
func (p *Pipeline) classifyBroadcastError(err error) error {
	if classified := rpcerr.ClassifyTransport(err); classified != err {
		return classified
	}
	if rpcerr.IsBenignBroadcastError(err, p.cfg.ChainID) {
		return rpcerr.NewValueError(err)
	}
	return &rpcerr.TransactionValueError{Cause: err}
}
