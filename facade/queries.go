package facade

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rpcmux/multirpc/internal/bracket"
	"github.com/rpcmux/multirpc/internal/rpcerr"
	"github.com/rpcmux/multirpc/internal/txpipeline"
)

// GetNonce returns address's pending transaction count, via whichever
// bracket the Transaction Pipeline prefers for nonce lookups. With no
// Transaction Pipeline configured at all, it falls back to the view
// bracket directly — a nonce lookup only ever needs a node that can
// answer eth_getTransactionCount, not one that can broadcast.
func (f *Facade) GetNonce(ctx context.Context, address common.Address) (uint64, error) {
	f.obs.OnDispatch("facade", "GetNonce")
	if f.txPipeline != nil {
		return f.txPipeline.GetNonce(ctx, address)
	}
	viewBracket := f.registry.Bracket(bracket.RoleView)
	if viewBracket == nil {
		return 0, &rpcerr.DontHaveThisRpcType{Role: string(bracket.RoleTransaction)}
	}
	return txpipeline.GetNonce(ctx, viewBracket, address)
}

// GetTxReceipt is one of the three raw queries: fetch a transaction's
// receipt via the view bracket regardless of its success status.
func (f *Facade) GetTxReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.obs.OnDispatch("facade", "GetTxReceipt")
	return txpipeline.GetTxReceipt(ctx, f.registry.Bracket(bracket.RoleView), txHash)
}

// GetBlock is the raw "fetch a block" query.
func (f *Facade) GetBlock(ctx context.Context, blockNumber *big.Int) (*types.Block, error) {
	f.obs.OnDispatch("facade", "GetBlock")
	return txpipeline.GetBlock(ctx, f.registry.Bracket(bracket.RoleView), blockNumber)
}

// GetBlockNumber is the raw "current chain head" query.
func (f *Facade) GetBlockNumber(ctx context.Context) (uint64, error) {
	f.obs.OnDispatch("facade", "GetBlockNumber")
	return txpipeline.GetBlockNumber(ctx, f.registry.Bracket(bracket.RoleView))
}
