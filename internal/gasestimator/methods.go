package gasestimator

import (
	"context"
	"math/big"
	"strings"

	"github.com/rpcmux/multirpc/internal/rpcerr"
)

// fromAPI is the Gas-API method: an HTTP GET to a templated URL
// including the chain id, parsing priority-keyed suggestedMaxFeePerGas
// / suggestedMaxPriorityFeePerGas fields (GWei).
func (e *Estimator) fromAPI(ctx context.Context, ceilingGWei float64, priority Priority) (GasParams, error) {
	if e.api == nil {
		return GasParams{}, &rpcerr.FailedToGetGasPrice{Cause: errNoAPIConfigured}
	}
	quote, err := e.api.fetch(ctx, e.cfg.ChainID, priority)
	if err != nil {
		return GasParams{}, &rpcerr.FailedToGetGasPrice{Cause: err}
	}
	if quote.MaxFeePerGasGWei > ceilingGWei {
		return GasParams{}, &rpcerr.OutOfRangeTransactionFee{Ceiling: ceilingGWei, Quoted: quote.MaxFeePerGasGWei}
	}
	return GasParams{
		MaxFeePerGas:         gweiToWei(quote.MaxFeePerGasGWei),
		MaxPriorityFeePerGas: gweiToWei(quote.MaxPriorityFeePerGasGWei),
	}, nil
}

var errNoAPIConfigured = errString("no gas-api url configured")

type errString string

func (e errString) Error() string { return string(e) }

// fromRPC is the RPC method: iterate endpoints in order, take the
// first endpoint whose reported gas price (in GWei) does not exceed
// the ceiling, and apply the priority multiplier.
func (e *Estimator) fromRPC(ctx context.Context, ceilingGWei float64, priority Priority) (GasParams, error) {
	var anyQuote bool
	for _, ep := range e.endpoints {
		gasPrice, err := ep.Client.SuggestGasPrice(ctx)
		if err != nil {
			if isTooManyRequests(err) {
				return GasParams{}, err
			}
			e.logger.Error().Err(err).Str("url", ep.URL).Msg("failed to get gas price from rpc")
			continue
		}
		anyQuote = true
		gweiPrice := weiToGWei(gasPrice)
		if gweiPrice <= ceilingGWei {
			multiplied := applyMultiplier(gasPrice, e.multiplier(priority))
			return GasParams{GasPrice: multiplied}, nil
		}
	}
	if !anyQuote {
		return GasParams{}, &rpcerr.FailedToGetGasPrice{Cause: errString("none of the rpcs could provide a gas price")}
	}
	return GasParams{}, &rpcerr.OutOfRangeTransactionFee{Ceiling: ceilingGWei}
}

func isTooManyRequests(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "too many requests")
}

func applyMultiplier(wei *big.Int, multiplier float64) *big.Int {
	if multiplier == 1.0 {
		return new(big.Int).Set(wei)
	}
	f := new(big.Float).Mul(new(big.Float).SetInt(wei), big.NewFloat(multiplier))
	i, _ := f.Int(nil)
	return i
}

// fromFixed is the Fixed method: a chain-id-indexed table with a
// fallback constant, ceiling-enforced and priority-multiplied.
func (e *Estimator) fromFixed(ceilingGWei float64, priority Priority) (GasParams, error) {
	gwei, ok := e.cfg.FixedTable[e.cfg.ChainID]
	if !ok {
		gwei = DefaultFixedGasGWei
	}
	if gwei > ceilingGWei {
		return GasParams{}, &rpcerr.OutOfRangeTransactionFee{Ceiling: ceilingGWei, Quoted: gwei}
	}
	return GasParams{GasPrice: gweiToWei(gwei * e.multiplier(priority))}, nil
}

// fromCustom is the extension hook; not implemented by default.
func (e *Estimator) fromCustom(_ context.Context, _ float64, _ Priority) (GasParams, error) {
	return GasParams{}, &rpcerr.FailedToGetGasPrice{Cause: errString("custom gas estimation method is not implemented")}
}
