// Package gasestimator implements the gas-fee estimator: a policy
// cascade over a gas-price HTTP API, endpoint-reported gas, and a
// fixed table, with priority multipliers and ceiling enforcement.
package gasestimator

import (
	"context"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/rpcmux/multirpc/internal/bracket"
)

// Priority is the caller-stated urgency of a transaction. It selects
// the tier key used against the gas-API and the multiplier applied by
// the RPC and Fixed methods; a Gas-API quote is used as quoted, with
// no multiplier.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Method is one of the four estimation strategies spec.md §4.B names.
type Method string

const (
	MethodGasAPI Method = "gas_api"
	MethodRPC    Method = "rpc"
	MethodFixed  Method = "fixed"
	MethodCustom Method = "custom"
)

// cascadeOrder is the order auto-selection tries methods in, stopping
// at the first that returns.
var cascadeOrder = []Method{MethodGasAPI, MethodRPC, MethodFixed, MethodCustom}

// GasParams carries either the legacy {gasPrice} field or the typed
// {maxFeePerGas, maxPriorityFeePerGas} fields, denominated in wei.
type GasParams struct {
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// IsDynamic reports whether these are EIP-1559 typed-fee parameters
// rather than a legacy gasPrice.
func (g GasParams) IsDynamic() bool {
	return g.MaxFeePerGas != nil
}

// FixedGasTable maps a chain id to a fixed gas price in GWei, used by
// the Fixed method when no better source is available.
type FixedGasTable map[uint64]float64

// DefaultFixedGasGWei is used for any chain id absent from the Fixed
// table.
const DefaultFixedGasGWei = 5.0

// Config configures an Estimator.
type Config struct {
	ChainID          uint64
	APIURLTemplate   string // e.g. "https://gas.example.com/v2/{chain_id}/suggestedGasFees"; empty disables the Gas-API method
	FixedTable       FixedGasTable
	DefaultMethod    Method // explicit pin; empty means "auto-cascade"
	DevMode          bool   // mirrors the python source's DevEnv escape hatch
	RPCOnlyChainIDs  map[uint64]bool
	MultiplierLow    float64
	MultiplierMedium float64
	MultiplierHigh   float64
}

// Estimator is the façade's gas-fee estimator (Component B). It is
// owned by the façade and is read-mostly after construction; its only
// mutation surface mirrors the registry's (none, in the Go port — the
// python source's set_account equivalent lives on the façade, not
// here).
type Estimator struct {
	cfg       Config
	endpoints []*bracket.Endpoint // flattened transaction-bracket endpoints, for the RPC method
	api       *gasAPIClient
	logger    zerolog.Logger
}

// New builds an Estimator. endpoints should be every endpoint in the
// transaction bracket (spec.md §4.B's RPC method iterates them in
// order).
func New(cfg Config, endpoints []*bracket.Endpoint, logger zerolog.Logger) *Estimator {
	var api *gasAPIClient
	if cfg.APIURLTemplate != "" {
		api = newGasAPIClient(cfg.APIURLTemplate, logger)
	}
	return &Estimator{cfg: cfg, endpoints: endpoints, api: api, logger: logger}
}

func (e *Estimator) multiplier(p Priority) float64 {
	switch p {
	case PriorityMedium:
		if e.cfg.MultiplierMedium != 0 {
			return e.cfg.MultiplierMedium
		}
	case PriorityHigh:
		if e.cfg.MultiplierHigh != 0 {
			return e.cfg.MultiplierHigh
		}
	default:
		if e.cfg.MultiplierLow != 0 {
			return e.cfg.MultiplierLow
		}
	}
	return 1.0
}

// GetGasPrice is the estimator's public contract: given a ceiling (in
// GWei), a priority, and an optional explicit method, return gas
// parameters whose selected fee does not exceed the ceiling.
//
// If method is non-empty it is used exclusively and its failure
// propagates unchanged. Otherwise: DevMode or a chain id in
// RPCOnlyChainIDs forces the RPC method; else methods are tried in
// cascade order, returning the final failure only if all fail.
func (e *Estimator) GetGasPrice(ctx context.Context, ceilingGWei float64, priority Priority, method Method) (GasParams, error) {
	if method != "" {
		return e.run(ctx, method, ceilingGWei, priority)
	}

	if e.cfg.DevMode || e.cfg.RPCOnlyChainIDs[e.cfg.ChainID] {
		return e.run(ctx, MethodRPC, ceilingGWei, priority)
	}

	var lastErr error
	for _, m := range cascadeOrder {
		params, err := e.run(ctx, m, ceilingGWei, priority)
		if err == nil {
			return params, nil
		}
		lastErr = err
		e.logger.Warn().Str("method", string(m)).Err(err).Msg("gas estimation method failed, trying next")
	}
	return GasParams{}, lastErr
}

func (e *Estimator) run(ctx context.Context, method Method, ceilingGWei float64, priority Priority) (GasParams, error) {
	switch method {
	case MethodGasAPI:
		return e.fromAPI(ctx, ceilingGWei, priority)
	case MethodRPC:
		return e.fromRPC(ctx, ceilingGWei, priority)
	case MethodFixed:
		return e.fromFixed(ceilingGWei, priority)
	case MethodCustom:
		return e.fromCustom(ctx, ceilingGWei, priority)
	default:
		return e.fromFixed(ceilingGWei, priority)
	}
}

// gweiToWei mirrors web3's Web3.to_wei(x, "GWei").
func gweiToWei(gwei float64) *big.Int {
	wei := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9))
	i, _ := wei.Int(nil)
	return i
}

func weiToGWei(wei *big.Int) float64 {
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9))
	v, _ := f.Float64()
	return v
}
