package gasestimator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rpcmux/multirpc/internal/rpcerr"
)

func TestFromAPI_CeilingEnforcement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"low": {"suggestedMaxFeePerGas": "100", "suggestedMaxPriorityFeePerGas": "2"}}`))
	}))
	defer srv.Close()

	est := New(Config{ChainID: 1, APIURLTemplate: srv.URL + "/{chain_id}"}, nil, zerolog.Nop())
	_, err := est.GetGasPrice(context.Background(), 50, PriorityLow, MethodGasAPI)
	var outOfRange *rpcerr.OutOfRangeTransactionFee
	if !errors.As(err, &outOfRange) {
		t.Fatalf("expected OutOfRangeTransactionFee, got %v", err)
	}
}

func TestFromAPI_WithinCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"low": {"suggestedMaxFeePerGas": "20", "suggestedMaxPriorityFeePerGas": "1.5"}}`))
	}))
	defer srv.Close()

	est := New(Config{ChainID: 1, APIURLTemplate: srv.URL + "/{chain_id}"}, nil, zerolog.Nop())
	params, err := est.GetGasPrice(context.Background(), 50, PriorityLow, MethodGasAPI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !params.IsDynamic() {
		t.Fatalf("expected dynamic fee params")
	}
}

func TestFromFixed_CeilingEnforcement(t *testing.T) {
	est := New(Config{ChainID: 1, FixedTable: FixedGasTable{1: 100}}, nil, zerolog.Nop())
	_, err := est.GetGasPrice(context.Background(), 10, PriorityLow, MethodFixed)
	var outOfRange *rpcerr.OutOfRangeTransactionFee
	if !errors.As(err, &outOfRange) {
		t.Fatalf("expected OutOfRangeTransactionFee, got %v", err)
	}
}

func TestFromFixed_DefaultsWhenChainMissing(t *testing.T) {
	est := New(Config{ChainID: 999, FixedTable: FixedGasTable{1: 100}}, nil, zerolog.Nop())
	params, err := est.GetGasPrice(context.Background(), 1000, PriorityLow, MethodFixed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.IsDynamic() {
		t.Fatalf("fixed method should return legacy gasPrice")
	}
}

func TestCustomMethod_NotImplemented(t *testing.T) {
	est := New(Config{ChainID: 1}, nil, zerolog.Nop())
	_, err := est.GetGasPrice(context.Background(), 1000, PriorityLow, MethodCustom)
	var failed *rpcerr.FailedToGetGasPrice
	if !errors.As(err, &failed) {
		t.Fatalf("expected FailedToGetGasPrice, got %v", err)
	}
}

func TestAutoCascade_FallsThroughToFixed(t *testing.T) {
	est := New(Config{ChainID: 1, FixedTable: FixedGasTable{1: 5}}, nil, zerolog.Nop())
	params, err := est.GetGasPrice(context.Background(), 1000, PriorityLow, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.GasPrice == nil {
		t.Fatalf("expected fixed-method legacy gas price")
	}
}

func TestRPCOnlyChainIDs_ForcesRPCMethod(t *testing.T) {
	// With no endpoints configured, the RPC method fails outright,
	// proving the cascade never reached Fixed despite a usable table.
	est := New(Config{
		ChainID:         56,
		FixedTable:      FixedGasTable{56: 5},
		RPCOnlyChainIDs: map[uint64]bool{56: true},
	}, nil, zerolog.Nop())
	_, err := est.GetGasPrice(context.Background(), 1000, PriorityLow, "")
	var failed *rpcerr.FailedToGetGasPrice
	if !errors.As(err, &failed) {
		t.Fatalf("expected FailedToGetGasPrice from empty RPC endpoint set, got %v", err)
	}
}
