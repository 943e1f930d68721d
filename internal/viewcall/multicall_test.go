package viewcall

import (
	"context"
	"math/big"
	"strings"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// fakeCaller implements bind.ContractCaller by packing/unpacking
// directly against the multicall3 ABI, standing in for a live node.
type fakeCaller struct {
	abi       abi.ABI
	responses []multicallResult
	blockNum  *big.Int
	err       error
}

func (f *fakeCaller) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (f *fakeCaller) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	var blockHash [32]byte
	return f.abi.Methods["tryBlockAndAggregate"].Outputs.Pack(f.blockNum, blockHash, f.responses)
}

func newTestBinding(t *testing.T, responses []multicallResult, blockNum int64) (*multicallBinding, *fakeCaller) {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(multicall3ABI))
	if err != nil {
		t.Fatalf("parsing abi: %v", err)
	}

	caller := &fakeCaller{abi: parsed, responses: responses, blockNum: big.NewInt(blockNum)}
	binding := &multicallBinding{address: common.HexToAddress("0x1"), abi: parsed, caller: caller}
	return binding, caller
}

func TestTryBlockAndAggregate_DecodesResults(t *testing.T) {
	responses := []multicallResult{
		{Success: true, ReturnData: []byte{0xAA}},
		{Success: false, ReturnData: nil},
	}
	binding, _ := newTestBinding(t, responses, 12345)

	blockNum, results, err := binding.tryBlockAndAggregate(context.Background(), nil, []multicallCall{
		{Target: common.HexToAddress("0x2"), CallData: []byte{0x01}},
		{Target: common.HexToAddress("0x3"), CallData: []byte{0x02}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blockNum != 12345 {
		t.Fatalf("expected block 12345, got %d", blockNum)
	}
	if len(results) != 2 || !results[0].Success || results[1].Success {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestParsePolicy(t *testing.T) {
	if _, err := ParsePolicy("most_updated"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePolicy("first_success"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePolicy("bogus"); err == nil {
		t.Fatalf("expected NotValidViewPolicy error")
	}
}
