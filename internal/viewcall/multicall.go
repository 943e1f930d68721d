package viewcall

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// multicall3ABI is the fragment of the well-known Multicall3 contract
// this package needs. Encoding/decoding calldata against it is the
// same out-of-scope "smart-contract ABI encoder" spec.md §1 names as
// an external collaborator for the target contract itself — here it
// is simply pointed at a second, fixed ABI.
const multicall3ABI = `[
  {"inputs":[{"internalType":"bool","name":"requireSuccess","type":"bool"},
             {"components":[{"internalType":"address","name":"target","type":"address"},
                             {"internalType":"bytes","name":"callData","type":"bytes"}],
              "internalType":"struct Multicall3.Call[]","name":"calls","type":"tuple[]"}],
   "name":"tryBlockAndAggregate",
   "outputs":[{"internalType":"uint256","name":"blockNumber","type":"uint256"},
              {"internalType":"bytes32","name":"blockHash","type":"bytes32"},
              {"components":[{"internalType":"bool","name":"success","type":"bool"},
                              {"internalType":"bytes","name":"returnData","type":"bytes"}],
               "internalType":"struct Multicall3.Result[]","name":"returnData","type":"tuple[]"}],
   "stateMutability":"payable","type":"function"}
]`

// DefaultMulticallAddress is the canonical, identically-deployed
// Multicall3 address used across most EVM chains.
var DefaultMulticallAddress = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// multicallCall is the {target, callData} tuple Multicall3 expects, in
// its own struct so abi.Pack's reflection-based tuple encoder can see
// the field names matching the ABI component names.
type multicallCall struct {
	Target   common.Address
	CallData []byte
}

// multicallResult is the decoded {success, returnData} tuple.
type multicallResult struct {
	Success    bool
	ReturnData []byte
}

// multicallOutput mirrors tryBlockAndAggregate's three return values
// for abi.UnpackIntoInterface.
type multicallOutput struct {
	BlockNumber *big.Int
	BlockHash   [32]byte
	ReturnData  []multicallResult
}

// multicallBinding packages the parsed Multicall3 ABI for one endpoint
// connection.
type multicallBinding struct {
	address common.Address
	abi     abi.ABI
	caller  bind.ContractCaller
}

func newMulticallBinding(caller bind.ContractCaller, address common.Address) (*multicallBinding, error) {
	parsed, err := abi.JSON(strings.NewReader(multicall3ABI))
	if err != nil {
		return nil, fmt.Errorf("parsing multicall3 abi: %w", err)
	}
	return &multicallBinding{address: address, abi: parsed, caller: caller}, nil
}

// tryBlockAndAggregate batches calls into a single tryBlockAndAggregate
// call and returns the block number the aggregator observed plus the
// decoded per-call results, in the same order as calls. blockNumber
// nil means "latest", matching bind.ContractCaller.CallContract.
func (m *multicallBinding) tryBlockAndAggregate(ctx context.Context, blockNumber *big.Int, calls []multicallCall) (uint64, []multicallResult, error) {
	input, err := m.abi.Pack("tryBlockAndAggregate", false, calls)
	if err != nil {
		return 0, nil, fmt.Errorf("packing tryBlockAndAggregate: %w", err)
	}

	msg := ethereum.CallMsg{To: &m.address, Data: input}
	out, err := m.caller.CallContract(ctx, msg, blockNumber)
	if err != nil {
		return 0, nil, err
	}

	var decoded multicallOutput
	if err := m.abi.UnpackIntoInterface(&decoded, "tryBlockAndAggregate", out); err != nil {
		return 0, nil, fmt.Errorf("unpacking tryBlockAndAggregate: %w", err)
	}
	return decoded.BlockNumber.Uint64(), decoded.ReturnData, nil
}
