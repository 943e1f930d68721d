package txpipeline

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rpcmux/multirpc/internal/gasestimator"
	"github.com/rpcmux/multirpc/internal/rpcerr"
)

func sampleDraft(dynamic bool) *Draft {
	d := &Draft{
		Nonce:    7,
		GasLimit: 21000,
		ChainID:  1,
		Call: Call{
			To:   common.HexToAddress("0xabc"),
			Data: []byte{0xde, 0xad, 0xbe, 0xef},
		},
	}
	if dynamic {
		d.GasParams = gasestimator.GasParams{
			MaxFeePerGas:         big.NewInt(30_000_000_000),
			MaxPriorityFeePerGas: big.NewInt(1_000_000_000),
		}
	} else {
		d.GasParams = gasestimator.GasParams{GasPrice: big.NewInt(20_000_000_000)}
	}
	return d
}

func TestUnsignedTransaction_Dynamic(t *testing.T) {
	tx := sampleDraft(true).unsignedTransaction()
	if tx.Type() != types.DynamicFeeTxType {
		t.Fatalf("expected dynamic-fee tx, got type %d", tx.Type())
	}
	if tx.Nonce() != 7 {
		t.Fatalf("expected nonce 7, got %d", tx.Nonce())
	}
}

func TestUnsignedTransaction_Legacy(t *testing.T) {
	tx := sampleDraft(false).unsignedTransaction()
	if tx.Type() != types.LegacyTxType {
		t.Fatalf("expected legacy tx, got type %d", tx.Type())
	}
	if tx.GasPrice().Cmp(big.NewInt(20_000_000_000)) != 0 {
		t.Fatalf("unexpected gas price: %s", tx.GasPrice())
	}
}

func TestDescribeDraft_DynamicShowsMaxFee(t *testing.T) {
	out := DescribeDraft("mint", "0xfrom", sampleDraft(true))
	if !strings.Contains(out, "Max Fee:") || !strings.Contains(out, "Max Cost:") {
		t.Fatalf("expected dynamic-fee fields in dry run output, got:\n%s", out)
	}
}

func TestDescribeDraft_LegacyShowsGasPrice(t *testing.T) {
	out := DescribeDraft("mint", "0xfrom", sampleDraft(false))
	if !strings.Contains(out, "Gas Price:") || !strings.Contains(out, "Estimated Cost:") {
		t.Fatalf("expected legacy fields in dry run output, got:\n%s", out)
	}
}

func TestClassifyBroadcastError_BenignIsValueError(t *testing.T) {
	p := &Pipeline{cfg: Config{ChainID: 1}}
	err := p.classifyBroadcastError(errors.New("nonce too low"))
	var ve *rpcerr.ValueError
	if !errors.As(err, &ve) {
		t.Fatalf("expected soft ValueError, got %v (%T)", err, err)
	}
}

func TestClassifyBroadcastError_NonBenignIsTerminal(t *testing.T) {
	p := &Pipeline{cfg: Config{ChainID: 1}}
	err := p.classifyBroadcastError(errors.New("insufficient funds for gas * price + value"))
	var tv *rpcerr.TransactionValueError
	if !errors.As(err, &tv) {
		t.Fatalf("expected TransactionValueError, got %v (%T)", err, err)
	}
}
