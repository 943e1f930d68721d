package facade

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const sampleABI = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

func TestFunctionClassification_ViewVsTransaction(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(sampleABI))
	if err != nil {
		t.Fatalf("parsing abi: %v", err)
	}

	f := &Facade{functions: map[string]*FunctionDescriptor{}}
	for _, m := range parsed.Methods {
		kind := FunctionTransaction
		if m.StateMutability == "view" || m.StateMutability == "pure" {
			kind = FunctionView
		}
		m := m
		f.functions[m.Name] = &FunctionDescriptor{Name: m.Name, Kind: kind, Method: m}
	}

	view, err := f.Function("balanceOf")
	if err != nil || view.Kind != FunctionView {
		t.Fatalf("expected balanceOf bound as a view function, got %+v, err=%v", view, err)
	}
	tx, err := f.Function("transfer")
	if err != nil || tx.Kind != FunctionTransaction {
		t.Fatalf("expected transfer bound as a transaction function, got %+v, err=%v", tx, err)
	}

	if _, err := f.Function("doesNotExist"); err == nil {
		t.Fatalf("expected an error looking up an unbound function")
	}
}
