// Package facade implements Component F: the public entrypoint that
// binds a contract ABI to read/transaction descriptors and dispatches
// each call into the Read Reconciler (viewcall) or the Transaction
// Pipeline (txpipeline), enforcing DontHaveThisRpcType up front.
package facade

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/rpcmux/multirpc/internal/bracket"
	"github.com/rpcmux/multirpc/internal/gasestimator"
	"github.com/rpcmux/multirpc/internal/observer"
	"github.com/rpcmux/multirpc/internal/rpcerr"
	"github.com/rpcmux/multirpc/internal/txpipeline"
	"github.com/rpcmux/multirpc/internal/viewcall"
)

// FunctionKind is how a contract ABI entry was classified: by
// stateMutability "view"/"pure" into a read routed to the Read
// Reconciler, everything else callable into a state-changing call
// routed to the Transaction Pipeline.
type FunctionKind int

const (
	FunctionView FunctionKind = iota
	FunctionTransaction
)

// FunctionDescriptor is one ABI function bound at Setup time — the Go
// expression of the python source's dynamic
// `self.functions.__setattr__(name, ContractFunction(...))`: an
// explicit, enumerable map from function name to descriptor rather
// than runtime attribute injection.
type FunctionDescriptor struct {
	Name   string
	Kind   FunctionKind
	Method abi.Method
}

// Config configures a Facade.
type Config struct {
	Roles              []bracket.RoleConfig
	ContractAddress    common.Address
	ContractABIJSON    string
	ViewPolicy         viewcall.Policy
	MulticallAddress   common.Address
	IsProofOfAuthority bool
	GasEstimation      gasestimator.Config
	DefaultGasLimit    uint64
	GasCeilingGWei     float64
	WaitForReceiptSecs int
	EnableGasEstimate  bool
	Observer           observer.Observer
	Logger             zerolog.Logger
}

// Facade is the bound, ready-to-call engine for one contract across
// every registered endpoint bracket.
type Facade struct {
	registry        *bracket.Registry
	contractAddress common.Address
	contractABI     abi.ABI
	functions       map[string]*FunctionDescriptor

	viewReconciler *viewcall.Reconciler
	viewPolicy     viewcall.Policy
	txPipeline     *txpipeline.Pipeline

	account Account
	obs     observer.Observer
	logger  zerolog.Logger

	waitForReceiptTimeout time.Duration
}

// Account is the minimal signing identity the façade needs to send
// transactions — satisfied by signer.Signer without importing it
// directly. It is an alias of txpipeline.Signer, so facade never needs
// to import the signer package's hardware-wallet dependencies just to
// describe this shape.
type Account = txpipeline.Signer

// New wires a Registry, an optional Read Reconciler, and an optional
// Transaction Pipeline, then binds every ABI function to a descriptor.
// This is Setup's Go equivalent: construction and readiness happen
// together rather than as two calls, since Go has no bare async
// constructor/setup split to mirror.
func New(ctx context.Context, cfg Config) (*Facade, error) {
	registry, err := bracket.New(ctx, cfg.Roles, cfg.IsProofOfAuthority, cfg.Logger)
	if err != nil {
		return nil, err
	}

	parsedABI, err := abi.JSON(strings.NewReader(cfg.ContractABIJSON))
	if err != nil {
		registry.Close()
		return nil, err
	}

	f := &Facade{
		registry:              registry,
		contractAddress:       cfg.ContractAddress,
		contractABI:           parsedABI,
		functions:             map[string]*FunctionDescriptor{},
		obs:                   cfg.Observer,
		logger:                cfg.Logger,
		waitForReceiptTimeout: time.Duration(cfg.WaitForReceiptSecs) * time.Second,
	}
	if f.obs == nil {
		f.obs = observer.Noop{}
	}

	if viewBracket := registry.Bracket(bracket.RoleView); viewBracket != nil {
		policy := cfg.ViewPolicy
		if policy == "" {
			policy = viewcall.PolicyMostUpdated
		}
		reconciler, err := viewcall.New(viewBracket, cfg.MulticallAddress, policy, cfg.Logger)
		if err != nil {
			registry.Close()
			return nil, err
		}
		f.viewReconciler = reconciler
		f.viewPolicy = policy
	}

	if txBracket := registry.Bracket(bracket.RoleTransaction); txBracket != nil {
		txEndpoints := flattenEndpoints(txBracket)
		gasCfg := cfg.GasEstimation
		gasCfg.ChainID = registry.ChainID
		estimator := gasestimator.New(gasCfg, txEndpoints, cfg.Logger)

		pipeline, err := txpipeline.New(txBracket, registry.Bracket(bracket.RoleView), estimator, txpipeline.Config{
			ChainID:           registry.ChainID,
			DefaultGasLimit:   cfg.DefaultGasLimit,
			GasCeilingGWei:    cfg.GasCeilingGWei,
			EnableGasEstimate: cfg.EnableGasEstimate,
		}, cfg.Logger)
		if err != nil {
			registry.Close()
			return nil, err
		}
		f.txPipeline = pipeline
	}

	for _, entry := range parsedABI.Methods {
		kind := FunctionTransaction
		if entry.StateMutability == "view" || entry.StateMutability == "pure" {
			kind = FunctionView
		}
		m := entry
		f.functions[entry.Name] = &FunctionDescriptor{Name: entry.Name, Kind: kind, Method: m}
	}

	return f, nil
}

func flattenEndpoints(b *bracket.Bracket) []*bracket.Endpoint {
	var out []*bracket.Endpoint
	for _, sb := range b.SubBrackets {
		out = append(out, sb.Endpoints...)
	}
	return out
}

// SetAccount binds a signing identity, after which Send and DryRun
// invocations for transaction functions no longer need an OverrideAccount —
// the python source's set_account(address, private_key).
func (f *Facade) SetAccount(account Account) {
	f.account = account
}

// SignMessage signs arbitrary off-chain data (EIP-191 personal-sign)
// with the bound account, without touching the Transaction Pipeline —
// useful for auth challenges and other signature-only flows that don't
// build a transaction at all.
func (f *Facade) SignMessage(data []byte) ([]byte, error) {
	if f.account == nil {
		return nil, errNoAccount
	}
	return f.account.SignData(data)
}

// Close tears down every dialed endpoint connection.
func (f *Facade) Close() {
	f.registry.Close()
}

// ChainID is the chain id derived at registry setup time.
func (f *Facade) ChainID() uint64 {
	return f.registry.ChainID
}

// Function looks up a bound ABI function descriptor by name.
func (f *Facade) Function(name string) (*FunctionDescriptor, error) {
	d, ok := f.functions[name]
	if !ok {
		return nil, &rpcerr.ViewCallFailed{FuncName: name, Cause: errUnknownFunction(name)}
	}
	return d, nil
}

type errUnknownFunction string

func (e errUnknownFunction) Error() string { return "unknown contract function: " + string(e) }
