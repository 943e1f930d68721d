package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rpcmux/multirpc/internal/bracket"
	"github.com/rpcmux/multirpc/internal/gasestimator"
	"github.com/rpcmux/multirpc/internal/viewcall"
)

// Config is the on-disk shape of a façade deployment: every option
// spec.md §6 recognizes, plus the ambient logging knob and the
// domain-stack extensions (dev mode, RPC-only chain id overrides, and
// a promote_value_errors_to_terminal switch). PromoteValueErrorsToTerminal
// is parsed but nothing consults it: the Transaction Pipeline always
// treats a non-benign broadcast value error as terminal.
type Config struct {
	RPCUrls            map[string][]SubBracketURLConfig `yaml:"rpc_urls"`
	ContractAddress    string                           `yaml:"contract_address"`
	ContractABIPath    string                           `yaml:"contract_abi_path"`
	ViewPolicy         string                           `yaml:"view_policy"`
	MulticallAddress   string                           `yaml:"multicall_address"`
	IsProofOfAuthority bool                             `yaml:"is_proof_authority"`

	GasEstimation GasEstimationConfig `yaml:"gas_estimation"`

	GasLimit           uint64  `yaml:"gas_limit"`
	GasUpperBoundGWei  float64 `yaml:"gas_upper_bound_gwei"`
	EnableGasEstimate  bool    `yaml:"enable_gas_estimation"`
	WaitForReceiptSecs int     `yaml:"wait_for_receipt_seconds"`

	Logging LoggingConfig `yaml:"logging"`

	DevMode                      bool    `yaml:"dev_mode"`
	RPCOnlyChainIDs              []int64 `yaml:"rpc_only_chain_ids"`
	PromoteValueErrorsToTerminal bool    `yaml:"promote_value_errors_to_terminal"`
}

// SubBracketURLConfig is one sub-bracket's registration-order entry
// within a role's RPC list. Registration order is load-bearing (Design
// Note §9, spec.md §4: sub-brackets are "tried sequentially in
// registration order") so it is modeled as an ordered YAML sequence
// rather than a map, whose iteration order Go does not guarantee.
type SubBracketURLConfig struct {
	Key  string   `yaml:"key"`
	URLs []string `yaml:"urls"`
}

// GasEstimationConfig configures the gas-fee estimator cascade.
type GasEstimationConfig struct {
	APIURLTemplate   string             `yaml:"api_url_template"`
	FixedTableGWei   map[uint64]float64 `yaml:"fixed_table_gwei"`
	DefaultMethod    string             `yaml:"default_method"`
	MultiplierLow    float64            `yaml:"multiplier_low"`
	MultiplierMedium float64            `yaml:"multiplier_medium"`
	MultiplierHigh   float64            `yaml:"multiplier_high"`
}

// LoggingConfig controls the zerolog logger InitLogger builds.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

const defaultGasLimit = 1_000_000
const defaultGasUpperBoundGWei = 26_000
const defaultWaitForReceiptSecs = 90

// Load reads a YAML config file, applies environment overrides, fills
// in spec.md's documented defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if level := os.Getenv("MULTIRPC_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if addr := os.Getenv("MULTIRPC_CONTRACT_ADDRESS"); addr != "" {
		cfg.ContractAddress = addr
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.GasLimit == 0 {
		c.GasLimit = defaultGasLimit
	}
	if c.GasUpperBoundGWei == 0 {
		c.GasUpperBoundGWei = defaultGasUpperBoundGWei
	}
	if c.WaitForReceiptSecs == 0 {
		c.WaitForReceiptSecs = defaultWaitForReceiptSecs
	}
	if c.ViewPolicy == "" {
		c.ViewPolicy = string(viewcall.PolicyMostUpdated)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects malformed configuration before any endpoint is
// dialed, the Go equivalent of spec.md §7 band 3's setup-time errors.
func (c *Config) Validate() error {
	if len(c.RPCUrls) == 0 {
		return fmt.Errorf("rpc_urls: at least one role must be configured")
	}
	if c.ContractAddress == "" {
		return fmt.Errorf("contract_address is required")
	}
	if c.ContractABIPath == "" {
		return fmt.Errorf("contract_abi_path is required")
	}
	if _, err := viewcall.ParsePolicy(c.ViewPolicy); err != nil {
		return err
	}
	return nil
}

// RoleConfigs converts the ordered YAML rpc_urls sequence into the
// bracket.RoleConfig slice the Endpoint Registry needs, preserving
// sub-bracket registration order exactly as written in the config
// file. Role order is fixed to view-then-transaction, the only two
// roles the façade dispatches to.
func (c *Config) RoleConfigs() []bracket.RoleConfig {
	var roles []bracket.RoleConfig
	for _, role := range []bracket.Role{bracket.RoleView, bracket.RoleTransaction} {
		subBracketURLs, ok := c.RPCUrls[string(role)]
		if !ok {
			continue
		}
		subBrackets := make([]bracket.URLConfig, len(subBracketURLs))
		for i, sb := range subBracketURLs {
			subBrackets[i] = bracket.URLConfig{Key: sb.Key, URLs: sb.URLs}
		}
		roles = append(roles, bracket.RoleConfig{Role: role, SubBrackets: subBrackets})
	}
	return roles
}

// GasEstimatorConfig converts the YAML gas-estimation section into
// gasestimator.Config, applied on top of the chain id the registry
// resolves at dial time.
func (c *Config) GasEstimatorConfig() gasestimator.Config {
	rpcOnly := make(map[uint64]bool, len(c.RPCOnlyChainIDs))
	for _, id := range c.RPCOnlyChainIDs {
		rpcOnly[uint64(id)] = true
	}
	return gasestimator.Config{
		APIURLTemplate:   c.GasEstimation.APIURLTemplate,
		FixedTable:       gasestimator.FixedGasTable(c.GasEstimation.FixedTableGWei),
		DefaultMethod:    gasestimator.Method(c.GasEstimation.DefaultMethod),
		DevMode:          c.DevMode,
		RPCOnlyChainIDs:  rpcOnly,
		MultiplierLow:    c.GasEstimation.MultiplierLow,
		MultiplierMedium: c.GasEstimation.MultiplierMedium,
		MultiplierHigh:   c.GasEstimation.MultiplierHigh,
	}
}
