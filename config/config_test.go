package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
rpc_urls:
  view:
    - key: primary
      urls:
        - http://rpc-a.example.com
        - http://rpc-b.example.com
    - key: fallback
      urls:
        - http://rpc-d.example.com
  transaction:
    - key: primary
      urls:
        - http://rpc-c.example.com
contract_address: "0x0000000000000000000000000000000000dEaD"
contract_abi_path: "./abi.json"
view_policy: first_success
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GasLimit != defaultGasLimit {
		t.Errorf("expected default gas limit, got %d", cfg.GasLimit)
	}
	if cfg.GasUpperBoundGWei != defaultGasUpperBoundGWei {
		t.Errorf("expected default gas upper bound, got %v", cfg.GasUpperBoundGWei)
	}
	if cfg.WaitForReceiptSecs != defaultWaitForReceiptSecs {
		t.Errorf("expected default wait-for-receipt seconds, got %d", cfg.WaitForReceiptSecs)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestLoad_RejectsMissingContractAddress(t *testing.T) {
	path := writeTempConfig(t, `
rpc_urls:
  view:
    - key: primary
      urls:
        - http://rpc-a.example.com
contract_abi_path: "./abi.json"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a missing contract_address")
	}
}

func TestLoad_RejectsBadViewPolicy(t *testing.T) {
	path := writeTempConfig(t, strings.Replace(sampleYAML, "view_policy: first_success", "view_policy: not_a_policy", 1))
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an invalid view_policy")
	}
}

func TestRoleConfigs_BuildsOrderedRoles(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	roles := cfg.RoleConfigs()
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}
	if roles[0].Role != "view" {
		t.Errorf("expected view role first, got %v", roles[0].Role)
	}
	if roles[1].Role != "transaction" {
		t.Errorf("expected transaction role second, got %v", roles[1].Role)
	}
	if len(roles[0].SubBrackets) != 2 {
		t.Fatalf("expected 2 view sub-brackets, got %d", len(roles[0].SubBrackets))
	}
	if roles[0].SubBrackets[0].Key != "primary" || roles[0].SubBrackets[1].Key != "fallback" {
		t.Errorf("expected sub-brackets in registration order [primary, fallback], got %v", roles[0].SubBrackets)
	}
}
