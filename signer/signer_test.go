package signer

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestNewECDSASigner_RejectsNilKey(t *testing.T) {
	if _, err := NewECDSASigner(nil); err == nil {
		t.Fatalf("expected an error constructing a signer with a nil key")
	}
}

func TestECDSASigner_AddressMatchesKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	s, err := NewECDSASigner(key)
	if err != nil {
		t.Fatalf("NewECDSASigner: %v", err)
	}
	want := crypto.PubkeyToAddress(key.PublicKey)
	if got := s.Address(); got != want {
		t.Fatalf("expected address %s, got %s", want.Hex(), got.Hex())
	}
}

func TestECDSASigner_SignDataRecoversToSameAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}
	s, err := NewECDSASigner(key)
	if err != nil {
		t.Fatalf("NewECDSASigner: %v", err)
	}

	msg := []byte("hello multirpc")
	sig, err := s.SignData(msg)
	if err != nil {
		t.Fatalf("SignData: %v", err)
	}

	hash := accounts.TextHash(msg)
	sig65 := make([]byte, len(sig))
	copy(sig65, sig)
	sig65[len(sig65)-1] -= 27

	pub, err := crypto.SigToPub(hash, sig65)
	if err != nil {
		t.Fatalf("recovering public key: %v", err)
	}
	if got := crypto.PubkeyToAddress(*pub); got != s.Address() {
		t.Fatalf("recovered address %s does not match signer address %s", got.Hex(), s.Address().Hex())
	}
}

func TestDerivePrivateKeyFromMnemonic_IsDeterministic(t *testing.T) {
	const mnemonic = "test test test test test test test test test test test junk"
	path, err := accounts.ParseDerivationPath("m/44'/60'/0'/0/0")
	if err != nil {
		t.Fatalf("parsing derivation path: %v", err)
	}

	key1, err := derivePrivateKeyFromMnemonic(mnemonic, path)
	if err != nil {
		t.Fatalf("deriving key: %v", err)
	}
	key2, err := derivePrivateKeyFromMnemonic(mnemonic, path)
	if err != nil {
		t.Fatalf("deriving key again: %v", err)
	}

	addr1 := crypto.PubkeyToAddress(key1.PublicKey)
	addr2 := crypto.PubkeyToAddress(key2.PublicKey)
	if addr1 != addr2 {
		t.Fatalf("expected the same mnemonic and path to derive the same address, got %s and %s", addr1.Hex(), addr2.Hex())
	}
}

func TestDerivePrivateKeyFromMnemonic_RejectsInvalidMnemonic(t *testing.T) {
	path, err := accounts.ParseDerivationPath("m/44'/60'/0'/0/0")
	if err != nil {
		t.Fatalf("parsing derivation path: %v", err)
	}
	if _, err := derivePrivateKeyFromMnemonic("not a valid mnemonic phrase at all", path); err == nil {
		t.Fatalf("expected an error for an invalid mnemonic")
	}
}
