package signer

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/decred/dcrd/hdkeychain/v3"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// bip32MainNetParams supplies the standard Bitcoin-style BIP32 version
// bytes hdkeychain needs to serialize extended keys. Ethereum's BIP44
// derivation only cares about the raw child key material, not these
// prefixes, so the specific network identity they name is irrelevant
// here — they exist only to satisfy hdkeychain.NetworkParams.
type bip32MainNetParams struct{}

func (bip32MainNetParams) HDPrivKeyVersion() [4]byte { return [4]byte{0x04, 0x88, 0xad, 0xe4} }
func (bip32MainNetParams) HDPubKeyVersion() [4]byte  { return [4]byte{0x04, 0x88, 0xb2, 0x1e} }

// derivePrivateKeyFromMnemonic walks a BIP32 derivation path from the
// seed produced by a BIP39 mnemonic, returning the ECDSA private key
// at that path — the standard Ethereum HD wallet derivation
// (typically m/44'/60'/0'/0/0).
func derivePrivateKeyFromMnemonic(mnemonic string, path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("signer: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")

	key, err := hdkeychain.NewMaster(seed, bip32MainNetParams{})
	if err != nil {
		return nil, fmt.Errorf("signer: deriving master key: %w", err)
	}

	for _, index := range path {
		key, err = key.Child(index)
		if err != nil {
			return nil, fmt.Errorf("signer: deriving child key at index %d: %w", index, err)
		}
	}

	ecPrivKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("signer: extracting ec private key: %w", err)
	}

	privKey, err := crypto.ToECDSA(ecPrivKey.Serialize())
	if err != nil {
		return nil, fmt.Errorf("signer: converting to ecdsa private key: %w", err)
	}
	return privKey, nil
}
