package bracket

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// HeaderDecoder turns a raw "eth_getBlockByNumber"-shaped JSON object
// into a *types.Header. It is the seam spec.md §4.A describes as
// "optionally inject a PoA-aware header decoder into the middleware
// stack": proof-of-authority chains (Clique and its derivatives) emit
// an extraData field long enough to carry validator signatures, which
// trips up strict decoders that assume the pre-Clique 32-byte field.
type HeaderDecoder interface {
	DecodeHeader(raw json.RawMessage) (*types.Header, error)
}

type standardHeaderDecoder struct{}

func (standardHeaderDecoder) DecodeHeader(raw json.RawMessage) (*types.Header, error) {
	var h types.Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// poaHeaderDecoder tolerates the oversized extraData field and the
// handful of PoA-only RPC fields (e.g. "step", "signature") that some
// clients include by decoding into a permissive overlay first and only
// keeping the subset of fields types.Header understands.
type poaHeaderDecoder struct{}

func (poaHeaderDecoder) DecodeHeader(raw json.RawMessage) (*types.Header, error) {
	var overlay struct {
		types.Header
		ExtraData string `json:"extraData"`
	}
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return nil, err
	}
	h := overlay.Header
	if len(overlay.ExtraData) > 0 {
		h.Extra = decodeHexOrEmpty(overlay.ExtraData)
	}
	return &h, nil
}

func decodeHexOrEmpty(s string) []byte {
	b, ok := new(big.Int).SetString(trimHexPrefix(s), 16)
	if !ok {
		return nil
	}
	return b.Bytes()
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
