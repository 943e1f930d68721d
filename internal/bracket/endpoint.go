// Package bracket implements the endpoint registry: validating RPC
// URLs, opening connection handles, and grouping them into the
// view/transaction brackets the rest of the engine fans out across.
package bracket

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Role is the semantic group an Endpoint belongs to.
type Role string

const (
	RoleView        Role = "view"
	RoleTransaction Role = "transaction"
)

// connectTimeout bounds the initial reachability probe performed at
// registration time; an endpoint that doesn't answer within this
// window is dropped rather than retained in a half-verified state.
const connectTimeout = 5 * time.Second

// Endpoint is a URL plus an opened, reachability-verified connection
// handle to a chain node. Every live Endpoint has been probed at
// registration time — an Endpoint value is never handed out unless it
// passed that probe.
type Endpoint struct {
	URL                string
	Client             *ethclient.Client
	RPC                *rpc.Client
	IsProofOfAuthority bool
	HeaderDecoder      HeaderDecoder
}

// dialEndpoint opens a connection handle, selecting HTTP or WebSocket
// transport by the URL's scheme (go-ethereum's rpc.DialContext already
// multiplexes on scheme, so there is no separate branch to write
// here), optionally attaching a PoA-aware header decoder.
func dialEndpoint(ctx context.Context, url string, isPoA bool) (*Endpoint, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	rc, err := rpc.DialContext(cctx, url)
	if err != nil {
		return nil, err
	}

	decoder := HeaderDecoder(standardHeaderDecoder{})
	if isPoA {
		decoder = poaHeaderDecoder{}
	}

	return &Endpoint{
		URL:                url,
		Client:             ethclient.NewClient(rc),
		RPC:                rc,
		IsProofOfAuthority: isPoA,
		HeaderDecoder:      decoder,
	}, nil
}

// probe performs the reachability check required before an Endpoint
// may be retained: spec.md requires every live Endpoint to have been
// probed at registration time, with unreachable URLs dropped, never
// retained.
func (e *Endpoint) probe(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	_, err := e.Client.BlockNumber(cctx)
	return err
}

func (e *Endpoint) Close() {
	if e.RPC != nil {
		e.RPC.Close()
	}
}

// probeChainID derives the chain ID from one endpoint within the
// 2-second-per-endpoint budget spec.md assigns to chain-id discovery.
func (e *Endpoint) probeChainID(ctx context.Context, timeout time.Duration) (uint64, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	id, err := e.Client.ChainID(cctx)
	if err != nil {
		return 0, err
	}
	return id.Uint64(), nil
}
