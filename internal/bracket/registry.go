package bracket

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/rpcmux/multirpc/internal/rpcerr"
)

// chainIDProbeTimeout is the per-endpoint budget for deriving the
// chain ID at registry setup time.
const chainIDProbeTimeout = 2 * time.Second

// Registry owns every Endpoint and Bracket for the lifetime of a
// façade instance. It is read-mostly after construction.
type Registry struct {
	brackets map[Role]*Bracket
	order    []Role
	ChainID  uint64
	logger   zerolog.Logger
}

// Bracket returns the named bracket, or nil if that role was never
// registered (an absent role is valid per spec.md §3).
func (r *Registry) Bracket(role Role) *Bracket {
	return r.brackets[role]
}

// HasRole reports whether any endpoint was registered under role.
func (r *Registry) HasRole(role Role) bool {
	return r.brackets[role] != nil
}

// allEndpoints returns every live endpoint across every bracket, in
// registration order, for operations (like chain-id discovery) that
// don't care about role.
func (r *Registry) allEndpoints() []*Endpoint {
	var all []*Endpoint
	for _, role := range r.order {
		for _, sb := range r.brackets[role].SubBrackets {
			all = append(all, sb.Endpoints...)
		}
	}
	return all
}

// Close tears down every dialed connection handle.
func (r *Registry) Close() {
	for _, ep := range r.allEndpoints() {
		ep.Close()
	}
}

// New validates rpcUrls (role → ordered sub-brackets → URLs), dials
// and probes every URL, drops unreachable ones with a warning, and
// derives the chain ID. It implements spec.md §4.A in full.
func New(ctx context.Context, roles []RoleConfig, isProofOfAuthority bool, logger zerolog.Logger) (*Registry, error) {
	reg := &Registry{brackets: map[Role]*Bracket{}, logger: logger}
	totalLive := 0

	for _, rc := range roles {
		bracket := &Bracket{Role: rc.Role}
		for _, sub := range rc.SubBrackets {
			if len(sub.URLs) > MaxRPCInEachBracket {
				return nil, &rpcerr.MaximumRPCInEachBracketReached{
					Bracket: string(rc.Role) + "/" + sub.Key,
					Count:   len(sub.URLs),
					Max:     MaxRPCInEachBracket,
				}
			}

			live := make([]*Endpoint, 0, len(sub.URLs))
			for _, url := range sub.URLs {
				ep, err := dialEndpoint(ctx, url, isProofOfAuthority)
				if err != nil {
					logger.Warn().Err(err).Str("url", url).Msg("dropping unreachable rpc: dial failed")
					continue
				}
				if err := ep.probe(ctx); err != nil {
					logger.Warn().Err(err).Str("url", url).Msg("dropping unreachable rpc: probe failed")
					ep.Close()
					continue
				}
				live = append(live, ep)
			}

			if len(live) == 0 {
				return nil, &rpcerr.AtLastProvideOneValidRPCInEachBracket{
					Bracket: string(rc.Role) + "/" + sub.Key,
				}
			}

			totalLive += len(live)
			bracket.SubBrackets = append(bracket.SubBrackets, SubBracket{Key: sub.Key, Endpoints: live})
		}

		if len(bracket.SubBrackets) > 0 {
			reg.brackets[rc.Role] = bracket
			reg.order = append(reg.order, rc.Role)
		}
	}

	if totalLive == 0 {
		return nil, errors.New("no available rpc provided")
	}

	chainID, err := deriveChainID(ctx, reg.allEndpoints())
	if err != nil {
		reg.Close()
		return nil, err
	}
	reg.ChainID = chainID

	return reg, nil
}

// deriveChainID queries endpoints in registration order until one
// answers within chainIDProbeTimeout, per spec.md §4.A. The last
// timeout is raised if none succeed.
func deriveChainID(ctx context.Context, endpoints []*Endpoint) (uint64, error) {
	var lastErr error
	for _, ep := range endpoints {
		id, err := ep.probeChainID(ctx, chainIDProbeTimeout)
		if err == nil {
			return id, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no endpoints available to derive chain id")
	}
	return 0, lastErr
}
