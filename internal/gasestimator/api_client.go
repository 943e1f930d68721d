package gasestimator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// requestTimeout bounds a single Gas-API HTTP round trip.
const requestTimeout = 5 * time.Second

// gasAPIClient wraps the templated gas price HTTP API. A rate limiter
// keeps repeated calls (e.g. one per broadcast across a busy façade)
// from tripping the provider's own "Too Many Requests" response,
// which spec.md §4.B treats as a hard stop rather than something to
// retry through.
type gasAPIClient struct {
	urlTemplate string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      zerolog.Logger
}

func newGasAPIClient(urlTemplate string, logger zerolog.Logger) *gasAPIClient {
	return &gasAPIClient{
		urlTemplate: urlTemplate,
		httpClient:  &http.Client{Timeout: requestTimeout},
		limiter:     rate.NewLimiter(rate.Every(time.Second), 5),
		logger:      logger,
	}
}

type apiQuote struct {
	MaxFeePerGasGWei         float64
	MaxPriorityFeePerGasGWei float64
}

// gasAPIResponse mirrors the shape of a per-priority suggested-fee
// response: {"low": {"suggestedMaxFeePerGas": "...", ...}, "medium": {...}, "high": {...}}.
type gasAPIResponse map[string]struct {
	SuggestedMaxFeePerGas         string `json:"suggestedMaxFeePerGas"`
	SuggestedMaxPriorityFeePerGas string `json:"suggestedMaxPriorityFeePerGas"`
}

func (c *gasAPIClient) fetch(ctx context.Context, chainID uint64, priority Priority) (apiQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return apiQuote{}, err
	}

	url := strings.ReplaceAll(c.urlTemplate, "{chain_id}", strconv.FormatUint(chainID, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apiQuote{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apiQuote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiQuote{}, fmt.Errorf("gas api returned status %d", resp.StatusCode)
	}

	var parsed gasAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return apiQuote{}, err
	}

	tier, ok := parsed[string(priority)]
	if !ok {
		return apiQuote{}, fmt.Errorf("gas api response missing priority %q", priority)
	}

	maxFee, err := strconv.ParseFloat(tier.SuggestedMaxFeePerGas, 64)
	if err != nil {
		return apiQuote{}, fmt.Errorf("parsing suggestedMaxFeePerGas: %w", err)
	}
	maxPriorityFee, err := strconv.ParseFloat(tier.SuggestedMaxPriorityFeePerGas, 64)
	if err != nil {
		return apiQuote{}, fmt.Errorf("parsing suggestedMaxPriorityFeePerGas: %w", err)
	}

	return apiQuote{MaxFeePerGasGWei: maxFee, MaxPriorityFeePerGasGWei: maxPriorityFee}, nil
}
