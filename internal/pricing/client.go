// Package pricing implements the DexScreener token price client: the
// expensive computation the token cache domain wraps.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production DexScreener API endpoint.
const DefaultBaseURL = "https://api.dexscreener.com"

// chainID is the only chain this service prices tokens on.
const chainID = "solana"

// TokenPrice holds the price details of one token.
type TokenPrice struct {
	Mint      string  `json:"mint"`
	PriceUSD  float64 `json:"price_usd"`
	FDV       float64 `json:"fdv"`
	MarketCap float64 `json:"market_cap"`
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	FetchedAt string  `json:"fetched_at"`
}

// pair is the subset of a DexScreener pair object we consume.
type pair struct {
	PriceUSD  string  `json:"priceUsd"`
	FDV       float64 `json:"fdv"`
	MarketCap float64 `json:"marketCap"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
}

// Client fetches token prices from the DexScreener API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a pricing client. An empty baseURL selects the
// production API.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// TokenPrice fetches the current price details for one token mint.
// The mint must be a valid base58 Solana address.
func (c *Client) TokenPrice(ctx context.Context, mint string) (*TokenPrice, error) {
	if err := ValidateMint(mint); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, chainID, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build pricing request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var pairs []pair
	if err := json.NewDecoder(resp.Body).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("decode pricing response: %w", err)
	}

	price, err := pickPair(mint, pairs)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("mint", mint).
		Float64("price_usd", price.PriceUSD).
		Dur("duration", time.Since(start)).
		Msg("token price fetched")

	return price, nil
}

// pickPair selects the first pair carrying a parseable USD price.
func pickPair(mint string, pairs []pair) (*TokenPrice, error) {
	for _, p := range pairs {
		if p.PriceUSD == "" {
			continue
		}
		priceUSD, err := strconv.ParseFloat(p.PriceUSD, 64)
		if err != nil {
			continue
		}
		return &TokenPrice{
			Mint:      mint,
			PriceUSD:  priceUSD,
			FDV:       p.FDV,
			MarketCap: p.MarketCap,
			Name:      p.BaseToken.Name,
			Symbol:    p.BaseToken.Symbol,
			FetchedAt: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoPairData, mint)
}

// ValidateMint checks that mint is a plausible base58 Solana address.
func ValidateMint(mint string) error {
	if mint == "" {
		return fmt.Errorf("%w: empty", ErrInvalidMint)
	}
	raw, err := base58.Decode(mint)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidMint, mint, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("%w: %s: decoded to %d bytes, want 32", ErrInvalidMint, mint, len(raw))
	}
	return nil
}
