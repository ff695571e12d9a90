// Package report defines the analytical report contract: normalized query
// parameters, the report model, and the builder interface the report cache
// domain wraps. Building a report runs the expensive database joins, so the
// builder is only ever invoked through the cache.
package report

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smartfolio/portfolio-cache/pkg/cache"
)

// Report types the backend can materialize.
const (
	TypeSmartMoneyPNL = "smart_money_pnl"
	TypeTopTraders    = "top_traders"
	TypePortfolio     = "portfolio_summary"
)

// ErrUnknownReportType is returned for report types no builder serves.
var ErrUnknownReportType = errors.New("unknown report type")

// Params identifies one report query. Equal normalized params map to the
// same cache key.
type Params struct {
	ReportType    string `json:"report_type"`
	WalletAddress string `json:"wallet_address,omitempty"`
	TokenMint     string `json:"token_mint,omitempty"`
	Days          int    `json:"days,omitempty"`
	Limit         int    `json:"limit,omitempty"`
}

// Normalize trims and lowercases the free-form fields and applies defaults.
func (p Params) Normalize() Params {
	p.ReportType = strings.ToLower(strings.TrimSpace(p.ReportType))
	p.WalletAddress = strings.TrimSpace(p.WalletAddress)
	p.TokenMint = strings.TrimSpace(p.TokenMint)
	if p.Days <= 0 {
		p.Days = 30
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	return p
}

// Validate checks that the params name a known report type.
func (p Params) Validate() error {
	switch p.ReportType {
	case TypeSmartMoneyPNL, TypeTopTraders, TypePortfolio:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReportType, p.ReportType)
	}
}

// Key returns the deterministic cache key for these params.
func (p Params) Key() string {
	values := map[string]string{
		"days":  strconv.Itoa(p.Days),
		"limit": strconv.Itoa(p.Limit),
	}
	if p.WalletAddress != "" {
		values["wallet"] = p.WalletAddress
	}
	if p.TokenMint != "" {
		values["mint"] = p.TokenMint
	}
	return cache.ReportKey(p.ReportType, values)
}

// Row is one wallet's aggregate in a report.
type Row struct {
	WalletAddress  string  `json:"wallet_address"`
	RealizedPnlUSD float64 `json:"realized_pnl_usd"`
	Trades         int     `json:"trades"`
	WinRatePercent float64 `json:"win_rate_percent"`
	LastActivity   string  `json:"last_activity,omitempty"`
}

// Report is a fully materialized analytical report.
type Report struct {
	ReportType  string    `json:"report_type"`
	GeneratedAt time.Time `json:"generated_at"`
	Rows        []Row     `json:"rows"`
}

// Builder materializes a report for the given params. Implementations run
// the database joins; persistence is outside this repository.
type Builder interface {
	Build(ctx context.Context, params Params) (*Report, error)
}

// BuilderFunc adapts a plain function to the Builder interface.
type BuilderFunc func(ctx context.Context, params Params) (*Report, error)

// Build implements Builder.
func (f BuilderFunc) Build(ctx context.Context, params Params) (*Report, error) {
	return f(ctx, params)
}
