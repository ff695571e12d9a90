// Package httpapi exposes the cache management and query endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smartfolio/portfolio-cache/internal/pricing"
	"github.com/smartfolio/portfolio-cache/internal/report"
	"github.com/smartfolio/portfolio-cache/pkg/cache"
)

// maxBatchTokens bounds one token-price request.
const maxBatchTokens = 100

// fetchConcurrency bounds in-flight pricing fetches per request.
const fetchConcurrency = 16

// Handler serves the HTTP surface over the cache manager.
type Handler struct {
	manager *cache.Manager
	prices  *pricing.Client
	reports report.Builder
	retry   pricing.RetryConfig
	logger  zerolog.Logger
}

// NewHandler creates the HTTP handler. reports may be nil when no report
// builder is wired; the report endpoint then responds 503.
func NewHandler(manager *cache.Manager, prices *pricing.Client, reports report.Builder, logger zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		prices:  prices,
		reports: reports,
		retry:   pricing.DefaultRetryConfig(),
		logger:  logger,
	}
}

// Routes builds the router. auth, when non-nil, guards the mutating
// management endpoints.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/cache/metrics", h.handleMetrics)
	r.Get("/cache/health", h.handleHealth)
	r.Get("/cache/dashboard", h.handleDashboard)

	r.Group(func(pr chi.Router) {
		if auth != nil {
			pr.Use(auth)
		}
		pr.Post("/cache/clear", h.handleClear)
	})

	r.Post("/api/token-prices", h.handleTokenPrices)
	r.Post("/api/report", h.handleReport)

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// handleMetrics returns the JSON counter snapshot of both domains.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.manager.Snapshot())
}

// handleHealth returns 200 when healthy, 503 when degraded.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.manager.Health()

	status := http.StatusOK
	if !health.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeSuccess(w, status, health)
}

type clearRequest struct {
	CacheType string `json:"cache_type"`
}

type clearResponse struct {
	Message        string `json:"message"`
	EntriesRemoved int    `json:"entries_removed"`
}

// handleClear empties the named domain(s) and reports how many entries were
// removed. Metrics counters are left untouched.
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	req := clearRequest{CacheType: cache.ClearAll}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
	}

	removed, err := h.manager.Clear(req.CacheType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cache_type, must be: all, token, or report")
		return
	}

	writeSuccess(w, http.StatusOK, clearResponse{
		Message:        req.CacheType + " cache cleared",
		EntriesRemoved: removed,
	})
}

type tokenPricesRequest struct {
	Tokens []string `json:"tokens"`
}

type tokenPriceResult struct {
	Mint  string              `json:"mint"`
	Price *pricing.TokenPrice `json:"price,omitempty"`
	Error string              `json:"error,omitempty"`
}

// handleTokenPrices prices a batch of token mints through the token cache
// domain with bounded fan-out. Per-mint failures are reported per item so a
// single bad mint does not fail the batch.
func (h *Handler) handleTokenPrices(w http.ResponseWriter, r *http.Request) {
	var req tokenPricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	mints := dedupe(req.Tokens)
	if len(mints) == 0 {
		writeError(w, http.StatusBadRequest, "tokens required")
		return
	}
	if len(mints) > maxBatchTokens {
		writeError(w, http.StatusBadRequest, "too many tokens requested")
		return
	}

	results := make([]tokenPriceResult, len(mints))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(fetchConcurrency)

	for i, mint := range mints {
		g.Go(func() error {
			results[i] = h.priceOne(ctx, mint)
			return nil
		})
	}
	_ = g.Wait() // per-item errors are reported in the results

	writeSuccess(w, http.StatusOK, results)
}

// priceOne resolves one mint through the cache; the compute function wraps
// the pricing client with retry.
func (h *Handler) priceOne(ctx context.Context, mint string) tokenPriceResult {
	fetch := pricing.WithRetry(h.retry, h.logger, func(ctx context.Context) (*pricing.TokenPrice, error) {
		return h.prices.TokenPrice(ctx, mint)
	})

	value, err := h.manager.GetOrCompute(ctx, cache.DomainToken, cache.TokenKey(mint),
		func(ctx context.Context) (any, error) {
			price, err := fetch(ctx)
			if err != nil {
				return nil, err
			}
			return price, nil
		})
	if err != nil {
		return tokenPriceResult{Mint: mint, Error: err.Error()}
	}
	return tokenPriceResult{Mint: mint, Price: value.(*pricing.TokenPrice)}
}

// handleReport materializes a report through the report cache domain.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report builder not configured")
		return
	}

	var params report.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	params = params.Normalize()
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	value, err := h.manager.GetOrCompute(r.Context(), cache.DomainReport, params.Key(),
		func(ctx context.Context) (any, error) {
			rep, err := h.reports.Build(ctx, params)
			if err != nil {
				return nil, err
			}
			return rep, nil
		})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeSuccess(w, http.StatusOK, value)
}

// dedupe trims and de-duplicates the requested mints, keeping order.
func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// envelope is the response shape shared by all endpoints.
type envelope struct {
	Status    string  `json:"status"`
	Data      any     `json:"data,omitempty"`
	Error     string  `json:"error,omitempty"`
	Timestamp float64 `json:"timestamp"`
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{
		Status:    "success",
		Data:      data,
		Timestamp: float64(time.Now().UnixMilli()) / 1000,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{
		Status:    "error",
		Error:     msg,
		Timestamp: float64(time.Now().UnixMilli()) / 1000,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
