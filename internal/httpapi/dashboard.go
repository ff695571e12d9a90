package httpapi

import (
	"net/http"

	"github.com/smartfolio/portfolio-cache/pkg/cache"
)

// dashboardData is the aggregated human-oriented view of both domains.
type dashboardData struct {
	Overview        dashboardOverview  `json:"overview"`
	Memory          dashboardMemory    `json:"memory"`
	DetailedMetrics cache.Snapshot     `json:"detailed_metrics"`
	HealthCheck     cache.HealthStatus `json:"health_check"`
	Recommendations []string           `json:"recommendations"`
}

type dashboardOverview struct {
	Status                string  `json:"status"`
	TotalRequests         int64   `json:"total_requests"`
	TotalHits             int64   `json:"total_hits"`
	OverallHitRatePercent float64 `json:"overall_hit_rate_percent"`
}

type dashboardMemory struct {
	TokenUsagePercent  float64 `json:"token_cache_usage_percent"`
	ReportUsagePercent float64 `json:"report_cache_usage_percent"`
	TotalEntries       int     `json:"total_entries"`
}

// handleDashboard combines metrics, health and simple recommendations.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := h.manager.Snapshot()
	health := h.manager.Health()

	totalRequests := snap.Token.Hits + snap.Token.Misses + snap.Report.Hits + snap.Report.Misses
	totalHits := snap.Token.Hits + snap.Report.Hits

	var overallHitRate float64
	if totalRequests > 0 {
		overallHitRate = float64(totalHits) / float64(totalRequests) * 100
	}

	data := dashboardData{
		Overview: dashboardOverview{
			Status:                health.Status,
			TotalRequests:         totalRequests,
			TotalHits:             totalHits,
			OverallHitRatePercent: overallHitRate,
		},
		Memory: dashboardMemory{
			TokenUsagePercent:  usagePercent(snap.Token),
			ReportUsagePercent: usagePercent(snap.Report),
			TotalEntries:       snap.Token.CurrentSize + snap.Report.CurrentSize,
		},
		DetailedMetrics: snap,
		HealthCheck:     health,
		Recommendations: recommendations(snap),
	}

	writeSuccess(w, http.StatusOK, data)
}

func usagePercent(s cache.DomainStats) float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.CurrentSize) / float64(s.Capacity) * 100
}

// recommendations derives operator hints from the current counters. Rates
// are only judged once a domain has seen enough traffic to be meaningful.
func recommendations(snap cache.Snapshot) []string {
	const minRequests = 100

	recs := []string{}

	if snap.Token.Hits+snap.Token.Misses >= minRequests && snap.Token.HitRatePercent < 70 {
		recs = append(recs, "token cache hit rate below 70%: consider raising CACHE_TOKEN_TTL or CACHE_TOKEN_SIZE")
	}
	if snap.Report.Hits+snap.Report.Misses >= minRequests && snap.Report.HitRatePercent < 70 {
		recs = append(recs, "report cache hit rate below 70%: check whether report parameters vary too much")
	}
	if usagePercent(snap.Token) > 90 {
		recs = append(recs, "token cache near capacity: consider raising CACHE_TOKEN_SIZE")
	}
	if usagePercent(snap.Report) > 90 {
		recs = append(recs, "report cache near capacity: consider raising CACHE_REPORT_SIZE")
	}
	if snap.Token.Errors > 0 || snap.Report.Errors > 0 {
		recs = append(recs, "cache errors detected: check logs for upstream API or database failures")
	}

	return recs
}
