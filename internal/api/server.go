// Package api serves the dashboard endpoints over HTTP.
//
// Handlers are thin: they resolve the period, fetch one immutable record
// snapshot, and hand it to the pure computation packages. Presentation
// formatting stays in the frontend.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/claimline/receivables-cli/internal/config"
	"github.com/claimline/receivables-cli/internal/metrics"
	"github.com/claimline/receivables-cli/internal/model"
	"github.com/claimline/receivables-cli/internal/perf"
	"github.com/claimline/receivables-cli/internal/period"
	"github.com/claimline/receivables-cli/internal/risk"
	"github.com/claimline/receivables-cli/internal/store"
)

// Server wires the record source to the dashboard routes.
type Server struct {
	source        store.ReceivableSource
	providerScope string
	now           func() time.Time
}

// NewServer creates a Server. now defaults to time.Now and exists as a
// parameter so handler tests can pin the clock.
func NewServer(source store.ReceivableSource, providerScope string, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	return &Server{source: source, providerScope: providerScope, now: now}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router(cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if cfg.RateLimitRPS > 0 {
		r.Use(rateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/kpi", s.handleKPI)
		r.Get("/law-firms/performance", s.handlePerformance)
		r.Get("/law-firms/risk", s.handleRisk)
		r.Get("/dashboard", s.handleDashboard)
	})

	return r
}

// meta is attached to every data response.
type meta struct {
	ReportID    string       `json:"report_id"`
	Period      period.Token `json:"period,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	RecordCount int          `json:"record_count"`
}

func (s *Server) newMeta(tok period.Token, records int) meta {
	return meta{
		ReportID:    uuid.NewString(),
		Period:      tok,
		GeneratedAt: s.now().UTC(),
		RecordCount: records,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleKPI(w http.ResponseWriter, r *http.Request) {
	records, ok := s.fetch(w, r)
	if !ok {
		return
	}
	now := s.now()
	w2 := period.Resolve(r.URL.Query().Get("period"), now)
	summary := metrics.ComputeKPISummary(records, w2, now)

	writeJSON(w, http.StatusOK, struct {
		Data metrics.KPISummary `json:"data"`
		Meta meta               `json:"metadata"`
	}{summary, s.newMeta(w2.Token, len(records))})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	records, ok := s.fetch(w, r)
	if !ok {
		return
	}
	rows := perf.ComputePerformanceTable(records, s.now())

	q := r.URL.Query()
	if sortField := q.Get("sort"); sortField != "" {
		dir := perf.Descending
		if q.Get("dir") == string(perf.Ascending) {
			dir = perf.Ascending
		}
		perf.Sort(rows, perf.SortField(sortField), dir)
	}

	writeJSON(w, http.StatusOK, struct {
		Data   []perf.LawFirmPerformance `json:"data"`
		Totals perf.Totals               `json:"totals"`
		Meta   meta                      `json:"metadata"`
	}{rows, perf.ComputeTotals(rows), s.newMeta("", len(records))})
}

// riskSummary rolls the per-firm profiles up for the dashboard header
// cards.
type riskSummary struct {
	TotalAtRiskAR    decimal.Decimal `json:"total_at_risk_ar"`
	TotalAtRiskCases int             `json:"total_at_risk_cases"`
	HighRiskFirms    int             `json:"high_risk_firms"`
	AvgRiskScore     float64         `json:"avg_risk_score"`
}

func summarizeRisk(profiles []risk.LawFirmRisk) riskSummary {
	var sum riskSummary
	ar := decimal.Zero
	var scoreSum float64
	for i := range profiles {
		p := &profiles[i]
		ar = ar.Add(p.TotalAtRiskAR)
		sum.TotalAtRiskCases += p.TotalAtRiskCases
		if p.RiskLevel == risk.LevelHigh || p.RiskLevel == risk.LevelCritical {
			sum.HighRiskFirms++
		}
		scoreSum += p.RiskScore
	}
	if len(profiles) > 0 {
		sum.AvgRiskScore = scoreSum / float64(len(profiles))
	}
	sum.TotalAtRiskAR = ar
	return sum
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	records, ok := s.fetch(w, r)
	if !ok {
		return
	}
	profiles := risk.ComputeRiskProfile(records, s.now())

	writeJSON(w, http.StatusOK, struct {
		Data    []risk.LawFirmRisk `json:"data"`
		Summary riskSummary        `json:"summary"`
		Meta    meta               `json:"metadata"`
	}{profiles, summarizeRisk(profiles), s.newMeta("", len(records))})
}

// handleDashboard computes all three views over one snapshot. The
// computations share no state and never mutate the records, so they run
// concurrently.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	records, ok := s.fetch(w, r)
	if !ok {
		return
	}
	now := s.now()
	w2 := period.Resolve(r.URL.Query().Get("period"), now)

	var (
		summary  metrics.KPISummary
		rows     []perf.LawFirmPerformance
		profiles []risk.LawFirmRisk
	)
	g := new(errgroup.Group)
	g.Go(func() error { summary = metrics.ComputeKPISummary(records, w2, now); return nil })
	g.Go(func() error { rows = perf.ComputePerformanceTable(records, now); return nil })
	g.Go(func() error { profiles = risk.ComputeRiskProfile(records, now); return nil })
	_ = g.Wait()

	writeJSON(w, http.StatusOK, struct {
		KPI         metrics.KPISummary        `json:"kpi"`
		Performance []perf.LawFirmPerformance `json:"performance"`
		Totals      perf.Totals               `json:"performance_totals"`
		Risk        []risk.LawFirmRisk        `json:"risk"`
		RiskSummary riskSummary               `json:"risk_summary"`
		Meta        meta                      `json:"metadata"`
	}{summary, rows, perf.ComputeTotals(rows), profiles, summarizeRisk(profiles), s.newMeta(w2.Token, len(records))})
}

// fetch loads the provider-scoped snapshot, writing the error response
// itself when the store is unavailable.
func (s *Server) fetch(w http.ResponseWriter, r *http.Request) ([]model.ReceivableRecord, bool) {
	records, err := s.source.FetchReceivables(r.Context(), s.providerScope)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "internal error"
		if eris.Is(err, store.ErrUnavailable) {
			status = http.StatusServiceUnavailable
			msg = "data unavailable"
		}
		zap.L().Error("api: fetch receivables",
			zap.String("provider", s.providerScope),
			zap.Error(err),
		)
		writeJSON(w, status, map[string]string{"error": msg})
		return nil, false
	}
	return records, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}
