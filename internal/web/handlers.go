package web

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/tariffdash/internal/charts"
	"github.com/JonMunkholm/tariffdash/internal/core"
	"github.com/JonMunkholm/tariffdash/internal/logging"
	"github.com/JonMunkholm/tariffdash/internal/web/templates"
)

// handleDashboard renders the main dashboard page, or a holding page until
// data is available.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Load()
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(statusFor(err))
		templates.NotReady(core.MapError(err)).Render(r.Context(), w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(templates.NewDashboardData(snap)).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("dashboard render failed", "error", err)
	}
}

type healthResponse struct {
	Status     string `json:"status"`
	Ready      bool   `json:"ready"`
	SnapshotID string `json:"snapshotId,omitempty"`
}

// handleHealth is a liveness probe. It always answers 200 and reports
// whether a snapshot is loaded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if snap, err := s.store.Load(); err == nil {
		resp.Ready = true
		resp.SnapshotID = snap.ID
	}
	render.JSON(w, r, resp)
}

// handleSnapshot returns the whole snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, snapshotFrom(r.Context()))
}

// handleCombined returns the joined tariff and population rows.
func (s *Server) handleCombined(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, snapshotFrom(r.Context()).CombinedData)
}

type datasetInfo struct {
	core.DatasetDefinition
	Stats   core.ParseStats `json:"stats"`
	Missing []string        `json:"missingColumns"`
}

// handleDatasets describes the three inputs and how they parsed.
func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	snap := snapshotFrom(r.Context())

	defs := core.Datasets()
	out := make([]datasetInfo, len(defs))
	for i, def := range defs {
		stats := snap.Stats.Sources[def.Key]
		missing := def.MissingColumns(stats.Header)
		if missing == nil {
			missing = []string{}
		}
		out[i] = datasetInfo{DatasetDefinition: def, Stats: stats, Missing: missing}
	}
	render.JSON(w, r, out)
}

// handleTrends returns every country's series in encounter order.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, snapshotFrom(r.Context()).HistoricalTrends)
}

type trendResponse struct {
	Country string            `json:"country"`
	Points  []core.TrendPoint `json:"points"`
}

// handleTrend returns one country's series. Names must match exactly.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when it is set, leaving the param escaped.
	country := chi.URLParam(r, "country")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(country); err == nil {
			country = unescaped
		}
	}

	points, ok := snapshotFrom(r.Context()).HistoricalTrends.Series(country)
	if !ok {
		s.respondError(w, r, core.ErrCountryNotFound, http.StatusNotFound)
		return
	}
	render.JSON(w, r, trendResponse{Country: country, Points: points})
}

// handleCharts returns every chart's series.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, charts.BuildAll(snapshotFrom(r.Context())))
}

// handleChart returns one chart's series.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	c, err := charts.Build(chi.URLParam(r, "chart"), snapshotFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	render.JSON(w, r, c)
}

// handleSummary returns headline statistics.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, charts.Summarize(snapshotFrom(r.Context())))
}

// handleRateLimited writes the 429 response for the rate limiter.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, errRateLimited, http.StatusTooManyRequests)
}
