package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/open-mpi/mtt-reporter/pkg/report"
)

// errorResponse is a standard error payload.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding response", http.StatusInternalServerError)
	}
}

// writeHTML writes a rendered page.
func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// handleHealth returns server health status.
func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type menusResponse struct {
	Menus       map[string][]string `json:"menus"`
	Dates       []string            `json:"dates"`
	DefaultDate string              `json:"default_date"`
	Phases      []string            `json:"phases"`
	Timestamps  []string            `json:"timestamp_aggregation"`
}

// handleMenus returns the options of the query screen.
func (s *server) handleMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := s.engine.Menus(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to load menus")
		writeJSON(w, http.StatusServiceUnavailable,
			errorResponse{"results database unavailable"})

		return
	}

	phases := make([]string, 0, len(report.AllPhases))
	for _, p := range report.AllPhases {
		phases = append(phases, p.Label())
	}

	timestamps := make([]string, 0, int(report.GranularitySecond)+1)
	for g := report.GranularityNone; g <= report.GranularitySecond; g++ {
		timestamps = append(timestamps, g.String())
	}

	writeJSON(w, http.StatusOK, menusResponse{
		Menus:       menus,
		Dates:       report.DateOptions(),
		DefaultDate: s.cfg.Report.DefaultDate,
		Phases:      phases,
		Timestamps:  timestamps,
	})
}

// handleReporter renders one report from the query or form parameters.
func (s *server) handleReporter(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{"invalid form data"})

		return
	}

	params, err := report.ParseValues(r.Form)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})

		return
	}

	params = params.WithDefaultDate(s.cfg.Report.DefaultDate)
	if s.cfg.Report.Debug {
		params.Debug = true
	}

	spec := report.NewQuerySpec(
		params, report.DefaultLevel(s.cfg.Report.Client), s.engine.Dialect(), s.now(),
	)

	res, err := s.engine.Execute(r.Context(), spec)
	if err != nil {
		s.log.WithError(err).Error("Report failed")
		writeJSON(w, http.StatusServiceUnavailable,
			errorResponse{"results database unavailable"})

		return
	}

	var buf bytes.Buffer
	if err := s.formatter.Render(&buf, spec, res, report.RenderOptions{
		Link: "/reporter?" + params.Encode(),
	}); err != nil {
		s.log.WithError(err).Error("Failed to render report")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"rendering report"})

		return
	}

	writeHTML(w, http.StatusOK, buf.Bytes())
}

// handleSummary renders the digest for ?window=day|week.
func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	window := report.ParseWindow(r.URL.Query().Get("window"))

	digest, err := s.digester.Run(r.Context(), window, s.now())
	if err != nil {
		s.log.WithError(err).Error("Summary failed")
		writeJSON(w, http.StatusServiceUnavailable,
			errorResponse{"results database unavailable"})

		return
	}

	var buf bytes.Buffer
	if err := s.formatter.RenderDigest(&buf, digest, "/reporter"); err != nil {
		s.log.WithError(err).Error("Failed to render summary")
		writeJSON(w, http.StatusInternalServerError,
			errorResponse{"rendering summary"})

		return
	}

	writeHTML(w, http.StatusOK, buf.Bytes())
}
