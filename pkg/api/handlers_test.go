package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/open-mpi/mtt-reporter/pkg/config"
	"github.com/open-mpi/mtt-reporter/pkg/report"
	"github.com/open-mpi/mtt-reporter/pkg/store"
)

var testNow = time.Date(2007, 3, 14, 15, 30, 0, 0, time.UTC)

func setupTestServer(t *testing.T, mutate func(cfg *config.Config)) *server {
	t.Helper()

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			AutoMigrate: true,
			SQLite:      config.SQLiteDatabaseConfig{Path: ":memory:"},
		},
		Report: config.ReportConfig{
			Client:      "MTT",
			DefaultDate: "All",
			Summary:     config.SummaryConfig{Concurrency: 2},
		},
	}

	if mutate != nil {
		mutate(cfg)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s, ok := NewServer(log, cfg).(*server)
	require.True(t, ok)

	s.now = func() time.Time { return testNow }
	s.store = store.NewStore(s.log, &cfg.Database)
	require.NoError(t, s.store.Start(context.Background()))

	t.Cleanup(func() { _ = s.store.Stop() })

	require.NoError(t, s.store.WithConn(context.Background(), func(tx *gorm.DB) error {
		once := store.Once{
			RunIndex: 1, PlatformID: "ib", Hostname: "node1",
			MPIName: "ompi-nightly-trunk", StartRunTimestamp: testNow,
		}
		if err := tx.Create(&once).Error; err != nil {
			return err
		}

		return tx.Create(&[]store.Run{
			{PhaseResult: store.PhaseResult{RunIndex: 1, Success: true, StartTestTimestamp: testNow}, TestName: "ring"},
			{PhaseResult: store.PhaseResult{RunIndex: 1, Success: false, StartTestTimestamp: testNow}, TestName: "spawn"},
		}).Error
	}))

	require.NoError(t, s.prepareReports(report.NewEngine(s.log, s.store)))

	return s
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandleHealth(t *testing.T) {
	s := setupTestServer(t, nil)

	rec := do(t, s.buildRouter(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHandleMenus(t *testing.T) {
	s := setupTestServer(t, nil)

	rec := do(t, s.buildRouter(), httptest.NewRequest(http.MethodGet, "/api/v1/menus", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp menusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, []string{"ib / node1"}, resp.Menus["cluster"])
	assert.Equal(t, []string{"ompi-nightly-trunk"}, resp.Menus["mpi_name"])
	assert.Equal(t, "All", resp.DefaultDate)
	assert.Equal(t, []string{"MPI Install", "Test Build", "Test Run"}, resp.Phases)
	assert.Contains(t, resp.Dates, "Past Seven Days")
	assert.Equal(t, "Hour-by-Hour", resp.Timestamps[3])
}

func TestHandleReporter(t *testing.T) {
	tests := []struct {
		name        string
		req         func() *http.Request
		wantContain []string
		wantMissing []string
	}{
		{
			name: "full page",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet,
					"/reporter?maf_phase=runs&mef_cluster=All&mef_mpi_name=All&no_details=on", nil)
			},
			wantContain: []string{
				"<title>MTT Test Results</title>",
				"ib / node1",
				"Open MPI trunk",
				"ring",
				`bgcolor="#FFC0C0">1</td>`,
				"Link to this query",
				"Query Description",
			},
		},
		{
			name: "form post",
			req: func() *http.Request {
				form := url.Values{
					"maf_phase":    {"runs"},
					"mef_cluster":  {"All"},
					"tf_test_name": {"spawn"},
					"just_results": {"on"},
				}
				req := httptest.NewRequest(http.MethodPost, "/reporter", strings.NewReader(form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

				return req
			},
			wantContain: []string{"spawn", `class="mtt-results"`},
			wantMissing: []string{"ring", "<html"},
		},
		{
			name: "no data",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodGet,
					"/reporter?mef_cluster=All&mef_mpi_name=ompi-nightly-v9", nil)
			},
			wantContain: []string{report.NoDataMessage},
			wantMissing: []string{`class="mtt-results"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServer(t, nil)

			rec := do(t, s.buildRouter(), tt.req())

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

			body := rec.Body.String()
			for _, want := range tt.wantContain {
				assert.Contains(t, body, want)
			}

			for _, missing := range tt.wantMissing {
				assert.NotContains(t, body, missing)
			}
		})
	}
}

func TestHandleReporter_DefaultDate(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) {
		cfg.Report.DefaultDate = "Past Two Days"
	})

	rec := do(t, s.buildRouter(), httptest.NewRequest(http.MethodGet, "/reporter?mef_cluster=All", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Body.String(), "03-12-2007 15:30:00 - 03-14-2007 15:30:00")
	assert.Contains(t, rec.Body.String(), "Link to this query")
}

func TestHandleSummary(t *testing.T) {
	s := setupTestServer(t, nil)

	rec := do(t, s.buildRouter(), httptest.NewRequest(http.MethodGet, "/summary?window=week", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Time frame: Past Seven Days - Now")
	assert.Contains(t, body, "MTT Executive Summary")
	assert.Contains(t, body, "MTT Test Case Details")
	assert.Contains(t, body, `href="/reporter"`)
}

func TestHandlers_DatabaseUnavailable(t *testing.T) {
	s := setupTestServer(t, nil)
	require.NoError(t, s.store.Stop())

	router := s.buildRouter()

	for _, target := range []string{"/reporter?mef_cluster=All", "/api/v1/menus", "/summary"} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, router, httptest.NewRequest(http.MethodGet, target, nil))

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.JSONEq(t, `{"error":"results database unavailable"}`, rec.Body.String())
		})
	}
}

func TestRateLimit(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}
	})

	router := s.buildRouter()

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/reporter?mef_cluster=All", nil)
		r.RemoteAddr = "192.0.2.10:5555"

		return r
	}

	assert.Equal(t, http.StatusOK, do(t, router, req()).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, router, req()).Code)

	// Health checks are never limited.
	health := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	health.RemoteAddr = "192.0.2.10:5555"
	assert.Equal(t, http.StatusOK, do(t, router, health).Code)
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "forwarded", remote: "10.0.0.1:1234", xff: "198.51.100.7", want: "198.51.100.7"},
		{name: "forwarded chain", remote: "10.0.0.1:1234", xff: "198.51.100.7, 10.0.0.2", want: "198.51.100.7"},
		{name: "no port", remote: "192.0.2.1", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote

			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}

			assert.Equal(t, tt.want, extractIP(r))
		})
	}
}
