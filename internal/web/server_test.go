package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/tariffdash/internal/charts"
	"github.com/JonMunkholm/tariffdash/internal/config"
	"github.com/JonMunkholm/tariffdash/internal/core"
)

const (
	tariffCSV = "Country;US 2024 Deficit;Trump Tariffs Alleged;Trump Response\n" +
		"Vietnam;-123,500;90%;46%\n" +
		"Canada;-63,300;0%;10%\n"
	populationCSV = "Country;Population\n" +
		"Vietnam;100300000\n"
	historicalCSV = "Partner Name;Year;Export (US$ Thousand);Import (US$ Thousand);AHS Simple Average (%)\n" +
		"Vietnam;2021;10000;100000;4.1\n" +
		"Canada;2021;300000;350000;0.9\n" +
		"Vietnam;2022;11000;127000;3.9\n" +
		"Côte d'Ivoire;2022;800;1500;6.2\n" +
		"Zone%41;2022;1;2;3\n"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 5 * time.Second,
		},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func publishedStore(t *testing.T) *core.SnapshotStore {
	t.Helper()
	p, err := core.NewPipeline(core.Options{
		Sources: core.Sources{
			Tariff:     core.StaticSource{SourceName: core.DatasetTariff, Text: tariffCSV},
			Population: core.StaticSource{SourceName: core.DatasetPopulation, Text: populationCSV},
			Historical: core.StaticSource{SourceName: core.DatasetHistorical, Text: historicalCSV},
		},
		Scorer: core.ScoreFunc(func(string) int { return 42 }),
	})
	require.NoError(t, err)

	store := core.NewSnapshotStore()
	_, err = p.Publish(context.Background(), store)
	require.NoError(t, err)
	return store
}

func do(t *testing.T, s *Server, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestServer_NotReady(t *testing.T) {
	s := NewServer(core.NewSnapshotStore(), testConfig(), nil)

	for _, path := range []string{"/api/snapshot", "/api/combined", "/api/trends", "/api/charts/tariff-impact", "/api/summary"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, path, nil)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "5", rec.Header().Get("Retry-After"))

			var resp ErrorResponse
			decode(t, rec, &resp)
			assert.Equal(t, "SNAP001", resp.Code)
		})
	}

	t.Run("dashboard", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "SNAP001")
	})

	t.Run("health", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp healthResponse
		decode(t, rec, &resp)
		assert.Equal(t, "ok", resp.Status)
		assert.False(t, resp.Ready)
		assert.Empty(t, resp.SnapshotID)
	})
}

func TestServer_Health(t *testing.T) {
	store := publishedStore(t)
	s := NewServer(store, testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Ready)

	snap, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, snap.ID, resp.SnapshotID)
}

func TestServer_Dashboard(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Vietnam")
	assert.Contains(t, rec.Body.String(), "Canada")
}

func TestServer_Combined(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/api/combined", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]any
	decode(t, rec, &rows)
	require.Len(t, rows, 2)

	assert.Equal(t, "Vietnam", rows[0]["Country"])
	assert.Equal(t, "100300000", rows[0]["Population"])
	assert.Equal(t, float64(42), rows[0]["DigitalAccessScore"])

	assert.Equal(t, "Canada", rows[1]["Country"])
	assert.Nil(t, rows[1]["Population"])
}

func TestServer_Snapshot(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/api/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ID               string            `json:"id"`
		CombinedData     []json.RawMessage `json:"combinedData"`
		HistoricalTrends json.RawMessage   `json:"historicalTrends"`
	}
	decode(t, rec, &body)
	assert.NotEmpty(t, body.ID)
	assert.Len(t, body.CombinedData, 2)
	assert.NotEmpty(t, body.HistoricalTrends)
}

func TestServer_TrendsKeepEncounterOrder(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/api/trends", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	vietnam := strings.Index(body, `"Vietnam"`)
	canada := strings.Index(body, `"Canada"`)
	ivory := strings.Index(body, `"Côte d'Ivoire"`)
	require.True(t, vietnam >= 0 && canada >= 0 && ivory >= 0, body)
	assert.Less(t, vietnam, canada)
	assert.Less(t, canada, ivory)
}

func TestServer_Trend(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	t.Run("found", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/trends/Vietnam", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Country string `json:"country"`
			Points  []struct {
				Year       float64 `json:"year"`
				TariffRate float64 `json:"tariffRate"`
			} `json:"points"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, "Vietnam", resp.Country)
		require.Len(t, resp.Points, 2)
		assert.Equal(t, float64(2021), resp.Points[0].Year)
		assert.Equal(t, float64(2022), resp.Points[1].Year)
		assert.InDelta(t, 3.9, resp.Points[1].TariffRate, 1e-9)
	})

	t.Run("escaped name", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/trends/C%C3%B4te%20d%27Ivoire", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("percent in name is decoded once", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/trends/Zone%2541", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Country string `json:"country"`
		}
		decode(t, rec, &resp)
		assert.Equal(t, "Zone%41", resp.Country)

		rec = do(t, s, http.MethodGet, "/api/trends/ZoneA", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("names are exact", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/trends/vietnam", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var resp ErrorResponse
		decode(t, rec, &resp)
		assert.Equal(t, "TRD001", resp.Code)
	})
}

func TestServer_Charts(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	t.Run("all", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/charts", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var all []charts.Chart
		decode(t, rec, &all)
		assert.Len(t, all, len(charts.Names()))
	})

	for _, name := range charts.Names() {
		t.Run(name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/charts/"+name, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var c struct {
				Name string `json:"name"`
			}
			decode(t, rec, &c)
			assert.Equal(t, name, c.Name)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/charts/pie", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var resp ErrorResponse
		decode(t, rec, &resp)
		assert.Equal(t, "CHART001", resp.Code)
	})
}

func TestServer_Summary(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sum struct {
		Entries        int `json:"entries"`
		WithPopulation int `json:"withPopulation"`
	}
	decode(t, rec, &sum)
	assert.Equal(t, 2, sum.Entries)
	assert.Equal(t, 1, sum.WithPopulation)
}

func TestServer_Datasets(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/api/datasets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sets []struct {
		Key     string   `json:"key"`
		Missing []string `json:"missingColumns"`
	}
	decode(t, rec, &sets)
	require.Len(t, sets, 3)
	assert.Equal(t, core.DatasetTariff, sets[0].Key)
	assert.Equal(t, core.DatasetPopulation, sets[1].Key)
	assert.Equal(t, core.DatasetHistorical, sets[2].Key)
	for _, set := range sets {
		assert.Empty(t, set.Missing, set.Key)
	}
}

func TestServer_NotFound(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, "REQ404", resp.Code)
}

func TestServer_Metrics(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	do(t, s, http.MethodGet, "/api/combined", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tariffdash_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/api/combined"`)
}

func TestServer_APIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s := NewServer(publishedStore(t), cfg, nil)

	rec := do(t, s, http.MethodGet, "/api/combined", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/combined", http.Header{"X-Api-Key": {"wrong"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/combined", http.Header{"X-Api-Key": {"secret"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	// The dashboard and probes stay open.
	rec = do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	s := NewServer(publishedStore(t), cfg, nil)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/summary", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/summary", nil).Code)

	rec := do(t, s, http.MethodGet, "/api/summary", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var resp ErrorResponse
	decode(t, rec, &resp)
	assert.Equal(t, "RATE001", resp.Code)
}

func TestServer_SecurityHeaders(t *testing.T) {
	s := NewServer(publishedStore(t), testConfig(), nil)

	rec := do(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "script-src 'none'")
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	s := NewServer(core.NewSnapshotStore(), testConfig(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
