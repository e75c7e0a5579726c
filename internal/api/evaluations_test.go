package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrasift/terrasift/internal/engine"
	"github.com/terrasift/terrasift/internal/scoring"
	"github.com/terrasift/terrasift/internal/selectivity"
	"github.com/terrasift/terrasift/internal/site"
)

func testPopulation() []site.Record {
	records := make([]site.Record, 200)
	for i := range records {
		id := site.ID(i + 1)
		records[i] = site.Record{
			ID: id,
			Attrs: site.Attributes{
				Biome:       "temperate_forest",
				Temperature: float64(i % 40),
				Rainfall:    800,
				Latitude:    10,
				HasRiver:    i%5 == 0,
				StoneTypes:  []string{"granite"},
				Habitable:   true,
			},
		}
	}
	return records
}

func newTestServer(t *testing.T, adminToken string) (*httptest.Server, []site.Record) {
	t.Helper()
	records := testPopulation()
	provider := site.NewCachedProvider(records, site.ComputeExtended)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(provider, scoring.DefaultParams(), 64, 2, logger)
	runs := engine.NewRuns(eng, nil, time.Minute, logger)

	stats := selectivity.BuildStats(records)
	det := selectivity.NewDetector(stats)

	router := NewRouter(runs, stats, det, Defaults{TopN: 20, MinAcceptable: 1}, adminToken, logger)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, records
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func waitForRun(t *testing.T, base, runID string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/api/v1/evaluations/" + runID)
		require.NoError(t, err)
		var run map[string]interface{}
		decodeJSON(t, resp, &run)
		if run["status"] != string(engine.StatusRunning) {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("run did not finish in time")
	return nil
}

func TestEvaluationLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := postJSON(t, srv.URL+"/api/v1/evaluations", map[string]interface{}{
		"config": map[string]interface{}{
			"criteria": []map[string]interface{}{
				{"id": "temperature", "importance": "critical", "low": 10.0, "high": 30.0},
				{"id": "has_river", "importance": "preferred", "want": true},
			},
		},
		"top_n": 5,
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	var created map[string]string
	decodeJSON(t, resp, &created)
	require.NotEmpty(t, created["run_id"])

	run := waitForRun(t, srv.URL, created["run_id"])
	assert.Equal(t, string(engine.StatusCompleted), run["status"])

	result := run["result"].(map[string]interface{})
	entries := result["entries"].([]interface{})
	assert.Len(t, entries, 5)
	assert.Equal(t, float64(0), result["tier_used"])

	// Every ranked entry carries a full breakdown via the dedicated route.
	first := entries[0].(map[string]interface{})
	siteID := first["site_id"].(float64)
	bresp, err := http.Get(srv.URL + "/api/v1/evaluations/" + created["run_id"] +
		"/breakdown/" + strconv.FormatInt(int64(siteID), 10))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, bresp.StatusCode)
	var entry map[string]interface{}
	decodeJSON(t, bresp, &entry)
	assert.NotNil(t, entry["breakdown"])
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := postJSON(t, srv.URL+"/api/v1/evaluations", map[string]interface{}{
		"config": map[string]interface{}{
			"criteria": []map[string]interface{}{
				{"id": "gravity", "importance": "critical"},
			},
		},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateRequiresConfigOrTiers(t *testing.T) {
	srv, _ := newTestServer(t, "")
	resp := postJSON(t, srv.URL+"/api/v1/evaluations", map[string]interface{}{"top_n": 5})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAutoRelaxEscalates(t *testing.T) {
	srv, _ := newTestServer(t, "")

	// Impossible primary range; auto_relax appends the relaxation chain and
	// the preferred_only tier always produces a ranking.
	resp := postJSON(t, srv.URL+"/api/v1/evaluations", map[string]interface{}{
		"config": map[string]interface{}{
			"criteria": []map[string]interface{}{
				{"id": "temperature", "importance": "critical", "low": 500.0, "high": 600.0},
			},
		},
		"auto_relax": true,
		"top_n":      3,
	})
	var created map[string]string
	decodeJSON(t, resp, &created)

	run := waitForRun(t, srv.URL, created["run_id"])
	assert.Equal(t, string(engine.StatusCompleted), run["status"])
	result := run["result"].(map[string]interface{})
	assert.Equal(t, "preferred_only", result["tier_label"])
}

func TestCancelUnknownRun(t *testing.T) {
	srv, _ := newTestServer(t, "")
	req, _ := http.NewRequest(http.MethodDelete,
		srv.URL+"/api/v1/evaluations/00000000-0000-0000-0000-000000000000", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetUnknownRun(t *testing.T) {
	srv, _ := newTestServer(t, "")
	resp, err := http.Get(srv.URL + "/api/v1/evaluations/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
