package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/rbdengine/internal/api"
	"github.com/gyaneshwarpardhi/rbdengine/internal/config"
	"github.com/gyaneshwarpardhi/rbdengine/internal/engine"
)

const seriesGraph = `{
  "nodes": [
    {"id": "s", "properties": {"nodeType": "start"}},
    {"id": "c", "properties": {"nodeType": "series", "distribution": {"type": "exponential", "lambda": 0.001}}},
    {"id": "e", "properties": {"nodeType": "end"}}
  ],
  "edges": [
    {"sourceNodeId": "s", "targetNodeId": "c"},
    {"sourceNodeId": "c", "targetNodeId": "e"}
  ]
}`

func newServer(t *testing.T, loader *config.Loader) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.New(ctx, nil, engine.Options{Workers: 2, QueueDepth: 8}, nil)
	srv := httptest.NewServer(api.New(eng, loader))
	t.Cleanup(func() {
		srv.Close()
		eng.Shutdown()
		cancel()
	})
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestCalculate(t *testing.T) {
	srv := newServer(t, nil)
	body := `{"graphData": ` + seriesGraph + `, "timeRange": {"start": 0, "end": 1000, "points": 3}}`
	resp, out := post(t, srv, "/v1/calculate", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, out["error"])

	sys := out["systemReliability"].([]any)
	require.Len(t, sys, 3)
	assert.InDelta(t, math.Exp(-1), sys[2].(float64), 1e-12)
	assert.Contains(t, out["nodeResults"], "c")
}

func TestCalculateReportsFailureInBody(t *testing.T) {
	srv := newServer(t, nil)
	body := `{"graphData": {"nodes": [{"id": "e", "properties": {"nodeType": "end"}}]}, "timeRange": {"end": 10, "points": 2}}`
	resp, out := post(t, srv, "/v1/calculate", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, out["error"], "start")
	assert.Empty(t, out["systemReliability"])
}

func TestCalculateRejectsMalformedJSON(t *testing.T) {
	srv := newServer(t, nil)
	resp, out := post(t, srv, "/v1/calculate", `{"graphData": [`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "invalid JSON")
}

func TestTopologyEndpoints(t *testing.T) {
	srv := newServer(t, nil)

	resp, out := post(t, srv, "/v1/topology/validate", seriesGraph)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["valid"])
	stats := out["stats"].(map[string]any)
	assert.Equal(t, 3.0, stats["nodeCount"])

	resp, out = post(t, srv, "/v1/topology/paths", seriesGraph)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"s", "c", "e"}, out["calculationOrder"])
}

func TestDistributionCurve(t *testing.T) {
	srv := newServer(t, nil)
	body := `{"spec": {"distribution": "exponential_1p", "lambda_": 0.01}, "functionType": "sf", "xMax": 100, "steps": 4}`
	resp, out := post(t, srv, "/v1/distributions/curve", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Exponential_1P", out["distribution"])
	points := out["points"].([]any)
	require.Len(t, points, 5)
	last := points[4].(map[string]any)
	assert.InDelta(t, math.Exp(-1), last["y"].(float64), 1e-12)

	resp, out = post(t, srv, "/v1/distributions/curve",
		`{"spec": {"distribution": "Exponential_1P", "lambda_": 0.01}, "functionType": "hazard", "xMax": 10}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "unknown function type")

	resp, _ = post(t, srv, "/v1/distributions/curve",
		`{"spec": {"distribution": "Weibull_2P", "alpha": -1, "beta": 2}, "functionType": "pdf", "xMax": 10}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInfoAndDistributions(t *testing.T) {
	srv := newServer(t, nil)

	resp, out := get(t, srv, "/v1/distributions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["distributions"], 12)

	resp, out = get(t, srv, "/v1/info")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, engine.Version, out["version"])

	resp, out = get(t, srv, "/readyz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", out["status"])
}

func TestConfigReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_points: 200\n"), 0o644))
	loader, err := config.NewLoader(path)
	require.NoError(t, err)
	srv := newServer(t, loader)

	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_points: 300\n"), 0o644))
	resp, out := post(t, srv, "/v1/config/reload", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["reloaded"])

	_, out = get(t, srv, "/v1/config")
	assert.Equal(t, 300.0, out["max_points"])
}

func TestConfigReloadWithoutFile(t *testing.T) {
	srv := newServer(t, nil)
	resp, _ := post(t, srv, "/v1/config/reload", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
