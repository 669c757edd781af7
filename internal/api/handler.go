package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/rbdengine/internal/adapter"
	"github.com/gyaneshwarpardhi/rbdengine/internal/config"
	"github.com/gyaneshwarpardhi/rbdengine/internal/distribution"
	"github.com/gyaneshwarpardhi/rbdengine/internal/engine"
	"github.com/gyaneshwarpardhi/rbdengine/internal/metrics"
	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
	"github.com/gyaneshwarpardhi/rbdengine/internal/topology"
)

const (
	maxBodyBytes   = 32 << 20
	maxCurvePoints = 10000
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes. loader may be nil
// when the server runs on built-in defaults.
func New(eng *engine.Engine, loader *config.Loader) http.Handler {
	h := &Handler{eng: eng, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/calculate", h.calculate)
	h.mux.HandleFunc("POST /v1/topology/validate", h.validateTopology)
	h.mux.HandleFunc("POST /v1/topology/paths", h.analyzePaths)
	h.mux.HandleFunc("POST /v1/distributions/curve", h.distributionCurve)
	h.mux.HandleFunc("GET /v1/distributions", h.listDistributions)
	h.mux.HandleFunc("GET /v1/info", h.info)
	h.mux.HandleFunc("GET /v1/config", h.getConfig)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return false
	}
	return true
}

// POST /v1/calculate — run a calculation on the engine's request pool.
// Calculation failures are reported in the result body with status 200.
func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := h.eng.Submit(r.Context(), &req)
	switch {
	case errors.Is(err, engine.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type topologyResponse struct {
	*topology.Validation
	Stats rbd.GraphStats `json:"stats"`
}

// POST /v1/topology/validate — live start/end/path feedback for the editor.
func (h *Handler) validateTopology(w http.ResponseWriter, r *http.Request) {
	var g rbd.Graph
	if !decodeBody(w, r, &g) {
		return
	}
	writeJSON(w, http.StatusOK, topologyResponse{
		Validation: h.eng.ValidateTopology(&g),
		Stats:      rbd.Stats(&g),
	})
}

// POST /v1/topology/paths — path tree and evaluation order.
func (h *Handler) analyzePaths(w http.ResponseWriter, r *http.Request) {
	var g rbd.Graph
	if !decodeBody(w, r, &g) {
		return
	}
	writeJSON(w, http.StatusOK, h.eng.AnalyzePaths(&g))
}

type curveRequest struct {
	Spec         distribution.Spec `json:"spec"`
	FunctionType string            `json:"functionType" validate:"required"`
	XMax         float64           `json:"xMax" validate:"gte=0"`
	Steps        int               `json:"steps" validate:"gte=0,lte=10000"`
	Xs           []float64         `json:"xs" validate:"max=10000"`
}

type curveResponse struct {
	Distribution distribution.Kind         `json:"distribution"`
	FunctionType distribution.FunctionType `json:"functionType"`
	Parameters   map[string]float64        `json:"parameters"`
	Points       []distribution.Point      `json:"points"`
}

// POST /v1/distributions/curve — sample PDF, CDF or SF of one distribution,
// either at explicit xs or on steps+1 points over [0, xMax].
func (h *Handler) distributionCurve(w http.ResponseWriter, r *http.Request) {
	var req curveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := rbd.ValidateStruct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := distribution.ParseKind(string(req.Spec.Kind))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ft, err := distribution.ParseFunctionType(req.FunctionType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := distribution.New(kind, req.Spec.Params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var points []distribution.Point
	if len(req.Xs) > 0 {
		points, err = distribution.Curve(d, ft, req.Xs)
	} else {
		steps := req.Steps
		if steps == 0 {
			steps = 100
		}
		points, err = distribution.Sample(d, ft, req.XMax, min(steps, maxCurvePoints))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, curveResponse{
		Distribution: kind,
		FunctionType: ft,
		Parameters:   d.Parameters(),
		Points:       points,
	})
}

// GET /v1/distributions — supported family tags.
func (h *Handler) listDistributions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"distributions": adapter.SupportedDistributions(),
	})
}

// GET /v1/info — engine version and capabilities.
func (h *Handler) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.eng.Info())
}

// GET /v1/config — limits currently in effect.
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	o := h.eng.Options()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workers":            o.Workers,
		"queue_depth":        o.QueueDepth,
		"node_concurrency":   o.NodeConcurrency,
		"max_points":         o.MaxPoints,
		"max_nodes":          o.MaxNodes,
		"max_paths":          o.MaxPaths,
		"request_timeout_ms": o.Timeout.Milliseconds(),
		"default_time_range": o.DefaultTimeRange,
	})
}

// POST /v1/config/reload — re-read the config file and apply engine limits.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeError(w, http.StatusConflict, "server is running without a config file")
		return
	}
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SetOptions(cfg.Engine.Options())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the calculation queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
