package engine

import (
	"runtime"
	"time"

	"github.com/gyaneshwarpardhi/rbdengine/internal/rbd"
)

// Calculation types accepted in Request.Options. Only reliability is computed.
const (
	CalcReliability  = "reliability"
	CalcAvailability = "availability"
	CalcMTTF         = "mttf"
)

// TimeRange describes a linear time grid of Points values from Start to End
// inclusive.
type TimeRange struct {
	Start  float64 `json:"start" yaml:"start"`
	End    float64 `json:"end" yaml:"end"`
	Points int     `json:"points" yaml:"points"`
}

// IsZero reports whether no range was supplied.
func (r TimeRange) IsZero() bool {
	return r.Start == 0 && r.End == 0 && r.Points == 0
}

// CalculationOptions selects what to compute.
type CalculationOptions struct {
	// IncludeMaintenance is accepted for compatibility with the editor and
	// has no effect on the reliability curve.
	IncludeMaintenance bool     `json:"includeMaintenance,omitempty"`
	CalculationTypes   []string `json:"calculationTypes,omitempty"`
}

// Request is one calculation. A zero TimeRange selects the engine default.
type Request struct {
	ID        string             `json:"id,omitempty"`
	Graph     *rbd.Graph         `json:"graphData"`
	TimeRange TimeRange          `json:"timeRange"`
	Options   CalculationOptions `json:"options"`
}

// NodeResult is one node's reliability curve, or the reason it could not be
// computed.
type NodeResult struct {
	NodeID            string    `json:"nodeId"`
	Reliability       []float64 `json:"reliability"`
	Times             []float64 `json:"times"`
	CalculationTimeMs float64   `json:"calculationTimeMs"`
	Error             string    `json:"error,omitempty"`
}

// StageTiming records how long one engine stage took.
type StageTiming struct {
	Stage      string  `json:"stage"`
	DurationMs float64 `json:"durationMs"`
}

// Result is the outcome of a calculation. When Error is set the curves are
// empty; the timings are always populated.
type Result struct {
	RequestID         string                 `json:"requestId"`
	Times             []float64              `json:"times"`
	SystemReliability []float64              `json:"systemReliability"`
	NodeResults       map[string]*NodeResult `json:"nodeResults"`
	CalculationTimeMs float64                `json:"calculationTimeMs"`
	TotalTimeMs       float64                `json:"totalTimeMs"`
	Stages            []StageTiming          `json:"stages"`
	Error             string                 `json:"error,omitempty"`
}

// CurvePoint is one (time, reliability) sample.
type CurvePoint struct {
	Time        float64 `json:"time"`
	Reliability float64 `json:"reliability"`
}

// SystemCurve pairs each grid time with the system reliability.
func (r *Result) SystemCurve() []CurvePoint {
	n := min(len(r.Times), len(r.SystemReliability))
	out := make([]CurvePoint, n)
	for i := range out {
		out[i] = CurvePoint{Time: r.Times[i], Reliability: r.SystemReliability[i]}
	}
	return out
}

// Options bounds the engine. Workers and QueueDepth size the request pool
// and are fixed at construction; the rest may be swapped with SetOptions.
type Options struct {
	Workers          int
	QueueDepth       int
	NodeConcurrency  int
	MaxPoints        int
	MaxNodes         int
	MaxPaths         int
	Timeout          time.Duration
	DefaultTimeRange TimeRange
}

// DefaultOptions returns the limits used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		Workers:          runtime.GOMAXPROCS(0),
		QueueDepth:       256,
		NodeConcurrency:  runtime.GOMAXPROCS(0),
		MaxPoints:        10000,
		MaxNodes:         5000,
		MaxPaths:         10000,
		Timeout:          30 * time.Second,
		DefaultTimeRange: TimeRange{Start: 0, End: 1000, Points: 101},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.QueueDepth <= 0 {
		o.QueueDepth = d.QueueDepth
	}
	if o.NodeConcurrency <= 0 {
		o.NodeConcurrency = d.NodeConcurrency
	}
	if o.MaxPoints <= 0 {
		o.MaxPoints = d.MaxPoints
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = d.MaxNodes
	}
	if o.MaxPaths <= 0 {
		o.MaxPaths = d.MaxPaths
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.DefaultTimeRange.IsZero() {
		o.DefaultTimeRange = d.DefaultTimeRange
	}
	return o
}

// Info describes the engine's capabilities.
type Info struct {
	Version                string   `json:"version"`
	SupportedDistributions []string `json:"supportedDistributions"`
	NodeTypes              []string `json:"nodeTypes"`
	CalculationTypes       []string `json:"calculationTypes"`
	Features               []string `json:"features"`
}
