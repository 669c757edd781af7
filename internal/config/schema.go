package config

import (
	"time"

	"github.com/gyaneshwarpardhi/rbdengine/internal/engine"
	"github.com/gyaneshwarpardhi/rbdengine/internal/telemetry"
)

// Config is the top-level YAML structure.
type Config struct {
	Server  ServerConf       `yaml:"server"`
	Engine  EngineConf       `yaml:"engine"`
	Log     LogConf          `yaml:"log"`
	Tracing telemetry.Config `yaml:"tracing"`
}

// ServerConf configures the HTTP listener.
type ServerConf struct {
	Addr           string `yaml:"addr" validate:"required"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms" validate:"gte=0"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms" validate:"gte=0"`
}

// EngineConf holds calculation limits and concurrency settings.
type EngineConf struct {
	Workers          int           `yaml:"workers" validate:"gte=0"`
	QueueDepth       int           `yaml:"queue_depth" validate:"gte=0"`
	NodeConcurrency  int           `yaml:"node_concurrency" validate:"gte=0"`
	MaxPoints        int           `yaml:"max_points" validate:"gte=2"`
	MaxNodes         int           `yaml:"max_nodes" validate:"gte=1"`
	MaxPaths         int           `yaml:"max_paths" validate:"gte=1"`
	RequestTimeoutMs int           `yaml:"request_timeout_ms" validate:"gte=1"`
	DefaultTimeRange TimeRangeConf `yaml:"default_time_range"`
}

// TimeRangeConf is the grid used when a request omits its time range.
type TimeRangeConf struct {
	Start  float64 `yaml:"start" validate:"gte=0"`
	End    float64 `yaml:"end" validate:"gtefield=Start"`
	Points int     `yaml:"points" validate:"gte=2"`
}

// LogConf selects the slog handler.
type LogConf struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Options converts the engine section into engine limits.
func (c EngineConf) Options() engine.Options {
	return engine.Options{
		Workers:         c.Workers,
		QueueDepth:      c.QueueDepth,
		NodeConcurrency: c.NodeConcurrency,
		MaxPoints:       c.MaxPoints,
		MaxNodes:        c.MaxNodes,
		MaxPaths:        c.MaxPaths,
		Timeout:         time.Duration(c.RequestTimeoutMs) * time.Millisecond,
		DefaultTimeRange: engine.TimeRange{
			Start:  c.DefaultTimeRange.Start,
			End:    c.DefaultTimeRange.End,
			Points: c.DefaultTimeRange.Points,
		},
	}
}

// ReadTimeout returns the server read timeout, or 0 for none.
func (c ServerConf) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

// WriteTimeout returns the server write timeout, or 0 for none.
func (c ServerConf) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}
