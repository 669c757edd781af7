package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/rbdengine/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rbd.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	l, err := config.NewLoader(writeConfig(t, "server:\n  addr: \":9090\"\nengine:\n  max_points: 500\n"))
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	cfg := l.Config()
	if cfg.Server.Addr != ":9090" || cfg.Engine.MaxPoints != 500 {
		t.Errorf("explicit values lost: %+v", cfg)
	}
	if cfg.Engine.MaxNodes != 5000 || cfg.Engine.RequestTimeoutMs != 30000 || cfg.Log.Format != "text" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	tr := cfg.Engine.DefaultTimeRange
	if tr.Start != 0 || tr.End != 1000 || tr.Points != 101 {
		t.Errorf("default time range = %+v", tr)
	}

	opts := cfg.Engine.Options()
	if opts.Timeout != 30*time.Second || opts.MaxPoints != 500 || opts.DefaultTimeRange.Points != 101 {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	body := `
engine:
  max_points: 1
  default_time_range: {start: 10, end: 5, points: 3}
log:
  format: xml
`
	_, err := config.NewLoader(writeConfig(t, body))
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"engine.max_points: must be >= 2",
		"engine.default_time_range.end",
		"log.format: must be one of",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
}

func TestReloadNotifiesSubscribers(t *testing.T) {
	path := writeConfig(t, "engine:\n  max_paths: 10\n")
	l, err := config.NewLoader(path)
	if err != nil {
		t.Fatal(err)
	}
	var got *config.Config
	l.OnChange(func(c *config.Config) { got = c })

	if err := os.WriteFile(path, []byte("engine:\n  max_paths: 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Engine.MaxPaths != 20 || l.Config().Engine.MaxPaths != 20 {
		t.Errorf("subscriber saw %+v", got)
	}

	// An invalid file leaves the previous config in place.
	if err := os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if l.Config().Engine.MaxPaths != 20 {
		t.Error("invalid reload replaced the config")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := config.Validate(config.Default()); err != nil {
		t.Fatal(err)
	}
}

func TestValidateNamesYAMLKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ReadTimeoutMs = -1
	cfg.Engine.DefaultTimeRange.Points = 1
	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.SampleRatio = 2

	err := config.Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"server.read_timeout_ms: must be >= 0",
		"engine.default_time_range.points: must be >= 2",
		"tracing.endpoint: is required",
		"tracing.sample_ratio",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not mention %q", msg, want)
		}
	}
	for _, goName := range []string{"ReadTimeoutMs", "DefaultTimeRange", "SampleRatio"} {
		if strings.Contains(msg, goName) {
			t.Errorf("error %q leaks Go field name %q", msg, goName)
		}
	}
}

func TestTracingDefaultsToNone(t *testing.T) {
	cfg := config.Default()
	if cfg.Tracing.Exporter != "none" || cfg.Tracing.SampleRatio != 1 {
		t.Errorf("tracing defaults = %+v", cfg.Tracing)
	}
}
