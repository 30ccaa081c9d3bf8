// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/tally"
	"github.com/acircuit-ctrlV/badminton-koun/internal/render"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Title is drawn above rendered tables.
	Title string `koanf:"title"`

	// FontPath points at a TrueType or OpenType font. Empty uses the
	// built-in font.
	FontPath string `koanf:"font_path"`

	// FontSize is the font size in points.
	FontSize float64 `koanf:"font_size"`

	// Ink and Paper are the text and background colors of rendered
	// tables as "#rrggbb". Empty keeps black on white.
	Ink   string `koanf:"ink"`
	Paper string `koanf:"paper"`

	// Marker is the single character counted in game cells.
	Marker string `koanf:"marker"`

	// CellFormat selects how usage is written: marker or count.
	CellFormat string `koanf:"cell_format"`

	// Tariffs applied to new sessions.
	PerUnitCost          float64 `koanf:"per_unit_cost"`
	PerPersonFee         float64 `koanf:"per_person_fee"`
	CourtRentalFee       float64 `koanf:"court_rental_fee"`
	ReferencePerUnitCost float64 `koanf:"reference_per_unit_cost"`

	// SessionCapacity bounds the number of live sessions.
	SessionCapacity int `koanf:"session_capacity"`

	// SessionTTLMinutes expires sessions idle for longer.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// MaxUploadBytes caps request bodies and imported files.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// Metrics naming. Buckets and labels are only read from the YAML file.
	MetricsNamespace      string            `koanf:"metrics_namespace"`
	MetricsSubsystem      string            `koanf:"metrics_subsystem"`
	MetricsBuckets        []float64         `koanf:"metrics_buckets"`
	MetricsLabels         map[string]string `koanf:"metrics_labels"`
	MetricsRefreshSeconds int               `koanf:"metrics_refresh_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		Title:             "Badminton Koun",
		FontSize:          14,
		Marker:            string(tally.DefaultMarker),
		CellFormat:        "marker",
		PerUnitCost:       20,
		PerPersonFee:      60,
		SessionCapacity:   1024,
		SessionTTLMinutes: 720,
		MaxUploadBytes:    5 << 20,

		MetricsNamespace:      "koun",
		MetricsSubsystem:      "session",
		MetricsRefreshSeconds: 10,
	}
}

// Tariffs returns the configured default tariffs.
func (c *Config) Tariffs() model.Tariffs {
	return model.NewTariffs(c.PerUnitCost, c.PerPersonFee, c.CourtRentalFee, c.ReferencePerUnitCost)
}

// MarkerRune returns the configured marker character.
func (c *Config) MarkerRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Marker)
	return r
}

// SessionTTL returns the idle session lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// MetricsRefresh returns how often runtime gauges are refreshed.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshSeconds) * time.Second
}

// JSONLogs reports whether logs are encoded as JSON.
func (c *Config) JSONLogs() bool {
	return strings.EqualFold(c.LogFormat, "json")
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case utf8.RuneCountInString(c.Marker) != 1:
		return fmt.Errorf("%w: marker must be a single character, got %q", ErrInvalidConfig, c.Marker)
	case c.FontSize <= 0:
		return fmt.Errorf("%w: font_size must be positive", ErrInvalidConfig)
	case c.SessionCapacity < 0:
		return fmt.Errorf("%w: session_capacity must not be negative", ErrInvalidConfig)
	case c.SessionTTLMinutes < 0:
		return fmt.Errorf("%w: session_ttl_minutes must not be negative", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.MetricsRefreshSeconds < 0:
		return fmt.Errorf("%w: metrics_refresh_seconds must not be negative", ErrInvalidConfig)
	case !metricName(c.MetricsNamespace):
		return fmt.Errorf("%w: metrics_namespace %q is not a metric name", ErrInvalidConfig, c.MetricsNamespace)
	case !metricName(c.MetricsSubsystem):
		return fmt.Errorf("%w: metrics_subsystem %q is not a metric name", ErrInvalidConfig, c.MetricsSubsystem)
	}
	for _, key := range []struct{ name, value string }{{"ink", c.Ink}, {"paper", c.Paper}} {
		if _, err := render.ParseColor(key.value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key.name, err)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := tally.ParseCellFormat(c.CellFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// metricName reports whether s can prefix a Prometheus metric name.
// Empty is allowed and keeps the default.
func metricName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
