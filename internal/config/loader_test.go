package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/acircuit-ctrlV/badminton-koun/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Marker, convey.ShouldEqual, "l")
				convey.So(cfg.PerUnitCost, convey.ShouldEqual, 20.0)
				convey.So(cfg.PerPersonFee, convey.ShouldEqual, 60.0)
				convey.So(cfg.SessionCapacity, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("KOUN_ADDR", ":8080")
			_ = os.Setenv("KOUN_PER_UNIT_COST", "25.5")
			_ = os.Setenv("KOUN_PER_PERSON_FEE", "40")
			_ = os.Setenv("KOUN_MARKER", "x")
			_ = os.Setenv("KOUN_CELL_FORMAT", "count")
			_ = os.Setenv("KOUN_SESSION_CAPACITY", "16")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PerUnitCost, convey.ShouldEqual, 25.5)
				convey.So(cfg.PerPersonFee, convey.ShouldEqual, 40.0)
				convey.So(cfg.MarkerRune(), convey.ShouldEqual, 'x')
				convey.So(cfg.CellFormat, convey.ShouldEqual, "count")
				convey.So(cfg.SessionCapacity, convey.ShouldEqual, 16)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
title: "Friday Club"
court_rental_fee: 300
reference_per_unit_cost: 85
session_ttl_minutes: 60
log_format: json
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KOUN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Title, convey.ShouldEqual, "Friday Club")
				convey.So(cfg.CourtRentalFee, convey.ShouldEqual, 300.0)
				convey.So(cfg.ReferencePerUnitCost, convey.ShouldEqual, 85.0)
				convey.So(cfg.SessionTTLMinutes, convey.ShouldEqual, 60)
				convey.So(cfg.JSONLogs(), convey.ShouldBeTrue)
				convey.So(cfg.PerUnitCost, convey.ShouldEqual, 20.0) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
court_rental_fee: 300
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KOUN_CONFIG", tmpFile)
			_ = os.Setenv("KOUN_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")          // Overridden by env
				convey.So(cfg.CourtRentalFee, convey.ShouldEqual, 300.0)  // From file
				convey.So(cfg.SessionTTLMinutes, convey.ShouldEqual, 720) // From defaults
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KOUN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("KOUN_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("KOUN_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a two character marker", func() {
			_ = os.Setenv("KOUN_MARKER", "ll")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("KOUN_SESSION_CAPACITY", "invalid")
			_ = os.Setenv("KOUN_PER_UNIT_COST", "twenty")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigLoaderEdgeCases(t *testing.T) {
	convey.Convey("Given config loader edge cases", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with zero and negative tariffs", func() {
			_ = os.Setenv("KOUN_PER_UNIT_COST", "0")
			_ = os.Setenv("KOUN_PER_PERSON_FEE", "-10")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are accepted as given", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.PerUnitCost, convey.ShouldEqual, 0.0)
				convey.So(cfg.PerPersonFee, convey.ShouldEqual, -10.0)
			})
		})

		convey.Convey("When loading config with YAML file containing comments", func() {
			yamlContent := `
# listen address
addr: ":7070"   # inline comment
# expiry
session_ttl_minutes: 0
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KOUN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should parse YAML with comments", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.SessionTTLMinutes, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When loading config with colors and metrics settings", func() {
			yamlContent := `
ink: "#1e3a8a"
paper: "#fffbeb"
metrics_namespace: club
metrics_buckets: [1, 5, 25]
metrics_labels:
  site: north
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KOUN_CONFIG", tmpFile)
			_ = os.Setenv("KOUN_METRICS_REFRESH_SECONDS", "30")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are all read", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Ink, convey.ShouldEqual, "#1e3a8a")
				convey.So(cfg.Paper, convey.ShouldEqual, "#fffbeb")
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "club")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "session")
				convey.So(cfg.MetricsBuckets, convey.ShouldResemble, []float64{1, 5, 25})
				convey.So(cfg.MetricsLabels, convey.ShouldResemble, map[string]string{"site": "north"})
				convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 30*time.Second)
			})
		})

		convey.Convey("When loading config with an ink that is not a color", func() {
			_ = os.Setenv("KOUN_INK", "navy")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ink")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown log format", func() {
			_ = os.Setenv("KOUN_LOG_FORMAT", "xml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"KOUN_CONFIG",
		"KOUN_ADDR",
		"KOUN_MARKER",
		"KOUN_CELL_FORMAT",
		"KOUN_LOG_FORMAT",
		"KOUN_PER_UNIT_COST",
		"KOUN_PER_PERSON_FEE",
		"KOUN_SESSION_CAPACITY",
		"KOUN_INK",
		"KOUN_METRICS_REFRESH_SECONDS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "koun-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
