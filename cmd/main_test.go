package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/acircuit-ctrlV/badminton-koun/internal/config"
	"github.com/acircuit-ctrlV/badminton-koun/internal/render"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("KOUN_ADDR", ":8080")
			_ = os.Setenv("KOUN_MARKER", "x")
			defer func() {
				_ = os.Unsetenv("KOUN_ADDR")
				_ = os.Unsetenv("KOUN_MARKER")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Marker, convey.ShouldEqual, "x")
			})
		})

		convey.Convey("When building the service from defaults", func() {
			svc, err := newService(config.New(), logger.Nop())

			convey.Convey("Then it carries the configured marker and title", func() {
				convey.So(err, convey.ShouldBeNil)
				stats := svc.GetStats()
				convey.So(stats["marker"], convey.ShouldEqual, "l")
				convey.So(stats["title"], convey.ShouldEqual, "Badminton Koun")
				convey.So(stats["started"], convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the cell format is unknown", func() {
			cfg := config.New()
			cfg.CellFormat = "roman"
			svc, err := newService(cfg, logger.Nop())

			convey.Convey("Then building the service fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(svc, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the colors are not hex colors", func() {
			cfg := config.New()
			cfg.Paper = "ivory"
			svc, err := newService(cfg, logger.Nop())

			convey.Convey("Then building the service fails", func() {
				convey.So(errors.Is(err, render.ErrColor), convey.ShouldBeTrue)
				convey.So(svc, convey.ShouldBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			convey.Convey("Then metrics manager should be creatable", func() {
				manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
				convey.So(manager, convey.ShouldNotBeNil)
			})

			convey.Convey("Then the configured naming reaches the served registry", func() {
				cfg := config.New()
				cfg.MetricsNamespace = "club"
				cfg.MetricsRefreshSeconds = 3
				initMetrics(cfg)
				defer initMetrics(config.New())

				metrics.RecordSessionCreated()
				families, err := metrics.GetRegistry().Gather()
				convey.So(err, convey.ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				convey.So(names, convey.ShouldContain, "club_session_created_total")
				convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 3*time.Second)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a started service behind the mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		svc, err := newService(config.New(), logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newMux(ctx, svc, 1<<20))
		defer srv.Close()

		convey.Convey("When probing health as JSON", func() {
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/healthz", http.NoBody)
			req.Header.Set("Accept", "application/json")
			resp, err := http.DefaultClient.Do(req)
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it reports ok", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When creating a session", func() {
			resp, err := http.Post(srv.URL+"/sessions", "application/json", strings.NewReader(`{"label":"friday"}`))
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then the session is stored", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)
				convey.So(resp.Header.Get("Location"), convey.ShouldStartWith, "/sessions/")
				convey.So(svc.GetStats()["sessions"], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When fetching the landing page", func() {
			resp, err := http.Get(srv.URL + "/")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it is served", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})

		convey.Convey("When fetching the API document", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()

			convey.Convey("Then it is served", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the metrics updater context is done", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns", func() {
				convey.So(func() {
					startSystemMetricsUpdater(ctx, 10*time.Millisecond)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating system metrics", func() {
			convey.Convey("Then it should not panic", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})
	})
}
