package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/http/api"
	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/http/site"
	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/http/swagger"
	service "github.com/acircuit-ctrlV/badminton-koun/internal/app"
	"github.com/acircuit-ctrlV/badminton-koun/internal/config"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/tally"
	"github.com/acircuit-ctrlV/badminton-koun/internal/render"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("koun: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Local development only; a missing .env is fine.
	_ = godotenv.Load()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithJSON(cfg.JSONLogs())); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	initMetrics(cfg)

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg.MaxUploadBytes),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx, metrics.RefreshInterval())
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error(context.Background(), "server stopped with error", logger.Error(err))
		return err
	}
	log.Info(context.Background(), "server stopped")
	return nil
}

// newService builds the koun service from configuration.
func newService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	format, err := tally.ParseCellFormat(cfg.CellFormat)
	if err != nil {
		return nil, err
	}
	ink, err := render.ParseColor(cfg.Ink)
	if err != nil {
		return nil, err
	}
	paper, err := render.ParseColor(cfg.Paper)
	if err != nil {
		return nil, err
	}
	engine := tally.NewEngine(
		tally.WithMarker(cfg.MarkerRune()),
		tally.WithCellFormat(format),
		tally.WithLogger(log.Named("tally")),
	)
	renderer := render.New(
		render.WithTitle(cfg.Title),
		render.WithFontFile(cfg.FontPath, cfg.FontSize),
		render.WithColors(ink, paper),
		render.WithLogger(log.Named("render")),
	)
	return service.New(
		service.WithLogger(log),
		service.WithEngine(engine),
		service.WithRenderer(renderer),
		service.WithDefaultTariffs(cfg.Tariffs()),
		service.WithSessionCapacity(cfg.SessionCapacity),
		service.WithSessionTTL(cfg.SessionTTL()),
	), nil
}

// initMetrics rebuilds the global metrics with the configured naming.
func initMetrics(cfg *config.Config) {
	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithCustomLabels(cfg.MetricsLabels),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
	)
}

// newMux mounts the API, the documentation and the landing page.
func newMux(ctx context.Context, svc *service.Service, maxBodyBytes int64) *http.ServeMux {
	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, maxBodyBytes).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
