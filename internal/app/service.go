// Package service holds koun sessions and runs the tally engine and the
// renderer on them. It implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/repository"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/tally"
	"github.com/acircuit-ctrlV/badminton-koun/internal/render"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
)

const (
	defaultCapacity = 1024
	defaultTTL      = 12 * time.Hour

	// LabelLayout formats the default session label.
	LabelLayout = "2006-01-02"
)

// DefaultTariffs are used when no tariffs are configured.
var DefaultTariffs = model.NewTariffs(20, 60, 0, 0) //nolint:gochecknoglobals // immutable defaults

// runner is implemented by stores that need a background loop.
type runner interface {
	Run(ctx context.Context) error
}

// Service implements the API dependencies for koun sessions.
type Service struct {
	mu sync.RWMutex
	// writeMu serializes read-modify-write cycles on stored sessions.
	writeMu sync.Mutex

	// Core components
	engine   *tally.Engine
	renderer *render.Renderer
	store    repository.Store

	// Configuration
	defaultTariffs model.Tariffs
	capacity       int
	ttl            time.Duration
	now            func() time.Time

	// State
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		defaultTariffs: DefaultTariffs,
		capacity:       defaultCapacity,
		ttl:            defaultTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.engine == nil {
		s.engine = tally.NewEngine(tally.WithLogger(s.logger.Named("tally")))
	}
	if s.renderer == nil {
		s.renderer = render.New(render.WithLogger(s.logger.Named("render")))
	}
	return s
}

// Start creates the session store and starts its expiry loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting koun service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(
			repository.WithCapacity(s.capacity),
			repository.WithTTL(s.ttl),
			repository.WithClock(s.now),
			repository.WithLogger(s.logger.Named("store")),
		)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	go func(st repository.Store, done chan struct{}) {
		defer close(done)
		if r, ok := st.(runner); ok {
			if err := r.Run(runCtx); err != nil {
				s.logger.Error(runCtx, "session store stopped", logger.Error(err))
			}
			return
		}
		<-runCtx.Done()
	}(s.store, s.done)

	s.started = true
	s.logger.Info(ctx, "koun service started",
		logger.Int("sessionCapacity", s.capacity),
		logger.Duration("sessionTTL", s.ttl),
		logger.String("marker", string(s.engine.Marker())),
	)
	return nil
}

// Stop shuts down the expiry loop. Stored sessions stay readable until the
// process exits.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping koun service...")
	s.cancel()
	<-s.done
	s.started = false
	s.logger.Info(context.Background(), "koun service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"sessionCapacity": s.capacity,
		"sessionTTL":      s.ttl.String(),
		"marker":          string(s.engine.Marker()),
		"title":           s.renderer.Title(),
	}
	if notice := s.renderer.FontNotice(); notice != "" {
		stats["fontNotice"] = notice
	}
	if s.store != nil {
		stats["sessions"] = s.store.Count(context.Background())
	}
	return stats
}

// sessions returns the store, or ErrNotStarted before Start.
func (s *Service) sessions() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}
