package service

import (
	"time"

	"github.com/acircuit-ctrlV/badminton-koun/internal/adapters/repository"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/tally"
	"github.com/acircuit-ctrlV/badminton-koun/internal/render"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngine sets the tally engine.
func WithEngine(e *tally.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithRenderer sets the table renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithStore replaces the session store. When set, WithSessionCapacity and
// WithSessionTTL are ignored.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithDefaultTariffs sets the tariffs new sessions start with.
func WithDefaultTariffs(t model.Tariffs) Option {
	return func(s *Service) {
		s.defaultTariffs = t
	}
}

// WithSessionCapacity bounds the number of live sessions.
func WithSessionCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithSessionTTL sets how long an untouched session is kept.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
