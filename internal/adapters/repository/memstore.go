package repository

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/metrics"
)

const (
	defaultCapacity      = 1024
	defaultTTL           = 12 * time.Hour
	defaultSweepInterval = time.Minute
)

type entry struct {
	session model.Session
	touched time.Time
}

// MemoryStore is an in-memory Store with least-recently-used eviction and
// idle expiry.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List // front is most recently used

	capacity      int
	ttl           time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        logger.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store with the given options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		items:         make(map[string]*list.Element),
		lru:           list.New(),
		capacity:      defaultCapacity,
		ttl:           defaultTTL,
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, sess model.Session) error {
	if sess.ID == "" {
		return ErrNoID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[sess.ID]; ok && !s.expired(el) {
		return ErrExists
	} else if ok {
		s.remove(ctx, el, "expired")
	}

	el := s.lru.PushFront(&entry{session: sess.Clone(), touched: s.now()})
	s.items[sess.ID] = el

	if s.capacity > 0 {
		for s.lru.Len() > s.capacity {
			s.remove(ctx, s.lru.Back(), "evicted")
		}
	}
	metrics.UpdateActiveSessions(len(s.items))
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, err := s.lookup(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	return el.Value.(*entry).session.Clone(), nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, sess model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, err := s.lookup(ctx, sess.ID)
	if err != nil {
		return err
	}
	el.Value.(*entry).session = sess.Clone()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.remove(ctx, el, "deleted")
	metrics.UpdateActiveSessions(len(s.items))
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep(ctx context.Context) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	// Oldest entries sit at the back; stop at the first live one.
	for el := s.lru.Back(); el != nil; {
		if !s.expired(el) {
			break
		}
		prev := el.Prev()
		s.remove(ctx, el, "expired")
		removed++
		el = prev
	}
	if removed > 0 {
		metrics.UpdateActiveSessions(len(s.items))
	}
	return removed
}

// Run sweeps expired sessions until ctx is done.
func (s *MemoryStore) Run(ctx context.Context) error {
	if s.ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 && s.logger != nil {
				s.logger.Debug(ctx, "expired sessions removed", logger.Int("count", n))
			}
		}
	}
}

// lookup finds a live entry and marks it as most recently used.
func (s *MemoryStore) lookup(ctx context.Context, id string) (*list.Element, error) {
	el, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(el) {
		s.remove(ctx, el, "expired")
		metrics.UpdateActiveSessions(len(s.items))
		return nil, ErrNotFound
	}
	el.Value.(*entry).touched = s.now()
	s.lru.MoveToFront(el)
	return el, nil
}

func (s *MemoryStore) expired(el *list.Element) bool {
	return s.ttl > 0 && s.now().Sub(el.Value.(*entry).touched) > s.ttl
}

func (s *MemoryStore) remove(ctx context.Context, el *list.Element, reason string) {
	e := el.Value.(*entry)
	delete(s.items, e.session.ID)
	s.lru.Remove(el)
	metrics.RecordSessionRemoved(reason)
	if s.logger != nil && reason != "deleted" {
		s.logger.Debug(ctx, "session removed",
			logger.String("session", e.session.ID),
			logger.String("reason", reason),
		)
	}
}
