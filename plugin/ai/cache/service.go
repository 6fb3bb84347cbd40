package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Name            string        // used in log lines
	Capacity        int           // Maximum number of entries (default: 1000)
	DefaultTTL      time.Duration // Default TTL for entries (default: 5 minutes)
	CleanupInterval time.Duration // Interval for expired entry cleanup (default: 1 minute)
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:            "cache",
		Capacity:        1000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// Service implements CacheService on top of LRU with a background sweeper.
type Service struct {
	name string
	lru  *LRU[[]byte]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cleanupInterval time.Duration
}

// NewService creates a new cache service and starts its sweeper.
func NewService(cfg ServiceConfig) *Service {
	def := DefaultServiceConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = def.DefaultTTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		name:            cfg.Name,
		lru:             NewLRU[[]byte](cfg.Capacity, cfg.DefaultTTL),
		ctx:             ctx,
		cancel:          cancel,
		cleanupInterval: cfg.CleanupInterval,
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// OnEvict registers a callback for evicted keys.
func (s *Service) OnEvict(fn func(key string, reason EvictReason)) {
	s.lru.OnEvict(func(key string, _ []byte, reason EvictReason) {
		fn(key, reason)
	})
}

// Close stops the sweeper.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// Get retrieves a copy of a cached value.
func (s *Service) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := s.lru.Get(key)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Set stores a copy of value.
func (s *Service) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.Set(key, append([]byte(nil), value...), ttl)
	return nil
}

// Delete removes key.
func (s *Service) Delete(_ context.Context, key string) error {
	s.lru.Delete(key)
	return nil
}

// Invalidate invalidates cache entries matching the pattern.
func (s *Service) Invalidate(_ context.Context, pattern string) error {
	s.lru.Invalidate(pattern)
	return nil
}

// Keys returns the cached keys, most recently used first.
func (s *Service) Keys() []string {
	return s.lru.Keys()
}

// Size returns the number of entries in the cache.
func (s *Service) Size() int {
	return s.lru.Len()
}

// Clear removes all entries from the cache.
func (s *Service) Clear() {
	s.lru.Clear()
}

func (s *Service) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if n := s.lru.CleanupExpired(); n > 0 {
				slog.Debug("cache sweep", "cache", s.name, "expired", n)
			}
		}
	}
}

var _ CacheService = (*Service)(nil)
