package session

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/plugin/ai/cache"
)

const cachePrefix = "session:"

// MemoryStore keeps sessions in an LRU cache with a TTL. Entries idle past the
// TTL are evicted by the cache sweeper; capacity bounds the number of sessions.
type MemoryStore struct {
	cache *cache.Service
	ttl   time.Duration
}

// NewMemoryStore creates a store holding up to capacity sessions for ttl each.
func NewMemoryStore(capacity int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.NewService(cache.ServiceConfig{
			Name:       "sessions",
			Capacity:   capacity,
			DefaultTTL: ttl,
		}),
		ttl: ttl,
	}
}

// Close stops the cache sweeper.
func (m *MemoryStore) Close() {
	m.cache.Close()
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	data, ok := m.cache.Get(ctx, cachePrefix+id)
	if !ok {
		return nil, nil
	}
	return decode(data)
}

func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	s.UpdatedTs = time.Now().Unix()
	data, err := encode(s)
	if err != nil {
		return err
	}
	return m.cache.Set(ctx, cachePrefix+s.ID, data, m.ttl)
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	return m.cache.Delete(ctx, cachePrefix+id)
}

func (m *MemoryStore) List(ctx context.Context, limit int) ([]Summary, error) {
	var out []Summary
	for _, key := range m.cache.Keys() {
		if !strings.HasPrefix(key, cachePrefix) {
			continue
		}
		s, err := m.Get(ctx, strings.TrimPrefix(key, cachePrefix))
		if err != nil || s == nil {
			continue
		}
		out = append(out, summarize(s))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedTs > out[j].UpdatedTs })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) CleanupExpired(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	for _, key := range m.cache.Keys() {
		data, ok := m.cache.Get(ctx, key)
		if !ok {
			continue
		}
		s, err := decode(data)
		if err != nil || s.UpdatedTs < before.Unix() {
			_ = m.cache.Delete(ctx, key)
			n++
		}
	}
	return n, nil
}

func encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrapf(err, "encode session %s", s.ID)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "decode session")
	}
	s.normalize()
	return &s, nil
}

var _ Store = (*MemoryStore)(nil)
