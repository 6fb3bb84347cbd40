package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/plugin/ai/cache"
	"github.com/hrygo/ghiseu/store"
)

const cacheTTL = 30 * time.Minute

// SQLStore persists sessions through the store drivers, with an optional
// read-through cache in front.
type SQLStore struct {
	store *store.Store
	cache cache.CacheService
}

// NewSQLStore creates a database-backed session store. cache may be nil.
func NewSQLStore(st *store.Store, c cache.CacheService) *SQLStore {
	return &SQLStore{store: st, cache: c}
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Session, error) {
	if cached := s.loadFromCache(ctx, id); cached != nil {
		return cached, nil
	}
	rec, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "load session %s", id)
	}
	if rec == nil {
		return nil, nil
	}
	sess, err := decode(rec.Data)
	if err != nil {
		return nil, err
	}
	sess.ID = rec.ID
	sess.CreatedTs = rec.CreatedTs
	sess.UpdatedTs = rec.UpdatedTs
	s.updateCache(ctx, rec.ID, rec.Data)
	return sess, nil
}

func (s *SQLStore) Save(ctx context.Context, sess *Session) error {
	now := time.Now().Unix()
	if sess.CreatedTs == 0 {
		sess.CreatedTs = now
	}
	sess.UpdatedTs = now
	data, err := encode(sess)
	if err != nil {
		return err
	}
	if err := s.store.UpsertSession(ctx, &store.SessionRecord{
		ID:        sess.ID,
		Data:      data,
		CreatedTs: sess.CreatedTs,
		UpdatedTs: sess.UpdatedTs,
	}); err != nil {
		return errors.Wrapf(err, "save session %s", sess.ID)
	}
	s.updateCache(ctx, sess.ID, data)
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := s.store.DeleteSessions(ctx, &store.DeleteSession{ID: &id}); err != nil {
		return errors.Wrapf(err, "delete session %s", id)
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *SQLStore) List(ctx context.Context, limit int) ([]Summary, error) {
	find := &store.FindSession{}
	if limit > 0 {
		find.Limit = &limit
	}
	recs, err := s.store.ListSessions(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	out := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		sess, err := decode(rec.Data)
		if err != nil {
			slog.Warn("skipping undecodable session", "session_id", rec.ID, "error", err)
			continue
		}
		sess.ID = rec.ID
		sess.UpdatedTs = rec.UpdatedTs
		out = append(out, summarize(sess))
	}
	return out, nil
}

func (s *SQLStore) CleanupExpired(ctx context.Context, before time.Time) (int64, error) {
	cutoff := before.Unix()
	n, err := s.store.DeleteSessions(ctx, &store.DeleteSession{UpdatedBefore: &cutoff})
	if err != nil {
		return 0, errors.Wrap(err, "cleanup expired sessions")
	}
	if n > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx, cachePrefix+"*"); err != nil {
			slog.Warn("failed to invalidate session cache", "error", err)
		}
	}
	return n, nil
}

func (s *SQLStore) updateCache(ctx context.Context, id string, data []byte) {
	if s.cache == nil {
		return
	}
	key := cachePrefix + id
	if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
		slog.Warn("failed to update cache", "key", key, "error", err)
	}
}

func (s *SQLStore) loadFromCache(ctx context.Context, id string) *Session {
	if s.cache == nil {
		return nil
	}
	key := cachePrefix + id
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil
	}
	sess, err := decode(data)
	if err != nil {
		slog.Warn("failed to decode cached session", "key", key, "error", err)
		return nil
	}
	return sess
}

func (s *SQLStore) invalidateCache(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	key := cachePrefix + id
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Warn("failed to invalidate cache", "key", key, "error", err)
	}
}

var _ Store = (*SQLStore)(nil)
