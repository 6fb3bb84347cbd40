package router

import (
	"context"
	"encoding/hex"
	"hash/fnv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hrygo/ghiseu/internal/textutil"
	"github.com/hrygo/ghiseu/plugin/ai/cache"
	"github.com/hrygo/ghiseu/plugin/ai/memory"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
)

// DecisionCache remembers confident classifier answers for identical messages
// in identical conversations and collapses concurrent classifications of the
// same input into one call.
type DecisionCache struct {
	lru   *cache.LRU[Result]
	group singleflight.Group
	ttl   time.Duration
}

// NewDecisionCache creates a cache holding up to capacity decisions for ttl.
func NewDecisionCache(capacity int, ttl time.Duration) *DecisionCache {
	return &DecisionCache{
		lru: cache.NewLRU[Result](capacity, ttl),
		ttl: ttl,
	}
}

// cacheKey ignores case, spacing and diacritics of the message. The history
// the classifier sees is part of the key: the same words can mean different
// programs in different conversations.
func cacheKey(text string, recent []memory.Turn) string {
	folded := textutil.Fold(text)
	if folded == "" {
		return ""
	}
	if len(recent) == 0 {
		return folded
	}
	h := fnv.New64a()
	for _, t := range recent {
		_, _ = h.Write([]byte(t.Role))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(textutil.Fold(t.Text)))
		_, _ = h.Write([]byte{0})
	}
	return folded + "#" + hex.EncodeToString(h.Sum(nil))
}

// Classify returns a cached answer or calls next once per key.
// Only StatusOK results at or above threshold are stored.
// The shared call runs detached from any single caller's cancellation;
// each caller still stops waiting when its own ctx is done.
func (d *DecisionCache) Classify(ctx context.Context, next Classifier, text string, recent []memory.Turn, threshold float64) (Result, bool) {
	key := cacheKey(text, recent)
	if key == "" {
		return next.Classify(ctx, text, recent), false
	}
	if r, ok := d.lru.Get(key); ok {
		return r, true
	}

	ch := d.group.DoChan(key, func() (any, error) {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout.ClassifierTimeout)
		defer cancel()
		r := next.Classify(cctx, text, recent)
		if r.Status == StatusOK && r.Confidence >= threshold && r.Action != ActionAskClarify {
			d.lru.Set(key, r, d.ttl)
		}
		return r, nil
	})
	select {
	case res := <-ch:
		return res.Val.(Result), false
	case <-ctx.Done():
		return Result{Status: StatusUnavailable, Intent: IntentUnknown, Err: ctx.Err()}, false
	}
}

// Len returns the number of cached decisions.
func (d *DecisionCache) Len() int {
	return d.lru.Len()
}
