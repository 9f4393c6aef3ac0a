package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fundsight/analyst/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

type fundamentalsEntry struct {
	rec       models.Fundamentals
	expiresAt time.Time
}

// CachedFundamentals keeps successful lookups for ttl so a model asking for
// the same ticker twice in a session does not hit the provider again.
// Concurrent misses for one ticker share a single fetch.
type CachedFundamentals struct {
	next FundamentalsProvider
	ttl  time.Duration
	now  func() time.Time

	mu    sync.RWMutex
	store map[string]fundamentalsEntry
	sf    singleflight.Group
}

func NewCachedFundamentals(next FundamentalsProvider, ttl time.Duration) *CachedFundamentals {
	return &CachedFundamentals{
		next:  next,
		ttl:   ttl,
		now:   time.Now,
		store: make(map[string]fundamentalsEntry),
	}
}

// Fundamentals implements FundamentalsProvider. Errors are never cached.
func (c *CachedFundamentals) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	key := strings.ToUpper(strings.TrimSpace(ticker))
	if c.ttl <= 0 || key == "" {
		return c.next.Fundamentals(ctx, ticker)
	}

	if rec, ok := c.get(key); ok {
		log.Debug().Str("symbol", key).Msg("fundamentals cache hit")
		return rec, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if rec, ok := c.get(key); ok {
			return rec, nil
		}
		fetchCtx, cancel := detach(ctx)
		defer cancel()
		rec, err := c.next.Fundamentals(fetchCtx, key)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			c.set(key, *rec)
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	rec, _ := v.(*models.Fundamentals)
	if rec == nil {
		return nil, nil
	}
	// Callers may fill in fields; hand each one its own copy.
	cp := *rec
	return &cp, nil
}

// detach keeps ctx's values and deadline but not its cancellation, so one
// caller giving up does not fail the others waiting on the shared fetch.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return base, func() {}
}

func (c *CachedFundamentals) get(key string) (*models.Fundamentals, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[key]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false
	}
	rec := e.rec
	return &rec, true
}

func (c *CachedFundamentals) set(key string, rec models.Fundamentals) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = fundamentalsEntry{rec: rec, expiresAt: c.now().Add(c.ttl)}
}
