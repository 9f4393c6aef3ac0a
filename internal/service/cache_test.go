package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fundsight/analyst/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (p *countingProvider) Fundamentals(_ context.Context, ticker string) (*models.Fundamentals, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return nil, p.err
	}
	return &models.Fundamentals{Symbol: ticker, CurrentPrice: models.Float(100)}, nil
}

func TestCachedFundamentalsHitAndExpiry(t *testing.T) {
	p := &countingProvider{}
	c := NewCachedFundamentals(p, time.Minute)
	now := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	rec, err := c.Fundamentals(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol)

	rec.Symbol = "mutated"
	rec, err = c.Fundamentals(context.Background(), " AAPL ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", rec.Symbol, "cached entries are copied out")
	assert.Equal(t, int32(1), p.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = c.Fundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestCachedFundamentalsSkipsErrors(t *testing.T) {
	p := &countingProvider{err: errors.New("timeout")}
	c := NewCachedFundamentals(p, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := c.Fundamentals(context.Background(), "MSFT")
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestCachedFundamentalsDisabled(t *testing.T) {
	p := &countingProvider{}
	c := NewCachedFundamentals(p, 0)

	for i := 0; i < 3; i++ {
		_, err := c.Fundamentals(context.Background(), "TSLA")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestCachedFundamentalsSharesConcurrentFetch(t *testing.T) {
	p := &countingProvider{delay: 50 * time.Millisecond}
	c := NewCachedFundamentals(p, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fundamentals(context.Background(), "NVDA")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), p.calls.Load())
}

type blockingProvider struct {
	started  chan struct{}
	release  chan struct{}
	deadline bool
}

func (p *blockingProvider) Fundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	_, p.deadline = ctx.Deadline()
	close(p.started)
	<-p.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &models.Fundamentals{Symbol: ticker, CurrentPrice: models.Float(42)}, nil
}

func TestCachedFundamentalsFetchOutlivesCallerCancel(t *testing.T) {
	p := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	c := NewCachedFundamentals(p, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	errc := make(chan error, 1)
	go func() {
		_, err := c.Fundamentals(ctx, "AMD")
		errc <- err
	}()

	<-p.started
	cancel()
	close(p.release)
	require.NoError(t, <-errc)
	assert.True(t, p.deadline, "the caller's deadline still bounds the fetch")

	rec, err := c.Fundamentals(context.Background(), "AMD")
	require.NoError(t, err)
	require.NotNil(t, rec.CurrentPrice)
	assert.Equal(t, 42.0, *rec.CurrentPrice, "the shared result was cached")
}
