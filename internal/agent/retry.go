package agent

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/fundsight/analyst/internal/models"
	"github.com/fundsight/analyst/internal/tools"
	"github.com/openai/openai-go/v2"
	"github.com/rs/zerolog/log"
)

// RetryDecider bounds every model call with a timeout and retries transient
// failures with exponential backoff.
type RetryDecider struct {
	inner      Decider
	maxRetries int
	timeout    time.Duration
	newBackOff func() backoff.BackOff
}

func NewRetryDecider(inner Decider, maxRetries int, timeout time.Duration) *RetryDecider {
	return &RetryDecider{
		inner:      inner,
		maxRetries: maxRetries,
		timeout:    timeout,
		newBackOff: defaultBackOff,
	}
}

// WithBackOff replaces the backoff policy; tests use a zero-delay one.
func (r *RetryDecider) WithBackOff(f func() backoff.BackOff) *RetryDecider {
	r.newBackOff = f
	return r
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 8 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	return b
}

// Decide implements Decider.
func (r *RetryDecider) Decide(ctx context.Context, history []models.Turn, agentTools []tools.Tool) (*Decision, error) {
	var (
		dec     *Decision
		attempt int
	)
	op := func() error {
		attempt++
		callCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		d, err := r.inner.Decide(callCtx, history, agentTools)
		if err != nil {
			if !isRetryable(ctx, err) {
				return backoff.Permanent(err)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("model call failed, retrying")
			return err
		}
		dec = d
		return nil
	}

	maxRetries := r.maxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(maxRetries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return dec, nil
}

// isRetryable treats network errors, per-call timeouts, 408/409/429 and 5xx
// as transient. A cancelled parent context is never retried.
func isRetryable(parent context.Context, err error) bool {
	if parent.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	if status, ok := apiStatus(err); ok {
		switch {
		case status == http.StatusRequestTimeout,
			status == http.StatusConflict,
			status == http.StatusTooManyRequests,
			status >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}
	return true
}

func apiStatus(err error) (int, bool) {
	var aerr *anthropic.Error
	if errors.As(err, &aerr) {
		return aerr.StatusCode, true
	}
	var oerr *openai.Error
	if errors.As(err, &oerr) {
		return oerr.StatusCode, true
	}
	return 0, false
}
