package provider

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/fatflowers/genstudio/pkg/apperr"
	"github.com/fatflowers/genstudio/pkg/logctx"
	"github.com/fatflowers/genstudio/pkg/metrics"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxAttempts = 3
)

// Retrying bounds a provider call with a deadline and retries transport
// failures, 429 and 5xx answers with exponential backoff. Other errors are
// returned after the first attempt.
type Retrying struct {
	next        ImageProvider
	timeout     time.Duration
	maxAttempts int
	log         *zap.SugaredLogger
	newBackOff  func() backoff.BackOff
}

func NewRetrying(next ImageProvider, timeout time.Duration, maxAttempts int, l *zap.SugaredLogger) *Retrying {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Retrying{
		next:        next,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		log:         l,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

func (r *Retrying) Name() string { return r.next.Name() }

func (r *Retrying) GenerateImage(ctx context.Context, req ImageRequest) (*Image, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	lg := logctx.FromCtx(ctx, r.log)
	name := r.next.Name()
	attempt := 0

	op := func() (*Image, error) {
		attempt++
		start := time.Now()
		img, err := r.next.GenerateImage(ctx, req)
		metrics.ObserveProcess("provider", name, start)
		if err == nil {
			metrics.IncProviderCall(name, "200")
			return img, nil
		}

		var pe *apperr.ProviderError
		if !errors.As(err, &pe) {
			return nil, backoff.Permanent(err)
		}
		status := strconv.Itoa(pe.StatusCode)
		if pe.Unavailable() {
			status = "unavailable"
		}
		metrics.IncProviderCall(name, status)
		if !pe.Retryable() || ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		lg.Warnw("provider call failed, will retry", "provider", name, "attempt", attempt, "status", pe.StatusCode, "err", err)
		return nil, err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), uint64(r.maxAttempts-1)), ctx)
	img, err := backoff.RetryWithData(op, b)
	if err == nil {
		return img, nil
	}

	var pe *apperr.ProviderError
	if !errors.As(err, &pe) && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		err = &apperr.ProviderError{Provider: name, Err: err}
	}
	lg.Errorw("provider call failed", "provider", name, "attempts", attempt, "err", err)
	return nil, err
}
