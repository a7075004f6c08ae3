package apiclient

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/admin-console/internal"
)

// TokenSource owns the session tokens the client attaches and renews.
type TokenSource interface {
	AccessToken() string
	// Refresh exchanges the refresh token for a new access token. On failure
	// the session is already cleared.
	Refresh(ctx context.Context) (string, error)
	// Expire ends the session after an unrecoverable authentication failure.
	Expire(ctx context.Context, cause error)
}

type refreshResult struct {
	token string
	err   error
}

// refresher lets exactly one refresh run at a time. Callers arriving while one
// is in flight park on a buffered channel and are released in arrival order.
type refresher struct {
	source  TokenSource
	timeout time.Duration
	metrics *Metrics
	logger  *slog.Logger

	mu         sync.Mutex
	inProgress bool
	waiters    []chan refreshResult
}

func newRefresher(source TokenSource, timeout time.Duration, metrics *Metrics, logger *slog.Logger) *refresher {
	return &refresher{
		source:  source,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// token returns an access token to retry with. staleToken is the token the
// rejected request carried; if the session already moved past it no refresh
// is started.
func (r *refresher) token(ctx context.Context, staleToken string) (string, error) {
	r.mu.Lock()

	if r.inProgress {
		ch := make(chan refreshResult, 1)
		r.waiters = append(r.waiters, ch)
		r.metrics.refreshWaiters.Inc()
		r.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", internal.NewNetworkError("request cancelled while waiting for token refresh", internal.ErrCodeRequestCancelled, ctx.Err())
		}
	}

	if current := r.source.AccessToken(); current != "" && current != staleToken {
		r.mu.Unlock()
		r.metrics.refreshes.WithLabelValues("reused").Inc()
		return current, nil
	}

	r.inProgress = true
	r.mu.Unlock()

	// the refresh outlives a single caller's cancellation since queued
	// requests depend on it
	refreshCtx, cancel := internal.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	token, err := r.source.Refresh(refreshCtx)
	if err != nil {
		r.metrics.refreshes.WithLabelValues("failure").Inc()
		r.logger.Warn("token refresh failed", "error", err)
		r.source.Expire(refreshCtx, err)
	} else {
		r.metrics.refreshes.WithLabelValues("success").Inc()
		r.logger.Debug("token refreshed")
	}

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.inProgress = false
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshResult{token: token, err: err}
		r.metrics.refreshWaiters.Dec()
	}
	if len(waiters) > 0 {
		r.logger.Debug("released queued requests", "count", len(waiters), "refreshed", err == nil)
	}

	return token, err
}

func (r *refresher) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
