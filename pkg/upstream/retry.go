package upstream

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryingClient wraps a Client with exponential backoff over transient
// upstream failures — a 5xx or 429 status, or a network-level error
// reaching the gateway at all. A 4xx response is the gateway telling us
// our request was wrong; retrying it would just repeat the mistake, so
// RetryingClient gives up immediately instead.
type RetryingClient struct {
	next       Client
	maxElapsed time.Duration
}

// NewRetryingClient wraps next. maxElapsed bounds the total time spent
// retrying a single call; a zero value uses a 30s default.
func NewRetryingClient(next Client, maxElapsed time.Duration) *RetryingClient {
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}
	return &RetryingClient{next: next, maxElapsed: maxElapsed}
}

func (c *RetryingClient) CreateAssistant(ctx context.Context, name, systemPrompt string) (string, error) {
	var assistantID string
	err := c.run(ctx, func() error {
		var err error
		assistantID, err = c.next.CreateAssistant(ctx, name, systemPrompt)
		return err
	})
	return assistantID, err
}

func (c *RetryingClient) CreateThread(ctx context.Context, assistantID string) (string, error) {
	var threadID string
	err := c.run(ctx, func() error {
		var err error
		threadID, err = c.next.CreateThread(ctx, assistantID)
		return err
	})
	return threadID, err
}

func (c *RetryingClient) SendMessage(ctx context.Context, threadID, content, model, provider string) (string, error) {
	var reply string
	err := c.run(ctx, func() error {
		var err error
		reply, err = c.next.SendMessage(ctx, threadID, content, model, provider)
		return err
	})
	return reply, err
}

// run retries op with exponential backoff until it succeeds, a
// non-retryable error surfaces, or maxElapsed is exhausted.
func (c *RetryingClient) run(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxElapsedTime = c.maxElapsed
	policy := backoff.WithContext(b, ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		slog.Warn("upstream call failed, retrying", "attempt", attempt, "error", err)
		return err
	}, policy)
}

// retryable reports whether err is worth another attempt: a network
// error, or an upstream Error carrying a 429 or 5xx status.
func retryable(err error) bool {
	var upstreamErr *Error
	if errors.As(err, &upstreamErr) {
		return upstreamErr.Status == 429 || upstreamErr.Status >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
