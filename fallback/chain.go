// Package fallback implements the ordered provider chain used by the
// script, TTS and image stages: try each provider in turn, log the
// failure, move on, and only fail when the chain is exhausted.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrSkip marks a provider as permanently unavailable for this run
// (e.g. a payment-required response). The chain moves on without
// counting it as a real failure.
var ErrSkip = errors.New("provider skipped")

// Provider is one step in a chain.
type Provider[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Chain tries providers in order and returns the first success.
type Chain[T any] struct {
	stage     string
	providers []Provider[T]
}

// NewChain builds a chain for a pipeline stage. The stage name is
// only used for log prefixes.
func NewChain[T any](stage string, providers ...Provider[T]) *Chain[T] {
	return &Chain[T]{stage: stage, providers: providers}
}

// Append adds a provider to the end of the chain.
func (c *Chain[T]) Append(p Provider[T]) {
	c.providers = append(c.providers, p)
}

// Run walks the chain. It returns the first successful value together
// with the name of the provider that produced it.
func (c *Chain[T]) Run(ctx context.Context) (T, string, error) {
	var zero T
	var failures []string
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		v, err := p.Run(ctx)
		if err == nil {
			return v, p.Name, nil
		}
		if errors.Is(err, ErrSkip) {
			log.Printf("[%s] %s skipped: %v", c.stage, p.Name, err)
			continue
		}
		log.Printf("[%s] %s failed: %v", c.stage, p.Name, err)
		failures = append(failures, fmt.Sprintf("%s: %v", p.Name, err))
	}
	return zero, "", fmt.Errorf("all providers failed: %v", failures)
}

// maxRetryDelay caps the exponential backoff.
const maxRetryDelay = 60 * time.Second

// Retry runs fn up to attempts times, doubling the delay between
// tries up to a 60s ceiling. An ErrSkip from fn is permanent and
// returns immediately without further attempts.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, ErrSkip) {
			return err
		}
		if i < attempts-1 {
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
			log.Printf("attempt %d/%d failed: %v, retrying in %s", i+1, attempts, err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, err)
}
