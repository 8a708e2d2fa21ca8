package retry

import (
	"context"
	"log"
	"time"
)

// Defaults applied when a Policy field is zero.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 500 * time.Millisecond
)

// Policy describes a bounded exponential backoff: after attempt n fails, the
// next try waits base_delay * 2^n. No jitter is applied.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Do invokes op, retrying on failure until the policy is exhausted. The last
// failure is returned. Waiting respects ctx cancellation.
func (p Policy) Do(ctx context.Context, label string, op func() error) error {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	baseDelay := p.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	var err error
	for attempt := 0; ; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		delay := baseDelay << attempt
		log.Printf("%s failed (attempt %d/%d), retrying in %s: %v", label, attempt+1, maxRetries+1, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
