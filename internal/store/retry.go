package store

import (
	"context"
	"fmt"
	"time"
)

const (
	retryAttempts = 3
	retryBaseWait = 50 * time.Millisecond
)

// withRetry runs op up to retryAttempts times with doubling backoff.
// Domain rejections and context cancellation end the loop immediately;
// only transient persistence failures are retried.
func (s *gormStore) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			wait := retryBaseWait << (attempt - 1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		err = op()
		if err == nil || isDomainError(err) || ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("store operation failed after %d attempts: %w", retryAttempts, err)
}
