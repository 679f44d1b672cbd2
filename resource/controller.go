// Package resource throttles bulk archive transfers: a worker semaphore
// bounds concurrent transfers and a token bucket bounds IO throughput.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxTransfers is the maximum number of concurrent transfers.
	// If 0, defaults to 1.
	MaxTransfers int64

	// IOLimitBytesPerSec is the maximum IO throughput across all transfers.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages transfer concurrency and IO bandwidth.
// A nil Controller imposes no limits.
type Controller struct {
	cfg Config

	transferSem *semaphore.Weighted
	ioLimiter   *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxTransfers <= 0 {
		cfg.MaxTransfers = 1
	}

	c := &Controller{
		cfg:         cfg,
		transferSem: semaphore.NewWeighted(cfg.MaxTransfers),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireTransfer reserves a transfer slot, blocking until one is free or ctx
// is canceled.
func (c *Controller) AcquireTransfer(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.transferSem.Acquire(ctx, 1)
}

// TryAcquireTransfer reserves a transfer slot without blocking.
func (c *Controller) TryAcquireTransfer() bool {
	if c == nil {
		return true
	}
	return c.transferSem.TryAcquire(1)
}

// ReleaseTransfer releases a transfer slot.
func (c *Controller) ReleaseTransfer() {
	if c == nil {
		return
	}
	c.transferSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the bucket are reserved in bucket-sized chunks, so a
// caller's buffer size never has to fit the configured limit.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
