package recon

import (
	"context"
	"sync"
	"time"

	"github.com/HerbHall/aetherlink/pkg/models"
)

// refreshFunc performs one full discovery cycle and returns the
// resulting live snapshot.
type refreshFunc func(ctx context.Context) ([]models.Device, error)

type refreshCall struct {
	done chan struct{}
	snap []models.Device
	err  error
}

// ScanCache deduplicates concurrent and closely-spaced discovery
// requests. Within the TTL every caller gets the cached snapshot
// without touching the network; past the TTL exactly one caller runs
// the refresh while the rest block on its result. A failed refresh
// degrades to the last good snapshot when one exists.
type ScanCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	refresh  refreshFunc
	last     []models.Device
	lastAt   time.Time
	hasLast  bool
	inflight *refreshCall
	now      func() time.Time
}

// NewScanCache wraps refresh with TTL-based request coalescing.
func NewScanCache(ttl time.Duration, refresh refreshFunc) *ScanCache {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &ScanCache{ttl: ttl, refresh: refresh, now: time.Now}
}

// SetNowFunc overrides the cache time source (tests only).
func (c *ScanCache) SetNowFunc(now func() time.Time) { c.now = now }

// Get returns the device snapshot, serving from cache within the TTL.
// force bypasses the TTL check but still coalesces with an in-flight
// refresh rather than starting a second one.
func (c *ScanCache) Get(ctx context.Context, force bool) ([]models.Device, error) {
	c.mu.Lock()

	if !force && c.hasLast && c.now().Sub(c.lastAt) < c.ttl {
		snap := c.last
		c.mu.Unlock()
		return snap, nil
	}

	if call := c.inflight; call != nil {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.snap, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	c.inflight = call
	c.mu.Unlock()

	snap, err := c.refresh(ctx)

	c.mu.Lock()
	c.inflight = nil
	if err == nil {
		c.last = snap
		c.lastAt = c.now()
		c.hasLast = true
	} else if c.hasLast {
		// Keep serving the last good snapshot through a failed cycle.
		snap, err = c.last, nil
	}
	call.snap, call.err = snap, err
	c.mu.Unlock()

	close(call.done)
	return snap, err
}

// Last returns the cached snapshot without triggering a refresh.
func (c *ScanCache) Last() ([]models.Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// Age returns how old the cached snapshot is; ok is false before the
// first successful refresh.
func (c *ScanCache) Age() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasLast {
		return 0, false
	}
	return c.now().Sub(c.lastAt), true
}
