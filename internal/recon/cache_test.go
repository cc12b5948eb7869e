package recon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HerbHall/aetherlink/pkg/models"
)

func TestScanCacheServesWithinTTL(t *testing.T) {
	var calls int32
	cache := NewScanCache(time.Minute, func(ctx context.Context) ([]models.Device, error) {
		atomic.AddInt32(&calls, 1)
		return []models.Device{{ID: "d1"}}, nil
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		snap, err := cache.Get(ctx, false)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(snap) != 1 || snap[0].ID != "d1" {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestScanCacheRefreshesAfterTTL(t *testing.T) {
	var calls int32
	cache := NewScanCache(time.Minute, func(ctx context.Context) ([]models.Device, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.SetNowFunc(func() time.Time { return now })

	ctx := context.Background()
	cache.Get(ctx, false)
	now = now.Add(2 * time.Minute)
	cache.Get(ctx, false)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("refresh calls = %d, want 2", got)
	}
}

func TestScanCacheForceBypassesTTL(t *testing.T) {
	var calls int32
	cache := NewScanCache(time.Minute, func(ctx context.Context) ([]models.Device, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	ctx := context.Background()
	cache.Get(ctx, false)
	cache.Get(ctx, true)

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("refresh calls = %d, want 2", got)
	}
}

func TestScanCacheCoalescesConcurrentRefresh(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	cache := NewScanCache(time.Nanosecond, func(ctx context.Context) ([]models.Device, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []models.Device{{ID: "d1"}}, nil
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := cache.Get(ctx, true)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			if len(snap) != 1 {
				t.Errorf("unexpected snapshot: %+v", snap)
			}
		}()
	}

	// Give the goroutines time to pile onto the in-flight call, then
	// release the single refresh.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// Stragglers that arrived after the refresh finished may start a
	// second one; the point is we never get one per caller.
	if got := atomic.LoadInt32(&calls); got > 2 {
		t.Errorf("refresh calls = %d, want at most 2", got)
	}
}

func TestScanCacheDegradesToLastGoodSnapshot(t *testing.T) {
	var fail atomic.Bool
	cache := NewScanCache(time.Nanosecond, func(ctx context.Context) ([]models.Device, error) {
		if fail.Load() {
			return nil, errors.New("scan tooling unavailable")
		}
		return []models.Device{{ID: "d1"}}, nil
	})

	ctx := context.Background()
	if _, err := cache.Get(ctx, true); err != nil {
		t.Fatalf("first Get: %v", err)
	}

	fail.Store(true)
	snap, err := cache.Get(ctx, true)
	if err != nil {
		t.Fatalf("degraded Get should not error, got %v", err)
	}
	if len(snap) != 1 || snap[0].ID != "d1" {
		t.Fatalf("expected last good snapshot, got %+v", snap)
	}
}

func TestScanCacheErrorsWithoutSnapshot(t *testing.T) {
	cache := NewScanCache(time.Minute, func(ctx context.Context) ([]models.Device, error) {
		return nil, errors.New("scan tooling unavailable")
	})

	if _, err := cache.Get(context.Background(), false); err == nil {
		t.Fatal("expected error before any good snapshot exists")
	}
	if _, ok := cache.Last(); ok {
		t.Error("Last should report no snapshot")
	}
	if _, ok := cache.Age(); ok {
		t.Error("Age should report no snapshot")
	}
}
