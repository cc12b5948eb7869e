package recon

import (
	"fmt"
	"sync"
	"time"

	"github.com/HerbHall/aetherlink/pkg/models"
)

// maxActivityLimit clamps read requests regardless of configured
// capacity.
const maxActivityLimit = 100

// ActivityLog is a fixed-capacity ring of activity records. New entries
// overwrite the oldest once capacity is reached; reads are
// most-recent-first.
type ActivityLog struct {
	mu      sync.Mutex
	entries []models.Activity
	head    int // next write position
	size    int
	nextID  int64
}

// NewActivityLog creates a log retaining the last capacity entries.
func NewActivityLog(capacity int) *ActivityLog {
	if capacity <= 0 {
		capacity = 100
	}
	return &ActivityLog{entries: make([]models.Activity, capacity)}
}

// Add appends an activity record, evicting the oldest on overflow.
func (l *ActivityLog) Add(device, action string, ts time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	l.entries[l.head] = models.Activity{
		ID:        fmt.Sprintf("activity-%d-%d", l.nextID, ts.Unix()),
		Device:    device,
		Action:    action,
		Timestamp: ts,
	}
	l.head = (l.head + 1) % len(l.entries)
	if l.size < len(l.entries) {
		l.size++
	}
}

// Recent returns up to limit records, newest first. Limit is clamped to
// the log capacity and a hard maximum; non-positive limits yield the
// default page of 10.
func (l *ActivityLog) Recent(limit int) []models.Activity {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	if limit > l.size {
		limit = l.size
	}

	out := make([]models.Activity, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.head - i + len(l.entries)) % len(l.entries)
		out = append(out, l.entries[idx])
	}
	return out
}

// Len returns the number of retained records.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}
