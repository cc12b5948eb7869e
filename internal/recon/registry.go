package recon

import (
	"sort"
	"sync"
	"time"

	"github.com/HerbHall/aetherlink/pkg/models"
)

// DeviceEventType classifies a registry state transition.
type DeviceEventType string

const (
	DeviceConnected      DeviceEventType = "connected"
	DeviceDisconnected   DeviceEventType = "disconnected"
	DeviceAddressChanged DeviceEventType = "address_changed"
	DeviceQualityChanged DeviceEventType = "quality_changed"
)

// DeviceEvent describes one state transition detected during
// reconciliation.
type DeviceEvent struct {
	Type   DeviceEventType `json:"type"`
	Device models.Device   `json:"device"`
	OldIP  string          `json:"old_ip,omitempty"`
	NewIP  string          `json:"new_ip,omitempty"`
}

// Registry is the stateful reconciliation engine. It owns the
// authoritative device set and the activity log; all access goes
// through its operation set, serialized by an internal mutex.
//
// Devices are never physically removed: a device absent from a cycle is
// marked offline and drops out of the live snapshot, but its history
// (first seen, connection count, name) is retained so a returning MAC
// resumes its identity instead of starting over.
type Registry struct {
	mu         sync.Mutex
	devices    map[string]*models.Device
	activities *ActivityLog
	now        func() time.Time
}

// NewRegistry creates an empty registry with the given activity-log
// capacity.
func NewRegistry(activityCap int) *Registry {
	return &Registry{
		devices:    make(map[string]*models.Device),
		activities: NewActivityLog(activityCap),
		now:        time.Now,
	}
}

// SetNowFunc overrides the registry time source (tests only).
func (r *Registry) SetNowFunc(now func() time.Time) { r.now = now }

// Known reports whether a MAC has ever been observed.
func (r *Registry) Known(mac string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.devices[models.DeviceID(mac)]
	return ok
}

// Reconcile folds one cycle of discovery candidates into the device
// set and returns the live snapshot plus the state-transition events
// this cycle produced. Candidates are assumed pre-validated (normalized
// MAC, no all-zero addresses); reconciliation itself cannot fail.
func (r *Registry) Reconcile(candidates []Candidate) ([]models.Device, []DeviceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	seen := make(map[string]bool, len(candidates))
	var events []DeviceEvent

	for _, c := range candidates {
		id := models.DeviceID(c.MAC)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		d, ok := r.devices[id]
		if !ok {
			d = r.admit(id, c, now)
			events = append(events, DeviceEvent{Type: DeviceConnected, Device: *d})
			continue
		}

		if d.Status == models.DeviceStatusOffline {
			d.Status = models.DeviceStatusOnline
			d.ConnectionCount++
			r.activities.Add(d.Name, "Reconnected to network", now)
			events = append(events, DeviceEvent{Type: DeviceConnected, Device: *d})
		}

		if c.IP != "" && c.IP != d.IP {
			oldIP := d.IP
			d.IP = c.IP
			r.activities.Add(d.Name, "IP address changed from "+oldIP+" to "+c.IP, now)
			events = append(events, DeviceEvent{
				Type:   DeviceAddressChanged,
				Device: *d,
				OldIP:  oldIP,
				NewIP:  c.IP,
			})
		}

		d.LastSeen = now
		if changed := applyProbe(d, c); changed {
			events = append(events, DeviceEvent{Type: DeviceQualityChanged, Device: *d})
			r.activities.Add(d.Name, "Connection quality changed to "+string(d.Quality), now)
		}
	}

	// Anything previously online that did not show up this cycle goes
	// offline with exactly one disconnect event.
	for id, d := range r.devices {
		if seen[id] || d.Status == models.DeviceStatusOffline {
			continue
		}
		d.Status = models.DeviceStatusOffline
		r.activities.Add(d.Name, "Disconnected from network", now)
		events = append(events, DeviceEvent{Type: DeviceDisconnected, Device: *d})
	}

	return r.snapshotLocked(), events
}

// admit creates a brand-new device from its first observation.
func (r *Registry) admit(id string, c Candidate, now time.Time) *models.Device {
	devType := c.Type
	if devType == "" {
		devType = models.DeviceTypeUnknown
	}
	d := &models.Device{
		ID:              id,
		MAC:             c.MAC,
		IP:              c.IP,
		Name:            deviceName(c.IP, c.Hostname, c.Vendor, devType),
		Status:          models.DeviceStatusOnline,
		Type:            devType,
		Vendor:          c.Vendor,
		FirstSeen:       now,
		LastSeen:        now,
		ConnectionCount: 1,
	}
	applyProbe(d, c)
	r.devices[id] = d
	r.activities.Add(d.Name, "Connected to network", now)
	return d
}

// applyProbe folds probe samples into the device and reports whether
// the quality tier changed. Unprobed candidates leave the previous
// figures untouched (stale but present, never fabricated).
func applyProbe(d *models.Device, c Candidate) bool {
	if !c.Probed {
		return false
	}
	prev := d.Quality
	d.LatencyMs = c.LatencyMs
	loss := c.LossPct
	d.PacketLossPct = &loss
	d.Quality = models.AssessQuality(c.LatencyMs, c.LossPct)
	return prev != "" && d.Quality != prev
}

// Snapshot returns the current live (online) device list.
func (r *Registry) Snapshot() []models.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []models.Device {
	out := make([]models.Device, 0, len(r.devices))
	for _, d := range r.devices {
		if d.Status == models.DeviceStatusOnline {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a device (online or offline) by registry ID.
func (r *Registry) Get(id string) (models.Device, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return models.Device{}, false
	}
	return *d, true
}

// Counts returns the number of online and total known devices.
func (r *Registry) Counts() (online, known int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		if d.Status == models.DeviceStatusOnline {
			online++
		}
	}
	return online, len(r.devices)
}

// Activities returns up to limit recent activity records, newest first.
func (r *Registry) Activities(limit int) []models.Activity {
	return r.activities.Recent(limit)
}
