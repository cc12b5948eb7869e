package pulse

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HerbHall/aetherlink/pkg/models"
)

// ErrRuleNotFound is returned when updating an unknown rule ID.
var ErrRuleNotFound = errors.New("rule not found")

// maxAlertHistory bounds the retained alert history.
const maxAlertHistory = 100

// Engine evaluates alert rules against device observations. Active
// alerts are keyed by deterministic IDs so a persisting condition holds
// one alert open instead of stacking duplicates; acknowledging is the
// only way an alert leaves the active set.
type Engine struct {
	mu      sync.Mutex
	rules   map[string]models.AlertRule
	order   []string
	active  map[string]models.Alert
	history []models.Alert
	now     func() time.Time
}

// NewEngine creates an engine seeded with the embedded default rules.
func NewEngine() (*Engine, error) {
	rules, err := defaultRules()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		rules:  make(map[string]models.AlertRule, len(rules)),
		active: make(map[string]models.Alert),
		now:    time.Now,
	}
	for _, r := range rules {
		e.rules[r.ID] = r
		e.order = append(e.order, r.ID)
	}
	return e, nil
}

// SetNowFunc overrides the engine time source (tests only).
func (e *Engine) SetNowFunc(now func() time.Time) { e.now = now }

// RaiseNewDevice raises an informational alert for a first-time device.
func (e *Engine) RaiseNewDevice(d models.Device) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.enabledRule(models.AlertNewDevice); !ok {
		return nil
	}
	return e.raise(models.Alert{
		ID:         "newdevice-" + d.ID,
		Category:   models.AlertNewDevice,
		Severity:   models.SeverityInfo,
		Title:      "New Device Detected",
		Message:    fmt.Sprintf("%s joined the network at %s", d.Name, d.IP),
		DeviceID:   d.ID,
		DeviceName: d.Name,
	})
}

// RaiseOffline raises a warning for a device that dropped off the
// network.
func (e *Engine) RaiseOffline(d models.Device) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.enabledRule(models.AlertDeviceOffline); !ok {
		return nil
	}
	return e.raise(models.Alert{
		ID:         "offline-" + d.ID,
		Category:   models.AlertDeviceOffline,
		Severity:   models.SeverityWarning,
		Title:      "Device Offline",
		Message:    fmt.Sprintf("%s is no longer responding", d.Name),
		DeviceID:   d.ID,
		DeviceName: d.Name,
	})
}

// RaiseDuplicateIP raises a critical alert for an IP claimed by more
// than one hardware address.
func (e *Engine) RaiseDuplicateIP(ip string, macs []string) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.enabledRule(models.AlertDuplicateIP); !ok {
		return nil
	}
	return e.raise(models.Alert{
		ID:       "dupip-" + ip,
		Category: models.AlertDuplicateIP,
		Severity: models.SeverityCritical,
		Title:    "Duplicate IP Address",
		Message:  fmt.Sprintf("IP %s is claimed by multiple devices: %s", ip, strings.Join(macs, ", ")),
	})
}

// EvaluateThresholds checks latency and loss rules against a device's
// probe figures and returns any newly raised alerts.
func (e *Engine) EvaluateThresholds(d models.Device) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var raised []models.Alert

	if rule, ok := e.enabledRule(models.AlertHighLatency); ok {
		if d.LatencyMs != nil && *d.LatencyMs > rule.LatencyThresholdMs {
			raised = append(raised, e.raise(models.Alert{
				ID:         "latency-" + d.ID,
				Category:   models.AlertHighLatency,
				Severity:   models.SeverityWarning,
				Title:      "High Latency Detected",
				Message:    fmt.Sprintf("%s is responding at %.0f ms (threshold %.0f ms)", d.Name, *d.LatencyMs, rule.LatencyThresholdMs),
				DeviceID:   d.ID,
				DeviceName: d.Name,
			})...)
		}
	}

	if rule, ok := e.enabledRule(models.AlertPacketLoss); ok {
		if d.PacketLossPct != nil && *d.PacketLossPct > rule.LossThresholdPct {
			raised = append(raised, e.raise(models.Alert{
				ID:         "packetloss-" + d.ID,
				Category:   models.AlertPacketLoss,
				Severity:   models.SeverityError,
				Title:      "Packet Loss Detected",
				Message:    fmt.Sprintf("%s is dropping %.0f%% of packets (threshold %.0f%%)", d.Name, *d.PacketLossPct, rule.LossThresholdPct),
				DeviceID:   d.ID,
				DeviceName: d.Name,
			})...)
		}
	}

	return raised
}

// raise adds the alert unless one with the same ID is already active.
// Returns the newly raised alert, or nil when deduplicated. Caller
// holds the mutex.
func (e *Engine) raise(a models.Alert) []models.Alert {
	if _, exists := e.active[a.ID]; exists {
		return nil
	}
	a.Timestamp = e.now().UTC()
	e.active[a.ID] = a
	e.history = append(e.history, a)
	if len(e.history) > maxAlertHistory {
		e.history = e.history[len(e.history)-maxAlertHistory:]
	}
	return []models.Alert{a}
}

// enabledRule finds the enabled rule for a category. Caller holds the
// mutex.
func (e *Engine) enabledRule(cat models.AlertCategory) (models.AlertRule, bool) {
	for _, id := range e.order {
		r := e.rules[id]
		if r.Category == cat && r.Enabled {
			return r, true
		}
	}
	return models.AlertRule{}, false
}

// Acknowledge retires an active alert. The alert stays in history with
// its acknowledgement recorded; a condition that persists past the
// acknowledgement raises a fresh alert on its next breach.
func (e *Engine) Acknowledge(id string) (models.Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.active[id]
	if !ok {
		return models.Alert{}, false
	}
	now := e.now().UTC()
	a.Acknowledged = true
	a.AcknowledgedAt = &now
	delete(e.active, id)

	// Record the acknowledgement on the newest matching history entry.
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.history[i].ID == id {
			e.history[i] = a
			break
		}
	}
	return a, true
}

// Active returns unacknowledged alerts, newest first.
func (e *Engine) Active() []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// History returns up to limit retained alerts, newest first.
func (e *Engine) History(limit int) []models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	if limit <= 0 || limit > len(e.history) {
		limit = len(e.history)
	}
	out := make([]models.Alert, 0, limit)
	for i := len(e.history) - 1; i >= len(e.history)-limit; i-- {
		out = append(out, e.history[i])
	}
	return out
}

// Rules returns all rules in seed order.
func (e *Engine) Rules() []models.AlertRule {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.AlertRule, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.rules[id])
	}
	return out
}

// UpdateRule replaces a rule whole. The rule keeps its ID; partial
// merges are the caller's problem.
func (e *Engine) UpdateRule(id string, rule models.AlertRule) (models.AlertRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.rules[id]; !ok {
		return models.AlertRule{}, ErrRuleNotFound
	}
	rule.ID = id
	e.rules[id] = rule
	return rule, nil
}
