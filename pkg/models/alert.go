package models

import "time"

// AlertCategory identifies the condition class an alert reports.
type AlertCategory string

const (
	AlertNewDevice     AlertCategory = "new_device"
	AlertDeviceOffline AlertCategory = "device_offline"
	AlertHighLatency   AlertCategory = "high_latency"
	AlertPacketLoss    AlertCategory = "packet_loss"
	AlertDuplicateIP   AlertCategory = "duplicate_ip"
)

// AlertSeverity orders alerts by urgency.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityError    AlertSeverity = "error"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is a single raised condition. The ID is deterministic for
// threshold conditions (category plus subject) so repeated breaches of
// the same condition reuse one active alert instead of stacking.
type Alert struct {
	ID             string        `json:"id" example:"latency-aabbccddeeff"`
	Category       AlertCategory `json:"category" example:"high_latency"`
	Severity       AlertSeverity `json:"severity" example:"warning"`
	Title          string        `json:"title" example:"High Latency Detected"`
	Message        string        `json:"message"`
	DeviceID       string        `json:"device_id,omitempty"`
	DeviceName     string        `json:"device_name,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
	Acknowledged   bool          `json:"acknowledged"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at,omitempty"`
}

// AlertRule configures one alert category. Rules are replaced whole on
// update, never merged field by field.
type AlertRule struct {
	ID                 string        `json:"id" example:"high_latency"`
	Category           AlertCategory `json:"category" example:"high_latency"`
	Enabled            bool          `json:"enabled" example:"true"`
	LatencyThresholdMs float64       `json:"latency_threshold_ms,omitempty" example:"200"`
	LossThresholdPct   float64       `json:"loss_threshold_pct,omitempty" example:"10"`
	OfflineTimeoutSec  int           `json:"offline_timeout_sec,omitempty" example:"300"`
}
