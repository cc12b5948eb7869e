package models

import (
	"strings"
	"time"
)

// DeviceType categorizes a network device.
type DeviceType string

const (
	DeviceTypeServer  DeviceType = "server"
	DeviceTypeDesktop DeviceType = "desktop"
	DeviceTypeLaptop  DeviceType = "laptop"
	DeviceTypePhone   DeviceType = "phone"
	DeviceTypeTablet  DeviceType = "tablet"
	DeviceTypeRouter  DeviceType = "router"
	DeviceTypePrinter DeviceType = "printer"
	DeviceTypeTV      DeviceType = "tv"
	DeviceTypeSpeaker DeviceType = "speaker"
	DeviceTypeIoT     DeviceType = "iot"
	DeviceTypeCamera  DeviceType = "camera"
	DeviceTypeUnknown DeviceType = "unknown"
)

// DeviceStatus represents the current reachability of a device.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusOffline DeviceStatus = "offline"
)

// QualityTier is the coarse connection-health bucket derived from
// latency and packet-loss samples.
type QualityTier string

const (
	QualityExcellent QualityTier = "excellent"
	QualityGood      QualityTier = "good"
	QualityFair      QualityTier = "fair"
	QualityPoor      QualityTier = "poor"
)

// Device represents a network device tracked by AetherLink.
//
// Identity is the MAC address: ID is the MAC with separators stripped,
// so the same physical interface resolves to the same device across
// disconnect/reconnect cycles even when its IP changes.
type Device struct {
	ID              string       `json:"id" example:"aabbccddeeff"`
	Name            string       `json:"name" example:"iPhone 13"`
	IP              string       `json:"ip" example:"192.168.1.10"`
	MAC             string       `json:"mac" example:"aa:bb:cc:dd:ee:ff"`
	Status          DeviceStatus `json:"status" example:"online"`
	Type            DeviceType   `json:"type" example:"phone"`
	Vendor          string       `json:"vendor,omitempty" example:"Apple"`
	LastSeen        time.Time    `json:"last_seen" example:"2026-01-15T10:30:00Z"`
	FirstSeen       time.Time    `json:"first_seen" example:"2026-01-10T08:00:00Z"`
	ConnectionCount int          `json:"connection_count" example:"3"`

	// Probe-derived figures. Nil/empty when the device has never been
	// probed; retained from the last successful probe otherwise.
	LatencyMs     *float64    `json:"latency_ms,omitempty" example:"12.4"`
	PacketLossPct *float64    `json:"packet_loss_pct,omitempty" example:"0"`
	Quality       QualityTier `json:"quality,omitempty" example:"good"`
}

// DeviceID derives the registry identity key from a MAC address.
// The MAC is lower-cased and colon/hyphen/dot separators are stripped,
// so any common textual form maps to the same key.
func DeviceID(mac string) string {
	mac = strings.ToLower(mac)
	mac = strings.ReplaceAll(mac, ":", "")
	mac = strings.ReplaceAll(mac, "-", "")
	mac = strings.ReplaceAll(mac, ".", "")
	return mac
}

// NormalizeMAC returns the canonical lower-case colon-separated form of
// a MAC address, or "" if the input is not a 6-octet address.
func NormalizeMAC(mac string) string {
	id := DeviceID(mac)
	if len(id) != 12 {
		return ""
	}
	parts := make([]string, 6)
	for i := 0; i < 6; i++ {
		parts[i] = id[i*2 : i*2+2]
	}
	return strings.Join(parts, ":")
}
