package recon

import "github.com/HerbHall/aetherlink/pkg/models"

// Event topics published by the recon module.
const (
	TopicDeviceDiscovered = "recon.device.discovered"
	TopicDeviceLost       = "recon.device.lost"
	TopicAddressChanged   = "recon.device.address_changed"
	TopicQualityChanged   = "recon.device.quality_changed"
	TopicSnapshotUpdated  = "recon.snapshot.updated"
	TopicDuplicateIP      = "recon.duplicate_ip"
)

// SnapshotEvent is the payload for TopicSnapshotUpdated.
type SnapshotEvent struct {
	Devices []models.Device `json:"devices"`
	Online  int             `json:"online"`
	Known   int             `json:"known"`
}

// DuplicateIPEvent is the payload for TopicDuplicateIP.
type DuplicateIPEvent struct {
	IP   string   `json:"ip"`
	MACs []string `json:"macs"`
}

// topicFor maps a registry transition to its bus topic.
func topicFor(t DeviceEventType) string {
	switch t {
	case DeviceConnected:
		return TopicDeviceDiscovered
	case DeviceDisconnected:
		return TopicDeviceLost
	case DeviceAddressChanged:
		return TopicAddressChanged
	case DeviceQualityChanged:
		return TopicQualityChanged
	default:
		return ""
	}
}
