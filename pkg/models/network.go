package models

// NetworkStats summarizes host-level network figures for the dashboard.
type NetworkStats struct {
	ConnectedDevices int     `json:"connected_devices" example:"12"`
	NetworkSpeedMbps float64 `json:"network_speed" example:"450.5"`
	DataUsageGB      float64 `json:"data_usage" example:"120.6"`
	Uptime           string  `json:"uptime" example:"47d 12h"`
}

// DeviceIcon maps a DeviceType to its icon identifier. Identifiers use
// Lucide icon names (https://lucide.dev) for compatibility with the
// dashboard frontend.
var DeviceIcon = map[DeviceType]string{
	DeviceTypeServer:  "server",
	DeviceTypeDesktop: "monitor",
	DeviceTypeLaptop:  "laptop",
	DeviceTypePhone:   "smartphone",
	DeviceTypeTablet:  "tablet",
	DeviceTypeRouter:  "router",
	DeviceTypePrinter: "printer",
	DeviceTypeTV:      "tv",
	DeviceTypeSpeaker: "speaker",
	DeviceTypeIoT:     "cpu",
	DeviceTypeCamera:  "camera",
	DeviceTypeUnknown: "help-circle",
}

// Icon returns the icon identifier for a DeviceType, falling back to
// the unknown-device icon for unrecognised types.
func (dt DeviceType) Icon() string {
	if icon, ok := DeviceIcon[dt]; ok {
		return icon
	}
	return DeviceIcon[DeviceTypeUnknown]
}
