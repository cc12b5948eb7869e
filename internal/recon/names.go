package recon

import (
	"fmt"
	"strings"

	"github.com/HerbHall/aetherlink/pkg/models"
)

// deviceName picks a friendly display name for a device: a usable
// hostname wins, then vendor plus device kind, then a generic name
// keyed by the last address octet.
func deviceName(ip, hostname, vendor string, devType models.DeviceType) string {
	if usableHostname(hostname, ip) {
		return strings.TrimSuffix(hostname, ".")
	}

	suffix := lastOctet(ip)
	if vendor != "" {
		switch devType {
		case models.DeviceTypePhone:
			return fmt.Sprintf("%s Phone (%s)", vendor, suffix)
		case models.DeviceTypeLaptop:
			return fmt.Sprintf("%s Laptop (%s)", vendor, suffix)
		case models.DeviceTypeTV:
			return fmt.Sprintf("%s TV (%s)", vendor, suffix)
		case models.DeviceTypeSpeaker:
			return fmt.Sprintf("%s Speaker (%s)", vendor, suffix)
		case models.DeviceTypePrinter:
			return fmt.Sprintf("%s Printer (%s)", vendor, suffix)
		case models.DeviceTypeRouter:
			return fmt.Sprintf("%s Router (%s)", vendor, suffix)
		default:
			return fmt.Sprintf("%s Device (%s)", vendor, suffix)
		}
	}

	return "Device " + suffix
}

// usableHostname rejects hostnames that are empty, just echo the IP,
// or contain the "?" placeholder some resolvers emit.
func usableHostname(hostname, ip string) bool {
	return hostname != "" && hostname != ip && !strings.Contains(hostname, "?")
}

func lastOctet(ip string) string {
	if i := strings.LastIndex(ip, "."); i >= 0 && i+1 < len(ip) {
		return ip[i+1:]
	}
	return ip
}
