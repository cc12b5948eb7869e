package recon

import (
	"bufio"
	"bytes"
	_ "embed"
	"strings"
	"sync"

	"github.com/HerbHall/aetherlink/pkg/models"
)

//go:embed oui_data.txt
var ouiRawData []byte

// VendorInfo is the result of an OUI lookup: the manufacturer and the
// device type commonly associated with that manufacturer's prefix.
type VendorInfo struct {
	Vendor string
	Type   models.DeviceType
}

// VendorTable provides MAC address prefix to vendor/device-type lookup.
// Pure data, no I/O beyond the embedded table; loaded lazily once.
type VendorTable struct {
	once  sync.Once
	table map[string]VendorInfo
}

// NewVendorTable creates a new OUI lookup table.
func NewVendorTable() *VendorTable {
	return &VendorTable{}
}

// Lookup returns vendor info for a MAC address in any common format
// (aa:bb:cc:dd:ee:ff, AA-BB-CC-DD-EE-FF, aabbccddeeff).
func (v *VendorTable) Lookup(mac string) (VendorInfo, bool) {
	v.once.Do(v.load)

	prefix := ouiPrefix(mac)
	if prefix == "" {
		return VendorInfo{}, false
	}
	info, ok := v.table[prefix]
	return info, ok
}

// load parses the embedded OUI data. Lines are tab-separated:
// PREFIX<TAB>Vendor<TAB>type, with type optional.
func (v *VendorTable) load() {
	v.table = make(map[string]VendorInfo, 256)
	scanner := bufio.NewScanner(bytes.NewReader(ouiRawData))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		prefix := strings.ToUpper(strings.TrimSpace(parts[0]))
		info := VendorInfo{
			Vendor: strings.TrimSpace(parts[1]),
			Type:   models.DeviceTypeUnknown,
		}
		if len(parts) >= 3 {
			if t := strings.TrimSpace(parts[2]); t != "" {
				info.Type = models.DeviceType(t)
			}
		}
		if prefix != "" && info.Vendor != "" {
			v.table[prefix] = info
		}
	}
}

// ouiPrefix extracts the first 3 octets of a MAC address in uppercase
// colon-separated form (e.g. "AA:BB:CC").
func ouiPrefix(mac string) string {
	id := models.DeviceID(mac)
	if len(id) < 6 {
		return ""
	}
	return strings.ToUpper(id[0:2] + ":" + id[2:4] + ":" + id[4:6])
}
