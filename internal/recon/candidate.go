package recon

import (
	"time"

	"github.com/HerbHall/aetherlink/pkg/models"
)

// Candidate is a single discovery-source observation before registry
// reconciliation. MAC is always normalized lower-case colon form.
type Candidate struct {
	IP       string
	MAC      string
	Hostname string
	Vendor   string
	Type     models.DeviceType
	RTT      *time.Duration

	// Probe results attached by the scanner for candidates selected
	// for active probing this cycle.
	Probed    bool
	LatencyMs *float64
	LossPct   float64
}

// DuplicateIP is the out-of-band signal for an IP claimed by more than
// one MAC, surfaced by the active probe rather than inferred downstream.
type DuplicateIP struct {
	IP   string   `json:"ip"`
	MACs []string `json:"macs"`
}
