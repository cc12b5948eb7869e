package recon

import (
	"context"
	"fmt"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"github.com/HerbHall/aetherlink/pkg/models"
)

// nmapSource performs an active ping sweep of configured targets using
// nmap. It is selected via config for networks where arp-scan is
// unavailable or filtered; nmap must run privileged to see MAC
// addresses, otherwise hosts without a link address are dropped.
type nmapSource struct {
	targets []string
	timeout time.Duration
}

func newNmapSource(targets []string, timeout time.Duration) *nmapSource {
	return &nmapSource{targets: targets, timeout: timeout}
}

func (s *nmapSource) Name() string { return "nmap" }

func (s *nmapSource) Discover(ctx context.Context) ([]Candidate, []DuplicateIP, error) {
	if len(s.targets) == 0 {
		return nil, nil, fmt.Errorf("nmap: no targets configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets(s.targets...),
		nmap.WithPingScan(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nmap: create scanner: %w", err)
	}

	result, _, err := scanner.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("nmap: run: %w", err)
	}

	cands := candidatesFromNmap(result)
	if len(cands) == 0 {
		return nil, nil, fmt.Errorf("nmap: no hosts with link addresses")
	}
	return cands, nil, nil
}

func candidatesFromNmap(result *nmap.Run) []Candidate {
	if result == nil {
		return nil
	}

	var cands []Candidate
	for _, host := range result.Hosts {
		if host.Status.State != "up" {
			continue
		}

		var c Candidate
		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "ipv4":
				c.IP = addr.Addr
			case "mac":
				c.MAC = models.NormalizeMAC(addr.Addr)
				c.Vendor = addr.Vendor
			}
		}
		if c.IP == "" || c.MAC == "" || c.MAC == "00:00:00:00:00:00" {
			continue
		}
		if len(host.Hostnames) > 0 {
			c.Hostname = host.Hostnames[0].Name
		}
		cands = append(cands, c)
	}
	return cands
}
