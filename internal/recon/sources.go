package recon

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/HerbHall/aetherlink/pkg/models"
)

// Source produces discovery candidates from one probing strategy.
// Sources fail soft: an error means "no usable data from this
// strategy", and the scanner moves on to the next one.
type Source interface {
	Name() string
	Discover(ctx context.Context) ([]Candidate, []DuplicateIP, error)
}

// runFunc executes an external tool and returns its combined stdout.
// Injectable so parsers are testable without the tools installed.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", name, err)
	}
	return out, nil
}

// ---- arp-scan (active subnet probe) ----

// arpScanSource runs arp-scan over the local subnet. It is the
// preferred strategy: it actively solicits every host, reports a coarse
// round-trip time per reply, and flags duplicate-IP responses.
type arpScanSource struct {
	timeout time.Duration
	iface   string
	run     runFunc
}

func newArpScanSource(timeout time.Duration, iface string) *arpScanSource {
	return &arpScanSource{timeout: timeout, iface: iface, run: execRun}
}

func (s *arpScanSource) Name() string { return "arp-scan" }

func (s *arpScanSource) Discover(ctx context.Context) ([]Candidate, []DuplicateIP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []string{"--localnet", "--rtt"}
	if s.iface != "" {
		args = append(args, "--interface", s.iface)
	}

	out, err := s.run(ctx, "arp-scan", args...)
	if err != nil {
		return nil, nil, err
	}
	cands, dups := parseArpScan(string(out))
	if len(cands) == 0 {
		return nil, nil, fmt.Errorf("arp-scan: no hosts parsed")
	}
	return cands, dups, nil
}

// arpScanRTT matches the trailing round-trip time arp-scan appends
// with --rtt, e.g. "1.234".
var arpScanRTT = regexp.MustCompile(`(\d+\.\d+)\s*$`)

// parseArpScan parses arp-scan output lines of the form
//
//	192.168.1.10<TAB>aa:bb:cc:dd:ee:ff<TAB>Apple, Inc.<TAB>0.482
//
// Duplicate responses are marked "(DUP: n)" on the vendor column; the
// parser also cross-checks IPs claimed by multiple MACs directly.
func parseArpScan(out string) ([]Candidate, []DuplicateIP) {
	var cands []Candidate
	ipMACs := make(map[string][]string)

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		ip := strings.TrimSpace(fields[0])
		if net.ParseIP(ip) == nil {
			continue
		}
		mac := models.NormalizeMAC(strings.TrimSpace(fields[1]))
		if mac == "" || mac == "00:00:00:00:00:00" {
			continue
		}

		c := Candidate{IP: ip, MAC: mac}
		if len(fields) >= 3 {
			vendor := strings.TrimSpace(fields[2])
			if i := strings.Index(vendor, "(DUP:"); i >= 0 {
				vendor = strings.TrimSpace(vendor[:i])
			}
			if vendor != "" && !strings.EqualFold(vendor, "(Unknown)") {
				c.Vendor = vendor
			}
			if m := arpScanRTT.FindStringSubmatch(fields[len(fields)-1]); m != nil {
				if ms, err := strconv.ParseFloat(m[1], 64); err == nil {
					rtt := time.Duration(ms * float64(time.Millisecond))
					c.RTT = &rtt
				}
			}
		}

		ipMACs[ip] = append(ipMACs[ip], mac)
		// A "(DUP: n)" reply repeats an IP we already hold; keep the
		// first claimant as the candidate and only record the conflict.
		if len(ipMACs[ip]) > 1 {
			continue
		}
		cands = append(cands, c)
	}

	var dups []DuplicateIP
	for ip, macs := range ipMACs {
		if len(unique(macs)) > 1 {
			dups = append(dups, DuplicateIP{IP: ip, MACs: unique(macs)})
		}
	}
	return cands, dups
}

// ---- neighbor table (passive fallback) ----

// neighborSource reads the kernel's neighbor-resolution table. It has
// no timing data and only sees hosts the kernel talked to recently, but
// it needs no extra tooling and never touches the wire.
type neighborSource struct {
	timeout time.Duration
	run     runFunc
}

func newNeighborSource(timeout time.Duration) *neighborSource {
	return &neighborSource{timeout: timeout, run: execRun}
}

func (s *neighborSource) Name() string { return "neighbor-table" }

func (s *neighborSource) Discover(ctx context.Context) ([]Candidate, []DuplicateIP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if out, err := s.run(ctx, "ip", "-4", "neigh", "show"); err == nil {
		if cands := parseIPNeigh(string(out)); len(cands) > 0 {
			return cands, nil, nil
		}
	}

	out, err := s.run(ctx, "arp", "-a")
	if err != nil {
		return nil, nil, err
	}
	cands := parseArpTable(string(out))
	if len(cands) == 0 {
		return nil, nil, fmt.Errorf("neighbor table: no entries parsed")
	}
	return cands, nil, nil
}

// parseIPNeigh parses `ip -4 neigh show` lines:
//
//	192.168.1.10 dev wlan0 lladdr aa:bb:cc:dd:ee:ff REACHABLE
//
// FAILED and INCOMPLETE entries carry no usable link address.
func parseIPNeigh(out string) []Candidate {
	var cands []Candidate
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		state := fields[len(fields)-1]
		if state == "FAILED" || state == "INCOMPLETE" {
			continue
		}
		ip := fields[0]
		if net.ParseIP(ip) == nil {
			continue
		}
		var mac string
		for i, f := range fields {
			if f == "lladdr" && i+1 < len(fields) {
				mac = models.NormalizeMAC(fields[i+1])
			}
		}
		if mac == "" || mac == "00:00:00:00:00:00" {
			continue
		}
		cands = append(cands, Candidate{IP: ip, MAC: mac})
	}
	return cands
}

var (
	arpTableIP  = regexp.MustCompile(`\((\d+\.\d+\.\d+\.\d+)\)`)
	arpTableMAC = regexp.MustCompile(`(?i)([0-9a-f]{1,2}[:-]){5}[0-9a-f]{1,2}`)
)

// parseArpTable parses BSD-style `arp -a` output:
//
//	myhost.lan (192.168.1.10) at aa:bb:cc:dd:ee:ff [ether] on en0
func parseArpTable(out string) []Candidate {
	var cands []Candidate
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(strings.ToLower(line), "incomplete") {
			continue
		}
		ipm := arpTableIP.FindStringSubmatch(line)
		macm := arpTableMAC.FindString(line)
		if ipm == nil || macm == "" {
			continue
		}
		mac := models.NormalizeMAC(macm)
		if mac == "" || mac == "00:00:00:00:00:00" {
			continue
		}
		c := Candidate{IP: ipm[1], MAC: mac}
		if host := strings.TrimSpace(line[:strings.Index(line, "(")]); host != "" && host != "?" {
			c.Hostname = host
		}
		cands = append(cands, c)
	}
	return cands
}

func unique(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
