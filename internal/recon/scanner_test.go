package recon

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/pkg/models"
)

type fakeSource struct {
	name  string
	cands []Candidate
	dups  []DuplicateIP
	err   error
	calls int
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Discover(ctx context.Context) ([]Candidate, []DuplicateIP, error) {
	s.calls++
	return s.cands, s.dups, s.err
}

func TestScannerFallsBackAcrossSources(t *testing.T) {
	primary := &fakeSource{name: "primary", err: errors.New("tool missing")}
	fallback := &fakeSource{name: "fallback", cands: []Candidate{
		{IP: "192.168.1.10", MAC: "aa:bb:cc:dd:ee:01"},
	}}

	s := NewScanner(ScannerOpts{
		Sources: []Source{primary, fallback},
		Logger:  zap.NewNop(),
	})

	cands, _, err := s.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, fallback.calls)
	}
	if len(cands) != 1 {
		t.Fatalf("candidates = %+v", cands)
	}
}

func TestScannerErrorsWhenAllSourcesFail(t *testing.T) {
	s := NewScanner(ScannerOpts{
		Sources: []Source{
			&fakeSource{name: "a", err: errors.New("a failed")},
			&fakeSource{name: "b", err: errors.New("b failed")},
		},
		Logger: zap.NewNop(),
	})

	if _, _, err := s.Discover(context.Background()); err == nil {
		t.Fatal("expected error when every source fails")
	}
}

func TestScannerEnrichesFromVendorTable(t *testing.T) {
	src := &fakeSource{name: "src", cands: []Candidate{
		{IP: "192.168.1.10", MAC: "b8:27:eb:aa:bb:cc"},
		{IP: "192.168.1.11", MAC: "aa:bb:cc:dd:ee:01", Vendor: "Custom"},
	}}

	s := NewScanner(ScannerOpts{
		Sources: []Source{src},
		Vendors: NewVendorTable(),
		Logger:  zap.NewNop(),
	})

	cands, _, err := s.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if cands[0].Vendor != "Raspberry Pi Foundation" || cands[0].Type != models.DeviceTypeIoT {
		t.Errorf("OUI enrichment missing: %+v", cands[0])
	}
	// Source-provided vendor wins over the table.
	if cands[1].Vendor != "Custom" {
		t.Errorf("vendor overwritten: %+v", cands[1])
	}
	if cands[1].Type != models.DeviceTypeUnknown {
		t.Errorf("type should default to unknown: %+v", cands[1])
	}
}

type fakeResolver map[string]string

func (r fakeResolver) HostnameFor(ip string) string { return r[ip] }

func TestScannerEnrichesHostnames(t *testing.T) {
	src := &fakeSource{name: "src", cands: []Candidate{
		{IP: "192.168.1.10", MAC: "aa:bb:cc:dd:ee:01"},
	}}

	s := NewScanner(ScannerOpts{
		Sources:   []Source{src},
		Hostnames: fakeResolver{"192.168.1.10": "marys-macbook.local"},
		Logger:    zap.NewNop(),
	})

	cands, _, _ := s.Discover(context.Background())
	if cands[0].Hostname != "marys-macbook.local" {
		t.Errorf("hostname = %q, want marys-macbook.local", cands[0].Hostname)
	}
}

func TestScannerProbesNewDevices(t *testing.T) {
	src := &fakeSource{name: "src", cands: []Candidate{
		{IP: "192.168.1.10", MAC: "aa:bb:cc:dd:ee:01"},
		{IP: "192.168.1.11", MAC: "aa:bb:cc:dd:ee:02"},
	}}

	probed := make(map[string]bool)
	latency := 12.5
	s := NewScanner(ScannerOpts{
		Sources: []Source{src},
		Probe: func(ctx context.Context, ip string) (*ProbeResult, error) {
			probed[ip] = true
			return &ProbeResult{LatencyMs: &latency, LossPct: 0}, nil
		},
		ProbeRate: 1000,
		Logger:    zap.NewNop(),
	})

	cands, _, err := s.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(probed) != 2 {
		t.Fatalf("probed = %v, want both new devices", probed)
	}
	for _, c := range cands {
		if !c.Probed {
			t.Errorf("candidate %s not marked probed", c.IP)
		}
		if c.LatencyMs == nil || *c.LatencyMs != 12.5 {
			t.Errorf("candidate %s latency = %v", c.IP, c.LatencyMs)
		}
	}
}

func TestScannerSamplesKnownDevices(t *testing.T) {
	src := &fakeSource{name: "src", cands: []Candidate{
		{IP: "192.168.1.10", MAC: "aa:bb:cc:dd:ee:01"},
		{IP: "192.168.1.11", MAC: "aa:bb:cc:dd:ee:02"},
		{IP: "192.168.1.12", MAC: "aa:bb:cc:dd:ee:03"},
	}}

	var probes int
	s := NewScanner(ScannerOpts{
		Sources: []Source{src},
		Probe: func(ctx context.Context, ip string) (*ProbeResult, error) {
			probes++
			return &ProbeResult{LossPct: 100}, nil
		},
		ProbeRate:  1000,
		SampleSize: 1,
		Known:      func(string) bool { return true },
		Logger:     zap.NewNop(),
	})

	if _, _, err := s.Discover(context.Background()); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if probes != 1 {
		t.Errorf("probes = %d, want 1 (sample of known set)", probes)
	}

	// Next cycle rotates to a different known device.
	src.calls = 0
	if _, _, err := s.Discover(context.Background()); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if probes != 2 {
		t.Errorf("probes = %d, want 2 after rotation", probes)
	}
}

func TestScannerProbeFailureLeavesCandidateUnprobed(t *testing.T) {
	src := &fakeSource{name: "src", cands: []Candidate{
		{IP: "192.168.1.10", MAC: "aa:bb:cc:dd:ee:01"},
	}}

	s := NewScanner(ScannerOpts{
		Sources: []Source{src},
		Probe: func(ctx context.Context, ip string) (*ProbeResult, error) {
			return nil, errors.New("icmp socket unavailable")
		},
		ProbeRate: 1000,
		Logger:    zap.NewNop(),
	})

	cands, _, _ := s.Discover(context.Background())
	if cands[0].Probed {
		t.Error("failed probe must not mark candidate probed")
	}
}
