package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/plugin"
)

type stubModule struct {
	name    string
	healthy bool
	routes  []plugin.Route
}

func (m *stubModule) Name() string                             { return m.name }
func (m *stubModule) Version() string                          { return "0.0.1" }
func (m *stubModule) Init(_ *viper.Viper, _ *zap.Logger) error { return nil }
func (m *stubModule) Start(_ context.Context) error            { return nil }
func (m *stubModule) Stop() error                              { return nil }
func (m *stubModule) Routes() []plugin.Route                   { return m.routes }
func (m *stubModule) Health(_ context.Context) plugin.HealthStatus {
	return plugin.HealthStatus{Healthy: m.healthy}
}

func newTestServer(t *testing.T, modules ...plugin.Plugin) *httptest.Server {
	t.Helper()
	reg := plugin.NewRegistry(zap.NewNop())
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if err := reg.InitAll(viper.New()); err != nil {
		t.Fatalf("InitAll: %v", err)
	}
	s := New("127.0.0.1:0", reg, zap.NewNop())
	srv := httptest.NewServer(s.mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubModule{name: "recon", healthy: true})

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["service"] != "aetherlink" {
		t.Errorf("service = %v, want aetherlink", body["service"])
	}
}

func TestHealthDegradedWhenModuleUnhealthy(t *testing.T) {
	srv := newTestServer(t,
		&stubModule{name: "recon", healthy: true},
		&stubModule{name: "pulse", healthy: false},
	)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
}

func TestModuleRoutesMounted(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}
	srv := newTestServer(t, &stubModule{
		name:    "recon",
		healthy: true,
		routes:  []plugin.Route{{Method: "GET", Path: "/devices", Handler: handler}},
	})

	resp, err := http.Get(srv.URL + "/api/v1/recon/devices")
	if err != nil {
		t.Fatalf("GET mounted route: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want module handler to answer", resp.StatusCode)
	}
}

func TestModulesEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubModule{name: "recon", healthy: true})

	resp, err := http.Get(srv.URL + "/api/v1/modules")
	if err != nil {
		t.Fatalf("GET /modules: %v", err)
	}
	defer resp.Body.Close()

	var mods []map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&mods); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(mods) != 1 || mods[0]["name"] != "recon" {
		t.Errorf("modules = %+v", mods)
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	srv := newTestServer(t,
		&stubModule{name: "recon", healthy: true},
		&stubModule{name: "pulse", healthy: false},
	)

	resp, err := http.Get(srv.URL + "/api/v1/diagnostics")
	if err != nil {
		t.Fatalf("GET /diagnostics: %v", err)
	}
	defer resp.Body.Close()

	var diag map[string]plugin.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&diag); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !diag["recon"].Healthy || diag["pulse"].Healthy {
		t.Errorf("diagnostics = %+v", diag)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got := cfg.GetString("server.port"); got != "8080" {
		t.Errorf("server.port = %q, want 8080", got)
	}
	if got := cfg.GetInt("modules.recon.probe_sample_size"); got != 5 {
		t.Errorf("probe_sample_size = %d, want 5", got)
	}
}
