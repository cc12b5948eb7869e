package recon

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/pkg/models"
)

// Routes implements plugin.Plugin.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/devices", Handler: m.handleListDevices},
		{Method: "GET", Path: "/devices/{id}", Handler: m.handleGetDevice},
		{Method: "GET", Path: "/activities", Handler: m.handleListActivities},
		{Method: "POST", Path: "/scan", Handler: m.handleScan},
		{Method: "GET", Path: "/status", Handler: m.handleStatus},
	}
}

// handleListDevices returns the live device snapshot, served from the
// scan cache.
func (m *Module) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := m.Devices(r.Context(), false)
	if err != nil {
		m.logger.Warn("device listing failed", zap.Error(err))
		reconWriteError(w, http.StatusServiceUnavailable, "discovery unavailable")
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	reconWriteJSON(w, http.StatusOK, devices)
}

// handleGetDevice returns a single device, online or offline.
func (m *Module) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		reconWriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	device, ok := m.Device(id)
	if !ok {
		reconWriteError(w, http.StatusNotFound, "device not found")
		return
	}
	reconWriteJSON(w, http.StatusOK, device)
}

// handleListActivities returns recent activity records, newest first.
func (m *Module) handleListActivities(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			reconWriteError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	activities := m.registry.Activities(limit)
	if activities == nil {
		activities = []models.Activity{}
	}
	reconWriteJSON(w, http.StatusOK, activities)
}

// handleScan triggers a discovery cycle. Requests landing inside the
// cache TTL are answered from the cached snapshot without rescanning.
func (m *Module) handleScan(w http.ResponseWriter, r *http.Request) {
	devices, err := m.Devices(r.Context(), false)
	if err != nil {
		m.logger.Warn("scan request failed", zap.Error(err))
		reconWriteError(w, http.StatusServiceUnavailable, "discovery unavailable")
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}
	reconWriteJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleStatus returns discovery counters and snapshot age.
func (m *Module) handleStatus(w http.ResponseWriter, r *http.Request) {
	online, known := m.registry.Counts()
	status := map[string]any{
		"devices_online": online,
		"devices_known":  known,
		"scan_interval":  m.interval.String(),
	}
	if age, ok := m.cache.Age(); ok {
		status["snapshot_age_seconds"] = int(age.Seconds())
	}
	reconWriteJSON(w, http.StatusOK, status)
}

// -- helpers --

func reconWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func reconWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	slug := strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "-")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://aetherlink.dev/problems/" + slug,
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
