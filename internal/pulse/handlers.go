package pulse

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/HerbHall/aetherlink/internal/plugin"
	"github.com/HerbHall/aetherlink/pkg/models"
)

// Routes implements plugin.Plugin.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/alerts", Handler: m.handleListAlerts},
		{Method: "GET", Path: "/alerts/history", Handler: m.handleAlertHistory},
		{Method: "POST", Path: "/alerts/{id}/acknowledge", Handler: m.handleAcknowledgeAlert},
		{Method: "GET", Path: "/rules", Handler: m.handleListRules},
		{Method: "PUT", Path: "/rules/{id}", Handler: m.handleUpdateRule},
	}
}

// handleListAlerts returns active (unacknowledged) alerts, newest
// first.
func (m *Module) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := m.engine.Active()
	if alerts == nil {
		alerts = []models.Alert{}
	}
	pulseWriteJSON(w, http.StatusOK, alerts)
}

// handleAlertHistory returns retained alerts, newest first.
func (m *Module) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			pulseWriteError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	history := m.engine.History(limit)
	if history == nil {
		history = []models.Alert{}
	}
	pulseWriteJSON(w, http.StatusOK, history)
}

// handleAcknowledgeAlert retires an active alert.
func (m *Module) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		pulseWriteError(w, http.StatusBadRequest, "id is required")
		return
	}
	alert, ok := m.engine.Acknowledge(id)
	if !ok {
		pulseWriteError(w, http.StatusNotFound, "alert not found or already acknowledged")
		return
	}
	alertsActive.Set(float64(len(m.engine.Active())))
	pulseWriteJSON(w, http.StatusOK, alert)
}

// handleListRules returns all alert rules.
func (m *Module) handleListRules(w http.ResponseWriter, r *http.Request) {
	pulseWriteJSON(w, http.StatusOK, m.engine.Rules())
}

// handleUpdateRule replaces an alert rule whole.
func (m *Module) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		pulseWriteError(w, http.StatusBadRequest, "id is required")
		return
	}

	var rule models.AlertRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		pulseWriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if rule.Category == "" {
		pulseWriteError(w, http.StatusBadRequest, "category is required")
		return
	}

	updated, err := m.engine.UpdateRule(id, rule)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			pulseWriteError(w, http.StatusNotFound, "rule not found")
			return
		}
		pulseWriteError(w, http.StatusInternalServerError, "failed to update rule")
		return
	}
	pulseWriteJSON(w, http.StatusOK, updated)
}

// -- helpers --

func pulseWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func pulseWriteError(w http.ResponseWriter, status int, detail string) {
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
