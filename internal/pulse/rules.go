package pulse

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/HerbHall/aetherlink/pkg/models"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

type ruleSeed struct {
	Rules []struct {
		ID                 string  `yaml:"id"`
		Category           string  `yaml:"category"`
		Enabled            bool    `yaml:"enabled"`
		LatencyThresholdMs float64 `yaml:"latency_threshold_ms"`
		LossThresholdPct   float64 `yaml:"loss_threshold_pct"`
		OfflineTimeoutSec  int     `yaml:"offline_timeout_sec"`
	} `yaml:"rules"`
}

// defaultRules parses the embedded rule seed. The seed ships with the
// binary, so a parse failure is a build defect, not a runtime
// condition.
func defaultRules() ([]models.AlertRule, error) {
	var seed ruleSeed
	if err := yaml.Unmarshal(defaultRulesYAML, &seed); err != nil {
		return nil, fmt.Errorf("parse embedded rules: %w", err)
	}
	rules := make([]models.AlertRule, 0, len(seed.Rules))
	for _, r := range seed.Rules {
		rules = append(rules, models.AlertRule{
			ID:                 r.ID,
			Category:           models.AlertCategory(r.Category),
			Enabled:            r.Enabled,
			LatencyThresholdMs: r.LatencyThresholdMs,
			LossThresholdPct:   r.LossThresholdPct,
			OfflineTimeoutSec:  r.OfflineTimeoutSec,
		})
	}
	return rules, nil
}
