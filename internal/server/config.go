package server

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads server configuration from an optional YAML file plus
// AETHERLINK_* environment variables, with sane defaults for a
// single-binary deployment.
func LoadConfig(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("modules.recon.scan_interval", "5s")
	v.SetDefault("modules.recon.cache_ttl", "5s")
	v.SetDefault("modules.recon.probe_sample_size", 5)
	v.SetDefault("modules.recon.probe_rate", 10.0)
	v.SetDefault("modules.stream.ping_interval", "30s")
	v.SetDefault("modules.stats.sample_interval", "10s")

	v.SetEnvPrefix("AETHERLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("aetherlink")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/aetherlink")
		if err := v.ReadInConfig(); err != nil {
			// A config file is optional; defaults plus env suffice.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
