// Package config loads a tiercache.ManagerConfig from YAML, the
// declarative format the pack's configuration-driven services use for
// topology (handle list, update mode, backplane) rather than wiring it by
// hand in Go.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tiercache/tiercache"
)

// FromYAML parses document into a ManagerConfig and validates it.
func FromYAML(document []byte) (tiercache.ManagerConfig, error) {
	var cfg tiercache.ManagerConfig
	if err := yaml.Unmarshal(document, &cfg); err != nil {
		return tiercache.ManagerConfig{}, tiercache.NewConfigurationError("ManagerConfig", "valid yaml", err)
	}
	if err := cfg.Validate(); err != nil {
		return tiercache.ManagerConfig{}, err
	}
	return cfg, nil
}

// FromYAMLFile reads path and parses it as a ManagerConfig.
func FromYAMLFile(path string) (tiercache.ManagerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tiercache.ManagerConfig{}, tiercache.NewConfigurationError("ManagerConfig", path, err)
	}
	return FromYAML(data)
}
