package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration:
// load YAML files from configDir, expand environment variables, parse,
// build registries, validate.
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	zones, err := loadZones(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}
	agents, err := loadAgents(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}
	modelsYAML, err := loadModels(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	system, err := loadSystem(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}

	zoneCatalog := NewZoneCatalog(zones.Zones)
	agentCatalog := NewAgentCatalog(agents.Agents)
	if err := ValidateAgentsMatchZones(zoneCatalog, agentCatalog); err != nil {
		return nil, err
	}

	cfg := &Config{
		configDir: configDir,
		Zones:     zoneCatalog,
		Agents:    agentCatalog,
		Models:    NewModelRegistry(modelsYAML),
		System:    system,
	}
	stats := cfg.Stats()
	log.Info("configuration initialized", "zones", stats.Zones, "agents", stats.Agents)
	return cfg, nil
}

func readYAML(configDir, filename string, out any) error {
	path := filepath.Join(configDir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}
	data = ExpandEnv(data)
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
	}
	return nil
}

func loadZones(configDir string) (ZonesYAML, error) {
	var z ZonesYAML
	err := readYAML(configDir, "zones.yaml", &z)
	return z, err
}

func loadAgents(configDir string) (AgentsYAML, error) {
	var a AgentsYAML
	err := readYAML(configDir, "agents.yaml", &a)
	return a, err
}

func loadModels(configDir string) (ModelsYAML, error) {
	var m ModelsYAML
	if err := readYAML(configDir, "models.yaml", &m); err != nil {
		return m, err
	}
	if m.Default == "" && len(m.Allowed) > 0 {
		m.Default = m.Allowed[0]
	}
	return m, nil
}

func loadSystem(configDir string) (SystemYAML, error) {
	var s SystemYAML
	if err := readYAML(configDir, "system.yaml", &s); err != nil {
		return s, err
	}
	return mergeSystemYAML(s)
}
