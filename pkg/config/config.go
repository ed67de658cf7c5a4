package config

// Config is the umbrella configuration object returned by Initialize and
// threaded through the core's components.
type Config struct {
	configDir string

	Zones  *ZoneCatalog
	Agents *AgentCatalog
	Models *ModelRegistry
	System SystemYAML
}

// ConfigDir returns the directory the configuration was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// ConfigStats summarizes what was loaded, useful for startup logging and a
// health endpoint.
type ConfigStats struct {
	Zones  int
	Agents int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{Zones: c.Zones.Len(), Agents: c.Agents.Len()}
}
