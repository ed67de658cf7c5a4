package models

// Zone is a static, read-only catalog entry for one named region.
// Exactly one Agent represents a Zone (agent key == zone id).
type Zone struct {
	ID         string  `yaml:"id" json:"id"`
	Name       string  `yaml:"name" json:"name"`
	Lat        float64 `yaml:"latitude,omitempty" json:"latitude,omitempty"`
	Lng        float64 `yaml:"longitude,omitempty" json:"longitude,omitempty"`
	Population int     `yaml:"population,omitempty" json:"population,omitempty"`
}

// Agent is a static catalog entry for one regional stakeholder. The agent
// key is always equal to a Zone ID.
type Agent struct {
	Key          string   `yaml:"key" json:"key"`
	DisplayName  string   `yaml:"display_name" json:"display_name"`
	Role         string   `yaml:"role" json:"role"`
	Persona      string   `yaml:"persona" json:"persona"`
	DefaultStyle string   `yaml:"default_style,omitempty" json:"default_style,omitempty"`
	Tags         []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}
