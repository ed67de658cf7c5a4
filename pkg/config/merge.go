package config

import (
	"fmt"
	"time"

	"dario.cat/mergo"
)

// defaultSystemYAML returns built-in defaults, merged beneath whatever
// the operator supplies in system.yaml.
func defaultSystemYAML() SystemYAML {
	return SystemYAML{
		Cache: CacheYAML{
			TTL:        24 * time.Hour,
			MaxEntries: 1024,
		},
		Jobs: JobsYAML{
			TTL: time.Hour,
		},
		Upstream: UpstreamYAML{
			Transport: "http",
		},
	}
}

// mergeSystemYAML merges a loaded system.yaml over the built-in defaults:
// any non-zero field the operator set overrides the default.
func mergeSystemYAML(loaded SystemYAML) (SystemYAML, error) {
	merged := defaultSystemYAML()
	if err := mergo.Merge(&merged, loaded, mergo.WithOverride); err != nil {
		return SystemYAML{}, fmt.Errorf("merge system config: %w", err)
	}
	return merged, nil
}
