package config

import "os"

// ExpandEnv expands environment variables in raw YAML content, supporting
// both ${VAR} and $VAR shell-style syntax. Missing variables expand to the
// empty string; validation is expected to catch fields left empty by that.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
