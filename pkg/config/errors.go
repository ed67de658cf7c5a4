package config

import "errors"

var (
	// ErrConfigNotFound indicates a required configuration file was missing.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidYAML indicates YAML parsing failed.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrValidationFailed indicates configuration validation failed.
	ErrValidationFailed = errors.New("configuration validation failed")

	// ErrZoneNotFound indicates a zone id was not found in the catalog.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrAgentNotFound indicates an agent key was not found in the catalog.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrModelNotAllowed indicates a model is not on the configured allow-list.
	ErrModelNotAllowed = errors.New("model not in allow-list")
)
