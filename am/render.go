package am

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/syntaxis/syntaxis/errors"
)

// Formats accepted by Marshal.
var Formats = []string{"toml", "json", "yaml"}

// Marshal renders the configuration as toml, json or yaml.
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch format {
	case "toml":
		data, err := toml.Marshal(cfg)
		return data, errors.Wrap(err, "failed to marshal config to TOML")
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		return data, errors.Wrap(err, "failed to marshal config to JSON")
	case "yaml":
		data, err := yaml.Marshal(cfg)
		return data, errors.Wrap(err, "failed to marshal config to YAML")
	}
	return nil, errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
}
