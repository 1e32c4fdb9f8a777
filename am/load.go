package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/syntaxis/syntaxis/errors"
)

// EnvPrefix prefixes every environment override, e.g. SYNTAXIS_SERVER_PORT.
const EnvPrefix = "SYNTAXIS"

// ProjectConfigName is the per-project file searched for from the working
// directory upwards.
const ProjectConfigName = "syntaxis.toml"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records which file set each key during the last load.
	ConfigSources = map[string]SourceInfo{}
)

// Load reads the syntaxis configuration using Viper. The result is cached
// until Reset.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}
	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path on top of the
// defaults and environment, skipping the file cascade.
func LoadFromFile(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold mu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}
	v := newViper()
	mergeConfigFiles(v)
	viperInstance = v
	return v
}

// ConfigPath is one file of the cascade.
type ConfigPath struct {
	Source ConfigSource
	Path   string
}

// ConfigPaths lists the cascade files in precedence order, lowest first.
// Files that do not exist are included.
func ConfigPaths() []ConfigPath {
	paths := []ConfigPath{{SourceSystem, "/etc/syntaxis/config.toml"}}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, ConfigPath{SourceUser, filepath.Join(home, ".syntaxis", "am.toml")})
	}
	if project := FindProjectConfig(); project != "" {
		paths = append(paths, ConfigPath{SourceProject, project})
	}
	return paths
}

// FindProjectConfig searches for syntaxis.toml by walking up the directory
// tree. Returns the path to the first file found, or empty string if none.
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		p := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles merges configuration files in precedence order.
// Precedence (lowest to highest): system < user < project < env vars
func mergeConfigFiles(v *viper.Viper) {
	for _, cp := range ConfigPaths() {
		if _, err := os.Stat(cp.Path); err != nil {
			continue
		}
		tempViper := viper.New()
		tempViper.SetConfigFile(cp.Path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		settings := tempViper.AllSettings()
		// MergeConfigMap keeps env vars above file values; Set would not
		if err := v.MergeConfigMap(settings); err != nil {
			continue
		}
		recordSources(settings, "", SourceInfo{Source: cp.Source, Path: cp.Path})
	}
}

func recordSources(settings map[string]any, prefix string, info SourceInfo) {
	for key, value := range settings {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			recordSources(nested, full, info)
			continue
		}
		ConfigSources[full] = info
	}
}

// Get returns a configuration value using dot notation
func Get(key string) any {
	return GetViper().Get(key)
}

// IsSet reports whether key has a value from any source, defaults included.
func IsSet(key string) bool {
	return GetViper().IsSet(key)
}
