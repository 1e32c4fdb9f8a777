// Package am loads syntaxis configuration ("I am") from layered TOML files
// and SYNTAXIS_* environment variables.
package am

// Config is the complete syntaxis configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	Generation GenerationConfig `mapstructure:"generation" toml:"generation" json:"generation" yaml:"generation"`
	Server     ServerConfig     `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Log        LogConfig        `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// DatabaseConfig configures the SQLite database holding the lexicon and
// saved templates.
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// GenerationConfig configures sentence generation.
type GenerationConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts" toml:"max_attempts" json:"max_attempts" yaml:"max_attempts"` // NoMatch results tolerated per sentence
	Seed        uint64 `mapstructure:"seed" toml:"seed" json:"seed" yaml:"seed"`                                 // 0 = fresh randomness
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port              int      `mapstructure:"port" toml:"port" json:"port" yaml:"port"`
	AllowedOrigins    []string `mapstructure:"allowed_origins" toml:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	RequestsPerMinute int      `mapstructure:"requests_per_minute" toml:"requests_per_minute" json:"requests_per_minute" yaml:"requests_per_minute"` // 0 = unlimited
}

// LogConfig configures log output.
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
}

// Server port constants
const (
	DefaultServerPort  = 8977
	DefaultMaxAttempts = 10
	DefaultDatabase    = "syntaxis.db"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
