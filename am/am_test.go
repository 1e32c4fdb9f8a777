package am

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/syntaxis/syntaxis/errors"
)

// isolate points HOME and the working directory at an empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	Reset()
	t.Cleanup(Reset)

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), DefaultDirPermissions))
	require.NoError(t, os.WriteFile(path, []byte(content), DefaultFilePermissions))
}

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance without loading user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabase, cfg.Database.Path)
	assert.Equal(t, DefaultMaxAttempts, cfg.Generation.MaxAttempts)
	assert.Zero(t, cfg.Generation.Seed)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Server.RequestsPerMinute)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost")
	assert.False(t, cfg.Log.JSON)
	assert.NoError(t, cfg.Validate())
}

func TestLoadCascade(t *testing.T) {
	home := isolate(t)

	writeFile(t, filepath.Join(home, ".syntaxis", "am.toml"), `
[database]
path = "user.db"

[server]
port = 9000
`)
	writeFile(t, filepath.Join(home, "project", ProjectConfigName), `
[generation]
max_attempts = 5
seed = 42

[database]
path = "project.db"
`)
	nested := filepath.Join(home, "project", "a", "b")
	require.NoError(t, os.MkdirAll(nested, DefaultDirPermissions))
	t.Chdir(nested)
	t.Setenv("SYNTAXIS_SERVER_REQUESTS_PER_MINUTE", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "project.db", cfg.Database.Path, "project config wins over user config")
	assert.Equal(t, 9000, cfg.Server.Port, "user value survives when project is silent")
	assert.Equal(t, 5, cfg.Generation.MaxAttempts)
	assert.Equal(t, uint64(42), cfg.Generation.Seed)
	assert.Equal(t, 30, cfg.Server.RequestsPerMinute)

	assert.Equal(t, SourceProject, ConfigSources["database.path"].Source)
	assert.Equal(t, SourceUser, ConfigSources["server.port"].Source)
	assert.True(t, strings.HasSuffix(ConfigSources["generation.seed"].Path, ProjectConfigName))

	cached, err := Load()
	require.NoError(t, err)
	assert.Same(t, cfg, cached)
}

func TestEnvironmentOverridesFiles(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ProjectConfigName), "[server]\nport = 9000\n")
	t.Setenv("SYNTAXIS_SERVER_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)

	settings, err := Introspect()
	require.NoError(t, err)
	bySetting := map[string]SettingInfo{}
	for _, s := range settings {
		bySetting[s.Key] = s
	}
	assert.Equal(t, SourceEnvironment, bySetting["server.port"].Source)
	assert.Equal(t, "SYNTAXIS_SERVER_PORT", bySetting["server.port"].SourcePath)
	assert.Equal(t, SourceDefault, bySetting["log.json"].Source)
}

func TestGetAndIsSet(t *testing.T) {
	isolate(t)
	assert.True(t, IsSet("generation.max_attempts"))
	assert.False(t, IsSet("generation.nonexistent"))
	assert.EqualValues(t, DefaultMaxAttempts, Get("generation.max_attempts"))
}

func TestLoadFromFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, "[generation]\nmax_attempts = 3\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Generation.MaxAttempts)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Generation: GenerationConfig{MaxAttempts: 10},
			Server:     ServerConfig{Port: DefaultServerPort},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero rate is unlimited", func(c *Config) { c.Server.RequestsPerMinute = 0 }, ""},
		{"zero attempts", func(c *Config) { c.Generation.MaxAttempts = 0 }, "generation.max_attempts"},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"huge port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative rate", func(c *Config) { c.Server.RequestsPerMinute = -1 }, "requests_per_minute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	cfg := valid()
	cfg.Server.Port = -1
	assert.Contains(t, errors.FlattenHints(cfg.Validate()), "8977")
}

func TestAccessors(t *testing.T) {
	var cfg Config
	assert.Equal(t, DefaultDatabase, cfg.GetDatabasePath())
	assert.Contains(t, cfg.GetServerAllowedOrigins(), "http://127.0.0.1")

	cfg.Server.AllowedOrigins = []string{"https://example.org"}
	assert.Equal(t, []string{"https://example.org"}, cfg.GetServerAllowedOrigins())
	assert.Contains(t, cfg.String(), "MaxAttempts: 0")
}

func TestMarshal(t *testing.T) {
	cfg := &Config{
		Database:   DatabaseConfig{Path: "x.db"},
		Generation: GenerationConfig{MaxAttempts: 7, Seed: 3},
		Server:     ServerConfig{Port: 8000, AllowedOrigins: []string{"http://localhost"}},
	}

	data, err := Marshal(cfg, "toml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "[generation]")
	assert.Contains(t, string(data), "max_attempts = 7")

	data, err = Marshal(cfg, "json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"max_attempts": 7`)

	data, err = Marshal(cfg, "yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_attempts: 7")

	_, err = Marshal(cfg, "ini")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestConfigWatcherReloads(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, ProjectConfigName)
	writeFile(t, path, "[generation]\nmax_attempts = 4\n")

	cw, err := NewConfigWatcher(path, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	cw.debouncePeriod = 10 * time.Millisecond
	defer cw.Stop()

	reloaded := make(chan *Config, 4)
	cw.OnReload(func(c *Config) error {
		reloaded <- c
		return nil
	})
	cw.Start()

	writeFile(t, path, "[generation]\nmax_attempts = 6\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 6, cfg.Generation.MaxAttempts)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestConfigWatcherSkipsInvalidConfig(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, ProjectConfigName)
	writeFile(t, path, "[generation]\nmax_attempts = 4\n")

	cw, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)
	defer cw.Stop()

	called := false
	cw.OnReload(func(*Config) error {
		called = true
		return nil
	})

	writeFile(t, path, "[generation]\nmax_attempts = 0\n")
	require.Error(t, cw.reload())
	assert.False(t, called)
}

func TestNewConfigWatcherMissingFile(t *testing.T) {
	_, err := NewConfigWatcher(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.Error(t, err)
}
