package am

import "github.com/syntaxis/syntaxis/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Generation.MaxAttempts < 1 {
		return errors.Newf("generation.max_attempts must be >= 1, got %d", c.Generation.MaxAttempts)
	}

	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.WithHintf(
			errors.Newf("server.port must be in 1-65535, got %d", c.Server.Port),
			"omit server.port for the default %d", DefaultServerPort)
	}

	// 0 = no rate limit, negative = invalid
	if c.Server.RequestsPerMinute < 0 {
		return errors.Newf("server.requests_per_minute must be >= 0, got %d", c.Server.RequestsPerMinute)
	}

	return nil
}
