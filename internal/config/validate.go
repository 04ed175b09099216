package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug|info|warn|error (got %q)", c.Log.Level)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	if c.Server.RateLimitPerMinute < 0 {
		return fmt.Errorf("server.rate_limit_per_minute must not be negative (got %d)", c.Server.RateLimitPerMinute)
	}

	return nil
}

func (s *StorageConfig) validate() error {
	if s.Disabled {
		return nil
	}

	if strings.TrimSpace(s.BaseDir) == "" {
		return fmt.Errorf("base_dir must not be empty")
	}

	switch s.Mode {
	case StorageModeFile, StorageModeDual:
	default:
		return fmt.Errorf("mode must be %q or %q (got %q)", StorageModeFile, StorageModeDual, s.Mode)
	}

	if strings.TrimSpace(s.DefaultUserEmail) == "" {
		return fmt.Errorf("default_user_email must not be empty")
	}

	return nil
}
