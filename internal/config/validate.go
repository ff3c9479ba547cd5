package config

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap/zapcore"

	"github.com/funstockmarket/periodgate/internal/admission"
	"github.com/funstockmarket/periodgate/internal/period"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFolders(); err != nil {
		return err
	}
	if _, err := admission.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if c.MinYear < 1 {
		return errors.New("min_year must be positive")
	}
	if err := c.validateChangeRequests(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFolders() error {
	if len(c.Folders) == 0 {
		return errors.New("folders must configure at least one cadence")
	}
	names := make([]string, 0, len(c.Folders))
	for name := range c.Folders {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := map[string]string{}
	for _, name := range names {
		if _, err := period.ParseCadence(name); err != nil {
			return fmt.Errorf("folders: %w", err)
		}
		dir := c.Folders[name]
		if dir == "" || dir == "." {
			return fmt.Errorf("folders.%s must name a folder", name)
		}
		if other, ok := seen[dir]; ok {
			return fmt.Errorf("folders.%s and folders.%s share folder %q", other, name, dir)
		}
		seen[dir] = name
	}
	return nil
}

func (c *Config) validateChangeRequests() error {
	switch c.ChangeRequests.Provider {
	case "none", "gh":
		return nil
	case "static":
		if len(c.ChangeRequests.Blocked) == 0 {
			return errors.New("change_requests.blocked must list folders when change_requests.provider is static")
		}
		return nil
	default:
		return fmt.Errorf("change_requests.provider %q must be none, static or gh", c.ChangeRequests.Provider)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
