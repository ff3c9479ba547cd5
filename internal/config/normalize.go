package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFolders()

	c.Policy = strings.ToLower(strings.TrimSpace(c.Policy))
	c.MainRef = strings.TrimSpace(c.MainRef)
	if c.MainRef == "" {
		c.MainRef = defaultMainRef
	}
	c.ChangeRequests.Provider = strings.ToLower(strings.TrimSpace(c.ChangeRequests.Provider))
	if c.ChangeRequests.Provider == "" {
		c.ChangeRequests.Provider = "none"
	}

	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		tz = "Local"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	c.Timezone, c.location = tz, loc

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Root) == "" {
		c.Root = "."
	}
	if c.Root, err = expandPath(c.Root); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	for _, field := range []struct {
		key   string
		value *string
		def   string
	}{
		{"tracker_dir", &c.TrackerDir, defaultTrackerDir},
		{"state_dir", &c.StateDir, defaultStateDir},
		{"ledger_path", &c.LedgerPath, defaultLedgerPath},
		{"lock_file", &c.LockFile, defaultLockFile},
		{"metrics_textfile", &c.MetricsTextfile, ""},
	} {
		v := strings.TrimSpace(*field.value)
		if v == "" {
			v = field.def
		}
		if v == "" {
			*field.value = ""
			continue
		}
		if !filepath.IsAbs(v) && !strings.HasPrefix(v, "~") {
			v = filepath.Join(c.Root, v)
		}
		if *field.value, err = expandPath(v); err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeFolders() {
	out := make(map[string]string, len(c.Folders))
	for name, dir := range c.Folders {
		out[strings.ToLower(strings.TrimSpace(name))] = strings.Trim(filepath.ToSlash(strings.TrimSpace(dir)), "/")
	}
	c.Folders = out
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
