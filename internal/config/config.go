package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/funstockmarket/periodgate/internal/changeset"
	"github.com/funstockmarket/periodgate/internal/period"
)

//go:embed sample_config.yaml
var sampleConfig string

// ChangeRequests selects how open change requests are detected.
type ChangeRequests struct {
	// Provider is one of "none", "static" or "gh".
	Provider string `yaml:"provider" toml:"provider"`
	// Blocked lists the folders the static provider treats as blocked.
	Blocked []string `yaml:"blocked" toml:"blocked"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `yaml:"format" toml:"format"`
	Level  string `yaml:"level" toml:"level"`
}

// Config encapsulates all configuration values for periodgate.
type Config struct {
	// Root is the archive checkout; relative paths below resolve against it.
	Root string `yaml:"root" toml:"root"`
	// Folders maps a cadence name to its archive-relative folder.
	Folders    map[string]string `yaml:"folders" toml:"folders"`
	TrackerDir string            `yaml:"tracker_dir" toml:"tracker_dir"`

	Policy   string `yaml:"policy" toml:"policy"`
	MainRef  string `yaml:"main_ref" toml:"main_ref"`
	Timezone string `yaml:"timezone" toml:"timezone"`
	MinYear  int    `yaml:"min_year" toml:"min_year"`

	StateDir        string `yaml:"state_dir" toml:"state_dir"`
	LedgerPath      string `yaml:"ledger_path" toml:"ledger_path"`
	MetricsTextfile string `yaml:"metrics_textfile" toml:"metrics_textfile"`
	LockFile        string `yaml:"lock_file" toml:"lock_file"`

	ChangeRequests ChangeRequests `yaml:"change_requests" toml:"change_requests"`
	Logging        Logging        `yaml:"logging" toml:"logging"`

	location *time.Location
}

// CandidateNames are the file names searched for in the root when no
// explicit configuration path is given.
var CandidateNames = []string{"periodgate.yaml", "periodgate.yml", "periodgate.toml"}

// SampleConfig returns the annotated sample written by `config init`.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, normalizes and validates a configuration file. An
// explicit path must exist; without one the root is searched and defaults
// are used when nothing is found. It returns the config, the file used and
// whether that file existed.
func Load(path, root string) (*Config, string, bool, error) {
	cfg := Default()
	if root != "" {
		cfg.Root = root
	}

	resolved, exists, err := resolveConfigPath(path, cfg.Root)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		if err := decodeFile(resolved, cfg); err != nil {
			return nil, "", false, err
		}
		if root != "" {
			cfg.Root = root
		} else if !filepath.IsAbs(cfg.Root) {
			cfg.Root = filepath.Join(filepath.Dir(resolved), cfg.Root)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.NewDecoder(file).Decode(cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		dec := yaml.NewDecoder(file)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

func resolveConfigPath(path, root string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	base, err := expandPath(root)
	if err != nil {
		return "", false, err
	}
	for _, name := range CandidateNames {
		candidate := filepath.Join(base, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Today resolves the processing date: override (YYYY-MM-DD) when set,
// otherwise now in the configured time zone.
func (c *Config) Today(override string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(override) == "" {
		return now.In(c.Location()), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(override), c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", override, err)
	}
	return t, nil
}

// CadenceFolders returns the folder of every configured cadence.
func (c *Config) CadenceFolders() changeset.Folders {
	out := changeset.Folders{}
	for name, dir := range c.Folders {
		if cad, err := period.ParseCadence(name); err == nil {
			out[cad] = dir
		}
	}
	return out
}

// FolderDir returns the on-disk directory of a cadence folder.
func (c *Config) FolderDir(folder string) string {
	return filepath.Join(c.Root, filepath.FromSlash(folder))
}

// Marshal renders the resolved configuration as YAML.
func (c *Config) Marshal() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
