package config

import (
	"github.com/funstockmarket/periodgate/internal/calendar"
	"github.com/funstockmarket/periodgate/internal/period"
)

const (
	defaultTrackerDir = "trackerFiles"
	defaultStateDir   = ".periodgate/run"
	defaultLedgerPath = ".periodgate/ledger.db"
	defaultLockFile   = ".periodgate/run.lock"
	defaultMainRef    = "origin/main"
)

// Default returns a configuration with every field at its default value.
func Default() *Config {
	folders := map[string]string{}
	for _, c := range period.Cadences() {
		folders[c.String()] = c.String()
	}
	return &Config{
		Root:       ".",
		Folders:    folders,
		TrackerDir: defaultTrackerDir,
		Policy:     "",
		MainRef:    defaultMainRef,
		Timezone:   "Local",
		MinYear:    calendar.DefaultMinYear,
		StateDir:   defaultStateDir,
		LedgerPath: defaultLedgerPath,
		LockFile:   defaultLockFile,
		ChangeRequests: ChangeRequests{
			Provider: "none",
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
