package jobs

import (
	"os"
	"time"

	"github.com/Belphemur/MediaFetch/internal/config"
)

// Settings bounds how downloads run on behalf of callers.
type Settings struct {
	Timeout     time.Duration // per download, zero for none
	MaxParallel int           // downloads holding a slot at once
	MaxWait     time.Duration // how long a download waits for a free slot
	LockDir     string        // where output directory lock files live
}

// SettingsFromConfig reads the downloads section of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Timeout:     config.ParseDuration("downloads.timeout", cfg.Downloads.Timeout, 0),
		MaxParallel: cfg.Downloads.MaxParallel,
		MaxWait:     config.ParseDuration("downloads.max_wait", cfg.Downloads.MaxWait, 30*time.Second),
		LockDir:     cfg.Downloads.LockDir,
	}
}

func (s Settings) withDefaults() Settings {
	if s.MaxParallel <= 0 {
		s.MaxParallel = 1
	}
	if s.LockDir == "" {
		s.LockDir = os.TempDir()
	}
	return s
}
