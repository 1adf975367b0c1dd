package jobs

import (
	"fmt"
	"os"
	"path/filepath"
)

// PrepareOutputDir creates dir and its parents so the engine can write into it.
// The orchestrator itself expects the directory to exist.
func PrepareOutputDir(dir string) error {
	if err := os.MkdirAll(filepath.Clean(dir), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}
