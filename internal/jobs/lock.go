package jobs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 250 * time.Millisecond

// lockPath names the lock file guarding outputDir. Two spellings of the same
// directory map to the same file.
func lockPath(lockDir, outputDir string) string {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		abs = filepath.Clean(outputDir)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(lockDir, "mediafetch-"+hex.EncodeToString(sum[:8])+".lock")
}

// lockOutputDir blocks until this process holds the exclusive lock for
// outputDir or ctx is done. Reconciling two downloads in the same directory at
// once could delete each other's intermediates, so they are serialized, also
// across processes.
func lockOutputDir(ctx context.Context, lockDir, outputDir string) (func(), error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", lockDir, err)
	}

	lock := flock.New(lockPath(lockDir, outputDir))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock output directory %s: %w", outputDir, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock output directory %s", outputDir)
	}
	return func() { _ = lock.Unlock() }, nil
}
