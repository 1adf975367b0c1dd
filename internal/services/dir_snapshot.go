package services

import (
	"os"
	"path/filepath"
	"time"
)

type fileStamp struct {
	modTime time.Time
	size    int64
}

// DirSnapshot records the files present in a directory before the engine runs,
// so files it wrote can be told apart from leftovers of earlier downloads.
// A nil snapshot treats every file as freshly written.
type DirSnapshot map[string]fileStamp

// SnapshotDir lists the regular files of dir. A missing or unreadable
// directory yields an empty snapshot.
func SnapshotDir(dir string) DirSnapshot {
	snapshot := DirSnapshot{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return snapshot
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshot[entry.Name()] = fileStamp{modTime: info.ModTime(), size: info.Size()}
	}
	return snapshot
}

// Written reports whether path exists and was created or rewritten after the snapshot.
func (s DirSnapshot) Written(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	before, existed := s[filepath.Base(path)]
	if !existed {
		return true
	}
	return !info.ModTime().Equal(before.modTime) || info.Size() != before.size
}
