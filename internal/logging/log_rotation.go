package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// LogRotation moves an oversized or stale log file aside before it is reopened.
type LogRotation struct {
	maxSize int64
	maxAge  time.Duration
	keep    int
	now     func() time.Time
}

func NewLogRotation(maxSize int64, maxAge time.Duration, keep int) *LogRotation {
	return &LogRotation{
		maxSize: maxSize,
		maxAge:  maxAge,
		keep:    keep,
		now:     time.Now,
	}
}

func (lr *LogRotation) ShouldRotate(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if info.Size() >= lr.maxSize {
		return true
	}

	return lr.now().Sub(info.ModTime()) >= lr.maxAge
}

func (lr *LogRotation) Rotate(path string) (string, error) {
	timestamp := lr.now().Format("20060102-150405")
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]

	newPath := fmt.Sprintf("%s-%s%s", base, timestamp, ext)

	if err := os.Rename(path, newPath); err != nil {
		return "", err
	}
	return newPath, lr.prune(base, ext)
}

// prune keeps the newest rotated files for base; the timestamp suffix sorts
// lexically in time order.
func (lr *LogRotation) prune(base, ext string) error {
	if lr.keep <= 0 {
		return nil
	}
	matches, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return err
	}
	if len(matches) <= lr.keep {
		return nil
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-lr.keep] {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
