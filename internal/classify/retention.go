package classify

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"bazaarscan/internal/logging"
)

// PruneDebugCrops removes crop directories under dir whose modification time
// is older than retentionDays before now. A retentionDays value of 0 disables
// pruning. It returns the number of directories removed.
func PruneDebugCrops(logger *slog.Logger, dir string, retentionDays int, now time.Time) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logging.WarnWithContext(logger, "debug crop retention remove failed; directory remains", "debug_retention_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on paths.debug_dir"),
				logging.String(logging.FieldImpact, "old crops remain on disk"),
			)
			continue
		}
		removed++
		logger.Debug("debug crops pruned",
			logging.String("path", path),
			logging.String(logging.FieldEventType, "debug_crops_pruned"),
		)
	}
	return removed
}
