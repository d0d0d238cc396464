package backup

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	odt "github.com/onion-tools/odt/pkg"
)

// Restore replays the selected categories from a snapshot directory onto
// the SD card mounted at sdMount. The snapshot is only read, never
// modified.
//
// Categories not present in the snapshot are skipped without error. A copy
// failure aborts the run immediately; files restored before the failure
// stay on the card.
func (s *Service) Restore(snapshotPath, sdMount string, keys []string, progress odt.ProgressFn) (odt.RestoreResult, error) {
	if !isDir(snapshotPath) {
		return odt.RestoreResult{}, fmt.Errorf("backup path does not exist: %s", snapshotPath)
	}
	if !isDir(sdMount) {
		return odt.RestoreResult{}, fmt.Errorf("SD card mount point does not exist: %s", sdMount)
	}
	if err := s.categories.Validate(keys); err != nil {
		return odt.RestoreResult{}, err
	}
	if len(keys) == 0 {
		return odt.RestoreResult{}, fmt.Errorf("no categories selected for restore")
	}

	total := 0
	for _, key := range keys {
		cat, _ := s.categories.Get(key)
		total += CountFiles(filepath.Join(snapshotPath, cat.Path))
	}

	done := 0
	var restored []string
	for _, key := range keys {
		cat, _ := s.categories.Get(key)
		src := filepath.Join(snapshotPath, cat.Path)
		if !isDir(src) {
			s.log.WithFields(logrus.Fields{"category": key, "path": src}).
				Info("Skipping category: not present in backup")
			continue
		}

		copied, err := CopyTree(src, filepath.Join(sdMount, cat.Path), key, done, total, progress)
		done += copied
		if err != nil {
			return odt.RestoreResult{Files: done, Categories: restored},
				fmt.Errorf("restore failed: %w", err)
		}
		restored = append(restored, key)
	}

	return odt.RestoreResult{
		Files:      done,
		Categories: restored,
		Message:    fmt.Sprintf("Restore completed: %d files in %d categories.", done, len(restored)),
	}, nil
}
