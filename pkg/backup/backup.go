package backup

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	odt "github.com/onion-tools/odt/pkg"
)

// sidecarName is the metadata document written at the root of every
// snapshot directory.
const sidecarName = "backup_info.json"

// Service runs backup, restore and migration operations against a fixed
// category table. It holds no mutable state; concurrent calls against
// disjoint paths are safe, concurrent calls against the same snapshot or
// mount are not supported.
type Service struct {
	categories *odt.CategoryTable
	log        *logrus.Logger
}

func NewService(categories *odt.CategoryTable, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{categories: categories, log: log}
}

// Create backs up the selected categories from the SD card mounted at
// sdMount into a new timestamped snapshot directory under backupRoot.
//
// Validation failures (missing mount, unknown or empty category list)
// return before anything is written. Categories whose source directory does
// not exist are skipped and excluded from the recorded category list. A
// copy failure aborts the run, leaving the partially-populated snapshot on
// disk; its path is reported in the result alongside the error. A sidecar
// write failure is logged but does not fail an otherwise complete backup.
func (s *Service) Create(sdMount, backupRoot string, keys []string, description string, progress odt.ProgressFn) (odt.BackupResult, error) {
	if !isDir(sdMount) {
		return odt.BackupResult{}, fmt.Errorf("SD card mount point does not exist: %s", sdMount)
	}
	if err := s.categories.Validate(keys); err != nil {
		return odt.BackupResult{}, err
	}
	if len(keys) == 0 {
		return odt.BackupResult{}, fmt.Errorf("no categories selected for backup")
	}

	state := DetectState(sdMount)
	version := DetectVersion(sdMount)

	snapshotPath, err := newSnapshotDir(backupRoot, state, version)
	if err != nil {
		return odt.BackupResult{}, fmt.Errorf("failed to create backup directory: %w", err)
	}

	total := 0
	for _, key := range keys {
		cat, _ := s.categories.Get(key)
		total += CountFiles(filepath.Join(sdMount, cat.Path))
	}

	done := 0
	var captured []string
	for _, key := range keys {
		cat, _ := s.categories.Get(key)
		src := filepath.Join(sdMount, cat.Path)
		if !isDir(src) {
			s.log.WithFields(logrus.Fields{"category": key, "path": src}).
				Info("Skipping category: source directory does not exist")
			continue
		}

		copied, err := CopyTree(src, filepath.Join(snapshotPath, cat.Path), key, done, total, progress)
		done += copied
		if err != nil {
			return odt.BackupResult{Path: snapshotPath, Files: done, Categories: captured},
				fmt.Errorf("backup failed: %w", err)
		}
		captured = append(captured, key)
	}

	meta := odt.SnapshotMeta{
		Date:        time.Now().Format(time.RFC3339),
		Categories:  captured,
		Description: description,
		State:       state,
		Version:     version,
		TotalFiles:  done,
	}
	if err := writeSidecar(snapshotPath, meta); err != nil {
		s.log.WithError(err).Warnf("Could not write %s", sidecarName)
	}

	return odt.BackupResult{
		Path:       snapshotPath,
		Files:      done,
		Categories: captured,
		Message:    fmt.Sprintf("Backup completed: %d files in %d categories.", done, len(captured)),
	}, nil
}

// List enumerates the snapshots under backupRoot, newest first. Snapshot
// directory names carry a sortable timestamp prefix, so reverse
// lexicographic order is newest-first. Directories without a readable,
// parseable sidecar are skipped silently.
func (s *Service) List(backupRoot string) []odt.SnapshotInfo {
	entries, err := os.ReadDir(backupRoot)
	if err != nil {
		return nil
	}

	var results []odt.SnapshotInfo
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(backupRoot, entry.Name())
		meta, err := readSidecar(path)
		if err != nil {
			if !os.IsNotExist(err) {
				s.log.WithError(err).Warnf("Skipping backup %q", entry.Name())
			}
			continue
		}
		results = append(results, odt.SnapshotInfo{Path: path, Meta: meta})
	}
	return results
}

// Size sums the on-disk sizes of the named categories inside a snapshot.
// Unknown keys and categories absent from the snapshot contribute zero, as
// do individual files whose metadata cannot be read.
func (s *Service) Size(snapshotPath string, keys []string) int64 {
	var total int64
	for _, key := range keys {
		cat, ok := s.categories.Get(key)
		if !ok {
			continue
		}
		_ = filepath.WalkDir(filepath.Join(snapshotPath, cat.Path), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if info, err := d.Info(); err == nil {
				total += info.Size()
			}
			return nil
		})
	}
	return total
}

// newSnapshotDir creates a snapshot directory named
// <timestamp>_<state>[_<version>] under backupRoot. Names collide at
// one-second resolution, so an existing name gets a numeric suffix instead
// of merging into the previous snapshot.
func newSnapshotDir(backupRoot string, state odt.SDState, version string) (string, error) {
	name := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), state)
	if version != "" {
		name = name + "_" + sanitizeVersion(version)
	}

	candidate := name
	for n := 2; ; n++ {
		path := filepath.Join(backupRoot, candidate)
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return "", err
			}
			return path, nil
		}
		if err != nil {
			// A stat failure other than not-exist (e.g. permission
			// denied) would recur for every candidate name.
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d", name, n)
	}
}

// sanitizeVersion makes a version string safe to embed in a directory name.
func sanitizeVersion(version string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return r.Replace(version)
}

func writeSidecar(snapshotPath string, meta odt.SnapshotMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(snapshotPath, sidecarName), data, 0o644)
}

func readSidecar(snapshotPath string) (odt.SnapshotMeta, error) {
	data, err := os.ReadFile(filepath.Join(snapshotPath, sidecarName))
	if err != nil {
		return odt.SnapshotMeta{}, err
	}
	var meta odt.SnapshotMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return odt.SnapshotMeta{}, err
	}
	if meta.State == "" {
		meta.State = odt.StateUnknown
	}
	return meta, nil
}
