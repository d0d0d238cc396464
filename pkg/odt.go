/*
Onion Desktop Tools internal architecture:

 The root package holds the shared vocabulary of the tool: backup
 categories, SD card states, progress callbacks and the result types
 returned by every long-running operation.

 Concern packages build on top of it:

   pkg/backup    backup catalog, restore engine, stock-to-onion migration
   pkg/sdcard    removable drive discovery, formatting, mount/eject
   pkg/installer GitHub release fetch, download, zip extraction
   pkg/settings  Onion dotfile configuration toggles
   pkg/wifi      host WiFi credentials and wpa_supplicant config
   pkg/packages  emulator / app package management on the SD card

 Everything is synchronous and blocking; progress is reported through a
 caller-supplied callback invoked on the calling goroutine.
*/

package odt

import (
	"fmt"
	"sort"
	"strings"
)

// SDState classifies what is currently on an SD card.
type SDState string

const (
	StateOnion   SDState = "onion"
	StateStock   SDState = "stock"
	StateEmpty   SDState = "empty"
	StateUnknown SDState = "unknown"
)

// Category describes one class of user data on the SD card. The key is a
// stable machine identifier stored in snapshot metadata, the label is shown
// to users, and the path is relative to the SD card root.
type Category struct {
	Key   string `json:"key" mapstructure:"key"`
	Label string `json:"label" mapstructure:"label"`
	Path  string `json:"path" mapstructure:"path"`
}

// DefaultCategories returns the built-in category set, used when no
// external category document is configured.
func DefaultCategories() []Category {
	return []Category{
		{Key: "roms", Label: "ROMs", Path: "Roms"},
		{Key: "imgs", Label: "Images (box art)", Path: "Imgs"},
		{Key: "saves", Label: "Saves", Path: "Saves"},
		{Key: "ra_config", Label: "RetroArch config", Path: "RetroArch/.retroarch"},
		{Key: "bios", Label: "BIOS", Path: "BIOS"},
		{Key: "onion_config", Label: "Onion config", Path: ".tmp_update/config"},
	}
}

// CategoryTable is the immutable category enumeration, built once at
// startup. Iteration order is the definition order.
type CategoryTable struct {
	order []string
	byKey map[string]Category
}

func NewCategoryTable(categories []Category) (*CategoryTable, error) {
	t := &CategoryTable{byKey: make(map[string]Category, len(categories))}
	for _, c := range categories {
		if c.Key == "" {
			return nil, fmt.Errorf("category with empty key (label %q)", c.Label)
		}
		if c.Path == "" {
			return nil, fmt.Errorf("category %q has no relative path", c.Key)
		}
		if _, exists := t.byKey[c.Key]; exists {
			return nil, fmt.Errorf("duplicate category key %q", c.Key)
		}
		t.byKey[c.Key] = c
		t.order = append(t.order, c.Key)
	}
	return t, nil
}

// Get returns the category for key, if defined.
func (t *CategoryTable) Get(key string) (Category, bool) {
	c, ok := t.byKey[key]
	return c, ok
}

// Keys returns every category key in definition order.
func (t *CategoryTable) Keys() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Validate checks that every requested key is defined, returning a single
// error naming all unknown keys.
func (t *CategoryTable) Validate(keys []string) error {
	var unknown []string
	for _, key := range keys {
		if _, ok := t.byKey[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown backup categories: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// ProgressFn is invoked synchronously after every file copied during a
// multi-category operation. category is the logical label of the current
// copy job, relPath the file's path relative to its category root, done the
// running count across the whole operation and total the pre-computed
// operation-wide file count. Implementations must return quickly.
type ProgressFn func(category, relPath string, done, total int)

// SnapshotMeta is the sidecar document written at the root of every
// snapshot directory. Missing fields decode to their zero values, so
// consumers tolerate older or hand-edited sidecars.
type SnapshotMeta struct {
	Date        string   `json:"date"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
	State       SDState  `json:"state"`
	Version     string   `json:"version"`
	TotalFiles  int      `json:"total_files"`
}

// SnapshotInfo is one entry returned by the backup listing: the snapshot
// directory plus its parsed sidecar.
type SnapshotInfo struct {
	Path string       `json:"path"`
	Meta SnapshotMeta `json:"meta"`
}

// BackupResult reports the outcome of a backup run. Path is set even on
// failure when a partially-populated snapshot directory was left behind.
type BackupResult struct {
	Path       string   `json:"path"`
	Files      int      `json:"files"`
	Categories []string `json:"categories"`
	Message    string   `json:"message"`
}

// RestoreResult reports the outcome of a restore run.
type RestoreResult struct {
	Files      int      `json:"files"`
	Categories []string `json:"categories"`
	Message    string   `json:"message"`
}

// MigrateResult reports the outcome of a stock-to-onion migration.
type MigrateResult struct {
	Files   int    `json:"files"`
	Jobs    int    `json:"jobs"`
	Message string `json:"message"`
}
