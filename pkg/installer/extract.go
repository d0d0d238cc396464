package installer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/onion-tools/odt/pkg/utils"
)

// expectedDirs are the directories a complete Onion OS install leaves at
// the root of the SD card.
var expectedDirs = []string{".tmp_update", "BIOS", "RetroArch", "miyoo", "Themes"}

// ExtractProgressFn receives the entry path and the file counts after
// each extracted file.
type ExtractProgressFn func(name string, done, total int)

// ExtractToSD unpacks a release archive onto the SD card mount point.
// Entries that would escape the mount point are skipped with a warning;
// the remaining entries still extract.
func ExtractToSD(archivePath, sdMount string, progress ExtractProgressFn) (int, error) {
	if info, err := os.Stat(sdMount); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("SD card mount point does not exist: %s", sdMount)
	}
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("unable to open %s: %w", archivePath, err)
	}
	defer reader.Close()

	total := 0
	for _, entry := range reader.File {
		if !entry.FileInfo().IsDir() && entryDest(sdMount, entry.Name) != "" {
			total++
		}
	}

	done := 0
	for _, entry := range reader.File {
		dest := entryDest(sdMount, entry.Name)
		if dest == "" {
			// An entry that would land outside the card is skipped, not
			// fatal: the rest of the archive still extracts.
			logrus.WithField("entry", entry.Name).Warn("Skipping unsafe archive path")
			continue
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return done, fmt.Errorf("unable to create %s: %w", dest, err)
			}
			continue
		}

		if err := extractFile(entry, dest); err != nil {
			return done, err
		}
		done++
		if progress != nil {
			progress(entry.Name, done, total)
		}
	}
	return done, nil
}

// entryDest resolves an archive entry name under the SD mount, or ""
// when the entry would escape it.
func entryDest(sdMount, name string) string {
	dest := filepath.Join(sdMount, filepath.FromSlash(name))
	if !utils.IsPathWithin(dest, sdMount) {
		return ""
	}
	return dest
}

func extractFile(entry *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("unable to create %s: %w", filepath.Dir(dest), err)
	}

	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("unable to read archive entry %s: %w", entry.Name, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", dest, err)
	}
	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		return fmt.Errorf("unable to write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("unable to finish %s: %w", dest, err)
	}

	// FAT32 targets have no unix modes, so a failure here is harmless.
	if mode := entry.Mode().Perm(); mode != 0 {
		os.Chmod(dest, mode)
	}
	return nil
}

// Verify checks that the SD card carries the directory skeleton of a
// complete install and reports what is missing.
func Verify(sdMount string) (bool, []string, error) {
	if info, err := os.Stat(sdMount); err != nil || !info.IsDir() {
		return false, nil, fmt.Errorf("SD card mount point does not exist: %s", sdMount)
	}

	var missing []string
	for _, dir := range expectedDirs {
		info, err := os.Stat(filepath.Join(sdMount, dir))
		if err != nil || !info.IsDir() {
			missing = append(missing, dir)
		}
	}
	return len(missing) == 0, missing, nil
}

// ArchiveVersion derives a version string from an archive filename, e.g.
// Onion-v4.3.1-1.zip reports v4.3.1-1.
func ArchiveVersion(archivePath string) string {
	name := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	if idx := strings.Index(name, "-v"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
