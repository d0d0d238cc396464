// Package backup implements the snapshot catalog for SD card user data:
// creating timestamped backups with a JSON sidecar, listing and sizing
// them, restoring them onto a card, and migrating data from a stock Miyoo
// layout to the Onion layout.
//
// Every operation is synchronous and reports per-file progress through an
// odt.ProgressFn invoked on the calling goroutine.
package backup

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	odt "github.com/onion-tools/odt/pkg"
)

// CountFiles recursively counts regular files under dir. A missing or
// non-directory path counts as zero, never an error; callers use it to
// pre-compute progress totals over categories that may not exist.
func CountFiles(dir string) int {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return 0
	}
	total := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			total++
		}
		return nil
	})
	return total
}

// relFiles returns the relative paths of every regular file beneath root,
// sorted by full relative path so the copy order is deterministic.
func relFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CopyTree copies every regular file beneath src into the same relative
// position beneath dst, creating directories as needed and preserving each
// file's permission bits and modification time. A missing src is not an
// error: the call is a no-op returning zero.
//
// category, done and total are pass-throughs for progress reporting over a
// multi-category operation: after each file the callback receives the
// category label, the file's path relative to src, the global running count
// (done plus files copied so far in this call) and the global total.
//
// Returns the number of files copied by this call. On failure the files
// already written stay on disk.
func CopyTree(src, dst, category string, done, total int, progress odt.ProgressFn) (int, error) {
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return 0, nil
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create destination %s: %w", dst, err)
	}

	files, err := relFiles(src)
	if err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", src, err)
	}

	copied := 0
	for _, rel := range files {
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return copied, fmt.Errorf("failed to create directory for %s: %w", rel, err)
		}
		if err := copyFile(filepath.Join(src, rel), target); err != nil {
			return copied, fmt.Errorf("failed to copy %s: %w", rel, err)
		}
		copied++
		if progress != nil {
			progress(category, rel, done+copied, total)
		}
	}
	return copied, nil
}

// copyFile copies a single regular file, carrying over the source's
// permission bits and modification time. FAT32 targets ignore chmod, so
// metadata restoration is best-effort after the data is safely written.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	_ = os.Chmod(dst, info.Mode().Perm())
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}
