package backup

import (
	"fmt"
	"path/filepath"

	odt "github.com/onion-tools/odt/pkg"
)

// saveMappings relocate stock Miyoo save data into the directory layout
// Onion OS expects.
var saveMappings = []struct {
	Stock string
	Onion string
}{
	{Stock: "RetroArch/.retroarch/saves", Onion: "Saves/CurrentProfile/saves"},
	{Stock: "RetroArch/.retroarch/states", Onion: "Saves/CurrentProfile/states"},
}

// sharedDirs keep the same relative path on both layouts.
var sharedDirs = []string{"Roms", "BIOS", "Imgs"}

type copyJob struct {
	src   string
	dst   string
	label string
}

// MigrateStockToOnion copies user data from a stock Miyoo SD card onto an
// Onion OS card: save data is remapped into the Onion save layout, and the
// ROM, BIOS and box-art directories are copied across unchanged. Only
// directories that actually exist on the stock card produce copy jobs; a
// card with nothing recognisable migrates successfully with zero files.
func (s *Service) MigrateStockToOnion(stockMount, onionMount string, progress odt.ProgressFn) (odt.MigrateResult, error) {
	if !isDir(stockMount) {
		return odt.MigrateResult{}, fmt.Errorf("stock SD mount point does not exist: %s", stockMount)
	}
	if !isDir(onionMount) {
		return odt.MigrateResult{}, fmt.Errorf("onion SD mount point does not exist: %s", onionMount)
	}

	var jobs []copyJob
	for _, m := range saveMappings {
		src := filepath.Join(stockMount, filepath.FromSlash(m.Stock))
		if isDir(src) {
			jobs = append(jobs, copyJob{
				src:   src,
				dst:   filepath.Join(onionMount, filepath.FromSlash(m.Onion)),
				label: fmt.Sprintf("saves (%s)", m.Stock),
			})
		}
	}
	for _, dir := range sharedDirs {
		src := filepath.Join(stockMount, dir)
		if isDir(src) {
			jobs = append(jobs, copyJob{src: src, dst: filepath.Join(onionMount, dir), label: dir})
		}
	}

	if len(jobs) == 0 {
		return odt.MigrateResult{
			Message: "Nothing to migrate: no recognised data found on stock SD.",
		}, nil
	}

	total := 0
	for _, job := range jobs {
		total += CountFiles(job.src)
	}

	done := 0
	for _, job := range jobs {
		copied, err := CopyTree(job.src, job.dst, job.label, done, total, progress)
		done += copied
		if err != nil {
			return odt.MigrateResult{Files: done, Jobs: len(jobs)},
				fmt.Errorf("migration failed: %w", err)
		}
	}

	return odt.MigrateResult{
		Files:   done,
		Jobs:    len(jobs),
		Message: fmt.Sprintf("Migration completed: %d files copied.", done),
	}, nil
}
