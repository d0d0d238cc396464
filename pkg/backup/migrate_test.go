package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSavesOnly(t *testing.T) {
	s := testService(t)
	stock := t.TempDir()
	onion := t.TempDir()

	for _, name := range []string{"zelda.srm", "mario.srm", "metroid.srm"} {
		mustWriteFile(t, filepath.Join(stock, "RetroArch", ".retroarch", "saves", name), name)
	}

	res, err := s.MigrateStockToOnion(stock, onion, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 1, res.Jobs)
	assert.Contains(t, res.Message, "3 files copied")

	entries, err := os.ReadDir(filepath.Join(onion, "Saves", "CurrentProfile", "saves"))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestMigrateNothingToDo(t *testing.T) {
	s := testService(t)
	stock := t.TempDir()
	onion := t.TempDir()

	res, err := s.MigrateStockToOnion(stock, onion, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Files)
	assert.Contains(t, res.Message, "Nothing to migrate")

	entries, err := os.ReadDir(onion)
	require.NoError(t, err)
	assert.Empty(t, entries, "a no-op migration must not create directories")
}

func TestMigrateRemapsAndCopiesSharedDirs(t *testing.T) {
	s := testService(t)
	stock := t.TempDir()
	onion := t.TempDir()

	mustWriteFile(t, filepath.Join(stock, "RetroArch", ".retroarch", "saves", "a.srm"), "s")
	mustWriteFile(t, filepath.Join(stock, "RetroArch", ".retroarch", "states", "a.state"), "st")
	mustWriteFile(t, filepath.Join(stock, "Roms", "GBA", "game.gba"), "rom")
	mustWriteFile(t, filepath.Join(stock, "BIOS", "bios.bin"), "bios")

	var labels []string
	var lastDone, lastTotal int
	res, err := s.MigrateStockToOnion(stock, onion, func(category, rel string, done, total int) {
		labels = append(labels, category)
		lastDone, lastTotal = done, total
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Files)
	assert.Equal(t, 4, res.Jobs)
	assert.Equal(t, 4, lastDone)
	assert.Equal(t, 4, lastTotal)

	// Jobs run in the fixed order: save remaps first, then shared dirs.
	assert.Equal(t, []string{
		"saves (RetroArch/.retroarch/saves)",
		"saves (RetroArch/.retroarch/states)",
		"Roms",
		"BIOS",
	}, labels)

	assert.FileExists(t, filepath.Join(onion, "Saves", "CurrentProfile", "saves", "a.srm"))
	assert.FileExists(t, filepath.Join(onion, "Saves", "CurrentProfile", "states", "a.state"))
	assert.FileExists(t, filepath.Join(onion, "Roms", "GBA", "game.gba"))
	assert.FileExists(t, filepath.Join(onion, "BIOS", "bios.bin"))
}

func TestMigrateValidatesMounts(t *testing.T) {
	s := testService(t)
	_, err := s.MigrateStockToOnion(filepath.Join(t.TempDir(), "x"), t.TempDir(), nil)
	require.Error(t, err)

	_, err = s.MigrateStockToOnion(t.TempDir(), filepath.Join(t.TempDir(), "x"), nil)
	require.Error(t, err)
}
