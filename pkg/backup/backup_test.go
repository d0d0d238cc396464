package backup

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	odt "github.com/onion-tools/odt/pkg"
)

func testService(t *testing.T) *Service {
	t.Helper()
	table, err := odt.NewCategoryTable(odt.DefaultCategories())
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(table, log)
}

// populateCard writes a small onion-flavoured card layout and returns the
// mount path.
func populateCard(t *testing.T) string {
	t.Helper()
	mount := t.TempDir()
	mustWriteFile(t, filepath.Join(mount, ".tmp_update", "onionVersion", "version.txt"), "4.3.1")
	mustWriteFile(t, filepath.Join(mount, "Roms", "GBA", "game.gba"), "rom-data")
	mustWriteFile(t, filepath.Join(mount, "Roms", "SFC", "other.sfc"), "rom-data-2")
	mustWriteFile(t, filepath.Join(mount, "Saves", "CurrentProfile", "saves", "game.srm"), "save")
	mustWriteFile(t, filepath.Join(mount, "BIOS", "gba_bios.bin"), "bios")
	return mount
}

func TestCreateBackupWritesSidecarAndTree(t *testing.T) {
	s := testService(t)
	mount := populateCard(t)
	root := t.TempDir()

	res, err := s.Create(mount, root, []string{"roms", "saves", "bios"}, "before update", nil)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Files)
	assert.Equal(t, []string{"roms", "saves", "bios"}, res.Categories)
	assert.Contains(t, res.Message, "4 files in 3 categories")

	data, err := os.ReadFile(filepath.Join(res.Path, "backup_info.json"))
	require.NoError(t, err)
	var meta odt.SnapshotMeta
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, odt.StateOnion, meta.State)
	assert.Equal(t, "4.3.1", meta.Version)
	assert.Equal(t, "before update", meta.Description)
	assert.Equal(t, 4, meta.TotalFiles)
	assert.Equal(t, []string{"roms", "saves", "bios"}, meta.Categories)

	copied, err := os.ReadFile(filepath.Join(res.Path, "Roms", "GBA", "game.gba"))
	require.NoError(t, err)
	assert.Equal(t, "rom-data", string(copied))

	assert.Contains(t, filepath.Base(res.Path), "_onion_4.3.1")
}

func TestCreateBackupUnknownCategoryFailsBeforeSideEffects(t *testing.T) {
	s := testService(t)
	mount := populateCard(t)
	root := t.TempDir()

	_, err := s.Create(mount, root, []string{"roms", "bogus"}, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "validation failure must not create a snapshot directory")
}

func TestCreateBackupEmptyCategoryList(t *testing.T) {
	s := testService(t)
	root := t.TempDir()

	_, err := s.Create(populateCard(t), root, nil, "", nil)
	require.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateBackupMissingMount(t *testing.T) {
	s := testService(t)
	_, err := s.Create(filepath.Join(t.TempDir(), "nope"), t.TempDir(), []string{"roms"}, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mount point does not exist")
}

func TestCreateBackupSkipsAbsentCategories(t *testing.T) {
	s := testService(t)
	mount := t.TempDir()
	mustWriteFile(t, filepath.Join(mount, "Roms", "GBA", "game.gba"), "rom")

	res, err := s.Create(mount, t.TempDir(), []string{"roms", "saves", "imgs"}, "", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Files)
	assert.Equal(t, []string{"roms"}, res.Categories, "absent categories are excluded from the recorded list")

	meta, err := readSidecar(res.Path)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.TotalFiles)
	assert.Equal(t, []string{"roms"}, meta.Categories)
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	s := testService(t)
	mount := populateCard(t)

	res, err := s.Create(mount, t.TempDir(), []string{"roms", "saves", "bios"}, "", nil)
	require.NoError(t, err)

	target := t.TempDir()
	restored, err := s.Restore(res.Path, target, []string{"roms", "saves", "bios"}, nil)
	require.NoError(t, err)
	assert.Equal(t, res.Files, restored.Files)

	for _, rel := range []string{
		"Roms/GBA/game.gba",
		"Roms/SFC/other.sfc",
		"Saves/CurrentProfile/saves/game.srm",
		"BIOS/gba_bios.bin",
	} {
		want, err := os.ReadFile(filepath.Join(mount, filepath.FromSlash(rel)))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(target, filepath.FromSlash(rel)))
		require.NoError(t, err, "missing restored file %s", rel)
		assert.Equal(t, string(want), string(got), rel)
	}
}

func TestRestoreSkipsCategoriesAbsentFromSnapshot(t *testing.T) {
	s := testService(t)
	mount := t.TempDir()
	mustWriteFile(t, filepath.Join(mount, "BIOS", "bios.bin"), "b")

	res, err := s.Create(mount, t.TempDir(), []string{"bios"}, "", nil)
	require.NoError(t, err)

	target := t.TempDir()
	restored, err := s.Restore(res.Path, target, []string{"bios", "roms"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Files)
	assert.Equal(t, []string{"bios"}, restored.Categories)
}

func TestRestoreValidation(t *testing.T) {
	s := testService(t)
	snapshot := t.TempDir()
	target := t.TempDir()

	_, err := s.Restore(filepath.Join(snapshot, "gone"), target, []string{"roms"}, nil)
	require.Error(t, err)

	_, err = s.Restore(snapshot, filepath.Join(target, "gone"), []string{"roms"}, nil)
	require.Error(t, err)

	_, err = s.Restore(snapshot, target, []string{"nope"}, nil)
	require.Error(t, err)

	_, err = s.Restore(snapshot, target, nil, nil)
	require.Error(t, err)
}

func TestListBackupsNewestFirstSkippingInvalid(t *testing.T) {
	s := testService(t)
	root := t.TempDir()

	writeSnapshot := func(name string, meta odt.SnapshotMeta) {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, writeSidecar(dir, meta))
	}

	writeSnapshot("20240101_000000_onion", odt.SnapshotMeta{Description: "old"})
	writeSnapshot("20250601_120000_stock", odt.SnapshotMeta{Description: "new"})
	writeSnapshot("20240301_000000_onion", odt.SnapshotMeta{Description: "mid"})

	// No sidecar at all.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "20250701_000000_onion"), 0o755))
	// Corrupt sidecar.
	mustWriteFile(t, filepath.Join(root, "20250801_000000_onion", "backup_info.json"), "{not json")
	// Stray file at the root.
	mustWriteFile(t, filepath.Join(root, "notes.txt"), "ignore me")

	infos := s.List(root)
	require.Len(t, infos, 3)
	assert.Equal(t, "new", infos[0].Meta.Description)
	assert.Equal(t, "mid", infos[1].Meta.Description)
	assert.Equal(t, "old", infos[2].Meta.Description)
}

func TestListBackupsMissingRoot(t *testing.T) {
	s := testService(t)
	assert.Empty(t, s.List(filepath.Join(t.TempDir(), "missing")))
}

func TestSidecarMissingKeysDefault(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "backup_info.json"), `{"description":"bare"}`)

	meta, err := readSidecar(dir)
	require.NoError(t, err)
	assert.Equal(t, "bare", meta.Description)
	assert.Equal(t, odt.StateUnknown, meta.State)
	assert.Empty(t, meta.Categories)
	assert.Zero(t, meta.TotalFiles)
	assert.Empty(t, meta.Version)
}

func TestSizeIgnoresMissingAndUnknownCategories(t *testing.T) {
	s := testService(t)
	snapshot := t.TempDir()
	mustWriteFile(t, filepath.Join(snapshot, "BIOS", "a.bin"), "12345")
	mustWriteFile(t, filepath.Join(snapshot, "BIOS", "sub", "b.bin"), "123")

	assert.Equal(t, int64(8), s.Size(snapshot, []string{"bios", "roms", "bogus"}))
}

func TestSnapshotDirCollisionGetsSuffix(t *testing.T) {
	root := t.TempDir()

	first, err := newSnapshotDir(root, odt.StateOnion, "4.3.1")
	require.NoError(t, err)
	second, err := newSnapshotDir(root, odt.StateOnion, "4.3.1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.DirExists(t, first)
	assert.DirExists(t, second)
}

func TestSanitizeVersion(t *testing.T) {
	assert.Equal(t, "v4.3.1_beta_2", sanitizeVersion(`v4.3.1/beta 2`))
	assert.Equal(t, "a_b", sanitizeVersion(`a\b`))
}

func TestCreateBackupAbortsOnCopyFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}

	s := testService(t)
	mount := populateCard(t)
	root := t.TempDir()

	unreadable := filepath.Join(mount, "Roms", "GBA", "game.gba")
	require.NoError(t, os.Chmod(unreadable, 0o000))
	t.Cleanup(func() { os.Chmod(unreadable, 0o644) })

	res, err := s.Create(mount, root, []string{"roms", "bios"}, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backup failed")

	// the partial snapshot directory stays on disk, without a sidecar
	entries, readErr := os.ReadDir(root)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Join(root, entries[0].Name()), res.Path)
	_, statErr := os.Stat(filepath.Join(res.Path, "backup_info.json"))
	assert.True(t, os.IsNotExist(statErr))

	// and without a sidecar it is invisible to List
	assert.Empty(t, s.List(root))
}

func TestRestoreAbortsOnCopyFailure(t *testing.T) {
	s := testService(t)
	mount := populateCard(t)
	root := t.TempDir()

	created, err := s.Create(mount, root, []string{"roms"}, "", nil)
	require.NoError(t, err)

	// a directory squatting on a destination file path makes the copy fail
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, "Roms", "GBA", "game.gba"), 0o755))

	_, err = s.Restore(created.Path, target, []string{"roms"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restore failed")
}

func TestCreateBackupSurfacesBackupRootStatFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits do not apply to root")
	}

	s := testService(t)
	mount := populateCard(t)

	// no search permission on the backup root: stat on any candidate
	// name fails with EACCES rather than not-exist
	root := t.TempDir()
	require.NoError(t, os.Chmod(root, 0o666))
	t.Cleanup(func() { os.Chmod(root, 0o755) })

	_, err := s.Create(mount, root, []string{"roms"}, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create backup directory")
}
