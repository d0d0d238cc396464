package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	keys := cfg.Categories.Keys()
	assert.Equal(t, []string{"roms", "imgs", "saves", "ra_config", "bios", "onion_config"}, keys)
	assert.NotEmpty(t, cfg.BackupRoot)
	assert.NotEmpty(t, cfg.DownloadsDir)
	assert.Empty(t, cfg.Options)
}

func TestLoadCustomCategories(t *testing.T) {
	path := writeConfig(t, `{
		"backup_root": "/tmp/bk",
		"categories": [
			{"key": "roms", "label": "ROMs", "path": "Roms"},
			{"key": "themes", "label": "Themes", "path": "Themes"}
		]
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/bk", cfg.BackupRoot)
	assert.Equal(t, []string{"roms", "themes"}, cfg.Categories.Keys())

	themes, ok := cfg.Categories.Get("themes")
	require.True(t, ok)
	assert.Equal(t, "Themes", themes.Path)
}

func TestLoadOptionsCatalogue(t *testing.T) {
	path := writeConfig(t, `{
		"onion_configuration": {
			"System": [
				{"filename": ".noAutoStart", "label": "Disable auto-start"},
				{"filename": ".menuInverted", "label": "Invert menu"}
			],
			"Time": [
				{"filename": ".ntpState", "label": "NTP sync"}
			]
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Options["System"], 2)
	assert.Equal(t, ".noAutoStart", cfg.Options["System"][0].Filename)
	require.Len(t, cfg.Options["Time"], 1)
}

func TestLoadRejectsDuplicateCategoryKeys(t *testing.T) {
	path := writeConfig(t, `{
		"categories": [
			{"key": "roms", "label": "ROMs", "path": "Roms"},
			{"key": "roms", "label": "ROMs again", "path": "Roms2"}
		]
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestLoadMissingExplicitFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, 6, len(cfg.Categories.Keys()))
}
