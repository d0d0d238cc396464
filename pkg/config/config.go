// Package config loads the external configuration document: the backup
// category definitions, the Onion settings catalogue and tool paths. The
// document is read once at startup; everything downstream treats the
// result as immutable.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	odt "github.com/onion-tools/odt/pkg"
)

// Option is one Onion configuration toggle, represented on the SD card by
// an empty flag file under .tmp_update/config.
type Option struct {
	Filename    string `json:"filename" mapstructure:"filename"`
	Label       string `json:"label" mapstructure:"label"`
	Description string `json:"description" mapstructure:"description"`
}

// Config is the fully loaded configuration document.
type Config struct {
	BackupRoot   string
	DownloadsDir string
	Categories   *odt.CategoryTable
	// Options maps a display group (e.g. "System", "Time") to its toggles.
	Options map[string][]Option
}

// Load reads the configuration file at path. An empty path, or a missing
// file at the default location, is not an error: the built-in category set
// is used and the options catalogue stays empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("backup_root", defaultBackupRoot())
	v.SetDefault("downloads_dir", defaultDownloadsDir())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	categories := odt.DefaultCategories()
	if v.IsSet("categories") {
		categories = nil
		if err := v.UnmarshalKey("categories", &categories); err != nil {
			return nil, fmt.Errorf("invalid categories in %s: %w", path, err)
		}
	}
	table, err := odt.NewCategoryTable(categories)
	if err != nil {
		return nil, fmt.Errorf("invalid category definitions: %w", err)
	}

	options := map[string][]Option{}
	if v.IsSet("onion_configuration") {
		if err := v.UnmarshalKey("onion_configuration", &options); err != nil {
			return nil, fmt.Errorf("invalid onion_configuration in %s: %w", path, err)
		}
	}

	return &Config{
		BackupRoot:   v.GetString("backup_root"),
		DownloadsDir: v.GetString("downloads_dir"),
		Categories:   table,
		Options:      options,
	}, nil
}

func defaultBackupRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "backups"
	}
	return filepath.Join(home, ".local", "share", "odt", "backups")
}

func defaultDownloadsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "downloads"
	}
	return filepath.Join(home, ".local", "share", "odt", "downloads")
}
