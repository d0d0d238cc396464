// Package packages manages Onion OS emulator and application packages.
// Packages are staged under App/PackageManager/data/{Emu,RApp,App} on
// the SD card and installed by copying their tree to the SD card root.
// ROM directories are never removed by an uninstall.
package packages

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/onion-tools/odt/pkg/backup"
)

const dataDir = "App/PackageManager/data"

// Type identifies the kind of package.
type Type string

const (
	TypeEmu  Type = "emu"
	TypeRApp Type = "rapp"
	TypeApp  Type = "app"
)

// typeDirs maps each package type to its directory name on the SD card,
// in scan order.
var typeDirs = []struct {
	kind Type
	dir  string
}{
	{TypeEmu, "Emu"},
	{TypeRApp, "RApp"},
	{TypeApp, "App"},
}

// Package is one staged package and its state on the SD card.
type Package struct {
	Name      string `json:"name"`
	Type      Type   `json:"type"`
	Installed bool   `json:"installed"`
	HasRoms   bool   `json:"hasRoms"`
}

// StatusColor returns the UI colour for a package: green when
// installed, orange when ROMs are waiting for it, white otherwise.
func (p Package) StatusColor() string {
	switch {
	case p.Installed:
		return "green"
	case p.HasRoms:
		return "orange"
	default:
		return "white"
	}
}

// Manager scans and installs packages on a mounted SD card.
type Manager struct {
	log *logrus.Logger
}

func NewManager(log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{log: log}
}

// Scan lists the packages staged on the SD card, sorted by name within
// each type directory.
func (m *Manager) Scan(sdMount string) ([]Package, error) {
	if info, err := os.Stat(sdMount); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("SD card mount point does not exist: %s", sdMount)
	}

	var found []Package
	for _, td := range typeDirs {
		entries, err := os.ReadDir(filepath.Join(sdMount, filepath.FromSlash(dataDir), td.dir))
		if err != nil {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			found = append(found, Package{
				Name:      entry.Name(),
				Type:      td.kind,
				Installed: isDir(filepath.Join(sdMount, td.dir, entry.Name())),
				HasRoms:   hasRoms(sdMount, entry.Name()),
			})
		}
	}

	m.log.WithField("count", len(found)).Info("Scanned packages")
	return found, nil
}

// Install copies a staged package to the SD card root. Installing over
// an existing install is refused.
func (m *Manager) Install(sdMount, name string, kind Type) error {
	dir, err := typeDir(kind)
	if err != nil {
		return err
	}
	source := filepath.Join(sdMount, filepath.FromSlash(dataDir), dir, name)
	dest := filepath.Join(sdMount, dir, name)

	if !isDir(source) {
		return fmt.Errorf("package source not found: %s", source)
	}
	if isDir(dest) {
		return fmt.Errorf("package %s is already installed, uninstall it first", name)
	}

	copied, err := backup.CopyTree(source, dest, name, 0, 0, nil)
	if err != nil {
		return fmt.Errorf("unable to install %s: %w", name, err)
	}
	m.log.WithFields(logrus.Fields{"package": name, "files": copied}).Info("Installed package")
	return nil
}

// Uninstall removes an installed package directory. ROM files stay in
// place.
func (m *Manager) Uninstall(sdMount, name string, kind Type) error {
	dir, err := typeDir(kind)
	if err != nil {
		return err
	}
	target := filepath.Join(sdMount, dir, name)
	if !isDir(target) {
		return fmt.Errorf("package %s is not installed", name)
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("unable to uninstall %s: %w", name, err)
	}
	m.log.WithField("package", name).Info("Uninstalled package")
	return nil
}

// AutoInstall installs every emulator package whose ROM directory
// already holds files. It returns the names installed; individual
// failures are logged and skipped.
func (m *Manager) AutoInstall(sdMount string) ([]string, error) {
	found, err := m.Scan(sdMount)
	if err != nil {
		return nil, err
	}

	var installed []string
	for _, pkg := range found {
		if pkg.Type != TypeEmu || pkg.Installed || !pkg.HasRoms {
			continue
		}
		if err := m.Install(sdMount, pkg.Name, TypeEmu); err != nil {
			m.log.WithError(err).WithField("package", pkg.Name).Warn("Auto-install failed")
			continue
		}
		installed = append(installed, pkg.Name)
	}
	m.log.WithField("count", len(installed)).Info("Auto-install complete")
	return installed, nil
}

func typeDir(kind Type) (string, error) {
	for _, td := range typeDirs {
		if td.kind == Type(strings.ToLower(string(kind))) {
			return td.dir, nil
		}
	}
	return "", fmt.Errorf("unknown package type: %s", kind)
}

// hasRoms reports whether Roms/<name> holds at least one regular,
// non-hidden file.
func hasRoms(sdMount, name string) bool {
	entries, err := os.ReadDir(filepath.Join(sdMount, "Roms", name))
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && !strings.HasPrefix(entry.Name(), ".") {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
