// Package settings toggles Onion OS configuration flags. Each option is
// an empty dotfile under .tmp_update/config on the SD card: present
// means enabled, absent means disabled.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/onion-tools/odt/pkg/config"
)

const configDir = ".tmp_update/config"

// Manager reads and writes the flag files for a catalogue of options.
type Manager struct {
	options map[string][]config.Option
	log     *logrus.Logger
}

func NewManager(options map[string][]config.Option, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{options: options, log: log}
}

// Groups returns the option catalogue keyed by group name.
func (m *Manager) Groups() map[string][]config.Option {
	return m.options
}

func (m *Manager) filenames() []string {
	var names []string
	for _, opts := range m.options {
		for _, opt := range opts {
			names = append(names, opt.Filename)
		}
	}
	return names
}

// Current reports the enabled state of every known option on the SD
// card. Options whose flag file exists are enabled.
func (m *Manager) Current(sdMount string) (map[string]bool, error) {
	if info, err := os.Stat(sdMount); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("SD card mount point does not exist: %s", sdMount)
	}

	dir := filepath.Join(sdMount, configDir)
	state := map[string]bool{}
	for _, name := range m.filenames() {
		_, err := os.Stat(filepath.Join(dir, name))
		state[name] = err == nil
	}

	enabled := 0
	for _, on := range state {
		if on {
			enabled++
		}
	}
	m.log.WithFields(logrus.Fields{"enabled": enabled, "total": len(state)}).Debug("Read settings")
	return state, nil
}

// Toggle enables or disables a single option. Enabling creates the flag
// file, disabling removes it. Both directions are idempotent.
func (m *Manager) Toggle(sdMount, filename string, enabled bool) error {
	dir := filepath.Join(sdMount, configDir)
	path := filepath.Join(dir, filename)

	if enabled {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create config directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("unable to enable %s: %w", filename, err)
		}
		f.Close()
		m.log.WithField("flag", filename).Info("Enabled setting")
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to disable %s: %w", filename, err)
	}
	m.log.WithField("flag", filename).Info("Disabled setting")
	return nil
}

// Apply writes a full set of option states in one pass.
func (m *Manager) Apply(sdMount string, desired map[string]bool) error {
	if info, err := os.Stat(sdMount); err != nil || !info.IsDir() {
		return fmt.Errorf("SD card mount point does not exist: %s", sdMount)
	}

	for filename, enabled := range desired {
		if err := m.Toggle(sdMount, filename, enabled); err != nil {
			return err
		}
	}
	m.log.WithField("count", len(desired)).Info("Applied settings")
	return nil
}
