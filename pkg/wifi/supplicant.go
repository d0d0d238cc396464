package wifi

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// supplicantPath is where Onion OS expects its wireless configuration,
// relative to the SD card root.
const supplicantPath = "appconfigs/wpa_supplicant.conf"

const supplicantTemplate = `ctrl_interface=/var/run/wpa_supplicant
update_config=1
network={
    ssid="%s"
    psk="%s"
}
`

// WriteConfig writes the wpa_supplicant configuration for one network
// to the SD card, with LF line endings regardless of host platform.
func WriteConfig(sdMount, ssid, password string) error {
	if ssid == "" {
		return fmt.Errorf("SSID cannot be empty")
	}

	path := filepath.Join(sdMount, filepath.FromSlash(supplicantPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("unable to create appconfigs directory: %w", err)
	}

	content := fmt.Sprintf(supplicantTemplate, ssid, password)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("unable to write wireless config: %w", err)
	}
	return nil
}

// ReadConfig parses the wpa_supplicant configuration already on the SD
// card. Both values are empty when no config exists or nothing parses.
func ReadConfig(sdMount string) (ssid, password string) {
	path := filepath.Join(sdMount, filepath.FromSlash(supplicantPath))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ""
	}
	return extractField(string(data), "ssid"), extractField(string(data), "psk")
}

// extractField finds a field value, preferring the quoted form over a
// bare token.
func extractField(content, field string) string {
	quoted := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(field) + `\s*=\s*"([^"]*)"`)
	if m := quoted.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	bare := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(field) + `\s*=\s*(\S+)`)
	if m := bare.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}
