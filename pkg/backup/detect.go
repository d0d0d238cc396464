package backup

import (
	"os"
	"path/filepath"
	"strings"

	odt "github.com/onion-tools/odt/pkg"
)

// onionMarker is the update staging directory Onion OS keeps at the card
// root; its presence alone identifies an Onion card.
const onionMarker = ".tmp_update"

// stockMarker is the stock Miyoo firmware's application directory.
const stockMarker = "miyoo"

// versionCandidates are the known locations of the Onion version string,
// relative to the card root. Placement moved between releases.
var versionCandidates = []string{
	filepath.Join(onionMarker, "onionVersion", "version.txt"),
	filepath.Join(onionMarker, "config", "version.txt"),
	filepath.Join(onionMarker, "version.txt"),
}

// DetectState classifies the filesystem mounted at mount by its top-level
// marker directories: onion when the update staging directory exists, stock
// when only the Miyoo application directory exists, unknown otherwise.
func DetectState(mount string) odt.SDState {
	if isDir(filepath.Join(mount, onionMarker)) {
		return odt.StateOnion
	}
	if isDir(filepath.Join(mount, stockMarker, "app")) || isDir(filepath.Join(mount, stockMarker)) {
		return odt.StateStock
	}
	return odt.StateUnknown
}

// DetectVersion reads the installed Onion version from the first candidate
// file that holds a non-empty value. Missing or unreadable files are
// skipped; the empty string means no version could be determined.
func DetectVersion(mount string) string {
	for _, rel := range versionCandidates {
		data, err := os.ReadFile(filepath.Join(mount, rel))
		if err != nil {
			continue
		}
		if version := strings.TrimSpace(string(data)); version != "" {
			return version
		}
	}
	return ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
