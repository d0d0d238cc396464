package sdcard

import (
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"

	odt "github.com/onion-tools/odt/pkg"
	"github.com/onion-tools/odt/pkg/backup"
)

// systemArtefacts are hidden or OS-generated entries that don't count as
// real card content when deciding whether a card is empty.
var systemArtefacts = map[string]struct{}{
	"System Volume Information": {},
	".Trash-1000":               {},
	"$RECYCLE.BIN":              {},
	".fseventsd":                {},
	".Spotlight-V100":           {},
}

// Inspect classifies the card mounted at mountPoint. Unlike the backup
// catalog's three-state detector this also recognises an empty card, after
// filtering out OS artefacts left behind by Windows and macOS hosts.
func Inspect(mountPoint string) odt.SDState {
	entries, err := os.ReadDir(mountPoint)
	if err != nil {
		return odt.StateUnknown
	}

	meaningful := 0
	hasOnion := false
	hasStock := false
	for _, entry := range entries {
		name := entry.Name()
		if _, ok := systemArtefacts[name]; !ok {
			meaningful++
		}
		switch name {
		case ".tmp_update":
			hasOnion = true
		case "miyoo":
			hasStock = true
		}
	}

	switch {
	case meaningful == 0:
		return odt.StateEmpty
	case hasOnion:
		return odt.StateOnion
	case hasStock:
		return odt.StateStock
	default:
		return odt.StateUnknown
	}
}

// OnionVersion reads the installed Onion version from the card, or ""
// when it cannot be determined.
func OnionVersion(mountPoint string) string {
	return backup.DetectVersion(mountPoint)
}

// FreeSpace reports the bytes available to an unprivileged user on the
// filesystem containing path. Returns zero for invalid paths.
func FreeSpace(path string) uint64 {
	usage, err := disk.Usage(filepath.Clean(path))
	if err != nil {
		return 0
	}
	return usage.Free
}
