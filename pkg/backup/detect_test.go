package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	odt "github.com/onion-tools/odt/pkg"
)

func TestDetectStateOnion(t *testing.T) {
	mount := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(mount, ".tmp_update"), 0o755))
	// An Onion card usually still has a miyoo directory; .tmp_update wins.
	require.NoError(t, os.MkdirAll(filepath.Join(mount, "miyoo", "app"), 0o755))

	assert.Equal(t, odt.StateOnion, DetectState(mount))
}

func TestDetectStateStock(t *testing.T) {
	mount := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(mount, "miyoo", "app"), 0o755))

	assert.Equal(t, odt.StateStock, DetectState(mount))
}

func TestDetectStateUnknown(t *testing.T) {
	mount := t.TempDir()
	mustWriteFile(t, filepath.Join(mount, "random.txt"), "hi")

	assert.Equal(t, odt.StateUnknown, DetectState(mount))
	assert.Equal(t, odt.StateUnknown, DetectState(filepath.Join(mount, "missing")))
}

func TestDetectVersionPrefersFirstCandidate(t *testing.T) {
	mount := t.TempDir()
	mustWriteFile(t, filepath.Join(mount, ".tmp_update", "onionVersion", "version.txt"), "4.3.1\n")
	mustWriteFile(t, filepath.Join(mount, ".tmp_update", "version.txt"), "4.0.0")

	assert.Equal(t, "4.3.1", DetectVersion(mount))
}

func TestDetectVersionFallsThroughEmptyFiles(t *testing.T) {
	mount := t.TempDir()
	mustWriteFile(t, filepath.Join(mount, ".tmp_update", "onionVersion", "version.txt"), "  \n")
	mustWriteFile(t, filepath.Join(mount, ".tmp_update", "config", "version.txt"), "4.2.0-beta")

	assert.Equal(t, "4.2.0-beta", DetectVersion(mount))
}

func TestDetectVersionMissingEverywhere(t *testing.T) {
	assert.Equal(t, "", DetectVersion(t.TempDir()))
}
