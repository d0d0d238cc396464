package wifi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionUUIDs(t *testing.T) {
	out := "Home WiFi:11111111-2222-3333-4444-555555555555\n" +
		"office:net:5g:66666666-7777-8888-9999-000000000000\n" +
		"malformed line\n" +
		"\n"

	uuids := parseConnectionUUIDs(out)
	assert.Equal(t, []string{
		"11111111-2222-3333-4444-555555555555",
		"66666666-7777-8888-9999-000000000000",
	}, uuids)
}

func TestParseConnectionUUIDsEmpty(t *testing.T) {
	assert.Empty(t, parseConnectionUUIDs(""))
}

func TestParseConnectionDetails(t *testing.T) {
	out := `connection.id:                          Home WiFi
connection.type:                        802-11-wireless
802-11-wireless.ssid:                   Home WiFi
802-11-wireless-security.key-mgmt:      wpa-psk
802-11-wireless-security.psk:           hunter22
`
	ssid, psk := parseConnectionDetails(out)
	assert.Equal(t, "Home WiFi", ssid)
	assert.Equal(t, "hunter22", psk)
}

func TestParseConnectionDetailsUnsetValues(t *testing.T) {
	out := `802-11-wireless.ssid:                   CoffeeShop
802-11-wireless-security.psk:           --
`
	ssid, psk := parseConnectionDetails(out)
	assert.Equal(t, "CoffeeShop", ssid)
	assert.Empty(t, psk)
}

func TestParseConnectionDetailsEthernet(t *testing.T) {
	out := `connection.id:                          Wired connection 1
connection.type:                        802-3-ethernet
`
	ssid, psk := parseConnectionDetails(out)
	assert.Empty(t, ssid)
	assert.Empty(t, psk)
}

func TestWriteConfigRoundTrip(t *testing.T) {
	sd := t.TempDir()
	require.NoError(t, WriteConfig(sd, "Home WiFi", "hunter22"))

	data, err := os.ReadFile(filepath.Join(sd, "appconfigs", "wpa_supplicant.conf"))
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "ctrl_interface=/var/run/wpa_supplicant")
	assert.Contains(t, content, "update_config=1")
	assert.Contains(t, content, `ssid="Home WiFi"`)
	assert.Contains(t, content, `psk="hunter22"`)
	assert.NotContains(t, content, "\r\n")

	ssid, psk := ReadConfig(sd)
	assert.Equal(t, "Home WiFi", ssid)
	assert.Equal(t, "hunter22", psk)
}

func TestWriteConfigEmptySSID(t *testing.T) {
	err := WriteConfig(t.TempDir(), "", "secret")
	require.ErrorContains(t, err, "SSID cannot be empty")
}

func TestReadConfigMissingFile(t *testing.T) {
	ssid, psk := ReadConfig(t.TempDir())
	assert.Empty(t, ssid)
	assert.Empty(t, psk)
}

func TestExtractFieldUnquoted(t *testing.T) {
	content := "network={\n    ssid=plain\n    psk=alsoplain\n}\n"
	assert.Equal(t, "plain", extractField(content, "ssid"))
	assert.Equal(t, "alsoplain", extractField(content, "psk"))
	assert.Empty(t, extractField(content, "priority"))
}
