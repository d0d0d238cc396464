// Package wifi reads saved wireless credentials from the host via
// NetworkManager and writes wpa_supplicant configuration to the SD
// card for Onion OS to pick up.
package wifi

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const nmcliTimeout = 10 * time.Second

// Network is one saved wireless network with its pre-shared key. The
// key is empty for open networks or when NetworkManager stores none.
type Network struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// HostNetworks lists the wireless networks saved on the host system.
// It shells out to nmcli, so NetworkManager must be installed.
func HostNetworks(log *logrus.Logger) ([]Network, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	out, err := runNmcli("-t", "-f", "NAME,UUID", "connection", "show")
	if err != nil {
		return nil, fmt.Errorf("unable to list saved connections: %w", err)
	}

	var networks []Network
	for _, uuid := range parseConnectionUUIDs(out) {
		details, err := runNmcli("-s", "connection", "show", uuid)
		if err != nil {
			log.WithError(err).WithField("uuid", uuid).Debug("Skipping connection")
			continue
		}
		ssid, psk := parseConnectionDetails(details)
		if ssid == "" {
			continue
		}
		networks = append(networks, Network{SSID: ssid, Password: psk})
	}

	log.WithField("count", len(networks)).Info("Found saved wireless networks")
	return networks, nil
}

func runNmcli(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), nmcliTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "nmcli", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("nmcli: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// parseConnectionUUIDs extracts the UUID column from terse nmcli
// output. Connection names may contain colons, so the line is split on
// the last one.
func parseConnectionUUIDs(out string) []string {
	var uuids []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		idx := strings.LastIndex(line, ":")
		if idx < 0 {
			continue
		}
		uuid := strings.TrimSpace(line[idx+1:])
		if uuid != "" {
			uuids = append(uuids, uuid)
		}
	}
	return uuids
}

// parseConnectionDetails pulls the SSID and PSK out of a full nmcli
// connection dump. nmcli prints "--" for unset values.
func parseConnectionDetails(out string) (ssid, psk string) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "802-11-wireless.ssid:"):
			if v := nmcliValue(line); v != "" {
				ssid = v
			}
		case strings.HasPrefix(line, "802-11-wireless-security.psk:"):
			if v := nmcliValue(line); v != "" {
				psk = v
			}
		}
	}
	return ssid, psk
}

func nmcliValue(line string) string {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}
	value = strings.TrimSpace(value)
	if value == "--" {
		return ""
	}
	return value
}
