package wifi

import (
	"fmt"

	"github.com/mdlayher/wifi"
)

// Interface describes one wireless interface on the host.
type Interface struct {
	Name         string `json:"name"`
	HardwareAddr string `json:"hardwareAddr"`
	SSID         string `json:"ssid,omitempty"`
}

// HostInterfaces lists the wireless interfaces on the host over
// netlink, with the SSID of the network each is associated to, when
// any. Requires Linux and nl80211 support.
func HostInterfaces() ([]Interface, error) {
	client, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("unable to open nl80211 connection: %w", err)
	}
	defer client.Close()

	ifis, err := client.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("unable to list wireless interfaces: %w", err)
	}

	var interfaces []Interface
	for _, ifi := range ifis {
		if ifi.Name == "" {
			continue
		}
		entry := Interface{
			Name:         ifi.Name,
			HardwareAddr: ifi.HardwareAddr.String(),
		}
		// Not associated is the common case and not an error.
		if bss, err := client.BSS(ifi); err == nil && bss != nil {
			entry.SSID = bss.SSID
		}
		interfaces = append(interfaces, entry)
	}
	return interfaces, nil
}
