// Package sdcard discovers removable drives and prepares SD cards for
// Onion OS: partitioning and FAT32 formatting, filesystem checks,
// mounting, unmounting and safe ejection. Destructive steps are batched
// into a single privileged script so polkit prompts the user once.
package sdcard

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/dell/csi-baremetal/pkg/base/linuxutils/lsblk"
	"github.com/sirupsen/logrus"

	"github.com/onion-tools/odt/pkg/utils"
)

// Device is a whole removable disk as reported by lsblk.
type Device struct {
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	SizeBytes   int64       `json:"sizeBytes"`
	SizePretty  string      `json:"sizePretty"`
	Model       string      `json:"model"`
	Transport   string      `json:"transport"`
	Label       string      `json:"label"`
	Fstype      string      `json:"fstype"`
	MountPoints []string    `json:"mountPoints"`
	Partitions  []Partition `json:"partitions"`
}

// Partition is a single partition on a device.
type Partition struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Fstype      string   `json:"fstype"`
	Label       string   `json:"label"`
	MountPoints []string `json:"mountPoints"`
}

type lsblkDevice struct {
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	Mountpoints []string        `json:"mountpoints"`
	RM          json.RawMessage `json:"rm"`
	Type        string          `json:"type"`
	Fstype      string          `json:"fstype"`
	Model       string          `json:"model"`
	Tran        string          `json:"tran"`
	Label       string          `json:"label"`
	Children    []lsblkDevice   `json:"children,omitempty"`
}

type lsblkOutput struct {
	Blockdevices []lsblkDevice `json:"blockdevices"`
}

// ListRemovable enumerates removable whole disks visible to the system.
// Fixed disks and non-disk block devices (partitions, loops) are excluded.
func ListRemovable(log *logrus.Logger) ([]Device, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	cmd := exec.Command("lsblk", "-J", "-o", "NAME,PATH,MOUNTPOINTS,RM,TYPE,FSTYPE,MODEL,TRAN,LABEL")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run lsblk: %w", err)
	}

	devices, err := parseRemovable(output)
	if err != nil {
		return nil, err
	}

	// lsblk -J reports sizes as human strings; the lsblk wrapper gives us
	// exact byte counts.
	sizes := map[string]int64{}
	lsb := lsblk.NewLSBLK(log)
	if blockDevices, err := lsb.GetBlockDevices(""); err != nil {
		log.WithError(err).Warn("Could not read device sizes")
	} else {
		for _, bd := range blockDevices {
			sizes[bd.Name] = bd.Size.Int64
		}
	}

	for i := range devices {
		if size, ok := sizes[devices[i].Name]; ok {
			devices[i].SizeBytes = size
			devices[i].SizePretty = utils.PrettyPrintSize(size)
		}
	}
	return devices, nil
}

// parseRemovable extracts removable whole disks from lsblk JSON output.
func parseRemovable(output []byte) ([]Device, error) {
	var result lsblkOutput
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse lsblk output: %w", err)
	}

	var devices []Device
	for _, dev := range result.Blockdevices {
		if !isRemovable(dev.RM) || dev.Type != "disk" {
			continue
		}
		devices = append(devices, toDevice(dev))
	}
	return devices, nil
}

func toDevice(dev lsblkDevice) Device {
	d := Device{
		Name:        dev.Name,
		Path:        devicePath(dev),
		Model:       strings.TrimSpace(dev.Model),
		Transport:   dev.Tran,
		Label:       dev.Label,
		Fstype:      dev.Fstype,
		MountPoints: nonEmpty(dev.Mountpoints),
	}
	for _, child := range dev.Children {
		if child.Type != "part" {
			continue
		}
		d.Partitions = append(d.Partitions, Partition{
			Name:        child.Name,
			Path:        devicePath(child),
			Fstype:      child.Fstype,
			Label:       child.Label,
			MountPoints: nonEmpty(child.Mountpoints),
		})
	}
	return d
}

// ListPartitions returns the partitions of one device.
func ListPartitions(device string) ([]Partition, error) {
	device = ensureBlockDevice(device)

	cmd := exec.Command("lsblk", "-J", "-o", "NAME,PATH,MOUNTPOINTS,RM,TYPE,FSTYPE,MODEL,TRAN,LABEL", device)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run lsblk for %s: %w", device, err)
	}

	var result lsblkOutput
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse lsblk output for %s: %w", device, err)
	}

	var partitions []Partition
	for _, dev := range result.Blockdevices {
		for _, child := range dev.Children {
			if child.Type != "part" {
				continue
			}
			partitions = append(partitions, Partition{
				Name:        child.Name,
				Path:        devicePath(child),
				Fstype:      child.Fstype,
				Label:       child.Label,
				MountPoints: nonEmpty(child.Mountpoints),
			})
		}
	}
	return partitions, nil
}

// isRemovable interprets lsblk's rm column, which different versions emit
// as a bool or as the strings "1"/"0".
func isRemovable(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	text := strings.Trim(string(raw), `"`)
	return text == "1" || text == "true"
}

func devicePath(dev lsblkDevice) string {
	if dev.Path != "" {
		return dev.Path
	}
	return "/dev/" + dev.Name
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ensureBlockDevice normalises a device name to an absolute /dev path.
func ensureBlockDevice(device string) string {
	if !strings.HasPrefix(device, "/dev/") {
		return "/dev/" + device
	}
	return device
}
