package sdcard

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	formatTimeout = 5 * time.Minute
	checkTimeout  = 5 * time.Minute
)

// largeCardThreshold is the card size above which mkfs.vfat gets a bigger
// cluster size (128 sectors instead of 64).
const largeCardThreshold = 128 * 1024 * 1024 * 1024

// partitionDevice returns the first-partition node for a whole-disk
// device: /dev/sdb -> /dev/sdb1, /dev/mmcblk0 -> /dev/mmcblk0p1.
func partitionDevice(device string) string {
	base := filepath.Base(device)
	if len(base) > 0 && base[len(base)-1] >= '0' && base[len(base)-1] <= '9' {
		return device + "p1"
	}
	return device + "1"
}

// CardSizeBytes reads a whole disk's size from sysfs. Returns zero when
// the device is unknown.
func CardSizeBytes(device string) int64 {
	name := filepath.Base(device)
	data, err := os.ReadFile(fmt.Sprintf("/sys/block/%s/size", name))
	if err != nil {
		return 0
	}
	sectors, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return sectors * 512
}

// FormatFAT32 wipes device and creates a single FAT32 partition on a fresh
// MBR partition table, labelled for Onion. Every privileged command is
// batched into one script so polkit asks for authorisation only once.
func FormatFAT32(device, label string) (string, error) {
	device = ensureBlockDevice(device)
	label = strings.ToUpper(label)
	if len(label) > 11 {
		// FAT32 volume labels cap at 11 characters.
		label = label[:11]
	}

	partition := partitionDevice(device)

	clusterSectors := "64"
	if CardSizeBytes(device) > largeCardThreshold {
		clusterSectors = "128"
	}

	// Unmount via udisksctl first; no root needed.
	if partitions, err := ListPartitions(device); err == nil {
		for _, part := range partitions {
			if len(part.MountPoints) > 0 {
				run(udisksTimeout, "udisksctl", "unmount", "-b", part.Path)
			}
		}
	}

	script := fmt.Sprintf(`#!/bin/sh
set -e

# Unmount anything still mounted
for p in %[1]s*; do
    umount "$p" 2>/dev/null || true
done

# Fresh MBR partition table with a single FAT32 partition
%[2]s -s %[1]s mklabel msdos
%[2]s -s -a optimal %[1]s mkpart primary fat32 1MiB 100%%

# Tell the kernel about the new partition table
%[3]s %[1]s
udevadm settle --timeout=5
sleep 1

%[4]s -F32 -s %[5]s -n %[6]s %[7]s

udevadm settle --timeout=5
`, device, toolPath("parted"), toolPath("partprobe"), toolPath("mkfs.vfat"), clusterSectors, label, partition)

	scriptFile, err := os.CreateTemp("", "odt-format-*.sh")
	if err != nil {
		return "", fmt.Errorf("failed to create format script: %w", err)
	}
	scriptPath := scriptFile.Name()
	defer os.Remove(scriptPath)

	if _, err := scriptFile.WriteString(script); err != nil {
		scriptFile.Close()
		return "", fmt.Errorf("failed to write format script: %w", err)
	}
	if err := scriptFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write format script: %w", err)
	}
	if err := os.Chmod(scriptPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to mark format script executable: %w", err)
	}

	if res := runPrivileged(formatTimeout, scriptPath); !res.ok() {
		return "", fmt.Errorf("format failed: %s", res.errorText())
	}

	return fmt.Sprintf("Successfully formatted %s as FAT32 (label=%s)", device, label), nil
}

// CheckDisk runs a non-destructive fsck.vfat -n pass over the first
// partition of device and returns the tool's combined output.
func CheckDisk(device string) (string, error) {
	device = ensureBlockDevice(device)
	partition := partitionDevice(device)

	// Unmount first to avoid "filesystem is mounted" warnings.
	if partitions, err := ListPartitions(device); err == nil {
		for _, part := range partitions {
			if part.Path == partition && len(part.MountPoints) > 0 {
				run(udisksTimeout, "udisksctl", "unmount", "-b", partition)
			}
		}
	}

	res := runPrivileged(checkTimeout, toolPath("fsck.vfat"), "-n", partition)
	output := strings.TrimSpace(res.stdout + "\n" + res.stderr)
	if !res.ok() && output == "" {
		return "", fmt.Errorf("fsck.vfat failed: %w", res.err)
	}
	return output, nil
}
