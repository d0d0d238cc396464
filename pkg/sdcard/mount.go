package sdcard

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const udisksTimeout = 2 * time.Minute

// Mount mounts a partition via udisksctl and returns the mount point
// (udisks picks a /media/<user>/... path automatically).
func Mount(partition string) (string, error) {
	partition = ensureBlockDevice(partition)

	res := run(udisksTimeout, "udisksctl", "mount", "-b", partition)
	if !res.ok() {
		return "", fmt.Errorf("failed to mount %s: %s", partition, res.errorText())
	}

	// udisksctl prints "Mounted /dev/sdb1 at /media/user/ONION"
	stdout := strings.TrimSpace(res.stdout)
	if _, after, found := strings.Cut(stdout, " at "); found {
		return strings.TrimRight(after, "."), nil
	}

	// Output format changed; ask lsblk where it ended up.
	info := run(udisksTimeout, "lsblk", "-n", "-o", "MOUNTPOINT", partition)
	if mp := strings.TrimSpace(info.stdout); mp != "" {
		return mp, nil
	}
	return "", fmt.Errorf("mounted %s but could not determine mount point", partition)
}

// Unmount unmounts a partition, preferring udisksctl and falling back to a
// privileged umount.
func Unmount(partition string) (string, error) {
	partition = ensureBlockDevice(partition)

	if res := run(udisksTimeout, "udisksctl", "unmount", "-b", partition); res.ok() {
		return fmt.Sprintf("Unmounted %s.", partition), nil
	}

	if res := runPrivileged(udisksTimeout, "umount", partition); res.ok() {
		return fmt.Sprintf("Unmounted %s (via umount).", partition), nil
	} else {
		return "", fmt.Errorf("failed to unmount %s: %s", partition, res.errorText())
	}
}

// Eject safely removes a device: every mounted partition is unmounted,
// then the drive is powered off. udisksctl power-off needs no root; eject
// is the privileged fallback.
func Eject(device string) (string, error) {
	device = ensureBlockDevice(device)

	partitions, err := ListPartitions(device)
	if err != nil {
		return "", err
	}
	for _, part := range partitions {
		if len(part.MountPoints) == 0 {
			continue
		}
		if res := run(udisksTimeout, "udisksctl", "unmount", "-b", part.Path); !res.ok() {
			if res := runPrivileged(udisksTimeout, "umount", part.Path); !res.ok() {
				return "", fmt.Errorf("failed to unmount %s: %s", part.Path, res.errorText())
			}
		}
	}

	powerOff := run(udisksTimeout, "udisksctl", "power-off", "-b", device)
	if powerOff.ok() {
		return fmt.Sprintf("Drive %s has been safely ejected.", device), nil
	}

	if _, err := exec.LookPath("eject"); err == nil {
		if res := runPrivileged(udisksTimeout, "eject", device); res.ok() {
			return fmt.Sprintf("Drive %s has been ejected (via eject).", device), nil
		} else {
			return "", fmt.Errorf("failed to eject %s: %s", device, res.errorText())
		}
	}

	return "", fmt.Errorf("failed to power-off %s: %s", device, powerOff.errorText())
}
