package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onion-tools/odt/pkg/sdcard"
	"github.com/onion-tools/odt/pkg/utils"
)

var flagLabel string

var drivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "List removable drives",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		devices, err := sdcard.ListRemovable(log)
		if err != nil {
			fatal(err)
		}
		if len(devices) == 0 {
			fmt.Println("No removable drives found.")
			return
		}
		for _, dev := range devices {
			fmt.Printf("%s  %s  %s %s\n", dev.Path, dev.SizePretty, dev.Transport, dev.Model)
			for _, part := range dev.Partitions {
				fmt.Printf("  %s  %s  %s  %s\n", part.Path, part.Fstype, part.Label, mountText(part))
			}
		}
	},
}

var partitionsCmd = &cobra.Command{
	Use:   "partitions <device>",
	Short: "List the partitions of a drive",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		partitions, err := sdcard.ListPartitions(args[0])
		if err != nil {
			fatal(err)
		}
		for _, part := range partitions {
			fmt.Printf("%s  %s  %s  %s\n", part.Path, part.Fstype, part.Label, mountText(part))
		}
	},
}

func mountText(part sdcard.Partition) string {
	if len(part.MountPoints) == 0 {
		return "(not mounted)"
	}
	return strings.Join(part.MountPoints, ", ")
}

var formatCmd = &cobra.Command{
	Use:   "format <device>",
	Short: "Format an SD card as a single FAT32 partition",
	Long: `Format erases the device and creates one FAT32 partition spanning the
whole card. Cards over 128 GiB get larger clusters so FAT32 can address
them. Requires pkexec or root.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Formatting %s, this erases ALL data on the card.\n", args[0])
		out, err := sdcard.FormatFAT32(args[0], flagLabel)
		if err != nil {
			fatal(err)
		}
		if out != "" {
			fmt.Println(out)
		}
		fmt.Println("Format complete.")
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <device>",
	Short: "Run a read-only filesystem check on the first partition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, err := sdcard.CheckDisk(args[0])
		if err != nil {
			fatal(err)
		}
		fmt.Println(out)
	},
}

var mountCmd = &cobra.Command{
	Use:   "mount <partition>",
	Short: "Mount a partition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mountPoint, err := sdcard.Mount(args[0])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Mounted at %s\n", mountPoint)
		state := sdcard.Inspect(mountPoint)
		fmt.Printf("Card state: %s", state)
		if version := sdcard.OnionVersion(mountPoint); version != "" {
			fmt.Printf(" (Onion %s)", version)
		}
		fmt.Println()
		fmt.Printf("Free space: %s\n", utils.PrettyPrintSize(int64(sdcard.FreeSpace(mountPoint))))
	},
}

var unmountCmd = &cobra.Command{
	Use:   "unmount <partition>",
	Short: "Unmount a partition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := sdcard.Unmount(args[0])
		if err != nil {
			fatal(err)
		}
		fmt.Println(msg)
	},
}

var ejectCmd = &cobra.Command{
	Use:   "eject <device>",
	Short: "Unmount all partitions and power the drive off",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := sdcard.Eject(args[0])
		if err != nil {
			fatal(err)
		}
		fmt.Println(msg)
	},
}

func init() {
	formatCmd.Flags().StringVarP(&flagLabel, "label", "l", "ONION", "volume label for the new filesystem")

	rootCmd.AddCommand(drivesCmd, partitionsCmd, formatCmd, checkCmd, mountCmd, unmountCmd, ejectCmd)
}
