package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onion-tools/odt/pkg/packages"
)

var flagPackageType string

func packageManager() *packages.Manager {
	return packages.NewManager(log)
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "Manage emulator and application packages on the SD card",
}

var packagesListCmd = &cobra.Command{
	Use:   "list <sd-mount>",
	Short: "List the packages staged on the SD card",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		found, err := packageManager().Scan(args[0])
		if err != nil {
			fatal(err)
		}
		if len(found) == 0 {
			fmt.Println("No packages found on the card.")
			return
		}
		for _, pkg := range found {
			var notes []string
			if pkg.Installed {
				notes = append(notes, "installed")
			}
			if pkg.HasRoms {
				notes = append(notes, "roms present")
			}
			suffix := ""
			if len(notes) > 0 {
				suffix = "  (" + strings.Join(notes, ", ") + ")"
			}
			fmt.Printf("%-6s %s%s\n", pkg.Type, pkg.Name, suffix)
		}
	},
}

var packagesInstallCmd = &cobra.Command{
	Use:   "install <sd-mount> <name>",
	Short: "Install a staged package",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := packageManager().Install(args[0], args[1], packages.Type(flagPackageType)); err != nil {
			fatal(err)
		}
		fmt.Printf("Successfully installed %s\n", args[1])
	},
}

var packagesUninstallCmd = &cobra.Command{
	Use:   "uninstall <sd-mount> <name>",
	Short: "Remove an installed package, keeping its ROMs",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := packageManager().Uninstall(args[0], args[1], packages.Type(flagPackageType)); err != nil {
			fatal(err)
		}
		fmt.Printf("Successfully uninstalled %s\n", args[1])
	},
}

var packagesAutoCmd = &cobra.Command{
	Use:   "auto <sd-mount>",
	Short: "Install every emulator that already has ROMs on the card",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		installed, err := packageManager().AutoInstall(args[0])
		if err != nil {
			fatal(err)
		}
		if len(installed) == 0 {
			fmt.Println("Nothing to install.")
			return
		}
		fmt.Printf("Installed %d packages: %s\n", len(installed), strings.Join(installed, ", "))
	},
}

func init() {
	for _, c := range []*cobra.Command{packagesInstallCmd, packagesUninstallCmd} {
		c.Flags().StringVarP(&flagPackageType, "type", "t", "emu", "package type: emu, rapp or app")
	}

	packagesCmd.AddCommand(packagesListCmd, packagesInstallCmd, packagesUninstallCmd, packagesAutoCmd)
	rootCmd.AddCommand(packagesCmd)
}
