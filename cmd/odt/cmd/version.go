package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/onion-tools/odt/pkg/installer"
	"github.com/onion-tools/odt/pkg/version"
)

var flagCheckUpdate bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Printf("odt %s\n", info.String())

		if flagCheckUpdate {
			available, latest, url := installer.NewClient().CheckForAppUpdate(info.Release)
			if available {
				fmt.Printf("Update available: %s (%s)\n", latest, url)
			} else {
				fmt.Println("You are up to date.")
			}
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagCheckUpdate, "check-update", false, "check GitHub for a newer release")

	rootCmd.AddCommand(versionCmd)
}
