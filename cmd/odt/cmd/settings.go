package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/onion-tools/odt/pkg/settings"
)

func settingsManager() *settings.Manager {
	return settings.NewManager(cfg.Options, log)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and toggle Onion OS configuration flags",
}

var settingsListCmd = &cobra.Command{
	Use:   "list <sd-mount>",
	Short: "Show every option and its current state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		manager := settingsManager()
		state, err := manager.Current(args[0])
		if err != nil {
			fatal(err)
		}

		groups := manager.Groups()
		names := make([]string, 0, len(groups))
		for name := range groups {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Printf("%s:\n", name)
			for _, opt := range groups[name] {
				marker := " "
				if state[opt.Filename] {
					marker = "x"
				}
				fmt.Printf("  [%s] %-20s %s\n", marker, opt.Filename, opt.Label)
			}
		}
	},
}

var settingsEnableCmd = &cobra.Command{
	Use:   "enable <sd-mount> <flag>",
	Short: "Enable an option",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := settingsManager().Toggle(args[0], args[1], true); err != nil {
			fatal(err)
		}
		fmt.Printf("Enabled %s\n", args[1])
	},
}

var settingsDisableCmd = &cobra.Command{
	Use:   "disable <sd-mount> <flag>",
	Short: "Disable an option",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := settingsManager().Toggle(args[0], args[1], false); err != nil {
			fatal(err)
		}
		fmt.Printf("Disabled %s\n", args[1])
	},
}

func init() {
	settingsCmd.AddCommand(settingsListCmd, settingsEnableCmd, settingsDisableCmd)
	rootCmd.AddCommand(settingsCmd)
}
