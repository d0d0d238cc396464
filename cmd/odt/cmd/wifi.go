package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/onion-tools/odt/pkg/wifi"
)

var flagShowPasswords bool

var wifiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Configure wireless credentials on the SD card",
}

var wifiNetworksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List wireless networks saved on this computer",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		networks, err := wifi.HostNetworks(log)
		if err != nil {
			fatal(err)
		}
		if len(networks) == 0 {
			fmt.Println("No saved wireless networks found.")
			return
		}
		for _, network := range networks {
			if flagShowPasswords {
				fmt.Printf("%s  %s\n", network.SSID, network.Password)
			} else {
				fmt.Println(network.SSID)
			}
		}
	},
}

var wifiInterfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List wireless interfaces on this computer",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		interfaces, err := wifi.HostInterfaces()
		if err != nil {
			fatal(err)
		}
		for _, ifi := range interfaces {
			fmt.Printf("%s  %s", ifi.Name, ifi.HardwareAddr)
			if ifi.SSID != "" {
				fmt.Printf("  connected to %s", ifi.SSID)
			}
			fmt.Println()
		}
	},
}

var wifiWriteCmd = &cobra.Command{
	Use:   "write <sd-mount> <ssid> [password]",
	Short: "Write wpa_supplicant configuration to the SD card",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		password := ""
		if len(args) == 3 {
			password = args[2]
		}
		if err := wifi.WriteConfig(args[0], args[1], password); err != nil {
			fatal(err)
		}
		fmt.Printf("WiFi configuration written for '%s'\n", args[1])
	},
}

var wifiShowCmd = &cobra.Command{
	Use:   "show <sd-mount>",
	Short: "Show the wireless configuration already on the SD card",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ssid, _ := wifi.ReadConfig(args[0])
		if ssid == "" {
			fmt.Println("No wireless configuration found on the card.")
			return
		}
		fmt.Printf("Configured network: %s\n", ssid)
	},
}

func init() {
	wifiNetworksCmd.Flags().BoolVar(&flagShowPasswords, "show-passwords", false, "print stored passwords")

	wifiCmd.AddCommand(wifiNetworksCmd, wifiInterfacesCmd, wifiWriteCmd, wifiShowCmd)
	rootCmd.AddCommand(wifiCmd)
}
