package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onion-tools/odt/pkg/installer"
	"github.com/onion-tools/odt/pkg/sdcard"
	"github.com/onion-tools/odt/pkg/utils"
)

var flagBeta bool

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "List Onion OS releases available on GitHub",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		catalog, err := installer.NewClient().FetchReleases()
		if err != nil {
			fatal(err)
		}

		fmt.Println("Stable releases:")
		printReleases(catalog.Stable)
		if flagBeta {
			fmt.Println("Beta releases:")
			printReleases(catalog.Beta)
		}
	},
}

func printReleases(releases []installer.Release) {
	if len(releases) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, release := range releases {
		fmt.Printf("  %s  %s  %s\n", release.TagName,
			release.PublishedAt.Format("2006-01-02"),
			utils.PrettyPrintSize(release.Size))
	}
}

var downloadCmd = &cobra.Command{
	Use:   "download <tag>",
	Short: "Download a release archive",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := installer.NewClient()
		catalog, err := client.FetchReleases()
		if err != nil {
			fatal(err)
		}

		release, ok := findRelease(catalog, args[0])
		if !ok {
			fatal(fmt.Errorf("no release tagged %s (use 'odt releases' to list them)", args[0]))
		}

		path, err := client.Download(release, cfg.DownloadsDir, func(downloaded, total int64) {
			if total > 0 {
				fmt.Printf("\rDownloading %s: %d%%\033[K", release.TagName, downloaded*100/total)
			} else {
				fmt.Printf("\rDownloading %s: %s\033[K", release.TagName, utils.PrettyPrintSize(downloaded))
			}
		})
		fmt.Println()
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Saved to %s\n", path)
	},
}

func findRelease(catalog installer.Catalog, tag string) (installer.Release, bool) {
	for _, release := range append(catalog.Stable, catalog.Beta...) {
		if release.TagName == tag {
			return release, true
		}
	}
	return installer.Release{}, false
}

var installCmd = &cobra.Command{
	Use:   "install <archive> <sd-mount>",
	Short: "Extract a downloaded release onto the SD card",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		archive, sdMount := args[0], args[1]

		needed, err := installer.RequiredSpace(archive)
		if err != nil {
			fatal(err)
		}
		if free := sdcard.FreeSpace(sdMount); free > 0 && uint64(needed) > free {
			fatal(fmt.Errorf("not enough space on %s: need %s, have %s",
				sdMount, utils.PrettyPrintSize(needed), utils.PrettyPrintSize(int64(free))))
		}

		copied, err := installer.ExtractToSD(archive, sdMount, func(name string, done, total int) {
			fmt.Printf("\r[%d/%d] %s\033[K", done, total, name)
		})
		fmt.Println()
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Installed %s: %d files extracted.\n", installer.ArchiveVersion(archive), copied)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <sd-mount>",
	Short: "Check that the SD card holds a complete Onion OS install",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ok, missing, err := installer.Verify(args[0])
		if err != nil {
			fatal(err)
		}
		if !ok {
			fatal(fmt.Errorf("install incomplete, missing: %s", strings.Join(missing, ", ")))
		}
		fmt.Print("Install looks complete")
		if version := sdcard.OnionVersion(args[0]); version != "" {
			fmt.Printf(" (Onion %s)", version)
		}
		fmt.Println(".")
	},
}

func init() {
	releasesCmd.Flags().BoolVar(&flagBeta, "beta", false, "include beta releases")

	rootCmd.AddCommand(releasesCmd, downloadCmd, installCmd, verifyCmd)
}
