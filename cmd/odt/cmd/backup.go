package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onion-tools/odt/pkg/backup"
	"github.com/onion-tools/odt/pkg/utils"
)

var (
	flagCategories  []string
	flagDescription string
)

func backupService() *backup.Service {
	return backup.NewService(cfg.Categories, log)
}

// selectedCategories defaults to every known category when the flag is
// not given.
func selectedCategories() []string {
	if len(flagCategories) > 0 {
		return flagCategories
	}
	return cfg.Categories.Keys()
}

func printProgress(category, relPath string, done, total int) {
	fmt.Printf("\r[%d/%d] %s: %s\033[K", done, total, category, relPath)
	if done == total {
		fmt.Println()
	}
}

var backupCmd = &cobra.Command{
	Use:   "backup <sd-mount>",
	Short: "Back up selected categories from the SD card",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := backupService().Create(args[0], cfg.BackupRoot, selectedCategories(), flagDescription, printProgress)
		if err != nil {
			fatal(err)
		}
		fmt.Println(result.Message)
		fmt.Printf("Snapshot: %s\n", result.Path)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <snapshot-path> <sd-mount>",
	Short: "Restore a snapshot onto the SD card",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := backupService().Restore(args[0], args[1], selectedCategories(), printProgress)
		if err != nil {
			fatal(err)
		}
		fmt.Println(result.Message)
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List snapshots, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		snapshots := backupService().List(cfg.BackupRoot)
		if len(snapshots) == 0 {
			fmt.Printf("No backups found under %s\n", cfg.BackupRoot)
			return
		}
		for _, snap := range snapshots {
			fmt.Printf("%s\n", snap.Path)
			fmt.Printf("  date: %s  state: %s  version: %s  files: %d\n",
				snap.Meta.Date, snap.Meta.State, orDash(snap.Meta.Version), snap.Meta.TotalFiles)
			fmt.Printf("  categories: %s\n", strings.Join(snap.Meta.Categories, ", "))
			if snap.Meta.Description != "" {
				fmt.Printf("  description: %s\n", snap.Meta.Description)
			}
		}
	},
}

var sizeCmd = &cobra.Command{
	Use:   "size <sd-mount>",
	Short: "Estimate the size of the selected categories",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bytes := backupService().Size(args[0], selectedCategories())
		fmt.Printf("%s (%d bytes)\n", utils.PrettyPrintSize(bytes), bytes)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <stock-mount> <onion-mount>",
	Short: "Copy saves, ROMs and BIOS files from a stock SD card to an Onion one",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := backupService().MigrateStockToOnion(args[0], args[1], printProgress)
		if err != nil {
			fatal(err)
		}
		fmt.Println(result.Message)
	},
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	for _, c := range []*cobra.Command{backupCmd, restoreCmd, sizeCmd} {
		c.Flags().StringSliceVarP(&flagCategories, "categories", "c", nil, "category keys to include (default: all)")
	}
	backupCmd.Flags().StringVarP(&flagDescription, "description", "d", "", "free-form snapshot description")

	rootCmd.AddCommand(backupCmd, restoreCmd, backupsCmd, sizeCmd, migrateCmd)
}
