package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/onion-tools/odt/pkg/config"
)

var (
	flagConfig  string
	flagLogFile string
	flagVerbose bool

	log = logrus.New()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "odt",
	Short: "Onion OS desktop tools for SD card setup, backup and configuration",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()

		loaded, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("unable to load configuration: %w", err)
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

func setupLogging() {
	log.SetLevel(logrus.InfoLevel)
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	logFile := flagLogFile
	if logFile == "" {
		if cacheDir, err := os.UserCacheDir(); err == nil {
			logFile = filepath.Join(cacheDir, "odt", "odt.log")
		}
	}
	if logFile == "" {
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotated))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.json (default: built-in settings)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "log file path (default: user cache directory)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}
