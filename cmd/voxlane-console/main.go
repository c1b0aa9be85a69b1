package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/voxlane/console-core/internal/logging"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	flagAPIURL    string
	flagDataDir   string
	flagStore     string
	flagLogLevel  string
	flagLogFormat string
	flagInsecure  bool
	flagEnvFile   string
)

var rootCmd = &cobra.Command{
	Use:     "voxlane-console",
	Short:   "Voxlane console core - access resolution for the calling-agent dashboard",
	Long:    `voxlane-console resolves what an authenticated Voxlane user may see: the application, the welcome wizard, or the plan-selection prompt. It also checks usage nudges and records their dismissal.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagEnvFile != "" {
			if err := godotenv.Load(flagEnvFile); err != nil {
				return fmt.Errorf("load env file %s: %w", flagEnvFile, err)
			}
		} else {
			// Best effort: a local .env is optional.
			_ = godotenv.Load()
		}
		applyEnvDefaults()

		logging.Init(logging.Config{
			Format:    flagLogFormat,
			Level:     flagLogLevel,
			Component: "voxlane-console",
		})
		return nil
	},
}

func applyEnvDefaults() {
	if flagAPIURL == "" {
		flagAPIURL = os.Getenv("VOXLANE_API_URL")
	}
	if flagDataDir == "" {
		flagDataDir = os.Getenv("VOXLANE_DATA_DIR")
	}
	if flagDataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			flagDataDir = home + "/.voxlane"
		}
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("voxlane-console %s\n", Version)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Base URL of the Voxlane API (env VOXLANE_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Directory for persisted flags (env VOXLANE_DATA_DIR, default ~/.voxlane)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "file", "Flag store backend: file, sqlite, or memory")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "auto", "Log format: json, console, or auto")
	rootCmd.PersistentFlags().BoolVar(&flagInsecure, "insecure-skip-verify", false, "Skip TLS certificate verification")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Load environment from this file instead of ./.env")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(usageCheckCmd)
	rootCmd.AddCommand(dismissCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
