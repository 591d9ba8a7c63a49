package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"vscodl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vscodl",
	Short: "Download the public images of a VSCO profile",
	Long: `vscodl enumerates a VSCO profile's gallery and saves its images.

Features:
  - No account needed: the session token is read from the public gallery page
  - Concurrent downloads with a configurable worker count
  - Already saved images are skipped on later runs
  - Optional JSON metadata next to each image
  - YAML listing of a profile without downloading anything`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetColor(!noColor)

		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}

		// Listings go to stdout and must stay parseable
		if listOnly {
			ui.SetQuietMode(true)
		}

		switch cmd.Name() {
		case "version", "help", "completion":
		default:
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.vscodl.yaml or $HOME/.vscodl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`vscodl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
