// Package main provides the entry point for the parrot CLI application.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/parrot/internal/config"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	settingsDir string
	verbose     bool

	// Loaded in PersistentPreRunE.
	cfg      config.Config
	logger   *log.Logger
	logClose = func() error { return nil }

	rootCmd = &cobra.Command{
		Use:   "parrot",
		Short: "Speak text aloud, with a cache and a fallback voice",
		Long: paragraph(
			fmt.Sprintf("\nSpeak text aloud, %s!", keyword("with a cache and a fallback voice")),
		),
		SilenceErrors: false,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			l, closer, err := setupLog(cfg, verbose)
			if err != nil {
				return err
			}
			logger, logClose = l, closer
			return nil
		},
	}
)

func main() {
	err := rootCmd.Execute()
	_ = logClose()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&settingsDir, "settings-dir", "", "directory holding settings.yaml and credentials.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(sayCmd, serveCmd, voiceCmd, cacheCmd, configCmd)
}
