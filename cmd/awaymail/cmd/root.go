// Package cmd provides the CLI commands for awaymail.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/awaymail/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "awaymail",
	Short: "awaymail - e-mail on away for XMPP",
	Long: `awaymail watches chat messages handed to it by an XMPP server. When the
recipient is away, the message is mailed to their e-mail address and the
sender gets an "I'm away" confirmation.

Quick start:
  1. Create a config file: awaymail.yaml
  2. Run: awaymail start

Configuration:
  Config is loaded from awaymail.yaml in the current directory,
  $HOME/.awaymail/, or /etc/awaymail/.

  Environment variables can override config values with the AWAYMAIL_ prefix.
  Example: AWAYMAIL_FORWARDING_SUBJECT="Chat message"

Commands:
  start       Start the daemon
  config      Show or check the effective configuration
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./awaymail.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
