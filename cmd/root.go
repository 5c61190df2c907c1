// Package cmd implements the witibot CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"
const logo = "🤖"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "witibot",
	Short: logo + " witibot — chat summarizer and mensa bot",
	Long:  logo + " witibot — keeps a bounded backlog per chat, summarizes it on demand, and serves ETH/UZH mensa menus",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}
