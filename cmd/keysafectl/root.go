package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "keysafectl",
	Short: "Keysafe secret key management server",
	Long: `keysafectl manages the Keysafe server and its data.

Keysafe stores private keys encrypted at rest in PostgreSQL and serves
them over an authenticated HTTP API.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
