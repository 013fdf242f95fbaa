package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keysafehq/keysafe/pkg/audit"
	"github.com/keysafehq/keysafe/pkg/config"
	"github.com/keysafehq/keysafe/pkg/server/middleware"
)

// tokenCmd represents the token command
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API tokens",
	Long:  `Manage API tokens for the HTTP API.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'token' requires a subcommand (issue)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// tokenIssueCmd represents the token issue command
var tokenIssueCmd = &cobra.Command{
	Use:   "issue <subject>",
	Short: "Issue an API token",
	Long: `Issue a signed bearer token for the given subject.

The token is signed with KEYSAFE_DATA_KEY and expires after the
configured token TTL.

Example:
  keysafectl token issue alice`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dataKeyB64 := os.Getenv("KEYSAFE_DATA_KEY")
		if dataKeyB64 == "" {
			fmt.Fprintln(os.Stderr, "KEYSAFE_DATA_KEY environment variable is required")
			os.Exit(1)
		}

		dataKey, err := base64.StdEncoding.DecodeString(dataKeyB64)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Bad KEYSAFE_DATA_KEY:", err)
			os.Exit(1)
		}

		auth := middleware.NewTokenAuthenticator(dataKey, config.Get().TokenTTL())

		token, err := auth.IssueToken(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to issue token:", err)
			os.Exit(1)
		}

		id, err := auth.ParseToken(token)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to verify issued token:", err)
			os.Exit(1)
		}

		audit.Log(audit.TokenIssuedEvent{
			Subject:   id.Subject,
			TokenID:   id.TokenID,
			ExpiresAt: id.ExpiresAt,
		})

		fmt.Println(token)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)
}
