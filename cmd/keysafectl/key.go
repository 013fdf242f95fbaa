package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/keysafehq/keysafe/pkg/backend/postgres"
	"github.com/keysafehq/keysafe/pkg/config"
	"github.com/keysafehq/keysafe/pkg/db"
	"github.com/keysafehq/keysafe/pkg/keymanager"
	"github.com/keysafehq/keysafe/pkg/seal"
)

// keyCmd represents the key command
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage private keys",
	Long:  `Manage private keys in the secret store directly, without going through the HTTP API.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'key' requires a subcommand (generate, store, fetch, rotate)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var keyGenerateCmd = &cobra.Command{
	Use:   "generate <project> <name>",
	Short: "Generate and store a new private key",
	Long: `Generate a new 256-bit private key and store it under the named secret.

The key is printed to stdout exactly once. If storage fails the key is
discarded; generate again.

Example:
  keysafectl key generate p1 wallet-a
  keysafectl key generate p1 wallet-a --version v1`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := newManagerFromEnv()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		privateKey, err := manager.GeneratePrivateKey()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to generate key:", err)
			os.Exit(1)
		}

		if err := manager.StorePrivateKey(context.Background(), args[0], args[1], privateKey, keyStoreOptions(cmd)...); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Println(privateKey)
	},
}

var keyStoreCmd = &cobra.Command{
	Use:   "store <project> <name> <key>",
	Short: "Store caller-supplied key material",
	Long: `Store key material under the named secret as a new version.

Example:
  keysafectl key store p1 wallet-a 4f3c...
  keysafectl key store p1 wallet-a 4f3c... --version v2 --rotation-seconds 86400`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := newManagerFromEnv()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if err := manager.StorePrivateKey(context.Background(), args[0], args[1], args[2], keyStoreOptions(cmd)...); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

var keyFetchCmd = &cobra.Command{
	Use:   "fetch <project> <name>",
	Short: "Fetch a stored private key",
	Long: `Fetch the stored key material for a secret, verbatim.

Example:
  keysafectl key fetch p1 wallet-a
  keysafectl key fetch p1 wallet-a --version v1`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := newManagerFromEnv()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		version, _ := cmd.Flags().GetString("version")
		privateKey, err := manager.GetPrivateKey(context.Background(), args[0], args[1], version)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Println(privateKey)
	},
}

var keyRotateCmd = &cobra.Command{
	Use:   "rotate <name>",
	Short: "Rotate a private key (always refused)",
	Long: `Request rotation of a private key.

Rotation is refused unconditionally: a rotated key silently invalidates
every prior use of that identity.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		manager := keymanager.NewManager(nil)
		if _, err := manager.RotatePrivateKey(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyGenerateCmd)
	keyCmd.AddCommand(keyStoreCmd)
	keyCmd.AddCommand(keyFetchCmd)
	keyCmd.AddCommand(keyRotateCmd)

	for _, cmd := range []*cobra.Command{keyGenerateCmd, keyStoreCmd} {
		cmd.Flags().String("version", "", "version label (default: latest)")
		cmd.Flags().Int("rotation-seconds", 0, "advisory seconds until next rotation")
	}
	keyFetchCmd.Flags().String("version", "", "version label (default: latest)")
}

func keyStoreOptions(cmd *cobra.Command) []keymanager.StoreOption {
	var opts []keymanager.StoreOption
	if version, _ := cmd.Flags().GetString("version"); version != "" {
		opts = append(opts, keymanager.WithVersion(version))
	}
	if seconds, _ := cmd.Flags().GetInt("rotation-seconds"); seconds > 0 {
		opts = append(opts, keymanager.WithRotationIn(time.Duration(seconds)*time.Second))
	}
	return opts
}

// newManagerFromEnv builds a manager over the PostgreSQL store using
// KEYSAFE_DATA_KEY and DATABASE_URL.
func newManagerFromEnv() (*keymanager.Manager, error) {
	dataKeyB64 := os.Getenv("KEYSAFE_DATA_KEY")
	if dataKeyB64 == "" {
		return nil, fmt.Errorf("KEYSAFE_DATA_KEY environment variable is required")
	}

	dataKey, err := base64.StdEncoding.DecodeString(dataKeyB64)
	if err != nil {
		return nil, fmt.Errorf("bad KEYSAFE_DATA_KEY: %w", err)
	}

	cipher, err := seal.NewSymmetric(dataKey)
	if err != nil {
		return nil, fmt.Errorf("unable to initiate cipher: %w", err)
	}

	conn, err := db.Connect(db.Config{Cipher: cipher})
	if err != nil {
		return nil, err
	}

	cfg := config.Get()
	return keymanager.NewManager(
		postgres.NewStore(conn),
		keymanager.WithDefaultProject(cfg.DefaultProject),
		keymanager.WithRotationPeriod(cfg.DefaultRotation()),
	), nil
}
