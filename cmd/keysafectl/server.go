package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/keysafehq/keysafe/pkg/backend"
	"github.com/keysafehq/keysafe/pkg/backend/memory"
	"github.com/keysafehq/keysafe/pkg/backend/postgres"
	"github.com/keysafehq/keysafe/pkg/config"
	"github.com/keysafehq/keysafe/pkg/db"
	"github.com/keysafehq/keysafe/pkg/keymanager"
	"github.com/keysafehq/keysafe/pkg/rotation"
	"github.com/keysafehq/keysafe/pkg/seal"
	"github.com/keysafehq/keysafe/pkg/server"
	"github.com/keysafehq/keysafe/pkg/server/endpoints"
	"github.com/keysafehq/keysafe/pkg/server/middleware"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the Keysafe application server",
	Long: `Run the Keysafe application server

To run the server requires the environment variable KEYSAFE_DATA_KEY, and
DATABASE_URL when using the postgres backend.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Validate required environment variables first (fail fast)
		dataKeyB64, ok := os.LookupEnv("KEYSAFE_DATA_KEY")
		if !ok {
			fmt.Fprintln(os.Stderr, "KEYSAFE_DATA_KEY environment variable is required")
			os.Exit(1)
		}

		backendName, _ := cmd.Flags().GetString("backend")
		kind, err := backend.KindString(backendName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unknown backend %q (available: %s)\n", backendName, strings.Join(backend.KindStrings(), ", "))
			os.Exit(1)
		}

		if kind == backend.KindPostgres && os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		dataKey, err := base64.StdEncoding.DecodeString(dataKeyB64)
		if err != nil {
			fmt.Println("Bad KEYSAFE_DATA_KEY:", err)
			os.Exit(1)
		}

		cipher, err := seal.NewSymmetric(dataKey)
		if err != nil {
			fmt.Println("Unable to initiate cipher:", err)
			os.Exit(1)
		}

		cfg := config.Get()
		if err := cfg.Validate(); err != nil {
			fmt.Println("Invalid configuration:", err)
			os.Exit(1)
		}

		var conn *gorm.DB
		var store keymanager.Store
		var sweepSource rotation.Source

		switch kind {
		case backend.KindPostgres:
			// Run migrations unless --no-migrate is set
			noMigrate, _ := cmd.Flags().GetBool("no-migrate")
			if !noMigrate {
				log.Println("Running database migrations...")
				if err := runMigrations(); err != nil {
					fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
					os.Exit(1)
				}
			}

			conn, err = db.Connect(db.Config{Cipher: cipher})
			if err != nil {
				fmt.Println("Unable to connect to DB:", err)
				os.Exit(1)
			}

			pg := postgres.NewStore(conn)
			store, sweepSource = pg, pg
		case backend.KindMemory:
			log.Println("Using in-memory backend; contents are lost on restart")
			mem := memory.NewStore()
			store, sweepSource = mem, mem
		}

		manager := keymanager.NewManager(
			store,
			keymanager.WithDefaultProject(cfg.DefaultProject),
			keymanager.WithRotationPeriod(cfg.DefaultRotation()),
		)
		tokenAuth := middleware.NewTokenAuthenticator(dataKey, cfg.TokenTTL())

		if cfg.RotationSweepSchedule != "" {
			sweeper := rotation.NewSweeper(sweepSource, cfg.RotationSweepSchedule)
			if err := sweeper.Start(); err != nil {
				fmt.Println("Unable to start rotation sweeper:", err)
				os.Exit(1)
			}
			defer sweeper.Stop()
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(manager, store, tokenAuth, conn, host, port)

		endpoints.RegisterAll(s)

		log.Printf("Running server at http://%s:%s...\n", host, port)
		log.Fatal(s.Start())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().String("backend", backend.KindPostgres.String(), "secret store backend (memory or postgres)")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
