package integration

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	migrationsdb "github.com/keysafehq/keysafe/db"
	"github.com/keysafehq/keysafe/pkg/backend/postgres"
	"github.com/keysafehq/keysafe/pkg/db"
	"github.com/keysafehq/keysafe/pkg/keymanager"
	"github.com/keysafehq/keysafe/pkg/seal"
	"github.com/keysafehq/keysafe/pkg/server"
	"github.com/keysafehq/keysafe/pkg/server/endpoints"
	"github.com/keysafehq/keysafe/pkg/server/middleware"
)

// TestContext holds all the resources needed for integration tests. The
// server runs in-process against a PostgreSQL testcontainer.
type TestContext struct {
	Container   testcontainers.Container
	ServerURL   string
	DatabaseURL string
	DataKey     []byte
	TokenAuth   *middleware.TokenAuthenticator
	HTTPClient  *http.Client
	listener    net.Listener
}

// NewTestContext starts a PostgreSQL container, migrates it and brings up
// the server on a local port.
func NewTestContext(ctx context.Context) (*TestContext, error) {
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("keysafe_test"),
		tcpostgres.WithUsername("keysafe"),
		tcpostgres.WithPassword("keysafe"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	connStr := fmt.Sprintf("postgres://keysafe:keysafe@%s:%s/keysafe_test?sslmode=disable", host, port.Port())

	if err := runMigrations(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dataKey, err := seal.RandomBytes(32)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, err
	}
	cipher, err := seal.NewSymmetric(dataKey)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	conn, err := db.Connect(db.Config{URL: connStr, Cipher: cipher})
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := postgres.NewStore(conn)
	manager := keymanager.NewManager(store)
	tokenAuth := middleware.NewTokenAuthenticator(dataKey, 5*time.Minute)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	s := server.NewServer(manager, store, tokenAuth, conn, "127.0.0.1", "0")
	endpoints.RegisterAll(s)

	go func() {
		_ = s.StartWithListener(listener)
	}()

	serverURL := "http://" + listener.Addr().String()
	if err := waitForServer(serverURL, 30*time.Second); err != nil {
		_ = listener.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("server failed to become ready: %w", err)
	}

	return &TestContext{
		Container:   pgContainer,
		ServerURL:   serverURL,
		DatabaseURL: connStr,
		DataKey:     dataKey,
		TokenAuth:   tokenAuth,
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		listener:    listener,
	}, nil
}

// runMigrations applies the embedded schema migrations to the container
func runMigrations(dbURL string) error {
	migrationsFS, err := fs.Sub(migrationsdb.Migrations, "migrations")
	if err != nil {
		return err
	}

	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dbURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// waitForServer polls the status endpoint until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/status")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}

// Close cleans up all test resources
func (tc *TestContext) Close(ctx context.Context) {
	if tc.listener != nil {
		_ = tc.listener.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
