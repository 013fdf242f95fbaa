// Package keysafe provides a secret key management server for storing and
// retrieving private keys.
//
// Keysafe generates 256-bit private keys, stores them encrypted at rest in
// PostgreSQL under versioned locators, and exposes them over an
// authenticated HTTP API. Rotation schedules are advisory only; key
// rotation itself is deliberately unsupported.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/keymanager: Key generation and the secret store contract
//   - pkg/backend/postgres: Durable PostgreSQL-backed secret store
//   - pkg/backend/memory: Ephemeral in-process secret store
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/server/middleware: Token authentication and request ids
//   - pkg/seal: Cryptographic operations (payload encryption)
//   - pkg/model: Database models
//   - pkg/db: Database connection utilities
//   - pkg/rotation: Advisory rotation sweeper
//   - pkg/audit: Audit logging
//   - pkg/config: Configuration management
//
// # Quick Start
//
// The server is run via the keysafectl CLI:
//
//	# Generate a data key for encryption
//	export KEYSAFE_DATA_KEY="$(keysafectl data-key generate)"
//
//	# Run database migrations
//	keysafectl db migrate
//
//	# Start the server
//	keysafectl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - KEYSAFE_DATA_KEY: Base64-encoded 256-bit key for data encryption
//   - AUDIT_DATABASE_URL: Optional PostgreSQL connection string for audit persistence
//   - KEYSAFE_DEFAULT_PROJECT: Project used when a caller supplies only a secret name
//   - KEYSAFE_LOG_LEVEL: Log level (debug enables SQL logging)
//   - PORT: Server port (default: 8000)
package main
