// Package db provides PostgreSQL connection helpers. Connections carry the
// payload cipher in their context so model hooks can encrypt and decrypt
// transparently.
package db
