// Package seal provides the symmetric cipher used to encrypt secret
// payloads at rest, and the secure random source used for key generation.
package seal
