package backend

//go:generate go run github.com/dmarkham/enumer -type Kind -trimprefix Kind -transform lower -output kind.gen.go

// Kind names a secret store backend implementation.
type Kind int

const (
	// KindMemory is the ephemeral in-process backend. Contents are lost on
	// restart; intended for tests and local experiments.
	KindMemory Kind = iota
	// KindPostgres is the durable PostgreSQL-backed backend.
	KindPostgres
)
