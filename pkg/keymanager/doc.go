// Package keymanager generates random private keys and delegates their
// storage, retrieval and rotation scheduling to a secret store.
//
// The store is an injected capability with exactly three operations:
// constructing a secret-version resource name, appending a secret version
// with an advisory rotation schedule, and fetching a version's payload.
// Everything hard about secret management (durable encrypted storage,
// version history, access control) lives behind that interface.
//
// Failures on the write and read paths surface as *StoreError and
// *ReadError respectively, each carrying the underlying cause. Rotation is
// deliberately refused; see ErrRotationNotSupported.
package keymanager
