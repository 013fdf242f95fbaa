package keymanager

import (
	"errors"
	"fmt"
)

// ErrRotationNotSupported is returned unconditionally by RotatePrivateKey.
// A rotated key silently invalidates every prior use of that identity, so
// the operation is refused until a caller can acknowledge that risk through
// an explicit confirmation mechanism.
var ErrRotationNotSupported = errors.New("rotating private keys is not supported: a rotated key invalidates every prior use of that identity")

// StoreError wraps any failure on the write path to the secret store.
type StoreError struct {
	Name string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("unable to store secret %q: %v", e.Name, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ReadError wraps any failure on the read path from the secret store.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("unable to retrieve secret %q: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
