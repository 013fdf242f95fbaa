package keymanager

import (
	"context"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"github.com/keysafehq/keysafe/pkg/seal"
)

// DefaultRotationPeriod is the advisory rotation period attached to stored
// keys when the caller doesn't name one.
const DefaultRotationPeriod = 30 * 24 * time.Hour

const privateKeySize = 32

// ErrVersionNotFound is returned by stores when no version exists for a
// locator. It surfaces to callers wrapped in a *ReadError.
var ErrVersionNotFound = errors.New("secret version not found")

// Store is the secret-storage collaborator. Implementations own durability,
// version history and access control; the manager owns nothing beyond the
// key material in flight.
type Store interface {
	// SecretVersionPath constructs the opaque resource name for a
	// (project, name, version) triple.
	SecretVersionPath(project, name, version string) string

	// AddSecretVersion appends a new version under the named secret with an
	// advisory next-rotation timestamp. Prior versions are never overwritten.
	AddSecretVersion(ctx context.Context, path string, payload []byte, nextRotation time.Time) error

	// AccessSecretVersion fetches the payload of one secret version.
	AccessSecretVersion(ctx context.Context, path string) ([]byte, error)
}

// Manager generates random private keys and delegates storage, retrieval
// and rotation scheduling to a Store. It keeps no local state or cache, so
// it is safe for concurrent use whenever its Store is.
type Manager struct {
	store          Store
	defaultProject string
	rotationPeriod time.Duration
	now            func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultProject sets the project used by GenerateAndStorePrivateKey.
func WithDefaultProject(project string) Option {
	return func(m *Manager) {
		m.defaultProject = project
	}
}

// WithRotationPeriod overrides the default advisory rotation period.
func WithRotationPeriod(period time.Duration) Option {
	return func(m *Manager) {
		if period > 0 {
			m.rotationPeriod = period
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager backed by the given store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:          store,
		rotationPeriod: DefaultRotationPeriod,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GeneratePrivateKey produces 32 bytes of cryptographically secure
// randomness encoded as 64 lowercase hex characters. An error here means
// the system's random source is unavailable and is not recoverable.
func (m *Manager) GeneratePrivateKey() (string, error) {
	raw, err := seal.RandomBytes(privateKeySize)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// StoreOption configures a single StorePrivateKey call.
type StoreOption func(*storeParams)

type storeParams struct {
	version        string
	rotationPeriod time.Duration
}

// WithVersion stores the key under an explicit version label instead of
// "latest".
func WithVersion(version string) StoreOption {
	return func(p *storeParams) {
		if version != "" {
			p.version = version
		}
	}
}

// WithRotationIn sets the advisory seconds-until-next-rotation for this
// store call.
func WithRotationIn(period time.Duration) StoreOption {
	return func(p *storeParams) {
		if period > 0 {
			p.rotationPeriod = period
		}
	}
}

// StorePrivateKey submits key material as a new version of the named
// secret, with an advisory next-rotation timestamp of now plus the rotation
// period. The store is append-only across versions; prior versions are
// untouched. Any store failure surfaces as a *StoreError wrapping the cause.
func (m *Manager) StorePrivateKey(ctx context.Context, project, name, privateKey string, opts ...StoreOption) error {
	if project == "" {
		return errors.New("project is required")
	}
	if name == "" {
		return errors.New("secret name is required")
	}
	if privateKey == "" {
		return errors.New("private key is required")
	}

	params := &storeParams{
		version:        DefaultVersion,
		rotationPeriod: m.rotationPeriod,
	}
	for _, opt := range opts {
		opt(params)
	}

	path := m.store.SecretVersionPath(project, name, params.version)
	nextRotation := m.now().Add(params.rotationPeriod)

	if err := m.store.AddSecretVersion(ctx, path, []byte(privateKey), nextRotation); err != nil {
		storeErr := &StoreError{Name: name, Err: err}
		log.Printf("Failed to store private key for %s: %v", name, err)
		return storeErr
	}

	return nil
}

// GenerateAndStorePrivateKey generates a private key and stores it under
// the manager's default project with user as the secret name. The manager
// must be configured with a default project; there is no implied one. On a
// store failure the generated key is not returned; it cannot be recovered
// and the caller must regenerate.
func (m *Manager) GenerateAndStorePrivateKey(ctx context.Context, user string) (string, error) {
	if m.defaultProject == "" {
		return "", errors.New("no default project configured")
	}

	privateKey, err := m.GeneratePrivateKey()
	if err != nil {
		return "", err
	}

	if err := m.StorePrivateKey(ctx, m.defaultProject, user, privateKey); err != nil {
		return "", err
	}

	return privateKey, nil
}

// GetPrivateKey fetches the stored key material for the locator triple,
// verbatim. Any failure, including not-found, surfaces as a *ReadError
// wrapping the cause.
func (m *Manager) GetPrivateKey(ctx context.Context, project, name, version string) (string, error) {
	if version == "" {
		version = DefaultVersion
	}

	path := m.store.SecretVersionPath(project, name, version)

	payload, err := m.store.AccessSecretVersion(ctx, path)
	if err != nil {
		readErr := &ReadError{Name: name, Err: err}
		log.Printf("Failed to retrieve private key for %s: %v", name, err)
		return "", readErr
	}

	return string(payload), nil
}

// RotatePrivateKey always refuses with ErrRotationNotSupported and never
// contacts the store.
func (m *Manager) RotatePrivateKey(name string) (string, error) {
	return "", ErrRotationNotSupported
}
