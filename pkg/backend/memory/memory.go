// Package memory provides an ephemeral in-process secret store. It keeps
// the full append-only version history of each locator, but only for the
// lifetime of the process.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/keysafehq/keysafe/pkg/keymanager"
	"github.com/keysafehq/keysafe/pkg/rotation"
)

type version struct {
	payload      []byte
	nextRotation time.Time
}

// Ensure Store satisfies the store and sweep-source contracts
var _ keymanager.Store = (*Store)(nil)
var _ rotation.Source = (*Store)(nil)

// Store is a mutex-guarded in-memory secret store, safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	versions map[string][]version
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		versions: map[string][]version{},
	}
}

// SecretVersionPath constructs the resource name for a locator triple.
func (s *Store) SecretVersionPath(project, name, versionLabel string) string {
	return keymanager.Locator{Project: project, Name: name, Version: versionLabel}.Path()
}

// AddSecretVersion appends a new version under the locator. Existing
// versions are never modified.
func (s *Store) AddSecretVersion(ctx context.Context, path string, payload []byte, nextRotation time.Time) error {
	if _, err := keymanager.ParsePath(path); err != nil {
		return err
	}

	value := make([]byte, len(payload))
	copy(value, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[path] = append(s.versions[path], version{
		payload:      value,
		nextRotation: nextRotation,
	})

	return nil
}

// AccessSecretVersion returns the payload of the newest version stored
// under the locator, or ErrNotFound.
func (s *Store) AccessSecretVersion(ctx context.Context, path string) ([]byte, error) {
	if _, err := keymanager.ParsePath(path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	versions, ok := s.versions[path]
	if !ok || len(versions) == 0 {
		return nil, keymanager.ErrVersionNotFound
	}

	newest := versions[len(versions)-1]
	payload := make([]byte, len(newest.payload))
	copy(payload, newest.payload)

	return payload, nil
}

// VersionCount returns the number of versions stored under a locator.
func (s *Store) VersionCount(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.versions[path])
}

// DueForRotation lists locators whose newest version has an advisory
// rotation time at or before now.
func (s *Store) DueForRotation(ctx context.Context, now time.Time) ([]rotation.Due, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []rotation.Due
	for path, versions := range s.versions {
		newest := versions[len(versions)-1]
		if !newest.nextRotation.After(now) {
			due = append(due, rotation.Due{
				Path:         path,
				NextRotation: newest.nextRotation,
			})
		}
	}

	return due, nil
}
