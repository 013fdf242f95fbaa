// Package postgres provides the durable PostgreSQL-backed secret store.
// Payloads are encrypted at rest by the model hooks; see pkg/model.
package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/keysafehq/keysafe/pkg/keymanager"
	"github.com/keysafehq/keysafe/pkg/model"
	"github.com/keysafehq/keysafe/pkg/rotation"
)

// Ensure Store satisfies the store and sweep-source contracts
var _ keymanager.Store = (*Store)(nil)
var _ rotation.Source = (*Store)(nil)

// Store implements the secret store on PostgreSQL via GORM.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over an established connection. The connection
// must carry a payload cipher; see db.Connect.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SecretVersionPath constructs the resource name for a locator triple.
func (s *Store) SecretVersionPath(project, name, version string) string {
	return keymanager.Locator{Project: project, Name: name, Version: version}.Path()
}

// AddSecretVersion appends a new revision under the locator. Prior
// revisions are never updated or deleted.
func (s *Store) AddSecretVersion(ctx context.Context, path string, payload []byte, nextRotation time.Time) error {
	loc, err := keymanager.ParsePath(path)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var revision int
		err := tx.Raw(
			`SELECT COALESCE(MAX(revision), 0) + 1 FROM secret_versions WHERE project = ? AND name = ? AND label = ?`,
			loc.Project, loc.Name, loc.Version,
		).Scan(&revision).Error
		if err != nil {
			return err
		}

		return tx.Create(&model.SecretVersion{
			Project:      loc.Project,
			Name:         loc.Name,
			Label:        loc.Version,
			Revision:     revision,
			Value:        payload,
			NextRotation: &nextRotation,
		}).Error
	})
}

// AccessSecretVersion returns the payload of the newest revision under the
// locator, or keymanager.ErrVersionNotFound.
func (s *Store) AccessSecretVersion(ctx context.Context, path string) ([]byte, error) {
	loc, err := keymanager.ParsePath(path)
	if err != nil {
		return nil, err
	}

	var secret model.SecretVersion
	tx := s.db.
		Where(map[string]interface{}{"project": loc.Project, "name": loc.Name, "label": loc.Version}).
		Order("revision desc").
		First(&secret)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, keymanager.ErrVersionNotFound
		}
		return nil, tx.Error
	}

	return secret.Value, nil
}

// DueForRotation lists locators whose newest revision has an advisory
// rotation time at or before now.
func (s *Store) DueForRotation(ctx context.Context, now time.Time) ([]rotation.Due, error) {
	var rows []struct {
		Project      string
		Name         string
		Label        string
		NextRotation time.Time
	}

	err := s.db.Raw(`
		SELECT sv.project, sv.name, sv.label, sv.next_rotation
		FROM secret_versions sv
		WHERE sv.revision = (
			SELECT MAX(revision) FROM secret_versions
			WHERE project = sv.project AND name = sv.name AND label = sv.label
		)
		AND sv.next_rotation <= ?
	`, now).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	due := make([]rotation.Due, 0, len(rows))
	for _, row := range rows {
		loc := keymanager.Locator{Project: row.Project, Name: row.Name, Version: row.Label}
		due = append(due, rotation.Due{
			Path:         loc.Path(),
			NextRotation: row.NextRotation,
		})
	}

	return due, nil
}
