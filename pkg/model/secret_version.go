package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/keysafehq/keysafe/pkg/db"
	"github.com/keysafehq/keysafe/pkg/seal"
)

// SecretVersion is one immutable payload snapshot under a named secret.
// Rows are append-only; revisions increase monotonically per locator.
type SecretVersion struct {
	ID           uint       `gorm:"primaryKey"`
	Project      string     `gorm:"column:project"`
	Name         string     `gorm:"column:name"`
	Label        string     `gorm:"column:label"`
	Revision     int        `gorm:"column:revision"`
	Value        []byte     `gorm:"type:bytea"`
	NextRotation *time.Time `gorm:"column:next_rotation"`
	CreatedAt    time.Time
}

func (SecretVersion) TableName() string {
	return "secret_versions"
}

// aad binds a ciphertext to its locator
func (s *SecretVersion) aad() []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", s.Project, s.Name, s.Label))
}

func (s *SecretVersion) BeforeCreate(tx *gorm.DB) error {
	cipher, err := cipherForDB(tx)
	if err != nil {
		return err
	}

	s.Value, err = cipher.Encrypt(s.aad(), s.Value)
	if err != nil {
		err = fmt.Errorf("secret encryption failed for %s/%s/%s", s.Project, s.Name, s.Label)
	}
	return err
}

func (s *SecretVersion) AfterFind(tx *gorm.DB) error {
	cipher, err := cipherForDB(tx)
	if err != nil {
		return err
	}

	s.Value, err = cipher.Decrypt(s.aad(), s.Value)
	if err != nil {
		err = fmt.Errorf("secret decryption failed for %s/%s/%s", s.Project, s.Name, s.Label)
	}
	return err
}

func cipherForDB(tx *gorm.DB) (seal.SymmetricCipher, error) {
	cipher, ok := tx.Statement.Context.Value(db.CipherKey).(seal.SymmetricCipher)
	if !ok || cipher == nil {
		return nil, fmt.Errorf("no cipher on database connection")
	}
	return cipher, nil
}
