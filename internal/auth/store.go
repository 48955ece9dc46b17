package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CredentialStore persists identities. Uniqueness of names is enforced by the
// store's own constraint, not by a read-then-write race in callers.
type CredentialStore interface {
	FindByID(id uint) (*Identity, error)
	FindByName(name string) (*Identity, error)
	// FindByExternalSubject resolves a plaintext provider subject against the
	// stored one-way hashes. The stored value is hashed, so this is a verify
	// operation, never a plaintext equality lookup.
	FindByExternalSubject(subject string) (*Identity, error)
	// Create inserts the identity and fills in its assigned ID. Returns
	// ErrDuplicateIdentity when the name is already taken.
	Create(identity *Identity) error
}

// GormStore is the database-backed CredentialStore.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByID(id uint) (*Identity, error) {
	var identity Identity
	err := s.db.First(&identity, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *GormStore) FindByName(name string) (*Identity, error) {
	var identity Identity
	err := s.db.First(&identity, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (s *GormStore) FindByExternalSubject(subject string) (*Identity, error) {
	var candidates []Identity
	if err := s.db.Where("external_subject_hash IS NOT NULL").Find(&candidates).Error; err != nil {
		return nil, err
	}
	for i := range candidates {
		hash := candidates[i].ExternalSubjectHash
		if hash == nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(*hash), []byte(subject)) == nil {
			return &candidates[i], nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (s *GormStore) Create(identity *Identity) error {
	err := s.db.Create(identity).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateIdentity
	}
	return err
}
