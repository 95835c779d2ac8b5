package repository

import (
	"github.com/lexpraxis/LexPraxis/app/models"

	"gorm.io/gorm"
)

// SecretRepository defines the interface for secret-related database operations.
// All reads and writes are environment-scoped; the vault layer on top of this
// repository adds the TTL cache and the degrade-to-not-found semantics.
type SecretRepository interface {
	GetAllByEnvironment(environment string) ([]models.Secret, error)
	Upsert(secret *models.Secret) error
	Delete(name, environment string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Secret SecretRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Secret: NewSecretRepository(db),
	}
}
