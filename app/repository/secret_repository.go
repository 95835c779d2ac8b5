package repository

import (
	"github.com/lexpraxis/LexPraxis/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// secretRepository implements the SecretRepository interface
type secretRepository struct {
	db *gorm.DB
}

// NewSecretRepository creates a new secret repository instance
func NewSecretRepository(db *gorm.DB) SecretRepository {
	return &secretRepository{db: db}
}

// GetAllByEnvironment loads the full secret set for one environment.
func (r *secretRepository) GetAllByEnvironment(environment string) ([]models.Secret, error) {
	var secrets []models.Secret
	err := r.db.Where("environment = ?", environment).Find(&secrets).Error
	return secrets, err
}

// Upsert inserts or replaces a secret scoped to (name, environment).
func (r *secretRepository) Upsert(secret *models.Secret) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "secret_name"},
			{Name: "environment"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(secret).Error; err != nil {
		return err
	}

	// Ensure ID and timestamps are populated after upsert.
	return r.db.Where("secret_name = ? AND environment = ?", secret.Name, secret.Environment).
		First(secret).Error
}

// Delete removes the (name, environment) scoped row.
func (r *secretRepository) Delete(name, environment string) error {
	return r.db.Where("secret_name = ? AND environment = ?", name, environment).
		Delete(&models.Secret{}).Error
}
