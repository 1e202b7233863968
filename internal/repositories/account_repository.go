package repositories

import (
	"github.com/jhagel/campushub/backend/internal/models"
	"gorm.io/gorm"
)

// AccountRepository defines the interface for account data operations
type AccountRepository interface {
	CreateAccount(account *models.Account) error
	GetAccountByID(id uint) (*models.Account, error)
	GetAccountByEmail(email string) (*models.Account, error)
	GetAccountByFirebaseUID(firebaseUID string) (*models.Account, error)
	GetAccountsByIDs(ids []uint) ([]models.Account, error)
	UpdateAccount(account *models.Account) error
	DeleteAccount(id uint) error
	SearchAccounts(query string) ([]models.Account, error)
}

// PostgresAccountRepository implements AccountRepository for PostgreSQL
type PostgresAccountRepository struct {
	db *gorm.DB
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository
func NewPostgresAccountRepository(db *gorm.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// CreateAccount creates a new account
func (r *PostgresAccountRepository) CreateAccount(account *models.Account) error {
	return r.db.Create(account).Error
}

// GetAccountByID retrieves an account by ID
func (r *PostgresAccountRepository) GetAccountByID(id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByEmail retrieves an account by email address
func (r *PostgresAccountRepository) GetAccountByEmail(email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByFirebaseUID retrieves an account by Firebase UID
func (r *PostgresAccountRepository) GetAccountByFirebaseUID(firebaseUID string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("firebase_uid = ?", firebaseUID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountsByIDs retrieves all accounts matching the given IDs
func (r *PostgresAccountRepository) GetAccountsByIDs(ids []uint) ([]models.Account, error) {
	var accounts []models.Account
	if len(ids) == 0 {
		return accounts, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpdateAccount updates an existing account
func (r *PostgresAccountRepository) UpdateAccount(account *models.Account) error {
	return r.db.Save(account).Error
}

// DeleteAccount deletes an account by ID
func (r *PostgresAccountRepository) DeleteAccount(id uint) error {
	return r.db.Delete(&models.Account{}, id).Error
}

// SearchAccounts searches for accounts by name or email (case-insensitive)
func (r *PostgresAccountRepository) SearchAccounts(query string) ([]models.Account, error) {
	var accounts []models.Account
	if err := r.db.Where("LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", "%"+query+"%", "%"+query+"%").
		Where("role <> ?", models.RoleDummy).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
