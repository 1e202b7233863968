package repositories

import (
	"errors"

	"github.com/jhagel/campushub/backend/internal/models"
	"gorm.io/gorm"
)

// FriendshipRepository defines the interface for friendship edge operations.
// An edge is directed; a mutual friendship is two establish edges.
type FriendshipRepository interface {
	GetByID(id uint) (*models.Friendship, error)
	Find(accountID, friendID uint) (*models.Friendship, error)
	FindWithLinkType(accountID, friendID uint, linkType models.LinkType) (*models.Friendship, error)
	FindFriends(accountID uint) ([]models.Account, error)
	FindFriendIDs(accountID uint) ([]uint, error)
	FindRequests(accountID uint) ([]models.Friendship, error)
	FindRejects(accountID uint) ([]models.Friendship, error)
	AlreadyFriendly(accountID, friendID uint) (bool, error)
	Create(friendship *models.Friendship) error
	Update(friendship *models.Friendship) error
	Delete(friendship *models.Friendship) error
	DeleteFriendship(accountID, friendID uint) error
	InTransaction(fn func(FriendshipRepository) error) error
}

// PostgresFriendshipRepository implements FriendshipRepository for PostgreSQL
type PostgresFriendshipRepository struct {
	db *gorm.DB
}

// NewPostgresFriendshipRepository creates a new PostgresFriendshipRepository
func NewPostgresFriendshipRepository(db *gorm.DB) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

// GetByID retrieves a friendship edge by its row ID
func (r *PostgresFriendshipRepository) GetByID(id uint) (*models.Friendship, error) {
	var fs models.Friendship
	if err := r.db.Preload("Account").Preload("Friend").First(&fs, id).Error; err != nil {
		return nil, err
	}
	return &fs, nil
}

// Find retrieves the edge for the ordered (account, friend) pair regardless
// of link type. Returns nil without error when no edge exists.
func (r *PostgresFriendshipRepository) Find(accountID, friendID uint) (*models.Friendship, error) {
	var fs models.Friendship
	err := r.db.Where("account_id = ? AND friend_id = ?", accountID, friendID).First(&fs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

// FindWithLinkType retrieves the edge for the ordered pair carrying a
// specific link type. Returns nil without error when no such edge exists.
func (r *PostgresFriendshipRepository) FindWithLinkType(accountID, friendID uint, linkType models.LinkType) (*models.Friendship, error) {
	var fs models.Friendship
	err := r.db.Where("account_id = ? AND friend_id = ? AND link_type = ?", accountID, friendID, linkType).First(&fs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

// FindFriends retrieves all accounts with an outgoing establish edge from the
// given account, ordered by name
func (r *PostgresFriendshipRepository) FindFriends(accountID uint) ([]models.Account, error) {
	var friends []models.Account
	subQuery := r.db.Model(&models.Friendship{}).Select("friend_id").
		Where("account_id = ? AND link_type = ?", accountID, models.LinkEstablish)
	if err := r.db.Where("id IN (?)", subQuery).Order("name ASC").Find(&friends).Error; err != nil {
		return nil, err
	}
	return friends, nil
}

// FindFriendIDs retrieves the IDs of all established friends of an account
func (r *PostgresFriendshipRepository) FindFriendIDs(accountID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.Friendship{}).
		Where("account_id = ? AND link_type = ?", accountID, models.LinkEstablish).
		Pluck("friend_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindRequests retrieves all pending request edges involving an account,
// in either direction
func (r *PostgresFriendshipRepository) FindRequests(accountID uint) ([]models.Friendship, error) {
	var requests []models.Friendship
	if err := r.db.Preload("Account").Preload("Friend").
		Where("(account_id = ? OR friend_id = ?) AND link_type = ?", accountID, accountID, models.LinkRequest).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindRejects retrieves all reject edges created by an account's requests
func (r *PostgresFriendshipRepository) FindRejects(accountID uint) ([]models.Friendship, error) {
	var rejects []models.Friendship
	if err := r.db.Preload("Account").Preload("Friend").
		Where("account_id = ? AND link_type = ?", accountID, models.LinkReject).
		Find(&rejects).Error; err != nil {
		return nil, err
	}
	return rejects, nil
}

// AlreadyFriendly reports whether an establish edge exists from account to friend
func (r *PostgresFriendshipRepository) AlreadyFriendly(accountID, friendID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Friendship{}).
		Where("account_id = ? AND friend_id = ? AND link_type = ?", accountID, friendID, models.LinkEstablish).
		Count(&count).Error
	return count > 0, err
}

// Create persists a new friendship edge. The unique index on the ordered
// pair is the backstop against concurrent duplicate creation.
func (r *PostgresFriendshipRepository) Create(friendship *models.Friendship) error {
	return r.db.Create(friendship).Error
}

// Update saves a changed friendship edge
func (r *PostgresFriendshipRepository) Update(friendship *models.Friendship) error {
	return r.db.Save(friendship).Error
}

// Delete removes a friendship edge and its notification references
func (r *PostgresFriendshipRepository) Delete(friendship *models.Friendship) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteNotificationReferences(tx, models.ReferenceFriendship, friendship.ID); err != nil {
			return err
		}
		return tx.Delete(friendship).Error
	})
}

// DeleteFriendship removes the edges of the ordered pair in both directions
func (r *PostgresFriendshipRepository) DeleteFriendship(accountID, friendID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var edges []models.Friendship
		if err := tx.Where("(account_id = ? AND friend_id = ?) OR (account_id = ? AND friend_id = ?)",
			accountID, friendID, friendID, accountID).Find(&edges).Error; err != nil {
			return err
		}
		for _, edge := range edges {
			if err := deleteNotificationReferences(tx, models.ReferenceFriendship, edge.ID); err != nil {
				return err
			}
			if err := tx.Delete(&edge).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// InTransaction runs fn against a repository bound to a single transaction.
// State-machine transitions use this so the existence check and the edge
// write share one transactional boundary.
func (r *PostgresFriendshipRepository) InTransaction(fn func(FriendshipRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresFriendshipRepository{db: tx})
	})
}
