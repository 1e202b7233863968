package repositories

import (
	"errors"

	"github.com/jhagel/campushub/backend/internal/models"
	"gorm.io/gorm"
)

// GroupRepository defines the interface for group and membership edge operations
type GroupRepository interface {
	CreateGroup(group *models.Group) error
	GetGroupByID(id uint) (*models.Group, error)
	UpdateGroup(group *models.Group) error
	DeleteGroup(id uint) error
	ListGroups() ([]models.Group, error)

	FindEdge(accountID, groupID uint) (*models.GroupAccount, error)
	CreateEdge(edge *models.GroupAccount) error
	UpdateEdge(edge *models.GroupAccount) error
	DeleteEdge(edge *models.GroupAccount) error
	FindAccountsByGroup(groupID uint, linkType models.LinkType) ([]models.Account, error)
	FindEstablishedGroups(accountID uint) ([]models.Group, error)
	FindOpenRequests(accountID uint) ([]models.GroupAccount, error)
	InTransaction(fn func(GroupRepository) error) error
}

// PostgresGroupRepository implements GroupRepository for PostgreSQL
type PostgresGroupRepository struct {
	db *gorm.DB
}

// NewPostgresGroupRepository creates a new PostgresGroupRepository
func NewPostgresGroupRepository(db *gorm.DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{db: db}
}

// CreateGroup creates a new group
func (r *PostgresGroupRepository) CreateGroup(group *models.Group) error {
	return r.db.Create(group).Error
}

// GetGroupByID retrieves a group with its owner
func (r *PostgresGroupRepository) GetGroupByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.Preload("Owner").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateGroup saves a changed group
func (r *PostgresGroupRepository) UpdateGroup(group *models.Group) error {
	return r.db.Save(group).Error
}

// DeleteGroup removes a group, its membership edges and its notification references
func (r *PostgresGroupRepository) DeleteGroup(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&models.GroupAccount{}).Error; err != nil {
			return err
		}
		if err := deleteNotificationReferences(tx, models.ReferenceGroup, id); err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, id).Error
	})
}

// ListGroups retrieves all groups ordered by title
func (r *PostgresGroupRepository) ListGroups() ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.Preload("Owner").Order("title ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// FindEdge retrieves the membership edge for an (account, group) pair
// regardless of link type. Returns nil without error when no edge exists.
func (r *PostgresGroupRepository) FindEdge(accountID, groupID uint) (*models.GroupAccount, error) {
	var edge models.GroupAccount
	err := r.db.Where("account_id = ? AND group_id = ?", accountID, groupID).First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// CreateEdge persists a new membership edge. The unique pair index is the
// backstop against concurrent duplicate creation.
func (r *PostgresGroupRepository) CreateEdge(edge *models.GroupAccount) error {
	return r.db.Create(edge).Error
}

// UpdateEdge saves a changed membership edge
func (r *PostgresGroupRepository) UpdateEdge(edge *models.GroupAccount) error {
	return r.db.Save(edge).Error
}

// DeleteEdge removes a membership edge together with the member's
// notification rows referencing the group
func (r *PostgresGroupRepository) DeleteEdge(edge *models.GroupAccount) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteNotificationReferencesForRecipient(tx, models.ReferenceGroup, edge.GroupID, edge.AccountID); err != nil {
			return err
		}
		return tx.Delete(edge).Error
	})
}

// FindAccountsByGroup retrieves the accounts linked to a group with the given link type
func (r *PostgresGroupRepository) FindAccountsByGroup(groupID uint, linkType models.LinkType) ([]models.Account, error) {
	var accounts []models.Account
	subQuery := r.db.Model(&models.GroupAccount{}).Select("account_id").
		Where("group_id = ? AND link_type = ?", groupID, linkType)
	if err := r.db.Where("id IN (?)", subQuery).Order("name ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindEstablishedGroups retrieves all groups the account is a member of
func (r *PostgresGroupRepository) FindEstablishedGroups(accountID uint) ([]models.Group, error) {
	var groups []models.Group
	subQuery := r.db.Model(&models.GroupAccount{}).Select("group_id").
		Where("account_id = ? AND link_type = ?", accountID, models.LinkEstablish)
	if err := r.db.Preload("Owner").Where("id IN (?)", subQuery).Order("title ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// FindOpenRequests retrieves the edges an account should see under open
// requests: requests to groups it owns, plus its own requests, rejects and
// invitations
func (r *PostgresGroupRepository) FindOpenRequests(accountID uint) ([]models.GroupAccount, error) {
	var edges []models.GroupAccount
	ownedGroups := r.db.Model(&models.Group{}).Select("id").Where("owner_id = ?", accountID)
	if err := r.db.Preload("Account").Preload("Group").
		Where("(group_id IN (?) AND link_type = ?) OR (account_id = ? AND link_type IN ?)",
			ownedGroups, models.LinkRequest, accountID,
			[]models.LinkType{models.LinkRequest, models.LinkReject, models.LinkInvite}).
		Find(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

// InTransaction runs fn against a repository bound to a single transaction
func (r *PostgresGroupRepository) InTransaction(fn func(GroupRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresGroupRepository{db: tx})
	})
}
