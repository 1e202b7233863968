package models

import "gorm.io/gorm"

// LinkType is the state carried by a relationship edge. The edge row is the
// sole carrier of relationship state; absence of a row means no relationship.
type LinkType string

const (
	LinkRequest   LinkType = "request"
	LinkEstablish LinkType = "establish"
	LinkReject    LinkType = "reject"
	LinkInvite    LinkType = "invite"
)

// Friendship is a directed edge from one account to another. A mutual
// friendship is represented by two establish edges, one per direction.
type Friendship struct {
	gorm.Model
	AccountID uint     `json:"account_id" gorm:"index;uniqueIndex:idx_account_friend"`
	FriendID  uint     `json:"friend_id" gorm:"index;uniqueIndex:idx_account_friend"`
	LinkType  LinkType `json:"link_type" gorm:"size:20"`

	Account Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`
	Friend  Account `json:"friend,omitempty" gorm:"foreignKey:FriendID"`
}

// CreateFriendRequestRequest defines the request body for sending a friend request
type CreateFriendRequestRequest struct {
	FriendID uint `json:"friend_id" validate:"required"`
}
