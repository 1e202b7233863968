package models

import "gorm.io/gorm"

// GroupType determines how a group can be joined.
type GroupType string

const (
	// GroupOpen groups can be joined by anyone directly.
	GroupOpen GroupType = "open"
	// GroupClose groups require the owner to accept a join request.
	GroupClose GroupType = "close"
	// GroupCourse groups require the course token to join.
	GroupCourse GroupType = "course"
)

// Group represents a group or course. The owner is implicitly a member and is
// never represented by a membership edge.
type Group struct {
	gorm.Model
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     uint      `json:"owner_id" gorm:"index"`
	GroupType   GroupType `json:"group_type" gorm:"size:20"`
	Token       string    `json:"-"` // join token, course groups only

	Owner Account `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// TokenMinLength and TokenMaxLength bound the course join token.
const (
	TokenMinLength = 4
	TokenMaxLength = 45
)

// ValidToken reports whether a course join token satisfies the length policy.
func ValidToken(token string) bool {
	return token != "" && len(token) >= TokenMinLength && len(token) <= TokenMaxLength
}

// GroupAccount is the membership edge between an account and a group. At most
// one edge exists per (account, group) pair regardless of link type.
type GroupAccount struct {
	gorm.Model
	AccountID uint     `json:"account_id" gorm:"index;uniqueIndex:idx_account_group"`
	GroupID   uint     `json:"group_id" gorm:"index;uniqueIndex:idx_account_group"`
	LinkType  LinkType `json:"link_type" gorm:"size:20"`

	Account Account `json:"account,omitempty" gorm:"foreignKey:AccountID"`
	Group   Group   `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

// CreateGroupRequest defines the request body for creating a group
type CreateGroupRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=80"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	GroupType   string `json:"group_type" validate:"required,oneof=open close course"`
	Token       string `json:"token,omitempty"`
}

// JoinWithTokenRequest defines the request body for joining a course group
type JoinWithTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// InviteMembersRequest defines the request body for inviting friends to a group
type InviteMembersRequest struct {
	AccountIDs []uint `json:"account_ids" validate:"required,min=1,dive,required"`
}
