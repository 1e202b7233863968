package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a stream post or a comment, stored in MongoDB. A post
// belongs either to an account stream (profile) or to a group stream. A
// comment is a post with a parent.
type Post struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID   uint               `json:"owner_id" bson:"owner_id"` // the author
	AccountID *uint              `json:"account_id,omitempty" bson:"account_id,omitempty"`
	GroupID   *uint              `json:"group_id,omitempty" bson:"group_id,omitempty"`
	ParentID  *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// BelongsToAccount reports whether the post lives on an account stream
// rather than a group stream.
func (p *Post) BelongsToAccount() bool {
	return p.AccountID != nil
}

// CreatePostRequest defines the request body for creating a stream post
type CreatePostRequest struct {
	Content   string `json:"content" validate:"required,min=1,max=2000"`
	AccountID *uint  `json:"account_id,omitempty"`
	GroupID   *uint  `json:"group_id,omitempty"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}
