package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media represents an uploaded file's metadata, stored in MongoDB. The file
// bytes themselves live in external storage and are not modelled here.
type Media struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID     uint               `json:"owner_id" bson:"owner_id"`
	GroupID     uint               `json:"group_id" bson:"group_id"`
	FileName    string             `json:"file_name" bson:"file_name"`
	ContentType string             `json:"content_type" bson:"content_type"`
	Size        int64              `json:"size" bson:"size"`
	StorageKey  string             `json:"storage_key" bson:"storage_key"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// CreateMediaRequest defines the request body for registering an uploaded file
type CreateMediaRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required"`
	Size        int64  `json:"size" validate:"required,min=1"`
}
