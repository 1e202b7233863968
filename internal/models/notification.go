package models

import "time"

// Reference types a notification can point at. Posts and media live in
// MongoDB, so reference IDs are stored as strings to cover both ID spaces.
const (
	ReferenceFriendship = "friendship"
	ReferenceGroup      = "group"
	ReferencePost       = "post"
	ReferenceMedia      = "media"
	ReferenceBroadcast  = "broadcast"
)

// Notification is one per-recipient notification row. At most one row exists
// per (reference, recipient) pair; a recurring event on the same reference
// updates the existing row instead of inserting a duplicate.
type Notification struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	SenderID      *uint     `json:"sender_id,omitempty" gorm:"index"`
	RecipientID   uint      `json:"recipient_id" gorm:"index;uniqueIndex:idx_reference_recipient"`
	ReferenceType string    `json:"reference_type" gorm:"size:20;uniqueIndex:idx_reference_recipient"`
	ReferenceID   string    `json:"reference_id" gorm:"uniqueIndex:idx_reference_recipient"`
	Rendered      string    `json:"rendered"`
	IsRead        bool      `json:"is_read" gorm:"default:false;index"`
	IsSent        bool      `json:"is_sent" gorm:"default:false;index"`
	TargetURL     string    `json:"target_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"index"`

	Sender    *Account `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Recipient Account  `json:"-" gorm:"foreignKey:RecipientID"`
}
