package notify

import (
	"github.com/jhagel/campushub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType tags a notifiable domain event. The set is closed; the dispatcher
// and renderer switch over it exhaustively.
type EventType string

const (
	GroupNewRequest     EventType = "group_new_request"
	GroupRequestSuccess EventType = "group_request_success"
	GroupRequestDecline EventType = "group_request_decline"
	GroupInvitation     EventType = "group_invitation"

	FriendNewRequest     EventType = "friend_new_request"
	FriendRequestSuccess EventType = "friend_request_success"
	FriendRequestDecline EventType = "friend_request_decline"

	PostProfile           EventType = "post_profile"
	PostStream            EventType = "post_stream"
	PostGroup             EventType = "post_group"
	PostCommentProfile    EventType = "post_comment_profile"
	PostCommentOwnProfile EventType = "post_comment_own_profile"
	PostCommentGroup      EventType = "post_comment_group"

	MediaNewMedia EventType = "media_new_media"
	Broadcast     EventType = "broadcast"
)

// Event is the transient description of a domain occurrence that should
// produce notification rows. It is never persisted; the dispatcher resolves
// it into one Notification per recipient.
type Event struct {
	Type   EventType
	Sender *models.Account

	// Reference identifies the entity the notification is about and forms
	// the dedup key together with each recipient.
	ReferenceType string
	ReferenceID   string

	TargetURL string

	// RecipientIDs carries the explicit recipient set for events that are
	// not resolved by group fan-out.
	RecipientIDs []uint

	// GroupID is set for events resolved against group membership
	// (new posts, media uploads) and for the owner-directed join request.
	GroupID uint

	// Render context.
	GroupTitle string
	Excerpt    string
}

// NewBroadcastReference returns a fresh reference ID for a broadcast. Every
// broadcast is its own reference so repeated broadcasts never collapse into
// one notification row.
func NewBroadcastReference() string {
	return primitive.NewObjectID().Hex()
}

// fanOutToGroup reports whether recipients are resolved from the group's
// established members rather than carried on the event.
func (e *Event) fanOutToGroup() bool {
	switch e.Type {
	case PostGroup, PostCommentGroup, MediaNewMedia:
		return true
	}
	return false
}

// SenderID returns the sender's ID, or nil for system events.
func (e *Event) SenderID() *uint {
	if e.Sender == nil {
		return nil
	}
	id := e.Sender.ID
	return &id
}

// SenderName returns the sender's display name, or a neutral fallback for
// system events.
func (e *Event) SenderName() string {
	if e.Sender == nil {
		return "CampusHub"
	}
	return e.Sender.Name
}
