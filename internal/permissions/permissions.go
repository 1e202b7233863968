// Package permissions holds the pure access checks used by the HTTP layer.
// Every check grants administrators first, then falls through to the
// role-specific rule. Nothing in here touches storage; callers pass in the
// entities and edges they already loaded.
package permissions

import "github.com/jhagel/campushub/backend/internal/models"

// IsOwnerOfGroup reports whether the account owns the group.
func IsOwnerOfGroup(account *models.Account, group *models.Group) bool {
	return group.OwnerID == account.ID
}

// IsOwnerOfPost reports whether the account authored the post.
func IsOwnerOfPost(account *models.Account, post *models.Post) bool {
	return post.OwnerID == account.ID
}

// CanViewGroup reports whether the account may see the group's content. Open
// groups are visible to everyone; close and course groups require membership
// or ownership.
func CanViewGroup(account *models.Account, group *models.Group, edge *models.GroupAccount) bool {
	if account.IsAdmin() || IsOwnerOfGroup(account, group) {
		return true
	}
	if group.GroupType == models.GroupOpen {
		return true
	}
	return edge != nil && edge.LinkType == models.LinkEstablish
}

// CanViewStreamPost reports whether the account may read a profile-stream
// post: the stream's owner, the poster, or an established friend of the
// stream's owner.
func CanViewStreamPost(account *models.Account, post *models.Post, friendOfStreamOwner bool) bool {
	if account.IsAdmin() || IsOwnerOfPost(account, post) {
		return true
	}
	if post.AccountID != nil && *post.AccountID == account.ID {
		return true
	}
	return friendOfStreamOwner
}

// CanInvite reports whether the account may invite others into the group.
// Members, the owner and admins can invite.
func CanInvite(account *models.Account, group *models.Group, edge *models.GroupAccount) bool {
	if account.IsAdmin() || IsOwnerOfGroup(account, group) {
		return true
	}
	return edge != nil && edge.LinkType == models.LinkEstablish
}

// CanRemoveMember reports whether the account may remove the given member.
// The owner can remove anyone, members can remove themselves, admins both;
// the owner itself is never removable.
func CanRemoveMember(account *models.Account, group *models.Group, memberID uint) bool {
	if memberID == group.OwnerID {
		return false
	}
	if account.IsAdmin() || IsOwnerOfGroup(account, group) {
		return true
	}
	return account.ID == memberID
}

// CanModerateRequest reports whether the account may accept or decline join
// requests for the group.
func CanModerateRequest(account *models.Account, group *models.Group) bool {
	return account.IsAdmin() || IsOwnerOfGroup(account, group)
}
