package relationships

import (
	"errors"
	"strconv"
	"testing"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/notify"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"gorm.io/gorm"
)

type membershipEnv struct {
	db          *gorm.DB
	groups      repositories.GroupRepository
	friendships repositories.FriendshipRepository
	accounts    repositories.AccountRepository
	notifier    *recordingNotifier
	service     *MembershipService
}

func newMembershipEnv(t *testing.T) *membershipEnv {
	t.Helper()
	db := openTestDB(t)
	groups := repositories.NewPostgresGroupRepository(db)
	friendships := repositories.NewPostgresFriendshipRepository(db)
	accounts := repositories.NewPostgresAccountRepository(db)
	notifier := &recordingNotifier{}
	return &membershipEnv{
		db:          db,
		groups:      groups,
		friendships: friendships,
		accounts:    accounts,
		notifier:    notifier,
		service:     NewMembershipService(groups, friendships, accounts, notifier, testLogger()),
	}
}

func createGroup(t *testing.T, db *gorm.DB, owner *models.Account, groupType models.GroupType, token string) *models.Group {
	t.Helper()
	group := &models.Group{Title: "Algorithms", OwnerID: owner.ID, GroupType: groupType, Token: token}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}
	return group
}

func makeFriends(t *testing.T, db *gorm.DB, a, b uint) {
	t.Helper()
	for _, edge := range []models.Friendship{
		{AccountID: a, FriendID: b, LinkType: models.LinkEstablish},
		{AccountID: b, FriendID: a, LinkType: models.LinkEstablish},
	} {
		if err := db.Create(&edge).Error; err != nil {
			t.Fatalf("seed friendship: %v", err)
		}
	}
}

func TestJoinOpenGroupEstablishesDirectly(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupOpen, "")

	edge, err := env.service.Join(member, group.ID)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if edge.LinkType != models.LinkEstablish {
		t.Errorf("link type = %q, want establish", edge.LinkType)
	}
	if len(env.notifier.events) != 0 {
		t.Errorf("open join produced %d events, want 0", len(env.notifier.events))
	}
}

func TestJoinCloseGroupFilesRequest(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupClose, "")

	edge, err := env.service.Join(member, group.ID)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if edge.LinkType != models.LinkRequest {
		t.Errorf("link type = %q, want request", edge.LinkType)
	}

	event := env.notifier.last(t)
	if event.Type != notify.GroupNewRequest {
		t.Errorf("event type = %q, want %q", event.Type, notify.GroupNewRequest)
	}
	if event.GroupID != group.ID {
		t.Errorf("event group = %d, want %d", event.GroupID, group.ID)
	}
}

func TestJoinCourseGroupNeedsToken(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleTutor)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupCourse, "secret-token")

	if _, err := env.service.Join(member, group.ID); !errors.Is(err, ErrTokenRequired) {
		t.Errorf("Join err = %v, want ErrTokenRequired", err)
	}
}

func TestJoinShortCircuitsOnExistingEdge(t *testing.T) {
	tests := []struct {
		name     string
		linkType models.LinkType
		wantErr  error
	}{
		{"already member", models.LinkEstablish, ErrAlreadyMember},
		{"pending request", models.LinkRequest, ErrAlreadyRequestedJoin},
		{"rejected request", models.LinkReject, ErrJoinRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newMembershipEnv(t)
			owner := createAccount(t, env.db, "owner", models.RoleStudent)
			member := createAccount(t, env.db, "member", models.RoleStudent)
			group := createGroup(t, env.db, owner, models.GroupOpen, "")

			seed := &models.GroupAccount{AccountID: member.ID, GroupID: group.ID, LinkType: tt.linkType}
			if err := env.db.Create(seed).Error; err != nil {
				t.Fatalf("seed edge: %v", err)
			}

			if _, err := env.service.Join(member, group.ID); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if len(env.notifier.events) != 0 {
				t.Errorf("short-circuit produced events")
			}
		})
	}
}

func TestJoinPromotesInvitation(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupClose, "")

	seed := &models.GroupAccount{AccountID: member.ID, GroupID: group.ID, LinkType: models.LinkInvite}
	if err := env.db.Create(seed).Error; err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	edge, err := env.service.Join(member, group.ID)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if edge.LinkType != models.LinkEstablish {
		t.Errorf("link type = %q, want establish", edge.LinkType)
	}

	var count int64
	env.db.Model(&models.GroupAccount{}).Where("account_id = ? AND group_id = ?", member.ID, group.ID).Count(&count)
	if count != 1 {
		t.Errorf("edge count = %d, want 1", count)
	}
}

func TestJoinOwnerIsAlreadyMember(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupOpen, "")

	if _, err := env.service.Join(owner, group.ID); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("err = %v, want ErrAlreadyMember", err)
	}
}

func TestJoinWithToken(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleTutor)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupCourse, "secret-token")

	if _, err := env.service.JoinWithToken(member, group.ID, "wrong"); !errors.Is(err, ErrBadToken) {
		t.Errorf("wrong token err = %v, want ErrBadToken", err)
	}
	if _, err := env.service.JoinWithToken(member, group.ID, "abc"); !errors.Is(err, ErrBadToken) {
		t.Errorf("short token err = %v, want ErrBadToken", err)
	}

	edge, err := env.service.JoinWithToken(member, group.ID, "secret-token")
	if err != nil {
		t.Fatalf("JoinWithToken: %v", err)
	}
	if edge.LinkType != models.LinkEstablish {
		t.Errorf("link type = %q, want establish", edge.LinkType)
	}
}

func TestJoinWithTokenShortCircuitsOnExistingEdge(t *testing.T) {
	tests := []struct {
		name     string
		linkType models.LinkType
		wantErr  error
	}{
		{"already member", models.LinkEstablish, ErrAlreadyMember},
		{"pending request", models.LinkRequest, ErrAlreadyRequestedJoin},
		{"rejected request", models.LinkReject, ErrJoinRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newMembershipEnv(t)
			owner := createAccount(t, env.db, "owner", models.RoleTutor)
			member := createAccount(t, env.db, "member", models.RoleStudent)
			group := createGroup(t, env.db, owner, models.GroupCourse, "secret-token")

			seed := &models.GroupAccount{AccountID: member.ID, GroupID: group.ID, LinkType: tt.linkType}
			if err := env.db.Create(seed).Error; err != nil {
				t.Fatalf("seed edge: %v", err)
			}

			if _, err := env.service.JoinWithToken(member, group.ID, "secret-token"); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}

			// a correct token must not override the existing edge
			edge, _ := env.groups.FindEdge(member.ID, group.ID)
			if edge == nil || edge.LinkType != tt.linkType {
				t.Errorf("edge = %+v, want untouched %q", edge, tt.linkType)
			}
		})
	}
}

func TestJoinWithTokenPromotesInvitation(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleTutor)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupCourse, "secret-token")

	seed := &models.GroupAccount{AccountID: member.ID, GroupID: group.ID, LinkType: models.LinkInvite}
	if err := env.db.Create(seed).Error; err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	edge, err := env.service.JoinWithToken(member, group.ID, "secret-token")
	if err != nil {
		t.Fatalf("JoinWithToken: %v", err)
	}
	if edge.LinkType != models.LinkEstablish {
		t.Errorf("link type = %q, want establish", edge.LinkType)
	}

	var count int64
	env.db.Model(&models.GroupAccount{}).Where("account_id = ? AND group_id = ?", member.ID, group.ID).Count(&count)
	if count != 1 {
		t.Errorf("edge count = %d, want 1", count)
	}
}

func TestAcceptRequestPromotesAndNotifies(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupClose, "")

	if _, err := env.service.Join(member, group.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := env.service.AcceptRequest(owner, group.ID, member.ID); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}

	edge, err := env.groups.FindEdge(member.ID, group.ID)
	if err != nil {
		t.Fatalf("FindEdge: %v", err)
	}
	if edge == nil || edge.LinkType != models.LinkEstablish {
		t.Fatalf("edge = %+v, want establish", edge)
	}

	event := env.notifier.last(t)
	if event.Type != notify.GroupRequestSuccess {
		t.Errorf("event type = %q, want %q", event.Type, notify.GroupRequestSuccess)
	}
	if len(event.RecipientIDs) != 1 || event.RecipientIDs[0] != member.ID {
		t.Errorf("event recipients = %v, want [%d]", event.RecipientIDs, member.ID)
	}
}

func TestDeclineRequestKeepsRejectEdge(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupClose, "")

	if _, err := env.service.Join(member, group.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := env.service.DeclineRequest(owner, group.ID, member.ID); err != nil {
		t.Fatalf("DeclineRequest: %v", err)
	}

	edge, _ := env.groups.FindEdge(member.ID, group.ID)
	if edge == nil || edge.LinkType != models.LinkReject {
		t.Fatalf("edge = %+v, want reject", edge)
	}

	event := env.notifier.last(t)
	if event.Type != notify.GroupRequestDecline {
		t.Errorf("event type = %q, want %q", event.Type, notify.GroupRequestDecline)
	}

	// a further join is blocked by the reject edge
	if _, err := env.service.Join(member, group.ID); !errors.Is(err, ErrJoinRejected) {
		t.Errorf("re-join err = %v, want ErrJoinRejected", err)
	}
}

func TestModerationRequiresOwnerOrAdmin(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	outsider := createAccount(t, env.db, "outsider", models.RoleStudent)
	admin := createAccount(t, env.db, "admin", models.RoleAdmin)
	group := createGroup(t, env.db, owner, models.GroupClose, "")

	if _, err := env.service.Join(member, group.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := env.service.AcceptRequest(outsider, group.ID, member.ID); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("outsider accept err = %v, want ErrNotAllowed", err)
	}
	if err := env.service.AcceptRequest(admin, group.ID, member.ID); err != nil {
		t.Errorf("admin accept: %v", err)
	}
}

func TestInviteMembersFiltersAndBatches(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	inviter := createAccount(t, env.db, "inviter", models.RoleStudent)
	friend := createAccount(t, env.db, "friend", models.RoleStudent)
	stranger := createAccount(t, env.db, "stranger", models.RoleStudent)
	existing := createAccount(t, env.db, "existing", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupClose, "")

	// the inviter is a member; friend is a friend; existing already has an edge
	for _, seed := range []models.GroupAccount{
		{AccountID: inviter.ID, GroupID: group.ID, LinkType: models.LinkEstablish},
		{AccountID: existing.ID, GroupID: group.ID, LinkType: models.LinkEstablish},
	} {
		s := seed
		if err := env.db.Create(&s).Error; err != nil {
			t.Fatalf("seed edge: %v", err)
		}
	}
	makeFriends(t, env.db, inviter.ID, friend.ID)
	makeFriends(t, env.db, inviter.ID, existing.ID)

	invited, err := env.service.InviteMembers(inviter, group.ID, []uint{friend.ID, stranger.ID, existing.ID, owner.ID, inviter.ID})
	if err != nil {
		t.Fatalf("InviteMembers: %v", err)
	}
	if len(invited) != 1 || invited[0] != friend.ID {
		t.Fatalf("invited = %v, want [%d]", invited, friend.ID)
	}

	edge, _ := env.groups.FindEdge(friend.ID, group.ID)
	if edge == nil || edge.LinkType != models.LinkInvite {
		t.Fatalf("edge = %+v, want invite", edge)
	}

	event := env.notifier.last(t)
	if event.Type != notify.GroupInvitation {
		t.Errorf("event type = %q, want %q", event.Type, notify.GroupInvitation)
	}
	if len(event.RecipientIDs) != 1 || event.RecipientIDs[0] != friend.ID {
		t.Errorf("event recipients = %v, want [%d]", event.RecipientIDs, friend.ID)
	}
}

func TestInviteMembersOwnerSkipsFriendshipCheck(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	stranger := createAccount(t, env.db, "stranger", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupClose, "")

	invited, err := env.service.InviteMembers(owner, group.ID, []uint{stranger.ID})
	if err != nil {
		t.Fatalf("InviteMembers: %v", err)
	}
	if len(invited) != 1 || invited[0] != stranger.ID {
		t.Errorf("invited = %v, want [%d]", invited, stranger.ID)
	}
}

func TestAcceptAndDeclineInvitation(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	invitee := createAccount(t, env.db, "invitee", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupClose, "")

	if _, err := env.service.AcceptInvitation(invitee, group.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("accept without invite err = %v, want ErrRequestNotFound", err)
	}

	seed := &models.GroupAccount{AccountID: invitee.ID, GroupID: group.ID, LinkType: models.LinkInvite}
	if err := env.db.Create(seed).Error; err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	edge, err := env.service.AcceptInvitation(invitee, group.ID)
	if err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	if edge.LinkType != models.LinkEstablish {
		t.Errorf("link type = %q, want establish", edge.LinkType)
	}

	// decline path removes the edge entirely
	invitee2 := createAccount(t, env.db, "invitee2", models.RoleStudent)
	seed2 := &models.GroupAccount{AccountID: invitee2.ID, GroupID: group.ID, LinkType: models.LinkInvite}
	if err := env.db.Create(seed2).Error; err != nil {
		t.Fatalf("seed invite: %v", err)
	}
	if err := env.service.DeclineInvitation(invitee2, group.ID); err != nil {
		t.Fatalf("DeclineInvitation: %v", err)
	}
	gone, _ := env.groups.FindEdge(invitee2.ID, group.ID)
	if gone != nil {
		t.Errorf("edge after decline = %+v, want nil", gone)
	}
}

func TestRemoveMember(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	outsider := createAccount(t, env.db, "outsider", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupOpen, "")

	if _, err := env.service.Join(member, group.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := env.service.RemoveMember(owner, group.ID, owner.ID); !errors.Is(err, ErrCannotRemoveOwner) {
		t.Errorf("remove owner err = %v, want ErrCannotRemoveOwner", err)
	}
	if err := env.service.RemoveMember(outsider, group.ID, member.ID); !errors.Is(err, ErrNotAllowed) {
		t.Errorf("outsider removal err = %v, want ErrNotAllowed", err)
	}

	// members can leave on their own
	if err := env.service.RemoveMember(member, group.ID, member.ID); err != nil {
		t.Fatalf("self removal: %v", err)
	}
	edge, _ := env.groups.FindEdge(member.ID, group.ID)
	if edge != nil {
		t.Errorf("edge after removal = %+v, want nil", edge)
	}
}

func TestRemoveMemberCascadesGroupNotifications(t *testing.T) {
	env := newMembershipEnv(t)
	owner := createAccount(t, env.db, "owner", models.RoleStudent)
	member := createAccount(t, env.db, "member", models.RoleStudent)
	group := createGroup(t, env.db, owner, models.GroupOpen, "")

	if _, err := env.service.Join(member, group.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	notifications := repositories.NewPostgresNotificationRepository(env.db)
	row := &models.Notification{
		RecipientID:   member.ID,
		ReferenceType: models.ReferenceGroup,
		ReferenceID:   strconv.FormatUint(uint64(group.ID), 10),
		Rendered:      "You were invited",
	}
	if err := notifications.Upsert(row); err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	if err := env.service.RemoveMember(owner, group.ID, member.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	var count int64
	env.db.Model(&models.Notification{}).Where("recipient_id = ?", member.ID).Count(&count)
	if count != 0 {
		t.Errorf("notification count after removal = %d, want 0", count)
	}
}
