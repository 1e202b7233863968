package repositories

import (
	"strconv"
	"testing"

	"github.com/jhagel/campushub/backend/internal/models"
)

func TestFindReturnsNilWhenNoEdgeExists(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresFriendshipRepository(db)

	edge, err := repo.Find(1, 2)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if edge != nil {
		t.Errorf("edge = %+v, want nil", edge)
	}

	edge, err = repo.FindWithLinkType(1, 2, models.LinkRequest)
	if err != nil {
		t.Fatalf("FindWithLinkType: %v", err)
	}
	if edge != nil {
		t.Errorf("edge = %+v, want nil", edge)
	}
}

func TestCreateRejectsDuplicateOrderedPair(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresFriendshipRepository(db)
	a := seedAccount(t, db, "a", models.EmailNone, nil)
	b := seedAccount(t, db, "b", models.EmailNone, nil)

	first := &models.Friendship{AccountID: a.ID, FriendID: b.ID, LinkType: models.LinkRequest}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := &models.Friendship{AccountID: a.ID, FriendID: b.ID, LinkType: models.LinkEstablish}
	if err := repo.Create(dup); err == nil {
		t.Fatal("duplicate ordered pair accepted, want unique violation")
	}

	// the reverse direction is a different edge
	reverse := &models.Friendship{AccountID: b.ID, FriendID: a.ID, LinkType: models.LinkRequest}
	if err := repo.Create(reverse); err != nil {
		t.Errorf("reverse edge: %v", err)
	}
}

func TestDeleteFriendshipCascadesNotifications(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresFriendshipRepository(db)
	notifications := NewPostgresNotificationRepository(db)
	a := seedAccount(t, db, "a", models.EmailNone, nil)
	b := seedAccount(t, db, "b", models.EmailNone, nil)

	forward := &models.Friendship{AccountID: a.ID, FriendID: b.ID, LinkType: models.LinkEstablish}
	backward := &models.Friendship{AccountID: b.ID, FriendID: a.ID, LinkType: models.LinkEstablish}
	for _, edge := range []*models.Friendship{forward, backward} {
		if err := repo.Create(edge); err != nil {
			t.Fatalf("create edge: %v", err)
		}
	}

	n := &models.Notification{
		RecipientID:   b.ID,
		ReferenceType: models.ReferenceFriendship,
		ReferenceID:   strconv.FormatUint(uint64(forward.ID), 10),
		Rendered:      "a sent you a contact request",
	}
	if err := notifications.Upsert(n); err != nil {
		t.Fatalf("upsert notification: %v", err)
	}

	if err := repo.DeleteFriendship(a.ID, b.ID); err != nil {
		t.Fatalf("DeleteFriendship: %v", err)
	}

	var edges, rows int64
	db.Model(&models.Friendship{}).Count(&edges)
	db.Model(&models.Notification{}).Count(&rows)
	if edges != 0 {
		t.Errorf("edge count = %d, want 0", edges)
	}
	if rows != 0 {
		t.Errorf("notification count = %d, want 0", rows)
	}
}

func TestFindFriendsUsesEstablishEdgesOnly(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresFriendshipRepository(db)
	a := seedAccount(t, db, "a", models.EmailNone, nil)
	b := seedAccount(t, db, "b", models.EmailNone, nil)
	c := seedAccount(t, db, "c", models.EmailNone, nil)

	for _, edge := range []*models.Friendship{
		{AccountID: a.ID, FriendID: b.ID, LinkType: models.LinkEstablish},
		{AccountID: a.ID, FriendID: c.ID, LinkType: models.LinkRequest},
	} {
		if err := repo.Create(edge); err != nil {
			t.Fatalf("create edge: %v", err)
		}
	}

	friends, err := repo.FindFriends(a.ID)
	if err != nil {
		t.Fatalf("FindFriends: %v", err)
	}
	if len(friends) != 1 || friends[0].ID != b.ID {
		t.Errorf("friends = %v, want only %d", friends, b.ID)
	}
}
