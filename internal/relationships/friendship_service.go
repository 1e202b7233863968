package relationships

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/notify"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"gorm.io/gorm"
)

// Notifier receives the events emitted by relationship transitions.
type Notifier interface {
	Dispatch(event *notify.Event)
}

// FriendshipService enforces the legal transitions of friendship edges.
type FriendshipService struct {
	friendships repositories.FriendshipRepository
	accounts    repositories.AccountRepository
	notifier    Notifier
	logger      *slog.Logger
}

// NewFriendshipService creates a FriendshipService.
func NewFriendshipService(
	friendships repositories.FriendshipRepository,
	accounts repositories.AccountRepository,
	notifier Notifier,
	logger *slog.Logger,
) *FriendshipService {
	return &FriendshipService{
		friendships: friendships,
		accounts:    accounts,
		notifier:    notifier,
		logger:      logger,
	}
}

// RequestFriend creates a directed request edge from current to the given
// account and notifies the potential friend. All precondition checks
// short-circuit before any edge is written.
func (s *FriendshipService) RequestFriend(current *models.Account, friendID uint) (*models.Friendship, error) {
	if current.ID == friendID {
		return nil, ErrSelfRequest
	}

	friend, err := s.accounts.GetAccountByID(friendID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if friend.Role == models.RoleDummy {
		return nil, ErrDummyAccount
	}

	friendship := &models.Friendship{
		AccountID: current.ID,
		FriendID:  friendID,
		LinkType:  models.LinkRequest,
	}

	err = s.friendships.InTransaction(func(tx repositories.FriendshipRepository) error {
		if request, err := tx.FindWithLinkType(current.ID, friendID, models.LinkRequest); err != nil {
			return err
		} else if request != nil {
			return ErrAlreadyRequested
		}
		if reverse, err := tx.FindWithLinkType(friendID, current.ID, models.LinkRequest); err != nil {
			return err
		} else if reverse != nil {
			return ErrAlreadyRequested
		}
		if friendly, err := tx.AlreadyFriendly(current.ID, friendID); err != nil {
			return err
		} else if friendly {
			return ErrAlreadyFriends
		}
		if rejected, err := tx.FindWithLinkType(current.ID, friendID, models.LinkReject); err != nil {
			return err
		} else if rejected != nil {
			return ErrAlreadyRejected
		}
		return tx.Create(friendship)
	})
	if err != nil {
		// a racing request won the unique index; report the same outcome as
		// the check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyRequested
		}
		return nil, err
	}

	s.notifier.Dispatch(&notify.Event{
		Type:          notify.FriendNewRequest,
		Sender:        current,
		ReferenceType: models.ReferenceFriendship,
		ReferenceID:   strconv.FormatUint(uint64(friendship.ID), 10),
		TargetURL:     "/friends",
		RecipientIDs:  []uint{friendID},
	})
	return friendship, nil
}

// AcceptFriendRequest promotes the pending request from requesterID to an
// established friendship in both directions and notifies the requester.
func (s *FriendshipService) AcceptFriendRequest(current *models.Account, requesterID uint) (*models.Friendship, error) {
	var reverse *models.Friendship

	err := s.friendships.InTransaction(func(tx repositories.FriendshipRepository) error {
		request, err := tx.FindWithLinkType(requesterID, current.ID, models.LinkRequest)
		if err != nil {
			return err
		}
		if request == nil {
			return ErrRequestNotFound
		}

		request.LinkType = models.LinkEstablish
		if err := tx.Update(request); err != nil {
			return err
		}

		// the mutual friendship needs the second edge explicitly
		reverse = &models.Friendship{
			AccountID: current.ID,
			FriendID:  requesterID,
			LinkType:  models.LinkEstablish,
		}
		if err := tx.Create(reverse); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// an edge of another link type already existed; merge it
				existing, findErr := tx.Find(current.ID, requesterID)
				if findErr != nil {
					return findErr
				}
				if existing == nil {
					return err
				}
				existing.LinkType = models.LinkEstablish
				reverse = existing
				return tx.Update(existing)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(&notify.Event{
		Type:          notify.FriendRequestSuccess,
		Sender:        current,
		ReferenceType: models.ReferenceFriendship,
		ReferenceID:   strconv.FormatUint(uint64(reverse.ID), 10),
		TargetURL:     fmt.Sprintf("/profile/%d/stream", current.ID),
		RecipientIDs:  []uint{requesterID},
	})
	return reverse, nil
}

// DeclineFriendRequest marks the request as rejected. The edge is kept, not
// deleted: a new request stays blocked until the requester acknowledges the
// rejection.
func (s *FriendshipService) DeclineFriendRequest(current *models.Account, friendshipID uint) error {
	var friendship *models.Friendship
	err := s.friendships.InTransaction(func(tx repositories.FriendshipRepository) error {
		var err error
		friendship, err = tx.GetByID(friendshipID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if friendship.FriendID != current.ID || friendship.LinkType != models.LinkRequest {
			return ErrRequestNotFound
		}
		friendship.LinkType = models.LinkReject
		return tx.Update(friendship)
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(&notify.Event{
		Type:          notify.FriendRequestDecline,
		Sender:        current,
		ReferenceType: models.ReferenceFriendship,
		ReferenceID:   strconv.FormatUint(uint64(friendship.ID), 10),
		TargetURL:     "/friends",
		RecipientIDs:  []uint{friendship.AccountID},
	})
	return nil
}

// CancelFriendRequest withdraws the caller's own pending request. The edge
// is deleted outright and no notification is produced.
func (s *FriendshipService) CancelFriendRequest(current *models.Account, friendshipID uint) error {
	return s.friendships.InTransaction(func(tx repositories.FriendshipRepository) error {
		friendship, err := tx.GetByID(friendshipID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if friendship.AccountID != current.ID || friendship.LinkType != models.LinkRequest {
			return ErrRequestNotFound
		}
		return tx.Delete(friendship)
	})
}

// AcknowledgeRejection clears a reject edge left by a declined request, so
// the requester may try again later.
func (s *FriendshipService) AcknowledgeRejection(current *models.Account, friendshipID uint) error {
	return s.friendships.InTransaction(func(tx repositories.FriendshipRepository) error {
		friendship, err := tx.GetByID(friendshipID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if friendship.AccountID != current.ID || friendship.LinkType != models.LinkReject {
			return ErrRequestNotFound
		}
		return tx.Delete(friendship)
	})
}

// DeleteFriendship removes an established friendship in both directions.
func (s *FriendshipService) DeleteFriendship(current *models.Account, friendID uint) error {
	return s.friendships.InTransaction(func(tx repositories.FriendshipRepository) error {
		link, err := tx.FindWithLinkType(current.ID, friendID, models.LinkEstablish)
		if err != nil {
			return err
		}
		reverse, err := tx.FindWithLinkType(friendID, current.ID, models.LinkEstablish)
		if err != nil {
			return err
		}
		if link == nil || reverse == nil {
			return ErrNotFriends
		}
		return tx.DeleteFriendship(current.ID, friendID)
	})
}
