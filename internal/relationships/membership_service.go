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

// MembershipService enforces the legal transitions of group membership edges.
type MembershipService struct {
	groups      repositories.GroupRepository
	friendships repositories.FriendshipRepository
	accounts    repositories.AccountRepository
	notifier    Notifier
	logger      *slog.Logger
}

// NewMembershipService creates a MembershipService.
func NewMembershipService(
	groups repositories.GroupRepository,
	friendships repositories.FriendshipRepository,
	accounts repositories.AccountRepository,
	notifier Notifier,
	logger *slog.Logger,
) *MembershipService {
	return &MembershipService{
		groups:      groups,
		friendships: friendships,
		accounts:    accounts,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *MembershipService) group(groupID uint) (*models.Group, error) {
	group, err := s.groups.GetGroupByID(groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// Join lets an account enter a group. An existing invitation is promoted to
// membership; open groups are joined directly; close groups produce a join
// request for the owner; course groups require JoinWithToken.
func (s *MembershipService) Join(current *models.Account, groupID uint) (*models.GroupAccount, error) {
	group, err := s.group(groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID == current.ID {
		return nil, ErrAlreadyMember
	}

	var (
		edge      *models.GroupAccount
		requested bool
	)
	err = s.groups.InTransaction(func(tx repositories.GroupRepository) error {
		existing, err := tx.FindEdge(current.ID, groupID)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.LinkType {
			case models.LinkEstablish:
				return ErrAlreadyMember
			case models.LinkRequest:
				return ErrAlreadyRequestedJoin
			case models.LinkReject:
				return ErrJoinRejected
			case models.LinkInvite:
				existing.LinkType = models.LinkEstablish
				edge = existing
				return tx.UpdateEdge(existing)
			}
		}

		switch group.GroupType {
		case models.GroupOpen:
			edge = &models.GroupAccount{AccountID: current.ID, GroupID: groupID, LinkType: models.LinkEstablish}
			return tx.CreateEdge(edge)
		case models.GroupClose:
			edge = &models.GroupAccount{AccountID: current.ID, GroupID: groupID, LinkType: models.LinkRequest}
			requested = true
			return tx.CreateEdge(edge)
		default: // course
			return ErrTokenRequired
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	if requested {
		s.notifier.Dispatch(&notify.Event{
			Type:          notify.GroupNewRequest,
			Sender:        current,
			ReferenceType: models.ReferenceGroup,
			ReferenceID:   strconv.FormatUint(uint64(groupID), 10),
			TargetURL:     fmt.Sprintf("/groups/%d", groupID),
			GroupID:       groupID,
			GroupTitle:    group.Title,
		})
	}
	return edge, nil
}

// JoinWithToken joins a course group when the supplied token matches. Existing
// edges short-circuit as in Join; only an invitation is promoted.
func (s *MembershipService) JoinWithToken(current *models.Account, groupID uint, token string) (*models.GroupAccount, error) {
	group, err := s.group(groupID)
	if err != nil {
		return nil, err
	}
	if group.OwnerID == current.ID {
		return nil, ErrAlreadyMember
	}
	if !models.ValidToken(token) || token != group.Token {
		return nil, ErrBadToken
	}

	var edge *models.GroupAccount
	err = s.groups.InTransaction(func(tx repositories.GroupRepository) error {
		existing, err := tx.FindEdge(current.ID, groupID)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.LinkType {
			case models.LinkEstablish:
				return ErrAlreadyMember
			case models.LinkRequest:
				return ErrAlreadyRequestedJoin
			case models.LinkReject:
				return ErrJoinRejected
			}
			// invite
			existing.LinkType = models.LinkEstablish
			edge = existing
			return tx.UpdateEdge(existing)
		}
		edge = &models.GroupAccount{AccountID: current.ID, GroupID: groupID, LinkType: models.LinkEstablish}
		return tx.CreateEdge(edge)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}
	return edge, nil
}

// AcceptRequest lets the group owner (or an admin) turn a join request into
// membership and notifies the requester.
func (s *MembershipService) AcceptRequest(current *models.Account, groupID, accountID uint) error {
	group, err := s.group(groupID)
	if err != nil {
		return err
	}
	if !current.IsAdmin() && group.OwnerID != current.ID {
		return ErrNotAllowed
	}

	err = s.groups.InTransaction(func(tx repositories.GroupRepository) error {
		edge, err := tx.FindEdge(accountID, groupID)
		if err != nil {
			return err
		}
		if edge == nil || edge.LinkType != models.LinkRequest {
			return ErrRequestNotFound
		}
		edge.LinkType = models.LinkEstablish
		return tx.UpdateEdge(edge)
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(&notify.Event{
		Type:          notify.GroupRequestSuccess,
		Sender:        current,
		ReferenceType: models.ReferenceGroup,
		ReferenceID:   strconv.FormatUint(uint64(groupID), 10),
		TargetURL:     fmt.Sprintf("/groups/%d", groupID),
		GroupID:       groupID,
		GroupTitle:    group.Title,
		RecipientIDs:  []uint{accountID},
	})
	return nil
}

// DeclineRequest lets the group owner (or an admin) reject a join request
// and notifies the requester. The edge is kept as reject.
func (s *MembershipService) DeclineRequest(current *models.Account, groupID, accountID uint) error {
	group, err := s.group(groupID)
	if err != nil {
		return err
	}
	if !current.IsAdmin() && group.OwnerID != current.ID {
		return ErrNotAllowed
	}

	err = s.groups.InTransaction(func(tx repositories.GroupRepository) error {
		edge, err := tx.FindEdge(accountID, groupID)
		if err != nil {
			return err
		}
		if edge == nil || edge.LinkType != models.LinkRequest {
			return ErrRequestNotFound
		}
		edge.LinkType = models.LinkReject
		return tx.UpdateEdge(edge)
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(&notify.Event{
		Type:          notify.GroupRequestDecline,
		Sender:        current,
		ReferenceType: models.ReferenceGroup,
		ReferenceID:   strconv.FormatUint(uint64(groupID), 10),
		TargetURL:     "/groups",
		GroupID:       groupID,
		GroupTitle:    group.Title,
		RecipientIDs:  []uint{accountID},
	})
	return nil
}

// InviteMembers creates invite edges for the given accounts. Targets that
// already carry any edge are skipped, as are targets the inviter is not
// friends with (unless the inviter is the owner or an admin). All accepted
// targets are notified with one batched invitation event.
func (s *MembershipService) InviteMembers(current *models.Account, groupID uint, accountIDs []uint) ([]uint, error) {
	group, err := s.group(groupID)
	if err != nil {
		return nil, err
	}
	privileged := current.IsAdmin() || group.OwnerID == current.ID

	var invited []uint
	err = s.groups.InTransaction(func(tx repositories.GroupRepository) error {
		for _, accountID := range accountIDs {
			if accountID == current.ID || accountID == group.OwnerID {
				continue
			}
			if !privileged {
				friendly, err := s.friendships.AlreadyFriendly(current.ID, accountID)
				if err != nil {
					return err
				}
				if !friendly {
					continue
				}
			}
			existing, err := tx.FindEdge(accountID, groupID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			edge := &models.GroupAccount{AccountID: accountID, GroupID: groupID, LinkType: models.LinkInvite}
			if err := tx.CreateEdge(edge); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					continue
				}
				return err
			}
			invited = append(invited, accountID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(invited) > 0 {
		s.notifier.Dispatch(&notify.Event{
			Type:          notify.GroupInvitation,
			Sender:        current,
			ReferenceType: models.ReferenceGroup,
			ReferenceID:   strconv.FormatUint(uint64(groupID), 10),
			TargetURL:     fmt.Sprintf("/groups/%d", groupID),
			GroupID:       groupID,
			GroupTitle:    group.Title,
			RecipientIDs:  invited,
		})
	}
	return invited, nil
}

// AcceptInvitation promotes the caller's invite edge via the Join path.
func (s *MembershipService) AcceptInvitation(current *models.Account, groupID uint) (*models.GroupAccount, error) {
	edge, err := s.groups.FindEdge(current.ID, groupID)
	if err != nil {
		return nil, err
	}
	if edge == nil || edge.LinkType != models.LinkInvite {
		return nil, ErrRequestNotFound
	}
	return s.Join(current, groupID)
}

// DeclineInvitation removes the caller's invite edge.
func (s *MembershipService) DeclineInvitation(current *models.Account, groupID uint) error {
	edge, err := s.groups.FindEdge(current.ID, groupID)
	if err != nil {
		return err
	}
	if edge == nil || edge.LinkType != models.LinkInvite {
		return ErrRequestNotFound
	}
	return s.groups.DeleteEdge(edge)
}

// RemoveMember deletes a membership edge. The owner can remove members,
// members can leave, admins can do both; the owner itself can never be
// removed.
func (s *MembershipService) RemoveMember(current *models.Account, groupID, accountID uint) error {
	group, err := s.group(groupID)
	if err != nil {
		return err
	}
	if accountID == group.OwnerID {
		return ErrCannotRemoveOwner
	}
	if !current.IsAdmin() && group.OwnerID != current.ID && current.ID != accountID {
		return ErrNotAllowed
	}

	edge, err := s.groups.FindEdge(accountID, groupID)
	if err != nil {
		return err
	}
	if edge == nil {
		return ErrEdgeNotFound
	}
	return s.groups.DeleteEdge(edge)
}
