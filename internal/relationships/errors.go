// Package relationships implements the state machines governing friendship
// and group-membership edges. Every transition checks its preconditions and
// writes the edge inside one transaction, then emits the matching
// notification event.
package relationships

import "errors"

// Validation errors: a precondition of a state transition was violated. No
// storage mutation has occurred when one of these is returned.
var (
	ErrSelfRequest      = errors.New("cannot request a friendship with yourself")
	ErrDummyAccount     = errors.New("this account cannot take part in relationships")
	ErrAlreadyRequested = errors.New("a friend request between these accounts is already pending")
	ErrAlreadyFriends   = errors.New("accounts are already friends")
	// ErrAlreadyRejected blocks a new request while a reject edge exists;
	// the requester has to acknowledge the rejection first.
	ErrAlreadyRejected = errors.New("the previous friend request was rejected and not yet acknowledged")
	ErrNotFriends      = errors.New("accounts are not friends")

	ErrAlreadyMember        = errors.New("account is already a member of this group")
	ErrAlreadyRequestedJoin = errors.New("a join request for this group is already pending")
	ErrJoinRejected         = errors.New("the join request for this group was rejected")
	ErrTokenRequired        = errors.New("joining this course requires the course token")
	ErrBadToken             = errors.New("the course token is wrong")
	ErrCannotRemoveOwner    = errors.New("the group owner cannot be removed")

	ErrNotAllowed = errors.New("not allowed")
)

// Not-found errors: the referenced entity or edge does not exist. Callers
// treat these as no-ops with a reported failure.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrRequestNotFound = errors.New("request not found")
	ErrEdgeNotFound    = errors.New("relationship not found")
)
