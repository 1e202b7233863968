package handlers

import (
	"net/http"
	"strconv"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/relationships"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FriendshipHandler handles HTTP requests related to friendships
type FriendshipHandler struct {
	friendshipService    *relationships.FriendshipService
	friendshipRepository repositories.FriendshipRepository
	accountRepository    repositories.AccountRepository
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(
	friendshipService *relationships.FriendshipService,
	friendshipRepo repositories.FriendshipRepository,
	accountRepo repositories.AccountRepository,
) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipService:    friendshipService,
		friendshipRepository: friendshipRepo,
		accountRepository:    accountRepo,
	}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.GET("/friends", h.GetFriends)
	g.GET("/friends/requests", h.GetRequests)
	g.GET("/friends/rejects", h.GetRejects)
	g.POST("/friends/request", h.SendFriendRequest)
	g.PUT("/friends/request/:accountId/accept", h.AcceptFriendRequest)
	g.PUT("/friends/request/:id/decline", h.DeclineFriendRequest)
	g.DELETE("/friends/request/:id", h.CancelFriendRequest)
	g.DELETE("/friends/reject/:id", h.AcknowledgeRejection)
	g.DELETE("/friends/:accountId", h.DeleteFriendship)
}

// GetFriends retrieves the authenticated account's established friends
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	friends, err := h.friendshipRepository.FindFriends(account.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, friends)
}

// GetRequests retrieves the pending requests involving the account, in both
// directions, so the client can show incoming and outgoing separately
func (h *FriendshipHandler) GetRequests(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	requests, err := h.friendshipRepository.FindRequests(account.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, requests)
}

// GetRejects retrieves the account's own requests that were declined
func (h *FriendshipHandler) GetRejects(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	rejects, err := h.friendshipRepository.FindRejects(account.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rejects)
}

// SendFriendRequest handles sending a friend request
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	var req models.CreateFriendRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	friendship, err := h.friendshipService.RequestFriend(account, req.FriendID)
	if err != nil {
		return relationshipError(err)
	}
	return c.JSON(http.StatusCreated, friendship)
}

// AcceptFriendRequest accepts the pending request from the given account
func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	requesterID, err := strconv.ParseUint(c.Param("accountId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid account ID")
	}

	friendship, err := h.friendshipService.AcceptFriendRequest(account, uint(requesterID))
	if err != nil {
		return relationshipError(err)
	}
	return c.JSON(http.StatusOK, friendship)
}

// DeclineFriendRequest declines an incoming request by its edge ID
func (h *FriendshipHandler) DeclineFriendRequest(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	friendshipID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID")
	}

	if err := h.friendshipService.DeclineFriendRequest(account, uint(friendshipID)); err != nil {
		return relationshipError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CancelFriendRequest withdraws the account's own outgoing request
func (h *FriendshipHandler) CancelFriendRequest(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	friendshipID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID")
	}

	if err := h.friendshipService.CancelFriendRequest(account, uint(friendshipID)); err != nil {
		return relationshipError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AcknowledgeRejection clears a reject edge so a new request becomes possible
func (h *FriendshipHandler) AcknowledgeRejection(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	friendshipID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID")
	}

	if err := h.friendshipService.AcknowledgeRejection(account, uint(friendshipID)); err != nil {
		return relationshipError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteFriendship removes an established friendship in both directions
func (h *FriendshipHandler) DeleteFriendship(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	friendID, err := strconv.ParseUint(c.Param("accountId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid account ID")
	}

	if err := h.friendshipService.DeleteFriendship(account, uint(friendID)); err != nil {
		return relationshipError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
