package handlers

import (
	"net/http"
	"strconv"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/permissions"
	"github.com/jhagel/campushub/backend/internal/relationships"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// GroupHandler handles HTTP requests related to groups and memberships
type GroupHandler struct {
	membershipService *relationships.MembershipService
	groupRepository   repositories.GroupRepository
	accountRepository repositories.AccountRepository
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(
	membershipService *relationships.MembershipService,
	groupRepo repositories.GroupRepository,
	accountRepo repositories.AccountRepository,
) *GroupHandler {
	return &GroupHandler{
		membershipService: membershipService,
		groupRepository:   groupRepo,
		accountRepository: accountRepo,
	}
}

// RegisterGroupRoutes registers group-related routes
func (h *GroupHandler) RegisterGroupRoutes(g *echo.Group) {
	g.POST("/groups", h.CreateGroup)
	g.GET("/groups", h.ListGroups)
	g.GET("/groups/mine", h.GetMyGroups)
	g.GET("/groups/requests", h.GetOpenRequests)
	g.GET("/groups/:id", h.GetGroup)
	g.PUT("/groups/:id", h.UpdateGroup)
	g.DELETE("/groups/:id", h.DeleteGroup)
	g.GET("/groups/:id/members", h.GetMembers)
	g.POST("/groups/:id/join", h.Join)
	g.POST("/groups/:id/join/token", h.JoinWithToken)
	g.PUT("/groups/:id/requests/:accountId/accept", h.AcceptRequest)
	g.PUT("/groups/:id/requests/:accountId/decline", h.DeclineRequest)
	g.POST("/groups/:id/invite", h.InviteMembers)
	g.PUT("/groups/:id/invitation/accept", h.AcceptInvitation)
	g.DELETE("/groups/:id/invitation", h.DeclineInvitation)
	g.DELETE("/groups/:id/members/:accountId", h.RemoveMember)
}

func (h *GroupHandler) groupID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid group ID")
	}
	return uint(id), nil
}

// CreateGroup creates a new group owned by the authenticated account
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	var req models.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	groupType := models.GroupType(req.GroupType)
	if groupType == models.GroupCourse {
		// only tutors and admins run courses
		if account.Role != models.RoleTutor && !account.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "Only tutors can create course groups")
		}
		if !models.ValidToken(req.Token) {
			return echo.NewHTTPError(http.StatusBadRequest, "Course token must be 4 to 45 characters long")
		}
	}

	group := &models.Group{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     account.ID,
		GroupType:   groupType,
		Token:       req.Token,
	}

	if err := h.groupRepository.CreateGroup(group); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, group)
}

// ListGroups retrieves all groups
func (h *GroupHandler) ListGroups(c echo.Context) error {
	groups, err := h.groupRepository.ListGroups()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, groups)
}

// GetMyGroups retrieves the groups the account belongs to
func (h *GroupHandler) GetMyGroups(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	groups, err := h.groupRepository.FindEstablishedGroups(account.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, groups)
}

// GetOpenRequests retrieves the membership edges awaiting a decision from or
// about the authenticated account
func (h *GroupHandler) GetOpenRequests(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	edges, err := h.groupRepository.FindOpenRequests(account.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, edges)
}

// GetGroup retrieves a single group
func (h *GroupHandler) GetGroup(c echo.Context) error {
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}

	group, err := h.groupRepository.GetGroupByID(groupID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, group)
}

// UpdateGroup changes the group's title and description; owner or admin only
func (h *GroupHandler) UpdateGroup(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}

	group, err := h.groupRepository.GetGroupByID(groupID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !permissions.CanModerateRequest(account, group) {
		return echo.NewHTTPError(http.StatusForbidden, "Only the owner can edit a group")
	}

	var req models.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// the group type is fixed after creation; only content fields change
	group.Title = req.Title
	group.Description = req.Description
	if group.GroupType == models.GroupCourse && req.Token != "" {
		if !models.ValidToken(req.Token) {
			return echo.NewHTTPError(http.StatusBadRequest, "Course token must be 4 to 45 characters long")
		}
		group.Token = req.Token
	}

	if err := h.groupRepository.UpdateGroup(group); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, group)
}

// DeleteGroup removes a group with its edges and notifications; owner or admin only
func (h *GroupHandler) DeleteGroup(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}

	group, err := h.groupRepository.GetGroupByID(groupID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !permissions.CanModerateRequest(account, group) {
		return echo.NewHTTPError(http.StatusForbidden, "Only the owner can delete a group")
	}

	if err := h.groupRepository.DeleteGroup(groupID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// GetMembers retrieves the established members of a group
func (h *GroupHandler) GetMembers(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}

	group, err := h.groupRepository.GetGroupByID(groupID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	edge, err := h.groupRepository.FindEdge(account.ID, groupID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !permissions.CanViewGroup(account, group, edge) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not a member of this group")
	}

	members, err := h.groupRepository.FindAccountsByGroup(groupID, models.LinkEstablish)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"owner": group.Owner, "members": members})
}

// Join enters the group, or files a join request for close groups
func (h *GroupHandler) Join(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}

	edge, err := h.membershipService.Join(account, groupID)
	if err != nil {
		return relationshipError(err)
	}
	if edge.LinkType == models.LinkRequest {
		return c.JSON(http.StatusAccepted, edge)
	}
	return c.JSON(http.StatusCreated, edge)
}

// JoinWithToken joins a course group with the course token
func (h *GroupHandler) JoinWithToken(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}

	var req models.JoinWithTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	edge, err := h.membershipService.JoinWithToken(account, groupID, req.Token)
	if err != nil {
		return relationshipError(err)
	}
	return c.JSON(http.StatusCreated, edge)
}

// AcceptRequest accepts a pending join request
func (h *GroupHandler) AcceptRequest(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}
	accountID, err := strconv.ParseUint(c.Param("accountId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid account ID")
	}

	if err := h.membershipService.AcceptRequest(account, groupID, uint(accountID)); err != nil {
		return relationshipError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeclineRequest declines a pending join request
func (h *GroupHandler) DeclineRequest(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}
	accountID, err := strconv.ParseUint(c.Param("accountId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid account ID")
	}

	if err := h.membershipService.DeclineRequest(account, groupID, uint(accountID)); err != nil {
		return relationshipError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// InviteMembers invites the given accounts into the group
func (h *GroupHandler) InviteMembers(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}

	var req models.InviteMembersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	invited, err := h.membershipService.InviteMembers(account, groupID, req.AccountIDs)
	if err != nil {
		return relationshipError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"invited": invited})
}

// AcceptInvitation turns the account's invitation into membership
func (h *GroupHandler) AcceptInvitation(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}

	edge, err := h.membershipService.AcceptInvitation(account, groupID)
	if err != nil {
		return relationshipError(err)
	}
	return c.JSON(http.StatusOK, edge)
}

// DeclineInvitation discards the account's invitation
func (h *GroupHandler) DeclineInvitation(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}

	if err := h.membershipService.DeclineInvitation(account, groupID); err != nil {
		return relationshipError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveMember removes a member from the group, or lets a member leave
func (h *GroupHandler) RemoveMember(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	groupID, err := h.groupID(c)
	if err != nil {
		return err
	}
	accountID, err := strconv.ParseUint(c.Param("accountId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid account ID")
	}

	if err := h.membershipService.RemoveMember(account, groupID, uint(accountID)); err != nil {
		return relationshipError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
