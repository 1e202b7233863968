package handlers

import (
	"net/http"
	"strconv"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/notify"
	"github.com/jhagel/campushub/backend/internal/permissions"
	"github.com/jhagel/campushub/backend/internal/relationships"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// MediaHandler handles HTTP requests related to group media metadata
type MediaHandler struct {
	mediaRepository        repositories.MediaRepository
	groupRepository        repositories.GroupRepository
	accountRepository      repositories.AccountRepository
	notificationRepository repositories.NotificationRepository
	notifier               relationships.Notifier
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(
	mediaRepo repositories.MediaRepository,
	groupRepo repositories.GroupRepository,
	accountRepo repositories.AccountRepository,
	notificationRepo repositories.NotificationRepository,
	notifier relationships.Notifier,
) *MediaHandler {
	return &MediaHandler{
		mediaRepository:        mediaRepo,
		groupRepository:        groupRepo,
		accountRepository:      accountRepo,
		notificationRepository: notificationRepo,
		notifier:               notifier,
	}
}

// RegisterMediaRoutes registers media-related routes
func (h *MediaHandler) RegisterMediaRoutes(g *echo.Group) {
	g.POST("/groups/:id/media", h.CreateMedia)
	g.GET("/groups/:id/media", h.GetGroupMedia)
	g.DELETE("/media/:id", h.DeleteMedia)
}

// CreateMedia registers an uploaded file in a group and notifies the members
func (h *MediaHandler) CreateMedia(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid group ID")
	}

	group, err := h.groupRepository.GetGroupByID(uint(groupID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	edge, err := h.groupRepository.FindEdge(account.ID, group.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	isMember := edge != nil && edge.LinkType == models.LinkEstablish
	if !account.IsAdmin() && !permissions.IsOwnerOfGroup(account, group) && !isMember {
		return echo.NewHTTPError(http.StatusForbidden, "Only members can upload to a group")
	}

	var req models.CreateMediaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	media := &models.Media{
		OwnerID:     account.ID,
		GroupID:     group.ID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        req.Size,
	}
	if err := h.mediaRepository.CreateMedia(c.Request().Context(), media); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.notifier.Dispatch(&notify.Event{
		Type:          notify.MediaNewMedia,
		Sender:        account,
		ReferenceType: models.ReferenceMedia,
		ReferenceID:   media.ID.Hex(),
		TargetURL:     "/groups/" + strconv.FormatUint(uint64(group.ID), 10) + "/media",
		GroupID:       group.ID,
		GroupTitle:    group.Title,
		Excerpt:       media.FileName,
	})

	return c.JSON(http.StatusCreated, media)
}

// GetGroupMedia retrieves a group's media metadata, newest first
func (h *MediaHandler) GetGroupMedia(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid group ID")
	}

	group, err := h.groupRepository.GetGroupByID(uint(groupID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	edge, err := h.groupRepository.FindEdge(account.ID, group.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !permissions.CanViewGroup(account, group, edge) {
		return echo.NewHTTPError(http.StatusForbidden, "You are not a member of this group")
	}

	media, err := h.mediaRepository.GetGroupMedia(c.Request().Context(), group.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, media)
}

// DeleteMedia removes media metadata; the uploader, the group owner or an admin
func (h *MediaHandler) DeleteMedia(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	media, err := h.mediaRepository.GetMediaByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Media not found")
	}

	if !account.IsAdmin() && media.OwnerID != account.ID {
		group, err := h.groupRepository.GetGroupByID(media.GroupID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !permissions.IsOwnerOfGroup(account, group) {
			return echo.NewHTTPError(http.StatusForbidden, "Only the uploader or the group owner can delete media")
		}
	}

	if err := h.mediaRepository.DeleteMedia(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.notificationRepository.DeleteByReference(models.ReferenceMedia, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
