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

// PostHandler handles HTTP requests related to stream posts and comments
type PostHandler struct {
	postRepository         repositories.PostRepository
	accountRepository      repositories.AccountRepository
	groupRepository        repositories.GroupRepository
	friendshipRepository   repositories.FriendshipRepository
	notificationRepository repositories.NotificationRepository
	notifier               relationships.Notifier
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	accountRepo repositories.AccountRepository,
	groupRepo repositories.GroupRepository,
	friendshipRepo repositories.FriendshipRepository,
	notificationRepo repositories.NotificationRepository,
	notifier relationships.Notifier,
) *PostHandler {
	return &PostHandler{
		postRepository:         postRepo,
		accountRepository:      accountRepo,
		groupRepository:        groupRepo,
		friendshipRepository:   friendshipRepo,
		notificationRepository: notificationRepo,
		notifier:               notifier,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetComments)
	g.GET("/accounts/:id/stream", h.GetAccountStream)
	g.GET("/groups/:id/stream", h.GetGroupStream)
}

// excerptLength bounds the content fragment carried in notifications.
const excerptLength = 100

func excerpt(content string) string {
	if len(content) <= excerptLength {
		return content
	}
	return content[:excerptLength] + "..."
}

// CreatePost creates a post on an account stream or a group stream
func (h *PostHandler) CreatePost(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if (req.AccountID == nil) == (req.GroupID == nil) {
		return echo.NewHTTPError(http.StatusBadRequest, "A post belongs to exactly one stream")
	}

	post := &models.Post{
		OwnerID:   account.ID,
		AccountID: req.AccountID,
		GroupID:   req.GroupID,
		Content:   req.Content,
	}

	switch {
	case req.GroupID != nil:
		group, err := h.groupRepository.GetGroupByID(*req.GroupID)
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
			return echo.NewHTTPError(http.StatusForbidden, "Only members can post in a group")
		}

		if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.notifier.Dispatch(&notify.Event{
			Type:          notify.PostGroup,
			Sender:        account,
			ReferenceType: models.ReferencePost,
			ReferenceID:   post.ID.Hex(),
			TargetURL:     "/posts/" + post.ID.Hex(),
			GroupID:       group.ID,
			GroupTitle:    group.Title,
			Excerpt:       excerpt(post.Content),
		})

	case *req.AccountID == account.ID:
		// posting on one's own stream notifies the friends
		if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		friendIDs, err := h.friendshipRepository.FindFriendIDs(account.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.notifier.Dispatch(&notify.Event{
			Type:          notify.PostProfile,
			Sender:        account,
			ReferenceType: models.ReferencePost,
			ReferenceID:   post.ID.Hex(),
			TargetURL:     "/posts/" + post.ID.Hex(),
			RecipientIDs:  friendIDs,
			Excerpt:       excerpt(post.Content),
		})

	default:
		// posting on a friend's stream notifies that friend
		friendly, err := h.friendshipRepository.AlreadyFriendly(account.ID, *req.AccountID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !friendly && !account.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "You can only post on the streams of your friends")
		}
		if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.notifier.Dispatch(&notify.Event{
			Type:          notify.PostStream,
			Sender:        account,
			ReferenceType: models.ReferencePost,
			ReferenceID:   post.ID.Hex(),
			TargetURL:     "/posts/" + post.ID.Hex(),
			RecipientIDs:  []uint{*req.AccountID},
			Excerpt:       excerpt(post.Content),
		})
	}

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a single post, gated by stream permissions
func (h *PostHandler) GetPost(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if err := h.checkPostVisibility(c, account, post); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post with its comments; the author or an admin only
func (h *PostHandler) DeletePost(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if !account.IsAdmin() && !permissions.IsOwnerOfPost(account, post) {
		return echo.NewHTTPError(http.StatusForbidden, "Only the author can delete a post")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// comment notifications reference the parent post, so one cascade covers
	// the post and its comments
	if err := h.notificationRepository.DeleteByReference(models.ReferencePost, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateComment adds a comment under a post and notifies the affected parties
func (h *PostHandler) CreateComment(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	parent, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if parent.ParentID != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Comments cannot be nested")
	}

	if err := h.checkPostVisibility(c, account, parent); err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment := &models.Post{
		OwnerID:   account.ID,
		AccountID: parent.AccountID,
		GroupID:   parent.GroupID,
		ParentID:  &parent.ID,
		Content:   req.Content,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// notifications reference the parent post so repeated comments collapse
	// into one row per recipient
	if parent.GroupID != nil {
		group, err := h.groupRepository.GetGroupByID(*parent.GroupID)
		if err == nil {
			h.notifier.Dispatch(&notify.Event{
				Type:          notify.PostCommentGroup,
				Sender:        account,
				ReferenceType: models.ReferencePost,
				ReferenceID:   parent.ID.Hex(),
				TargetURL:     "/posts/" + parent.ID.Hex(),
				GroupID:       group.ID,
				GroupTitle:    group.Title,
				Excerpt:       excerpt(comment.Content),
			})
		}
	} else {
		h.notifier.Dispatch(&notify.Event{
			Type:          notify.PostCommentOwnProfile,
			Sender:        account,
			ReferenceType: models.ReferencePost,
			ReferenceID:   parent.ID.Hex(),
			TargetURL:     "/posts/" + parent.ID.Hex(),
			RecipientIDs:  []uint{parent.OwnerID},
			Excerpt:       excerpt(comment.Content),
		})
		if parent.AccountID != nil && *parent.AccountID != parent.OwnerID {
			h.notifier.Dispatch(&notify.Event{
				Type:          notify.PostCommentProfile,
				Sender:        account,
				ReferenceType: models.ReferencePost,
				ReferenceID:   parent.ID.Hex(),
				TargetURL:     "/posts/" + parent.ID.Hex(),
				RecipientIDs:  []uint{*parent.AccountID},
				Excerpt:       excerpt(comment.Content),
			})
		}
	}

	return c.JSON(http.StatusCreated, comment)
}

// GetComments retrieves the comments of a post, oldest first
func (h *PostHandler) GetComments(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	parent, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if err := h.checkPostVisibility(c, account, parent); err != nil {
		return err
	}

	comments, err := h.postRepository.GetComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, comments)
}

// GetAccountStream retrieves an account's profile stream
func (h *PostHandler) GetAccountStream(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	streamID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid account ID")
	}

	if uint(streamID) != account.ID && !account.IsAdmin() {
		friendly, err := h.friendshipRepository.AlreadyFriendly(account.ID, uint(streamID))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !friendly {
			return echo.NewHTTPError(http.StatusForbidden, "Only friends can read this stream")
		}
	}

	skip, limit := streamPaging(c)
	posts, err := h.postRepository.GetAccountStream(c.Request().Context(), uint(streamID), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, posts)
}

// GetGroupStream retrieves a group's stream
func (h *PostHandler) GetGroupStream(c echo.Context) error {
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

	skip, limit := streamPaging(c)
	posts, err := h.postRepository.GetGroupStream(c.Request().Context(), group.ID, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, posts)
}

// checkPostVisibility applies the stream permission rules to a single post.
func (h *PostHandler) checkPostVisibility(c echo.Context, account *models.Account, post *models.Post) error {
	if post.GroupID != nil {
		group, err := h.groupRepository.GetGroupByID(*post.GroupID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		edge, err := h.groupRepository.FindEdge(account.ID, group.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !permissions.CanViewGroup(account, group, edge) {
			return echo.NewHTTPError(http.StatusForbidden, "You are not a member of this group")
		}
		return nil
	}

	friendOfStreamOwner := false
	if post.AccountID != nil && *post.AccountID != account.ID {
		friendly, err := h.friendshipRepository.AlreadyFriendly(account.ID, *post.AccountID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		friendOfStreamOwner = friendly
	}
	if !permissions.CanViewStreamPost(account, post, friendOfStreamOwner) {
		return echo.NewHTTPError(http.StatusForbidden, "Only friends can read this post")
	}
	return nil
}

func streamPaging(c echo.Context) (skip, limit int64) {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	size, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = 20
	}
	return (page - 1) * size, size
}
