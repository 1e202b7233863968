package handlers

import (
	"net/http"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/notify"
	"github.com/jhagel/campushub/backend/internal/relationships"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// AdminHandler handles administrator-only HTTP requests
type AdminHandler struct {
	accountRepository repositories.AccountRepository
	notifier          relationships.Notifier
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(accountRepo repositories.AccountRepository, notifier relationships.Notifier) *AdminHandler {
	return &AdminHandler{accountRepository: accountRepo, notifier: notifier}
}

// RegisterAdminRoutes registers admin routes
func (h *AdminHandler) RegisterAdminRoutes(g *echo.Group) {
	g.POST("/admin/broadcast", h.Broadcast)
}

// BroadcastRequest defines the request body for a system broadcast
type BroadcastRequest struct {
	Message      string `json:"message" validate:"required,min=1,max=500"`
	RecipientIDs []uint `json:"recipient_ids" validate:"required,min=1,dive,required"`
}

// Broadcast sends a system notification to the given accounts. Each broadcast
// gets its own reference so it never collapses with an earlier one.
func (h *AdminHandler) Broadcast(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	if !account.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "Administrator privileges required")
	}

	var req BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	h.notifier.Dispatch(&notify.Event{
		Type:          notify.Broadcast,
		Sender:        account,
		ReferenceType: models.ReferenceBroadcast,
		ReferenceID:   notify.NewBroadcastReference(),
		TargetURL:     "/notifications",
		RecipientIDs:  req.RecipientIDs,
		Excerpt:       req.Message,
	})

	return c.JSON(http.StatusAccepted, echo.Map{"recipients": len(req.RecipientIDs)})
}
