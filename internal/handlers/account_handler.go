package handlers

import (
	"net/http"
	"strconv"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// AccountHandler handles HTTP requests related to account profiles
type AccountHandler struct {
	accountRepository repositories.AccountRepository
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountRepo repositories.AccountRepository) *AccountHandler {
	return &AccountHandler{accountRepository: accountRepo}
}

// RegisterProfileRoutes registers profile-related routes
func (h *AccountHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.PUT("/profile/email-settings", h.UpdateEmailSettings)
	g.GET("/accounts/:id", h.GetAccount)
	g.GET("/accounts/search", h.SearchAccounts)
}

// GetProfile retrieves the authenticated account's profile
func (h *AccountHandler) GetProfile(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// GetAccount retrieves another account's profile by ID
func (h *AccountHandler) GetAccount(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid account ID")
	}
	account, err := h.accountRepository.GetAccountByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Account not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, account)
}

// UpdateProfile updates the authenticated account's profile
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	var req models.UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.Name != "" {
		account.Name = req.Name
	}
	if req.Studycourse != "" {
		account.Studycourse = req.Studycourse
	}
	if req.Degree != "" {
		account.Degree = req.Degree
	}
	if req.Semester != 0 {
		account.Semester = req.Semester
	}

	if err := h.accountRepository.UpdateAccount(account); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, account)
}

// UpdateEmailSettings changes the account's notification email cadence
func (h *AccountHandler) UpdateEmailSettings(c echo.Context) error {
	account, err := currentAccount(c, h.accountRepository)
	if err != nil {
		return err
	}

	var req models.UpdateEmailSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account.EmailNotifications = models.EmailNotifications(req.EmailNotifications)
	if account.EmailNotifications == models.EmailCollectedDaily {
		if req.DailyEmailNotificationHour == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "daily_email_notification_hour is required for the daily digest")
		}
		account.DailyEmailNotificationHour = req.DailyEmailNotificationHour
	} else {
		account.DailyEmailNotificationHour = nil
	}

	if err := h.accountRepository.UpdateAccount(account); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, account)
}

// SearchAccounts searches for accounts by a query string (email or name)
func (h *AccountHandler) SearchAccounts(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	accounts, err := h.accountRepository.SearchAccounts(query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, accounts)
}
