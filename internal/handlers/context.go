package handlers

import (
	"net/http"

	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// getAccountIDFromContext extracts the authenticated account ID stored by the
// JWT middleware. Returns 0 when the request carries no valid claims.
func getAccountIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("account").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.AccountID
}

// currentAccount loads the authenticated account. Most handlers need the full
// row, not just the ID, because role and email settings drive behavior.
func currentAccount(c echo.Context, accounts repositories.AccountRepository) (*models.Account, error) {
	id := getAccountIDFromContext(c)
	if id == 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Account not authenticated")
	}
	account, err := accounts.GetAccountByID(id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authenticated account not found")
	}
	return account, nil
}
