package handlers

import (
	"errors"
	"net/http"

	"github.com/jhagel/campushub/backend/internal/relationships"
	"github.com/labstack/echo/v4"
)

// relationshipError maps the sentinel errors of the relationships package to
// HTTP status codes. Anything unmapped is a server-side failure.
func relationshipError(err error) error {
	switch {
	case errors.Is(err, relationships.ErrAccountNotFound),
		errors.Is(err, relationships.ErrGroupNotFound),
		errors.Is(err, relationships.ErrRequestNotFound),
		errors.Is(err, relationships.ErrEdgeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, relationships.ErrNotAllowed):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())

	case errors.Is(err, relationships.ErrAlreadyRequested),
		errors.Is(err, relationships.ErrAlreadyFriends),
		errors.Is(err, relationships.ErrAlreadyMember),
		errors.Is(err, relationships.ErrAlreadyRequestedJoin):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, relationships.ErrSelfRequest),
		errors.Is(err, relationships.ErrDummyAccount),
		errors.Is(err, relationships.ErrAlreadyRejected),
		errors.Is(err, relationships.ErrNotFriends),
		errors.Is(err, relationships.ErrJoinRejected),
		errors.Is(err, relationships.ErrTokenRequired),
		errors.Is(err, relationships.ErrBadToken),
		errors.Is(err, relationships.ErrCannotRemoveOwner):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
