// Package validators adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound request bodies.
package validators

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator wraps a single shared validator instance.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the Echo validator adapter.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate runs struct validation and maps failures to a 400 response.
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
