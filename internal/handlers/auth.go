package handlers

import (
	"net/http"
	"os"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	accountRepository repositories.AccountRepository
	firebaseAuth      *auth.Client
	jwtSecret         string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accountRepo repositories.AccountRepository, firebaseAuthClient *auth.Client) *AuthHandler {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "supersecretjwtkey"
	}
	return &AuthHandler{
		accountRepository: accountRepo,
		firebaseAuth:      firebaseAuthClient,
		jwtSecret:         jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// Signup handles local account registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateAccountRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Check if an account with this email already exists
	_, err := h.accountRepository.GetAccountByEmail(req.Email)
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Account with this email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	account := &models.Account{
		Name:               req.Name,
		Email:              req.Email,
		Password:           string(hashedPassword),
		StudentID:          req.StudentID,
		Studycourse:        req.Studycourse,
		Role:               models.RoleStudent,
		EmailNotifications: models.EmailNone,
	}

	if err := h.accountRepository.CreateAccount(account); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	token, err := h.generateJWT(account)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}

	return c.JSON(http.StatusCreated, echo.Map{"token": token})
}

// SignIn handles local account authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	account, err := h.accountRepository.GetAccountByEmail(req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if account.Role == models.RoleDummy {
		return echo.NewHTTPError(http.StatusUnauthorized, "This account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	token, err := h.generateJWT(account)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FirebaseLogin verifies a Firebase ID token from the university directory
// login and issues a local JWT, creating the account on first sight.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req FirebaseLoginRequest

	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	name := ""
	if displayName, ok := token.Claims["name"].(string); ok {
		name = displayName
	}

	account, err := h.accountRepository.GetAccountByFirebaseUID(firebaseUID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// not seen under this UID yet, try by email
			account, err = h.accountRepository.GetAccountByEmail(email)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					newAccount := &models.Account{
						Name:               name,
						Email:              email,
						FirebaseUID:        firebaseUID,
						Role:               models.RoleStudent,
						EmailNotifications: models.EmailNone,
					}
					if err := h.accountRepository.CreateAccount(newAccount); err != nil {
						return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
					}
					account = newAccount
				} else {
					return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
				}
			} else {
				// found by email, link the Firebase identity
				account.FirebaseUID = firebaseUID
				if err := h.accountRepository.UpdateAccount(account); err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "Failed to link Firebase identity")
				}
			}
		} else {
			return echo.NewHTTPError(http.StatusInternalServerError, "Database error")
		}
	} else {
		account.Email = email
		if name != "" {
			account.Name = name
		}
		if err := h.accountRepository.UpdateAccount(account); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update account details")
		}
	}

	if account.Role == models.RoleDummy {
		return echo.NewHTTPError(http.StatusUnauthorized, "This account is deactivated")
	}

	localJWT, err := h.generateJWT(account)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": localJWT})
}

// generateJWT generates a JWT token for a given account
func (h *AuthHandler) generateJWT(account *models.Account) (string, error) {
	claims := &models.JwtCustomClaims{
		AccountID: account.ID,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return "", err
	}
	return t, nil
}
