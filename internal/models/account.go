package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// AccountRole determines the privileges of an account.
type AccountRole string

const (
	RoleStudent AccountRole = "student"
	RoleTutor   AccountRole = "tutor"
	RoleAdmin   AccountRole = "admin"
	// RoleDummy is the placeholder role for deleted or system accounts.
	// Dummy accounts can never take part in relationships.
	RoleDummy AccountRole = "dummy"
)

// EmailNotifications is the email delivery cadence chosen by an account.
type EmailNotifications string

const (
	EmailNone           EmailNotifications = "none"
	EmailHourly         EmailNotifications = "hourly"
	EmailCollectedDaily EmailNotifications = "collected_daily"
	EmailImmediatelyAll EmailNotifications = "immediately_all"
)

// Account represents a member of the university network.
type Account struct {
	gorm.Model  `json:"-"`
	ID          uint        `json:"id" gorm:"primaryKey"`
	Name        string      `json:"name"`
	Email       string      `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all accounts
	Password    string      `json:"-"`                        // Store hashed password, ignore for JSON serialization
	FirebaseUID string      `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	Role        AccountRole `json:"role" gorm:"size:20;default:'student'"`
	StudentID   string      `json:"student_id,omitempty"`
	Studycourse string      `json:"studycourse,omitempty"`
	Degree      string      `json:"degree,omitempty"`
	Semester    int         `json:"semester,omitempty"`

	// EmailNotifications controls whether notification emails are sent
	// immediately, collected into digests, or not at all.
	EmailNotifications EmailNotifications `json:"email_notifications" gorm:"size:20;default:'none'"`
	// DailyEmailNotificationHour is the hour of day (0-23) for the daily
	// digest. Only meaningful when EmailNotifications is collected_daily.
	DailyEmailNotificationHour *int `json:"daily_email_notification_hour,omitempty"`
}

// IsAdmin reports whether the account has administrator privileges.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CreateAccountRequest defines the request body for registering a new account
type CreateAccountRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	StudentID   string `json:"student_id,omitempty"`
	Studycourse string `json:"studycourse,omitempty"`
}

// FirebaseRegisterRequest defines the request body for registering via a Firebase identity
type FirebaseRegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	FirebaseUID string `json:"firebase_uid" validate:"required"`
}

// UpdateAccountRequest defines the request body for updating profile data
type UpdateAccountRequest struct {
	Name        string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Studycourse string `json:"studycourse,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Semester    int    `json:"semester,omitempty" validate:"omitempty,min=0,max=30"`
}

// UpdateEmailSettingsRequest defines the request body for changing the notification cadence
type UpdateEmailSettingsRequest struct {
	EmailNotifications         string `json:"email_notifications" validate:"required,oneof=none hourly collected_daily immediately_all"`
	DailyEmailNotificationHour *int   `json:"daily_email_notification_hour,omitempty" validate:"omitempty,min=0,max=23"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	AccountID uint   `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}
