package auth

import (
	"errors"
	"net/mail"
	"time"

	"github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/avatar"
	"github.com/go-pkgz/auth/v2/provider"
	"github.com/go-pkgz/auth/v2/token"
	"github.com/rohanmehra24/memory-lane/config"
	"github.com/rohanmehra24/memory-lane/database"
	"github.com/rohanmehra24/memory-lane/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Global auth service instance
var authService *auth.Service

// Initialize auth service
func SetupAuthService() *auth.Service {
	options := auth.Opts{
		SecretReader: token.SecretFunc(func(id string) (string, error) {
			return config.Config("JWT_SECRET"), nil
		}),
		TokenDuration:  time.Hour * 24,     // JWT token duration
		CookieDuration: time.Hour * 24 * 7, // Cookie duration
		Issuer:         "memory-lane-app",
		URL:            config.Optional("APP_URL", "http://localhost:3000"),
		AvatarStore:    avatar.NewLocalFS("/tmp/avatars"),
	}

	// Create auth service
	service := auth.NewService(options)

	// Add direct authentication provider that uses the database
	service.AddDirectProvider("local", provider.CredCheckerFunc(func(identity, password string) (bool, error) {
		return ValidateUserCredentials(identity, password)
	}))

	authService = service
	return service
}

// Get the auth service instance
func GetAuthService() *auth.Service {
	return authService
}

// ValidateUserCredentials validates user credentials against the database
func ValidateUserCredentials(identity, password string) (bool, error) {
	user, err := FindUser(identity)
	if err != nil {
		return false, err
	}

	if user == nil {
		return false, nil // User not found
	}

	// Check password
	if !CheckPasswordHash(password, user.Password) {
		return false, nil // Invalid password
	}

	return true, nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// FindUser resolves an identity that may be an email address or a username.
func FindUser(identity string) (*models.User, error) {
	if isEmail(identity) {
		return getUserByEmail(identity)
	}
	return getUserByUsername(identity)
}

func isEmail(identity string) bool {
	_, err := mail.ParseAddress(identity)
	return err == nil
}

func getUserByEmail(email string) (*models.User, error) {
	db := database.GetDB()
	var user models.User
	if err := db.Where(&models.User{Email: email}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func getUserByUsername(username string) (*models.User, error) {
	db := database.GetDB()
	var user models.User
	if err := db.Where(&models.User{Username: username}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
