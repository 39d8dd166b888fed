package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a member of an organization who can hold inspections or administer
// them. Authentication is by API key; the key itself is only shown once on
// creation and stored as a SHA256 hash.
type User struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"orgId"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	Role         Role      `json:"role"`
	APIKey       string    `json:"apiKey,omitempty"` // Only shown on creation
	APIKeyHash   string    `json:"-"`                // Never exposed
	PasswordHash string    `json:"-"`                // Never exposed
	CreatedAt    time.Time `json:"createdAt"`
	IsActive     bool      `json:"isActive"`
}

// Actor returns the identity/role pair the edit-window authorizer evaluates
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// NewUser creates a new user with a generated API key
func NewUser(orgID, email, displayName string, role Role) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	displayName = strings.TrimSpace(displayName)

	if email == "" {
		return nil, ErrEmptyEmail
	}
	if displayName == "" {
		return nil, ErrEmptyDisplayName
	}
	if role == "" {
		role = RoleInspector
	}

	apiKey, err := GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	return &User{
		ID:          uuid.New().String(),
		OrgID:       orgID,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		APIKey:      apiKey,
		APIKeyHash:  HashAPIKey(apiKey),
		CreatedAt:   time.Now().UTC(),
		IsActive:    true,
	}, nil
}

// GenerateAPIKey creates a secure random API key
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// HashAPIKey creates a SHA256 hash of an API key
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(hash[:])
}

// SetPassword hashes and sets the user's password using bcrypt (cost 12)
func (u *User) SetPassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword checks if the provided password matches the hash (constant-time via bcrypt)
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// Errors
type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}

var (
	ErrEmptyEmail       = UserError{"email cannot be empty"}
	ErrEmptyDisplayName = UserError{"display name cannot be empty"}
	ErrUserNotFound     = UserError{"user not found"}
	ErrEmailExists      = UserError{"email already registered"}
	ErrInvalidAPIKey    = UserError{"invalid API key"}
	ErrPasswordTooShort = UserError{"password must be at least 8 characters"}
)
