package domain

import (
	"time"
)

// Role constants.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Auth provider constants.
const (
	ProviderPassword  = "password"
	ProviderFederated = "federated"
)

// User represents a registered user in the system.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	Phone           string    `json:"phone,omitempty"`
	Address         string    `json:"address,omitempty"`
	Provider        string    `json:"provider"`
	Role            string    `json:"role"`
	UID             string    `json:"uid,omitempty"`
	IsEmailVerified bool      `json:"is_email_verified"`
	ProfilePicture  *Image    `json:"profile_picture,omitempty"`
	TotalSpent      float64   `json:"total_spent"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RefreshToken represents a stored refresh token for a user session.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
