package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Identity is an authenticated visitor resolved from a session.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Profile struct {
	bun.BaseModel `bun:"table:profiles"`

	ID          string    `bun:"id,pk" json:"id"`
	DisplayName string    `bun:"display_name,notnull" json:"displayName"`
	Email       string    `bun:"email" json:"email"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
}

func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile record without id: %w", ErrInvalidInput)
	}
	return nil
}

const (
	ProviderPassword = "password"
	ProviderOIDC     = "oidc"
)

// Credential is the sign-in record backing an identity.
type Credential struct {
	bun.BaseModel `bun:"table:credentials"`

	ID           string    `bun:"id,pk"`
	Email        string    `bun:"email,unique,notnull"`
	PasswordHash string    `bun:"password_hash"`
	Provider     string    `bun:"provider,notnull"`
	Subject      string    `bun:"subject"`
	DisplayName  string    `bun:"display_name"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func (c *Credential) Identity() *Identity {
	return &Identity{ID: c.ID, Email: c.Email}
}

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type OIDCSignInRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// Session is handed to the client after a successful sign-in.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Identity  Identity  `json:"identity"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
}
