package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"invitide/internal/logger"
	"invitide/internal/models"
	"invitide/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type CredentialDBLayer interface {
	CreateCredential(ctx context.Context, credential models.Credential) error
	GetCredentialByEmail(ctx context.Context, email string) (*models.Credential, error)
	GetCredentialByID(ctx context.Context, id string) (*models.Credential, error)
}

type SessionStore interface {
	Save(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// ProfileEnsurer creates the profile of a signed-in identity when it is missing.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, id, displayName, email string) (*models.Profile, error)
}

var errInvalidCredentials = fmt.Errorf("invalid email or password: %w", models.ErrUnauthenticated)

type AuthService struct {
	DB       CredentialDBLayer
	Sessions SessionStore
	Profiles ProfileEnsurer
	Tokens   *TokenManager
	// OIDC is nil when no identity provider is configured.
	OIDC   IDTokenVerifier
	Logger *logger.Logger
}

func NewAuthService(db CredentialDBLayer, sessions SessionStore, profiles ProfileEnsurer, tokens *TokenManager, oidc IDTokenVerifier, log *logger.Logger) *AuthService {
	return &AuthService{
		DB:       db,
		Sessions: sessions,
		Profiles: profiles,
		Tokens:   tokens,
		OIDC:     oidc,
		Logger:   log,
	}
}

func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.Identity, error) {
	req.Email = normalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.DB.GetCredentialByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email %s is already registered: %w", req.Email, models.ErrConflict)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	credential := models.Credential{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Provider:     models.ProviderPassword,
		DisplayName:  req.DisplayName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.DB.CreateCredential(ctx, credential); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	if _, err := s.Profiles.Ensure(ctx, credential.ID, credential.DisplayName, credential.Email); err != nil {
		return nil, err
	}

	s.Logger.LogSecurity("SIGNUP", fmt.Sprintf("New identity %s", credential.ID))
	return credential.Identity(), nil
}

func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (*models.Session, error) {
	req.Email = normalizeEmail(req.Email)
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	credential, err := s.DB.GetCredentialByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("Unknown email %s", req.Email))
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}

	if credential.Provider != models.ProviderPassword || credential.PasswordHash == "" {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(req.Password)); err != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("Wrong password for %s", credential.ID))
		return nil, errInvalidCredentials
	}

	return s.startSession(ctx, credential)
}

// SignInWithOIDC exchanges a provider ID token for a session.
func (s *AuthService) SignInWithOIDC(ctx context.Context, req models.OIDCSignInRequest) (*models.Session, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}
	if s.OIDC == nil {
		return nil, fmt.Errorf("oauth sign-in is not configured: %w", models.ErrInvalidInput)
	}

	claims, err := s.OIDC.Verify(ctx, req.IDToken)
	if err != nil {
		s.Logger.LogSecurity("OAUTH_FAILED", err.Error())
		return nil, fmt.Errorf("%v: %w", err, models.ErrUnauthenticated)
	}

	id := OIDCIdentityID(claims.Issuer, claims.Subject)
	credential, err := s.DB.GetCredentialByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		email := normalizeEmail(claims.Email)
		if email == "" {
			email = id + "@oidc.invalid"
		}
		if _, err := s.DB.GetCredentialByEmail(ctx, email); err == nil {
			return nil, fmt.Errorf("email %s is registered with a password: %w", email, models.ErrConflict)
		}

		credential = &models.Credential{
			ID:          id,
			Email:       email,
			Provider:    models.ProviderOIDC,
			Subject:     claims.Subject,
			DisplayName: claims.Name,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.DB.CreateCredential(ctx, *credential); err != nil {
			return nil, fmt.Errorf("failed to create credential: %w", err)
		}
		s.Logger.LogSecurity("SIGNUP", fmt.Sprintf("New OAuth identity %s", id))
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}

	return s.startSession(ctx, credential)
}

// Resolve returns the identity behind a session token, or nil for any failure.
func (s *AuthService) Resolve(ctx context.Context, token string) *models.Identity {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		s.Logger.Debug("AUTH", fmt.Sprintf("Rejected token: %v", err))
		return nil
	}

	live, err := s.Sessions.Exists(ctx, claims.ID)
	if err != nil {
		s.Logger.Warn("AUTH", fmt.Sprintf("Session lookup failed: %v", err))
		return nil
	}
	if !live {
		return nil
	}

	return &models.Identity{ID: claims.Subject, Email: claims.Email}
}

// SignOut revokes the session behind token. Unknown or invalid tokens are ignored.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.Sessions.Delete(ctx, claims.ID); err != nil {
		return err
	}
	s.Logger.Info("AUTH", fmt.Sprintf("Session closed for %s", claims.Subject))
	return nil
}

func (s *AuthService) startSession(ctx context.Context, credential *models.Credential) (*models.Session, error) {
	if _, err := s.Profiles.Ensure(ctx, credential.ID, credential.DisplayName, credential.Email); err != nil {
		return nil, err
	}

	identity := credential.Identity()
	token, claims, err := s.Tokens.Issue(*identity)
	if err != nil {
		return nil, err
	}

	expiresAt := claims.ExpiresAt.Time
	if err := s.Sessions.Save(ctx, claims.ID, identity.ID, time.Until(expiresAt)); err != nil {
		return nil, err
	}

	s.Logger.Info("AUTH", fmt.Sprintf("Session opened for %s", identity.ID))
	return &models.Session{Token: token, ExpiresAt: expiresAt, Identity: *identity}, nil
}

// OIDCIdentityID derives a stable identity id from the provider's issuer and subject.
func OIDCIdentityID(issuer, subject string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(issuer+"|"+subject)).String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
