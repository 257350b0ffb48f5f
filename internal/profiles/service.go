package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"invitide/internal/logger"
	"invitide/internal/models"
)

// AnonymousName is used when sign-in finds no display name to seed a profile with.
const AnonymousName = "Anonymous"

type ProfileDBLayer interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfilesByIDs(ctx context.Context, ids []string) ([]models.Profile, error)
	CreateProfileIfMissing(ctx context.Context, profile models.Profile) (bool, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// QRRenderer draws the check-in code for an identity.
type QRRenderer interface {
	PNG(userID string) ([]byte, error)
}

type ProfileService struct {
	DB     ProfileDBLayer
	QR     QRRenderer
	Logger *logger.Logger
}

func NewProfileService(db ProfileDBLayer, qr QRRenderer, log *logger.Logger) *ProfileService {
	return &ProfileService{DB: db, QR: qr, Logger: log}
}

func (s *ProfileService) Get(ctx context.Context, caller *models.Identity) (*models.Profile, error) {
	if caller == nil {
		return nil, models.ErrUnauthenticated
	}
	profile, err := s.DB.GetProfile(ctx, caller.ID)
	if err != nil {
		return nil, notFound(caller.ID, err)
	}
	return profile, nil
}

func (s *ProfileService) UpdateDisplayName(ctx context.Context, caller *models.Identity, displayName string) (*models.Profile, error) {
	if caller == nil {
		return nil, models.ErrUnauthenticated
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, fmt.Errorf("display name is required: %w", models.ErrInvalidInput)
	}

	if err := s.DB.UpdateDisplayName(ctx, caller.ID, displayName); err != nil {
		return nil, notFound(caller.ID, err)
	}
	s.Logger.Info("PROFILE", fmt.Sprintf("Display name updated for %s", caller.ID))
	return s.Get(ctx, caller)
}

// Ensure creates the profile for id if it does not exist yet and returns the stored one.
func (s *ProfileService) Ensure(ctx context.Context, id, displayName, email string) (*models.Profile, error) {
	if strings.TrimSpace(displayName) == "" {
		displayName = AnonymousName
	}

	created, err := s.DB.CreateProfileIfMissing(ctx, models.Profile{
		ID:          id,
		DisplayName: displayName,
		Email:       email,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile %s: %w", id, err)
	}
	if created {
		s.Logger.Info("PROFILE", fmt.Sprintf("Profile created for %s", id))
	}

	profile, err := s.DB.GetProfile(ctx, id)
	if err != nil {
		return nil, notFound(id, err)
	}
	return profile, nil
}

func (s *ProfileService) GetProfilesByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	profiles, err := s.DB.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	return profiles, nil
}

// QRCode renders the caller's check-in code as a PNG.
func (s *ProfileService) QRCode(ctx context.Context, caller *models.Identity) ([]byte, error) {
	if _, err := s.Get(ctx, caller); err != nil {
		return nil, err
	}
	png, err := s.QR.PNG(caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR: %w", err)
	}
	return png, nil
}

func notFound(id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("profile %s: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("profile %s: %w", id, err)
}
