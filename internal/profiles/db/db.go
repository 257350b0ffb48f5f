package db

import (
	"context"
	"database/sql"
	"fmt"

	"invitide/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := d.Bun.NewSelect().
		Model(&profile).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfilesByIDs returns the profiles that exist among ids, in no particular order.
func (d *DB) GetProfilesByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}

	var rows []models.Profile
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]models.Profile, 0, len(rows))
	for _, p := range rows {
		if p.Validate() != nil {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// CreateProfileIfMissing inserts the profile unless one already exists for its id.
func (d *DB) CreateProfileIfMissing(ctx context.Context, profile models.Profile) (bool, error) {
	if err := profile.Validate(); err != nil {
		return false, err
	}
	res, err := d.Bun.NewInsert().
		Model(&profile).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *DB) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Profile)(nil)).
		Set("display_name = ?", displayName).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("profile %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
