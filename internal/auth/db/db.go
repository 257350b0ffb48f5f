package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"invitide/internal/models"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

const pgUniqueViolation = "23505"

type DB struct {
	Bun *bun.DB
}

// CreateCredential inserts the credential. A taken email or id is reported as
// models.ErrConflict.
func (d *DB) CreateCredential(ctx context.Context, credential models.Credential) error {
	_, err := d.Bun.NewInsert().Model(&credential).Exec(ctx)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s is already registered: %w", credential.Email, models.ErrConflict)
	}
	return err
}

func (d *DB) GetCredentialByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var credential models.Credential
	err := d.Bun.NewSelect().
		Model(&credential).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

func (d *DB) GetCredentialByID(ctx context.Context, id string) (*models.Credential, error) {
	var credential models.Credential
	err := d.Bun.NewSelect().
		Model(&credential).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	// sqlite drivers only expose the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
