package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"invitide/internal/auth/db"
	"invitide/internal/database/dbtest"
	"invitide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetCredential(t *testing.T) {
	ctx := context.Background()
	credDB := &db.DB{Bun: dbtest.New(t)}

	cred := models.Credential{
		ID:           "u1",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Provider:     models.ProviderPassword,
		DisplayName:  "Alice",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, credDB.CreateCredential(ctx, cred))

	byEmail, err := credDB.GetCredentialByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)
	assert.Equal(t, "Alice", byEmail.DisplayName)

	byID, err := credDB.GetCredentialByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = credDB.GetCredentialByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	credDB := &db.DB{Bun: dbtest.New(t)}

	require.NoError(t, credDB.CreateCredential(ctx, models.Credential{ID: "u1", Email: "a@example.com", Provider: models.ProviderPassword, CreatedAt: time.Now()}))
	err := credDB.CreateCredential(ctx, models.Credential{ID: "u2", Email: "a@example.com", Provider: models.ProviderPassword, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, models.ErrConflict)
}
