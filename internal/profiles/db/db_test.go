package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"invitide/internal/database/dbtest"
	"invitide/internal/models"
	"invitide/internal/profiles/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfileIfMissing(t *testing.T) {
	ctx := context.Background()
	profileDB := &db.DB{Bun: dbtest.New(t)}

	created, err := profileDB.CreateProfileIfMissing(ctx, models.Profile{ID: "u1", DisplayName: "Alice", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = profileDB.CreateProfileIfMissing(ctx, models.Profile{ID: "u1", DisplayName: "Someone Else", CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, created)

	profile, err := profileDB.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.DisplayName)

	_, err = profileDB.CreateProfileIfMissing(ctx, models.Profile{DisplayName: "No ID"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestGetProfilesByIDs(t *testing.T) {
	ctx := context.Background()
	profileDB := &db.DB{Bun: dbtest.New(t)}

	for _, p := range []models.Profile{
		{ID: "u1", DisplayName: "Alice", CreatedAt: time.Now()},
		{ID: "u2", DisplayName: "Bob", CreatedAt: time.Now()},
	} {
		_, err := profileDB.CreateProfileIfMissing(ctx, p)
		require.NoError(t, err)
	}

	profiles, err := profileDB.GetProfilesByIDs(ctx, []string{"u1", "u2", "missing"})
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	profiles, err = profileDB.GetProfilesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestUpdateDisplayName(t *testing.T) {
	ctx := context.Background()
	profileDB := &db.DB{Bun: dbtest.New(t)}

	_, err := profileDB.CreateProfileIfMissing(ctx, models.Profile{ID: "u1", DisplayName: "Alice", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, profileDB.UpdateDisplayName(ctx, "u1", "Alice Host"))
	profile, err := profileDB.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Host", profile.DisplayName)

	err = profileDB.UpdateDisplayName(ctx, "missing", "Nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = profileDB.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
