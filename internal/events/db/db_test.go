package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"invitide/internal/database/dbtest"
	"invitide/internal/events/db"
	"invitide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func seed(t *testing.T, bunDB *bun.DB) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	profiles := []models.Profile{
		{ID: "host", DisplayName: "Hosting Hannah", CreatedAt: now},
		{ID: "guest", DisplayName: "Guest Gary", CreatedAt: now},
	}
	_, err := bunDB.NewInsert().Model(&profiles).Exec(ctx)
	require.NoError(t, err)

	events := []models.Event{
		{ID: "e2", Name: "Later", Date: now.Add(48 * time.Hour), Location: "Hall", UserID: "host", CreatedAt: now},
		{ID: "e1", Name: "Sooner", Date: now.Add(24 * time.Hour), Location: "Park", UserID: "host", CreatedAt: now},
		{ID: "e3", Name: "Orphan host", Date: now.Add(72 * time.Hour), Location: "Dock", UserID: "ghost", CreatedAt: now},
	}
	_, err = bunDB.NewInsert().Model(&events).Exec(ctx)
	require.NoError(t, err)

	attendees := []models.Attendee{
		{EventID: "e1", UserID: "guest", CreatedAt: now},
		{EventID: "e3", UserID: "guest", CreatedAt: now},
		{EventID: "e1", UserID: "host-friend", CreatedAt: now},
	}
	_, err = bunDB.NewInsert().Model(&attendees).Exec(ctx)
	require.NoError(t, err)
}

func TestGetEventByIDJoinsHost(t *testing.T) {
	ctx := context.Background()
	bunDB := dbtest.New(t)
	seed(t, bunDB)
	eventDB := &db.DB{Bun: bunDB}

	event, err := eventDB.GetEventByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Sooner", event.Name)
	assert.Equal(t, "Hosting Hannah", event.HostName())

	orphan, err := eventDB.GetEventByID(ctx, "e3")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", orphan.HostName())

	_, err = eventDB.GetEventByID(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateEventRejectsOwnerless(t *testing.T) {
	eventDB := &db.DB{Bun: dbtest.New(t)}

	err := eventDB.CreateEvent(context.Background(), models.Event{ID: "e1", Name: "No owner", Date: time.Now()})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestListEventsOrderedByDate(t *testing.T) {
	ctx := context.Background()
	bunDB := dbtest.New(t)
	seed(t, bunDB)
	eventDB := &db.DB{Bun: bunDB}

	all, err := eventDB.ListEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, []string{all[0].ID, all[1].ID, all[2].ID})

	hosted, err := eventDB.ListEvents(ctx, "host")
	require.NoError(t, err)
	assert.Len(t, hosted, 2)

	byIDs, err := eventDB.ListEventsByIDs(ctx, []string{"e3", "e1"})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, "e1", byIDs[0].ID)

	none, err := eventDB.ListEventsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAttendanceReads(t *testing.T) {
	ctx := context.Background()
	bunDB := dbtest.New(t)
	seed(t, bunDB)
	eventDB := &db.DB{Bun: bunDB}

	ids, err := eventDB.AttendingEventIDs(ctx, "guest")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"e1", "e3"}, ids)

	count, err := eventDB.CountAttendees(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	attending, err := eventDB.IsAttending(ctx, "e1", "guest")
	require.NoError(t, err)
	assert.True(t, attending)

	attending, err = eventDB.IsAttending(ctx, "e2", "guest")
	require.NoError(t, err)
	assert.False(t, attending)
}

func TestDeleteEventCascade(t *testing.T) {
	ctx := context.Background()
	bunDB := dbtest.New(t)
	seed(t, bunDB)
	eventDB := &db.DB{Bun: bunDB}

	removed, err := eventDB.DeleteEventCascade(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = eventDB.GetEventByID(ctx, "e1")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	count, err := eventDB.CountAttendees(ctx, "e1")
	require.NoError(t, err)
	assert.Zero(t, count)

	// other events keep their relations
	count, err = eventDB.CountAttendees(ctx, "e3")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteEventCascadeMissingRollsBack(t *testing.T) {
	ctx := context.Background()
	bunDB := dbtest.New(t)
	seed(t, bunDB)
	eventDB := &db.DB{Bun: bunDB}

	// relations pointing at an event that does not exist survive a failed delete
	_, err := bunDB.NewInsert().Model(&models.Attendee{EventID: "gone", UserID: "guest", CreatedAt: time.Now()}).Exec(ctx)
	require.NoError(t, err)

	_, err = eventDB.DeleteEventCascade(ctx, "gone")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	count, err := eventDB.CountAttendees(ctx, "gone")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
