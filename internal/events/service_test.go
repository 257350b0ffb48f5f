package events_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"invitide/internal/events"
	"invitide/internal/logger"
	"invitide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventDBLayer is a mock implementation of the EventDBLayer interface
type MockEventDBLayer struct {
	mock.Mock
}

func (m *MockEventDBLayer) CreateEvent(ctx context.Context, event models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockEventDBLayer) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventDBLayer) ListEvents(ctx context.Context, ownerID string) ([]models.Event, error) {
	args := m.Called(ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventDBLayer) ListEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventDBLayer) AttendingEventIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockEventDBLayer) CountAttendees(ctx context.Context, eventID string) (int, error) {
	args := m.Called(eventID)
	return args.Int(0), args.Error(1)
}

func (m *MockEventDBLayer) IsAttending(ctx context.Context, eventID, userID string) (bool, error) {
	args := m.Called(eventID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventDBLayer) DeleteEventCascade(ctx context.Context, eventID string) (int64, error) {
	args := m.Called(eventID)
	return args.Get(0).(int64), args.Error(1)
}

type recordingPublisher struct {
	created []models.EventCreatedMessage
	deleted []models.EventDeletedMessage
	err     error
}

func (p *recordingPublisher) EventCreated(ctx context.Context, msg models.EventCreatedMessage) error {
	p.created = append(p.created, msg)
	return p.err
}

func (p *recordingPublisher) EventDeleted(ctx context.Context, msg models.EventDeletedMessage) error {
	p.deleted = append(p.deleted, msg)
	return p.err
}

func newService(db events.EventDBLayer, pub events.Publisher) *events.EventService {
	return events.NewEventService(db, pub, time.UTC, "https://invitide.app/", logger.Discard())
}

func TestCreateRequiresCaller(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	pub := &recordingPublisher{}
	svc := newService(mockDB, pub)

	_, err := svc.Create(context.Background(), nil, models.CreateEventRequest{Name: "Party", Date: "2025-07-04", Location: "Home"})

	assert.ErrorIs(t, err, models.ErrUnauthenticated)
	mockDB.AssertNotCalled(t, "CreateEvent", mock.Anything)
	assert.Empty(t, pub.created)
}

func TestCreateCombinesDateAndTime(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	pub := &recordingPublisher{}
	svc := newService(mockDB, pub)
	caller := &models.Identity{ID: "host"}

	mockDB.On("CreateEvent", mock.MatchedBy(func(e models.Event) bool {
		return e.Date.Equal(time.Date(2025, 7, 4, 19, 30, 0, 0, time.UTC)) && e.UserID == "host"
	})).Return(nil).Once()
	mockDB.On("CreateEvent", mock.MatchedBy(func(e models.Event) bool {
		return e.Date.Equal(time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC))
	})).Return(nil).Once()

	withTime, err := svc.Create(context.Background(), caller, models.CreateEventRequest{Name: "Dinner", Date: "2025-07-04", Time: "19:30", Location: "Home"})
	require.NoError(t, err)
	assert.NotEmpty(t, withTime.ID)

	midnight, err := svc.Create(context.Background(), caller, models.CreateEventRequest{Name: "Brunch", Date: "2025-07-04", Location: "Home"})
	require.NoError(t, err)
	assert.Equal(t, 0, midnight.Date.Hour())

	mockDB.AssertExpectations(t)
	require.Len(t, pub.created, 2)
	assert.Equal(t, withTime.ID, pub.created[0].EventID)
}

func TestCreateUsesConfiguredTimeZone(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*60*60)
	mockDB := new(MockEventDBLayer)
	mockDB.On("CreateEvent", mock.Anything).Return(nil)
	svc := events.NewEventService(mockDB, &recordingPublisher{}, loc, "", logger.Discard())

	event, err := svc.Create(context.Background(), &models.Identity{ID: "host"}, models.CreateEventRequest{Name: "Dinner", Date: "2025-07-04", Time: "18:00", Location: "Home"})
	require.NoError(t, err)
	assert.True(t, event.Date.Equal(time.Date(2025, 7, 5, 1, 0, 0, 0, time.UTC)))
}

func TestCreateValidation(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := newService(mockDB, &recordingPublisher{})
	caller := &models.Identity{ID: "host"}

	cases := []models.CreateEventRequest{
		{Date: "2025-07-04", Location: "Home"},
		{Name: "Party", Location: "Home"},
		{Name: "Party", Date: "2025-07-04"},
		{Name: "Party", Date: "07/04/2025", Location: "Home"},
		{Name: "Party", Date: "2025-07-04", Time: "7pm", Location: "Home"},
		{Name: "Party", Date: "2025-07-04", Location: "Home", ImageURL: "not a url"},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), caller, req)
		assert.ErrorIs(t, err, models.ErrInvalidInput, "%+v", req)
	}
	mockDB.AssertNotCalled(t, "CreateEvent", mock.Anything)
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	mockDB.On("CreateEvent", mock.Anything).Return(nil)
	svc := newService(mockDB, &recordingPublisher{err: errors.New("broker down")})

	_, err := svc.Create(context.Background(), &models.Identity{ID: "host"}, models.CreateEventRequest{Name: "Party", Date: "2025-07-04", Location: "Home"})
	assert.NoError(t, err)
}

func TestListFiltersCaseInsensitively(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	svc := newService(mockDB, &recordingPublisher{})

	all := []models.Event{
		{ID: "1", Name: "Beach Bonfire", Location: "Pier 7", UserID: "a"},
		{ID: "2", Name: "Book club", Description: "Bring snacks", Location: "Library", UserID: "a"},
		{ID: "3", Name: "Game night", Location: "Beach house", UserID: "b"},
	}
	mockDB.On("ListEvents", "").Return(all, nil)

	got, err := svc.List(context.Background(), models.EventFilter{Query: "BEACH"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.List(context.Background(), models.EventFilter{Query: "snack"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)

	got, err = svc.List(context.Background(), models.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestGetNotFound(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	mockDB.On("GetEventByID", "missing").Return(nil, sql.ErrNoRows)
	svc := newService(mockDB, &recordingPublisher{})

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteByNonOwnerIsForbidden(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	pub := &recordingPublisher{}
	mockDB.On("GetEventByID", "e1").Return(&models.Event{ID: "e1", UserID: "owner"}, nil)
	svc := newService(mockDB, pub)

	err := svc.Delete(context.Background(), &models.Identity{ID: "intruder"}, "e1")

	assert.ErrorIs(t, err, models.ErrForbidden)
	mockDB.AssertNotCalled(t, "DeleteEventCascade", mock.Anything)
	assert.Empty(t, pub.deleted)
}

func TestDeleteByOwner(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	pub := &recordingPublisher{}
	mockDB.On("GetEventByID", "e1").Return(&models.Event{ID: "e1", UserID: "owner"}, nil)
	mockDB.On("DeleteEventCascade", "e1").Return(int64(3), nil)
	svc := newService(mockDB, pub)

	require.NoError(t, svc.Delete(context.Background(), &models.Identity{ID: "owner"}, "e1"))
	require.Len(t, pub.deleted, 1)
	assert.Equal(t, "e1", pub.deleted[0].EventID)

	assert.ErrorIs(t, svc.Delete(context.Background(), nil, "e1"), models.ErrUnauthenticated)
}

func TestMyEventsFansOut(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	mockDB.On("ListEvents", "me").Return([]models.Event{{ID: "h1", UserID: "me"}}, nil)
	mockDB.On("AttendingEventIDs", "me").Return([]string{"a1", "a2"}, nil)
	mockDB.On("ListEventsByIDs", []string{"a1", "a2"}).Return([]models.Event{{ID: "a1"}, {ID: "a2"}}, nil)
	svc := newService(mockDB, &recordingPublisher{})

	mine, err := svc.MyEvents(context.Background(), &models.Identity{ID: "me"})
	require.NoError(t, err)
	assert.Len(t, mine.Hosted, 1)
	assert.Len(t, mine.Attending, 2)
}

func TestMyEventsPropagatesFailure(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	mockDB.On("ListEvents", "me").Return([]models.Event{}, nil)
	mockDB.On("AttendingEventIDs", "me").Return(nil, errors.New("connection reset"))
	svc := newService(mockDB, &recordingPublisher{})

	_, err := svc.MyEvents(context.Background(), &models.Identity{ID: "me"})
	assert.Error(t, err)
}

func TestDetailFlags(t *testing.T) {
	mockDB := new(MockEventDBLayer)
	event := &models.Event{ID: "e1", Name: "Beach Bonfire", UserID: "host", Host: &models.Profile{ID: "host", DisplayName: "Hannah"}}
	mockDB.On("GetEventByID", "e1").Return(event, nil)
	mockDB.On("CountAttendees", "e1").Return(4, nil)
	mockDB.On("IsAttending", "e1", "guest").Return(true, nil)
	mockDB.On("IsAttending", "e1", "host").Return(false, nil)
	svc := newService(mockDB, &recordingPublisher{})

	anon, err := svc.Detail(context.Background(), nil, "e1")
	require.NoError(t, err)
	assert.False(t, anon.IsHost)
	assert.False(t, anon.CanRSVP)
	assert.Equal(t, "Hannah", anon.HostName)
	assert.Equal(t, 4, anon.AttendeeCount)
	assert.Equal(t, "https://invitide.app/event/e1", anon.ShareURL)

	guest, err := svc.Detail(context.Background(), &models.Identity{ID: "guest"}, "e1")
	require.NoError(t, err)
	assert.True(t, guest.IsAttending)
	assert.True(t, guest.CanRSVP)

	host, err := svc.Detail(context.Background(), &models.Identity{ID: "host"}, "e1")
	require.NoError(t, err)
	assert.True(t, host.IsHost)
	assert.False(t, host.CanRSVP)
}
