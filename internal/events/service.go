package events

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
	"golang.org/x/sync/errgroup"
)

type EventDBLayer interface {
	CreateEvent(ctx context.Context, event models.Event) error
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context, ownerID string) ([]models.Event, error)
	ListEventsByIDs(ctx context.Context, ids []string) ([]models.Event, error)
	AttendingEventIDs(ctx context.Context, userID string) ([]string, error)
	CountAttendees(ctx context.Context, eventID string) (int, error)
	IsAttending(ctx context.Context, eventID, userID string) (bool, error)
	DeleteEventCascade(ctx context.Context, eventID string) (int64, error)
}

// Publisher announces event lifecycle changes.
type Publisher interface {
	EventCreated(ctx context.Context, msg models.EventCreatedMessage) error
	EventDeleted(ctx context.Context, msg models.EventDeletedMessage) error
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type EventService struct {
	DB            EventDBLayer
	Publisher     Publisher
	Location      *time.Location
	PublicBaseURL string
	Logger        *logger.Logger
}

func NewEventService(db EventDBLayer, publisher Publisher, loc *time.Location, publicBaseURL string, log *logger.Logger) *EventService {
	if loc == nil {
		loc = time.UTC
	}
	return &EventService{
		DB:            db,
		Publisher:     publisher,
		Location:      loc,
		PublicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		Logger:        log,
	}
}

// Create stores a new event owned by caller. Nothing is written without a caller.
func (s *EventService) Create(ctx context.Context, caller *models.Identity, req models.CreateEventRequest) (*models.Event, error) {
	if caller == nil {
		return nil, fmt.Errorf("creating an event: %w", models.ErrUnauthenticated)
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	when, err := s.combineDateTime(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	event := models.Event{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Date:        when,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		UserID:      caller.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.DB.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.Logger.LogEvent("CREATE", event.ID, fmt.Sprintf("%q by %s", event.Name, caller.ID))

	if err := s.Publisher.EventCreated(ctx, models.EventCreatedMessage{
		EventID:   event.ID,
		OwnerID:   event.UserID,
		Name:      event.Name,
		Date:      event.Date,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish event created for %s: %v", event.ID, err))
	}

	return &event, nil
}

// combineDateTime joins a YYYY-MM-DD date and optional HH:MM time into one
// instant in the service time zone. A missing time means midnight.
func (s *EventService) combineDateTime(date, clock string) (time.Time, error) {
	if clock == "" {
		clock = "00:00"
	}
	when, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, s.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or time %q %q: %w", date, clock, models.ErrInvalidInput)
	}
	return when, nil
}

// List returns every event matching filter. The query is applied as a
// case-insensitive substring match over name, description and location.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	all, err := s.DB.ListEvents(ctx, filter.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(filter.Query))
	if q == "" {
		return all, nil
	}

	matched := make([]models.Event, 0, len(all))
	for _, e := range all {
		if matches(e, q) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func matches(e models.Event, q string) bool {
	for _, field := range []string{e.Name, e.Description, e.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.DB.GetEventByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s not found: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event %s: %w", id, err)
	}
	return event, nil
}

// Delete removes the event and its attendance relations. Only the owner may delete.
func (s *EventService) Delete(ctx context.Context, caller *models.Identity, id string) error {
	if caller == nil {
		return fmt.Errorf("deleting event %s: %w", id, models.ErrUnauthenticated)
	}

	event, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !event.IsOwnedBy(caller) {
		s.Logger.LogSecurity("DELETE_DENIED", fmt.Sprintf("%s tried to delete event %s owned by %s", caller.ID, id, event.UserID))
		return fmt.Errorf("only the host can delete event %s: %w", id, models.ErrForbidden)
	}

	removed, err := s.DB.DeleteEventCascade(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("event %s not found: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	s.Logger.LogEvent("DELETE", id, fmt.Sprintf("removed with %d attendance relations", removed))

	if err := s.Publisher.EventDeleted(ctx, models.EventDeletedMessage{
		EventID:   id,
		OwnerID:   event.UserID,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish event deleted for %s: %v", id, err))
	}
	return nil
}

// MyEvents loads the hosted and attending lists concurrently.
func (s *EventService) MyEvents(ctx context.Context, caller *models.Identity) (*models.MyEvents, error) {
	if caller == nil {
		return nil, models.ErrUnauthenticated
	}

	var hosted, attending []models.Event
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := s.DB.ListEvents(gctx, caller.ID)
		if err != nil {
			return fmt.Errorf("failed to load hosted events: %w", err)
		}
		hosted = events
		return nil
	})

	g.Go(func() error {
		ids, err := s.DB.AttendingEventIDs(gctx, caller.ID)
		if err != nil {
			return fmt.Errorf("failed to load attendance: %w", err)
		}
		events, err := s.DB.ListEventsByIDs(gctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load attending events: %w", err)
		}
		attending = events
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &models.MyEvents{Hosted: hosted, Attending: attending}, nil
}

// Detail builds the event page for viewer, who may be nil.
func (s *EventService) Detail(ctx context.Context, viewer *models.Identity, id string) (*models.EventDetail, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.DB.CountAttendees(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendees for %s: %w", id, err)
	}

	detail := &models.EventDetail{
		Event:         *event,
		HostName:      event.HostName(),
		IsHost:        event.IsOwnedBy(viewer),
		AttendeeCount: count,
		ShareURL:      s.ShareURL(id),
	}
	if viewer != nil {
		attending, err := s.DB.IsAttending(ctx, id, viewer.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load attendance for %s: %w", id, err)
		}
		detail.IsAttending = attending
		detail.CanRSVP = !detail.IsHost
	}
	return detail, nil
}

func (s *EventService) ShareURL(id string) string {
	return fmt.Sprintf("%s/event/%s", s.PublicBaseURL, id)
}
