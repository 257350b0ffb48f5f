package rsvp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"invitide/internal/logger"
	"invitide/internal/models"
)

type AttendanceDBLayer interface {
	GetAttendance(ctx context.Context, eventID, userID string) (*models.Attendee, error)
	CreateAttendance(ctx context.Context, attendee models.Attendee) error
	DeleteAttendance(ctx context.Context, eventID, userID string) (bool, error)
	ListAttendees(ctx context.Context, eventID string) ([]models.Attendee, error)
	CheckIn(ctx context.Context, eventID, userID string, at time.Time) (*models.Attendee, bool, error)
	DeleteAttendeesByEvent(ctx context.Context, eventID string) (int64, error)
	DeleteOrphanedAttendees(ctx context.Context) (int64, error)
}

// EventReader loads an event, returning models.ErrNotFound when it is missing.
type EventReader interface {
	Get(ctx context.Context, id string) (*models.Event, error)
}

type ProfileReader interface {
	GetProfilesByIDs(ctx context.Context, ids []string) ([]models.Profile, error)
}

// PayloadDecoder opens the string scanned from a guest's QR code.
type PayloadDecoder interface {
	Decode(s string) (models.ScanPayload, error)
}

type Publisher interface {
	AttendanceChanged(ctx context.Context, msg models.AttendanceChangedMessage) error
	CheckedIn(ctx context.Context, msg models.CheckedInMessage) error
}

type RSVPService struct {
	DB        AttendanceDBLayer
	Events    EventReader
	Profiles  ProfileReader
	Decoder   PayloadDecoder
	Publisher Publisher
	Logger    *logger.Logger
	now       func() time.Time
}

func NewRSVPService(db AttendanceDBLayer, events EventReader, profiles ProfileReader, decoder PayloadDecoder, publisher Publisher, log *logger.Logger) *RSVPService {
	return &RSVPService{
		DB:        db,
		Events:    events,
		Profiles:  profiles,
		Decoder:   decoder,
		Publisher: publisher,
		Logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Status reports whether caller currently attends eventID.
func (s *RSVPService) Status(ctx context.Context, caller *models.Identity, eventID string) (*models.RSVPStatus, error) {
	if caller == nil {
		return nil, models.ErrUnauthenticated
	}
	if _, err := s.Events.Get(ctx, eventID); err != nil {
		return nil, err
	}

	state, err := s.state(ctx, eventID, caller.ID)
	if err != nil {
		return nil, err
	}
	return &models.RSVPStatus{EventID: eventID, State: state}, nil
}

// Toggle flips caller's attendance: an existing relation is removed, a missing
// one is created. The host cannot RSVP to their own event.
func (s *RSVPService) Toggle(ctx context.Context, caller *models.Identity, eventID string) (*models.RSVPStatus, error) {
	if caller == nil {
		return nil, fmt.Errorf("rsvp to event %s: %w", eventID, models.ErrUnauthenticated)
	}

	event, err := s.Events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.IsOwnedBy(caller) {
		return nil, fmt.Errorf("the host cannot rsvp to event %s: %w", eventID, models.ErrForbidden)
	}

	current, err := s.state(ctx, eventID, caller.ID)
	if err != nil {
		return nil, err
	}

	next := models.Attending
	if current == models.Attending {
		next = models.NotAttending
		if _, err := s.DB.DeleteAttendance(ctx, eventID, caller.ID); err != nil {
			return nil, fmt.Errorf("failed to cancel rsvp: %w", err)
		}
		s.Logger.LogRSVP("CANCEL", eventID, caller.ID)
	} else {
		err := s.DB.CreateAttendance(ctx, models.Attendee{
			EventID:   eventID,
			UserID:    caller.ID,
			CreatedAt: s.now(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to rsvp: %w", err)
		}
		s.Logger.LogRSVP("ATTEND", eventID, caller.ID)
	}

	if err := s.Publisher.AttendanceChanged(ctx, models.AttendanceChangedMessage{
		EventID:   eventID,
		UserID:    caller.ID,
		State:     next,
		Timestamp: s.now(),
	}); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish attendance change for %s: %v", eventID, err))
	}

	return &models.RSVPStatus{EventID: eventID, State: next}, nil
}

// ListAttendees returns the host's roster. Attendees without a profile are left out.
func (s *RSVPService) ListAttendees(ctx context.Context, caller *models.Identity, eventID string) ([]models.AttendeeView, error) {
	if _, err := s.requireHost(ctx, caller, eventID); err != nil {
		return nil, err
	}

	attendees, err := s.DB.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendees for %s: %w", eventID, err)
	}
	if len(attendees) == 0 {
		return []models.AttendeeView{}, nil
	}

	ids := make([]string, 0, len(attendees))
	for _, a := range attendees {
		ids = append(ids, a.UserID)
	}
	profiles, err := s.Profiles.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendee profiles for %s: %w", eventID, err)
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.DisplayName
	}

	roster := make([]models.AttendeeView, 0, len(attendees))
	for _, a := range attendees {
		name, ok := names[a.UserID]
		if !ok {
			s.Logger.Warn("RSVP", fmt.Sprintf("Attendee %s of event %s has no profile, omitted", a.UserID, eventID))
			continue
		}
		roster = append(roster, models.AttendeeView{
			UserID:      a.UserID,
			DisplayName: name,
			RSVPAt:      a.CreatedAt,
			CheckedIn:   a.CheckedIn,
			CheckedInAt: a.CheckedInAt,
		})
	}
	return roster, nil
}

// CheckIn admits the guest encoded in payload. A payload that does not decode,
// or that names the host, is rejected before anything is written.
func (s *RSVPService) CheckIn(ctx context.Context, caller *models.Identity, eventID, payload string) (*models.CheckInResult, error) {
	event, err := s.requireHost(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}

	scanned, err := s.Decoder.Decode(payload)
	if err != nil {
		s.Logger.LogSecurity("CHECKIN_REJECTED", fmt.Sprintf("event=%s: %v", eventID, err))
		return nil, fmt.Errorf("unreadable check-in code: %w", models.ErrInvalidInput)
	}
	if scanned.UserID == event.UserID {
		return nil, fmt.Errorf("the host cannot check in to event %s: %w", eventID, models.ErrForbidden)
	}

	profiles, err := s.Profiles.GetProfilesByIDs(ctx, []string{scanned.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to load guest profile: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("guest %s has no profile: %w", scanned.UserID, models.ErrNotFound)
	}

	attendee, already, err := s.DB.CheckIn(ctx, eventID, scanned.UserID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to check in %s: %w", scanned.UserID, err)
	}

	result := &models.CheckInResult{
		Attendee:         *attendee,
		DisplayName:      profiles[0].DisplayName,
		AlreadyCheckedIn: already,
	}
	if already {
		s.Logger.LogRSVP("CHECKIN_REPEAT", eventID, scanned.UserID)
		return result, nil
	}

	s.Logger.LogRSVP("CHECKIN", eventID, scanned.UserID)
	if err := s.Publisher.CheckedIn(ctx, models.CheckedInMessage{
		EventID:   eventID,
		UserID:    scanned.UserID,
		HostID:    event.UserID,
		Timestamp: s.now(),
	}); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish check-in for %s: %v", eventID, err))
	}
	return result, nil
}

// SweepEvent removes every relation of a deleted event. Safe to repeat.
func (s *RSVPService) SweepEvent(ctx context.Context, eventID string) (int64, error) {
	n, err := s.DB.DeleteAttendeesByEvent(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep attendees of %s: %w", eventID, err)
	}
	if n > 0 {
		s.Logger.Info("RSVP", fmt.Sprintf("Swept %d relations of deleted event %s", n, eventID))
	}
	return n, nil
}

// SweepOrphans removes relations whose event no longer exists.
func (s *RSVPService) SweepOrphans(ctx context.Context) (int64, error) {
	n, err := s.DB.DeleteOrphanedAttendees(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep orphaned attendees: %w", err)
	}
	if n > 0 {
		s.Logger.Info("RSVP", fmt.Sprintf("Swept %d orphaned attendance relations", n))
	}
	return n, nil
}

func (s *RSVPService) requireHost(ctx context.Context, caller *models.Identity, eventID string) (*models.Event, error) {
	if caller == nil {
		return nil, models.ErrUnauthenticated
	}
	event, err := s.Events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsOwnedBy(caller) {
		s.Logger.LogSecurity("HOST_ONLY", fmt.Sprintf("%s is not the host of %s", caller.ID, eventID))
		return nil, fmt.Errorf("only the host can manage attendees of %s: %w", eventID, models.ErrForbidden)
	}
	return event, nil
}

func (s *RSVPService) state(ctx context.Context, eventID, userID string) (models.AttendanceState, error) {
	_, err := s.DB.GetAttendance(ctx, eventID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NotAttending, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load attendance: %w", err)
	}
	return models.Attending, nil
}
