package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Description string    `bun:"description" json:"description"`
	Date        time.Time `bun:"date,notnull" json:"date"`
	Location    string    `bun:"location,notnull" json:"location"`
	ImageURL    string    `bun:"image_url" json:"imageUrl"`
	UserID      string    `bun:"user_id,notnull" json:"userId"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`

	Host *Profile `bun:"rel:belongs-to,join:user_id=id" json:"host,omitempty"`
}

// Validate rejects rows that cannot satisfy the single-owner invariant.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event record without id: %w", ErrInvalidInput)
	}
	if e.UserID == "" {
		return fmt.Errorf("event %s has no owner: %w", e.ID, ErrInvalidInput)
	}
	return nil
}

// HostName is the owner's display name, "anonymous" when the profile is missing.
func (e *Event) HostName() string {
	if e.Host == nil || e.Host.DisplayName == "" {
		return "anonymous"
	}
	return e.Host.DisplayName
}

// IsOwnedBy reports whether id is the event owner.
func (e *Event) IsOwnedBy(id *Identity) bool {
	return id != nil && id.ID == e.UserID
}

// CreateEventRequest is the body of the event creation form.
type CreateEventRequest struct {
	Name        string `json:"name" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time,omitempty"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// EventFilter narrows a listing. Both fields are optional.
type EventFilter struct {
	OwnerID string
	Query   string
}

// MyEvents groups the events a user hosts and the ones they attend.
type MyEvents struct {
	Hosted    []Event `json:"hosted"`
	Attending []Event `json:"attending"`
}

// EventDetail is the view model of the event page.
type EventDetail struct {
	Event         Event  `json:"event"`
	HostName      string `json:"hostName"`
	IsHost        bool   `json:"isHost"`
	IsAttending   bool   `json:"isAttending"`
	CanRSVP       bool   `json:"canRsvp"`
	AttendeeCount int    `json:"attendeeCount"`
	ShareURL      string `json:"shareUrl"`
}
