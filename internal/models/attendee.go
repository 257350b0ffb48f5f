package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type AttendanceState string

const (
	NotAttending AttendanceState = "NOT_ATTENDING"
	Attending    AttendanceState = "ATTENDING"
)

// Attendee is the attendance relation. The composite key keeps one row per pair.
type Attendee struct {
	bun.BaseModel `bun:"table:event_attendees"`

	EventID     string    `bun:"event_id,pk" json:"eventId"`
	UserID      string    `bun:"user_id,pk" json:"userId"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
	CheckedIn   bool      `bun:"checked_in,notnull,default:false" json:"checkedIn"`
	CheckedInAt time.Time `bun:"checked_in_at,nullzero" json:"checkedInAt,omitempty"`
}

func (a *Attendee) Validate() error {
	if a.EventID == "" || a.UserID == "" {
		return fmt.Errorf("attendance record missing event or user id: %w", ErrInvalidInput)
	}
	return nil
}

// AttendeeView is one roster line shown to the host.
type AttendeeView struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	RSVPAt      time.Time `json:"rsvpAt"`
	CheckedIn   bool      `json:"checkedIn"`
	CheckedInAt time.Time `json:"checkedInAt,omitempty"`
}

type RSVPStatus struct {
	EventID string          `json:"eventId"`
	State   AttendanceState `json:"state"`
}

// CheckInRequest carries the string decoded from a guest's QR code.
type CheckInRequest struct {
	Payload string `json:"payload" validate:"required"`
}

type CheckInResult struct {
	Attendee         Attendee `json:"attendee"`
	DisplayName      string   `json:"displayName"`
	AlreadyCheckedIn bool     `json:"alreadyCheckedIn"`
}

// ScanPayload is the JSON carried inside an identity QR code.
type ScanPayload struct {
	UserID   string    `json:"userId,omitempty"`
	IssuedAt time.Time `json:"issuedAt"`
}
