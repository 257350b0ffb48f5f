package models

import "time"

// Messages published on the domain topics.

type EventCreatedMessage struct {
	EventID   string    `json:"eventId"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

type EventDeletedMessage struct {
	EventID   string    `json:"eventId"`
	OwnerID   string    `json:"ownerId"`
	Timestamp time.Time `json:"timestamp"`
}

type AttendanceChangedMessage struct {
	EventID   string          `json:"eventId"`
	UserID    string          `json:"userId"`
	State     AttendanceState `json:"state"`
	Timestamp time.Time       `json:"timestamp"`
}

type CheckedInMessage struct {
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	HostID    string    `json:"hostId"`
	Timestamp time.Time `json:"timestamp"`
}

// PassRequest is the body of the wallet pass endpoint.
type PassRequest struct {
	EventName     string `json:"eventName" validate:"required"`
	EventDate     string `json:"eventDate" validate:"required"`
	EventLocation string `json:"eventLocation" validate:"required"`
}
