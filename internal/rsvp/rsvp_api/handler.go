package rsvp_api

import (
	"fmt"
	"net/http"

	"invitide/internal/auth"
	"invitide/internal/logger"
	"invitide/internal/models"
	"invitide/internal/rsvp"
	"invitide/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	RSVPService *rsvp.RSVPService
	Logger      *logger.Logger
}

func NewHandler(rsvpService *rsvp.RSVPService, log *logger.Logger) *Handler {
	return &Handler{RSVPService: rsvpService, Logger: log}
}

// RegisterRoutes mounts the attendance endpoints. All of them need an identity.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireIdentity)
		r.Get("/events/{eventId}/rsvp", h.Status)
		r.Post("/events/{eventId}/rsvp", h.Toggle)
		r.Get("/events/{eventId}/attendees", h.ListAttendees)
		r.Post("/events/{eventId}/checkin", h.CheckIn)
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")

	status, err := h.RSVPService.Status(r.Context(), auth.IdentityFrom(r.Context()), eventID)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("RSVPStatus: eventId=%s failed: %v", eventID, err))
		utils.WriteError(w, "Failed to load RSVP status", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "RSVP status retrieved", status)
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("ToggleRSVP: eventId=%s", eventID))

	status, err := h.RSVPService.Toggle(r.Context(), auth.IdentityFrom(r.Context()), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ToggleRSVP: failed: %v", err))
		utils.WriteError(w, "Failed to update RSVP", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "RSVP updated", status)
}

func (h *Handler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("ListAttendees: eventId=%s", eventID))

	roster, err := h.RSVPService.ListAttendees(r.Context(), auth.IdentityFrom(r.Context()), eventID)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("ListAttendees: failed: %v", err))
		utils.WriteError(w, "Failed to list attendees", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Attendees retrieved", roster)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("CheckIn: eventId=%s", eventID))

	var req models.CheckInRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid check-in request", err)
		return
	}

	result, err := h.RSVPService.CheckIn(r.Context(), auth.IdentityFrom(r.Context()), eventID, req.Payload)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckIn: failed: %v", err))
		utils.WriteError(w, "Check-in failed", err)
		return
	}

	message := "Guest checked in"
	if result.AlreadyCheckedIn {
		message = "Guest was already checked in"
	}
	utils.WriteSuccess(w, http.StatusOK, message, result)
}
