package event_api

import (
	"fmt"
	"net/http"

	"invitide/internal/auth"
	"invitide/internal/events"
	"invitide/internal/logger"
	"invitide/internal/models"
	"invitide/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	EventService *events.EventService
	Logger       *logger.Logger
}

func NewHandler(eventService *events.EventService, log *logger.Logger) *Handler {
	return &Handler{EventService: eventService, Logger: log}
}

// RegisterRoutes mounts the event endpoints. Reads are public, writes need an identity.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.With(auth.RequireIdentity).Post("/", h.CreateEvent)
		r.Get("/{eventId}", h.GetEvent)
		r.With(auth.RequireIdentity).Delete("/{eventId}", h.DeleteEvent)
	})
	r.With(auth.RequireIdentity).Get("/me/events", h.MyEvents)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	caller := auth.IdentityFrom(r.Context())

	var req models.CreateEventRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreateEvent: invalid request: %v", err))
		utils.WriteError(w, "Invalid event", err)
		return
	}

	event, err := h.EventService.Create(r.Context(), caller, req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: failed: %v", err))
		utils.WriteError(w, "Failed to create event", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateEvent: eventId=%s", event.ID))
	utils.WriteSuccess(w, http.StatusCreated, "Event created", event)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter := models.EventFilter{
		OwnerID: r.URL.Query().Get("host"),
		Query:   r.URL.Query().Get("q"),
	}
	h.Logger.Info("API", fmt.Sprintf("ListEvents: host=%q q=%q", filter.OwnerID, filter.Query))

	list, err := h.EventService.List(r.Context(), filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: failed: %v", err))
		utils.WriteError(w, "Failed to list events", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Events retrieved", list)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("GetEvent: eventId=%s", eventID))

	detail, err := h.EventService.Detail(r.Context(), auth.IdentityFrom(r.Context()), eventID)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("GetEvent: failed: %v", err))
		utils.WriteError(w, "Event not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event retrieved", detail)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("DeleteEvent: eventId=%s", eventID))

	if err := h.EventService.Delete(r.Context(), auth.IdentityFrom(r.Context()), eventID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteEvent: failed: %v", err))
		utils.WriteError(w, "Failed to delete event", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Event deleted", map[string]string{"id": eventID})
}

func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	mine, err := h.EventService.MyEvents(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyEvents: failed: %v", err))
		utils.WriteError(w, "Failed to load your events", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Events retrieved", mine)
}
