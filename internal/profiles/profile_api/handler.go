package profile_api

import (
	"fmt"
	"net/http"
	"strconv"

	"invitide/internal/auth"
	"invitide/internal/logger"
	"invitide/internal/models"
	"invitide/internal/profiles"
	"invitide/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ProfileService *profiles.ProfileService
	Logger         *logger.Logger
}

func NewHandler(profileService *profiles.ProfileService, log *logger.Logger) *Handler {
	return &Handler{ProfileService: profileService, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Use(auth.RequireIdentity)
		r.Get("/", h.GetProfile)
		r.Put("/", h.UpdateProfile)
		r.Get("/qr", h.GetQRCode)
	})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.ProfileService.Get(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("GetProfile: failed: %v", err))
		utils.WriteError(w, "Profile not available", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Profile retrieved", profile)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller := auth.IdentityFrom(r.Context())

	var req models.UpdateProfileRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("UpdateProfile: invalid request: %v", err))
		utils.WriteError(w, "Invalid profile", err)
		return
	}

	profile, err := h.ProfileService.UpdateDisplayName(r.Context(), caller, req.DisplayName)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateProfile: failed: %v", err))
		utils.WriteError(w, "Failed to update profile", err)
		return
	}

	h.Logger.Info("API", fmt.Sprintf("UpdateProfile: userId=%s", caller.ID))
	utils.WriteSuccess(w, http.StatusOK, "Profile updated", profile)
}

// GetQRCode serves the caller's check-in code as a PNG image.
func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.ProfileService.QRCode(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetQRCode: failed: %v", err))
		utils.WriteError(w, "Failed to generate QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
