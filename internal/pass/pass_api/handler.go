package pass_api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"invitide/internal/logger"
	"invitide/internal/models"
	"invitide/internal/pass"
	"invitide/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Generator *pass.Generator
	Logger    *logger.Logger
}

func NewHandler(generator *pass.Generator, log *logger.Logger) *Handler {
	return &Handler{Generator: generator, Logger: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/passes", h.GeneratePass)
}

// RegisterLegacyRoutes mounts the unprefixed path older clients still call.
func (h *Handler) RegisterLegacyRoutes(r chi.Router) {
	r.Post("/generate-pass", h.GeneratePass)
}

func (h *Handler) GeneratePass(w http.ResponseWriter, r *http.Request) {
	var req models.PassRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("GeneratePass: invalid request: %v", err))
		utils.WriteError(w, "Missing event data", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("GeneratePass: event=%q", req.EventName))

	archive, err := h.Generator.Generate(req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GeneratePass: failed: %v", err))
		message := "Error generating pass"
		if errors.Is(err, models.ErrInvalidInput) {
			message = "Missing event data"
		}
		utils.WriteError(w, message, err)
		return
	}

	w.Header().Set("Content-Type", pass.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="event-pass.pkpass"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
