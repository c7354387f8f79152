package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kavya020805/NextChapter/internal/service"
)

type ProfileHandler struct {
	svc *service.ProfileService
}

func NewProfileHandler(s *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: s}
}

// @Summary Perfil del usuario autenticado
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.UserProfileDoc
// @Router /me/profile [get]
func (h *ProfileHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID := UserIDFromContext(r.Context())
	p, err := h.svc.GetProfile(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(p)
}

type updateGenresRequest struct {
	Genres []string `json:"genres"`
}

// @Summary Actualizar géneros preferidos
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body updateGenresRequest true "géneros"
// @Success 200 {object} map[string]any
// @Router /me/profile [put]
func (h *ProfileHandler) UpdateMyGenres(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req updateGenresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := UserIDFromContext(r.Context())
	if err := h.svc.UpdateGenres(r.Context(), userID, req.Genres); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"updated": true})
}
