package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/kavya020805/NextChapter/internal/models"
	"github.com/kavya020805/NextChapter/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type RecommendHandler struct {
	svc *service.RecommendService
}

func NewRecommendHandler(s *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{svc: s}
}

// writeRecommendError mapea los sentinels del engine a status HTTP.
func writeRecommendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidUserID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrNoCandidates):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "An internal server error occurred.", http.StatusInternalServerError)
	}
}

// @Summary Recomendaciones para un usuario
// @Tags recommend
// @Produce json
// @Param user_id path string true "userId"
// @Param refresh query bool false "si true, ignora cache Redis"
// @Success 200 {object} models.RecommendationResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /recommendations/{user_id} [get]
func (h *RecommendHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	resp, err := h.svc.Recommend(r.Context(), service.RecRequest{
		UserID:  chi.URLParam(r, "user_id"),
		Refresh: r.URL.Query().Get("refresh") == "true",
	})
	if err != nil {
		writeRecommendError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}

type recommendationRequest struct {
	UserID string `json:"user_id"`
}

// @Summary Recomendaciones para un usuario (POST)
// @Tags recommend
// @Accept json
// @Produce json
// @Param body body recommendationRequest true "usuario"
// @Success 200 {object} models.RecommendationResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /recommendations [post]
func (h *RecommendHandler) PostRecommendations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.svc.Recommend(r.Context(), service.RecRequest{
		UserID:  req.UserID,
		Refresh: r.URL.Query().Get("refresh") == "true",
	})
	if err != nil {
		writeRecommendError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// @Summary Historial de recomendaciones servidas al usuario autenticado
// @Tags recommend
// @Produce json
// @Param limit query int false "máximo de entradas (default 10)"
// @Success 200 {array} models.RecommendationLog
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /me/recommendations [get]
func (h *RecommendHandler) GetMyRecommendations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	limit := int64(10)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.svc.ServedHistory(r.Context(), UserIDFromContext(r.Context()), limit)
	if err != nil {
		writeRecommendError(w, err)
		return
	}
	if entries == nil {
		entries = []models.RecommendationLog{}
	}
	_ = json.NewEncoder(w).Encode(entries)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary Recomendaciones con progreso (WebSocket)
// @Tags recommend
// @Produce json
// @Param user_id path string true "userId"
// @Param refresh query bool false "si true, ignora cache Redis"
// @Success 200 {object} map[string]interface{}
// @Router /ws/recommendations/{user_id} [get]
func (h *RecommendHandler) GetRecommendationsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "No se pudo abrir WebSocket", http.StatusBadRequest)
		return
	}
	defer conn.Close()

	userID := chi.URLParam(r, "user_id")
	refresh := r.URL.Query().Get("refresh") == "true"

	conn.WriteJSON(map[string]any{
		"type": "start",
		"msg":  "Conexión WS abierta, corriendo cascade…",
	})

	resp, err := h.svc.Recommend(r.Context(), service.RecRequest{
		UserID:  userID,
		Refresh: refresh,
		OnStage: func(stage string) {
			// una notificación por etapa real del cascade
			conn.WriteJSON(map[string]any{
				"type":  "stage",
				"stage": stage,
			})
		},
	})
	if err != nil {
		conn.WriteJSON(map[string]any{
			"type":  "error",
			"error": err.Error(),
		})
		return
	}

	conn.WriteJSON(map[string]any{
		"type":     "recommendations",
		"user_id":  resp.UserID,
		"strategy": resp.Strategy,
		"payload":  resp,
	})
}
