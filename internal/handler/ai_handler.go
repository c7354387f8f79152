package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kavya020805/NextChapter/internal/ai"
	"github.com/kavya020805/NextChapter/internal/models"
	"github.com/kavya020805/NextChapter/internal/service"
)

type AIHandler struct {
	moderation *service.ModerationService
	chat       *service.ChatService
}

func NewAIHandler(m *service.ModerationService, c *service.ChatService) *AIHandler {
	return &AIHandler{moderation: m, chat: c}
}

// @Summary Moderar un comentario
// @Tags ai
// @Accept json
// @Produce json
// @Param body body models.CommentRequest true "comentario"
// @Success 200 {object} models.ModerationResult
// @Router /api/moderate [post]
func (h *AIHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.moderation.Moderate(r.Context(), req.Text)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(result)
}

// @Summary Chat del lector
// @Tags ai
// @Accept json
// @Produce json
// @Param body body models.ChatRequest true "mensaje y contexto del libro"
// @Success 200 {object} models.ChatResponse
// @Router /api/chat [post]
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	answer, err := h.chat.ReaderChat(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(models.ChatResponse{Response: answer})
}

// @Summary URL de imagen para una escena
// @Tags ai
// @Accept json
// @Produce json
// @Param body body models.VisualizeRequest true "prompt de la escena"
// @Success 200 {object} models.VisualizeResponse
// @Router /api/visualize [post]
func (h *AIHandler) Visualize(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req models.VisualizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		http.Error(w, "missing prompt", http.StatusBadRequest)
		return
	}

	_ = json.NewEncoder(w).Encode(models.VisualizeResponse{
		ImageURL: ai.SceneImageURL(req.Prompt),
	})
}
