package service

import (
	"context"
	"strings"

	"github.com/kavya020805/NextChapter/internal/ai"
	"github.com/kavya020805/NextChapter/internal/models"
)

// Protocolo estricto con el modelo: responde APPROVED o
// "REJECTED: <razones separadas por coma>", nada más.
const moderationSystemPrompt = `
You are a STRICT content moderation engine.

You must output EXACTLY one of the following:

APPROVED

or

REJECTED: <comma-separated reasons>

Reject ANY content with:
- insults (idiot, stupid, dumb, moron, loser, trash, etc.)
- harassment, threats, bullying
- hate speech or discrimination
- explicit or sexual content
- violence or physical harm
- self-harm or suicide talk
- illegal activity
- profanity, rude or abusive language
- harmful opinions that attack people
`

type ModerationService struct {
	llm ai.ChatClient
}

func NewModerationService(llm ai.ChatClient) *ModerationService {
	return &ModerationService{llm: llm}
}

// Moderate clasifica un comentario con una sola llamada al LLM.
// Salida inesperada del modelo se rechaza como "unclassified".
func (s *ModerationService) Moderate(ctx context.Context, text string) (*models.ModerationResult, error) {
	raw, err := s.llm.Complete(ctx, moderationSystemPrompt, text, 0, 30)
	if err != nil {
		return nil, err
	}
	return ParseModeration(raw), nil
}

// ParseModeration interpreta la salida cruda del modelo.
func ParseModeration(raw string) *models.ModerationResult {
	result := strings.TrimSpace(raw)

	if result == "APPROVED" {
		return &models.ModerationResult{
			IsAppropriate: true,
			Message:       "Comment allowed",
			Reasons:       []string{},
		}
	}

	if rest, ok := strings.CutPrefix(result, "REJECTED:"); ok {
		var reasons []string
		for _, r := range strings.Split(rest, ",") {
			if r = strings.TrimSpace(r); r != "" {
				reasons = append(reasons, r)
			}
		}
		return &models.ModerationResult{
			IsAppropriate: false,
			Message:       "Comment rejected",
			Reasons:       reasons,
		}
	}

	return &models.ModerationResult{
		IsAppropriate: false,
		Message:       "Comment rejected (unexpected model output)",
		Reasons:       []string{"unclassified"},
	}
}
