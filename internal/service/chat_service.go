package service

import (
	"context"
	"fmt"

	"github.com/kavya020805/NextChapter/internal/ai"
	"github.com/kavya020805/NextChapter/internal/models"
)

type ChatService struct {
	llm ai.ChatClient
}

func NewChatService(llm ai.ChatClient) *ChatService {
	return &ChatService{llm: llm}
}

// ReaderChat responde preguntas del lector con el contexto del libro y la
// página en la que va.
func (s *ChatService) ReaderChat(ctx context.Context, req models.ChatRequest) (string, error) {
	pages := ""
	if req.TotalPages > 0 {
		pages = fmt.Sprintf(" of %d", req.TotalPages)
	}

	system := fmt.Sprintf(`You are a helpful AI assistant for the book %q. `+
		`The user is currently on page %d%s. `+
		`Provide concise, relevant answers about the book's content, themes, characters, and context.`,
		req.BookTitle, req.CurrentPage, pages)

	return s.llm.Complete(ctx, system, req.Message, 0.7, 500)
}
