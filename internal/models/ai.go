package models

// ----- MODERATION -----

type CommentRequest struct {
	Text string `json:"text"`
}

type ModerationResult struct {
	IsAppropriate bool     `json:"is_appropriate"`
	Message       string   `json:"message"`
	Reasons       []string `json:"reasons"`
}

// ----- READER CHAT -----

type ChatRequest struct {
	Message     string `json:"message"`
	BookTitle   string `json:"book_title"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// ----- SCENE VISUALIZATION -----

type VisualizeRequest struct {
	Prompt string `json:"prompt"`
}

type VisualizeResponse struct {
	ImageURL string `json:"image_url"`
}
