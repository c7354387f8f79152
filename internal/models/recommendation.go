package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Estrategias del cascade de recomendación.
const (
	StrategyVectorSearch = "vector_search"
	StrategyPreferences  = "preferences"
	StrategyPopular      = "popular"
	StrategyColdStart    = "cold_start"
)

// RecommendedBook is the reduced shape the frontend renders.
type RecommendedBook struct {
	BookID   string `json:"book_id" bson:"bookId"`
	Title    string `json:"title" bson:"title"`
	Author   string `json:"author" bson:"author"`
	CoverURL string `json:"cover_url" bson:"coverUrl"`
}

// RecommendationResponse is the wire format of /recommendations.
type RecommendationResponse struct {
	UserID     string            `json:"user_id"`
	Books      []RecommendedBook `json:"books"`
	Strategy   string            `json:"strategy"`
	IsFallback bool              `json:"is_fallback"`
}

// RecommendationLog guarda en Mongo cada respuesta servida (historial).
type RecommendationLog struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     string             `json:"userId" bson:"userId"`
	Strategy   string             `json:"strategy" bson:"strategy"`
	IsFallback bool               `json:"isFallback" bson:"isFallback"`
	Books      []RecommendedBook  `json:"books" bson:"books"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// ScoredBook is the ephemeral pairing of a history event with its love score.
type ScoredBook struct {
	BookID  string
	Score   float64
	Details BookDoc
}
