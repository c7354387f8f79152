package models

import "time"

// HistoryEvent is one row of the unified reading history: user_books,
// book_ratings and book_wishlist merged per book, newest interaction first.
type HistoryEvent struct {
	BookID         string    `json:"bookId" bson:"_id"`
	ScrollDepth    float64   `json:"scrollDepth" bson:"scrollDepth"`       // 0..100
	Rating         float64   `json:"rating" bson:"rating"`                 // 0..5, 0 = sin calificar
	WasInWatchlist bool      `json:"wasInWatchlist" bson:"wasInWatchlist"`
	Timestamp      time.Time `json:"timestamp" bson:"ts"`
}

// UserProfileDoc lives in `user_profiles`. Owned by the user subsystem,
// read-only here except for the genre preferences endpoint.
type UserProfileDoc struct {
	UserID    string   `json:"userId" bson:"userId"`
	Genres    []string `json:"genres,omitempty" bson:"genres,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
