package models

// BookDoc mirrors the documents in the `books` collection.
// IDs are the same strings that index the vectors in book_embeddings.
type BookDoc struct {
	ID       string   `json:"id" bson:"_id"`
	Title    string   `json:"title" bson:"title"`
	Author   string   `json:"author,omitempty" bson:"author,omitempty"`
	Genre    string   `json:"genre,omitempty" bson:"genre,omitempty"`
	Genres   []string `json:"genres,omitempty" bson:"genres,omitempty"`
	Language string   `json:"language,omitempty" bson:"language,omitempty"`

	CoverImage string `json:"coverImage,omitempty" bson:"coverImage,omitempty"`
	Overview   string `json:"overview,omitempty" bson:"overview,omitempty"`

	// nil cuando nunca se descargó; el orden "popular" los manda al final
	NumberOfDownloads *int64 `json:"numberOfDownloads,omitempty" bson:"numberOfDownloads,omitempty"`

	CreatedAt string `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
