// Package vector implementa el índice de vecinos más cercanos sobre
// Postgres + pgvector. El engine lo consume como caja negra: una query
// top-k pre-rankeada por similitud coseno.
package vector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"
)

// Record is one indexed book vector with its filterable metadata.
type Record struct {
	BookID string
	Values []float32
	Genre  string
	Author string
}

// Match is one query result, ordered by descending similarity.
type Match struct {
	BookID     string
	Similarity float64
	Genre      string
	Author     string
}

type Index struct {
	db         *sql.DB
	dimensions int
}

// New wraps an open Postgres handle. `dimensions` is a hard contract with
// the embedding service; both sides are validated at startup.
func New(db *sql.DB, dimensions int) *Index {
	return &Index{db: db, dimensions: dimensions}
}

func (ix *Index) Dimensions() int {
	return ix.dimensions
}

// EnsureSchema crea la extensión y la tabla si no existen. Solo lo llama el
// job de ingesta; el API asume que el índice ya está poblado.
func (ix *Index) EnsureSchema(ctx context.Context) error {
	if _, err := ix.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return errors.Wrap(err, "failed to create vector extension")
	}

	stmt := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS book_embeddings (
			book_id TEXT PRIMARY KEY,
			embedding VECTOR(%d) NOT NULL,
			genre TEXT NOT NULL DEFAULT '',
			author TEXT NOT NULL DEFAULT ''
		)`, ix.dimensions)
	if _, err := ix.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to create book_embeddings table")
	}
	return nil
}

// Upsert inserta o actualiza los vectores de un lote de libros.
func (ix *Index) Upsert(ctx context.Context, records []Record) error {
	stmt := `
		INSERT INTO book_embeddings (book_id, embedding, genre, author)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (book_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			genre = EXCLUDED.genre,
			author = EXCLUDED.author
	`

	for _, rec := range records {
		if len(rec.Values) != ix.dimensions {
			return fmt.Errorf("vector for book %s has %d dimensions, index expects %d",
				rec.BookID, len(rec.Values), ix.dimensions)
		}

		_, err := ix.db.ExecContext(ctx, stmt,
			rec.BookID,
			pgvector.NewVector(rec.Values),
			rec.Genre,
			rec.Author,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to upsert embedding for book %s", rec.BookID)
		}
	}
	return nil
}

// Query corre una búsqueda top-k por distancia coseno. Si `genre` no es
// vacío se aplica como filtro de igualdad sobre la metadata.
func (ix *Index) Query(ctx context.Context, vec []float32, topK int, genre string) ([]Match, error) {
	if len(vec) != ix.dimensions {
		return nil, fmt.Errorf("query vector has %d dimensions, index expects %d", len(vec), ix.dimensions)
	}

	query := `
		SELECT book_id, 1 - (embedding <=> $1) AS similarity, genre, author
		FROM book_embeddings
	`
	args := []any{pgvector.NewVector(vec)}

	if genre != "" {
		query += ` WHERE genre = $2`
		args = append(args, genre)
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $1 LIMIT %d`, topK)

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query book embeddings")
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.BookID, &m.Similarity, &m.Genre, &m.Author); err != nil {
			return nil, errors.Wrap(err, "failed to scan embedding match")
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
