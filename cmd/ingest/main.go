package main

import (
	"context"
	"log"
	"time"

	"github.com/kavya020805/NextChapter/internal/ai"
	"github.com/kavya020805/NextChapter/internal/config"
	"github.com/kavya020805/NextChapter/internal/db"
	"github.com/kavya020805/NextChapter/internal/models"
	"github.com/kavya020805/NextChapter/internal/repository"
	"github.com/kavya020805/NextChapter/internal/service"
	"github.com/kavya020805/NextChapter/internal/vector"
)

const batchSize = 100

// Job offline de ingesta: lee todo el catálogo de Mongo, genera el
// embedding del descriptor canónico de cada libro y hace upsert en el
// índice pgvector con su metadata filtrable (género, autor).
func main() {
	cfg := config.Load()

	db.InitMongo(cfg)
	vectorDB := db.InitVectorDB(cfg)

	embedder := ai.NewEmbedder(ai.EmbeddingConfig{
		APIKey:     cfg.EmbeddingAPIKey,
		BaseURL:    cfg.EmbeddingBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
	index := vector.New(vectorDB, cfg.EmbeddingDimensions)

	if embedder.Dimensions() != index.Dimensions() {
		log.Fatalf("[ingest] dimensión de embeddings (%d) no coincide con el índice (%d)",
			embedder.Dimensions(), index.Dimensions())
	}

	ctx := context.Background()

	if err := index.EnsureSchema(ctx); err != nil {
		log.Fatalf("[ingest] error preparando el esquema: %v", err)
	}

	bookRepo := repository.NewBookRepository()

	start := time.Now()
	total := 0
	offset := 0

	for {
		books, err := bookRepo.FindAll(ctx, batchSize, offset)
		if err != nil {
			log.Fatalf("[ingest] error leyendo libros: %v", err)
		}
		if len(books) == 0 {
			break
		}
		offset += len(books)

		if err := ingestBatch(ctx, embedder, index, books); err != nil {
			log.Fatalf("[ingest] error en el batch con offset %d: %v", offset-len(books), err)
		}
		total += len(books)
		log.Printf("[ingest] %d libros indexados", total)
	}

	if total == 0 {
		log.Println("[ingest] no hay libros para indexar")
		return
	}
	log.Printf("[ingest] listo: %d libros en %.1fs", total, time.Since(start).Seconds())
}

func ingestBatch(ctx context.Context, embedder ai.Embedder, index *vector.Index, books []models.BookDoc) error {
	texts := make([]string, len(books))
	for i, b := range books {
		texts[i] = service.BuildEmbedText(b)
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	records := make([]vector.Record, len(books))
	for i, b := range books {
		records[i] = vector.Record{
			BookID: b.ID,
			Values: vectors[i],
			Genre:  b.Genre,
			Author: b.Author,
		}
	}
	return index.Upsert(ctx, records)
}
