package db

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/kavya020805/NextChapter/internal/config"

	_ "github.com/lib/pq"
)

// InitVectorDB abre la conexión a Postgres donde vive el índice pgvector.
func InitVectorDB(cfg *config.Config) *sql.DB {
	conn, err := sql.Open("postgres", cfg.VectorDSN)
	if err != nil {
		log.Fatalf("[pgvector] error abriendo conexión: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		log.Fatalf("[pgvector] ping falló: %v", err)
	}

	log.Println("[pgvector] conectado")
	return conn
}
