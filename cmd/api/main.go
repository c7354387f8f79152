package main

import (
	"log"
	"net/http"

	_ "github.com/kavya020805/NextChapter/docs" // swagger docs

	"github.com/kavya020805/NextChapter/internal/ai"
	"github.com/kavya020805/NextChapter/internal/cache"
	"github.com/kavya020805/NextChapter/internal/config"
	"github.com/kavya020805/NextChapter/internal/db"
	"github.com/kavya020805/NextChapter/internal/handler"
	"github.com/kavya020805/NextChapter/internal/repository"
	"github.com/kavya020805/NextChapter/internal/service"
	"github.com/kavya020805/NextChapter/internal/vector"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title NextChapter AI Suggestions API
// @version 1.0
// @description Recomendaciones de libros (vector search + fallbacks), moderación y chat del lector
// @host localhost:8000
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	// Mongo, Redis y Postgres (pgvector)
	db.InitMongo(cfg)
	cache.InitRedis(cfg)
	vectorDB := db.InitVectorDB(cfg)

	// colaboradores externos del engine
	embedder := ai.NewEmbedder(ai.EmbeddingConfig{
		APIKey:     cfg.EmbeddingAPIKey,
		BaseURL:    cfg.EmbeddingBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
	index := vector.New(vectorDB, cfg.EmbeddingDimensions)

	// la dimensión es un contrato duro entre embedder e índice:
	// un mismatch es error de configuración, no se arranca
	if embedder.Dimensions() != index.Dimensions() {
		log.Fatalf("[main] dimensión de embeddings (%d) no coincide con el índice (%d)",
			embedder.Dimensions(), index.Dimensions())
	}

	llm := ai.NewChatClient(ai.ChatConfig{
		APIKey:  cfg.GroqAPIKey,
		BaseURL: cfg.GroqBaseURL,
		Model:   cfg.GroqModel,
	})

	// repos
	bookRepo := repository.NewBookRepository()
	historyRepo := repository.NewHistoryRepository()
	profileRepo := repository.NewProfileRepository()
	recRepo := repository.NewRecommendationRepository()

	// services
	recSvc := service.NewRecommendService(historyRepo, bookRepo, profileRepo, recRepo, index, embedder)
	moderationSvc := service.NewModerationService(llm)
	chatSvc := service.NewChatService(llm)
	profileSvc := service.NewProfileService(profileRepo)

	// handlers
	recH := handler.NewRecommendHandler(recSvc)
	aiH := handler.NewAIHandler(moderationSvc, chatSvc)
	profileH := handler.NewProfileHandler(profileSvc)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// =============
	// Rutas públicas
	// =============
	r.Get("/health", handler.Health)

	// recomendaciones
	r.Get("/recommendations/{user_id}", recH.GetRecommendations)
	r.Post("/recommendations", recH.PostRecommendations)
	r.Get("/ws/recommendations/{user_id}", recH.GetRecommendationsWS)

	// moderación, chat del lector y visualización de escenas
	r.Post("/api/moderate", aiH.Moderate)
	r.Post("/api/chat", aiH.Chat)
	r.Post("/api/visualize", aiH.Visualize)

	// ===========================
	// Rutas protegidas con JWT
	// ===========================
	r.Group(func(r chi.Router) {
		r.Use(handler.JWTAuth(cfg.JWTSecret))

		r.Route("/me", func(r chi.Router) {
			r.Get("/profile", profileH.GetMyProfile)
			r.Put("/profile", profileH.UpdateMyGenres)
			r.Get("/recommendations", recH.GetMyRecommendations)
		})
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	log.Printf("HTTP escuchando en :%s", cfg.HTTPPort)
	log.Fatal(http.ListenAndServe(":"+cfg.HTTPPort, r))
}
