package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/kavya020805/NextChapter/internal/cache"
	"github.com/kavya020805/NextChapter/internal/models"
	"github.com/kavya020805/NextChapter/internal/vector"
)

const (
	// ventana de scoring: los 5 eventos más recientes del historial
	scoringWindow = 5
	vectorTopK    = 8
	maxBooks      = 5
	fallbackLimit = 10

	// un intento y un timeout acotado por llamada externa, sin retries
	callTimeout = 5 * time.Second

	cacheTTLSeconds = 60 * 60
)

var (
	ErrInvalidUserID = errors.New("missing or invalid user_id")
	ErrNoCandidates  = errors.New("no recommendations available for this user")
)

// ====== Colaboradores externos (fakes en los tests) ======

type HistoryStore interface {
	GetFullUserHistory(ctx context.Context, userID string) ([]models.HistoryEvent, error)
}

type BookStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.BookDoc, error)
	FindByGenres(ctx context.Context, genres []string, limit int) ([]models.BookDoc, error)
	FindPopular(ctx context.Context, limit int) ([]models.BookDoc, error)
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserProfileDoc, error)
}

type RecommendationLogStore interface {
	Insert(ctx context.Context, rec *models.RecommendationLog) error
	FindByUser(ctx context.Context, userID string, limit int64) ([]models.RecommendationLog, error)
}

type VectorIndex interface {
	Query(ctx context.Context, vec []float32, topK int, genre string) ([]vector.Match, error)
	Dimensions() int
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// RecommendService es el engine de decisión: corre el cascade
// vector_search -> preferences -> popular sobre los colaboradores
// inyectados. No guarda estado mutable entre requests.
type RecommendService struct {
	history  HistoryStore
	books    BookStore
	profiles ProfileStore
	recLog   RecommendationLogStore
	index    VectorIndex
	embedder Embedder
}

func NewRecommendService(
	history HistoryStore,
	books BookStore,
	profiles ProfileStore,
	recLog RecommendationLogStore,
	index VectorIndex,
	embedder Embedder,
) *RecommendService {
	return &RecommendService{
		history:  history,
		books:    books,
		profiles: profiles,
		recLog:   recLog,
		index:    index,
		embedder: embedder,
	}
}

type RecRequest struct {
	UserID  string
	Refresh bool
	// OnStage recibe el nombre de cada etapa del cascade (lo usa el WS)
	OnStage func(stage string)
}

func (r RecRequest) stage(name string) {
	if r.OnStage != nil {
		r.OnStage(name)
	}
}

func cacheKey(userID string) string {
	return fmt.Sprintf("rec:user:%s", userID)
}

// ====== Love score y tallies ======

// LoveScore pondera scroll (50%), watchlist (30%) y rating (20%).
// Siempre cae en [0,1] y es monótono en cada componente.
func LoveScore(ev models.HistoryEvent) float64 {
	scroll := clamp(ev.ScrollDepth, 0, 100)
	rating := clamp(ev.Rating, 0, 5)
	watchlist := 0.0
	if ev.WasInWatchlist {
		watchlist = 1
	}
	return 0.5*(scroll/100) + 0.3*watchlist + 0.2*(rating/5)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// tally acumula puntajes por tag preservando el orden de primera aparición,
// así el argmax es estable entre corridas (los maps de Go no lo serían).
type tally struct {
	scores map[string]float64
	order  []string
}

func newTally() *tally {
	return &tally{scores: make(map[string]float64)}
}

func (t *tally) Add(tag string, score float64) {
	if _, seen := t.scores[tag]; !seen {
		t.order = append(t.order, tag)
	}
	t.scores[tag] += score
}

// Top devuelve el tag con mayor acumulado; empates los gana el primero visto.
func (t *tally) Top() (string, bool) {
	if len(t.order) == 0 {
		return "", false
	}
	best := t.order[0]
	for _, tag := range t.order[1:] {
		if t.scores[tag] > t.scores[best] {
			best = tag
		}
	}
	return best, true
}

// BuildEmbedText arma el descriptor canónico de un libro, el mismo template
// que usa la ingesta para indexar. Campos faltantes quedan como string vacío.
func BuildEmbedText(b models.BookDoc) string {
	return fmt.Sprintf("Title: %s. Author: %s. Genre: %s. Tags: %s.",
		b.Title, b.Author, b.Genre, strings.Join(b.Genres, ", "))
}

// ====== Cascade principal ======

// Recommend corre el cascade completo para un usuario. Warm start intenta
// vector search sembrado por el libro con mejor love score; cold start entra
// directo en preferencias. Cada tier reporta explícitamente vacío vs fallado:
// solo los tiers con fallback pueden absorber errores de upstream.
func (s *RecommendService) Recommend(ctx context.Context, req RecRequest) (*models.RecommendationResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if !req.Refresh {
		var cached models.RecommendationResponse
		if ok, err := cache.GetJSON(ctx, cacheKey(userID), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	req.stage("history")
	history := s.fetchHistory(ctx, userID)

	// read-set completo: todo libro con el que interactuó alguna vez,
	// no solo la ventana reciente que entra al scoring
	readSet := make(map[string]bool, len(history))
	for _, ev := range history {
		readSet[ev.BookID] = true
	}

	window := history
	if len(window) > scoringWindow {
		window = window[:scoringWindow]
	}

	var (
		candidates []models.BookDoc
		strategy   string
	)

	if len(window) > 0 {
		books, err := s.vectorCandidates(ctx, window, readSet, req)
		if err != nil {
			return nil, err
		}
		if len(books) > 0 {
			candidates, strategy = books, models.StrategyVectorSearch
		}
	} else {
		log.Printf("[recommend] cold start para usuario %s", userID)
	}

	if strategy == "" {
		req.stage("preferences")
		if books := s.preferenceCandidates(ctx, userID, readSet); len(books) > 0 {
			candidates, strategy = books, models.StrategyPreferences
		}
	}

	if strategy == "" {
		req.stage("popular")
		if books := s.popularCandidates(ctx, readSet); len(books) > 0 {
			candidates, strategy = books, models.StrategyPopular
		}
	}

	if strategy == "" {
		return nil, ErrNoCandidates
	}

	resp := formatResponse(userID, candidates, strategy)
	if len(resp.Books) == 0 {
		return nil, ErrNoCandidates
	}

	s.persist(ctx, resp)
	return resp, nil
}

// ServedHistory lista las últimas recomendaciones guardadas del usuario.
func (s *RecommendService) ServedHistory(ctx context.Context, userID string, limit int64) ([]models.RecommendationLog, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if s.recLog == nil {
		return []models.RecommendationLog{}, nil
	}

	hctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return s.recLog.FindByUser(hctx, userID, limit)
}

// fetchHistory trae el historial unificado. Es un tier con fallback: si el
// store falla se trata como historial vacío y el cascade sigue.
func (s *RecommendService) fetchHistory(ctx context.Context, userID string) []models.HistoryEvent {
	hctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	history, err := s.history.GetFullUserHistory(hctx, userID)
	if err != nil {
		log.Printf("[recommend] historial no disponible para %s: %v", userID, err)
		return nil
	}
	return history
}

type windowStats struct {
	Scored      []models.ScoredBook
	TopBook     models.ScoredBook
	TopGenre    string
	TopAuthor   string
	TopLanguage string
}

// scoreWindow puntúa la ventana reciente y acumula tallies por género,
// autor e idioma. El top book se elige con > estricto: en empate gana el
// evento más reciente (primero en la ventana).
func (s *RecommendService) scoreWindow(ctx context.Context, window []models.HistoryEvent) (*windowStats, error) {
	ids := make([]string, 0, len(window))
	for _, ev := range window {
		ids = append(ids, ev.BookID)
	}

	bctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	books, err := s.books.FindByIDs(bctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.BookDoc, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	genres, authors, languages := newTally(), newTally(), newTally()
	stats := &windowStats{}

	for i, ev := range window {
		sb := models.ScoredBook{
			BookID:  ev.BookID,
			Score:   LoveScore(ev),
			Details: byID[ev.BookID],
		}
		stats.Scored = append(stats.Scored, sb)

		for _, g := range sb.Details.Genres {
			if g != "" {
				genres.Add(g, sb.Score)
			}
		}
		if a := sb.Details.Author; a != "" {
			authors.Add(a, sb.Score)
		}
		if l := sb.Details.Language; l != "" {
			languages.Add(l, sb.Score)
		}

		if i == 0 || sb.Score > stats.TopBook.Score {
			stats.TopBook = sb
		}
	}

	stats.TopGenre, _ = genres.Top()
	stats.TopAuthor, _ = authors.Top()
	stats.TopLanguage, _ = languages.Top()
	return stats, nil
}

// vectorCandidates corre el tier de warm start: scoring, embedding del top
// book y query top-k al índice. Devuelve (nil, nil) cuando el tier no aporta
// candidatos (vacío o falla degradable) y error solo cuando ya no hay tier
// que pueda reemplazar lo perdido.
func (s *RecommendService) vectorCandidates(ctx context.Context, window []models.HistoryEvent, readSet map[string]bool, req RecRequest) ([]models.BookDoc, error) {
	req.stage("scoring")
	stats, err := s.scoreWindow(ctx, window)
	if err != nil {
		log.Printf("[recommend] no se pudo puntuar el historial: %v", err)
		return nil, nil
	}
	log.Printf("[recommend] top book=%s genre=%q author=%q lang=%q",
		stats.TopBook.BookID, stats.TopGenre, stats.TopAuthor, stats.TopLanguage)

	req.stage("embedding")
	queryText := BuildEmbedText(stats.TopBook.Details)

	ectx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	vec, err := s.embedder.Embed(ectx, queryText)
	if err != nil {
		log.Printf("[recommend] embedding falló, pasando al siguiente tier: %v", err)
		return nil, nil
	}

	// el mismatch de dimensiones es un error de configuración: se corta acá,
	// antes de tocar el índice, y no entra al fallback
	if len(vec) != s.index.Dimensions() {
		return nil, fmt.Errorf("embedding dimension %d does not match index dimension %d", len(vec), s.index.Dimensions())
	}

	req.stage("vector_search")
	qctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	matches, err := s.index.Query(qctx, vec, vectorTopK, stats.TopGenre)
	if err != nil {
		log.Printf("[recommend] vector search falló, pasando al siguiente tier: %v", err)
		return nil, nil
	}

	// los matches llegan rankeados por similitud; se filtra contra el
	// read-set completo y se corta en 5 preservando el orden
	ids := make([]string, 0, maxBooks)
	for _, m := range matches {
		if readSet[m.BookID] {
			continue
		}
		ids = append(ids, m.BookID)
		if len(ids) == maxBooks {
			break
		}
	}
	if len(ids) == 0 {
		log.Println("[recommend] vector search sin títulos nuevos, fallback a preferencias/popular")
		return nil, nil
	}

	// con los ids ya elegidos no queda tier que reemplace este fetch:
	// un error acá sí tumba el request
	dctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	books, err := s.books.FindByIDs(dctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate details: %w", err)
	}

	byID := make(map[string]models.BookDoc, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	ordered := make([]models.BookDoc, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			ordered = append(ordered, b)
		}
	}
	return ordered, nil
}

// preferenceCandidates es el tier de preferencias: géneros guardados del
// perfil contra el catálogo. Cualquier falla se trata como "sin datos".
func (s *RecommendService) preferenceCandidates(ctx context.Context, userID string, readSet map[string]bool) []models.BookDoc {
	pctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	profile, err := s.profiles.GetByUserID(pctx, userID)
	if err != nil {
		log.Printf("[recommend] perfil no disponible para %s: %v", userID, err)
		return nil
	}
	if profile == nil || len(profile.Genres) == 0 {
		log.Printf("[recommend] usuario %s sin géneros preferidos", userID)
		return nil
	}

	bctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	books, err := s.books.FindByGenres(bctx, profile.Genres, fallbackLimit)
	if err != nil {
		log.Printf("[recommend] búsqueda por géneros falló: %v", err)
		return nil
	}
	return filterRead(books, readSet)
}

// popularCandidates es el último tier: descargas descendentes, nulls al final.
func (s *RecommendService) popularCandidates(ctx context.Context, readSet map[string]bool) []models.BookDoc {
	bctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	books, err := s.books.FindPopular(bctx, fallbackLimit)
	if err != nil {
		log.Printf("[recommend] libros populares no disponibles: %v", err)
		return nil
	}
	return filterRead(books, readSet)
}

func filterRead(books []models.BookDoc, readSet map[string]bool) []models.BookDoc {
	out := make([]models.BookDoc, 0, len(books))
	for _, b := range books {
		if !readSet[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

// formatResponse corta a 5 preservando el orden del tier que produjo la
// lista y reduce cada libro a la forma que renderiza el frontend.
func formatResponse(userID string, candidates []models.BookDoc, strategy string) *models.RecommendationResponse {
	books := make([]models.RecommendedBook, 0, maxBooks)
	for _, b := range candidates {
		if len(books) == maxBooks {
			break
		}
		books = append(books, models.RecommendedBook{
			BookID:   b.ID,
			Title:    b.Title,
			Author:   b.Author,
			CoverURL: b.CoverImage,
		})
	}

	return &models.RecommendationResponse{
		UserID:     userID,
		Books:      books,
		Strategy:   strategy,
		IsFallback: strategy != models.StrategyVectorSearch,
	}
}

// persist guarda el historial de lo servido y cachea la respuesta.
// Ninguna de las dos cosas rompe el request si falla.
func (s *RecommendService) persist(ctx context.Context, resp *models.RecommendationResponse) {
	if s.recLog != nil {
		entry := &models.RecommendationLog{
			UserID:     resp.UserID,
			Strategy:   resp.Strategy,
			IsFallback: resp.IsFallback,
			Books:      resp.Books,
			CreatedAt:  time.Now(),
		}
		if err := s.recLog.Insert(ctx, entry); err != nil {
			log.Printf("[recommend] error guardando recomendación en Mongo: %v", err)
		}
	}

	if err := cache.SetJSON(ctx, cacheKey(resp.UserID), resp, cacheTTLSeconds); err != nil {
		log.Printf("[recommend] error cacheando recomendación en Redis: %v", err)
	}
}
