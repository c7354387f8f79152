package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kavya020805/NextChapter/internal/models"
	"github.com/kavya020805/NextChapter/internal/vector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ====== fakes de los colaboradores externos ======

type fakeHistory struct {
	events []models.HistoryEvent
	err    error
	calls  int
}

func (f *fakeHistory) GetFullUserHistory(ctx context.Context, userID string) ([]models.HistoryEvent, error) {
	f.calls++
	return f.events, f.err
}

type fakeBooks struct {
	byID    map[string]models.BookDoc
	byGenre []models.BookDoc
	popular []models.BookDoc

	genreErr   error
	popularErr error
	// si es > 0, FindByIDs falla en esa llamada (1-indexada)
	failIDsOnCall int

	idCalls   int
	gotGenres []string
}

func (f *fakeBooks) FindByIDs(ctx context.Context, ids []string) ([]models.BookDoc, error) {
	f.idCalls++
	if f.failIDsOnCall == f.idCalls {
		return nil, errors.New("mongo down")
	}
	var out []models.BookDoc
	for _, id := range ids {
		if b, ok := f.byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBooks) FindByGenres(ctx context.Context, genres []string, limit int) ([]models.BookDoc, error) {
	f.gotGenres = genres
	if f.genreErr != nil {
		return nil, f.genreErr
	}
	if len(f.byGenre) > limit {
		return f.byGenre[:limit], nil
	}
	return f.byGenre, nil
}

func (f *fakeBooks) FindPopular(ctx context.Context, limit int) ([]models.BookDoc, error) {
	if f.popularErr != nil {
		return nil, f.popularErr
	}
	if len(f.popular) > limit {
		return f.popular[:limit], nil
	}
	return f.popular, nil
}

type fakeProfiles struct {
	profile *models.UserProfileDoc
	err     error
}

func (f *fakeProfiles) GetByUserID(ctx context.Context, userID string) (*models.UserProfileDoc, error) {
	return f.profile, f.err
}

type fakeIndex struct {
	matches []vector.Match
	err     error
	dims    int

	calls    int
	gotTopK  int
	gotGenre string
}

func (f *fakeIndex) Query(ctx context.Context, vec []float32, topK int, genre string) ([]vector.Match, error) {
	f.calls++
	f.gotTopK = topK
	f.gotGenre = genre
	return f.matches, f.err
}

func (f *fakeIndex) Dimensions() int { return f.dims }

type fakeEmbedder struct {
	vec  []float32
	err  error
	dims int

	calls   int
	gotText string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	f.gotText = text
	return f.vec, f.err
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

type fakeRecLog struct {
	entries []*models.RecommendationLog
}

func (f *fakeRecLog) Insert(ctx context.Context, rec *models.RecommendationLog) error {
	f.entries = append(f.entries, rec)
	return nil
}

func (f *fakeRecLog) FindByUser(ctx context.Context, userID string, limit int64) ([]models.RecommendationLog, error) {
	var out []models.RecommendationLog
	for _, e := range f.entries {
		if e.UserID == userID && int64(len(out)) < limit {
			out = append(out, *e)
		}
	}
	return out, nil
}

// ====== fixtures ======

func downloads(n int64) *int64 { return &n }

func book(id, title, author, genre string, genres ...string) models.BookDoc {
	return models.BookDoc{
		ID: id, Title: title, Author: author, Genre: genre, Genres: genres,
		Language: "en", CoverImage: "https://covers/" + id + ".jpg",
	}
}

func event(bookID string, scroll, rating float64, watchlist bool, age time.Duration) models.HistoryEvent {
	return models.HistoryEvent{
		BookID:         bookID,
		ScrollDepth:    scroll,
		Rating:         rating,
		WasInWatchlist: watchlist,
		Timestamp:      time.Now().Add(-age),
	}
}

type deps struct {
	history  *fakeHistory
	books    *fakeBooks
	profiles *fakeProfiles
	index    *fakeIndex
	embedder *fakeEmbedder
	recLog   *fakeRecLog
}

func newDeps() *deps {
	return &deps{
		history:  &fakeHistory{},
		books:    &fakeBooks{byID: map[string]models.BookDoc{}},
		profiles: &fakeProfiles{},
		index:    &fakeIndex{dims: 4},
		embedder: &fakeEmbedder{vec: []float32{0.1, 0.2, 0.3, 0.4}, dims: 4},
		recLog:   &fakeRecLog{},
	}
}

func (d *deps) engine() *RecommendService {
	return NewRecommendService(d.history, d.books, d.profiles, d.recLog, d.index, d.embedder)
}

// ====== love score ======

func TestLoveScore(t *testing.T) {
	tests := []struct {
		name string
		ev   models.HistoryEvent
		want float64
	}{
		{"sin señal", event("b", 0, 0, false, 0), 0},
		{"todo al máximo", event("b", 100, 5, true, 0), 1},
		{"solo scroll completo", event("b", 100, 0, false, 0), 0.5},
		{"solo watchlist", event("b", 0, 0, true, 0), 0.3},
		{"solo rating máximo", event("b", 0, 5, false, 0), 0.2},
		{"mixto", event("b", 80, 4, true, 0), 0.86},
		{"scroll fuera de rango se recorta", event("b", 250, 0, false, 0), 0.5},
		{"rating negativo se recorta", event("b", 0, -3, false, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, LoveScore(tt.ev), 1e-9)
		})
	}
}

func TestLoveScoreMonotonicAndBounded(t *testing.T) {
	for scroll := 0.0; scroll <= 100; scroll += 20 {
		for rating := 0.0; rating <= 5; rating++ {
			for _, watch := range []bool{false, true} {
				s := LoveScore(event("b", scroll, rating, watch, 0))
				assert.GreaterOrEqual(t, s, 0.0)
				assert.LessOrEqual(t, s, 1.0)

				// monótono en cada componente con las otras fijas
				assert.GreaterOrEqual(t, LoveScore(event("b", scroll+10, rating, watch, 0)), s)
				assert.GreaterOrEqual(t, LoveScore(event("b", scroll, rating+1, watch, 0)), s)
				assert.GreaterOrEqual(t, LoveScore(event("b", scroll, rating, true, 0)), s)
			}
		}
	}
}

// ====== descriptor canónico ======

func TestBuildEmbedText(t *testing.T) {
	b := book("b1", "Dune", "Frank Herbert", "Sci-Fi", "Sci-Fi", "Adventure")
	assert.Equal(t,
		"Title: Dune. Author: Frank Herbert. Genre: Sci-Fi. Tags: Sci-Fi, Adventure.",
		BuildEmbedText(b))

	// campos faltantes quedan como string vacío, nunca null
	assert.Equal(t, "Title: . Author: . Genre: . Tags: .", BuildEmbedText(models.BookDoc{}))
}

// ====== tallies ======

func TestTallyTopFirstSeenWinsTies(t *testing.T) {
	ta := newTally()
	ta.Add("Fantasy", 0.5)
	ta.Add("Sci-Fi", 0.5)

	top, ok := ta.Top()
	require.True(t, ok)
	assert.Equal(t, "Fantasy", top)

	ta.Add("Sci-Fi", 0.1)
	top, _ = ta.Top()
	assert.Equal(t, "Sci-Fi", top)

	empty := newTally()
	_, ok = empty.Top()
	assert.False(t, ok)
}

// ====== validación ======

func TestRecommendInvalidUserID(t *testing.T) {
	d := newDeps()
	svc := d.engine()

	for _, id := range []string{"", "   "} {
		_, err := svc.Recommend(context.Background(), RecRequest{UserID: id})
		require.ErrorIs(t, err, ErrInvalidUserID)
	}
	// sin llamadas externas cuando el input es inválido
	assert.Zero(t, d.history.calls)
}

// ====== escenario A: cold start con preferencias ======

func TestColdStartWithPreferences(t *testing.T) {
	d := newDeps()
	d.profiles.profile = &models.UserProfileDoc{UserID: "u1", Genres: []string{"Sci-Fi"}}
	sciFi := []models.BookDoc{
		book("s1", "Dune", "Herbert", "Sci-Fi", "Sci-Fi"),
		book("s2", "Foundation", "Asimov", "Sci-Fi", "Sci-Fi"),
		book("s3", "Hyperion", "Simmons", "Sci-Fi", "Sci-Fi"),
	}
	d.books.byGenre = sciFi
	d.books.popular = []models.BookDoc{book("p1", "Otro", "X", "Drama", "Drama")}

	resp, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, models.StrategyPreferences, resp.Strategy)
	assert.True(t, resp.IsFallback)
	assert.Equal(t, []string{"Sci-Fi"}, d.books.gotGenres)

	require.Len(t, resp.Books, 3)
	for i, b := range resp.Books {
		assert.Equal(t, sciFi[i].ID, b.BookID)
	}
}

// ====== escenario B: cold start sin preferencias -> popular ======

func TestColdStartPopular(t *testing.T) {
	d := newDeps()

	// 12 libros con descargas distintas, ya ordenados descendente como
	// los devolvería el store
	for i := 0; i < 12; i++ {
		b := book(fmt.Sprintf("p%02d", i), fmt.Sprintf("Libro %d", i), "A", "Drama", "Drama")
		b.NumberOfDownloads = downloads(int64(1000 - i))
		d.books.popular = append(d.books.popular, b)
	}

	resp, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u2"})
	require.NoError(t, err)

	assert.Equal(t, models.StrategyPopular, resp.Strategy)
	assert.True(t, resp.IsFallback)

	require.Len(t, resp.Books, 5)
	for i, b := range resp.Books {
		assert.Equal(t, fmt.Sprintf("p%02d", i), b.BookID)
	}

	// cold start nunca toca el embedder ni el índice
	assert.Zero(t, d.embedder.calls)
	assert.Zero(t, d.index.calls)
}

// ====== escenario C: warm start con vector search ======

func warmDeps() *deps {
	d := newDeps()

	read := []models.BookDoc{
		book("r1", "Leído 1", "Autora A", "Fantasy", "Fantasy"),
		book("r2", "Leído 2", "Autora A", "Fantasy", "Fantasy", "Epic"),
		book("r3", "Leído 3", "Autor B", "Sci-Fi", "Sci-Fi"),
		book("r4", "Leído 4", "Autor B", "Sci-Fi", "Sci-Fi"),
		book("r5", "Leído 5", "Autor C", "Drama", "Drama"),
	}
	for _, b := range read {
		d.books.byID[b.ID] = b
	}

	// r2 gana el love score (scroll alto + watchlist + rating)
	d.history.events = []models.HistoryEvent{
		event("r1", 40, 0, false, time.Hour),
		event("r2", 90, 5, true, 2*time.Hour),
		event("r3", 20, 3, false, 3*time.Hour),
		event("r4", 10, 0, false, 4*time.Hour),
		event("r5", 5, 0, false, 5*time.Hour),
	}

	// 8 matches del índice: 3 sin leer (n1..n3), el resto en el read-set
	d.index.matches = []vector.Match{
		{BookID: "r1", Similarity: 0.99},
		{BookID: "n1", Similarity: 0.95},
		{BookID: "r2", Similarity: 0.93},
		{BookID: "n2", Similarity: 0.91},
		{BookID: "r3", Similarity: 0.90},
		{BookID: "n3", Similarity: 0.88},
		{BookID: "r4", Similarity: 0.85},
		{BookID: "r5", Similarity: 0.80},
	}
	for _, id := range []string{"n1", "n2", "n3"} {
		d.books.byID[id] = book(id, "Nuevo "+id, "Autora A", "Fantasy", "Fantasy")
	}
	return d
}

func TestWarmStartVectorSearch(t *testing.T) {
	d := warmDeps()

	resp, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u3"})
	require.NoError(t, err)

	assert.Equal(t, models.StrategyVectorSearch, resp.Strategy)
	assert.False(t, resp.IsFallback)

	// exactamente los 3 no leídos, en orden de similitud descendente
	require.Len(t, resp.Books, 3)
	assert.Equal(t, "n1", resp.Books[0].BookID)
	assert.Equal(t, "n2", resp.Books[1].BookID)
	assert.Equal(t, "n3", resp.Books[2].BookID)

	// nada del read-set se filtra a la respuesta
	readSet := map[string]bool{"r1": true, "r2": true, "r3": true, "r4": true, "r5": true}
	for _, b := range resp.Books {
		assert.False(t, readSet[b.BookID], "libro leído %s en la respuesta", b.BookID)
	}

	// una sola query top-k=8, filtrada por el género dominante
	assert.Equal(t, 1, d.index.calls)
	assert.Equal(t, 8, d.index.gotTopK)
	assert.Equal(t, "Fantasy", d.index.gotGenre)

	// el seed es el libro con mejor love score (r2)
	assert.Equal(t,
		"Title: Leído 2. Author: Autora A. Genre: Fantasy. Tags: Fantasy, Epic.",
		d.embedder.gotText)

	// la respuesta servida queda registrada
	require.Len(t, d.recLog.entries, 1)
	assert.Equal(t, models.StrategyVectorSearch, d.recLog.entries[0].Strategy)
}

// ====== escenario D: todos los matches ya leídos ======

func TestWarmStartAllMatchesRead(t *testing.T) {
	d := warmDeps()
	d.index.matches = []vector.Match{
		{BookID: "r1"}, {BookID: "r2"}, {BookID: "r3"}, {BookID: "r4"},
		{BookID: "r5"}, {BookID: "r1"}, {BookID: "r2"}, {BookID: "r3"},
	}
	d.profiles.profile = &models.UserProfileDoc{UserID: "u3", Genres: []string{"Fantasy"}}
	d.books.byGenre = []models.BookDoc{book("f9", "Fantasy 9", "Z", "Fantasy", "Fantasy")}

	resp, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u3"})
	require.NoError(t, err)

	assert.Equal(t, models.StrategyPreferences, resp.Strategy)
	assert.True(t, resp.IsFallback)
	require.Len(t, resp.Books, 1)
	assert.Equal(t, "f9", resp.Books[0].BookID)
}

// ====== empate en el top book ======

func TestTopBookTieBreakFirstInWindow(t *testing.T) {
	d := newDeps()
	d.books.byID["a"] = book("a", "Primero", "X", "Drama", "Drama")
	d.books.byID["b"] = book("b", "Segundo", "X", "Drama", "Drama")

	// mismo score: gana el primero de la ventana (el más reciente)
	d.history.events = []models.HistoryEvent{
		event("a", 60, 0, false, time.Hour),
		event("b", 60, 0, false, 2*time.Hour),
	}
	d.index.matches = []vector.Match{{BookID: "n1", Similarity: 0.9}}
	d.books.byID["n1"] = book("n1", "Nuevo", "X", "Drama", "Drama")

	resp, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u4"})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyVectorSearch, resp.Strategy)
	assert.Contains(t, d.embedder.gotText, "Title: Primero.")
}

// ====== fallas de upstream ======

func TestHistoryFailureBecomesColdStart(t *testing.T) {
	d := newDeps()
	d.history.err = errors.New("mongo timeout")
	d.books.popular = []models.BookDoc{book("p1", "Popular", "X", "Drama", "Drama")}

	resp, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u5"})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyPopular, resp.Strategy)
	assert.Zero(t, d.embedder.calls)
}

func TestEmbeddingFailureDegradesToFallback(t *testing.T) {
	d := warmDeps()
	d.embedder.err = errors.New("embedding service down")
	d.books.popular = []models.BookDoc{book("p1", "Popular", "X", "Drama", "Drama")}

	resp, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u6"})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyPopular, resp.Strategy)
	assert.True(t, resp.IsFallback)
	assert.Zero(t, d.index.calls)
}

func TestVectorQueryFailureDegradesToFallback(t *testing.T) {
	d := warmDeps()
	d.index.err = errors.New("pgvector down")
	d.profiles.profile = &models.UserProfileDoc{UserID: "u7", Genres: []string{"Fantasy"}}
	d.books.byGenre = []models.BookDoc{book("f1", "Fantasy 1", "Z", "Fantasy", "Fantasy")}

	resp, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u7"})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyPreferences, resp.Strategy)
}

func TestDimensionMismatchIsHardError(t *testing.T) {
	d := warmDeps()
	d.embedder.vec = []float32{0.1, 0.2} // el índice espera 4

	_, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u8"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCandidates)
	// error de configuración: nunca se consulta el índice
	assert.Zero(t, d.index.calls)
}

func TestFinalDetailFetchFailureIsHardError(t *testing.T) {
	d := warmDeps()
	// la primera llamada puntúa la ventana; la segunda es el fetch final
	d.books.failIDsOnCall = 2

	_, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u9"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCandidates)
}

func TestCascadeExhausted(t *testing.T) {
	d := newDeps()

	_, err := d.engine().Recommend(context.Background(), RecRequest{UserID: "u10"})
	require.ErrorIs(t, err, ErrNoCandidates)
}

// ====== determinismo ======

func TestDeterministicResponses(t *testing.T) {
	d := warmDeps()
	svc := d.engine()

	first, err := svc.Recommend(context.Background(), RecRequest{UserID: "u11"})
	require.NoError(t, err)
	second, err := svc.Recommend(context.Background(), RecRequest{UserID: "u11"})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// ====== etapas del cascade (lo consume el WS) ======

func TestStageCallbacks(t *testing.T) {
	d := warmDeps()

	var stages []string
	_, err := d.engine().Recommend(context.Background(), RecRequest{
		UserID:  "u12",
		OnStage: func(s string) { stages = append(stages, s) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"history", "scoring", "embedding", "vector_search"}, stages)
}
