package repository

import (
	"context"

	"github.com/kavya020805/NextChapter/internal/db"
	"github.com/kavya020805/NextChapter/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookRepository struct {
	col *mongo.Collection
}

func NewBookRepository() *BookRepository {
	return &BookRepository{col: db.DB().Collection("books")}
}

func (r *BookRepository) GetByID(ctx context.Context, bookID string) (*models.BookDoc, error) {
	var b models.BookDoc
	err := r.col.FindOne(ctx, bson.M{"_id": bookID}).Decode(&b)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &b, err
}

// FindByIDs trae los detalles de un conjunto de libros. El orden de retorno
// es el de Mongo, no el de `ids`; el caller reordena si le importa.
func (r *BookRepository) FindByIDs(ctx context.Context, ids []string) ([]models.BookDoc, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BookDoc
	for cur.Next(ctx) {
		var b models.BookDoc
		if err := cur.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

// FindByGenres busca libros cuyo array de géneros intersecta los preferidos.
func (r *BookRepository) FindByGenres(ctx context.Context, genres []string, limit int) ([]models.BookDoc, error) {
	if len(genres) == 0 {
		return nil, nil
	}

	opts := options.Find().SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"genres": bson.M{"$in": genres}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BookDoc
	for cur.Next(ctx) {
		var b models.BookDoc
		if err := cur.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

// FindPopular ordena por descargas descendente. En Mongo los documentos sin
// numberOfDownloads quedan al final con sort -1, que es lo que queremos.
func (r *BookRepository) FindPopular(ctx context.Context, limit int) ([]models.BookDoc, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "numberOfDownloads", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BookDoc
	for cur.Next(ctx) {
		var b models.BookDoc
		if err := cur.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}

// FindAll pagina todo el catálogo (lo usa el job de ingesta).
func (r *BookRepository) FindAll(ctx context.Context, limit, offset int) ([]models.BookDoc, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BookDoc
	for cur.Next(ctx) {
		var b models.BookDoc
		if err := cur.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, cur.Err()
}
