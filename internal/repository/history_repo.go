package repository

import (
	"context"

	"github.com/kavya020805/NextChapter/internal/db"
	"github.com/kavya020805/NextChapter/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// HistoryRepository unifica las tres colecciones de actividad del lector:
// user_books (progreso de lectura), book_ratings y book_wishlist.
type HistoryRepository struct {
	userBooks *mongo.Collection
	ratings   *mongo.Collection
	wishlist  *mongo.Collection
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		userBooks: db.DB().Collection("user_books"),
		ratings:   db.DB().Collection("book_ratings"),
		wishlist:  db.DB().Collection("book_wishlist"),
	}
}

// GetFullUserHistory devuelve un evento por libro con el que el usuario
// interactuó alguna vez, ordenado por interacción más reciente primero.
// Un $unionWith de las tres colecciones agrupado por bookId.
func (r *HistoryRepository) GetFullUserHistory(ctx context.Context, userID string) ([]models.HistoryEvent, error) {
	match := bson.D{{Key: "$match", Value: bson.M{"userId": userID}}}

	pipeline := mongo.Pipeline{
		match,
		{{Key: "$project", Value: bson.M{
			"bookId":         "$bookId",
			"scrollDepth":    bson.M{"$ifNull": bson.A{"$scrollDepth", 0}},
			"rating":         bson.M{"$literal": 0},
			"wasInWatchlist": bson.M{"$literal": false},
			"ts":             "$updatedAt",
		}}},
		{{Key: "$unionWith", Value: bson.M{
			"coll": "book_ratings",
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"userId": userID}},
				bson.M{"$project": bson.M{
					"bookId":         "$bookId",
					"scrollDepth":    bson.M{"$literal": 0},
					"rating":         bson.M{"$ifNull": bson.A{"$rating", 0}},
					"wasInWatchlist": bson.M{"$literal": false},
					"ts":             "$updatedAt",
				}},
			},
		}}},
		{{Key: "$unionWith", Value: bson.M{
			"coll": "book_wishlist",
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"userId": userID}},
				bson.M{"$project": bson.M{
					"bookId":         "$bookId",
					"scrollDepth":    bson.M{"$literal": 0},
					"rating":         bson.M{"$literal": 0},
					"wasInWatchlist": bson.M{"$literal": true},
					"ts":             "$addedAt",
				}},
			},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":            "$bookId",
			"scrollDepth":    bson.M{"$max": "$scrollDepth"},
			"rating":         bson.M{"$max": "$rating"},
			"wasInWatchlist": bson.M{"$max": "$wasInWatchlist"},
			"ts":             bson.M{"$max": "$ts"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "ts", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	cur, err := r.userBooks.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.HistoryEvent
	for cur.Next(ctx) {
		var ev models.HistoryEvent
		if err := cur.Decode(&ev); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, cur.Err()
}
