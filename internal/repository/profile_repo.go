package repository

import (
	"context"
	"time"

	"github.com/kavya020805/NextChapter/internal/db"
	"github.com/kavya020805/NextChapter/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProfileRepository struct {
	col *mongo.Collection
}

func NewProfileRepository() *ProfileRepository {
	return &ProfileRepository{col: db.DB().Collection("user_profiles")}
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfileDoc, error) {
	var p models.UserProfileDoc
	err := r.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &p, err
}

// UpdateGenres reemplaza los géneros preferidos (upsert).
func (r *ProfileRepository) UpdateGenres(ctx context.Context, userID string, genres []string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{
			"genres":    genres,
			"updatedAt": time.Now().UTC().Format(time.RFC3339),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}
