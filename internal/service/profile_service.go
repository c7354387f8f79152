package service

import (
	"context"
	"log"

	"github.com/kavya020805/NextChapter/internal/cache"
	"github.com/kavya020805/NextChapter/internal/models"
	"github.com/kavya020805/NextChapter/internal/repository"
)

type ProfileService struct {
	profiles *repository.ProfileRepository
}

func NewProfileService(profiles *repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfileDoc, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		// perfil todavía no creado: se devuelve vacío, no 404
		return &models.UserProfileDoc{UserID: userID}, nil
	}
	return p, nil
}

// UpdateGenres guarda los géneros preferidos e invalida la recomendación
// cacheada, que dependía de las preferencias viejas.
func (s *ProfileService) UpdateGenres(ctx context.Context, userID string, genres []string) error {
	if err := s.profiles.UpdateGenres(ctx, userID, genres); err != nil {
		return err
	}

	if err := cache.Del(ctx, cacheKey(userID)); err != nil {
		log.Printf("[profile] error invalidando cache de recomendaciones: %v", err)
	}
	return nil
}
