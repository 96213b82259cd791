package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/models"
)

type VideoInput struct {
	Title        string           `json:"title" binding:"required"`
	Description  *string          `json:"description"`
	VideoType    models.VideoType `json:"video_type" binding:"required,oneof=youtube vimeo uploaded"`
	VideoURL     string           `json:"video_url" binding:"required"`
	ThumbnailURL *string          `json:"thumbnail_url"`
	Duration     *int             `json:"duration" binding:"omitempty,min=0"`
	SectionID    uuid.UUID        `json:"section_id" binding:"required"`
	MovieID      *uuid.UUID       `json:"movie_id"`
}

type VideoFilter struct {
	SectionID *uuid.UUID
	MovieID   *uuid.UUID
}

type VideoService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoService(db *gorm.DB, log *logger.Logger) *VideoService {
	return &VideoService{db: db, log: log.With("service", "VideoService")}
}

// videoScope is the ordering scope of a video: its section plus its movie,
// where "no movie" is a scope of its own.
func videoScope(sectionID uuid.UUID, movieID *uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("section_id = ?", sectionID)
		if movieID == nil {
			return q.Where("movie_id IS NULL")
		}
		return q.Where("movie_id = ?", *movieID)
	}
}

func (s *VideoService) Create(ctx context.Context, in VideoInput) (*models.Video, error) {
	title := strings.TrimSpace(in.Title)
	url := strings.TrimSpace(in.VideoURL)
	if title == "" || in.VideoType == "" || url == "" || in.SectionID == uuid.Nil {
		return nil, apperr.Validation("Título, tipo de video, URL y sección son requeridos")
	}
	if !in.VideoType.Valid() {
		return nil, apperr.Validation("El tipo de video debe ser youtube, vimeo o uploaded")
	}
	if in.Duration != nil && *in.Duration < 0 {
		return nil, apperr.Validation("La duración no puede ser negativa")
	}

	video := models.Video{
		Title:        title,
		Description:  nullIfEmpty(in.Description),
		VideoType:    in.VideoType,
		VideoURL:     url,
		ThumbnailURL: nullIfEmpty(in.ThumbnailURL),
		Duration:     in.Duration,
		SectionID:    in.SectionID,
		MovieID:      in.MovieID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Section{}).Where("id = ?", in.SectionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("Sección no encontrada")
		}
		if in.MovieID != nil {
			if err := tx.Model(&models.Movie{}).Where("id = ?", *in.MovieID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return apperr.NotFound("Película no encontrada")
			}
		}
		pos, err := nextOrderIndex(tx, &models.Video{}, videoScope(in.SectionID, in.MovieID))
		if err != nil {
			return err
		}
		video.OrderIndex = pos
		return tx.Create(&video).Error
	})
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		return nil, apperr.Internal(fmt.Errorf("create video: %w", err))
	}
	s.log.Info("video created", "video_id", video.ID, "section_id", video.SectionID, "order_index", video.OrderIndex)
	return &video, nil
}

// List filters the same way the section pages read videos: both ids give
// the videos attached to that movie inside the section, a section alone gives
// the section level videos, a movie alone gives all its videos.
func (s *VideoService) List(ctx context.Context, f VideoFilter) ([]models.Video, error) {
	q := s.db.WithContext(ctx).Model(&models.Video{})
	switch {
	case f.SectionID != nil:
		q = videoScope(*f.SectionID, f.MovieID)(q).Order("order_index ASC")
	case f.MovieID != nil:
		q = q.Where("movie_id = ?", *f.MovieID).Order("order_index ASC")
	default:
		q = q.Order("section_id ASC, order_index ASC")
	}
	videos := []models.Video{}
	if err := q.Find(&videos).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("list videos: %w", err))
	}
	return videos, nil
}

func (s *VideoService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Video{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Internal(fmt.Errorf("delete video: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Video no encontrado")
	}
	return nil
}
