package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/models"
)

type SectionInput struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
	OrderIndex  *int    `json:"order_index" binding:"omitempty,min=0"`
}

// SectionPatch lists the fields an update may touch. A nil field is left
// unchanged; an empty string clears a nullable text field.
type SectionPatch struct {
	Title       *string `json:"title" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	OrderIndex  *int    `json:"order_index" binding:"omitempty,min=0"`
	ImageURL    *string `json:"image_url"`
}

type SectionSummary struct {
	models.Section
	MovieCount int64 `json:"movie_count"`
	VideoCount int64 `json:"video_count"`
}

type SectionContent struct {
	Section models.Section  `json:"section"`
	Movies  []MovieListItem `json:"movies"`
	Videos  []models.Video  `json:"videos"`
}

type SectionService struct {
	db     *gorm.DB
	movies *MovieService
	log    *logger.Logger
	now    func() time.Time
}

func NewSectionService(db *gorm.DB, movies *MovieService, log *logger.Logger) *SectionService {
	return &SectionService{db: db, movies: movies, log: log.With("service", "SectionService"), now: utcNow}
}

func (s *SectionService) List(ctx context.Context) ([]SectionSummary, error) {
	var rows []SectionSummary
	err := s.db.WithContext(ctx).
		Table("sections").
		Select("sections.*, COUNT(DISTINCT section_movies.movie_id) AS movie_count, COUNT(DISTINCT videos.id) AS video_count").
		Joins("LEFT JOIN section_movies ON section_movies.section_id = sections.id").
		Joins("LEFT JOIN videos ON videos.section_id = sections.id").
		Group("sections.id").
		Order("sections.order_index ASC, sections.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list sections: %w", err))
	}
	if rows == nil {
		rows = []SectionSummary{}
	}
	return rows, nil
}

func (s *SectionService) Get(ctx context.Context, id uuid.UUID) (*models.Section, error) {
	var section models.Section
	err := s.db.WithContext(ctx).Take(&section, "id = ?", id).Error
	if isNotFound(err) {
		return nil, apperr.NotFound("Sección no encontrada")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load section: %w", err))
	}
	return &section, nil
}

func (s *SectionService) GetBySlug(ctx context.Context, sectionSlug string) (*models.Section, error) {
	var section models.Section
	err := s.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(sectionSlug))).
		Order("order_index ASC").
		First(&section).Error
	if isNotFound(err) {
		return nil, apperr.NotFound("Sección no encontrada")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load section by slug: %w", err))
	}
	return &section, nil
}

// Content is the section page: the section, its movies in order with
// notes and streaming offers, and the section level videos.
func (s *SectionService) Content(ctx context.Context, id uuid.UUID) (*SectionContent, error) {
	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	movies, err := s.movies.sectionMovies(db, id, true)
	if err != nil {
		return nil, err
	}
	var videos []models.Video
	if err := db.Where("section_id = ? AND movie_id IS NULL", id).Order("order_index ASC").Find(&videos).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("load section videos: %w", err))
	}
	return &SectionContent{Section: *section, Movies: movies, Videos: videos}, nil
}

func (s *SectionService) Create(ctx context.Context, in SectionInput) (*models.Section, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("El título es requerido")
	}
	if in.OrderIndex != nil && *in.OrderIndex < 0 {
		return nil, apperr.Validation("La posición no puede ser negativa")
	}
	section := models.Section{
		Title:       title,
		Slug:        slug.Make(title),
		Description: nullIfEmpty(in.Description),
		ImageURL:    nullIfEmpty(in.ImageURL),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.OrderIndex != nil {
			section.OrderIndex = *in.OrderIndex
		} else {
			pos, err := nextOrderIndex(tx, &models.Section{}, nil)
			if err != nil {
				return err
			}
			section.OrderIndex = pos
		}
		return tx.Create(&section).Error
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("create section: %w", err))
	}
	s.log.Info("section created", "section_id", section.ID, "order_index", section.OrderIndex)
	return &section, nil
}

func (s *SectionService) Update(ctx context.Context, id uuid.UUID, patch SectionPatch) (*models.Section, error) {
	updates := map[string]interface{}{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.Validation("El título no puede estar vacío")
		}
		updates["title"] = title
		updates["slug"] = slug.Make(title)
	}
	if patch.Description != nil {
		updates["description"] = nullIfEmpty(patch.Description)
	}
	if patch.OrderIndex != nil {
		if *patch.OrderIndex < 0 {
			return nil, apperr.Validation("La posición no puede ser negativa")
		}
		updates["order_index"] = *patch.OrderIndex
	}
	if patch.ImageURL != nil {
		updates["image_url"] = nullIfEmpty(patch.ImageURL)
	}
	if len(updates) == 0 {
		return nil, apperr.Validation("No hay campos para actualizar")
	}
	updates["updated_at"] = s.now()

	res := s.db.WithContext(ctx).Model(&models.Section{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, apperr.Internal(fmt.Errorf("update section: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Sección no encontrada")
	}
	return s.Get(ctx, id)
}

// Delete removes the section; its links, videos and progress rows go with it
// through the foreign keys.
func (s *SectionService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Section{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Internal(fmt.Errorf("delete section: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Sección no encontrada")
	}
	s.log.Info("section deleted", "section_id", id)
	return nil
}

func utcNow() time.Time { return time.Now().UTC() }

func nullIfEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
