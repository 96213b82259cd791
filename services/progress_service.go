package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/models"
)

type ProgressInput struct {
	SectionID uuid.UUID  `json:"section_id" binding:"required"`
	MovieID   *uuid.UUID `json:"movie_id"`
	VideoID   *uuid.UUID `json:"video_id"`
	Completed bool       `json:"completed"`
}

type ProgressService struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewProgressService(db *gorm.DB, log *logger.Logger) *ProgressService {
	return &ProgressService{db: db, log: log.With("service", "ProgressService"), now: utcNow}
}

func nullableEq(q *gorm.DB, column string, v *uuid.UUID) *gorm.DB {
	if v == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *v)
}

// Mark records (or clears) completion of a section item for a user. There is
// one row per user and (section, movie, video) tuple.
func (s *ProgressService) Mark(ctx context.Context, userID uuid.UUID, in ProgressInput) (*models.UserProgress, error) {
	if in.SectionID == uuid.Nil {
		return nil, apperr.Validation("La sección es requerida")
	}
	var progress models.UserProgress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Section{}).Where("id = ?", in.SectionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.NotFound("Sección no encontrada")
		}

		q := tx.Where("user_id = ? AND section_id = ?", userID, in.SectionID)
		q = nullableEq(q, "movie_id", in.MovieID)
		q = nullableEq(q, "video_id", in.VideoID)
		err := q.Take(&progress).Error
		if err != nil && !isNotFound(err) {
			return err
		}
		if isNotFound(err) {
			progress = models.UserProgress{
				UserID:    userID,
				SectionID: in.SectionID,
				MovieID:   in.MovieID,
				VideoID:   in.VideoID,
			}
		}
		progress.Completed = in.Completed
		if in.Completed {
			if progress.CompletedAt == nil {
				now := s.now()
				progress.CompletedAt = &now
			}
		} else {
			progress.CompletedAt = nil
		}
		return tx.Save(&progress).Error
	})
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		return nil, apperr.Internal(fmt.Errorf("mark progress: %w", err))
	}
	return &progress, nil
}

func (s *ProgressService) List(ctx context.Context, userID uuid.UUID, sectionID *uuid.UUID) ([]models.UserProgress, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if sectionID != nil {
		q = q.Where("section_id = ?", *sectionID)
	}
	rows := []models.UserProgress{}
	if err := q.Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("list progress: %w", err))
	}
	return rows, nil
}
