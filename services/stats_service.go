package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/models"
)

type DashboardStats struct {
	Sections int64 `json:"sections"`
	Movies   int64 `json:"movies"`
	Videos   int64 `json:"videos"`
	Users    int64 `json:"users"`
}

type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) Counts(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	var out DashboardStats
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.Section{}, &out.Sections},
		{&models.Movie{}, &out.Movies},
		{&models.Video{}, &out.Videos},
		{&models.User{}, &out.Users},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, apperr.Internal(fmt.Errorf("dashboard counts: %w", err))
		}
	}
	return &out, nil
}
