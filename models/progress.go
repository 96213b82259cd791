package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserProgress struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SectionID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"section_id"`
	Section     *Section   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MovieID     *uuid.UUID `gorm:"type:uuid" json:"movie_id"`
	Movie       *Movie     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	VideoID     *uuid.UUID `gorm:"type:uuid" json:"video_id"`
	Video       *Video     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }

func (p *UserProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
