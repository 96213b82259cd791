package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Section struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"size:255;index" json:"slug"`
	Description *string   `gorm:"type:text" json:"description"`
	OrderIndex  int       `gorm:"not null;default:0;index" json:"order_index"`
	ImageURL    *string   `gorm:"column:image_url;type:text" json:"image_url"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SectionMovie places a movie inside a section. One row per pair.
type SectionMovie struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_section_movie" json:"section_id"`
	Section         *Section  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MovieID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_section_movie;index" json:"movie_id"`
	Movie           *Movie    `gorm:"constraint:OnDelete:CASCADE" json:"movie,omitempty"`
	OrderIndex      int       `gorm:"not null;default:0" json:"order_index"`
	InstructorNotes *string   `gorm:"type:text" json:"instructor_notes"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (sm *SectionMovie) BeforeCreate(tx *gorm.DB) error {
	if sm.ID == uuid.Nil {
		sm.ID = uuid.New()
	}
	return nil
}
