package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VideoType string

const (
	VideoYouTube  VideoType = "youtube"
	VideoVimeo    VideoType = "vimeo"
	VideoUploaded VideoType = "uploaded"
)

func (t VideoType) Valid() bool {
	switch t {
	case VideoYouTube, VideoVimeo, VideoUploaded:
		return true
	}
	return false
}

// Video is instructor material. OrderIndex is scoped to (section, movie); a
// nil MovieID is its own scope.
type Video struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  *string    `gorm:"type:text" json:"description"`
	VideoType    VideoType  `gorm:"type:varchar(20);not null" json:"video_type"`
	VideoURL     string     `gorm:"column:video_url;type:text;not null" json:"video_url"`
	ThumbnailURL *string    `gorm:"column:thumbnail_url;type:text" json:"thumbnail_url"`
	Duration     *int       `json:"duration"`
	SectionID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"section_id"`
	Section      *Section   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	MovieID      *uuid.UUID `gorm:"type:uuid;index" json:"movie_id"`
	Movie        *Movie     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	OrderIndex   int        `gorm:"not null;default:0" json:"order_index"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
