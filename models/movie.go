package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie is the local copy of a catalog title. Created once per tmdb_id and
// never refreshed by ingestion.
type Movie struct {
	ID            uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	TMDBID        int                        `gorm:"column:tmdb_id;uniqueIndex;not null" json:"tmdb_id"`
	Title         string                     `gorm:"size:255;not null" json:"title"`
	OriginalTitle string                     `gorm:"size:255" json:"original_title"`
	Overview      string                     `gorm:"type:text" json:"overview"`
	PosterPath    *string                    `gorm:"size:255" json:"poster_path"`
	BackdropPath  *string                    `gorm:"size:255" json:"backdrop_path"`
	ReleaseDate   *time.Time                 `gorm:"type:date" json:"release_date"`
	VoteAverage   float64                    `gorm:"type:decimal(3,1)" json:"vote_average"`
	Runtime       *int                       `json:"runtime"`
	Genres        datatypes.JSONSlice[Genre] `json:"genres"`
	CreatedAt     time.Time                  `gorm:"autoCreateTime" json:"created_at"`

	Streaming []MovieStreaming `gorm:"foreignKey:MovieID;constraint:OnDelete:CASCADE" json:"streaming,omitempty"`
}

func (m *Movie) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type LinkType string

const (
	LinkStream LinkType = "stream"
	LinkRent   LinkType = "rent"
	LinkBuy    LinkType = "buy"
)

// MovieStreaming is one provider offer for a movie. Unique per
// (movie, provider, link type); re-ingesting refreshes the logo.
type MovieStreaming struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MovieID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_movie_provider_link" json:"movie_id"`
	ProviderName string    `gorm:"size:255;not null;uniqueIndex:idx_movie_provider_link" json:"provider_name"`
	ProviderLogo *string   `gorm:"size:255" json:"provider_logo"`
	LinkType     LinkType  `gorm:"type:varchar(10);not null;uniqueIndex:idx_movie_provider_link" json:"link_type"`
	CountryCode  string    `gorm:"size:2;not null;default:'MX'" json:"country_code"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MovieStreaming) TableName() string { return "movie_streaming" }

func (ms *MovieStreaming) BeforeCreate(tx *gorm.DB) error {
	if ms.ID == uuid.Nil {
		ms.ID = uuid.New()
	}
	return nil
}
