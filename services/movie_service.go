package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/models"
)

// Catalog is the part of the TMDB client the ingestion flow needs.
type Catalog interface {
	FetchDetails(ctx context.Context, catalogID int) (*CatalogMovie, error)
	FetchAvailability(ctx context.Context, catalogID int, country string) (*Availability, error)
	ImageURL(path, size string) string
}

type AddMovieInput struct {
	TMDBID          int        `json:"tmdb_id" binding:"required,min=1"`
	SectionID       *uuid.UUID `json:"section_id"`
	InstructorNotes *string    `json:"instructor_notes"`
}

// MovieListItem is a movie as it appears inside a section listing.
type MovieListItem struct {
	models.Movie
	OrderIndex      *int    `json:"order_index,omitempty"`
	InstructorNotes *string `json:"instructor_notes,omitempty"`
	PosterURL       string  `json:"poster_url,omitempty"`
}

type MovieDetail struct {
	models.Movie
	PosterURL   string         `json:"poster_url,omitempty"`
	BackdropURL string         `json:"backdrop_url,omitempty"`
	Videos      []models.Video `json:"videos"`
}

type MovieService struct {
	db      *gorm.DB
	catalog Catalog
	region  string
	log     *logger.Logger
	group   singleflight.Group
}

func NewMovieService(db *gorm.DB, catalog Catalog, region string, log *logger.Logger) *MovieService {
	if region == "" {
		region = "MX"
	}
	return &MovieService{
		db:      db,
		catalog: catalog,
		region:  strings.ToUpper(region),
		log:     log.With("service", "MovieService"),
	}
}

// AddMovieToSection makes sure a local copy of the catalog title exists and,
// when a section is given, links it there. Re-adding a linked movie keeps its
// position and replaces its notes; missing or blank notes clear them.
func (s *MovieService) AddMovieToSection(ctx context.Context, in AddMovieInput) (*models.Movie, error) {
	if in.TMDBID <= 0 {
		return nil, apperr.Validation("Se requiere el ID de TMDB")
	}
	if in.SectionID != nil {
		if err := s.requireSection(ctx, *in.SectionID); err != nil {
			return nil, err
		}
	}

	movie, err := s.ensureMovie(ctx, in.TMDBID)
	if err != nil {
		return nil, err
	}

	if in.SectionID != nil {
		if err := s.linkToSection(ctx, *in.SectionID, movie.ID, in.InstructorNotes); err != nil {
			return nil, err
		}
	}
	return movie, nil
}

func (s *MovieService) requireSection(ctx context.Context, id uuid.UUID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Section{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperr.Internal(fmt.Errorf("check section: %w", err))
	}
	if count == 0 {
		return apperr.NotFound("Sección no encontrada")
	}
	return nil
}

// ensureMovie collapses concurrent ingestions of the same title in this
// process; across processes the unique tmdb_id index decides.
func (s *MovieService) ensureMovie(ctx context.Context, tmdbID int) (*models.Movie, error) {
	v, err, _ := s.group.Do(strconv.Itoa(tmdbID), func() (interface{}, error) {
		// shared by every waiter, so one caller going away must not abort it
		return s.fetchOrCreate(context.WithoutCancel(ctx), tmdbID)
	})
	if err != nil {
		return nil, err
	}
	movie := *v.(*models.Movie)
	return &movie, nil
}

func (s *MovieService) fetchOrCreate(ctx context.Context, tmdbID int) (*models.Movie, error) {
	db := s.db.WithContext(ctx)

	existing, err := s.findByTMDBID(db, tmdbID)
	if err != nil || existing != nil {
		return existing, err
	}

	details, err := s.catalog.FetchDetails(ctx, tmdbID)
	if err != nil {
		return nil, err
	}

	movie := movieFromCatalog(tmdbID, details)
	if err := db.Create(&movie).Error; err != nil {
		if !isUniqueViolation(err) {
			return nil, apperr.Internal(fmt.Errorf("create movie: %w", err))
		}
		// another request created it first; use that row and leave
		// enrichment to its creator
		s.log.Info("movie created concurrently, reusing", "tmdb_id", tmdbID)
		existing, err := s.findByTMDBID(db, tmdbID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperr.Internal(fmt.Errorf("movie %d vanished after duplicate insert", tmdbID))
		}
		return existing, nil
	}

	s.log.Info("movie ingested", "movie_id", movie.ID, "tmdb_id", tmdbID)
	s.enrich(ctx, &movie)
	return &movie, nil
}

func (s *MovieService) findByTMDBID(db *gorm.DB, tmdbID int) (*models.Movie, error) {
	var movie models.Movie
	err := db.Where("tmdb_id = ?", tmdbID).Take(&movie).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load movie: %w", err))
	}
	return &movie, nil
}

// enrich stores streaming offers. Failures are logged and dropped; the movie
// is already saved.
func (s *MovieService) enrich(ctx context.Context, movie *models.Movie) {
	avail, err := s.catalog.FetchAvailability(ctx, movie.TMDBID, s.region)
	if err != nil {
		s.log.Warn("streaming availability unavailable", "tmdb_id", movie.TMDBID, "error", err)
		return
	}
	if avail == nil {
		s.log.Debug("no streaming offers for region", "tmdb_id", movie.TMDBID, "region", s.region)
		return
	}

	rows := streamingRows(movie.ID, s.region, avail)
	if len(rows) == 0 {
		return
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "movie_id"}, {Name: "provider_name"}, {Name: "link_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"provider_logo", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		s.log.Warn("store streaming offers failed", "movie_id", movie.ID, "error", err)
		return
	}
	movie.Streaming = rows
}

func streamingRows(movieID uuid.UUID, region string, avail *Availability) []models.MovieStreaming {
	var rows []models.MovieStreaming
	seen := map[string]bool{}
	add := func(providers []Provider, lt models.LinkType) {
		for _, p := range providers {
			name := strings.TrimSpace(p.ProviderName)
			key := string(lt) + "|" + name
			if name == "" || seen[key] {
				continue
			}
			seen[key] = true
			row := models.MovieStreaming{
				MovieID:      movieID,
				ProviderName: name,
				LinkType:     lt,
				CountryCode:  region,
			}
			if p.LogoPath != "" {
				logo := p.LogoPath
				row.ProviderLogo = &logo
			}
			rows = append(rows, row)
		}
	}
	add(avail.Stream, models.LinkStream)
	add(avail.Rent, models.LinkRent)
	add(avail.Buy, models.LinkBuy)
	return rows
}

func movieFromCatalog(tmdbID int, d *CatalogMovie) models.Movie {
	m := models.Movie{
		TMDBID:        tmdbID,
		Title:         d.Title,
		OriginalTitle: d.OriginalTitle,
		Overview:      d.Overview,
		PosterPath:    optionalString(d.PosterPath),
		BackdropPath:  optionalString(d.BackdropPath),
		VoteAverage:   d.VoteAverage,
		Genres:        d.Genres,
	}
	if m.Genres == nil {
		m.Genres = []models.Genre{}
	}
	if d.Runtime > 0 {
		runtime := d.Runtime
		m.Runtime = &runtime
	}
	if t, err := time.Parse("2006-01-02", d.ReleaseDate); err == nil {
		m.ReleaseDate = &t
	}
	return m
}

func (s *MovieService) linkToSection(ctx context.Context, sectionID, movieID uuid.UUID, notes *string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos, err := nextOrderIndex(tx, &models.SectionMovie{}, func(q *gorm.DB) *gorm.DB {
			return q.Where("section_id = ?", sectionID)
		})
		if err != nil {
			return err
		}
		link := models.SectionMovie{
			SectionID:       sectionID,
			MovieID:         movieID,
			OrderIndex:      pos,
			InstructorNotes: nullIfEmpty(notes),
		}
		// an existing link keeps its position; its notes are always rewritten
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "section_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"instructor_notes"}),
		}).Create(&link).Error
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("link movie to section: %w", err))
	}
	return nil
}

// ListMovies returns a section's movies in order, or every movie by title
// when no section is given.
func (s *MovieService) ListMovies(ctx context.Context, sectionID *uuid.UUID) ([]MovieListItem, error) {
	db := s.db.WithContext(ctx)
	if sectionID == nil {
		var movies []models.Movie
		if err := db.Order("title ASC").Find(&movies).Error; err != nil {
			return nil, apperr.Internal(fmt.Errorf("list movies: %w", err))
		}
		items := make([]MovieListItem, 0, len(movies))
		for _, m := range movies {
			items = append(items, MovieListItem{Movie: m, PosterURL: s.posterURL(m.PosterPath)})
		}
		return items, nil
	}
	return s.sectionMovies(db, *sectionID, false)
}

func (s *MovieService) sectionMovies(db *gorm.DB, sectionID uuid.UUID, withStreaming bool) ([]MovieListItem, error) {
	q := db.Where("section_id = ?", sectionID).Order("order_index ASC")
	if withStreaming {
		q = q.Preload("Movie.Streaming", func(db *gorm.DB) *gorm.DB {
			return db.Order("link_type ASC, provider_name ASC")
		})
	} else {
		q = q.Preload("Movie")
	}
	var links []models.SectionMovie
	if err := q.Find(&links).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("list section movies: %w", err))
	}
	items := make([]MovieListItem, 0, len(links))
	for _, l := range links {
		if l.Movie == nil {
			continue
		}
		pos := l.OrderIndex
		items = append(items, MovieListItem{
			Movie:           *l.Movie,
			OrderIndex:      &pos,
			InstructorNotes: l.InstructorNotes,
			PosterURL:       s.posterURL(l.Movie.PosterPath),
		})
	}
	return items, nil
}

func (s *MovieService) GetMovieDetail(ctx context.Context, id uuid.UUID) (*MovieDetail, error) {
	db := s.db.WithContext(ctx)
	var movie models.Movie
	err := db.Preload("Streaming", func(db *gorm.DB) *gorm.DB {
		return db.Order("link_type ASC, provider_name ASC")
	}).Take(&movie, "id = ?", id).Error
	if isNotFound(err) {
		return nil, apperr.NotFound("Película no encontrada")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load movie: %w", err))
	}

	var videos []models.Video
	if err := db.Where("movie_id = ?", id).Order("order_index ASC").Find(&videos).Error; err != nil {
		return nil, apperr.Internal(fmt.Errorf("load movie videos: %w", err))
	}

	detail := &MovieDetail{Movie: movie, Videos: videos}
	if movie.PosterPath != nil {
		detail.PosterURL = s.catalog.ImageURL(*movie.PosterPath, PosterDetailSize)
	}
	if movie.BackdropPath != nil {
		detail.BackdropURL = s.catalog.ImageURL(*movie.BackdropPath, BackdropSize)
	}
	return detail, nil
}

// RemoveFromSection unlinks a movie. Other positions are left as they are.
func (s *MovieService) RemoveFromSection(ctx context.Context, sectionID, movieID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("section_id = ? AND movie_id = ?", sectionID, movieID).
		Delete(&models.SectionMovie{})
	if res.Error != nil {
		return apperr.Internal(fmt.Errorf("unlink movie: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("La película no está en esta sección")
	}
	return nil
}

func (s *MovieService) posterURL(path *string) string {
	if path == nil {
		return ""
	}
	return s.catalog.ImageURL(*path, PosterSearchSize)
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
