package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/models"
	"github.com/vnkhanh/mente-abundante-backend/testutil"
)

type movieFixture struct {
	db       *gorm.DB
	tmdb     *fakeTMDB
	movies   *MovieService
	sections *SectionService
}

func newMovieFixture(t *testing.T) *movieFixture {
	t.Helper()
	db := testutil.DB(t)
	fake := newFakeTMDB(t)
	movies := NewMovieService(db, fake.client(), "MX", testutil.Logger(t))
	return &movieFixture{
		db:       db,
		tmdb:     fake,
		movies:   movies,
		sections: NewSectionService(db, movies, testutil.Logger(t)),
	}
}

func (f *movieFixture) section(t *testing.T, title string) *models.Section {
	t.Helper()
	s, err := f.sections.Create(context.Background(), SectionInput{Title: title})
	require.NoError(t, err)
	return s
}

func (f *movieFixture) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func strPtr(s string) *string { return &s }

func TestAddMovieToSectionStoresMovieAndOffers(t *testing.T) {
	f := newMovieFixture(t)
	section := f.section(t, "Propósito de vida")

	movie, err := f.movies.AddMovieToSection(context.Background(), AddMovieInput{
		TMDBID:          27205,
		SectionID:       &section.ID,
		InstructorNotes: strPtr("Observa cómo cambia la meta del protagonista"),
	})
	require.NoError(t, err)

	assert.Equal(t, 27205, movie.TMDBID)
	assert.Equal(t, "El origen", movie.Title)
	require.NotNil(t, movie.Runtime)
	assert.Equal(t, 148, *movie.Runtime)
	require.NotNil(t, movie.ReleaseDate)
	assert.Equal(t, "2010-07-16", movie.ReleaseDate.Format("2006-01-02"))
	assert.Len(t, movie.Genres, 2)

	var offers []models.MovieStreaming
	require.NoError(t, f.db.Where("movie_id = ?", movie.ID).Order("link_type, provider_name").Find(&offers).Error)
	require.Len(t, offers, 3)
	assert.Equal(t, models.LinkBuy, offers[0].LinkType)
	assert.Equal(t, models.LinkRent, offers[1].LinkType)
	assert.Equal(t, models.LinkStream, offers[2].LinkType)
	assert.Equal(t, "Netflix", offers[2].ProviderName)
	assert.Equal(t, "MX", offers[2].CountryCode)
	require.NotNil(t, offers[2].ProviderLogo)
	assert.Equal(t, "/netflix.jpg", *offers[2].ProviderLogo)

	var link models.SectionMovie
	require.NoError(t, f.db.Where("section_id = ? AND movie_id = ?", section.ID, movie.ID).Take(&link).Error)
	assert.Equal(t, 1, link.OrderIndex)
	require.NotNil(t, link.InstructorNotes)
}

func TestAddMovieToSectionTwiceKeepsOneLinkAndPosition(t *testing.T) {
	f := newMovieFixture(t)
	section := f.section(t, "Resiliencia")
	ctx := context.Background()

	first, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &section.ID, InstructorNotes: strPtr("primera nota")})
	require.NoError(t, err)
	_, err = f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 550, SectionID: &section.ID})
	require.NoError(t, err)
	second, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &section.ID, InstructorNotes: strPtr("segunda nota")})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(2), f.count(t, &models.Movie{}))
	assert.Equal(t, int64(2), f.count(t, &models.SectionMovie{}))
	assert.Equal(t, int32(2), f.tmdb.detailsCalls.Load())

	var link models.SectionMovie
	require.NoError(t, f.db.Where("section_id = ? AND movie_id = ?", section.ID, first.ID).Take(&link).Error)
	assert.Equal(t, 1, link.OrderIndex)
	require.NotNil(t, link.InstructorNotes)
	assert.Equal(t, "segunda nota", *link.InstructorNotes)

	items, err := f.movies.ListMovies(ctx, &section.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 27205, items[0].TMDBID)
	assert.Equal(t, 550, items[1].TMDBID)
	assert.Equal(t, 2, *items[1].OrderIndex)
}

func TestReaddingWithoutNotesClearsThem(t *testing.T) {
	f := newMovieFixture(t)
	section := f.section(t, "Gratitud")
	ctx := context.Background()
	notes := func(movieID uuid.UUID) *string {
		var link models.SectionMovie
		require.NoError(t, f.db.Where("section_id = ? AND movie_id = ?", section.ID, movieID).Take(&link).Error)
		assert.Equal(t, 1, link.OrderIndex)
		return link.InstructorNotes
	}

	movie, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &section.ID, InstructorNotes: strPtr("vieja")})
	require.NoError(t, err)
	require.NotNil(t, notes(movie.ID))

	_, err = f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &section.ID})
	require.NoError(t, err)
	assert.Nil(t, notes(movie.ID))

	_, err = f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &section.ID, InstructorNotes: strPtr("nueva")})
	require.NoError(t, err)
	require.NotNil(t, notes(movie.ID))

	_, err = f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &section.ID, InstructorNotes: strPtr("   ")})
	require.NoError(t, err)
	assert.Nil(t, notes(movie.ID))
	assert.Equal(t, int64(1), f.count(t, &models.SectionMovie{}))
}

func TestSameMovieInTwoSections(t *testing.T) {
	f := newMovieFixture(t)
	a := f.section(t, "A")
	b := f.section(t, "B")
	ctx := context.Background()

	_, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 550, SectionID: &a.ID})
	require.NoError(t, err)
	_, err = f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &b.ID})
	require.NoError(t, err)
	_, err = f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 550, SectionID: &b.ID})
	require.NoError(t, err)

	assert.Equal(t, int64(2), f.count(t, &models.Movie{}))
	assert.Equal(t, int64(3), f.count(t, &models.SectionMovie{}))

	items, err := f.movies.ListMovies(ctx, &b.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, *items[1].OrderIndex)
}

func TestAvailabilityFailureStillKeepsMovie(t *testing.T) {
	f := newMovieFixture(t)
	f.tmdb.setProvidersStatus(http.StatusInternalServerError)
	section := f.section(t, "Perdón")

	movie, err := f.movies.AddMovieToSection(context.Background(), AddMovieInput{TMDBID: 27205, SectionID: &section.ID})
	require.NoError(t, err)

	assert.Equal(t, "El origen", movie.Title)
	assert.Equal(t, int64(1), f.count(t, &models.Movie{}))
	assert.Equal(t, int64(0), f.count(t, &models.MovieStreaming{}))
	assert.Equal(t, int64(1), f.count(t, &models.SectionMovie{}))
}

func TestNoOffersForRegion(t *testing.T) {
	f := newMovieFixture(t)

	movie, err := f.movies.AddMovieToSection(context.Background(), AddMovieInput{TMDBID: 550})
	require.NoError(t, err)

	assert.Nil(t, movie.PosterPath)
	assert.Nil(t, movie.ReleaseDate)
	assert.Nil(t, movie.Runtime)
	assert.Equal(t, int64(0), f.count(t, &models.MovieStreaming{}))
	assert.Equal(t, int64(0), f.count(t, &models.SectionMovie{}))
}

func TestDetailsFailurePersistsNothing(t *testing.T) {
	f := newMovieFixture(t)
	section := f.section(t, "Abundancia")

	_, err := f.movies.AddMovieToSection(context.Background(), AddMovieInput{TMDBID: 424242, SectionID: &section.ID})

	assert.Equal(t, apperr.KindCatalogUnavailable, apperr.KindOf(err))
	assert.Equal(t, int64(0), f.count(t, &models.Movie{}))
	assert.Equal(t, int64(0), f.count(t, &models.SectionMovie{}))
	assert.Zero(t, f.tmdb.providersCalls.Load())
}

func TestAddMovieValidatesInput(t *testing.T) {
	f := newMovieFixture(t)
	missing := uuid.New()

	_, err := f.movies.AddMovieToSection(context.Background(), AddMovieInput{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.movies.AddMovieToSection(context.Background(), AddMovieInput{TMDBID: 27205, SectionID: &missing})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Zero(t, f.tmdb.detailsCalls.Load())
}

func TestConcurrentCreatorWinsInsertRace(t *testing.T) {
	f := newMovieFixture(t)
	winner := models.Movie{TMDBID: 27205, Title: "El origen (otra petición)", Genres: []models.Genre{}}
	f.tmdb.beforeDetails = func() {
		assert.NoError(t, f.db.Create(&winner).Error)
	}

	movie, err := f.movies.AddMovieToSection(context.Background(), AddMovieInput{TMDBID: 27205})
	require.NoError(t, err)

	assert.Equal(t, winner.ID, movie.ID)
	assert.Equal(t, int64(1), f.count(t, &models.Movie{}))
	assert.Zero(t, f.tmdb.providersCalls.Load())
}

func TestIngestionOutlivesCallerCancellation(t *testing.T) {
	f := newMovieFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.tmdb.beforeDetails = cancel

	movie, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205})
	require.NoError(t, err)

	assert.Equal(t, "El origen", movie.Title)
	assert.Equal(t, int64(1), f.count(t, &models.Movie{}))
	assert.Equal(t, int32(1), f.tmdb.providersCalls.Load())
}

func TestMovieDetailAndUnlink(t *testing.T) {
	f := newMovieFixture(t)
	section := f.section(t, "Valentía")
	ctx := context.Background()
	movie, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &section.ID})
	require.NoError(t, err)
	video := models.Video{Title: "Análisis", VideoType: models.VideoYouTube, VideoURL: "https://youtu.be/x", SectionID: section.ID, MovieID: &movie.ID, OrderIndex: 1}
	require.NoError(t, f.db.Create(&video).Error)

	detail, err := f.movies.GetMovieDetail(ctx, movie.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Streaming, 3)
	require.Len(t, detail.Videos, 1)
	assert.Equal(t, "https://image.tmdb.org/t/p/w342/inception.jpg", detail.PosterURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/w780/inception-bg.jpg", detail.BackdropURL)

	_, err = f.movies.GetMovieDetail(ctx, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, f.movies.RemoveFromSection(ctx, section.ID, movie.ID))
	err = f.movies.RemoveFromSection(ctx, section.ID, movie.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, int64(1), f.count(t, &models.Movie{}))
}

func TestListAllMoviesByTitle(t *testing.T) {
	f := newMovieFixture(t)
	ctx := context.Background()
	_, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 550})
	require.NoError(t, err)
	_, err = f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205})
	require.NoError(t, err)

	items, err := f.movies.ListMovies(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "El club de la pelea", items[0].Title)
	assert.Equal(t, "El origen", items[1].Title)
	assert.Nil(t, items[0].OrderIndex)
	assert.Equal(t, "https://image.tmdb.org/t/p/w185/inception.jpg", items[1].PosterURL)
}
