package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/models"
	"github.com/vnkhanh/mente-abundante-backend/testutil"
)

func TestCreateSectionAssignsNextPosition(t *testing.T) {
	f := newMovieFixture(t)
	ctx := context.Background()

	a := f.section(t, "Autoestima")
	b := f.section(t, "Propósito de Vida")
	explicit, err := f.sections.Create(ctx, SectionInput{Title: "Destacada", OrderIndex: intPtr(10)})
	require.NoError(t, err)
	c := f.section(t, "Relaciones")

	assert.Equal(t, 1, a.OrderIndex)
	assert.Equal(t, 2, b.OrderIndex)
	assert.Equal(t, 10, explicit.OrderIndex)
	assert.Equal(t, 11, c.OrderIndex)
	assert.Equal(t, "proposito-de-vida", b.Slug)

	_, err = f.sections.Create(ctx, SectionInput{Title: "   "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateSectionAppliesOnlyPresentFields(t *testing.T) {
	f := newMovieFixture(t)
	ctx := context.Background()
	section, err := f.sections.Create(ctx, SectionInput{Title: "Miedo", Description: strPtr("Enfrentar el miedo")})
	require.NoError(t, err)

	updated, err := f.sections.Update(ctx, section.ID, SectionPatch{Title: strPtr("Valentía y miedo")})
	require.NoError(t, err)
	assert.Equal(t, "Valentía y miedo", updated.Title)
	assert.Equal(t, "valentia-y-miedo", updated.Slug)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Enfrentar el miedo", *updated.Description)
	assert.Equal(t, section.OrderIndex, updated.OrderIndex)

	updated, err = f.sections.Update(ctx, section.ID, SectionPatch{Description: strPtr(""), OrderIndex: intPtr(7)})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)
	assert.Equal(t, 7, updated.OrderIndex)
	assert.Equal(t, "Valentía y miedo", updated.Title)

	_, err = f.sections.Update(ctx, section.ID, SectionPatch{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.sections.Update(ctx, uuid.New(), SectionPatch{Title: strPtr("x")})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSectionUpdateStampsUTC(t *testing.T) {
	f := newMovieFixture(t)
	ctx := context.Background()
	assert.Equal(t, time.UTC, f.sections.now().Location())

	stamp := time.Date(2026, 5, 4, 12, 30, 0, 0, time.UTC)
	f.sections.now = func() time.Time { return stamp }
	section := f.section(t, "Paz")

	updated, err := f.sections.Update(ctx, section.ID, SectionPatch{Title: strPtr("Paz interior")})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.Equal(stamp), "updated_at = %s", updated.UpdatedAt)
}

func TestDeleteSectionCascades(t *testing.T) {
	f := newMovieFixture(t)
	ctx := context.Background()
	auth, err := NewAuthService(f.db, testutil.Logger(t), AuthConfig{BcryptCost: 4})
	require.NoError(t, err)
	user, err := auth.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "secret1", Name: "Ana"})
	require.NoError(t, err)

	section := f.section(t, "Duelo")
	movie, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &section.ID})
	require.NoError(t, err)
	videos := NewVideoService(f.db, testutil.Logger(t))
	_, err = videos.Create(ctx, VideoInput{Title: "Intro", VideoType: models.VideoYouTube, VideoURL: "https://youtu.be/a", SectionID: section.ID})
	require.NoError(t, err)
	_, err = NewProgressService(f.db, testutil.Logger(t)).Mark(ctx, user.ID, ProgressInput{SectionID: section.ID, MovieID: &movie.ID, Completed: true})
	require.NoError(t, err)

	require.NoError(t, f.sections.Delete(ctx, section.ID))

	assert.Equal(t, int64(0), f.count(t, &models.Section{}))
	assert.Equal(t, int64(0), f.count(t, &models.SectionMovie{}))
	assert.Equal(t, int64(0), f.count(t, &models.Video{}))
	assert.Equal(t, int64(0), f.count(t, &models.UserProgress{}))
	assert.Equal(t, int64(1), f.count(t, &models.Movie{}))

	err = f.sections.Delete(ctx, section.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListSectionsWithCounts(t *testing.T) {
	f := newMovieFixture(t)
	ctx := context.Background()
	videos := NewVideoService(f.db, testutil.Logger(t))

	full := f.section(t, "Completa")
	empty := f.section(t, "Vacía")
	_, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &full.ID})
	require.NoError(t, err)
	movie, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 550, SectionID: &full.ID})
	require.NoError(t, err)
	for _, movieID := range []*uuid.UUID{nil, nil, &movie.ID} {
		_, err := videos.Create(ctx, VideoInput{Title: "v", VideoType: models.VideoVimeo, VideoURL: "https://vimeo.com/1", SectionID: full.ID, MovieID: movieID})
		require.NoError(t, err)
	}

	list, err := f.sections.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, full.ID, list[0].ID)
	assert.Equal(t, int64(2), list[0].MovieCount)
	assert.Equal(t, int64(3), list[0].VideoCount)
	assert.Equal(t, empty.ID, list[1].ID)
	assert.Equal(t, int64(0), list[1].MovieCount)
	assert.Equal(t, int64(0), list[1].VideoCount)
}

func TestSectionContentAndSlugLookup(t *testing.T) {
	f := newMovieFixture(t)
	ctx := context.Background()
	videos := NewVideoService(f.db, testutil.Logger(t))

	section := f.section(t, "Amor Propio")
	movie, err := f.movies.AddMovieToSection(ctx, AddMovieInput{TMDBID: 27205, SectionID: &section.ID, InstructorNotes: strPtr("nota")})
	require.NoError(t, err)
	_, err = videos.Create(ctx, VideoInput{Title: "Bienvenida", VideoType: models.VideoYouTube, VideoURL: "https://youtu.be/a", SectionID: section.ID})
	require.NoError(t, err)
	_, err = videos.Create(ctx, VideoInput{Title: "Sobre la película", VideoType: models.VideoYouTube, VideoURL: "https://youtu.be/b", SectionID: section.ID, MovieID: &movie.ID})
	require.NoError(t, err)

	content, err := f.sections.Content(ctx, section.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amor Propio", content.Section.Title)
	require.Len(t, content.Movies, 1)
	assert.Len(t, content.Movies[0].Streaming, 3)
	assert.Equal(t, "nota", *content.Movies[0].InstructorNotes)
	require.Len(t, content.Videos, 1)
	assert.Equal(t, "Bienvenida", content.Videos[0].Title)

	bySlug, err := f.sections.GetBySlug(ctx, "amor-propio")
	require.NoError(t, err)
	assert.Equal(t, section.ID, bySlug.ID)

	_, err = f.sections.GetBySlug(ctx, "no-existe")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = f.sections.Content(ctx, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func intPtr(v int) *int { return &v }
