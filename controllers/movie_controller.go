package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/services"
)

var addMovieMessages = bindMessages{"TMDBID": "Se requiere el ID de TMDB"}

type MovieController struct {
	movies *services.MovieService
	notify ContentNotifier
	log    *logger.Logger
}

func NewMovieController(movies *services.MovieService, notify ContentNotifier, log *logger.Logger) *MovieController {
	return &MovieController{movies: movies, notify: notifierOrNoop(notify), log: log.With("controller", "movies")}
}

// List godoc
// @Summary      List movies
// @Description  A section's movies in position order, or every movie by title.
// @Tags         movies
// @Produce      json
// @Security     SessionCookie
// @Param        section_id  query  string  false  "Section ID"
// @Success      200  {array}   services.MovieListItem
// @Failure      400  {object}  map[string]string
// @Router       /movies [get]
func (mc *MovieController) List(c *gin.Context) {
	sectionID, ok := optionalUUIDQuery(c, "section_id")
	if !ok {
		return
	}
	movies, err := mc.movies.ListMovies(c.Request.Context(), sectionID)
	if err != nil {
		respondError(c, mc.log, err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

// Get godoc
// @Summary      Movie detail with offers and videos
// @Tags         movies
// @Produce      json
// @Security     SessionCookie
// @Param        id  path  string  true  "Movie ID"
// @Success      200  {object}  services.MovieDetail
// @Failure      404  {object}  map[string]string
// @Router       /movies/{id} [get]
func (mc *MovieController) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	detail, err := mc.movies.GetMovieDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, mc.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Create godoc
// @Summary      Import a TMDB title and optionally link it to a section
// @Tags         movies
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body  services.AddMovieInput  true  "TMDB id, section and notes"
// @Success      201  {object}  models.Movie
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /movies [post]
func (mc *MovieController) Create(c *gin.Context) {
	var input services.AddMovieInput
	if !bindJSON(c, &input, addMovieMessages) {
		return
	}
	movie, err := mc.movies.AddMovieToSection(c.Request.Context(), input)
	if err != nil {
		respondError(c, mc.log, err)
		return
	}
	mc.notify.ContentChanged("movie", "created", movie.ID.String())
	c.JSON(http.StatusCreated, movie)
}

// Unlink godoc
// @Summary      Remove a movie from a section
// @Tags         sections
// @Produce      json
// @Security     SessionCookie
// @Param        id       path  string  true  "Section ID"
// @Param        movieId  path  string  true  "Movie ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /sections/{id}/movies/{movieId} [delete]
func (mc *MovieController) Unlink(c *gin.Context) {
	sectionID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	movieID, ok := uuidParam(c, "movieId")
	if !ok {
		return
	}
	if err := mc.movies.RemoveFromSection(c.Request.Context(), sectionID, movieID); err != nil {
		respondError(c, mc.log, err)
		return
	}
	mc.notify.ContentChanged("section", "updated", sectionID.String())
	c.JSON(http.StatusOK, gin.H{"message": "Película quitada de la sección"})
}
