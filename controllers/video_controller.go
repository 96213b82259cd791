package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/services"
)

var videoMessages = bindMessages{
	"VideoType.oneof": "El tipo de video debe ser youtube, vimeo o uploaded",
	"Duration.min":    "La duración no puede ser negativa",
	"required":        "Título, tipo de video, URL y sección son requeridos",
}

type VideoController struct {
	videos *services.VideoService
	notify ContentNotifier
	log    *logger.Logger
}

func NewVideoController(videos *services.VideoService, notify ContentNotifier, log *logger.Logger) *VideoController {
	return &VideoController{videos: videos, notify: notifierOrNoop(notify), log: log.With("controller", "videos")}
}

// List godoc
// @Summary      List videos
// @Tags         videos
// @Produce      json
// @Security     SessionCookie
// @Param        section_id  query  string  false  "Section ID"
// @Param        movie_id    query  string  false  "Movie ID"
// @Success      200  {array}   models.Video
// @Router       /videos [get]
func (vc *VideoController) List(c *gin.Context) {
	sectionID, ok := optionalUUIDQuery(c, "section_id")
	if !ok {
		return
	}
	movieID, ok := optionalUUIDQuery(c, "movie_id")
	if !ok {
		return
	}
	videos, err := vc.videos.List(c.Request.Context(), services.VideoFilter{SectionID: sectionID, MovieID: movieID})
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

// Create godoc
// @Summary      Add a video to a section
// @Tags         videos
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body  services.VideoInput  true  "Video"
// @Success      201  {object}  models.Video
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /videos [post]
func (vc *VideoController) Create(c *gin.Context) {
	var input services.VideoInput
	if !bindJSON(c, &input, videoMessages) {
		return
	}
	video, err := vc.videos.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, vc.log, err)
		return
	}
	vc.notify.ContentChanged("video", "created", video.ID.String())
	c.JSON(http.StatusCreated, video)
}

// Delete godoc
// @Summary      Delete a video
// @Tags         videos
// @Produce      json
// @Security     SessionCookie
// @Param        id  path  string  true  "Video ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /videos/{id} [delete]
func (vc *VideoController) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := vc.videos.Delete(c.Request.Context(), id); err != nil {
		respondError(c, vc.log, err)
		return
	}
	vc.notify.ContentChanged("video", "deleted", id.String())
	c.JSON(http.StatusOK, gin.H{"message": "Video eliminado"})
}
