package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/middleware"
	"github.com/vnkhanh/mente-abundante-backend/services"
)

var progressMessages = bindMessages{"SectionID": "La sección es requerida"}

type ProgressController struct {
	progress *services.ProgressService
	log      *logger.Logger
}

func NewProgressController(progress *services.ProgressService, log *logger.Logger) *ProgressController {
	return &ProgressController{progress: progress, log: log.With("controller", "progress")}
}

// List godoc
// @Summary      Own progress
// @Tags         progress
// @Produce      json
// @Security     SessionCookie
// @Param        section_id  query  string  false  "Section ID"
// @Success      200  {array}   models.UserProgress
// @Router       /progress [get]
func (pc *ProgressController) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	sectionID, ok := optionalUUIDQuery(c, "section_id")
	if !ok {
		return
	}
	items, err := pc.progress.List(c.Request.Context(), user.ID, sectionID)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Mark godoc
// @Summary      Mark an item completed or not
// @Tags         progress
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body  services.ProgressInput  true  "Progress item"
// @Success      200  {object}  models.UserProgress
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /progress [post]
func (pc *ProgressController) Mark(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var input services.ProgressInput
	if !bindJSON(c, &input, progressMessages) {
		return
	}
	item, err := pc.progress.Mark(c.Request.Context(), user.ID, input)
	if err != nil {
		respondError(c, pc.log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
