package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/services"
)

var (
	sectionMessages = bindMessages{
		"Title":      "El título es requerido",
		"OrderIndex": "La posición no puede ser negativa",
	}
	sectionPatchMessages = bindMessages{
		"Title":      "El título no puede estar vacío",
		"OrderIndex": "La posición no puede ser negativa",
	}
)

type SectionController struct {
	sections *services.SectionService
	notify   ContentNotifier
	log      *logger.Logger
}

func NewSectionController(sections *services.SectionService, notify ContentNotifier, log *logger.Logger) *SectionController {
	return &SectionController{sections: sections, notify: notifierOrNoop(notify), log: log.With("controller", "sections")}
}

// List godoc
// @Summary      List sections with item counts
// @Tags         sections
// @Produce      json
// @Security     SessionCookie
// @Success      200  {array}  services.SectionSummary
// @Router       /sections [get]
func (sc *SectionController) List(c *gin.Context) {
	sections, err := sc.sections.List(c.Request.Context())
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, sections)
}

// Get godoc
// @Summary      Get a section
// @Tags         sections
// @Produce      json
// @Security     SessionCookie
// @Param        id  path  string  true  "Section ID"
// @Success      200  {object}  models.Section
// @Failure      404  {object}  map[string]string
// @Router       /sections/{id} [get]
func (sc *SectionController) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	section, err := sc.sections.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

// GetBySlug godoc
// @Summary      Get a section by slug
// @Tags         sections
// @Produce      json
// @Security     SessionCookie
// @Param        slug  path  string  true  "Section slug"
// @Success      200  {object}  models.Section
// @Failure      404  {object}  map[string]string
// @Router       /sections/by-slug/{slug} [get]
func (sc *SectionController) GetBySlug(c *gin.Context) {
	section, err := sc.sections.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

// Content godoc
// @Summary      Section with its movies, offers and videos
// @Tags         sections
// @Produce      json
// @Security     SessionCookie
// @Param        id  path  string  true  "Section ID"
// @Success      200  {object}  services.SectionContent
// @Failure      404  {object}  map[string]string
// @Router       /sections/{id}/content [get]
func (sc *SectionController) Content(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	content, err := sc.sections.Content(c.Request.Context(), id)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// Create godoc
// @Summary      Create a section
// @Tags         sections
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        body  body  services.SectionInput  true  "Section"
// @Success      201  {object}  models.Section
// @Failure      400  {object}  map[string]string
// @Router       /sections [post]
func (sc *SectionController) Create(c *gin.Context) {
	var input services.SectionInput
	if !bindJSON(c, &input, sectionMessages) {
		return
	}
	section, err := sc.sections.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	sc.notify.ContentChanged("section", "created", section.ID.String())
	c.JSON(http.StatusCreated, section)
}

// Update godoc
// @Summary      Update a section
// @Description  Omitted fields are left unchanged; an empty string clears description or image.
// @Tags         sections
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        id    path  string                 true  "Section ID"
// @Param        body  body  services.SectionPatch  true  "Changed fields"
// @Success      200  {object}  models.Section
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /sections/{id} [put]
func (sc *SectionController) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var patch services.SectionPatch
	if !bindJSON(c, &patch, sectionPatchMessages) {
		return
	}
	section, err := sc.sections.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, sc.log, err)
		return
	}
	sc.notify.ContentChanged("section", "updated", section.ID.String())
	c.JSON(http.StatusOK, section)
}

// Delete godoc
// @Summary      Delete a section and its links, videos and progress
// @Tags         sections
// @Produce      json
// @Security     SessionCookie
// @Param        id  path  string  true  "Section ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /sections/{id} [delete]
func (sc *SectionController) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := sc.sections.Delete(c.Request.Context(), id); err != nil {
		respondError(c, sc.log, err)
		return
	}
	sc.notify.ContentChanged("section", "deleted", id.String())
	c.JSON(http.StatusOK, gin.H{"message": "Sección eliminada"})
}
