package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/models"
	"github.com/vnkhanh/mente-abundante-backend/services"
)

type AdminController struct {
	stats          *services.StatsService
	auth           *services.AuthService
	storage        *services.StorageService
	maxUploadBytes int64
	log            *logger.Logger
}

func NewAdminController(stats *services.StatsService, auth *services.AuthService, storage *services.StorageService, log *logger.Logger) *AdminController {
	return &AdminController{
		stats:          stats,
		auth:           auth,
		storage:        storage,
		maxUploadBytes: services.MaxUploadRequestBytes,
		log:            log.With("controller", "admin"),
	}
}

// Stats godoc
// @Summary      Dashboard counts
// @Tags         admin
// @Produce      json
// @Security     SessionCookie
// @Success      200  {object}  services.DashboardStats
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /admin/stats [get]
func (ac *AdminController) Stats(c *gin.Context) {
	stats, err := ac.stats.Counts(c.Request.Context())
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type roleInput struct {
	Role models.Role `json:"role" binding:"required,oneof=student instructor admin"`
}

var roleMessages = bindMessages{"Role": "Rol inválido"}

// SetRole godoc
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     SessionCookie
// @Param        id    path  string     true  "User ID"
// @Param        body  body  roleInput  true  "student, instructor or admin"
// @Success      200  {object}  map[string]models.User
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /admin/users/{id}/role [patch]
func (ac *AdminController) SetRole(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var input roleInput
	if !bindJSON(c, &input, roleMessages) {
		return
	}
	user, err := ac.auth.SetRole(c.Request.Context(), id, input.Role)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Upload godoc
// @Summary      Upload an image or video
// @Tags         admin
// @Accept       multipart/form-data
// @Produce      json
// @Security     SessionCookie
// @Param        file  formData  file    true   "File"
// @Param        kind  formData  string  false  "Upload kind" Enums(image, video)
// @Success      201  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      413  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /admin/uploads [post]
func (ac *AdminController) Upload(c *gin.Context) {
	if ac.storage == nil || !ac.storage.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "El almacenamiento no está configurado", "code": apperr.KindInternal})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ac.maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "El archivo excede el tamaño permitido", "code": apperr.KindValidation})
			return
		}
		badRequest(c, "Falta el archivo")
		return
	}
	kind := services.UploadKind(c.DefaultPostForm("kind", string(services.UploadImage)))
	url, err := ac.storage.Upload(c.Request.Context(), kind, fh)
	if err != nil {
		respondError(c, ac.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
