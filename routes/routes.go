package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/vnkhanh/mente-abundante-backend/controllers"
	_ "github.com/vnkhanh/mente-abundante-backend/docs"
	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/middleware"
	"github.com/vnkhanh/mente-abundante-backend/models"
	"github.com/vnkhanh/mente-abundante-backend/services"
	"github.com/vnkhanh/mente-abundante-backend/ws"
)

// Deps is everything the router hands to controllers. Redis, Storage and Hub
// may be nil.
type Deps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Auth     *services.AuthService
	Sections *services.SectionService
	Movies   *services.MovieService
	Videos   *services.VideoService
	Progress *services.ProgressService
	Stats    *services.StatsService
	Storage  *services.StorageService
	Catalog  controllers.CatalogBrowser
	Region   string

	Hub            *ws.Hub
	AllowedOrigins []string
	SecureCookie   bool
	EnableDocs     bool

	Redis           redis.Cmdable
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

func SetupRouter(r *gin.Engine, d Deps) *gin.Engine {
	var notify controllers.ContentNotifier
	var stats controllers.StatsProvider
	if d.Hub != nil {
		notify = d.Hub
		stats = d.Hub
	}

	health := controllers.NewHealthController(d.DB, stats)
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", health.Check)
	if d.EnableDocs {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authCtl := controllers.NewAuthController(d.Auth, d.SecureCookie, d.Log)
	sectionCtl := controllers.NewSectionController(d.Sections, notify, d.Log)
	movieCtl := controllers.NewMovieController(d.Movies, notify, d.Log)
	videoCtl := controllers.NewVideoController(d.Videos, notify, d.Log)
	catalogCtl := controllers.NewCatalogController(d.Catalog, d.Region, d.Log)
	progressCtl := controllers.NewProgressController(d.Progress, d.Log)
	adminCtl := controllers.NewAdminController(d.Stats, d.Auth, d.Storage, d.Log)

	requireAuth := middleware.AuthMiddleware(d.Auth, d.Log)
	requireAdmin := middleware.RequireRoles(models.RoleAdmin)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		limited := middleware.RateLimitMiddleware(d.Redis, d.LoginRateLimit, d.LoginRateWindow, d.Log)
		auth.POST("/register", limited, authCtl.Register)
		auth.POST("/login", limited, authCtl.Login)
		auth.POST("/logout", authCtl.Logout)
		auth.GET("/me", middleware.OptionalAuthMiddleware(d.Auth, d.Log), authCtl.Me)
	}

	// Reads are for any signed-in user.
	member := api.Group("")
	member.Use(requireAuth)
	{
		member.GET("/sections", sectionCtl.List)
		member.GET("/sections/by-slug/:slug", sectionCtl.GetBySlug)
		member.GET("/sections/:id", sectionCtl.Get)
		member.GET("/sections/:id/content", sectionCtl.Content)

		member.GET("/movies", movieCtl.List)
		member.GET("/movies/:id", movieCtl.Get)

		member.GET("/videos", videoCtl.List)

		member.GET("/progress", progressCtl.List)
		member.POST("/progress", progressCtl.Mark)
	}

	admin := api.Group("")
	admin.Use(requireAuth, requireAdmin)
	{
		admin.POST("/sections", sectionCtl.Create)
		admin.PUT("/sections/:id", sectionCtl.Update)
		admin.DELETE("/sections/:id", sectionCtl.Delete)
		admin.DELETE("/sections/:id/movies/:movieId", movieCtl.Unlink)

		admin.POST("/movies", movieCtl.Create)

		admin.POST("/videos", videoCtl.Create)
		admin.DELETE("/videos/:id", videoCtl.Delete)

		admin.GET("/catalog-search", catalogCtl.Search)

		admin.GET("/admin/stats", adminCtl.Stats)
		admin.POST("/admin/uploads", adminCtl.Upload)
		admin.PATCH("/admin/users/:id/role", adminCtl.SetRole)
	}

	if d.Hub != nil {
		wsHandler := ws.NewHandler(d.Hub, d.AllowedOrigins)
		r.GET("/ws/status", requireAuth, requireAdmin, wsHandler.HandleStatus)
	}

	return r
}
