package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/services"
)

// CatalogBrowser is the part of the TMDB client the admin search screen uses.
type CatalogBrowser interface {
	Search(ctx context.Context, text string, page int) (*services.CatalogSearchPage, error)
	Popular(ctx context.Context, page int) (*services.CatalogSearchPage, error)
	NowPlaying(ctx context.Context, page int) (*services.CatalogSearchPage, error)
	FetchDetails(ctx context.Context, catalogID int) (*services.CatalogMovie, error)
	FetchAvailability(ctx context.Context, catalogID int, country string) (*services.Availability, error)
}

// catalogDetail is a catalog title with the region's offers next to its own
// fields.
type catalogDetail struct {
	*services.CatalogMovie
	Streaming *services.Availability `json:"streaming"`
}

type CatalogController struct {
	catalog CatalogBrowser
	region  string
	log     *logger.Logger
}

func NewCatalogController(catalog CatalogBrowser, region string, log *logger.Logger) *CatalogController {
	return &CatalogController{catalog: catalog, region: region, log: log.With("controller", "catalog")}
}

// Search godoc
// @Summary      Browse the TMDB catalog
// @Description  query searches by title, id returns details plus the region's offers, list returns popular or now playing titles.
// @Tags         catalog
// @Produce      json
// @Security     SessionCookie
// @Param        query  query  string  false  "Title text"
// @Param        page   query  int     false  "Page (1-500)"
// @Param        id     query  int     false  "TMDB id"
// @Param        list   query  string  false  "Listing" Enums(popular, now_playing)
// @Success      200  {object}  services.CatalogSearchPage
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /catalog-search [get]
func (cc *CatalogController) Search(c *gin.Context) {
	ctx := c.Request.Context()
	page := 1
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if rawID := c.Query("id"); rawID != "" {
		id, err := strconv.Atoi(rawID)
		if err != nil || id <= 0 {
			badRequest(c, "ID de TMDB inválido")
			return
		}
		cc.details(c, id)
		return
	}

	var (
		result *services.CatalogSearchPage
		err    error
	)
	switch list := c.Query("list"); list {
	case "popular":
		result, err = cc.catalog.Popular(ctx, page)
	case "now_playing":
		result, err = cc.catalog.NowPlaying(ctx, page)
	case "":
		query := strings.TrimSpace(c.Query("query"))
		if query == "" {
			badRequest(c, "Se requiere el parámetro query")
			return
		}
		result, err = cc.catalog.Search(ctx, query, page)
	default:
		badRequest(c, "Lista desconocida: "+list)
		return
	}
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (cc *CatalogController) details(c *gin.Context, id int) {
	ctx := c.Request.Context()
	movie, err := cc.catalog.FetchDetails(ctx, id)
	if err != nil {
		respondError(c, cc.log, err)
		return
	}
	// Offers are a nice-to-have on this screen.
	avail, err := cc.catalog.FetchAvailability(ctx, id, cc.region)
	if err != nil {
		cc.log.Warn("availability lookup failed", "tmdb_id", id, "error", err)
		avail = nil
	}
	c.JSON(http.StatusOK, catalogDetail{CatalogMovie: movie, Streaming: avail})
}
