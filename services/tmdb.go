package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vnkhanh/mente-abundante-backend/apperr"
	"github.com/vnkhanh/mente-abundante-backend/logger"
	"github.com/vnkhanh/mente-abundante-backend/models"
)

const (
	defaultTMDBBaseURL  = "https://api.themoviedb.org/3"
	defaultTMDBImageURL = "https://image.tmdb.org/t/p"

	PosterSearchSize = "w185"
	PosterDetailSize = "w342"
	BackdropSize     = "w780"
	LogoSize         = "w92"
)

// TMDB only serves these renditions; anything else 404s.
var imageSizes = map[string]bool{
	"w45": true, "w92": true, "w154": true, "w185": true, "w300": true,
	"w342": true, "w500": true, "w780": true, "w1280": true, "original": true,
}

// CatalogMovie is the TMDB /movie/{id} payload.
type CatalogMovie struct {
	ID            int            `json:"id"`
	Title         string         `json:"title"`
	OriginalTitle string         `json:"original_title"`
	Overview      string         `json:"overview"`
	PosterPath    string         `json:"poster_path"`
	BackdropPath  string         `json:"backdrop_path"`
	ReleaseDate   string         `json:"release_date"`
	VoteAverage   float64        `json:"vote_average"`
	Runtime       int            `json:"runtime"`
	Genres        []models.Genre `json:"genres"`
	PosterURL     string         `json:"poster_url,omitempty"`
	BackdropURL   string         `json:"backdrop_url,omitempty"`
}

type CatalogSearchResult struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	ReleaseDate   string  `json:"release_date"`
	VoteAverage   float64 `json:"vote_average"`
	PosterURL     string  `json:"poster_url,omitempty"`
}

type CatalogSearchPage struct {
	Page         int                   `json:"page"`
	TotalPages   int                   `json:"total_pages"`
	TotalResults int                   `json:"total_results"`
	Results      []CatalogSearchResult `json:"results"`
}

type Provider struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}

// Availability is one country's offers. TMDB calls subscription offers
// "flatrate"; here they are Stream.
type Availability struct {
	Link   string     `json:"link"`
	Stream []Provider `json:"flatrate"`
	Rent   []Provider `json:"rent"`
	Buy    []Provider `json:"buy"`
}

type watchProvidersResponse struct {
	ID      int                     `json:"id"`
	Results map[string]Availability `json:"results"`
}

type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	HTTPClient   *http.Client
	Cache        CatalogCache
	CacheTTL     time.Duration
}

type TMDBClient struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	client       *http.Client
	cache        CatalogCache
	cacheTTL     time.Duration
	log          *logger.Logger
}

func NewTMDBClient(cfg TMDBConfig, log *logger.Logger) *TMDBClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTMDBBaseURL
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = defaultTMDBImageURL
	}
	if cfg.Language == "" {
		cfg.Language = "es-MX"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &TMDBClient{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		language:     cfg.Language,
		client:       cfg.HTTPClient,
		cache:        cfg.Cache,
		cacheTTL:     cfg.CacheTTL,
		log:          log.With("service", "TMDBClient"),
	}
}

// ImageURL composes a TMDB image URL. Returns "" when there is no path or
// the size is not a TMDB rendition.
func (c *TMDBClient) ImageURL(path, size string) string {
	if path == "" || !imageSizes[size] {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBaseURL + "/" + size + path
}

func (c *TMDBClient) Search(ctx context.Context, text string, page int) (*CatalogSearchPage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("Se requiere un término de búsqueda o un ID")
	}
	params := url.Values{}
	params.Set("query", text)
	params.Set("page", strconv.Itoa(normalizePage(page)))
	params.Set("include_adult", "false")
	return c.listing(ctx, "/search/movie", params)
}

func (c *TMDBClient) Popular(ctx context.Context, page int) (*CatalogSearchPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(normalizePage(page)))
	return c.listing(ctx, "/movie/popular", params)
}

func (c *TMDBClient) NowPlaying(ctx context.Context, page int) (*CatalogSearchPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(normalizePage(page)))
	return c.listing(ctx, "/movie/now_playing", params)
}

func (c *TMDBClient) listing(ctx context.Context, path string, params url.Values) (*CatalogSearchPage, error) {
	var out CatalogSearchPage
	if err := c.get(ctx, path, params, true, &out); err != nil {
		return nil, err
	}
	for i := range out.Results {
		out.Results[i].PosterURL = c.ImageURL(out.Results[i].PosterPath, PosterSearchSize)
	}
	return &out, nil
}

func (c *TMDBClient) FetchDetails(ctx context.Context, catalogID int) (*CatalogMovie, error) {
	if catalogID <= 0 {
		return nil, apperr.Validation("ID de TMDB inválido")
	}
	var out CatalogMovie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", catalogID), url.Values{}, true, &out); err != nil {
		return nil, err
	}
	out.PosterURL = c.ImageURL(out.PosterPath, PosterDetailSize)
	out.BackdropURL = c.ImageURL(out.BackdropPath, BackdropSize)
	return &out, nil
}

// FetchAvailability returns the offers for one country, or nil when TMDB has
// none for it.
func (c *TMDBClient) FetchAvailability(ctx context.Context, catalogID int, country string) (*Availability, error) {
	if catalogID <= 0 {
		return nil, apperr.Validation("ID de TMDB inválido")
	}
	var out watchProvidersResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/watch/providers", catalogID), url.Values{}, false, &out); err != nil {
		return nil, err
	}
	avail, ok := out.Results[strings.ToUpper(country)]
	if !ok {
		return nil, nil
	}
	return &avail, nil
}

func (c *TMDBClient) get(ctx context.Context, path string, params url.Values, cacheable bool, out interface{}) error {
	if c.apiKey == "" {
		return apperr.CatalogUnavailable(errors.New("TMDB_API_KEY not configured"))
	}
	params.Set("language", c.language)
	cacheKey := "catalog:" + path + "?" + params.Encode()

	if cacheable && c.cache != nil {
		raw, ok, err := c.cache.Get(ctx, cacheKey)
		if err != nil {
			c.log.Warn("catalog cache read failed", "key", cacheKey, "error", err)
		} else if ok && json.Unmarshal(raw, out) == nil {
			return nil
		}
	}

	params.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return apperr.CatalogUnavailable(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperr.CatalogUnavailable(fmt.Errorf("GET %s: %w", path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.CatalogUnavailable(fmt.Errorf("read %s: %w", path, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.CatalogUnavailable(fmt.Errorf("GET %s: status %d", path, resp.StatusCode))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.CatalogUnavailable(fmt.Errorf("decode %s: %w", path, err))
	}

	if cacheable && c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, body, c.cacheTTL); err != nil {
			c.log.Warn("catalog cache write failed", "key", cacheKey, "error", err)
		}
	}
	return nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	if page > 500 {
		return 500
	}
	return page
}
