package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vnkhanh/mente-abundante-backend/middleware"
	"github.com/vnkhanh/mente-abundante-backend/models"
	"github.com/vnkhanh/mente-abundante-backend/services"
	"github.com/vnkhanh/mente-abundante-backend/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type app struct {
	t         *testing.T
	router    *gin.Engine
	auth      *services.AuthService
	tmdbFails atomic.Bool
}

func newApp(t *testing.T) *app {
	t.Helper()
	a := &app{t: t}

	tmdb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.tmdbFails.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/movie/27205":
			_, _ = w.Write([]byte(`{"id":27205,"title":"El origen","original_title":"Inception","poster_path":"/inception.jpg","release_date":"2010-07-16","vote_average":8.4,"runtime":148,"genres":[{"id":28,"name":"Acción"}]}`))
		case "/movie/27205/watch/providers":
			_, _ = w.Write([]byte(`{"id":27205,"results":{"MX":{"flatrate":[{"provider_id":8,"provider_name":"Netflix","logo_path":"/netflix.jpg"}]}}}`))
		case "/search/movie":
			_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"total_results":1,"results":[{"id":27205,"title":"El origen","poster_path":"/inception.jpg"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(tmdb.Close)

	db := testutil.DB(t)
	log := testutil.Logger(t)
	catalog := services.NewTMDBClient(services.TMDBConfig{
		APIKey:       "test-key",
		BaseURL:      tmdb.URL,
		ImageBaseURL: "https://img.test/t/p",
	}, log)

	auth, err := services.NewAuthService(db, log, services.AuthConfig{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	movies := services.NewMovieService(db, catalog, "MX", log)
	storage, err := services.NewStorageService(services.StorageConfig{}, log)
	require.NoError(t, err)

	a.auth = auth
	a.router = SetupRouter(gin.New(), Deps{
		DB:       db,
		Log:      log,
		Auth:     auth,
		Sections: services.NewSectionService(db, movies, log),
		Movies:   movies,
		Videos:   services.NewVideoService(db, log),
		Progress: services.NewProgressService(db, log),
		Stats:    services.NewStatsService(db),
		Storage:  storage,
		Catalog:  catalog,
		Region:   "MX",

		EnableDocs: true,
	})
	return a
}

func (a *app) do(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *app) signIn(email string, role models.Role) *http.Cookie {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", gin.H{"email": email, "password": "secret1", "name": "Prueba"}, nil)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	if role != models.RoleStudent {
		var resp struct {
			User models.User `json:"user"`
		}
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp))
		_, err := a.auth.SetRole(context.Background(), resp.User.ID, role)
		require.NoError(a.t, err)
	}
	w = a.do(http.MethodPost, "/api/auth/login", gin.H{"email": email, "password": "secret1"}, nil)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(a.t, w)
}

func TestAuthCookieFlow(t *testing.T) {
	a := newApp(t)

	w := a.do(http.MethodPost, "/api/auth/register", gin.H{"email": "ana@example.com", "password": "secret1", "name": "Ana"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "ana@example.com", user["email"])
	assert.Equal(t, "student", user["role"])
	assert.NotContains(t, w.Body.String(), "password")

	w = a.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "secret1"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)
	assert.Len(t, cookie.Value, 64)

	w = a.do(http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "Ana", me["name"])

	w = a.do(http.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := sessionCookie(t, w)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	w = a.do(http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["user"])
}

func TestAuthErrors(t *testing.T) {
	a := newApp(t)
	a.signIn("ana@example.com", models.RoleStudent)

	w := a.do(http.MethodPost, "/api/auth/register", gin.H{"email": "ANA@example.com", "password": "secret1", "name": "Ana"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "conflict", decode(t, w)["code"])

	w = a.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ana@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w2 := a.do(http.MethodPost, "/api/auth/login", gin.H{"email": "nadie@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
	assert.Equal(t, decode(t, w)["error"], decode(t, w2)["error"])

	w = a.do(http.MethodPost, "/api/auth/register", gin.H{"email": "no-es-correo", "password": "secret1", "name": "X"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decode(t, w)["code"])
	assert.Equal(t, "Correo electrónico inválido", decode(t, w)["error"])

	w = a.do(http.MethodPost, "/api/auth/register", gin.H{"email": "luz@example.com", "password": "123", "name": "Luz"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "La contraseña debe tener al menos 6 caracteres", decode(t, w)["error"])
}

func TestAccessControl(t *testing.T) {
	a := newApp(t)

	w := a.do(http.MethodGet, "/api/sections", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	student := a.signIn("alumno@example.com", models.RoleStudent)
	w = a.do(http.MethodGet, "/api/sections", nil, student)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPost, "/api/sections", gin.H{"title": "Abundancia"}, student)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodGet, "/api/catalog-search?query=origen", nil, student)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminBuildsSectionFromCatalog(t *testing.T) {
	a := newApp(t)
	admin := a.signIn("admin@example.com", models.RoleAdmin)

	w := a.do(http.MethodPost, "/api/sections", gin.H{"title": "Abundancia y Prosperidad"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	section := decode(t, w)
	assert.Equal(t, "abundancia-y-prosperidad", section["slug"])
	assert.EqualValues(t, 1, section["order_index"])
	sectionID := section["id"].(string)

	w = a.do(http.MethodGet, "/api/catalog-search?query=origen", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	results := decode(t, w)["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "https://img.test/t/p/w185/inception.jpg", results[0].(map[string]interface{})["poster_url"])

	w = a.do(http.MethodPost, "/api/movies", gin.H{"tmdb_id": 27205, "section_id": sectionID, "instructor_notes": "Ver antes de la sesión 2"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	movieID := decode(t, w)["id"].(string)

	w = a.do(http.MethodGet, "/api/sections/"+sectionID+"/content", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var content services.SectionContent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &content))
	require.Len(t, content.Movies, 1)
	assert.Equal(t, "El origen", content.Movies[0].Title)
	require.NotNil(t, content.Movies[0].OrderIndex)
	assert.Equal(t, 1, *content.Movies[0].OrderIndex)
	require.Len(t, content.Movies[0].Streaming, 1)
	assert.Equal(t, "Netflix", content.Movies[0].Streaming[0].ProviderName)

	w = a.do(http.MethodGet, "/api/sections", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var summaries []services.SectionSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.EqualValues(t, 1, summaries[0].MovieCount)

	w = a.do(http.MethodDelete, "/api/sections/"+sectionID+"/movies/"+movieID, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodDelete, "/api/sections/"+sectionID+"/movies/"+movieID, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogOutageIsBadGateway(t *testing.T) {
	a := newApp(t)
	admin := a.signIn("admin@example.com", models.RoleAdmin)
	w := a.do(http.MethodPost, "/api/sections", gin.H{"title": "Sueños"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	sectionID := decode(t, w)["id"].(string)

	a.tmdbFails.Store(true)

	w = a.do(http.MethodPost, "/api/movies", gin.H{"tmdb_id": 27205, "section_id": sectionID}, admin)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "catalog_unavailable", decode(t, w)["code"])

	w = a.do(http.MethodGet, "/api/movies", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestMalformedIDsAreRejected(t *testing.T) {
	a := newApp(t)
	admin := a.signIn("admin@example.com", models.RoleAdmin)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/sections/no-uuid", nil, admin).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/movies?section_id=x", nil, admin).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/catalog-search?id=abc", nil, admin).Code)
}

func TestProgressIsPerUser(t *testing.T) {
	a := newApp(t)
	admin := a.signIn("admin@example.com", models.RoleAdmin)
	w := a.do(http.MethodPost, "/api/sections", gin.H{"title": "Gratitud"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	sectionID := decode(t, w)["id"].(string)

	student := a.signIn("alumno@example.com", models.RoleStudent)
	w = a.do(http.MethodPost, "/api/progress", gin.H{"section_id": sectionID, "completed": true}, student)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["completed"])

	w = a.do(http.MethodGet, "/api/progress", nil, student)
	require.Equal(t, http.StatusOK, w.Code)
	var mine []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	w = a.do(http.MethodGet, "/api/progress", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var theirs []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &theirs))
	assert.Empty(t, theirs)
}

func TestAdminStatsAndUploadWithoutStorage(t *testing.T) {
	a := newApp(t)
	admin := a.signIn("admin@example.com", models.RoleAdmin)

	w := a.do(http.MethodGet, "/api/admin/stats", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.EqualValues(t, 1, stats["users"])

	w = a.do(http.MethodPost, "/api/admin/uploads", nil, admin)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	w := a.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = a.do(http.MethodGet, "/ping", nil, nil)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestSwaggerDocsServed(t *testing.T) {
	a := newApp(t)
	w := a.do(http.MethodGet, "/swagger/doc.json", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/catalog-search"`)
	assert.Contains(t, w.Body.String(), `"Mente Abundante API"`)
}
