package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

const inceptionJSON = `{
	"id": 27205,
	"title": "El origen",
	"original_title": "Inception",
	"overview": "Un ladrón que roba secretos a través de los sueños.",
	"poster_path": "/inception.jpg",
	"backdrop_path": "/inception-bg.jpg",
	"release_date": "2010-07-16",
	"vote_average": 8.4,
	"runtime": 148,
	"genres": [{"id": 28, "name": "Acción"}, {"id": 878, "name": "Ciencia ficción"}]
}`

const fightClubJSON = `{
	"id": 550,
	"title": "El club de la pelea",
	"original_title": "Fight Club",
	"overview": "",
	"poster_path": null,
	"backdrop_path": null,
	"release_date": "",
	"vote_average": 8.4,
	"runtime": 0,
	"genres": []
}`

const inceptionProvidersJSON = `{
	"id": 27205,
	"results": {
		"MX": {
			"link": "https://www.themoviedb.org/movie/27205/watch?locale=MX",
			"flatrate": [{"provider_id": 8, "provider_name": "Netflix", "logo_path": "/netflix.jpg", "display_priority": 1}],
			"rent": [{"provider_id": 2, "provider_name": "Apple TV", "logo_path": "/apple.jpg", "display_priority": 4}],
			"buy": [
				{"provider_id": 2, "provider_name": "Apple TV", "logo_path": "/apple.jpg", "display_priority": 4},
				{"provider_id": 2, "provider_name": "Apple TV", "logo_path": "/apple.jpg", "display_priority": 4}
			]
		},
		"US": {"link": "https://www.themoviedb.org/movie/27205/watch?locale=US", "flatrate": []}
	}
}`

const searchJSON = `{
	"page": 1,
	"total_pages": 1,
	"total_results": 2,
	"results": [
		{"id": 27205, "title": "El origen", "original_title": "Inception", "poster_path": "/inception.jpg", "release_date": "2010-07-16", "vote_average": 8.4},
		{"id": 64956, "title": "Inception: The Cobol Job", "original_title": "Inception: The Cobol Job", "poster_path": null, "release_date": "2010-12-07", "vote_average": 7.5}
	]
}`

// fakeTMDB serves canned TMDB responses and records what it was asked.
type fakeTMDB struct {
	server *httptest.Server

	detailsCalls   atomic.Int32
	providersCalls atomic.Int32
	searchCalls    atomic.Int32

	mu              sync.Mutex
	detailsStatus   int
	providersStatus int
	lastQuery       map[string]string
	beforeDetails   func()
}

func newFakeTMDB(t *testing.T) *fakeTMDB {
	t.Helper()
	f := &fakeTMDB{}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTMDB) setDetailsStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailsStatus = code
}

func (f *fakeTMDB) setProvidersStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providersStatus = code
}

func (f *fakeTMDB) query() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func (f *fakeTMDB) client() *TMDBClient {
	return NewTMDBClient(TMDBConfig{
		APIKey:       "test-key",
		BaseURL:      f.server.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p",
		Language:     "es-MX",
		HTTPClient:   f.server.Client(),
	}, nopLogger())
}

func (f *fakeTMDB) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	q := map[string]string{}
	for k := range r.URL.Query() {
		q[k] = r.URL.Query().Get(k)
	}
	f.lastQuery = q
	detailsStatus, providersStatus, before := f.detailsStatus, f.providersStatus, f.beforeDetails
	f.mu.Unlock()

	if r.URL.Query().Get("api_key") != "test-key" {
		http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	path := r.URL.Path
	switch {
	case path == "/search/movie" || path == "/movie/popular" || path == "/movie/now_playing":
		f.searchCalls.Add(1)
		fmt.Fprint(w, searchJSON)
	case strings.HasSuffix(path, "/watch/providers"):
		f.providersCalls.Add(1)
		if providersStatus != 0 {
			w.WriteHeader(providersStatus)
			return
		}
		if path == "/movie/27205/watch/providers" {
			fmt.Fprint(w, inceptionProvidersJSON)
			return
		}
		fmt.Fprint(w, `{"id": 550, "results": {}}`)
	case strings.HasPrefix(path, "/movie/"):
		f.detailsCalls.Add(1)
		if before != nil {
			before()
		}
		if detailsStatus != 0 {
			w.WriteHeader(detailsStatus)
			fmt.Fprint(w, `{"status_message":"The resource you requested could not be found."}`)
			return
		}
		switch path {
		case "/movie/27205":
			fmt.Fprint(w, inceptionJSON)
		case "/movie/550":
			fmt.Fprint(w, fightClubJSON)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"status_message":"The resource you requested could not be found."}`)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
