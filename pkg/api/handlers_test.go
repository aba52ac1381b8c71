package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ammar0144/movies4go/pkg/db/dbtest"
	"github.com/ammar0144/movies4go/pkg/jsonlog"
	"github.com/ammar0144/movies4go/pkg/models"
	"github.com/ammar0144/movies4go/pkg/serializer"
	"github.com/ammar0144/movies4go/pkg/store"
)

func newTestHandler(t *testing.T, cfg Config) http.Handler {
	t.Helper()

	dbm := dbtest.New(t, models.All()...)
	logger := jsonlog.New(io.Discard, jsonlog.LevelOff)
	s := New(cfg, logger, store.New(dbm, nil), dbm, nil)
	t.Cleanup(s.Close)
	return s.Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func mustStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("got status %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func TestCreateMovieAssignsID(t *testing.T) {
	h := newTestHandler(t, Config{})

	rr := do(t, h, http.MethodPost, "/movies/", `{"id":99,"title":"Solaris","year":1972,"rating":8.0,"genre_id":2,"director_id":1}`)
	mustStatus(t, rr, http.StatusNoContent)
	if rr.Body.Len() != 0 {
		t.Fatalf("POST should have an empty body, got %q", rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/movies/", "")
	mustStatus(t, rr, http.StatusOK)

	var movies []serializer.Movie
	decode(t, rr, &movies)
	if len(movies) != 1 {
		t.Fatalf("expected exactly one movie, got %d", len(movies))
	}
	m := movies[0]
	if m.ID == 99 || m.ID == 0 {
		t.Fatalf("expected a store-assigned id, got %d", m.ID)
	}
	if m.Title != "Solaris" || m.Year != 1972 || m.Rating != 8.0 || *m.GenreID != 2 || *m.DirectorID != 1 {
		t.Fatalf("stored movie does not match the submitted fields: %+v", m)
	}
}

func TestListMoviesFilter(t *testing.T) {
	h := newTestHandler(t, Config{})

	for _, body := range []string{
		`{"title":"A","director_id":1,"genre_id":2}`,
		`{"title":"B","director_id":2,"genre_id":1}`,
		`{"title":"C","director_id":1,"genre_id":1}`,
		`{"title":"D"}`,
	} {
		mustStatus(t, do(t, h, http.MethodPost, "/movies", body), http.StatusNoContent)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"A", "B", "C", "D"}},
		{"?director_id=1", []string{"A", "C"}},
		{"?genre_id=1", []string{"B", "C"}},
		{"?genre_id=2&director_id=2", []string{"A"}},
		{"?director_id=", []string{"A", "B", "C", "D"}},
		{"?director_id=42", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, "/movies/"+tt.query, "")
			mustStatus(t, rr, http.StatusOK)

			var movies []serializer.Movie
			decode(t, rr, &movies)
			if len(movies) != len(tt.want) {
				t.Fatalf("got %d movies, want %v", len(movies), tt.want)
			}
			for i, m := range movies {
				if m.Title != tt.want[i] {
					t.Fatalf("got %+v, want titles %v", movies, tt.want)
				}
			}
		})
	}

	rr := do(t, h, http.MethodGet, "/movies/?genre_id=abc", "")
	mustStatus(t, rr, http.StatusBadRequest)
	var env struct {
		Error map[string]string `json:"error"`
	}
	decode(t, rr, &env)
	if env.Error["genre_id"] == "" {
		t.Fatalf("expected a genre_id error, got %s", rr.Body.String())
	}
}

func TestUpdateDirectorKeepsID(t *testing.T) {
	h := newTestHandler(t, Config{})

	mustStatus(t, do(t, h, http.MethodPost, "/directors/", `{"name":"Tarkovsky"}`), http.StatusNoContent)

	rr := do(t, h, http.MethodPut, "/directors/1", `{"id":500,"name":"Andrei Tarkovsky"}`)
	mustStatus(t, rr, http.StatusOK)

	var updated serializer.Director
	decode(t, rr, &updated)
	if updated.ID != 1 || updated.Name != "Andrei Tarkovsky" {
		t.Fatalf("unexpected PUT response: %+v", updated)
	}

	rr = do(t, h, http.MethodGet, "/directors/1", "")
	mustStatus(t, rr, http.StatusOK)
	var got serializer.Director
	decode(t, rr, &got)
	if got != updated {
		t.Fatalf("GET after PUT returned %+v, want %+v", got, updated)
	}

	mustStatus(t, do(t, h, http.MethodGet, "/directors/500", ""), http.StatusNotFound)
}

func TestUpdateErrors(t *testing.T) {
	h := newTestHandler(t, Config{})

	mustStatus(t, do(t, h, http.MethodPost, "/movies/", `{"title":"Heat"}`), http.StatusNoContent)

	// Missing fields.
	rr := do(t, h, http.MethodPut, "/movies/1", `{"title":"Heat"}`)
	mustStatus(t, rr, http.StatusBadRequest)
	var env struct {
		Error map[string]string `json:"error"`
	}
	decode(t, rr, &env)
	if env.Error["year"] != "must be provided" {
		t.Fatalf("expected year to be reported missing, got %v", env.Error)
	}

	// Wrong type.
	full := `{"title":"Heat","description":"","trailer":"","year":"1995","rating":8.3,"genre_id":null,"director_id":null}`
	mustStatus(t, do(t, h, http.MethodPut, "/movies/1", full), http.StatusBadRequest)

	// Absent record.
	full = `{"title":"Heat","description":"","trailer":"","year":1995,"rating":8.3,"genre_id":null,"director_id":null}`
	mustStatus(t, do(t, h, http.MethodPut, "/movies/2", full), http.StatusNotFound)

	// Malformed body.
	mustStatus(t, do(t, h, http.MethodPut, "/genres/1", `{"name":`), http.StatusBadRequest)
	mustStatus(t, do(t, h, http.MethodPost, "/genres/", `["Noir"]`), http.StatusBadRequest)
	mustStatus(t, do(t, h, http.MethodPost, "/genres/", `{"name":"Noir","extra":1}`), http.StatusBadRequest)
}

func TestDeleteMissingGenre(t *testing.T) {
	h := newTestHandler(t, Config{})

	mustStatus(t, do(t, h, http.MethodPost, "/genres/", `{"name":"Noir"}`), http.StatusNoContent)

	rr := do(t, h, http.MethodDelete, "/genres/2", "")
	mustStatus(t, rr, http.StatusNotFound)
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("404 should be JSON, got Content-Type %q", ct)
	}

	rr = do(t, h, http.MethodGet, "/genres/", "")
	mustStatus(t, rr, http.StatusOK)
	var genres []serializer.Genre
	decode(t, rr, &genres)
	if len(genres) != 1 || genres[0].Name != "Noir" {
		t.Fatalf("store changed after failed delete: %+v", genres)
	}

	mustStatus(t, do(t, h, http.MethodDelete, "/genres/1", ""), http.StatusNoContent)
	mustStatus(t, do(t, h, http.MethodGet, "/genres/1", ""), http.StatusNotFound)
}

func TestGenreRoundTrip(t *testing.T) {
	h := newTestHandler(t, Config{})

	mustStatus(t, do(t, h, http.MethodPost, "/genres/", `{"name":"Noir"}`), http.StatusNoContent)

	rr := do(t, h, http.MethodGet, "/genres/", "")
	mustStatus(t, rr, http.StatusOK)
	var genres []map[string]interface{}
	decode(t, rr, &genres)
	if len(genres) != 1 || len(genres[0]) != 2 || genres[0]["name"] != "Noir" {
		t.Fatalf("unexpected genre list: %v", genres)
	}
	id := genres[0]["id"].(float64)

	rr = do(t, h, http.MethodGet, "/genres/1", "")
	mustStatus(t, rr, http.StatusOK)
	var one map[string]interface{}
	decode(t, rr, &one)
	if one["id"] != id || one["name"] != "Noir" || len(one) != 2 {
		t.Fatalf("GET by id returned %v, want id %v and name Noir", one, id)
	}

	want := "{\n    \"id\": 1,\n    \"name\": \"Noir\"\n}\n"
	if rr.Body.String() != want {
		t.Fatalf("got body %q, want %q", rr.Body.String(), want)
	}
}

func TestDeleteReferencedDirector(t *testing.T) {
	h := newTestHandler(t, Config{})

	mustStatus(t, do(t, h, http.MethodPost, "/directors/", `{"name":"Lynch"}`), http.StatusNoContent)
	mustStatus(t, do(t, h, http.MethodPost, "/movies/", `{"title":"Eraserhead","director_id":1}`), http.StatusNoContent)

	mustStatus(t, do(t, h, http.MethodDelete, "/directors/1", ""), http.StatusNoContent)

	rr := do(t, h, http.MethodGet, "/movies/1", "")
	mustStatus(t, rr, http.StatusOK)
	var m serializer.Movie
	decode(t, rr, &m)
	if m.DirectorID == nil || *m.DirectorID != 1 {
		t.Fatalf("movie should keep its dangling director_id, got %+v", m)
	}

	rr = do(t, h, http.MethodGet, "/movies/1/detail", "")
	mustStatus(t, rr, http.StatusOK)
	var d serializer.MovieDetail
	decode(t, rr, &d)
	if d.Title != "Eraserhead" || d.DirectorName != nil {
		t.Fatalf("unexpected detail: %+v", d)
	}
}

func TestMovieDetail(t *testing.T) {
	h := newTestHandler(t, Config{})

	mustStatus(t, do(t, h, http.MethodPost, "/directors/", `{"name":"Kurosawa"}`), http.StatusNoContent)
	mustStatus(t, do(t, h, http.MethodPost, "/genres/", `{"name":"Jidaigeki"}`), http.StatusNoContent)
	mustStatus(t, do(t, h, http.MethodPost, "/movies/", `{"title":"Ran","director_id":1,"genre_id":1}`), http.StatusNoContent)

	rr := do(t, h, http.MethodGet, "/movies/1/detail", "")
	mustStatus(t, rr, http.StatusOK)
	var d serializer.MovieDetail
	decode(t, rr, &d)
	if d.DirectorName == nil || *d.DirectorName != "Kurosawa" || d.GenreName == nil || *d.GenreName != "Jidaigeki" {
		t.Fatalf("unexpected detail: %+v", d)
	}

	mustStatus(t, do(t, h, http.MethodGet, "/movies/2/detail", ""), http.StatusNotFound)
}

func TestRouting(t *testing.T) {
	h := newTestHandler(t, Config{})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/movies", http.StatusOK},
		{http.MethodGet, "/directors/", http.StatusOK},
		{http.MethodGet, "/genres", http.StatusOK},
		{http.MethodGet, "/movies/abc", http.StatusNotFound},
		{http.MethodGet, "/movies/1", http.StatusNotFound},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
		{http.MethodPatch, "/movies/1", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/genres/", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.path, "")
			mustStatus(t, rr, tt.want)
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected a JSON response, got Content-Type %q", ct)
			}
			if rr.Header().Get("X-Request-ID") == "" {
				t.Fatalf("missing X-Request-ID header")
			}
		})
	}

	rr := do(t, h, http.MethodGet, "/movies/", "")
	if rr.Body.String() != "[]\n" {
		t.Fatalf("empty collection should be [], got %q", rr.Body.String())
	}
}

func TestHealthcheck(t *testing.T) {
	h := newTestHandler(t, Config{Env: "testing"})

	rr := do(t, h, http.MethodGet, "/healthcheck", "")
	mustStatus(t, rr, http.StatusOK)

	var body map[string]string
	decode(t, rr, &body)
	if body["status"] != "available" || body["environment"] != "testing" || body["database"] != "up" || body["cache"] != "disabled" {
		t.Fatalf("unexpected healthcheck: %v", body)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := Config{}
	cfg.Limiter.Enabled = true
	cfg.Limiter.RPS = 0.001
	cfg.Limiter.Burst = 2
	h := newTestHandler(t, cfg)

	mustStatus(t, do(t, h, http.MethodGet, "/genres/", ""), http.StatusOK)
	mustStatus(t, do(t, h, http.MethodGet, "/genres/", ""), http.StatusOK)
	mustStatus(t, do(t, h, http.MethodGet, "/genres/", ""), http.StatusTooManyRequests)
}

func TestCloseStopsRateLimitSweeper(t *testing.T) {
	cfg := Config{}
	cfg.Limiter.Enabled = true
	cfg.Limiter.RPS = 1
	cfg.Limiter.Burst = 1

	dbm := dbtest.New(t, models.All()...)
	s := New(cfg, jsonlog.New(io.Discard, jsonlog.LevelOff), store.New(dbm, nil), dbm, nil)
	_ = s.Routes()
	_ = s.Routes()

	closed := make(chan struct{})
	go func() {
		s.Close()
		s.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatalf("Close did not wait out the limiter sweepers")
	}
}

func TestJSONDoesNotEscapeHTML(t *testing.T) {
	h := newTestHandler(t, Config{})

	mustStatus(t, do(t, h, http.MethodPost, "/movies/", `{"title":"Tom & Jerry","trailer":"https://example.com/watch?v=1&t=2"}`), http.StatusNoContent)

	rr := do(t, h, http.MethodGet, "/movies/1", "")
	mustStatus(t, rr, http.StatusOK)
	body := rr.Body.String()
	if strings.Contains(body, `\u0026`) {
		t.Fatalf("ampersand was escaped: %s", body)
	}
	if !strings.Contains(body, `"trailer": "https://example.com/watch?v=1&t=2"`) || !strings.Contains(body, `"title": "Tom & Jerry"`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestCORS(t *testing.T) {
	cfg := Config{}
	cfg.CORS.TrustedOrigins = []string{"https://movies.example"}
	h := newTestHandler(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/movies/1", nil)
	req.Header.Set("Origin", "https://movies.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	mustStatus(t, rr, http.StatusOK)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://movies.example" {
		t.Fatalf("unexpected Access-Control-Allow-Origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/movies/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("untrusted origin should get no CORS header, got %q", got)
	}
}

func TestRecoverPanic(t *testing.T) {
	s := New(Config{}, jsonlog.New(io.Discard, jsonlog.LevelOff), nil, nil, nil)
	h := s.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	mustStatus(t, rr, http.StatusInternalServerError)
	if rr.Header().Get("Connection") != "close" {
		t.Fatalf("expected Connection: close")
	}
}
