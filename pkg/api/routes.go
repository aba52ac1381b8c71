package api

import (
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes returns the application's HTTP handler. Collection routes answer
// with and without the trailing slash; item ids must be decimal integers.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.metrics)
	r.Use(s.requestID)
	r.Use(s.recoverPanic)
	r.Use(s.enableCORS)
	r.Use(middleware.RealIP)
	r.Use(s.rateLimit)

	r.NotFound(s.notFoundResponse)
	r.MethodNotAllowed(s.methodNotAllowedResponse)

	r.Get("/healthcheck", s.healthcheckHandler)
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())

	for _, path := range []string{"/movies", "/movies/"} {
		r.Get(path, s.listMoviesHandler)
		r.Post(path, s.createMovieHandler)
	}
	r.Get("/movies/{id:[0-9]+}", s.showMovieHandler)
	r.Put("/movies/{id:[0-9]+}", s.updateMovieHandler)
	r.Delete("/movies/{id:[0-9]+}", s.deleteMovieHandler)
	r.Get("/movies/{id:[0-9]+}/detail", s.showMovieDetailHandler)

	for _, path := range []string{"/directors", "/directors/"} {
		r.Get(path, s.listDirectorsHandler)
		r.Post(path, s.createDirectorHandler)
	}
	r.Get("/directors/{id:[0-9]+}", s.showDirectorHandler)
	r.Put("/directors/{id:[0-9]+}", s.updateDirectorHandler)
	r.Delete("/directors/{id:[0-9]+}", s.deleteDirectorHandler)

	for _, path := range []string{"/genres", "/genres/"} {
		r.Get(path, s.listGenresHandler)
		r.Post(path, s.createGenreHandler)
	}
	r.Get("/genres/{id:[0-9]+}", s.showGenreHandler)
	r.Put("/genres/{id:[0-9]+}", s.updateGenreHandler)
	r.Delete("/genres/{id:[0-9]+}", s.deleteGenreHandler)

	return r
}
