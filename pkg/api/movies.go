package api

import (
	"errors"
	"net/http"

	"github.com/ammar0144/movies4go/pkg/serializer"
	"github.com/ammar0144/movies4go/pkg/store"
	"github.com/ammar0144/movies4go/pkg/validator"
)

// listMoviesHandler answers GET /movies/. genre_id wins over director_id.
func (s *Server) listMoviesHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()
	qs := r.URL.Query()

	filter := store.MovieFilter{
		GenreID:    readInt64Query(qs, "genre_id", v),
		DirectorID: readInt64Query(qs, "director_id", v),
	}
	if !v.Valid() {
		s.failedValidationResponse(w, r, v.Errors)
		return
	}

	movies, err := s.store.Movies.List(r.Context(), filter)
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpMovies(movies), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) createMovieHandler(w http.ResponseWriter, r *http.Request) {
	var body serializer.Fields
	if err := s.readJSON(w, r, &body); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	movie := serializer.LoadMovie(body, serializer.Create, v)
	if !v.Valid() {
		s.failedValidationResponse(w, r, v.Errors)
		return
	}

	if err := s.store.Movies.Create(r.Context(), &movie); err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) showMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return
	}

	movie, err := s.store.Movies.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpMovie(*movie), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

// updateMovieHandler replaces every field of a movie. The id in the path is
// authoritative; an id in the body is ignored.
func (s *Server) updateMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return
	}

	var body serializer.Fields
	if err := s.readJSON(w, r, &body); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	movie := serializer.LoadMovie(body, serializer.Replace, v)
	if !v.Valid() {
		s.failedValidationResponse(w, r, v.Errors)
		return
	}
	movie.ID = id

	if err := s.store.Movies.Update(r.Context(), &movie); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpMovie(movie), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return
	}

	if err := s.store.Movies.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// showMovieDetailHandler answers GET /movies/{id}/detail with the movie and
// the names of its director and genre.
func (s *Server) showMovieDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return
	}

	detail, err := s.store.Movies.Detail(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpMovieDetail(*detail), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}
