package api

import (
	"errors"
	"net/http"

	"github.com/ammar0144/movies4go/pkg/serializer"
	"github.com/ammar0144/movies4go/pkg/store"
	"github.com/ammar0144/movies4go/pkg/validator"
)

func (s *Server) listGenresHandler(w http.ResponseWriter, r *http.Request) {
	genres, err := s.store.Genres.List(r.Context())
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpGenres(genres), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) createGenreHandler(w http.ResponseWriter, r *http.Request) {
	var body serializer.Fields
	if err := s.readJSON(w, r, &body); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	genre := serializer.LoadGenre(body, serializer.Create, v)
	if !v.Valid() {
		s.failedValidationResponse(w, r, v.Errors)
		return
	}

	if err := s.store.Genres.Create(r.Context(), &genre); err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) showGenreHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return
	}

	genre, err := s.store.Genres.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpGenre(*genre), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) updateGenreHandler(w http.ResponseWriter, r *http.Request) {
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
	genre := serializer.LoadGenre(body, serializer.Replace, v)
	if !v.Valid() {
		s.failedValidationResponse(w, r, v.Errors)
		return
	}
	genre.ID = id

	if err := s.store.Genres.Update(r.Context(), &genre); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpGenre(genre), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) deleteGenreHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return
	}

	if err := s.store.Genres.Delete(r.Context(), id); err != nil {
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
