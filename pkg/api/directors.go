package api

import (
	"errors"
	"net/http"

	"github.com/ammar0144/movies4go/pkg/serializer"
	"github.com/ammar0144/movies4go/pkg/store"
	"github.com/ammar0144/movies4go/pkg/validator"
)

func (s *Server) listDirectorsHandler(w http.ResponseWriter, r *http.Request) {
	directors, err := s.store.Directors.List(r.Context())
	if err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpDirectors(directors), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) createDirectorHandler(w http.ResponseWriter, r *http.Request) {
	var body serializer.Fields
	if err := s.readJSON(w, r, &body); err != nil {
		s.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	director := serializer.LoadDirector(body, serializer.Create, v)
	if !v.Valid() {
		s.failedValidationResponse(w, r, v.Errors)
		return
	}

	if err := s.store.Directors.Create(r.Context(), &director); err != nil {
		s.serverErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) showDirectorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return
	}

	director, err := s.store.Directors.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpDirector(*director), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

func (s *Server) updateDirectorHandler(w http.ResponseWriter, r *http.Request) {
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
	director := serializer.LoadDirector(body, serializer.Replace, v)
	if !v.Valid() {
		s.failedValidationResponse(w, r, v.Errors)
		return
	}
	director.ID = id

	if err := s.store.Directors.Update(r.Context(), &director); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.notFoundResponse(w, r)
		default:
			s.serverErrorResponse(w, r, err)
		}
		return
	}

	if err := s.writeJSON(w, http.StatusOK, serializer.DumpDirector(director), nil); err != nil {
		s.serverErrorResponse(w, r, err)
	}
}

// deleteDirectorHandler leaves movies that reference the director untouched.
func (s *Server) deleteDirectorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r)
	if err != nil {
		s.notFoundResponse(w, r)
		return
	}

	if err := s.store.Directors.Delete(r.Context(), id); err != nil {
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
