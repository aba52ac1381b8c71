package serializer

import (
	"bytes"
	"encoding/json"

	"github.com/ammar0144/movies4go/pkg/models"
	"github.com/ammar0144/movies4go/pkg/validator"
)

// Mode selects how strictly a request body is loaded.
type Mode int

const (
	// Create accepts any subset of the fields (POST).
	Create Mode = iota
	// Replace requires every field except id (PUT).
	Replace
)

// Fields is a decoded JSON object whose values are still raw.
type Fields map[string]json.RawMessage

// LoadMovie builds a movie from body, recording problems in v. The id key
// is accepted and ignored.
func LoadMovie(body Fields, mode Mode, v *validator.Validator) models.Movie {
	checkFields(body, MovieFields, mode, v)

	var m models.Movie
	loadString(body, "title", &m.Title, v)
	loadString(body, "description", &m.Description, v)
	loadString(body, "trailer", &m.Trailer, v)
	loadInt(body, "year", &m.Year, v)
	loadFloat(body, "rating", &m.Rating, v)
	loadRef(body, "genre_id", &m.GenreID, v)
	loadRef(body, "director_id", &m.DirectorID, v)
	return m
}

func LoadDirector(body Fields, mode Mode, v *validator.Validator) models.Director {
	checkFields(body, DirectorFields, mode, v)

	var d models.Director
	loadString(body, "name", &d.Name, v)
	return d
}

func LoadGenre(body Fields, mode Mode, v *validator.Validator) models.Genre {
	checkFields(body, GenreFields, mode, v)

	var g models.Genre
	loadString(body, "name", &g.Name, v)
	return g
}

// checkFields rejects keys outside allowed and, in Replace mode, reports
// every missing non-id field.
func checkFields(body Fields, allowed []string, mode Mode, v *validator.Validator) {
	for key := range body {
		v.Check(validator.In(key, allowed...), key, "unknown field")
	}
	if mode != Replace {
		return
	}
	for _, key := range allowed {
		if key == "id" {
			continue
		}
		_, ok := body[key]
		v.Check(ok, key, "must be provided")
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func loadString(body Fields, key string, dst *string, v *validator.Validator) {
	raw, ok := body[key]
	if !ok {
		return
	}
	if isNull(raw) || json.Unmarshal(raw, dst) != nil {
		v.AddError(key, "must be a string")
	}
}

func loadInt(body Fields, key string, dst *int64, v *validator.Validator) {
	raw, ok := body[key]
	if !ok {
		return
	}
	if isNull(raw) || json.Unmarshal(raw, dst) != nil {
		v.AddError(key, "must be an integer")
	}
}

func loadFloat(body Fields, key string, dst *float64, v *validator.Validator) {
	raw, ok := body[key]
	if !ok {
		return
	}
	if isNull(raw) || json.Unmarshal(raw, dst) != nil {
		v.AddError(key, "must be a number")
	}
}

// loadRef loads a nullable foreign key.
func loadRef(body Fields, key string, dst **int64, v *validator.Validator) {
	raw, ok := body[key]
	if !ok || isNull(raw) {
		return
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		v.AddError(key, "must be an integer or null")
		return
	}
	*dst = &id
}
