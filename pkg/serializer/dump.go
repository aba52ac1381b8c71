// Package serializer converts entities to and from their wire form. Each
// entity has a fixed, ordered field allowlist; output structs declare their
// fields in that order.
package serializer

import "github.com/ammar0144/movies4go/pkg/models"

// Field allowlists, in output order.
var (
	MovieFields    = []string{"id", "title", "description", "trailer", "year", "rating", "genre_id", "director_id"}
	DirectorFields = []string{"id", "name"}
	GenreFields    = []string{"id", "name"}
)

// Movie is the wire form of a movie. Foreign keys are raw ids.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Trailer     string  `json:"trailer"`
	Year        int64   `json:"year"`
	Rating      float64 `json:"rating"`
	GenreID     *int64  `json:"genre_id"`
	DirectorID  *int64  `json:"director_id"`
}

// MovieDetail is a movie followed by the names of its director and genre.
type MovieDetail struct {
	Movie
	DirectorName *string `json:"director_name"`
	GenreName    *string `json:"genre_name"`
}

type Director struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func DumpMovie(m models.Movie) Movie {
	return Movie{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Trailer:     m.Trailer,
		Year:        m.Year,
		Rating:      m.Rating,
		GenreID:     m.GenreID,
		DirectorID:  m.DirectorID,
	}
}

// DumpMovies never returns nil, so an empty listing encodes as [].
func DumpMovies(movies []models.Movie) []Movie {
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		out = append(out, DumpMovie(m))
	}
	return out
}

func DumpMovieDetail(d models.MovieDetail) MovieDetail {
	return MovieDetail{
		Movie:        DumpMovie(d.Movie),
		DirectorName: d.DirectorName,
		GenreName:    d.GenreName,
	}
}

func DumpDirector(d models.Director) Director {
	return Director{ID: d.ID, Name: d.Name}
}

func DumpDirectors(directors []models.Director) []Director {
	out := make([]Director, 0, len(directors))
	for _, d := range directors {
		out = append(out, DumpDirector(d))
	}
	return out
}

func DumpGenre(g models.Genre) Genre {
	return Genre{ID: g.ID, Name: g.Name}
}

func DumpGenres(genres []models.Genre) []Genre {
	out := make([]Genre, 0, len(genres))
	for _, g := range genres {
		out = append(out, DumpGenre(g))
	}
	return out
}
