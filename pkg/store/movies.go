package store

import (
	"context"
	"fmt"

	"github.com/ammar0144/movies4go/pkg/db"
	"github.com/ammar0144/movies4go/pkg/models"
)

var movieDetailColumns = []string{
	"movie.id AS id",
	"movie.title AS title",
	"movie.description AS description",
	"movie.trailer AS trailer",
	"movie.year AS year",
	"movie.rating AS rating",
	"movie.genre_id AS genre_id",
	"movie.director_id AS director_id",
	"director.name AS director_name",
	"genre.name AS genre_name",
}

// MovieTable adds filtering and the joined detail view to the movie store
type MovieTable struct {
	Table[models.Movie]
	dbManager *db.Manager
}

// List returns movies ordered by id. A genre filter wins over a director
// filter; each filters its own column.
func (t *MovieTable) List(ctx context.Context, filter MovieFilter) ([]models.Movie, error) {
	switch {
	case filter.GenreID != nil:
		return t.repo.FindWhere(ctx, map[string]interface{}{"genre_id": *filter.GenreID})
	case filter.DirectorID != nil:
		return t.repo.FindWhere(ctx, map[string]interface{}{"director_id": *filter.DirectorID})
	default:
		return t.repo.FindAll(ctx)
	}
}

// Detail returns a movie with its director and genre names. Names are nil
// when the reference is unset or points at a deleted row.
func (t *MovieTable) Detail(ctx context.Context, id int64) (*models.MovieDetail, error) {
	ctx, cancel := t.dbManager.WithQueryTimeout(ctx)
	defer cancel()

	query, args := db.NewBuilder("movie").
		Select(movieDetailColumns...).
		LeftJoin("director", "director.id = movie.director_id").
		LeftJoin("genre", "genre.id = movie.genre_id").
		Where("movie.id", db.Equal, id).
		Limit(1).
		BuildSelect()

	var rows []models.MovieDetail
	if err := t.dbManager.DB().WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("movie detail: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}
