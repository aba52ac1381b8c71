// Package store is the persistence contract the HTTP handlers depend on.
// Each entity gets list/get/create/update/delete; movies add a filtered
// listing and a joined detail view.
package store

import (
	"context"

	"github.com/ammar0144/movies4go/pkg/db"
	"github.com/ammar0144/movies4go/pkg/models"
	"github.com/ammar0144/movies4go/pkg/redis"
	"github.com/ammar0144/movies4go/pkg/repository"
)

// ErrNotFound is returned when no record has the requested id
var ErrNotFound = repository.ErrRecordNotFound

// MovieFilter narrows a movie listing. GenreID takes precedence when both
// are set.
type MovieFilter struct {
	GenreID    *int64
	DirectorID *int64
}

type Movies interface {
	List(ctx context.Context, filter MovieFilter) ([]models.Movie, error)
	Get(ctx context.Context, id int64) (*models.Movie, error)
	Create(ctx context.Context, movie *models.Movie) error
	Update(ctx context.Context, movie *models.Movie) error
	Delete(ctx context.Context, id int64) error
	Detail(ctx context.Context, id int64) (*models.MovieDetail, error)
}

type Directors interface {
	List(ctx context.Context) ([]models.Director, error)
	Get(ctx context.Context, id int64) (*models.Director, error)
	Create(ctx context.Context, director *models.Director) error
	Update(ctx context.Context, director *models.Director) error
	Delete(ctx context.Context, id int64) error
}

type Genres interface {
	List(ctx context.Context) ([]models.Genre, error)
	Get(ctx context.Context, id int64) (*models.Genre, error)
	Create(ctx context.Context, genre *models.Genre) error
	Update(ctx context.Context, genre *models.Genre) error
	Delete(ctx context.Context, id int64) error
}

// Store groups the per-entity stores over one database
type Store struct {
	Movies    Movies
	Directors Directors
	Genres    Genres

	repos []cacheWarmer
}

type cacheWarmer interface {
	WarmCache(ctx context.Context) error
}

// New builds the stores. cache may be nil or disabled.
func New(dbManager *db.Manager, cache *redis.Manager) *Store {
	movies := repository.NewGenericRepository[models.Movie](dbManager, cache)
	directors := repository.NewGenericRepository[models.Director](dbManager, cache)
	genres := repository.NewGenericRepository[models.Genre](dbManager, cache)

	return &Store{
		Movies: &MovieTable{
			Table:     Table[models.Movie]{repo: movies, resetID: func(m *models.Movie) { m.ID = 0 }},
			dbManager: dbManager,
		},
		Directors: &Table[models.Director]{repo: directors, resetID: func(d *models.Director) { d.ID = 0 }},
		Genres:    &Table[models.Genre]{repo: genres, resetID: func(g *models.Genre) { g.ID = 0 }},
		repos:     []cacheWarmer{movies, directors, genres},
	}
}

// WarmCache preloads every table's listing into the cache. It is a no-op
// without an enabled cache.
func (s *Store) WarmCache(ctx context.Context) error {
	for _, repo := range s.repos {
		if err := repo.WarmCache(ctx); err != nil {
			return err
		}
	}
	return nil
}
