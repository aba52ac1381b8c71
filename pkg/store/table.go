package store

import (
	"context"

	"github.com/ammar0144/movies4go/pkg/repository"
)

// Table is the store for one entity type, backed by the generic repository
type Table[T repository.Entity] struct {
	repo    repository.Repository[T]
	resetID func(*T)
}

// List returns every record ordered by id
func (t *Table[T]) List(ctx context.Context) ([]T, error) {
	return t.repo.FindAll(ctx)
}

func (t *Table[T]) Get(ctx context.Context, id int64) (*T, error) {
	return t.repo.FindByID(ctx, id)
}

// Create inserts entity; any id it carries is discarded so the database
// assigns one
func (t *Table[T]) Create(ctx context.Context, entity *T) error {
	t.resetID(entity)
	return t.repo.Create(ctx, entity)
}

// Update replaces every field of the record with entity's id
func (t *Table[T]) Update(ctx context.Context, entity *T) error {
	return t.repo.Update(ctx, entity)
}

func (t *Table[T]) Delete(ctx context.Context, id int64) error {
	return t.repo.Delete(ctx, id)
}
