package repository

import (
	"context"
	"errors"
)

// ErrRecordNotFound is returned when no row has the requested primary key
var ErrRecordNotFound = errors.New("record not found")

// Repository defines the generic repository interface
type Repository[T Entity] interface {
	// Queries (Read Operations - Cache-First)
	FindByID(ctx context.Context, id interface{}) (*T, error)
	FindAll(ctx context.Context) ([]T, error)
	FindWhere(ctx context.Context, query interface{}, args ...interface{}) ([]T, error)

	// Commands (Write Operations - Relationship-Aware Cache Invalidation)
	Create(ctx context.Context, entity *T) error
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id interface{}) error

	// Cache Management
	InvalidateCache(ctx context.Context) error
	WarmCache(ctx context.Context) error
}
