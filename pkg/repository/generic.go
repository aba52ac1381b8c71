package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ammar0144/movies4go/pkg/db"
	"github.com/ammar0144/movies4go/pkg/redis"

	"github.com/cespare/xxhash/v2"
	"gorm.io/gorm"
)

const cacheKeyHashLength = 12 // Balance between uniqueness and key length

// GenericRepository provides CRUD operations with optional caching.
// Reads are cache-first when a cache is configured; every write evicts the
// table's cached reads and those of the rows the entity references.
type GenericRepository[T Entity] struct {
	db         *gorm.DB
	dbManager  *db.Manager
	redis      *redis.Manager
	tableName  string
	primaryKey string
	namespace  string // Database namespace for cache key isolation
}

// NewGenericRepository creates a repository. A nil or disabled redisManager
// yields a database-only repository.
func NewGenericRepository[T Entity](dbManager *db.Manager, redisManager *redis.Manager) Repository[T] {
	var zero T
	tableName := zero.TableName()
	if tableName == "" {
		panic(fmt.Sprintf("entity type %T returned empty TableName()", zero))
	}

	if !redisManager.Enabled() {
		redisManager = nil
	}

	return &GenericRepository[T]{
		db:         dbManager.DB(),
		dbManager:  dbManager,
		redis:      redisManager,
		tableName:  tableName,
		primaryKey: extractPrimaryKeyName(dbManager.DB(), &zero),
		namespace:  dbManager.Namespace(),
	}
}

// ============================================================================
// READ OPERATIONS - Cache-First Implementation
// ============================================================================

// FindByID finds a record by primary key; ErrRecordNotFound when absent
func (r *GenericRepository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	if id == nil {
		return nil, fmt.Errorf("id cannot be nil")
	}

	ctx, cancel := r.dbManager.WithQueryTimeout(ctx)
	defer cancel()

	cacheKey := r.generateCacheKey("find_by_id", fmt.Sprintf("%v", id))

	var hit T
	gen, cached := r.cacheLookup(ctx, cacheKey, &hit)
	if cached {
		return &hit, nil
	}

	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	r.cacheFill(ctx, gen, cacheKey, entity, []T{entity})

	return &entity, nil
}

// FindAll returns every record ordered by primary key
func (r *GenericRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	ctx, cancel := r.dbManager.WithQueryTimeout(ctx)
	defer cancel()

	cacheKey := r.generateCacheKey("find_all", "")

	var hit []T
	gen, cached := r.cacheLookup(ctx, cacheKey, &hit)
	if cached {
		return hit, nil
	}

	var entities []T
	if err := r.db.WithContext(ctx).Order(r.primaryKey).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	r.cacheFill(ctx, gen, cacheKey, entities, entities)

	return entities, nil
}

// FindWhere returns the records matching a GORM condition, ordered by
// primary key. Conditions given as *gorm.DB are never cached.
func (r *GenericRepository[T]) FindWhere(ctx context.Context, query interface{}, args ...interface{}) ([]T, error) {
	ctx, cancel := r.dbManager.WithQueryTimeout(ctx)
	defer cancel()

	_, isGormDB := query.(*gorm.DB)
	shouldCache := r.redis != nil && !isGormDB

	var (
		cacheKey string
		gen      *int64
	)
	if shouldCache {
		cacheKey = r.generateCacheKeyFromQuery("find_where", query, args...)
		var hit []T
		var cached bool
		if gen, cached = r.cacheLookup(ctx, cacheKey, &hit); cached {
			return hit, nil
		}
	}

	var entities []T
	if err := r.db.WithContext(ctx).Where(query, args...).Order(r.primaryKey).Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	r.cacheFill(ctx, gen, cacheKey, entities, entities)

	return entities, nil
}

// ============================================================================
// WRITE OPERATIONS - Cache Invalidation Implementation
// ============================================================================

// Create inserts a record; the database assigns a zero primary key
func (r *GenericRepository[T]) Create(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}

	ctx, cancel := r.dbManager.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	r.invalidateEntityCaches(ctx, *entity)
	return nil
}

// Update replaces every column of an existing record. The existence check
// and the write share one transaction so a missing row is never inserted.
func (r *GenericRepository[T]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}

	ctx, cancel := r.dbManager.WithQueryTimeout(ctx)
	defer cancel()

	var previous T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&previous, (*entity).GetPrimaryKeyValue()).Error; err != nil {
			return err
		}
		return tx.Save(entity).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	// Both the old and the new references may have cached reads.
	r.invalidateEntityCaches(ctx, previous)
	r.invalidateEntityCaches(ctx, *entity)
	return nil
}

// Delete removes a record by primary key; ErrRecordNotFound when absent.
// Rows referencing it are left untouched.
func (r *GenericRepository[T]) Delete(ctx context.Context, id interface{}) error {
	if id == nil {
		return fmt.Errorf("id cannot be nil")
	}

	ctx, cancel := r.dbManager.WithQueryTimeout(ctx)
	defer cancel()

	var entity T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entity, id).Error; err != nil {
			return err
		}
		return tx.Delete(&entity).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	r.invalidateEntityCaches(ctx, entity)
	return nil
}

// InvalidateCache invalidates all caches for this table in this database
func (r *GenericRepository[T]) InvalidateCache(ctx context.Context) error {
	if r.redis == nil {
		return nil
	}
	return r.redis.InvalidatePattern(ctx, r.generateCacheKey("*", ""))
}

// WarmCache preloads the full listing
func (r *GenericRepository[T]) WarmCache(ctx context.Context) error {
	if r.redis == nil {
		return nil
	}
	_, err := r.FindAll(ctx)
	return err
}

// ============================================================================
// HELPER METHODS - Cache Key Generation and Management
// ============================================================================

// hashTag groups a table's keys into one cluster hash slot so the
// generation check and the fill can share a transaction
func (r *GenericRepository[T]) hashTag() string {
	return "{" + r.namespace + redis.KeySeparator + r.tableName + "}"
}

// generateCacheKey formats "movies4go:{<namespace>:<table>}:<operation>[:<suffix>]"
func (r *GenericRepository[T]) generateCacheKey(operation, suffix string) string {
	key := redis.KeyPrefix + redis.KeySeparator + r.hashTag() + redis.KeySeparator + operation
	if suffix != "" {
		key += redis.KeySeparator + suffix
	}
	return key
}

// generationKey formats "movies4go:gen:{<namespace>:<table>}". It sits
// outside the table's invalidation pattern so eviction never resets it.
func (r *GenericRepository[T]) generationKey() string {
	return redis.KeyPrefix + redis.KeySeparator + "gen" + redis.KeySeparator + r.hashTag()
}

// cacheLookup reads key into target. On a miss it returns the table's write
// generation, captured before the caller reads the database; a nil
// generation means the result must not be cached.
func (r *GenericRepository[T]) cacheLookup(ctx context.Context, key string, target interface{}) (*int64, bool) {
	if r.redis == nil {
		return nil, false
	}
	// Misses and cache errors both fall through to the database.
	if err := r.redis.GetValue(ctx, key, target); err == nil {
		return nil, true
	}
	gen, err := r.redis.Generation(ctx, r.generationKey())
	if err != nil {
		return nil, false
	}
	return &gen, false
}

// cacheFill stores a database result unless a write to the table committed
// since gen was captured
func (r *GenericRepository[T]) cacheFill(ctx context.Context, gen *int64, key string, value interface{}, entities []T) {
	if r.redis == nil || gen == nil {
		return
	}
	_ = r.redis.SetValueWithDependencies(ctx, key, value, r.extractDependencies(entities), r.generationKey(), *gen)
}

// generateCacheKeyFromQuery hashes the query and its arguments into a key
func (r *GenericRepository[T]) generateCacheKeyFromQuery(operation string, query interface{}, args ...interface{}) string {
	var queryStr string
	switch q := query.(type) {
	case string:
		queryStr = q
	case map[string]interface{}:
		// encoding/json sorts map keys, so equal maps hash equally.
		data, err := json.Marshal(q)
		if err != nil {
			queryStr = fmt.Sprintf("%v", q)
		} else {
			queryStr = string(data)
		}
	default:
		queryStr = fmt.Sprintf("%T:%v", query, query)
	}

	argsData, err := json.Marshal(args)
	if err != nil {
		argsData = []byte(fmt.Sprintf("%v", args))
	}

	hash := fmt.Sprintf("%016x", xxhash.Sum64String(queryStr+redis.KeySeparator+string(argsData)))
	return r.generateCacheKey(operation, hash[:cacheKeyHashLength])
}

// dependencyType scopes a table name to this database
func (r *GenericRepository[T]) dependencyType(table string) string {
	return r.namespace + redis.KeySeparator + table
}

// extractDependencies maps every entity and every row it references to the
// dependency sets a cached read of them should join
func (r *GenericRepository[T]) extractDependencies(entities []T) map[string][]interface{} {
	dependencies := make(map[string][]interface{})

	for _, entity := range entities {
		if pk := entity.GetPrimaryKeyValue(); pk != nil {
			self := r.dependencyType(r.tableName)
			dependencies[self] = append(dependencies[self], pk)
		}

		relEntity, ok := any(entity).(RelationshipAware)
		if !ok {
			continue
		}
		for _, related := range relEntity.GetRelationships() {
			for _, rel := range related {
				if rel.EntityID == nil {
					continue
				}
				depType := r.dependencyType(rel.EntityType)
				dependencies[depType] = append(dependencies[depType], rel.EntityID)
			}
		}
	}

	return dependencies
}

// invalidateEntityCaches evicts cached reads affected by a change to entity.
// Eviction is best effort: a cache outage must not fail a committed write.
func (r *GenericRepository[T]) invalidateEntityCaches(ctx context.Context, entity T) {
	if r.redis == nil {
		return
	}

	// The bump precedes eviction: a reader that filled before it is evicted
	// below, one that fills after it is refused.
	_ = r.redis.BumpGeneration(ctx, r.generationKey())
	_ = r.InvalidateCache(ctx)
	_ = r.redis.InvalidateEntityDependencies(ctx, r.dependencyType(r.tableName), entity.GetPrimaryKeyValue())

	relEntity, ok := any(entity).(RelationshipAware)
	if !ok {
		return
	}
	for _, related := range relEntity.GetRelationships() {
		for _, rel := range related {
			if rel.EntityID != nil {
				_ = r.redis.InvalidateEntityDependencies(ctx, r.dependencyType(rel.EntityType), rel.EntityID)
			}
		}
	}
}

// ============================================================================
// UTILITY FUNCTIONS
// ============================================================================

// extractPrimaryKeyName reads the primary key column from GORM's schema,
// defaulting to "id"
func extractPrimaryKeyName(gormDB *gorm.DB, model interface{}) string {
	stmt := &gorm.Statement{DB: gormDB}
	if err := stmt.Parse(model); err != nil || stmt.Schema == nil {
		return "id"
	}
	if len(stmt.Schema.PrimaryFields) > 0 && stmt.Schema.PrimaryFields[0] != nil {
		return stmt.Schema.PrimaryFields[0].DBName
	}
	return "id"
}
