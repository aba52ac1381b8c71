package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache key constants shared with the repository layer
const (
	KeyPrefix             = "movies4go"
	KeySeparator          = ":"
	cacheDependencyPrefix = "deps"
)

// Manager manages Redis connections and cache operations
type Manager struct {
	config  *Config
	client  redis.UniversalClient
	metrics *Metrics
}

// NewManager creates a new Redis cache manager. No connection is attempted
// here; call Ping to verify the server is reachable.
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	manager := &Manager{
		config:  config,
		metrics: NewMetrics(),
	}
	manager.initializeClient()

	return manager, nil
}

// initializeClient sets up the Redis client based on configuration
func (m *Manager) initializeClient() {
	if !m.config.Enabled {
		return
	}

	if m.config.IsClusterMode() {
		m.client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           m.config.Cluster.Addresses,
			Username:        m.config.Cluster.Username,
			Password:        m.config.Cluster.Password,
			PoolSize:        m.config.PoolSize,
			MinIdleConns:    m.config.MinIdleConns,
			ConnMaxLifetime: m.config.MaxConnAge,
			PoolTimeout:     m.config.PoolTimeout,
			ConnMaxIdleTime: m.config.IdleTimeout,
			ReadTimeout:     m.config.ReadTimeout,
			WriteTimeout:    m.config.WriteTimeout,
			DialTimeout:     m.config.DialTimeout,
		})
		return
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:            m.config.GetAddr(),
		Password:        m.config.Password,
		DB:              m.config.Database,
		PoolSize:        m.config.PoolSize,
		MinIdleConns:    m.config.MinIdleConns,
		ConnMaxLifetime: m.config.MaxConnAge,
		PoolTimeout:     m.config.PoolTimeout,
		ConnMaxIdleTime: m.config.IdleTimeout,
		ReadTimeout:     m.config.ReadTimeout,
		WriteTimeout:    m.config.WriteTimeout,
		DialTimeout:     m.config.DialTimeout,
	})
}

// Enabled reports whether cache operations reach Redis
func (m *Manager) Enabled() bool {
	return m != nil && m.config.Enabled && m.client != nil
}

// Close closes the Redis connection
func (m *Manager) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// Ping tests the Redis connection. A disabled cache is not an error.
func (m *Manager) Ping(ctx context.Context) error {
	if !m.config.Enabled {
		return nil
	}
	if m.client == nil {
		return ErrClientNotInitialized
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

// checkClient validates that cache is enabled and client is initialized
func (m *Manager) checkClient() error {
	if !m.config.Enabled {
		return ErrCacheDisabled
	}
	if m.client == nil {
		return ErrClientNotInitialized
	}
	return nil
}

// Get retrieves a raw value from cache
func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	if err := m.checkClient(); err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := m.client.Get(ctx, key).Bytes()
	m.metrics.RecordGet(time.Since(start))

	if errors.Is(err, redis.Nil) {
		m.metrics.RecordCacheMiss()
		return nil, ErrKeyNotFound
	}
	if err != nil {
		m.metrics.RecordCacheError()
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	m.metrics.RecordCacheHit()
	return data, nil
}

// deleteKeys issues one DEL per key in a pipeline; a multi-key DEL would be
// rejected by Redis Cluster when keys hash to different slots
func (m *Manager) deleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	pipe := m.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, key)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetValue retrieves a msgpack-encoded value into target
func (m *Manager) GetValue(ctx context.Context, key string, target interface{}) error {
	data, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(data, target); err != nil {
		m.metrics.RecordCacheError()
		return fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return nil
}

// Generation returns the write generation stored at key, zero when unset
func (m *Manager) Generation(ctx context.Context, key string) (int64, error) {
	if err := m.checkClient(); err != nil {
		return 0, err
	}

	gen, err := m.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		m.metrics.RecordCacheError()
		return 0, fmt.Errorf("redis get error: %w", err)
	}
	return gen, nil
}

// BumpGeneration advances the write generation at key. Fills that captured
// the previous generation are then rejected by SetValueWithDependencies.
func (m *Manager) BumpGeneration(ctx context.Context, key string) error {
	if err := m.checkClient(); err != nil {
		return err
	}
	return m.client.Incr(ctx, key).Err()
}

// SetValueWithDependencies stores value and links key to every listed
// entity so that InvalidateEntityDependencies on any of them evicts it.
// dependencies: entityType -> ids
//
// The value is only written while generationKey still holds generation;
// otherwise ErrStaleValue is returned and nothing is cached. key and
// generationKey must share a hash slot in cluster mode.
func (m *Manager) SetValueWithDependencies(ctx context.Context, key string, value interface{}, dependencies map[string][]interface{}, generationKey string, generation int64) error {
	if err := m.checkClient(); err != nil {
		return err
	}

	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}

	start := time.Now()
	defer func() { m.metrics.RecordSet(time.Since(start)) }()

	// Links go in first: a dependency set naming an absent key is harmless,
	// a cached value missing from its sets could never be evicted.
	if len(dependencies) > 0 {
		pipe := m.client.Pipeline()
		for entityType, ids := range dependencies {
			for _, entityID := range ids {
				dependencyKey := m.dependencyKey(entityType, entityID)
				pipe.SAdd(ctx, dependencyKey, key)
				// Outlive the cached values so a dependency set never expires first.
				pipe.Expire(ctx, dependencyKey, m.config.DefaultTTL*2)
				m.metrics.RecordDependency()
			}
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to link dependencies: %w", err)
		}
	}

	err = m.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return ErrStaleValue
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, m.config.DefaultTTL)
			return nil
		})
		return err
	}, generationKey)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleValue
	}
	return err
}

// InvalidateEntityDependencies evicts all cache keys that depend on an entity
func (m *Manager) InvalidateEntityDependencies(ctx context.Context, entityType string, entityID interface{}) error {
	if err := m.checkClient(); err != nil {
		return err
	}

	dependencyKey := m.dependencyKey(entityType, entityID)
	keys, err := m.client.SMembers(ctx, dependencyKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get dependencies: %w", err)
	}

	keys = append(keys, dependencyKey)
	if err := m.deleteKeys(ctx, keys); err != nil {
		return fmt.Errorf("failed to delete dependents: %w", err)
	}
	m.metrics.RecordInvalidation()

	return nil
}

// InvalidatePattern removes keys matching a pattern using SCAN, which does
// not block the server the way KEYS does
func (m *Manager) InvalidatePattern(ctx context.Context, pattern string) error {
	if err := m.checkClient(); err != nil {
		return err
	}

	const scanBatchSize = 100
	var cursor uint64

	for {
		batch, next, err := m.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys with pattern %s: %w", pattern, err)
		}

		if len(batch) > 0 {
			if err := m.deleteKeys(ctx, batch); err != nil {
				return fmt.Errorf("failed to delete batch: %w", err)
			}
			m.metrics.RecordInvalidation()
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// dependencyKey formats "movies4go:deps:<entityType>:<id>"
func (m *Manager) dependencyKey(entityType string, entityID interface{}) string {
	return fmt.Sprintf("%s%s%s%s%s%s%v", KeyPrefix, KeySeparator, cacheDependencyPrefix, KeySeparator, entityType, KeySeparator, entityID)
}

// GetMetrics returns current cache performance metrics
func (m *Manager) GetMetrics() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{}
	}
	return m.metrics.GetSnapshot()
}
