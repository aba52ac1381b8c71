// Package api serves the movie, director and genre resources over HTTP.
package api

import (
	"context"
	"sync"

	"github.com/ammar0144/movies4go/pkg/jsonlog"
	"github.com/ammar0144/movies4go/pkg/redis"
	"github.com/ammar0144/movies4go/pkg/store"
)

// Config holds the HTTP-layer settings
type Config struct {
	Env     string
	Limiter struct {
		RPS     float64
		Burst   int
		Enabled bool
	}
	CORS struct {
		TrustedOrigins []string
	}
}

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies shared by every handler
type Server struct {
	config   Config
	logger   *jsonlog.Logger
	store    *store.Store
	database Pinger
	cache    *redis.Manager

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New builds a Server. cache may be nil.
func New(config Config, logger *jsonlog.Logger, st *store.Store, database Pinger, cache *redis.Manager) *Server {
	return &Server{
		config:   config,
		logger:   logger,
		store:    st,
		database: database,
		cache:    cache,
		done:     make(chan struct{}),
	}
}

// Close stops the background work started by Routes and waits for it to
// exit. It is safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}
