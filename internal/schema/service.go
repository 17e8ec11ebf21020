// Package schema caches the introspected shape of the active data source
// so prompt building never waits on a live catalog query in the hot path.
package schema

import (
	"context"
	"sync"
	"time"

	"github.com/geoquery/geoquery/internal/executor"
	"github.com/geoquery/geoquery/internal/observability"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const cacheTTL = 5 * time.Minute

// Service wraps a data source's Describe with a TTL cache. Concurrent
// refreshes for an expired entry share a single introspection call.
type Service struct {
	source executor.Source
	ttl    time.Duration

	mu        sync.RWMutex
	cached    *executor.Catalog
	expiresAt time.Time
	sf        singleflight.Group
}

func NewService(source executor.Source) *Service {
	return &Service{source: source, ttl: cacheTTL}
}

// Get returns the cached catalog, refreshing it when stale.
func (s *Service) Get(ctx context.Context) (*executor.Catalog, error) {
	if cat, ok := s.cachedCatalog(); ok {
		return cat, nil
	}

	v, err, _ := s.sf.Do("catalog", func() (interface{}, error) {
		// Another goroutine may have refreshed while we waited to enter.
		if cat, ok := s.cachedCatalog(); ok {
			return cat, nil
		}

		log.Debug().Str("source", string(s.source.Kind())).Msg("schema cache miss, introspecting")
		start := time.Now()
		cat, err := s.source.Describe(ctx)
		if err != nil {
			return nil, err
		}
		observability.IncrementSchemaRefresh()
		log.Info().
			Int("tables", len(cat.Tables)).
			Int("layers", len(cat.Layers)).
			Dur("duration", time.Since(start)).
			Msg("schema refreshed")

		s.mu.Lock()
		s.cached = cat
		s.expiresAt = time.Now().Add(s.ttl)
		s.mu.Unlock()
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*executor.Catalog), nil
}

// Invalidate drops the cached catalog, forcing the next Get to introspect.
// Called after statements that change the source's shape.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.expiresAt = time.Time{}
}

func (s *Service) cachedCatalog() (*executor.Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cached == nil || time.Now().After(s.expiresAt) {
		return nil, false
	}
	return s.cached, true
}
