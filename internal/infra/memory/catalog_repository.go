package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"carpet-quiz-service/internal/catalog"
	"carpet-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogRepository caches the loaded catalog with TTL to avoid repeated
// source scans. The backing source does not change at runtime, so the TTL
// is usually long; 0 or negative means cache forever.
type CatalogRepository struct {
	loader catalog.Loader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    domain.Catalog
	loaded    bool
	expiresAt time.Time
}

func NewCatalogRepository(loader catalog.Loader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context) (domain.Catalog, error) {
	if cached, ok := r.fresh(); ok {
		return cached, nil
	}

	result, err, _ := r.sf.Do("catalog", func() (interface{}, error) {
		if cached, ok := r.fresh(); ok {
			return cached, nil
		}

		loaded, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return domain.Catalog{}, err
		}

		r.mu.Lock()
		r.cached = loaded
		r.loaded = true
		if r.ttl > 0 {
			r.expiresAt = r.clock().Add(r.ttlWithJitter())
		} else {
			r.expiresAt = time.Time{}
		}
		r.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

func (r *CatalogRepository) fresh() (domain.Catalog, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return domain.Catalog{}, false
	}
	if r.ttl > 0 && !r.expiresAt.After(r.clock()) {
		return domain.Catalog{}, false
	}
	return r.cached, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
