package engine

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/coffersTech/nanosearch/internal/pkg/nanoql"
)

// QueryCache keeps prepared queries by expression text. Prepared queries
// are immutable, so a cached value is shared by every caller.
type QueryCache struct {
	c *cache.Cache
}

func NewQueryCache(expiration, cleanup time.Duration) *QueryCache {
	return &QueryCache{c: cache.New(expiration, cleanup)}
}

func (qc *QueryCache) Get(expr string) (*nanoql.Query, bool) {
	v, ok := qc.c.Get(expr)
	if !ok {
		return nil, false
	}
	q, ok := v.(*nanoql.Query)
	return q, ok
}

func (qc *QueryCache) Set(expr string, q *nanoql.Query) {
	qc.c.Set(expr, q, cache.DefaultExpiration)
}

// Len returns the number of cached entries, expired ones included until
// the next cleanup.
func (qc *QueryCache) Len() int {
	return qc.c.ItemCount()
}
