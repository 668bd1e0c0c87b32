package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/coffersTech/nanosearch/internal/log"
	"github.com/coffersTech/nanosearch/internal/metric"
	"github.com/coffersTech/nanosearch/internal/pkg/nanoql"
)

// ErrQueryTooLong is returned for expressions over Options.MaxQueryLength.
var ErrQueryTooLong = errors.New("query too long")

// Options configures a QueryEngine.
type Options struct {
	Capacity        int // rows per MemTable generation
	DefaultLimit    int
	MaxQueryLength  int
	CacheExpiration time.Duration
	CacheCleanup    time.Duration
	Retention       time.Duration // 0 keeps the sealed generation until rotated out
}

// QueryEngine owns the in-memory document store and runs compiled queries
// against it. Documents live in two MemTable generations: the active one
// takes writes and, once full, is sealed and replaces the previous sealed
// one, whose rows are dropped.
type QueryEngine struct {
	opts  Options
	cache *QueryCache

	// mu protects the generation pointers
	mu     sync.RWMutex
	active *MemTable
	sealed *MemTable

	// Counts of rows dropped by rotation or retention
	dropped   droppedStats
	statsLock sync.RWMutex

	writeCounter int64
	rateBits     uint64 // float64 docs/sec, updated by the stats ticker
}

// NewQueryEngine creates a QueryEngine with an empty active table.
func NewQueryEngine(opts Options) *QueryEngine {
	if opts.Capacity <= 0 {
		opts.Capacity = 4096
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 100
	}
	return &QueryEngine{
		opts:    opts,
		cache:   NewQueryCache(opts.CacheExpiration, opts.CacheCleanup),
		active:  NewMemTable(opts.Capacity),
		dropped: newDroppedStats(),
	}
}

// Cache exposes the compiled query cache.
func (qe *QueryEngine) Cache() *QueryCache { return qe.cache }

// Compile turns an expression into a prepared query, going through the
// cache. Errors from the expression itself keep their nanoql or
// fieldparser type under the wrapping.
func (qe *QueryEngine) Compile(ctx context.Context, expr string) (*nanoql.Query, error) {
	if qe.opts.MaxQueryLength > 0 && len(expr) > qe.opts.MaxQueryLength {
		metric.CompileInc(metric.StatusFailed)
		return nil, errors.Wrapf(ErrQueryTooLong, "%d bytes, limit is %d", len(expr), qe.opts.MaxQueryLength)
	}

	if q, ok := qe.cache.Get(expr); ok {
		metric.CompileInc(metric.StatusCached)
		return q, nil
	}

	start := time.Now()
	node, err := nanoql.Compile(expr)
	if err == nil {
		var q *nanoql.Query
		if q, err = nanoql.Prepare(node); err == nil {
			metric.CompileObserve(time.Since(start))
			metric.CompileInc(metric.StatusSuccess)
			qe.cache.Set(expr, q)
			return q, nil
		}
	}

	metric.CompileInc(metric.StatusFailed)
	log.Debugf(ctx, "compile %q failed: %v", expr, err)
	return nil, errors.Wrap(err, "compile query")
}

// compileFilter is Compile for optional filters: a blank expression
// yields a nil query, which matches everything.
func (qe *QueryEngine) compileFilter(ctx context.Context, expr string) (*nanoql.Query, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}
	return qe.Compile(ctx, expr)
}

// Ingest stores a document and returns its ID. Missing ID, timestamp and
// service are filled in. Known levels are stored upper-cased, a missing
// level becomes INFO and any other level is kept as given.
func (qe *QueryEngine) Ingest(ctx context.Context, doc Document) string {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Timestamp == 0 {
		doc.Timestamp = time.Now().UnixNano()
	}
	if doc.Service == "" {
		doc.Service = "default"
	}

	for {
		qe.mu.RLock()
		mt := qe.active
		ok := mt.Append(&doc)
		qe.mu.RUnlock()
		if ok {
			break
		}
		qe.rotate(ctx, mt)
	}

	atomic.AddInt64(&qe.writeCounter, 1)
	return doc.ID
}

// rotate seals full, unless another writer already did.
func (qe *QueryEngine) rotate(ctx context.Context, full *MemTable) {
	qe.mu.Lock()
	if qe.active != full {
		qe.mu.Unlock()
		return
	}
	// The dropped generation is cleared and becomes the new active table.
	next := qe.sealed
	dropped := 0
	if next != nil {
		dropped = next.Len()
		qe.drop(next)
		next.Reset()
	} else {
		next = NewMemTable(qe.opts.Capacity)
	}
	qe.sealed = qe.active
	qe.active = next
	qe.mu.Unlock()

	if dropped > 0 {
		log.Infof(ctx, "memtable rotated, dropped %d documents", dropped)
	}
}

func (qe *QueryEngine) drop(mt *MemTable) {
	s := mt.GetStats()
	qe.statsLock.Lock()
	qe.dropped.add(s)
	qe.statsLock.Unlock()
}

// generations returns the tables newest first.
func (qe *QueryEngine) generations() []*MemTable {
	qe.mu.RLock()
	defer qe.mu.RUnlock()
	if qe.sealed == nil {
		return []*MemTable{qe.active}
	}
	return []*MemTable{qe.active, qe.sealed}
}

// SearchRequest selects documents. Zero MinTime/MaxTime leave that end of
// the window open; Limit <= 0 uses the engine default.
type SearchRequest struct {
	Query   string `json:"q"`
	MinTime int64  `json:"min_time"`
	MaxTime int64  `json:"max_time"`
	Limit   int    `json:"limit"`
}

type SearchResult struct {
	Hits   []Document `json:"hits"`
	TookMs float64    `json:"took_ms"`
}

// Search returns matching documents, most recently ingested first.
func (qe *QueryEngine) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	start := time.Now()

	q, err := qe.compileFilter(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = qe.opts.DefaultLimit
	}

	hits := make([]Document, 0)
	for _, mt := range qe.generations() {
		if len(hits) >= limit {
			break
		}
		hits = append(hits, mt.Search(q, req.MinTime, req.MaxTime, limit-len(hits))...)
	}

	return &SearchResult{
		Hits:   hits,
		TookMs: float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

// StartStatsTicker updates the ingestion rate and the documents gauge
// every interval until ctx is done.
func (qe *QueryEngine) StartStatsTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				count := atomic.SwapInt64(&qe.writeCounter, 0)
				qe.setRate(float64(count) / interval.Seconds())
				metric.DocumentsSet(qe.Len())
			}
		}
	}()
}

// Len returns the number of documents held.
func (qe *QueryEngine) Len() int {
	n := 0
	for _, mt := range qe.generations() {
		n += mt.Len()
	}
	return n
}
